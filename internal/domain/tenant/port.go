package tenant

import "context"

// Source lists the tenants a run iterates. Read-only from the engine's side.
type Source interface {
	ActiveTenants(ctx context.Context) ([]Tenant, error)
}
