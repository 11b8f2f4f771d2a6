package postgres

import (
	"context"
	"fmt"

	"github.com/campuskit/notifier/internal/domain/tenant"
)

var _ tenant.Source = (*TenantRepo)(nil)

type TenantRepo struct{ db *DB }

func NewTenantRepo(db *DB) *TenantRepo { return &TenantRepo{db: db} }

const qActiveTenants = `
SELECT id, name, active, created_at
FROM tenants
WHERE active = TRUE
ORDER BY id;
`

func (r *TenantRepo) ActiveTenants(ctx context.Context) ([]tenant.Tenant, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qActiveTenants)
	if err != nil {
		return nil, fmt.Errorf("query tenants: %w", err)
	}
	defer rows.Close()

	var out []tenant.Tenant
	for rows.Next() {
		var t tenant.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Active, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
