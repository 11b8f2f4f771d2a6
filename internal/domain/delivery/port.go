package delivery

import (
	"context"
	"time"

	"github.com/campuskit/notifier/internal/domain/candidate"
)

// Provider hands an admitted candidate to the external push transport.
// The engine interprets the result as success/failure only.
type Provider interface {
	Name() string
	Send(ctx context.Context, c candidate.Candidate) error
}

// AuditEntry is the durable trace of one successful delivery.
type AuditEntry struct {
	ID       string    `json:"id"`
	TenantID string    `json:"tenant_id"`
	UserID   string    `json:"user_id"`
	RuleType string    `json:"rule_type"`
	RuleKey  string    `json:"rule_key"`
	Priority string    `json:"priority"`
	Provider string    `json:"provider"`
	SentAt   time.Time `json:"sent_at"`
}

// AuditLog stores delivery audit entries. Appends are best-effort: a failed
// append is logged by the caller and never fails the dispatch.
type AuditLog interface {
	Append(ctx context.Context, e AuditEntry) error
}
