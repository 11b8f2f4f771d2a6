package postgres

import (
	"context"
	"fmt"

	"github.com/campuskit/notifier/internal/domain/delivery"
)

var _ delivery.AuditLog = (*AuditRepo)(nil)

type AuditRepo struct{ db *DB }

func NewAuditRepo(db *DB) *AuditRepo { return &AuditRepo{db: db} }

const qAuditInsert = `
INSERT INTO notification_audit (id, tenant_id, user_id, rule_type, rule_key, priority, provider, sent_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
`

func (r *AuditRepo) Append(ctx context.Context, e delivery.AuditEntry) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.Pool.Exec(ctx, qAuditInsert,
		e.ID,
		e.TenantID,
		e.UserID,
		e.RuleType,
		e.RuleKey,
		e.Priority,
		e.Provider,
		e.SentAt.UTC(),
	); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}
