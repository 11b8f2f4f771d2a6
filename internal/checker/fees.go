package checker

import (
	"context"
	"fmt"
	"time"

	"github.com/campuskit/notifier/internal/domain/candidate"
	"github.com/campuskit/notifier/internal/repository/postgres"
)

const RuleFeeDue = "FEE_DUE"

var _ candidate.Checker = (*FeesChecker)(nil)

// FeesChecker flags unpaid fee installments past their due date. The rule
// key includes the installment id, so each installment reminds once per day
// it is checked, never twice for the same day.
type FeesChecker struct{ db *postgres.DB }

func NewFeesChecker(db *postgres.DB) *FeesChecker { return &FeesChecker{db: db} }

func (c *FeesChecker) Name() string { return "fees" }

const qOverdueInstallments = `
SELECT f.id, f.amount_due, s.full_name, s.parent_user_id
FROM fee_installments f
JOIN students s ON s.id = f.student_id
WHERE s.tenant_id = $1
  AND f.paid = FALSE
  AND f.due_date < $2;
`

func (c *FeesChecker) Check(ctx context.Context, tenantID string, now time.Time) ([]candidate.Candidate, error) {
	day := now.Format("2006-01-02")

	rows, err := c.db.Pool.Query(ctx, qOverdueInstallments, tenantID, day)
	if err != nil {
		return nil, fmt.Errorf("query overdue fees: %w", err)
	}
	defer rows.Close()

	var out []candidate.Candidate
	for rows.Next() {
		var installmentID, fullName, parentUserID string
		var amountDue float64
		if err := rows.Scan(&installmentID, &amountDue, &fullName, &parentUserID); err != nil {
			return nil, fmt.Errorf("scan installment: %w", err)
		}
		out = append(out, candidate.Candidate{
			TenantID: tenantID,
			UserID:   parentUserID,
			RuleType: RuleFeeDue,
			RuleKey:  RuleKey(RuleFeeDue, now, installmentID),
			Title:    "Fee payment due",
			Message:  fmt.Sprintf("A fee installment of %.2f for %s is overdue.", amountDue, fullName),
			Priority: candidate.PriorityNormal,
			Category: candidate.CategoryFee,
			Metadata: map[string]string{"installment_id": installmentID},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
