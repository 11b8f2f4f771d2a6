package checker

import (
	"context"
	"fmt"
	"time"

	"github.com/campuskit/notifier/internal/domain/candidate"
	"github.com/campuskit/notifier/internal/repository/postgres"
)

const RuleChildAbsent = "CHILD_ABSENT"

var _ candidate.Checker = (*AttendanceChecker)(nil)

// AttendanceChecker flags students marked absent today and targets their
// parent users.
type AttendanceChecker struct{ db *postgres.DB }

func NewAttendanceChecker(db *postgres.DB) *AttendanceChecker {
	return &AttendanceChecker{db: db}
}

func (c *AttendanceChecker) Name() string { return "attendance" }

const qAbsentToday = `
SELECT s.id, s.full_name, s.parent_user_id
FROM students s
JOIN attendance_records a ON a.student_id = s.id
WHERE s.tenant_id = $1
  AND a.day = $2
  AND a.status = 'ABSENT';
`

func (c *AttendanceChecker) Check(ctx context.Context, tenantID string, now time.Time) ([]candidate.Candidate, error) {
	day := now.Format("2006-01-02")

	rows, err := c.db.Pool.Query(ctx, qAbsentToday, tenantID, day)
	if err != nil {
		return nil, fmt.Errorf("query absences: %w", err)
	}
	defer rows.Close()

	var out []candidate.Candidate
	for rows.Next() {
		var studentID, fullName, parentUserID string
		if err := rows.Scan(&studentID, &fullName, &parentUserID); err != nil {
			return nil, fmt.Errorf("scan absence: %w", err)
		}
		out = append(out, candidate.Candidate{
			TenantID: tenantID,
			UserID:   parentUserID,
			RuleType: RuleChildAbsent,
			RuleKey:  RuleKey(RuleChildAbsent, now, studentID),
			Title:    "Absence recorded",
			Message:  fmt.Sprintf("%s was marked absent today.", fullName),
			Priority: candidate.PriorityHigh,
			Category: candidate.CategoryAttendance,
			Metadata: map[string]string{"student_id": studentID},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
