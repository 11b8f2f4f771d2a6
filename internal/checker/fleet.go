package checker

import (
	"context"
	"fmt"
	"time"

	"github.com/campuskit/notifier/internal/domain/candidate"
	"github.com/campuskit/notifier/internal/repository/postgres"
)

const RuleBusOffline = "BUS_OFFLINE"

var _ candidate.Checker = (*FleetChecker)(nil)

// FleetChecker flags buses whose GPS heartbeat has gone stale while a route
// is in progress. Safety-critical: these bypass quiet hours.
type FleetChecker struct {
	db        *postgres.DB
	staleness time.Duration
}

func NewFleetChecker(db *postgres.DB, staleness time.Duration) *FleetChecker {
	if staleness <= 0 {
		staleness = 10 * time.Minute
	}
	return &FleetChecker{db: db, staleness: staleness}
}

func (c *FleetChecker) Name() string { return "fleet" }

const qStaleVehicles = `
SELECT v.id, v.registration, v.manager_user_id
FROM vehicles v
WHERE v.tenant_id = $1
  AND v.on_route = TRUE
  AND v.last_heartbeat < $2;
`

func (c *FleetChecker) Check(ctx context.Context, tenantID string, now time.Time) ([]candidate.Candidate, error) {
	cutoff := now.Add(-c.staleness).UTC()

	rows, err := c.db.Pool.Query(ctx, qStaleVehicles, tenantID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query stale vehicles: %w", err)
	}
	defer rows.Close()

	var out []candidate.Candidate
	for rows.Next() {
		var vehicleID, registration, managerUserID string
		if err := rows.Scan(&vehicleID, &registration, &managerUserID); err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		out = append(out, candidate.Candidate{
			TenantID: tenantID,
			UserID:   managerUserID,
			RuleType: RuleBusOffline,
			RuleKey:  RuleKey(RuleBusOffline, now, vehicleID),
			Title:    "Bus offline",
			Message:  fmt.Sprintf("Bus %s stopped reporting its position while on route.", registration),
			Priority: candidate.PriorityCritical,
			Category: candidate.CategoryFleet,
			Metadata: map[string]string{"vehicle_id": vehicleID},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
