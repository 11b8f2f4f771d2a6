package ledger

import (
	"context"
	"time"
)

// Ledger is the single source of truth the guards consult and the dispatcher
// updates. Both write operations must be atomic and safe under concurrent
// callers for the same key.
type Ledger interface {
	// HasDelivery reports whether (userID, ruleKey) was ever delivered.
	HasDelivery(ctx context.Context, userID, ruleKey string) (bool, error)

	// DailyCount returns the delivery count for the user on the given day key.
	// A missing counter reads as zero.
	DailyCount(ctx context.Context, userID, day string) (int, error)

	// RecordDelivery creates the delivery record. Idempotent: a duplicate
	// create (unique-constraint violation on retry) is success, not an error.
	RecordDelivery(ctx context.Context, userID, ruleKey string, sentAt time.Time) error

	// IncrementDailyCount upserts the counter (create with 1 or increment)
	// and returns the new count.
	IncrementDailyCount(ctx context.Context, userID, day string) (int, error)
}
