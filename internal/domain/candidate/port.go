package candidate

import (
	"context"
	"time"
)

// Checker is a pluggable rule evaluator. Implementations inspect tenant data
// and emit zero or more candidates; they must be side-effect-free with
// respect to the engine's state and return an error (or nothing) rather than
// partially mutate anything.
type Checker interface {
	Name() string
	Check(ctx context.Context, tenantID string, now time.Time) ([]Candidate, error)
}

type Clock interface {
	Now() time.Time
}
