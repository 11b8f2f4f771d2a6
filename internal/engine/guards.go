package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/campuskit/notifier/internal/domain/candidate"
	"github.com/campuskit/notifier/internal/domain/ledger"
)

// Verdict is a guard's decision for one candidate.
type Verdict int

const (
	VerdictAdmit Verdict = iota
	VerdictQuietHours
	VerdictDuplicate
	VerdictRateLimited
)

func (v Verdict) String() string {
	switch v {
	case VerdictAdmit:
		return "admit"
	case VerdictQuietHours:
		return "quiet_hours"
	case VerdictDuplicate:
		return "duplicate"
	case VerdictRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// Guard admits or rejects a candidate. A returned error means the guard could
// not decide; the pipeline treats that as a rejection (fail closed), never as
// admission.
type Guard interface {
	Name() string
	Inspect(ctx context.Context, c candidate.Candidate, now time.Time) (Verdict, error)
}

// QuietHoursGuard rejects everything but CRITICAL inside the configured
// window [Start,End), hours in Loc's wall clock. Start == End disables the
// window.
type QuietHoursGuard struct {
	Start int
	End   int
	Loc   *time.Location
}

func (g QuietHoursGuard) Name() string { return "quiet_hours" }

func (g QuietHoursGuard) Inspect(_ context.Context, c candidate.Candidate, now time.Time) (Verdict, error) {
	if !g.contains(now) {
		return VerdictAdmit, nil
	}
	if c.Priority == candidate.PriorityCritical {
		return VerdictAdmit, nil
	}
	return VerdictQuietHours, nil
}

func (g QuietHoursGuard) contains(now time.Time) bool {
	if g.Start == g.End {
		return false
	}
	loc := g.Loc
	if loc == nil {
		loc = time.Local
	}
	h := now.In(loc).Hour()
	if g.Start < g.End {
		return h >= g.Start && h < g.End
	}
	// Window wraps midnight, e.g. 22 → 7.
	return h >= g.Start || h < g.End
}

// DedupGuard rejects candidates whose (user, rule key) was ever delivered.
// It only reads: the record is written by the dispatcher after a successful
// send, so an event is never marked delivered when delivery did not happen.
type DedupGuard struct {
	Ledger ledger.Ledger
}

func (g DedupGuard) Name() string { return "dedup" }

func (g DedupGuard) Inspect(ctx context.Context, c candidate.Candidate, _ time.Time) (Verdict, error) {
	seen, err := g.Ledger.HasDelivery(ctx, c.UserID, c.RuleKey)
	if err != nil {
		return VerdictDuplicate, fmt.Errorf("dedup lookup: %w", err)
	}
	if seen {
		return VerdictDuplicate, nil
	}
	return VerdictAdmit, nil
}

// QuotaGuard rejects candidates for users at or over the daily cap. The cap
// applies to every priority; quiet hours are the only priority-sensitive
// guard.
type QuotaGuard struct {
	Ledger   ledger.Ledger
	MaxDaily int
}

func (g QuotaGuard) Name() string { return "quota" }

func (g QuotaGuard) Inspect(ctx context.Context, c candidate.Candidate, now time.Time) (Verdict, error) {
	count, err := g.Ledger.DailyCount(ctx, c.UserID, ledger.DayKey(now))
	if err != nil {
		return VerdictRateLimited, fmt.Errorf("quota lookup: %w", err)
	}
	if count >= g.MaxDaily {
		return VerdictRateLimited, nil
	}
	return VerdictAdmit, nil
}

// Pipeline applies its guards in order, short-circuiting on the first
// rejection. Order is fixed by construction: quiet hours before dedup before
// quota, so quota is only charged against candidates that already passed
// dedup.
type Pipeline struct {
	guards []Guard
}

func NewPipeline(guards ...Guard) *Pipeline { return &Pipeline{guards: guards} }

// Evaluate returns the first non-admit verdict, or VerdictAdmit. A guard
// error rejects the candidate with that guard's verdict and is propagated so
// the caller can count it as an error instead.
func (p *Pipeline) Evaluate(ctx context.Context, c candidate.Candidate, now time.Time) (Verdict, error) {
	for _, g := range p.guards {
		v, err := g.Inspect(ctx, c, now)
		if err != nil {
			return v, fmt.Errorf("guard %s: %w", g.Name(), err)
		}
		if v != VerdictAdmit {
			return v, nil
		}
	}
	return VerdictAdmit, nil
}
