package checker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/campuskit/notifier/internal/domain/candidate"
)

// Registry holds the checkers invoked for every tenant. New rule types plug
// in by implementing candidate.Checker; nothing else changes.
type Registry struct {
	log      *zap.Logger
	checkers []candidate.Checker
}

func NewRegistry(log *zap.Logger, checkers ...candidate.Checker) *Registry {
	return &Registry{
		log:      log.With(zap.String("component", "checker.registry")),
		checkers: checkers,
	}
}

func (r *Registry) Register(c candidate.Checker) { r.checkers = append(r.checkers, c) }

func (r *Registry) Len() int { return len(r.checkers) }

// Collect runs every checker for one tenant in parallel and concatenates the
// results. A checker error or panic contributes zero candidates and is
// logged; it never fails the tenant. No ordering between checkers is
// guaranteed or relied on downstream.
func (r *Registry) Collect(ctx context.Context, tenantID string, now time.Time) []candidate.Candidate {
	results := make([][]candidate.Candidate, len(r.checkers))

	var wg sync.WaitGroup
	for i, c := range r.checkers {
		wg.Add(1)
		go func(i int, c candidate.Checker) {
			defer wg.Done()
			results[i] = r.runOne(ctx, c, tenantID, now)
		}(i, c)
	}
	wg.Wait()

	var out []candidate.Candidate
	for _, cands := range results {
		out = append(out, cands...)
	}
	return out
}

func (r *Registry) runOne(ctx context.Context, c candidate.Checker, tenantID string, now time.Time) (out []candidate.Candidate) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("checker panic",
				zap.String("checker", c.Name()),
				zap.String("tenant_id", tenantID),
				zap.Any("panic", rec),
			)
			out = nil
		}
	}()

	cands, err := c.Check(ctx, tenantID, now)
	if err != nil {
		r.log.Warn("checker failed",
			zap.String("checker", c.Name()),
			zap.String("tenant_id", tenantID),
			zap.Error(err),
		)
		return nil
	}
	return cands
}

// RuleKey builds the deterministic idempotency key shared by all shipped
// checkers: rule type + calendar day + entity id.
func RuleKey(ruleType string, day time.Time, entityID string) string {
	return fmt.Sprintf("%s:%s:%s", ruleType, day.Format("2006-01-02"), entityID)
}
