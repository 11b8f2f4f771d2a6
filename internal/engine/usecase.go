package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/campuskit/notifier/internal/checker"
	"github.com/campuskit/notifier/internal/domain/candidate"
	"github.com/campuskit/notifier/internal/domain/tenant"
	"github.com/campuskit/notifier/internal/obs"
	"github.com/campuskit/notifier/internal/obs/retry"
)

type RunConfig struct {
	BatchSize     int           `mapstructure:"batch_size"`
	TenantTimeout time.Duration `mapstructure:"tenant_timeout"`
}

// Usecase drives one orchestration run: fetch active tenants, fan out the
// checkers per tenant, push every candidate through the guard pipeline and
// dispatch the admitted ones. Tenants are processed in sequential batches
// with tenants inside a batch running in parallel, which caps concurrent
// load on the store and the delivery provider.
type Usecase struct {
	Tenants    tenant.Source
	Registry   *checker.Registry
	Pipeline   *Pipeline
	Dispatcher *Dispatcher
	Clock      candidate.Clock
	Log        *zap.Logger
	Cfg        RunConfig
}

func NewUsecase(
	tenants tenant.Source,
	registry *checker.Registry,
	pipeline *Pipeline,
	dispatcher *Dispatcher,
	clk candidate.Clock,
	log *zap.Logger,
	cfg RunConfig,
) *Usecase {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.TenantTimeout <= 0 {
		cfg.TenantTimeout = 30 * time.Second
	}
	return &Usecase{
		Tenants:    tenants,
		Registry:   registry,
		Pipeline:   pipeline,
		Dispatcher: dispatcher,
		Clock:      clk,
		Log:        log.With(zap.String("component", "engine.usecase")),
		Cfg:        cfg,
	}
}

// ProcessRun executes one run and returns its statistics. The only run-fatal
// error is an exhausted tenant-list fetch; everything below tenant level is
// isolated, counted and logged. Overlapping runs are safe, not prevented:
// dedup and the quota upsert keep them idempotent.
func (u *Usecase) ProcessRun(ctx context.Context) (RunStats, error) {
	tr := otel.Tracer("engine.run")
	ctx, span := tr.Start(ctx, "engine.process_run")
	defer span.End()

	now := u.Clock.Now()

	var tenants []tenant.Tenant
	err := retry.Do(ctx, func() error {
		var ferr error
		tenants, ferr = u.Tenants.ActiveTenants(ctx)
		return ferr
	}, retry.TenantFetchPolicy(u.Log))
	if err != nil {
		span.RecordError(err)
		return RunStats{}, fmt.Errorf("fetch tenants: %w", err)
	}

	span.SetAttributes(attribute.Int("tenants.active", len(tenants)))

	var stats RunStats
	for start := 0; start < len(tenants); start += u.Cfg.BatchSize {
		end := start + u.Cfg.BatchSize
		if end > len(tenants) {
			end = len(tenants)
		}
		batch := tenants[start:end]

		results := make([]RunStats, len(batch))
		var wg sync.WaitGroup
		for i, t := range batch {
			wg.Add(1)
			go func(i int, t tenant.Tenant) {
				defer wg.Done()
				results[i] = u.processTenant(ctx, t, now)
			}(i, t)
		}
		wg.Wait()

		for _, r := range results {
			stats.Add(r)
		}
	}

	span.SetAttributes(
		attribute.Int("run.processed", stats.Processed),
		attribute.Int("run.sent", stats.Sent),
		attribute.Int("run.errors", stats.Errors),
	)
	return stats, nil
}

func (u *Usecase) processTenant(ctx context.Context, t tenant.Tenant, now time.Time) (out RunStats) {
	out.Tenants = 1

	log := u.Log.With(zap.String("tenant_id", t.ID))

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("tenant processing panic", zap.Any("panic", rec))
			out.Errors++
		}
	}()

	tctx, cancel := context.WithTimeout(ctx, u.Cfg.TenantTimeout)
	defer cancel()

	tr := otel.Tracer("engine.run")
	tctx, span := tr.Start(tctx, "engine.tenant",
		trace.WithAttributes(attribute.String("tenant.id", t.ID)),
	)
	defer span.End()

	cands := u.Registry.Collect(tctx, t.ID, now)

	// Candidates flow through the pipeline one at a time: a user belongs to
	// one tenant, so sequencing here is what keeps the quota check-then-
	// increment race-free within a run.
	for _, c := range cands {
		out.Processed++

		verdict, err := u.Pipeline.Evaluate(tctx, c, now)
		if err != nil {
			// Fail closed: an undecidable guard rejects.
			out.Errors++
			obs.WithTrace(tctx, log).Warn("guard error, candidate rejected",
				zap.String("rule_key", c.RuleKey), zap.Error(err))
			continue
		}

		switch verdict {
		case VerdictAdmit:
			if err := u.Dispatcher.Dispatch(tctx, c); err != nil {
				out.Errors++
				continue
			}
			out.Sent++
		case VerdictQuietHours:
			out.Skipped++
		case VerdictDuplicate:
			out.Duplicates++
		case VerdictRateLimited:
			out.RateLimited++
		}
	}

	if tctx.Err() != nil {
		span.RecordError(tctx.Err())
		log.Warn("tenant processing cut short", zap.Error(tctx.Err()))
		out.Errors++
	}

	span.SetAttributes(
		attribute.Int("tenant.candidates", len(cands)),
		attribute.Int("tenant.sent", out.Sent),
	)
	return out
}
