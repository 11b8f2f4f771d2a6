package engine

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

type RunnerConfig struct {
	Tick time.Duration `mapstructure:"tick"`
}

// Runner invokes the usecase on a fixed cadence. The engine is cadence-
// agnostic: running more or less often than the configured tick is safe
// because runs are idempotent.
type Runner struct {
	Log *zap.Logger
	UC  *Usecase
	Cfg RunnerConfig

	mProcessed   prometheus.Counter
	mSent        prometheus.Counter
	mSkipped     prometheus.Counter
	mRateLimited prometheus.Counter
	mDuplicates  prometheus.Counter
	mErr         prometheus.Counter
	mTenants     prometheus.Counter
	mRunDur      prometheus.Histogram
}

func NewRunner(log *zap.Logger, uc *Usecase, cfg RunnerConfig) *Runner {
	if cfg.Tick <= 0 {
		cfg.Tick = 5 * time.Minute
	}
	return &Runner{
		Log: log.With(zap.String("component", "engine.runner")),
		UC:  uc,
		Cfg: cfg,
		mProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "notifier_candidates_processed_total", Help: "Candidates evaluated by the guard pipeline",
		}),
		mSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "notifier_sent_total", Help: "Notifications delivered",
		}),
		mSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "notifier_skipped_total", Help: "Candidates rejected by quiet hours",
		}),
		mRateLimited: promauto.NewCounter(prometheus.CounterOpts{
			Name: "notifier_rate_limited_total", Help: "Candidates rejected by the daily quota",
		}),
		mDuplicates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "notifier_duplicates_total", Help: "Candidates rejected as already delivered",
		}),
		mErr: promauto.NewCounter(prometheus.CounterOpts{
			Name: "notifier_errors_total", Help: "Checker, guard, tenant and delivery errors",
		}),
		mTenants: promauto.NewCounter(prometheus.CounterOpts{
			Name: "notifier_tenants_processed_total", Help: "Tenants iterated across runs",
		}),
		mRunDur: promauto.NewHistogram(prometheus.HistogramOpts{
			Name: "notifier_run_duration_seconds", Help: "Orchestration run duration",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// RunOnce executes a single run, records metrics and returns the stats. Used
// by the ticker loop and by the manual ops trigger.
func (r *Runner) RunOnce(ctx context.Context) (RunStats, error) {
	start := time.Now()
	stats, err := r.UC.ProcessRun(ctx)
	r.mRunDur.Observe(time.Since(start).Seconds())

	if err != nil {
		r.mErr.Inc()
		r.Log.Error("run failed", zap.Error(err))
		return stats, err
	}

	r.mProcessed.Add(float64(stats.Processed))
	r.mSent.Add(float64(stats.Sent))
	r.mSkipped.Add(float64(stats.Skipped))
	r.mRateLimited.Add(float64(stats.RateLimited))
	r.mDuplicates.Add(float64(stats.Duplicates))
	r.mErr.Add(float64(stats.Errors))
	r.mTenants.Add(float64(stats.Tenants))

	r.Log.Info("run complete", append(stats.Fields(), zap.Duration("elapsed", time.Since(start)))...)
	return stats, nil
}

func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.Cfg.Tick)
	defer ticker.Stop()

	if _, err := r.RunOnce(ctx); err != nil && ctx.Err() != nil {
		return ctx.Err()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
}
