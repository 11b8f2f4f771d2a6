package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/campuskit/notifier/internal/checker"
	config "github.com/campuskit/notifier/internal/config/engine"
	"github.com/campuskit/notifier/internal/domain/delivery"
	"github.com/campuskit/notifier/internal/domain/ledger"
	"github.com/campuskit/notifier/internal/engine"
	"github.com/campuskit/notifier/internal/obs"
	"github.com/campuskit/notifier/internal/providers"
	kafkax "github.com/campuskit/notifier/internal/repository/kafka"
	pg "github.com/campuskit/notifier/internal/repository/postgres"
	redisledger "github.com/campuskit/notifier/internal/repository/redis"
)

func main() {
	cfgPath := flag.String("config", "config/engine.yaml", "path to config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	// logger
	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig(cfg.App))
	if err != nil {
		log.Fatal(err)
	}
	zap.ReplaceGlobals(l)
	l.Info("starting notifier engine",
		zap.String("ledger_backend", cfg.Ledger.Backend),
		zap.String("delivery_provider", cfg.Delivery.Provider),
		zap.String("ops_addr", cfg.Sched.OpsAddr),
	)

	// otel
	otelCloser, err := obs.SetupOTel(ctx, cfg.OTEL.AsOTELConfig())
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	// db
	db, err := pg.New(ctx, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// ledger backend
	var led ledger.Ledger
	switch cfg.Ledger.Backend {
	case "redis":
		rl := redisledger.New(cfg.Ledger.Redis)
		if err := rl.Ping(ctx); err != nil {
			l.Fatal("redis connect", zap.Error(err))
		}
		defer func() { _ = rl.Close() }()
		led = rl
	case "postgres":
		led = pg.NewLedgerRepo(db)
	default:
		l.Fatal("unknown ledger backend", zap.String("backend", cfg.Ledger.Backend))
	}

	// delivery provider
	var provider delivery.Provider
	switch cfg.Delivery.Provider {
	case "webhook":
		provider = providers.NewWebhookProvider(cfg.Delivery.Webhook, l)
	case "kafka":
		prod := kafkax.NewProducer(cfg.Delivery.Kafka.Brokers, cfg.Delivery.Kafka.Topic).WithLogger(l)
		defer func() { _ = prod.Close() }()
		provider = providers.NewKafkaProvider(prod, l)
	default:
		l.Fatal("unknown delivery provider", zap.String("provider", cfg.Delivery.Provider))
	}

	// guards
	loc := time.Local
	if cfg.Rules.QuietLocation != "" && cfg.Rules.QuietLocation != "Local" {
		loc, err = time.LoadLocation(cfg.Rules.QuietLocation)
		if err != nil {
			l.Fatal("load quiet location", zap.Error(err))
		}
	}
	pipeline := engine.NewPipeline(
		engine.QuietHoursGuard{Start: cfg.Rules.QuietStart, End: cfg.Rules.QuietEnd, Loc: loc},
		engine.DedupGuard{Ledger: led},
		engine.QuotaGuard{Ledger: led, MaxDaily: cfg.Rules.MaxDaily},
	)

	// checkers
	registry := checker.NewRegistry(l,
		checker.NewAttendanceChecker(db),
		checker.NewFeesChecker(db),
		checker.NewFleetChecker(db, cfg.Rules.FleetStaleness),
	)

	// wiring
	clock := engine.SystemClock()
	dispatcher := engine.NewDispatcher(provider, led, pg.NewAuditRepo(db), clock, l)
	uc := engine.NewUsecase(pg.NewTenantRepo(db), registry, pipeline, dispatcher, clock, l, cfg.Sched.AsRunConfig())
	runner := engine.NewRunner(l, uc, cfg.Sched.AsRunnerConfig())

	// ops server: metrics, health, manual trigger
	ops := obs.BootstrapOpsServer(cfg.Sched.OpsAddr, func(ctx context.Context) error {
		hctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		return db.Pool.Ping(hctx)
	}, func(w http.ResponseWriter, r *http.Request) {
		stats, err := runner.RunOnce(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(stats)
	}, l)

	// run
	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(ctx) }()

	l.Info("engine started", zap.Int("checkers", registry.Len()))

	select {
	case <-ctx.Done():
	case err = <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error("runner error", zap.Error(err))
		}
	}

	// graceful shutdown
	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ops.Shutdown(shCtx)
	l.Info("bye")
}
