package engine_config

import (
	"time"

	"github.com/campuskit/notifier/internal/engine"
	"github.com/campuskit/notifier/internal/obs"
	"github.com/campuskit/notifier/internal/providers"
	pginfra "github.com/campuskit/notifier/internal/repository/postgres"
	redisinfra "github.com/campuskit/notifier/internal/repository/redis"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func (lc *Log) AsLoggerConfig(app App) obs.LogConfig {
	return obs.LogConfig{
		Level:  lc.Level,
		Pretty: lc.Pretty,
		App:    app.Name,
		Env:    app.Env,
		Ver:    app.Version,
	}
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

func (oc *OTEL) AsOTELConfig() *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:      oc.Enable,
		Endpoint:    oc.OTLPEndpoint,
		ServiceName: oc.ServiceName,
		SampleRatio: oc.SampleRatio,
	}
}

type KafkaCfg struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// Rules holds the guard configuration. QuietStart/QuietEnd are wall-clock
// hours in QuietLocation; the window may wrap midnight.
type Rules struct {
	MaxDaily       int           `mapstructure:"max_daily"`
	QuietStart     int           `mapstructure:"quiet_start"`
	QuietEnd       int           `mapstructure:"quiet_end"`
	QuietLocation  string        `mapstructure:"quiet_location"`
	FleetStaleness time.Duration `mapstructure:"fleet_staleness"`
}

// Ledger selects the ledger backend: "postgres" or "redis".
type Ledger struct {
	Backend string            `mapstructure:"backend"`
	Redis   redisinfra.Config `mapstructure:"redis"`
}

// Delivery selects the provider: "kafka" or "webhook".
type Delivery struct {
	Provider string                  `mapstructure:"provider"`
	Kafka    KafkaCfg                `mapstructure:"kafka"`
	Webhook  providers.WebhookConfig `mapstructure:"webhook"`
}

type Sched struct {
	Tick          time.Duration `mapstructure:"tick"`
	BatchSize     int           `mapstructure:"batch_size"`
	TenantTimeout time.Duration `mapstructure:"tenant_timeout"`
	OpsAddr       string        `mapstructure:"ops_addr"`
}

func (s *Sched) AsRunConfig() engine.RunConfig {
	return engine.RunConfig{BatchSize: s.BatchSize, TenantTimeout: s.TenantTimeout}
}

func (s *Sched) AsRunnerConfig() engine.RunnerConfig {
	return engine.RunnerConfig{Tick: s.Tick}
}

type Config struct {
	App      App            `mapstructure:"app"`
	Log      Log            `mapstructure:"log"`
	OTEL     OTEL           `mapstructure:"otel"`
	DB       pginfra.Config `mapstructure:"db"`
	Ledger   Ledger         `mapstructure:"ledger"`
	Delivery Delivery       `mapstructure:"delivery"`
	Rules    Rules          `mapstructure:"rules"`
	Sched    Sched          `mapstructure:"sched"`
}
