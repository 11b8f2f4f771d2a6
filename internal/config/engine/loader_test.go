package engine_config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Rules.MaxDaily)
	assert.Equal(t, 22, cfg.Rules.QuietStart)
	assert.Equal(t, 7, cfg.Rules.QuietEnd)
	assert.Equal(t, "postgres", cfg.Ledger.Backend)
	assert.Equal(t, "kafka", cfg.Delivery.Provider)
	assert.Equal(t, 10, cfg.Sched.BatchSize)
	assert.Equal(t, 30*time.Second, cfg.Sched.TenantTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Sched.Tick)
	assert.Equal(t, ":8082", cfg.Sched.OpsAddr)
	assert.Equal(t, 48*time.Hour, cfg.Ledger.Redis.TTL)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load("does/not/exist.yaml")
	require.NoError(t, err)
	assert.Equal(t, "campuskit/notifier", cfg.App.Name)
}

func TestSchedConversions(t *testing.T) {
	s := Sched{Tick: time.Minute, BatchSize: 4, TenantTimeout: 10 * time.Second}
	assert.Equal(t, 4, s.AsRunConfig().BatchSize)
	assert.Equal(t, 10*time.Second, s.AsRunConfig().TenantTimeout)
	assert.Equal(t, time.Minute, s.AsRunnerConfig().Tick)
}
