package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"gotest.tools/v3/assert"

	"github.com/DangerosoDavo/simstore"
	"github.com/DangerosoDavo/simstore/persist"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	assert.NilError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "simstore.toml")
	contents := `
log_level = "debug"
schema_validation = true
metrics_service = "arena"
snapshot_prefix = "arena"
redis_db = 3
`
	assert.NilError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := Load(path)
	assert.NilError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, true, cfg.SchemaValidation)
	assert.Equal(t, "arena", cfg.MetricsService)
	assert.Equal(t, "arena", cfg.SnapshotPrefix)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, "json", cfg.Codec)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "simstore.toml")
	assert.NilError(t, os.WriteFile(path, []byte(`log_level = "debug"`), 0o600))
	t.Setenv("SIMSTORE_LOG_LEVEL", "warn")
	t.Setenv("SIMSTORE_REDIS_ADDRESS", "redis:6380")

	cfg, err := Load(path)
	assert.NilError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "redis:6380", cfg.RedisOptions().Addr)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("SIMSTORE_CODEC", "gob")
	_, err := Load("")
	assert.ErrorContains(t, err, "invalid codec")

	t.Setenv("SIMSTORE_CODEC", "json")
	t.Setenv("SIMSTORE_LOG_LEVEL", "loud")
	_, err = Load("")
	assert.ErrorContains(t, err, "invalid log_level")
}

type counter struct {
	N int `json:"n"`
}

func (counter) TypeKey() simstore.TypeKey {
	return simstore.MustParseTypeKey("0d6f3c55-94d8-4d0b-8f0e-5f9f4a3e2b11")
}

func TestRegistryOptionsWireLoggerAndMetrics(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "debug"
	cfg.MetricsService = "test"

	var logs bytes.Buffer
	opts, err := cfg.RegistryOptions(&logs)
	assert.NilError(t, err)

	r := simstore.NewRegistry(opts...)
	simstore.RegisterComponent[counter](r)
	r.Push(simstore.NewSpawnCommand(nil, counter{N: 1}))
	assert.NilError(t, r.Execute())

	assert.Assert(t, bytes.Contains(logs.Bytes(), []byte(`"message":"component registered"`)))
	assert.Assert(t, bytes.Contains(logs.Bytes(), []byte(`"message":"commands executed"`)))
}

func TestMetricsDisabledByDefault(t *testing.T) {
	m, sink, err := Default().Metrics()
	assert.NilError(t, err)
	assert.Assert(t, m == nil)
	assert.Assert(t, sink == nil)
}

func TestSnapshotStoreUsesPrefix(t *testing.T) {
	s := miniredis.RunT(t)
	cfg := Default()
	cfg.RedisAddress = s.Addr()
	cfg.SnapshotPrefix = "arena"

	store := cfg.SnapshotStore(cfg.Logger(&bytes.Buffer{}))
	ctx := context.Background()
	assert.NilError(t, store.Save(ctx, "tick-1", []byte("{}")))
	assert.Assert(t, s.Exists("arena:snapshot:tick-1"))

	names, err := store.List(ctx)
	assert.NilError(t, err)
	assert.DeepEqual(t, []string{"tick-1"}, names)

	_, err = store.Load(ctx, "missing")
	assert.ErrorIs(t, err, persist.ErrSnapshotNotFound)
}
