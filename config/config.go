// Package config loads registry and persistence settings from a file and SIMSTORE_
// environment variables.
package config

import (
	"io"
	"strings"
	"time"

	"github.com/armon/go-metrics"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/DangerosoDavo/simstore"
	"github.com/DangerosoDavo/simstore/codec"
	"github.com/DangerosoDavo/simstore/persist"
)

const envPrefix = "SIMSTORE"

// Config holds every tunable of a simstore deployment.
type Config struct {
	LogLevel         string `mapstructure:"log_level"`
	Codec            string `mapstructure:"codec"`
	SchemaValidation bool   `mapstructure:"schema_validation"`
	// MetricsService names the go-metrics service; empty disables metrics.
	MetricsService string `mapstructure:"metrics_service"`
	SnapshotPrefix string `mapstructure:"snapshot_prefix"`
	RedisAddress   string `mapstructure:"redis_address"`
	RedisPassword  string `mapstructure:"redis_password"`
	RedisDB        int    `mapstructure:"redis_db"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		LogLevel:       zerolog.InfoLevel.String(),
		Codec:          codec.JSON.Name(),
		SnapshotPrefix: persist.DefaultPrefix,
		RedisAddress:   "localhost:6379",
	}
}

// Load reads path, when given, then applies SIMSTORE_ environment overrides on top of
// the defaults.
func Load(path string) (Config, error) {
	v := viper.New()
	def := Default()
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("codec", def.Codec)
	v.SetDefault("schema_validation", def.SchemaValidation)
	v.SetDefault("metrics_service", def.MetricsService)
	v.SetDefault("snapshot_prefix", def.SnapshotPrefix)
	v.SetDefault("redis_address", def.RedisAddress)
	v.SetDefault("redis_password", def.RedisPassword)
	v.SetDefault("redis_db", def.RedisDB)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, eris.Wrapf(err, "failed to read config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, eris.Wrap(err, "failed to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that viper cannot.
func (c Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return eris.Wrapf(err, "invalid log_level %q", c.LogLevel)
	}
	if _, err := codec.ByName(c.Codec); err != nil {
		return eris.Wrap(err, "invalid codec")
	}
	if c.RedisDB < 0 {
		return eris.Errorf("invalid redis_db %d", c.RedisDB)
	}
	return nil
}

// Logger builds a zerolog logger writing to w at the configured level.
func (c Config) Logger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Metrics builds a go-metrics instance backed by an in-memory sink. It returns nils
// when metrics are disabled.
func (c Config) Metrics() (*metrics.Metrics, *metrics.InmemSink, error) {
	if c.MetricsService == "" {
		return nil, nil, nil
	}
	sink := metrics.NewInmemSink(10*time.Second, time.Minute)
	mcfg := metrics.DefaultConfig(c.MetricsService)
	mcfg.EnableHostname = false
	mcfg.EnableRuntimeMetrics = false
	m, err := metrics.New(mcfg, sink)
	if err != nil {
		return nil, nil, eris.Wrap(err, "failed to set up metrics")
	}
	return m, sink, nil
}

// RegistryOptions translates the configuration into registry options, logging to w.
func (c Config) RegistryOptions(w io.Writer) ([]simstore.Option, error) {
	cd, err := codec.ByName(c.Codec)
	if err != nil {
		return nil, err
	}
	opts := []simstore.Option{
		simstore.WithLogger(c.Logger(w)),
		simstore.WithCodec(cd),
		simstore.WithSchemaValidation(c.SchemaValidation),
	}
	m, _, err := c.Metrics()
	if err != nil {
		return nil, err
	}
	if m != nil {
		opts = append(opts, simstore.WithMetrics(m))
	}
	return opts, nil
}

// RedisOptions returns client options for the configured Redis server.
func (c Config) RedisOptions() *redis.Options {
	return &redis.Options{
		Addr:     c.RedisAddress,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// SnapshotStore connects a Redis-backed snapshot store using the configured prefix.
func (c Config) SnapshotStore(logger zerolog.Logger) *persist.RedisStore {
	client := redis.NewClient(c.RedisOptions())
	return persist.NewRedisStore(client, persist.WithPrefix(c.SnapshotPrefix), persist.WithLogger(logger))
}
