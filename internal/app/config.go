package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/monaam/reviewflow-sub000/internal/data/db"
	"github.com/monaam/reviewflow-sub000/internal/observability"
	"github.com/monaam/reviewflow-sub000/internal/platform/storage"
)

const (
	envPrefix     = "REVIEWFLOW"
	envConfigFile = "REVIEWFLOW_CONFIG"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

func (c RedisConfig) Enabled() bool { return strings.TrimSpace(c.Addr) != "" }

type StagingConfig struct {
	Prefix string
	TTL    time.Duration
}

type Config struct {
	HTTPAddr    string
	LogMode     string
	CORSOrigins []string
	PolicyFile  string

	NotifyTimeout time.Duration

	Database db.Config
	Redis    RedisConfig
	Staging  StagingConfig
	Storage  storage.Config
	Otel     observability.OtelConfig
	Metrics  observability.MetricsConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("log.mode", "development")
	v.SetDefault("cors.origins", "")
	v.SetDefault("policy.file", "")
	v.SetDefault("notify.timeout", "10s")

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "reviewflow")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.slow_threshold", "1s")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "review_notifications")

	v.SetDefault("staging.prefix", "staged_media")
	v.SetDefault("staging.ttl", "1h")

	v.SetDefault("storage.mode", string(storage.ModeMemory))
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.prefix", "assets")
	v.SetDefault("storage.cdn_domain", "")
	v.SetDefault("storage.emulator_host", "")
	v.SetDefault("storage.public_base_url", "")
	v.SetDefault("storage.credentials", "")

	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.service_name", "reviewflow")
	v.SetDefault("otel.environment", "development")
	v.SetDefault("otel.version", "")
	v.SetDefault("otel.endpoint", "")
	v.SetDefault("otel.headers", "")
	v.SetDefault("otel.insecure", false)
	v.SetDefault("otel.sample_ratio", 1.0)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", "")
	v.SetDefault("metrics.scrape_interval", "10s")
}

// LoadConfig reads defaults, then the optional REVIEWFLOW_CONFIG file, then REVIEWFLOW_* env.
func LoadConfig() (Config, error) {
	return loadConfig(viper.New(), os.Getenv(envConfigFile))
}

func loadConfig(v *viper.Viper, file string) (Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file = strings.TrimSpace(file); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %q: %w", file, err)
		}
	}

	cfg := Config{
		HTTPAddr:      v.GetString("http.addr"),
		LogMode:       v.GetString("log.mode"),
		CORSOrigins:   splitList(v.GetString("cors.origins")),
		PolicyFile:    strings.TrimSpace(v.GetString("policy.file")),
		NotifyTimeout: v.GetDuration("notify.timeout"),
		Database: db.Config{
			Driver:          strings.ToLower(strings.TrimSpace(v.GetString("db.driver"))),
			DSN:             v.GetString("db.dsn"),
			Host:            v.GetString("db.host"),
			Port:            v.GetInt("db.port"),
			User:            v.GetString("db.user"),
			Password:        v.GetString("db.password"),
			Name:            v.GetString("db.name"),
			SSLMode:         v.GetString("db.sslmode"),
			MaxOpenConns:    v.GetInt("db.max_open_conns"),
			MaxIdleConns:    v.GetInt("db.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("db.conn_max_lifetime"),
			SlowThreshold:   v.GetDuration("db.slow_threshold"),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(v.GetString("redis.addr")),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			Channel:  v.GetString("redis.channel"),
		},
		Staging: StagingConfig{
			Prefix: v.GetString("staging.prefix"),
			TTL:    v.GetDuration("staging.ttl"),
		},
		Storage: storage.Config{
			Mode:          storage.Mode(strings.TrimSpace(v.GetString("storage.mode"))),
			Bucket:        v.GetString("storage.bucket"),
			KeyPrefix:     v.GetString("storage.prefix"),
			CDNDomain:     v.GetString("storage.cdn_domain"),
			EmulatorHost:  v.GetString("storage.emulator_host"),
			PublicBaseURL: v.GetString("storage.public_base_url"),
			Credentials:   v.GetString("storage.credentials"),
		},
		Otel: observability.OtelConfig{
			Enabled:     v.GetBool("otel.enabled"),
			ServiceName: v.GetString("otel.service_name"),
			Environment: v.GetString("otel.environment"),
			Version:     v.GetString("otel.version"),
			Endpoint:    v.GetString("otel.endpoint"),
			Headers:     observability.ParseHeaders(v.GetString("otel.headers")),
			Insecure:    v.GetBool("otel.insecure"),
			SampleRatio: v.GetFloat64("otel.sample_ratio"),
		},
		Metrics: observability.MetricsConfig{
			Enabled:        v.GetBool("metrics.enabled"),
			Addr:           v.GetString("metrics.addr"),
			ScrapeInterval: v.GetDuration("metrics.scrape_interval"),
		},
	}

	switch cfg.Database.Driver {
	case db.DriverPostgres, db.DriverSQLite:
	default:
		return Config{}, fmt.Errorf("invalid db driver %q (allowed: postgres, sqlite)", cfg.Database.Driver)
	}
	if cfg.Staging.TTL <= 0 {
		return Config{}, fmt.Errorf("staging ttl must be positive, got %s", cfg.Staging.TTL)
	}
	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
