package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/monaam/reviewflow-sub000/internal/platform/storage"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(viper.New(), "")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("http addr: want=%q got=%q", ":8080", cfg.HTTPAddr)
	}
	if cfg.Database.Driver != "postgres" {
		t.Fatalf("db driver: want=postgres got=%q", cfg.Database.Driver)
	}
	if cfg.Storage.Mode != storage.ModeMemory {
		t.Fatalf("storage mode: want=%q got=%q", storage.ModeMemory, cfg.Storage.Mode)
	}
	if cfg.Staging.TTL != time.Hour {
		t.Fatalf("staging ttl: want=%s got=%s", time.Hour, cfg.Staging.TTL)
	}
	if cfg.Redis.Enabled() {
		t.Fatalf("redis: want disabled by default")
	}
	if cfg.Database.Port != 5432 || cfg.Database.Name != "reviewflow" {
		t.Fatalf("db: got=%+v", cfg.Database)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("REVIEWFLOW_HTTP_ADDR", ":9090")
	t.Setenv("REVIEWFLOW_DB_DRIVER", "SQLite")
	t.Setenv("REVIEWFLOW_DB_DSN", ":memory:")
	t.Setenv("REVIEWFLOW_REDIS_ADDR", "localhost:6379")
	t.Setenv("REVIEWFLOW_CORS_ORIGINS", "https://app.example.com, https://admin.example.com,")
	t.Setenv("REVIEWFLOW_STAGING_TTL", "15m")
	t.Setenv("REVIEWFLOW_OTEL_HEADERS", "x-api-key=abc")

	cfg, err := loadConfig(viper.New(), "")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("http addr: want=%q got=%q", ":9090", cfg.HTTPAddr)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.DSN != ":memory:" {
		t.Fatalf("db: got=%+v", cfg.Database)
	}
	if !cfg.Redis.Enabled() || cfg.Redis.Channel != "review_notifications" {
		t.Fatalf("redis: got=%+v", cfg.Redis)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://admin.example.com" {
		t.Fatalf("cors origins: got=%v", cfg.CORSOrigins)
	}
	if cfg.Staging.TTL != 15*time.Minute {
		t.Fatalf("staging ttl: want=%s got=%s", 15*time.Minute, cfg.Staging.TTL)
	}
	if cfg.Otel.Headers["x-api-key"] != "abc" {
		t.Fatalf("otel headers: got=%v", cfg.Otel.Headers)
	}
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reviewflow.yaml")
	body := "http:\n  addr: \":7070\"\nstorage:\n  mode: gcs\n  bucket: media\npolicy:\n  file: /etc/reviewflow/roles.yaml\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("REVIEWFLOW_STORAGE_BUCKET", "media-prod")

	cfg, err := loadConfig(viper.New(), path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.HTTPAddr != ":7070" {
		t.Fatalf("http addr: want=%q got=%q", ":7070", cfg.HTTPAddr)
	}
	if cfg.Storage.Mode != storage.ModeGCS || cfg.Storage.Bucket != "media-prod" {
		t.Fatalf("storage: got=%+v", cfg.Storage)
	}
	if cfg.PolicyFile != "/etc/reviewflow/roles.yaml" {
		t.Fatalf("policy file: got=%q", cfg.PolicyFile)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	t.Setenv("REVIEWFLOW_DB_DRIVER", "mysql")
	if _, err := loadConfig(viper.New(), ""); err == nil {
		t.Fatalf("db driver mysql: want error")
	}

	t.Setenv("REVIEWFLOW_DB_DRIVER", "sqlite")
	if _, err := loadConfig(viper.New(), filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("missing config file: want error")
	}
}
