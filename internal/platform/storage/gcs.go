package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/monaam/reviewflow-sub000/internal/platform/logger"
)

type Mode string

const (
	ModeGCS         Mode = "gcs"
	ModeGCSEmulator Mode = "gcs_emulator"
	ModeMemory      Mode = "memory"
)

type Config struct {
	Mode         Mode
	Bucket       string
	KeyPrefix    string
	CDNDomain    string
	EmulatorHost string
	// PublicBaseURL overrides the URL host for emulator setups.
	PublicBaseURL string
	// Credentials is a service-account JSON document or a path to one.
	Credentials string
}

type ConfigErrorCode string

const (
	ConfigErrorInvalidMode         ConfigErrorCode = "invalid_mode"
	ConfigErrorMissingBucket       ConfigErrorCode = "missing_bucket"
	ConfigErrorMissingEmulatorHost ConfigErrorCode = "missing_emulator_host"
	ConfigErrorInvalidEmulatorHost ConfigErrorCode = "invalid_emulator_host"
	ConfigErrorInvalidPublicURL    ConfigErrorCode = "invalid_public_base_url"
)

type ConfigError struct {
	Code  ConfigErrorCode
	Mode  Mode
	Value string
}

func (e *ConfigError) Error() string {
	switch e.Code {
	case ConfigErrorInvalidMode:
		return fmt.Sprintf("invalid storage mode %q (allowed: %q, %q, %q)", e.Mode, ModeGCS, ModeGCSEmulator, ModeMemory)
	case ConfigErrorMissingBucket:
		return fmt.Sprintf("storage bucket required for mode %q", e.Mode)
	case ConfigErrorMissingEmulatorHost:
		return fmt.Sprintf("storage emulator host required for mode %q", e.Mode)
	case ConfigErrorInvalidEmulatorHost:
		return fmt.Sprintf("invalid storage emulator host %q; expected absolute URL like http://fake-gcs:4443", e.Value)
	default:
		return fmt.Sprintf("invalid storage config (%s): %q", e.Code, e.Value)
	}
}

// Validate returns a *ConfigError describing the first problem found.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeMemory:
		return nil
	case ModeGCS, ModeGCSEmulator:
	default:
		return &ConfigError{Code: ConfigErrorInvalidMode, Mode: c.Mode}
	}
	if strings.TrimSpace(c.Bucket) == "" {
		return &ConfigError{Code: ConfigErrorMissingBucket, Mode: c.Mode}
	}
	if c.Mode == ModeGCSEmulator {
		host := strings.TrimSpace(c.EmulatorHost)
		if host == "" {
			return &ConfigError{Code: ConfigErrorMissingEmulatorHost, Mode: c.Mode}
		}
		u, err := url.Parse(host)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return &ConfigError{Code: ConfigErrorInvalidEmulatorHost, Mode: c.Mode, Value: c.EmulatorHost}
		}
	}
	if raw := strings.TrimSpace(c.PublicBaseURL); raw != "" {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return &ConfigError{Code: ConfigErrorInvalidPublicURL, Mode: c.Mode, Value: raw}
		}
	}
	return nil
}

// ClientOptions turns configured credentials into GCS client options.
func (c Config) ClientOptions() []option.ClientOption {
	creds := strings.TrimSpace(c.Credentials)
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

type gcsStore struct {
	log    *logger.Logger
	client *storage.Client
	cfg    Config
	now    func() time.Time
}

// New returns the Store selected by cfg.Mode.
func New(ctx context.Context, cfg Config, log *logger.Logger) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Mode == ModeMemory {
		log.Warn("using in-memory object storage; uploads are lost on restart")
		return NewMemoryStore(cfg.KeyPrefix), nil
	}
	client, err := newClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	serviceLog := log.With("service", "GCSStore")
	serviceLog.Info("object storage initialized",
		"mode", string(cfg.Mode),
		"bucket", cfg.Bucket,
		"emulator_host", cfg.EmulatorHost,
	)
	return &gcsStore{log: serviceLog, client: client, cfg: cfg, now: time.Now}, nil
}

func newClient(ctx context.Context, cfg Config) (*storage.Client, error) {
	if cfg.Mode == ModeGCSEmulator {
		_ = os.Setenv("STORAGE_EMULATOR_HOST", strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/"))
		return storage.NewClient(ctx, option.WithoutAuthentication())
	}
	opts := append(cfg.ClientOptions(), option.WithScopes(storage.ScopeReadWrite))
	return storage.NewClient(ctx, opts...)
}

func (s *gcsStore) Store(ctx context.Context, r io.Reader, hint string) (StoredFile, error) {
	key := ObjectKey(s.cfg.KeyPrefix, hint, s.now())
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.cfg.Bucket).Object(key).NewWriter(ctx)
	if ct := ContentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return StoredFile{}, fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return StoredFile{}, fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return StoredFile{Path: key, URL: s.PublicURL(key)}, nil
}

func (s *gcsStore) Delete(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	err := s.client.Bucket(s.cfg.Bucket).Object(key).Delete(ctx)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, storage.ErrObjectNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", key, s.cfg.Bucket, err)
	}
}

func (s *gcsStore) PublicURL(key string) string {
	return PublicURL(s.cfg, key)
}

// PublicURL resolves the externally reachable URL of key.
func PublicURL(cfg Config, key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if cfg.CDNDomain != "" {
		return fmt.Sprintf("https://%s/%s", cfg.CDNDomain, key)
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	if cfg.Mode == ModeGCSEmulator {
		if base == "" {
			base = strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")
		}
		return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", base, url.PathEscape(cfg.Bucket), url.PathEscape(key))
	}
	if base != "" {
		return fmt.Sprintf("%s/%s/%s", base, cfg.Bucket, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", cfg.Bucket, key)
}
