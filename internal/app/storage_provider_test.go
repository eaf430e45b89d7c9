package app

import (
	"context"
	"errors"
	"testing"

	"github.com/monaam/reviewflow-sub000/internal/platform/logger"
	"github.com/monaam/reviewflow-sub000/internal/platform/storage"
)

func TestClassifyStorageProviderBootstrapError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want StorageProviderBootstrapErrorCode
	}{
		{"invalid mode", &storage.ConfigError{Code: storage.ConfigErrorInvalidMode}, StorageProviderBootstrapErrorInvalidMode},
		{"missing emulator host", &storage.ConfigError{Code: storage.ConfigErrorMissingEmulatorHost}, StorageProviderBootstrapErrorMissingEmulatorHost},
		{"invalid emulator host", &storage.ConfigError{Code: storage.ConfigErrorInvalidEmulatorHost}, StorageProviderBootstrapErrorInvalidEmulatorHost},
		{"missing bucket", &storage.ConfigError{Code: storage.ConfigErrorMissingBucket}, StorageProviderBootstrapErrorInvalidConfig},
		{"connect failed", errors.New("dial tcp: connection refused"), StorageProviderBootstrapErrorConnectFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := classifyStorageProviderBootstrapError(storage.Config{Mode: storage.ModeGCS}, tc.err)
			var got *StorageProviderBootstrapError
			if !errors.As(err, &got) {
				t.Fatalf("expected StorageProviderBootstrapError, got=%T", err)
			}
			if got.Code != tc.want {
				t.Fatalf("code: want=%q got=%q", tc.want, got.Code)
			}
			if !errors.Is(err, tc.err) {
				t.Fatalf("cause not wrapped: %v", err)
			}
		})
	}
}

func TestResolveObjectStoreInvalidMode(t *testing.T) {
	_, err := resolveObjectStore(context.Background(), logger.Nop(), storage.Config{Mode: "s3"})
	if err == nil {
		t.Fatalf("resolveObjectStore: expected error, got nil")
	}
	if code := storageProviderBootstrapErrorCode(err); code != StorageProviderBootstrapErrorInvalidMode {
		t.Fatalf("code: want=%q got=%q", StorageProviderBootstrapErrorInvalidMode, code)
	}
}

func TestResolveObjectStoreMissingEmulatorHost(t *testing.T) {
	_, err := resolveObjectStore(context.Background(), logger.Nop(), storage.Config{Mode: storage.ModeGCSEmulator, Bucket: "media"})
	if code := storageProviderBootstrapErrorCode(err); code != StorageProviderBootstrapErrorMissingEmulatorHost {
		t.Fatalf("code: want=%q got=%q", StorageProviderBootstrapErrorMissingEmulatorHost, code)
	}
}

func TestResolveObjectStoreMemoryMode(t *testing.T) {
	store, err := resolveObjectStore(context.Background(), logger.Nop(), storage.Config{Mode: storage.ModeMemory, KeyPrefix: "assets"})
	if err != nil {
		t.Fatalf("resolveObjectStore: %v", err)
	}
	if _, ok := store.(*storage.MemoryStore); !ok {
		t.Fatalf("store: want *storage.MemoryStore got=%T", store)
	}
}

func TestResolveObjectStoreGCSMode(t *testing.T) {
	orig := newObjectStore
	t.Cleanup(func() { newObjectStore = orig })

	var captured storage.Config
	expected := storage.NewMemoryStore("stub")
	newObjectStore = func(_ context.Context, cfg storage.Config, _ *logger.Logger) (storage.Store, error) {
		captured = cfg
		return expected, nil
	}

	got, err := resolveObjectStore(context.Background(), logger.Nop(), storage.Config{Mode: storage.ModeGCS, Bucket: "media"})
	if err != nil {
		t.Fatalf("resolveObjectStore: %v", err)
	}
	if got != expected {
		t.Fatalf("store: expected stub instance")
	}
	if captured.Mode != storage.ModeGCS || captured.Bucket != "media" {
		t.Fatalf("config: got=%+v", captured)
	}
}
