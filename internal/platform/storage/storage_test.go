package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestObjectKey(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	k := ObjectKey("assets/", "Final Cut.MP4", now)
	if !strings.HasPrefix(k, "assets/2026/03/04/") {
		t.Fatalf("prefix: got=%q", k)
	}
	if !strings.HasSuffix(k, ".mp4") {
		t.Fatalf("ext: want=.mp4 got=%q", k)
	}
	if k == ObjectKey("assets/", "Final Cut.MP4", now) {
		t.Fatalf("keys must be unique")
	}

	k = ObjectKey("", "weird.ext?x=1", now)
	if strings.Contains(k, "?") {
		t.Fatalf("query leaked into key: %q", k)
	}
}

func TestContentTypeForKey(t *testing.T) {
	cases := map[string]string{
		"a/b.png":      "image/png",
		"a/b.JPEG":     "image/jpeg",
		"a/b.pdf?x=1":  "application/pdf",
		"a/b.mov":      "video/quicktime",
		"a/b.unknown":  "",
		"no-extension": "",
	}
	for key, want := range cases {
		if got := ContentTypeForKey(key); got != want {
			t.Fatalf("ContentTypeForKey(%q): want=%q got=%q", key, want, got)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (Config{Mode: ModeMemory}).Validate(); err != nil {
		t.Fatalf("memory: %v", err)
	}
	if err := (Config{Mode: ModeGCS}).Validate(); err == nil {
		t.Fatalf("gcs without bucket: want error")
	}
	if err := (Config{Mode: ModeGCSEmulator, Bucket: "b"}).Validate(); err == nil {
		t.Fatalf("emulator without host: want error")
	}
	if err := (Config{Mode: ModeGCSEmulator, Bucket: "b", EmulatorHost: "http://fake-gcs:4443"}).Validate(); err != nil {
		t.Fatalf("emulator: %v", err)
	}
	if err := (Config{Mode: "s3", Bucket: "b"}).Validate(); err == nil {
		t.Fatalf("unknown mode: want error")
	}
}

func TestPublicURL(t *testing.T) {
	got := PublicURL(Config{Mode: ModeGCS, Bucket: "media"}, "/x/y.png")
	if got != "https://storage.googleapis.com/media/x/y.png" {
		t.Fatalf("gcs default: got=%q", got)
	}
	got = PublicURL(Config{Mode: ModeGCS, Bucket: "media", CDNDomain: "cdn.example.com"}, "x/y.png")
	if got != "https://cdn.example.com/x/y.png" {
		t.Fatalf("cdn: got=%q", got)
	}
	got = PublicURL(Config{Mode: ModeGCSEmulator, Bucket: "media", EmulatorHost: "http://fake-gcs:4443/"}, "x/y.png")
	if got != "http://fake-gcs:4443/storage/v1/b/media/o/x%2Fy.png?alt=media" {
		t.Fatalf("emulator: got=%q", got)
	}
}

func TestConfigClientOptions(t *testing.T) {
	if opts := (Config{}).ClientOptions(); len(opts) != 0 {
		t.Fatalf("no credentials: want=0 got=%d", len(opts))
	}
	if opts := (Config{Credentials: `{"type":"service_account"}`}).ClientOptions(); len(opts) != 1 {
		t.Fatalf("json credentials: want=1 got=%d", len(opts))
	}
	if opts := (Config{Credentials: "/etc/sa.json"}).ClientOptions(); len(opts) != 1 {
		t.Fatalf("file credentials: want=1 got=%d", len(opts))
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore("assets")

	f, err := m.Store(ctx, strings.NewReader("hello"), "a.png")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if !m.Has(f.Path) {
		t.Fatalf("Has: want=true")
	}
	ok, err := m.Delete(ctx, f.Path)
	if err != nil || !ok {
		t.Fatalf("Delete: want=true got=%v err=%v", ok, err)
	}
	ok, err = m.Delete(ctx, f.Path)
	if err != nil || ok {
		t.Fatalf("Delete missing: want=false got=%v err=%v", ok, err)
	}
}

func TestConfigValidateCodes(t *testing.T) {
	cases := []struct {
		cfg  Config
		want ConfigErrorCode
	}{
		{Config{Mode: "s3"}, ConfigErrorInvalidMode},
		{Config{Mode: ModeGCS}, ConfigErrorMissingBucket},
		{Config{Mode: ModeGCSEmulator, Bucket: "b"}, ConfigErrorMissingEmulatorHost},
		{Config{Mode: ModeGCSEmulator, Bucket: "b", EmulatorHost: "fake-gcs:4443"}, ConfigErrorInvalidEmulatorHost},
		{Config{Mode: ModeGCS, Bucket: "b", PublicBaseURL: "/relative"}, ConfigErrorInvalidPublicURL},
	}
	for _, tc := range cases {
		err := tc.cfg.Validate()
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("%+v: want *ConfigError got=%T (%v)", tc.cfg, err, err)
		}
		if cfgErr.Code != tc.want {
			t.Fatalf("%+v: want=%s got=%s", tc.cfg, tc.want, cfgErr.Code)
		}
	}
}
