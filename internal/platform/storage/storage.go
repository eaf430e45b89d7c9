package storage

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StoredFile is the result of persisting one upload.
type StoredFile struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// Store persists uploaded bytes. Delete reports false when the object was already gone.
type Store interface {
	Store(ctx context.Context, r io.Reader, hint string) (StoredFile, error)
	Delete(ctx context.Context, path string) (bool, error)
}

// ObjectKey builds a collision-free key that keeps the extension of hint.
func ObjectKey(prefix, hint string, now time.Time) string {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(hint)))
	if len(ext) > 10 || strings.ContainsAny(ext, "/\\?#") {
		ext = ""
	}
	key := now.UTC().Format("2006/01/02") + "/" + uuid.NewString() + ext
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}

// ContentTypeForKey guesses a content type from the key extension.
func ContentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	switch path.Ext(s) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	case ".svg":
		return "image/svg+xml"
	case ".mp4", ".m4v":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".mov":
		return "video/quicktime"
	case ".pdf":
		return "application/pdf"
	case ".json":
		return "application/json"
	case ".txt", ".md":
		return "text/plain"
	default:
		return ""
	}
}
