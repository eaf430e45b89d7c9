package staging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/monaam/reviewflow-sub000/internal/platform/logger"
)

// StagedMedia is a pre-uploaded object waiting to be attached to a comment.
type StagedMedia struct {
	TempID    string    `json:"temp_id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Path      string    `json:"path"`
	MimeType  string    `json:"mime_type,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (m *StagedMedia) Expired(now time.Time) bool {
	return m == nil || (!m.ExpiresAt.IsZero() && !now.Before(m.ExpiresAt))
}

// MediaStore resolves staged media. Get returns nil, nil when the id is unknown or expired.
type MediaStore interface {
	Put(ctx context.Context, m StagedMedia) (StagedMedia, error)
	Get(ctx context.Context, tempID string) (*StagedMedia, error)
	Clear(ctx context.Context, tempID string) error
}

const DefaultTTL = 30 * time.Minute

type redisStore struct {
	log    *logger.Logger
	rdb    goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisStore(rdb goredis.UniversalClient, prefix string, ttl time.Duration, log *logger.Logger) (MediaStore, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "staged_media"
	}
	return &redisStore{
		log:    log.With("service", "RedisMediaStore"),
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
	}, nil
}

func (s *redisStore) key(tempID string) string {
	return s.prefix + ":" + strings.TrimSpace(tempID)
}

func (s *redisStore) Put(ctx context.Context, m StagedMedia) (StagedMedia, error) {
	m = prepare(m, s.ttl, time.Now())
	raw, err := json.Marshal(m)
	if err != nil {
		return StagedMedia{}, err
	}
	if err := s.rdb.Set(ctx, s.key(m.TempID), raw, time.Until(m.ExpiresAt)).Err(); err != nil {
		return StagedMedia{}, fmt.Errorf("redis set staged media: %w", err)
	}
	return m, nil
}

func (s *redisStore) Get(ctx context.Context, tempID string) (*StagedMedia, error) {
	if strings.TrimSpace(tempID) == "" {
		return nil, nil
	}
	raw, err := s.rdb.Get(ctx, s.key(tempID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get staged media: %w", err)
	}
	var m StagedMedia
	if err := json.Unmarshal(raw, &m); err != nil {
		s.log.Warn("bad staged media payload", "temp_id", tempID, "error", err)
		return nil, nil
	}
	if m.Expired(time.Now()) {
		return nil, nil
	}
	return &m, nil
}

func (s *redisStore) Clear(ctx context.Context, tempID string) error {
	return s.rdb.Del(ctx, s.key(tempID)).Err()
}

func prepare(m StagedMedia, ttl time.Duration, now time.Time) StagedMedia {
	if strings.TrimSpace(m.TempID) == "" {
		m.TempID = uuid.NewString()
	}
	if m.ExpiresAt.IsZero() {
		m.ExpiresAt = now.Add(ttl).UTC()
	}
	return m
}

// MemoryStore is a process-local MediaStore for local mode and tests.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]StagedMedia
	ttl   time.Duration
	now   func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{items: map[string]StagedMedia{}, ttl: ttl, now: time.Now}
}

func (s *MemoryStore) Put(_ context.Context, m StagedMedia) (StagedMedia, error) {
	m = prepare(m, s.ttl, s.now())
	s.mu.Lock()
	s.items[m.TempID] = m
	s.mu.Unlock()
	return m, nil
}

func (s *MemoryStore) Get(_ context.Context, tempID string) (*StagedMedia, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.items[tempID]
	if !ok || m.Expired(s.now()) {
		return nil, nil
	}
	return &m, nil
}

func (s *MemoryStore) Clear(_ context.Context, tempID string) error {
	s.mu.Lock()
	delete(s.items, tempID)
	s.mu.Unlock()
	return nil
}
