package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// MemoryStore keeps objects in process memory. Used by local mode and tests.
type MemoryStore struct {
	mu      sync.Mutex
	prefix  string
	objects map[string][]byte
}

func NewMemoryStore(prefix string) *MemoryStore {
	return &MemoryStore{prefix: prefix, objects: map[string][]byte{}}
}

func (m *MemoryStore) Store(ctx context.Context, r io.Reader, hint string) (StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return StoredFile{}, err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return StoredFile{}, fmt.Errorf("read upload: %w", err)
	}
	key := ObjectKey(m.prefix, hint, time.Now())
	m.mu.Lock()
	m.objects[key] = buf.Bytes()
	m.mu.Unlock()
	return StoredFile{Path: key, URL: "memory://" + key}, nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return false, nil
	}
	delete(m.objects, key)
	return true, nil
}

// Has reports whether key is stored.
func (m *MemoryStore) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
