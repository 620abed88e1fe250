// Package remote mirrors claims into a document index so other systems can
// read them. Sync is best effort: writes run in the background, failures are
// logged and counted, and the local store stays authoritative.
package remote

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// ErrNoDocument is returned by Index.Get for an absent key.
var ErrNoDocument = errors.New("remote: no such document")

// Index is a flat key/value document store. Keys look like "<index>/<id>.json".
type Index interface {
	Put(ctx context.Context, key string, body []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	// List returns up to limit keys with the given prefix in ascending
	// order. A limit of zero or less lists every key.
	List(ctx context.Context, prefix string, limit int) ([]string, error)
}

// DocumentKey is the key under which item id of index name is stored.
func DocumentKey(name, id string) string {
	return name + "/" + id + ".json"
}

// MemoryIndex is an in-process Index, used when no remote bucket is
// configured and in tests.
type MemoryIndex struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryIndex returns an empty MemoryIndex.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{docs: make(map[string][]byte)}
}

var _ Index = (*MemoryIndex)(nil)

func (m *MemoryIndex) Put(_ context.Context, key string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[key] = slices.Clone(body)
	return nil
}

func (m *MemoryIndex) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	body, ok := m.docs[key]
	if !ok {
		return nil, fmt.Errorf("remote.MemoryIndex.Get %s: %w", key, ErrNoDocument)
	}
	return slices.Clone(body), nil
}

func (m *MemoryIndex) List(_ context.Context, prefix string, limit int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.docs))
	for k := range m.docs {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	return keys, nil
}
