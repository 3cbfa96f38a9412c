package cache

import (
	"context"
	"sync"
	"time"

	"github.com/felixgeelhaar/advising/internal/advising/application/queries"
	"github.com/google/uuid"
)

type memoryKey struct {
	view   queries.View
	userID uuid.UUID
}

type memoryEntry struct {
	sessions  []queries.SessionDTO
	expiresAt time.Time
}

// MemorySessionCache is a process-local cache for local mode and tests.
type MemorySessionCache struct {
	mu      sync.RWMutex
	entries map[memoryKey]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemorySessionCache creates a new MemorySessionCache.
func NewMemorySessionCache(ttl time.Duration) *MemorySessionCache {
	return &MemorySessionCache{
		entries: make(map[memoryKey]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *MemorySessionCache) Get(_ context.Context, view queries.View, userID uuid.UUID) ([]queries.SessionDTO, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[memoryKey{view, userID}]
	if !ok || !c.now().Before(entry.expiresAt) {
		return nil, false, nil
	}
	return append([]queries.SessionDTO(nil), entry.sessions...), true, nil
}

func (c *MemorySessionCache) Set(_ context.Context, view queries.View, userID uuid.UUID, sessions []queries.SessionDTO) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[memoryKey{view, userID}] = memoryEntry{
		sessions:  append([]queries.SessionDTO(nil), sessions...),
		expiresAt: c.now().Add(c.ttl),
	}
	return nil
}

func (c *MemorySessionCache) Invalidate(_ context.Context, userIDs ...uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range userIDs {
		for _, view := range views {
			delete(c.entries, memoryKey{view, id})
		}
	}
	return nil
}
