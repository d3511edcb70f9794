package cache

import (
	"context"
	"sync"
)

// memoryCache — кэш в памяти процесса. Без вытеснения: живёт до
// перезапуска, в многопроцессном развёртывании не разделяется.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemory создаёт кэш материализаций в памяти процесса.
func NewMemory() Materializations {
	return &memoryCache{entries: make(map[string]Entry)}
}

func (c *memoryCache) Get(_ context.Context, externalID string) (*Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[externalID]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (c *memoryCache) Put(_ context.Context, externalID string, entry Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[externalID] = entry
	return nil
}
