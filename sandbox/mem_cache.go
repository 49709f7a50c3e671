package sandbox

import (
	"context"
	"sync"
)

// MemCache is an in-process Cache backed by a map, for tests and
// single-process deployments where the snapshot cache doesn't need to
// survive a restart.
type MemCache struct {
	mu   sync.RWMutex
	tags map[string]string // fingerprint -> image tag
}

// NewMemCache returns an empty MemCache.
func NewMemCache() *MemCache {
	return &MemCache{tags: make(map[string]string)}
}

func (c *MemCache) Has(_ context.Context, fp string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.tags[fp]
	return ok, nil
}

func (c *MemCache) MarkSnapshotted(_ context.Context, fp, imageTag string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tags[fp] = imageTag
	return nil
}

func (c *MemCache) ImageTag(_ context.Context, fp string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tag, ok := c.tags[fp]
	if !ok {
		return "", ErrCacheMiss
	}
	return tag, nil
}
