package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/concierge-webhook/internal/ports"
)

var _ ports.Cache = (*LocalCache)(nil)

type cacheEntry struct {
	value     string
	expiresAt time.Time
}

// LocalCache is an in-memory ports.Cache for single-replica deployments.
// When MaxEntries is reached, new keys are dropped until the sweeper frees room.
type LocalCache struct {
	data       map[string]cacheEntry
	mu         sync.RWMutex
	maxEntries int
	now        func() time.Time
	log        *zap.Logger
	stopCh     chan struct{}
	closeOnce  sync.Once
}

// NewLocalCache creates a new in-memory cache with periodic cleanup.
// maxEntries <= 0 means unbounded.
func NewLocalCache(cleanupInterval time.Duration, maxEntries int, log *zap.Logger) *LocalCache {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}

	c := &LocalCache{
		data:       make(map[string]cacheEntry),
		maxEntries: maxEntries,
		now:        time.Now,
		log:        log,
		stopCh:     make(chan struct{}),
	}

	go c.cleanupLoop(cleanupInterval)

	log.Info("Local in-memory cache initialized",
		zap.Duration("cleanup_interval", cleanupInterval),
		zap.Int("max_entries", maxEntries),
	)
	return c
}

func (c *LocalCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.data[key]
	if !ok || c.expired(entry, c.now()) {
		return "", ErrMiss
	}
	return entry.value, nil
}

func (c *LocalCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	var strVal string
	switch v := value.(type) {
	case string:
		strVal = v
	case []byte:
		strVal = string(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal value: %w", err)
		}
		strVal = string(data)
	}

	entry := cacheEntry{value: strVal}
	if expiration > 0 {
		entry.expiresAt = c.now().Add(expiration)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.data[key]; !exists && c.maxEntries > 0 && len(c.data) >= c.maxEntries {
		return nil
	}
	c.data[key] = entry
	return nil
}

func (c *LocalCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *LocalCache) Ping() error {
	return nil
}

func (c *LocalCache) Close() error {
	c.closeOnce.Do(func() { close(c.stopCh) })
	return nil
}

// Len returns the number of entries, expired ones included until the next sweep.
func (c *LocalCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

func (c *LocalCache) expired(e cacheEntry, now time.Time) bool {
	return !e.expiresAt.IsZero() && e.expiresAt.Before(now)
}

func (c *LocalCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopCh:
			return
		}
	}
}

func (c *LocalCache) cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	expired := 0
	for key, entry := range c.data {
		if c.expired(entry, now) {
			delete(c.data, key)
			expired++
		}
	}

	if expired > 0 {
		c.log.Debug("Cache cleanup completed", zap.Int("expired_entries", expired))
	}
	return expired
}
