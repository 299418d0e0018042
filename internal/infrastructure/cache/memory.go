package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for single-instance deployments and tests
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	now   func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type memoryItem struct {
	value      string
	expireTime time.Time // zero means no expiry
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	store := &MemoryStore{
		items: make(map[string]memoryItem),
		now:   time.Now,
		stop:  make(chan struct{}),
	}

	go store.cleanupExpired(5 * time.Minute)

	return store
}

// Set stores a key-value pair; a non-positive ttl never expires
func (ms *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	item := memoryItem{value: value}
	if ttl > 0 {
		item.expireTime = ms.now().Add(ttl)
	}

	ms.mu.Lock()
	ms.items[key] = item
	ms.mu.Unlock()
	return nil
}

// Get retrieves a value by key
func (ms *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	ms.mu.RLock()
	item, exists := ms.items[key]
	ms.mu.RUnlock()

	if !exists || item.expired(ms.now()) {
		return "", false, nil
	}
	return item.value, true, nil
}

// Delete removes a key
func (ms *MemoryStore) Delete(_ context.Context, key string) error {
	ms.mu.Lock()
	delete(ms.items, key)
	ms.mu.Unlock()
	return nil
}

// Close stops the cleanup goroutine
func (ms *MemoryStore) Close() error {
	ms.stopOnce.Do(func() { close(ms.stop) })
	return nil
}

func (i memoryItem) expired(now time.Time) bool {
	return !i.expireTime.IsZero() && now.After(i.expireTime)
}

// cleanupExpired periodically removes expired items
func (ms *MemoryStore) cleanupExpired(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ms.stop:
			return
		case <-ticker.C:
			ms.mu.Lock()
			now := ms.now()
			for key, item := range ms.items {
				if item.expired(now) {
					delete(ms.items, key)
				}
			}
			ms.mu.Unlock()
		}
	}
}
