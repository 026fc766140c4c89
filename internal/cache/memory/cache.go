// Package memory implements cache.ProductCache with an in-process TTL map.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aliexpress-dz/pricebot/internal/cache"
	"github.com/aliexpress-dz/pricebot/internal/domain"
)

// Cache is a TTL keyed store. Expired entries are evicted lazily on the next
// lookup for their key; there are no cross-key invariants.
type Cache struct {
	data  map[string]*domain.CacheEntry
	mutex sync.Mutex
	ttl   time.Duration

	// now is swappable so expiry tests need no real sleeping.
	now func() time.Time
}

// New creates an in-memory product cache with the given TTL.
func New(ttl time.Duration) *Cache {
	return &Cache{
		data: make(map[string]*domain.CacheEntry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Get retrieves a live product record, evicting it first if expired.
func (c *Cache) Get(ctx context.Context, productID string) (*domain.ProductRecord, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.data[productID]
	if !exists {
		return nil, false
	}
	if !c.now().Before(entry.ExpiresAt) {
		delete(c.data, productID)
		return nil, false
	}

	// Return a copy to prevent external modification
	record := *entry.Record
	return &record, true
}

// Set stores a product record, overwriting any previous entry for the key.
func (c *Cache) Set(ctx context.Context, productID string, record *domain.ProductRecord) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	stored := *record
	c.data[productID] = &domain.CacheEntry{
		Record:    &stored,
		ExpiresAt: c.now().Add(c.ttl),
	}
	return nil
}

// Delete removes a cached record.
func (c *Cache) Delete(ctx context.Context, productID string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, productID)
	return nil
}

// Ensure Cache implements the interface
var _ cache.ProductCache = (*Cache)(nil)
