package cache

import (
	"context"

	"github.com/aliexpress-dz/pricebot/internal/domain"
)

// ProductCache defines the interface for caching provider product records.
type ProductCache interface {
	// Get retrieves a live (non-expired) product record by product id
	Get(ctx context.Context, productID string) (*domain.ProductRecord, bool)

	// Set stores a product record under the cache's TTL
	Set(ctx context.Context, productID string, record *domain.ProductRecord) error

	// Delete removes a cached record
	Delete(ctx context.Context, productID string) error
}
