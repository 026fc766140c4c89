package provider

import (
	"context"

	"github.com/aliexpress-dz/pricebot/internal/domain"
)

// ProductFetcher defines the interface for fetching normalized product records.
type ProductFetcher interface {
	// FetchProduct returns the product record for a product identifier,
	// serving from cache when a live entry exists. Failures carry a
	// *domain.ProviderError.
	FetchProduct(ctx context.Context, productID, currency, language, country string) (*domain.ProductRecord, error)
}
