package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/aliexpress-dz/pricebot/internal/domain"
)

// ProductFetcher is a mock implementation of provider.ProductFetcher
type ProductFetcher struct {
	mock.Mock
}

// FetchProduct returns the product record for a product identifier
func (m *ProductFetcher) FetchProduct(ctx context.Context, productID, currency, language, country string) (*domain.ProductRecord, error) {
	args := m.Called(ctx, productID, currency, language, country)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductRecord), args.Error(1)
}
