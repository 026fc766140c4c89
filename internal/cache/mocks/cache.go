package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/aliexpress-dz/pricebot/internal/domain"
)

// ProductCache is a mock implementation of cache.ProductCache
type ProductCache struct {
	mock.Mock
}

// Get retrieves a live product record by product id
func (m *ProductCache) Get(ctx context.Context, productID string) (*domain.ProductRecord, bool) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*domain.ProductRecord), args.Bool(1)
}

// Set stores a product record
func (m *ProductCache) Set(ctx context.Context, productID string, record *domain.ProductRecord) error {
	args := m.Called(ctx, productID, record)
	return args.Error(0)
}

// Delete removes a cached record
func (m *ProductCache) Delete(ctx context.Context, productID string) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}
