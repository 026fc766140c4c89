// Package pricing holds the pure price arithmetic for analyzed products.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/aliexpress-dz/pricebot/internal/domain"
)

// FinalPrice returns max(sale + shipping - coupon, 0).
func FinalPrice(sale, shipping, coupon decimal.Decimal) decimal.Decimal {
	final := sale.Add(shipping).Sub(coupon)
	if final.IsNegative() {
		return decimal.Zero
	}
	return final
}

// Discount returns max(original - sale, 0), used for display only.
func Discount(original, sale decimal.Decimal) decimal.Decimal {
	discount := original.Sub(sale)
	if discount.IsNegative() {
		return decimal.Zero
	}
	return discount
}

// Breakdown derives the full displayable breakdown from a product record.
// It is recomputed on every call and never cached.
func Breakdown(record *domain.ProductRecord) domain.PriceBreakdown {
	return domain.PriceBreakdown{
		Original: record.OriginalPrice,
		Sale:     record.SalePrice,
		Discount: Discount(record.OriginalPrice, record.SalePrice),
		Shipping: record.ShippingFee,
		Coupon:   record.CouponValue,
		Final:    FinalPrice(record.SalePrice, record.ShippingFee, record.CouponValue),
	}
}
