package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ResolvedLink is the outcome of scanning an inbound message for a product URL.
// It lives for a single pipeline invocation and is never persisted.
type ResolvedLink struct {
	OriginalText string
	MatchedURL   string
	ProductID    string
}

// ProductRecord is the normalized provider response for a single product.
// Numeric fields are always populated; absent provider fields become zero.
type ProductRecord struct {
	ProductID     string          `json:"product_id"`
	Title         string          `json:"title"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	ShippingFee   decimal.Decimal `json:"shipping_fee"`
	CouponValue   decimal.Decimal `json:"coupon_value"`
	Currency      string          `json:"currency"`
	MainImageURL  string          `json:"main_image_url,omitempty"`
	PromotionLink string          `json:"promotion_link,omitempty"`
}

// CacheEntry is a cached product record with its expiry instant.
type CacheEntry struct {
	Record    *ProductRecord
	ExpiresAt time.Time
}

// PriceBreakdown is the derived price view shown to the user.
// Discount and Final are computed, never stored.
type PriceBreakdown struct {
	Original decimal.Decimal
	Sale     decimal.Decimal
	Discount decimal.Decimal
	Shipping decimal.Decimal
	Coupon   decimal.Decimal
	Final    decimal.Decimal
}

// User is a bot user keyed by their chat id.
type User struct {
	ID         int64     `json:"id"`
	ChatID     int64     `json:"chat_id"`
	Username   string    `json:"username,omitempty"`
	LastActive time.Time `json:"last_active"`
	Subscribed bool      `json:"subscribed"`
}

// AdminUser is an operator account for the admin panel.
type AdminUser struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

// BroadcastReport summarizes a broadcast run.
type BroadcastReport struct {
	Total  int `json:"total"`
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}
