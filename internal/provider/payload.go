package provider

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/aliexpress-dz/pricebot/internal/domain"
)

// price accepts the provider's string-or-number price encoding. Absent,
// empty or unparseable values decode to zero so arithmetic never sees a null.
type price struct {
	decimal.Decimal
}

func (p *price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		p.Decimal = decimal.Zero
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			p.Decimal = decimal.Zero
			return nil
		}
		data = []byte(strings.TrimSpace(s))
	}

	d, err := decimal.NewFromString(string(data))
	if err != nil {
		p.Decimal = decimal.Zero
		return nil
	}
	p.Decimal = d
	return nil
}

// code accepts the provider's string-or-number error codes.
type code string

func (c *code) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = code(s)
		return nil
	}
	*c = code(data)
	return nil
}

type errorResponse struct {
	Code    code   `json:"code"`
	Msg     string `json:"msg"`
	SubCode string `json:"sub_code"`
	SubMsg  string `json:"sub_msg"`
}

type respResult struct {
	RespCode code            `json:"resp_code"`
	RespMsg  string          `json:"resp_msg"`
	Result   json.RawMessage `json:"result"`
}

type resultPayload struct {
	Products struct {
		Product []productPayload `json:"product"`
	} `json:"products"`
}

// productPayload carries every historical field name the gateway has used.
// Pointer fields distinguish absent from zero so the fallback chains pick
// the first field actually present.
type productPayload struct {
	ProductID    json.Number `json:"product_id"`
	ProductTitle string      `json:"product_title"`
	Subject      string      `json:"subject"`

	TargetSalePrice    *price `json:"target_sale_price"`
	SalePrice          *price `json:"sale_price"`
	TargetAppSalePrice *price `json:"target_app_sale_price"`
	AppSalePrice       *price `json:"app_sale_price"`

	TargetOriginalPrice *price `json:"target_original_price"`
	OriginalPrice       *price `json:"original_price"`

	TargetShippingFee *price `json:"target_shipping_fee"`
	ShippingFee       *price `json:"shipping_fee"`

	CouponValue  *price `json:"coupon_value"`
	CouponAmount *price `json:"coupon_amount"`
	GlobalCoupon *price `json:"global_coupon"`
	SellerCoupon *price `json:"seller_coupon"`

	TargetSalePriceCurrency string `json:"target_sale_price_currency"`

	ProductMainImageURL string `json:"product_main_image_url"`
	ImageURL            string `json:"image_url"`
	PromotionLink       string `json:"promotion_link"`
}

// normalize flattens the historical field variants into a ProductRecord.
// Per target field the first present source wins; see DESIGN.md for the
// documented fallback order.
func (p *productPayload) normalize(productID, currency string) *domain.ProductRecord {
	record := &domain.ProductRecord{
		ProductID:     productID,
		Title:         firstString(p.ProductTitle, p.Subject),
		SalePrice:     firstPrice(p.TargetSalePrice, p.SalePrice, p.TargetAppSalePrice, p.AppSalePrice),
		OriginalPrice: firstPrice(p.TargetOriginalPrice, p.OriginalPrice),
		ShippingFee:   firstPrice(p.TargetShippingFee, p.ShippingFee),
		Currency:      firstString(p.TargetSalePriceCurrency, currency),
		MainImageURL:  firstString(p.ProductMainImageURL, p.ImageURL),
		PromotionLink: p.PromotionLink,
	}

	if p.CouponValue != nil || p.CouponAmount != nil {
		record.CouponValue = firstPrice(p.CouponValue, p.CouponAmount)
	} else {
		record.CouponValue = priceOrZero(p.GlobalCoupon).Add(priceOrZero(p.SellerCoupon))
	}

	return record
}

func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPrice(values ...*price) decimal.Decimal {
	for _, v := range values {
		if v != nil {
			return v.Decimal
		}
	}
	return decimal.Zero
}

func priceOrZero(v *price) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return v.Decimal
}
