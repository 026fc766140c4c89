package service

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/aliexpress-dz/pricebot/internal/domain"
)

const (
	msgWelcome = "Welcome to the AliExpress price analysis bot.\n\n" +
		"Send any AliExpress product link and I will break down the price, " +
		"the shipping cost and the available coupons, then calculate the " +
		"final price for you.\n\n" +
		"Please use direct product links only."

	msgUnsupportedLink = "Sorry, that link is not supported.\n" +
		"This bot only analyzes product links from AliExpress.\n" +
		"Please make sure the link points to aliexpress.com and try again."

	msgProcessing = "Analyzing the product link and fetching data from AliExpress, one moment..."

	msgRateLimited = "The product service is handling too many requests right now.\n" +
		"Please try again in a few moments."

	msgAnalysisFailed = "Sorry, an unexpected error occurred while analyzing this product:\n%v\n" +
		"Please try again later, or double-check the link."
)

// Image captions are capped by the platform at roughly 1024 characters;
// captionSafeLimit leaves a margin before the hard cap.
const (
	captionHardLimit = 1024
	captionSafeLimit = 900
)

// buildCaption renders the analysis reply for a product.
func buildCaption(productID string, record *domain.ProductRecord, breakdown domain.PriceBreakdown, purchaseLink string) string {
	currency := record.Currency
	if currency == "" {
		currency = "USD"
	}

	var b strings.Builder
	b.WriteString("✅ Product link analyzed successfully.\n\n")
	fmt.Fprintf(&b, "Product id: %s\n", productID)
	if record.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", record.Title)
	}
	b.WriteString("\n🔹 Price details:\n")
	fmt.Fprintf(&b, "• Original price: %s %s\n", breakdown.Original.StringFixed(2), currency)
	fmt.Fprintf(&b, "• Sale price: %s %s\n", breakdown.Sale.StringFixed(2), currency)
	if breakdown.Discount.IsPositive() {
		fmt.Fprintf(&b, "• Discount: %s %s\n", breakdown.Discount.StringFixed(2), currency)
	}
	fmt.Fprintf(&b, "• Shipping: %s %s\n", breakdown.Shipping.StringFixed(2), currency)
	fmt.Fprintf(&b, "• Coupons applied: %s %s\n", breakdown.Coupon.StringFixed(2), currency)
	b.WriteString("\n💰 Estimated final price after shipping and coupons:\n")
	fmt.Fprintf(&b, "→ %s %s\n", breakdown.Final.StringFixed(2), currency)
	b.WriteString("\nℹ️ Actual prices and coupons may vary by account, region and purchase date. " +
		"Please confirm the final details on AliExpress before ordering.\n")
	if purchaseLink != "" {
		b.WriteString("\n🔗 Purchase link:\n")
		b.WriteString(purchaseLink)
	}

	return b.String()
}

// splitCaption cuts text at limit on a rune boundary, preferring the last
// line break before the limit. The second return value is the overflow to be
// sent as a follow-up message, empty when text fits.
func splitCaption(text string, limit int) (string, string) {
	runes := []rune(text)
	if len(runes) <= limit {
		return text, ""
	}

	cut := limit
	for i := limit; i > limit/2; i-- {
		if runes[i-1] == '\n' {
			cut = i
			break
		}
	}

	return strings.TrimRight(string(runes[:cut]), "\n"), strings.TrimLeft(string(runes[cut:]), "\n")
}

// purchaseLink prefers the provider's promotion link and falls back to a
// locally built affiliate deep link (or the plain item URL when no affiliate
// id is configured).
func purchaseLink(record *domain.ProductRecord, affiliateID string) string {
	if record.PromotionLink != "" {
		return record.PromotionLink
	}

	base := "https://www.aliexpress.com/item/" + record.ProductID + ".html"
	if affiliateID == "" {
		return base
	}
	return "https://s.click.aliexpress.com/deep_link.htm?aff_short_key=" +
		url.QueryEscape(affiliateID) + "&dl_target_url=" + url.QueryEscape(base)
}
