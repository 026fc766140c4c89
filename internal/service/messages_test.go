package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aliexpress-dz/pricebot/internal/domain"
)

func TestSplitCaption(t *testing.T) {
	t.Run("short text passes through", func(t *testing.T) {
		head, overflow := splitCaption("hello", 900)
		assert.Equal(t, "hello", head)
		assert.Empty(t, overflow)
	})

	t.Run("long text splits within the limit", func(t *testing.T) {
		text := strings.Repeat("line of caption text\n", 100)
		head, overflow := splitCaption(text, 900)

		assert.LessOrEqual(t, len([]rune(head)), 900)
		assert.NotEmpty(t, overflow)
		// Only the line break at the cut is dropped, nothing else.
		assert.Equal(t, len([]rune(strings.TrimRight(text, "\n"))),
			len([]rune(head))+len([]rune(overflow)))
	})

	t.Run("prefers line boundaries", func(t *testing.T) {
		text := strings.Repeat("aaaa aaaa\n", 120)
		head, _ := splitCaption(text, 900)
		assert.False(t, strings.HasSuffix(head, "aaa a"), "split should land on a line break")
	})

	t.Run("handles multi-byte runes", func(t *testing.T) {
		text := strings.Repeat("منتج رائع 💰", 200)
		head, overflow := splitCaption(text, 900)
		assert.LessOrEqual(t, len([]rune(head)), 900)
		assert.Equal(t, text, head+overflow)
	})
}

func TestPurchaseLink(t *testing.T) {
	t.Run("prefers provider promotion link", func(t *testing.T) {
		record := &domain.ProductRecord{
			ProductID:     "1005001234567890",
			PromotionLink: "https://s.click.aliexpress.com/e/_xyz",
		}
		assert.Equal(t, "https://s.click.aliexpress.com/e/_xyz", purchaseLink(record, "aff-1"))
	})

	t.Run("builds deep link with affiliate id", func(t *testing.T) {
		record := &domain.ProductRecord{ProductID: "1005001234567890"}
		link := purchaseLink(record, "aff-1")
		assert.Contains(t, link, "aff_short_key=aff-1")
		assert.Contains(t, link, "dl_target_url=")
		assert.Contains(t, link, "1005001234567890")
	})

	t.Run("falls back to plain item url", func(t *testing.T) {
		record := &domain.ProductRecord{ProductID: "1005001234567890"}
		assert.Equal(t, "https://www.aliexpress.com/item/1005001234567890.html",
			purchaseLink(record, ""))
	})
}
