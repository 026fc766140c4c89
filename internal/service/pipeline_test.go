package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aliexpress-dz/pricebot/internal/cache/memory"
	"github.com/aliexpress-dz/pricebot/internal/provider"
	repomocks "github.com/aliexpress-dz/pricebot/internal/repository/mocks"
	"github.com/aliexpress-dz/pricebot/internal/resolver"
	"github.com/aliexpress-dz/pricebot/internal/service/mocks"
)

// End-to-end pipeline test: a real resolver and a real provider client
// against a fake affiliate gateway, with only the chat platform and the
// user store mocked out.
func TestAnalyzePipeline_EndToEnd(t *testing.T) {
	gatewayCalls := 0
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gatewayCalls++
		assert.Equal(t, "1005008774372288", r.URL.Query().Get("product_ids"))
		assert.NotEmpty(t, r.URL.Query().Get("sign"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"aliexpress_affiliate_productdetail_get_response": {
				"resp_result": {
					"resp_code": 200,
					"resp_msg": "success",
					"result": {
						"products": {
							"product": [{
								"product_title": "Wireless earbuds",
								"target_original_price": "20",
								"target_sale_price": "15",
								"target_shipping_fee": "2",
								"coupon_value": "3",
								"product_main_image_url": "https://img.example/earbuds.jpg",
								"promotion_link": "https://s.click.aliexpress.com/e/_abc123"
							}]
						}
					}
				}
			}
		}`))
	}))
	defer gateway.Close()

	fetcher := provider.New(provider.Config{
		Gateway:    gateway.URL,
		AppKey:     "12345",
		AppSecret:  "super-secret",
		SignMethod: provider.SignMethodSHA256,
	}, memory.New(5*time.Minute), provider.NewLimiter(0), zap.NewNop())

	messenger := new(mocks.Messenger)
	users := new(repomocks.UserRepository)
	users.On("UpsertUser", mock.Anything, int64(42), "sara").Return(nil, nil)
	users.On("TouchUser", mock.Anything, int64(42), true).Return(nil)
	messenger.On("SendMessage", mock.Anything, int64(42), mock.Anything).Return(nil)

	var caption string
	messenger.On("SendPhoto", mock.Anything, int64(42), "https://img.example/earbuds.jpg", mock.Anything).
		Run(func(args mock.Arguments) { caption = args.String(3) }).
		Return(nil)

	analyzer := NewAnalyzer(resolver.New(zap.NewNop()), fetcher, messenger, users, zap.NewNop(), AnalyzerConfig{
		Currency: "USD",
		Language: "en",
		Country:  "DZ",
	})

	err := analyzer.HandleText(context.Background(), 42, "sara",
		"check this https://www.aliexpress.com/item/1005008774372288.html please")
	require.NoError(t, err)

	assert.Contains(t, caption, "Wireless earbuds")
	assert.Contains(t, caption, "14.00 USD")
	assert.Contains(t, caption, "https://s.click.aliexpress.com/e/_abc123")
	assert.Equal(t, 1, gatewayCalls)

	// A second message for the same product is served from the cache.
	err = analyzer.HandleText(context.Background(), 42, "sara",
		"https://aliexpress.com/item/1005008774372288.html")
	require.NoError(t, err)
	assert.Equal(t, 1, gatewayCalls)

	messenger.AssertExpectations(t)
	users.AssertExpectations(t)
}
