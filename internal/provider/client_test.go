package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cachemocks "github.com/aliexpress-dz/pricebot/internal/cache/mocks"
	"github.com/aliexpress-dz/pricebot/internal/cache/memory"
	"github.com/aliexpress-dz/pricebot/internal/domain"
)

const responseKey = "aliexpress_affiliate_productdetail_get_response"

func productDetailBody(resultJSON string, asString bool) string {
	result := json.RawMessage(resultJSON)
	if asString {
		quoted, _ := json.Marshal(resultJSON)
		result = quoted
	}
	body, _ := json.Marshal(map[string]interface{}{
		responseKey: map[string]interface{}{
			"resp_result": map[string]interface{}{
				"resp_code": 200,
				"resp_msg":  "success",
				"result":    result,
			},
		},
	})
	return string(body)
}

const sampleResult = `{
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
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := New(Config{
		Gateway:    server.URL,
		AppKey:     "12345",
		AppSecret:  "super-secret",
		TrackingID: "track-1",
		SignMethod: SignMethodSHA256,
	}, memory.New(5*time.Minute), NewLimiter(time.Millisecond), zap.NewNop())
	return client, server
}

func TestClient_FetchProduct_Success(t *testing.T) {
	ctx := context.Background()

	for _, asString := range []bool{false, true} {
		name := "structured result"
		if asString {
			name = "json-string result"
		}
		t.Run(name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, productDetailBody(sampleResult, asString))
			})

			record, err := client.FetchProduct(ctx, "1005008774372288", "USD", "AR", "DZ")
			require.NoError(t, err)
			assert.Equal(t, "1005008774372288", record.ProductID)
			assert.Equal(t, "Wireless earbuds", record.Title)
			assert.True(t, record.OriginalPrice.Equal(decimal.NewFromInt(20)))
			assert.True(t, record.SalePrice.Equal(decimal.NewFromInt(15)))
			assert.True(t, record.ShippingFee.Equal(decimal.NewFromInt(2)))
			assert.True(t, record.CouponValue.Equal(decimal.NewFromInt(3)))
			assert.Equal(t, "https://s.click.aliexpress.com/e/_abc123", record.PromotionLink)
		})
	}
}

func TestClient_FetchProduct_RequestShape(t *testing.T) {
	ctx := context.Background()

	var seen map[string]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = map[string]string{}
		for key, values := range r.URL.Query() {
			seen[key] = values[0]
		}
		fmt.Fprint(w, productDetailBody(sampleResult, false))
	})

	_, err := client.FetchProduct(ctx, "1005008774372288", "USD", "AR", "DZ")
	require.NoError(t, err)

	assert.Equal(t, "12345", seen["app_key"])
	assert.Equal(t, methodProductDetail, seen["method"])
	assert.Equal(t, "sha256", seen["sign_method"])
	assert.Equal(t, "json", seen["format"])
	assert.Equal(t, "2.0", seen["v"])
	assert.Equal(t, "1005008774372288", seen["product_ids"])
	assert.Equal(t, "USD", seen["target_currency"])
	assert.Equal(t, "AR", seen["target_language"])
	assert.Equal(t, "DZ", seen["country"])
	assert.Equal(t, "track-1", seen["tracking_id"])
	require.NotEmpty(t, seen["timestamp"])

	// The signature must verify against the very parameters that were sent.
	signed := map[string]string{}
	for key, value := range seen {
		if key != "sign" {
			signed[key] = value
		}
	}
	assert.Equal(t, Sign(SignMethodSHA256, methodProductDetail, signed, "super-secret"), seen["sign"])
}

func TestClient_FetchProduct_CacheRoundTrip(t *testing.T) {
	ctx := context.Background()

	var calls int64
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		fmt.Fprint(w, productDetailBody(sampleResult, false))
	})

	first, err := client.FetchProduct(ctx, "1005008774372288", "USD", "AR", "DZ")
	require.NoError(t, err)
	second, err := client.FetchProduct(ctx, "1005008774372288", "USD", "AR", "DZ")
	require.NoError(t, err)

	assert.EqualValues(t, 1, atomic.LoadInt64(&calls), "second fetch must be served from cache")
	assert.Equal(t, first, second)
}

func TestClient_FetchProduct_ExpiredCacheRefetches(t *testing.T) {
	ctx := context.Background()

	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		fmt.Fprint(w, productDetailBody(sampleResult, false))
	}))
	defer server.Close()

	productCache := memory.New(30 * time.Millisecond)
	client := New(Config{
		Gateway:   server.URL,
		AppKey:    "12345",
		AppSecret: "super-secret",
	}, productCache, NewLimiter(time.Millisecond), zap.NewNop())

	_, err := client.FetchProduct(ctx, "x1005001234567890", "USD", "AR", "DZ")
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	_, err = client.FetchProduct(ctx, "x1005001234567890", "USD", "AR", "DZ")
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt64(&calls))
}

func TestClient_FetchProduct_ErrorEnvelopes(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		body     string
		wantKind domain.ErrorKind
	}{
		{
			name:     "rate limit rejection",
			body:     `{"error_response":{"code":"ApiCallLimit","msg":"Request frequency exceeded"}}`,
			wantKind: domain.ErrorKindRateLimited,
		},
		{
			name:     "rate limit by sub_code",
			body:     `{"error_response":{"code":7,"msg":"App Call Limited","sub_code":"isv.call-limited"}}`,
			wantKind: domain.ErrorKindRateLimited,
		},
		{
			name:     "generic provider error",
			body:     `{"error_response":{"code":"InvalidSignature","msg":"Invalid signature","sub_msg":"check your app secret"}}`,
			wantKind: domain.ErrorKindProvider,
		},
		{
			name:     "inner non-success status",
			body:     `{"` + responseKey + `":{"resp_result":{"resp_code":405,"resp_msg":"product not exist"}}}`,
			wantKind: domain.ErrorKindProvider,
		},
		{
			name:     "missing resp_result",
			body:     `{"` + responseKey + `":{}}`,
			wantKind: domain.ErrorKindMalformed,
		},
		{
			name:     "missing method response",
			body:     `{"unexpected":{}}`,
			wantKind: domain.ErrorKindMalformed,
		},
		{
			name:     "not json at all",
			body:     `<html>bad gateway</html>`,
			wantKind: domain.ErrorKindMalformed,
		},
		{
			name:     "empty product list",
			body:     productDetailBody(`{"products":{"product":[]}}`, false),
			wantKind: domain.ErrorKindNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			})

			_, err := client.FetchProduct(ctx, "1005008774372288", "USD", "AR", "DZ")
			require.Error(t, err)

			var perr *domain.ProviderError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.wantKind, perr.Kind)
		})
	}
}

func TestClient_FetchProduct_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	client := New(Config{
		Gateway:   server.URL,
		AppKey:    "12345",
		AppSecret: "super-secret",
	}, memory.New(time.Minute), NewLimiter(time.Millisecond), zap.NewNop())

	_, err := client.FetchProduct(context.Background(), "1005008774372288", "USD", "AR", "DZ")
	require.Error(t, err)

	var perr *domain.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, domain.ErrorKindNetwork, perr.Kind)
	assert.False(t, domain.IsRateLimited(err))
}

func TestClient_FetchProduct_RateLimitedIsDetectable(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error_response":{"code":"ApiCallLimit","msg":"Request frequency exceeded"}}`)
	})

	_, err := client.FetchProduct(context.Background(), "1005008774372288", "USD", "AR", "DZ")
	assert.True(t, domain.IsRateLimited(err))
}

func TestClient_FetchProduct_CacheWriteFailureIsNonFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, productDetailBody(sampleResult, false))
	}))
	t.Cleanup(server.Close)

	productCache := new(cachemocks.ProductCache)
	productCache.On("Get", mock.Anything, "1005008774372288").Return(nil, false)
	productCache.On("Set", mock.Anything, "1005008774372288", mock.Anything).
		Return(errors.New("cache unavailable"))

	client := New(Config{
		Gateway:    server.URL,
		AppKey:     "12345",
		AppSecret:  "super-secret",
		SignMethod: SignMethodSHA256,
	}, productCache, NewLimiter(time.Millisecond), zap.NewNop())

	record, err := client.FetchProduct(context.Background(), "1005008774372288", "USD", "AR", "DZ")
	require.NoError(t, err)
	assert.Equal(t, "Wireless earbuds", record.Title)
	productCache.AssertExpectations(t)
}
