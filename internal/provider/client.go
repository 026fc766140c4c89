// Package provider implements the signed, rate-limited, cached client for
// the AliExpress affiliate gateway.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aliexpress-dz/pricebot/internal/cache"
	"github.com/aliexpress-dz/pricebot/internal/domain"
	"github.com/aliexpress-dz/pricebot/internal/metrics"
)

const (
	methodProductDetail = "aliexpress.affiliate.productdetail.get"

	// DefaultGateway is the affiliate API endpoint.
	DefaultGateway = "https://api-sg.aliexpress.com/sync"

	defaultTimeout = 15 * time.Second
)

// Rate-limit rejections identified by structured codes, not message text.
var rateLimitCodes = map[string]bool{
	"ApiCallLimit":     true,
	"isv.call-limited": true,
	"api-call-limit":   true,
}

// Config holds the provider credentials and endpoints.
type Config struct {
	Gateway    string
	AppKey     string
	AppSecret  string
	TrackingID string
	SignMethod SignMethod
	Timeout    time.Duration
}

// Client performs signed product-detail calls against the affiliate gateway,
// consulting the cache first and the rate limiter before any network call.
type Client struct {
	cfg     Config
	http    *http.Client
	cache   cache.ProductCache
	limiter *Limiter
	logger  *zap.Logger

	now func() time.Time
}

// New creates a provider client.
func New(cfg Config, productCache cache.ProductCache, limiter *Limiter, logger *zap.Logger) *Client {
	if cfg.Gateway == "" {
		cfg.Gateway = DefaultGateway
	}
	if cfg.SignMethod == "" {
		cfg.SignMethod = SignMethodSHA256
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		cache:   productCache,
		limiter: limiter,
		logger:  logger,
		now:     time.Now,
	}
}

// FetchProduct returns the normalized product record for productID. A live
// cache entry is returned without touching the rate limiter or the network.
func (c *Client) FetchProduct(ctx context.Context, productID, currency, language, country string) (*domain.ProductRecord, error) {
	if record, ok := c.cache.Get(ctx, productID); ok {
		metrics.CacheHits.Inc()
		return record, nil
	}
	metrics.CacheMisses.Inc()

	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	record, err := c.callProductDetail(ctx, productID, currency, language, country)
	if err != nil {
		var perr *domain.ProviderError
		outcome := "network"
		if errors.As(err, &perr) {
			outcome = string(perr.Kind)
		}
		metrics.ProviderCalls.WithLabelValues(outcome).Inc()
		c.logger.Error("provider call failed",
			zap.String("product_id", productID),
			zap.Error(err))
		return nil, err
	}
	metrics.ProviderCalls.WithLabelValues("success").Inc()

	if err := c.cache.Set(ctx, productID, record); err != nil {
		c.logger.Warn("failed to cache product record",
			zap.String("product_id", productID),
			zap.Error(err))
	}

	return record, nil
}

func (c *Client) callProductDetail(ctx context.Context, productID, currency, language, country string) (*domain.ProductRecord, error) {
	params := map[string]string{
		"app_key":         c.cfg.AppKey,
		"timestamp":       strconv.FormatInt(c.now().UnixMilli(), 10),
		"sign_method":     string(c.cfg.SignMethod),
		"format":          "json",
		"v":               "2.0",
		"method":          methodProductDetail,
		"product_ids":     productID,
		"target_currency": currency,
		"target_language": language,
		"country":         country,
	}
	if c.cfg.TrackingID != "" {
		params["tracking_id"] = c.cfg.TrackingID
	}
	params["sign"] = Sign(c.cfg.SignMethod, methodProductDetail, params, c.cfg.AppSecret)

	query := url.Values{}
	for key, value := range params {
		query.Set(key, value)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Gateway+"?"+query.Encode(), nil)
	if err != nil {
		return nil, &domain.ProviderError{Kind: domain.ErrorKindNetwork, Err: err}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.ProviderCallDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, &domain.ProviderError{Kind: domain.ErrorKindNetwork, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.ProviderError{Kind: domain.ErrorKindNetwork, Err: err}
	}

	return c.parseEnvelope(body, productID, currency)
}

// parseEnvelope unwraps the gateway's response envelope: either a top-level
// error_response or <method>_response.resp_result, whose result arrives as a
// JSON string or an already-structured object.
func (c *Client) parseEnvelope(body []byte, productID, currency string) (*domain.ProductRecord, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &domain.ProviderError{Kind: domain.ErrorKindMalformed, Message: "unparseable response envelope", Err: err}
	}

	if raw, ok := envelope["error_response"]; ok {
		var errResp errorResponse
		if err := json.Unmarshal(raw, &errResp); err != nil {
			return nil, &domain.ProviderError{Kind: domain.ErrorKindMalformed, Message: "unparseable error_response", Err: err}
		}
		kind := domain.ErrorKindProvider
		if rateLimitCodes[string(errResp.Code)] || rateLimitCodes[errResp.SubCode] {
			kind = domain.ErrorKindRateLimited
		}
		message := errResp.Msg
		if errResp.SubMsg != "" {
			message = message + ": " + errResp.SubMsg
		}
		return nil, &domain.ProviderError{Kind: kind, Code: string(errResp.Code), Message: message}
	}

	responseKey := strings.ReplaceAll(methodProductDetail, ".", "_") + "_response"
	rawResponse, ok := envelope[responseKey]
	if !ok {
		return nil, &domain.ProviderError{Kind: domain.ErrorKindMalformed, Message: "missing " + responseKey}
	}

	var inner struct {
		RespResult *respResult `json:"resp_result"`
	}
	if err := json.Unmarshal(rawResponse, &inner); err != nil || inner.RespResult == nil {
		return nil, &domain.ProviderError{Kind: domain.ErrorKindMalformed, Message: "missing resp_result", Err: err}
	}

	if inner.RespResult.RespCode != "" && inner.RespResult.RespCode != "200" {
		kind := domain.ErrorKindProvider
		if rateLimitCodes[string(inner.RespResult.RespCode)] {
			kind = domain.ErrorKindRateLimited
		}
		return nil, &domain.ProviderError{
			Kind:    kind,
			Code:    string(inner.RespResult.RespCode),
			Message: inner.RespResult.RespMsg,
		}
	}

	result, err := decodeResult(inner.RespResult.Result)
	if err != nil {
		return nil, &domain.ProviderError{Kind: domain.ErrorKindMalformed, Message: "unparseable result payload", Err: err}
	}

	products := result.Products.Product
	if len(products) == 0 {
		return nil, &domain.ProviderError{Kind: domain.ErrorKindNotFound, Message: "no product returned for id " + productID}
	}

	return products[0].normalize(productID, currency), nil
}

// decodeResult accepts both result encodings: a JSON-encoded string and an
// already-structured object.
func decodeResult(raw json.RawMessage) (*resultPayload, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty result")
	}

	data := []byte(raw)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		data = []byte(s)
	}

	var result resultPayload
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Ensure Client implements the interface
var _ ProductFetcher = (*Client)(nil)
