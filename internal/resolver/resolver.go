// Package resolver locates AliExpress product links in free-form text and
// extracts the numeric product identifier, following short-link redirects
// when needed.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aliexpress-dz/pricebot/internal/domain"
)

var (
	// ErrNoURL means the message contained no URL at all.
	ErrNoURL = errors.New("no url in message")

	// ErrUnsupportedDomain means the URL does not belong to the AliExpress
	// domain family.
	ErrUnsupportedDomain = errors.New("unsupported domain")

	// ErrNoProductID means the URL is an AliExpress URL but no product
	// identifier could be extracted from it.
	ErrNoProductID = errors.New("no product id in url")

	// ErrRedirectFailed means a short link could not be resolved to its
	// final target.
	ErrRedirectFailed = errors.New("short link redirect resolution failed")
)

const (
	rootDomain    = "aliexpress.com"
	shortLinkHost = "a.aliexpress.com"

	maxRedirects    = 10
	redirectTimeout = 10 * time.Second
)

var (
	urlPattern = regexp.MustCompile(`(?i)https?://\S+`)
	digitRun   = regexp.MustCompile(`\d{6,}`)

	// Query parameters known to carry a product id, scanned in order.
	productIDParams = []string{"productid", "itemid", "objid", "sku_id", "spm"}
)

// Resolver is safe for concurrent use; it holds no mutable state.
type Resolver struct {
	logger *zap.Logger

	// resolveShortLink follows a short link to its final target.
	// Swappable in tests to avoid the network.
	resolveShortLink func(ctx context.Context, rawURL string) (*url.URL, error)
}

// New creates a resolver using a bounded-redirect HTTP client.
func New(logger *zap.Logger) *Resolver {
	client := &http.Client{
		Timeout: redirectTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	r := &Resolver{logger: logger}
	r.resolveShortLink = func(ctx context.Context, rawURL string) (*url.URL, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		return resp.Request.URL, nil
	}
	return r
}

// Resolve scans freeText for the first URL, validates that it belongs to the
// AliExpress domain family and extracts the product identifier from it.
func (r *Resolver) Resolve(ctx context.Context, freeText string) (*domain.ResolvedLink, error) {
	matched := urlPattern.FindString(freeText)
	if matched == "" {
		return nil, ErrNoURL
	}

	u, err := url.Parse(strings.TrimSpace(matched))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedDomain, err)
	}

	host := strings.ToLower(u.Hostname())
	if !isAliExpressHost(host) {
		return nil, ErrUnsupportedDomain
	}

	if host == shortLinkHost {
		final, err := r.resolveShortLink(ctx, u.String())
		if err != nil {
			r.logger.Error("short link resolution failed",
				zap.String("url", matched),
				zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrRedirectFailed, err)
		}
		if !isAliExpressHost(strings.ToLower(final.Hostname())) {
			return nil, ErrUnsupportedDomain
		}
		u = final
	}

	productID := extractProductID(u)
	if productID == "" {
		return nil, ErrNoProductID
	}

	return &domain.ResolvedLink{
		OriginalText: freeText,
		MatchedURL:   matched,
		ProductID:    productID,
	}, nil
}

func isAliExpressHost(host string) bool {
	return host == rootDomain || strings.HasSuffix(host, "."+rootDomain)
}

// extractProductID applies the id heuristics in order of precedence:
// an "item" path segment followed by a digit run, any path segment with a
// digit run, then the known query parameters. Digit runs shorter than six
// digits never count as product ids.
func extractProductID(u *url.URL) string {
	segments := splitPath(u.Path)

	for i, seg := range segments {
		if seg == "item" && i+1 < len(segments) {
			if id := digitRun.FindString(segments[i+1]); id != "" {
				return id
			}
		}
	}

	for _, seg := range segments {
		if id := digitRun.FindString(seg); id != "" {
			return id
		}
	}

	query := u.Query()
	lowered := make(map[string]string, len(query))
	for key, values := range query {
		if len(values) > 0 {
			lowered[strings.ToLower(key)] = values[0]
		}
	}
	for _, key := range productIDParams {
		if value, ok := lowered[key]; ok {
			if id := digitRun.FindString(value); id != "" {
				return id
			}
		}
	}

	return ""
}

func splitPath(path string) []string {
	var segments []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			segments = append(segments, strings.ToLower(seg))
		}
	}
	return segments
}
