package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestResolver() *Resolver {
	return New(zap.NewNop())
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		text    string
		wantID  string
		wantURL string
		wantErr error
	}{
		{
			name:    "item path segment",
			text:    "check this https://www.aliexpress.com/item/1005008774372288.html please",
			wantID:  "1005008774372288",
			wantURL: "https://www.aliexpress.com/item/1005008774372288.html",
		},
		{
			name:   "item segment with suffix noise",
			text:   "https://www.aliexpress.com/item/ref-1005001234567890-sale.html",
			wantID: "1005001234567890",
		},
		{
			name:   "bare path segment",
			text:   "https://m.aliexpress.com/i/32859246734.html",
			wantID: "32859246734",
		},
		{
			name:   "query parameter productId",
			text:   "https://www.aliexpress.com/gcp/whatever?productId=1005007000000123",
			wantID: "1005007000000123",
		},
		{
			name:   "query parameter sku_id",
			text:   "https://ar.aliexpress.com/store/page?sku_id=12000034567890123",
			wantID: "12000034567890123",
		},
		{
			name:    "no url at all",
			text:    "hello, how do I use this bot?",
			wantErr: ErrNoURL,
		},
		{
			name:    "unsupported domain",
			text:    "https://www.amazon.com/dp/B000123456",
			wantErr: ErrUnsupportedDomain,
		},
		{
			name:    "lookalike domain is rejected",
			text:    "https://aliexpress.com.evil.example/item/1005001234567890.html",
			wantErr: ErrUnsupportedDomain,
		},
		{
			name:    "digit run too short",
			text:    "https://www.aliexpress.com/category/12345/phones.html",
			wantErr: ErrNoProductID,
		},
		{
			name:    "no digits anywhere",
			text:    "https://www.aliexpress.com/help/contact.html",
			wantErr: ErrNoProductID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResolver()
			link, err := r.Resolve(ctx, tt.text)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, link)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, link)
			assert.Equal(t, tt.wantID, link.ProductID)
			assert.Equal(t, tt.text, link.OriginalText)
			if tt.wantURL != "" {
				assert.Equal(t, tt.wantURL, link.MatchedURL)
			}
		})
	}
}

func TestResolver_Resolve_PrecedenceOrder(t *testing.T) {
	// The item tier wins over the generic path scan, which wins over the
	// query parameters.
	ctx := context.Background()
	r := newTestResolver()

	link, err := r.Resolve(ctx, "https://www.aliexpress.com/item/1005001111111111.html?productId=1005002222222222")
	require.NoError(t, err)
	assert.Equal(t, "1005001111111111", link.ProductID)

	link, err = r.Resolve(ctx, "https://www.aliexpress.com/p/3333334444444/detail.html?itemId=1005005555555555")
	require.NoError(t, err)
	assert.Equal(t, "3333334444444", link.ProductID)
}

func TestResolver_Resolve_ShortLink(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves to item url", func(t *testing.T) {
		r := newTestResolver()
		r.resolveShortLink = func(ctx context.Context, rawURL string) (*url.URL, error) {
			assert.Equal(t, "https://a.aliexpress.com/_mKje1aB", rawURL)
			return url.Parse("https://www.aliexpress.com/item/1005006666666666.html")
		}

		link, err := r.Resolve(ctx, "look: https://a.aliexpress.com/_mKje1aB")
		require.NoError(t, err)
		assert.Equal(t, "1005006666666666", link.ProductID)
		assert.Equal(t, "https://a.aliexpress.com/_mKje1aB", link.MatchedURL)
	})

	t.Run("redirect target outside domain family", func(t *testing.T) {
		r := newTestResolver()
		r.resolveShortLink = func(ctx context.Context, rawURL string) (*url.URL, error) {
			return url.Parse("https://www.othershop.example/item/1005006666666666.html")
		}

		_, err := r.Resolve(ctx, "https://a.aliexpress.com/_abc")
		assert.ErrorIs(t, err, ErrUnsupportedDomain)
	})

	t.Run("redirect failure", func(t *testing.T) {
		r := newTestResolver()
		r.resolveShortLink = func(ctx context.Context, rawURL string) (*url.URL, error) {
			return nil, errors.New("connection refused")
		}

		_, err := r.Resolve(ctx, "https://a.aliexpress.com/_abc")
		assert.ErrorIs(t, err, ErrRedirectFailed)
	})
}

func TestResolver_ShortLinkClient_FollowsRedirects(t *testing.T) {
	// The default resolveShortLink follows real HTTP redirects and reports
	// the final URL.
	hops := 3
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var n int
		fmt.Sscanf(r.URL.Path, "/hop/%d", &n)
		if n < hops {
			http.Redirect(w, r, fmt.Sprintf("/hop/%d", n+1), http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	r := newTestResolver()
	final, err := r.resolveShortLink(context.Background(), server.URL+"/hop/0")
	require.NoError(t, err)
	assert.Equal(t, "/hop/3", final.Path)
}

func TestResolver_NeverCallsNetworkWithoutURL(t *testing.T) {
	r := newTestResolver()
	r.resolveShortLink = func(ctx context.Context, rawURL string) (*url.URL, error) {
		t.Fatal("resolveShortLink must not be called")
		return nil, nil
	}

	_, err := r.Resolve(context.Background(), "no links here")
	assert.ErrorIs(t, err, ErrNoURL)

	// Full URLs that are not short links must not hit the network either.
	_, err = r.Resolve(context.Background(), "https://www.aliexpress.com/item/1005001234567890.html")
	assert.NoError(t, err)
}
