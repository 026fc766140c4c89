// Package metrics registers the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProviderCalls counts affiliate API calls by outcome
	// (success, network, provider, rate_limited, malformed, not_found).
	ProviderCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricebot_provider_calls_total",
		Help: "Affiliate provider API calls by outcome",
	}, []string{"outcome"})

	// ProviderCallDuration tracks affiliate API call latency.
	ProviderCallDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pricebot_provider_call_duration_seconds",
		Help:    "Affiliate provider API call latency",
		Buckets: prometheus.DefBuckets,
	})

	// CacheHits counts product cache hits.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pricebot_product_cache_hits_total",
		Help: "Product cache hits",
	})

	// CacheMisses counts product cache misses.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pricebot_product_cache_misses_total",
		Help: "Product cache misses",
	})

	// Analyses counts analysis pipeline runs by result
	// (delivered, unsupported_link, rate_limited, provider_failed).
	Analyses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricebot_analyses_total",
		Help: "Link analysis pipeline runs by result",
	}, []string{"result"})

	// BroadcastDeliveries counts broadcast message deliveries by outcome.
	BroadcastDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricebot_broadcast_deliveries_total",
		Help: "Broadcast message deliveries by outcome",
	}, []string{"outcome"})
)
