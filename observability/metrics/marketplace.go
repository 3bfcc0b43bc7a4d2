package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// MarketplaceMetrics records engine activity for dashboards and alerting.
type MarketplaceMetrics struct {
	itemsListed       prometheus.Counter
	itemsSold         prometheus.Counter
	itemsRelisted     prometheus.Counter
	bidsAccepted      prometheus.Counter
	auctionsCreated   prometheus.Counter
	auctionsFinalized *prometheus.CounterVec
	rpcRequests       *prometheus.CounterVec
	rpcLatency        *prometheus.HistogramVec
}

var (
	marketplaceOnce     sync.Once
	marketplaceRegistry *MarketplaceMetrics
)

// Marketplace returns the lazily-initialised marketplace metrics registry.
func Marketplace() *MarketplaceMetrics {
	marketplaceOnce.Do(func() {
		marketplaceRegistry = &MarketplaceMetrics{
			itemsListed: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "ideeza",
				Subsystem: "market",
				Name:      "items_listed_total",
				Help:      "Count of successful list operations.",
			}),
			itemsSold: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "ideeza",
				Subsystem: "market",
				Name:      "items_sold_total",
				Help:      "Count of completed purchases.",
			}),
			itemsRelisted: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "ideeza",
				Subsystem: "market",
				Name:      "items_relisted_total",
				Help:      "Count of successful resell operations.",
			}),
			bidsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "ideeza",
				Subsystem: "auction",
				Name:      "bids_accepted_total",
				Help:      "Count of accepted bids across all auctions.",
			}),
			auctionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "ideeza",
				Subsystem: "auction",
				Name:      "auctions_created_total",
				Help:      "Count of auctions opened.",
			}),
			auctionsFinalized: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "ideeza",
				Subsystem: "auction",
				Name:      "auctions_finalized_total",
				Help:      "Count of finalized auctions segmented by outcome.",
			}, []string{"outcome"}),
			rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "ideeza",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "Total JSON-RPC requests segmented by method and outcome.",
			}, []string{"method", "outcome"}),
			rpcLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "ideeza",
				Subsystem: "rpc",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for JSON-RPC handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
		}
		prometheus.MustRegister(
			marketplaceRegistry.itemsListed,
			marketplaceRegistry.itemsSold,
			marketplaceRegistry.itemsRelisted,
			marketplaceRegistry.bidsAccepted,
			marketplaceRegistry.auctionsCreated,
			marketplaceRegistry.auctionsFinalized,
			marketplaceRegistry.rpcRequests,
			marketplaceRegistry.rpcLatency,
		)
	})
	return marketplaceRegistry
}

func (m *MarketplaceMetrics) ObserveItemListed() {
	if m == nil {
		return
	}
	m.itemsListed.Inc()
}

func (m *MarketplaceMetrics) ObserveItemSold() {
	if m == nil {
		return
	}
	m.itemsSold.Inc()
}

func (m *MarketplaceMetrics) ObserveItemRelisted() {
	if m == nil {
		return
	}
	m.itemsRelisted.Inc()
}

func (m *MarketplaceMetrics) ObserveBidAccepted() {
	if m == nil {
		return
	}
	m.bidsAccepted.Inc()
}

func (m *MarketplaceMetrics) ObserveAuctionCreated() {
	if m == nil {
		return
	}
	m.auctionsCreated.Inc()
}

func (m *MarketplaceMetrics) ObserveAuctionFinalized(accepted bool) {
	if m == nil {
		return
	}
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	m.auctionsFinalized.WithLabelValues(outcome).Inc()
}

func (m *MarketplaceMetrics) ObserveRPC(method, outcome string, seconds float64) {
	if m == nil {
		return
	}
	if method == "" {
		method = "unknown"
	}
	m.rpcRequests.WithLabelValues(method, outcome).Inc()
	m.rpcLatency.WithLabelValues(method).Observe(seconds)
}
