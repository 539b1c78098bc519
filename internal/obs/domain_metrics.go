package obs

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CartMutationsTotal counts cart write operations by outcome.
	CartMutationsTotal *prometheus.CounterVec
	// PricingQuotesTotal counts price breakdowns served, labelled by the
	// selected discount percentage.
	PricingQuotesTotal *prometheus.CounterVec
	// CatalogSearchTotal counts product list requests by cache outcome.
	CatalogSearchTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CartMutationsTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Count of cart mutation outcomes.",
		}, []string{"op", "result"}))
		PricingQuotesTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_quotes_total",
			Help:      "Count of price breakdowns computed, by discount percent.",
		}, []string{"discount"}))
		CatalogSearchTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_search_total",
			Help:      "Count of product list requests by cache outcome.",
		}, []string{"cache"}))
	})
}

// ObserveCartMutation records one cart mutation outcome. Safe to call before
// metric registration; it is then a no-op.
func ObserveCartMutation(op string, err error) {
	if CartMutationsTotal == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	CartMutationsTotal.WithLabelValues(op, result).Inc()
}

// ObserveCatalogSearch records one list request and whether the cache served
// it. No-op before registration.
func ObserveCatalogSearch(hit bool) {
	if CatalogSearchTotal == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	CatalogSearchTotal.WithLabelValues(outcome).Inc()
}

// ObservePricingQuote records one served breakdown by discount percent.
// No-op before registration.
func ObservePricingQuote(percent int) {
	if PricingQuotesTotal == nil {
		return
	}
	PricingQuotesTotal.WithLabelValues(strconv.Itoa(percent)).Inc()
}
