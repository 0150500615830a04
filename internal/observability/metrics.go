package observability

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_requests_total",
			Help: "Total HTTP requests issued against the target site",
		},
	)

	RequestRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_request_retries_total",
			Help: "Total request attempts beyond the first",
		},
	)

	BlockedResponsesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_blocked_responses_total",
			Help: "Responses detected as anti-bot blocks (503 or captcha page)",
		},
	)

	ProductsScrapedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_products_scraped_total",
			Help: "Product records successfully extracted",
		},
	)

	ExportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_exports_total",
			Help: "Export files written, by format",
		},
		[]string{"format"},
	)
)

var registerOnce sync.Once

// Register registers all scraper metrics with the default registry.
// Safe to call from multiple binaries and tests.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestsTotal,
			RequestRetriesTotal,
			BlockedResponsesTotal,
			ProductsScrapedTotal,
			ExportsTotal,
		)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}
