package observability

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LookupRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lookup_requests_total",
			Help: "Marketplace image lookups by source and outcome",
		},
		[]string{"source", "outcome"},
	)
	LookupCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lookup_cache_hits_total",
			Help: "Image lookups served from cache",
		},
	)
	MatchToggles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "match_toggles_total",
			Help: "MATCH values written by operators",
		},
	)
	Exports = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "exports_total",
			Help: "CSV exports served",
		},
	)
	Uploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uploads_total",
			Help: "Table uploads by outcome",
		},
		[]string{"outcome"},
	)
)

// Start registers the collectors and serves /metrics on its own port.
func Start(port string) {
	prometheus.MustRegister(LookupRequests, LookupCacheHits, MatchToggles, Exports, Uploads)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(":"+port, nil); err != nil {
			log.Printf("[Metrics] listener stopped: %v", err)
		}
	}()
}
