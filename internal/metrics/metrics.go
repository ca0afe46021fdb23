// Package metrics holds the Prometheus collectors for the song cache.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch failure reasons.
const (
	ReasonTransport = "transport"
	ReasonStatus    = "status"
	ReasonDecode    = "decode"
)

var (
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "leftasrain",
		Name:      "cache_hits_total",
		Help:      "Song lookups served from the local cache.",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "leftasrain",
		Name:      "cache_misses_total",
		Help:      "Song lookups that went to the remote endpoint.",
	})

	FetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "leftasrain",
		Name:      "fetch_failures_total",
		Help:      "Remote song fetches that returned no record, by reason.",
	}, []string{"reason"})

	CachedSongs = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "leftasrain",
		Name:      "cached_songs",
		Help:      "Number of songs held in the local cache.",
	})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
