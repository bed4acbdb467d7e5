package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RendersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "incidentmap_renders_total",
		Help: "Total session renders by viewport outcome",
	}, []string{"viewport"})
	RenderDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "incidentmap_render_duration_ms",
		Help:    "Filter, cluster and viewport pipeline duration in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 50, 100},
	})
	VisibleClusters = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "incidentmap_visible_clusters",
		Help:    "Number of clusters produced per render",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
	})
	SnapshotFetchFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "incidentmap_snapshot_fetch_failures_total",
		Help: "Total failed incident snapshot fetches",
	}, []string{"source"})
	SnapshotSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "incidentmap_snapshot_incidents",
		Help: "Incidents in the most recently fetched snapshot",
	})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "incidentmap_snapshot_cache_hits_total",
		Help: "Total snapshot cache hits",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "incidentmap_snapshot_cache_misses_total",
		Help: "Total snapshot cache misses",
	})
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "incidentmap_active_sessions",
		Help: "Filter sessions currently held in memory",
	})
)

func init() {
	prometheus.MustRegister(RendersTotal)
	prometheus.MustRegister(RenderDurationMs)
	prometheus.MustRegister(VisibleClusters)
	prometheus.MustRegister(SnapshotFetchFailuresTotal)
	prometheus.MustRegister(SnapshotSize)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(ActiveSessions)
}

// Handler exposes the registered collectors for scraping
func Handler() http.Handler { return promhttp.Handler() }
