package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	LookupsTotal        *prometheus.CounterVec
	LookupDuration      prometheus.Histogram
	CacheHits           prometheus.Counter
	CacheMisses         prometheus.Counter
	CacheEvictions      prometheus.Counter
	DatabasesRegistered prometheus.Gauge
	FetchTotal          *prometheus.CounterVec
)

func InitMetrics() {
	once.Do(func() {
		registerMetrics()
	})
}

func registerMetrics() {
	LookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geoip_lookups_total",
			Help: "Total number of lookups by database and status",
		},
		[]string{"database", "status"},
	)
	LookupDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "geoip_lookup_duration_seconds",
			Help:    "Lookup latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1},
		},
	)
	CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "geoip_cache_hits_total",
			Help: "Total number of record cache hits",
		},
	)
	CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "geoip_cache_misses_total",
			Help: "Total number of record cache misses",
		},
	)
	CacheEvictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "geoip_cache_evictions_total",
			Help: "Total number of record cache evictions",
		},
	)
	DatabasesRegistered = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "geoip_databases",
			Help: "Number of databases the registry holds",
		},
	)
	FetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geoip_fetch_total",
			Help: "Total number of edition fetch attempts by outcome",
		},
		[]string{"edition", "status"},
	)

	prometheus.MustRegister(LookupsTotal)
	prometheus.MustRegister(LookupDuration)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(CacheEvictions)
	prometheus.MustRegister(DatabasesRegistered)
	prometheus.MustRegister(FetchTotal)
}
