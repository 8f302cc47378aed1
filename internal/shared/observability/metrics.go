package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	GraphProjects = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "modcheck_graph_projects_total",
		Help: "Number of projects in the current module graph.",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modcheck_cache_hits_total",
		Help: "Context cache lookups served from a stored value.",
	}, []string{"kind"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modcheck_cache_misses_total",
		Help: "Context cache lookups that ran the computation.",
	}, []string{"kind"})

	CacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modcheck_cache_errors_total",
		Help: "Context cache computations that failed.",
	}, []string{"kind"})

	ResolutionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modcheck_references_total",
		Help: "Reference candidates by resolution outcome and deciding interceptor.",
	}, []string{"outcome", "interceptor"})

	FindingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modcheck_findings_total",
		Help: "Findings produced by kind.",
	}, []string{"kind"})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "modcheck_analysis_seconds",
		Help:    "Time spent on high-level analysis tasks.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "modcheck_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	FactsThrottleWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "modcheck_facts_throttle_wait_seconds",
		Help:    "Time spent waiting on the source facts rate limiter.",
		Buckets: prometheus.DefBuckets,
	})
)
