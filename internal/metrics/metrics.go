// Package metrics exposes Prometheus collectors for crawl and exploration work.
package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PagesVisited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowscout_pages_visited_total",
			Help: "Pages visited by the crawler, labeled by outcome.",
		},
		[]string{"outcome"},
	)
	PageDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flowscout_page_visit_seconds",
			Help:    "Time spent loading and analysing one crawled page.",
			Buckets: prometheus.DefBuckets,
		},
	)
	TriggersDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowscout_triggers_detected_total",
			Help: "Unique booking triggers found by the crawler, labeled by trigger type.",
		},
		[]string{"trigger_type"},
	)
	Variations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowscout_flow_variations_total",
			Help: "Explored flow variations, labeled by termination reason.",
		},
		[]string{"reason"},
	)
	FlowSteps = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flowscout_flow_steps",
			Help:    "Recorded steps per flow variation.",
			Buckets: prometheus.LinearBuckets(0, 2, 10),
		},
	)
	ActionRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "flowscout_action_retries_total",
			Help: "Browser actions retried after a transient failure.",
		},
	)
	PackagesScraped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "flowscout_packages_scraped_total",
			Help: "Unique bookable packages found by the package scraper.",
		},
	)
)

func init() {
	prometheus.MustRegister(PagesVisited)
	prometheus.MustRegister(PageDuration)
	prometheus.MustRegister(TriggersDetected)
	prometheus.MustRegister(Variations)
	prometheus.MustRegister(FlowSteps)
	prometheus.MustRegister(ActionRetries)
	prometheus.MustRegister(PackagesScraped)
}

// RecordRetries counts the extra attempts an action needed
func RecordRetries(attempts int) {
	if attempts > 1 {
		ActionRetries.Add(float64(attempts - 1))
	}
}

// ExposeMetrics serves /metrics on addr until the listener fails
func ExposeMetrics(addr string) {
	slog.Info("Exposing Prometheus metrics", "address", addr)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("Failed to start Prometheus metrics server", "error", err)
	}
}
