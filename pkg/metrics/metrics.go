// Package metrics provides Prometheus instrumentation for the censorship
// services: check throughput and latency, word-list size and update outcomes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ChecksTotal counts checked texts, labeled by result: "clean" or "profane".
	ChecksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "censor_checks_total",
		Help: "Total number of checked texts",
	}, []string{"result"})

	// CheckDuration records normalization plus matching time in seconds.
	CheckDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "censor_check_duration_seconds",
		Help:    "Time spent normalizing and matching one text",
		Buckets: []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .05},
	})

	// Words tracks the size of the active word list.
	Words = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "censor_words",
		Help: "Number of entries in the active word list",
	})

	// WordListUpdates counts word-list mutations by operation
	// ("replace", "extend", "reload") and status ("ok", "error").
	WordListUpdates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "censor_wordlist_updates_total",
		Help: "Total number of word-list updates",
	}, []string{"op", "status"})
)

func init() {
	prometheus.MustRegister(
		ChecksTotal,
		CheckDuration,
		Words,
		WordListUpdates,
	)
}

// ObserveCheck records one check outcome.
func ObserveCheck(profane bool, seconds float64) {
	result := "clean"
	if profane {
		result = "profane"
	}
	ChecksTotal.WithLabelValues(result).Inc()
	CheckDuration.Observe(seconds)
}

// ObserveUpdate records one word-list mutation and the resulting list size.
func ObserveUpdate(op string, err error, size int) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	WordListUpdates.WithLabelValues(op, status).Inc()
	if err == nil {
		Words.Set(float64(size))
	}
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
