package generator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// attemptsTotal counts layout attempts by outcome.
	attemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autocross_generator_attempts_total",
		Help: "Layout attempts by outcome",
	}, []string{"outcome"})

	// runsTotal counts whole generations by result.
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autocross_generator_runs_total",
		Help: "Crossword generations by result",
	}, []string{"result"})

	modelCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "autocross_generator_model_call_duration_seconds",
		Help:    "Model call latency by stage",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2min
	}, []string{"stage"})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "autocross_generator_run_duration_seconds",
		Help:    "End to end generation latency",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
	})
)
