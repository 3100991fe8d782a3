package generator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request kinds and results used as metric labels.
const (
	kindAddReference = "add_reference"
	kindGenerate     = "generate"
	kindRegenerate   = "regenerate"
	kindSearch       = "search"

	resultSuccess   = "success"
	resultError     = "error"
	resultUnchanged = "unchanged"
)

var (
	// RequestsTotal counts workflow requests by kind and result.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "outlined",
			Subsystem: "generator",
			Name:      "requests_total",
			Help:      "Total number of generator requests",
		},
		[]string{"kind", "result"},
	)

	// EmbeddingFallbacksTotal counts zero vectors used in place of a failed
	// embedding.
	EmbeddingFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "outlined",
			Subsystem: "generator",
			Name:      "embedding_fallbacks_total",
			Help:      "Total number of zero-vector embedding fallbacks",
		},
	)

	// ReferencesUsed observes how many references fed each generation.
	ReferencesUsed = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "outlined",
			Subsystem: "generator",
			Name:      "references_used",
			Help:      "Number of reference outlines used per generation",
			Buckets:   prometheus.LinearBuckets(0, 1, 6),
		},
	)
)
