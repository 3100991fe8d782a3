package library

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReferencesTotal is the number of stored reference outlines.
	ReferencesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "outlined",
			Subsystem: "library",
			Name:      "references",
			Help:      "Number of stored reference outlines",
		},
	)

	// OutlinesTotal is the number of stored generated outlines.
	OutlinesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "outlined",
			Subsystem: "library",
			Name:      "outlines",
			Help:      "Number of stored generated outlines",
		},
	)
)
