// Package metrics exposes Prometheus collectors for the API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DetectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carepoint_detections_total",
			Help: "Total number of detection results by mode, source and prediction",
		},
		[]string{"mode", "source", "prediction"},
	)

	DetectionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carepoint_detection_failures_total",
			Help: "Total number of failed detections by mode and error code",
		},
		[]string{"mode", "error_code"},
	)

	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "carepoint_analysis_duration_seconds",
			Help:    "Duration of image scoring and remote classification in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carepoint_recommendations_total",
			Help: "Total number of recommended specialties",
		},
		[]string{"specialty"},
	)

	ServiceRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carepoint_service_requests_total",
			Help: "Total number of service requests by resulting status",
		},
		[]string{"status"},
	)

	BackgroundSavesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "carepoint_background_saves_active",
			Help: "Number of detection results waiting to be persisted",
		},
	)
)
