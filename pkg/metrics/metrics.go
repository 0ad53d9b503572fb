// Package metrics provides Prometheus metrics for the fern service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Ramsey-B/fern/pkg/models"
)

var (
	// DetectionRunsTotal tracks detection passes by strategy
	DetectionRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "detection",
			Name:      "runs_total",
			Help:      "Total number of duplicate detection passes",
		},
		[]string{"strategy"},
	)

	// DetectionDuration tracks how long a detection pass takes
	DetectionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "detection",
			Name:      "duration_seconds",
			Help:      "Duration of duplicate detection passes in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"strategy"},
	)

	// GroupsDetected tracks detected groups by confidence tier
	GroupsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "detection",
			Name:      "groups_total",
			Help:      "Total number of duplicate groups detected by confidence",
		},
		[]string{"confidence"},
	)

	// MergesTotal tracks merges by mode and status
	MergesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "merge",
			Name:      "merges_total",
			Help:      "Total number of merges by mode and status",
		},
		[]string{"mode", "status"},
	)

	// MergeDuration tracks merge executor latency
	MergeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "merge",
			Name:      "duration_seconds",
			Help:      "Duration of merge transactions in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	// RecordsTransferred tracks linked rows moved onto surviving clients
	RecordsTransferred = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "merge",
			Name:      "records_transferred_total",
			Help:      "Total number of linked records moved to a surviving client",
		},
		[]string{"table"},
	)

	// BatchSessionsTotal tracks batch reviews by how they ended
	BatchSessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "batch",
			Name:      "sessions_total",
			Help:      "Total number of batch reviews by outcome",
		},
		[]string{"outcome"},
	)

	// RelationshipFetchFailures tracks relationship lookups that fell back to zero counts
	RelationshipFetchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "batch",
			Name:      "relationship_fetch_failures_total",
			Help:      "Total number of relationship count lookups that failed",
		},
	)

	// ProjectionFailures tracks failed event or lineage projections of committed merges
	ProjectionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "merge",
			Name:      "projection_failures_total",
			Help:      "Total number of failed post-commit projections",
		},
		[]string{"projection"},
	)
)

// RecordDetection records one detection pass and its groups
func RecordDetection(strategy string, durationSeconds float64, groups []models.DuplicateGroup) {
	DetectionRunsTotal.WithLabelValues(strategy).Inc()
	DetectionDuration.WithLabelValues(strategy).Observe(durationSeconds)
	for _, g := range groups {
		GroupsDetected.WithLabelValues(string(g.Confidence)).Inc()
	}
}

// RecordMerge records a merge attempt
func RecordMerge(mode, status string, durationSeconds float64) {
	MergesTotal.WithLabelValues(mode, status).Inc()
	MergeDuration.Observe(durationSeconds)
}

// RecordTransferred records rows moved per table
func RecordTransferred(transferred map[string]int) {
	for table, count := range transferred {
		RecordsTransferred.WithLabelValues(table).Add(float64(count))
	}
}
