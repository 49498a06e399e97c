package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EmbeddingJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_jobs_completed_total",
			Help: "Total number of embedding jobs completed",
		},
		[]string{"kind"},
	)

	EmbeddingJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_jobs_failed_total",
			Help: "Total number of embedding jobs failed",
		},
		[]string{"kind", "error_kind"},
	)

	EmbeddingJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "embedding_job_duration_seconds",
			Help: "Duration of embedding job processing in seconds",
		},
		[]string{"kind"},
	)

	PointsIndexed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vector_points_indexed_total",
			Help: "Points written to the vector store",
		},
		[]string{"collection", "dry_run"},
	)

	SkillMatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skill_normalizations_total",
			Help: "Skill mentions by resolution outcome",
		},
		[]string{"match_type"},
	)

	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skill_search_requests_total",
			Help: "Skill search requests by outcome",
		},
		[]string{"outcome"},
	)

	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "skill_search_duration_seconds",
			Help:    "Skill search latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	AvailabilityDegraded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "availability_filter_degraded_total",
			Help: "Searches that dropped the availability filter because the cache was unreachable",
		},
	)
)
