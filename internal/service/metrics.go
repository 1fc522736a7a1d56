package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chapterRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storybook_chapter_requests_total",
			Help: "Chapter generation requests by outcome.",
		},
		[]string{"outcome"}, // success | degraded | validation | upstream | invalid_output | conflict | persistence | error
	)
	pipelineStepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storybook_pipeline_step_duration_seconds",
			Help:    "Duration of chapter pipeline steps.",
			Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 20, 40, 60, 120, 180},
		},
		[]string{"step"}, // text | character_description | illustration | narration | persist | total
	)
	softFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storybook_pipeline_soft_failures_total",
			Help: "Media steps that failed without failing the chapter.",
		},
		[]string{"step"},
	)
	mediaBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storybook_media_bytes",
			Help:    "Size of stored chapter media.",
			Buckets: prometheus.ExponentialBuckets(16*1024, 2, 10), // 16KiB .. 8MiB
		},
		[]string{"kind"}, // illustration | audio
	)
)
