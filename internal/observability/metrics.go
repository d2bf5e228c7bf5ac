package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	apiRequestsTotal  *prometheus.CounterVec
	apiLatencySeconds *prometheus.HistogramVec
	apiErrorsTotal    *prometheus.CounterVec

	titleEvaluationsTotal   *prometheus.CounterVec
	titlePipelineSeconds    prometheus.Histogram
	titleAverageScore       prometheus.Histogram
	constraintOutcomesTotal *prometheus.CounterVec
	constraintAttempts      prometheus.Histogram
	keywordCacheTotal       *prometheus.CounterVec
	imagesTotal             *prometheus.CounterVec
	progressSubscribers     prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the API and the pipeline.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seoblog_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "seoblog_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 180},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seoblog_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		titleEvaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seoblog_title_evaluations_total",
			Help: "Title evaluations by result (model or fallback).",
		}, []string{"result"})

		titlePipelineSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "seoblog_title_pipeline_seconds",
			Help:    "Duration of a full generate-and-evaluate title run.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 240},
		})

		titleAverageScore = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "seoblog_title_average_score",
			Help:    "Average rubric score of evaluated title batches.",
			Buckets: []float64{1, 1.5, 2, 2.5, 3, 3.5, 4, 4.5, 5},
		})

		constraintOutcomesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seoblog_constraint_loop_outcomes_total",
			Help: "Constraint loop terminal outcomes.",
		}, []string{"outcome"})

		constraintAttempts = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "seoblog_constraint_loop_attempts",
			Help:    "Drafting attempts used per constraint loop run.",
			Buckets: []float64{1, 2, 3, 4, 5},
		})

		keywordCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seoblog_keyword_cache_total",
			Help: "Keyword analysis cache lookups by result.",
		}, []string{"result"})

		imagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seoblog_images_total",
			Help: "Generated section images by result.",
		}, []string{"result"})

		progressSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "seoblog_progress_subscribers",
			Help: "Open progress event streams.",
		})

		prometheus.MustRegister(
			apiRequestsTotal, apiLatencySeconds, apiErrorsTotal,
			titleEvaluationsTotal, titlePipelineSeconds, titleAverageScore,
			constraintOutcomesTotal, constraintAttempts,
			keywordCacheTotal, imagesTotal, progressSubscribers,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// TitleEvaluations counts evaluated titles by result.
func TitleEvaluations() *prometheus.CounterVec {
	RegisterMetrics()
	return titleEvaluationsTotal
}

// TitlePipelineDuration observes full title runs.
func TitlePipelineDuration() prometheus.Histogram {
	RegisterMetrics()
	return titlePipelineSeconds
}

// TitleAverageScore observes batch average scores.
func TitleAverageScore() prometheus.Histogram {
	RegisterMetrics()
	return titleAverageScore
}

// ConstraintOutcomes counts finalized and exhausted loop runs.
func ConstraintOutcomes() *prometheus.CounterVec {
	RegisterMetrics()
	return constraintOutcomesTotal
}

// ConstraintAttempts observes attempts used per loop run.
func ConstraintAttempts() prometheus.Histogram {
	RegisterMetrics()
	return constraintAttempts
}

// KeywordCache counts keyword analysis cache lookups.
func KeywordCache() *prometheus.CounterVec {
	RegisterMetrics()
	return keywordCacheTotal
}

// Images counts generated section images.
func Images() *prometheus.CounterVec {
	RegisterMetrics()
	return imagesTotal
}

// ProgressSubscribers tracks open progress streams.
func ProgressSubscribers() prometheus.Gauge {
	RegisterMetrics()
	return progressSubscribers
}
