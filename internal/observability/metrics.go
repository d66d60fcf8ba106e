package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestsActive  prometheus.Gauge

	// Business metrics
	AnalysesTotal    *prometheus.CounterVec
	AnalysisDuration *prometheus.HistogramVec
	AnalysisScores   prometheus.Histogram
	ScrapesTotal     *prometheus.CounterVec

	// Research metrics
	ResearchQueriesTotal *prometheus.CounterVec
	ResearchCacheHits    prometheus.Counter
	ResearchCacheMisses  prometheus.Counter

	// OpenAI API metrics
	OpenAIRequestsTotal   *prometheus.CounterVec
	OpenAIRequestDuration *prometheus.HistogramVec
	OpenAITokensUsed      *prometheus.CounterVec
	OpenAICostTotal       prometheus.Counter
	OpenAICacheHits       prometheus.Counter
	OpenAICacheMisses     prometheus.Counter

	// System metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge
}

// NewMetrics creates a new metrics instance with all Prometheus metrics registered
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "ecoguard"
	}

	m := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_active",
				Help:      "Number of active HTTP requests",
			},
		),

		// Business metrics
		AnalysesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analyses_total",
				Help:      "Total number of analyses run",
			},
			[]string{"status"}, // completed, scored, unscored, failed
		),
		AnalysisDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_duration_seconds",
				Help:      "End-to-end analysis duration in seconds",
				Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"depth"},
		),
		AnalysisScores: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_scores",
				Help:      "Distribution of extracted overall scores",
				Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			},
		),
		ScrapesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scrapes_total",
				Help:      "Total number of page scrapes",
			},
			[]string{"page_type", "status"},
		),

		// Research metrics
		ResearchQueriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "research_queries_total",
				Help:      "Total number of research queries dispatched",
			},
			[]string{"provider", "status"},
		),
		ResearchCacheHits: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "research_cache_hits_total",
				Help:      "Total number of research cache hits",
			},
		),
		ResearchCacheMisses: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "research_cache_misses_total",
				Help:      "Total number of research cache misses",
			},
		),

		// OpenAI API metrics
		OpenAIRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "openai_requests_total",
				Help:      "Total number of OpenAI API requests",
			},
			[]string{"model", "status"},
		),
		OpenAIRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "openai_request_duration_seconds",
				Help:      "OpenAI API request duration in seconds",
				Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"model"},
		),
		OpenAITokensUsed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "openai_tokens_used_total",
				Help:      "Total number of tokens used",
			},
			[]string{"model", "type"}, // type: input, output
		),
		OpenAICostTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "openai_cost_usd_total",
				Help:      "Total estimated cost in USD",
			},
		),
		OpenAICacheHits: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "openai_cache_hits_total",
				Help:      "Total number of completion cache hits",
			},
		),
		OpenAICacheMisses: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "openai_cache_misses_total",
				Help:      "Total number of completion cache misses",
			},
		),

		// System metrics
		DBConnectionsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connections_active",
				Help:      "Number of active database connections",
			},
		),
		DBConnectionsIdle: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connections_idle",
				Help:      "Number of idle database connections",
			},
		),
	}

	return m
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordAnalysis records one completed analysis
func (m *Metrics) RecordAnalysis(depth string, score *int, duration time.Duration) {
	status := "unscored"
	if score != nil {
		status = "scored"
		m.AnalysisScores.Observe(float64(*score))
	}
	m.AnalysesTotal.WithLabelValues(status).Inc()
	m.AnalysisDuration.WithLabelValues(depth).Observe(duration.Seconds())
}

// RecordAnalysisFailure records an analysis that errored out
func (m *Metrics) RecordAnalysisFailure() {
	m.AnalysesTotal.WithLabelValues("failed").Inc()
}

// RecordScrape records one page scrape
func (m *Metrics) RecordScrape(pageType, status string) {
	m.ScrapesTotal.WithLabelValues(pageType, status).Inc()
}

// RecordResearchQuery records one research provider attempt
func (m *Metrics) RecordResearchQuery(provider, status string) {
	m.ResearchQueriesTotal.WithLabelValues(provider, status).Inc()
}

// RecordOpenAIRequest records OpenAI API metrics
func (m *Metrics) RecordOpenAIRequest(model, status string, duration time.Duration, inputTokens, outputTokens int, cost float64) {
	m.OpenAIRequestsTotal.WithLabelValues(model, status).Inc()
	m.OpenAIRequestDuration.WithLabelValues(model).Observe(duration.Seconds())
	m.OpenAITokensUsed.WithLabelValues(model, "input").Add(float64(inputTokens))
	m.OpenAITokensUsed.WithLabelValues(model, "output").Add(float64(outputTokens))
	m.OpenAICostTotal.Add(cost)
}

// HTTPMiddleware returns middleware for recording HTTP metrics
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.HTTPRequestsActive.Inc()
		defer m.HTTPRequestsActive.Dec()

		start := time.Now()

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		m.RecordHTTPRequest(r.Method, r.URL.Path, wrapped.statusCode, duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Global metrics instance
var globalMetrics *Metrics

// InitMetrics initializes the global metrics instance
func InitMetrics(namespace string) *Metrics {
	globalMetrics = NewMetrics(namespace)
	return globalMetrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	if globalMetrics == nil {
		globalMetrics = NewMetrics("ecoguard")
	}
	return globalMetrics
}
