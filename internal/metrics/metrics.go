package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the farmai collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "farmai",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "farmai",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "farmai",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "path"},
	)

	upstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "farmai",
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Calls to third-party data sources by outcome (ok, error, open, cached, fallback).",
		},
		[]string{"upstream", "outcome"},
	)

	upstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "farmai",
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Duration of calls to third-party data sources.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 11),
		},
		[]string{"upstream"},
	)

	analyses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "farmai",
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Parcel analyses by outcome.",
		},
		[]string{"outcome"},
	)

	analysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "farmai",
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "End-to-end duration of a parcel analysis.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)

	topScore = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "farmai",
			Subsystem: "analysis",
			Name:      "last_top_score",
			Help:      "Composite score of the best crop in the latest analysis.",
		},
	)

	agentRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "farmai",
			Subsystem: "agents",
			Name:      "runs_total",
			Help:      "Generative agent invocations by agent and status.",
		},
		[]string{"agent", "status"},
	)

	rateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "farmai",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client limiter.",
		},
		[]string{"path"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		upstreamRequests,
		upstreamDuration,
		analyses,
		analysisDuration,
		topScore,
		agentRuns,
		rateLimited,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

// RecordUpstream counts one data-source call.
func RecordUpstream(upstream, outcome string, duration time.Duration) {
	upstreamRequests.WithLabelValues(upstream, outcome).Inc()
	if duration > 0 {
		upstreamDuration.WithLabelValues(upstream).Observe(duration.Seconds())
	}
}

// RecordAnalysis records the outcome of a parcel analysis. best is ignored on failure.
func RecordAnalysis(success bool, best int, duration time.Duration) {
	outcome := "error"
	if success {
		outcome = "ok"
		topScore.Set(float64(best))
	}
	analyses.WithLabelValues(outcome).Inc()
	if duration <= 0 {
		duration = time.Millisecond
	}
	analysisDuration.Observe(duration.Seconds())
}

func RecordAgent(agent string, success bool) {
	if agent == "" {
		agent = "unknown"
	}
	status := "FAIL"
	if success {
		status = "OK"
	}
	agentRuns.WithLabelValues(agent, status).Inc()
}

func RecordRateLimited(path string) {
	rateLimited.WithLabelValues(canonicalPath(path)).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// canonicalPath keeps label cardinality bounded: analysis ids collapse to ":id".
func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if len(parts) >= 3 && parts[0] == "api" && parts[1] == "analysis" {
		parts[2] = ":id"
		if len(parts) > 4 {
			parts = parts[:4]
		}
	}
	return "/" + strings.Join(parts, "/")
}
