// Package api serves the farmai HTTP API: parcel analysis, point lookups,
// the remediation agents, the agronomist chat and parcel recommendations.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/LeonardoBeccarini/farmai/internal/analysis"
	"github.com/LeonardoBeccarini/farmai/internal/metrics"
	"github.com/LeonardoBeccarini/farmai/internal/model/entities"
	"github.com/LeonardoBeccarini/farmai/internal/model/wire"
	"github.com/LeonardoBeccarini/farmai/internal/recommend"
	"github.com/LeonardoBeccarini/farmai/internal/storage"
)

// ===== Dependencies =====

// DataSources is the set of upstream lookups an analysis needs.
type DataSources interface {
	Soil(ctx context.Context, lat, lng float64) (entities.Soil, error)
	Forecast(ctx context.Context, lat, lng float64) (wire.Weather, error)
	Historical(ctx context.Context, lat, lng float64) (wire.Weather, error)
	Elevation(ctx context.Context, lat, lng float64) (float64, error)
	Alerts(ctx context.Context, lat, lng float64) ([]entities.Alert, error)
	Geocode(ctx context.Context, q string) ([]entities.AddressResult, error)
}

type AnalysisStore interface {
	Save(ctx context.Context, r storage.Record) error
	Get(ctx context.Context, id string) (storage.Record, error)
	List(ctx context.Context, limit int) ([]storage.Summary, error)
	Ping(ctx context.Context) error
}

type AgentRunner interface {
	Remediation(ctx context.Context, soil entities.SoilSummary, acres float64) (entities.RemediationResult, error)
	Procurement(ctx context.Context, plan entities.AmendmentPlan, acres float64) (entities.ProcurementResult, error)
	Finance(ctx context.Context, totalCost float64, soil entities.SoilSummary) (entities.FinanceResult, error)
}

type ChatResponder interface {
	Reply(ctx context.Context, message string, history []entities.ChatMessage, analysis json.RawMessage) (string, error)
}

// EventPublisher emits domain events; a nil publisher disables them.
type EventPublisher interface {
	Publish(topic string, message any) error
	Connected() bool
}

type Deps struct {
	Sources   DataSources
	Scorer    *analysis.Scorer
	Store     AnalysisStore
	Agents    AgentRunner
	Chat      ChatResponder
	Recommend *recommend.Recommender
	Events    EventPublisher
	// Breakers reports upstream breaker states for /healthz; optional.
	Breakers func() map[string]string
}

type Options struct {
	RequestTimeout time.Duration
	// LLMRate and LLMBurst bound agent and chat calls per client.
	LLMRate  float64
	LLMBurst int
}

// ===== Server =====

type Server struct {
	deps    Deps
	opts    Options
	limiter *RateLimiter
	log     *logrus.Entry
	now     func() time.Time
}

func NewServer(deps Deps, opts Options) *Server {
	if deps.Scorer == nil {
		deps.Scorer = analysis.NewScorer(nil)
	}
	if deps.Recommend == nil {
		deps.Recommend = recommend.New(nil)
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.LLMRate <= 0 {
		opts.LLMRate = 1
	}
	if opts.LLMBurst <= 0 {
		opts.LLMBurst = 5
	}
	log := logrus.WithField("svc", "api")
	return &Server{
		deps:    deps,
		opts:    opts,
		limiter: NewRateLimiter(opts.LLMRate, opts.LLMBurst, log),
		log:     log,
		now:     time.Now,
	}
}

func (s *Server) Limiter() *RateLimiter { return s.limiter }

// Router builds the chi handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.InstrumentHandler)
	r.Use(CORS)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.opts.RequestTimeout))
			r.Post("/point-info", s.handlePointInfo)
			r.Post("/analyze", s.handleAnalyze)
			r.Get("/analyses", s.handleListAnalyses)
			r.Get("/analysis/{id}", s.handleGetAnalysis)
			r.Get("/analysis/{id}/daily-plan", s.handleDailyPlan)
			r.Post("/recommendations", s.handleRecommendations)
			r.Get("/geocode", s.handleGeocode)
		})
		r.Group(func(r chi.Router) {
			r.Use(s.limiter.Handler)
			r.Post("/agent/remediation", s.handleRemediation)
			r.Post("/agent/procurement", s.handleProcurement)
			r.Post("/agent/finance", s.handleFinance)
			r.Post("/chat", s.handleChat)
		})
	})
	return r
}

// ===== JSON helpers =====

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, wire.ErrorResponse{Detail: detail})
}

// decodeJSON answers 422 and returns false when the body is not valid JSON for v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<20))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid request body: "+err.Error())
		return false
	}
	return true
}
