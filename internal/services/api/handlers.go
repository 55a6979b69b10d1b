package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/LeonardoBeccarini/farmai/internal/analysis"
	"github.com/LeonardoBeccarini/farmai/internal/metrics"
	"github.com/LeonardoBeccarini/farmai/internal/model/entities"
	"github.com/LeonardoBeccarini/farmai/internal/model/messages"
	"github.com/LeonardoBeccarini/farmai/internal/model/wire"
	"github.com/LeonardoBeccarini/farmai/internal/sources"
	"github.com/LeonardoBeccarini/farmai/internal/storage"
)

// ===== Point & parcel =====

func (s *Server) handlePointInfo(w http.ResponseWriter, r *http.Request) {
	var req wire.PointRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx := r.Context()

	elevation, err := s.deps.Sources.Elevation(ctx, req.Lat, req.Lng)
	if err != nil {
		elevation = analysis.EstimateElevation(req.Lat, req.Lng)
	}
	soil, err := s.deps.Sources.Soil(ctx, req.Lat, req.Lng)
	if err != nil {
		s.log.WithError(err).Debug("point-info: soil fallback")
		soil = analysis.FallbackSoil(req.Lat, req.Lng)
	}
	ndvi := analysis.SyntheticNDVI(req.Lat, req.Lng, s.now().Month())

	writeJSON(w, http.StatusOK, wire.PointInfoResponse{
		Lat:       req.Lat,
		Lng:       req.Lng,
		Elevation: &elevation,
		SoilType:  fmt.Sprintf("%s, pH %.1f", soil.Name, soil.PH),
		NDVI:      math.Round(ndvi*100) / 100,
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req wire.AnalyzeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.Analyze(r.Context(), req)
	if err != nil {
		var bad errBadRequest
		if errors.As(err, &bad) {
			writeError(w, http.StatusBadRequest, bad.detail)
			return
		}
		s.log.WithError(err).Error("analyze: failed")
		writeError(w, http.StatusInternalServerError, "Analysis failed")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ===== History =====

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		writeJSON(w, http.StatusOK, []storage.Summary{})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := s.deps.Store.List(r.Context(), limit)
	if err != nil {
		s.log.WithError(err).Error("history: list failed")
		writeError(w, http.StatusInternalServerError, "History unavailable")
		return
	}
	if list == nil {
		list = []storage.Summary{}
	}
	writeJSON(w, http.StatusOK, list)
}

// loadRecord answers 404/500 itself and returns false when the record is unavailable.
func (s *Server) loadRecord(w http.ResponseWriter, r *http.Request) (storage.Record, bool) {
	id := chi.URLParam(r, "id")
	if s.deps.Store == nil {
		writeError(w, http.StatusNotFound, "Analysis not found")
		return storage.Record{}, false
	}
	rec, err := s.deps.Store.Get(r.Context(), id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "Analysis not found")
		return storage.Record{}, false
	case err != nil:
		s.log.WithError(err).WithField("analysis_id", id).Error("history: get failed")
		writeError(w, http.StatusInternalServerError, "History unavailable")
		return storage.Record{}, false
	}
	return rec, true
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadRecord(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec.Response)
}

func (s *Server) handleDailyPlan(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadRecord(w, r)
	if !ok {
		return
	}
	day := s.now()
	if q := r.URL.Query().Get("date"); q != "" {
		d, err := time.Parse("2006-01-02", q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		day = d
	}

	resp := rec.Response
	soil := analysis.SoilFromSummary(resp.SoilData)
	climate := s.climateFor(resp.WeatherHistorical, resp.Centroid.Lat)
	a := entities.Analysis{
		ID:         resp.AnalysisID,
		Soil:       &soil,
		Climate:    &climate,
		CropMatrix: resp.CropScores,
		Economics:  resp.EconomicScenarios,
		Elevation:  resp.Elevation,
	}
	writeJSON(w, http.StatusOK, analysis.DailyPlan(a, day))
}

// ===== Recommendations & geocoding =====

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	var req wire.RecommendationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Recommend.Near(req.Lat, req.Lng))
}

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(q) < sources.MinQueryLen {
		writeJSON(w, http.StatusOK, []entities.AddressResult{})
		return
	}
	results, err := s.deps.Sources.Geocode(r.Context(), q)
	if err != nil {
		s.log.WithError(err).Warn("geocode: search failed")
		results = nil
	}
	if results == nil {
		results = []entities.AddressResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

// ===== Agents =====

// agentDone records metrics and the step event for one agent call.
func (s *Server) agentDone(agent string, start time.Time, totalCost float64, err error) {
	metrics.RecordAgent(agent, err == nil)
	evt := messages.AgentStepEvent{
		Agent:      agent,
		Status:     "OK",
		TotalCost:  totalCost,
		DurationMs: s.now().Sub(start).Milliseconds(),
		Timestamp:  s.now().UTC(),
	}
	if err != nil {
		evt.Status = "FAIL"
		evt.Error = err.Error()
		s.log.WithError(err).WithField("agent", agent).Error("agent: failed")
	}
	s.publish(messages.TopicAgentStep+agent, evt)
}

func (s *Server) handleRemediation(w http.ResponseWriter, r *http.Request) {
	var req wire.RemediationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	start := s.now()
	res, err := s.deps.Agents.Remediation(r.Context(), req.SoilData, req.AreaAcres)
	s.agentDone("remediation", start, 0, err)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Agent error: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleProcurement(w http.ResponseWriter, r *http.Request) {
	var req wire.ProcurementRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	start := s.now()
	res, err := s.deps.Agents.Procurement(r.Context(), req.AmendmentPlan, req.AreaAcres)
	s.agentDone("procurement", start, res.TotalCost, err)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Agent error: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleFinance(w http.ResponseWriter, r *http.Request) {
	var req wire.FinanceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	start := s.now()
	res, err := s.deps.Agents.Finance(r.Context(), req.TotalCost, req.SoilData)
	s.agentDone("finance", start, req.TotalCost, err)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Agent error: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ===== Chat =====

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req wire.ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	start := s.now()
	reply, err := s.deps.Chat.Reply(r.Context(), req.Message, req.History, req.Context)
	s.agentDone("chat", start, 0, err)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Chat error: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, wire.ChatResponse{Reply: reply})
}
