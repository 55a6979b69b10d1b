package api

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/LeonardoBeccarini/farmai/internal/analysis"
	"github.com/LeonardoBeccarini/farmai/internal/metrics"
	"github.com/LeonardoBeccarini/farmai/internal/model/entities"
	"github.com/LeonardoBeccarini/farmai/internal/model/messages"
	"github.com/LeonardoBeccarini/farmai/internal/model/wire"
	"github.com/LeonardoBeccarini/farmai/internal/storage"
)

// errBadRequest carries a client-facing 400 detail.
type errBadRequest struct{ detail string }

func (e errBadRequest) Error() string { return e.detail }

// gathered is everything fetched from upstreams for one point.
type gathered struct {
	forecast   wire.Weather
	historical wire.Weather
	soil       entities.Soil
	alerts     []entities.Alert
	elevation  float64

	mu        sync.Mutex
	fallbacks []string
}

func (g *gathered) fellBack(source string) {
	g.mu.Lock()
	g.fallbacks = append(g.fallbacks, source)
	g.mu.Unlock()
}

// gather fetches every source concurrently. A failing source is replaced by its
// fallback so the analysis always completes.
func (s *Server) gather(ctx context.Context, lat, lng float64) *gathered {
	out := &gathered{}
	src := s.deps.Sources
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		w, err := src.Forecast(gctx, lat, lng)
		if err != nil {
			s.log.WithError(err).Warn("analyze: forecast unavailable")
			w = wire.Weather{Error: "Failed to fetch forecast"}
			out.fellBack("forecast")
		}
		out.forecast = w
		return nil
	})
	g.Go(func() error {
		w, err := src.Historical(gctx, lat, lng)
		if err != nil {
			s.log.WithError(err).Warn("analyze: historical weather unavailable")
			w = wire.Weather{Error: "Failed to fetch historical data"}
			out.fellBack("historical")
		}
		out.historical = w
		return nil
	})
	g.Go(func() error {
		soil, err := src.Soil(gctx, lat, lng)
		if err != nil {
			s.log.WithError(err).Warn("analyze: soil survey unavailable")
			soil = analysis.FallbackSoil(lat, lng)
			out.fellBack("soil")
		}
		out.soil = soil
		return nil
	})
	g.Go(func() error {
		alerts, err := src.Alerts(gctx, lat, lng)
		if err != nil {
			s.log.WithError(err).Debug("analyze: alerts unavailable")
			alerts = []entities.Alert{}
			out.fellBack("alerts")
		}
		out.alerts = alerts
		return nil
	})
	g.Go(func() error {
		e, err := src.Elevation(gctx, lat, lng)
		if err != nil {
			e = analysis.EstimateElevation(lat, lng)
			out.fellBack("elevation")
		}
		out.elevation = e
		return nil
	})
	_ = g.Wait()
	sort.Strings(out.fallbacks)
	return out
}

// climateFor derives the climate from the archive or falls back to the latitude model.
func (s *Server) climateFor(historical wire.Weather, lat float64) entities.Climate {
	if historical.Error == "" && historical.Daily != nil {
		c, err := analysis.ClimateFromDaily(historical.Daily, lat)
		if err == nil {
			return c
		}
		s.log.WithError(err).Warn("analyze: unusable historical series")
	}
	return analysis.FallbackClimate(lat)
}

// Analyze runs the full parcel analysis.
func (s *Server) Analyze(ctx context.Context, req wire.AnalyzeRequest) (wire.AnalyzeResponse, error) {
	start := s.now()
	resp, err := s.analyze(ctx, req, start)
	metrics.RecordAnalysis(err == nil, topScore(resp.CropScores), time.Since(start))
	return resp, err
}

func (s *Server) analyze(ctx context.Context, req wire.AnalyzeRequest, start time.Time) (wire.AnalyzeResponse, error) {
	ring, err := analysis.Ring(req.Coordinates)
	switch {
	case errors.Is(err, analysis.ErrTooFewPoints):
		return wire.AnalyzeResponse{}, errBadRequest{"Polygon must have at least 3 points"}
	case err != nil:
		return wire.AnalyzeResponse{}, errBadRequest{"Invalid polygon coordinates: " + err.Error()}
	}
	centroid, err := analysis.AreaCentroid(ring)
	if err != nil {
		return wire.AnalyzeResponse{}, errBadRequest{"Invalid polygon coordinates: " + err.Error()}
	}

	computed := analysis.RingAreaAcres(ring)
	acres := req.AreaAcres
	if acres <= 0 {
		acres = computed
	}

	src := s.gather(ctx, centroid.Lat, centroid.Lng)
	climate := s.climateFor(src.historical, centroid.Lat)
	scores := s.deps.Scorer.Score(src.soil, climate)
	scenarios := analysis.GenerateScenarios(scores, acres)
	health := analysis.SoilHealthScore(src.soil)
	elevation := src.elevation

	resp := wire.AnalyzeResponse{
		AnalysisID:        uuid.NewString(),
		Centroid:          centroid,
		AreaAcres:         acres,
		ComputedAreaAcres: computed,
		WeatherForecast:   src.forecast,
		WeatherHistorical: src.historical,
		SoilData:          analysis.SummaryFromSoil(src.soil),
		NWSAlerts:         src.alerts,
		Sentinel: wire.SentinelData{
			MeanNDVI:     math.Round(analysis.SyntheticNDVI(centroid.Lat, centroid.Lng, start.Month())*100) / 100,
			CloudCover:   "modelled",
			DateAcquired: start.UTC().Format(time.RFC3339),
		},
		CropMatrix:          cropMatrix(scores),
		EconomicProjections: projections(scenarios),
		CropScores:          scores,
		EconomicScenarios:   scenarios,
		SoilHealthScore:     &health,
		Elevation:           &elevation,
	}

	s.record(ctx, resp, src, climate, start)
	return resp, nil
}

// record persists the analysis and announces it. Neither failure fails the request.
func (s *Server) record(ctx context.Context, resp wire.AnalyzeResponse, src *gathered, climate entities.Climate, start time.Time) {
	var topCrop string
	if len(resp.CropScores) > 0 {
		topCrop = resp.CropScores[0].Name
	}
	log := s.log.WithField("analysis_id", resp.AnalysisID)

	if s.deps.Store != nil {
		rec := storage.Record{
			Summary: storage.Summary{
				ID:        resp.AnalysisID,
				CreatedAt: start,
				Lat:       resp.Centroid.Lat,
				Lng:       resp.Centroid.Lng,
				AreaAcres: resp.AreaAcres,
				SoilName:  src.soil.Name,
				TopCrop:   topCrop,
				TopScore:  topScore(resp.CropScores),
			},
			Response: resp,
		}
		if err := s.deps.Store.Save(ctx, rec); err != nil {
			log.WithError(err).Error("analyze: persist failed")
		}
	}

	evt := messages.AnalysisCompletedEvent{
		AnalysisID:    resp.AnalysisID,
		Lat:           resp.Centroid.Lat,
		Lng:           resp.Centroid.Lng,
		AreaAcres:     resp.AreaAcres,
		SoilName:      src.soil.Name,
		HardinessZone: climate.HardinessZone,
		TopCrop:       topCrop,
		TopScore:      topScore(resp.CropScores),
		Fallbacks:     src.fallbacks,
		DurationMs:    s.now().Sub(start).Milliseconds(),
		Timestamp:     s.now().UTC(),
	}
	if resp.SoilHealthScore != nil {
		evt.SoilHealth = *resp.SoilHealthScore
	}
	s.publish(messages.TopicAnalysisCompleted+resp.AnalysisID, evt)

	log.WithFields(map[string]interface{}{
		"acres":     resp.AreaAcres,
		"top_crop":  topCrop,
		"fallbacks": len(src.fallbacks),
	}).Info("analyze: done")
}

func (s *Server) publish(topic string, evt any) {
	if s.deps.Events == nil {
		return
	}
	if err := s.deps.Events.Publish(topic, evt); err != nil {
		s.log.WithError(err).WithField("topic", topic).Warn("api: event not published")
	}
}

func topScore(scores []entities.CropScore) int {
	if len(scores) == 0 {
		return 0
	}
	return scores[0].Score
}

func cropMatrix(scores []entities.CropScore) []wire.CropEntry {
	out := make([]wire.CropEntry, 0, len(scores))
	for _, c := range scores {
		out = append(out, wire.CropEntry{
			Crop:                         c.Name,
			SuitabilityScore:             float64(c.Score),
			EstimatedYieldRevenuePerAcre: float64(c.ProjectedRevenue),
		})
	}
	return out
}

// projections summarises the scenarios in the three-key shape older clients read.
func projections(scenarios []entities.EconomicScenario) wire.EconomicProjections {
	var p wire.EconomicProjections
	for _, sc := range scenarios {
		proj := wire.Projection{Description: sc.Description, EstimatedRevenue: float64(sc.TotalRevenue)}
		switch sc.Name {
		case analysis.ScenarioMaxYield:
			p.MaxYield = proj
		case analysis.ScenarioLowMaintenance:
			p.LowMaintenance = proj
		case analysis.ScenarioPestResistant:
			p.PestResistant = proj
		}
	}
	return p
}
