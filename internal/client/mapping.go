package client

import (
	"fmt"
	"math"
	"sort"

	"github.com/LeonardoBeccarini/farmai/internal/analysis"
	"github.com/LeonardoBeccarini/farmai/internal/model/entities"
	"github.com/LeonardoBeccarini/farmai/internal/model/wire"
)

// round is half-up, as the web client rounds.
func round(x float64) float64 { return math.Floor(x + 0.5) }

// MapBackendToAnalysis turns an /api/analyze answer into the analysis view model.
// Full crop_scores and economic_scenarios are used as-is when present; the
// summary fields are mapped otherwise.
func MapBackendToAnalysis(resp wire.AnalyzeResponse, acreage float64, id string) entities.Analysis {
	a := entities.Analysis{
		ID:            id,
		Soil:          mapSoil(resp.SoilData),
		Climate:       mapClimate(resp.WeatherHistorical),
		Elevation:     resp.Elevation,
		WeatherAlerts: make([]string, 0, len(resp.NWSAlerts)),
	}
	ndvi := resp.Sentinel.MeanNDVI
	a.NDVI = &ndvi

	if len(resp.CropScores) > 0 {
		a.CropMatrix = resp.CropScores
	} else {
		a.CropMatrix = mapCropMatrix(resp.CropMatrix, acreage)
	}
	if len(resp.EconomicScenarios) > 0 {
		a.Economics = resp.EconomicScenarios
	} else {
		a.Economics = mapEconomics(resp.EconomicProjections, resp.CropMatrix, acreage)
	}
	for _, al := range resp.NWSAlerts {
		a.WeatherAlerts = append(a.WeatherAlerts, fmt.Sprintf("%s (%s): %s", al.Event, al.Severity, al.Description))
	}
	return a
}

func mapSoil(raw entities.SoilSummary) *entities.Soil {
	ph := analysis.DefaultSoilPH
	switch len(raw.PHRange) {
	case 0:
	case 1:
		ph = raw.PHRange[0]
	default:
		ph = (raw.PHRange[0] + raw.PHRange[1]) / 2
	}
	return &entities.Soil{
		Name:          raw.MuName,
		PH:            round(ph*10) / 10,
		OrganicMatter: raw.OrganicMatterPct,
		Drainage:      raw.Drainage,
		// texture fractions are not part of the backend soil summary
		Sand:        40,
		Silt:        35,
		Clay:        25,
		AWC:         0.18,
		Description: raw.Taxonomy,
	}
}

// mapClimate returns nil when the archive fetch failed upstream.
func mapClimate(historical wire.Weather) *entities.Climate {
	if historical.Error != "" || historical.Daily == nil {
		return nil
	}
	c, err := analysis.ClimateFromDaily(historical.Daily, math.NaN())
	if err != nil {
		return nil
	}
	return &c
}

func sortedEntries(crops []wire.CropEntry) []wire.CropEntry {
	out := append([]wire.CropEntry(nil), crops...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SuitabilityScore > out[j].SuitabilityScore })
	return out
}

func mapCropMatrix(crops []wire.CropEntry, acreage float64) []entities.CropScore {
	sorted := sortedEntries(crops)
	out := make([]entities.CropScore, 0, len(sorted))
	for _, c := range sorted {
		score := c.SuitabilityScore
		revenue := round(c.EstimatedYieldRevenuePerAcre * acreage)

		need := "Moderate"
		switch {
		case score >= 80:
			need = "Low"
		case score < 50:
			need = "High"
		}
		reason := "Moderate suitability, consider soil amendments"
		switch {
		case score >= 80:
			reason = "Excellent soil and climate match"
		case score >= 60:
			reason = "Good compatibility with local conditions"
		}

		out = append(out, entities.CropScore{
			Name:             c.Crop,
			Score:            int(round(score)),
			SoilMatch:        int(round(score * 0.95)),
			ClimateMatch:     int(round(score * 0.90)),
			WaterNeed:        need,
			LaborNeed:        need,
			ProjectedYield:   int(round(revenue / 0.25)),
			ProjectedRevenue: int(revenue),
			Reason:           reason,
			CompanionPlants:  []string{},
			PestRisks:        []string{},
			RotationTips:     []string{},
		})
	}
	return out
}

type scenarioTable struct {
	name            string
	roi             int
	breakEvenMonths int
	laborReduction  int
	pick            func(wire.EconomicProjections) wire.Projection
}

var summaryScenarios = []scenarioTable{
	{analysis.ScenarioMaxYield, 22, 18, 0, func(p wire.EconomicProjections) wire.Projection { return p.MaxYield }},
	{analysis.ScenarioLowMaintenance, 14, 24, 20, func(p wire.EconomicProjections) wire.Projection { return p.LowMaintenance }},
	{analysis.ScenarioPestResistant, 18, 20, 10, func(p wire.EconomicProjections) wire.Projection { return p.PestResistant }},
}

// mapEconomics spreads each summary revenue over the top four crops by score.
func mapEconomics(econ wire.EconomicProjections, crops []wire.CropEntry, acreage float64) []entities.EconomicScenario {
	top := sortedEntries(crops)
	if len(top) > 4 {
		top = top[:4]
	}
	var totalScore float64
	for _, c := range top {
		totalScore += c.SuitabilityScore
	}
	if totalScore == 0 {
		totalScore = 1
	}

	out := make([]entities.EconomicScenario, 0, len(summaryScenarios))
	for _, s := range summaryScenarios {
		proj := s.pick(econ)
		total := round(proj.EstimatedRevenue)
		sc := entities.EconomicScenario{
			Name:            s.name,
			Description:     proj.Description,
			TotalRevenue:    int(total),
			LaborReduction:  s.laborReduction,
			BreakEvenMonths: s.breakEvenMonths,
			ROI:             s.roi,
			Crops:           make([]entities.ScenarioCrop, 0, len(top)),
		}
		for _, c := range top {
			share := c.SuitabilityScore / totalScore
			sc.Crops = append(sc.Crops, entities.ScenarioCrop{
				Name:    c.Crop,
				Revenue: int(round(total * share)),
				Acres:   round(share*acreage*10) / 10,
			})
		}
		out = append(out, sc)
	}
	return out
}
