// Package wire holds the JSON payloads exchanged between the farmai API and its clients.
// Field names follow the snake_case surface the web client already speaks.
package wire

import (
	"encoding/json"
	"time"

	"github.com/LeonardoBeccarini/farmai/internal/model/entities"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

type PointRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type PointInfoResponse struct {
	Lat       float64  `json:"lat"`
	Lng       float64  `json:"lng"`
	Elevation *float64 `json:"elevation"`
	SoilType  string   `json:"soil_type"`
	NDVI      float64  `json:"ndvi"`
}

// AnalyzeRequest carries the parcel ring as [lng, lat] pairs.
type AnalyzeRequest struct {
	Coordinates [][]float64 `json:"coordinates"`
	AreaAcres   float64     `json:"area_acres"`
}

// DailySeries is the Open-Meteo daily block. Missing samples decode as nil.
type DailySeries struct {
	Time             []string   `json:"time"`
	TemperatureMax   []*float64 `json:"temperature_2m_max"`
	TemperatureMin   []*float64 `json:"temperature_2m_min"`
	PrecipitationSum []*float64 `json:"precipitation_sum"`
}

// Weather is either a daily series or an upstream error marker.
type Weather struct {
	Latitude  float64      `json:"latitude,omitempty"`
	Longitude float64      `json:"longitude,omitempty"`
	Timezone  string       `json:"timezone,omitempty"`
	Daily     *DailySeries `json:"daily,omitempty"`
	Error     string       `json:"error,omitempty"`
}

type SentinelData struct {
	MeanNDVI     float64 `json:"mean_ndvi"`
	CloudCover   string  `json:"cloud_cover"`
	DateAcquired string  `json:"date_acquired"`
}

type CropEntry struct {
	Crop                         string  `json:"crop"`
	SuitabilityScore             float64 `json:"suitability_score"`
	EstimatedYieldRevenuePerAcre float64 `json:"estimated_yield_revenue_per_acre"`
}

type Projection struct {
	Description      string  `json:"description"`
	EstimatedRevenue float64 `json:"estimated_revenue"`
}

type EconomicProjections struct {
	MaxYield       Projection `json:"max_yield"`
	LowMaintenance Projection `json:"low_maintenance"`
	PestResistant  Projection `json:"pest_resistant"`
}

// AnalyzeResponse is the full result of POST /api/analyze.
// CropScores and EconomicScenarios carry the complete scorer output; older
// backends omit them and clients fall back to the summary fields.
type AnalyzeResponse struct {
	AnalysisID          string                      `json:"analysis_id,omitempty"`
	Centroid            entities.Coordinates        `json:"centroid"`
	AreaAcres           float64                     `json:"area_acres"`
	ComputedAreaAcres   float64                     `json:"computed_area_acres,omitempty"`
	WeatherForecast     Weather                     `json:"weather_forecast"`
	WeatherHistorical   Weather                     `json:"weather_historical"`
	SoilData            entities.SoilSummary        `json:"soil_data"`
	NWSAlerts           []entities.Alert            `json:"nws_alerts"`
	Sentinel            SentinelData                `json:"sentinel_satellite_data"`
	CropMatrix          []CropEntry                 `json:"crop_matrix"`
	EconomicProjections EconomicProjections         `json:"economic_projections"`
	CropScores          []entities.CropScore        `json:"crop_scores,omitempty"`
	EconomicScenarios   []entities.EconomicScenario `json:"economic_scenarios,omitempty"`
	SoilHealthScore     *int                        `json:"soil_health_score,omitempty"`
	Elevation           *float64                    `json:"elevation,omitempty"`
}

// AnalysisSummary is one row of GET /api/analyses.
type AnalysisSummary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	AreaAcres float64   `json:"area_acres"`
	SoilName  string    `json:"soil_name"`
	TopCrop   string    `json:"top_crop"`
	TopScore  int       `json:"top_score"`
}

type RemediationRequest struct {
	SoilData  entities.SoilSummary `json:"soil_data"`
	AreaAcres float64              `json:"area_acres"`
}

type ProcurementRequest struct {
	AmendmentPlan entities.AmendmentPlan `json:"amendment_plan"`
	AreaAcres     float64                `json:"area_acres"`
}

type FinanceRequest struct {
	TotalCost float64              `json:"total_cost"`
	SoilData  entities.SoilSummary `json:"soil_data"`
}

type ChatRequest struct {
	Message string                 `json:"message"`
	History []entities.ChatMessage `json:"history"`
	Context json.RawMessage        `json:"context,omitempty"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

type RecommendationRequest = PointRequest

// Geometry is a GeoJSON polygon.
type Geometry struct {
	Type        string         `json:"type"`
	Coordinates [][][2]float64 `json:"coordinates"`
}

type ParcelProperties struct {
	Name           string  `json:"name"`
	ProjectedYield int     `json:"projected_yield"`
	SoilMatchScore int     `json:"soil_match_score"`
	Acreage        float64 `json:"acreage"`
	DistanceMiles  float64 `json:"distance_miles"`
}

type Feature struct {
	Type       string           `json:"type"`
	Geometry   Geometry         `json:"geometry"`
	Properties ParcelProperties `json:"properties"`
}

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// DailyTask is one block of the daily farm plan.
type DailyTask struct {
	TimeBlock    string `json:"time_block"`
	TimeRange    string `json:"time_range"`
	Title        string `json:"title"`
	Detail       string `json:"detail"`
	Priority     string `json:"priority"`
	Reasoning    string `json:"reasoning"`
	CorrelatesTo string `json:"correlates_to"`
}

type DailyPlan struct {
	Date   string      `json:"date"`
	Season string      `json:"season"`
	Zone   string      `json:"zone"`
	PHNote string      `json:"ph_note"`
	Tasks  []DailyTask `json:"tasks"`
}
