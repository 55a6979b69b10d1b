package messages

import "time"

// AnalysisCompletedEvent is published by the api service after every successful analysis.
type AnalysisCompletedEvent struct {
	AnalysisID    string    `json:"analysis_id"`
	Lat           float64   `json:"lat"`
	Lng           float64   `json:"lng"`
	AreaAcres     float64   `json:"area_acres"`
	SoilName      string    `json:"soil_name"`
	HardinessZone string    `json:"hardiness_zone"`
	TopCrop       string    `json:"top_crop"`
	TopScore      int       `json:"top_score"`
	SoilHealth    int       `json:"soil_health"`
	Fallbacks     []string  `json:"fallbacks,omitempty"` // sources served from synthetic data
	DurationMs    int64     `json:"duration_ms"`
	Timestamp     time.Time `json:"timestamp"`
}
