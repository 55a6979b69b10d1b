package entities

// Analysis is the view model of one completed property analysis.
// It is replaced wholesale on every new analysis.
type Analysis struct {
	ID            string             `json:"id"`
	Soil          *Soil              `json:"soilData"`
	Climate       *Climate           `json:"climateData"`
	CropMatrix    []CropScore        `json:"cropMatrix"`
	Economics     []EconomicScenario `json:"economics"`
	NDVI          *float64           `json:"ndviValue"`
	Elevation     *float64           `json:"elevation"`
	WeatherAlerts []string           `json:"weatherAlerts"`
	DroughtStatus *string            `json:"droughtStatus"`
}

// Alert is an active weather alert for the parcel's forecast zone.
type Alert struct {
	Event       string `json:"event"`
	Severity    string `json:"severity"`
	Headline    string `json:"headline,omitempty"`
	Description string `json:"description"`
}
