package entities

// Soil describes the dominant map unit under a parcel.
type Soil struct {
	Name          string  `json:"name"`
	PH            float64 `json:"ph"`
	OrganicMatter float64 `json:"organicMatter"` // percent
	Drainage      string  `json:"drainage"`
	Sand          float64 `json:"sand"` // percent
	Silt          float64 `json:"silt"` // percent
	Clay          float64 `json:"clay"` // percent
	AWC           float64 `json:"awc"`  // available water capacity, cm/cm
	Description   string  `json:"description,omitempty"`
}

// SoilSummary is the soil shape exchanged with the backend and the agents.
type SoilSummary struct {
	MuName           string    `json:"mu_name"`
	Taxonomy         string    `json:"taxonomy,omitempty"`
	Drainage         string    `json:"drainage"`
	PHRange          []float64 `json:"ph_range"`
	OrganicMatterPct float64   `json:"organic_matter_pct"`
}
