package entities

// ScenarioCrop is the share of a scenario assigned to one crop.
type ScenarioCrop struct {
	Name    string  `json:"name"`
	Revenue int     `json:"revenue"`
	Acres   float64 `json:"acres"`
}

// EconomicScenario is a named planting plan with its financial projection.
type EconomicScenario struct {
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	TotalRevenue    int            `json:"totalRevenue"`
	LaborReduction  int            `json:"laborReduction"` // percent
	Crops           []ScenarioCrop `json:"crops"`
	BreakEvenMonths int            `json:"breakEvenMonths"`
	ROI             int            `json:"roi"` // percent
}
