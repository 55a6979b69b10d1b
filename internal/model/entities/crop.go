package entities

// CropProfile is one row of the crop reference table.
type CropProfile struct {
	Name              string   `json:"name" yaml:"name"`
	Category          string   `json:"category" yaml:"category"`
	PHMin             float64  `json:"phMin" yaml:"phMin"`
	PHMax             float64  `json:"phMax" yaml:"phMax"`
	DrainagePreferred string   `json:"drainagePreferred" yaml:"drainagePreferred"`
	OrganicMatterMin  float64  `json:"organicMatterMin" yaml:"organicMatterMin"`
	ZoneMin           string   `json:"zoneMin" yaml:"zoneMin"`
	ZoneMax           string   `json:"zoneMax" yaml:"zoneMax"`
	GrowingDaysMin    int      `json:"growingDaysMin" yaml:"growingDaysMin"`
	FrostSensitive    bool     `json:"frostSensitive" yaml:"frostSensitive"`
	WaterNeed         string   `json:"waterNeed" yaml:"waterNeed"`
	LaborNeed         string   `json:"laborNeed" yaml:"laborNeed"`
	YieldPerAcre      float64  `json:"yieldPerAcre" yaml:"yieldPerAcre"` // lbs
	PricePerLb        float64  `json:"pricePerLb" yaml:"pricePerLb"`     // USD
	CompanionPlants   []string `json:"companionPlants" yaml:"companionPlants"`
	PestRisks         []string `json:"pestRisks" yaml:"pestRisks"`
	RotationTips      []string `json:"rotationTips" yaml:"rotationTips"`
}

// CropScore is the suitability of one crop for a site.
type CropScore struct {
	Name             string   `json:"name"`
	Score            int      `json:"score"`        // 0..100
	SoilMatch        int      `json:"soilMatch"`    // percent
	ClimateMatch     int      `json:"climateMatch"` // percent
	WaterNeed        string   `json:"waterNeed"`
	LaborNeed        string   `json:"laborNeed"`
	ProjectedYield   int      `json:"projectedYield"`   // lbs per acre
	ProjectedRevenue int      `json:"projectedRevenue"` // USD per acre
	Reason           string   `json:"reason"`
	CompanionPlants  []string `json:"companionPlants"`
	PestRisks        []string `json:"pestRisks"`
	RotationTips     []string `json:"rotationTips"`
}
