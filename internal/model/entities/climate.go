package entities

// MonthlyClimate holds the long-term averages of one calendar month.
type MonthlyClimate struct {
	Month  string  `json:"month"`
	Min    float64 `json:"min"`    // °C
	Max    float64 `json:"max"`    // °C
	Precip float64 `json:"precip"` // mm
	ET0    float64 `json:"et0,omitempty"`
}

// Climate is the site climate summary derived from historical daily series.
type Climate struct {
	MonthlyTemps  []MonthlyClimate `json:"monthlyTemps"`
	AvgAnnualTemp float64          `json:"avgAnnualTemp"`
	AnnualPrecip  float64          `json:"annualPrecip"`
	GrowingDays   int              `json:"growingDays"`
	HardinessZone string           `json:"hardinessZone"`
	LastFrost     string           `json:"lastFrost"`
	FirstFrost    string           `json:"firstFrost"`
}
