package analysis

import (
	"math"
	"time"
)

// SyntheticNDVI estimates vegetation vigour from position and season, in [0.1, 0.95].
func SyntheticNDVI(lat, lng float64, month time.Month) float64 {
	m := float64(int(month) - 1)
	seasonal := math.Sin((m-2)*math.Pi/6) * 0.15

	latBoost := -0.05
	switch a := math.Abs(lat); {
	case a < 35:
		latBoost = 0.1
	case a < 45:
		latBoost = 0
	}

	base := 0.55 + math.Sin(lat*10)*math.Cos(lng*10)*0.15
	return math.Max(0.1, math.Min(0.95, base+seasonal+latBoost))
}

// NDVILabel buckets an NDVI value.
func NDVILabel(v float64) string {
	switch {
	case v >= 0.7:
		return "Healthy vegetation"
	case v >= 0.5:
		return "Moderate vegetation"
	case v >= 0.3:
		return "Sparse vegetation"
	default:
		return "Bare/stressed"
	}
}
