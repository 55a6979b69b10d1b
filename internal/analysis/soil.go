package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/LeonardoBeccarini/farmai/internal/model/entities"
)

// DefaultSoilPH stands in for a soil summary without a pH range.
const DefaultSoilPH = 6.5

var (
	fallbackSoilNames = []string{
		"Hagerstown silt loam", "Cecil sandy loam", "Norfolk loamy sand",
		"Tifton loamy sand", "Houston Black clay", "Drummer silty clay loam",
		"Walla Walla silt loam", "Palouse silt loam", "San Joaquin loam",
	}
	fallbackDrainage = []string{"Well drained", "Moderately well drained", "Somewhat poorly drained"}
)

// FallbackSoil derives a plausible soil from the coordinates alone.
// The same point always yields the same soil.
func FallbackSoil(lat, lng float64) entities.Soil {
	seed := math.Mod(math.Abs(lat*1000+lng*100), 100)
	pick := func(xs []string, div float64) string {
		if i := int(math.Floor(seed / div)); i < len(xs) {
			return xs[i]
		}
		return xs[0]
	}
	return entities.Soil{
		Name:          pick(fallbackSoilNames, 11),
		PH:            5.8 + math.Mod(seed, 30)/10,
		Drainage:      pick(fallbackDrainage, 33),
		OrganicMatter: 1.5 + math.Mod(seed, 40)/10,
		AWC:           0.10 + math.Mod(seed, 15)/100,
		Sand:          25 + math.Mod(seed, 35),
		Silt:          25 + math.Mod(seed+20, 35),
		Clay:          10 + math.Mod(seed, 25),
	}
}

// SoilFromSummary expands a backend soil summary. Texture is not exposed by the
// summary, so agronomic midpoints are used. A missing pH range reads as 6.5.
func SoilFromSummary(s entities.SoilSummary) entities.Soil {
	ph := DefaultSoilPH
	switch len(s.PHRange) {
	case 0:
	case 1:
		ph = s.PHRange[0]
	default:
		ph = (s.PHRange[0] + s.PHRange[1]) / 2
	}
	return entities.Soil{
		Name:          s.MuName,
		PH:            round1(ph),
		OrganicMatter: s.OrganicMatterPct,
		Drainage:      s.Drainage,
		Sand:          40,
		Silt:          35,
		Clay:          25,
		AWC:           0.18,
		Description:   s.Taxonomy,
	}
}

// SummaryFromSoil builds the agent-facing summary with a ±0.5 pH band.
func SummaryFromSoil(s entities.Soil) entities.SoilSummary {
	return entities.SoilSummary{
		MuName:           s.Name,
		Taxonomy:         s.Description,
		Drainage:         s.Drainage,
		PHRange:          []float64{round1(s.PH - 0.5), round1(s.PH + 0.5)},
		OrganicMatterPct: s.OrganicMatter,
	}
}

// SoilHealthScore rates organic matter (30), pH distance from 6.5 (40) and drainage (30).
func SoilHealthScore(s entities.Soil) int {
	om := s.OrganicMatter / 5 * 30
	ph := math.Max(0, 1-math.Abs(s.PH-6.5)/2) * 40
	drainage := 20.0
	if s.Drainage == "Well drained" {
		drainage = 30
	}
	return roundInt(om + ph + drainage)
}

// SoilLabel is the short "<name>, pH <ph>" description used by point lookups.
func SoilLabel(s entities.Soil) string {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		name = "Unknown soil type"
	}
	return fmt.Sprintf("%s, pH %.1f", name, s.PH)
}

// EstimateElevation is a rough continental-US elevation (m) by longitude band.
func EstimateElevation(lat, lng float64) float64 {
	switch baseLng := math.Abs(lng); {
	case baseLng > 105:
		return 200 + math.Abs(lat-40)*20
	case baseLng > 95:
		return 800 + math.Abs(lat-38)*30
	case baseLng > 82:
		return 300 + math.Abs(lat-36)*15
	default:
		return 150 + math.Abs(lat-38)*10
	}
}
