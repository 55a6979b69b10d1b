package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LeonardoBeccarini/farmai/internal/model/entities"
)

func TestFallbackSoilIsDeterministic(t *testing.T) {
	s := FallbackSoil(0, 0)
	assert.Equal(t, "Hagerstown silt loam", s.Name)
	assert.Equal(t, "Well drained", s.Drainage)
	assert.InDelta(t, 5.8, s.PH, 1e-9)
	assert.InDelta(t, 1.5, s.OrganicMatter, 1e-9)
	assert.InDelta(t, 0.10, s.AWC, 1e-9)
	assert.InDelta(t, 25, s.Sand, 1e-9)
	assert.InDelta(t, 45, s.Silt, 1e-9)
	assert.InDelta(t, 10, s.Clay, 1e-9)

	assert.Equal(t, FallbackSoil(39.1, -77.2), FallbackSoil(39.1, -77.2))
}

func TestFallbackSoilHighSeed(t *testing.T) {
	// seed 99.5 indexes past both tables and falls back to the first entry
	s := FallbackSoil(0.0995, 0)
	assert.Equal(t, "Hagerstown silt loam", s.Name)
	assert.Equal(t, "Well drained", s.Drainage)

	s = FallbackSoil(0.050, 0)
	assert.Equal(t, "Houston Black clay", s.Name)
	assert.Equal(t, "Moderately well drained", s.Drainage)
}

func TestSoilHealthScore(t *testing.T) {
	assert.Equal(t, 100, SoilHealthScore(entities.Soil{OrganicMatter: 5, PH: 6.5, Drainage: "Well drained"}))
	assert.Equal(t, 20, SoilHealthScore(entities.Soil{OrganicMatter: 0, PH: 9, Drainage: "Poorly drained"}))
	assert.Equal(t, 59, SoilHealthScore(entities.Soil{OrganicMatter: 1.5, PH: 5.5, Drainage: "Well drained"}))
}

func TestSoilSummaryRoundTrip(t *testing.T) {
	s := SoilFromSummary(entities.SoilSummary{
		MuName: "Cecil sandy loam", Taxonomy: "Typic Kanhapludults", Drainage: "Well drained",
		PHRange: []float64{5.5, 6.5}, OrganicMatterPct: 1.2,
	})
	assert.Equal(t, 6.0, s.PH)
	assert.Equal(t, 40.0, s.Sand)
	assert.Equal(t, 35.0, s.Silt)
	assert.Equal(t, 25.0, s.Clay)
	assert.Equal(t, 0.18, s.AWC)
	assert.Equal(t, "Typic Kanhapludults", s.Description)

	sum := SummaryFromSoil(s)
	assert.Equal(t, []float64{5.5, 6.5}, sum.PHRange)
	assert.Equal(t, "Cecil sandy loam", sum.MuName)
	assert.Equal(t, "Cecil sandy loam, pH 6.0", SoilLabel(s))
}

func TestSoilSummaryWithoutPHRange(t *testing.T) {
	s := SoilFromSummary(entities.SoilSummary{MuName: "Unknown"})
	assert.Equal(t, 6.5, s.PH)
	assert.Equal(t, 6.5, SoilFromSummary(entities.SoilSummary{PHRange: []float64{}}).PH)
	assert.Equal(t, 5.2, SoilFromSummary(entities.SoilSummary{PHRange: []float64{5.2}}).PH)
}

func TestEstimateElevation(t *testing.T) {
	assert.InDelta(t, 200, EstimateElevation(40, -120), 1e-9)
	assert.InDelta(t, 800, EstimateElevation(38, -100), 1e-9)
	assert.InDelta(t, 300, EstimateElevation(36, -90), 1e-9)
	assert.InDelta(t, 160, EstimateElevation(39, -77), 1e-9)
}
