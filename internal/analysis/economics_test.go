package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/farmai/internal/model/entities"
)

func rankedFixture() []entities.CropScore {
	pests := func(n int) []string { return make([]string, n) }
	return []entities.CropScore{
		{Name: "A", ProjectedRevenue: 1000, LaborNeed: "High", PestRisks: pests(2), SoilMatch: 90},
		{Name: "B", ProjectedRevenue: 800, LaborNeed: "Low", PestRisks: pests(0), SoilMatch: 80},
		{Name: "C", ProjectedRevenue: 600, LaborNeed: "Medium", PestRisks: pests(1), SoilMatch: 70},
		{Name: "D", ProjectedRevenue: 400, LaborNeed: "Low", PestRisks: pests(3), SoilMatch: 60},
		{Name: "E", ProjectedRevenue: 200, LaborNeed: "High", PestRisks: pests(0), SoilMatch: 100},
	}
}

func names(cs []entities.ScenarioCrop) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}

func TestGenerateScenarios(t *testing.T) {
	got := GenerateScenarios(rankedFixture(), 4)
	require.Len(t, got, 3)

	maxY, low, pest := got[0], got[1], got[2]

	assert.Equal(t, "Max Yield", maxY.Name)
	assert.Equal(t, []string{"A", "B", "C", "D"}, names(maxY.Crops))
	assert.Equal(t, 2800, maxY.TotalRevenue)
	assert.Equal(t, 21, maxY.BreakEvenMonths)
	assert.Equal(t, 35, maxY.ROI)
	assert.Equal(t, 0, maxY.LaborReduction)

	assert.Equal(t, "Low Maintenance", low.Name)
	assert.Equal(t, []string{"B", "D", "C", "A"}, names(low.Crops))
	assert.Equal(t, 2380, low.TotalRevenue)
	assert.Equal(t, 27, low.BreakEvenMonths)
	assert.Equal(t, 40, low.ROI)
	assert.Equal(t, 40, low.LaborReduction)

	assert.Equal(t, "Pest Resistant", pest.Name)
	assert.Equal(t, []string{"E", "B", "A", "C"}, names(pest.Crops))
	assert.Equal(t, 2392, pest.TotalRevenue)
	assert.Equal(t, 23, pest.BreakEvenMonths)
	assert.Equal(t, 33, pest.ROI)

	for _, s := range got {
		sum := 0
		for _, c := range s.Crops {
			sum += c.Revenue
			assert.Equal(t, 1.0, c.Acres)
		}
		assert.InDelta(t, s.TotalRevenue, sum, 3)
	}
}

func TestGenerateScenariosEmpty(t *testing.T) {
	assert.Empty(t, GenerateScenarios(nil, 10))
	assert.Empty(t, GenerateScenarios(rankedFixture(), 0))
	assert.Empty(t, GenerateScenarios(rankedFixture(), -3))
}

func TestScenarioFloorsAndFewCrops(t *testing.T) {
	ranked := []entities.CropScore{{Name: "Only", ProjectedRevenue: 50000, LaborNeed: "Low"}}
	got := GenerateScenarios(ranked, 3)
	require.Len(t, got, 3)
	assert.Equal(t, 6, got[0].BreakEvenMonths)
	assert.Equal(t, 8, got[1].BreakEvenMonths)
	assert.Equal(t, 7, got[2].BreakEvenMonths)
	assert.Equal(t, 3.0, got[0].Crops[0].Acres)
	assert.Equal(t, 150000, got[0].TotalRevenue)
}

func TestScenarioPoolIsTopEight(t *testing.T) {
	ranked := make([]entities.CropScore, 0, 10)
	for i := 0; i < 10; i++ {
		labor := "High"
		if i >= 8 {
			labor = "Low"
		}
		ranked = append(ranked, entities.CropScore{Name: string(rune('a' + i)), ProjectedRevenue: 100, LaborNeed: labor})
	}
	low := GenerateScenarios(ranked, 8)[1]
	for _, c := range low.Crops {
		assert.NotContains(t, []string{"i", "j"}, c.Name)
	}
}
