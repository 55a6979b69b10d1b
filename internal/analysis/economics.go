package analysis

import (
	"math"
	"sort"

	"github.com/LeonardoBeccarini/farmai/internal/model/entities"
)

// Scenario names, in the order GenerateScenarios returns them.
const (
	ScenarioMaxYield       = "Max Yield"
	ScenarioLowMaintenance = "Low Maintenance"
	ScenarioPestResistant  = "Pest Resistant"
)

const (
	scenarioPool  = 8 // top-ranked crops considered
	scenarioCrops = 4 // crops planted per scenario
)

type scenarioSpec struct {
	name           string
	description    string
	haircut        float64
	laborReduction int
	breakEvenFloor int
	breakEvenBase  float64
	breakEvenDiv   float64
	roiBaseline    float64 // dollars per acre
	pick           func(pool []entities.CropScore) []entities.CropScore
}

var scenarioSpecs = []scenarioSpec{
	{
		name:           ScenarioMaxYield,
		description:    "Optimized for maximum production output",
		haircut:        1,
		breakEvenFloor: 6,
		breakEvenBase:  24,
		breakEvenDiv:   1000,
		roiBaseline:    2000,
		pick:           func(pool []entities.CropScore) []entities.CropScore { return pool },
	},
	{
		name:           ScenarioLowMaintenance,
		description:    "40% less labor with automated-friendly crops",
		haircut:        0.85,
		laborReduction: 40,
		breakEvenFloor: 8,
		breakEvenBase:  30,
		breakEvenDiv:   800,
		roiBaseline:    1500,
		pick: func(pool []entities.CropScore) []entities.CropScore {
			return sortedCopy(pool, func(c entities.CropScore) float64 { return laborRank(c.LaborNeed) })
		},
	},
	{
		name:           ScenarioPestResistant,
		description:    "Lower input costs with disease-resistant varieties",
		haircut:        0.92,
		laborReduction: 15,
		breakEvenFloor: 7,
		breakEvenBase:  26,
		breakEvenDiv:   900,
		roiBaseline:    1800,
		pick: func(pool []entities.CropScore) []entities.CropScore {
			return sortedCopy(pool, func(c entities.CropScore) float64 {
				return float64(100-len(c.PestRisks)*10) + float64(c.SoilMatch)
			})
		},
	},
}

// GenerateScenarios derives the three planting scenarios from a ranked crop list.
// It returns nil when there are no crops or the acreage is not positive.
func GenerateScenarios(ranked []entities.CropScore, acreage float64) []entities.EconomicScenario {
	if len(ranked) == 0 || acreage <= 0 {
		return nil
	}
	pool := ranked
	if len(pool) > scenarioPool {
		pool = pool[:scenarioPool]
	}

	out := make([]entities.EconomicScenario, 0, len(scenarioSpecs))
	for _, spec := range scenarioSpecs {
		out = append(out, buildScenario(spec, spec.pick(pool), acreage))
	}
	return out
}

func buildScenario(spec scenarioSpec, picked []entities.CropScore, acreage float64) entities.EconomicScenario {
	if len(picked) > scenarioCrops {
		picked = picked[:scenarioCrops]
	}
	share := acreage / float64(len(picked))
	acres := round1(share)

	crops := make([]entities.ScenarioCrop, 0, len(picked))
	total := 0
	for _, c := range picked {
		rev := roundInt(float64(c.ProjectedRevenue) * share * spec.haircut)
		total += rev
		crops = append(crops, entities.ScenarioCrop{Name: c.Name, Revenue: rev, Acres: acres})
	}

	return entities.EconomicScenario{
		Name:            spec.name,
		Description:     spec.description,
		TotalRevenue:    total,
		LaborReduction:  spec.laborReduction,
		Crops:           crops,
		BreakEvenMonths: int(math.Max(float64(spec.breakEvenFloor), roundHalfUp(spec.breakEvenBase-float64(total)/spec.breakEvenDiv))),
		ROI:             roundInt(float64(total) / (acreage * spec.roiBaseline) * 100),
	}
}

func laborRank(need string) float64 {
	switch need {
	case "Low":
		return 3
	case "Medium":
		return 2
	default:
		return 1
	}
}

// sortedCopy orders a copy of pool by key, highest first, keeping rank order on ties.
func sortedCopy(pool []entities.CropScore, key func(entities.CropScore) float64) []entities.CropScore {
	out := append([]entities.CropScore(nil), pool...)
	sort.SliceStable(out, func(i, j int) bool { return key(out[i]) > key(out[j]) })
	return out
}
