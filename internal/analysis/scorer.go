package analysis

import (
	"math"
	"sort"
	"strings"

	"github.com/LeonardoBeccarini/farmai/internal/model/entities"
)

// Composite weights. The last term multiplies a constant 0.7, not a per-crop factor.
const (
	weightSoil     = 0.35
	weightClimate  = 0.30
	weightWater    = 0.20
	weightConstant = 0.15
	constantFactor = 0.7
)

// Scorer ranks a crop table against a site.
type Scorer struct {
	crops []entities.CropProfile
}

// NewScorer builds a scorer over crops; nil means the embedded table.
func NewScorer(crops []entities.CropProfile) *Scorer {
	if crops == nil {
		crops = DefaultCrops()
	}
	return &Scorer{crops: crops}
}

// Crops returns the table the scorer ranks.
func (s *Scorer) Crops() []entities.CropProfile { return s.crops }

// Score returns every crop of the table ranked by composite score, best first.
// Crops with equal scores keep table order.
func (s *Scorer) Score(soil entities.Soil, climate entities.Climate) []entities.CropScore {
	out := make([]entities.CropScore, 0, len(s.crops))
	for _, c := range s.crops {
		out = append(out, scoreCrop(c, soil, climate))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func scoreCrop(c entities.CropProfile, soil entities.Soil, climate entities.Climate) entities.CropScore {
	soilMatch := soilMatch(c, soil)
	climateMatch := climateMatch(c, climate)

	score := roundInt((soilMatch*weightSoil + climateMatch*weightClimate +
		waterScore(c.WaterNeed)*weightWater + constantFactor*weightConstant) * 100)

	yieldLbs := c.YieldPerAcre * float64(score) / 100

	var reasons []string
	if soilMatch > 0.7 {
		reasons = append(reasons, "Well-suited for "+soil.Name)
	}
	if climateMatch > 0.7 {
		reasons = append(reasons, "Thrives in Zone "+climate.HardinessZone)
	}
	if soilMatch <= 0.5 {
		reasons = append(reasons, "Soil pH may need adjustment")
	}
	reason := strings.Join(reasons, ". ")
	if reason == "" {
		reason = "Compatible with local conditions"
	}

	return entities.CropScore{
		Name:             c.Name,
		Score:            score,
		SoilMatch:        roundInt(soilMatch * 100),
		ClimateMatch:     roundInt(climateMatch * 100),
		WaterNeed:        c.WaterNeed,
		LaborNeed:        c.LaborNeed,
		ProjectedYield:   roundInt(yieldLbs),
		ProjectedRevenue: roundInt(yieldLbs * c.PricePerLb),
		Reason:           reason,
		CompanionPlants:  c.CompanionPlants,
		PestRisks:        c.PestRisks,
		RotationTips:     c.RotationTips,
	}
}

func waterScore(need string) float64 {
	switch need {
	case "Low":
		return 0.9
	case "Medium":
		return 0.7
	default:
		return 0.5
	}
}

// soilMatch scores pH (40), drainage (30) and organic matter (30), scaled to 0..1.
func soilMatch(c entities.CropProfile, soil entities.Soil) float64 {
	score := phPoints(c.PHMin, c.PHMax, soil.PH)

	if strings.Contains(strings.ToLower(soil.Drainage), strings.ToLower(c.DrainagePreferred)) {
		score += 30
	} else {
		score += 15
	}

	if soil.OrganicMatter >= c.OrganicMatterMin {
		score += 30
	} else {
		score += math.Max(0, 30-(c.OrganicMatterMin-soil.OrganicMatter)*15)
	}
	return score / 100
}

func phPoints(lo, hi, ph float64) float64 {
	if ph >= lo && ph <= hi {
		return 40
	}
	d := math.Min(math.Abs(ph-lo), math.Abs(ph-hi))
	return math.Max(0, 40-d*15)
}

// climateMatch scores hardiness zone (50) and growing season (50), scaled to 0..1.
func climateMatch(c entities.CropProfile, climate entities.Climate) float64 {
	score := zonePoints(ZoneIndex(c.ZoneMin), ZoneIndex(c.ZoneMax), ZoneIndex(climate.HardinessZone))

	if climate.GrowingDays >= c.GrowingDaysMin {
		score += 50
	} else {
		deficit := float64(c.GrowingDaysMin - climate.GrowingDays)
		score += math.Max(0, 50-deficit*2)
	}
	return score / 100
}

// zonePoints gives 35 inside [lo, hi] plus up to 15 for sitting at the centre.
// A single-zone range counts as centred.
func zonePoints(lo, hi, zone int) float64 {
	if zone >= lo && zone <= hi {
		centeredness := 1.0
		if span := hi - lo; span > 0 {
			pos := float64(zone - lo)
			centeredness = 1 - math.Abs(pos/float64(span)-0.5)*2
		}
		return 35 + centeredness*15
	}
	dist := math.Min(math.Abs(float64(zone-lo)), math.Abs(float64(zone-hi)))
	return math.Max(0, 35-dist*10)
}
