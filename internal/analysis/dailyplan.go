package analysis

import (
	"fmt"
	"time"

	"github.com/LeonardoBeccarini/farmai/internal/model/entities"
	"github.com/LeonardoBeccarini/farmai/internal/model/wire"
)

var fullMonthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// Season buckets the month of a daily plan.
func Season(m time.Month) string {
	switch i := int(m) - 1; {
	case i <= 1:
		return "winter"
	case i <= 4:
		return "early spring"
	case i <= 7:
		return "summer"
	case i <= 10:
		return "fall"
	default:
		return "year end"
	}
}

func pHNote(ph float64) string {
	switch {
	case ph < 6.2:
		return fmt.Sprintf("soil pH is %.1f, below optimal, lime application recommended", ph)
	case ph > 7.2:
		return fmt.Sprintf("soil pH is %.1f, slightly alkaline, monitor micronutrient uptake", ph)
	default:
		return fmt.Sprintf("soil pH is optimal at %.1f", ph)
	}
}

// DailyPlan builds the three time-blocked tasks for day from a completed analysis.
func DailyPlan(a entities.Analysis, day time.Time) wire.DailyPlan {
	month := int(day.Month()) - 1
	topCrop, secondCrop, topScore := "primary crop", "secondary crop", 85
	if len(a.CropMatrix) > 0 {
		topCrop, topScore = a.CropMatrix[0].Name, a.CropMatrix[0].Score
	}
	if len(a.CropMatrix) > 1 {
		secondCrop = a.CropMatrix[1].Name
	}
	ph, drainage, om := 6.5, "Well drained", 2.0
	if a.Soil != nil {
		ph, drainage, om = a.Soil.PH, a.Soil.Drainage, a.Soil.OrganicMatter
	}
	zone, growingDays, firstFrost := "7", 180, "mid-October"
	var current *entities.MonthlyClimate
	if a.Climate != nil {
		zone, growingDays, firstFrost = a.Climate.HardinessZone, a.Climate.GrowingDays, a.Climate.FirstFrost
		if month < len(a.Climate.MonthlyTemps) {
			current = &a.Climate.MonthlyTemps[month]
		}
	}
	note := pHNote(ph)
	in := func(k int) string { return fullMonthNames[(month+k)%12] }

	plan := wire.DailyPlan{
		Date:   day.Format("2006-01-02"),
		Season: Season(day.Month()),
		Zone:   zone,
		PHNote: note,
	}

	switch plan.Season {
	case "winter":
		plan.Tasks = []wire.DailyTask{
			{
				TimeBlock: "morning", TimeRange: "6:00 - 9:00 AM", Priority: "HIGH",
				Title:        "Soil Health Assessment & Testing",
				Detail:       "Collect soil core samples from 12-inch depth across three field zones for laboratory pH and nutrient panel analysis.",
				Reasoning:    fmt.Sprintf("Zone %s mid-winter is the ideal window for pre-season soil testing, frozen surface prevents compaction during sampling. Current %s.", zone, note),
				CorrelatesTo: fmt.Sprintf("→ Feeds into Agent Swarm Remediation Plan · Informs %s amendment schedule", in(2)),
			},
			{
				TimeBlock: "midday", TimeRange: "9:00 AM - 1:00 PM", Priority: "HIGH",
				Title:        "Equipment Maintenance & Calibration",
				Detail:       fmt.Sprintf("Full inspection of planting equipment, irrigation systems, and precision applicators. Calibrate spreader for %s seed spacing.", topCrop),
				Reasoning:    fmt.Sprintf("Winter maintenance prevents costly delays at planting. %s has a %d%% suitability score, equipment readiness directly impacts yield.", topCrop, topScore),
				CorrelatesTo: fmt.Sprintf("→ Prepares for %s planting window · Aligns with Max Yield economic scenario", in(2)),
			},
			{
				TimeBlock: "afternoon", TimeRange: "1:00 - 5:00 PM", Priority: "MEDIUM",
				Title:        "Seed Inventory & Procurement Planning",
				Detail:       fmt.Sprintf("Audit seed stocks for %s and %s. Cross-reference with crop matrix scores and calculate input quantities for target acreage.", topCrop, secondCrop),
				Reasoning:    fmt.Sprintf("Growing season is %d days. Seed orders placed now secure preferred variety availability and early-order pricing before spring demand peaks.", growingDays),
				CorrelatesTo: "→ Procurement Agent bill of materials · Crop compatibility matrix",
			},
		}
	case "early spring":
		plan.Tasks = []wire.DailyTask{
			{
				TimeBlock: "morning", TimeRange: "6:30 - 10:00 AM", Priority: "HIGH",
				Title:        "Cover Crop Termination Assessment",
				Detail:       fmt.Sprintf("Walk field perimeter and map cover crop biomass density. Identify optimal termination timing (target: 2-3 weeks before %s planting).", topCrop),
				Reasoning:    fmt.Sprintf("%s in Zone %s is the critical pre-plant window. Early termination lets residue break down, improving soil structure for %s root development.", in(0), zone, topCrop),
				CorrelatesTo: fmt.Sprintf("→ Soil remediation timeline · %s planting schedule", in(1)),
			},
			{
				TimeBlock: "midday", TimeRange: "10:00 AM - 2:00 PM", Priority: "HIGH",
				Title:        "Soil Moisture & Compaction Survey",
				Detail:       `Use penetrometer readings at 50ft intervals to map compaction zones. Check soil moisture at 6" depth, target field capacity before tillage.`,
				Reasoning:    fmt.Sprintf("%s soil in Zone %s spring can retain excess moisture from snowmelt. Tillage above 80%% field capacity causes structural damage that lasts the entire growing season.", drainage, zone),
				CorrelatesTo: "→ Amendment application readiness · Irrigation scheduling baseline",
			},
			{
				TimeBlock: "afternoon", TimeRange: "2:00 - 5:30 PM", Priority: "MEDIUM",
				Title:        "Amendment Application Planning",
				Detail:       "Review soil test results and calculate amendment rates for each field zone. Prepare spreading equipment and schedule lime or fertilizer delivery.",
				Reasoning:    fmt.Sprintf("With %s, amendments applied 4-6 weeks before planting allow full pH adjustment and nutrient availability for %s establishment.", note, topCrop),
				CorrelatesTo: "→ Agent Swarm amendment plan · USDA EQIP grant application",
			},
		}
	case "summer":
		tempNote := "peak growing conditions"
		if current != nil {
			tempNote = fmt.Sprintf("avg high %.0f°C / low %.0f°C", current.Max, current.Min)
		}
		plan.Tasks = []wire.DailyTask{
			{
				TimeBlock: "morning", TimeRange: "5:30 - 9:00 AM", Priority: "HIGH",
				Title:        "Early Irrigation & Crop Scouting",
				Detail:       fmt.Sprintf("Run irrigation cycle before peak heat. Scout %s rows for pest pressure, disease indicators, and nutrient deficiency signs in lower leaves.", topCrop),
				Reasoning:    fmt.Sprintf("%s conditions: %s. Pest activity and foliar symptoms are most visible before midday heat stress.", in(0), tempNote),
				CorrelatesTo: fmt.Sprintf("→ NDVI health monitoring · Pest risk profile for %s", topCrop),
			},
			{
				TimeBlock: "midday", TimeRange: "9:00 AM - 1:00 PM", Priority: "MEDIUM",
				Title:        "Precision Fertilizer Side-Dress",
				Detail:       fmt.Sprintf("Apply nitrogen side-dress to %s based on growth stage assessment. Target mid-rows to minimize volatilization during peak temperatures.", topCrop),
				Reasoning:    fmt.Sprintf("Organic matter at %.1f%% provides baseline nutrition but mid-season N is critical for %s yield at this growth stage. Apply before 1PM to avoid heat volatilization.", om, topCrop),
				CorrelatesTo: fmt.Sprintf("→ Economic yield projection · %s harvest readiness", in(2)),
			},
			{
				TimeBlock: "afternoon", TimeRange: "4:00 - 7:00 PM", Priority: "LOW",
				Title:        "Yield Mapping & Data Logging",
				Detail:       "Update field notes with canopy height, internode spacing, and stand count. Flag any anomalous zones for targeted intervention.",
				Reasoning:    "Growth-stage data predicts final harvest within 12% accuracy and feeds the Max Yield and Low Maintenance scenario comparison.",
				CorrelatesTo: "→ Economic projections · Harvest logistics planning",
			},
		}
	case "fall":
		plan.Tasks = []wire.DailyTask{
			{
				TimeBlock: "morning", TimeRange: "6:00 - 10:00 AM", Priority: "HIGH",
				Title:        "Harvest Readiness Inspection",
				Detail:       fmt.Sprintf("Check moisture content of %s at 5 field positions. Target harvest moisture for optimal storage and maximum market pricing.", topCrop),
				Reasoning:    fmt.Sprintf("%s in Zone %s brings the first frost risk around %s. Moisture monitoring prevents post-harvest storage losses.", in(0), zone, firstFrost),
				CorrelatesTo: "→ Revenue realization for economic scenarios · Cover crop seeding window",
			},
			{
				TimeBlock: "midday", TimeRange: "10:00 AM - 2:30 PM", Priority: "HIGH",
				Title:        "Cover Crop Seed Drilling",
				Detail:       fmt.Sprintf("Interseed winter cover mix (cereal rye + hairy vetch) into standing or recently harvested %s rows at recommended seeding rate.", topCrop),
				Reasoning:    fmt.Sprintf("Establishing cover crops right after harvest maximizes biomass before frost. Cover roots improve soil structure over winter; %s.", note),
				CorrelatesTo: "→ Next cycle soil remediation baseline · USDA CSP program compliance",
			},
			{
				TimeBlock: "afternoon", TimeRange: "2:30 - 5:00 PM", Priority: "MEDIUM",
				Title:        "Post-Harvest Soil Sampling",
				Detail:       "Pull post-harvest soil cores for nutrient depletion analysis. Compare N-P-K readings against pre-season baseline to calibrate next year's amendment plan.",
				Reasoning:    fmt.Sprintf("Comparing to pre-season levels with %s reveals crop uptake efficiency and refines next season's remediation plan.", note),
				CorrelatesTo: "→ Next season remediation plan · Grant application renewal",
			},
		}
	default:
		plan.Tasks = []wire.DailyTask{
			{
				TimeBlock: "morning", TimeRange: "7:00 - 10:00 AM", Priority: "MEDIUM",
				Title:        "Year-End Field Walk",
				Detail:       "Comprehensive field inspection to document current conditions and identify winter preparation priorities.",
				Reasoning:    fmt.Sprintf("Late-season assessment in Zone %s sets the baseline for next year's planning cycle.", zone),
				CorrelatesTo: "→ Annual planning cycle · Next season crop matrix",
			},
		}
	}
	return plan
}
