package agents

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/LeonardoBeccarini/farmai/internal/model/entities"
)

const remediationPrompt = `Act as a Soil Remediation Agent for precision agriculture. You are analyzing soil data to determine the optimal amendment strategy.

Soil data:
- Name: %s
- pH range: %s to %s
- Organic matter: %s%%
- Drainage: %s
- Field area: %s acres

Return ONLY a valid JSON object with exactly these fields:
{
  "status_log": ["<thought step 1>", "<thought step 2>", "<thought step 3>"],
  "amendment_plan": {
    "fertilizer_type": "<specific fertilizer blend name>",
    "estimated_tons": <number>
  }
}

Make the status_log entries sound like real AI reasoning steps (e.g. "Analyzing pH deficit against optimal range 6.2-6.8..."). The amendment_plan should be scientifically appropriate for the soil conditions. No markdown, no extra text, only the JSON object.`

const procurementPrompt = `Act as a Procurement Agent for agricultural supply chain management. You are sourcing materials based on a soil amendment plan.

Amendment plan received from Remediation Agent:
%s

Field area: %s acres

Return ONLY a valid JSON object with exactly these fields:
{
  "status_log": ["<sourcing step 1>", "<sourcing step 2>", "<sourcing step 3>"],
  "bill_of_materials": [
    {"name": "<item name>", "quantity": "<quantity with unit>", "estimated_cost": <number>},
    {"name": "<item name>", "quantity": "<quantity with unit>", "estimated_cost": <number>},
    {"name": "<item name>", "quantity": "<quantity with unit>", "estimated_cost": <number>}
  ],
  "total_cost": <number>
}

The status_log should reflect real procurement reasoning (supplier lookup, pricing, logistics). The bill_of_materials should include the main amendment material, delivery/spreading services, and soil testing. Ensure total_cost equals the sum of all estimated_cost values. No markdown, no extra text, only the JSON object.`

// financePrompt takes the cost as an indexed argument because it appears four times.
const financePrompt = `Act as a Financial Grant Agent specializing in USDA agricultural funding programs. You are drafting a grant application for soil remediation funding.

Financial data:
- Total remediation cost: %[1]s
- Soil type: %[2]s
- Soil conditions: %[3]s

Return ONLY a valid JSON object with exactly these fields:
{
  "status_log": ["<financial analysis step 1>", "<financial analysis step 2>", "<financial analysis step 3>"],
  "grant_name": "USDA EQIP",
  "drafted_application": "<Sentence 1 introducing the applicant and the specific soil remediation need.> <Sentence 2 describing the amendment plan and its environmental benefit, explicitly stating the total cost of %[1]s.> <Sentence 3 formally requesting the grant funding and citing expected agricultural outcomes.>"
}

The status_log should reflect real grant analysis steps (eligibility assessment, cost-benefit analysis, application drafting). The drafted_application must be exactly 3 sentences and must explicitly mention the total cost of %[1]s. No markdown, no extra text, only the JSON object.`

func RemediationPrompt(soil entities.SoilSummary, acres float64) string {
	lo, hi := 0.0, 0.0
	if len(soil.PHRange) > 0 {
		lo, hi = soil.PHRange[0], soil.PHRange[0]
	}
	if len(soil.PHRange) > 1 {
		hi = soil.PHRange[1]
	}
	return fmt.Sprintf(remediationPrompt,
		soil.MuName, decimal(lo), decimal(hi), decimal(soil.OrganicMatterPct), soil.Drainage, decimal(acres))
}

func ProcurementPrompt(plan entities.AmendmentPlan, acres float64) string {
	b, _ := json.MarshalIndent(plan, "", "  ")
	return fmt.Sprintf(procurementPrompt, b, decimal(acres))
}

func FinancePrompt(totalCost float64, soil entities.SoilSummary) string {
	name := soil.MuName
	if name == "" {
		name = "agricultural land"
	}
	b, _ := json.Marshal(soil)
	return fmt.Sprintf(financePrompt, FormatUSD(totalCost), name, b)
}

// decimal prints a float the way a person writes a measurement: 10 becomes "10.0".
func decimal(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// FormatUSD renders an amount as "$12,345.67".
func FormatUSD(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	cents := int64(math.Round(v * 100))
	whole := strconv.FormatInt(cents/100, 10)

	var sb strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}
	return fmt.Sprintf("%s$%s.%02d", sign, sb.String(), cents%100)
}
