package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/farmai/internal/model/entities"
)

type fakeGen struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeGen) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

var cecil = entities.SoilSummary{
	MuName:           "Cecil sandy loam",
	Drainage:         "Well drained",
	PHRange:          []float64{5.5, 6.5},
	OrganicMatterPct: 1.2,
}

func TestFormatUSD(t *testing.T) {
	assert.Equal(t, "$0.00", FormatUSD(0))
	assert.Equal(t, "$999.50", FormatUSD(999.5))
	assert.Equal(t, "$12,345.67", FormatUSD(12345.67))
	assert.Equal(t, "$1,234,567.00", FormatUSD(1234567))
	assert.Equal(t, "-$1,000.00", FormatUSD(-1000))
}

func TestRemediationPrompt(t *testing.T) {
	p := RemediationPrompt(cecil, 10)
	assert.Contains(t, p, "- Name: Cecil sandy loam")
	assert.Contains(t, p, "- pH range: 5.5 to 6.5")
	assert.Contains(t, p, "- Organic matter: 1.2%")
	assert.Contains(t, p, "- Field area: 10.0 acres")
}

func TestFinancePromptMentionsCost(t *testing.T) {
	p := FinancePrompt(4250.5, entities.SoilSummary{})
	assert.Contains(t, p, "- Total remediation cost: $4,250.50")
	assert.Contains(t, p, "- Soil type: agricultural land")
	assert.Contains(t, p, "must explicitly mention the total cost of $4,250.50")
}

func TestRemediationDecodesFencedAnswer(t *testing.T) {
	gen := &fakeGen{reply: "```json\n{\"status_log\":[\"a\",\"b\",\"c\"],\"amendment_plan\":{\"fertilizer_type\":\"Dolomitic lime\",\"estimated_tons\":\"2.5\"}}\n```"}
	res, err := New(gen).Remediation(context.Background(), cecil, 10)
	require.NoError(t, err)
	assert.Len(t, res.StatusLog, 3)
	assert.Equal(t, "Dolomitic lime", res.AmendmentPlan.FertilizerType)
	assert.Equal(t, 2.5, res.AmendmentPlan.EstimatedTons)
	require.Len(t, gen.prompts, 1)
}

func TestProcurementRecomputesMissingTotal(t *testing.T) {
	gen := &fakeGen{reply: `{"status_log":["x"],"bill_of_materials":[
		{"name":"Lime","quantity":"25 tons","estimated_cost":1250.25},
		{"name":"Spreading","quantity":1,"estimated_cost":"$400"},
		{"name":"Soil test","quantity":"3 samples","estimated_cost":90}]}`}
	plan := entities.AmendmentPlan{FertilizerType: "Dolomitic lime", EstimatedTons: 25}

	res, err := New(gen).Procurement(context.Background(), plan, 10)
	require.NoError(t, err)
	assert.Equal(t, 1740.25, res.TotalCost)
	assert.Equal(t, "1", res.BillOfMaterials[1].Quantity)
	assert.Contains(t, gen.prompts[0], `"fertilizer_type": "Dolomitic lime"`)
}

func TestProcurementKeepsModelTotal(t *testing.T) {
	gen := &fakeGen{reply: `{"status_log":[],"bill_of_materials":[{"name":"Lime","quantity":"1 t","estimated_cost":10}],"total_cost":"$1,500.00"}`}
	res, err := New(gen).Procurement(context.Background(), entities.AmendmentPlan{}, 1)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, res.TotalCost)
}

func TestFinance(t *testing.T) {
	gen := &fakeGen{reply: `{"status_log":["1","2","3"],"grant_name":"USDA EQIP","drafted_application":"One. Two. Three."}`}
	res, err := New(gen).Finance(context.Background(), 1740.25, cecil)
	require.NoError(t, err)
	assert.Equal(t, "USDA EQIP", res.GrantName)
	assert.Contains(t, gen.prompts[0], `"mu_name":"Cecil sandy loam"`)
}

func TestAgentErrors(t *testing.T) {
	boom := errors.New("quota exceeded")
	_, err := New(&fakeGen{err: boom}).Finance(context.Background(), 1, cecil)
	assert.ErrorIs(t, err, boom)

	_, err = New(&fakeGen{reply: "I cannot help with that"}).Remediation(context.Background(), cecil, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remediation")
}
