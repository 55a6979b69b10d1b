// Package agents runs the three remediation swarm agents against a text generator.
package agents

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/LeonardoBeccarini/farmai/internal/llm"
	"github.com/LeonardoBeccarini/farmai/internal/model/entities"
)

const (
	Remediation = "remediation"
	Procurement = "procurement"
	Finance     = "finance"
)

type Agents struct {
	gen llm.Generator
	log *logrus.Entry
}

func New(gen llm.Generator) *Agents {
	return &Agents{gen: gen, log: logrus.WithField("component", "agents")}
}

// Remediation proposes an amendment plan for the soil.
func (a *Agents) Remediation(ctx context.Context, soil entities.SoilSummary, acres float64) (entities.RemediationResult, error) {
	var out entities.RemediationResult
	if err := a.run(ctx, Remediation, RemediationPrompt(soil, acres), &out); err != nil {
		return entities.RemediationResult{}, err
	}
	return out, nil
}

// Procurement prices the amendment plan. A zero total is replaced by the bill sum.
func (a *Agents) Procurement(ctx context.Context, plan entities.AmendmentPlan, acres float64) (entities.ProcurementResult, error) {
	var out entities.ProcurementResult
	if err := a.run(ctx, Procurement, ProcurementPrompt(plan, acres), &out); err != nil {
		return entities.ProcurementResult{}, err
	}
	if out.TotalCost == 0 {
		var sum float64
		for _, it := range out.BillOfMaterials {
			sum += it.EstimatedCost
		}
		out.TotalCost = math.Round(sum*100) / 100
	}
	return out, nil
}

// Finance drafts a grant application covering the total cost.
func (a *Agents) Finance(ctx context.Context, totalCost float64, soil entities.SoilSummary) (entities.FinanceResult, error) {
	var out entities.FinanceResult
	if err := a.run(ctx, Finance, FinancePrompt(totalCost, soil), &out); err != nil {
		return entities.FinanceResult{}, err
	}
	return out, nil
}

func (a *Agents) run(ctx context.Context, agent, prompt string, out any) error {
	start := time.Now()
	text, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		return fmt.Errorf("%s: %w", agent, err)
	}
	if err := llm.ParseJSON(text, out); err != nil {
		a.log.WithField("agent", agent).WithField("chars", len(text)).Warn("agents: undecodable answer")
		return fmt.Errorf("%s: %w", agent, err)
	}
	a.log.WithField("agent", agent).WithField("ms", time.Since(start).Milliseconds()).Debug("agents: done")
	return nil
}
