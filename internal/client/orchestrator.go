package client

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/LeonardoBeccarini/farmai/internal/analysis"
	"github.com/LeonardoBeccarini/farmai/internal/model/entities"
	"github.com/LeonardoBeccarini/farmai/internal/model/wire"
)

// DefaultSwarmAcres is used when the parcel acreage is unknown.
const DefaultSwarmAcres = 10

// SwarmSoilInput is the soil shape the agents receive.
type SwarmSoilInput = entities.SoilSummary

// SwarmInputFromSoil widens the point pH into a ±0.5 range.
func SwarmInputFromSoil(soil entities.Soil) SwarmSoilInput {
	return SwarmSoilInput{
		MuName:           soil.Name,
		PHRange:          []float64{soil.PH - 0.5, soil.PH + 0.5},
		OrganicMatterPct: soil.OrganicMatter,
		Drainage:         soil.Drainage,
	}
}

// API is the part of the backend the orchestrator drives.
type API interface {
	Analyze(ctx context.Context, coordinates [][2]float64, areaAcres float64) (wire.AnalyzeResponse, error)
	Remediation(ctx context.Context, soil entities.SoilSummary, acres float64) (entities.RemediationResult, error)
	Procurement(ctx context.Context, plan entities.AmendmentPlan, acres float64) (entities.ProcurementResult, error)
	Finance(ctx context.Context, totalCost float64, soil entities.SoilSummary) (entities.FinanceResult, error)
}

// Orchestrator runs the analysis and the agent swarm against the store.
type Orchestrator struct {
	api   API
	store *Store
	log   *logrus.Entry
	now   func() time.Time
}

func NewOrchestrator(api API, store *Store) *Orchestrator {
	return &Orchestrator{api: api, store: store, log: logrus.WithField("svc", "client"), now: time.Now}
}

func (o *Orchestrator) Store() *Store { return o.store }

// ===== Analysis =====

// Analyze records the parcel, calls the backend and stores the mapped analysis.
// Progress steps are marked done on success. On failure the running step is
// marked as error before SetAnalyzing(false) clears the progress list.
func (o *Orchestrator) Analyze(ctx context.Context, polygon [][2]float64, acreage float64) (entities.Analysis, error) {
	ring, err := analysis.Ring(toPairs(polygon))
	if err != nil {
		return entities.Analysis{}, err
	}
	if acreage <= 0 {
		acreage = analysis.RingAreaAcres(ring)
	}
	centroid := analysis.VertexCentroid(ring)
	o.store.SetProperty(entities.Property{Polygon: polygon, Acreage: acreage, Centroid: &centroid})

	o.store.SetAnalyzing(true)
	o.store.UpdateLoadingStep(0, StepDone)
	o.store.UpdateLoadingStep(1, StepLoading)

	resp, err := o.api.Analyze(ctx, polygon, acreage)
	if err != nil {
		o.store.UpdateLoadingStep(1, StepError)
		o.store.SetAnalyzing(false)
		o.log.WithError(err).Warn("client: analysis failed")
		return entities.Analysis{}, err
	}
	for i := range defaultSteps() {
		o.store.UpdateLoadingStep(i, StepDone)
	}

	id := resp.AnalysisID
	if id == "" {
		id = strconv.FormatInt(o.now().UnixMilli(), 36)
	}
	a := MapBackendToAnalysis(resp, acreage, id)
	o.store.SetAnalysis(a)
	o.store.SetAnalyzing(false)
	return a, nil
}

func toPairs(polygon [][2]float64) [][]float64 {
	out := make([][]float64, len(polygon))
	for i, p := range polygon {
		out[i] = []float64{p[0], p[1]}
	}
	return out
}

// ===== Swarm =====

// Run executes remediation, procurement and finance strictly in order. The
// first failure aborts the chain, resets the swarm to idle with the error and
// discards partial results.
func (o *Orchestrator) Run(ctx context.Context, soil SwarmSoilInput, acres float64) error {
	if acres <= 0 {
		acres = DefaultSwarmAcres
	}
	o.store.ResetSwarm()
	o.store.SetSwarmStatus(entities.SwarmRunning)

	o.store.SetCurrentAgent(1)
	remediation, err := o.api.Remediation(ctx, soil, acres)
	if err != nil {
		return o.fail("Remediation", err)
	}
	o.store.SetRemediationResult(remediation)

	o.store.SetCurrentAgent(2)
	procurement, err := o.api.Procurement(ctx, remediation.AmendmentPlan, acres)
	if err != nil {
		return o.fail("Procurement", err)
	}
	o.store.SetProcurementResult(procurement)

	o.store.SetCurrentAgent(3)
	finance, err := o.api.Finance(ctx, procurement.TotalCost, soil)
	if err != nil {
		return o.fail("Finance", err)
	}
	o.store.SetFinanceResult(finance)

	o.store.SetSwarmStatus(entities.SwarmComplete)
	return nil
}

// RunForAnalysis starts the swarm from the stored analysis and property.
func (o *Orchestrator) RunForAnalysis(ctx context.Context) error {
	a := o.store.Analysis()
	if a.Soil == nil {
		return ErrNoSoilData
	}
	return o.Run(ctx, SwarmInputFromSoil(*a.Soil), o.store.Property().Acreage)
}

var ErrNoSoilData = errors.New("no soil data in the current analysis")

func (o *Orchestrator) fail(agent string, err error) error {
	reason := err.Error()
	var se *StatusError
	if errors.As(err, &se) {
		reason = se.StatusText()
	}
	msg := fmt.Sprintf("%s agent failed: %s", agent, reason)
	o.store.FailSwarm(msg)
	o.log.WithError(err).WithField("agent", agent).Warn("client: swarm aborted")
	return errors.New(msg)
}
