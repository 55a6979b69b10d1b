package entities

import (
	"encoding/json"
	"strconv"
	"strings"
)

// AmendmentPlan is the remediation agent's recommendation.
type AmendmentPlan struct {
	FertilizerType string  `json:"fertilizer_type"`
	EstimatedTons  float64 `json:"estimated_tons"`
}

// RemediationResult is the output of the first swarm agent.
type RemediationResult struct {
	StatusLog     []string      `json:"status_log"`
	AmendmentPlan AmendmentPlan `json:"amendment_plan"`
}

// BillItem is one line of the procurement bill of materials.
type BillItem struct {
	Name          string  `json:"name"`
	Quantity      string  `json:"quantity"`
	EstimatedCost float64 `json:"estimated_cost"`
}

// ProcurementResult is the output of the second swarm agent.
type ProcurementResult struct {
	StatusLog       []string   `json:"status_log"`
	BillOfMaterials []BillItem `json:"bill_of_materials"`
	TotalCost       float64    `json:"total_cost"`
}

// FinanceResult is the output of the third swarm agent.
type FinanceResult struct {
	StatusLog          []string `json:"status_log"`
	GrantName          string   `json:"grant_name"`
	DraftedApplication string   `json:"drafted_application"`
}

// SwarmStatus is the lifecycle of one swarm run.
type SwarmStatus string

const (
	SwarmIdle     SwarmStatus = "idle"
	SwarmRunning  SwarmStatus = "running"
	SwarmComplete SwarmStatus = "complete"
)

// ---------- tolerant decoding ----------
// Generated payloads sometimes carry numbers as strings ("2.5", "$1,250.00").

func (p *AmendmentPlan) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	if v, ok := m["fertilizer_type"].(string); ok {
		p.FertilizerType = v
	}
	if n, ok := looseNumber(m["estimated_tons"]); ok {
		p.EstimatedTons = n
	}
	return nil
}

func (i *BillItem) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	if v, ok := m["name"].(string); ok {
		i.Name = v
	}
	switch q := m["quantity"].(type) {
	case string:
		i.Quantity = q
	case float64:
		i.Quantity = strconv.FormatFloat(q, 'f', -1, 64)
	}
	if n, ok := looseNumber(m["estimated_cost"]); ok {
		i.EstimatedCost = n
	}
	return nil
}

func (r *ProcurementResult) UnmarshalJSON(b []byte) error {
	var raw struct {
		StatusLog       []string   `json:"status_log"`
		BillOfMaterials []BillItem `json:"bill_of_materials"`
		TotalCost       any        `json:"total_cost"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	r.StatusLog = raw.StatusLog
	r.BillOfMaterials = raw.BillOfMaterials
	r.TotalCost, _ = looseNumber(raw.TotalCost)
	return nil
}

func looseNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		s := strings.NewReplacer("$", "", ",", "", " ", "").Replace(x)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
