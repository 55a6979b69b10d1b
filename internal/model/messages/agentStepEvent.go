package messages

import "time"

// AgentStepEvent is published once per agent invocation.
type AgentStepEvent struct {
	Agent      string    `json:"agent"`  // remediation | procurement | finance | chat
	Status     string    `json:"status"` // "OK" | "FAIL"
	TotalCost  float64   `json:"total_cost,omitempty"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}
