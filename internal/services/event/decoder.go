// Package event stores the analysis and agent events published by the api
// service as InfluxDB points and serves the latest ones back.
package event

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	msg "github.com/LeonardoBeccarini/farmai/internal/model/messages"
)

type CommonEvent struct {
	EventType     string // analysis.completed | agent.step
	SourceService string
	AnalysisID    string
	Agent         string
	Severity      string // info|warning
	Fields        map[string]interface{}
	Timestamp     time.Time
}

// MQTTHandler turns broker messages into CommonEvents and hands them to sink.
type MQTTHandler struct{ sink func(CommonEvent) }

func NewMQTTHandler(sink func(CommonEvent)) *MQTTHandler { return &MQTTHandler{sink: sink} }

func (h *MQTTHandler) Handle(_ string, m mqtt.Message) error {
	evt, ok, err := Decode(m.Topic(), m.Payload())
	if err != nil || !ok {
		return err
	}
	if h.sink != nil {
		h.sink(evt)
	}
	return nil
}

// Decode maps a topic and payload to a CommonEvent. ok is false for topics
// this service does not store.
func Decode(topic string, payload []byte) (CommonEvent, bool, error) {
	var (
		evt CommonEvent
		err error
	)
	switch {
	case strings.HasPrefix(topic, msg.TopicAnalysisCompleted):
		evt, err = decodeAnalysis(topic, payload)
	case strings.HasPrefix(topic, msg.TopicAgentStep):
		evt, err = decodeAgentStep(topic, payload)
	default:
		return CommonEvent{}, false, nil
	}
	if err != nil {
		return CommonEvent{}, false, err
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	return evt, true, nil
}

func decodeAnalysis(topic string, payload []byte) (CommonEvent, error) {
	var a msg.AnalysisCompletedEvent
	if err := json.Unmarshal(payload, &a); err != nil {
		return CommonEvent{}, err
	}
	id := pickID(topic, a.AnalysisID, msg.TopicAnalysisCompleted)
	if id == "" {
		return CommonEvent{}, errors.New("analysis: missing id")
	}
	sev := "info"
	if len(a.Fallbacks) > 0 {
		sev = "warning"
	}
	return CommonEvent{
		EventType:     "analysis.completed",
		SourceService: "api",
		AnalysisID:    id,
		Severity:      sev,
		Fields: map[string]interface{}{
			"lat":            a.Lat,
			"lng":            a.Lng,
			"area_acres":     a.AreaAcres,
			"soil_name":      a.SoilName,
			"hardiness_zone": a.HardinessZone,
			"top_crop":       a.TopCrop,
			"top_score":      int64(a.TopScore),
			"soil_health":    int64(a.SoilHealth),
			"fallbacks":      strings.Join(a.Fallbacks, ","),
			"duration_ms":    a.DurationMs,
		},
		Timestamp: a.Timestamp,
	}, nil
}

func decodeAgentStep(topic string, payload []byte) (CommonEvent, error) {
	var s msg.AgentStepEvent
	if err := json.Unmarshal(payload, &s); err != nil {
		return CommonEvent{}, err
	}
	agent := pickID(topic, s.Agent, msg.TopicAgentStep)
	if agent == "" {
		return CommonEvent{}, errors.New("agent step: missing agent")
	}
	sev := "info"
	if strings.EqualFold(s.Status, "FAIL") {
		sev = "warning"
	}
	fields := map[string]interface{}{
		"status":      s.Status,
		"total_cost":  s.TotalCost,
		"duration_ms": s.DurationMs,
	}
	if s.Error != "" {
		fields["error"] = s.Error
	}
	return CommonEvent{
		EventType:     "agent.step",
		SourceService: "api",
		Agent:         agent,
		Severity:      sev,
		Fields:        fields,
		Timestamp:     s.Timestamp,
	}, nil
}

// pickID prefers the payload value, then the first topic segment after prefix.
func pickID(topic, fromPayload, prefix string) string {
	if strings.TrimSpace(fromPayload) != "" {
		return fromPayload
	}
	suffix := strings.TrimPrefix(topic, prefix)
	return strings.Split(suffix, "/")[0]
}
