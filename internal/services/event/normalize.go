package event

import (
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement is the InfluxDB measurement holding every farm event.
const Measurement = "farm_event"

// EventToPoint normalizes a CommonEvent into an InfluxDB point.
func EventToPoint(evt CommonEvent) *write.Point {
	tags := map[string]string{
		"event_type":     evt.EventType,
		"source_service": evt.SourceService,
		"severity":       evt.Severity,
	}
	if evt.AnalysisID != "" {
		tags["analysis_id"] = evt.AnalysisID
	}
	if evt.Agent != "" {
		tags["agent"] = evt.Agent
	}

	fields := map[string]interface{}{}
	for k, v := range evt.Fields {
		fields[k] = v
	}
	// a point needs at least one field
	if _, ok := fields["count"]; !ok {
		fields["count"] = int64(1)
	}

	return influxdb2.NewPoint(Measurement, tags, fields, evt.Timestamp)
}
