package event

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/query"
	"github.com/sirupsen/logrus"
)

// LatestEvent is one stored event as served by GET /events/latest.
type LatestEvent struct {
	Time       string                 `json:"time"` // RFC3339
	EventType  string                 `json:"event_type"`
	AnalysisID string                 `json:"analysis_id,omitempty"`
	Agent      string                 `json:"agent,omitempty"`
	Severity   string                 `json:"severity"`
	Fields     map[string]interface{} `json:"fields"`
}

type latestParams struct {
	Minutes   int
	Limit     int
	TimeoutMS int
	EventType string
}

var knownTypes = map[string]bool{"analysis.completed": true, "agent.step": true}

func parseLatest(r *http.Request, defMin, defLim, defTOms int) latestParams {
	q := r.URL.Query()
	get := func(k string, def, min, max int) int {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				if n < min {
					return min
				}
				if max > 0 && n > max {
					return max
				}
				return n
			}
		}
		return def
	}
	p := latestParams{
		Minutes:   get("minutes", defMin, 1, 30*24*60),
		Limit:     get("limit", defLim, 1, 500),
		TimeoutMS: get("timeout_ms", defTOms, 200, 5000),
	}
	// unknown types are ignored rather than interpolated into Flux
	if t := strings.TrimSpace(q.Get("type")); knownTypes[t] {
		p.EventType = t
	}
	return p
}

func buildFlux(bucket string, p latestParams) string {
	typeFilter := ""
	if p.EventType != "" {
		typeFilter = fmt.Sprintf("\n  |> filter(fn: (r) => r.event_type == %q)", p.EventType)
	}
	return fmt.Sprintf(`
from(bucket: %q)
  |> range(start: -%dm)
  |> filter(fn: (r) => r._measurement == %q)%s
  |> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")
  |> group()
  |> sort(columns: ["_time"], desc: true)
  |> limit(n:%d)
`, bucket, p.Minutes, Measurement, typeFilter, p.Limit)
}

var systemColumns = map[string]bool{
	"result": true, "table": true, "_start": true, "_stop": true, "_time": true, "_measurement": true,
	"event_type": true, "source_service": true, "severity": true, "analysis_id": true, "agent": true, "count": true,
}

func recordToEvent(rec *query.FluxRecord) LatestEvent {
	str := func(k string) string {
		if s, ok := rec.ValueByKey(k).(string); ok {
			return s
		}
		return ""
	}
	evt := LatestEvent{
		Time:       rec.Time().UTC().Format(time.RFC3339),
		EventType:  str("event_type"),
		AnalysisID: str("analysis_id"),
		Agent:      str("agent"),
		Severity:   str("severity"),
		Fields:     map[string]interface{}{},
	}
	for k, v := range rec.Values() {
		if systemColumns[k] || v == nil {
			continue
		}
		evt.Fields[k] = v
	}
	return evt
}

func runLatest(w http.ResponseWriter, r *http.Request, influx influxdb2.Client, org, bucket string, defMin, defLim int) {
	p := parseLatest(r, defMin, defLim, 2000)

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(p.TimeoutMS)*time.Millisecond)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	res, err := influx.QueryAPI(org).Query(ctx, buildFlux(bucket, p))
	if err != nil {
		logrus.WithError(err).Warn("event-svc: latest query failed")
		w.Header().Set("X-Error", "influx-query-error")
		_, _ = w.Write([]byte("[]"))
		return
	}
	defer res.Close()

	out := make([]LatestEvent, 0, p.Limit)
	for res.Next() {
		out = append(out, recordToEvent(res.Record()))
	}
	if res.Err() != nil {
		w.Header().Set("X-Error", "influx-iter-error")
	}
	_ = json.NewEncoder(w).Encode(out)
}

// NewLatestHandler serves GET /events/latest?limit=20[&minutes=1440][&type=agent.step].
func NewLatestHandler(influx influxdb2.Client, org, bucket string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		runLatest(w, r, influx, org, bucket, 1440, 20)
	})
}
