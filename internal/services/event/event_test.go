package event

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	msg "github.com/LeonardoBeccarini/farmai/internal/model/messages"
)

var ts = time.Date(2024, 7, 10, 9, 0, 0, 0, time.UTC)

func TestDecodeAnalysisCompleted(t *testing.T) {
	payload, _ := json.Marshal(msg.AnalysisCompletedEvent{
		AnalysisID: "abc", Lat: 42, Lng: -93, AreaAcres: 12.5, TopCrop: "Garlic", TopScore: 91,
		Fallbacks: []string{"forecast", "historical"}, Timestamp: ts,
	})
	evt, ok, err := Decode(msg.TopicAnalysisCompleted+"abc", payload)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "analysis.completed", evt.EventType)
	assert.Equal(t, "abc", evt.AnalysisID)
	assert.Equal(t, "warning", evt.Severity)
	assert.Equal(t, "forecast,historical", evt.Fields["fallbacks"])
	assert.Equal(t, int64(91), evt.Fields["top_score"])
	assert.Equal(t, ts, evt.Timestamp)
}

func TestDecodeAgentStepIDFromTopic(t *testing.T) {
	payload := []byte(`{"status":"FAIL","error":"timeout","duration_ms":1200}`)
	evt, ok, err := Decode(msg.TopicAgentStep+"finance", payload)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "agent.step", evt.EventType)
	assert.Equal(t, "finance", evt.Agent)
	assert.Equal(t, "warning", evt.Severity)
	assert.Equal(t, "timeout", evt.Fields["error"])
	assert.False(t, evt.Timestamp.IsZero())
}

func TestDecodeIgnoresAndRejects(t *testing.T) {
	_, ok, err := Decode("sensor/data/1", []byte(`{}`))
	assert.NoError(t, err)
	assert.False(t, ok)

	_, _, err = Decode(msg.TopicAnalysisCompleted, []byte(`{}`))
	assert.Error(t, err)

	_, _, err = Decode(msg.TopicAgentStep+"chat", []byte(`not json`))
	assert.Error(t, err)
}

func TestEventToPoint(t *testing.T) {
	p := EventToPoint(CommonEvent{
		EventType: "agent.step", SourceService: "api", Agent: "chat", Severity: "info",
		Fields: map[string]interface{}{"status": "OK"}, Timestamp: ts,
	})
	assert.Equal(t, Measurement, p.Name())
	assert.Equal(t, ts, p.Time())
	tags := map[string]string{}
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	assert.Equal(t, "chat", tags["agent"])
	assert.NotContains(t, tags, "analysis_id")
	assert.Equal(t, 2, len(p.FieldList()))
}

func TestParseLatestClamps(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/events/latest?limit=9999&minutes=0&type=agent.step", nil)
	p := parseLatest(r, 1440, 20, 2000)
	assert.Equal(t, 500, p.Limit)
	assert.Equal(t, 1, p.Minutes)
	assert.Equal(t, "agent.step", p.EventType)

	r = httptest.NewRequest(http.MethodGet, `/events/latest?type=x")`, nil)
	p = parseLatest(r, 1440, 20, 2000)
	assert.Equal(t, 20, p.Limit)
	assert.Empty(t, p.EventType)
}

func TestBuildFlux(t *testing.T) {
	q := buildFlux("events", latestParams{Minutes: 60, Limit: 5, EventType: "analysis.completed"})
	assert.Contains(t, q, `from(bucket: "events")`)
	assert.Contains(t, q, "range(start: -60m)")
	assert.Contains(t, q, `r._measurement == "farm_event"`)
	assert.Contains(t, q, `r.event_type == "analysis.completed"`)
	assert.Contains(t, q, "limit(n:5)")

	assert.NotContains(t, buildFlux("events", latestParams{Minutes: 1, Limit: 1}), "event_type ==")
}

func TestRecordToEvent(t *testing.T) {
	rec := query.NewFluxRecord(0, map[string]interface{}{
		"_time": ts, "_measurement": Measurement, "event_type": "analysis.completed",
		"analysis_id": "abc", "severity": "info", "top_crop": "Garlic", "count": int64(1), "fallbacks": nil,
	})
	evt := recordToEvent(rec)
	assert.Equal(t, "2024-07-10T09:00:00Z", evt.Time)
	assert.Equal(t, "abc", evt.AnalysisID)
	assert.Equal(t, map[string]interface{}{"top_crop": "Garlic"}, evt.Fields)
}

type fakeBroker bool

func (b fakeBroker) IsConnectionOpen() bool { return bool(b) }

type fakePinger struct {
	ok  bool
	err error
}

func (p fakePinger) Ping(context.Context) (bool, error) { return p.ok, p.err }

func probeRequest(h http.HandlerFunc, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestProbeWithoutDependencies(t *testing.T) {
	p := NewProbe(nil, nil, nil, 0)
	rec := probeRequest(p.Health, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"down"`)
	assert.Contains(t, rec.Body.String(), `"last_ingest_age_sec":null`)

	rec = probeRequest(p.Ready, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"ready":false}`, rec.Body.String())
}

func TestProbeReadyAfterGrace(t *testing.T) {
	w := &Writer{lastErr: time.Now().Add(-time.Hour), counts: map[string]int64{}}
	w.MarkIngest("agent.step")
	p := NewProbe(fakeBroker(true), fakePinger{ok: true}, w, time.Minute)

	assert.Equal(t, http.StatusServiceUnavailable, probeRequest(p.Ready, "/readyz").Code)

	p.now = func() time.Time { return p.started.Add(2 * time.Minute) }
	rec := probeRequest(p.Ready, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)

	var st probeStatus
	require.NoError(t, json.Unmarshal(probeRequest(p.Health, "/healthz").Body.Bytes(), &st))
	assert.Equal(t, "ok", st.Status)
	assert.Equal(t, int64(1), st.Ingested["agent.step"])
	require.NotNil(t, st.LastIngestS)
}

func TestProbeDegradedOnRecentWriteError(t *testing.T) {
	w := &Writer{lastErr: time.Now(), counts: map[string]int64{}}
	p := NewProbe(fakeBroker(true), fakePinger{err: errors.New("refused")}, w, 0)

	var st probeStatus
	require.NoError(t, json.Unmarshal(probeRequest(p.Health, "/healthz").Body.Bytes(), &st))
	assert.Equal(t, "degraded", st.Status)
	assert.False(t, st.InfluxOK)
	assert.Equal(t, http.StatusServiceUnavailable, probeRequest(p.Ready, "/readyz").Code)
}

func TestMQTTHandlerSinks(t *testing.T) {
	var got []CommonEvent
	h := NewMQTTHandler(func(e CommonEvent) { got = append(got, e) })
	payload := []byte(`{"agent":"remediation","status":"OK","duration_ms":10}`)
	require.NoError(t, h.Handle("farm/agent/#", fakeMessage{topic: msg.TopicAgentStep + "remediation", payload: payload}))
	require.NoError(t, h.Handle("other/#", fakeMessage{topic: "other/x", payload: payload}))
	require.Len(t, got, 1)
	assert.Equal(t, "remediation", got[0].Agent)
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}
