package farmctl

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/farmai/internal/model/entities"
	msg "github.com/LeonardoBeccarini/farmai/internal/model/messages"
	"github.com/LeonardoBeccarini/farmai/internal/model/wire"
	"github.com/LeonardoBeccarini/farmai/internal/services/event"
)

const testPolygon = "-93.10,41.50;-93.09,41.50;-93.09,41.51;-93.10,41.51"

// ===== fake backend =====

type fakeBackend struct {
	mu                sync.Mutex
	chats             []wire.ChatRequest
	procurementStatus int
}

func sampleResponse() wire.AnalyzeResponse {
	return wire.AnalyzeResponse{
		AnalysisID:        "a-1",
		Centroid:          entities.Coordinates{Lat: 41.505, Lng: -93.095},
		AreaAcres:         12.5,
		WeatherHistorical: wire.Weather{Error: "Failed to fetch historical data"},
		SoilData: entities.SoilSummary{
			MuName: "Clarion loam", Drainage: "Well drained",
			PHRange: []float64{6, 7}, OrganicMatterPct: 3,
		},
		NWSAlerts: []entities.Alert{{Event: "Frost Advisory", Severity: "Minor", Description: "Cold night"}},
		Sentinel:  wire.SentinelData{MeanNDVI: 0.62},
		CropMatrix: []wire.CropEntry{
			{Crop: "Garlic", SuitabilityScore: 70, EstimatedYieldRevenuePerAcre: 2000},
			{Crop: "Tomatoes", SuitabilityScore: 85, EstimatedYieldRevenuePerAcre: 3000},
			{Crop: "Kale", SuitabilityScore: 40, EstimatedYieldRevenuePerAcre: 1000},
		},
		EconomicProjections: wire.EconomicProjections{
			MaxYield:       wire.Projection{Description: "All in", EstimatedRevenue: 60000},
			LowMaintenance: wire.Projection{Description: "Easy", EstimatedRevenue: 30000},
			PestResistant:  wire.Projection{Description: "Hardy", EstimatedRevenue: 40000},
		},
	}
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	reply := func(w http.ResponseWriter, code int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(v)
	}
	mux.HandleFunc("POST /api/analyze", func(w http.ResponseWriter, _ *http.Request) {
		reply(w, http.StatusOK, sampleResponse())
	})
	mux.HandleFunc("GET /api/analysis/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "a-1" {
			reply(w, http.StatusNotFound, wire.ErrorResponse{Detail: "Analysis not found"})
			return
		}
		reply(w, http.StatusOK, sampleResponse())
	})
	mux.HandleFunc("GET /api/analyses", func(w http.ResponseWriter, _ *http.Request) {
		reply(w, http.StatusOK, []wire.AnalysisSummary{{
			ID: "a-1", CreatedAt: time.Date(2024, 7, 10, 9, 0, 0, 0, time.UTC),
			Lat: 41.505, Lng: -93.095, AreaAcres: 12.5, SoilName: "Clarion loam", TopCrop: "Tomatoes", TopScore: 85,
		}})
	})
	mux.HandleFunc("POST /api/agent/remediation", func(w http.ResponseWriter, _ *http.Request) {
		reply(w, http.StatusOK, entities.RemediationResult{
			StatusLog:     []string{"Soil read"},
			AmendmentPlan: entities.AmendmentPlan{FertilizerType: "Agricultural lime", EstimatedTons: 2.5},
		})
	})
	mux.HandleFunc("POST /api/agent/procurement", func(w http.ResponseWriter, _ *http.Request) {
		if b.procurementStatus != 0 {
			reply(w, b.procurementStatus, wire.ErrorResponse{Detail: "Agent error: upstream"})
			return
		}
		reply(w, http.StatusOK, entities.ProcurementResult{
			StatusLog:       []string{"Quotes gathered"},
			BillOfMaterials: []entities.BillItem{{Name: "Lime", Quantity: "2.5 tons", EstimatedCost: 1300}},
			TotalCost:       1300,
		})
	})
	mux.HandleFunc("POST /api/agent/finance", func(w http.ResponseWriter, _ *http.Request) {
		reply(w, http.StatusOK, entities.FinanceResult{
			StatusLog: []string{"Program matched"}, GrantName: "EQIP", DraftedApplication: "Dear reviewer",
		})
	})
	mux.HandleFunc("POST /api/chat", func(w http.ResponseWriter, r *http.Request) {
		var req wire.ChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		b.chats = append(b.chats, req)
		n := len(b.chats)
		b.mu.Unlock()
		reply(w, http.StatusOK, wire.ChatResponse{Reply: "reply " + string(rune('0'+n))})
	})
	mux.HandleFunc("GET /api/geocode", func(w http.ResponseWriter, _ *http.Request) {
		reply(w, http.StatusOK, []entities.AddressResult{{DisplayName: "Ames, Iowa", Lat: 42.03, Lng: -93.62}})
	})
	return mux
}

func newBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()
	b := &fakeBackend{}
	srv := httptest.NewServer(b.handler())
	t.Cleanup(srv.Close)
	return b, srv
}

// run executes farmctl with args against srv and returns stdout.
func run(t *testing.T, srv *httptest.Server, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	if srv != nil {
		args = append(args, "--api", srv.URL)
	}
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// ===== polygon input =====

func TestParsePolygon(t *testing.T) {
	ring, err := ParsePolygon(" -93.1, 41.5 ; -93.09,41.5;-93.09,41.51; ")
	require.NoError(t, err)
	assert.Equal(t, [][2]float64{{-93.1, 41.5}, {-93.09, 41.5}, {-93.09, 41.51}}, ring)

	_, err = ParsePolygon("-93.1;41.5")
	assert.ErrorContains(t, err, "point 1")

	_, err = ParsePolygon("-93.1,41.5;x,41.5")
	assert.ErrorContains(t, err, "bad longitude")

	_, err = ParsePolygon(" ; ")
	assert.ErrorIs(t, err, errNoPolygon)
}

func TestParseGeoJSON(t *testing.T) {
	poly := `{"type":"Polygon","coordinates":[[[-93.1,41.5],[-93.09,41.5],[-93.09,41.51],[-93.1,41.5]]]}`
	ring, err := ParseGeoJSON([]byte(poly))
	require.NoError(t, err)
	assert.Len(t, ring, 4)

	feature := `{"type":"Feature","properties":{},"geometry":` + poly + `}`
	ring, err = ParseGeoJSON([]byte(feature))
	require.NoError(t, err)
	assert.Equal(t, [2]float64{-93.09, 41.51}, ring[2])

	_, err = ParseGeoJSON([]byte(`{"type":"Point","coordinates":[1,2]}`))
	assert.Error(t, err)
	_, err = ParseGeoJSON([]byte(`{"type":"Feature"}`))
	assert.ErrorContains(t, err, "without geometry")
	_, err = ParseGeoJSON([]byte(`not json`))
	assert.ErrorContains(t, err, "invalid GeoJSON")
}

// ===== commands =====

func TestAnalyzeJSON(t *testing.T) {
	_, srv := newBackend(t)
	out, err := run(t, srv, "", "analyze", "--polygon", testPolygon, "--acres", "12.5", "-f", "json")
	require.NoError(t, err)

	var r Report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, "a-1", r.Analysis.ID)
	assert.Equal(t, 12.5, r.Property.Acreage)
	require.NotNil(t, r.Property.Centroid)
	require.Len(t, r.Analysis.CropMatrix, 3)
	assert.Equal(t, "Tomatoes", r.Analysis.CropMatrix[0].Name)
	assert.Equal(t, 37500, r.Analysis.CropMatrix[0].ProjectedRevenue)
	assert.Nil(t, r.Analysis.Climate)
	assert.Equal(t, []string{"Frost Advisory (Minor): Cold night"}, r.Analysis.WeatherAlerts)
	assert.Nil(t, r.Swarm)
}

func TestAnalyzeMarkdownWithSwarmToFile(t *testing.T) {
	_, srv := newBackend(t)
	path := filepath.Join(t.TempDir(), "reports", "field.md")
	out, err := run(t, srv, "", "analyze", "--polygon", testPolygon, "--acres", "12.5", "--swarm", "-f", "markdown", "-o", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	md := string(b)
	assert.Contains(t, md, "# Parcel Analysis Report")
	assert.Contains(t, md, "Clarion loam")
	assert.Contains(t, md, "Frost Advisory (Minor): Cold night")
	assert.Contains(t, md, "## Agent Swarm")
	assert.Contains(t, md, "EQIP")
	assert.Contains(t, md, "$1,300.00")
	assert.Contains(t, md, "```mermaid")
}

func TestAnalyzeRequiresPolygon(t *testing.T) {
	_, err := run(t, nil, "", "analyze")
	assert.ErrorIs(t, err, errNoPolygon)
}

func TestAnalyzeRejectsUnknownFormat(t *testing.T) {
	_, err := run(t, nil, "", "analyze", "--polygon", testPolygon, "-f", "yaml")
	assert.ErrorContains(t, err, "unknown format")
}

func TestSwarmFromFlags(t *testing.T) {
	_, srv := newBackend(t)
	out, err := run(t, srv, "", "swarm", "--soil", "Clarion loam", "--ph", "5.6", "--acres", "40")
	require.NoError(t, err)
	assert.Contains(t, out, "Swarm: complete")
	assert.Contains(t, out, "2.5 tons Agricultural lime")
	assert.Contains(t, out, "total $1,300.00")
	assert.Contains(t, out, "finance: EQIP")
}

func TestSwarmAbortsOnProcurementFailure(t *testing.T) {
	b, srv := newBackend(t)
	b.procurementStatus = http.StatusBadGateway

	out, err := run(t, srv, "", "swarm", "--id", "a-1", "-f", "json")
	require.Error(t, err)
	assert.Equal(t, "Procurement agent failed: Bad Gateway", err.Error())

	var sw struct {
		Status      string          `json:"status"`
		Error       string          `json:"error"`
		Remediation json.RawMessage `json:"remediation"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &sw))
	assert.Equal(t, "idle", sw.Status)
	assert.Equal(t, "Procurement agent failed: Bad Gateway", sw.Error)
	assert.Empty(t, sw.Remediation)
}

func TestSwarmUnknownAnalysis(t *testing.T) {
	_, srv := newBackend(t)
	_, err := run(t, srv, "", "swarm", "--id", "missing")
	assert.ErrorContains(t, err, "Analysis not found")
}

func TestChatLoopKeepsHistory(t *testing.T) {
	b, srv := newBackend(t)
	out, err := run(t, srv, "What about lime?\n\nAnd cover crops?\n", "chat", "--id", "a-1")
	require.NoError(t, err)
	assert.Contains(t, out, "reply 1")
	assert.Contains(t, out, "reply 2")

	require.Len(t, b.chats, 2)
	assert.Empty(t, b.chats[0].History)
	assert.Contains(t, string(b.chats[0].Context), "Clarion loam")
	require.Len(t, b.chats[1].History, 2)
	assert.Equal(t, entities.ChatMessage{Role: "user", Content: "What about lime?"}, b.chats[1].History[0])
	assert.Equal(t, "reply 1", b.chats[1].History[1].Content)
}

func TestChatSingleQuestion(t *testing.T) {
	b, srv := newBackend(t)
	out, err := run(t, srv, "", "chat", "When", "to", "plant?")
	require.NoError(t, err)
	assert.Equal(t, "reply 1\n", out)
	require.Len(t, b.chats, 1)
	assert.Equal(t, "When to plant?", b.chats[0].Message)
	assert.Empty(t, b.chats[0].Context)
}

func TestGeocode(t *testing.T) {
	_, srv := newBackend(t)
	out, err := run(t, srv, "", "geocode", "Ames", "IA")
	require.NoError(t, err)
	assert.Contains(t, out, "Ames, Iowa")

	_, err = run(t, srv, "", "geocode", "A")
	assert.ErrorContains(t, err, "at least 3")
}

func TestHistory(t *testing.T) {
	_, srv := newBackend(t)
	out, err := run(t, srv, "", "history")
	require.NoError(t, err)
	assert.Contains(t, out, "a-1")
	assert.Contains(t, out, "Tomatoes (85)")

	out, err = run(t, srv, "", "history", "-f", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "## Analysis History")
}

func TestScoreLocal(t *testing.T) {
	out, err := run(t, nil, "", "score", "--ph", "6.5", "--om", "3", "--zone", "7a", "--growing-days", "200", "--top", "3", "-f", "json")
	require.NoError(t, err)

	var r Report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, "local", r.Analysis.ID)
	require.Len(t, r.Analysis.CropMatrix, 3)
	assert.GreaterOrEqual(t, r.Analysis.CropMatrix[0].Score, r.Analysis.CropMatrix[1].Score)
	assert.NotEmpty(t, r.Analysis.Economics)
	assert.Equal(t, "7a", r.Analysis.Climate.HardinessZone)
}

func TestScoreFallbackClimateAndBadZone(t *testing.T) {
	out, err := run(t, nil, "", "score", "--lat", "45", "-f", "json")
	require.NoError(t, err)
	var r Report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, "5b", r.Analysis.Climate.HardinessZone)
	assert.Equal(t, 160, r.Analysis.Climate.GrowingDays)

	_, err = run(t, nil, "", "score", "--zone", "12z")
	assert.ErrorContains(t, err, "unknown hardiness zone")
}

// ===== watch =====

func TestEventPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := newEventPrinter(&buf, false)

	payload, err := json.Marshal(msg.AnalysisCompletedEvent{
		AnalysisID: "a-1", TopCrop: "Tomatoes", TopScore: 85,
		Timestamp: time.Date(2024, 7, 10, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.NoError(t, p.Print(msg.TopicAnalysisCompleted+"a-1", payload))
	require.NoError(t, p.Print(msg.TopicAnalysisCompleted+"a-1", payload)) // redelivery
	require.NoError(t, p.Print("other/topic", []byte(`{"x":1}`)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "analysis.completed a-1 [info]")
	assert.Contains(t, lines[0], "top_crop=Tomatoes")
	assert.Contains(t, lines[0], "top_score=85")
	assert.Equal(t, `other/topic {"x":1}`, lines[1])

	assert.Error(t, p.Print(msg.TopicAgentStep+"finance", []byte(`{`)))
}

func TestFormatEventSortsFields(t *testing.T) {
	line := FormatEvent(event.CommonEvent{
		EventType: "agent.step", Agent: "finance", Severity: "warning",
		Fields:    map[string]interface{}{"status": "FAIL", "error": "boom"},
		Timestamp: time.Now(),
	})
	assert.True(t, strings.HasSuffix(line, "agent.step agent=finance [warning] error=boom status=FAIL"), line)
}

func TestRootHasCommands(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"analyze", "swarm", "chat", "geocode", "score", "plan", "recommend", "history", "watch"} {
		c, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, c.Name())
	}
}
