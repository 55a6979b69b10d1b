package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                                 "/",
		"/":                                "/",
		"/healthz":                         "/healthz",
		"/api/analyze":                     "/api/analyze",
		"/api/analysis/3f2a":               "/api/analysis/:id",
		"/api/analysis/3f2a/daily-plan":    "/api/analysis/:id/daily-plan",
		"/api/analysis/3f2a/daily-plan/x/": "/api/analysis/:id/daily-plan",
		"/api/agent/remediation":           "/api/agent/remediation",
	}
	for in, want := range cases {
		assert.Equal(t, want, canonicalPath(in), in)
	}
}

func TestInstrumentHandlerRecordsStatus(t *testing.T) {
	h := InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/abc", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	RecordUpstream("usda", "ok", 0)
	RecordAgent("", true)

	out := httptest.NewRecorder()
	Handler().ServeHTTP(out, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, out.Code)
	body := out.Body.String()
	assert.True(t, strings.Contains(body, `farmai_http_requests_total{method="GET",path="/api/analysis/:id",status="418"}`))
	assert.Contains(t, body, `farmai_upstream_requests_total{outcome="ok",upstream="usda"}`)
	assert.Contains(t, body, `farmai_agents_runs_total{agent="unknown",status="OK"}`)
}
