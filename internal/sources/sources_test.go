package sources

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/farmai/internal/cache"
)

func testUpstream(name string) *Upstream {
	return NewUpstream(name, 2*time.Second, BreakerConfig{Failures: 2, OpenMs: 60000, IntervalMs: 60000}, "farmai-test")
}

func TestUSDAWithHeaderRow(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotQuery = body["query"]
		assert.Equal(t, "JSON+COLUMNNAME", body["format"])
		_, _ = io.WriteString(w, `{"Table":[
			["muname","ph1to1h2o_r","drclassdcd","om_r","awc_r","sandtotal_r","silttotal_r","claytotal_r"],
			["Hagerstown silt loam","6.8","Well drained","3.1","0.2","20","55","25"]]}`)
	}))
	defer srv.Close()

	soil, err := NewUSDA(testUpstream("usda"), srv.URL).Soil(context.Background(), 39.5, -77.25)
	require.NoError(t, err)
	assert.Contains(t, gotQuery, "POINT(-77.25 39.5)")
	assert.Equal(t, "Hagerstown silt loam", soil.Name)
	assert.Equal(t, 6.8, soil.PH)
	assert.Equal(t, "Well drained", soil.Drainage)
	assert.Equal(t, 3.1, soil.OrganicMatter)
	assert.Equal(t, 0.2, soil.AWC)
	assert.Equal(t, 55.0, soil.Silt)
}

func TestUSDAPositionalRowDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"Table":[["Cecil sandy loam",null,"","0",null,null,null,null]]}`)
	}))
	defer srv.Close()

	soil, err := NewUSDA(testUpstream("usda"), srv.URL).Soil(context.Background(), 35, -80)
	require.NoError(t, err)
	assert.Equal(t, "Cecil sandy loam", soil.Name)
	assert.Equal(t, 6.5, soil.PH)
	assert.Equal(t, "Well drained", soil.Drainage)
	assert.Equal(t, 2.5, soil.OrganicMatter)
	assert.Equal(t, 0.15, soil.AWC)
	assert.Equal(t, 40.0, soil.Sand)
	assert.Equal(t, 40.0, soil.Silt)
	assert.Equal(t, 20.0, soil.Clay)
}

func TestUSDANoRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	_, err := NewUSDA(testUpstream("usda"), srv.URL).Soil(context.Background(), 0, 0)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestOpenMeteoForecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "40.1", q.Get("latitude"))
		assert.Equal(t, "-75.2", q.Get("longitude"))
		assert.Equal(t, "16", q.Get("forecast_days"))
		assert.Equal(t, dailyVars, q.Get("daily"))
		assert.Equal(t, "auto", q.Get("timezone"))
		_, _ = io.WriteString(w, `{"latitude":40.1,"longitude":-75.2,"timezone":"America/New_York",
			"daily":{"time":["2024-06-01","2024-06-02"],"temperature_2m_max":[25.1,null],
			"temperature_2m_min":[14.0,15.5],"precipitation_sum":[0,2.5]}}`)
	}))
	defer srv.Close()

	c := NewOpenMeteo(testUpstream("f"), testUpstream("a"), srv.URL, srv.URL, "1993-01-01", "2023-12-31")
	w, err := c.Forecast(context.Background(), 40.1, -75.2)
	require.NoError(t, err)
	require.NotNil(t, w.Daily)
	assert.Len(t, w.Daily.Time, 2)
	require.NotNil(t, w.Daily.TemperatureMax[0])
	assert.Equal(t, 25.1, *w.Daily.TemperatureMax[0])
	assert.Nil(t, w.Daily.TemperatureMax[1])
}

func TestOpenMeteoHistoricalWindow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1993-01-01", r.URL.Query().Get("start_date"))
		assert.Equal(t, "2023-12-31", r.URL.Query().Get("end_date"))
		_, _ = io.WriteString(w, `{"daily":{"time":[]}}`)
	}))
	defer srv.Close()

	c := NewOpenMeteo(testUpstream("f"), testUpstream("a"), srv.URL, srv.URL, "1993-01-01", "2023-12-31")
	_, err := c.Historical(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestOpenElevation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "39.5,-77.25", r.URL.Query().Get("locations"))
		_, _ = io.WriteString(w, `{"results":[{"latitude":39.5,"longitude":-77.25,"elevation":182}]}`)
	}))
	defer srv.Close()

	e, err := NewOpenElevation(testUpstream("elev"), srv.URL).Elevation(context.Background(), 39.5, -77.25)
	require.NoError(t, err)
	assert.Equal(t, 182.0, e)
}

func TestOpenElevationEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"results":[]}`)
	}))
	defer srv.Close()

	_, err := NewOpenElevation(testUpstream("elev"), srv.URL).Elevation(context.Background(), 0, 0)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestNWSAlerts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "farmai-test", r.Header.Get("User-Agent"))
		switch {
		case r.URL.Path == "/points/39.5000,-77.2500":
			_, _ = io.WriteString(w, `{"properties":{"forecastZone":"https://api.weather.gov/zones/forecast/MDZ004"}}`)
		case r.URL.Path == "/alerts/active":
			assert.Equal(t, "MDZ004", r.URL.Query().Get("zone"))
			_, _ = io.WriteString(w, `{"features":[
				{"properties":{"event":"Heat Advisory","severity":"Moderate","headline":"Heat Advisory until 8 PM","description":"Hot."}},
				{"properties":{}}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	alerts, err := NewNWS(testUpstream("nws"), srv.URL+"/").Alerts(context.Background(), 39.5, -77.25)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Heat Advisory", alerts[0].Event)
	assert.Equal(t, "Moderate", alerts[0].Severity)
	assert.Equal(t, "Hot.", alerts[0].Description)
}

func TestNWSMissingZone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"properties":{}}`)
	}))
	defer srv.Close()

	_, err := NewNWS(testUpstream("nws"), srv.URL).Alerts(context.Background(), 10, 10)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestNominatimSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "1600 Penn", q.Get("q"))
		assert.Equal(t, "5", q.Get("limit"))
		assert.Equal(t, "us", q.Get("countrycodes"))
		assert.Equal(t, "1", q.Get("addressdetails"))
		_, _ = io.WriteString(w, `[
			{"display_name":"1600 Pennsylvania Ave","lat":"38.8977","lon":"-77.0365","address":{"state":"District of Columbia"}},
			{"display_name":"broken","lat":"x","lon":"y"}]`)
	}))
	defer srv.Close()

	res, err := NewNominatim(testUpstream("nom"), srv.URL).Search(context.Background(), "1600 Penn")
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, 38.8977, res[0].Lat)
	assert.Equal(t, -77.0365, res[0].Lng)
	assert.Equal(t, "District of Columbia", res[0].State)
	assert.Empty(t, res[0].County)
}

func TestNominatimShortQuery(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	res, err := NewNominatim(testUpstream("nom"), srv.URL).Search(context.Background(), "ab")
	require.NoError(t, err)
	assert.NotNil(t, res)
	assert.Empty(t, res)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	up := testUpstream("flaky")
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := up.Get(ctx, srv.URL)
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "status 502"))
	}
	assert.Equal(t, gobreaker.StateOpen, up.State())

	_, err := up.Get(ctx, srv.URL)
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSourcesCacheSoil(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = io.WriteString(w, `{"Table":[["Palouse silt loam","6.2","Well drained","2.8","0.2","10","70","20"]]}`)
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.USDAURL = srv.URL
	s := New(cfg, cache.NewMemory(100))
	ctx := context.Background()

	a, err := s.Soil(ctx, 46.73, -117.18)
	require.NoError(t, err)
	b, err := s.Soil(ctx, 46.73001, -117.18001)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Contains(t, s.Breakers(), "usda-sda")
}
