// Package client is the Go side of the farmai web client: the backend API
// client, the mapping from backend payloads to the analysis view model, the
// app store and the sequential agent swarm.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/LeonardoBeccarini/farmai/internal/model/entities"
	"github.com/LeonardoBeccarini/farmai/internal/model/wire"
)

const DefaultBaseURL = "http://localhost:8000"

// StatusError is returned for every non-2xx answer.
type StatusError struct {
	Code   int
	Detail string
}

// StatusText is the HTTP reason phrase of the answer.
func (e *StatusError) StatusText() string { return http.StatusText(e.Code) }

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%d %s: %s", e.Code, e.StatusText(), e.Detail)
	}
	return fmt.Sprintf("%d %s", e.Code, e.StatusText())
}

// Client calls the backend API once per request; it neither retries nor caches.
type Client struct {
	base string
	http *http.Client
}

// New uses httpClient, or a client with a 120s timeout when nil.
func New(baseURL string, httpClient *http.Client) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// NewFromEnv reads FARMAI_API_URL.
func NewFromEnv() *Client { return New(os.Getenv("FARMAI_API_URL"), nil) }

func (c *Client) BaseURL() string { return c.base }

// ===== Calls =====

func (c *Client) PointInfo(ctx context.Context, lat, lng float64) (wire.PointInfoResponse, error) {
	var out wire.PointInfoResponse
	err := c.do(ctx, http.MethodPost, "/api/point-info", wire.PointRequest{Lat: lat, Lng: lng}, &out)
	return out, err
}

// Analyze posts the parcel ring as [lng, lat] pairs.
func (c *Client) Analyze(ctx context.Context, coordinates [][2]float64, areaAcres float64) (wire.AnalyzeResponse, error) {
	coords := make([][]float64, len(coordinates))
	for i, p := range coordinates {
		coords[i] = []float64{p[0], p[1]}
	}
	var out wire.AnalyzeResponse
	err := c.do(ctx, http.MethodPost, "/api/analyze", wire.AnalyzeRequest{Coordinates: coords, AreaAcres: areaAcres}, &out)
	return out, err
}

func (c *Client) Analysis(ctx context.Context, id string) (wire.AnalyzeResponse, error) {
	var out wire.AnalyzeResponse
	err := c.do(ctx, http.MethodGet, "/api/analysis/"+url.PathEscape(id), nil, &out)
	return out, err
}

// Analyses lists stored analyses, newest first. limit ≤ 0 uses the server default.
func (c *Client) Analyses(ctx context.Context, limit int) ([]wire.AnalysisSummary, error) {
	path := "/api/analyses"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []wire.AnalysisSummary
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) DailyPlan(ctx context.Context, id string, day time.Time) (wire.DailyPlan, error) {
	path := "/api/analysis/" + url.PathEscape(id) + "/daily-plan"
	if !day.IsZero() {
		path += "?date=" + day.Format("2006-01-02")
	}
	var out wire.DailyPlan
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) Remediation(ctx context.Context, soil entities.SoilSummary, acres float64) (entities.RemediationResult, error) {
	var out entities.RemediationResult
	err := c.do(ctx, http.MethodPost, "/api/agent/remediation", wire.RemediationRequest{SoilData: soil, AreaAcres: acres}, &out)
	return out, err
}

func (c *Client) Procurement(ctx context.Context, plan entities.AmendmentPlan, acres float64) (entities.ProcurementResult, error) {
	var out entities.ProcurementResult
	err := c.do(ctx, http.MethodPost, "/api/agent/procurement", wire.ProcurementRequest{AmendmentPlan: plan, AreaAcres: acres}, &out)
	return out, err
}

func (c *Client) Finance(ctx context.Context, totalCost float64, soil entities.SoilSummary) (entities.FinanceResult, error) {
	var out entities.FinanceResult
	err := c.do(ctx, http.MethodPost, "/api/agent/finance", wire.FinanceRequest{TotalCost: totalCost, SoilData: soil}, &out)
	return out, err
}

// Chat sends the question with the prior turns and the current analysis as context.
func (c *Client) Chat(ctx context.Context, message string, history []entities.ChatMessage, analysis any) (string, error) {
	req := wire.ChatRequest{Message: message, History: history}
	if analysis != nil {
		raw, err := json.Marshal(analysis)
		if err != nil {
			return "", fmt.Errorf("chat context: %w", err)
		}
		req.Context = raw
	}
	var out wire.ChatResponse
	if err := c.do(ctx, http.MethodPost, "/api/chat", req, &out); err != nil {
		return "", err
	}
	return out.Reply, nil
}

func (c *Client) Recommendations(ctx context.Context, lat, lng float64) (wire.FeatureCollection, error) {
	var out wire.FeatureCollection
	err := c.do(ctx, http.MethodPost, "/api/recommendations", wire.PointRequest{Lat: lat, Lng: lng}, &out)
	return out, err
}

func (c *Client) Geocode(ctx context.Context, q string) ([]entities.AddressResult, error) {
	var out []entities.AddressResult
	err := c.do(ctx, http.MethodGet, "/api/geocode?q="+url.QueryEscape(q), nil, &out)
	return out, err
}

// ===== Transport =====

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Code: resp.StatusCode}
		var eb wire.ErrorResponse
		if b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); json.Unmarshal(b, &eb) == nil {
			se.Detail = eb.Detail
		}
		return se
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
