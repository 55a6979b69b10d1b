package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/LeonardoBeccarini/farmai/internal/metrics"
)

// maxBody caps upstream payloads; a 30-year daily archive is well under it.
const maxBody = 16 << 20

var (
	// ErrNoData means the upstream answered but had nothing for the location.
	ErrNoData = errors.New("no data for location")
	// ErrBreakerOpen means the call was short-circuited.
	ErrBreakerOpen = errors.New("circuit breaker open")
)

// BreakerConfig mirrors gobreaker settings in integer form so it can come from env.
type BreakerConfig struct {
	Failures   int `env:"CB_FAILS,default=3"`
	OpenMs     int `env:"CB_OPEN_MS,default=30000"`
	IntervalMs int `env:"CB_INTERVAL_MS,default=60000"`
}

func mkCB(name string, fails, openMs, intervalMs int) *gobreaker.CircuitBreaker {
	if fails < 1 {
		fails = 1
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     name,
		Interval: time.Duration(intervalMs) * time.Millisecond,
		Timeout:  time.Duration(openMs) * time.Millisecond,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= uint32(fails)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logrus.WithFields(logrus.Fields{"upstream": name, "from": from.String(), "to": to.String()}).
				Warn("sources: breaker state change")
		},
	})
}

// Upstream wraps one third-party HTTP API with its own breaker.
type Upstream struct {
	name      string
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker
	userAgent string
	headers   http.Header
	log       *logrus.Entry
}

func NewUpstream(name string, timeout time.Duration, bc BreakerConfig, userAgent string) *Upstream {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Upstream{
		name:      name,
		client:    &http.Client{Timeout: timeout},
		breaker:   mkCB(name, bc.Failures, bc.OpenMs, bc.IntervalMs),
		userAgent: userAgent,
		headers:   http.Header{},
		log:       logrus.WithField("upstream", name),
	}
}

// WithHeader adds a header sent on every request, such as an API key.
func (u *Upstream) WithHeader(key, value string) *Upstream {
	u.headers.Set(key, value)
	return u
}

func (u *Upstream) Name() string { return u.name }

func (u *Upstream) State() gobreaker.State { return u.breaker.State() }

// GetJSON performs a GET and decodes the body into out.
func (u *Upstream) GetJSON(ctx context.Context, url string, out any) error {
	b, err := u.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%s decode error: %w", u.name, err)
	}
	return nil
}

// Get performs a GET and returns the raw body.
func (u *Upstream) Get(ctx context.Context, url string) ([]byte, error) {
	return u.do(ctx, http.MethodGet, url, nil)
}

// PostJSON posts body as JSON and returns the raw response body.
func (u *Upstream) PostJSON(ctx context.Context, url string, body any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s encode error: %w", u.name, err)
	}
	return u.do(ctx, http.MethodPost, url, b)
}

func (u *Upstream) do(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	start := time.Now()
	res, err := u.breaker.Execute(func() (interface{}, error) {
		return u.roundTrip(ctx, method, url, body)
	})
	elapsed := time.Since(start)

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordUpstream(u.name, "open", 0)
		return nil, fmt.Errorf("%s: %w", u.name, ErrBreakerOpen)
	case err != nil:
		metrics.RecordUpstream(u.name, "error", elapsed)
		u.log.WithError(err).WithField("ms", elapsed.Milliseconds()).Warn("sources: request failed")
		return nil, err
	}
	metrics.RecordUpstream(u.name, "ok", elapsed)
	return res.([]byte), nil
}

func (u *Upstream) roundTrip(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, fmt.Errorf("%s request error: %w", u.name, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if u.userAgent != "" {
		req.Header.Set("User-Agent", u.userAgent)
	}
	for k, vs := range u.headers {
		req.Header[k] = vs
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request error: %w", u.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%s upstream status %d", u.name, resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%s read error: %w", u.name, err)
	}
	return b, nil
}
