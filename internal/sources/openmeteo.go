package sources

import (
	"context"
	"fmt"
	"net/url"

	"github.com/LeonardoBeccarini/farmai/internal/model/wire"
)

const dailyVars = "temperature_2m_max,temperature_2m_min,precipitation_sum"

// OpenMeteo reads daily forecast and historical archive series.
type OpenMeteo struct {
	forecast     *Upstream
	archive      *Upstream
	forecastURL  string
	archiveURL   string
	archiveStart string
	archiveEnd   string
}

func NewOpenMeteo(forecast, archive *Upstream, forecastURL, archiveURL, archiveStart, archiveEnd string) *OpenMeteo {
	return &OpenMeteo{
		forecast:     forecast,
		archive:      archive,
		forecastURL:  forecastURL,
		archiveURL:   archiveURL,
		archiveStart: archiveStart,
		archiveEnd:   archiveEnd,
	}
}

// Forecast returns the next 16 days.
func (c *OpenMeteo) Forecast(ctx context.Context, lat, lng float64) (wire.Weather, error) {
	q := c.query(lat, lng)
	q.Set("forecast_days", "16")
	return c.fetch(ctx, c.forecast, c.forecastURL+"?"+q.Encode())
}

// Historical returns the configured archive window.
func (c *OpenMeteo) Historical(ctx context.Context, lat, lng float64) (wire.Weather, error) {
	q := c.query(lat, lng)
	q.Set("start_date", c.archiveStart)
	q.Set("end_date", c.archiveEnd)
	return c.fetch(ctx, c.archive, c.archiveURL+"?"+q.Encode())
}

func (c *OpenMeteo) query(lat, lng float64) url.Values {
	q := url.Values{}
	q.Set("latitude", ftoa(lat))
	q.Set("longitude", ftoa(lng))
	q.Set("daily", dailyVars)
	q.Set("timezone", "auto")
	return q
}

func (c *OpenMeteo) fetch(ctx context.Context, up *Upstream, u string) (wire.Weather, error) {
	var w wire.Weather
	if err := up.GetJSON(ctx, u, &w); err != nil {
		return wire.Weather{}, err
	}
	if w.Daily == nil || len(w.Daily.Time) == 0 {
		return wire.Weather{}, fmt.Errorf("%s: %w", up.Name(), ErrNoData)
	}
	return w, nil
}
