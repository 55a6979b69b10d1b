package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/LeonardoBeccarini/farmai/internal/model/entities"
)

// NWS resolves the forecast zone of a point and lists its active alerts.
type NWS struct {
	up   *Upstream
	base string
}

func NewNWS(up *Upstream, base string) *NWS { return &NWS{up: up, base: strings.TrimRight(base, "/")} }

func (c *NWS) Alerts(ctx context.Context, lat, lng float64) ([]entities.Alert, error) {
	zone, err := c.zone(ctx, lat, lng)
	if err != nil {
		return nil, err
	}
	raw, err := c.up.Get(ctx, c.base+"/alerts/active?zone="+url.QueryEscape(zone))
	if err != nil {
		return nil, err
	}
	out := []entities.Alert{}
	for _, f := range gjson.GetBytes(raw, "features").Array() {
		p := f.Get("properties")
		a := entities.Alert{
			Event:       p.Get("event").String(),
			Severity:    p.Get("severity").String(),
			Headline:    p.Get("headline").String(),
			Description: p.Get("description").String(),
		}
		if a.Event == "" && a.Headline == "" {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (c *NWS) zone(ctx context.Context, lat, lng float64) (string, error) {
	pt := strconv.FormatFloat(lat, 'f', 4, 64) + "," + strconv.FormatFloat(lng, 'f', 4, 64)
	raw, err := c.up.Get(ctx, c.base+"/points/"+pt)
	if err != nil {
		return "", err
	}
	z := gjson.GetBytes(raw, "properties.forecastZone").String()
	if i := strings.LastIndex(z, "/"); i >= 0 {
		z = z[i+1:]
	}
	if z == "" {
		return "", fmt.Errorf("nws: %w", ErrNoData)
	}
	return z, nil
}
