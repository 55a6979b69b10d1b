package sources

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"
)

// OpenElevation looks up ground elevation in metres.
type OpenElevation struct {
	up  *Upstream
	url string
}

func NewOpenElevation(up *Upstream, url string) *OpenElevation {
	return &OpenElevation{up: up, url: url}
}

func (c *OpenElevation) Elevation(ctx context.Context, lat, lng float64) (float64, error) {
	raw, err := c.up.Get(ctx, c.url+"?locations="+ftoa(lat)+","+ftoa(lng))
	if err != nil {
		return 0, err
	}
	v := gjson.GetBytes(raw, "results.0.elevation")
	if !v.Exists() || v.Type != gjson.Number {
		return 0, fmt.Errorf("open-elevation: %w", ErrNoData)
	}
	return v.Float(), nil
}
