package sources

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/LeonardoBeccarini/farmai/internal/model/entities"
)

// MinQueryLen is the shortest query forwarded to the geocoder.
const MinQueryLen = 3

// Nominatim searches US addresses.
type Nominatim struct {
	up   *Upstream
	base string
}

func NewNominatim(up *Upstream, base string) *Nominatim {
	return &Nominatim{up: up, base: strings.TrimRight(base, "/")}
}

// Search returns at most five matches; short queries return none without a call.
func (c *Nominatim) Search(ctx context.Context, q string) ([]entities.AddressResult, error) {
	out := []entities.AddressResult{}
	if len(q) < MinQueryLen {
		return out, nil
	}
	v := url.Values{}
	v.Set("q", q)
	v.Set("format", "json")
	v.Set("limit", "5")
	v.Set("addressdetails", "1")
	v.Set("countrycodes", "us")
	raw, err := c.up.Get(ctx, c.base+"/search?"+v.Encode())
	if err != nil {
		return nil, err
	}
	for _, item := range gjson.ParseBytes(raw).Array() {
		lat, errLat := strconv.ParseFloat(item.Get("lat").String(), 64)
		lng, errLng := strconv.ParseFloat(item.Get("lon").String(), 64)
		if errLat != nil || errLng != nil {
			continue
		}
		out = append(out, entities.AddressResult{
			DisplayName: item.Get("display_name").String(),
			Lat:         lat,
			Lng:         lng,
			State:       item.Get("address.state").String(),
			County:      item.Get("address.county").String(),
		})
	}
	return out, nil
}
