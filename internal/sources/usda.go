package sources

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/LeonardoBeccarini/farmai/internal/model/entities"
)

const sdaQuery = `
SELECT TOP 1
  mu.muname,
  m.ph1to1h2o_r,
  m.drclassdcd,
  m.om_r,
  m.awc_r,
  m.sandtotal_r,
  m.silttotal_r,
  m.claytotal_r
FROM mapunit AS mu
INNER JOIN muaggatt AS m ON mu.mukey = m.mukey
WHERE mu.mukey IN (
  SELECT DISTINCT mupolygonkey
  FROM SDA_Get_Mukey_from_intersection_with_WktWgs84('POINT(%s %s)')
)`

var sdaColumns = []string{
	"muname", "ph1to1h2o_r", "drclassdcd", "om_r",
	"awc_r", "sandtotal_r", "silttotal_r", "claytotal_r",
}

// USDA queries the NRCS Soil Data Access tabular service.
type USDA struct {
	up  *Upstream
	url string
}

func NewUSDA(up *Upstream, url string) *USDA { return &USDA{up: up, url: url} }

// Soil returns the dominant map unit at the point.
func (c *USDA) Soil(ctx context.Context, lat, lng float64) (entities.Soil, error) {
	body := map[string]string{
		"query":  fmt.Sprintf(sdaQuery, ftoa(lng), ftoa(lat)),
		"format": "JSON+COLUMNNAME",
	}
	raw, err := c.up.PostJSON(ctx, c.url, body)
	if err != nil {
		return entities.Soil{}, err
	}
	row, ok := sdaRow(raw)
	if !ok {
		return entities.Soil{}, fmt.Errorf("usda: %w", ErrNoData)
	}
	return entities.Soil{
		Name:          orString(row["muname"], "Unknown soil type"),
		PH:            orFloat(row["ph1to1h2o_r"], 6.5),
		Drainage:      orString(row["drclassdcd"], "Well drained"),
		OrganicMatter: orFloat(row["om_r"], 2.5),
		AWC:           orFloat(row["awc_r"], 0.15),
		Sand:          orFloat(row["sandtotal_r"], 40),
		Silt:          orFloat(row["silttotal_r"], 40),
		Clay:          orFloat(row["claytotal_r"], 20),
	}, nil
}

// sdaRow maps the first data row by column name. With JSON+COLUMNNAME the
// first entry of Table is the header; without it columns follow the SELECT order.
func sdaRow(raw []byte) (map[string]string, bool) {
	rows := gjson.GetBytes(raw, "Table").Array()
	if len(rows) == 0 {
		return nil, false
	}
	header := sdaColumns
	data := rows[0]
	if first := rows[0].Array(); len(first) > 0 && strings.EqualFold(first[0].String(), "muname") {
		if len(rows) < 2 {
			return nil, false
		}
		header = make([]string, len(first))
		for i, h := range first {
			header[i] = strings.ToLower(h.String())
		}
		data = rows[1]
	}
	vals := data.Array()
	out := make(map[string]string, len(header))
	for i, h := range header {
		if i < len(vals) {
			out[h] = vals[i].String()
		}
	}
	return out, true
}

func orString(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}

// orFloat treats unparsable and zero values as missing.
func orFloat(s string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f == 0 {
		return def
	}
	return f
}

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
