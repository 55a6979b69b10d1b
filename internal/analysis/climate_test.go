package analysis

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/farmai/internal/model/wire"
)

var fixtureMins = [12]float64{-5, -3, 1, 5, 10, 14, 17, 16, 12, 6, -1, -4}

func ptr(v float64) *float64 { return &v }

func yearSeries(year int) *wire.DailySeries {
	s := &wire.DailySeries{}
	for d := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC); d.Year() == year; d = d.AddDate(0, 0, 1) {
		min := fixtureMins[int(d.Month())-1]
		s.Time = append(s.Time, d.Format("2006-01-02"))
		s.TemperatureMin = append(s.TemperatureMin, ptr(min))
		s.TemperatureMax = append(s.TemperatureMax, ptr(min+10))
		s.PrecipitationSum = append(s.PrecipitationSum, ptr(2))
	}
	return s
}

func TestClimateFromDaily(t *testing.T) {
	c, err := ClimateFromDaily(yearSeries(2001), 40)
	require.NoError(t, err)
	require.Len(t, c.MonthlyTemps, 12)

	assert.Equal(t, "Jan", c.MonthlyTemps[0].Month)
	assert.Equal(t, -5.0, c.MonthlyTemps[0].Min)
	assert.Equal(t, 5.0, c.MonthlyTemps[0].Max)
	assert.Equal(t, 62.0, c.MonthlyTemps[0].Precip)
	assert.Equal(t, 56.0, c.MonthlyTemps[1].Precip)

	assert.Equal(t, 245, c.GrowingDays)
	assert.Equal(t, "8b", c.HardinessZone)
	assert.Equal(t, "Feb 15", c.LastFrost)
	assert.Equal(t, "Nov 15", c.FirstFrost)
	assert.Equal(t, 730.0, c.AnnualPrecip)
	assert.Equal(t, 10.7, c.AvgAnnualTemp)

	assert.Greater(t, c.MonthlyTemps[6].ET0, c.MonthlyTemps[0].ET0)
}

func TestClimateMissingSamplesCountAsZero(t *testing.T) {
	s := &wire.DailySeries{
		Time:             []string{"2001-01-01", "2001-01-02"},
		TemperatureMax:   []*float64{ptr(10), nil},
		TemperatureMin:   []*float64{ptr(-4), nil},
		PrecipitationSum: []*float64{nil, ptr(4)},
	}
	c, err := ClimateFromDaily(s, math.NaN())
	require.NoError(t, err)
	assert.Equal(t, 5.0, c.MonthlyTemps[0].Max)
	assert.Equal(t, -2.0, c.MonthlyTemps[0].Min)
	assert.Equal(t, 62.0, c.MonthlyTemps[0].Precip)
	assert.Zero(t, c.MonthlyTemps[0].ET0)
	// months without samples average to zero
	assert.Zero(t, c.MonthlyTemps[5].Max)
}

func TestClimateFromDailyErrors(t *testing.T) {
	_, err := ClimateFromDaily(nil, 0)
	assert.ErrorIs(t, err, ErrNoClimateData)

	_, err = ClimateFromDaily(&wire.DailySeries{Time: []string{"not-a-date"}}, 0)
	assert.Error(t, err)
}

func TestFrostDefaults(t *testing.T) {
	c, err := ClimateFromDaily(&wire.DailySeries{
		Time:           []string{"2001-01-01"},
		TemperatureMin: []*float64{ptr(5)},
		TemperatureMax: []*float64{ptr(15)},
	}, math.NaN())
	require.NoError(t, err)
	// every other month averages to 0, which counts as frost
	assert.Equal(t, "Jun 15", c.LastFrost)
	assert.Equal(t, "Jul 15", c.FirstFrost)

	mild := FallbackClimate(20).MonthlyTemps
	for i := range mild {
		mild[i].Min = 5
	}
	last, first := frostMonths(mild)
	assert.Equal(t, 2, last)
	assert.Equal(t, 9, first)
}

func TestHardinessZone(t *testing.T) {
	cases := map[float64]string{
		-46: "1a",
		-20: "6a",
		-17: "6b",
		-5:  "8b",
		4:   "10a",
		5:   "10b",
	}
	for c, want := range cases {
		assert.Equal(t, want, HardinessZone(c), "%.1f°C", c)
	}
}

func TestFallbackClimate(t *testing.T) {
	north := FallbackClimate(45)
	assert.Equal(t, "5b", north.HardinessZone)
	assert.Equal(t, 160, north.GrowingDays)
	assert.Len(t, north.MonthlyTemps, 12)

	south := FallbackClimate(-30)
	assert.Equal(t, "7b", south.HardinessZone)
	assert.Equal(t, 220, south.GrowingDays)
	assert.Equal(t, 900.0, south.AnnualPrecip)
}

func TestHargreaves(t *testing.T) {
	assert.Zero(t, etoHargreaves(10, 5, 10))
	assert.InDelta(t, 0.0023*(20+17.8)*math.Sqrt(10)*5, etoHargreaves(15, 25, 5), 1e-9)
	assert.Greater(t, extraterrestrialRadiation(40, 172), extraterrestrialRadiation(40, 355))
	assert.Zero(t, extraterrestrialRadiation(85, 355))
}
