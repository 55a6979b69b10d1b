package analysis

import (
	"fmt"
	"math"
	"time"

	"github.com/LeonardoBeccarini/farmai/internal/model/entities"
	"github.com/LeonardoBeccarini/farmai/internal/model/wire"
)

var (
	monthNames  = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	daysInMonth = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
)

// MonthName returns the three-letter name of a zero-based month.
func MonthName(m int) string { return monthNames[((m%12)+12)%12] }

type monthBucket struct {
	maxSum, minSum, precipSum float64
	count                     int
}

// ClimateFromDaily summarises a multi-year daily series into monthly normals,
// hardiness zone, growing days and frost dates. Missing samples count as zero.
// lat is used for reference evapotranspiration; pass NaN to skip it.
func ClimateFromDaily(daily *wire.DailySeries, lat float64) (entities.Climate, error) {
	if daily == nil || len(daily.Time) == 0 {
		return entities.Climate{}, ErrNoClimateData
	}

	var buckets [12]monthBucket
	for i, ts := range daily.Time {
		t, err := time.Parse("2006-01-02", ts)
		if err != nil {
			return entities.Climate{}, fmt.Errorf("daily time %q: %w", ts, err)
		}
		b := &buckets[int(t.Month())-1]
		b.maxSum += valueAt(daily.TemperatureMax, i)
		b.minSum += valueAt(daily.TemperatureMin, i)
		b.precipSum += valueAt(daily.PrecipitationSum, i)
		b.count++
	}

	monthly := make([]entities.MonthlyClimate, 12)
	for i, b := range buckets {
		n := float64(b.count)
		if b.count == 0 {
			n = 1
		}
		monthly[i] = entities.MonthlyClimate{
			Month:  monthNames[i],
			Max:    round1(b.maxSum / n),
			Min:    round1(b.minSum / n),
			Precip: round1(b.precipSum / n * float64(daysInMonth[i])),
		}
	}
	if !math.IsNaN(lat) {
		for i := range monthly {
			monthly[i].ET0 = MonthlyET0(lat, i, monthly[i].Min, monthly[i].Max)
		}
	}
	return summarise(monthly), nil
}

func valueAt(xs []*float64, i int) float64 {
	if i < len(xs) && xs[i] != nil {
		return *xs[i]
	}
	return 0
}

// summarise derives the annual figures from twelve monthly normals.
func summarise(monthly []entities.MonthlyClimate) entities.Climate {
	var tempSum, precipSum float64
	growing := 0
	for i, m := range monthly {
		tempSum += (m.Max + m.Min) / 2
		precipSum += m.Precip
		if m.Min > 0 {
			growing += daysInMonth[i]
		}
	}

	minWinter := math.Inf(1)
	for _, i := range []int{0, 1, 10, 11} {
		minWinter = math.Min(minWinter, monthly[i].Min)
	}

	last, first := frostMonths(monthly)
	return entities.Climate{
		MonthlyTemps:  monthly,
		AvgAnnualTemp: round1(tempSum / 12),
		AnnualPrecip:  roundHalfUp(precipSum),
		GrowingDays:   growing,
		HardinessZone: HardinessZone(minWinter),
		LastFrost:     monthNames[last] + " 15",
		FirstFrost:    monthNames[first] + " 15",
	}
}

// frostMonths returns the last spring month (Jan-Jun) and first autumn month
// (Jul-Dec) whose mean minimum is at or below freezing. Defaults are Mar and Oct.
func frostMonths(monthly []entities.MonthlyClimate) (last, first int) {
	last, first = 2, 9
	for i := 0; i <= 5; i++ {
		if monthly[i].Min <= 0 {
			last = i
		}
	}
	for i := 11; i >= 6; i-- {
		if monthly[i].Min <= 0 {
			first = i
		}
	}
	return last, first
}

// FallbackClimate is a coarse latitude-based climate used when no history is available.
func FallbackClimate(lat float64) entities.Climate {
	cold := math.Abs(lat) > 40
	minBase, maxBase := 5.0, 18.0
	c := entities.Climate{
		AvgAnnualTemp: 18,
		AnnualPrecip:  900,
		GrowingDays:   220,
		HardinessZone: "7b",
		LastFrost:     "Apr 15",
		FirstFrost:    "Oct 20",
	}
	if cold {
		minBase, maxBase = -5, 5
		c.AvgAnnualTemp, c.GrowingDays, c.HardinessZone = 10, 160, "5b"
	}

	c.MonthlyTemps = make([]entities.MonthlyClimate, 12)
	for i := range c.MonthlyTemps {
		factor := math.Sin(float64(i-1) * math.Pi / 6)
		m := entities.MonthlyClimate{
			Month:  monthNames[i],
			Min:    roundHalfUp(minBase + factor*15),
			Max:    roundHalfUp(maxBase + factor*15),
			Precip: roundHalfUp(50 + math.Sin(float64(i+3)*math.Pi/6)*30),
		}
		m.ET0 = MonthlyET0(lat, i, m.Min, m.Max)
		c.MonthlyTemps[i] = m
	}
	return c
}

// ===== Reference evapotranspiration =====

// etoHargreaves returns daily ET0 in mm from temperatures (°C) and
// extraterrestrial radiation expressed as equivalent evaporation (mm/day).
func etoHargreaves(tmin, tmax, ra float64) float64 {
	tmean := (tmin + tmax) / 2.0
	return 0.0023 * (tmean + 17.8) * math.Sqrt(math.Max(tmax-tmin, 0)) * ra
}

// extraterrestrialRadiation is FAO-56 Ra in MJ m-2 day-1.
func extraterrestrialRadiation(latDeg float64, dayOfYear int) float64 {
	const gsc = 0.0820
	phi := latDeg * math.Pi / 180
	j := float64(dayOfYear)
	dr := 1 + 0.033*math.Cos(2*math.Pi/365*j)
	delta := 0.409 * math.Sin(2*math.Pi/365*j-1.39)
	x := math.Max(-1, math.Min(1, -math.Tan(phi)*math.Tan(delta)))
	ws := math.Acos(x)
	ra := 24 * 60 / math.Pi * gsc * dr * (ws*math.Sin(phi)*math.Sin(delta) + math.Cos(phi)*math.Cos(delta)*math.Sin(ws))
	return math.Max(ra, 0)
}

// MonthlyET0 estimates the month's reference evapotranspiration (mm) from its
// mean temperatures, evaluated on the 15th.
func MonthlyET0(lat float64, month int, tmin, tmax float64) float64 {
	doy := 15
	for i := 0; i < month; i++ {
		doy += daysInMonth[i]
	}
	ra := 0.408 * extraterrestrialRadiation(lat, doy)
	return round1(etoHargreaves(tmin, tmax, ra) * float64(daysInMonth[month]))
}
