// Package sources talks to the public data providers behind a parcel analysis.
// Every provider has its own circuit breaker; successful answers are cached by
// rounded coordinate. Callers decide on fallbacks.
package sources

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/LeonardoBeccarini/farmai/internal/cache"
	"github.com/LeonardoBeccarini/farmai/internal/metrics"
	"github.com/LeonardoBeccarini/farmai/internal/model/entities"
	"github.com/LeonardoBeccarini/farmai/internal/model/wire"
)

type Config struct {
	USDAURL      string `env:"USDA_SDA_URL,default=https://sdmdataaccess.nrcs.usda.gov/Tabular/SDMTabularService/post.rest"`
	ForecastURL  string `env:"OPEN_METEO_FORECAST_URL,default=https://api.open-meteo.com/v1/forecast"`
	ArchiveURL   string `env:"OPEN_METEO_ARCHIVE_URL,default=https://archive-api.open-meteo.com/v1/archive"`
	ArchiveStart string `env:"OPEN_METEO_ARCHIVE_START,default=1993-01-01"`
	ArchiveEnd   string `env:"OPEN_METEO_ARCHIVE_END,default=2023-12-31"`
	ElevationURL string `env:"OPEN_ELEVATION_URL,default=https://api.open-elevation.com/api/v1/lookup"`
	NWSURL       string `env:"NWS_URL,default=https://api.weather.gov"`
	NominatimURL string `env:"NOMINATIM_URL,default=https://nominatim.openstreetmap.org"`
	UserAgent    string `env:"UPSTREAM_USER_AGENT,default=FarmAI/1.0 (contact@farmai.app)"`

	Timeout  time.Duration `env:"UPSTREAM_TIMEOUT,default=10s"`
	CacheTTL time.Duration `env:"UPSTREAM_CACHE_TTL,default=6h"`
	Breaker  BreakerConfig
}

func DefaultConfig() Config {
	return Config{
		USDAURL:      "https://sdmdataaccess.nrcs.usda.gov/Tabular/SDMTabularService/post.rest",
		ForecastURL:  "https://api.open-meteo.com/v1/forecast",
		ArchiveURL:   "https://archive-api.open-meteo.com/v1/archive",
		ArchiveStart: "1993-01-01",
		ArchiveEnd:   "2023-12-31",
		ElevationURL: "https://api.open-elevation.com/api/v1/lookup",
		NWSURL:       "https://api.weather.gov",
		NominatimURL: "https://nominatim.openstreetmap.org",
		UserAgent:    "FarmAI/1.0 (contact@farmai.app)",
		Timeout:      10 * time.Second,
		CacheTTL:     6 * time.Hour,
		Breaker:      BreakerConfig{Failures: 3, OpenMs: 30000, IntervalMs: 60000},
	}
}

// Sources bundles the provider clients behind one cache.
type Sources struct {
	usda      *USDA
	meteo     *OpenMeteo
	elevation *OpenElevation
	nws       *NWS
	geocoder  *Nominatim
	upstreams []*Upstream

	cache cache.Cache
	ttl   time.Duration
}

// New wires every provider. c may be nil to disable caching.
func New(cfg Config, c cache.Cache) *Sources {
	mk := func(name string) *Upstream {
		return NewUpstream(name, cfg.Timeout, cfg.Breaker, cfg.UserAgent)
	}
	usda := mk("usda-sda")
	forecast := mk("open-meteo-forecast")
	archive := mk("open-meteo-archive")
	elevation := mk("open-elevation")
	nws := mk("nws")
	nominatim := mk("nominatim")

	return &Sources{
		usda:      NewUSDA(usda, cfg.USDAURL),
		meteo:     NewOpenMeteo(forecast, archive, cfg.ForecastURL, cfg.ArchiveURL, cfg.ArchiveStart, cfg.ArchiveEnd),
		elevation: NewOpenElevation(elevation, cfg.ElevationURL),
		nws:       NewNWS(nws, cfg.NWSURL),
		geocoder:  NewNominatim(nominatim, cfg.NominatimURL),
		upstreams: []*Upstream{usda, forecast, archive, elevation, nws, nominatim},
		cache:     c,
		ttl:       cfg.CacheTTL,
	}
}

func (s *Sources) Soil(ctx context.Context, lat, lng float64) (entities.Soil, error) {
	return cached(ctx, s, "usda-sda", cache.CoordKey("soil", lat, lng), func(ctx context.Context) (entities.Soil, error) {
		return s.usda.Soil(ctx, lat, lng)
	})
}

func (s *Sources) Forecast(ctx context.Context, lat, lng float64) (wire.Weather, error) {
	// Forecasts age quickly; cap their lifetime at an hour.
	ttl := s.ttl
	if ttl > time.Hour {
		ttl = time.Hour
	}
	v, hit, err := cache.GetOrLoad(ctx, s.cache, cache.CoordKey("forecast", lat, lng), ttl, func(ctx context.Context) (wire.Weather, error) {
		return s.meteo.Forecast(ctx, lat, lng)
	})
	if hit {
		metrics.RecordUpstream("open-meteo-forecast", "cached", 0)
	}
	return v, err
}

func (s *Sources) Historical(ctx context.Context, lat, lng float64) (wire.Weather, error) {
	return cached(ctx, s, "open-meteo-archive", cache.CoordKey("archive", lat, lng), func(ctx context.Context) (wire.Weather, error) {
		return s.meteo.Historical(ctx, lat, lng)
	})
}

func (s *Sources) Elevation(ctx context.Context, lat, lng float64) (float64, error) {
	return cached(ctx, s, "open-elevation", cache.CoordKey("elevation", lat, lng), func(ctx context.Context) (float64, error) {
		return s.elevation.Elevation(ctx, lat, lng)
	})
}

// Alerts are never cached.
func (s *Sources) Alerts(ctx context.Context, lat, lng float64) ([]entities.Alert, error) {
	return s.nws.Alerts(ctx, lat, lng)
}

func (s *Sources) Geocode(ctx context.Context, q string) ([]entities.AddressResult, error) {
	if len(q) < MinQueryLen {
		return []entities.AddressResult{}, nil
	}
	return cached(ctx, s, "nominatim", "geocode:"+q, func(ctx context.Context) ([]entities.AddressResult, error) {
		return s.geocoder.Search(ctx, q)
	})
}

// Breakers reports the state of every provider breaker by name.
func (s *Sources) Breakers() map[string]gobreaker.State {
	out := make(map[string]gobreaker.State, len(s.upstreams))
	for _, u := range s.upstreams {
		out[u.Name()] = u.State()
	}
	return out
}

func cached[T any](ctx context.Context, s *Sources, upstream, key string, load func(context.Context) (T, error)) (T, error) {
	v, hit, err := cache.GetOrLoad(ctx, s.cache, key, s.ttl, load)
	if hit {
		metrics.RecordUpstream(upstream, "cached", 0)
	}
	return v, err
}
