package main

import (
	"strings"
	"time"

	"github.com/LeonardoBeccarini/farmai/internal/config"
	"github.com/LeonardoBeccarini/farmai/pkg/rabbitmq"
)

const defaultTopics = "farm/analysis/#,farm/agent/#"

type Config struct {
	config.Logging
	Rabbit rabbitmq.RabbitMQConfig

	InfluxURL    string `env:"INFLUX_URL,default=http://localhost:8086"`
	InfluxToken  string `env:"INFLUX_TOKEN"`
	InfluxOrg    string `env:"INFLUX_ORG,default=farmai"`
	InfluxBucket string `env:"INFLUX_BUCKET,default=events"`

	RawTopics     string        `env:"EVENT_SUB_TOPICS"`
	BatchSize     int           `env:"WRITE_BATCH_SIZE,default=10"`
	FlushInterval time.Duration `env:"WRITE_FLUSH_INTERVAL,default=200ms"`
	DedupWindow   time.Duration `env:"DEDUP_WINDOW,default=10m"`

	HTTPPort       int           `env:"HTTP_PORT,default=8080"`
	ReadinessGrace time.Duration `env:"READINESS_GRACE,default=5s"`
}

// Topics splits EVENT_SUB_TOPICS on commas.
func (c Config) Topics() []string {
	parts := strings.Split(c.RawTopics, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.Rabbit.ClientID == "" {
		cfg.Rabbit.ClientID = "event-service"
	}
	if strings.TrimSpace(cfg.RawTopics) == "" {
		cfg.RawTopics = defaultTopics
	}
	return cfg, nil
}
