package main

import (
	"time"

	"github.com/LeonardoBeccarini/farmai/internal/config"
	"github.com/LeonardoBeccarini/farmai/internal/llm"
	"github.com/LeonardoBeccarini/farmai/internal/sources"
	"github.com/LeonardoBeccarini/farmai/pkg/rabbitmq"
)

type Config struct {
	config.Logging
	Sources sources.Config
	LLM     llm.Config
	Rabbit  rabbitmq.RabbitMQConfig

	HTTPPort int    `env:"PORT,default=8000"`
	GRPCPort int    `env:"GRPC_PORT,default=50051"`
	DBPath   string `env:"DB_PATH,default=data/farmai.db"`

	// REDIS_ADDR empty selects the in-process cache.
	RedisAddr       string `env:"REDIS_ADDR"`
	RedisPassword   string `env:"REDIS_PASSWORD"`
	RedisDB         int    `env:"REDIS_DB,default=0"`
	CacheMaxEntries int    `env:"CACHE_MAX_ENTRIES,default=10000"`

	CropsTablePath string `env:"CROPS_TABLE_PATH"`
	MQTTEnabled    bool   `env:"MQTT_ENABLED,default=true"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT,default=30s"`
	LLMRate        float64       `env:"LLM_RATE_PER_SEC,default=1"`
	LLMBurst       int           `env:"LLM_RATE_BURST,default=5"`
	ShutdownGrace  time.Duration `env:"SHUTDOWN_GRACE,default=10s"`
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.Rabbit.ClientID == "" {
		cfg.Rabbit.ClientID = "farmai-api"
	}
	return cfg, nil
}
