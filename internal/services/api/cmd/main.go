package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/LeonardoBeccarini/farmai/internal/agents"
	"github.com/LeonardoBeccarini/farmai/internal/analysis"
	"github.com/LeonardoBeccarini/farmai/internal/cache"
	"github.com/LeonardoBeccarini/farmai/internal/chat"
	"github.com/LeonardoBeccarini/farmai/internal/config"
	"github.com/LeonardoBeccarini/farmai/internal/llm"
	"github.com/LeonardoBeccarini/farmai/internal/recommend"
	"github.com/LeonardoBeccarini/farmai/internal/services/api"
	"github.com/LeonardoBeccarini/farmai/internal/sources"
	"github.com/LeonardoBeccarini/farmai/internal/storage"
	"github.com/LeonardoBeccarini/farmai/pkg/rabbitmq"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("api: invalid configuration")
	}
	config.SetupLogging(cfg.Logging)
	log := logrus.WithField("svc", "api")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === Cache ===
	var c cache.Cache = cache.NewMemory(cfg.CacheMaxEntries)
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.WithError(err).Warn("api: redis unavailable, using in-process cache")
		} else {
			defer rc.Close()
			c = rc
			log.WithField("addr", cfg.RedisAddr).Info("api: redis cache enabled")
		}
	}

	// === Domain ===
	crops := analysis.DefaultCrops()
	if cfg.CropsTablePath != "" {
		if crops, err = analysis.LoadCrops(cfg.CropsTablePath); err != nil {
			log.WithError(err).Fatal("api: crop table")
		}
	}
	src := sources.New(cfg.Sources, c)
	gen := llm.NewGemini(cfg.LLM, cfg.Sources.Breaker)
	if cfg.LLM.APIKey == "" {
		log.Warn("api: GEMINI_API_KEY not set, agent and chat routes will fail")
	}

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.WithError(err).Fatal("api: open history")
	}
	defer store.Close()

	// === MQTT ===
	deps := api.Deps{
		Sources:   src,
		Scorer:    analysis.NewScorer(crops),
		Store:     store,
		Agents:    agents.New(gen),
		Chat:      chat.New(gen),
		Recommend: recommend.New(nil),
		Breakers: func() map[string]string {
			out := make(map[string]string)
			for name, st := range src.Breakers() {
				out[name] = st.String()
			}
			return out
		},
	}
	if cfg.MQTTEnabled {
		client, err := rabbitmq.NewRabbitMQConn(ctx, &cfg.Rabbit)
		if err != nil {
			log.WithError(err).Warn("api: mqtt unavailable, events disabled")
		} else {
			pub := rabbitmq.NewPublisher(client)
			defer pub.Close()
			deps.Events = pub
		}
	}

	server := api.NewServer(deps, api.Options{
		RequestTimeout: cfg.RequestTimeout,
		LLMRate:        cfg.LLMRate,
		LLMBurst:       cfg.LLMBurst,
	})
	stopCleanup := make(chan struct{})
	server.Limiter().StartCleanup(10*time.Minute, stopCleanup)

	// === HTTP ===
	hs := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTPPort),
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.WithField("port", cfg.HTTPPort).Info("api: HTTP listening")
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("api: http server error")
		}
	}()

	// === gRPC health ===
	grpcHealth := api.NewHealthServer()
	lis, err := net.Listen("tcp", ":"+strconv.Itoa(cfg.GRPCPort))
	if err != nil {
		log.WithError(err).Fatal("api: grpc listen")
	}
	go func() {
		if err := grpcHealth.Serve(lis); err != nil {
			log.WithError(err).Error("api: grpc serve")
		}
	}()

	// === Wait for signal ===
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Info("api: shutting down...")

	grpcHealth.Stop()
	close(stopCleanup)
	shCtx, shCancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer shCancel()
	if err := hs.Shutdown(shCtx); err != nil {
		log.WithError(err).Warn("api: http shutdown")
	}
	cancel()
}
