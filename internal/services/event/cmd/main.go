package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/sirupsen/logrus"

	"github.com/LeonardoBeccarini/farmai/internal/config"
	"github.com/LeonardoBeccarini/farmai/internal/services/event"
	"github.com/LeonardoBeccarini/farmai/pkg/dedup"
	"github.com/LeonardoBeccarini/farmai/pkg/rabbitmq"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("event-svc: invalid configuration")
	}
	config.SetupLogging(cfg.Logging)
	log := logrus.WithField("svc", "event")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === InfluxDB ===
	opts := influxdb2.DefaultOptions().
		SetBatchSize(uint(cfg.BatchSize)).
		SetFlushInterval(uint(cfg.FlushInterval.Milliseconds()))
	influx := influxdb2.NewClientWithOptions(cfg.InfluxURL, cfg.InfluxToken, opts)
	defer influx.Close()

	ping := func() error {
		ok, err := influx.Ping(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("influx not ready")
		}
		return nil
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
	if err := backoff.Retry(ping, bo); err != nil {
		log.WithError(err).Warn("event-svc: influx unreachable, writes will retry")
	}
	writer := event.NewWriter(influx.WriteAPI(cfg.InfluxOrg, cfg.InfluxBucket))

	// === MQTT ===
	mqttClient, err := rabbitmq.NewRabbitMQConn(ctx, &cfg.Rabbit)
	if err != nil {
		log.WithError(err).Fatal("event-svc: mqtt connection error")
	}
	defer rabbitmq.CloseRabbitMQConn(mqttClient)

	// === HTTP ===
	mux := http.NewServeMux()
	probe := event.NewProbe(mqttClient, influx, writer, cfg.ReadinessGrace)
	mux.HandleFunc("/healthz", probe.Health)
	mux.HandleFunc("/readyz", probe.Ready)
	mux.Handle("/events/latest", event.NewLatestHandler(influx, cfg.InfluxOrg, cfg.InfluxBucket))

	hs := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.WithField("port", cfg.HTTPPort).Info("event-svc: HTTP listening")
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("event-svc: http server error")
		}
	}()

	// === Consumer ===
	h := event.NewMQTTHandler(writer.Write)
	// QoS1 analysis events may be redelivered
	d := dedup.New(cfg.DedupWindow, 20000)
	consumer := rabbitmq.NewMultiConsumer(mqttClient, cfg.Topics(), func(sub string, m mqtt.Message) error {
		if !d.ShouldProcessPayload(m.Payload()) {
			log.WithField("topic", m.Topic()).Debug("event-svc: duplicate dropped")
			return nil
		}
		return h.Handle(sub, m)
	})
	go func() {
		if err := consumer.ConsumeMessage(ctx); err != nil {
			log.WithError(err).Fatal("event-svc: subscribe error")
		}
	}()

	// === Wait for signal ===
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Info("event-svc: shutting down...")

	shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shCancel()
	_ = hs.Shutdown(shCtx)

	cancel()
	writer.Flush()
}
