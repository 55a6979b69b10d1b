// Package rabbitmq connects to the RabbitMQ MQTT plugin and publishes or consumes JSON events.
package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

type RabbitMQConfig struct {
	Host     string `env:"RABBITMQ_HOST,default=localhost"`
	Port     int    `env:"RABBITMQ_PORT,default=1883"`
	User     string `env:"RABBITMQ_USER,default=guest"`
	Password string `env:"RABBITMQ_PASSWORD,default=guest"`
	ClientID string `env:"HOSTNAME"`
	// Retries bounds the exponential backoff on connect.
	Retries int `env:"RABBITMQ_CONNECT_RETRIES,default=5"`
}

func (c RabbitMQConfig) Addr() string { return fmt.Sprintf("tcp://%s:%d", c.Host, c.Port) }

// NewRabbitMQConn connects with exponential backoff. ctx only bounds the retries;
// the caller disconnects with CloseRabbitMQConn.
func NewRabbitMQConn(ctx context.Context, cfg *RabbitMQConfig) (mqtt.Client, error) {
	connAddr := cfg.Addr()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(connAddr)
	opts.SetUsername(cfg.User)
	opts.SetPassword(cfg.Password)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logrus.WithError(err).Warn("mqtt: connection lost")
	})

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 10 * time.Second
	retries := cfg.Retries
	if retries < 1 {
		retries = 1
	}

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			logrus.WithError(token.Error()).WithField("broker", connAddr).Warn("mqtt: connect failed")
			return token.Error()
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(retries-1)), ctx))
	if err != nil {
		return nil, fmt.Errorf("could not establish MQTT connection after retries: %w", err)
	}

	logrus.WithField("broker", connAddr).Info("mqtt: connected")
	return client, nil
}

func CloseRabbitMQConn(client mqtt.Client) {
	if client != nil && client.IsConnected() {
		client.Disconnect(250)
		logrus.Info("mqtt: connection closed")
	}
}
