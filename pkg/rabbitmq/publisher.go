package rabbitmq

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

var ErrNotConnected = errors.New("mqtt client not connected")

// IPublisher publishes a message on a topic.
type IPublisher interface {
	Publish(topic string, message any) error
	Close()
}

// Publisher sends JSON payloads on the shared MQTT client.
type Publisher struct {
	client  mqtt.Client
	timeout time.Duration
}

func NewPublisher(client mqtt.Client) *Publisher {
	return &Publisher{client: client, timeout: 5 * time.Second}
}

// Publish marshals message to JSON unless it is already a string or []byte.
func (p *Publisher) Publish(topic string, message any) error {
	if p.client == nil || !p.client.IsConnectionOpen() {
		return ErrNotConnected
	}

	var payload []byte
	switch m := message.(type) {
	case []byte:
		payload = m
	case string:
		payload = []byte(m)
	default:
		b, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("invalid message format: %w", err)
		}
		payload = b
	}

	token := p.client.Publish(topic, qosFor(topic), false, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	if token.Error() != nil {
		return fmt.Errorf("failed to publish message: %w", token.Error())
	}

	logrus.WithField("topic", topic).WithField("bytes", len(payload)).Debug("mqtt: published")
	return nil
}

func (p *Publisher) Connected() bool {
	return p.client != nil && p.client.IsConnectionOpen()
}

func (p *Publisher) Close() {
	CloseRabbitMQConn(p.client)
}
