package rabbitmq

import (
	"context"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

// Handler processes one message received on a subscription.
type Handler func(subscription string, message mqtt.Message) error

// qosFor gives analysis results at-least-once delivery; agent steps are best effort.
func qosFor(topic string) byte {
	if strings.HasPrefix(strings.TrimSpace(topic), "farm/analysis") {
		return 1
	}
	return 0
}

// MultiConsumer subscribes one handler to several topic filters.
type MultiConsumer struct {
	client  mqtt.Client
	topics  []string
	handler Handler
}

func NewMultiConsumer(client mqtt.Client, topics []string, handler Handler) *MultiConsumer {
	return &MultiConsumer{client: client, topics: topics, handler: handler}
}

func (m *MultiConsumer) SetHandler(handler Handler) {
	m.handler = handler
}

// Subscribe registers every topic and returns the first subscription error.
func (m *MultiConsumer) Subscribe() error {
	for _, topic := range m.topics {
		topic := topic
		token := m.client.Subscribe(topic, qosFor(topic), func(_ mqtt.Client, msg mqtt.Message) {
			if m.handler == nil {
				logrus.WithField("topic", topic).Warn("mqtt: no handler set")
				return
			}
			if err := m.handler(topic, msg); err != nil {
				logrus.WithError(err).WithField("topic", msg.Topic()).Warn("mqtt: handler failed")
			}
		})
		if token.Wait() && token.Error() != nil {
			return token.Error()
		}
		logrus.WithField("topic", topic).Info("mqtt: subscribed")
	}
	return nil
}

// ConsumeMessage subscribes and blocks until ctx is done, then unsubscribes.
func (m *MultiConsumer) ConsumeMessage(ctx context.Context) error {
	if err := m.Subscribe(); err != nil {
		return err
	}
	<-ctx.Done()
	if len(m.topics) > 0 {
		m.client.Unsubscribe(m.topics...).Wait()
	}
	return nil
}
