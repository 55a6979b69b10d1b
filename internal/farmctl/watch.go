package farmctl

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/LeonardoBeccarini/farmai/internal/config"
	msg "github.com/LeonardoBeccarini/farmai/internal/model/messages"
	"github.com/LeonardoBeccarini/farmai/internal/services/event"
	"github.com/LeonardoBeccarini/farmai/pkg/dedup"
	"github.com/LeonardoBeccarini/farmai/pkg/rabbitmq"
)

var defaultWatchTopics = []string{msg.TopicAnalysisCompleted + "#", msg.TopicAgentStep + "#"}

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow analysis and agent events from the broker",
		Long: `Watch subscribes to the MQTT broker the API publishes to and prints one line
per event until interrupted. The broker is configured with RABBITMQ_HOST,
RABBITMQ_PORT, RABBITMQ_USER and RABBITMQ_PASSWORD.`,
		Args: cobra.NoArgs,
		RunE: runWatchCmd,
	}
	cmd.Flags().StringSlice("topics", defaultWatchTopics, "topic filters to subscribe to")
	cmd.Flags().Bool("raw", false, "print the raw JSON payload instead of a summary")
	return cmd
}

func runWatchCmd(cmd *cobra.Command, _ []string) error {
	var cfg rabbitmq.RabbitMQConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}
	if cfg.ClientID == "" {
		cfg.ClientID = fmt.Sprintf("farmctl-%d", time.Now().UnixNano())
	}
	topics, _ := cmd.Flags().GetStringSlice("topics")
	raw, _ := cmd.Flags().GetBool("raw")

	ctx, cancel := signalContext(cmd)
	defer cancel()

	conn, err := rabbitmq.NewRabbitMQConn(ctx, &cfg)
	if err != nil {
		return err
	}
	defer rabbitmq.CloseRabbitMQConn(conn)

	p := newEventPrinter(cmd.OutOrStdout(), raw)
	logrus.WithField("topics", strings.Join(topics, ",")).Info("farmctl: watching")
	return rabbitmq.NewMultiConsumer(conn, topics, p.Handle).ConsumeMessage(ctx)
}

// eventPrinter writes one line per distinct event. Broker redeliveries are dropped.
type eventPrinter struct {
	mu    sync.Mutex
	out   io.Writer
	raw   bool
	dedup *dedup.Deduper
}

func newEventPrinter(out io.Writer, raw bool) *eventPrinter {
	return &eventPrinter{out: out, raw: raw, dedup: dedup.New(10*time.Minute, 5000)}
}

func (p *eventPrinter) Handle(_ string, m mqtt.Message) error {
	return p.Print(m.Topic(), m.Payload())
}

// Print formats one payload. Topics outside the farm tree are printed raw.
func (p *eventPrinter) Print(topic string, payload []byte) error {
	if !p.dedup.ShouldProcessPayload(payload) {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.raw {
		_, err := fmt.Fprintf(p.out, "%s %s\n", topic, payload)
		return err
	}
	evt, ok, err := event.Decode(topic, payload)
	if err != nil {
		return fmt.Errorf("decode %s: %w", topic, err)
	}
	if !ok {
		_, err := fmt.Fprintf(p.out, "%s %s\n", topic, payload)
		return err
	}
	_, err = fmt.Fprintln(p.out, FormatEvent(evt))
	return err
}

// FormatEvent renders an event as "15:04:05 TYPE id severity k=v ...", fields sorted by key.
func FormatEvent(e event.CommonEvent) string {
	var b strings.Builder
	b.WriteString(e.Timestamp.Local().Format("15:04:05"))
	b.WriteString(" ")
	b.WriteString(e.EventType)
	if e.AnalysisID != "" {
		b.WriteString(" " + e.AnalysisID)
	}
	if e.Agent != "" {
		b.WriteString(" agent=" + e.Agent)
	}
	b.WriteString(" [" + e.Severity + "]")

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Fields[k])
	}
	return b.String()
}
