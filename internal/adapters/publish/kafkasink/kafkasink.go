// Package kafkasink publishes decoded activity entries to a Kafka topic,
// one JSON message per entry keyed by activity
package kafkasink

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"timejar/internal/core/dal"
	"timejar/internal/platform/config"
	perr "timejar/internal/platform/errors"
	"timejar/internal/platform/logger"
)

const defaultTopic = "timejar.activity_entries"

// Config configures the Kafka sink
type Config struct {
	Enabled bool
	Brokers []string `validate:"required_if=Enabled true,dive,hostname_port"`
	Topic   string   `validate:"required_if=Enabled true"`

	// BatchTimeout bounds how long the writer waits to fill a batch
	BatchTimeout time.Duration
}

// ConfigFromEnv reads SERVICE_KAFKA_*
func ConfigFromEnv(cfg config.Conf) Config {
	k := cfg.Prefix("SERVICE_KAFKA_")
	return Config{
		Enabled:      k.MayBool("ENABLED", false),
		Brokers:      k.MayCSV("BROKERS", nil),
		Topic:        k.MayString("TOPIC", defaultTopic),
		BatchTimeout: k.MayDuration("BATCH_TIMEOUT", 50*time.Millisecond),
	}
}

// Writer is the part of *kafka.Writer the sink needs
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Message is the JSON value written for every entry
type Message struct {
	RunID     string    `json:"run_id"`
	Source    string    `json:"source"`
	DT        time.Time `json:"dt"`
	DurationS int64     `json:"duration_s"`
	Activity  string    `json:"activity"`
}

// Sink writes entries to one topic
type Sink struct {
	w     Writer
	topic string
	log   *logger.Logger
}

// New builds a sink over a synchronous kafka.Writer that waits for all replicas
func New(cfg Config) (*Sink, error) {
	brokers := make([]string, 0, len(cfg.Brokers))
	for _, b := range cfg.Brokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return nil, perr.InvalidArgf("kafka: no brokers configured")
	}
	topic := cfg.Topic
	if topic == "" {
		topic = defaultTopic
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		BatchTimeout: cfg.BatchTimeout,
		Async:        false,
	}
	return NewWithWriter(w, topic), nil
}

// NewWithWriter wraps an existing writer; topic is informational
func NewWithWriter(w Writer, topic string) *Sink {
	return &Sink{w: w, topic: topic, log: logger.Named("kafkasink")}
}

// Topic returns the destination topic
func (s *Sink) Topic() string { return s.topic }

// Encode turns entries into keyed Kafka messages
func Encode(runID, source string, es []dal.Entry) ([]kafka.Message, error) {
	out := make([]kafka.Message, 0, len(es))
	for _, e := range es {
		body, err := json.Marshal(Message{
			RunID:     runID,
			Source:    source,
			DT:        e.DT,
			DurationS: e.DurationS,
			Activity:  e.Activity,
		})
		if err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeJSON, "kafka: encode entry")
		}
		out = append(out, kafka.Message{
			Key:   []byte(e.Activity),
			Value: body,
			Time:  e.DT,
		})
	}
	return out, nil
}

// Publish writes one batch of entries coming from the same source
func (s *Sink) Publish(ctx context.Context, runID, source string, es []dal.Entry) error {
	if len(es) == 0 {
		return nil
	}
	msgs, err := Encode(runID, source, es)
	if err != nil {
		return err
	}
	if err := s.w.WriteMessages(ctx, msgs...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "kafka: write %d messages to %s", len(msgs), s.topic)
	}
	s.log.Debug().Str("topic", s.topic).Int("messages", len(msgs)).Msg("kafka: batch published")
	return nil
}

// Close flushes and closes the writer
func (s *Sink) Close() error {
	if s == nil || s.w == nil {
		return nil
	}
	return s.w.Close()
}
