package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"stackscout/internal/platform/config"
	"stackscout/internal/platform/logger"
)

// DefaultTopic is used when no topic is configured
const DefaultTopic = "stackscout.events"

// KafkaConfig configures the kafka transport
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// KafkaFromConfig reads EVENTS_KAFKA_BROKERS, EVENTS_KAFKA_TOPIC and EVENTS_KAFKA_GROUP
func KafkaFromConfig(cfg config.Conf) KafkaConfig {
	k := cfg.Prefix("EVENTS_KAFKA_")
	return KafkaConfig{
		Brokers: k.MayCSV("BROKERS", nil),
		Topic:   k.MayString("TOPIC", DefaultTopic),
		GroupID: k.MayString("GROUP", "stackscout-worker"),
	}
}

// Enabled reports whether any broker is configured
func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 }

func (c KafkaConfig) topic() string {
	if c.Topic == "" {
		return DefaultTopic
	}
	return c.Topic
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink writes every published event to a topic keyed by PartitionKey
type KafkaSink struct {
	w   messageWriter
	now func() time.Time
}

// NewKafkaSink builds a sink writing to cfg.Topic
func NewKafkaSink(cfg KafkaConfig) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("events: no kafka brokers configured")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.topic(),
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
	}
	return &KafkaSink{w: w, now: time.Now}, nil
}

// Send implements Sink
func (s *KafkaSink) Send(ctx context.Context, e Event) error {
	at := s.now()
	b, err := Encode(e, at)
	if err != nil {
		return err
	}
	return s.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(PartitionKey(e)),
		Value: b,
		Time:  at,
	})
}

// Close implements Sink
func (s *KafkaSink) Close() error { return s.w.Close() }

// KafkaConsumer reads framed events from a topic and delivers them to a bus
type KafkaConsumer struct {
	r   messageReader
	bus *Bus
	log logger.Logger
}

// NewKafkaConsumer joins cfg.GroupID on cfg.Topic
func NewKafkaConsumer(cfg KafkaConfig, bus *Bus) (*KafkaConsumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("events: no kafka brokers configured")
	}
	if cfg.GroupID == "" {
		return nil, errors.New("events: kafka consumer needs a group id")
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.topic(),
		GroupID:        cfg.GroupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: 0,
	})
	return &KafkaConsumer{r: r, bus: bus, log: *logger.Named("events.kafka")}, nil
}

// Run consumes until ctx is done
// messages are committed after delivery, undecodable ones included
func (c *KafkaConsumer) Run(ctx context.Context) error {
	defer func() { _ = c.r.Close() }()
	for {
		msg, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("events: fetch: %w", err)
		}

		evt, env, err := Decode(msg.Value)
		switch {
		case err != nil:
			c.log.Error().Err(err).Str("key", string(msg.Key)).Int64("offset", msg.Offset).Msg("dropping undecodable message")
		default:
			if derr := c.bus.Deliver(ctx, evt); derr != nil {
				c.log.Error().Err(derr).Str("event", env.Name).Int64("offset", msg.Offset).Msg("delivery failed")
			}
		}

		if err := c.r.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("events: commit: %w", err)
		}
	}
}
