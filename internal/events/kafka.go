// AngelaMos | 2026
// kafka.go

package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/carterperez-dev/storefront/internal/config"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer  messageWriter
	brokers []string
	timeout time.Duration
}

func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	brokers := cfg.BrokerList()

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           cfg.WriteTimeout,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
		Async:                  true,
		Completion:             logFailedDelivery,
	}

	return &KafkaPublisher{
		writer:  w,
		brokers: brokers,
		timeout: cfg.WriteTimeout,
	}
}

// Publish writes events keyed by entity so changes to one row stay ordered
// on a single partition.
func (p *KafkaPublisher) Publish(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		value, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode %s event: %w", e.Type, err)
		}

		msgs = append(msgs, kafka.Message{
			Key:   []byte(e.Entity + ":" + strconv.FormatInt(e.EntityID, 10)),
			Value: value,
			Time:  e.OccurredAt,
			Headers: []kafka.Header{
				{Key: "event-type", Value: []byte(e.Type)},
			},
		})
	}

	writeCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		writeCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	if err := p.writer.WriteMessages(writeCtx, msgs...); err != nil {
		return fmt.Errorf("publish %d events: %w", len(msgs), err)
	}

	return nil
}

// Ping dials the first reachable broker.
func (p *KafkaPublisher) Ping(ctx context.Context) error {
	var errs []error

	for _, broker := range p.brokers {
		conn, err := kafka.DialContext(ctx, "tcp", broker)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		_ = conn.Close() //nolint:errcheck // probe connection
		return nil
	}

	return fmt.Errorf("kafka unreachable: %w", errors.Join(errs...))
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// logFailedDelivery reports async batches the brokers rejected. Async writes
// surface delivery errors only here.
func logFailedDelivery(messages []kafka.Message, err error) {
	if err == nil {
		return
	}

	types := make([]string, 0, len(messages))
	for _, m := range messages {
		for _, h := range m.Headers {
			if h.Key == "event-type" {
				types = append(types, string(h.Value))
			}
		}
	}
	slog.Error("event delivery failed",
		"events", types,
		"count", len(messages),
		"error", err,
	)
}

// PublishSafe publishes and only logs failures. Domain writes have already
// committed when events are emitted, so the request's cancellation does not
// apply to the publish.
func PublishSafe(ctx context.Context, pub Publisher, events ...Event) {
	ctx = context.WithoutCancel(ctx)
	if err := pub.Publish(ctx, events...); err != nil {
		types := make([]string, len(events))
		for i, e := range events {
			types[i] = e.Type
		}
		slog.WarnContext(ctx, "event publish failed",
			"events", types,
			"error", err,
		)
	}
}
