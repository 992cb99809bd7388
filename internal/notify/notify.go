// Package notify publishes the outcome of a pipeline run to downstream
// consumers. Notifications are best effort: a failed publish is reported to
// the caller and never changes the run's own result.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/segmentio/kafka-go"
)

// Notifier delivers one run report.
type Notifier interface {
	Notify(ctx context.Context, runID string, report any) error
	Close() error
}

// Multi fans a report out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, runID string, report any) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, runID, report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, n := range m {
		if err := n.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// kafkaMessageWriter abstracts kafka.Writer for tests.
type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka writes each report as one message keyed by run id.
type Kafka struct {
	writer kafkaMessageWriter
}

// NewKafka returns a synchronous Kafka notifier. brokers is comma-separated.
func NewKafka(brokers, topic string) (*Kafka, error) {
	var addrs []string
	for _, a := range strings.Split(brokers, ",") {
		if a = strings.TrimSpace(a); a != "" {
			addrs = append(addrs, a)
		}
	}
	if len(addrs) == 0 || topic == "" {
		return nil, fmt.Errorf("notify: kafka needs brokers and topic")
	}
	return &Kafka{writer: &kafka.Writer{
		Addr:         kafka.TCP(addrs...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: 10 * time.Second,
	}}, nil
}

func (k *Kafka) Notify(ctx context.Context, runID string, report any) error {
	b, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("notify: marshal report: %w", err)
	}
	if err := k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(runID), Value: b}); err != nil {
		return fmt.Errorf("notify: kafka write: %w", err)
	}
	return nil
}

func (k *Kafka) Close() error { return k.writer.Close() }

// PubSub publishes each report to a Google Cloud Pub/Sub topic.
type PubSub struct {
	client  *pubsub.Client
	topic   *pubsub.Topic
	publish func(ctx context.Context, msg *pubsub.Message) (string, error)
}

// NewPubSub connects to project and publishes to topic.
func NewPubSub(ctx context.Context, project, topic string) (*PubSub, error) {
	if project == "" || topic == "" {
		return nil, fmt.Errorf("notify: pubsub needs project and topic")
	}
	c, err := pubsub.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("notify: pubsub client: %w", err)
	}
	t := c.Topic(topic)
	return &PubSub{
		client: c,
		topic:  t,
		publish: func(ctx context.Context, msg *pubsub.Message) (string, error) {
			return t.Publish(ctx, msg).Get(ctx)
		},
	}, nil
}

func (p *PubSub) Notify(ctx context.Context, runID string, report any) error {
	b, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("notify: marshal report: %w", err)
	}
	if _, err := p.publish(ctx, &pubsub.Message{
		Data:       b,
		Attributes: map[string]string{"run_id": runID},
	}); err != nil {
		return fmt.Errorf("notify: pubsub publish: %w", err)
	}
	return nil
}

func (p *PubSub) Close() error {
	if p.topic != nil {
		p.topic.Stop()
	}
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
