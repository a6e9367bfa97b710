// Package activity reports storefront user actions as events. Publishing is
// best effort: callers log failures and carry on.
package activity

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/logger"
)

// Kind names an activity.
type Kind string

// Activity kinds. Each maps to its own topic.
const (
	LineAdded   Kind = "line-added"
	LineUpdated Kind = "line-updated"
	LineRemoved Kind = "line-removed"
	CartCleared Kind = "cleared"
	CheckedOut  Kind = "checked-out"
	Rated       Kind = "rated"
)

// Source identifies events emitted by this client.
const Source = "storefront"

// Event is one user action.
type Event struct {
	Kind      Kind   `json:"kind"`
	ProductID string `json:"product_id,omitempty"`
	Quantity  int    `json:"quantity,omitempty"`
	// CartQuantity is the server's cart total after the action.
	CartQuantity int `json:"cart_quantity"`
	Rate         int `json:"rate,omitempty"`
}

// Topic returns the topic the event is written to.
func (e Event) Topic() string {
	domain := "cart"
	if e.Kind == Rated {
		domain = "catalog"
	}
	return pkgkafka.Topic(domain, string(e.Kind))
}

// Publisher records activity events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards every event.
type Nop struct{}

// Publish does nothing.
func (Nop) Publish(context.Context, Event) error { return nil }

// EventWriter writes an envelope to a topic. *kafka.Producer satisfies it.
type EventWriter interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// KafkaPublisher writes events through a Kafka producer, keyed by the
// signed-in user taken from the context.
type KafkaPublisher struct {
	writer EventWriter
	logger *slog.Logger
}

// NewKafkaPublisher creates a publisher over writer.
func NewKafkaPublisher(writer EventWriter, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, logger: logger}
}

// Publish wraps e in an envelope and writes it.
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	subject := logger.UserFromContext(ctx)
	if subject == "" {
		subject = "anonymous"
	}

	env, err := pkgkafka.NewEvent(ctx, "storefront."+string(e.Kind), subject, Source, e)
	if err != nil {
		return fmt.Errorf("create %s event: %w", e.Kind, err)
	}
	if e.ProductID != "" {
		env.WithMetadata("product_id", e.ProductID)
	}

	if err := p.writer.Publish(ctx, e.Topic(), env); err != nil {
		return fmt.Errorf("publish %s event: %w", e.Kind, err)
	}

	p.logger.DebugContext(ctx, "published activity event",
		slog.String("kind", string(e.Kind)),
		slog.String("subject", subject),
	)
	return nil
}
