package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/utafrali/ecommerce-catalog/pkg/kafka"
)

// Kafka topics whose events change what a product search can return. Event
// types on these topics carry the topic name.
var (
	TopicProductCreated  = pkgkafka.Topic("product", "created")
	TopicProductUpdated  = pkgkafka.Topic("product", "updated")
	TopicProductDeleted  = pkgkafka.Topic("product", "deleted")
	TopicCategoryUpdated = pkgkafka.Topic("category", "updated")
)

// Topics lists every topic the catalog consumer subscribes to.
func Topics() []string {
	return []string{TopicProductCreated, TopicProductUpdated, TopicProductDeleted, TopicCategoryUpdated}
}

// CacheInvalidator drops cached search results.
type CacheInvalidator interface {
	InvalidateCache(ctx context.Context) error
}

// Consumer invalidates cached search pages whenever the catalog changes.
type Consumer struct {
	invalidator CacheInvalidator
	logger      *slog.Logger
}

// NewConsumer creates a new catalog change consumer.
func NewConsumer(invalidator CacheInvalidator, logger *slog.Logger) *Consumer {
	return &Consumer{
		invalidator: invalidator,
		logger:      logger,
	}
}

// Handle processes a Kafka event based on its type.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicProductCreated, TopicProductUpdated, TopicProductDeleted, TopicCategoryUpdated:
		return c.invalidate(ctx, event)
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

func (c *Consumer) invalidate(ctx context.Context, event *pkgkafka.Event) error {
	if err := c.invalidator.InvalidateCache(ctx); err != nil {
		return fmt.Errorf("invalidate search cache on %s: %w", event.EventType, err)
	}

	c.logger.InfoContext(ctx, "search cache invalidated",
		slog.String("event_type", event.EventType),
		slog.String("aggregate_id", event.AggregateID),
	)
	return nil
}

// Handler returns the consumer's handler guarded by store, so redelivered
// events do not flush the cache twice.
func (c *Consumer) Handler(store pkgkafka.IdempotencyStore) pkgkafka.Handler {
	return pkgkafka.IdempotentHandler(store, c.Handle, c.logger)
}
