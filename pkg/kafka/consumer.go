package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/ecommerce-catalog/pkg/logger"
)

const tracerName = "github.com/utafrali/ecommerce-catalog/pkg/kafka"

// Handler processes one decoded event.
type Handler func(ctx context.Context, event *Event) error

// DeadLetterPublisher receives messages whose handler failed on every attempt.
type DeadLetterPublisher interface {
	Publish(ctx context.Context, msg kafka.Message, lastErr error, consumerGroup string) error
}

// messageReader is the subset of *kafka.Reader used by Consumer.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ConsumerConfig holds Kafka consumer configuration.
type ConsumerConfig struct {
	Brokers      []string
	GroupID      string
	Topics       []string
	MinBytes     int
	MaxBytes     int
	MaxRetries   int
	RetryBackoff time.Duration
}

// DefaultConsumerConfig returns defaults for a group consumer of topics.
func DefaultConsumerConfig(brokers []string, groupID string, topics ...string) ConsumerConfig {
	return ConsumerConfig{
		Brokers:      brokers,
		GroupID:      groupID,
		Topics:       topics,
		MinBytes:     1,
		MaxBytes:     10e6,
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
	}
}

// Consumer reads events from one or more topics of a consumer group and
// hands each to a Handler. Messages are committed after handling; a message
// whose handler keeps failing is sent to the dead-letter publisher (if any)
// and committed so it cannot block the partition. Fetch errors are retried
// after RetryBackoff.
type Consumer struct {
	reader    messageReader
	cfg       ConsumerConfig
	handler   Handler
	dlq       DeadLetterPublisher
	logger    *slog.Logger
	closeOnce sync.Once
}

// NewConsumer creates a consumer group reader over cfg.Topics.
func NewConsumer(cfg ConsumerConfig, handler Handler, logger *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: cfg.Topics,
		MinBytes:    cfg.MinBytes,
		MaxBytes:    cfg.MaxBytes,
	})
	return newConsumer(r, cfg, handler, logger)
}

func newConsumer(r messageReader, cfg ConsumerConfig, handler Handler, logger *slog.Logger) *Consumer {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	return &Consumer{
		reader:  r,
		cfg:     cfg,
		handler: handler,
		logger:  logger,
	}
}

// WithDeadLetter routes exhausted messages to dlq.
func (c *Consumer) WithDeadLetter(dlq DeadLetterPublisher) *Consumer {
	c.dlq = dlq
	return c
}

// Start consumes messages until ctx is canceled.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started",
		slog.Any("topics", c.cfg.Topics),
		slog.String("group", c.cfg.GroupID),
	)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", slog.String("group", c.cfg.GroupID))
				return c.Close()
			}
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("kafka reader closed: %w", err)
			}
			c.logger.Error("failed to fetch message", slog.String("error", err.Error()))
			ConsumerFetchErrors.WithLabelValues(c.cfg.GroupID).Inc()
			select {
			case <-ctx.Done():
				c.logger.Info("consumer stopping", slog.String("group", c.cfg.GroupID))
				return c.Close()
			case <-time.After(c.cfg.RetryBackoff):
			}
			continue
		}

		if err := c.process(ctx, msg); err != nil && ctx.Err() != nil {
			return c.Close()
		}
	}
}

// process handles one message and commits it. It returns an error only when
// the context was canceled mid-retry, leaving the message uncommitted.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) error {
	labels := []string{msg.Topic, c.cfg.GroupID}
	ConsumerMessagesReceived.WithLabelValues(labels...).Inc()

	ctx = otel.GetTextMapPropagator().Extract(ctx, NewHeaderCarrier(&msg))
	ctx, span := otel.Tracer(tracerName).Start(ctx, "kafka.consume "+msg.Topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", msg.Topic),
			attribute.String("messaging.kafka.consumer.group", c.cfg.GroupID),
			attribute.Int("messaging.kafka.partition", msg.Partition),
			attribute.Int64("messaging.kafka.offset", msg.Offset),
		),
	)
	defer span.End()

	event, err := UnmarshalEvent(msg.Value)
	if err != nil {
		ConsumerMessagesFailed.WithLabelValues(labels...).Inc()
		span.SetStatus(codes.Error, "undecodable message")
		c.logger.ErrorContext(ctx, "failed to unmarshal event",
			slog.String("error", err.Error()),
			slog.String("topic", msg.Topic),
			slog.Int64("offset", msg.Offset),
		)
		c.deadLetter(ctx, msg, err)
		c.commit(ctx, msg)
		return nil
	}

	if event.CorrelationID != "" {
		ctx = logger.WithCorrelationID(ctx, event.CorrelationID)
	}

	start := time.Now()
	lastErr := c.handleWithRetry(ctx, msg, event)
	ConsumerProcessingDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())

	if lastErr != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		ConsumerMessagesFailed.WithLabelValues(labels...).Inc()
		span.RecordError(lastErr)
		span.SetStatus(codes.Error, lastErr.Error())
		c.logger.ErrorContext(ctx, "handler failed after all retries, skipping message",
			slog.String("event_type", event.EventType),
			slog.String("aggregate_id", event.AggregateID),
			slog.String("error", lastErr.Error()),
			slog.String("topic", msg.Topic),
			slog.Int("partition", msg.Partition),
			slog.Int64("offset", msg.Offset),
			slog.Int("retries", c.cfg.MaxRetries),
		)
		c.deadLetter(ctx, msg, lastErr)
		c.commit(ctx, msg)
		return nil
	}

	ConsumerMessagesProcessed.WithLabelValues(labels...).Inc()
	c.commit(ctx, msg)
	return nil
}

func (c *Consumer) handleWithRetry(ctx context.Context, msg kafka.Message, event *Event) error {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		if lastErr = c.handler(ctx, event); lastErr == nil {
			return nil
		}

		c.logger.WarnContext(ctx, "handler failed, will retry",
			slog.String("event_type", event.EventType),
			slog.String("aggregate_id", event.AggregateID),
			slog.String("error", lastErr.Error()),
			slog.String("topic", msg.Topic),
			slog.Int("attempt", attempt),
			slog.Int("max_retries", c.cfg.MaxRetries),
		)

		if attempt < c.cfg.MaxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * c.cfg.RetryBackoff):
			}
		}
	}
	return lastErr
}

func (c *Consumer) deadLetter(ctx context.Context, msg kafka.Message, cause error) {
	if c.dlq == nil {
		return
	}
	if err := c.dlq.Publish(ctx, msg, cause, c.cfg.GroupID); err != nil {
		ConsumerDLQFailed.WithLabelValues(msg.Topic, c.cfg.GroupID).Inc()
		c.logger.ErrorContext(ctx, "dead-letter publish failed, committing message anyway",
			slog.String("topic", msg.Topic),
			slog.Int("partition", msg.Partition),
			slog.Int64("offset", msg.Offset),
			slog.String("cause", cause.Error()),
			slog.String("error", err.Error()),
		)
		return
	}
	ConsumerDLQPublished.WithLabelValues(msg.Topic, c.cfg.GroupID).Inc()
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.ErrorContext(ctx, "failed to commit message",
			slog.String("topic", msg.Topic),
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
	}
}

// Ping checks that at least one configured broker is reachable.
func (c *Consumer) Ping(ctx context.Context) error {
	return PingBrokers(ctx, c.cfg.Brokers)
}

// Close closes the consumer. It is safe to call multiple times.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.reader.Close()
	})
	return err
}
