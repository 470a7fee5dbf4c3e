package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	segmentio "github.com/segmentio/kafka-go"

	"wardq/pkg/kafka/config"
	"wardq/pkg/logger"
)

// Consumer reads one topic as part of a consumer group. Messages that keep
// failing after the retry budget are forwarded to the topic's DLQ with the
// original topic and retry count recorded in headers.
type Consumer struct {
	reader    *segmentio.Reader
	dlqWriter *segmentio.Writer
	cfg       config.ConsumerConfig
	handler   MessageHandler
	log       *logger.Logger

	closed atomic.Bool

	processed    int64
	retried      int64
	deadLettered int64
}

func NewConsumer(cfg config.ConsumerConfig, handler MessageHandler, log *logger.Logger) (*Consumer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid consumer config: %w", err)
	}
	if handler == nil {
		return nil, fmt.Errorf("message handler must not be nil")
	}

	startOffset := segmentio.LastOffset
	if cfg.StartOffset == "first" {
		startOffset = segmentio.FirstOffset
	}

	reader := segmentio.NewReader(segmentio.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          cfg.Topic,
		MinBytes:       cfg.MinBytes,
		MaxBytes:       cfg.MaxBytes,
		MaxWait:        cfg.MaxWait,
		CommitInterval: cfg.CommitInterval,
		StartOffset:    startOffset,
	})

	var dlqWriter *segmentio.Writer
	if cfg.DLQTopic != "" {
		dlqWriter = &segmentio.Writer{
			Addr:     segmentio.TCP(cfg.Brokers...),
			Topic:    cfg.DLQTopic,
			Balancer: &segmentio.Hash{},
		}
	}

	return &Consumer{
		reader:    reader,
		dlqWriter: dlqWriter,
		cfg:       cfg,
		handler:   handler,
		log: log.With(
			"component", "kafka_consumer",
			"topic", cfg.Topic,
			"group_id", cfg.GroupID),
	}, nil
}

// Start consumes until the context is cancelled or the consumer is closed.
func (c *Consumer) Start(ctx context.Context) error {
	c.log.Info("kafka consumer starting")

	for {
		if c.closed.Load() {
			return ErrConsumerClosed
		}

		raw, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				c.log.Info("kafka consumer stopping", "reason", err)
				return nil
			}
			c.log.Error("fetch message failed", "error", err)
			continue
		}

		msg := fromSegmentio(raw)
		if err := c.processMessage(ctx, msg); err != nil {
			c.log.Error("message processing abandoned",
				"event_id", msg.GetEventID(),
				"error", err)
		}

		if err := c.reader.CommitMessages(ctx, raw); err != nil {
			c.log.Error("commit failed", "error", err)
		}
	}
}

// processMessage runs the handler with backoff retries for transient
// failures, then dead-letters whatever still fails.
func (c *Consumer) processMessage(ctx context.Context, msg Message) error {
	var lastErr error
	backoff := c.cfg.RetryBackoff

	for attempt := 0; ; attempt++ {
		lastErr = c.handler(ctx, msg)
		if lastErr == nil {
			atomic.AddInt64(&c.processed, 1)
			return nil
		}

		if !ShouldRetry(lastErr, attempt, c.cfg.MaxRetries) {
			break
		}

		atomic.AddInt64(&c.retried, 1)
		c.log.Warn("retrying message",
			"event_id", msg.GetEventID(),
			"attempt", attempt+1,
			"backoff", backoff,
			"error", lastErr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > c.cfg.MaxRetryBackoff {
			backoff = c.cfg.MaxRetryBackoff
		}
	}

	return c.deadLetter(ctx, msg, lastErr)
}

func (c *Consumer) deadLetter(ctx context.Context, msg Message, cause error) error {
	if c.dlqWriter == nil {
		return cause
	}

	msg.IncrementRetryCount()
	msg.Headers[HeaderOriginalTopic] = c.cfg.Topic

	err := c.dlqWriter.WriteMessages(ctx, toSegmentio(c.cfg.DLQTopic, msg))
	if err != nil {
		return fmt.Errorf("dead-letter %s: %w (original cause: %v)", c.cfg.DLQTopic, err, cause)
	}

	atomic.AddInt64(&c.deadLettered, 1)
	c.log.Warn("message dead-lettered",
		"event_id", msg.GetEventID(),
		"dlq_topic", c.cfg.DLQTopic,
		"cause", cause)
	return nil
}

type ConsumerStats struct {
	Processed    int64
	Retried      int64
	DeadLettered int64
	Lag          int64
}

func (c *Consumer) Stats() ConsumerStats {
	return ConsumerStats{
		Processed:    atomic.LoadInt64(&c.processed),
		Retried:      atomic.LoadInt64(&c.retried),
		DeadLettered: atomic.LoadInt64(&c.deadLettered),
		Lag:          c.reader.Lag(),
	}
}

func (c *Consumer) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	err := c.reader.Close()
	if c.dlqWriter != nil {
		if dlqErr := c.dlqWriter.Close(); err == nil {
			err = dlqErr
		}
	}
	c.log.Info("kafka consumer closed", "processed", atomic.LoadInt64(&c.processed))
	return err
}

func fromSegmentio(raw segmentio.Message) Message {
	headers := make(map[string]string, len(raw.Headers))
	for _, h := range raw.Headers {
		headers[h.Key] = string(h.Value)
	}
	return Message{
		Key:       string(raw.Key),
		Value:     raw.Value,
		Headers:   headers,
		Topic:     raw.Topic,
		Partition: raw.Partition,
		Offset:    raw.Offset,
		Timestamp: raw.Time,
	}
}
