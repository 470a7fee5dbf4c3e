package kafka

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	segmentio "github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"

	"wardq/pkg/kafka/config"
	"wardq/pkg/logger"
)

// Producer publishes snapshot events. A single producer is shared per
// process; Publish is safe for concurrent use.
type Producer struct {
	writer *segmentio.Writer
	cfg    config.ProducerConfig
	log    *logger.Logger

	closed    atomic.Bool
	closeOnce sync.Once

	published atomic.Int64
	failed    atomic.Int64
}

func NewProducer(cfg config.ProducerConfig, log *logger.Logger) (*Producer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid producer config: %w", err)
	}

	writer := &segmentio.Writer{
		Addr:         segmentio.TCP(cfg.Brokers...),
		Balancer:     &segmentio.Hash{},
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: requiredAcks(cfg.RequiredAcks),
		MaxAttempts:  cfg.MaxAttempts,
		Compression:  compression(cfg.Compression),
		Async:        cfg.Async,
	}

	return &Producer{
		writer: writer,
		cfg:    cfg,
		log:    log.With("component", "kafka_producer"),
	}, nil
}

// Publish writes one message to the given topic. The message key routes
// all events of one facility to the same partition.
func (p *Producer) Publish(ctx context.Context, topic string, msg Message) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if msg.Key == "" {
		return ErrEmptyKey
	}
	if len(msg.Value) == 0 {
		return ErrEmptyValue
	}

	err := p.writer.WriteMessages(ctx, toSegmentio(topic, msg))
	if err != nil {
		p.failed.Add(1)
		return NewTransientError(fmt.Sprintf("publish to %s", topic), err)
	}
	p.published.Add(1)
	return nil
}

// PublishBatch writes a group of messages in one round trip.
func (p *Producer) PublishBatch(ctx context.Context, topic string, msgs []Message) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if len(msgs) == 0 {
		return nil
	}

	batch := make([]segmentio.Message, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Key == "" {
			return ErrEmptyKey
		}
		if len(msg.Value) == 0 {
			return ErrEmptyValue
		}
		batch = append(batch, toSegmentio(topic, msg))
	}

	err := p.writer.WriteMessages(ctx, batch...)
	if err != nil {
		p.failed.Add(int64(len(msgs)))
		return NewTransientError(fmt.Sprintf("publish batch to %s", topic), err)
	}
	p.published.Add(int64(len(msgs)))
	return nil
}

type ProducerStats struct {
	Published int64
	Failed    int64
}

func (p *Producer) Stats() ProducerStats {
	return ProducerStats{
		Published: p.published.Load(),
		Failed:    p.failed.Load(),
	}
}

func (p *Producer) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		err = p.writer.Close()
		p.log.Info("kafka producer closed",
			"published", p.published.Load(),
			"failed", p.failed.Load())
	})
	return err
}

func toSegmentio(topic string, msg Message) segmentio.Message {
	headers := make([]segmentio.Header, 0, len(msg.Headers))
	for k, v := range msg.Headers {
		headers = append(headers, segmentio.Header{Key: k, Value: []byte(v)})
	}
	return segmentio.Message{
		Topic:   topic,
		Key:     []byte(msg.Key),
		Value:   msg.Value,
		Headers: headers,
		Time:    msg.Timestamp,
	}
}

func requiredAcks(acks string) segmentio.RequiredAcks {
	switch acks {
	case "none":
		return segmentio.RequireNone
	case "one":
		return segmentio.RequireOne
	default:
		return segmentio.RequireAll
	}
}

func compression(name string) segmentio.Compression {
	switch name {
	case "gzip":
		return segmentio.Compression(compress.Gzip)
	case "lz4":
		return segmentio.Compression(compress.Lz4)
	case "zstd":
		return segmentio.Compression(compress.Zstd)
	case "none":
		return 0
	default:
		return segmentio.Compression(compress.Snappy)
	}
}
