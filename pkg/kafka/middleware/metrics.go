package middleware

import (
	"context"
	"sync/atomic"
	"time"

	"wardq/pkg/kafka"
)

// PublishMetrics counts publish outcomes with atomic counters so handlers
// can expose them without locking.
type PublishMetrics struct {
	published      atomic.Int64
	failed         atomic.Int64
	totalLatencyMs atomic.Int64
}

func (m *PublishMetrics) Published() int64 { return m.published.Load() }
func (m *PublishMetrics) Failed() int64    { return m.failed.Load() }

// AverageLatencyMs reports mean publish latency across successful sends.
func (m *PublishMetrics) AverageLatencyMs() int64 {
	published := m.published.Load()
	if published == 0 {
		return 0
	}
	return m.totalLatencyMs.Load() / published
}

// Metrics tracks publish counts and latency on the chain.
func Metrics(m *PublishMetrics) Middleware {
	return func(next PublishFunc) PublishFunc {
		return func(ctx context.Context, msg kafka.Message) error {
			start := time.Now()
			err := next(ctx, msg)
			if err != nil {
				m.failed.Add(1)
				return err
			}
			m.published.Add(1)
			m.totalLatencyMs.Add(time.Since(start).Milliseconds())
			return nil
		}
	}
}
