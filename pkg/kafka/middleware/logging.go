package middleware

import (
	"context"
	"time"

	"wardq/pkg/logger"

	"wardq/pkg/kafka"
)

// PublishFunc is the terminal publish operation wrapped by middleware.
type PublishFunc func(ctx context.Context, msg kafka.Message) error

// Middleware wraps a publish operation with cross-cutting behavior.
type Middleware func(next PublishFunc) PublishFunc

// Chain applies middlewares so the first listed runs outermost.
func Chain(final PublishFunc, middlewares ...Middleware) PublishFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		final = middlewares[i](final)
	}
	return final
}

// Logging records every publish attempt with its outcome and latency.
func Logging(log *logger.Logger) Middleware {
	return func(next PublishFunc) PublishFunc {
		return func(ctx context.Context, msg kafka.Message) error {
			start := time.Now()
			err := next(ctx, msg)
			elapsed := time.Since(start)

			fields := []any{
				"topic", msg.Topic,
				"key", msg.Key,
				"event_type", msg.Headers[kafka.HeaderEventType],
				"duration_ms", elapsed.Milliseconds(),
			}
			if err != nil {
				log.Error("kafka publish failed", append(fields, "error", err)...)
				return err
			}
			log.Debug("kafka publish succeeded", fields...)
			return nil
		}
	}
}
