package events

import (
	"context"
	"fmt"

	"wardq/pkg/kafka"
	"wardq/pkg/logger"
)

// Relay consumes snapshot topics and hands decoded events to a delivery
// sink. The notifier service uses it to fan events out to display boards
// and notification channels.
type Relay struct {
	sink Sink
	log  *logger.Logger
}

// Sink receives decoded snapshot events. Implementations push to whatever
// delivery channel the deployment uses.
type Sink interface {
	DeliverResourceSnapshot(ctx context.Context, event ResourceSnapshotChanged) error
	DeliverQueueSnapshot(ctx context.Context, event QueueSnapshotChanged) error
}

func NewRelay(sink Sink, log *logger.Logger) *Relay {
	return &Relay{
		sink: sink,
		log:  log.With("component", "event_relay"),
	}
}

// Handle implements kafka.MessageHandler. Unknown event types are dropped
// with a warning rather than dead-lettered.
func (r *Relay) Handle(ctx context.Context, msg kafka.Message) error {
	switch msg.GetEventType() {
	case TypeResourceSnapshotChanged:
		var event ResourceSnapshotChanged
		if err := msg.DecodeValue(&event); err != nil {
			return fmt.Errorf("decode resource snapshot: %w", err)
		}
		return r.sink.DeliverResourceSnapshot(ctx, event)

	case TypeQueueSnapshotChanged:
		var event QueueSnapshotChanged
		if err := msg.DecodeValue(&event); err != nil {
			return fmt.Errorf("decode queue snapshot: %w", err)
		}
		return r.sink.DeliverQueueSnapshot(ctx, event)

	default:
		r.log.Warn("dropping event with unknown type",
			"event_type", msg.GetEventType(),
			"event_id", msg.GetEventID())
		return nil
	}
}

// LogSink writes delivered events to the service log. It is the default
// sink until a real notification channel is wired in a deployment.
type LogSink struct {
	log *logger.Logger
}

func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log.With("component", "log_sink")}
}

func (s *LogSink) DeliverResourceSnapshot(ctx context.Context, event ResourceSnapshotChanged) error {
	s.log.Info("resource snapshot",
		"facility_id", event.FacilityID,
		"trigger", event.Trigger,
		"categories", len(event.Categories))
	return nil
}

func (s *LogSink) DeliverQueueSnapshot(ctx context.Context, event QueueSnapshotChanged) error {
	s.log.Info("queue snapshot",
		"facility_id", event.FacilityID,
		"trigger", event.Trigger,
		"serving_token", event.ServingToken,
		"waiting_count", event.WaitingCount)
	return nil
}
