package events

import (
	"context"
	"time"

	"wardq/pkg/config"
	"wardq/pkg/kafka"
	"wardq/pkg/logger"
)

// Publisher broadcasts snapshots to facility observers. Implementations are
// fire-and-forget: the committed state mutation is the source of truth, so a
// failed publish is logged and swallowed, never surfaced to the caller.
type Publisher interface {
	ResourceSnapshot(ctx context.Context, event ResourceSnapshotChanged)
	QueueSnapshot(ctx context.Context, event QueueSnapshotChanged)
}

type kafkaPublisher struct {
	producer      *kafka.Producer
	resourceTopic string
	queueTopic    string
	log           *logger.Logger
}

func NewKafkaPublisher(producer *kafka.Producer, cfg *config.Config) Publisher {
	return &kafkaPublisher{
		producer:      producer,
		resourceTopic: cfg.ResourceEventsTopic,
		queueTopic:    cfg.QueueEventsTopic,
		log:           cfg.Log.With("component", "event_publisher"),
	}
}

func (p *kafkaPublisher) ResourceSnapshot(ctx context.Context, event ResourceSnapshotChanged) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	msg := kafka.NewMessage().
		WithKey(event.FacilityID).
		WithValue(event).
		WithEventType(TypeResourceSnapshotChanged).
		WithFacilityID(event.FacilityID).
		WithSchemaVersion(SchemaVersion).
		WithSource(Source).
		Build()

	if err := p.producer.Publish(ctx, p.resourceTopic, msg); err != nil {
		p.log.Warn("resource snapshot publish failed",
			"facility_id", event.FacilityID,
			"trigger", event.Trigger,
			"error", err)
		return
	}

	p.log.Debug("resource snapshot published",
		"facility_id", event.FacilityID,
		"trigger", event.Trigger)
}

func (p *kafkaPublisher) QueueSnapshot(ctx context.Context, event QueueSnapshotChanged) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	msg := kafka.NewMessage().
		WithKey(event.FacilityID).
		WithValue(event).
		WithEventType(TypeQueueSnapshotChanged).
		WithFacilityID(event.FacilityID).
		WithSchemaVersion(SchemaVersion).
		WithSource(Source).
		Build()

	if err := p.producer.Publish(ctx, p.queueTopic, msg); err != nil {
		p.log.Warn("queue snapshot publish failed",
			"facility_id", event.FacilityID,
			"trigger", event.Trigger,
			"error", err)
		return
	}

	p.log.Debug("queue snapshot published",
		"facility_id", event.FacilityID,
		"trigger", event.Trigger)
}

// NopPublisher drops all events. Used when events are disabled and in tests.
type NopPublisher struct{}

func (NopPublisher) ResourceSnapshot(ctx context.Context, event ResourceSnapshotChanged) {}
func (NopPublisher) QueueSnapshot(ctx context.Context, event QueueSnapshotChanged)       {}
