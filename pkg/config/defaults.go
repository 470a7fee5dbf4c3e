package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "wardq"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultDirectoryBaseURL = "http://localhost:8090"
	DefaultDirectoryTimeout = 5 * time.Second

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Provisional reservations reserve intent, not capacity. The window is
	// the time a requester has to confirm before the claim lapses.
	DefaultProvisionalWindow = 15 * time.Minute

	// Flat per-patient consultation estimate used for join-time wait
	// snapshots.
	DefaultWaitPerPatient = 10 * time.Minute

	DefaultEventsEnabled       = true
	DefaultResourceEventsTopic = "wardq.resource.snapshots"
	DefaultQueueEventsTopic    = "wardq.queue.snapshots"
	DefaultEventsDLQTopic      = "wardq.events.dlq"

	DefaultPaginationLimit = 100
)
