package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvDirectoryBaseURL = "DIRECTORY_BASE_URL"
	EnvDirectoryTimeout = "DIRECTORY_TIMEOUT"

	EnvPaymentWebhookSecret = "PAYMENT_WEBHOOK_SECRET"
	EnvClaimSealKey         = "CLAIM_SEAL_KEY"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvProvisionalWindow   = "PROVISIONAL_WINDOW"
	EnvWaitPerPatient      = "OPD_WAIT_PER_PATIENT"
	EnvEventsEnabled       = "EVENTS_ENABLED"
	EnvResourceEventsTopic = "RESOURCE_EVENTS_TOPIC"
	EnvQueueEventsTopic    = "QUEUE_EVENTS_TOPIC"
	EnvEventsDLQTopic      = "EVENTS_DLQ_TOPIC"
)
