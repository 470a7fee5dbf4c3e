package config

const (
	EnvKafkaBrokers = "KAFKA_BROKERS"

	EnvProducerBatchSize    = "KAFKA_PRODUCER_BATCH_SIZE"
	EnvProducerBatchTimeout = "KAFKA_PRODUCER_BATCH_TIMEOUT"
	EnvProducerWriteTimeout = "KAFKA_PRODUCER_WRITE_TIMEOUT"
	EnvProducerRequiredAcks = "KAFKA_PRODUCER_REQUIRED_ACKS"
	EnvProducerMaxAttempts  = "KAFKA_PRODUCER_MAX_ATTEMPTS"
	EnvProducerCompression  = "KAFKA_PRODUCER_COMPRESSION"
	EnvProducerAsync        = "KAFKA_PRODUCER_ASYNC"

	EnvConsumerGroupID        = "KAFKA_CONSUMER_GROUP_ID"
	EnvConsumerMinBytes       = "KAFKA_CONSUMER_MIN_BYTES"
	EnvConsumerMaxBytes       = "KAFKA_CONSUMER_MAX_BYTES"
	EnvConsumerMaxWait        = "KAFKA_CONSUMER_MAX_WAIT"
	EnvConsumerCommitInterval = "KAFKA_CONSUMER_COMMIT_INTERVAL"
	EnvConsumerStartOffset    = "KAFKA_CONSUMER_START_OFFSET"
	EnvConsumerMaxRetries     = "KAFKA_CONSUMER_MAX_RETRIES"
	EnvConsumerRetryBackoff   = "KAFKA_CONSUMER_RETRY_BACKOFF"
)
