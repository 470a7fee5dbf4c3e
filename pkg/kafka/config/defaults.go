package config

import "time"

const (
	DefaultBrokers = "localhost:9092"

	// Producer defaults.
	DefaultBatchSize      = 100
	DefaultBatchTimeout   = 10 * time.Millisecond
	DefaultWriteTimeout   = 10 * time.Second
	DefaultRequiredAcks   = "all"
	DefaultMaxAttempts    = 3
	DefaultCompression    = "snappy"
	DefaultAsync          = false
	DefaultDLQTopicSuffix = ".dlq"

	// Consumer defaults.
	DefaultGroupID         = "wardq"
	DefaultMinBytes        = 1
	DefaultMaxBytes        = 10 * 1024 * 1024
	DefaultMaxWait         = 500 * time.Millisecond
	DefaultCommitInterval  = time.Second
	DefaultStartOffset     = "last"
	DefaultMaxRetries      = 3
	DefaultRetryBackoff    = time.Second
	DefaultMaxRetryBackoff = 30 * time.Second
)
