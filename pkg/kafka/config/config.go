package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ProducerConfig tunes the shared writer used by all publishing services.
type ProducerConfig struct {
	Brokers      []string
	BatchSize    int
	BatchTimeout time.Duration
	WriteTimeout time.Duration
	RequiredAcks string
	MaxAttempts  int
	Compression  string
	Async        bool
}

// ConsumerConfig tunes a group reader for one topic.
type ConsumerConfig struct {
	Brokers         []string
	GroupID         string
	Topic           string
	MinBytes        int
	MaxBytes        int
	MaxWait         time.Duration
	CommitInterval  time.Duration
	StartOffset     string
	MaxRetries      int
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration
	DLQTopic        string
}

func LoadProducerConfig() ProducerConfig {
	return ProducerConfig{
		Brokers:      splitBrokers(getEnv(EnvKafkaBrokers, DefaultBrokers)),
		BatchSize:    getEnvInt(EnvProducerBatchSize, DefaultBatchSize),
		BatchTimeout: getEnvDuration(EnvProducerBatchTimeout, DefaultBatchTimeout),
		WriteTimeout: getEnvDuration(EnvProducerWriteTimeout, DefaultWriteTimeout),
		RequiredAcks: getEnv(EnvProducerRequiredAcks, DefaultRequiredAcks),
		MaxAttempts:  getEnvInt(EnvProducerMaxAttempts, DefaultMaxAttempts),
		Compression:  getEnv(EnvProducerCompression, DefaultCompression),
		Async:        getEnvBool(EnvProducerAsync, DefaultAsync),
	}
}

func LoadConsumerConfig(topic string) ConsumerConfig {
	return ConsumerConfig{
		Brokers:         splitBrokers(getEnv(EnvKafkaBrokers, DefaultBrokers)),
		GroupID:         getEnv(EnvConsumerGroupID, DefaultGroupID),
		Topic:           topic,
		MinBytes:        getEnvInt(EnvConsumerMinBytes, DefaultMinBytes),
		MaxBytes:        getEnvInt(EnvConsumerMaxBytes, DefaultMaxBytes),
		MaxWait:         getEnvDuration(EnvConsumerMaxWait, DefaultMaxWait),
		CommitInterval:  getEnvDuration(EnvConsumerCommitInterval, DefaultCommitInterval),
		StartOffset:     getEnv(EnvConsumerStartOffset, DefaultStartOffset),
		MaxRetries:      getEnvInt(EnvConsumerMaxRetries, DefaultMaxRetries),
		RetryBackoff:    getEnvDuration(EnvConsumerRetryBackoff, DefaultRetryBackoff),
		MaxRetryBackoff: DefaultMaxRetryBackoff,
		DLQTopic:        topic + DefaultDLQTopicSuffix,
	}
}

func (c ProducerConfig) Validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("%s must list at least one broker", EnvKafkaBrokers)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("producer batch size must be positive, got %d", c.BatchSize)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("producer max attempts must be positive, got %d", c.MaxAttempts)
	}
	switch c.RequiredAcks {
	case "none", "one", "all":
	default:
		return fmt.Errorf("producer required acks must be none, one or all, got %q", c.RequiredAcks)
	}
	return nil
}

func (c ConsumerConfig) Validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("%s must list at least one broker", EnvKafkaBrokers)
	}
	if c.Topic == "" {
		return fmt.Errorf("consumer topic must not be empty")
	}
	if c.GroupID == "" {
		return fmt.Errorf("consumer group id must not be empty")
	}
	if c.MaxBytes < c.MinBytes {
		return fmt.Errorf("consumer max bytes %d below min bytes %d", c.MaxBytes, c.MinBytes)
	}
	return nil
}

func splitBrokers(raw string) []string {
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	return brokers
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
