package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"wardq/internal/events"
	"wardq/pkg/config"
	"wardq/pkg/kafka"
	kafkaconfig "wardq/pkg/kafka/config"
)

const ServiceName = "notifier"

// The notifier has no HTTP surface; it consumes the snapshot topics and
// relays events to the configured delivery sink.
func main() {
	cfg := config.Load(ServiceName)

	cfg.Log.Info("Starting Notifier service")

	relay := events.NewRelay(events.NewLogSink(cfg.Log), cfg.Log)

	consumers := make([]*kafka.Consumer, 0, 2)
	for _, topic := range []string{cfg.ResourceEventsTopic, cfg.QueueEventsTopic} {
		consumer, err := kafka.NewConsumer(kafkaconfig.LoadConsumerConfig(topic), relay.Handle, cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to initialize Kafka consumer", "topic", topic, "error", err)
		}
		consumers = append(consumers, consumer)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for _, consumer := range consumers {
		wg.Add(1)
		go func(c *kafka.Consumer) {
			defer wg.Done()
			if err := c.Start(ctx); err != nil {
				cfg.Log.Error("Consumer stopped with error", "error", err)
			}
		}(consumer)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	sig := <-shutdown
	cfg.Log.Info("Shutdown signal received", "signal", sig)

	cancel()
	for _, consumer := range consumers {
		if err := consumer.Close(); err != nil {
			cfg.Log.Error("Failed to close consumer", "error", err)
		}
	}
	wg.Wait()

	cfg.Log.Info("Notifier stopped gracefully")
}
