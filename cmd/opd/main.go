package main

import (
	"wardq/internal/events"
	"wardq/internal/opd/handler"
	"wardq/internal/opd/repository"
	"wardq/internal/opd/service"
	"wardq/internal/opd/validator"
	"wardq/pkg/app"
	"wardq/pkg/config"
	"wardq/pkg/contracts"
	"wardq/pkg/kafka"
	kafkaconfig "wardq/pkg/kafka/config"
)

const ServiceName = "opd"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetDirectory()

	cfg.Log.Info("Starting OPD queue service")

	publisher, producer := initPublisher(cfg)
	if producer != nil {
		defer producer.Close()
	}

	appHandler := initServices(cfg, publisher)
	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, appHandler)
	serverApp.Run()
}

func initServices(cfg *config.Config, publisher events.Publisher) contracts.Handler {
	queueRepo := repository.NewMongoQueueRepository(cfg)
	queueService := service.NewQueueService(
		queueRepo,
		validator.NewQueueValidator(cfg.Log),
		publisher,
		cfg,
	)

	cfg.Log.Info("Queue service initialized", "database", cfg.MongoDatabaseName)
	return handler.NewQueueHandler(queueService, cfg.Log)
}

func initPublisher(cfg *config.Config) (events.Publisher, *kafka.Producer) {
	if !cfg.EventsEnabled {
		cfg.Log.Info("Event publishing disabled")
		return events.NopPublisher{}, nil
	}

	producer, err := kafka.NewProducer(kafkaconfig.LoadProducerConfig(), cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize Kafka producer", "error", err)
	}
	return events.NewKafkaPublisher(producer, cfg), producer
}
