package main

import (
	bedsrepository "wardq/internal/beds/repository"
	"wardq/internal/emergency/handler"
	"wardq/internal/emergency/repository"
	"wardq/internal/emergency/service"
	"wardq/internal/emergency/validator"
	"wardq/internal/events"
	resrepository "wardq/internal/reservations/repository"
	"wardq/pkg/app"
	"wardq/pkg/config"
	"wardq/pkg/contracts"
	"wardq/pkg/kafka"
	kafkaconfig "wardq/pkg/kafka/config"
)

const ServiceName = "emergency"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Emergency service")

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
	emergencyRepo := repository.NewMongoEmergencyRepository(cfg)
	bedRepo := bedsrepository.NewMongoBedRepository(cfg)
	reservationRepo := resrepository.NewMongoReservationRepository(cfg)

	emergencyService := service.NewEmergencyService(
		emergencyRepo,
		bedRepo,
		reservationRepo,
		validator.NewEmergencyValidator(cfg.Log),
		publisher,
		cfg,
	)

	cfg.Log.Info("Emergency service initialized", "database", cfg.MongoDatabaseName)
	return handler.NewEmergencyHandler(emergencyService, cfg.Log)
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
