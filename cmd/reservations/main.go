package main

import (
	bedshandler "wardq/internal/beds/handler"
	bedsrepository "wardq/internal/beds/repository"
	bedsservice "wardq/internal/beds/service"
	bedsvalidator "wardq/internal/beds/validator"
	"wardq/internal/events"
	"wardq/internal/reservations/handler"
	"wardq/internal/reservations/repository"
	"wardq/internal/reservations/service"
	"wardq/internal/reservations/validator"
	"wardq/pkg/app"
	"wardq/pkg/config"
	"wardq/pkg/contracts"
	"wardq/pkg/kafka"
	kafkaconfig "wardq/pkg/kafka/config"
	"wardq/pkg/sealer"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Reservations service")

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
	claimSealer, err := sealer.New(cfg.ClaimSealKey)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize claim sealer", "error", err)
	}

	bedRepo := bedsrepository.NewMongoBedRepository(cfg)
	bedService := bedsservice.NewBedService(bedRepo, bedsvalidator.NewBedValidator(cfg.Log), cfg)

	reservationRepo := repository.NewMongoReservationRepository(cfg)
	reservationService := service.NewReservationService(
		reservationRepo,
		bedRepo,
		validator.NewReservationValidator(cfg.Log),
		claimSealer,
		publisher,
		cfg,
	)

	cfg.Log.Info("Reservation service initialized", "database", cfg.MongoDatabaseName)
	return contracts.Chain{
		bedshandler.NewBedHandler(bedService, cfg.Log),
		handler.NewReservationHandler(reservationService, cfg.Log),
	}
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
