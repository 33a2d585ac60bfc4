package main

import (
	bookingshandler "staybook/internal/bookings/handler"
	bookingsrepo "staybook/internal/bookings/repository"
	bookingsservice "staybook/internal/bookings/service"
	bookingsvalidator "staybook/internal/bookings/validator"
	"staybook/internal/events"
	propertieshandler "staybook/internal/properties/handler"
	propertiesrepo "staybook/internal/properties/repository"
	propertiesservice "staybook/internal/properties/service"
	propertiesvalidator "staybook/internal/properties/validator"
	uploadshandler "staybook/internal/uploads/handler"
	uploadsservice "staybook/internal/uploads/service"
	usershandler "staybook/internal/users/handler"
	usersrepo "staybook/internal/users/repository"
	usersservice "staybook/internal/users/service"
	usersvalidator "staybook/internal/users/validator"
	"staybook/pkg/app"
	"staybook/pkg/config"
	"staybook/pkg/kafka"
	"staybook/pkg/token"

	"github.com/joho/godotenv"
)

const ServiceName = "api"

func main() {
	// Local development convenience; production supplies real env vars.
	_ = godotenv.Load()

	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting API service")

	tokens := token.New(cfg.JWTSecret, cfg.JWTTTL)
	publisher := initEvents(cfg)

	userRepo := usersrepo.NewMongoUserRepository(cfg)
	propertyRepo := propertiesrepo.NewMongoPropertyRepository(cfg)
	bookingRepo := bookingsrepo.NewMongoBookingRepository(cfg)
	lockRepo := bookingsrepo.NewBookingLockRepository(cfg)

	userService := usersservice.NewUserService(
		userRepo,
		propertyRepo,
		usersvalidator.NewUserValidator(cfg.Log),
		tokens,
		cfg,
	)
	propertyService := propertiesservice.NewPropertyService(
		propertyRepo,
		propertiesvalidator.NewPropertyValidator(cfg.Log),
		publisher,
		cfg,
	)
	bookingService := bookingsservice.NewBookingService(
		bookingRepo,
		lockRepo,
		propertyRepo,
		bookingsvalidator.NewBookingValidator(cfg.Log),
		publisher,
		cfg,
	)
	uploadService, err := uploadsservice.NewUploadService(cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize upload service", "error", err)
	}

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)

	serverApp := app.NewApplication(cfg, tokens)
	serverApp.OnShutdown(publisher.Close)
	serverApp.SetApp(
		usershandler.NewUserHandler(userService, cfg.Log),
		propertieshandler.NewPropertyHandler(propertyService, cfg.Log),
		bookingshandler.NewBookingHandler(bookingService, cfg.Log),
		uploadshandler.NewUploadHandler(uploadService, cfg.MaxUploadSize, cfg.Log),
	)
	serverApp.Run()
}

func initEvents(cfg *config.Config) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		cfg.Log.Info("Kafka brokers not configured, event publishing disabled")
		return events.NewNoop()
	}

	producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaEventsTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}

	cfg.Log.Info("Kafka event publishing enabled",
		"brokers", cfg.KafkaBrokers,
		"topic", cfg.KafkaEventsTopic,
	)
	return events.NewKafkaPublisher(producer, ServiceName, cfg.Log)
}
