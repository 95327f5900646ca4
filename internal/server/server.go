package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/mansoorceksport/liftrecords/internal/config"
	"github.com/mansoorceksport/liftrecords/internal/handler"
	"github.com/mansoorceksport/liftrecords/internal/logger"
	"github.com/mansoorceksport/liftrecords/internal/middleware"
	"github.com/mansoorceksport/liftrecords/internal/repository"
	"github.com/mansoorceksport/liftrecords/internal/service"
	"github.com/mansoorceksport/liftrecords/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// AppDependencies holds the dependencies required to start the application
type AppDependencies struct {
	Config      *config.Config
	MongoDB     *mongo.Database
	MongoClient *mongo.Client // used for transactions; may be nil when they are disabled
	RedisClient *redis.Client
	Logger      *logger.Logger
}

// Services are the application services built by NewServices
type Services struct {
	Records  *service.PersonalRecordService
	Training *service.TrainingService
}

// NewServices wires repositories, cache and metrics into the application services
func NewServices(deps AppDependencies) *Services {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}

	// Initialize repositories
	redisRepo := repository.NewRedisCacheRepository(deps.RedisClient)
	movementRepo := repository.NewCachedMovementRepository(repository.NewMongoMovementRepository(deps.MongoDB), redisRepo)
	configRepo := repository.NewCachedExerciseConfigurationRepository(repository.NewMongoExerciseConfigurationRepository(deps.MongoDB), redisRepo)
	sessionRepo := repository.NewMongoTrainingSessionRepository(deps.MongoDB)
	setEntryRepo := repository.NewMongoSetEntryRepository(deps.MongoDB)
	recordRepo := repository.NewMongoPersonalRecordRepository(deps.MongoDB)
	transactor := newTransactor(deps, log)

	var metrics service.RecordMetrics
	if m, err := telemetry.NewRecordMetrics(); err != nil {
		log.Warn("record metrics disabled", "error", err)
	} else {
		metrics = m
	}

	// Initialize services
	records := service.NewPersonalRecordService(
		recordRepo,
		configRepo,
		movementRepo,
		sessionRepo,
		setEntryRepo,
		transactor,
		redisRepo,
		metrics,
		log.With("component", "personal_records"),
	)
	training := service.NewTrainingService(
		movementRepo,
		configRepo,
		sessionRepo,
		setEntryRepo,
		records,
		log.With("component", "training"),
	)

	return &Services{Records: records, Training: training}
}

// newTransactor warns when record writes run without transactions: a failure
// between deactivating a record and storing its successor then leaves the
// slot without an active record until rebuild_records is run.
func newTransactor(deps AppDependencies, log *logger.Logger) *repository.MongoTransactor {
	enabled := deps.Config.MongoDB.Transactions
	if !enabled || deps.MongoClient == nil {
		log.Warn("MongoDB transactions disabled, personal record writes are not atomic",
			"mongodb_transactions", enabled,
			"has_client", deps.MongoClient != nil,
		)
	}
	return repository.NewMongoTransactor(deps.MongoClient, enabled)
}

// NewApp creates and configures the Fiber application with the given dependencies
func NewApp(deps AppDependencies) *fiber.App {
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	services := NewServices(deps)

	// Initialize handlers
	recordHandler := handler.NewPersonalRecordHandler(services.Records)
	trainingHandler := handler.NewTrainingHandler(services.Training)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Lift Records API",
		BodyLimit:    int(deps.Config.Server.BodyLimitKB * 1024),
		ErrorHandler: customErrorHandler(deps.Logger),
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Correlation-ID",
		AllowMethods: "GET, POST, PUT, OPTIONS",
	}))
	app.Use(telemetry.FiberMiddleware())

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "liftrecords",
		})
	})

	// API v1 routes
	v1 := app.Group("/v1")

	// ===========================================
	// USER API - /v1/me/*
	// ===========================================
	me := v1.Group("/me")
	me.Use(middleware.VerifyToken(deps.Config.JWT.Secret))
	me.Use(middleware.IdempotencyMiddleware(deps.RedisClient, deps.Config.Server.IdempotencyTTL))

	records := me.Group("/records")
	records.Get("/", recordHandler.ListActive)
	records.Get("/summary", recordHandler.GetSummaries)
	records.Get("/summary/:configuration_id", recordHandler.GetSummary)
	records.Get("/history/:configuration_id/:kind", recordHandler.GetHistory)
	records.Post("/:id/revert", recordHandler.Revert)

	me.Get("/movements", trainingHandler.ListMovements)
	me.Post("/movements", trainingHandler.CreateMovement)
	me.Post("/configurations", trainingHandler.CreateConfiguration)

	sessions := me.Group("/sessions")
	sessions.Post("/", trainingHandler.CreateSession)
	sessions.Get("/:id", trainingHandler.GetSession)
	sessions.Post("/:id/complete", trainingHandler.CompleteSession)
	sessions.Post("/:id/sets", trainingHandler.LogSet)

	me.Put("/sets/:id", trainingHandler.UpdateSet)

	return app
}

// customErrorHandler logs unexpected errors once and hides their details
// from the client
func customErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "internal server error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}

		if code >= fiber.StatusInternalServerError {
			log.Error("request failed",
				"method", c.Method(),
				"path", c.Path(),
				"status", code,
				"error", err,
			)
		}
		return c.Status(code).JSON(fiber.Map{
			"error": message,
		})
	}
}
