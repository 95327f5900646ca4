package main

import (
	"context"
	"encoding/base64"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mansoorceksport/liftrecords/internal/config"
	"github.com/mansoorceksport/liftrecords/internal/logger"
	"github.com/mansoorceksport/liftrecords/internal/server"
	"github.com/mansoorceksport/liftrecords/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLog, err := logger.New(cfg.Log.Mode)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer appLog.Sync()

	appLog.Info("starting lift records service", "port", cfg.Server.Port)

	ctx := context.Background()

	// Grafana Cloud style gateways want Basic auth with instanceId:apiToken
	headers := map[string]string{}
	if cfg.OTEL.InstanceID != "" {
		authString := cfg.OTEL.InstanceID + ":" + cfg.OTEL.Token
		headers["Authorization"] = "Basic " + base64.StdEncoding.EncodeToString([]byte(authString))
	}

	otelProvider, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.OTEL.ServiceName,
		ServiceVersion: cfg.OTEL.ServiceVersion,
		Environment:    cfg.OTEL.Environment,
		OTLPEndpoint:   cfg.OTEL.Endpoint,
		OTLPURLPrefix:  cfg.OTEL.URLPrefix,
		OTLPHeaders:    headers,
		Enabled:        cfg.OTEL.Enabled,
	}, appLog)
	if err != nil {
		appLog.Warn("failed to initialize OpenTelemetry", "error", err)
	}
	if otelProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelProvider.Shutdown(shutdownCtx)
		}()
	}

	// Connect to MongoDB with OpenTelemetry instrumentation
	ctxMongo, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoOpts := options.Client().ApplyURI(cfg.MongoDB.URI)
	if cfg.OTEL.Enabled {
		mongoOpts.SetMonitor(otelmongo.NewMonitor())
	}

	mongoClient, err := mongo.Connect(ctxMongo, mongoOpts)
	if err != nil {
		appLog.Fatal("failed to connect to MongoDB", "error", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			appLog.Error("error disconnecting from MongoDB", "error", err)
		}
	}()

	if err := mongoClient.Ping(ctxMongo, nil); err != nil {
		appLog.Fatal("failed to ping MongoDB", "error", err)
	}
	appLog.Info("MongoDB connected", "database", cfg.MongoDB.Database, "transactions", cfg.MongoDB.Transactions)

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		appLog.Fatal("failed to connect to Redis", "error", err)
	}
	appLog.Info("Redis connected", "addr", cfg.Redis.Addr)

	app := server.NewApp(server.AppDependencies{
		Config:      cfg,
		MongoDB:     mongoClient.Database(cfg.MongoDB.Database),
		MongoClient: mongoClient,
		RedisClient: redisClient,
		Logger:      appLog,
	})

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		appLog.Info("shutting down gracefully")
		_ = app.Shutdown()
	}()

	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		appLog.Fatal("failed to start server", "error", err)
	}
}
