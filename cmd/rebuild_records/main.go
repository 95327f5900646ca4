package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mansoorceksport/liftrecords/internal/config"
	"github.com/mansoorceksport/liftrecords/internal/logger"
	"github.com/mansoorceksport/liftrecords/internal/server"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	// Command line flags
	userID := flag.String("user", "", "User ID to replay completed sessions for (required)")
	dryRun := flag.Bool("dry-run", false, "Show what would be evaluated without making changes")
	timeout := flag.Duration("timeout", 5*time.Minute, "Overall time limit")
	flag.Parse()

	if *userID == "" {
		fmt.Println("Usage: rebuild_records -user <USER_ID> [-dry-run] [-timeout 5m]")
		fmt.Println("\nReplays every completed training session of a user, oldest first,")
		fmt.Println("through personal record evaluation. Connection settings come from the")
		fmt.Println("same environment variables as the server.")
		os.Exit(1)
	}

	// Only storage settings are needed here, so JWT_SECRET may be absent
	_ = godotenv.Load()
	cfg := config.FromEnv()

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDB.URI))
	if err != nil {
		log.Fatal("failed to connect to MongoDB", "error", err)
	}
	defer client.Disconnect(context.Background())

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	services := server.NewServices(server.AppDependencies{
		Config:      cfg,
		MongoDB:     client.Database(cfg.MongoDB.Database),
		MongoClient: client,
		RedisClient: redisClient,
		Logger:      log,
	})

	log.Info("replaying completed sessions", "user_id", *userID, "dry_run", *dryRun)

	report, err := services.Records.ReplayCompletedSessions(ctx, *userID, *dryRun)
	if err != nil {
		log.Fatal("replay failed", "user_id", *userID, "error", err)
	}

	fmt.Println("Summary:")
	fmt.Printf("   Completed sessions: %d\n", report.Sessions)
	fmt.Printf("   Lift entries:       %d\n", report.Lifts)
	fmt.Printf("   New records:        %d\n", report.NewRecords)

	if report.DryRun {
		fmt.Println("\nThis was a dry run. No changes were made.")
		fmt.Println("Run without -dry-run to apply changes.")
	}
}
