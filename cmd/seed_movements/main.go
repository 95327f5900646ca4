package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/mansoorceksport/liftrecords/internal/config"
	"github.com/mansoorceksport/liftrecords/internal/domain"
	"github.com/mansoorceksport/liftrecords/internal/logger"
	"github.com/mansoorceksport/liftrecords/internal/repository"
	"github.com/mansoorceksport/liftrecords/internal/service"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type movementSeed struct {
	Name      string
	Category  string
	Equipment []string
}

var movements = []movementSeed{
	// Legs
	{Name: "Squat", Category: "Legs", Equipment: []string{"Barbell", "Smith Machine"}},
	{Name: "Leg Press", Category: "Legs", Equipment: []string{"Machine"}},
	{Name: "Romanian Deadlift", Category: "Legs", Equipment: []string{"Barbell", "Dumbbell"}},
	{Name: "Bulgarian Split Squat", Category: "Legs", Equipment: []string{"Dumbbell"}},

	// Push
	{Name: "Bench Press", Category: "Push", Equipment: []string{"Barbell", "Dumbbell"}},
	{Name: "Incline Bench Press", Category: "Push", Equipment: []string{"Barbell", "Dumbbell"}},
	{Name: "Overhead Press", Category: "Push", Equipment: []string{"Barbell", "Dumbbell"}},
	{Name: "Dip", Category: "Push", Equipment: []string{"Bodyweight"}},

	// Pull
	{Name: "Deadlift", Category: "Pull", Equipment: []string{"Barbell", "Trap Bar"}},
	{Name: "Barbell Row", Category: "Pull", Equipment: []string{"Barbell"}},
	{Name: "Pull Up", Category: "Pull", Equipment: []string{"Bodyweight"}},
	{Name: "Lat Pulldown", Category: "Pull", Equipment: []string{"Cable"}},
}

func main() {
	userID := flag.String("user", "", "User ID that will own the movements (required)")
	flag.Parse()
	if *userID == "" {
		log.Fatal("Usage: seed_movements -user <USER_ID>")
	}

	_ = godotenv.Load()
	cfg := config.FromEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDB.URI))
	if err != nil {
		log.Fatalf("Failed to connect to Mongo: %v", err)
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.MongoDB.Database)
	movementRepo := repository.NewMongoMovementRepository(db)
	configRepo := repository.NewMongoExerciseConfigurationRepository(db)
	training := service.NewTrainingService(movementRepo, configRepo, nil, nil, nil, logger.Nop())

	existing, err := training.ListMovements(ctx, *userID)
	if err != nil {
		log.Fatalf("Failed to list movements: %v", err)
	}
	byName := make(map[string]*domain.Movement, len(existing))
	for _, m := range existing {
		byName[m.Name] = m
	}

	for _, seed := range movements {
		movement, ok := byName[seed.Name]
		if ok {
			fmt.Printf("Skipping existing movement: %s\n", seed.Name)
		} else {
			movement = &domain.Movement{Name: seed.Name, Category: seed.Category}
			if err := training.CreateMovement(ctx, *userID, movement); err != nil {
				log.Printf("Error creating %s: %v\n", seed.Name, err)
				continue
			}
			fmt.Printf("Created: %s\n", seed.Name)
		}

		for _, equipment := range seed.Equipment {
			variant := &domain.ExerciseConfiguration{MovementID: movement.ID, Equipment: equipment}
			err := training.CreateConfiguration(ctx, *userID, variant)
			switch {
			case errors.Is(err, domain.ErrDuplicateConfiguration):
				fmt.Printf("  Skipping duplicate: %s / %s\n", seed.Name, equipment)
			case err != nil:
				log.Printf("  Error creating %s / %s: %v\n", seed.Name, equipment, err)
			default:
				fmt.Printf("  Created configuration: %s / %s\n", seed.Name, equipment)
			}
		}
	}
	fmt.Println("Seeding Movements Complete.")
}
