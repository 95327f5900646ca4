package tests

import (
	"context"
	"log"
	"testing"
	"time"

	"github.com/mansoorceksport/liftrecords/internal/config"
	"github.com/mansoorceksport/liftrecords/internal/service"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const testJWTSecret = "test-secret-key-0123456789abcdef"

// SetupTestDB spins up a fresh MongoDB container and returns the database connection
// along with a cleanup function. Skipped with -short.
func SetupTestDB(t *testing.T) (*mongo.Client, *mongo.Database, func()) {
	return setupMongo(t, false)
}

// SetupReplicaSetDB is SetupTestDB on a single-node replica set, which
// multi-document transactions require
func SetupReplicaSetDB(t *testing.T) (*mongo.Client, *mongo.Database, func()) {
	return setupMongo(t, true)
}

func setupMongo(t *testing.T, replicaSet bool) (*mongo.Client, *mongo.Database, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping MongoDB container test in short mode")
	}
	ctx := context.Background()

	var (
		mongodbContainer *mongodb.MongoDBContainer
		err              error
	)
	if replicaSet {
		mongodbContainer, err = mongodb.Run(ctx, "mongo:7", mongodb.WithReplicaSet("rs0"))
	} else {
		mongodbContainer, err = mongodb.Run(ctx, "mongo:7")
	}
	if err != nil {
		t.Fatalf("failed to start container: %s", err)
	}

	endpoint, err := mongodbContainer.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get connection string: %s", err)
	}

	// Talk to the single member directly; its advertised host is container-internal
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(endpoint).SetDirect(true))
	if err != nil {
		t.Fatalf("failed to connect to mongo: %v", err)
	}

	return mongoClient, mongoClient.Database("test_db"), func() {
		if err := mongoClient.Disconnect(ctx); err != nil {
			log.Printf("failed to disconnect mongo: %v", err)
		}
		if err := mongodbContainer.Terminate(ctx); err != nil {
			log.Printf("failed to terminate container: %v", err)
		}
	}
}

// TestConfig returns the minimal configuration NewApp needs
func TestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.BodyLimitKB = 512
	cfg.Server.IdempotencyTTL = time.Hour
	cfg.JWT.Secret = testJWTSecret
	cfg.JWT.AccessTokenExpiry = time.Hour
	return cfg
}

// IssueToken mints an access token for userID signed with the test secret
func IssueToken(t *testing.T, cfg *config.Config, userID string) string {
	t.Helper()
	token, err := service.NewTokenService(cfg.JWT).IssueAccessToken(userID, "", userID+"@example.com")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return token.AccessToken
}
