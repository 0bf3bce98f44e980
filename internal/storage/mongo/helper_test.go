package mongo

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const testMongoURI = "mongodb://localhost:27017"

var (
	globalTestClient     *mongo.Client
	globalTestClientErr  error
	globalTestClientOnce sync.Once
)

func getGlobalTestClient(t *testing.T) *mongo.Client {
	globalTestClientOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(testMongoURI))
		if err != nil {
			globalTestClientErr = err
			return
		}
		if err := client.Ping(ctx, nil); err != nil {
			globalTestClientErr = err
			return
		}
		globalTestClient = client
	})
	if globalTestClientErr != nil {
		t.Skipf("mongo not reachable at %s: %v", testMongoURI, globalTestClientErr)
	}
	return globalTestClient
}

type TestEnv struct {
	Client *mongo.Client
	DBName string
	DB     *mongo.Database
}

func setupTestEnv(t *testing.T) *TestEnv {
	client := getGlobalTestClient(t)

	// Generate unique DB name
	safeName := strings.ReplaceAll(t.Name(), "/", "_")
	if len(safeName) > 20 {
		safeName = safeName[len(safeName)-20:]
	}
	dbName := fmt.Sprintf("test_orders_%s_%d", safeName, time.Now().UnixNano()%100000)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Database(dbName).Drop(ctx)
	})

	return &TestEnv{
		Client: client,
		DBName: dbName,
		DB:     client.Database(dbName),
	}
}

// setupTestStore returns a store on a fresh database. Close does not
// disconnect the shared client.
func setupTestStore(t *testing.T, fields ...string) *orderStore {
	env := setupTestEnv(t)
	s := NewOrderStore(nil, env.DB, Options{Collection: "orders", Indexes: toFields(fields)}).(*orderStore)
	return s
}
