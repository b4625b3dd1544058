package db_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/orbitlearn/orbit-server/internal/config"
	"github.com/orbitlearn/orbit-server/internal/db"
)

func TestMongoEnsureCollectionsAndCRUD(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set; skipping mongo integration test")
	}

	database := "orbit_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	cfg := config.MongoConfig{
		URI:            uri,
		Database:       database,
		ConnectTimeout: 5 * time.Second,
	}

	store, err := db.NewMongo(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to connect to mongo: %v", err)
	}
	defer func() {
		ctx := context.Background()
		store.Database.Drop(ctx)
		store.Close(ctx)
	}()

	if err := store.EnsureCollections(context.Background()); err != nil {
		t.Fatalf("ensure collections failed: %v", err)
	}

	ctx := context.Background()

	sessionID := uuid.NewString()
	email := "tester@example.com"
	_, err = store.ChatMessages.InsertOne(ctx, bson.M{
		"_id":        uuid.NewString(),
		"user_email": email,
		"content":    "hello",
		"is_ai":      false,
		"session_id": sessionID,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"created_at": time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("failed to insert chat message: %v", err)
	}

	var result bson.M
	if err := store.ChatMessages.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&result); err != nil {
		t.Fatalf("failed to fetch chat message: %v", err)
	}
	if result["content"] != "hello" {
		t.Fatalf("expected chat message content 'hello', got %v", result["content"])
	}

	quizID := uuid.NewString()
	_, err = store.Quizzes.InsertOne(ctx, bson.M{
		"_id":        quizID,
		"topic":      "algebra",
		"difficulty": "easy",
		"questions":  []bson.M{},
		"created_by": email,
		"created_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("failed to insert quiz: %v", err)
	}

	count, err := store.Quizzes.CountDocuments(ctx, bson.M{"created_by": email})
	if err != nil {
		t.Fatalf("failed to count quizzes: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 quiz for %s, got %d", email, count)
	}

	// The unique index on active_sessions keeps one live session per user.
	if _, err := store.ActiveSessions.InsertOne(ctx, bson.M{
		"_id":        uuid.NewString(),
		"user_email": email,
		"session_id": sessionID,
	}); err != nil {
		t.Fatalf("failed to insert active session: %v", err)
	}
	if _, err := store.ActiveSessions.InsertOne(ctx, bson.M{
		"_id":        uuid.NewString(),
		"user_email": email,
		"session_id": uuid.NewString(),
	}); err == nil {
		t.Fatal("expected duplicate active session insert to fail")
	}
}
