package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/orbitlearn/orbit-server/internal/db"
	"github.com/orbitlearn/orbit-server/internal/models"
)

// QuizStore persists saved quizzes and quiz completion history.
type QuizStore struct {
	quizzes *mongo.Collection
	history *mongo.Collection
}

func NewQuizStore(m *db.Mongo) *QuizStore {
	return &QuizStore{quizzes: m.Quizzes, history: m.QuizHistory}
}

// SaveQuiz inserts a quiz, assigning an id when none is set.
func (s *QuizStore) SaveQuiz(ctx context.Context, quiz models.Quiz) (models.Quiz, error) {
	if quiz.ID == "" {
		quiz.ID = uuid.NewString()
	}
	if quiz.Questions == nil {
		quiz.Questions = []models.QuizQuestion{}
	}
	quiz.NumQuestions = len(quiz.Questions)

	if _, err := s.quizzes.InsertOne(ctx, quiz); err != nil {
		return models.Quiz{}, fmt.Errorf("store: save quiz: %w", err)
	}

	return quiz, nil
}

// QuizzesByUser lists quizzes created by a user.
func (s *QuizStore) QuizzesByUser(ctx context.Context, userEmail string) ([]models.Quiz, error) {
	cursor, err := s.quizzes.Find(ctx, bson.M{"created_by": userEmail})
	if err != nil {
		return nil, fmt.Errorf("store: load quizzes: %w", err)
	}
	defer cursor.Close(ctx)

	var quizzes []models.Quiz
	if err := cursor.All(ctx, &quizzes); err != nil {
		return nil, fmt.Errorf("store: decode quizzes: %w", err)
	}

	return quizzes, nil
}

// QuizByID returns one quiz, or nil when it does not exist.
func (s *QuizStore) QuizByID(ctx context.Context, id string) (*models.Quiz, error) {
	var quiz models.Quiz
	err := s.quizzes.FindOne(ctx, bson.M{"_id": id}).Decode(&quiz)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("store: load quiz: %w", err)
	}

	return &quiz, nil
}

// DeleteQuiz removes one quiz and reports whether it existed.
func (s *QuizStore) DeleteQuiz(ctx context.Context, id string) (bool, error) {
	result, err := s.quizzes.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("store: delete quiz: %w", err)
	}

	return result.DeletedCount > 0, nil
}

// SaveHistory records one completed attempt.
func (s *QuizStore) SaveHistory(ctx context.Context, entry models.QuizHistoryEntry) (models.QuizHistoryEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	if _, err := s.history.InsertOne(ctx, entry); err != nil {
		return models.QuizHistoryEntry{}, fmt.Errorf("store: save quiz history: %w", err)
	}

	return entry, nil
}

// HistoryByUser lists attempts, most recent first.
func (s *QuizStore) HistoryByUser(ctx context.Context, userID string) ([]models.QuizHistoryEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "completedAt", Value: -1}})
	cursor, err := s.history.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("store: load quiz history: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []models.QuizHistoryEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("store: decode quiz history: %w", err)
	}

	return entries, nil
}

// ClearHistory deletes all attempts for a user and returns how many were
// removed.
func (s *QuizStore) ClearHistory(ctx context.Context, userID string) (int64, error) {
	result, err := s.history.DeleteMany(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, fmt.Errorf("store: clear quiz history: %w", err)
	}

	return result.DeletedCount, nil
}

// CountHistory returns the number of recorded attempts for a user.
func (s *QuizStore) CountHistory(ctx context.Context, userID string) (int64, error) {
	count, err := s.history.CountDocuments(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, fmt.Errorf("store: count quiz history: %w", err)
	}

	return count, nil
}
