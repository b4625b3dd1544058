package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/orbitlearn/orbit-server/internal/db"
	"github.com/orbitlearn/orbit-server/internal/models"
)

// ChatStore persists tutor message history, named chat sessions and the
// per-user active session marker.
type ChatStore struct {
	messages *mongo.Collection
	sessions *mongo.Collection
	active   *mongo.Collection
}

func NewChatStore(m *db.Mongo) *ChatStore {
	return &ChatStore{
		messages: m.ChatMessages,
		sessions: m.ChatSessions,
		active:   m.ActiveSessions,
	}
}

// SaveExchange stores a user message and the AI reply as two documents
// sharing one session id. A blank sessionID starts a new session.
func (s *ChatStore) SaveExchange(ctx context.Context, userEmail, message, response, sessionID string) (string, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	now := time.Now().UTC()
	userDoc := models.ChatMessage{
		ID:        uuid.NewString(),
		UserEmail: userEmail,
		Content:   message,
		IsAI:      false,
		SessionID: sessionID,
		Timestamp: now.Format(time.RFC3339),
		CreatedAt: now,
	}
	// The AI reply sorts after the user message on created_at.
	aiTime := now.Add(time.Millisecond)
	aiDoc := models.ChatMessage{
		ID:        uuid.NewString(),
		UserEmail: userEmail,
		Content:   response,
		IsAI:      true,
		SessionID: sessionID,
		Timestamp: aiTime.Format(time.RFC3339),
		CreatedAt: aiTime,
	}

	if _, err := s.messages.InsertOne(ctx, userDoc); err != nil {
		return "", fmt.Errorf("store: save user message: %w", err)
	}
	if _, err := s.messages.InsertOne(ctx, aiDoc); err != nil {
		return "", fmt.Errorf("store: save ai message: %w", err)
	}

	return sessionID, nil
}

// History returns messages for a user in ascending created_at order,
// optionally narrowed to one session.
func (s *ChatStore) History(ctx context.Context, userEmail, sessionID string, limit int64) ([]models.ChatMessage, error) {
	filter := bson.M{"user_email": userEmail}
	if sessionID != "" {
		filter["session_id"] = sessionID
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := s.messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("store: load history: %w", err)
	}
	defer cursor.Close(ctx)

	var messages []models.ChatMessage
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("store: decode history: %w", err)
	}

	return messages, nil
}

// ClearHistory deletes history for a user, optionally scoped to one
// session, and returns the number of removed messages.
func (s *ChatStore) ClearHistory(ctx context.Context, userEmail, sessionID string) (int64, error) {
	filter := bson.M{"user_email": userEmail}
	if sessionID != "" {
		filter["session_id"] = sessionID
	}

	result, err := s.messages.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("store: clear history: %w", err)
	}

	return result.DeletedCount, nil
}

// SaveActiveSession upserts the single live session marker for a user.
func (s *ChatStore) SaveActiveSession(ctx context.Context, session models.ActiveSession) error {
	session.LastUpdated = time.Now().UTC().Format(time.RFC3339)

	update := bson.M{
		"$set": bson.M{
			"user_email":    session.UserEmail,
			"session_id":    session.SessionID,
			"mode":          session.Mode,
			"subject":       session.Subject,
			"started_at":    session.StartedAt,
			"last_updated":  session.LastUpdated,
			"voice_enabled": session.VoiceEnabled,
		},
		"$setOnInsert": bson.M{"_id": uuid.NewString()},
	}

	_, err := s.active.UpdateOne(ctx, bson.M{"user_email": session.UserEmail}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("store: save active session: %w", err)
	}

	return nil
}

// ActiveSession returns the user's live session, or nil when none exists.
func (s *ChatStore) ActiveSession(ctx context.Context, userEmail string) (*models.ActiveSession, error) {
	var session models.ActiveSession
	err := s.active.FindOne(ctx, bson.M{"user_email": userEmail}).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("store: load active session: %w", err)
	}

	return &session, nil
}

// EndActiveSession removes the live session marker and reports whether one
// existed.
func (s *ChatStore) EndActiveSession(ctx context.Context, userEmail string) (bool, error) {
	result, err := s.active.DeleteOne(ctx, bson.M{"user_email": userEmail})
	if err != nil {
		return false, fmt.Errorf("store: end active session: %w", err)
	}

	return result.DeletedCount > 0, nil
}

// SetVoiceEnabled flips voice output on the live session and reports
// whether a session was found.
func (s *ChatStore) SetVoiceEnabled(ctx context.Context, userEmail string, enabled bool) (bool, error) {
	update := bson.M{"$set": bson.M{
		"voice_enabled": enabled,
		"last_updated":  time.Now().UTC().Format(time.RFC3339),
	}}

	result, err := s.active.UpdateOne(ctx, bson.M{"user_email": userEmail}, update)
	if err != nil {
		return false, fmt.Errorf("store: toggle voice: %w", err)
	}

	return result.MatchedCount > 0, nil
}

// Sessions lists a user's named chat sessions, most recently active first.
func (s *ChatStore) Sessions(ctx context.Context, userEmail string) ([]models.ChatSession, error) {
	opts := options.Find().SetSort(bson.D{{Key: "lastActivity", Value: -1}})
	cursor, err := s.sessions.Find(ctx, bson.M{"user_email": userEmail}, opts)
	if err != nil {
		return nil, fmt.Errorf("store: load sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var sessions []models.ChatSession
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("store: decode sessions: %w", err)
	}

	return sessions, nil
}

// ReplaceSessions swaps a user's full session list for the one provided,
// keeping client-assigned ids.
func (s *ChatStore) ReplaceSessions(ctx context.Context, userEmail string, sessions []models.ChatSession) error {
	if _, err := s.sessions.DeleteMany(ctx, bson.M{"user_email": userEmail}); err != nil {
		return fmt.Errorf("store: replace sessions: %w", err)
	}

	for i := range sessions {
		if sessions[i].ID == "" {
			sessions[i].ID = uuid.NewString()
		}
		sessions[i].UserEmail = userEmail

		_, err := s.sessions.ReplaceOne(ctx, bson.M{"_id": sessions[i].ID}, sessions[i], options.Replace().SetUpsert(true))
		if err != nil {
			return fmt.Errorf("store: replace session %s: %w", sessions[i].ID, err)
		}
	}

	return nil
}

// CreateSession inserts a new named session and returns it with its id.
func (s *ChatStore) CreateSession(ctx context.Context, session models.ChatSession) (models.ChatSession, error) {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.Messages == nil {
		session.Messages = []models.SessionMessage{}
	}

	if _, err := s.sessions.InsertOne(ctx, session); err != nil {
		return models.ChatSession{}, fmt.Errorf("store: create session: %w", err)
	}

	return session, nil
}

// UpdateSessionMessages replaces the message list of one session.
func (s *ChatStore) UpdateSessionMessages(ctx context.Context, userEmail, id string, messages []models.SessionMessage, lastActivity string) (bool, error) {
	update := bson.M{"$set": bson.M{
		"messages":     messages,
		"lastActivity": lastActivity,
		"messageCount": len(messages),
	}}

	result, err := s.sessions.UpdateOne(ctx, bson.M{"_id": id, "user_email": userEmail}, update)
	if err != nil {
		return false, fmt.Errorf("store: update session messages: %w", err)
	}

	return result.ModifiedCount > 0, nil
}

// AppendSessionMessages pushes new messages onto a session and bumps its
// activity marker. A missing session is a silent no-op.
func (s *ChatStore) AppendSessionMessages(ctx context.Context, userEmail, id string, messages []models.SessionMessage, lastActivity string) error {
	update := bson.M{
		"$push": bson.M{"messages": bson.M{"$each": messages}},
		"$set":  bson.M{"lastActivity": lastActivity},
		"$inc":  bson.M{"messageCount": len(messages)},
	}

	if _, err := s.sessions.UpdateOne(ctx, bson.M{"_id": id, "user_email": userEmail}, update); err != nil {
		return fmt.Errorf("store: append session messages: %w", err)
	}

	return nil
}

// DeleteSession removes one session and reports whether it existed.
func (s *ChatStore) DeleteSession(ctx context.Context, userEmail, id string) (bool, error) {
	result, err := s.sessions.DeleteOne(ctx, bson.M{"_id": id, "user_email": userEmail})
	if err != nil {
		return false, fmt.Errorf("store: delete session: %w", err)
	}

	return result.DeletedCount > 0, nil
}

// TouchSession bumps a session's lastActivity marker.
func (s *ChatStore) TouchSession(ctx context.Context, userEmail, id, lastActivity string) (bool, error) {
	update := bson.M{"$set": bson.M{"lastActivity": lastActivity}}

	result, err := s.sessions.UpdateOne(ctx, bson.M{"_id": id, "user_email": userEmail}, update)
	if err != nil {
		return false, fmt.Errorf("store: touch session: %w", err)
	}

	return result.ModifiedCount > 0, nil
}
