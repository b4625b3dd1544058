package models

import "time"

// ChatMessage is one turn of a tutor conversation. User and AI turns are
// stored as separate documents sharing a session_id.
type ChatMessage struct {
	ID        string    `bson:"_id,omitempty" json:"-"`
	UserEmail string    `bson:"user_email" json:"-"`
	Content   string    `bson:"content" json:"content"`
	IsAI      bool      `bson:"is_ai" json:"is_ai"`
	SessionID string    `bson:"session_id" json:"session_id"`
	Timestamp string    `bson:"timestamp" json:"timestamp"`
	CreatedAt time.Time `bson:"created_at" json:"-"`
}

// SessionMessage is a message embedded in a named chat session.
type SessionMessage struct {
	Role      string `bson:"role" json:"role"`
	Content   string `bson:"content" json:"content"`
	Timestamp string `bson:"timestamp" json:"timestamp"`
}

// ChatSession is a named, client-managed conversation thread.
type ChatSession struct {
	ID           string           `bson:"_id" json:"id"`
	UserEmail    string           `bson:"user_email" json:"userEmail"`
	Name         string           `bson:"name" json:"name"`
	Messages     []SessionMessage `bson:"messages" json:"messages"`
	CreatedAt    string           `bson:"createdAt" json:"createdAt"`
	LastActivity string           `bson:"lastActivity" json:"lastActivity"`
	MessageCount int              `bson:"messageCount" json:"messageCount"`
}

// ActiveSession tracks the single live tutoring session per user.
type ActiveSession struct {
	ID           string `bson:"_id,omitempty" json:"id,omitempty"`
	UserEmail    string `bson:"user_email" json:"user_email"`
	SessionID    string `bson:"session_id" json:"session_id"`
	Mode         string `bson:"mode" json:"mode"`
	Subject      string `bson:"subject" json:"subject"`
	StartedAt    string `bson:"started_at" json:"started_at"`
	LastUpdated  string `bson:"last_updated" json:"last_updated"`
	VoiceEnabled bool   `bson:"voice_enabled" json:"voice_enabled"`
}
