package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/orbitlearn/orbit-server/internal/auth"
	"github.com/orbitlearn/orbit-server/internal/config"
	"github.com/orbitlearn/orbit-server/internal/db"
	"github.com/orbitlearn/orbit-server/internal/models"
	"github.com/orbitlearn/orbit-server/internal/store"
)

const (
	demoUsername = "demo"
	demoEmail    = "demo@orbitlearn.dev"
	demoPassword = "demo-password"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()

	postgres, err := db.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer postgres.Close()

	if err := postgres.EnsureSchema(ctx); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	mongoStore, err := db.NewMongo(ctx, cfg.Mongo)
	if err != nil {
		log.Fatalf("connect mongo: %v", err)
	}
	defer mongoStore.Close(context.Background())

	if err := mongoStore.EnsureCollections(ctx); err != nil {
		log.Fatalf("ensure collections: %v", err)
	}

	authService, err := auth.NewService(auth.NewPostgresStore(postgres.Pool), cfg.JWTSecret, 24*time.Hour)
	if err != nil {
		log.Fatalf("init auth service: %v", err)
	}

	switch _, err := authService.Register(ctx, auth.RegisterInput{
		Username: demoUsername,
		Email:    demoEmail,
		Password: demoPassword,
	}); err {
	case nil:
		log.Printf("created demo account %s", demoEmail)
	case auth.ErrUserExists, auth.ErrEmailExists:
		log.Printf("demo account %s already present", demoEmail)
	default:
		log.Fatalf("register demo account: %v", err)
	}

	now := time.Now().UTC()
	nowISO := now.Format(time.RFC3339)

	quizzes := store.NewQuizStore(mongoStore)

	quiz := models.Quiz{
		ID:         uuid.NewString(),
		Topic:      "Goroutines and Channels",
		Difficulty: "medium",
		Questions: []models.QuizQuestion{
			{
				ID:            1,
				Question:      "What does the `go` keyword do?",
				Options:       []string{"Starts a goroutine", "Imports a package", "Declares a variable", "Compiles the program"},
				CorrectAnswer: "Starts a goroutine",
			},
			{
				ID:            2,
				Question:      "Which operation blocks on an unbuffered channel?",
				Options:       []string{"Send without a ready receiver", "Declaring the channel", "Closing the channel", "Ranging over a closed channel"},
				CorrectAnswer: "Send without a ready receiver",
			},
			{
				ID:            3,
				Question:      "What happens when you receive from a closed channel?",
				Options:       []string{"You get the zero value immediately", "The program panics", "The receive blocks forever", "A compile error"},
				CorrectAnswer: "You get the zero value immediately",
			},
			{
				ID:            4,
				Question:      "Which construct waits for several channel operations at once?",
				Options:       []string{"select", "switch", "for", "defer"},
				CorrectAnswer: "select",
			},
			{
				ID:            5,
				Question:      "What does sync.WaitGroup coordinate?",
				Options:       []string{"Completion of a set of goroutines", "Mutual exclusion", "Channel capacity", "Garbage collection"},
				CorrectAnswer: "Completion of a set of goroutines",
			},
		},
		CreatedAt:    nowISO,
		CreatedBy:    demoEmail,
		NumQuestions: 5,
	}

	saved, err := quizzes.SaveQuiz(ctx, quiz)
	if err != nil {
		log.Fatalf("seed quiz: %v", err)
	}

	if _, err := quizzes.SaveHistory(ctx, models.QuizHistoryEntry{
		ID:             uuid.NewString(),
		QuizID:         saved.ID,
		QuizTitle:      "Goroutines and Channels",
		Topic:          "Goroutines and Channels",
		Difficulty:     "medium",
		TotalQuestions: 5,
		CorrectAnswers: 4,
		Percentage:     80,
		TimeTaken:      "4m 12s",
		UserID:         demoEmail,
		CompletedAt:    nowISO,
	}); err != nil {
		log.Fatalf("seed quiz history: %v", err)
	}

	roadmaps := store.NewRoadmapStore(mongoStore)

	roadmap := models.Roadmap{
		ID:            uuid.NewString(),
		UserEmail:     demoEmail,
		Title:         "Become a backend Go developer",
		Description:   "CS student comfortable with Python",
		DurationWeeks: 8,
		CreatedAt:     now,
		Data: models.RoadmapData{
			Title:         "Become a backend Go developer",
			Description:   "An eight week path from Go basics to a deployed service.",
			DurationWeeks: 8,
			Nodes: []models.RoadmapNode{
				{
					ID:          "node-1",
					Title:       "Go fundamentals",
					Description: "Syntax, types, slices, maps and the toolchain.",
					Week:        1,
					Resources:   []string{"A Tour of Go", "Effective Go"},
					Skills:      []string{"Go syntax", "tooling"},
				},
				{
					ID:          "node-2",
					Title:       "Concurrency",
					Description: "Goroutines, channels and the sync package.",
					Week:        3,
					Resources:   []string{"Go by Example: Goroutines"},
					Skills:      []string{"concurrency"},
				},
				{
					ID:          "node-3",
					Title:       "HTTP services",
					Description: "REST APIs, middleware, JSON handling and testing.",
					Week:        5,
					Resources:   []string{"net/http docs", "Gin guide"},
					Skills:      []string{"REST", "testing"},
				},
				{
					ID:          "node-4",
					Title:       "Ship a project",
					Description: "Build and deploy a small service with a database.",
					Week:        7,
					Resources:   []string{"Docker getting started"},
					Skills:      []string{"deployment", "PostgreSQL"},
				},
			},
			Edges: []models.RoadmapEdge{
				{From: "node-1", To: "node-2"},
				{From: "node-2", To: "node-3"},
				{From: "node-3", To: "node-4"},
			},
		},
	}

	if _, err := roadmaps.SaveRoadmap(ctx, roadmap); err != nil {
		log.Fatalf("seed roadmap: %v", err)
	}

	chats := store.NewChatStore(mongoStore)

	session, err := chats.CreateSession(ctx, models.ChatSession{
		UserEmail:    demoEmail,
		Name:         "Getting started with Go",
		Messages:     []models.SessionMessage{},
		CreatedAt:    nowISO,
		LastActivity: nowISO,
		MessageCount: 0,
	})
	if err != nil {
		log.Fatalf("seed chat session: %v", err)
	}

	if err := chats.AppendSessionMessages(ctx, demoEmail, session.ID, []models.SessionMessage{
		{Role: "user", Content: "What makes goroutines cheaper than OS threads?", Timestamp: nowISO},
		{Role: "assistant", Content: "Goroutines start with a few kilobytes of stack that grows on demand, and the Go runtime multiplexes many of them onto a small set of OS threads.", Timestamp: nowISO},
	}, nowISO); err != nil {
		log.Fatalf("seed chat messages: %v", err)
	}

	if _, err := chats.SaveExchange(ctx, demoEmail,
		"Explain the difference between arrays and slices.",
		"Arrays have a fixed length that is part of their type; slices are descriptors over arrays with a length and capacity that can grow via append.",
		"tutor_tutor_general_seed"); err != nil {
		log.Fatalf("seed tutor exchange: %v", err)
	}

	log.Printf("seeded demo data for %s: 1 quiz, 1 history entry, 1 roadmap, 1 chat session", demoEmail)
}
