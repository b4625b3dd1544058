package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/orbitlearn/orbit-server/internal/ai"
	"github.com/orbitlearn/orbit-server/internal/api"
	"github.com/orbitlearn/orbit-server/internal/auth"
	"github.com/orbitlearn/orbit-server/internal/config"
	"github.com/orbitlearn/orbit-server/internal/db"
	"github.com/orbitlearn/orbit-server/internal/logging"
	"github.com/orbitlearn/orbit-server/internal/services"
	"github.com/orbitlearn/orbit-server/internal/storage"
	"github.com/orbitlearn/orbit-server/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("config: no .env file loaded: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: failed to load: %v", err)
	}

	logger := logging.MustNewLogger(cfg.Logging)
	defer logger.Sync()
	sugar := logger.Sugar()

	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	postgres, err := db.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		sugar.Fatalw("postgres: failed to connect", "error", err)
	}
	defer postgres.Close()

	if err := postgres.Ping(ctx); err != nil {
		sugar.Fatalw("postgres: ping failed", "error", err)
	}
	if err := postgres.EnsureSchema(ctx); err != nil {
		sugar.Fatalw("postgres: ensure schema", "error", err)
	}

	mongoStore, err := db.NewMongo(ctx, cfg.Mongo)
	if err != nil {
		sugar.Fatalw("mongo: failed to connect", "error", err)
	}
	defer func() {
		if err := mongoStore.Close(context.Background()); err != nil {
			sugar.Warnw("mongo: close error", "error", err)
		}
	}()

	if err := mongoStore.EnsureCollections(ctx); err != nil {
		sugar.Fatalw("mongo: ensure collections", "error", err)
	}

	// AI and object storage are optional at boot. Without a Gemini key the
	// generation features answer with their deterministic fallbacks; without
	// storage the resume upload endpoints answer 503.
	aiClient, err := ai.NewClient(ctx, cfg.Gemini)
	if err != nil {
		sugar.Warnw("ai: client init failed, features degrade to fallbacks", "error", err)
		aiClient, _ = ai.NewClient(ctx, config.GeminiConfig{})
	}
	if aiClient.Configured() {
		sugar.Infow("ai: gemini client ready", "model", aiClient.Model())
	} else {
		sugar.Warnw("ai: no API key configured, running in fallback mode")
	}

	storageClient, err := storage.NewClient(cfg.Storage)
	if err != nil {
		sugar.Fatalw("storage: failed to create client", "error", err)
	}
	if storageClient.Configured() {
		if err := storageClient.EnsureBucket(ctx); err != nil {
			sugar.Fatalw("storage: ensure bucket", "error", err)
		}
		sugar.Infow("storage: bucket ready", "bucket", cfg.Storage.Bucket)
	} else {
		sugar.Warnw("storage: not configured, resume uploads disabled")
	}

	authService, err := auth.NewService(auth.NewPostgresStore(postgres.Pool), cfg.JWTSecret, 24*time.Hour)
	if err != nil {
		sugar.Fatalw("auth: failed to initialise service", "error", err)
	}

	chats := store.NewChatStore(mongoStore)
	quizzes := store.NewQuizStore(mongoStore)
	roadmaps := store.NewRoadmapStore(mongoStore)

	deps := api.Deps{
		Config:       cfg,
		Logger:       sugar,
		Auth:         authService,
		Tutor:        services.NewTutorService(aiClient, chats, cfg.Policy.FallbackTutor, sugar),
		Chatbot:      services.NewChatbotService(aiClient, chats, cfg.Policy.FallbackChat, sugar),
		Quiz:         services.NewQuizService(aiClient, cfg.Policy.FallbackQuiz, sugar),
		Roadmap:      services.NewRoadmapService(aiClient, cfg.Policy.FallbackRoadmap, sugar),
		Resume:       services.NewResumeService(aiClient, cfg.Policy.FallbackResume, sugar),
		Visual:       services.NewVisualService(aiClient, cfg.Policy.FallbackVisual, sugar),
		Stats:        services.NewStatsService(quizzes, roadmaps),
		Chats:        chats,
		Quizzes:      quizzes,
		Roadmaps:     roadmaps,
		Storage:      storageClient,
		Mongo:        mongoStore,
		AIConfigured: aiClient.Configured(),
	}

	router := setupRouter(cfg, deps)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sugar.Infow("server listening", "addr", server.Addr, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalw("server crashed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		sugar.Warnw("graceful shutdown failed", "error", err)
	}

	sugar.Infow("server stopped cleanly")
}

func setupRouter(cfg *config.Config, deps api.Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), api.CORS(cfg.AllowedOrigins))

	api.NewHandler(deps).RegisterRoutes(router)

	return router
}
