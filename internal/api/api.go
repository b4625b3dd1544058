// Package api wires the HTTP surface: route registration, request
// validation, and translation between wire payloads and the service layer.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/orbitlearn/orbit-server/internal/auth"
	"github.com/orbitlearn/orbit-server/internal/config"
	"github.com/orbitlearn/orbit-server/internal/db"
	"github.com/orbitlearn/orbit-server/internal/models"
	"github.com/orbitlearn/orbit-server/internal/services"
	"github.com/orbitlearn/orbit-server/internal/storage"
	"github.com/orbitlearn/orbit-server/internal/store"
)

// Feature services are consumed through narrow interfaces so handlers can
// be exercised with stubs.
type (
	TutorProvider interface {
		Answer(ctx context.Context, req services.AskRequest) (services.AskResult, error)
		StartSession(ctx context.Context, req services.StartSessionRequest) (services.StartSessionResult, error)
		Converse(ctx context.Context, prompt, subject string, history []models.SessionMessage) (string, error)
		Ping(ctx context.Context) error
	}

	ChatProvider interface {
		Reply(ctx context.Context, req services.ReplyRequest) (string, error)
	}

	QuizProvider interface {
		Generate(ctx context.Context, topic, difficulty string, n int) (models.GeneratedQuiz, error)
	}

	RoadmapProvider interface {
		Generate(ctx context.Context, goal, level string, durationWeeks int) (models.RoadmapData, error)
	}

	ResumeProvider interface {
		Analyze(ctx context.Context, resumeText, jobDescription string) (models.ResumeAnalysis, error)
	}

	VisualProvider interface {
		GenerateVideo(ctx context.Context, text string, duration int, resolution, aspectRatio, style string) (services.VideoResult, error)
	}

	StatsProvider interface {
		UserStats(ctx context.Context, userEmail string) (models.UserStats, error)
	}
)

// Deps collects everything the handler set needs. Storage may be nil when
// the object store is not configured; Mongo is only consulted for health.
type Deps struct {
	Config *config.Config
	Logger *zap.SugaredLogger

	Auth    *auth.Service
	Tutor   TutorProvider
	Chatbot ChatProvider
	Quiz    QuizProvider
	Roadmap RoadmapProvider
	Resume  ResumeProvider
	Visual  VisualProvider
	Stats   StatsProvider

	Chats    *store.ChatStore
	Quizzes  *store.QuizStore
	Roadmaps *store.RoadmapStore
	Storage  *storage.Client
	Mongo    *db.Mongo

	AIConfigured bool
}

type Handler struct {
	logger       *zap.SugaredLogger
	dev          bool
	environment  string
	aiConfigured bool

	auth    *auth.Service
	tutor   TutorProvider
	chatbot ChatProvider
	quiz    QuizProvider
	roadmap RoadmapProvider
	resume  ResumeProvider
	visual  VisualProvider
	stats   StatsProvider

	chats    *store.ChatStore
	quizzes  *store.QuizStore
	roadmaps *store.RoadmapStore
	storage  *storage.Client
	mongo    *db.Mongo

	// fetch downloads a URL body (PDF sources); replaceable in tests.
	fetch func(ctx context.Context, url string) ([]byte, error)

	upgrader websocket.Upgrader
}

func NewHandler(deps Deps) *Handler {
	return &Handler{
		logger:       deps.Logger,
		dev:          deps.Config.Development(),
		environment:  deps.Config.Environment,
		aiConfigured: deps.AIConfigured,
		auth:         deps.Auth,
		tutor:        deps.Tutor,
		chatbot:      deps.Chatbot,
		quiz:         deps.Quiz,
		roadmap:      deps.Roadmap,
		resume:       deps.Resume,
		visual:       deps.Visual,
		stats:        deps.Stats,
		chats:        deps.Chats,
		quizzes:      deps.Quizzes,
		roadmaps:     deps.Roadmaps,
		storage:      deps.Storage,
		mongo:        deps.Mongo,
		fetch:        fetchURL,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin policy mirrors the CORS layer: any origin may connect.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.handleHealth)

	apiGroup := router.Group("/api")
	apiGroup.GET("/runtime-features", h.handleRuntimeFeatures)

	authGroup := apiGroup.Group("/auth")
	authGroup.POST("/register", h.handleRegister)
	authGroup.POST("/login", h.handleLogin)

	tutorGroup := apiGroup.Group("/tutor")
	tutorGroup.POST("/ask", h.handleTutorAsk)
	tutorGroup.POST("/session/start", h.handleSessionStart)
	tutorGroup.POST("/session/end", h.handleSessionEnd)
	tutorGroup.GET("/session/active", h.handleSessionActive)
	tutorGroup.GET("/chat/history", h.handleChatHistory)
	tutorGroup.POST("/chat/clear", h.handleChatClear)
	tutorGroup.POST("/voice/toggle", h.handleVoiceToggle)
	tutorGroup.POST("/voice/optimize", h.handleVoiceOptimize)
	tutorGroup.GET("/voice/connection", h.handleVoiceConnection)
	tutorGroup.GET("/health", h.handleTutorHealth)
	tutorGroup.GET("/live", h.handleTutorLive)

	chatGroup := apiGroup.Group("/chat")
	chatGroup.GET("/loadChat", h.handleLoadChat)
	chatGroup.PUT("/saveChat", h.handleSaveChat)
	chatGroup.POST("/createChat", h.handleCreateChat)
	chatGroup.PUT("/updateMessages/:id/messages", h.handleUpdateMessages)
	chatGroup.DELETE("/deleteChat/:id", h.handleDeleteChat)
	chatGroup.PATCH("/updateActivity/:id/activity", h.handleUpdateActivity)
	chatGroup.POST("/message", h.handleChatMessage)
	chatGroup.POST("/ask", h.handleChatAsk)

	apiGroup.POST("/quizzes/generate", h.handleQuizGenerate)
	apiGroup.POST("/quizzes/submit", h.handleQuizSubmit)
	apiGroup.GET("/tools/quizzes", h.handleQuizList)
	apiGroup.POST("/tools/quizzes", h.handleQuizSave)
	apiGroup.DELETE("/tools/quizzes/:id", h.handleQuizDelete)
	apiGroup.GET("/quiz-history", h.handleQuizHistoryList)
	apiGroup.POST("/quiz-history", h.handleQuizHistoryLog)
	apiGroup.DELETE("/quiz-history", h.handleQuizHistoryClear)

	roadmapGroup := apiGroup.Group("/roadmap")
	roadmapGroup.POST("/generate", h.handleRoadmapGenerate)
	roadmapGroup.GET("/user", h.handleRoadmapList)
	roadmapGroup.GET("/download/:id", h.handleRoadmapDownload)
	roadmapGroup.GET("/:id", h.handleRoadmapGet)
	roadmapGroup.DELETE("/:id", h.handleRoadmapDelete)

	resumeGroup := apiGroup.Group("/resume")
	resumeGroup.POST("/upload", h.handleResumeUpload)
	resumeGroup.POST("/analyze", h.handleResumeAnalyze)

	visualGroup := apiGroup.Group("/visual")
	visualGroup.POST("/text-to-video", h.handleTextToVideo)
	visualGroup.POST("/pdf-url-to-video", h.handlePDFURLToVideo)
	visualGroup.POST("/audio-url-to-video", h.handleAudioURLToVideo)
	visualGroup.POST("/veo3-generate", h.handleVeo3Generate)
	visualGroup.GET("/check", h.handleVisualCheck)
	visualGroup.GET("/job/*rest", h.handleVisualJobStatus)
	visualGroup.POST("/job/*rest", h.handleVisualJobSubmit)

	apiGroup.GET("/user-stats", h.handleUserStats)
	apiGroup.POST("/user-stats/session", h.handleUserStatsSession)
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   "orbit-server",
		"timestamp": nowISO(),
	})
}

// handleRuntimeFeatures reports which optional integrations are live so a
// frontend can adapt before hitting a degraded endpoint.
func (h *Handler) handleRuntimeFeatures(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"features": gin.H{
			"gemini_api_configured": h.aiConfigured,
			"storage_configured":    h.storage != nil && h.storage.Configured(),
			"environment":           h.environment,
		},
	})
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

// ownerIdentifier picks the owner key: email preferred, legacy user id
// accepted for older clients.
func ownerIdentifier(userEmail, userID string) string {
	if userEmail != "" {
		return userEmail
	}
	return userID
}

func fetchURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("api: build request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api: fetch %s: status %d", url, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
