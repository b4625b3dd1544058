package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/orbitlearn/orbit-server/internal/ai"
	"github.com/orbitlearn/orbit-server/internal/auth"
	"github.com/orbitlearn/orbit-server/internal/config"
	"github.com/orbitlearn/orbit-server/internal/models"
	"github.com/orbitlearn/orbit-server/internal/services"
)

type stubTutor struct {
	lastAsk     services.AskRequest
	answer      services.AskResult
	answerErr   error
	start       services.StartSessionResult
	startErr    error
	converse    string
	converseErr error
	historyLens []int
	pingErr     error
}

func (s *stubTutor) Answer(_ context.Context, req services.AskRequest) (services.AskResult, error) {
	s.lastAsk = req
	return s.answer, s.answerErr
}

func (s *stubTutor) StartSession(_ context.Context, _ services.StartSessionRequest) (services.StartSessionResult, error) {
	return s.start, s.startErr
}

func (s *stubTutor) Converse(_ context.Context, _, _ string, history []models.SessionMessage) (string, error) {
	s.historyLens = append(s.historyLens, len(history))
	return s.converse, s.converseErr
}

func (s *stubTutor) Ping(context.Context) error { return s.pingErr }

type stubChat struct {
	lastReq  services.ReplyRequest
	reply    string
	replyErr error
}

func (s *stubChat) Reply(_ context.Context, req services.ReplyRequest) (string, error) {
	s.lastReq = req
	return s.reply, s.replyErr
}

type stubQuiz struct {
	lastTopic      string
	lastDifficulty string
	lastN          int
	quiz           models.GeneratedQuiz
	err            error
}

func (s *stubQuiz) Generate(_ context.Context, topic, difficulty string, n int) (models.GeneratedQuiz, error) {
	s.lastTopic = topic
	s.lastDifficulty = difficulty
	s.lastN = n
	return s.quiz, s.err
}

type stubRoadmap struct {
	data models.RoadmapData
	err  error
}

func (s *stubRoadmap) Generate(_ context.Context, _, _ string, _ int) (models.RoadmapData, error) {
	return s.data, s.err
}

type stubResume struct {
	lastResume string
	lastJob    string
	analysis   models.ResumeAnalysis
	err        error
}

func (s *stubResume) Analyze(_ context.Context, resumeText, jobDescription string) (models.ResumeAnalysis, error) {
	s.lastResume = resumeText
	s.lastJob = jobDescription
	return s.analysis, s.err
}

type stubVisual struct {
	lastText   string
	lastParams [3]string
	result     services.VideoResult
	err        error
}

func (s *stubVisual) GenerateVideo(_ context.Context, text string, _ int, resolution, aspectRatio, style string) (services.VideoResult, error) {
	s.lastText = text
	s.lastParams = [3]string{resolution, aspectRatio, style}
	return s.result, s.err
}

type stubStats struct {
	stats models.UserStats
	err   error
}

func (s *stubStats) UserStats(context.Context, string) (models.UserStats, error) {
	return s.stats, s.err
}

type apiStubs struct {
	tutor   *stubTutor
	chat    *stubChat
	quiz    *stubQuiz
	roadmap *stubRoadmap
	resume  *stubResume
	visual  *stubVisual
	stats   *stubStats
}

func setupTestRouter(t *testing.T) (*gin.Engine, *Handler, *apiStubs) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	authService, err := auth.NewService(auth.NewMemoryStore(), "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("failed to create auth service: %v", err)
	}

	stubs := &apiStubs{
		tutor:   &stubTutor{},
		chat:    &stubChat{},
		quiz:    &stubQuiz{},
		roadmap: &stubRoadmap{},
		resume:  &stubResume{},
		visual:  &stubVisual{},
		stats:   &stubStats{},
	}

	handler := NewHandler(Deps{
		Config:       &config.Config{Environment: "development"},
		Logger:       zap.NewNop().Sugar(),
		Auth:         authService,
		Tutor:        stubs.tutor,
		Chatbot:      stubs.chat,
		Quiz:         stubs.quiz,
		Roadmap:      stubs.roadmap,
		Resume:       stubs.resume,
		Visual:       stubs.visual,
		Stats:        stubs.stats,
		AIConfigured: true,
	})

	router := gin.New()
	handler.RegisterRoutes(router)

	return router, handler, stubs
}

func newJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}

	req, err := http.NewRequest(method, path, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, data []byte, out any) {
	t.Helper()
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	var req *http.Request
	if body != nil {
		req = newJSONRequest(t, method, path, body)
	} else {
		var err error
		req, err = http.NewRequest(method, path, nil)
		if err != nil {
			t.Fatalf("failed to create request: %v", err)
		}
	}
	router.ServeHTTP(rec, req)

	var resp map[string]any
	decodeBody(t, rec.Body.Bytes(), &resp)
	return rec, resp
}

func TestAuthRegisterAndLogin(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	rec, registerResp := doJSON(t, router, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if token, _ := registerResp["token"].(string); token == "" {
		t.Fatalf("expected token in registration response, got %v", registerResp)
	}
	user, ok := registerResp["user"].(map[string]any)
	if !ok || user["username"] != "alice" || user["email"] != "alice@example.com" {
		t.Fatalf("unexpected user payload: %v", registerResp["user"])
	}

	rec, loginResp := doJSON(t, router, http.MethodPost, "/api/auth/login", map[string]string{
		"identifier": "alice",
		"password":   "secret123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if token, _ := loginResp["token"].(string); token == "" {
		t.Fatalf("expected token in login response, got %v", loginResp)
	}
}

func TestAuthRegisterDuplicate(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	body := map[string]string{"username": "bob", "email": "bob@example.com", "password": "secret123"}
	rec, _ := doJSON(t, router, http.MethodPost, "/api/auth/register", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}

	rec, resp := doJSON(t, router, http.MethodPost, "/api/auth/register", body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}
	if resp["error"] != "conflict" {
		t.Fatalf("expected conflict kind, got %v", resp["error"])
	}
}

func TestAuthLoginInvalidCredentials(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	rec, resp := doJSON(t, router, http.MethodPost, "/api/auth/login", map[string]string{
		"identifier": "ghost",
		"password":   "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	if resp["error"] != "unauthorized" {
		t.Fatalf("expected unauthorized kind, got %v", resp["error"])
	}
}

func TestTutorAskValidation(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	rec, resp := doJSON(t, router, http.MethodPost, "/api/tutor/ask", map[string]any{
		"prompt": "   ", "userEmail": "user@example.com",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if resp["message"] != "Prompt is required" {
		t.Fatalf("unexpected message: %v", resp["message"])
	}
	if resp["error"] != "validation_error" {
		t.Fatalf("expected validation_error kind, got %v", resp["error"])
	}

	rec, resp = doJSON(t, router, http.MethodPost, "/api/tutor/ask", map[string]any{
		"prompt": "What is gravity?",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if resp["message"] != "User email is required for conversation tracking" {
		t.Fatalf("unexpected message: %v", resp["message"])
	}
}

func TestTutorAskSuccess(t *testing.T) {
	router, _, stubs := setupTestRouter(t)
	stubs.tutor.answer = services.AskResult{Response: "Gravity pulls masses together.", SessionID: "sess-1"}

	rec, resp := doJSON(t, router, http.MethodPost, "/api/tutor/ask", map[string]any{
		"prompt":    "  What is gravity?  ",
		"userEmail": "user@example.com",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if resp["success"] != true {
		t.Fatalf("expected success true, got %v", resp["success"])
	}
	if resp["response"] != "Gravity pulls masses together." {
		t.Fatalf("unexpected response: %v", resp["response"])
	}
	if resp["session_id"] != "sess-1" {
		t.Fatalf("unexpected session_id: %v", resp["session_id"])
	}
	if resp["mode"] != "tutor" || resp["subject"] != "general" {
		t.Fatalf("expected defaults, got mode=%v subject=%v", resp["mode"], resp["subject"])
	}
	if resp["isVoiceInput"] != true {
		t.Fatalf("expected isVoiceInput default true, got %v", resp["isVoiceInput"])
	}

	if stubs.tutor.lastAsk.Prompt != "What is gravity?" {
		t.Fatalf("expected trimmed prompt, got %q", stubs.tutor.lastAsk.Prompt)
	}
	if !stubs.tutor.lastAsk.IsVoiceInput {
		t.Fatalf("expected voice input default true")
	}
}

func TestTutorAskDegraded(t *testing.T) {
	router, _, stubs := setupTestRouter(t)
	stubs.tutor.answer = services.AskResult{Response: "canned", SessionID: "sess-2", Degraded: true}

	rec, resp := doJSON(t, router, http.MethodPost, "/api/tutor/ask", map[string]any{
		"prompt": "q", "userEmail": "user@example.com",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if resp["success"] != false {
		t.Fatalf("expected success false for degraded reply, got %v", resp["success"])
	}
}

func TestTutorAskStrictFailure(t *testing.T) {
	router, _, stubs := setupTestRouter(t)
	stubs.tutor.answerErr = &ai.Error{Kind: ai.KindGenerationBlocked, Task: ai.TaskTutor}

	rec, resp := doJSON(t, router, http.MethodPost, "/api/tutor/ask", map[string]any{
		"prompt": "q", "userEmail": "user@example.com",
	})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", rec.Code)
	}
	if resp["error"] != "upstream_unavailable" {
		t.Fatalf("expected upstream_unavailable kind, got %v", resp["error"])
	}
}

func TestSessionStartResumed(t *testing.T) {
	router, _, stubs := setupTestRouter(t)
	stubs.tutor.start = services.StartSessionResult{
		SessionID: "tutor_tutor_math_20240101_000000",
		Mode:      "tutor",
		Subject:   "math",
		Message:   "Welcome back to your tutor session about math",
		IsResumed: true,
	}

	rec, resp := doJSON(t, router, http.MethodPost, "/api/tutor/session/start", map[string]any{
		"userEmail": "user@example.com",
		"subject":   "math",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if resp["is_resumed"] != true {
		t.Fatalf("expected is_resumed true, got %v", resp["is_resumed"])
	}
	if _, ok := resp["user_email"]; ok {
		t.Fatalf("resumed response should not include user_email")
	}
}

func TestSessionStartNew(t *testing.T) {
	router, _, stubs := setupTestRouter(t)
	stubs.tutor.start = services.StartSessionResult{
		SessionID: "tutor_tutor_math_20240101_000000",
		Mode:      "tutor",
		Subject:   "math",
		Message:   "Welcome!",
	}

	rec, resp := doJSON(t, router, http.MethodPost, "/api/tutor/session/start", map[string]any{
		"userEmail": "user@example.com",
		"subject":   "math",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if resp["is_resumed"] != false {
		t.Fatalf("expected is_resumed false, got %v", resp["is_resumed"])
	}
	if resp["user_email"] != "user@example.com" {
		t.Fatalf("expected user_email echoed, got %v", resp["user_email"])
	}
	if resp["isVoiceInput"] != true {
		t.Fatalf("expected isVoiceInput default true, got %v", resp["isVoiceInput"])
	}
}

func TestSessionStartBlankSubject(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	rec, resp := doJSON(t, router, http.MethodPost, "/api/tutor/session/start", map[string]any{
		"userEmail": "user@example.com",
		"subject":   "   ",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if resp["message"] != "Subject is required" {
		t.Fatalf("unexpected message: %v", resp["message"])
	}
}

func TestVoiceOptimizeWithoutUser(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	rec, resp := doJSON(t, router, http.MethodPost, "/api/tutor/voice/optimize", map[string]any{
		"text": "**Bold** AI",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if resp["optimized_text"] != "Bold artificial intelligence" {
		t.Fatalf("unexpected optimized text: %v", resp["optimized_text"])
	}
	if resp["original_text"] != "**Bold** AI" {
		t.Fatalf("expected original text echoed, got %v", resp["original_text"])
	}
}

func TestVoiceConnection(t *testing.T) {
	router, handler, stubs := setupTestRouter(t)

	rec, resp := doJSON(t, router, http.MethodGet, "/api/tutor/voice/connection", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if resp["status"] != "Voice services are working properly" {
		t.Fatalf("unexpected status: %v", resp["status"])
	}

	stubs.tutor.pingErr = errors.New("boom")
	rec, resp = doJSON(t, router, http.MethodGet, "/api/tutor/voice/connection", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
	if !strings.Contains(resp["status"].(string), "partially available") {
		t.Fatalf("unexpected status: %v", resp["status"])
	}

	handler.aiConfigured = false
	rec, resp = doJSON(t, router, http.MethodGet, "/api/tutor/voice/connection", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
	if resp["status"] != "Voice services are unavailable (AI initialization failed)" {
		t.Fatalf("unexpected status: %v", resp["status"])
	}
}

func TestChatMessagePrefersEmail(t *testing.T) {
	router, _, stubs := setupTestRouter(t)
	stubs.chat.reply = "Here is an explanation."

	rec, resp := doJSON(t, router, http.MethodPost, "/api/chat/message", map[string]any{
		"input":     "Explain recursion",
		"userEmail": "user@example.com",
		"userId":    "legacy-1",
		"sessionId": "abc",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if resp["message"] != "Here is an explanation." {
		t.Fatalf("unexpected message: %v", resp["message"])
	}
	if stubs.chat.lastReq.UserEmail != "user@example.com" {
		t.Fatalf("expected email preferred over userId, got %q", stubs.chat.lastReq.UserEmail)
	}
	if stubs.chat.lastReq.SessionID != "abc" {
		t.Fatalf("expected session id forwarded, got %q", stubs.chat.lastReq.SessionID)
	}
}

func TestChatMessageValidation(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	rec, resp := doJSON(t, router, http.MethodPost, "/api/chat/message", map[string]any{
		"input": "hello",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if resp["message"] != "Message and userEmail/userId are required" {
		t.Fatalf("unexpected message: %v", resp["message"])
	}
}

func TestChatAskLegacyContext(t *testing.T) {
	router, _, stubs := setupTestRouter(t)
	stubs.chat.reply = "Recursion is self-reference."

	rec, resp := doJSON(t, router, http.MethodPost, "/api/chat/ask", map[string]any{
		"question": "What is recursion?",
		"context":  "Student: What are functions?\nTutor: Reusable blocks.\nUnrelated line",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	if resp["response"] != "Recursion is self-reference." {
		t.Fatalf("unexpected response: %v", resp["response"])
	}
	if resp["question"] != "What is recursion?" {
		t.Fatalf("unexpected question echo: %v", resp["question"])
	}
	sources, ok := resp["sources"].([]any)
	if !ok || len(sources) != 2 {
		t.Fatalf("expected two sources, got %v", resp["sources"])
	}

	history := stubs.chat.lastReq.History
	if len(history) != 2 {
		t.Fatalf("expected 2 parsed history entries, got %d", len(history))
	}
	if history[0].Role != "user" || history[0].Content != "What are functions?" {
		t.Fatalf("unexpected first history entry: %+v", history[0])
	}
	if history[1].Role != "assistant" || history[1].Content != "Reusable blocks." {
		t.Fatalf("unexpected second history entry: %+v", history[1])
	}
}

func TestLoadChatRequiresIdentifier(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	rec, resp := doJSON(t, router, http.MethodGet, "/api/chat/loadChat", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if resp["message"] != "userEmail or userId is required" {
		t.Fatalf("unexpected message: %v", resp["message"])
	}
}

func TestQuizGenerateValidation(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	cases := []struct {
		name    string
		body    map[string]any
		message string
	}{
		{"missing topic", map[string]any{"difficulty": "easy"}, "Topic is required"},
		{"bad difficulty", map[string]any{"topic": "Go", "difficulty": "extreme"}, "Difficulty must be easy, medium, or hard"},
		{"too few questions", map[string]any{"topic": "Go", "numberOfQuestions": 3}, "Number of questions must be between 5 and 20"},
		{"too many questions", map[string]any{"topic": "Go", "numberOfQuestions": 25}, "Number of questions must be between 5 and 20"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, resp := doJSON(t, router, http.MethodPost, "/api/quizzes/generate", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rec.Code)
			}
			if resp["message"] != tc.message {
				t.Fatalf("unexpected message: %v", resp["message"])
			}
		})
	}
}

func TestQuizGenerateDefaults(t *testing.T) {
	router, _, stubs := setupTestRouter(t)
	stubs.quiz.quiz = models.GeneratedQuiz{Topic: "Go", Difficulty: "medium"}

	rec, resp := doJSON(t, router, http.MethodPost, "/api/quizzes/generate", map[string]any{
		"topic": "  Go  ",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if resp["topic"] != "Go" {
		t.Fatalf("unexpected topic: %v", resp["topic"])
	}

	if stubs.quiz.lastTopic != "Go" {
		t.Fatalf("expected trimmed topic, got %q", stubs.quiz.lastTopic)
	}
	if stubs.quiz.lastDifficulty != "medium" {
		t.Fatalf("expected default difficulty, got %q", stubs.quiz.lastDifficulty)
	}
	if stubs.quiz.lastN != 10 {
		t.Fatalf("expected default question count 10, got %d", stubs.quiz.lastN)
	}
}

func TestQuizHistoryRequiresUser(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	rec, resp := doJSON(t, router, http.MethodGet, "/api/quiz-history", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if resp["message"] != "user_email parameter is required" {
		t.Fatalf("unexpected message: %v", resp["message"])
	}
}

func TestRoadmapGenerateValidation(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	rec, resp := doJSON(t, router, http.MethodPost, "/api/roadmap/generate", map[string]any{
		"goal": "Learn Go",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if resp["message"] != "Missing goal or background" {
		t.Fatalf("unexpected message: %v", resp["message"])
	}

	rec, resp = doJSON(t, router, http.MethodPost, "/api/roadmap/generate", map[string]any{
		"goal": "Learn Go", "background": "CS student",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if resp["message"] != "Missing user email" {
		t.Fatalf("unexpected message: %v", resp["message"])
	}
}

func TestResumeAnalyzeValidation(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	rec, resp := doJSON(t, router, http.MethodPost, "/api/resume/analyze", map[string]any{
		"resume_text": "text",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if resp["message"] != "'job_description' is required" {
		t.Fatalf("unexpected message: %v", resp["message"])
	}

	rec, resp = doJSON(t, router, http.MethodPost, "/api/resume/analyze", map[string]any{
		"job_description": "Backend engineer",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if resp["message"] != "Provide either 'resume_text' or 'public_id'" {
		t.Fatalf("unexpected message: %v", resp["message"])
	}
}

func TestResumeAnalyzeWithText(t *testing.T) {
	router, _, stubs := setupTestRouter(t)
	stubs.resume.analysis = models.ResumeAnalysis{
		Strengths:    []string{"Go experience"},
		Improvements: []string{"Add metrics"},
		MatchScore:   85,
		Summary:      "Strong match.",
	}

	rec, resp := doJSON(t, router, http.MethodPost, "/api/resume/analyze", map[string]any{
		"resume_text":     "Worked on Go services.",
		"job_description": "Backend engineer",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	analysis, ok := resp["analysis"].(map[string]any)
	if !ok {
		t.Fatalf("expected analysis object, got %v", resp["analysis"])
	}
	if analysis["match_score"] != float64(85) {
		t.Fatalf("unexpected match score: %v", analysis["match_score"])
	}
	if _, ok := resp["raw"]; ok {
		t.Fatalf("raw should be absent for parsed analyses")
	}

	if stubs.resume.lastResume != "Worked on Go services." {
		t.Fatalf("unexpected resume text: %q", stubs.resume.lastResume)
	}
	if stubs.resume.lastJob != "Backend engineer" {
		t.Fatalf("unexpected job description: %q", stubs.resume.lastJob)
	}
}

func TestResumeAnalyzeUnparsedIncludesRaw(t *testing.T) {
	router, _, stubs := setupTestRouter(t)
	stubs.resume.analysis = models.ResumeAnalysis{
		MatchScore: 60,
		Summary:    "raw follows",
		Raw:        "not json",
		Warning:    "LLM response was not valid JSON; returned defaults with raw included.",
	}

	rec, resp := doJSON(t, router, http.MethodPost, "/api/resume/analyze", map[string]any{
		"resume_text":     "text",
		"job_description": "role",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if resp["raw"] != "not json" {
		t.Fatalf("expected raw echoed, got %v", resp["raw"])
	}
	if resp["warning"] == nil {
		t.Fatalf("expected warning present")
	}
}

func TestTextToVideoEnvelope(t *testing.T) {
	router, _, stubs := setupTestRouter(t)
	stubs.visual.result = services.VideoResult{
		FallbackScenes: []models.Scene{
			{Narration: "part one", VisualDescription: "Slide 1"},
			{Narration: "part two", VisualDescription: "Slide 2"},
		},
	}

	rec, resp := doJSON(t, router, http.MethodPost, "/api/visual/text-to-video", map[string]any{
		"text":       "one two three four",
		"user_email": "user@example.com",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if resp["mode"] != "veo3_required" {
		t.Fatalf("unexpected mode: %v", resp["mode"])
	}

	result, ok := resp["result"].(map[string]any)
	if !ok {
		t.Fatalf("expected result object")
	}
	if result["type"] != "slideshow" {
		t.Fatalf("unexpected type: %v", result["type"])
	}
	if result["total_words"] != float64(4) {
		t.Fatalf("unexpected total_words: %v", result["total_words"])
	}
	if result["total_slides"] != float64(2) {
		t.Fatalf("unexpected total_slides: %v", result["total_slides"])
	}
	metadata := result["metadata"].(map[string]any)
	if metadata["generation_mode"] != "fallback" {
		t.Fatalf("expected fallback mode, got %v", metadata["generation_mode"])
	}
	if metadata["source"] != "text" {
		t.Fatalf("expected text source, got %v", metadata["source"])
	}

	if stubs.visual.lastParams != [3]string{"720p", "16:9", "educational"} {
		t.Fatalf("unexpected generation params: %v", stubs.visual.lastParams)
	}
}

func TestPDFURLToVideoFetchFailure(t *testing.T) {
	router, handler, _ := setupTestRouter(t)
	handler.fetch = func(context.Context, string) ([]byte, error) {
		return nil, errors.New("connection refused")
	}

	rec, resp := doJSON(t, router, http.MethodPost, "/api/visual/pdf-url-to-video", map[string]any{
		"pdf_url": "https://example.com/doc.pdf",
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if resp["message"] != "PDF video generation failed" {
		t.Fatalf("unexpected message: %v", resp["message"])
	}
}

func TestVeo3GenerateValidation(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	rec, resp := doJSON(t, router, http.MethodPost, "/api/visual/veo3-generate", map[string]any{
		"text": "content", "duration": 200,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if resp["message"] != "Duration must be between 5 and 120 seconds" {
		t.Fatalf("unexpected message: %v", resp["message"])
	}

	rec, _ = doJSON(t, router, http.MethodPost, "/api/visual/veo3-generate", map[string]any{
		"text": "content", "resolution": "8K",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestVeo3GenerateSuccess(t *testing.T) {
	router, _, stubs := setupTestRouter(t)
	stubs.visual.result = services.VideoResult{
		Spec:   &models.VideoSpec{VideoDescription: "A tour of gravity"},
		Status: services.StatusGenerated,
	}

	rec, resp := doJSON(t, router, http.MethodPost, "/api/visual/veo3-generate", map[string]any{
		"text": "gravity",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if resp["success"] != true {
		t.Fatalf("expected success true, got %v", resp["success"])
	}

	result := resp["result"].(map[string]any)
	if result["video_url"] != nil {
		t.Fatalf("expected null video_url, got %v", result["video_url"])
	}
	if result["generation_mode"] != "veo3_advanced" {
		t.Fatalf("unexpected generation mode: %v", result["generation_mode"])
	}
	spec, ok := result["video_spec"].(map[string]any)
	if !ok {
		t.Fatalf("expected video_spec object, got %v", result["video_spec"])
	}
	if spec["video_description"] != "A tour of gravity" {
		t.Fatalf("unexpected description: %v", spec["video_description"])
	}
	scenes, ok := result["fallback_scenes"].([]any)
	if !ok || len(scenes) != 0 {
		t.Fatalf("expected empty fallback_scenes, got %v", result["fallback_scenes"])
	}
}

func TestVisualJobEndpointsNotImplemented(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	rec, resp := doJSON(t, router, http.MethodGet, "/api/visual/job/job-123", nil)
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected status 501, got %d", rec.Code)
	}
	if resp["error"] != "not_implemented" {
		t.Fatalf("unexpected kind: %v", resp["error"])
	}

	rec, resp = doJSON(t, router, http.MethodPost, "/api/visual/job/pdf", map[string]any{})
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected status 501, got %d", rec.Code)
	}
	if resp["alternative_endpoint"] != "/api/visual/pdf-url-to-video" {
		t.Fatalf("unexpected alternative: %v", resp["alternative_endpoint"])
	}

	rec, resp = doJSON(t, router, http.MethodPost, "/api/visual/job/audio", map[string]any{})
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected status 501, got %d", rec.Code)
	}
	if resp["alternative_endpoint"] != "/api/visual/audio-url-to-video" {
		t.Fatalf("unexpected alternative: %v", resp["alternative_endpoint"])
	}

	rec, resp = doJSON(t, router, http.MethodPost, "/api/visual/job/other", map[string]any{})
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected status 501, got %d", rec.Code)
	}
	if resp["alternative"] != "Use synchronous endpoints instead" {
		t.Fatalf("unexpected body: %v", resp)
	}
}

func TestVisualCheck(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	rec, resp := doJSON(t, router, http.MethodGet, "/api/visual/check", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if resp["mode"] != "serverless" {
		t.Fatalf("unexpected mode: %v", resp["mode"])
	}
	features := resp["features"].(map[string]any)
	if features["audio_to_video"] != "requires_transcript" {
		t.Fatalf("unexpected features: %v", features)
	}
}

func TestUserStats(t *testing.T) {
	router, _, stubs := setupTestRouter(t)
	stubs.stats.stats = models.UserStats{
		TotalLearningMinutes: 44,
		QuizzesTaken:         3,
		ActiveRoadmaps:       4,
		SkillsLearning:       2,
		RoadmapsCreated:      4,
		TotalSkillsLearning:  2,
	}

	rec, resp := doJSON(t, router, http.MethodGet, "/api/user-stats?user_email=user@example.com", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if resp["total_learning_minutes"] != float64(44) {
		t.Fatalf("unexpected minutes: %v", resp["total_learning_minutes"])
	}
	if resp["quizzes_taken"] != float64(3) {
		t.Fatalf("unexpected quizzes: %v", resp["quizzes_taken"])
	}

	rec, resp = doJSON(t, router, http.MethodGet, "/api/user-stats", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if resp["message"] != "user_email parameter is required" {
		t.Fatalf("unexpected message: %v", resp["message"])
	}
}

func TestUserStatsSessionDeprecated(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	rec, resp := doJSON(t, router, http.MethodPost, "/api/user-stats/session", map[string]any{})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if resp["deprecated"] != true {
		t.Fatalf("expected deprecated true, got %v", resp["deprecated"])
	}
}

func TestHealthEndpoints(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	rec, resp := doJSON(t, router, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if resp["service"] != "orbit-server" {
		t.Fatalf("unexpected service: %v", resp["service"])
	}

	rec, resp = doJSON(t, router, http.MethodGet, "/api/tutor/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if resp["service"] != "tutor" {
		t.Fatalf("unexpected service: %v", resp["service"])
	}
	if resp["ai_configured"] != true {
		t.Fatalf("expected ai_configured true, got %v", resp["ai_configured"])
	}
	if resp["database"] != "unavailable" {
		t.Fatalf("expected database unavailable without a connection, got %v", resp["database"])
	}

	rec, resp = doJSON(t, router, http.MethodGet, "/api/runtime-features", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	features := resp["features"].(map[string]any)
	if features["gemini_api_configured"] != true {
		t.Fatalf("unexpected features: %v", features)
	}
	if features["storage_configured"] != false {
		t.Fatalf("expected storage unconfigured, got %v", features)
	}
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(CORS([]string{"*"}))
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	req, _ := http.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204 for preflight, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("expected origin echoed, got %q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("expected credentials allowed with echoed origin")
	}

	req, _ = http.NewRequest(http.MethodGet, "/ping", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard without origin, got %q", got)
	}
}

func TestCORSExplicitOrigins(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(CORS([]string{"https://allowed.example.com"}))
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://allowed.example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://allowed.example.com" {
		t.Fatalf("expected allowed origin echoed, got %q", got)
	}

	req, _ = http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://other.example.com")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no CORS header for unlisted origin, got %q", got)
	}
}

func TestTutorLiveConversation(t *testing.T) {
	router, _, stubs := setupTestRouter(t)
	stubs.tutor.converse = "Momentum is conserved."

	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/tutor/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"prompt": "Why is momentum conserved?", "subject": "physics"}); err != nil {
		t.Fatalf("failed to send turn: %v", err)
	}

	var reply map[string]any
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("failed to read reply: %v", err)
	}
	if reply["response"] != "Momentum is conserved." {
		t.Fatalf("unexpected reply: %v", reply)
	}

	if err := conn.WriteJSON(map[string]string{"prompt": "And in collisions?"}); err != nil {
		t.Fatalf("failed to send second turn: %v", err)
	}
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("failed to read second reply: %v", err)
	}

	if len(stubs.tutor.historyLens) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(stubs.tutor.historyLens))
	}
	if stubs.tutor.historyLens[0] != 0 || stubs.tutor.historyLens[1] != 2 {
		t.Fatalf("expected rolling history 0 then 2, got %v", stubs.tutor.historyLens)
	}
}

func TestTutorLiveRejectsEmptyPrompt(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/tutor/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"prompt": "   "}); err != nil {
		t.Fatalf("failed to send turn: %v", err)
	}

	var reply map[string]any
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("failed to read reply: %v", err)
	}
	if reply["type"] != "error" || reply["error"] != "prompt is required" {
		t.Fatalf("unexpected reply: %v", reply)
	}
}
