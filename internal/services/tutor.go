package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/orbitlearn/orbit-server/internal/ai"
	"github.com/orbitlearn/orbit-server/internal/models"
)

// Deterministic replies used when generation fails and the tutor policy
// degrades instead of surfacing the error. Keyed by subject; unknown
// subjects use the general template.
var tutorFallbacks = map[string]string{
	"general":     "I understand you're asking about %s. While I can't provide a detailed response right now, I'd recommend checking reliable educational resources or trying again later.",
	"math":        "For mathematical problems, I'd suggest breaking down the problem step by step and consulting your textbook or a math tutor.",
	"science":     "For science questions, consider reviewing the relevant concepts in your course materials or consulting educational websites.",
	"programming": "For coding questions, try checking the documentation, looking at example code, or using online programming resources.",
	"resume":      "For resume feedback, consider having it reviewed by a career counselor or using online resume analysis tools.",
}

// FallbackAnswer returns the canned tutor reply for a subject. Only the
// general template embeds the question, truncated to 50 runes.
func FallbackAnswer(prompt, subject string) string {
	template, ok := tutorFallbacks[subject]
	if !ok {
		template = tutorFallbacks["general"]
	}
	if !strings.Contains(template, "%s") {
		return template
	}

	topic := prompt
	if runes := []rune(topic); len(runes) > 50 {
		topic = string(runes[:50]) + "..."
	}
	return fmt.Sprintf(template, topic)
}

// AskRequest carries one tutoring question.
type AskRequest struct {
	Prompt       string
	Subject      string
	Mode         string
	SessionID    string
	UserEmail    string
	IsVoiceInput bool
}

// AskResult is the answered question plus the session the exchange was
// recorded under.
type AskResult struct {
	Response  string
	SessionID string
	Degraded  bool
}

// StartSessionRequest opens (or resumes) a tutoring session.
type StartSessionRequest struct {
	UserEmail    string
	Mode         string
	Subject      string
	IsVoiceInput bool
}

// StartSessionResult reports the session the caller should continue with.
type StartSessionResult struct {
	SessionID string
	Mode      string
	Subject   string
	Message   string
	IsResumed bool
}

// TutorStore is the slice of the chat store the tutor needs: exchange
// persistence plus the active-session record. *store.ChatStore satisfies it.
type TutorStore interface {
	SaveExchange(ctx context.Context, userEmail, message, response, sessionID string) (string, error)
	ActiveSession(ctx context.Context, userEmail string) (*models.ActiveSession, error)
	SaveActiveSession(ctx context.Context, session models.ActiveSession) error
}

// TutorService answers tutoring questions and manages the per-user active
// session record.
type TutorService struct {
	gen      Generator
	chats    TutorStore
	fallback bool
	logger   *zap.SugaredLogger
}

// NewTutorService wires the tutor adapter. fallback selects degrade-to-canned
// behavior on AI failure; when false, failures surface to the caller.
func NewTutorService(gen Generator, chats TutorStore, fallback bool, logger *zap.SugaredLogger) *TutorService {
	return &TutorService{gen: gen, chats: chats, fallback: fallback, logger: logger}
}

// Answer generates a tutoring reply and records the exchange. Truncated
// generations keep the partial text; other failures either degrade to
// FallbackAnswer or return the error, per policy. Store failures always
// surface.
func (s *TutorService) Answer(ctx context.Context, req AskRequest) (AskResult, error) {
	prompt := ai.BuildPrompt(ai.TaskTutor, req.Prompt, nil, map[string]any{"subject": req.Subject})

	text, err := s.gen.Generate(ctx, ai.TaskTutor, prompt)
	degraded := false
	switch {
	case err == nil:
	case ai.IsKind(err, ai.KindMaxTokens) && strings.TrimSpace(text) != "":
		// Truncated reply is still useful in a conversation.
	case s.fallback:
		s.logger.Warnw("tutor generation failed, using fallback", "subject", req.Subject, "error", err)
		text = FallbackAnswer(req.Prompt, req.Subject)
		degraded = true
	default:
		return AskResult{}, err
	}

	if req.IsVoiceInput {
		text = OptimizeForVoice(text)
	}

	sessionID, err := s.chats.SaveExchange(ctx, req.UserEmail, req.Prompt, text, req.SessionID)
	if err != nil {
		return AskResult{}, err
	}

	return AskResult{Response: text, SessionID: sessionID, Degraded: degraded}, nil
}

// StartSession resumes the user's active session when one exists; otherwise
// it mints a timestamped session id, generates a welcome message, and stores
// the new active-session record.
func (s *TutorService) StartSession(ctx context.Context, req StartSessionRequest) (StartSessionResult, error) {
	existing, err := s.chats.ActiveSession(ctx, req.UserEmail)
	if err != nil {
		return StartSessionResult{}, err
	}
	if existing != nil {
		return StartSessionResult{
			SessionID: existing.SessionID,
			Mode:      existing.Mode,
			Subject:   existing.Subject,
			Message:   fmt.Sprintf("Welcome back to your %s session about %s", existing.Mode, existing.Subject),
			IsResumed: true,
		}, nil
	}

	now := time.Now().UTC()
	sessionID := fmt.Sprintf("tutor_%s_%s_%s", req.Mode, strings.ReplaceAll(req.Subject, " ", "_"), now.Format("20060102_150405"))

	welcomePrompt := fmt.Sprintf("Generate a welcoming message for a %s session about %s", req.Mode, req.Subject)
	prompt := ai.BuildPrompt(ai.TaskTutor, welcomePrompt, nil, map[string]any{"subject": req.Subject})

	message, err := s.gen.Generate(ctx, ai.TaskTutor, prompt)
	if err != nil {
		if !s.fallback {
			return StartSessionResult{}, err
		}
		s.logger.Warnw("welcome generation failed, using fallback", "subject", req.Subject, "error", err)
		message = FallbackAnswer(welcomePrompt, req.Subject)
	}
	if req.IsVoiceInput {
		message = OptimizeForVoice(message)
	}

	session := models.ActiveSession{
		UserEmail:    req.UserEmail,
		SessionID:    sessionID,
		Mode:         req.Mode,
		Subject:      req.Subject,
		VoiceEnabled: req.IsVoiceInput,
		StartedAt:    now.Format(time.RFC3339),
		LastUpdated:  now.Format(time.RFC3339),
	}
	if err := s.chats.SaveActiveSession(ctx, session); err != nil {
		return StartSessionResult{}, err
	}

	return StartSessionResult{
		SessionID: sessionID,
		Mode:      req.Mode,
		Subject:   req.Subject,
		Message:   message,
		IsResumed: false,
	}, nil
}

// Converse answers one live-conversation turn. The caller owns the rolling
// history; nothing is persisted here. Degrade policy matches Answer.
func (s *TutorService) Converse(ctx context.Context, prompt, subject string, history []models.SessionMessage) (string, error) {
	built := ai.BuildPrompt(ai.TaskTutor, prompt, history, map[string]any{"subject": subject})

	text, err := s.gen.Generate(ctx, ai.TaskTutor, built)
	switch {
	case err == nil:
	case ai.IsKind(err, ai.KindMaxTokens) && strings.TrimSpace(text) != "":
	case s.fallback:
		s.logger.Warnw("live tutor generation failed, using fallback", "subject", subject, "error", err)
		text = FallbackAnswer(prompt, subject)
	default:
		return "", err
	}

	return text, nil
}

// Ping issues a minimal generation to verify the AI path end to end.
func (s *TutorService) Ping(ctx context.Context) error {
	prompt := ai.BuildPrompt(ai.TaskTutor, "Test connection", nil, nil)
	_, err := s.gen.Generate(ctx, ai.TaskTutor, prompt)
	return err
}
