package services

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/orbitlearn/orbit-server/internal/ai"
	"github.com/orbitlearn/orbit-server/internal/models"
)

type stubReply struct {
	text string
	err  error
}

// stubGenerator replays queued replies and records every prompt it saw.
// When the queue runs dry the last reply repeats.
type stubGenerator struct {
	replies []stubReply
	calls   int
	tasks   []ai.Task
	prompts []string
}

func (s *stubGenerator) Generate(_ context.Context, task ai.Task, prompt string) (string, error) {
	s.tasks = append(s.tasks, task)
	s.prompts = append(s.prompts, prompt)
	idx := s.calls
	if idx >= len(s.replies) {
		idx = len(s.replies) - 1
	}
	s.calls++
	if idx < 0 {
		return "", nil
	}
	reply := s.replies[idx]
	return reply.text, reply.err
}

func stubText(text string) *stubGenerator {
	return &stubGenerator{replies: []stubReply{{text: text}}}
}

func stubErr(err error) *stubGenerator {
	return &stubGenerator{replies: []stubReply{{err: err}}}
}

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

type savedExchange struct {
	userEmail string
	message   string
	response  string
	sessionID string
}

// fakeTutorStore satisfies TutorStore and SessionAppender in memory.
type fakeTutorStore struct {
	active       *models.ActiveSession
	activeErr    error
	savedActive  *models.ActiveSession
	exchanges    []savedExchange
	exchangeErr  error
	appended     []models.SessionMessage
	appendedTo   string
	appendErr    error
	lastActivity string
}

func (f *fakeTutorStore) SaveExchange(_ context.Context, userEmail, message, response, sessionID string) (string, error) {
	if f.exchangeErr != nil {
		return "", f.exchangeErr
	}
	if sessionID == "" {
		sessionID = "generated-session"
	}
	f.exchanges = append(f.exchanges, savedExchange{userEmail: userEmail, message: message, response: response, sessionID: sessionID})
	return sessionID, nil
}

func (f *fakeTutorStore) ActiveSession(_ context.Context, _ string) (*models.ActiveSession, error) {
	return f.active, f.activeErr
}

func (f *fakeTutorStore) SaveActiveSession(_ context.Context, session models.ActiveSession) error {
	f.savedActive = &session
	return nil
}

func (f *fakeTutorStore) AppendSessionMessages(_ context.Context, _ string, id string, messages []models.SessionMessage, lastActivity string) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appendedTo = id
	f.appended = append(f.appended, messages...)
	f.lastActivity = lastActivity
	return nil
}

func mustContain(t *testing.T, s, substr string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Fatalf("expected %q to contain %q", s, substr)
	}
}

func mustNotContain(t *testing.T, s, substr string) {
	t.Helper()
	if strings.Contains(s, substr) {
		t.Fatalf("expected %q to not contain %q", s, substr)
	}
}
