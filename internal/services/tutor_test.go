package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/orbitlearn/orbit-server/internal/ai"
	"github.com/orbitlearn/orbit-server/internal/models"
)

func TestFallbackAnswerSubjects(t *testing.T) {
	if got := FallbackAnswer("anything", "math"); !strings.HasPrefix(got, "For mathematical problems") {
		t.Fatalf("math fallback = %q", got)
	}
	if got := FallbackAnswer("anything", "programming"); !strings.HasPrefix(got, "For coding questions") {
		t.Fatalf("programming fallback = %q", got)
	}
	if got := FallbackAnswer("anything", "resume"); !strings.HasPrefix(got, "For resume feedback") {
		t.Fatalf("resume fallback = %q", got)
	}

	got := FallbackAnswer("what is gravity", "astrophysics")
	mustContain(t, got, "I understand you're asking about what is gravity.")
}

func TestFallbackAnswerTruncatesLongPrompts(t *testing.T) {
	prompt := strings.Repeat("a", 60)
	got := FallbackAnswer(prompt, "general")
	mustContain(t, got, strings.Repeat("a", 50)+"...")
	mustNotContain(t, got, strings.Repeat("a", 51))
}

func TestTutorAnswerSuccess(t *testing.T) {
	gen := stubText("Gravity pulls objects together.")
	chats := &fakeTutorStore{}
	svc := NewTutorService(gen, chats, true, testLogger())

	res, err := svc.Answer(context.Background(), AskRequest{
		Prompt:    "What is gravity?",
		Subject:   "science",
		UserEmail: "ada@example.com",
		SessionID: "sess-1",
	})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if res.Response != "Gravity pulls objects together." {
		t.Fatalf("response = %q", res.Response)
	}
	if res.SessionID != "sess-1" {
		t.Fatalf("session id = %q", res.SessionID)
	}
	if res.Degraded {
		t.Fatal("expected non-degraded result")
	}

	if len(chats.exchanges) != 1 {
		t.Fatalf("expected 1 saved exchange, got %d", len(chats.exchanges))
	}
	saved := chats.exchanges[0]
	if saved.userEmail != "ada@example.com" || saved.message != "What is gravity?" || saved.response != res.Response {
		t.Fatalf("saved exchange = %+v", saved)
	}

	prompt := gen.prompts[0]
	mustContain(t, prompt, "System: You are an expert educational tutor")
	mustContain(t, prompt, `"subject": "science"`)
	mustContain(t, prompt, "Current Student Question: What is gravity?")
	mustContain(t, prompt, "Tutor Response:")
}

func TestTutorAnswerGeneratesSessionID(t *testing.T) {
	svc := NewTutorService(stubText("ok"), &fakeTutorStore{}, true, testLogger())

	res, err := svc.Answer(context.Background(), AskRequest{Prompt: "q", Subject: "general", UserEmail: "a@b.c"})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if res.SessionID == "" {
		t.Fatal("expected a generated session id")
	}
}

func TestTutorAnswerFallsBackOnFailure(t *testing.T) {
	gen := stubErr(&ai.Error{Kind: ai.KindEmptyResponse, Task: ai.TaskTutor})
	svc := NewTutorService(gen, &fakeTutorStore{}, true, testLogger())

	res, err := svc.Answer(context.Background(), AskRequest{Prompt: "What is gravity?", Subject: "science", UserEmail: "a@b.c"})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if !res.Degraded {
		t.Fatal("expected degraded result")
	}
	if res.Response != FallbackAnswer("What is gravity?", "science") {
		t.Fatalf("response = %q", res.Response)
	}
}

func TestTutorAnswerStrictPropagates(t *testing.T) {
	gen := stubErr(&ai.Error{Kind: ai.KindSafetyFilter, Task: ai.TaskTutor})
	svc := NewTutorService(gen, &fakeTutorStore{}, false, testLogger())

	_, err := svc.Answer(context.Background(), AskRequest{Prompt: "q", Subject: "general", UserEmail: "a@b.c"})
	if !ai.IsKind(err, ai.KindSafetyFilter) {
		t.Fatalf("expected safety filter error, got %v", err)
	}
}

func TestTutorAnswerKeepsTruncatedText(t *testing.T) {
	gen := &stubGenerator{replies: []stubReply{{text: "partial explanation", err: &ai.Error{Kind: ai.KindMaxTokens, Task: ai.TaskTutor}}}}
	svc := NewTutorService(gen, &fakeTutorStore{}, false, testLogger())

	res, err := svc.Answer(context.Background(), AskRequest{Prompt: "q", Subject: "general", UserEmail: "a@b.c"})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if res.Response != "partial explanation" {
		t.Fatalf("response = %q", res.Response)
	}
}

func TestTutorAnswerOptimizesVoiceOutput(t *testing.T) {
	gen := stubText("**AI** can help")
	svc := NewTutorService(gen, &fakeTutorStore{}, true, testLogger())

	res, err := svc.Answer(context.Background(), AskRequest{Prompt: "q", Subject: "general", UserEmail: "a@b.c", IsVoiceInput: true})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if res.Response != "artificial intelligence can help" {
		t.Fatalf("response = %q", res.Response)
	}
}

func TestTutorAnswerSurfacesStoreError(t *testing.T) {
	storeErr := errors.New("mongo down")
	svc := NewTutorService(stubText("fine"), &fakeTutorStore{exchangeErr: storeErr}, true, testLogger())

	_, err := svc.Answer(context.Background(), AskRequest{Prompt: "q", Subject: "general", UserEmail: "a@b.c"})
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestStartSessionResumesExisting(t *testing.T) {
	gen := stubText("unused")
	chats := &fakeTutorStore{active: &models.ActiveSession{
		SessionID: "tutor_tutor_algebra_20250101_120000",
		Mode:      "tutor",
		Subject:   "algebra",
	}}
	svc := NewTutorService(gen, chats, true, testLogger())

	res, err := svc.StartSession(context.Background(), StartSessionRequest{UserEmail: "a@b.c", Mode: "tutor", Subject: "algebra"})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if !res.IsResumed {
		t.Fatal("expected resumed session")
	}
	if res.SessionID != "tutor_tutor_algebra_20250101_120000" {
		t.Fatalf("session id = %q", res.SessionID)
	}
	if res.Message != "Welcome back to your tutor session about algebra" {
		t.Fatalf("message = %q", res.Message)
	}
	if gen.calls != 0 {
		t.Fatalf("expected no generation on resume, got %d calls", gen.calls)
	}
}

func TestStartSessionCreatesNew(t *testing.T) {
	gen := stubText("Welcome aboard!")
	chats := &fakeTutorStore{}
	svc := NewTutorService(gen, chats, true, testLogger())

	res, err := svc.StartSession(context.Background(), StartSessionRequest{
		UserEmail:    "a@b.c",
		Mode:         "tutor",
		Subject:      "linear algebra",
		IsVoiceInput: true,
	})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if res.IsResumed {
		t.Fatal("expected new session")
	}
	if !strings.HasPrefix(res.SessionID, "tutor_tutor_linear_algebra_") {
		t.Fatalf("session id = %q", res.SessionID)
	}
	if res.Message != "Welcome aboard!" {
		t.Fatalf("message = %q", res.Message)
	}

	if chats.savedActive == nil {
		t.Fatal("expected active session to be saved")
	}
	if chats.savedActive.Subject != "linear algebra" || !chats.savedActive.VoiceEnabled {
		t.Fatalf("saved session = %+v", chats.savedActive)
	}

	mustContain(t, gen.prompts[0], "Generate a welcoming message for a tutor session about linear algebra")
}

func TestStartSessionWelcomeFallsBack(t *testing.T) {
	gen := stubErr(&ai.Error{Kind: ai.KindEmptyResponse, Task: ai.TaskTutor})
	chats := &fakeTutorStore{}
	svc := NewTutorService(gen, chats, true, testLogger())

	res, err := svc.StartSession(context.Background(), StartSessionRequest{UserEmail: "a@b.c", Mode: "tutor", Subject: "history"})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	mustContain(t, res.Message, "I understand you're asking about")
}
