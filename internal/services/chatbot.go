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

// The doubt-solving chat keeps its own instruction block, longer than the
// preset tutor prompt: it leans on the session transcript the frontend
// sends with every message.
const chatSystemPrompt = `You are an expert educational tutor helping students with their academic doubts and questions. You should:

1. Provide clear, step-by-step explanations
2. Use simple language that students can understand
3. Include relevant examples when helpful
4. Break down complex concepts into digestible parts
5. Encourage learning with follow-up questions
6. If it's a coding question, provide code examples with explanations
7. Be patient, supportive, and encouraging
8. Adapt your teaching style to the student's level of understanding
9. Reference previous messages in the conversation when relevant
10. Build upon concepts discussed earlier in the session

Remember to maintain context from previous messages in the conversation to provide personalized and coherent responses.`

const chatClosing = "Please provide a comprehensive, educational response that helps the student understand the concept thoroughly while maintaining the conversation flow and referencing relevant points from our previous discussion."

// ReplyRequest is one doubt-solving chat turn.
type ReplyRequest struct {
	Input     string
	UserEmail string
	SessionID string
	History   []models.SessionMessage
}

// SessionAppender records a finished exchange on a chat session.
// *store.ChatStore satisfies it.
type SessionAppender interface {
	AppendSessionMessages(ctx context.Context, userEmail, id string, messages []models.SessionMessage, lastActivity string) error
}

// ChatbotService answers chat messages and appends each exchange to the
// owning session document.
type ChatbotService struct {
	gen      Generator
	chats    SessionAppender
	fallback bool
	logger   *zap.SugaredLogger
}

func NewChatbotService(gen Generator, chats SessionAppender, fallback bool, logger *zap.SugaredLogger) *ChatbotService {
	return &ChatbotService{gen: gen, chats: chats, fallback: fallback, logger: logger}
}

// Reply generates the assistant turn for req and, when a session id is
// given, appends both sides of the exchange to that session. AI failures
// degrade to a canned study-guide reply when the chat policy allows it;
// session-store failures always surface.
func (s *ChatbotService) Reply(ctx context.Context, req ReplyRequest) (string, error) {
	prompt := buildChatPrompt(req.Input, req.History)

	text, err := s.gen.Generate(ctx, ai.TaskChatbot, prompt)
	switch {
	case err == nil:
	case ai.IsKind(err, ai.KindMaxTokens) && strings.TrimSpace(text) != "":
	case s.fallback:
		s.logger.Warnw("chat generation failed, using fallback", "error", err)
		text = chatFallback(req.Input)
	default:
		return "", err
	}

	if req.SessionID != "" {
		now := time.Now().UTC().Format(time.RFC3339)
		exchange := []models.SessionMessage{
			{Role: "user", Content: req.Input, Timestamp: now},
			{Role: "assistant", Content: text, Timestamp: now},
		}
		if err := s.chats.AppendSessionMessages(ctx, req.UserEmail, req.SessionID, exchange, now); err != nil {
			return "", err
		}
	}

	return text, nil
}

// buildChatPrompt lays out instruction block, recent transcript (last 10
// entries, empty ones skipped), and the new question.
func buildChatPrompt(question string, history []models.SessionMessage) string {
	system := chatSystemPrompt
	if len(history) > 0 {
		system += fmt.Sprintf(" You are in an ongoing conversation with the user. Remember the context from previous messages in this session to provide more personalized and coherent responses. This is message #%d in the current session.", len(history)+1)
	}

	var transcript strings.Builder
	if len(history) > 0 {
		window := history
		if len(window) > historyLimit {
			window = window[len(window)-historyLimit:]
		}
		transcript.WriteString("\n\nRecent conversation context:\n")
		for _, msg := range window {
			if msg.Content == "" || (msg.Role != "user" && msg.Role != "assistant") {
				continue
			}
			role := "Tutor"
			if msg.Role == "user" {
				role = "Student"
			}
			fmt.Fprintf(&transcript, "%s: %s\n", role, msg.Content)
		}
	}

	return fmt.Sprintf("%s\n\n%s\n\n\n\nCurrent Student Question: %s\n\n%s", system, transcript.String(), question, chatClosing)
}

const historyLimit = 10

func chatFallback(question string) string {
	return fmt.Sprintf(`I understand you're asking about "%s". Let me help you with this topic.

This appears to be an important concept that requires careful explanation. Here's how I would approach this:

**Key Points to Consider:**
1. Understanding the fundamental principles
2. Breaking down the problem step by step
3. Applying the concepts practically
4. Common mistakes to avoid

**Suggested Approach:**
- Start with the basics and build up your understanding
- Practice with simpler examples first
- Ask follow-up questions if anything is unclear

Would you like me to elaborate on any specific aspect of this topic?`, question)
}
