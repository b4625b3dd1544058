package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/orbitlearn/orbit-server/internal/models"
)

// Task selects the system prompt and sampling profile for a generation.
type Task string

const (
	TaskTutor   Task = "tutor"
	TaskChatbot Task = "chatbot"
	TaskRoadmap Task = "roadmap"
	TaskResume  Task = "resume"
	TaskQuiz    Task = "quiz"
	TaskVisual  Task = "visual"
	TaskVideo   Task = "video"
)

const historyWindow = 10

var systemPrompts = map[Task]string{
	TaskTutor: `You are an expert educational tutor helping students with their academic doubts and questions. You should:
1. Provide clear, step-by-step explanations
2. Use simple language that students can understand
3. Include relevant examples when helpful
4. Break down complex concepts into digestible parts
5. Encourage learning with follow-up questions
6. If it's a coding question, provide code examples with explanations
7. Be patient, supportive, and encouraging
8. Adapt your teaching style to the student's level of understanding
9. IMPORTANT: Always reference and build upon our conversation history when relevant
10. Connect new concepts to topics we've already discussed
11. Remember the student's current learning progress and adjust accordingly
12. Use phrases like "As we discussed earlier" or "Building on what we covered" when appropriate
13. Maintain continuity throughout the learning session
14. If the student asks about something new, connect it to previous topics when possible`,

	TaskChatbot: `You are an intelligent educational assistant helping students with their academic questions.
Provide accurate, helpful responses while maintaining a supportive and encouraging tone.
Keep responses concise but comprehensive, and always encourage further learning.`,

	TaskRoadmap: `You are an expert learning path designer. Create comprehensive, practical learning roadmaps
that are achievable and well-structured. Include realistic timeframes, key milestones, and relevant resources.`,

	TaskResume: `You are an expert career coach and resume analyst. Provide constructive, actionable feedback
that helps improve career prospects. Focus on practical improvements and industry best practices.`,

	TaskQuiz: `You are an educational content creator specializing in assessment design. Create fair,
challenging questions that test understanding rather than memorization. Ensure questions are clear and unambiguous.`,

	TaskVisual: `You are an educational content designer. Create engaging, clear scripts for visual learning
materials. Focus on breaking down complex concepts into digestible, visual segments.`,

	TaskVideo: `You are a video content creator specializing in educational videos. Create detailed video
prompts that describe scenes, visual elements, transitions, and educational content suitable for
automated video generation. Focus on clear, engaging visual storytelling.`,
}

// SystemPrompt returns the instruction block for a task, or "" for an
// unknown task.
func SystemPrompt(task Task) string {
	return systemPrompts[task]
}

// BuildPrompt assembles the full text sent to the model: system block,
// numbered conversation window, optional extra context, then the question.
// Only the last ten history messages are included; blank messages are
// skipped without renumbering the rest.
func BuildPrompt(task Task, question string, history []models.SessionMessage, extra map[string]any) string {
	return BuildPromptWithSystem(systemPrompts[task], question, history, extra)
}

// BuildPromptWithSystem is BuildPrompt with a caller-supplied system block,
// for call sites whose instruction is not one of the task presets.
func BuildPromptWithSystem(system, question string, history []models.SessionMessage, extra map[string]any) string {
	var b strings.Builder

	if system != "" {
		b.WriteString("System: ")
		b.WriteString(system)
		b.WriteString("\n\n")
	}

	if len(history) > 0 {
		b.WriteString("Previous Conversation (Last 10 messages for context):\n")
		window := history
		if len(window) > historyWindow {
			window = window[len(window)-historyWindow:]
		}
		for i, msg := range window {
			content := strings.TrimSpace(msg.Content)
			if content == "" {
				continue
			}
			role := "Tutor"
			if msg.Role == "user" {
				role = "Student"
			}
			fmt.Fprintf(&b, "%d. %s: %s\n", i+1, role, content)
		}
		b.WriteString("\nImportant: Reference this conversation history when relevant. Build upon previous topics discussed.\n\n")
	}

	if ctx := prunedContext(extra); len(ctx) > 0 {
		encoded, err := json.MarshalIndent(ctx, "", "  ")
		if err == nil {
			b.WriteString("Additional Context: ")
			b.Write(encoded)
			b.WriteString("\n\n")
		}
	}

	b.WriteString("Current Student Question: ")
	b.WriteString(question)
	b.WriteString("\n\nTutor Response:")

	return b.String()
}

func prunedContext(extra map[string]any) map[string]any {
	if len(extra) == 0 {
		return nil
	}
	out := make(map[string]any, len(extra))
	for k, v := range extra {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		out[k] = v
	}
	return out
}
