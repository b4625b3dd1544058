package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/orbitlearn/orbit-server/internal/ai"
	"github.com/orbitlearn/orbit-server/internal/models"
)

const quizPromptTemplate = `Generate a quiz about "%s" with %d multiple choice questions.
Difficulty: %s

Return ONLY valid JSON in this exact format:

{
  "topic": "%s",
  "difficulty": "%s",
  "questions": [
    {
      "id": 1,
      "question": "Question text here?",
      "options": ["Option A", "Option B", "Option C", "Option D"],
      "correctAnswer": "Option A"
    }
  ]
}

Requirements:
- Return ONLY the JSON, no markdown, no extra text
- Exactly %d questions
- Each question has exactly 4 options
- correctAnswer must match exactly one of the options`

// QuizService turns a topic into a multiple-choice quiz.
type QuizService struct {
	gen      Generator
	fallback bool
	logger   *zap.SugaredLogger
}

func NewQuizService(gen Generator, fallback bool, logger *zap.SugaredLogger) *QuizService {
	return &QuizService{gen: gen, fallback: fallback, logger: logger}
}

// Generate asks the model for exactly n questions about topic. A reply that
// fails to parse, or parses into anything other than n well-formed questions,
// is discarded whole: the caller gets the sample fallback quiz, or the error
// when the quiz policy is strict.
func (s *QuizService) Generate(ctx context.Context, topic, difficulty string, n int) (models.GeneratedQuiz, error) {
	prompt := fmt.Sprintf(quizPromptTemplate, topic, n, difficulty, topic, difficulty, n)

	text, err := s.gen.Generate(ctx, ai.TaskQuiz, prompt)
	if err == nil {
		var quiz models.GeneratedQuiz
		if derr := ai.DecodeJSON(ai.TaskQuiz, text, &quiz); derr != nil {
			err = derr
		} else if !validQuiz(quiz, n) {
			err = &ai.Error{Kind: ai.KindInvalidJSON, Task: ai.TaskQuiz, Detail: "generated quiz failed validation"}
		} else {
			return quiz, nil
		}
	}

	if !s.fallback {
		return models.GeneratedQuiz{}, err
	}
	s.logger.Warnw("quiz generation failed, using fallback", "topic", topic, "error", err)
	return FallbackQuiz(topic, difficulty, n), nil
}

// validQuiz demands the exact requested question count and, per question,
// non-empty text, four options, and a correctAnswer that is one of them.
func validQuiz(quiz models.GeneratedQuiz, n int) bool {
	if quiz.Topic == "" || quiz.Difficulty == "" || len(quiz.Questions) != n {
		return false
	}
	for _, q := range quiz.Questions {
		if strings.TrimSpace(q.Question) == "" || len(q.Options) != 4 {
			return false
		}
		found := false
		for _, opt := range q.Options {
			if opt == q.CorrectAnswer {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// FallbackQuiz builds the deterministic sample quiz: n numbered placeholder
// questions with "Option A {i}" always correct.
func FallbackQuiz(topic, difficulty string, n int) models.GeneratedQuiz {
	questions := make([]models.QuizQuestion, 0, n)
	for i := 1; i <= n; i++ {
		questions = append(questions, models.QuizQuestion{
			ID:       i,
			Question: fmt.Sprintf("Sample question %d for %s?", i, topic),
			Options: []string{
				fmt.Sprintf("Option A %d", i),
				fmt.Sprintf("Option B %d", i),
				fmt.Sprintf("Option C %d", i),
				fmt.Sprintf("Option D %d", i),
			},
			CorrectAnswer: fmt.Sprintf("Option A %d", i),
		})
	}
	return models.GeneratedQuiz{Topic: topic, Difficulty: difficulty, Questions: questions}
}

// SubmittedAnswer pairs a question id with the option the user picked.
type SubmittedAnswer struct {
	ID     int    `json:"id"`
	Answer string `json:"answer"`
}

// ScoreQuiz grades answers against quiz and returns per-question feedback.
// Unanswered questions count as wrong and carry a null user answer.
// Percentage is rounded to two decimals; an empty quiz scores zero.
func ScoreQuiz(quiz models.Quiz, answers []SubmittedAnswer) models.QuizResult {
	byID := make(map[int]string, len(answers))
	for _, a := range answers {
		byID[a.ID] = a.Answer
	}

	score := 0
	feedback := make([]models.AnswerFeedback, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		answer, answered := byID[q.ID]
		var userAnswer *string
		correct := false
		if answered {
			picked := answer
			userAnswer = &picked
			correct = answer == q.CorrectAnswer
		}
		if correct {
			score++
		}
		feedback = append(feedback, models.AnswerFeedback{
			QuestionID:    q.ID,
			Question:      q.Question,
			UserAnswer:    userAnswer,
			CorrectAnswer: q.CorrectAnswer,
			IsCorrect:     correct,
			Options:       q.Options,
		})
	}

	total := len(quiz.Questions)
	percentage := 0.0
	if total > 0 {
		percentage = math.Round(float64(score)/float64(total)*100*100) / 100
	}

	return models.QuizResult{Score: score, Total: total, Percentage: percentage, Feedback: feedback}
}
