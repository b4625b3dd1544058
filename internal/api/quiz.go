package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/orbitlearn/orbit-server/internal/models"
	"github.com/orbitlearn/orbit-server/internal/services"
)

var quizDifficulties = map[string]bool{"easy": true, "medium": true, "hard": true}

type quizGenerateRequest struct {
	Topic             string `json:"topic"`
	Difficulty        string `json:"difficulty"`
	NumberOfQuestions *int   `json:"numberOfQuestions"`
}

func (h *Handler) handleQuizGenerate(c *gin.Context) {
	var req quizGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, http.StatusBadRequest, kindValidation, "invalid payload", err)
		return
	}

	topic := trimmed(req.Topic)
	if topic == "" {
		h.validationError(c, "Topic is required")
		return
	}

	difficulty := strings.ToLower(req.Difficulty)
	if difficulty == "" {
		difficulty = "medium"
	}
	if !quizDifficulties[difficulty] {
		h.validationError(c, "Difficulty must be easy, medium, or hard")
		return
	}

	n := 10
	if req.NumberOfQuestions != nil {
		n = *req.NumberOfQuestions
	}
	if n < 5 || n > 20 {
		h.validationError(c, "Number of questions must be between 5 and 20")
		return
	}

	quiz, err := h.quiz.Generate(c.Request.Context(), topic, difficulty, n)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

func (h *Handler) handleQuizList(c *gin.Context) {
	userEmail := c.Query("user_email")
	if userEmail == "" {
		h.validationError(c, "user_email parameter is required")
		return
	}

	quizzes, err := h.quizzes.QuizzesByUser(c.Request.Context(), userEmail)
	if err != nil {
		// The browsing list is non-critical; an empty list keeps the page alive.
		h.logger.Warnw("quiz listing failed", "user", userEmail, "error", err)
		c.JSON(http.StatusOK, []models.QuizSummary{})
		return
	}

	formatted := make([]models.QuizSummary, 0, len(quizzes))
	for _, quiz := range quizzes {
		formatted = append(formatted, models.QuizSummary{
			ID:          quiz.ID,
			Title:       quiz.Topic,
			Category:    "AI Generated",
			Questions:   len(quiz.Questions),
			Difficulty:  titlecase(quiz.Difficulty),
			Duration:    fmt.Sprintf("%.0f min", float64(len(quiz.Questions))*1.5),
			Description: fmt.Sprintf("Quiz about %s - %s level", quiz.Topic, quiz.Difficulty),
			Completed:   false,
			Score:       nil,
			QuizData:    quiz,
			CreatedBy:   quiz.CreatedBy,
		})
	}

	c.JSON(http.StatusOK, formatted)
}

type quizSaveRequest struct {
	Topic      string                `json:"topic"`
	Difficulty string                `json:"difficulty"`
	Questions  []models.QuizQuestion `json:"questions"`
	UserEmail  string                `json:"user_email"`
}

func (h *Handler) handleQuizSave(c *gin.Context) {
	var req quizSaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, http.StatusBadRequest, kindValidation, "invalid payload", err)
		return
	}

	topic := req.Topic
	if topic == "" {
		topic = "Untitled Quiz"
	}
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = "medium"
	}
	createdBy := req.UserEmail
	if createdBy == "" {
		createdBy = "anonymous@example.com"
	}
	questions := req.Questions
	if questions == nil {
		questions = []models.QuizQuestion{}
	}

	saved, err := h.quizzes.SaveQuiz(c.Request.Context(), models.Quiz{
		ID:           uuid.NewString(),
		Topic:        topic,
		Difficulty:   difficulty,
		Questions:    questions,
		CreatedAt:    nowISO(),
		CreatedBy:    createdBy,
		NumQuestions: len(questions),
	})
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Quiz saved successfully",
		"quiz_id":  saved.ID,
		"mongo_id": saved.ID,
	})
}

func (h *Handler) handleQuizDelete(c *gin.Context) {
	deleted, err := h.quizzes.DeleteQuiz(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	if !deleted {
		h.notFound(c, "Quiz not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":         "Quiz deleted successfully",
		"deleted_quiz_id": c.Param("id"),
	})
}

type quizSubmitRequest struct {
	QuizID  string                     `json:"quiz_id"`
	Answers []services.SubmittedAnswer `json:"answers"`
}

func (h *Handler) handleQuizSubmit(c *gin.Context) {
	var req quizSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, http.StatusBadRequest, kindValidation, "invalid payload", err)
		return
	}

	quiz, err := h.quizzes.QuizByID(c.Request.Context(), req.QuizID)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	if quiz == nil {
		h.notFound(c, "Quiz not found")
		return
	}

	c.JSON(http.StatusOK, services.ScoreQuiz(*quiz, req.Answers))
}

// historyUser accepts both the user_email parameter and the legacy userId
// one; attempts are keyed by email either way.
func historyUser(c *gin.Context) string {
	if email := c.Query("user_email"); email != "" {
		return email
	}
	return c.Query("userId")
}

func (h *Handler) handleQuizHistoryList(c *gin.Context) {
	userID := historyUser(c)
	if userID == "" {
		h.validationError(c, "user_email parameter is required")
		return
	}

	history, err := h.quizzes.HistoryByUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Warnw("quiz history listing failed", "user", userID, "error", err)
		c.JSON(http.StatusOK, []models.QuizHistoryEntry{})
		return
	}
	if history == nil {
		history = []models.QuizHistoryEntry{}
	}

	c.JSON(http.StatusOK, history)
}

type quizHistoryLogRequest struct {
	QuizID         string   `json:"quizId"`
	QuizTitle      string   `json:"quizTitle"`
	Topic          string   `json:"topic"`
	Difficulty     string   `json:"difficulty"`
	TotalQuestions int      `json:"totalQuestions"`
	CorrectAnswers int      `json:"correctAnswers"`
	Percentage     *float64 `json:"percentage"`
	CompletedAt    string   `json:"completedAt"`
	TimeTaken      string   `json:"timeTaken"`
	UserID         string   `json:"userId"`
}

func (h *Handler) handleQuizHistoryLog(c *gin.Context) {
	var req quizHistoryLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, http.StatusBadRequest, kindValidation, "invalid payload", err)
		return
	}

	entry := models.QuizHistoryEntry{
		ID:             uuid.NewString(),
		QuizID:         req.QuizID,
		QuizTitle:      defaulted(req.QuizTitle, "Unknown Quiz"),
		Topic:          defaulted(req.Topic, "Unknown Topic"),
		Difficulty:     defaulted(req.Difficulty, "medium"),
		TotalQuestions: req.TotalQuestions,
		CorrectAnswers: req.CorrectAnswers,
		CompletedAt:    defaulted(req.CompletedAt, nowISO()),
		TimeTaken:      defaulted(req.TimeTaken, "Not tracked"),
		UserID:         defaulted(req.UserID, "anonymous@example.com"),
	}
	if req.Percentage != nil {
		entry.Percentage = *req.Percentage
	}

	saved, err := h.quizzes.SaveHistory(c.Request.Context(), entry)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Quiz history logged successfully",
		"id":       saved.ID,
		"mongo_id": saved.ID,
	})
}

func (h *Handler) handleQuizHistoryClear(c *gin.Context) {
	userID := historyUser(c)
	if userID == "" {
		h.validationError(c, "user_email parameter is required")
		return
	}

	deleted, err := h.quizzes.ClearHistory(c.Request.Context(), userID)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       fmt.Sprintf("Quiz history cleared successfully for user %s", userID),
		"deleted_count": deleted,
	})
}

func defaulted(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// titlecase uppercases the first letter only, matching how difficulty
// labels are displayed.
func titlecase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
