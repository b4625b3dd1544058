package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orbitlearn/orbit-server/internal/models"
	"github.com/orbitlearn/orbit-server/internal/services"
)

type tutorAskRequest struct {
	Prompt       string `json:"prompt"`
	Mode         string `json:"mode"`
	Subject      string `json:"subject"`
	IsVoiceInput *bool  `json:"isVoiceInput"`
	UserEmail    string `json:"userEmail"`
	SessionID    string `json:"sessionId"`
}

func (h *Handler) handleTutorAsk(c *gin.Context) {
	var req tutorAskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, http.StatusBadRequest, kindValidation, "invalid payload", err)
		return
	}

	mode := req.Mode
	if mode == "" {
		mode = "tutor"
	}
	subject := req.Subject
	if subject == "" {
		subject = "general"
	}
	voice := true
	if req.IsVoiceInput != nil {
		voice = *req.IsVoiceInput
	}

	if trimmed(req.Prompt) == "" {
		h.validationError(c, "Prompt is required")
		return
	}
	if req.UserEmail == "" {
		h.validationError(c, "User email is required for conversation tracking")
		return
	}

	result, err := h.tutor.Answer(c.Request.Context(), services.AskRequest{
		Prompt:       trimmed(req.Prompt),
		Subject:      subject,
		Mode:         mode,
		SessionID:    req.SessionID,
		UserEmail:    req.UserEmail,
		IsVoiceInput: voice,
	})
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      !result.Degraded,
		"response":     result.Response,
		"mode":         mode,
		"subject":      subject,
		"isVoiceInput": voice,
		"session_id":   result.SessionID,
		"timestamp":    nowISO(),
	})
}

type sessionStartRequest struct {
	Mode         string  `json:"mode"`
	Subject      *string `json:"subject"`
	UserEmail    string  `json:"userEmail"`
	IsVoiceInput *bool   `json:"isVoiceInput"`
}

func (h *Handler) handleSessionStart(c *gin.Context) {
	var req sessionStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, http.StatusBadRequest, kindValidation, "invalid payload", err)
		return
	}

	if req.UserEmail == "" {
		h.validationError(c, "User email is required")
		return
	}

	// Absent subject falls back to general; an explicit blank one is invalid.
	subject := "general"
	if req.Subject != nil {
		subject = trimmed(*req.Subject)
		if subject == "" {
			h.validationError(c, "Subject is required")
			return
		}
	}
	mode := req.Mode
	if mode == "" {
		mode = "tutor"
	}
	voice := true
	if req.IsVoiceInput != nil {
		voice = *req.IsVoiceInput
	}

	result, err := h.tutor.StartSession(c.Request.Context(), services.StartSessionRequest{
		UserEmail:    req.UserEmail,
		Mode:         mode,
		Subject:      subject,
		IsVoiceInput: voice,
	})
	if err != nil {
		h.serviceError(c, err)
		return
	}

	if result.IsResumed {
		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"session_id": result.SessionID,
			"mode":       result.Mode,
			"subject":    result.Subject,
			"message":    result.Message,
			"timestamp":  nowISO(),
			"is_resumed": true,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"session_id":   result.SessionID,
		"mode":         result.Mode,
		"subject":      result.Subject,
		"message":      result.Message,
		"user_email":   req.UserEmail,
		"isVoiceInput": voice,
		"timestamp":    nowISO(),
		"is_resumed":   false,
	})
}

type sessionEndRequest struct {
	SessionID string `json:"session_id"`
	UserEmail string `json:"userEmail"`
}

func (h *Handler) handleSessionEnd(c *gin.Context) {
	var req sessionEndRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, http.StatusBadRequest, kindValidation, "invalid payload", err)
		return
	}

	if req.SessionID == "" {
		h.validationError(c, "Session ID is required")
		return
	}
	if req.UserEmail == "" {
		h.validationError(c, "User email is required for conversation tracking")
		return
	}

	if _, err := h.chats.EndActiveSession(c.Request.Context(), req.UserEmail); err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"session_id": req.SessionID,
		"timestamp":  nowISO(),
	})
}

func (h *Handler) handleSessionActive(c *gin.Context) {
	userEmail := c.Query("userEmail")
	if userEmail == "" {
		h.validationError(c, "User email is required")
		return
	}

	session, err := h.chats.ActiveSession(c.Request.Context(), userEmail)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	if session == nil {
		c.JSON(http.StatusOK, gin.H{
			"success":            true,
			"has_active_session": false,
			"timestamp":          nowISO(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"has_active_session": true,
		"session_data":       session,
		"timestamp":          nowISO(),
	})
}

func (h *Handler) handleChatHistory(c *gin.Context) {
	userEmail := c.Query("userEmail")
	sessionID := c.Query("sessionId")

	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)

	if userEmail == "" {
		h.validationError(c, "User email is required")
		return
	}

	fetched, err := h.chats.History(c.Request.Context(), userEmail, sessionID, int64(limit+offset))
	if err != nil {
		h.serviceError(c, err)
		return
	}

	total := len(fetched)
	messages := []models.ChatMessage{}
	if offset < total {
		end := offset + limit
		if end > total {
			end = total
		}
		messages = fetched[offset:end]
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"messages":   messages,
		"count":      len(messages),
		"total":      total,
		"session_id": nullableString(sessionID),
		"timestamp":  nowISO(),
	})
}

type chatClearRequest struct {
	UserEmail string `json:"userEmail"`
	Confirm   bool   `json:"confirm"`
	SessionID string `json:"sessionId"`
}

func (h *Handler) handleChatClear(c *gin.Context) {
	var req chatClearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, http.StatusBadRequest, kindValidation, "invalid payload", err)
		return
	}

	if req.UserEmail == "" {
		h.validationError(c, "User email is required")
		return
	}
	if !req.Confirm {
		h.validationError(c, "Confirmation is required to clear chat history")
		return
	}

	deleted, err := h.chats.ClearHistory(c.Request.Context(), req.UserEmail, req.SessionID)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	if deleted == 0 {
		h.notFound(c, "Failed to clear chat history. No records found or database error.")
		return
	}

	scope := "for all sessions"
	if req.SessionID != "" {
		scope = fmt.Sprintf("for session %s", req.SessionID)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    fmt.Sprintf("Chat history cleared successfully %s", scope),
		"session_id": nullableString(req.SessionID),
		"timestamp":  nowISO(),
	})
}

type voiceToggleRequest struct {
	Enabled   bool   `json:"enabled"`
	SessionID string `json:"session_id"`
	UserEmail string `json:"userEmail"`
}

// handleVoiceToggle flips voice output for the active session. The
// confirmation message is deterministic; no generation round-trip.
func (h *Handler) handleVoiceToggle(c *gin.Context) {
	var req voiceToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, http.StatusBadRequest, kindValidation, "invalid payload", err)
		return
	}

	if req.SessionID == "" {
		h.validationError(c, "Session ID is required")
		return
	}
	if req.UserEmail == "" {
		h.validationError(c, "User email is required for conversation tracking")
		return
	}

	if _, err := h.chats.SetVoiceEnabled(c.Request.Context(), req.UserEmail, req.Enabled); err != nil {
		h.serviceError(c, err)
		return
	}

	state := "disabled"
	if req.Enabled {
		state = "enabled"
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"voice_enabled": req.Enabled,
		"message":       fmt.Sprintf("Voice output has been %s.", state),
		"session_id":    req.SessionID,
		"timestamp":     nowISO(),
	})
}

type voiceOptimizeRequest struct {
	Text      string `json:"text"`
	UserEmail string `json:"userEmail"`
}

func (h *Handler) handleVoiceOptimize(c *gin.Context) {
	var req voiceOptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, http.StatusBadRequest, kindValidation, "invalid payload", err)
		return
	}

	text := trimmed(req.Text)
	if text == "" {
		h.validationError(c, "Text is required")
		return
	}

	optimized := services.OptimizeForVoice(text)

	if req.UserEmail != "" {
		if _, err := h.chats.SaveExchange(c.Request.Context(), req.UserEmail, "Optimized text for voice output", optimized, ""); err != nil {
			h.serviceError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"original_text":  text,
		"optimized_text": optimized,
		"timestamp":      nowISO(),
	})
}

func (h *Handler) handleVoiceConnection(c *gin.Context) {
	if !h.aiConfigured {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success":   false,
			"status":    "Voice services are unavailable (AI initialization failed)",
			"timestamp": nowISO(),
		})
		return
	}

	if err := h.tutor.Ping(c.Request.Context()); err != nil {
		h.logger.Warnw("voice connection check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success":   false,
			"status":    "Voice services are partially available (AI initialization OK, but response generation failed)",
			"timestamp": nowISO(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"status":    "Voice services are working properly",
		"timestamp": nowISO(),
	})
}

func (h *Handler) handleTutorHealth(c *gin.Context) {
	database := "unavailable"
	if h.mongo != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.mongo.Ping(ctx); err == nil {
			database = "connected"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"service":       "tutor",
		"ai_configured": h.aiConfigured,
		"database":      database,
		"timestamp":     nowISO(),
	})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
