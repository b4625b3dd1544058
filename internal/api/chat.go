package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/orbitlearn/orbit-server/internal/ai"
	"github.com/orbitlearn/orbit-server/internal/models"
	"github.com/orbitlearn/orbit-server/internal/services"
)

func (h *Handler) handleLoadChat(c *gin.Context) {
	identifier := ownerIdentifier(c.Query("userEmail"), c.Query("userId"))
	if identifier == "" {
		h.validationError(c, "userEmail or userId is required")
		return
	}

	sessions, err := h.chats.Sessions(c.Request.Context(), identifier)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	if sessions == nil {
		sessions = []models.ChatSession{}
	}

	var currentSessionID any
	if len(sessions) > 0 {
		currentSessionID = sessions[0].ID
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"sessions":         sessions,
		"currentSessionId": currentSessionID,
		"sessionCounter":   len(sessions) + 1,
	})
}

type saveChatRequest struct {
	UserEmail string               `json:"userEmail"`
	UserID    string               `json:"userId"`
	Sessions  []models.ChatSession `json:"sessions"`
}

func (h *Handler) handleSaveChat(c *gin.Context) {
	var req saveChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, http.StatusBadRequest, kindValidation, "invalid payload", err)
		return
	}

	identifier := ownerIdentifier(req.UserEmail, req.UserID)
	if identifier == "" {
		h.validationError(c, "userEmail or userId is required")
		return
	}

	if err := h.chats.ReplaceSessions(c.Request.Context(), identifier, req.Sessions); err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type createChatRequest struct {
	SessionName string `json:"sessionName"`
	UserEmail   string `json:"userEmail"`
	UserID      string `json:"userId"`
}

func (h *Handler) handleCreateChat(c *gin.Context) {
	var req createChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, http.StatusBadRequest, kindValidation, "invalid payload", err)
		return
	}

	identifier := ownerIdentifier(req.UserEmail, req.UserID)
	if identifier == "" {
		h.validationError(c, "userEmail or userId is required")
		return
	}

	name := req.SessionName
	if name == "" {
		name = "New Chat Session"
	}

	now := nowISO()
	session, err := h.chats.CreateSession(c.Request.Context(), models.ChatSession{
		UserEmail:    identifier,
		Name:         name,
		Messages:     []models.SessionMessage{},
		CreatedAt:    now,
		LastActivity: now,
		MessageCount: 0,
	})
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "session": session})
}

type updateMessagesRequest struct {
	Messages  []models.SessionMessage `json:"messages"`
	UserEmail string                  `json:"userEmail"`
	UserID    string                  `json:"userId"`
}

func (h *Handler) handleUpdateMessages(c *gin.Context) {
	var req updateMessagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, http.StatusBadRequest, kindValidation, "invalid payload", err)
		return
	}

	identifier := ownerIdentifier(req.UserEmail, req.UserID)
	if identifier == "" {
		h.validationError(c, "userEmail or userId is required")
		return
	}

	modified, err := h.chats.UpdateSessionMessages(c.Request.Context(), identifier, c.Param("id"), req.Messages, nowISO())
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": modified})
}

func (h *Handler) handleDeleteChat(c *gin.Context) {
	identifier := ownerIdentifier(c.Query("userEmail"), c.Query("userId"))
	if identifier == "" {
		h.validationError(c, "userEmail or userId is required")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.chats.DeleteSession(ctx, identifier, c.Param("id")); err != nil {
		h.serviceError(c, err)
		return
	}

	remaining, err := h.chats.Sessions(ctx, identifier)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	if remaining == nil {
		remaining = []models.ChatSession{}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "remainingSessions": remaining})
}

type updateActivityRequest struct {
	UserEmail string `json:"userEmail"`
	UserID    string `json:"userId"`
}

func (h *Handler) handleUpdateActivity(c *gin.Context) {
	var req updateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, http.StatusBadRequest, kindValidation, "invalid payload", err)
		return
	}

	identifier := ownerIdentifier(req.UserEmail, req.UserID)
	if identifier == "" {
		h.validationError(c, "userEmail or userId is required")
		return
	}

	modified, err := h.chats.TouchSession(c.Request.Context(), identifier, c.Param("id"), nowISO())
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": modified})
}

type chatMessageRequest struct {
	Input       string                  `json:"input"`
	UserEmail   string                  `json:"userEmail"`
	UserID      string                  `json:"userId"`
	ChatHistory []models.SessionMessage `json:"chatHistory"`
	SessionID   string                  `json:"sessionId"`
}

func (h *Handler) handleChatMessage(c *gin.Context) {
	var req chatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, http.StatusBadRequest, kindValidation, "invalid payload", err)
		return
	}

	input := trimmed(req.Input)
	identifier := ownerIdentifier(req.UserEmail, req.UserID)
	if input == "" || identifier == "" {
		h.validationError(c, "Message and userEmail/userId are required")
		return
	}

	reply, err := h.chatbot.Reply(c.Request.Context(), services.ReplyRequest{
		Input:     input,
		UserEmail: identifier,
		SessionID: req.SessionID,
		History:   req.ChatHistory,
	})
	if err != nil {
		if ai.KindOf(err) != "" || errors.Is(err, ai.ErrNotConfigured) {
			h.serviceError(c, err)
			return
		}
		h.internalError(c, "Failed to update chat session with new messages", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   reply,
		"timestamp": nowISO(),
	})
}

type chatAskRequest struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

// handleChatAsk serves the legacy question endpoint: the free-text context
// is parsed into a conversation history, nothing is persisted.
func (h *Handler) handleChatAsk(c *gin.Context) {
	var req chatAskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, http.StatusBadRequest, kindValidation, "invalid payload", err)
		return
	}

	question := trimmed(req.Question)
	history := parseLegacyContext(req.Context)

	reply, err := h.chatbot.Reply(c.Request.Context(), services.ReplyRequest{
		Input:   question,
		History: history,
	})
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"response":  reply,
		"sources":   []string{"AI-powered explanation", "Educational best practices"},
		"timestamp": nowISO(),
		"question":  question,
	})
}

// parseLegacyContext turns "Student: ... / Tutor: ..." transcript lines into
// history entries; anything else is ignored.
func parseLegacyContext(context string) []models.SessionMessage {
	if context == "" {
		return nil
	}

	var history []models.SessionMessage
	for _, line := range strings.Split(context, "\n") {
		switch {
		case strings.HasPrefix(line, "Student:"):
			history = append(history, models.SessionMessage{
				Role:    "user",
				Content: strings.TrimSpace(strings.TrimPrefix(line, "Student:")),
			})
		case strings.HasPrefix(line, "Tutor:"):
			history = append(history, models.SessionMessage{
				Role:    "assistant",
				Content: strings.TrimSpace(strings.TrimPrefix(line, "Tutor:")),
			})
		}
	}
	return history
}
