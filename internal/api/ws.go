package api

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/orbitlearn/orbit-server/internal/models"
)

// liveHistoryCap bounds the rolling conversation window per connection.
const liveHistoryCap = 20

type liveTurnRequest struct {
	Prompt    string `json:"prompt"`
	Subject   string `json:"subject"`
	UserEmail string `json:"userEmail"`
}

// handleTutorLive runs a persistent tutoring conversation over a WebSocket.
// Each client frame yields one reply frame; the connection holds the rolling
// history so consecutive turns build on each other. Nothing is persisted.
func (h *Handler) handleTutorLive(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warnw("live tutor upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sendError := func(message string) {
		if err := conn.WriteJSON(gin.H{"type": "error", "error": message}); err != nil {
			h.logger.Warnw("live tutor write failed", "error", err)
		}
	}

	var history []models.SessionMessage
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warnw("live tutor connection closed", "error", err)
			}
			return
		}

		var turn liveTurnRequest
		if err := json.Unmarshal(payload, &turn); err != nil {
			sendError("invalid message")
			continue
		}

		prompt := trimmed(turn.Prompt)
		if prompt == "" {
			sendError("prompt is required")
			continue
		}
		subject := turn.Subject
		if subject == "" {
			subject = "general"
		}

		reply, err := h.tutor.Converse(c.Request.Context(), prompt, subject, history)
		if err != nil {
			sendError("AI generation failed")
			continue
		}

		now := nowISO()
		history = append(history,
			models.SessionMessage{Role: "user", Content: prompt, Timestamp: now},
			models.SessionMessage{Role: "assistant", Content: reply, Timestamp: now},
		)
		if len(history) > liveHistoryCap {
			history = history[len(history)-liveHistoryCap:]
		}

		if err := conn.WriteJSON(gin.H{"response": reply, "timestamp": now}); err != nil {
			h.logger.Warnw("live tutor write failed", "error", err)
			return
		}
	}
}
