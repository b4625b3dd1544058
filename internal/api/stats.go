package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) handleUserStats(c *gin.Context) {
	userEmail := c.Query("user_email")
	if userEmail == "" {
		h.validationError(c, "user_email parameter is required")
		return
	}

	stats, err := h.stats.UserStats(c.Request.Context(), userEmail)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// handleUserStatsSession exists for older clients that still push session
// events; stats are computed on read now.
func (h *Handler) handleUserStatsSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Session tracking not needed - using real-time calculations",
		"deprecated": true,
	})
}
