package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orbitlearn/orbit-server/internal/ai"
	"github.com/orbitlearn/orbit-server/internal/storage"
)

// Error kinds carried on the wire as the "error" field.
const (
	kindValidation     = "validation_error"
	kindNotFound       = "not_found"
	kindUpstream       = "upstream_unavailable"
	kindInternal       = "internal_error"
	kindNotImplemented = "not_implemented"
	kindConflict       = "conflict"
	kindUnauthorized   = "unauthorized"
)

// writeError emits the error envelope. The underlying error is exposed as
// "details" only in development.
func (h *Handler) writeError(c *gin.Context, status int, kind, message string, err error) {
	payload := gin.H{"error": kind, "message": message}
	if h.dev && err != nil {
		payload["details"] = err.Error()
	}
	c.JSON(status, payload)
}

func (h *Handler) validationError(c *gin.Context, message string) {
	h.writeError(c, http.StatusBadRequest, kindValidation, message, nil)
}

func (h *Handler) notFound(c *gin.Context, message string) {
	h.writeError(c, http.StatusNotFound, kindNotFound, message, nil)
}

func (h *Handler) internalError(c *gin.Context, message string, err error) {
	h.logger.Errorw(message, "path", c.FullPath(), "error", err)
	h.writeError(c, http.StatusInternalServerError, kindInternal, message, err)
}

// serviceError maps a failed service call onto the wire: AI provider
// failures answer 502, everything else (stores, object storage) 503.
// Strict-policy features land here when their fallback is disabled.
func (h *Handler) serviceError(c *gin.Context, err error) {
	if ai.KindOf(err) != "" || errors.Is(err, ai.ErrNotConfigured) {
		h.logger.Warnw("AI generation failed", "path", c.FullPath(), "error", err)
		h.writeError(c, http.StatusBadGateway, kindUpstream, "AI generation failed", err)
		return
	}
	if errors.Is(err, storage.ErrNotConfigured) {
		h.writeError(c, http.StatusServiceUnavailable, kindUpstream, "object storage is not configured", err)
		return
	}
	h.logger.Errorw("storage operation failed", "path", c.FullPath(), "error", err)
	h.writeError(c, http.StatusServiceUnavailable, kindUpstream, "storage unavailable", err)
}
