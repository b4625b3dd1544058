package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/orbitlearn/orbit-server/internal/models"
	"github.com/orbitlearn/orbit-server/internal/report"
)

type roadmapGenerateRequest struct {
	Goal          string `json:"goal"`
	Background    string `json:"background"`
	DurationWeeks int    `json:"duration_weeks"`
	UserEmail     string `json:"user_email"`
}

func (h *Handler) handleRoadmapGenerate(c *gin.Context) {
	var req roadmapGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, http.StatusBadRequest, kindValidation, "invalid payload", err)
		return
	}

	if req.Goal == "" || req.Background == "" {
		h.validationError(c, "Missing goal or background")
		return
	}
	if req.UserEmail == "" {
		h.validationError(c, "Missing user email")
		return
	}

	weeks := req.DurationWeeks
	if weeks <= 0 {
		weeks = 12
	}

	ctx := c.Request.Context()
	data, err := h.roadmap.Generate(ctx, req.Goal, req.Background, weeks)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	_, err = h.roadmaps.SaveRoadmap(ctx, models.Roadmap{
		ID:            uuid.NewString(),
		UserEmail:     req.UserEmail,
		Title:         req.Goal,
		Description:   req.Background,
		DurationWeeks: weeks,
		CreatedAt:     time.Now().UTC(),
		Data:          data,
	})
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "roadmap": data})
}

func (h *Handler) handleRoadmapList(c *gin.Context) {
	userEmail := c.Query("user_email")
	if userEmail == "" {
		h.validationError(c, "Missing user_email parameter")
		return
	}

	roadmaps, err := h.roadmaps.RoadmapsByUser(c.Request.Context(), userEmail)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	if roadmaps == nil {
		roadmaps = []models.Roadmap{}
	}

	c.JSON(http.StatusOK, roadmaps)
}

func (h *Handler) handleRoadmapGet(c *gin.Context) {
	userEmail := c.Query("user_email")
	if userEmail == "" {
		h.validationError(c, "Missing user_email parameter")
		return
	}

	roadmap, err := h.roadmaps.RoadmapByID(c.Request.Context(), c.Param("id"), userEmail)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	if roadmap == nil {
		h.notFound(c, "Roadmap not found or access denied")
		return
	}

	c.JSON(http.StatusOK, roadmap)
}

func (h *Handler) handleRoadmapDelete(c *gin.Context) {
	userEmail := c.Query("user_email")
	if userEmail == "" {
		h.validationError(c, "Missing user_email parameter")
		return
	}

	deleted, err := h.roadmaps.DeleteRoadmap(c.Request.Context(), c.Param("id"), userEmail)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	if !deleted {
		h.notFound(c, "Roadmap not found or access denied")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Roadmap deleted successfully"})
}

func (h *Handler) handleRoadmapDownload(c *gin.Context) {
	userEmail := c.Query("user_email")
	if userEmail == "" {
		h.validationError(c, "Missing user_email parameter")
		return
	}

	id := c.Param("id")
	roadmap, err := h.roadmaps.RoadmapByID(c.Request.Context(), id, userEmail)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	if roadmap == nil {
		h.notFound(c, "Roadmap not found or access denied")
		return
	}

	pdf, err := report.RenderRoadmapPDF(*roadmap)
	if err != nil {
		h.internalError(c, "Failed to generate PDF", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=roadmap_%s.pdf", id))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
