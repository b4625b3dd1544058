package api

import (
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/orbitlearn/orbit-server/internal/extract"
	"github.com/orbitlearn/orbit-server/internal/models"
	"github.com/orbitlearn/orbit-server/internal/services"
)

var videoResolutions = map[string]bool{"480p": true, "720p": true, "1080p": true, "1440p": true, "4K": true}

type textToVideoRequest struct {
	Text       string `json:"text"`
	UserEmail  string `json:"user_email"`
	Duration   *int   `json:"duration"`
	Resolution string `json:"resolution"`
	VideoType  string `json:"video_type"`
}

func (h *Handler) handleTextToVideo(c *gin.Context) {
	var req textToVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, http.StatusBadRequest, kindValidation, "invalid payload", err)
		return
	}

	text := trimmed(req.Text)
	if text == "" {
		h.validationError(c, "'text' field is required and cannot be empty")
		return
	}

	duration := 30
	if req.Duration != nil {
		duration = *req.Duration
	}
	resolution := defaulted(req.Resolution, "720p")
	videoType := defaulted(req.VideoType, "educational")

	result, err := h.visual.GenerateVideo(c.Request.Context(), text, duration, resolution, "16:9", videoType)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	scenes := services.SlideshowScenes(result)
	slideshow := models.Slideshow{
		Type:               "slideshow",
		Scenes:             scenes,
		Duration:           duration,
		Resolution:         resolution,
		TotalWords:         len(strings.Fields(text)),
		TotalSlides:        len(scenes),
		AutoPlay:           true,
		TransitionDuration: 1,
		Status:             result.Status,
		Metadata: models.SlideshowMetadata{
			Source:         "text",
			UserEmail:      req.UserEmail,
			GenerationMode: generationMode(result),
		},
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"result":     slideshow,
		"user_email": nullableString(req.UserEmail),
		"mode":       "veo3_required",
	})
}

type pdfToVideoRequest struct {
	PDFURL     string `json:"pdf_url"`
	UserEmail  string `json:"user_email"`
	Duration   *int   `json:"duration"`
	Resolution string `json:"resolution"`
	VideoType  string `json:"video_type"`
}

func (h *Handler) handlePDFURLToVideo(c *gin.Context) {
	var req pdfToVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, http.StatusBadRequest, kindValidation, "invalid payload", err)
		return
	}

	if req.PDFURL == "" {
		h.validationError(c, "'pdf_url' is required")
		return
	}

	duration := 30
	if req.Duration != nil {
		duration = *req.Duration
	}
	resolution := defaulted(req.Resolution, "720p")
	videoType := defaulted(req.VideoType, "educational")

	ctx := c.Request.Context()
	data, err := h.fetch(ctx, req.PDFURL)
	if err != nil {
		h.internalError(c, "PDF video generation failed", err)
		return
	}

	text, err := extract.PDFText(data)
	if err != nil {
		h.internalError(c, "PDF video generation failed", err)
		return
	}
	text = trimmed(text)
	if text == "" {
		h.validationError(c, "No text extracted from PDF")
		return
	}

	result, err := h.visual.GenerateVideo(ctx, text, duration, resolution, "16:9", videoType)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	scenes := services.SlideshowScenes(result)
	slideshow := models.Slideshow{
		Type:                "slideshow",
		Scenes:              scenes,
		Duration:            duration,
		Resolution:          resolution,
		ExtractedTextLength: utf8.RuneCountInString(text),
		TotalSlides:         len(scenes),
		AutoPlay:            true,
		TransitionDuration:  1,
		Status:              result.Status,
		Metadata: models.SlideshowMetadata{
			Source:         "pdf",
			UserEmail:      req.UserEmail,
			GenerationMode: generationMode(result),
		},
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"result":     slideshow,
		"user_email": nullableString(req.UserEmail),
		"mode":       "veo3_pdf_required",
	})
}

type audioToVideoRequest struct {
	AudioURL  string `json:"audio_url"`
	UserEmail string `json:"user_email"`
	Duration  *int   `json:"duration"`
	VideoType string `json:"video_type"`
}

// handleAudioURLToVideo builds a slideshow from audio metadata. There is no
// transcription step; the scene script is derived from a placeholder
// description of the source.
func (h *Handler) handleAudioURLToVideo(c *gin.Context) {
	var req audioToVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, http.StatusBadRequest, kindValidation, "invalid payload", err)
		return
	}

	if req.AudioURL == "" {
		h.validationError(c, "'audio_url' field is required")
		return
	}

	duration := 45
	if req.Duration != nil {
		duration = *req.Duration
	}
	videoType := defaulted(req.VideoType, "music_video")

	text := fmt.Sprintf("Audio content from %s. Duration: %d seconds. Style: %s", req.AudioURL, duration, videoType)

	result, err := h.visual.GenerateVideo(c.Request.Context(), text, duration, "1080p", "16:9", videoType)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	scenes := services.SlideshowScenes(result)
	slideshow := models.Slideshow{
		Type:               "slideshow",
		Scenes:             scenes,
		Duration:           duration,
		AudioSource:        req.AudioURL,
		VideoType:          videoType,
		TotalSlides:        len(scenes),
		AutoPlay:           true,
		TransitionDuration: 1,
		Status:             result.Status,
		Metadata: models.SlideshowMetadata{
			Source:         "audio",
			UserEmail:      req.UserEmail,
			GenerationMode: generationMode(result),
		},
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"result":     slideshow,
		"user_email": nullableString(req.UserEmail),
		"mode":       "veo3_audio_required",
	})
}

type veo3GenerateRequest struct {
	Text        string `json:"text"`
	Duration    *int   `json:"duration"`
	Resolution  string `json:"resolution"`
	AspectRatio string `json:"aspect_ratio"`
	Style       string `json:"style"`
	UserEmail   string `json:"user_email"`
}

func (h *Handler) handleVeo3Generate(c *gin.Context) {
	var req veo3GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, http.StatusBadRequest, kindValidation, "invalid payload", err)
		return
	}

	text := trimmed(req.Text)
	if text == "" {
		h.validationError(c, "'text' field is required and cannot be empty")
		return
	}

	duration := 30
	if req.Duration != nil {
		duration = *req.Duration
	}
	if duration < 5 || duration > 120 {
		h.validationError(c, "Duration must be between 5 and 120 seconds")
		return
	}

	resolution := defaulted(req.Resolution, "1080p")
	if !videoResolutions[resolution] {
		h.validationError(c, "Resolution must be one of: 480p, 720p, 1080p, 1440p, 4K")
		return
	}

	aspectRatio := defaulted(req.AspectRatio, "16:9")
	style := defaulted(req.Style, "educational")

	result, err := h.visual.GenerateVideo(c.Request.Context(), text, duration, resolution, aspectRatio, style)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": result.Spec != nil,
		"result": gin.H{
			"video_spec":      result.Spec,
			"video_url":       nil,
			"status":          result.Status,
			"fallback_scenes": []models.Scene{},
			"duration":        duration,
			"resolution":      resolution,
			"aspect_ratio":    aspectRatio,
			"style":           style,
			"generation_mode": "veo3_advanced",
		},
		"user_email": nullableString(req.UserEmail),
		"timestamp":  nowISO(),
	})
}

func (h *Handler) handleVisualCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"mode":   "serverless",
		"features": gin.H{
			"text_to_video":  true,
			"pdf_to_video":   true,
			"audio_to_video": "requires_transcript",
			"output_format":  "json_slideshow",
		},
		"note": "All features work in serverless mode! Returns slideshow data for frontend display.",
	})
}

// Async job endpoints predate the synchronous pipeline and are intentionally
// unsupported; every variant answers 501 with a pointer to the replacement.
func (h *Handler) handleVisualJobStatus(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{
		"error":   kindNotImplemented,
		"message": "Job status endpoints not supported in serverless mode",
		"note":    "Use synchronous endpoints instead for immediate results",
		"endpoints": gin.H{
			"text":  "/api/visual/text-to-video (POST)",
			"pdf":   "/api/visual/pdf-url-to-video (POST)",
			"audio": "/api/visual/audio-url-to-video (POST)",
			"veo3":  "/api/visual/veo3-generate (POST)",
		},
	})
}

func (h *Handler) handleVisualJobSubmit(c *gin.Context) {
	rest := strings.TrimSuffix(c.Param("rest"), "/")
	switch rest {
	case "/pdf":
		c.JSON(http.StatusNotImplemented, gin.H{
			"error":                kindNotImplemented,
			"message":              "Background jobs not supported in serverless mode. Use synchronous endpoint: /api/visual/pdf-url-to-video",
			"alternative_endpoint": "/api/visual/pdf-url-to-video",
			"method":               "POST",
		})
	case "/audio":
		c.JSON(http.StatusNotImplemented, gin.H{
			"error":                kindNotImplemented,
			"message":              "Background jobs not supported in serverless mode. Use synchronous endpoint: /api/visual/audio-url-to-video",
			"alternative_endpoint": "/api/visual/audio-url-to-video",
			"method":               "POST",
		})
	default:
		c.JSON(http.StatusNotImplemented, gin.H{
			"error":       kindNotImplemented,
			"message":     "Async job endpoints not supported in serverless mode",
			"alternative": "Use synchronous endpoints instead",
			"endpoints": gin.H{
				"text":  "/api/visual/text-to-video (POST)",
				"pdf":   "/api/visual/pdf-url-to-video (POST)",
				"audio": "/api/visual/audio-url-to-video (POST)",
			},
		})
	}
}

func generationMode(result services.VideoResult) string {
	if result.Spec != nil {
		return "veo3"
	}
	return "fallback"
}
