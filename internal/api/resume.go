package api

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/orbitlearn/orbit-server/internal/extract"
	"github.com/orbitlearn/orbit-server/internal/models"
	"github.com/orbitlearn/orbit-server/internal/storage"
)

var resumeFormats = map[string]bool{"pdf": true, "docx": true}

func (h *Handler) handleResumeUpload(c *gin.Context) {
	file, header, err := c.Request.FormFile("resume")
	if err != nil {
		h.validationError(c, "No file part in the request")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		h.validationError(c, "No selected file")
		return
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
	if !resumeFormats[ext] {
		h.validationError(c, "Invalid file type. Only PDF and DOCX allowed.")
		return
	}

	if h.storage == nil || !h.storage.Configured() {
		h.serviceError(c, storage.ErrNotConfigured)
		return
	}

	ctx := c.Request.Context()
	key, err := h.storage.UploadResume(ctx, file, header.Size, ext)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	url, err := h.storage.PresignedURL(ctx, key)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ResumeUpload{
		SecureURL: url,
		URL:       url,
		PublicID:  key,
	})
}

type resumeAnalyzeRequest struct {
	ResumeText     string `json:"resume_text"`
	PublicID       string `json:"public_id"`
	JobDescription string `json:"job_description"`
	FileFormat     string `json:"file_format"`
}

func (h *Handler) handleResumeAnalyze(c *gin.Context) {
	var req resumeAnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, http.StatusBadRequest, kindValidation, "invalid payload", err)
		return
	}

	jobDescription := trimmed(req.JobDescription)
	if jobDescription == "" {
		h.validationError(c, "'job_description' is required")
		return
	}

	ctx := c.Request.Context()
	resumeText := trimmed(req.ResumeText)
	if resumeText == "" {
		if req.PublicID == "" {
			h.validationError(c, "Provide either 'resume_text' or 'public_id'")
			return
		}

		format := strings.ToLower(req.FileFormat)
		if format == "" {
			format = "pdf"
		}
		if !resumeFormats[format] {
			h.validationError(c, "Unsupported resume file type")
			return
		}

		if h.storage == nil {
			h.serviceError(c, storage.ErrNotConfigured)
			return
		}
		data, err := h.storage.Download(ctx, req.PublicID)
		if err != nil {
			if errors.Is(err, storage.ErrNotConfigured) {
				h.serviceError(c, err)
				return
			}
			h.internalError(c, "Failed to fetch or parse resume", err)
			return
		}

		resumeText, err = extract.ByFormat(format, data)
		if err != nil {
			h.internalError(c, "Failed to fetch or parse resume", err)
			return
		}
	}

	analysis, err := h.resume.Analyze(ctx, resumeText, jobDescription)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	payload := gin.H{"analysis": analysis}
	if analysis.Raw != "" {
		payload["raw"] = analysis.Raw
		payload["warning"] = analysis.Warning
	}

	c.JSON(http.StatusOK, payload)
}
