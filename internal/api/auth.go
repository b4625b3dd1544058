package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orbitlearn/orbit-server/internal/auth"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (h *Handler) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, http.StatusBadRequest, kindValidation, "invalid payload", err)
		return
	}

	result, err := h.auth.Register(c.Request.Context(), auth.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch err {
		case auth.ErrUsernameRequired, auth.ErrPasswordTooWeak:
			h.writeError(c, http.StatusBadRequest, kindValidation, err.Error(), err)
		case auth.ErrUserExists, auth.ErrEmailExists:
			h.writeError(c, http.StatusConflict, kindConflict, err.Error(), err)
		default:
			h.internalError(c, "failed to register user", err)
		}
		return
	}

	c.JSON(http.StatusCreated, newAuthResponse(result))
}

func (h *Handler) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, http.StatusBadRequest, kindValidation, "invalid payload", err)
		return
	}

	if req.Identifier == "" || req.Password == "" {
		h.validationError(c, "identifier and password are required")
		return
	}

	result, err := h.auth.Login(c.Request.Context(), auth.LoginInput{
		Identifier: req.Identifier,
		Password:   req.Password,
	})
	if err != nil {
		switch err {
		case auth.ErrInvalidCredentials:
			h.writeError(c, http.StatusUnauthorized, kindUnauthorized, err.Error(), err)
		default:
			h.internalError(c, "failed to login", err)
		}
		return
	}

	c.JSON(http.StatusOK, newAuthResponse(result))
}

func newAuthResponse(result *auth.AuthResult) gin.H {
	return gin.H{
		"token":     result.Token,
		"expiresAt": result.ExpiresAt.Format(time.RFC3339),
		"user": gin.H{
			"id":        result.User.ID,
			"username":  result.User.Username,
			"email":     result.User.Email,
			"createdAt": result.User.CreatedAt.Format(time.RFC3339),
			"updatedAt": result.User.UpdatedAt.Format(time.RFC3339),
		},
	}
}
