package handler

import (
	"net/http"

	"github.com/Baaaki/yamdb/internal/dto"
	"github.com/Baaaki/yamdb/internal/service"
	"github.com/Baaaki/yamdb/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type TokenRequest struct {
	Username         string `json:"username" binding:"required"`
	ConfirmationCode string `json:"confirmation_code" binding:"required"`
}

// Signup registers a user or re-sends a code to an existing exact pair.
// POST /auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest

	// 1. Parse JSON request
	if !bindJSON(c, &req) {
		return
	}

	logger.Log.Info("Signup attempt",
		zap.String("username", req.Username),
		zap.String("email", req.Email),
		zap.String("ip", c.ClientIP()),
	)

	// 2. Call service
	user, err := h.authService.Signup(c.Request.Context(), req.Username, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	// 3. Echo the accepted pair; the code only travels by mail
	c.JSON(http.StatusOK, dto.SignupResponse{
		Username: user.Username,
		Email:    user.Email,
	})
}

// Token exchanges a confirmation code for a bearer token.
// POST /auth/token
func (h *AuthHandler) Token(c *gin.Context) {
	var req TokenRequest

	if !bindJSON(c, &req) {
		return
	}

	logger.Log.Info("Token request",
		zap.String("username", req.Username),
		zap.String("ip", c.ClientIP()),
	)

	token, err := h.authService.Token(req.Username, req.ConfirmationCode)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TokenResponse{Token: token})
}
