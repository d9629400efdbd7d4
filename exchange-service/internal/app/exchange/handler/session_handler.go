package handler

import (
	"errors"
	"net/http"

	"exchanger/exchange-service/internal/app/exchange/entity"
	"exchanger/exchange-service/internal/app/exchange/service"

	"github.com/gin-gonic/gin"
)

// SessionHandler выдает токены по email и паролю
type SessionHandler struct {
	authService service.AuthServiceInterface
}

func NewSessionHandler(authService service.AuthServiceInterface) *SessionHandler {
	return &SessionHandler{authService: authService}
}

// Create обрабатывает POST /api/v1/session
func (h *SessionHandler) Create(c *gin.Context) {
	var req entity.SessionRequest
	// пустое или битое тело означает отсутствие учётных данных
	_ = c.ShouldBindJSON(&req)

	token, err := h.authService.Login(c.Request.Context(), req.EmailAddress, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing email or password"})
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		}
		return
	}

	c.JSON(http.StatusCreated, entity.SessionResponse{Token: token})
}
