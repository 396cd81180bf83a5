package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rhivo/premium-api/internal/domain"
)

type userFinder interface {
	CurrentUser(ctx context.Context, email string) (*domain.User, error)
}

// StatusHandler serves the legacy unauthenticated premium lookup that older
// extension builds still poll.
type StatusHandler struct {
	users  userFinder
	logger *slog.Logger
}

func NewStatusHandler(users userFinder, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{
		users:  users,
		logger: logger.With("component", "status_handler"),
	}
}

type checkStatusRequest struct {
	Email string `json:"email" binding:"required"`
}

// POST /check-status
func (h *StatusHandler) CheckStatus(c *gin.Context) {
	var req checkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
		return
	}

	user, err := h.users.CurrentUser(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.JSON(http.StatusOK, gin.H{"active": false, "status": "User not found"})
			return
		}
		h.logger.Error("check status", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{"active": user.IsPremium})
}
