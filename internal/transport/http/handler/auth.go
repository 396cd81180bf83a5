package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rhivo/premium-api/internal/domain"
)

// authUsecaser is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type authUsecaser interface {
	RequestMagicLink(ctx context.Context, email string) error
	VerifyMagicLink(ctx context.Context, rawToken string) (string, *domain.User, error)
	CurrentUser(ctx context.Context, email string) (*domain.User, error)
}

type AuthHandler struct {
	authUsecase authUsecaser
	logger      *slog.Logger
}

func NewAuthHandler(authUsecase authUsecaser, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
		logger:      logger.With("component", "auth_handler"),
	}
}

type magicLinkRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// POST /auth/request
func (h *AuthHandler) RequestMagicLink(c *gin.Context) {
	var req magicLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid email is required"})
		return
	}

	if err := h.authUsecase.RequestMagicLink(c.Request.Context(), req.Email); err != nil {
		h.logger.Error("request magic link", "email", req.Email, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errEmailSendFailed})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type verifyRequest struct {
	Token string `json:"token" binding:"required"`
}

type verifyResponse struct {
	Token string     `json:"token"`
	User  userDetail `json:"user"`
}

type userDetail struct {
	Email     string `json:"email"`
	IsPremium bool   `json:"isPremium"`
}

// POST /auth/verify
// Invalid, expired, and already-used tokens all get the same 400 so the
// response carries no token-enumeration signal.
func (h *AuthHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token is required"})
		return
	}

	jwtToken, user, err := h.authUsecase.VerifyMagicLink(c.Request.Context(), req.Token)
	if err != nil {
		if errors.Is(err, domain.ErrTokenInvalid) {
			c.JSON(http.StatusBadRequest, gin.H{"error": errTokenInvalid})
			return
		}
		h.logger.Error("verify magic link", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, verifyResponse{
		Token: jwtToken,
		User:  userDetail{Email: user.Email, IsPremium: user.IsPremium},
	})
}

// GET /auth/me
// Re-reads the store rather than echoing the JWT's premium claim, which can
// go stale the moment a payment event lands.
func (h *AuthHandler) Me(c *gin.Context) {
	emailAddr := c.GetString("email")

	user, err := h.authUsecase.CurrentUser(c.Request.Context(), emailAddr)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errUserNotFound})
			return
		}
		h.logger.Error("current user", "email", emailAddr, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, userDetail{Email: user.Email, IsPremium: user.IsPremium})
}
