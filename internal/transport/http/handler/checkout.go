package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rhivo/premium-api/internal/domain"
)

// checkoutCreator is satisfied by *payment.Client.
type checkoutCreator interface {
	CreateCheckoutSession(ctx context.Context, email string) (string, error)
}

type CheckoutHandler struct {
	payments checkoutCreator
	logger   *slog.Logger
}

func NewCheckoutHandler(payments checkoutCreator, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		payments: payments,
		logger:   logger.With("component", "checkout_handler"),
	}
}

// POST /checkout/create (requires auth)
// Returns only the hosted-checkout URL; everything else stays processor-side.
func (h *CheckoutHandler) Create(c *gin.Context) {
	emailAddr := c.GetString("email")

	url, err := h.payments.CreateCheckoutSession(c.Request.Context(), emailAddr)
	if err != nil {
		if errors.Is(err, domain.ErrPriceNotConfigured) {
			// Configuration error, not a user error.
			h.logger.Error("checkout requested with no price configured")
			c.JSON(http.StatusInternalServerError, gin.H{"error": errPriceNotConfigured})
			return
		}
		h.logger.Error("create checkout session", "email", emailAddr, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
