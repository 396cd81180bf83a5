package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v84"

	"github.com/rhivo/premium-api/internal/metrics"
	"github.com/rhivo/premium-api/internal/payment"
)

// webhookVerifier is satisfied by *payment.Verifier.
type webhookVerifier interface {
	VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error)
}

// eventReconciler is satisfied by *usecase.Reconciler.
type eventReconciler interface {
	HandleEvent(ctx context.Context, event stripe.Event) error
}

type WebhookHandler struct {
	verifier   webhookVerifier
	reconciler eventReconciler
	logger     *slog.Logger
}

func NewWebhookHandler(verifier webhookVerifier, reconciler eventReconciler, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifier:   verifier,
		reconciler: reconciler,
		logger:     logger.With("component", "webhook_handler"),
	}
}

// POST /update-status
// Signature verification over the raw body is the only authentication on
// this route. Once it passes, the event is acknowledged no matter how
// dispatch goes: Stripe's own retry schedule is the recovery mechanism, and
// a 5xx would only trigger redelivery of events we cannot act on anyway.
func (h *WebhookHandler) UpdateStatus(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, payment.MaxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	event, err := h.verifier.VerifyWebhook(body, c.GetHeader("Stripe-Signature"))
	if err != nil {
		metrics.WebhookSignatureFailuresTotal.Inc()
		h.logger.Warn("webhook signature verification failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	if err := h.reconciler.HandleEvent(c.Request.Context(), event); err != nil {
		metrics.WebhookEventsTotal.WithLabelValues(string(event.Type), "error").Inc()
		h.logger.Error("webhook dispatch",
			"type", event.Type, "event_id", event.ID, "error", err)
	} else {
		metrics.WebhookEventsTotal.WithLabelValues(string(event.Type), "ok").Inc()
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
