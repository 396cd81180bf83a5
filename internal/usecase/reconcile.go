package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/stripe/stripe-go/v84"

	"github.com/rhivo/premium-api/internal/repository"
)

// ChargeResolver resolves the charge id underlying a payment intent via the
// processor. The bool is false when no charge could be resolved; that is an
// ordinary outcome, not a failure.
type ChargeResolver interface {
	ChargeForIntent(ctx context.Context, paymentIntentID string) (string, bool)
}

// Reconciler drives a user's premium standing from verified Stripe events:
// free → premium on completed checkout, premium → free on dispute or full
// refund, back to premium when a dispute closes as won. Callers must have
// authenticated the envelope before handing it over.
type Reconciler struct {
	users    repository.UserRepository
	payments ChargeResolver
	logger   *slog.Logger
}

func NewReconciler(users repository.UserRepository, payments ChargeResolver, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		users:    users,
		payments: payments,
		logger:   logger.With("component", "reconciler"),
	}
}

// accountKey identifies the affected user. Charge id is authoritative for
// post-payment events, payment intent is the fallback; email is used only by
// the initial completion event, because charge ids do not exist until a
// charge has settled.
type accountKey struct {
	chargeID        string
	paymentIntentID string
}

func (k accountKey) empty() bool {
	return k.chargeID == "" && k.paymentIntentID == ""
}

func (r *Reconciler) HandleEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		return r.checkoutCompleted(ctx, event)
	case "charge.dispute.created":
		return r.disputeCreated(ctx, event)
	case "charge.dispute.closed":
		return r.disputeClosed(ctx, event)
	case "charge.refunded":
		return r.chargeRefunded(ctx, event)
	case "refund.created":
		// Informational. The paired charge.refunded event carries the
		// actionable refund state.
		return nil
	default:
		r.logger.Info("webhook event ignored", "type", event.Type, "event_id", event.ID)
		return nil
	}
}

func (r *Reconciler) checkoutCompleted(ctx context.Context, event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("decode checkout session: %w", err)
	}

	emailAddr := checkoutEmail(sess)
	if emailAddr == "" {
		// Never guess at a match.
		r.logger.Warn("checkout completed without resolvable email", "event_id", event.ID)
		return nil
	}

	var chargeID, intentID *string
	if sess.PaymentIntent != nil && sess.PaymentIntent.ID != "" {
		intentID = &sess.PaymentIntent.ID
		if ch, ok := r.payments.ChargeForIntent(ctx, sess.PaymentIntent.ID); ok {
			chargeID = &ch
		} else {
			r.logger.Warn("charge lookup failed for payment intent",
				"event_id", event.ID, "payment_intent", sess.PaymentIntent.ID)
		}
	}

	if err := r.users.GrantPremium(ctx, emailAddr, chargeID, intentID); err != nil {
		return fmt.Errorf("grant premium for %s: %w", emailAddr, err)
	}
	r.logger.Info("premium granted", "email", emailAddr, "event_id", event.ID)
	return nil
}

func (r *Reconciler) disputeCreated(ctx context.Context, event stripe.Event) error {
	var d stripe.Dispute
	if err := json.Unmarshal(event.Data.Raw, &d); err != nil {
		return fmt.Errorf("decode dispute: %w", err)
	}

	// A dispute revokes access immediately; entitlement is restored only if
	// it later closes as won.
	return r.apply(ctx, event, disputeKey(d), false)
}

func (r *Reconciler) disputeClosed(ctx context.Context, event stripe.Event) error {
	var d stripe.Dispute
	if err := json.Unmarshal(event.Data.Raw, &d); err != nil {
		return fmt.Errorf("decode dispute: %w", err)
	}

	return r.apply(ctx, event, disputeKey(d), d.Status == stripe.DisputeStatusWon)
}

func (r *Reconciler) chargeRefunded(ctx context.Context, event stripe.Event) error {
	var ch stripe.Charge
	if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
		return fmt.Errorf("decode charge: %w", err)
	}

	// Partial refunds leave entitlement untouched.
	if !ch.Refunded {
		return nil
	}

	key := accountKey{chargeID: ch.ID}
	if ch.PaymentIntent != nil {
		key.paymentIntentID = ch.PaymentIntent.ID
	}
	return r.apply(ctx, event, key, false)
}

// apply is the single shared state-update step for post-payment events.
func (r *Reconciler) apply(ctx context.Context, event stripe.Event, key accountKey, premium bool) error {
	if key.empty() {
		r.logger.Warn("event without charge or payment intent id",
			"type", event.Type, "event_id", event.ID)
		return nil
	}

	var err error
	if key.chargeID != "" {
		err = r.users.SetPremiumByCharge(ctx, key.chargeID, premium)
	} else {
		err = r.users.SetPremiumByPaymentIntent(ctx, key.paymentIntentID, premium)
	}
	if err != nil {
		return fmt.Errorf("set premium=%t (charge=%q intent=%q): %w",
			premium, key.chargeID, key.paymentIntentID, err)
	}

	r.logger.Info("premium updated",
		"type", event.Type, "event_id", event.ID,
		"charge_id", key.chargeID, "premium", premium)
	return nil
}

// checkoutEmail extracts the paying customer's email, preferring the explicit
// fields and falling back to the metadata copy written at checkout creation.
func checkoutEmail(sess stripe.CheckoutSession) string {
	if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
		return sess.CustomerDetails.Email
	}
	if sess.CustomerEmail != "" {
		return sess.CustomerEmail
	}
	return sess.Metadata["email"]
}

func disputeKey(d stripe.Dispute) accountKey {
	var key accountKey
	if d.Charge != nil {
		key.chargeID = d.Charge.ID
	}
	if d.PaymentIntent != nil {
		key.paymentIntentID = d.PaymentIntent.ID
	}
	return key
}
