// Package payment wraps the Stripe SDK behind the small surface the rest of
// the service needs: hosted checkout creation, intent-to-charge resolution,
// and webhook signature verification.
package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v84"
	checkoutsession "github.com/stripe/stripe-go/v84/checkout/session"
	"github.com/stripe/stripe-go/v84/paymentintent"

	"github.com/rhivo/premium-api/internal/domain"
	"github.com/rhivo/premium-api/internal/metrics"
)

type Client struct {
	priceID     string
	frontendURL string
}

func NewClient(secretKey, priceID, frontendURL string) *Client {
	stripe.Key = secretKey
	return &Client{priceID: priceID, frontendURL: frontendURL}
}

// CreateCheckoutSession creates a one-time-payment hosted checkout for the
// given user and returns its URL. The email is set both as customer_email and
// in metadata: customer_email is not surfaced reliably in every event payload
// shape, metadata survives all of them.
func (c *Client) CreateCheckoutSession(ctx context.Context, email string) (string, error) {
	if c.priceID == "" {
		return "", domain.ErrPriceNotConfigured
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		CustomerEmail:      stripe.String(email),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(c.priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(c.frontendURL + "/privacyInterceptor/checkout/success"),
		CancelURL:  stripe.String(c.frontendURL + "/privacyInterceptor"),
	}
	params.Context = ctx
	params.AddMetadata("email", email)

	s, err := checkoutsession.New(params)
	if err != nil {
		metrics.CheckoutSessionsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	metrics.CheckoutSessionsTotal.WithLabelValues("ok").Inc()
	return s.URL, nil
}

// ChargeForIntent resolves the charge underlying a payment intent. Disputes
// and refunds reference charges, not intents, so the charge id is recorded at
// completion time. Absence (lookup failed, no charge yet) is an ordinary
// result, not an error.
func (c *Client) ChargeForIntent(ctx context.Context, paymentIntentID string) (string, bool) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := paymentintent.Get(paymentIntentID, params)
	if err != nil || pi.LatestCharge == nil || pi.LatestCharge.ID == "" {
		return "", false
	}
	return pi.LatestCharge.ID, true
}
