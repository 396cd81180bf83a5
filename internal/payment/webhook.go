package payment

import (
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"
)

// MaxWebhookBody caps the raw body read for webhook requests.
const MaxWebhookBody = 1 << 20

// Verifier authenticates inbound webhook envelopes against the endpoint
// signing secret. This is the sole trust boundary for /update-status: nothing
// in the body may be acted on before VerifyWebhook succeeds.
type Verifier struct {
	secret string
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

func (v *Verifier) VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, sigHeader, v.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
}
