package repository

import (
	"context"
	"time"

	"github.com/rhivo/premium-api/internal/domain"
)

type UserRepository interface {
	FindOrCreate(ctx context.Context, email string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	CreateMagicToken(ctx context.Context, email, tokenHash string, expiresAt time.Time) error
	ClaimMagicToken(ctx context.Context, tokenHash string) (*domain.MagicToken, error)

	// GrantPremium marks the user premium and records the charge/intent ids
	// from the completed checkout, keyed by email.
	GrantPremium(ctx context.Context, email string, chargeID, paymentIntentID *string) error

	// SetPremiumByCharge and SetPremiumByPaymentIntent flip the premium flag
	// for post-payment events (disputes, refunds), which reference charges
	// rather than emails.
	SetPremiumByCharge(ctx context.Context, chargeID string, premium bool) error
	SetPremiumByPaymentIntent(ctx context.Context, paymentIntentID string, premium bool) error
}
