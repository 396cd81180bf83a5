package domain

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrTokenInvalid       = errors.New("token is invalid or expired")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrPriceNotConfigured = errors.New("stripe price not configured")
)

type User struct {
	ID                    string
	Email                 string
	IsPremium             bool
	StripeChargeID        *string
	StripePaymentIntentID *string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// MagicToken is a single-use login credential. Only the SHA-256 hash of the
// emailed token is stored.
type MagicToken struct {
	ID        string
	Email     string
	TokenHash string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}
