// Package token generates one-time magic-link tokens and signs/verifies
// stateless session JWTs.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rhivo/premium-api/internal/domain"
)

const SessionTTL = 30 * 24 * time.Hour

// NewOneTimeToken returns a 64-character hex string (256 bits of entropy).
func NewOneTimeToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// Hash returns the at-rest form of a one-time token.
func Hash(raw string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(raw)))
}

// SessionClaims are the decoded contents of a session JWT. IsPremium is a
// snapshot from issuance time; current truth lives in the store.
type SessionClaims struct {
	UserID    string
	Email     string
	IsPremium bool
}

type Signer struct {
	key []byte
	ttl time.Duration
}

func NewSigner(key []byte) *Signer {
	return &Signer{key: key, ttl: SessionTTL}
}

// Issue signs a session JWT over {id, email, isPremium}.
func (s *Signer) Issue(u *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":     u.ID,
		"email":   u.Email,
		"premium": u.IsPremium,
		"iat":     now.Unix(),
		"exp":     now.Add(s.ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a session JWT. Every failure mode — bad
// signature, expiry, malformed token — collapses into ErrUnauthorized.
func (s *Signer) Verify(raw string) (*SessionClaims, error) {
	t, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.key, nil
	})
	if err != nil || !t.Valid {
		return nil, domain.ErrUnauthorized
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	sub, _ := claims["sub"].(string)
	emailAddr, _ := claims["email"].(string)
	if sub == "" || emailAddr == "" {
		return nil, domain.ErrUnauthorized
	}
	premium, _ := claims["premium"].(bool)

	return &SessionClaims{UserID: sub, Email: emailAddr, IsPremium: premium}, nil
}
