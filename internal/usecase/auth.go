package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rhivo/premium-api/internal/domain"
	"github.com/rhivo/premium-api/internal/email"
	"github.com/rhivo/premium-api/internal/repository"
	"github.com/rhivo/premium-api/internal/token"
)

const magicTokenTTL = 15 * time.Minute

type AuthUsecase struct {
	users       repository.UserRepository
	email       email.Sender
	signer      *token.Signer
	tokenTTL    time.Duration
	frontendURL string
}

func NewAuthUsecase(users repository.UserRepository, emailSender email.Sender, signer *token.Signer, frontendURL string) *AuthUsecase {
	return &AuthUsecase{
		users:       users,
		email:       emailSender,
		signer:      signer,
		tokenTTL:    magicTokenTTL,
		frontendURL: frontendURL,
	}
}

// RequestMagicLink finds or creates the user, generates a one-time token,
// stores its hash, and emails the verify link.
func (u *AuthUsecase) RequestMagicLink(ctx context.Context, emailAddr string) error {
	if _, err := u.users.FindOrCreate(ctx, emailAddr); err != nil {
		return fmt.Errorf("find or create user: %w", err)
	}

	rawToken, err := token.NewOneTimeToken()
	if err != nil {
		return err
	}

	expiresAt := time.Now().Add(u.tokenTTL)
	if err := u.users.CreateMagicToken(ctx, emailAddr, token.Hash(rawToken), expiresAt); err != nil {
		return fmt.Errorf("store magic token: %w", err)
	}

	link := u.frontendURL + "/privacyInterceptor/auth/verify?token=" + rawToken
	if err := u.email.Send(ctx, emailAddr, "Sign in to Privacy Interceptor", signInBody(link)); err != nil {
		return fmt.Errorf("send magic link: %w", err)
	}
	return nil
}

// VerifyMagicLink hashes the raw token, atomically claims it, and returns a
// signed session JWT plus the user it belongs to. A token that is unknown,
// expired, already used, or lost a concurrent claim race yields
// ErrTokenInvalid — the cases are indistinguishable to the caller.
func (u *AuthUsecase) VerifyMagicLink(ctx context.Context, rawToken string) (string, *domain.User, error) {
	mt, err := u.users.ClaimMagicToken(ctx, token.Hash(rawToken))
	if err != nil {
		return "", nil, domain.ErrTokenInvalid
	}

	user, err := u.users.FindByEmail(ctx, mt.Email)
	if err != nil {
		return "", nil, fmt.Errorf("find user: %w", err)
	}

	signed, err := u.signer.Issue(user)
	if err != nil {
		return "", nil, err
	}
	return signed, user, nil
}

// CurrentUser re-reads the store for the session's email. The premium claim
// embedded in the JWT is a snapshot; payment events can change it after
// issuance.
func (u *AuthUsecase) CurrentUser(ctx context.Context, emailAddr string) (*domain.User, error) {
	return u.users.FindByEmail(ctx, emailAddr)
}

func signInBody(link string) string {
	return fmt.Sprintf(`
<div style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 480px; margin: 0 auto; padding: 40px 20px;">
  <h2 style="font-size: 20px; font-weight: 600; margin-bottom: 24px; color: #1a1a1a;">Sign in to Privacy Interceptor</h2>
  <p style="font-size: 15px; line-height: 1.6; color: #4a4a4a; margin-bottom: 24px;">Click the link below to sign in. This link expires in 15 minutes.</p>
  <a href="%s" style="display: inline-block; background: #1a1a1a; color: #ffffff; padding: 12px 24px; border-radius: 6px; text-decoration: none; font-size: 14px; font-weight: 500;">Sign in</a>
  <p style="font-size: 13px; color: #888; margin-top: 32px;">If you did not request this email, you can ignore it.</p>
</div>`, link)
}
