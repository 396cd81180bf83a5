package usecase_test

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rhivo/premium-api/internal/domain"
	"github.com/rhivo/premium-api/internal/token"
	"github.com/rhivo/premium-api/internal/usecase"
)

// ---- fakes ----

type fakeUserRepo struct {
	findOrCreate              func(ctx context.Context, email string) (*domain.User, error)
	findByEmail               func(ctx context.Context, email string) (*domain.User, error)
	createMagicToken          func(ctx context.Context, email, tokenHash string, expiresAt time.Time) error
	claimMagicToken           func(ctx context.Context, tokenHash string) (*domain.MagicToken, error)
	grantPremium              func(ctx context.Context, email string, chargeID, paymentIntentID *string) error
	setPremiumByCharge        func(ctx context.Context, chargeID string, premium bool) error
	setPremiumByPaymentIntent func(ctx context.Context, paymentIntentID string, premium bool) error
}

func (r *fakeUserRepo) FindOrCreate(ctx context.Context, email string) (*domain.User, error) {
	return r.findOrCreate(ctx, email)
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findByEmail(ctx, email)
}

func (r *fakeUserRepo) CreateMagicToken(ctx context.Context, email, tokenHash string, expiresAt time.Time) error {
	return r.createMagicToken(ctx, email, tokenHash, expiresAt)
}

func (r *fakeUserRepo) ClaimMagicToken(ctx context.Context, tokenHash string) (*domain.MagicToken, error) {
	return r.claimMagicToken(ctx, tokenHash)
}

func (r *fakeUserRepo) GrantPremium(ctx context.Context, email string, chargeID, paymentIntentID *string) error {
	return r.grantPremium(ctx, email, chargeID, paymentIntentID)
}

func (r *fakeUserRepo) SetPremiumByCharge(ctx context.Context, chargeID string, premium bool) error {
	return r.setPremiumByCharge(ctx, chargeID, premium)
}

func (r *fakeUserRepo) SetPremiumByPaymentIntent(ctx context.Context, paymentIntentID string, premium bool) error {
	return r.setPremiumByPaymentIntent(ctx, paymentIntentID, premium)
}

type fakeEmailSender struct {
	send func(ctx context.Context, to, subject, body string) error
}

func (s *fakeEmailSender) Send(ctx context.Context, to, subject, body string) error {
	return s.send(ctx, to, subject, body)
}

// ---- helpers ----

const (
	testJWTKey      = "test-jwt-secret-at-least-32-chars!!"
	testFrontendURL = "http://localhost:5173"
)

func newUsecase(repo *fakeUserRepo, sender *fakeEmailSender) *usecase.AuthUsecase {
	return usecase.NewAuthUsecase(repo, sender, token.NewSigner([]byte(testJWTKey)), testFrontendURL)
}

var testUser = &domain.User{ID: "user-1", Email: "test@example.com"}

// ---- RequestMagicLink ----

func TestRequestMagicLink_StoresHashOfEmailedToken(t *testing.T) {
	var capturedHash string
	var capturedBody string

	repo := &fakeUserRepo{
		findOrCreate: func(_ context.Context, _ string) (*domain.User, error) {
			return testUser, nil
		},
		createMagicToken: func(_ context.Context, _, tokenHash string, _ time.Time) error {
			capturedHash = tokenHash
			return nil
		},
	}
	sender := &fakeEmailSender{
		send: func(_ context.Context, _, _, body string) error {
			capturedBody = body
			return nil
		},
	}

	if err := newUsecase(repo, sender).RequestMagicLink(context.Background(), testUser.Email); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Extract the raw token from the link embedded in the email body.
	rawToken := extractToken(t, capturedBody)

	wantHash := fmt.Sprintf("%x", sha256.Sum256([]byte(rawToken)))
	if capturedHash != wantHash {
		t.Errorf("stored hash %q != SHA-256 of emailed token %q", capturedHash, wantHash)
	}
}

func TestRequestMagicLink_TwoRequestsMintDistinctTokens(t *testing.T) {
	var hashes []string

	repo := &fakeUserRepo{
		findOrCreate: func(_ context.Context, _ string) (*domain.User, error) {
			return testUser, nil
		},
		createMagicToken: func(_ context.Context, _, tokenHash string, _ time.Time) error {
			hashes = append(hashes, tokenHash)
			return nil
		},
	}
	sender := &fakeEmailSender{
		send: func(_ context.Context, _, _, _ string) error { return nil },
	}

	uc := newUsecase(repo, sender)
	for i := 0; i < 2; i++ {
		if err := uc.RequestMagicLink(context.Background(), testUser.Email); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}

	if len(hashes) != 2 {
		t.Fatalf("stored %d tokens, want 2", len(hashes))
	}
	if hashes[0] == hashes[1] {
		t.Error("two requests produced the same token")
	}
}

func TestRequestMagicLink_TokenExpiresInFuture(t *testing.T) {
	var capturedExpiry time.Time

	repo := &fakeUserRepo{
		findOrCreate: func(_ context.Context, _ string) (*domain.User, error) {
			return testUser, nil
		},
		createMagicToken: func(_ context.Context, _, _ string, expiresAt time.Time) error {
			capturedExpiry = expiresAt
			return nil
		},
	}
	sender := &fakeEmailSender{
		send: func(_ context.Context, _, _, _ string) error { return nil },
	}

	before := time.Now()
	if err := newUsecase(repo, sender).RequestMagicLink(context.Background(), testUser.Email); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !capturedExpiry.After(before) {
		t.Errorf("expiry %v is not after request time %v", capturedExpiry, before)
	}
}

func TestRequestMagicLink_RepoError_Propagates(t *testing.T) {
	repoErr := errors.New("db down")
	repo := &fakeUserRepo{
		findOrCreate: func(_ context.Context, _ string) (*domain.User, error) {
			return nil, repoErr
		},
	}
	sender := &fakeEmailSender{}

	err := newUsecase(repo, sender).RequestMagicLink(context.Background(), testUser.Email)
	if !errors.Is(err, repoErr) {
		t.Errorf("want wrapped repoErr, got %v", err)
	}
}

func TestRequestMagicLink_EmailError_Propagates(t *testing.T) {
	sendErr := errors.New("resend unavailable")
	repo := &fakeUserRepo{
		findOrCreate: func(_ context.Context, _ string) (*domain.User, error) {
			return testUser, nil
		},
		createMagicToken: func(_ context.Context, _, _ string, _ time.Time) error {
			return nil
		},
	}
	sender := &fakeEmailSender{
		send: func(_ context.Context, _, _, _ string) error { return sendErr },
	}

	err := newUsecase(repo, sender).RequestMagicLink(context.Background(), testUser.Email)
	if !errors.Is(err, sendErr) {
		t.Errorf("want wrapped sendErr, got %v", err)
	}
}

// ---- VerifyMagicLink ----

func TestVerifyMagicLink_ReturnsSignedJWTAndUser(t *testing.T) {
	const rawToken = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	expectedHash := fmt.Sprintf("%x", sha256.Sum256([]byte(rawToken)))

	mt := &domain.MagicToken{ID: "mt-1", Email: testUser.Email, TokenHash: expectedHash}
	repo := &fakeUserRepo{
		claimMagicToken: func(_ context.Context, tokenHash string) (*domain.MagicToken, error) {
			if tokenHash != expectedHash {
				return nil, domain.ErrTokenInvalid
			}
			return mt, nil
		},
		findByEmail: func(_ context.Context, _ string) (*domain.User, error) {
			return testUser, nil
		},
	}
	sender := &fakeEmailSender{}

	signed, user, err := newUsecase(repo, sender).VerifyMagicLink(context.Background(), rawToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Email != testUser.Email {
		t.Errorf("user email = %q, want %q", user.Email, testUser.Email)
	}

	parsed, parseErr := jwt.Parse(signed, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected method")
		}
		return []byte(testJWTKey), nil
	})
	if parseErr != nil || !parsed.Valid {
		t.Fatalf("returned JWT is invalid: %v", parseErr)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("could not cast claims")
	}
	if claims["sub"] != testUser.ID {
		t.Errorf("sub = %v, want %q", claims["sub"], testUser.ID)
	}
	if claims["email"] != testUser.Email {
		t.Errorf("email = %v, want %q", claims["email"], testUser.Email)
	}
	if claims["premium"] != false {
		t.Errorf("premium = %v, want false", claims["premium"])
	}
}

func TestVerifyMagicLink_InvalidToken_ReturnsErrTokenInvalid(t *testing.T) {
	repo := &fakeUserRepo{
		claimMagicToken: func(_ context.Context, _ string) (*domain.MagicToken, error) {
			return nil, domain.ErrTokenInvalid
		},
	}
	sender := &fakeEmailSender{}

	_, _, err := newUsecase(repo, sender).VerifyMagicLink(context.Background(), "bad-token")
	if !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("want ErrTokenInvalid, got %v", err)
	}
}

func TestVerifyMagicLink_SecondClaimLosesRace(t *testing.T) {
	const rawToken = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"

	claimed := false
	repo := &fakeUserRepo{
		claimMagicToken: func(_ context.Context, _ string) (*domain.MagicToken, error) {
			if claimed {
				return nil, domain.ErrTokenInvalid
			}
			claimed = true
			return &domain.MagicToken{ID: "mt-1", Email: testUser.Email}, nil
		},
		findByEmail: func(_ context.Context, _ string) (*domain.User, error) {
			return testUser, nil
		},
	}
	sender := &fakeEmailSender{}
	uc := newUsecase(repo, sender)

	if _, _, err := uc.VerifyMagicLink(context.Background(), rawToken); err != nil {
		t.Fatalf("first verification failed: %v", err)
	}
	if _, _, err := uc.VerifyMagicLink(context.Background(), rawToken); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("second verification: want ErrTokenInvalid, got %v", err)
	}
}

func extractToken(t *testing.T, emailBody string) string {
	t.Helper()
	idx := strings.Index(emailBody, "?token=")
	if idx == -1 {
		t.Fatal("email body does not contain ?token=")
	}
	return strings.SplitN(emailBody[idx+len("?token="):], `"`, 2)[0]
}
