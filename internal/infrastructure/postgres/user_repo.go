package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rhivo/premium-api/internal/domain"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, email, is_premium, stripe_charge_id, stripe_payment_intent_id, created_at, updated_at`

func (r *UserRepository) FindOrCreate(ctx context.Context, email string) (*domain.User, error) {
	// The no-op DO UPDATE makes the statement return the existing row on
	// conflict instead of nothing.
	query := `
		INSERT INTO users (email) VALUES ($1)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING ` + userColumns

	row := r.pool.QueryRow(ctx, query, email)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("find or create user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	row := r.pool.QueryRow(ctx, query, email)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

func (r *UserRepository) CreateMagicToken(ctx context.Context, email, tokenHash string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO magic_tokens (email, token_hash, expires_at) VALUES ($1, $2, $3)`,
		email, tokenHash, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("create magic token: %w", err)
	}
	return nil
}

// ClaimMagicToken flips used from false to true in a single conditional
// UPDATE. Under concurrent redemptions of the same token exactly one request
// sees the returned row; the others get ErrTokenInvalid. Expired and unknown
// tokens are deliberately indistinguishable.
func (r *UserRepository) ClaimMagicToken(ctx context.Context, tokenHash string) (*domain.MagicToken, error) {
	query := `
		UPDATE magic_tokens
		SET    used = TRUE
		WHERE  token_hash = $1
		  AND  used = FALSE
		  AND  expires_at > NOW()
		RETURNING id, email, token_hash, expires_at, used, created_at`

	var mt domain.MagicToken
	err := r.pool.QueryRow(ctx, query, tokenHash).Scan(
		&mt.ID, &mt.Email, &mt.TokenHash, &mt.ExpiresAt, &mt.Used, &mt.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, fmt.Errorf("claim magic token: %w", err)
	}
	return &mt, nil
}

func (r *UserRepository) GrantPremium(ctx context.Context, email string, chargeID, paymentIntentID *string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users
		 SET    is_premium = TRUE,
		        stripe_charge_id = COALESCE($2, stripe_charge_id),
		        stripe_payment_intent_id = COALESCE($3, stripe_payment_intent_id),
		        updated_at = NOW()
		 WHERE  email = $1`,
		email, chargeID, paymentIntentID,
	)
	if err != nil {
		return fmt.Errorf("grant premium: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) SetPremiumByCharge(ctx context.Context, chargeID string, premium bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET is_premium = $2, updated_at = NOW() WHERE stripe_charge_id = $1`,
		chargeID, premium,
	)
	if err != nil {
		return fmt.Errorf("set premium by charge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) SetPremiumByPaymentIntent(ctx context.Context, paymentIntentID string, premium bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET is_premium = $2, updated_at = NOW() WHERE stripe_payment_intent_id = $1`,
		paymentIntentID, premium,
	)
	if err != nil {
		return fmt.Errorf("set premium by payment intent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Email, &u.IsPremium,
		&u.StripeChargeID, &u.StripePaymentIntentID,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
