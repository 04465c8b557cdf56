package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/photomemories/backend/internal/models"
)

const userColumns = `id, email, display_name, profile_picture_url, auth_provider, external_id, password_hash,
	subscription_tier, free_enhancements_remaining, enhancement_credits, subscription_expires_at,
	google_photos_connected, onedrive_connected, auto_sync_enabled, created_at, updated_at`

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.ProfilePictureURL, &u.AuthProvider, &u.ExternalID, &u.PasswordHash,
		&u.SubscriptionTier, &u.FreeEnhancementsRemaining, &u.EnhancementCredits, &u.SubscriptionExpiresAt,
		&u.GooglePhotosConnected, &u.OneDriveConnected, &u.AutoSyncEnabled, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByIDForUpdate locks the user row for the duration of the transaction.
// Concurrent charge attempts on the same account serialize here.
func (r *Repository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.User, error) {
	return scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
}

// UseFreeEnhancement decrements the free counter by one if any remain.
// Returns false when the counter was already zero.
func (r *Repository) UseFreeEnhancement(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	result, err := tx.Exec(ctx, `
		UPDATE users SET free_enhancements_remaining = free_enhancements_remaining - 1, updated_at = now()
		WHERE id = $1 AND free_enhancements_remaining > 0
	`, id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// DeductCredits atomically deducts amount if the balance covers it.
// Returns false when the balance was insufficient.
func (r *Repository) DeductCredits(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int) (bool, error) {
	result, err := tx.Exec(ctx, `
		UPDATE users SET enhancement_credits = enhancement_credits - $1, updated_at = now()
		WHERE id = $2 AND enhancement_credits >= $1
	`, amount, id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// AddCredits adds purchased credits and promotes free accounts to pay_as_you_go.
func (r *Repository) AddCredits(ctx context.Context, id uuid.UUID, amount int) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		UPDATE users SET
			enhancement_credits = enhancement_credits + $1,
			subscription_tier = CASE WHEN subscription_tier = 'free' THEN 'pay_as_you_go' ELSE subscription_tier END,
			updated_at = now()
		WHERE id = $2
		RETURNING `+userColumns, amount, id))
}

// SetSubscription sets the tier and expiry. The expiry is replaced, not extended.
func (r *Repository) SetSubscription(ctx context.Context, id uuid.UUID, tier models.SubscriptionTier, expiresAt time.Time) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		UPDATE users SET subscription_tier = $1, subscription_expires_at = $2, updated_at = now()
		WHERE id = $3
		RETURNING `+userColumns, tier, expiresAt, id))
}
