package auth

import (
	"context"

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

// Create inserts a new user with the starter free-enhancement grant.
func (r *Repository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, display_name, profile_picture_url, auth_provider, external_id, password_hash, free_enhancements_remaining)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+userColumns+`
	`, u.ID, u.Email, u.DisplayName, u.ProfilePictureURL, u.AuthProvider, u.ExternalID, u.PasswordHash, models.InitialFreeEnhancements)
	return scanUser(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *Repository) GetByExternalID(ctx context.Context, provider models.AuthProvider, externalID string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE auth_provider = $1 AND external_id = $2
	`, provider, externalID))
}

// UpdateProfile patches the mutable profile fields; nil means "leave as is".
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, displayName, pictureURL *string, autoSync *bool) (*models.User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users SET
			display_name = COALESCE($1, display_name),
			profile_picture_url = COALESCE($2, profile_picture_url),
			auto_sync_enabled = COALESCE($3, auto_sync_enabled),
			updated_at = now()
		WHERE id = $4
		RETURNING `+userColumns+`
	`, displayName, pictureURL, autoSync, id)
	return scanUser(row)
}
