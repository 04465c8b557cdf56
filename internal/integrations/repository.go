package integrations

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/photomemories/backend/internal/models"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SetConnected flips the user's connection flag for a provider.
func (r *Repository) SetConnected(ctx context.Context, userID uuid.UUID, source models.PhotoSource, connected bool) error {
	var column string
	switch source {
	case models.PhotoSourceGooglePhotos:
		column = "google_photos_connected"
	case models.PhotoSourceOneDrive:
		column = "onedrive_connected"
	default:
		return ErrUnknownProvider
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET `+column+` = $1, updated_at = now() WHERE id = $2
	`, connected, userID)
	return err
}

// ImportPhoto inserts an externally sourced photo unless the same external id
// was already imported for this user. Returns the photo and whether a row was
// actually created.
func (r *Repository) ImportPhoto(ctx context.Context, userID uuid.UUID, source models.PhotoSource, ext ExternalPhoto) (*models.Photo, bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM photos WHERE user_id = $1 AND source = $2 AND external_id = $3)
	`, userID, source, ext.ExternalID).Scan(&exists)
	if err != nil {
		return nil, false, err
	}
	if exists {
		return nil, false, nil
	}

	var p models.Photo
	row := r.pool.QueryRow(ctx, `
		INSERT INTO photos (id, user_id, original_file_name, blob_url, content_type, width, height, date_taken, source, external_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, user_id, original_file_name, blob_url, thumbnail_url, file_size, content_type,
			width, height, date_taken, location, description, tags, is_black_and_white, source, external_id,
			is_enhanced, original_photo_id, enhancement_kind, created_at, updated_at
	`, uuid.New(), userID, ext.FileName, ext.URL, ext.ContentType, ext.Width, ext.Height, ext.TakenAt, source, ext.ExternalID)
	err = row.Scan(&p.ID, &p.UserID, &p.OriginalFileName, &p.BlobURL, &p.ThumbnailURL, &p.FileSize, &p.ContentType,
		&p.Width, &p.Height, &p.DateTaken, &p.Location, &p.Description, &p.Tags, &p.IsBlackAndWhite, &p.Source, &p.ExternalID,
		&p.IsEnhanced, &p.OriginalPhotoID, &p.EnhancementKind, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, false, err
	}
	return &p, true, nil
}
