package albums

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/photomemories/backend/internal/models"
)

// albumColumns includes the live photo count so listings don't need a second
// query. The cover falls back to the first photo when none is set explicitly.
const albumColumns = `a.id, a.user_id, a.name, a.description,
	COALESCE(a.cover_photo_url, (
		SELECT COALESCE(p.thumbnail_url, p.blob_url)
		FROM album_photos ap JOIN photos p ON p.id = ap.photo_id
		WHERE ap.album_id = a.id
		ORDER BY ap.sort_order, ap.added_at LIMIT 1
	)) AS cover_photo_url,
	(SELECT COUNT(*) FROM album_photos ap WHERE ap.album_id = a.id) AS photo_count,
	a.created_at, a.updated_at`

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanAlbum(row pgx.Row) (*models.Album, error) {
	var a models.Album
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Description, &a.CoverPhotoURL, &a.PhotoCount, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) Create(ctx context.Context, a *models.Album) (*models.Album, error) {
	row := r.pool.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO albums (id, user_id, name, description, cover_photo_url)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING *
		)
		SELECT `+albumColumns+` FROM inserted a
	`, a.ID, a.UserID, a.Name, a.Description, a.CoverPhotoURL)
	return scanAlbum(row)
}

func (r *Repository) GetByID(ctx context.Context, userID, albumID uuid.UUID) (*models.Album, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+albumColumns+` FROM albums a WHERE a.id = $1 AND a.user_id = $2
	`, albumID, userID)
	return scanAlbum(row)
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Album, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+albumColumns+` FROM albums a WHERE a.user_id = $1 ORDER BY a.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Album
	for rows.Next() {
		a, err := scanAlbum(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// Update patches name, description, and cover; nil means "leave as is".
func (r *Repository) Update(ctx context.Context, userID, albumID uuid.UUID, name, description, coverPhotoURL *string) (*models.Album, error) {
	row := r.pool.QueryRow(ctx, `
		WITH updated AS (
			UPDATE albums SET
				name = COALESCE($1, name),
				description = COALESCE($2, description),
				cover_photo_url = COALESCE($3, cover_photo_url),
				updated_at = now()
			WHERE id = $4 AND user_id = $5
			RETURNING *
		)
		SELECT `+albumColumns+` FROM updated a
	`, name, description, coverPhotoURL, albumID, userID)
	return scanAlbum(row)
}

func (r *Repository) Delete(ctx context.Context, userID, albumID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM albums WHERE id = $1 AND user_id = $2
	`, albumID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// AddPhoto attaches a photo at the end of the album's sort order. Both the
// album and the photo must belong to the user; the guarded insert makes a
// foreign photo look like a missing one.
func (r *Repository) AddPhoto(ctx context.Context, userID, albumID, photoID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO album_photos (album_id, photo_id, sort_order)
		SELECT $1, $2, COALESCE(MAX(ap.sort_order) + 1, 0)
		FROM album_photos ap WHERE ap.album_id = $1
		HAVING EXISTS (SELECT 1 FROM albums WHERE id = $1 AND user_id = $3)
		   AND EXISTS (SELECT 1 FROM photos WHERE id = $2 AND user_id = $3)
		ON CONFLICT (album_id, photo_id) DO NOTHING
	`, albumID, photoID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) RemovePhoto(ctx context.Context, userID, albumID, photoID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM album_photos ap USING albums a
		WHERE ap.album_id = $1 AND ap.photo_id = $2 AND a.id = ap.album_id AND a.user_id = $3
	`, albumID, photoID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListPhotos returns an album's photos in sort order.
func (r *Repository) ListPhotos(ctx context.Context, userID, albumID uuid.UUID) ([]*models.Photo, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.user_id, p.original_file_name, p.blob_url, p.thumbnail_url, p.file_size, p.content_type,
			p.width, p.height, p.date_taken, p.location, p.description, p.tags, p.is_black_and_white, p.source,
			p.external_id, p.is_enhanced, p.original_photo_id, p.enhancement_kind, p.created_at, p.updated_at
		FROM album_photos ap
		JOIN albums a ON a.id = ap.album_id
		JOIN photos p ON p.id = ap.photo_id
		WHERE ap.album_id = $1 AND a.user_id = $2
		ORDER BY ap.sort_order, ap.added_at
	`, albumID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Photo
	for rows.Next() {
		var p models.Photo
		err := rows.Scan(&p.ID, &p.UserID, &p.OriginalFileName, &p.BlobURL, &p.ThumbnailURL, &p.FileSize, &p.ContentType,
			&p.Width, &p.Height, &p.DateTaken, &p.Location, &p.Description, &p.Tags, &p.IsBlackAndWhite, &p.Source,
			&p.ExternalID, &p.IsEnhanced, &p.OriginalPhotoID, &p.EnhancementKind, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, err
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}
