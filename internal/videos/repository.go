package videos

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/photomemories/backend/internal/models"
)

const videoColumns = `id, user_id, original_file_name, blob_url, thumbnail_url, file_size, content_type,
	width, height, duration_seconds, date_taken, description, source, is_generated, source_photo_id,
	generation_kind, is_enhanced, original_video_id, created_at, updated_at`

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanVideo(row pgx.Row) (*models.Video, error) {
	var v models.Video
	err := row.Scan(&v.ID, &v.UserID, &v.OriginalFileName, &v.BlobURL, &v.ThumbnailURL, &v.FileSize, &v.ContentType,
		&v.Width, &v.Height, &v.DurationSeconds, &v.DateTaken, &v.Description, &v.Source, &v.IsGenerated, &v.SourcePhotoID,
		&v.GenerationKind, &v.IsEnhanced, &v.OriginalVideoID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *Repository) Create(ctx context.Context, v *models.Video) (*models.Video, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO videos (id, user_id, original_file_name, blob_url, thumbnail_url, file_size, content_type,
			width, height, duration_seconds, date_taken, description, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+videoColumns+`
	`, v.ID, v.UserID, v.OriginalFileName, v.BlobURL, v.ThumbnailURL, v.FileSize, v.ContentType,
		v.Width, v.Height, v.DurationSeconds, v.DateTaken, v.Description, v.Source)
	return scanVideo(row)
}

// CreateGenerated records the output of a video-producing enhancement. Video
// enhancements derive from the source video; photo-to-video jobs derive from
// the source photo.
func (r *Repository) CreateGenerated(ctx context.Context, job *models.EnhancementJob) (*models.Video, error) {
	if job.JobType.VideoSourced() {
		if job.SourceVideoID == nil {
			return nil, fmt.Errorf("job %s has no source video", job.ID)
		}
		row := r.pool.QueryRow(ctx, `
			INSERT INTO videos (id, user_id, original_file_name, blob_url, thumbnail_url, file_size, content_type,
				width, height, duration_seconds, date_taken, description, source, is_generated, generation_kind,
				is_enhanced, original_video_id)
			SELECT $1, user_id, original_file_name, blob_url, thumbnail_url, file_size, content_type,
				width, height, duration_seconds, date_taken, description, 'generated', TRUE, $3, TRUE, id
			FROM videos WHERE id = $2
			RETURNING `+videoColumns+`
		`, uuid.New(), *job.SourceVideoID, job.JobType)
		return scanVideo(row)
	}

	if job.SourcePhotoID == nil {
		return nil, fmt.Errorf("job %s has no source photo", job.ID)
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO videos (id, user_id, original_file_name, blob_url, thumbnail_url, file_size, content_type,
			width, height, duration_seconds, date_taken, description, source, is_generated, source_photo_id, generation_kind)
		SELECT $1, user_id, original_file_name || '.mp4', blob_url, thumbnail_url, file_size, 'video/mp4',
			width, height, 10, date_taken, description, 'generated', TRUE, id, $3
		FROM photos WHERE id = $2
		RETURNING `+videoColumns+`
	`, uuid.New(), *job.SourcePhotoID, job.JobType)
	return scanVideo(row)
}

func (r *Repository) GetByID(ctx context.Context, userID, videoID uuid.UUID) (*models.Video, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+videoColumns+` FROM videos WHERE id = $1 AND user_id = $2
	`, videoID, userID)
	return scanVideo(row)
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Video, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+videoColumns+` FROM videos WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, rows.Err()
}

// Delete removes the video row and returns its blob URL for storage cleanup.
func (r *Repository) Delete(ctx context.Context, userID, videoID uuid.UUID) (string, error) {
	var blobURL string
	row := r.pool.QueryRow(ctx, `
		DELETE FROM videos WHERE id = $1 AND user_id = $2 RETURNING blob_url
	`, videoID, userID)
	if err := row.Scan(&blobURL); err != nil {
		return "", err
	}
	return blobURL, nil
}
