package photos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/photomemories/backend/internal/models"
)

const photoColumns = `id, user_id, original_file_name, blob_url, thumbnail_url, file_size, content_type,
	width, height, date_taken, location, description, tags, is_black_and_white, source, external_id,
	is_enhanced, original_photo_id, enhancement_kind, created_at, updated_at`

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanPhoto(row pgx.Row) (*models.Photo, error) {
	var p models.Photo
	err := row.Scan(&p.ID, &p.UserID, &p.OriginalFileName, &p.BlobURL, &p.ThumbnailURL, &p.FileSize, &p.ContentType,
		&p.Width, &p.Height, &p.DateTaken, &p.Location, &p.Description, &p.Tags, &p.IsBlackAndWhite, &p.Source, &p.ExternalID,
		&p.IsEnhanced, &p.OriginalPhotoID, &p.EnhancementKind, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) Create(ctx context.Context, p *models.Photo) (*models.Photo, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO photos (id, user_id, original_file_name, blob_url, thumbnail_url, file_size, content_type,
			width, height, date_taken, location, description, tags, is_black_and_white, source, external_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING `+photoColumns+`
	`, p.ID, p.UserID, p.OriginalFileName, p.BlobURL, p.ThumbnailURL, p.FileSize, p.ContentType,
		p.Width, p.Height, p.DateTaken, p.Location, p.Description, p.Tags, p.IsBlackAndWhite, p.Source, p.ExternalID)
	return scanPhoto(row)
}

// CreateDerived records the output of a photo enhancement as a new photo that
// points back at its source. Colorize results are no longer black and white.
func (r *Repository) CreateDerived(ctx context.Context, job *models.EnhancementJob) (*models.Photo, error) {
	if job.SourcePhotoID == nil {
		return nil, fmt.Errorf("job %s has no source photo", job.ID)
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO photos (id, user_id, original_file_name, blob_url, thumbnail_url, file_size, content_type,
			width, height, date_taken, location, description, tags, is_black_and_white, source, is_enhanced,
			original_photo_id, enhancement_kind)
		SELECT $1, user_id, original_file_name, blob_url, thumbnail_url, file_size, content_type,
			width, height, date_taken, location, description, tags,
			CASE WHEN $3::text = 'colorize' THEN FALSE ELSE is_black_and_white END,
			'generated', TRUE, id, $3
		FROM photos WHERE id = $2
		RETURNING `+photoColumns+`
	`, uuid.New(), *job.SourcePhotoID, job.JobType)
	return scanPhoto(row)
}

func (r *Repository) GetByID(ctx context.Context, userID, photoID uuid.UUID) (*models.Photo, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+photoColumns+` FROM photos WHERE id = $1 AND user_id = $2
	`, photoID, userID)
	return scanPhoto(row)
}

// ListOptions narrow a photo listing. Zero values mean "no filter".
type ListOptions struct {
	Search   string
	Person   string
	Source   models.PhotoSource
	Enhanced *bool
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// List returns the user's photos newest first, filtered by the options.
// Search matches file name, description, location, and tags; Person matches
// tagged people.
func (r *Repository) List(ctx context.Context, userID uuid.UUID, opts ListOptions) ([]*models.Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos WHERE user_id = $1`
	args := []any{userID}

	if opts.Search != "" {
		args = append(args, "%"+opts.Search+"%")
		n := len(args)
		query += fmt.Sprintf(` AND (original_file_name ILIKE $%d OR description ILIKE $%d OR location ILIKE $%d OR tags ILIKE $%d)`, n, n, n, n)
	}
	if opts.Person != "" {
		args = append(args, opts.Person)
		query += fmt.Sprintf(` AND id IN (SELECT photo_id FROM person_tags WHERE user_id = $1 AND person_name ILIKE $%d)`, len(args))
	}
	if opts.Source != "" {
		args = append(args, opts.Source)
		query += fmt.Sprintf(` AND source = $%d`, len(args))
	}
	if opts.Enhanced != nil {
		args = append(args, *opts.Enhanced)
		query += fmt.Sprintf(` AND is_enhanced = $%d`, len(args))
	}
	if opts.From != nil {
		args = append(args, *opts.From)
		query += fmt.Sprintf(` AND COALESCE(date_taken, created_at) >= $%d`, len(args))
	}
	if opts.To != nil {
		args = append(args, *opts.To)
		query += fmt.Sprintf(` AND COALESCE(date_taken, created_at) <= $%d`, len(args))
	}

	query += ` ORDER BY COALESCE(date_taken, created_at) DESC`
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Update patches the mutable metadata fields; nil means "leave as is".
func (r *Repository) Update(ctx context.Context, userID, photoID uuid.UUID, description, location, tags *string, dateTaken *time.Time) (*models.Photo, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE photos SET
			description = COALESCE($1, description),
			location = COALESCE($2, location),
			tags = COALESCE($3, tags),
			date_taken = COALESCE($4, date_taken),
			updated_at = now()
		WHERE id = $5 AND user_id = $6
		RETURNING `+photoColumns+`
	`, description, location, tags, dateTaken, photoID, userID)
	return scanPhoto(row)
}

// Delete removes the photo row and returns its blob URL so the caller can
// clean up storage.
func (r *Repository) Delete(ctx context.Context, userID, photoID uuid.UUID) (string, error) {
	var blobURL string
	row := r.pool.QueryRow(ctx, `
		DELETE FROM photos WHERE id = $1 AND user_id = $2 RETURNING blob_url
	`, photoID, userID)
	if err := row.Scan(&blobURL); err != nil {
		return "", err
	}
	return blobURL, nil
}

// ---- person tags ----

func (r *Repository) AddTag(ctx context.Context, tag *models.PersonTag) (*models.PersonTag, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO person_tags (id, user_id, photo_id, person_name, face_x, face_y, face_width, face_height)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, user_id, photo_id, person_name, face_x, face_y, face_width, face_height, created_at
	`, tag.ID, tag.UserID, tag.PhotoID, tag.PersonName, tag.FaceX, tag.FaceY, tag.FaceWidth, tag.FaceHeight)
	var t models.PersonTag
	if err := row.Scan(&t.ID, &t.UserID, &t.PhotoID, &t.PersonName, &t.FaceX, &t.FaceY, &t.FaceWidth, &t.FaceHeight, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repository) ListTags(ctx context.Context, userID, photoID uuid.UUID) ([]*models.PersonTag, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, photo_id, person_name, face_x, face_y, face_width, face_height, created_at
		FROM person_tags WHERE user_id = $1 AND photo_id = $2 ORDER BY created_at
	`, userID, photoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.PersonTag
	for rows.Next() {
		var t models.PersonTag
		if err := rows.Scan(&t.ID, &t.UserID, &t.PhotoID, &t.PersonName, &t.FaceX, &t.FaceY, &t.FaceWidth, &t.FaceHeight, &t.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}

func (r *Repository) DeleteTag(ctx context.Context, userID, tagID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM person_tags WHERE id = $1 AND user_id = $2
	`, tagID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListPeople returns the distinct person names the user has tagged, with
// how many photos each appears in.
func (r *Repository) ListPeople(ctx context.Context, userID uuid.UUID) ([]PersonSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT person_name, COUNT(DISTINCT photo_id)
		FROM person_tags WHERE user_id = $1
		GROUP BY person_name ORDER BY person_name
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []PersonSummary
	for rows.Next() {
		var s PersonSummary
		if err := rows.Scan(&s.PersonName, &s.PhotoCount); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

type PersonSummary struct {
	PersonName string `json:"personName"`
	PhotoCount int    `json:"photoCount"`
}
