package enhancements

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/photomemories/backend/internal/models"
)

const jobColumns = `id, user_id, job_type, status, credits_used, source_photo_id, source_video_id,
	additional_photo_ids, params, result_photo_id, result_video_id, error_message, progress_percent,
	created_at, started_at, completed_at`

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func scanJob(row pgx.Row) (*models.EnhancementJob, error) {
	var j models.EnhancementJob
	err := row.Scan(&j.ID, &j.UserID, &j.JobType, &j.Status, &j.CreditsUsed, &j.SourcePhotoID, &j.SourceVideoID,
		&j.AdditionalPhotoIDs, &j.Params, &j.ResultPhotoID, &j.ResultVideoID, &j.ErrorMessage, &j.ProgressPercent,
		&j.CreatedAt, &j.StartedAt, &j.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// CreateTx inserts the job inside the caller's transaction so the insert
// commits or rolls back together with the charge and the queue enqueue.
func (r *Repository) CreateTx(ctx context.Context, tx pgx.Tx, job *models.EnhancementJob) (*models.EnhancementJob, error) {
	row := tx.QueryRow(ctx, `
		INSERT INTO enhancement_jobs (id, user_id, job_type, status, credits_used, source_photo_id, source_video_id, additional_photo_ids, params)
		VALUES ($1, $2, $3, 'pending', $4, $5, $6, $7, $8)
		RETURNING `+jobColumns+`
	`, job.ID, job.UserID, job.JobType, job.CreditsUsed, job.SourcePhotoID, job.SourceVideoID, job.AdditionalPhotoIDs, job.Params)
	return scanJob(row)
}

// GetByID scopes the lookup to the owner so foreign jobs look like missing ones.
func (r *Repository) GetByID(ctx context.Context, userID, jobID uuid.UUID) (*models.EnhancementJob, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+jobColumns+` FROM enhancement_jobs WHERE id = $1 AND user_id = $2
	`, jobID, userID)
	return scanJob(row)
}

// GetAnyByID is the worker-side lookup, without an owner filter.
func (r *Repository) GetAnyByID(ctx context.Context, jobID uuid.UUID) (*models.EnhancementJob, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+jobColumns+` FROM enhancement_jobs WHERE id = $1
	`, jobID)
	return scanJob(row)
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, status *models.JobStatus) ([]*models.EnhancementJob, error) {
	query := `SELECT ` + jobColumns + ` FROM enhancement_jobs WHERE user_id = $1`
	args := []any{userID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.EnhancementJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, j)
	}
	return list, rows.Err()
}

// MarkProcessing advances pending -> processing. Returns false when the job is
// no longer pending (cancelled before pickup, or already picked up).
func (r *Repository) MarkProcessing(ctx context.Context, jobID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE enhancement_jobs SET status = 'processing', started_at = now()
		WHERE id = $1 AND status = 'pending'
	`, jobID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) SetProgress(ctx context.Context, jobID uuid.UUID, percent int) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE enhancement_jobs SET progress_percent = $1 WHERE id = $2 AND status = 'processing'
	`, percent, jobID)
	return err
}

// MarkCompleted finishes a processing job with its result media. The status
// guard makes completion a no-op if the job was cancelled mid-run.
func (r *Repository) MarkCompleted(ctx context.Context, jobID uuid.UUID, resultPhotoID, resultVideoID *uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE enhancement_jobs
		SET status = 'completed', result_photo_id = $1, result_video_id = $2, progress_percent = 100, completed_at = now()
		WHERE id = $3 AND status = 'processing'
	`, resultPhotoID, resultVideoID, jobID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) MarkFailed(ctx context.Context, jobID uuid.UUID, reason string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE enhancement_jobs SET status = 'failed', error_message = $1, completed_at = now()
		WHERE id = $2 AND status IN ('pending', 'processing')
	`, reason, jobID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Cancel is a single conditional update: it only wins if the job still belongs
// to the caller and has not reached a terminal status.
func (r *Repository) Cancel(ctx context.Context, userID, jobID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE enhancement_jobs SET status = 'cancelled', completed_at = now()
		WHERE id = $1 AND user_id = $2 AND status IN ('pending', 'processing')
	`, jobID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
