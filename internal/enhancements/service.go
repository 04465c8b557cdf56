package enhancements

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/photomemories/backend/internal/ledger"
	"github.com/photomemories/backend/internal/models"
	"github.com/photomemories/backend/internal/processing"
)

var (
	// ErrNotFound covers both absent jobs and jobs owned by someone else.
	ErrNotFound = errors.New("job not found")
	// ErrAlreadyFinished is returned when cancelling a job in a terminal status.
	ErrAlreadyFinished = errors.New("job already finished")
	// ErrInvalidJob is returned for requests with a bad type or source refs.
	ErrInvalidJob = errors.New("invalid enhancement request")
)

// NewJob describes the enhancement a user is asking for.
type NewJob struct {
	JobType            models.JobType
	SourcePhotoID      *uuid.UUID
	SourceVideoID      *uuid.UUID
	AdditionalPhotoIDs []uuid.UUID
	Options            *models.EnhancementOptions
}

type Service interface {
	CreateJob(ctx context.Context, userID uuid.UUID, req NewJob) (*models.EnhancementJob, error)
	GetJob(ctx context.Context, userID, jobID uuid.UUID) (*models.EnhancementJob, error)
	ListJobs(ctx context.Context, userID uuid.UUID, status *models.JobStatus) ([]*models.EnhancementJob, error)
	CancelJob(ctx context.Context, userID, jobID uuid.UUID) (*models.EnhancementJob, error)
}

// JobStore is the persistence surface the service needs. *Repository satisfies it.
type JobStore interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	CreateTx(ctx context.Context, tx pgx.Tx, job *models.EnhancementJob) (*models.EnhancementJob, error)
	GetByID(ctx context.Context, userID, jobID uuid.UUID) (*models.EnhancementJob, error)
	GetAnyByID(ctx context.Context, jobID uuid.UUID) (*models.EnhancementJob, error)
	ListByUser(ctx context.Context, userID uuid.UUID, status *models.JobStatus) ([]*models.EnhancementJob, error)
	MarkProcessing(ctx context.Context, jobID uuid.UUID) (bool, error)
	SetProgress(ctx context.Context, jobID uuid.UUID, percent int) error
	MarkCompleted(ctx context.Context, jobID uuid.UUID, resultPhotoID, resultVideoID *uuid.UUID) (bool, error)
	MarkFailed(ctx context.Context, jobID uuid.UUID, reason string) (bool, error)
	Cancel(ctx context.Context, userID, jobID uuid.UUID) (bool, error)
}

// InsertEnhanceTxFunc enqueues the enhancement work within the given
// transaction. Provided by main using river.Client.InsertTx.
type InsertEnhanceTxFunc func(ctx context.Context, tx pgx.Tx, args processing.EnhanceJobArgs) error

type service struct {
	store         JobStore
	ledger        ledger.Service
	insertEnhance InsertEnhanceTxFunc
}

// NewService creates an enhancements service. insertEnhance is typically a
// closure over river.Client.InsertTx. Returns *service so it can be used as
// processing.JobService for the River worker.
func NewService(store JobStore, ledger ledger.Service, insertEnhance InsertEnhanceTxFunc) *service {
	return &service{store: store, ledger: ledger, insertEnhance: insertEnhance}
}

var (
	_ Service               = (*service)(nil)
	_ processing.JobService = (*service)(nil)
)

// validate rejects requests whose shape cannot be run: unknown job types,
// missing source media, or a montage with fewer than two photos.
func validate(req NewJob) error {
	if !req.JobType.Valid() {
		return fmt.Errorf("%w: unknown job type %q", ErrInvalidJob, req.JobType)
	}
	if req.JobType.VideoSourced() {
		if req.SourceVideoID == nil {
			return fmt.Errorf("%w: %s requires a source video", ErrInvalidJob, req.JobType)
		}
		return nil
	}
	if req.SourcePhotoID == nil {
		return fmt.Errorf("%w: %s requires a source photo", ErrInvalidJob, req.JobType)
	}
	if req.JobType == models.JobMultiPhotoMontage && 1+len(req.AdditionalPhotoIDs) < 2 {
		return fmt.Errorf("%w: montage requires at least 2 photos", ErrInvalidJob)
	}
	return nil
}

// CreateJob charges the account and records the job in a single transaction,
// enqueueing the enhancement work through the same transaction so a worker can
// only ever see a committed, paid-for job. On any failure the whole thing
// rolls back: no partial job, no partial charge.
func (s *service) CreateJob(ctx context.Context, userID uuid.UUID, req NewJob) (*models.EnhancementJob, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	var params json.RawMessage
	if req.Options != nil {
		raw, err := json.Marshal(req.Options)
		if err != nil {
			return nil, fmt.Errorf("marshal job options: %w", err)
		}
		params = raw
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	creditsUsed, err := s.ledger.ChargeForJob(ctx, tx, userID, req.JobType)
	if err != nil {
		return nil, err
	}

	job, err := s.store.CreateTx(ctx, tx, &models.EnhancementJob{
		ID:                 uuid.New(),
		UserID:             userID,
		JobType:            req.JobType,
		CreditsUsed:        creditsUsed,
		SourcePhotoID:      req.SourcePhotoID,
		SourceVideoID:      req.SourceVideoID,
		AdditionalPhotoIDs: req.AdditionalPhotoIDs,
		Params:             params,
	})
	if err != nil {
		return nil, err
	}

	if err := s.insertEnhance(ctx, tx, processing.EnhanceJobArgs{JobID: job.ID, UserID: userID}); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *service) GetJob(ctx context.Context, userID, jobID uuid.UUID) (*models.EnhancementJob, error) {
	job, err := s.store.GetByID(ctx, userID, jobID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

func (s *service) ListJobs(ctx context.Context, userID uuid.UUID, status *models.JobStatus) ([]*models.EnhancementJob, error) {
	return s.store.ListByUser(ctx, userID, status)
}

// CancelJob applies a conditional update so cancellation wins at most once.
// A job the caller owns but that already finished reports ErrAlreadyFinished;
// a job the caller does not own reports ErrNotFound.
func (s *service) CancelJob(ctx context.Context, userID, jobID uuid.UUID) (*models.EnhancementJob, error) {
	ok, err := s.store.Cancel(ctx, userID, jobID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Distinguish "not yours / missing" from "yours but terminal".
		if _, err := s.store.GetByID(ctx, userID, jobID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		return nil, ErrAlreadyFinished
	}
	return s.GetJob(ctx, userID, jobID)
}

// ---- processing.JobService ----

// StartJob implements processing.JobService. A nil job with a nil error means
// the job left the pending state before the worker picked it up.
func (s *service) StartJob(ctx context.Context, jobID uuid.UUID) (*models.EnhancementJob, error) {
	ok, err := s.store.MarkProcessing(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return s.store.GetAnyByID(ctx, jobID)
}

func (s *service) UpdateProgress(ctx context.Context, jobID uuid.UUID, percent int) error {
	return s.store.SetProgress(ctx, jobID, percent)
}

// CompleteJob implements processing.JobService. Completion silently loses to a
// concurrent cancellation: the conditional update only fires while the job is
// still processing.
func (s *service) CompleteJob(ctx context.Context, jobID uuid.UUID, resultPhotoID, resultVideoID *uuid.UUID) error {
	_, err := s.store.MarkCompleted(ctx, jobID, resultPhotoID, resultVideoID)
	return err
}

func (s *service) FailJob(ctx context.Context, jobID uuid.UUID, reason string) error {
	_, err := s.store.MarkFailed(ctx, jobID, reason)
	return err
}
