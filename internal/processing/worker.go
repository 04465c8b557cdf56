package processing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/photomemories/backend/internal/models"
)

type EnhanceJobArgs struct {
	JobID  uuid.UUID `json:"job_id"`
	UserID uuid.UUID `json:"user_id"`
}

func (EnhanceJobArgs) Kind() string { return "enhance_media" }

// JobService defines the contract the worker needs to advance a job
// through its lifecycle and report success/failure.
type JobService interface {
	// StartJob moves the job to processing and returns it. A nil job with a
	// nil error means the job was cancelled (or already finished) before the
	// worker picked it up and nothing should run.
	StartJob(ctx context.Context, jobID uuid.UUID) (*models.EnhancementJob, error)
	UpdateProgress(ctx context.Context, jobID uuid.UUID, percent int) error
	CompleteJob(ctx context.Context, jobID uuid.UUID, resultPhotoID, resultVideoID *uuid.UUID) error
	FailJob(ctx context.Context, jobID uuid.UUID, reason string) error
}

type EnhanceWorker struct {
	river.WorkerDefaults[EnhanceJobArgs]
	jobService JobService
	enhancer   Enhancer
}

func NewEnhanceWorker(js JobService, enhancer Enhancer) *EnhanceWorker {
	return &EnhanceWorker{jobService: js, enhancer: enhancer}
}

func (w *EnhanceWorker) Work(ctx context.Context, job *river.Job[EnhanceJobArgs]) error {
	args := job.Args

	enhJob, err := w.jobService.StartJob(ctx, args.JobID)
	if err != nil {
		return fmt.Errorf("start enhancement job: %w", err)
	}
	if enhJob == nil {
		// Cancelled between enqueue and pickup.
		return nil
	}

	result, err := w.enhancer.Enhance(ctx, enhJob, func(percent int) {
		_ = w.jobService.UpdateProgress(ctx, args.JobID, percent)
	})
	if err != nil {
		return w.failJob(ctx, args.JobID, err.Error())
	}

	if err := w.jobService.CompleteJob(ctx, args.JobID, result.PhotoID, result.VideoID); err != nil {
		return fmt.Errorf("mark job completed: %w", err)
	}
	return nil
}

func (w *EnhanceWorker) failJob(ctx context.Context, jobID uuid.UUID, reason string) error {
	markErr := w.jobService.FailJob(ctx, jobID, reason)
	if markErr != nil {
		return fmt.Errorf("enhancement failed (%s) AND failed to mark job as failed: %w", reason, markErr)
	}
	return nil
}
