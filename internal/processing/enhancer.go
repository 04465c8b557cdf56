package processing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/photomemories/backend/internal/models"
)

// Result carries the media produced by an enhancement run. Exactly one of the
// two IDs is set, depending on whether the job type produces a photo or a video.
type Result struct {
	PhotoID *uuid.UUID
	VideoID *uuid.UUID
}

// Enhancer runs the actual media work for a job. progress is called with a
// 0-100 percentage as the run advances; implementations may skip it.
type Enhancer interface {
	Enhance(ctx context.Context, job *models.EnhancementJob, progress func(percent int)) (*Result, error)
}

// PhotoRegistry records a derived photo produced by an enhancement.
type PhotoRegistry interface {
	CreateDerived(ctx context.Context, job *models.EnhancementJob) (*models.Photo, error)
}

// VideoRegistry records a generated video produced by an enhancement.
type VideoRegistry interface {
	CreateGenerated(ctx context.Context, job *models.EnhancementJob) (*models.Video, error)
}

// SimulatedEnhancer stands in for the real enhancement pipeline. It walks the
// progress ladder with a configurable step delay and registers a derived photo
// or generated video as the job's result.
type SimulatedEnhancer struct {
	photos    PhotoRegistry
	videos    VideoRegistry
	stepDelay time.Duration
}

func NewSimulatedEnhancer(photos PhotoRegistry, videos VideoRegistry, stepDelay time.Duration) *SimulatedEnhancer {
	return &SimulatedEnhancer{photos: photos, videos: videos, stepDelay: stepDelay}
}

var _ Enhancer = (*SimulatedEnhancer)(nil)

func (e *SimulatedEnhancer) Enhance(ctx context.Context, job *models.EnhancementJob, progress func(percent int)) (*Result, error) {
	for _, pct := range []int{25, 50, 75} {
		if err := e.sleep(ctx); err != nil {
			return nil, err
		}
		if progress != nil {
			progress(pct)
		}
	}

	if job.JobType.ProducesVideo() {
		video, err := e.videos.CreateGenerated(ctx, job)
		if err != nil {
			return nil, fmt.Errorf("register generated video: %w", err)
		}
		return &Result{VideoID: &video.ID}, nil
	}
	photo, err := e.photos.CreateDerived(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("register derived photo: %w", err)
	}
	return &Result{PhotoID: &photo.ID}, nil
}

func (e *SimulatedEnhancer) sleep(ctx context.Context) error {
	if e.stepDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(e.stepDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
