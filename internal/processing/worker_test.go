package processing

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/photomemories/backend/internal/models"
)

type mockJobService struct {
	job       *models.EnhancementJob
	startErr  error
	completed bool
	failed    bool
	reason    string
	progress  []int
}

func (m *mockJobService) StartJob(ctx context.Context, jobID uuid.UUID) (*models.EnhancementJob, error) {
	return m.job, m.startErr
}

func (m *mockJobService) UpdateProgress(ctx context.Context, jobID uuid.UUID, percent int) error {
	m.progress = append(m.progress, percent)
	return nil
}

func (m *mockJobService) CompleteJob(ctx context.Context, jobID uuid.UUID, resultPhotoID, resultVideoID *uuid.UUID) error {
	m.completed = true
	return nil
}

func (m *mockJobService) FailJob(ctx context.Context, jobID uuid.UUID, reason string) error {
	m.failed = true
	m.reason = reason
	return nil
}

type stubEnhancer struct {
	result *Result
	err    error
	ran    bool
}

func (s *stubEnhancer) Enhance(ctx context.Context, job *models.EnhancementJob, progress func(int)) (*Result, error) {
	s.ran = true
	if progress != nil {
		progress(50)
	}
	return s.result, s.err
}

func riverJob(jobID, userID uuid.UUID) *river.Job[EnhanceJobArgs] {
	return &river.Job[EnhanceJobArgs]{Args: EnhanceJobArgs{JobID: jobID, UserID: userID}}
}

func TestWork_CompletesJob(t *testing.T) {
	jobID := uuid.New()
	photoID := uuid.New()
	js := &mockJobService{job: &models.EnhancementJob{ID: jobID, JobType: models.JobColorize, Status: models.StatusProcessing}}
	enh := &stubEnhancer{result: &Result{PhotoID: &photoID}}
	w := NewEnhanceWorker(js, enh)

	if err := w.Work(context.Background(), riverJob(jobID, uuid.New())); err != nil {
		t.Fatalf("Work: %v", err)
	}
	if !js.completed {
		t.Fatal("job was not completed")
	}
	if js.failed {
		t.Fatal("job was marked failed")
	}
	if len(js.progress) == 0 {
		t.Fatal("no progress was reported")
	}
}

func TestWork_SkipsCancelledJob(t *testing.T) {
	js := &mockJobService{job: nil}
	enh := &stubEnhancer{}
	w := NewEnhanceWorker(js, enh)

	if err := w.Work(context.Background(), riverJob(uuid.New(), uuid.New())); err != nil {
		t.Fatalf("Work: %v", err)
	}
	if enh.ran {
		t.Fatal("enhancer ran for a cancelled job")
	}
	if js.completed || js.failed {
		t.Fatal("cancelled job was transitioned")
	}
}

func TestWork_FailureMarksJobFailed(t *testing.T) {
	jobID := uuid.New()
	js := &mockJobService{job: &models.EnhancementJob{ID: jobID, JobType: models.JobColorize, Status: models.StatusProcessing}}
	enh := &stubEnhancer{err: errors.New("model crashed")}
	w := NewEnhanceWorker(js, enh)

	// The work itself succeeds: the failure is recorded on the job, not retried.
	if err := w.Work(context.Background(), riverJob(jobID, uuid.New())); err != nil {
		t.Fatalf("Work: %v", err)
	}
	if !js.failed {
		t.Fatal("job was not marked failed")
	}
	if js.reason != "model crashed" {
		t.Fatalf("reason = %q", js.reason)
	}
	if js.completed {
		t.Fatal("failed job was also completed")
	}
}

func TestWork_StartErrorIsRetryable(t *testing.T) {
	js := &mockJobService{startErr: errors.New("db down")}
	w := NewEnhanceWorker(js, &stubEnhancer{})

	if err := w.Work(context.Background(), riverJob(uuid.New(), uuid.New())); err == nil {
		t.Fatal("expected error so the queue retries")
	}
}

// ---- SimulatedEnhancer ----

type stubRegistry struct {
	photo *models.Photo
	video *models.Video
}

func (s *stubRegistry) CreateDerived(ctx context.Context, job *models.EnhancementJob) (*models.Photo, error) {
	if s.photo == nil {
		return nil, errors.New("no photo configured")
	}
	return s.photo, nil
}

func (s *stubRegistry) CreateGenerated(ctx context.Context, job *models.EnhancementJob) (*models.Video, error) {
	if s.video == nil {
		return nil, errors.New("no video configured")
	}
	return s.video, nil
}

func TestSimulatedEnhancer_PhotoJobProducesPhoto(t *testing.T) {
	reg := &stubRegistry{photo: &models.Photo{ID: uuid.New()}}
	enh := NewSimulatedEnhancer(reg, reg, 0)

	var seen []int
	res, err := enh.Enhance(context.Background(), &models.EnhancementJob{JobType: models.JobColorize}, func(p int) {
		seen = append(seen, p)
	})
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}
	if res.PhotoID == nil || *res.PhotoID != reg.photo.ID {
		t.Fatalf("result = %+v, want photo %s", res, reg.photo.ID)
	}
	if res.VideoID != nil {
		t.Fatal("photo job produced a video")
	}
	if len(seen) != 3 {
		t.Fatalf("progress steps = %v", seen)
	}
}

func TestSimulatedEnhancer_AnimationProducesVideo(t *testing.T) {
	reg := &stubRegistry{video: &models.Video{ID: uuid.New()}}
	enh := NewSimulatedEnhancer(reg, reg, 0)

	res, err := enh.Enhance(context.Background(), &models.EnhancementJob{JobType: models.JobSinglePhotoAnimation}, nil)
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}
	if res.VideoID == nil || *res.VideoID != reg.video.ID {
		t.Fatalf("result = %+v, want video %s", res, reg.video.ID)
	}
}
