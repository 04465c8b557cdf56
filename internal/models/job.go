package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JobType is the set of enhancements the platform offers.
type JobType string

const (
	// Photo enhancements
	JobColorize           JobType = "colorize"
	JobRestoreQuality     JobType = "restore_quality"
	JobUpscale            JobType = "upscale"
	JobLightingCorrection JobType = "lighting_correction"

	// Photo to video
	JobSinglePhotoAnimation JobType = "single_photo_animation"
	JobMultiPhotoMontage    JobType = "multi_photo_montage"

	// Video enhancements
	JobAddPersonToVideo JobType = "add_person_to_video"
	JobExtendVideo      JobType = "extend_video"
	JobVideoUpscale     JobType = "video_upscale"
)

func (t JobType) Valid() bool {
	_, ok := jobCredits[t]
	return ok
}

// VideoSourced reports whether the job operates on a source video rather than a photo.
func (t JobType) VideoSourced() bool {
	switch t {
	case JobAddPersonToVideo, JobExtendVideo, JobVideoUpscale:
		return true
	}
	return false
}

// ProducesVideo reports whether the job's result is a video.
func (t JobType) ProducesVideo() bool {
	return t.VideoSourced() || t == JobSinglePhotoAnimation || t == JobMultiPhotoMontage
}

// jobCredits is the fixed price table: 1 credit for single-photo operations,
// 2 for multi-asset and video operations.
var jobCredits = map[JobType]int{
	JobColorize:             1,
	JobRestoreQuality:       1,
	JobUpscale:              1,
	JobLightingCorrection:   1,
	JobSinglePhotoAnimation: 1,
	JobMultiPhotoMontage:    2,
	JobAddPersonToVideo:     2,
	JobExtendVideo:          2,
	JobVideoUpscale:         2,
}

// CreditCost returns the fixed credit price for a job type (1 for unknown types,
// which the boundary rejects before pricing matters).
func CreditCost(t JobType) int {
	if c, ok := jobCredits[t]; ok {
		return c
	}
	return 1
}

// JobStatus tracks a job through pending -> processing -> terminal.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusCancelled  JobStatus = "cancelled"
)

func (s JobStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// AnimationStyle configures photo-to-video jobs.
type AnimationStyle string

const (
	StyleKenBurns  AnimationStyle = "ken_burns"
	StyleParallax  AnimationStyle = "parallax"
	StyleSlowZoom  AnimationStyle = "slow_zoom"
	StyleCrossFade AnimationStyle = "cross_fade"
)

// EnhancementOptions are job parameters stored as JSON alongside the job.
type EnhancementOptions struct {
	AnimationStyle  *AnimationStyle `json:"animationStyle,omitempty"`
	AddMusic        *bool           `json:"addMusic,omitempty"`
	DurationSeconds *int            `json:"durationSeconds,omitempty"`
	PersonPhotoID   *uuid.UUID      `json:"personPhotoId,omitempty"`
}

type EnhancementJob struct {
	ID                 uuid.UUID       `json:"id"`
	UserID             uuid.UUID       `json:"userId"`
	JobType            JobType         `json:"jobType"`
	Status             JobStatus       `json:"status"`
	CreditsUsed        int             `json:"creditsUsed"`
	SourcePhotoID      *uuid.UUID      `json:"sourcePhotoId,omitempty"`
	SourceVideoID      *uuid.UUID      `json:"sourceVideoId,omitempty"`
	AdditionalPhotoIDs []uuid.UUID     `json:"additionalPhotoIds,omitempty"`
	Params             json.RawMessage `json:"params,omitempty"`
	ResultPhotoID      *uuid.UUID      `json:"resultPhotoId,omitempty"`
	ResultVideoID      *uuid.UUID      `json:"resultVideoId,omitempty"`
	ErrorMessage       *string         `json:"errorMessage,omitempty"`
	ProgressPercent    int             `json:"progressPercent"`
	CreatedAt          time.Time       `json:"createdAt"`
	StartedAt          *time.Time      `json:"startedAt,omitempty"`
	CompletedAt        *time.Time      `json:"completedAt,omitempty"`
}
