package models

import (
	"time"

	"github.com/google/uuid"
)

// VideoSource records where a video came from.
type VideoSource string

const (
	VideoSourceUpload    VideoSource = "upload"
	VideoSourceGenerated VideoSource = "generated"
)

type Video struct {
	ID               uuid.UUID   `json:"id"`
	UserID           uuid.UUID   `json:"userId"`
	OriginalFileName string      `json:"originalFileName"`
	BlobURL          string      `json:"blobUrl"`
	ThumbnailURL     *string     `json:"thumbnailUrl,omitempty"`
	FileSize         int64       `json:"fileSize"`
	ContentType      string      `json:"contentType"`
	Width            int         `json:"width"`
	Height           int         `json:"height"`
	DurationSeconds  float64     `json:"durationSeconds"`
	DateTaken        *time.Time  `json:"dateTaken,omitempty"`
	Description      *string     `json:"description,omitempty"`
	Source           VideoSource `json:"source"`
	IsGenerated      bool        `json:"isGenerated"`
	SourcePhotoID    *uuid.UUID  `json:"sourcePhotoId,omitempty"`
	GenerationKind   *JobType    `json:"generationKind,omitempty"`
	IsEnhanced       bool        `json:"isEnhanced"`
	OriginalVideoID  *uuid.UUID  `json:"originalVideoId,omitempty"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}
