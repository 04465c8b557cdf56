package models

import (
	"time"

	"github.com/google/uuid"
)

// PhotoSource records where a photo came from.
type PhotoSource string

const (
	PhotoSourceUpload       PhotoSource = "upload"
	PhotoSourceGooglePhotos PhotoSource = "google_photos"
	PhotoSourceOneDrive     PhotoSource = "onedrive"
	PhotoSourceGenerated    PhotoSource = "generated"
)

func (s PhotoSource) Valid() bool {
	switch s {
	case PhotoSourceUpload, PhotoSourceGooglePhotos, PhotoSourceOneDrive, PhotoSourceGenerated:
		return true
	}
	return false
}

type Photo struct {
	ID               uuid.UUID   `json:"id"`
	UserID           uuid.UUID   `json:"userId"`
	OriginalFileName string      `json:"originalFileName"`
	BlobURL          string      `json:"blobUrl"`
	ThumbnailURL     *string     `json:"thumbnailUrl,omitempty"`
	FileSize         int64       `json:"fileSize"`
	ContentType      string      `json:"contentType"`
	Width            int         `json:"width"`
	Height           int         `json:"height"`
	DateTaken        *time.Time  `json:"dateTaken,omitempty"`
	Location         *string     `json:"location,omitempty"`
	Description      *string     `json:"description,omitempty"`
	Tags             *string     `json:"tags,omitempty"`
	IsBlackAndWhite  bool        `json:"isBlackAndWhite"`
	Source           PhotoSource `json:"source"`
	ExternalID       *string     `json:"externalId,omitempty"`
	IsEnhanced       bool        `json:"isEnhanced"`
	OriginalPhotoID  *uuid.UUID  `json:"originalPhotoId,omitempty"`
	EnhancementKind  *JobType    `json:"enhancementKind,omitempty"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

type PersonTag struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"userId"`
	PhotoID    uuid.UUID `json:"photoId"`
	PersonName string    `json:"personName"`
	FaceX      *float32  `json:"faceX,omitempty"`
	FaceY      *float32  `json:"faceY,omitempty"`
	FaceWidth  *float32  `json:"faceWidth,omitempty"`
	FaceHeight *float32  `json:"faceHeight,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
