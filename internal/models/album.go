package models

import (
	"time"

	"github.com/google/uuid"
)

type Album struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"userId"`
	Name          string    `json:"name"`
	Description   *string   `json:"description,omitempty"`
	CoverPhotoURL *string   `json:"coverPhotoUrl,omitempty"`
	PhotoCount    int       `json:"photoCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type AlbumPhoto struct {
	AlbumID   uuid.UUID `json:"albumId"`
	PhotoID   uuid.UUID `json:"photoId"`
	SortOrder int       `json:"sortOrder"`
	AddedAt   time.Time `json:"addedAt"`
}
