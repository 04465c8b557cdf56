package integrations

import (
	"context"
	"errors"
	"time"

	"github.com/photomemories/backend/internal/models"
)

// ErrProviderUnavailable is returned when a provider has no client configured.
var ErrProviderUnavailable = errors.New("provider is not configured")

// ExternalPhoto is a photo as described by an external library provider.
type ExternalPhoto struct {
	ExternalID  string     `json:"externalId"`
	FileName    string     `json:"fileName"`
	URL         string     `json:"url"`
	ContentType string     `json:"contentType"`
	Width       int        `json:"width"`
	Height      int        `json:"height"`
	TakenAt     *time.Time `json:"takenAt,omitempty"`
}

// Provider lists photos from an external library (Google Photos, OneDrive).
// The access token is the user's provider-side OAuth token, handed over by
// the frontend; this service never stores it.
type Provider interface {
	Source() models.PhotoSource
	ListRecent(ctx context.Context, accessToken string, since *time.Time) ([]ExternalPhoto, error)
}

// Unavailable is the Provider used when no client credentials are configured;
// imports fail with a clear message instead of a nil dereference.
type Unavailable struct {
	Kind models.PhotoSource
}

var _ Provider = Unavailable{}

func (u Unavailable) Source() models.PhotoSource { return u.Kind }

func (u Unavailable) ListRecent(ctx context.Context, accessToken string, since *time.Time) ([]ExternalPhoto, error) {
	return nil, ErrProviderUnavailable
}

// Placeholder serves a small canned page per provider so the connect and
// import flows work end to end before real provider clients exist.
type Placeholder struct {
	Kind models.PhotoSource
}

var _ Provider = Placeholder{}

func (p Placeholder) Source() models.PhotoSource { return p.Kind }

func (p Placeholder) ListRecent(ctx context.Context, accessToken string, since *time.Time) ([]ExternalPhoto, error) {
	if accessToken == "" {
		return nil, errors.New("missing access token")
	}
	prefix := string(p.Kind)
	taken := time.Date(2023, time.June, 12, 10, 30, 0, 0, time.UTC)
	page := []ExternalPhoto{
		{
			ExternalID:  prefix + "-sample-1",
			FileName:    "beach_trip.jpg",
			URL:         "https://photos.example/" + prefix + "/sample-1.jpg",
			ContentType: "image/jpeg",
			Width:       4032,
			Height:      3024,
			TakenAt:     &taken,
		},
		{
			ExternalID:  prefix + "-sample-2",
			FileName:    "grandma_birthday.jpg",
			URL:         "https://photos.example/" + prefix + "/sample-2.jpg",
			ContentType: "image/jpeg",
			Width:       3024,
			Height:      4032,
		},
	}
	if since == nil {
		return page, nil
	}
	var out []ExternalPhoto
	for _, ph := range page {
		if ph.TakenAt == nil || ph.TakenAt.After(*since) {
			out = append(out, ph)
		}
	}
	return out, nil
}
