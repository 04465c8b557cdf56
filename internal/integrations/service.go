package integrations

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/photomemories/backend/internal/models"
)

// ErrUnknownProvider is returned for providers the platform does not support.
var ErrUnknownProvider = errors.New("unknown provider")

// ImportResult summarizes one import run.
type ImportResult struct {
	Provider models.PhotoSource `json:"provider"`
	Imported int                `json:"imported"`
	Skipped  int                `json:"skipped"`
}

type Service interface {
	Connect(ctx context.Context, userID uuid.UUID, source models.PhotoSource) error
	Disconnect(ctx context.Context, userID uuid.UUID, source models.PhotoSource) error
	ListAvailable(ctx context.Context, userID uuid.UUID, source models.PhotoSource, accessToken string, since *time.Time) ([]ExternalPhoto, error)
	Import(ctx context.Context, userID uuid.UUID, source models.PhotoSource, accessToken string, since *time.Time) (*ImportResult, error)
}

// ConnectionStore persists provider connection flags and imported photos.
// *Repository satisfies it.
type ConnectionStore interface {
	SetConnected(ctx context.Context, userID uuid.UUID, source models.PhotoSource, connected bool) error
	ImportPhoto(ctx context.Context, userID uuid.UUID, source models.PhotoSource, ext ExternalPhoto) (*models.Photo, bool, error)
}

type service struct {
	store     ConnectionStore
	providers map[models.PhotoSource]Provider
	log       *slog.Logger
}

func NewService(store ConnectionStore, providers []Provider, log *slog.Logger) *service {
	if log == nil {
		log = slog.Default()
	}
	bySource := make(map[models.PhotoSource]Provider, len(providers))
	for _, p := range providers {
		bySource[p.Source()] = p
	}
	return &service{store: store, providers: bySource, log: log}
}

var _ Service = (*service)(nil)

func (s *service) provider(source models.PhotoSource) (Provider, error) {
	p, ok := s.providers[source]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return p, nil
}

func (s *service) Connect(ctx context.Context, userID uuid.UUID, source models.PhotoSource) error {
	if _, err := s.provider(source); err != nil {
		return err
	}
	return s.store.SetConnected(ctx, userID, source, true)
}

func (s *service) Disconnect(ctx context.Context, userID uuid.UUID, source models.PhotoSource) error {
	if _, err := s.provider(source); err != nil {
		return err
	}
	return s.store.SetConnected(ctx, userID, source, false)
}

// ListAvailable shows what the provider would hand over, without importing.
func (s *service) ListAvailable(ctx context.Context, userID uuid.UUID, source models.PhotoSource, accessToken string, since *time.Time) ([]ExternalPhoto, error) {
	p, err := s.provider(source)
	if err != nil {
		return nil, err
	}
	return p.ListRecent(ctx, accessToken, since)
}

// Import pulls recent photos from the provider and records the ones not seen
// before. Photos stay in the provider's storage; only metadata and the remote
// URL are kept.
func (s *service) Import(ctx context.Context, userID uuid.UUID, source models.PhotoSource, accessToken string, since *time.Time) (*ImportResult, error) {
	p, err := s.provider(source)
	if err != nil {
		return nil, err
	}
	external, err := p.ListRecent(ctx, accessToken, since)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Provider: source}
	for _, ext := range external {
		_, created, err := s.store.ImportPhoto(ctx, userID, source, ext)
		if err != nil {
			return nil, err
		}
		if created {
			result.Imported++
		} else {
			result.Skipped++
		}
	}
	s.log.Info("import finished", "provider", source, "imported", result.Imported, "skipped", result.Skipped)
	return result, nil
}
