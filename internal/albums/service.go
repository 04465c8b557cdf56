package albums

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/photomemories/backend/internal/models"
)

var (
	// ErrNotFound covers absent albums, foreign albums, and foreign photos.
	ErrNotFound = errors.New("album not found")
	// ErrMissingName is returned when creating an album without a name.
	ErrMissingName = errors.New("album name is required")
)

type Service interface {
	Create(ctx context.Context, userID uuid.UUID, name string, description, coverPhotoURL *string) (*models.Album, error)
	Get(ctx context.Context, userID, albumID uuid.UUID) (*models.Album, error)
	List(ctx context.Context, userID uuid.UUID) ([]*models.Album, error)
	Update(ctx context.Context, userID, albumID uuid.UUID, name, description, coverPhotoURL *string) (*models.Album, error)
	Delete(ctx context.Context, userID, albumID uuid.UUID) error
	AddPhoto(ctx context.Context, userID, albumID, photoID uuid.UUID) error
	RemovePhoto(ctx context.Context, userID, albumID, photoID uuid.UUID) error
	ListPhotos(ctx context.Context, userID, albumID uuid.UUID) ([]*models.Photo, error)
}

// AlbumStore is the persistence surface the service needs. *Repository satisfies it.
type AlbumStore interface {
	Create(ctx context.Context, a *models.Album) (*models.Album, error)
	GetByID(ctx context.Context, userID, albumID uuid.UUID) (*models.Album, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Album, error)
	Update(ctx context.Context, userID, albumID uuid.UUID, name, description, coverPhotoURL *string) (*models.Album, error)
	Delete(ctx context.Context, userID, albumID uuid.UUID) (bool, error)
	AddPhoto(ctx context.Context, userID, albumID, photoID uuid.UUID) (bool, error)
	RemovePhoto(ctx context.Context, userID, albumID, photoID uuid.UUID) (bool, error)
	ListPhotos(ctx context.Context, userID, albumID uuid.UUID) ([]*models.Photo, error)
}

type service struct {
	store AlbumStore
}

func NewService(store AlbumStore) *service {
	return &service{store: store}
}

var _ Service = (*service)(nil)

func (s *service) Create(ctx context.Context, userID uuid.UUID, name string, description, coverPhotoURL *string) (*models.Album, error) {
	if name == "" {
		return nil, ErrMissingName
	}
	return s.store.Create(ctx, &models.Album{
		ID:            uuid.New(),
		UserID:        userID,
		Name:          name,
		Description:   description,
		CoverPhotoURL: coverPhotoURL,
	})
}

func (s *service) Get(ctx context.Context, userID, albumID uuid.UUID) (*models.Album, error) {
	album, err := s.store.GetByID(ctx, userID, albumID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return album, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]*models.Album, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *service) Update(ctx context.Context, userID, albumID uuid.UUID, name, description, coverPhotoURL *string) (*models.Album, error) {
	album, err := s.store.Update(ctx, userID, albumID, name, description, coverPhotoURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return album, nil
}

func (s *service) Delete(ctx context.Context, userID, albumID uuid.UUID) error {
	ok, err := s.store.Delete(ctx, userID, albumID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *service) AddPhoto(ctx context.Context, userID, albumID, photoID uuid.UUID) error {
	ok, err := s.store.AddPhoto(ctx, userID, albumID, photoID)
	if err != nil {
		return err
	}
	if !ok {
		// Album or photo missing/foreign, or the photo is already in the
		// album; adding twice is idempotent from the caller's view.
		if _, err := s.Get(ctx, userID, albumID); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) RemovePhoto(ctx context.Context, userID, albumID, photoID uuid.UUID) error {
	ok, err := s.store.RemovePhoto(ctx, userID, albumID, photoID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *service) ListPhotos(ctx context.Context, userID, albumID uuid.UUID) ([]*models.Photo, error) {
	if _, err := s.Get(ctx, userID, albumID); err != nil {
		return nil, err
	}
	return s.store.ListPhotos(ctx, userID, albumID)
}
