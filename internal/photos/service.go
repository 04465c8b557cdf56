package photos

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/photomemories/backend/internal/models"
	"github.com/photomemories/backend/internal/storage"
)

var (
	// ErrNotFound covers both absent photos and photos owned by someone else.
	ErrNotFound = errors.New("photo not found")
	// ErrUnsupportedType is returned for uploads outside the image allowlist.
	ErrUnsupportedType = errors.New("unsupported image type")
	// ErrEmptyUpload is returned when the upload carries no bytes.
	ErrEmptyUpload = errors.New("empty upload")
)

// allowedImageTypes is the upload allowlist; everything else is rejected
// before touching blob storage.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// Upload carries a new photo and its metadata.
type Upload struct {
	FileName        string
	ContentType     string
	Data            []byte
	DateTaken       *time.Time
	Location        *string
	Description     *string
	Tags            *string
	IsBlackAndWhite bool
}

// UpdatePatch carries the mutable metadata fields; nil means "leave as is".
type UpdatePatch struct {
	Description *string
	Location    *string
	Tags        *string
	DateTaken   *time.Time
}

// NewTag describes a person tag to attach to a photo.
type NewTag struct {
	PersonName string
	FaceX      *float32
	FaceY      *float32
	FaceWidth  *float32
	FaceHeight *float32
}

// PresignedUpload is a direct-to-storage upload slot: PUT the bytes to
// UploadURL, then reference BlobURL.
type PresignedUpload struct {
	UploadURL string `json:"uploadUrl"`
	BlobURL   string `json:"blobUrl"`
}

type Service interface {
	Upload(ctx context.Context, userID uuid.UUID, up Upload) (*models.Photo, error)
	UploadURL(ctx context.Context, userID uuid.UUID, contentType string) (*PresignedUpload, error)
	Get(ctx context.Context, userID, photoID uuid.UUID) (*models.Photo, error)
	List(ctx context.Context, userID uuid.UUID, opts ListOptions) ([]*models.Photo, error)
	Update(ctx context.Context, userID, photoID uuid.UUID, patch UpdatePatch) (*models.Photo, error)
	Delete(ctx context.Context, userID, photoID uuid.UUID) error
	TagPerson(ctx context.Context, userID, photoID uuid.UUID, tag NewTag) (*models.PersonTag, error)
	ListTags(ctx context.Context, userID, photoID uuid.UUID) ([]*models.PersonTag, error)
	RemoveTag(ctx context.Context, userID, tagID uuid.UUID) error
	ListPeople(ctx context.Context, userID uuid.UUID) ([]PersonSummary, error)
}

// PhotoStore is the persistence surface the service needs. *Repository satisfies it.
type PhotoStore interface {
	Create(ctx context.Context, p *models.Photo) (*models.Photo, error)
	GetByID(ctx context.Context, userID, photoID uuid.UUID) (*models.Photo, error)
	List(ctx context.Context, userID uuid.UUID, opts ListOptions) ([]*models.Photo, error)
	Update(ctx context.Context, userID, photoID uuid.UUID, description, location, tags *string, dateTaken *time.Time) (*models.Photo, error)
	Delete(ctx context.Context, userID, photoID uuid.UUID) (string, error)
	AddTag(ctx context.Context, tag *models.PersonTag) (*models.PersonTag, error)
	ListTags(ctx context.Context, userID, photoID uuid.UUID) ([]*models.PersonTag, error)
	DeleteTag(ctx context.Context, userID, tagID uuid.UUID) (bool, error)
	ListPeople(ctx context.Context, userID uuid.UUID) ([]PersonSummary, error)
}

type service struct {
	store PhotoStore
	blobs storage.Store
	log   *slog.Logger
}

func NewService(store PhotoStore, blobs storage.Store, log *slog.Logger) *service {
	if log == nil {
		log = slog.Default()
	}
	return &service{store: store, blobs: blobs, log: log}
}

var _ Service = (*service)(nil)

func (s *service) Upload(ctx context.Context, userID uuid.UUID, up Upload) (*models.Photo, error) {
	if len(up.Data) == 0 {
		return nil, ErrEmptyUpload
	}
	if !allowedImageTypes[up.ContentType] {
		return nil, ErrUnsupportedType
	}

	blobURL, err := s.blobs.Upload(ctx, userID, up.Data, up.ContentType)
	if err != nil {
		return nil, err
	}

	photo, err := s.store.Create(ctx, &models.Photo{
		ID:               uuid.New(),
		UserID:           userID,
		OriginalFileName: up.FileName,
		BlobURL:          blobURL,
		FileSize:         int64(len(up.Data)),
		ContentType:      up.ContentType,
		DateTaken:        up.DateTaken,
		Location:         up.Location,
		Description:      up.Description,
		Tags:             up.Tags,
		IsBlackAndWhite:  up.IsBlackAndWhite,
		Source:           models.PhotoSourceUpload,
	})
	if err != nil {
		// The blob is orphaned now; best effort cleanup.
		if delErr := s.blobs.Delete(ctx, blobURL); delErr != nil {
			s.log.Warn("orphaned blob after failed photo insert", "url", blobURL, "error", delErr)
		}
		return nil, err
	}
	return photo, nil
}

func (s *service) UploadURL(ctx context.Context, userID uuid.UUID, contentType string) (*PresignedUpload, error) {
	if !allowedImageTypes[contentType] {
		return nil, ErrUnsupportedType
	}
	uploadURL, blobURL, err := s.blobs.PresignUpload(ctx, userID, contentType)
	if err != nil {
		return nil, err
	}
	return &PresignedUpload{UploadURL: uploadURL, BlobURL: blobURL}, nil
}

func (s *service) Get(ctx context.Context, userID, photoID uuid.UUID) (*models.Photo, error) {
	photo, err := s.store.GetByID(ctx, userID, photoID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return photo, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, opts ListOptions) ([]*models.Photo, error) {
	return s.store.List(ctx, userID, opts)
}

func (s *service) Update(ctx context.Context, userID, photoID uuid.UUID, patch UpdatePatch) (*models.Photo, error) {
	photo, err := s.store.Update(ctx, userID, photoID, patch.Description, patch.Location, patch.Tags, patch.DateTaken)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return photo, nil
}

func (s *service) Delete(ctx context.Context, userID, photoID uuid.UUID) error {
	blobURL, err := s.store.Delete(ctx, userID, photoID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	// The row is gone; blob cleanup is best effort.
	if err := s.blobs.Delete(ctx, blobURL); err != nil && !errors.Is(err, storage.ErrStorageDisabled) {
		s.log.Warn("failed to delete blob", "url", blobURL, "error", err)
	}
	return nil
}

func (s *service) TagPerson(ctx context.Context, userID, photoID uuid.UUID, tag NewTag) (*models.PersonTag, error) {
	// Owner check first so tagging a foreign photo looks like a missing one.
	if _, err := s.Get(ctx, userID, photoID); err != nil {
		return nil, err
	}
	return s.store.AddTag(ctx, &models.PersonTag{
		ID:         uuid.New(),
		UserID:     userID,
		PhotoID:    photoID,
		PersonName: tag.PersonName,
		FaceX:      tag.FaceX,
		FaceY:      tag.FaceY,
		FaceWidth:  tag.FaceWidth,
		FaceHeight: tag.FaceHeight,
	})
}

func (s *service) ListTags(ctx context.Context, userID, photoID uuid.UUID) ([]*models.PersonTag, error) {
	if _, err := s.Get(ctx, userID, photoID); err != nil {
		return nil, err
	}
	return s.store.ListTags(ctx, userID, photoID)
}

func (s *service) RemoveTag(ctx context.Context, userID, tagID uuid.UUID) error {
	ok, err := s.store.DeleteTag(ctx, userID, tagID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *service) ListPeople(ctx context.Context, userID uuid.UUID) ([]PersonSummary, error) {
	return s.store.ListPeople(ctx, userID)
}
