package videos

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
	// ErrNotFound covers both absent videos and videos owned by someone else.
	ErrNotFound = errors.New("video not found")
	// ErrUnsupportedType is returned for uploads outside the video allowlist.
	ErrUnsupportedType = errors.New("unsupported video type")
	// ErrEmptyUpload is returned when the upload carries no bytes.
	ErrEmptyUpload = errors.New("empty upload")
)

var allowedVideoTypes = map[string]bool{
	"video/mp4":       true,
	"video/quicktime": true,
	"video/webm":      true,
}

// Upload carries a new video and its metadata.
type Upload struct {
	FileName        string
	ContentType     string
	Data            []byte
	DurationSeconds float64
	DateTaken       *time.Time
	Description     *string
}

type Service interface {
	Upload(ctx context.Context, userID uuid.UUID, up Upload) (*models.Video, error)
	Get(ctx context.Context, userID, videoID uuid.UUID) (*models.Video, error)
	List(ctx context.Context, userID uuid.UUID) ([]*models.Video, error)
	Delete(ctx context.Context, userID, videoID uuid.UUID) error
}

// VideoStore is the persistence surface the service needs. *Repository satisfies it.
type VideoStore interface {
	Create(ctx context.Context, v *models.Video) (*models.Video, error)
	GetByID(ctx context.Context, userID, videoID uuid.UUID) (*models.Video, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Video, error)
	Delete(ctx context.Context, userID, videoID uuid.UUID) (string, error)
}

type service struct {
	store VideoStore
	blobs storage.Store
	log   *slog.Logger
}

func NewService(store VideoStore, blobs storage.Store, log *slog.Logger) *service {
	if log == nil {
		log = slog.Default()
	}
	return &service{store: store, blobs: blobs, log: log}
}

var _ Service = (*service)(nil)

func (s *service) Upload(ctx context.Context, userID uuid.UUID, up Upload) (*models.Video, error) {
	if len(up.Data) == 0 {
		return nil, ErrEmptyUpload
	}
	if !allowedVideoTypes[up.ContentType] {
		return nil, ErrUnsupportedType
	}

	blobURL, err := s.blobs.Upload(ctx, userID, up.Data, up.ContentType)
	if err != nil {
		return nil, err
	}

	video, err := s.store.Create(ctx, &models.Video{
		ID:               uuid.New(),
		UserID:           userID,
		OriginalFileName: up.FileName,
		BlobURL:          blobURL,
		FileSize:         int64(len(up.Data)),
		ContentType:      up.ContentType,
		DurationSeconds:  up.DurationSeconds,
		DateTaken:        up.DateTaken,
		Description:      up.Description,
		Source:           models.VideoSourceUpload,
	})
	if err != nil {
		if delErr := s.blobs.Delete(ctx, blobURL); delErr != nil {
			s.log.Warn("orphaned blob after failed video insert", "url", blobURL, "error", delErr)
		}
		return nil, err
	}
	return video, nil
}

func (s *service) Get(ctx context.Context, userID, videoID uuid.UUID) (*models.Video, error) {
	video, err := s.store.GetByID(ctx, userID, videoID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return video, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]*models.Video, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *service) Delete(ctx context.Context, userID, videoID uuid.UUID) error {
	blobURL, err := s.store.Delete(ctx, userID, videoID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if err := s.blobs.Delete(ctx, blobURL); err != nil && !errors.Is(err, storage.ErrStorageDisabled) {
		s.log.Warn("failed to delete blob", "url", blobURL, "error", err)
	}
	return nil
}
