package videos

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/photomemories/backend/internal/models"
)

type mockVideos struct {
	mu        sync.Mutex
	videos    map[uuid.UUID]*models.Video
	createErr error
}

func newMockVideos() *mockVideos {
	return &mockVideos{videos: make(map[uuid.UUID]*models.Video)}
}

func (m *mockVideos) Create(ctx context.Context, v *models.Video) (*models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.videos[v.ID] = v
	return v, nil
}

func (m *mockVideos) GetByID(ctx context.Context, userID, videoID uuid.UUID) (*models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[videoID]
	if !ok || v.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	return v, nil
}

func (m *mockVideos) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Video
	for _, v := range m.videos {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *mockVideos) Delete(ctx context.Context, userID, videoID uuid.UUID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[videoID]
	if !ok || v.UserID != userID {
		return "", pgx.ErrNoRows
	}
	delete(m.videos, videoID)
	return v.BlobURL, nil
}

type mockBlobs struct {
	mu      sync.Mutex
	uploads int
	deleted []string
}

func (m *mockBlobs) Upload(ctx context.Context, userID uuid.UUID, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads++
	return "https://blobs.example/videos/" + uuid.NewString(), nil
}

func (m *mockBlobs) Delete(ctx context.Context, blobURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, blobURL)
	return nil
}

func (m *mockBlobs) PresignUpload(ctx context.Context, userID uuid.UUID, contentType string) (string, string, error) {
	return "", "", errors.New("not implemented")
}

func TestUpload_StoresBlobAndRow(t *testing.T) {
	store := newMockVideos()
	blobs := &mockBlobs{}
	svc := NewService(store, blobs, nil)
	userID := uuid.New()

	video, err := svc.Upload(context.Background(), userID, Upload{
		FileName:        "wedding.mp4",
		ContentType:     "video/mp4",
		Data:            []byte("frames"),
		DurationSeconds: 42,
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if video.Source != models.VideoSourceUpload {
		t.Fatalf("source = %q, want upload", video.Source)
	}
	if blobs.uploads != 1 {
		t.Fatalf("uploads = %d, want 1", blobs.uploads)
	}
	if _, err := svc.Get(context.Background(), userID, video.ID); err != nil {
		t.Fatalf("Get after upload: %v", err)
	}
}

func TestUpload_RejectsNonVideoTypes(t *testing.T) {
	blobs := &mockBlobs{}
	svc := NewService(newMockVideos(), blobs, nil)

	for _, ct := range []string{"image/jpeg", "application/pdf", "text/html", ""} {
		_, err := svc.Upload(context.Background(), uuid.New(), Upload{ContentType: ct, Data: []byte("x")})
		if !errors.Is(err, ErrUnsupportedType) {
			t.Errorf("content type %q: err = %v, want ErrUnsupportedType", ct, err)
		}
	}
	if blobs.uploads != 0 {
		t.Fatalf("uploads = %d, want 0", blobs.uploads)
	}
}

func TestUpload_CleansUpBlobOnInsertFailure(t *testing.T) {
	store := newMockVideos()
	store.createErr = errors.New("insert failed")
	blobs := &mockBlobs{}
	svc := NewService(store, blobs, nil)

	_, err := svc.Upload(context.Background(), uuid.New(), Upload{
		FileName:    "a.mp4",
		ContentType: "video/mp4",
		Data:        []byte("frames"),
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(blobs.deleted) != 1 {
		t.Fatalf("deleted = %d blobs, want 1", len(blobs.deleted))
	}
}

func TestDelete_RemovesBlob(t *testing.T) {
	store := newMockVideos()
	blobs := &mockBlobs{}
	svc := NewService(store, blobs, nil)
	userID := uuid.New()

	video, err := svc.Upload(context.Background(), userID, Upload{
		FileName:    "a.mp4",
		ContentType: "video/mp4",
		Data:        []byte("frames"),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := svc.Delete(context.Background(), userID, video.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(blobs.deleted) != 1 {
		t.Fatalf("deleted = %d blobs, want 1", len(blobs.deleted))
	}
	if err := svc.Delete(context.Background(), userID, video.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("repeat delete err = %v, want ErrNotFound", err)
	}
}

func TestGet_ForeignVideoNotFound(t *testing.T) {
	store := newMockVideos()
	svc := NewService(store, &mockBlobs{}, nil)

	video, err := svc.Upload(context.Background(), uuid.New(), Upload{
		FileName:    "a.mp4",
		ContentType: "video/mp4",
		Data:        []byte("frames"),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := svc.Get(context.Background(), uuid.New(), video.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
