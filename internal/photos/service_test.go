package photos

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/photomemories/backend/internal/models"
)

// ---- test doubles ----

type mockPhotos struct {
	mu        sync.Mutex
	photos    map[uuid.UUID]*models.Photo
	tags      map[uuid.UUID]*models.PersonTag
	createErr error
}

func newMockPhotos() *mockPhotos {
	return &mockPhotos{
		photos: make(map[uuid.UUID]*models.Photo),
		tags:   make(map[uuid.UUID]*models.PersonTag),
	}
}

func (m *mockPhotos) Create(ctx context.Context, p *models.Photo) (*models.Photo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	cp := *p
	cp.CreatedAt = time.Now()
	m.photos[cp.ID] = &cp
	return &cp, nil
}

func (m *mockPhotos) GetByID(ctx context.Context, userID, photoID uuid.UUID) (*models.Photo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.photos[photoID]
	if !ok || p.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (m *mockPhotos) List(ctx context.Context, userID uuid.UUID, opts ListOptions) ([]*models.Photo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*models.Photo
	for _, p := range m.photos {
		if p.UserID == userID {
			cp := *p
			list = append(list, &cp)
		}
	}
	return list, nil
}

func (m *mockPhotos) Update(ctx context.Context, userID, photoID uuid.UUID, description, location, tags *string, dateTaken *time.Time) (*models.Photo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.photos[photoID]
	if !ok || p.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	if description != nil {
		p.Description = description
	}
	if location != nil {
		p.Location = location
	}
	if tags != nil {
		p.Tags = tags
	}
	if dateTaken != nil {
		p.DateTaken = dateTaken
	}
	cp := *p
	return &cp, nil
}

func (m *mockPhotos) Delete(ctx context.Context, userID, photoID uuid.UUID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.photos[photoID]
	if !ok || p.UserID != userID {
		return "", pgx.ErrNoRows
	}
	delete(m.photos, photoID)
	return p.BlobURL, nil
}

func (m *mockPhotos) AddTag(ctx context.Context, tag *models.PersonTag) (*models.PersonTag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *tag
	m.tags[cp.ID] = &cp
	return &cp, nil
}

func (m *mockPhotos) ListTags(ctx context.Context, userID, photoID uuid.UUID) ([]*models.PersonTag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*models.PersonTag
	for _, t := range m.tags {
		if t.UserID == userID && t.PhotoID == photoID {
			cp := *t
			list = append(list, &cp)
		}
	}
	return list, nil
}

func (m *mockPhotos) DeleteTag(ctx context.Context, userID, tagID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tags[tagID]
	if !ok || t.UserID != userID {
		return false, nil
	}
	delete(m.tags, tagID)
	return true, nil
}

func (m *mockPhotos) ListPeople(ctx context.Context, userID uuid.UUID) ([]PersonSummary, error) {
	return nil, nil
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
	return "https://cdn.example.com/media/" + uuid.NewString(), nil
}

func (m *mockBlobs) Delete(ctx context.Context, blobURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, blobURL)
	return nil
}

func (m *mockBlobs) PresignUpload(ctx context.Context, userID uuid.UUID, contentType string) (string, string, error) {
	return "", "", errors.New("not used")
}

func newTestService() (*service, *mockPhotos, *mockBlobs) {
	store := newMockPhotos()
	blobs := &mockBlobs{}
	return NewService(store, blobs, nil), store, blobs
}

// ---- tests ----

func TestUpload_StoresBlobAndRow(t *testing.T) {
	svc, store, blobs := newTestService()
	userID := uuid.New()

	photo, err := svc.Upload(context.Background(), userID, Upload{
		FileName:    "grandma-1955.jpg",
		ContentType: "image/jpeg",
		Data:        []byte("jpeg bytes"),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if photo.BlobURL == "" {
		t.Fatal("photo has no blob URL")
	}
	if photo.Source != models.PhotoSourceUpload {
		t.Fatalf("source = %s, want upload", photo.Source)
	}
	if blobs.uploads != 1 {
		t.Fatalf("uploads = %d, want 1", blobs.uploads)
	}
	if len(store.photos) != 1 {
		t.Fatalf("stored photos = %d, want 1", len(store.photos))
	}
}

func TestUpload_RejectsNonImages(t *testing.T) {
	svc, _, blobs := newTestService()

	cases := []string{"application/pdf", "video/mp4", "text/html", ""}
	for _, ct := range cases {
		_, err := svc.Upload(context.Background(), uuid.New(), Upload{
			FileName:    "file",
			ContentType: ct,
			Data:        []byte("x"),
		})
		if !errors.Is(err, ErrUnsupportedType) {
			t.Errorf("content type %q: err = %v, want ErrUnsupportedType", ct, err)
		}
	}
	if blobs.uploads != 0 {
		t.Fatalf("uploads = %d, want 0 for rejected types", blobs.uploads)
	}
}

func TestUpload_RejectsEmptyData(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Upload(context.Background(), uuid.New(), Upload{FileName: "x.jpg", ContentType: "image/jpeg"})
	if !errors.Is(err, ErrEmptyUpload) {
		t.Fatalf("err = %v, want ErrEmptyUpload", err)
	}
}

func TestUpload_CleansUpBlobWhenInsertFails(t *testing.T) {
	svc, store, blobs := newTestService()
	store.createErr = errors.New("db down")

	_, err := svc.Upload(context.Background(), uuid.New(), Upload{
		FileName:    "x.jpg",
		ContentType: "image/jpeg",
		Data:        []byte("x"),
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(blobs.deleted) != 1 {
		t.Fatalf("deleted blobs = %d, want the orphan cleaned up", len(blobs.deleted))
	}
}

func TestDelete_RemovesBlob(t *testing.T) {
	svc, _, blobs := newTestService()
	userID := uuid.New()

	photo, err := svc.Upload(context.Background(), userID, Upload{
		FileName:    "x.jpg",
		ContentType: "image/jpeg",
		Data:        []byte("x"),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := svc.Delete(context.Background(), userID, photo.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(blobs.deleted) != 1 || blobs.deleted[0] != photo.BlobURL {
		t.Fatalf("deleted = %v, want [%s]", blobs.deleted, photo.BlobURL)
	}
}

func TestGet_OtherUsersPhotoIsNotFound(t *testing.T) {
	svc, _, _ := newTestService()
	owner := uuid.New()

	photo, err := svc.Upload(context.Background(), owner, Upload{
		FileName:    "x.jpg",
		ContentType: "image/jpeg",
		Data:        []byte("x"),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := svc.Get(context.Background(), uuid.New(), photo.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestTagPerson_ForeignPhotoIsNotFound(t *testing.T) {
	svc, _, _ := newTestService()
	owner := uuid.New()

	photo, err := svc.Upload(context.Background(), owner, Upload{
		FileName:    "x.jpg",
		ContentType: "image/jpeg",
		Data:        []byte("x"),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if _, err := svc.TagPerson(context.Background(), uuid.New(), photo.ID, NewTag{PersonName: "Grandma"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	tag, err := svc.TagPerson(context.Background(), owner, photo.ID, NewTag{PersonName: "Grandma"})
	if err != nil {
		t.Fatalf("TagPerson: %v", err)
	}
	if tag.PersonName != "Grandma" {
		t.Fatalf("personName = %q", tag.PersonName)
	}
}
