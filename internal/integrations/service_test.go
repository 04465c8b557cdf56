package integrations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/photomemories/backend/internal/models"
)

type fakeProvider struct {
	source models.PhotoSource
	photos []ExternalPhoto
	err    error
}

func (f *fakeProvider) Source() models.PhotoSource { return f.source }

func (f *fakeProvider) ListRecent(ctx context.Context, accessToken string, since *time.Time) ([]ExternalPhoto, error) {
	return f.photos, f.err
}

type fakeStore struct {
	connected map[models.PhotoSource]bool
	seen      map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{connected: make(map[models.PhotoSource]bool), seen: make(map[string]bool)}
}

func (f *fakeStore) SetConnected(ctx context.Context, userID uuid.UUID, source models.PhotoSource, connected bool) error {
	f.connected[source] = connected
	return nil
}

func (f *fakeStore) ImportPhoto(ctx context.Context, userID uuid.UUID, source models.PhotoSource, ext ExternalPhoto) (*models.Photo, bool, error) {
	if f.seen[ext.ExternalID] {
		return nil, false, nil
	}
	f.seen[ext.ExternalID] = true
	return &models.Photo{ID: uuid.New(), ExternalID: &ext.ExternalID}, true, nil
}

func TestImport_SkipsAlreadyImported(t *testing.T) {
	store := newFakeStore()
	provider := &fakeProvider{
		source: models.PhotoSourceGooglePhotos,
		photos: []ExternalPhoto{
			{ExternalID: "g-1", FileName: "a.jpg"},
			{ExternalID: "g-2", FileName: "b.jpg"},
		},
	}
	svc := NewService(store, []Provider{provider}, nil)
	userID := uuid.New()

	first, err := svc.Import(context.Background(), userID, models.PhotoSourceGooglePhotos, "tok", nil)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if first.Imported != 2 || first.Skipped != 0 {
		t.Fatalf("first run = %+v", first)
	}

	provider.photos = append(provider.photos, ExternalPhoto{ExternalID: "g-3", FileName: "c.jpg"})
	second, err := svc.Import(context.Background(), userID, models.PhotoSourceGooglePhotos, "tok", nil)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if second.Imported != 1 || second.Skipped != 2 {
		t.Fatalf("second run = %+v", second)
	}
}

func TestImport_UnknownProvider(t *testing.T) {
	svc := NewService(newFakeStore(), nil, nil)
	if _, err := svc.Import(context.Background(), uuid.New(), models.PhotoSourceGooglePhotos, "tok", nil); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("err = %v, want ErrUnknownProvider", err)
	}
}

func TestImport_UnconfiguredProviderFailsClearly(t *testing.T) {
	svc := NewService(newFakeStore(), []Provider{Unavailable{Kind: models.PhotoSourceOneDrive}}, nil)
	if _, err := svc.Import(context.Background(), uuid.New(), models.PhotoSourceOneDrive, "tok", nil); !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("err = %v, want ErrProviderUnavailable", err)
	}
}

func TestConnectDisconnect(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, []Provider{&fakeProvider{source: models.PhotoSourceGooglePhotos}}, nil)
	userID := uuid.New()

	if err := svc.Connect(context.Background(), userID, models.PhotoSourceGooglePhotos); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !store.connected[models.PhotoSourceGooglePhotos] {
		t.Fatal("connection flag not set")
	}
	if err := svc.Disconnect(context.Background(), userID, models.PhotoSourceGooglePhotos); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if store.connected[models.PhotoSourceGooglePhotos] {
		t.Fatal("connection flag not cleared")
	}
	if err := svc.Connect(context.Background(), userID, models.PhotoSourceUpload); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("err = %v, want ErrUnknownProvider", err)
	}
}
