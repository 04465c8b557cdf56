package integrations

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/photomemories/backend/internal/middleware"
	"github.com/photomemories/backend/internal/models"
)

type ImportRequest struct {
	AccessToken string     `json:"accessToken"`
	Since       *time.Time `json:"since,omitempty"`
}

type Handler struct {
	svc Service
	log *slog.Logger
}

func NewHandler(svc Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

// providerFromPath maps the {provider} path segment to a photo source.
func providerFromPath(r *http.Request) (models.PhotoSource, bool) {
	switch r.PathValue("provider") {
	case "google-photos":
		return models.PhotoSourceGooglePhotos, true
	case "onedrive":
		return models.PhotoSourceOneDrive, true
	}
	return "", false
}

func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	h.setConnection(w, r, true)
}

func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	h.setConnection(w, r, false)
}

func (h *Handler) setConnection(w http.ResponseWriter, r *http.Request, connect bool) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	source, ok := providerFromPath(r)
	if !ok {
		http.Error(w, `{"error":"unknown provider"}`, http.StatusNotFound)
		return
	}
	var err error
	if connect {
		err = h.svc.Connect(r.Context(), user.ID, source)
	} else {
		err = h.svc.Disconnect(r.Context(), user.ID, source)
	}
	if err != nil {
		h.writeError(w, err, "set connection")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Status reports the user's provider connection flags.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]bool{
		"googlePhotosConnected": user.GooglePhotosConnected,
		"oneDriveConnected":     user.OneDriveConnected,
		"autoSyncEnabled":       user.AutoSyncEnabled,
	})
}

// ListAvailable previews the provider's photos without importing them.
// The provider OAuth token arrives in X-Provider-Token; Authorization
// carries our own bearer token.
func (h *Handler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	source, ok := providerFromPath(r)
	if !ok {
		http.Error(w, `{"error":"unknown provider"}`, http.StatusNotFound)
		return
	}
	accessToken := r.Header.Get("X-Provider-Token")
	if accessToken == "" {
		http.Error(w, `{"error":"missing X-Provider-Token header"}`, http.StatusBadRequest)
		return
	}
	var since *time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, `{"error":"since must be RFC3339"}`, http.StatusBadRequest)
			return
		}
		since = &ts
	}
	photos, err := h.svc.ListAvailable(r.Context(), user.ID, source, accessToken, since)
	if err != nil {
		h.writeError(w, err, "list provider photos")
		return
	}
	if photos == nil {
		photos = []ExternalPhoto{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(photos)
}

func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	source, ok := providerFromPath(r)
	if !ok {
		http.Error(w, `{"error":"unknown provider"}`, http.StatusNotFound)
		return
	}
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.AccessToken == "" {
		http.Error(w, `{"error":"missing accessToken"}`, http.StatusBadRequest)
		return
	}
	result, err := h.svc.Import(r.Context(), user.ID, source, req.AccessToken, req.Since)
	if err != nil {
		h.writeError(w, err, "import photos")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(result)
}

func (h *Handler) writeError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, ErrUnknownProvider):
		http.Error(w, `{"error":"unknown provider"}`, http.StatusNotFound)
	case errors.Is(err, ErrProviderUnavailable):
		http.Error(w, `{"error":"provider is not configured"}`, http.StatusServiceUnavailable)
	default:
		h.log.Error(op+" failed", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
	}
}
