package albums

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/photomemories/backend/internal/middleware"
	"github.com/photomemories/backend/internal/models"
)

type CreateAlbumRequest struct {
	Name          string  `json:"name"`
	Description   *string `json:"description,omitempty"`
	CoverPhotoURL *string `json:"coverPhotoUrl,omitempty"`
}

type UpdateAlbumRequest struct {
	Name          *string `json:"name,omitempty"`
	Description   *string `json:"description,omitempty"`
	CoverPhotoURL *string `json:"coverPhotoUrl,omitempty"`
}

type AddPhotoRequest struct {
	PhotoID uuid.UUID `json:"photoId"`
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

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req CreateAlbumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	album, err := h.svc.Create(r.Context(), user.ID, req.Name, req.Description, req.CoverPhotoURL)
	if err != nil {
		h.writeError(w, err, "create album")
		return
	}
	respondJSON(w, http.StatusCreated, album)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	list, err := h.svc.List(r.Context(), user.ID)
	if err != nil {
		h.writeError(w, err, "list albums")
		return
	}
	if list == nil {
		list = []*models.Album{}
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	user, albumID, ok := h.userAndID(w, r)
	if !ok {
		return
	}
	album, err := h.svc.Get(r.Context(), user.ID, albumID)
	if err != nil {
		h.writeError(w, err, "get album")
		return
	}
	respondJSON(w, http.StatusOK, album)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	user, albumID, ok := h.userAndID(w, r)
	if !ok {
		return
	}
	var req UpdateAlbumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	album, err := h.svc.Update(r.Context(), user.ID, albumID, req.Name, req.Description, req.CoverPhotoURL)
	if err != nil {
		h.writeError(w, err, "update album")
		return
	}
	respondJSON(w, http.StatusOK, album)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	user, albumID, ok := h.userAndID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), user.ID, albumID); err != nil {
		h.writeError(w, err, "delete album")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AddPhoto(w http.ResponseWriter, r *http.Request) {
	user, albumID, ok := h.userAndID(w, r)
	if !ok {
		return
	}
	var req AddPhotoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PhotoID == uuid.Nil {
		http.Error(w, `{"error":"missing photoId"}`, http.StatusBadRequest)
		return
	}
	if err := h.svc.AddPhoto(r.Context(), user.ID, albumID, req.PhotoID); err != nil {
		h.writeError(w, err, "add photo to album")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RemovePhoto(w http.ResponseWriter, r *http.Request) {
	user, albumID, ok := h.userAndID(w, r)
	if !ok {
		return
	}
	photoID, err := uuid.Parse(r.PathValue("photoId"))
	if err != nil {
		http.Error(w, `{"error":"invalid photo id"}`, http.StatusBadRequest)
		return
	}
	if err := h.svc.RemovePhoto(r.Context(), user.ID, albumID, photoID); err != nil {
		h.writeError(w, err, "remove photo from album")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	user, albumID, ok := h.userAndID(w, r)
	if !ok {
		return
	}
	photos, err := h.svc.ListPhotos(r.Context(), user.ID, albumID)
	if err != nil {
		h.writeError(w, err, "list album photos")
		return
	}
	if photos == nil {
		photos = []*models.Photo{}
	}
	respondJSON(w, http.StatusOK, photos)
}

func (h *Handler) userAndID(w http.ResponseWriter, r *http.Request) (*models.User, uuid.UUID, bool) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return nil, uuid.Nil, false
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid id"}`, http.StatusBadRequest)
		return nil, uuid.Nil, false
	}
	return user, id, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	case errors.Is(err, ErrMissingName):
		http.Error(w, `{"error":"album name is required"}`, http.StatusBadRequest)
	default:
		h.log.Error(op+" failed", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
	}
}

func respondJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
