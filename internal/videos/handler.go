package videos

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/photomemories/backend/internal/middleware"
	"github.com/photomemories/backend/internal/models"
	"github.com/photomemories/backend/internal/storage"
)

// maxUploadBytes caps a single video upload.
const maxUploadBytes = 500 << 20

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

// Upload accepts a multipart form with a "file" part and optional metadata
// fields (durationSeconds, dateTaken RFC3339, description).
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, `{"error":"invalid multipart form"}`, http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, `{"error":"missing file"}`, http.StatusBadRequest)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, `{"error":"failed to read file"}`, http.StatusBadRequest)
		return
	}

	up := Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}
	if raw := r.FormValue("durationSeconds"); raw != "" {
		if d, err := strconv.ParseFloat(raw, 64); err == nil && d >= 0 {
			up.DurationSeconds = d
		}
	}
	if raw := r.FormValue("dateTaken"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, `{"error":"dateTaken must be RFC3339"}`, http.StatusBadRequest)
			return
		}
		up.DateTaken = &ts
	}
	if v := r.FormValue("description"); v != "" {
		up.Description = &v
	}

	video, err := h.svc.Upload(r.Context(), user.ID, up)
	if err != nil {
		h.writeError(w, err, "upload video")
		return
	}
	respondJSON(w, http.StatusCreated, video)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	list, err := h.svc.List(r.Context(), user.ID)
	if err != nil {
		h.writeError(w, err, "list videos")
		return
	}
	if list == nil {
		list = []*models.Video{}
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	user, videoID, ok := h.userAndID(w, r)
	if !ok {
		return
	}
	video, err := h.svc.Get(r.Context(), user.ID, videoID)
	if err != nil {
		h.writeError(w, err, "get video")
		return
	}
	respondJSON(w, http.StatusOK, video)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	user, videoID, ok := h.userAndID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), user.ID, videoID); err != nil {
		h.writeError(w, err, "delete video")
		return
	}
	w.WriteHeader(http.StatusNoContent)
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
	case errors.Is(err, ErrUnsupportedType):
		http.Error(w, `{"error":"unsupported video type"}`, http.StatusBadRequest)
	case errors.Is(err, ErrEmptyUpload):
		http.Error(w, `{"error":"empty upload"}`, http.StatusBadRequest)
	case errors.Is(err, storage.ErrStorageDisabled):
		http.Error(w, `{"error":"blob storage is not configured"}`, http.StatusServiceUnavailable)
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
