package photos

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

// maxUploadBytes caps a single photo upload.
const maxUploadBytes = 50 << 20

type UpdatePhotoRequest struct {
	Description *string    `json:"description,omitempty"`
	Location    *string    `json:"location,omitempty"`
	Tags        *string    `json:"tags,omitempty"`
	DateTaken   *time.Time `json:"dateTaken,omitempty"`
}

type UploadURLRequest struct {
	ContentType string `json:"contentType"`
}

type TagPersonRequest struct {
	PersonName string   `json:"personName"`
	FaceX      *float32 `json:"faceX,omitempty"`
	FaceY      *float32 `json:"faceY,omitempty"`
	FaceWidth  *float32 `json:"faceWidth,omitempty"`
	FaceHeight *float32 `json:"faceHeight,omitempty"`
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

// Upload accepts a multipart form with a "file" part and optional metadata
// fields (dateTaken RFC3339, location, description, tags, isBlackAndWhite).
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
		FileName:        header.Filename,
		ContentType:     header.Header.Get("Content-Type"),
		Data:            data,
		Location:        optionalFormValue(r, "location"),
		Description:     optionalFormValue(r, "description"),
		Tags:            optionalFormValue(r, "tags"),
		IsBlackAndWhite: r.FormValue("isBlackAndWhite") == "true",
	}
	if raw := r.FormValue("dateTaken"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, `{"error":"dateTaken must be RFC3339"}`, http.StatusBadRequest)
			return
		}
		up.DateTaken = &ts
	}

	photo, err := h.svc.Upload(r.Context(), user.ID, up)
	if err != nil {
		h.writeError(w, err, "upload photo")
		return
	}
	respondJSON(w, http.StatusCreated, photo)
}

// UploadURL hands out a presigned PUT for direct-to-storage uploads.
func (h *Handler) UploadURL(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req UploadURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	slot, err := h.svc.UploadURL(r.Context(), user.ID, req.ContentType)
	if err != nil {
		h.writeError(w, err, "presign upload")
		return
	}
	respondJSON(w, http.StatusOK, slot)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	q := r.URL.Query()
	opts := ListOptions{
		Search: q.Get("search"),
		Person: q.Get("person"),
		Limit:  intQuery(q.Get("limit"), 100),
		Offset: intQuery(q.Get("offset"), 0),
	}
	if raw := q.Get("source"); raw != "" {
		source := models.PhotoSource(raw)
		if !source.Valid() {
			http.Error(w, `{"error":"invalid source"}`, http.StatusBadRequest)
			return
		}
		opts.Source = source
	}
	if raw := q.Get("enhanced"); raw != "" {
		enhanced := raw == "true"
		opts.Enhanced = &enhanced
	}
	for _, f := range []struct {
		raw  string
		dest **time.Time
	}{
		{q.Get("from"), &opts.From},
		{q.Get("to"), &opts.To},
	} {
		if f.raw == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, f.raw)
		if err != nil {
			http.Error(w, `{"error":"from/to must be RFC3339"}`, http.StatusBadRequest)
			return
		}
		*f.dest = &ts
	}

	h.respondList(w, r, user.ID, opts)
}

// ByPerson lists the photos a tagged person appears in.
func (h *Handler) ByPerson(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	name := r.PathValue("name")
	if name == "" {
		http.Error(w, `{"error":"missing person name"}`, http.StatusBadRequest)
		return
	}
	q := r.URL.Query()
	h.respondList(w, r, user.ID, ListOptions{
		Person: name,
		Limit:  intQuery(q.Get("limit"), 100),
		Offset: intQuery(q.Get("offset"), 0),
	})
}

// ByDate lists photos within a from/to range (RFC3339, both optional).
func (h *Handler) ByDate(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	q := r.URL.Query()
	opts := ListOptions{
		Limit:  intQuery(q.Get("limit"), 100),
		Offset: intQuery(q.Get("offset"), 0),
	}
	for _, f := range []struct {
		raw  string
		dest **time.Time
	}{
		{q.Get("from"), &opts.From},
		{q.Get("to"), &opts.To},
	} {
		if f.raw == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, f.raw)
		if err != nil {
			http.Error(w, `{"error":"from/to must be RFC3339"}`, http.StatusBadRequest)
			return
		}
		*f.dest = &ts
	}
	h.respondList(w, r, user.ID, opts)
}

func (h *Handler) respondList(w http.ResponseWriter, r *http.Request, userID uuid.UUID, opts ListOptions) {
	list, err := h.svc.List(r.Context(), userID, opts)
	if err != nil {
		h.writeError(w, err, "list photos")
		return
	}
	if list == nil {
		list = []*models.Photo{}
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	user, photoID, ok := h.userAndID(w, r, "id")
	if !ok {
		return
	}
	photo, err := h.svc.Get(r.Context(), user.ID, photoID)
	if err != nil {
		h.writeError(w, err, "get photo")
		return
	}
	respondJSON(w, http.StatusOK, photo)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	user, photoID, ok := h.userAndID(w, r, "id")
	if !ok {
		return
	}
	var req UpdatePhotoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	photo, err := h.svc.Update(r.Context(), user.ID, photoID, UpdatePatch{
		Description: req.Description,
		Location:    req.Location,
		Tags:        req.Tags,
		DateTaken:   req.DateTaken,
	})
	if err != nil {
		h.writeError(w, err, "update photo")
		return
	}
	respondJSON(w, http.StatusOK, photo)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	user, photoID, ok := h.userAndID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), user.ID, photoID); err != nil {
		h.writeError(w, err, "delete photo")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) TagPerson(w http.ResponseWriter, r *http.Request) {
	user, photoID, ok := h.userAndID(w, r, "id")
	if !ok {
		return
	}
	var req TagPersonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.PersonName == "" {
		http.Error(w, `{"error":"missing personName"}`, http.StatusBadRequest)
		return
	}
	tag, err := h.svc.TagPerson(r.Context(), user.ID, photoID, NewTag{
		PersonName: req.PersonName,
		FaceX:      req.FaceX,
		FaceY:      req.FaceY,
		FaceWidth:  req.FaceWidth,
		FaceHeight: req.FaceHeight,
	})
	if err != nil {
		h.writeError(w, err, "tag person")
		return
	}
	respondJSON(w, http.StatusCreated, tag)
}

func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	user, photoID, ok := h.userAndID(w, r, "id")
	if !ok {
		return
	}
	tags, err := h.svc.ListTags(r.Context(), user.ID, photoID)
	if err != nil {
		h.writeError(w, err, "list tags")
		return
	}
	if tags == nil {
		tags = []*models.PersonTag{}
	}
	respondJSON(w, http.StatusOK, tags)
}

func (h *Handler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	user, tagID, ok := h.userAndID(w, r, "tagId")
	if !ok {
		return
	}
	if err := h.svc.RemoveTag(r.Context(), user.ID, tagID); err != nil {
		h.writeError(w, err, "remove tag")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListPeople returns the distinct tagged people with photo counts.
func (h *Handler) ListPeople(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	people, err := h.svc.ListPeople(r.Context(), user.ID)
	if err != nil {
		h.writeError(w, err, "list people")
		return
	}
	if people == nil {
		people = []PersonSummary{}
	}
	respondJSON(w, http.StatusOK, people)
}

func (h *Handler) userAndID(w http.ResponseWriter, r *http.Request, pathKey string) (*models.User, uuid.UUID, bool) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return nil, uuid.Nil, false
	}
	id, err := uuid.Parse(r.PathValue(pathKey))
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
		http.Error(w, `{"error":"unsupported image type"}`, http.StatusBadRequest)
	case errors.Is(err, ErrEmptyUpload):
		http.Error(w, `{"error":"empty upload"}`, http.StatusBadRequest)
	case errors.Is(err, storage.ErrStorageDisabled):
		http.Error(w, `{"error":"blob storage is not configured"}`, http.StatusServiceUnavailable)
	default:
		h.log.Error(op+" failed", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
	}
}

func optionalFormValue(r *http.Request, key string) *string {
	if v := r.FormValue(key); v != "" {
		return &v
	}
	return nil
}

func intQuery(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func respondJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
