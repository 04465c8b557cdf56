package enhancements

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/photomemories/backend/internal/ledger"
	"github.com/photomemories/backend/internal/middleware"
	"github.com/photomemories/backend/internal/models"
)

type CreateJobRequest struct {
	JobType            models.JobType             `json:"jobType"`
	SourcePhotoID      *uuid.UUID                 `json:"sourcePhotoId,omitempty"`
	SourceVideoID      *uuid.UUID                 `json:"sourceVideoId,omitempty"`
	AdditionalPhotoIDs []uuid.UUID                `json:"additionalPhotoIds,omitempty"`
	Options            *models.EnhancementOptions `json:"options,omitempty"`
}

type PurchaseCreditsRequest struct {
	CreditPackage int `json:"creditPackage"`
}

type SubscribeRequest struct {
	Tier models.SubscriptionTier `json:"tier"`
}

type Handler struct {
	svc    Service
	ledger ledger.Service
	log    *slog.Logger
}

func NewHandler(svc Service, ledgerSvc ledger.Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, ledger: ledgerSvc, log: log}
}

func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	h.createAndRespond(w, r, user.ID, NewJob{
		JobType:            req.JobType,
		SourcePhotoID:      req.SourcePhotoID,
		SourceVideoID:      req.SourceVideoID,
		AdditionalPhotoIDs: req.AdditionalPhotoIDs,
		Options:            req.Options,
	})
}

// Colorize is the shorthand for POST /enhancements/colorize/{photoId}.
func (h *Handler) Colorize(w http.ResponseWriter, r *http.Request) {
	h.photoShorthand(w, r, models.JobColorize)
}

// Restore is the shorthand for POST /enhancements/restore/{photoId}.
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	h.photoShorthand(w, r, models.JobRestoreQuality)
}

// Animate is the shorthand for POST /enhancements/animate/{photoId}. Options
// may be supplied in the body; an empty body is fine.
func (h *Handler) Animate(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	photoID, err := uuid.Parse(r.PathValue("photoId"))
	if err != nil {
		http.Error(w, `{"error":"invalid photo id"}`, http.StatusBadRequest)
		return
	}
	// An empty body is fine; malformed JSON is not.
	var opts models.EnhancementOptions
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	h.createAndRespond(w, r, user.ID, NewJob{
		JobType:       models.JobSinglePhotoAnimation,
		SourcePhotoID: &photoID,
		Options:       &opts,
	})
}

// Montage is the shorthand for POST /enhancements/montage: the first photo id
// becomes the source and the rest ride along as additional photos.
func (h *Handler) Montage(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req struct {
		PhotoIDs []uuid.UUID                `json:"photoIds"`
		Options  *models.EnhancementOptions `json:"options,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if len(req.PhotoIDs) < 2 {
		http.Error(w, `{"error":"montage requires at least 2 photos"}`, http.StatusBadRequest)
		return
	}
	h.createAndRespond(w, r, user.ID, NewJob{
		JobType:            models.JobMultiPhotoMontage,
		SourcePhotoID:      &req.PhotoIDs[0],
		AdditionalPhotoIDs: req.PhotoIDs[1:],
		Options:            req.Options,
	})
}

func (h *Handler) photoShorthand(w http.ResponseWriter, r *http.Request, jobType models.JobType) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	photoID, err := uuid.Parse(r.PathValue("photoId"))
	if err != nil {
		http.Error(w, `{"error":"invalid photo id"}`, http.StatusBadRequest)
		return
	}
	h.createAndRespond(w, r, user.ID, NewJob{JobType: jobType, SourcePhotoID: &photoID})
}

func (h *Handler) createAndRespond(w http.ResponseWriter, r *http.Request, userID uuid.UUID, req NewJob) {
	job, err := h.svc.CreateJob(r.Context(), userID, req)
	if err != nil {
		h.writeError(w, err, "create job")
		return
	}
	respondJSON(w, http.StatusCreated, job)
}

func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	jobID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid job id"}`, http.StatusBadRequest)
		return
	}
	job, err := h.svc.GetJob(r.Context(), user.ID, jobID)
	if err != nil {
		h.writeError(w, err, "get job")
		return
	}
	respondJSON(w, http.StatusOK, job)
}

func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var status *models.JobStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := models.JobStatus(raw)
		if !s.Valid() {
			http.Error(w, `{"error":"unknown status"}`, http.StatusBadRequest)
			return
		}
		status = &s
	}
	list, err := h.svc.ListJobs(r.Context(), user.ID, status)
	if err != nil {
		h.writeError(w, err, "list jobs")
		return
	}
	if list == nil {
		list = []*models.EnhancementJob{}
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *Handler) CancelJob(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	jobID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid job id"}`, http.StatusBadRequest)
		return
	}
	job, err := h.svc.CancelJob(r.Context(), user.ID, jobID)
	if err != nil {
		h.writeError(w, err, "cancel job")
		return
	}
	respondJSON(w, http.StatusOK, job)
}

// GetSubscription returns the account's entitlement snapshot.
func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	status, err := h.ledger.SubscriptionStatus(r.Context(), user.ID)
	if err != nil {
		h.writeError(w, err, "subscription status")
		return
	}
	respondJSON(w, http.StatusOK, status)
}

func (h *Handler) PurchaseCredits(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req PurchaseCreditsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	updated, err := h.ledger.PurchaseCredits(r.Context(), user.ID, req.CreditPackage)
	if err != nil {
		h.writeError(w, err, "purchase credits")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	updated, err := h.ledger.Subscribe(r.Context(), user.ID, req.Tier)
	if err != nil {
		h.writeError(w, err, "subscribe")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// writeError maps business failures to 4xx responses with stable reason
// strings; everything else is a logged 500.
func (h *Handler) writeError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, ErrInvalidJob):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ledger.ErrInvalidPackage), errors.Is(err, ledger.ErrInvalidTier):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ledger.ErrInsufficientCredits):
		writeJSONError(w, "insufficient credits", http.StatusBadRequest)
	case errors.Is(err, ErrNotFound), errors.Is(err, ledger.ErrUserNotFound):
		writeJSONError(w, "not found", http.StatusNotFound)
	case errors.Is(err, ErrAlreadyFinished):
		writeJSONError(w, "job already finished", http.StatusConflict)
	default:
		h.log.Error(op+" failed", "error", err)
		writeJSONError(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func respondJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
