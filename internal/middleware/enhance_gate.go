package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/photomemories/backend/internal/ledger"
	"github.com/photomemories/backend/internal/models"
)

// EntitlementChecker reports whether the account can pay for an enhancement.
type EntitlementChecker interface {
	SubscriptionStatus(ctx context.Context, userID uuid.UUID) (*ledger.SubscriptionStatus, error)
}

// enhanceRequest is the slice of the create-job body the gate needs.
type enhanceRequest struct {
	JobType            models.JobType `json:"jobType"`
	AdditionalPhotoIDs []uuid.UUID    `json:"additionalPhotoIds"`
}

// EnhanceGate rejects enhancement requests early: unknown job types, montages
// with fewer than two photos, and accounts with nothing left to spend. It
// reads the body to extract the job type, then replaces r.Body so the handler
// can re-read it. The authoritative charge still happens inside the create-job
// transaction; this gate only saves the round trip for requests that cannot
// possibly succeed.
func EnhanceGate(entitlements EntitlementChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromCtx(r.Context())
			if user == nil {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}

			bodyBytes, err := io.ReadAll(r.Body)
			r.Body.Close()
			if err != nil {
				http.Error(w, `{"error":"failed to read body"}`, http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))

			var req enhanceRequest
			if err := json.Unmarshal(bodyBytes, &req); err != nil {
				http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
				return
			}
			if !req.JobType.Valid() {
				http.Error(w, `{"error":"unknown job type"}`, http.StatusBadRequest)
				return
			}
			if req.JobType == models.JobMultiPhotoMontage && 1+len(req.AdditionalPhotoIDs) < 2 {
				http.Error(w, `{"error":"montage requires at least 2 photos"}`, http.StatusBadRequest)
				return
			}

			status, err := entitlements.SubscriptionStatus(r.Context(), user.ID)
			if err != nil {
				http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
				return
			}
			if !status.CanEnhance {
				http.Error(w, `{"error":"insufficient credits"}`, http.StatusBadRequest)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
