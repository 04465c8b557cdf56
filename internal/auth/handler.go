package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/photomemories/backend/internal/middleware"
	"github.com/photomemories/backend/internal/models"
)

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ExternalLoginRequest struct {
	Provider          models.AuthProvider `json:"provider"`
	ExternalID        string              `json:"externalId"`
	Email             string              `json:"email"`
	DisplayName       string              `json:"displayName"`
	ProfilePictureURL *string             `json:"profilePictureUrl,omitempty"`
}

type UpdateProfileRequest struct {
	DisplayName       *string `json:"displayName,omitempty"`
	ProfilePictureURL *string `json:"profilePictureUrl,omitempty"`
	AutoSyncEnabled   *bool   `json:"autoSyncEnabled,omitempty"`
}

// AuthResponse carries the session token and the signed-in user. The refresh
// token is opaque and not yet honored server-side; clients re-login through
// their provider when the session token expires.
type AuthResponse struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
	User         *models.User `json:"user"`
}

func newAuthResponse(token string, user *models.User) AuthResponse {
	return AuthResponse{Token: token, RefreshToken: uuid.NewString(), User: user}
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

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" || req.DisplayName == "" {
		http.Error(w, `{"error":"missing required fields"}`, http.StatusBadRequest)
		return
	}
	user, token, err := h.svc.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			http.Error(w, `{"error":"email already registered"}`, http.StatusConflict)
			return
		}
		h.log.Error("register failed", "error", err)
		http.Error(w, `{"error":"registration failed"}`, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusCreated, newAuthResponse(token, user))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, `{"error":"missing email or password"}`, http.StatusBadRequest)
		return
	}
	user, token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
			return
		}
		h.log.Error("login failed", "error", err)
		http.Error(w, `{"error":"login failed"}`, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, newAuthResponse(token, user))
}

// ExternalLogin exchanges a provider identity for a session token, creating
// the account on first sight.
func (h *Handler) ExternalLogin(w http.ResponseWriter, r *http.Request) {
	var req ExternalLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.ExternalID == "" || req.Email == "" {
		http.Error(w, `{"error":"missing required fields"}`, http.StatusBadRequest)
		return
	}
	user, token, err := h.svc.LoginExternal(r.Context(), ExternalLogin{
		Provider:          req.Provider,
		ExternalID:        req.ExternalID,
		Email:             req.Email,
		DisplayName:       req.DisplayName,
		ProfilePictureURL: req.ProfilePictureURL,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidProvider):
			http.Error(w, `{"error":"invalid auth provider"}`, http.StatusBadRequest)
		case errors.Is(err, ErrEmailConflict):
			http.Error(w, `{"error":"email already registered with a different sign-in method"}`, http.StatusConflict)
		default:
			h.log.Error("external login failed", "error", err)
			http.Error(w, `{"error":"login failed"}`, http.StatusInternalServerError)
		}
		return
	}
	respondJSON(w, http.StatusOK, newAuthResponse(token, user))
}

// Me returns the authenticated user's profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	updated, err := h.svc.UpdateProfile(r.Context(), user.ID, req.DisplayName, req.ProfilePictureURL, req.AutoSyncEnabled)
	if err != nil {
		h.log.Error("update profile failed", "error", err)
		http.Error(w, `{"error":"update failed"}`, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func respondJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
