package router

import (
	"net/http"

	"github.com/photomemories/backend/internal/albums"
	"github.com/photomemories/backend/internal/auth"
	"github.com/photomemories/backend/internal/enhancements"
	"github.com/photomemories/backend/internal/integrations"
	"github.com/photomemories/backend/internal/photos"
	"github.com/photomemories/backend/internal/videos"
)

// Middleware wraps a handler, e.g. the auth or entitlement check.
type Middleware func(http.Handler) http.Handler

// New returns an http.Handler serving the API under /api.
// All routes except auth require a bearer token; POST /api/enhancements/jobs
// additionally passes through the entitlement gate before the handler runs.
func New(
	authHandler *auth.Handler,
	photosHandler *photos.Handler,
	videosHandler *videos.Handler,
	albumsHandler *albums.Handler,
	enhHandler *enhancements.Handler,
	integrationsHandler *integrations.Handler,
	authMW Middleware,
	gateMW Middleware,
) http.Handler {
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/external", authHandler.ExternalLogin)

	authed := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, authMW(h))
	}

	// Profile
	authed("GET /api/auth/me", authHandler.Me)
	authed("PATCH /api/auth/me", authHandler.UpdateProfile)

	// Photos
	authed("POST /api/photos", photosHandler.Upload)
	authed("POST /api/photos/upload-url", photosHandler.UploadURL)
	authed("GET /api/photos", photosHandler.List)
	authed("GET /api/photos/by-person/{name}", photosHandler.ByPerson)
	authed("GET /api/photos/by-date", photosHandler.ByDate)
	authed("GET /api/photos/{id}", photosHandler.Get)
	authed("PATCH /api/photos/{id}", photosHandler.Update)
	authed("DELETE /api/photos/{id}", photosHandler.Delete)
	authed("POST /api/photos/{id}/people", photosHandler.TagPerson)
	authed("GET /api/photos/{id}/people", photosHandler.ListTags)
	authed("DELETE /api/photos/people/{tagId}", photosHandler.RemoveTag)
	authed("GET /api/people", photosHandler.ListPeople)

	// Videos
	authed("POST /api/videos", videosHandler.Upload)
	authed("GET /api/videos", videosHandler.List)
	authed("GET /api/videos/{id}", videosHandler.Get)
	authed("DELETE /api/videos/{id}", videosHandler.Delete)

	// Albums
	authed("POST /api/albums", albumsHandler.Create)
	authed("GET /api/albums", albumsHandler.List)
	authed("GET /api/albums/{id}", albumsHandler.Get)
	authed("PATCH /api/albums/{id}", albumsHandler.Update)
	authed("DELETE /api/albums/{id}", albumsHandler.Delete)
	authed("POST /api/albums/{id}/photos", albumsHandler.AddPhoto)
	authed("GET /api/albums/{id}/photos", albumsHandler.ListPhotos)
	authed("DELETE /api/albums/{id}/photos/{photoId}", albumsHandler.RemovePhoto)

	// Enhancements. The generic create endpoint gets the entitlement gate;
	// the shorthand endpoints build their own request and charge in-tx anyway.
	mux.Handle("POST /api/enhancements/jobs", authMW(gateMW(http.HandlerFunc(enhHandler.CreateJob))))
	authed("GET /api/enhancements/jobs", enhHandler.ListJobs)
	authed("GET /api/enhancements/jobs/{id}", enhHandler.GetJob)
	authed("POST /api/enhancements/jobs/{id}/cancel", enhHandler.CancelJob)
	authed("POST /api/enhancements/colorize/{photoId}", enhHandler.Colorize)
	authed("POST /api/enhancements/restore/{photoId}", enhHandler.Restore)
	authed("POST /api/enhancements/animate/{photoId}", enhHandler.Animate)
	authed("POST /api/enhancements/montage", enhHandler.Montage)
	authed("GET /api/enhancements/subscription", enhHandler.GetSubscription)
	authed("POST /api/enhancements/purchase-credits", enhHandler.PurchaseCredits)
	authed("POST /api/enhancements/subscribe", enhHandler.Subscribe)

	// Integrations
	authed("GET /api/integrations/status", integrationsHandler.Status)
	authed("POST /api/integrations/{provider}/connect", integrationsHandler.Connect)
	authed("POST /api/integrations/{provider}/disconnect", integrationsHandler.Disconnect)
	authed("GET /api/integrations/{provider}/photos", integrationsHandler.ListAvailable)
	authed("POST /api/integrations/{provider}/import", integrationsHandler.Import)

	return mux
}
