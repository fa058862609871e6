// Package http provides HTTP routing and middleware configuration
// for the WalletKeeper control API.
package http

import (
	"net/http"

	"github.com/atinyakov/WalletKeeper/internal/middleware"
	"github.com/atinyakov/WalletKeeper/internal/models"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Tracker is the part of the provider the middleware chain needs.
type Tracker interface {
	middleware.Toucher
	middleware.StatusSource
}

// NewRouter constructs and returns an HTTP handler that serves
// the WalletKeeper API.
//
// Routes:
//
//	GET    /api/status                → walletHandler.Status
//	POST   /api/init                  → walletHandler.Init
//	POST   /api/unlock                → walletHandler.Unlock
//	POST   /api/onboarding            → walletHandler.Onboarding
//	POST   /api/reset                 → walletHandler.Reset
//	POST   /api/lock                  → walletHandler.Lock
//	POST   /api/security              → walletHandler.Security
//	POST   /api/ready                 → walletHandler.Ready
//	GET    /api/storage/{area}        → storageHandler.List
//	GET    /api/storage/{area}/{key}  → storageHandler.Get
//	PUT    /api/storage/{area}/{key}  → storageHandler.Put
//	DELETE /api/storage/{area}/{key}  → storageHandler.Delete
//
// Middleware chain (applied in order):
//  1. AllowContentType("application/json") rejects non-JSON bodies
//  2. WithRequestLogging(logger) logs incoming requests
//  3. WithActivity(tracker) postpones auto-lock
//  4. RequireStatus on /api/storage: only while onboarding or unlocked
func NewRouter(
	walletHandler *WalletHandler,
	storageHandler *StorageHandler,
	tracker Tracker,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(middleware.WithActivity(tracker))

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", walletHandler.Status)
		r.Post("/init", walletHandler.Init)
		r.Post("/unlock", walletHandler.Unlock)
		r.Post("/onboarding", walletHandler.Onboarding)
		r.Post("/reset", walletHandler.Reset)
		r.Post("/lock", walletHandler.Lock)
		r.Post("/security", walletHandler.Security)
		r.Post("/ready", walletHandler.Ready)

		r.Route("/storage/{area}", func(r chi.Router) {
			r.Use(middleware.RequireStatus(tracker, models.FirstTimeAccess, models.Unlocked))
			r.Get("/", storageHandler.List)
			r.Get("/{key}", storageHandler.Get)
			r.Put("/{key}", storageHandler.Put)
			r.Delete("/{key}", storageHandler.Delete)
		})
	})

	return r
}
