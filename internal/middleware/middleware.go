// Package middleware provides HTTP middlewares for request logging,
// activity tracking and gating on the wallet status.
package middleware

import (
	"net/http"
	"slices"
	"time"

	"github.com/atinyakov/WalletKeeper/internal/models"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries the id assigned to each request.
const RequestIDHeader = "X-Request-ID"

// WithRequestLogging logs every request with its method, path, response
// status and duration. Each request gets an id, echoed in RequestIDHeader.
func WithRequestLogging(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.Info("request",
				zap.String("id", id),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("size", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// Toucher records user activity.
type Toucher interface {
	Touch()
}

// WithActivity counts every request as user activity, postponing auto-lock.
func WithActivity(t Toucher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Touch()
			next.ServeHTTP(w, r)
		})
	}
}

// StatusSource reports the current wallet status.
type StatusSource interface {
	Status() models.WalletStatus
}

// RequireStatus rejects requests with 423 Locked unless the wallet is in one
// of allowed.
func RequireStatus(s StatusSource, allowed ...models.WalletStatus) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if st := s.Status(); !slices.Contains(allowed, st) {
				http.Error(w, "wallet is "+st.String(), http.StatusLocked)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
