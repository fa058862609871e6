package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atinyakov/WalletKeeper/internal/models"
	"github.com/atinyakov/WalletKeeper/internal/service"
)

// statusFor maps provider errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidCredential), errors.Is(err, models.ErrAuthenticationFailed):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrAuthenticationCancelled):
		return http.StatusRequestTimeout
	case errors.Is(err, models.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, models.ErrStorageLocked):
		return http.StatusLocked
	case errors.Is(err, models.ErrBiometricsUnavailable):
		return http.StatusPreconditionFailed
	case errors.Is(err, models.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrKeysNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrSamePin):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
