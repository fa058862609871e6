package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/atinyakov/WalletKeeper/internal/models"
	"github.com/atinyakov/WalletKeeper/internal/service"
	"github.com/atinyakov/WalletKeeper/internal/storage"
	"github.com/go-chi/chi/v5"
)

const maxValueSize = 1 << 20

// StateSource returns the storage handles currently bound by the provider.
type StateSource interface {
	Context() service.State
}

// StorageHandler serves the encrypted storage areas. Values are JSON
// documents stored verbatim; the redux area points at the onboarding
// storage until onboarding is migrated.
type StorageHandler struct {
	Source StateSource
}

func (h *StorageHandler) handle(r *http.Request) (*storage.EncryptedStorage, error) {
	area := models.StorageArea(chi.URLParam(r, "area"))
	switch area {
	case models.AreaRedux, models.AreaImages, models.AreaMetadata:
	default:
		return nil, fmt.Errorf("%w: unknown storage area %q", models.ErrNotFound, area)
	}
	s := h.Source.Context().Handle(area)
	if s == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrStorageLocked, area)
	}
	return s, nil
}

// List handles GET /api/storage/{area} and returns the stored keys.
func (h *StorageHandler) List(w http.ResponseWriter, r *http.Request) {
	s, err := h.handle(r)
	if err != nil {
		writeError(w, err)
		return
	}
	keys, err := s.GetAllKeys(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"keys": keys})
}

// Get handles GET /api/storage/{area}/{key}.
func (h *StorageHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.handle(r)
	if err != nil {
		writeError(w, err)
		return
	}
	value, err := s.Get(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(value)
}

// Put handles PUT /api/storage/{area}/{key}. The body must be valid JSON.
func (h *StorageHandler) Put(w http.ResponseWriter, r *http.Request) {
	s, err := h.handle(r)
	if err != nil {
		writeError(w, err)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxValueSize))
	if err != nil || !json.Valid(body) {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := s.Set(r.Context(), chi.URLParam(r, "key"), body); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/storage/{area}/{key}.
func (h *StorageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	s, err := h.handle(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.Delete(r.Context(), chi.URLParam(r, "key")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
