package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/atinyakov/WalletKeeper/internal/models"
	"github.com/atinyakov/WalletKeeper/internal/service"
)

// WalletService defines the provider operations required by the
// WalletHandler.
type WalletService interface {
	// Context returns a snapshot of the provider state.
	Context() service.State
	// Initialise moves the wallet out of NotInitialised.
	Initialise(ctx context.Context) error
	// Unlock derives the keys with pin, or a biometric prompt when empty.
	Unlock(ctx context.Context, pin string) error
	// MigrateOnboarding commits onboarding under level.
	MigrateOnboarding(ctx context.Context, level models.SecurityLevel, pin string) error
	// ResetApplication wipes every store and restarts onboarding.
	ResetApplication(ctx context.Context) error
	// LockApplication drops the permanent handles.
	LockApplication()
	// UpdateSecurityMethod re-seals the keys for a new method.
	UpdateSecurityMethod(ctx context.Context, currentPin, newPin string) error
	// SetIsAppReady records that the consumers finished loading.
	SetIsAppReady(ready bool)
}

// WalletHandler handles HTTP requests driving the wallet state machine.
// Every successful call answers with the resulting state.
type WalletHandler struct {
	Wallet WalletService
}

// PinRequest is the JSON payload of unlock.
type PinRequest struct {
	Pin string `json:"pin"`
}

// OnboardingRequest is the JSON payload of onboarding.
type OnboardingRequest struct {
	// SecurityType is NONE, SECRET or BIOMETRIC.
	SecurityType string `json:"securityType"`
	Pin          string `json:"pin"`
}

// SecurityRequest is the JSON payload of a security method change.
// An empty NewPin switches to biometrics.
type SecurityRequest struct {
	CurrentPin string `json:"currentPin"`
	NewPin     string `json:"newPin"`
}

// ReadyRequest is the JSON payload of ready.
type ReadyRequest struct {
	Ready bool `json:"ready"`
}

// decode reads an optional JSON body into v. An empty body leaves v as is.
func decode(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (h *WalletHandler) respond(w http.ResponseWriter, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, h.Wallet.Context())
}

// Status handles GET /api/status and returns the provider state.
func (h *WalletHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Wallet.Context())
}

// Init handles POST /api/init.
func (h *WalletHandler) Init(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.Wallet.Initialise(r.Context()))
}

// Unlock handles POST /api/unlock. It expects an optional JSON body with a
// "pin" field; without one a biometric prompt is shown.
func (h *WalletHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	var req PinRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	h.respond(w, h.Wallet.Unlock(r.Context(), req.Pin))
}

// Onboarding handles POST /api/onboarding: it migrates the onboarding
// state to permanent storage under the chosen security type. A failed
// migration that reset the application answers 200 with migrationFailed set.
func (h *WalletHandler) Onboarding(w http.ResponseWriter, r *http.Request) {
	var req OnboardingRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	level, err := models.ParseSecurityLevel(req.SecurityType)
	if err != nil {
		http.Error(w, "invalid security type", http.StatusBadRequest)
		return
	}
	err = h.Wallet.MigrateOnboarding(r.Context(), level, req.Pin)
	if errors.Is(err, models.ErrMigrationFailure) && h.Wallet.Context().MigrationFailed {
		// the application was reset; the client restarts onboarding
		writeJSON(w, h.Wallet.Context())
		return
	}
	h.respond(w, err)
}

// Reset handles POST /api/reset.
func (h *WalletHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.Wallet.ResetApplication(r.Context()))
}

// Lock handles POST /api/lock.
func (h *WalletHandler) Lock(w http.ResponseWriter, r *http.Request) {
	h.Wallet.LockApplication()
	h.respond(w, nil)
}

// Security handles POST /api/security and changes the unlock method.
func (h *WalletHandler) Security(w http.ResponseWriter, r *http.Request) {
	var req SecurityRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	h.respond(w, h.Wallet.UpdateSecurityMethod(r.Context(), req.CurrentPin, req.NewPin))
}

// Ready handles POST /api/ready.
func (h *WalletHandler) Ready(w http.ResponseWriter, r *http.Request) {
	req := ReadyRequest{Ready: true}
	if err := decode(r, &req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	h.Wallet.SetIsAppReady(req.Ready)
	h.respond(w, nil)
}
