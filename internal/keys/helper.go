// Package keys manages the storage encryption key set: generating it,
// sealing it under the chosen security level and deriving it back from a
// PIN or a biometric prompt.
package keys

import (
	"context"
	"errors"
	"fmt"

	"github.com/atinyakov/WalletKeeper/internal/keychain"
	"github.com/atinyakov/WalletKeeper/internal/models"
	"github.com/atinyakov/WalletKeeper/internal/storage"
	"go.uber.org/zap"
)

const (
	storageKeysSlot = "storage_encryption_keys"
	unlockPrompt    = "Unlock your wallet"
)

// Helper owns the StorageEncryptionKeys set in the keychain.
type Helper struct {
	slot slot
	log  *zap.Logger
}

// NewHelper creates a Helper backed by kc.
func NewHelper(kc *keychain.Keychain, kdf KDFParams, log *zap.Logger) *Helper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Helper{slot: slot{kc: kc, kdf: kdf, name: storageKeysSlot}, log: log}
}

// Get derives the key set. PIN-sealed keys need pin; biometric keys show a
// prompt and ignore pin. It fails with models.ErrAuthenticationCancelled
// when the prompt is dismissed and models.ErrInvalidCredential when the
// keys cannot be opened.
func (h *Helper) Get(ctx context.Context, pin string) (*models.StorageEncryptionKeys, error) {
	keys, level, err := h.slot.read(ctx, pin, unlockPrompt)
	if err != nil {
		h.log.Debug("get encryption keys failed", zap.String("level", string(level)), zap.Error(err))
		return nil, err
	}
	return keys, nil
}

// Set stores keys sealed for level. A SECRET level requires pin.
func (h *Helper) Set(ctx context.Context, keys *models.StorageEncryptionKeys, level models.SecurityLevel, pin string) error {
	if err := h.slot.write(ctx, keys, level, pin); err != nil {
		return fmt.Errorf("set encryption keys: %w", err)
	}
	h.log.Info("encryption keys stored", zap.String("level", string(level)))
	return nil
}

// Init generates a fresh key set, one 256-bit key per permanent area plus
// the user key, and stores it sealed for level.
func (h *Helper) Init(ctx context.Context, level models.SecurityLevel, pin string) (*models.StorageEncryptionKeys, error) {
	keys := &models.StorageEncryptionKeys{}
	for _, dst := range []*string{&keys.Redux, &keys.Images, &keys.Metadata, &keys.UserKey} {
		k, err := storage.GenerateKey()
		if err != nil {
			return nil, err
		}
		*dst = k
	}
	if err := h.Set(ctx, keys, level, pin); err != nil {
		return nil, err
	}
	return keys, nil
}

// Remove deletes the stored key set.
func (h *Helper) Remove(ctx context.Context) error {
	return h.slot.remove(ctx)
}

// Exists reports whether a key set is stored.
func (h *Helper) Exists(ctx context.Context) (bool, error) {
	return h.slot.exists(ctx)
}

// ValidatePin reports whether pin opens the stored keys.
func (h *Helper) ValidatePin(ctx context.Context, pin string) (bool, error) {
	_, err := h.Get(ctx, pin)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, models.ErrInvalidCredential):
		return false, nil
	default:
		return false, err
	}
}

func (h *Helper) keychain() *keychain.Keychain { return h.slot.kc }
