package keys

import (
	"context"
	"errors"

	"github.com/atinyakov/WalletKeeper/internal/keychain"
	"github.com/atinyakov/WalletKeeper/internal/models"
	"go.uber.org/zap"
)

const backupSlot = "security_upgrade_backup"

// Backup keeps a copy of the key set while the security method is being
// changed, sealed under the credential that was active before the change.
// If the change is interrupted, unlocking with that credential restores it.
type Backup struct {
	slot slot
	log  *zap.Logger
}

// NewBackup creates a Backup sharing the helper's keychain and KDF cost.
func NewBackup(h *Helper) *Backup {
	return &Backup{slot: slot{kc: h.keychain(), kdf: h.slot.kdf, name: backupSlot}, log: h.log}
}

// Get returns the backed-up keys, or nil when there is no PIN-sealed
// backup or pin does not open it. It never shows a biometric prompt.
func (b *Backup) Get(ctx context.Context, pin string) (*models.StorageEncryptionKeys, error) {
	access, err := b.slot.kc.Access(ctx, b.slot.name)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if access == keychain.AccessBiometric {
		return nil, nil
	}

	keys, level, err := b.slot.read(ctx, pin, "")
	switch {
	case err == nil && level == models.SecuritySecret:
		return keys, nil
	case err == nil, errors.Is(err, models.ErrKeysNotFound), errors.Is(err, models.ErrInvalidCredential):
		return nil, nil
	default:
		return nil, err
	}
}

// Save writes keys to the backup slot sealed for level.
func (b *Backup) Save(ctx context.Context, keys *models.StorageEncryptionKeys, level models.SecurityLevel, pin string) error {
	if err := b.slot.write(ctx, keys, level, pin); err != nil {
		return err
	}
	b.log.Debug("security upgrade backup written", zap.String("level", string(level)))
	return nil
}

// Clear removes the backup.
func (b *Backup) Clear(ctx context.Context) error {
	return b.slot.remove(ctx)
}

// Exists reports whether a backup is present.
func (b *Backup) Exists(ctx context.Context) (bool, error) {
	return b.slot.exists(ctx)
}
