// Package onboarding moves the state collected during onboarding from the
// temporary, ephemerally keyed area into permanent encrypted storage.
package onboarding

import (
	"context"
	"fmt"

	"github.com/atinyakov/WalletKeeper/internal/models"
	"github.com/atinyakov/WalletKeeper/internal/storage"
)

// Params describes a single migration.
type Params struct {
	// OnboardingStorage is the temporary area, sealed with OnboardingKey.
	OnboardingStorage storage.Area
	// EncryptedStorage is the permanent area, sealed with EncryptionKey.
	EncryptedStorage storage.Area
	EncryptionKey    string
	OnboardingKey    string
}

// MigrateState re-encrypts every onboarding entry under the permanent key.
// Any error is wrapped with models.ErrMigrationFailure; the caller must
// treat a failed migration as unrecoverable and reset, since some entries
// may already have been copied.
func MigrateState(ctx context.Context, p Params) error {
	src, err := storage.NewEncrypted(p.OnboardingStorage, p.OnboardingKey)
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrMigrationFailure, err)
	}
	dst, err := storage.NewEncrypted(p.EncryptedStorage, p.EncryptionKey)
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrMigrationFailure, err)
	}

	keys, err := src.GetAllKeys(ctx)
	if err != nil {
		return fmt.Errorf("%w: list onboarding keys: %w", models.ErrMigrationFailure, err)
	}

	for _, key := range keys {
		value, err := src.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("%w: read %s: %w", models.ErrMigrationFailure, key, err)
		}
		if err := dst.Set(ctx, key, value); err != nil {
			return fmt.Errorf("%w: write %s: %w", models.ErrMigrationFailure, key, err)
		}
	}
	return nil
}

// Prune deletes every key of the onboarding area.
func Prune(ctx context.Context, area storage.Area) error {
	keys, err := area.GetAllKeys(ctx)
	if err != nil {
		return fmt.Errorf("list %s keys: %w", area.Name(), err)
	}
	for _, key := range keys {
		if err := area.Delete(ctx, key); err != nil {
			return fmt.Errorf("prune %s/%s: %w", area.Name(), key, err)
		}
	}
	return nil
}
