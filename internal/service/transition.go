// Package service implements the wallet security provider: the state
// machine that owns the storage handles and gates everything else on the
// wallet status.
package service

import (
	"fmt"

	"github.com/atinyakov/WalletKeeper/internal/models"
)

// Event drives a wallet status transition.
type Event string

const (
	// EventNoKeysFound: permanent storage is empty, the user is onboarding.
	EventNoKeysFound Event = "no_keys_found"
	// EventKeysFound: permanent storage exists, keys must be derived.
	EventKeysFound Event = "keys_found"
	// EventUnlocked: keys were derived and the permanent handles bound.
	EventUnlocked Event = "unlocked"
	// EventMigrated: onboarding data moved to permanent storage.
	EventMigrated Event = "onboarding_migrated"
	// EventMigrationFailed: onboarding migration failed and the app was reset.
	EventMigrationFailed Event = "onboarding_migration_failed"
	// EventLock: the user or auto-lock locked the wallet.
	EventLock Event = "lock"
	// EventReset: every store was cleared.
	EventReset Event = "reset"
)

// Transition returns the status reached from current on ev, or
// models.ErrInvalidTransition when ev is not allowed in current.
func Transition(current models.WalletStatus, ev Event) (models.WalletStatus, error) {
	switch ev {
	case EventReset:
		return models.FirstTimeAccess, nil
	case EventNoKeysFound:
		if current == models.NotInitialised {
			return models.FirstTimeAccess, nil
		}
	case EventKeysFound:
		if current == models.NotInitialised {
			return models.Locked, nil
		}
	case EventUnlocked:
		if current == models.NotInitialised || current == models.Locked {
			return models.Unlocked, nil
		}
	case EventMigrated:
		if current == models.FirstTimeAccess {
			return models.Unlocked, nil
		}
	case EventMigrationFailed:
		if current == models.FirstTimeAccess {
			return models.FirstTimeAccess, nil
		}
	case EventLock:
		if current == models.Unlocked {
			return models.NotInitialised, nil
		}
	}
	return current, fmt.Errorf("%w: %s on %s", models.ErrInvalidTransition, ev, current)
}
