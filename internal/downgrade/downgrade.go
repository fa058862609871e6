// Package downgrade detects a drop in the device's biometric capability
// relative to the last level that was recorded.
package downgrade

import (
	"context"
	"fmt"

	"github.com/atinyakov/WalletKeeper/internal/models"
	"go.uber.org/zap"
)

// LevelStore persists the last observed device capability level.
type LevelStore interface {
	LastSecurityLevel(ctx context.Context) (models.SecurityLevel, bool, error)
	SetLastSecurityLevel(ctx context.Context, level models.SecurityLevel) error
}

// Input is one observation of the device.
type Input struct {
	// UserSelectedSecurity is the unlock method the user chose.
	UserSelectedSecurity models.SecurityLevel
	// Device is the live capability report; nil while it is not known yet.
	Device *models.BiometricState
	// UserHasOnboarded is false until permanent storage exists.
	UserHasOnboarded bool
}

// Result of an evaluation.
type Result struct {
	// Downgrade routes the user to a forced re-confirmation.
	Downgrade bool
	// Upgrade reports a capability increase; it is informational.
	Upgrade bool
}

// Detector compares live capability reports against the recorded level.
type Detector struct {
	store LevelStore
	log   *zap.Logger
}

// New creates a Detector persisting through store.
func New(store LevelStore, log *zap.Logger) *Detector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Detector{store: store, log: log}
}

// Evaluate applies the rules in order; the first match wins:
//
//  1. a user on PIN security is never downgraded;
//  2. an unknown capability is ignored;
//  3. with no recorded level, a biometric device is recorded as the baseline;
//  4. a lower level is recorded and, once onboarded, flagged as a downgrade;
//  5. a higher level is recorded without flagging.
func (d *Detector) Evaluate(ctx context.Context, in Input) (Result, error) {
	if in.UserSelectedSecurity == models.SecuritySecret {
		return Result{}, nil
	}
	if in.Device == nil {
		return Result{}, nil
	}
	current := in.Device.CurrentSecurityLevel

	last, ok, err := d.store.LastSecurityLevel(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("read last security level: %w", err)
	}

	if !ok {
		if current == models.SecurityBiometric {
			return Result{}, d.record(ctx, current)
		}
		return Result{}, nil
	}

	switch {
	case current.Rank() < last.Rank():
		if err := d.record(ctx, current); err != nil {
			return Result{}, err
		}
		if in.UserHasOnboarded {
			d.log.Warn("security downgrade detected",
				zap.String("last", string(last)),
				zap.String("current", string(current)),
			)
			return Result{Downgrade: true}, nil
		}
		return Result{}, nil
	case current.Rank() > last.Rank():
		return Result{Upgrade: true}, d.record(ctx, current)
	}
	return Result{}, nil
}

func (d *Detector) record(ctx context.Context, level models.SecurityLevel) error {
	if err := d.store.SetLastSecurityLevel(ctx, level); err != nil {
		return fmt.Errorf("record security level: %w", err)
	}
	return nil
}
