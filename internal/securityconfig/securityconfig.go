// Package securityconfig persists the security level the user selected and
// the last device capability level that was observed.
package securityconfig

import (
	"context"
	"errors"
	"fmt"

	"github.com/atinyakov/WalletKeeper/internal/models"
	"github.com/atinyakov/WalletKeeper/internal/storage"
)

const (
	securityTypeKey      = "securityType"
	lastSecurityLevelKey = "lastSecurityLevel"
)

// Store is a last-write-wins store for the security settings.
type Store struct {
	area storage.Area
}

// New creates a Store over area.
func New(area storage.Area) *Store {
	return &Store{area: area}
}

// Get returns the selected security level, or SecurityNone when unset.
func (s *Store) Get(ctx context.Context) (models.SecurityLevel, error) {
	lvl, ok, err := s.read(ctx, securityTypeKey)
	if err != nil || !ok {
		return models.SecurityNone, err
	}
	return lvl, nil
}

// Set records the selected security level.
func (s *Store) Set(ctx context.Context, level models.SecurityLevel) error {
	return s.write(ctx, securityTypeKey, level)
}

// Remove forgets the selected security level.
func (s *Store) Remove(ctx context.Context) error {
	return s.area.Delete(ctx, securityTypeKey)
}

// LastSecurityLevel returns the last recorded device capability level and
// whether one was recorded at all.
func (s *Store) LastSecurityLevel(ctx context.Context) (models.SecurityLevel, bool, error) {
	return s.read(ctx, lastSecurityLevelKey)
}

// SetLastSecurityLevel records the device capability level.
func (s *Store) SetLastSecurityLevel(ctx context.Context, level models.SecurityLevel) error {
	return s.write(ctx, lastSecurityLevelKey, level)
}

// RemoveLastSecurityLevel forgets the device capability level.
func (s *Store) RemoveLastSecurityLevel(ctx context.Context) error {
	return s.area.Delete(ctx, lastSecurityLevelKey)
}

func (s *Store) read(ctx context.Context, key string) (models.SecurityLevel, bool, error) {
	raw, err := s.area.Get(ctx, key)
	if errors.Is(err, models.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	lvl := models.SecurityLevel(raw)
	if !lvl.Valid() {
		return "", false, fmt.Errorf("stored %s is invalid: %q", key, raw)
	}
	return lvl, true, nil
}

func (s *Store) write(ctx context.Context, key string, level models.SecurityLevel) error {
	if !level.Valid() {
		return fmt.Errorf("invalid security level %q", level)
	}
	return s.area.Set(ctx, key, []byte(level))
}
