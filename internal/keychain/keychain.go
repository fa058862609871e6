// Package keychain implements the platform secure key/value store: items
// are stored with an access policy and biometric items are only returned
// after a successful prompt.
package keychain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/atinyakov/WalletKeeper/internal/biometrics"
	"github.com/atinyakov/WalletKeeper/internal/models"
	"github.com/atinyakov/WalletKeeper/internal/storage"
	"go.uber.org/zap"
)

// Access is the protection applied to a keychain item.
type Access string

const (
	// AccessAlways returns the item without user interaction.
	AccessAlways Access = "always"
	// AccessBiometric requires a successful biometric prompt.
	AccessBiometric Access = "biometric"
)

type item struct {
	Access Access `json:"access"`
	Value  []byte `json:"value"`
}

// Keychain stores access-controlled secrets in a storage area. Pass an
// *storage.EncryptedStorage to keep the items encrypted at rest.
type Keychain struct {
	area storage.Area
	auth biometrics.Authenticator
	log  *zap.Logger
}

// New creates a Keychain over area, prompting through auth.
func New(area storage.Area, auth biometrics.Authenticator, log *zap.Logger) *Keychain {
	if log == nil {
		log = zap.NewNop()
	}
	return &Keychain{area: area, auth: auth, log: log}
}

// Set stores value under key with the given access policy.
func (k *Keychain) Set(ctx context.Context, key string, value []byte, access Access) error {
	b, err := json.Marshal(item{Access: access, Value: value})
	if err != nil {
		return fmt.Errorf("encode keychain item: %w", err)
	}
	return k.area.Set(ctx, key, b)
}

// Get returns the value stored under key, prompting for biometrics when
// the item requires it. A missing item yields models.ErrNotFound.
func (k *Keychain) Get(ctx context.Context, key, prompt string) ([]byte, error) {
	it, err := k.load(ctx, key)
	if err != nil {
		return nil, err
	}

	if it.Access == AccessBiometric {
		if k.auth == nil {
			return nil, models.ErrBiometricsUnavailable
		}
		if err := k.auth.Authenticate(ctx, prompt); err != nil {
			k.log.Debug("keychain prompt rejected", zap.String("key", key), zap.Error(err))
			return nil, err
		}
	}
	return it.Value, nil
}

// Access returns the access policy of key without prompting.
func (k *Keychain) Access(ctx context.Context, key string) (Access, error) {
	it, err := k.load(ctx, key)
	if err != nil {
		return "", err
	}
	return it.Access, nil
}

// Exists reports whether key is stored, without prompting.
func (k *Keychain) Exists(ctx context.Context, key string) (bool, error) {
	_, err := k.area.Get(ctx, key)
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes key.
func (k *Keychain) Delete(ctx context.Context, key string) error {
	return k.area.Delete(ctx, key)
}

func (k *Keychain) load(ctx context.Context, key string) (item, error) {
	raw, err := k.area.Get(ctx, key)
	if err != nil {
		return item{}, err
	}
	var it item
	if err := json.Unmarshal(raw, &it); err != nil {
		return item{}, fmt.Errorf("decode keychain item %s: %w", key, err)
	}
	return it, nil
}
