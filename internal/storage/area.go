// Package storage binds key/value storage areas to their encryption keys.
// An EncryptedStorage is the handle the rest of the application reads and
// writes through; it exists only while its key is known.
package storage

import (
	"context"

	"github.com/atinyakov/WalletKeeper/internal/models"
)

// Repository is the area-scoped persistence backend.
type Repository interface {
	Keys(ctx context.Context, area models.StorageArea) ([]string, error)
	Get(ctx context.Context, area models.StorageArea, key string) ([]byte, error)
	Put(ctx context.Context, area models.StorageArea, key string, value []byte) error
	Delete(ctx context.Context, area models.StorageArea, key string) error
	Clear(ctx context.Context, area models.StorageArea) error
}

// Area is a single key/value storage area.
type Area interface {
	Name() models.StorageArea
	GetAllKeys(ctx context.Context) ([]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	ClearAll(ctx context.Context) error
}

// PlainArea stores values as given. Encryption, if any, is layered on top.
type PlainArea struct {
	repo Repository
	name models.StorageArea
}

// NewArea binds name to repo.
func NewArea(repo Repository, name models.StorageArea) *PlainArea {
	return &PlainArea{repo: repo, name: name}
}

// Name returns the area identifier.
func (a *PlainArea) Name() models.StorageArea { return a.name }

// GetAllKeys lists the keys of the area.
func (a *PlainArea) GetAllKeys(ctx context.Context) ([]string, error) {
	return a.repo.Keys(ctx, a.name)
}

// Get returns the stored value or models.ErrNotFound.
func (a *PlainArea) Get(ctx context.Context, key string) ([]byte, error) {
	return a.repo.Get(ctx, a.name, key)
}

// Set stores value under key.
func (a *PlainArea) Set(ctx context.Context, key string, value []byte) error {
	return a.repo.Put(ctx, a.name, key, value)
}

// Delete removes key.
func (a *PlainArea) Delete(ctx context.Context, key string) error {
	return a.repo.Delete(ctx, a.name, key)
}

// ClearAll removes every key of the area.
func (a *PlainArea) ClearAll(ctx context.Context) error {
	return a.repo.Clear(ctx, a.name)
}
