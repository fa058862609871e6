package storage

import (
	"context"
	"crypto/cipher"
	"fmt"

	"github.com/atinyakov/WalletKeeper/internal/models"
)

// EncryptedStorage pairs an area with its encryption key. Values are sealed
// with AES-GCM; the entry key is bound as additional data so a value cannot
// be moved to another key unnoticed.
type EncryptedStorage struct {
	area Area
	key  string
	aead cipher.AEAD
}

// NewEncrypted returns a handle that encrypts every value of area with key.
func NewEncrypted(area Area, key string) (*EncryptedStorage, error) {
	aead, err := NewAEAD(key)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", area.Name(), err)
	}
	return &EncryptedStorage{area: area, key: key, aead: aead}, nil
}

// Name returns the area identifier.
func (s *EncryptedStorage) Name() models.StorageArea { return s.area.Name() }

// EncryptionKey returns the key the handle was bound with.
func (s *EncryptedStorage) EncryptionKey() string { return s.key }

// GetAllKeys lists the keys of the underlying area.
func (s *EncryptedStorage) GetAllKeys(ctx context.Context) ([]string, error) {
	return s.area.GetAllKeys(ctx)
}

// Get decrypts the value stored under key.
func (s *EncryptedStorage) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := s.area.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	plain, err := Open(s.aead, sealed, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", s.area.Name(), key, err)
	}
	return plain, nil
}

// Set encrypts value and stores it under key.
func (s *EncryptedStorage) Set(ctx context.Context, key string, value []byte) error {
	sealed, err := Seal(s.aead, value, []byte(key))
	if err != nil {
		return err
	}
	return s.area.Set(ctx, key, sealed)
}

// Delete removes key.
func (s *EncryptedStorage) Delete(ctx context.Context, key string) error {
	return s.area.Delete(ctx, key)
}

// ClearAll removes every key of the area.
func (s *EncryptedStorage) ClearAll(ctx context.Context) error {
	return s.area.ClearAll(ctx)
}
