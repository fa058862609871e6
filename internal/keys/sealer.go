package keys

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/atinyakov/WalletKeeper/internal/keychain"
	"github.com/atinyakov/WalletKeeper/internal/models"
	"github.com/atinyakov/WalletKeeper/internal/storage"
	"golang.org/x/crypto/argon2"
)

// KDFParams are the Argon2id parameters used to turn a PIN into a
// key-encryption key.
type KDFParams struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultKDFParams matches the cost used on phones.
func DefaultKDFParams() KDFParams {
	return KDFParams{Time: 3, Memory: 64 * 1024, Threads: 4}
}

// LightKDFParams is cheap enough for tests.
func LightKDFParams() KDFParams {
	return KDFParams{Time: 1, Memory: 8 * 1024, Threads: 1}
}

const saltLen = 16

type envelope struct {
	Level models.SecurityLevel `json:"level"`
	Salt  []byte               `json:"salt,omitempty"`
	Data  []byte               `json:"data"`
}

// slot is one keychain entry holding a StorageEncryptionKeys set, sealed
// according to the security level it was written with.
type slot struct {
	kc   *keychain.Keychain
	kdf  KDFParams
	name string
}

func (s *slot) deriveKEK(pin string, salt []byte) []byte {
	return argon2.IDKey([]byte(pin), salt, s.kdf.Time, s.kdf.Memory, s.kdf.Threads, 32)
}

func (s *slot) write(ctx context.Context, keys *models.StorageEncryptionKeys, level models.SecurityLevel, pin string) error {
	if !keys.Complete() {
		return errors.New("incomplete encryption key set")
	}
	plain, err := json.Marshal(keys)
	if err != nil {
		return fmt.Errorf("encode keys: %w", err)
	}

	env := envelope{Level: level, Data: plain}
	access := keychain.AccessAlways

	switch level {
	case models.SecuritySecret:
		if pin == "" {
			return fmt.Errorf("%w: pin required", models.ErrInvalidCredential)
		}
		env.Salt = make([]byte, saltLen)
		if _, err := rand.Read(env.Salt); err != nil {
			return fmt.Errorf("generate salt: %w", err)
		}
		aead, err := storage.NewAEADFromBytes(s.deriveKEK(pin, env.Salt))
		if err != nil {
			return err
		}
		if env.Data, err = storage.Seal(aead, plain, []byte(s.name)); err != nil {
			return err
		}
	case models.SecurityBiometric:
		access = keychain.AccessBiometric
	case models.SecurityNone:
	default:
		return fmt.Errorf("unsupported security level %q", level)
	}

	b, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	return s.kc.Set(ctx, s.name, b, access)
}

func (s *slot) read(ctx context.Context, pin, prompt string) (*models.StorageEncryptionKeys, models.SecurityLevel, error) {
	raw, err := s.kc.Get(ctx, s.name, prompt)
	if errors.Is(err, models.ErrNotFound) {
		return nil, "", models.ErrKeysNotFound
	}
	if err != nil {
		return nil, "", err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, "", fmt.Errorf("decode envelope: %w", err)
	}

	plain := env.Data
	if env.Level == models.SecuritySecret {
		if pin == "" {
			return nil, env.Level, fmt.Errorf("%w: pin required", models.ErrInvalidCredential)
		}
		aead, err := storage.NewAEADFromBytes(s.deriveKEK(pin, env.Salt))
		if err != nil {
			return nil, env.Level, err
		}
		if plain, err = storage.Open(aead, env.Data, []byte(s.name)); err != nil {
			return nil, env.Level, models.ErrInvalidCredential
		}
	}

	var keys models.StorageEncryptionKeys
	if err := json.Unmarshal(plain, &keys); err != nil || !keys.Complete() {
		return nil, env.Level, models.ErrInvalidCredential
	}
	return &keys, env.Level, nil
}

func (s *slot) exists(ctx context.Context) (bool, error) {
	return s.kc.Exists(ctx, s.name)
}

func (s *slot) remove(ctx context.Context) error {
	return s.kc.Delete(ctx, s.name)
}
