package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// KeyBits is the size of every generated storage key.
const KeyBits = 256

// GenerateKey returns a fresh random 256-bit key as a 0x-prefixed hex string.
func GenerateKey() (string, error) {
	b := make([]byte, KeyBits/8)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return "0x" + hex.EncodeToString(b), nil
}

// NewAEAD derives an AES-256-GCM cipher from a textual storage key.
func NewAEAD(key string) (cipher.AEAD, error) {
	if key == "" {
		return nil, errors.New("empty encryption key")
	}
	sum := sha256.Sum256([]byte(key))
	return NewAEADFromBytes(sum[:])
}

// NewAEADFromBytes builds an AES-GCM cipher from a raw 16, 24 or 32 byte key.
func NewAEADFromBytes(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create AEAD: %w", err)
	}
	return aead, nil
}

// Seal encrypts plain under a random nonce; the result is nonce || ciphertext.
func Seal(aead cipher.AEAD, plain, aad []byte) ([]byte, error) {
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plain, aad), nil
}

// ErrDecrypt is returned when a sealed value cannot be opened.
var ErrDecrypt = errors.New("decryption failed")

// Open reverses Seal.
func Open(aead cipher.AEAD, sealed, aad []byte) ([]byte, error) {
	if len(sealed) < aead.NonceSize() {
		return nil, ErrDecrypt
	}
	nonce := sealed[:aead.NonceSize()]
	plain, err := aead.Open(nil, nonce, sealed[aead.NonceSize():], aad)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plain, nil
}
