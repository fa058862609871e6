package models

import "errors"

var (
	// ErrAuthenticationCancelled is returned when the user dismisses the
	// biometric prompt. It is recoverable: the caller may offer a retry.
	ErrAuthenticationCancelled = errors.New("authentication cancelled")
	// ErrAuthenticationFailed is returned when the biometric prompt rejects the user.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrInvalidCredential is returned when a PIN does not open the stored keys.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrMigrationFailure wraps any failure while moving onboarding data into
	// permanent storage. It always leads to a full application reset.
	ErrMigrationFailure = errors.New("onboarding migration failed")
	// ErrStorageUnavailable is returned when the underlying store cannot be reached.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrBiometricsUnavailable is returned when biometrics are required but the
	// device is not enrolled.
	ErrBiometricsUnavailable = errors.New("biometrics unavailable")
	// ErrInvalidTransition is returned when an event is not allowed in the current status.
	ErrInvalidTransition = errors.New("invalid wallet status transition")
	// ErrStorageLocked is returned when a storage handle is used without a key.
	ErrStorageLocked = errors.New("storage is locked")
	// ErrKeysNotFound is returned when no encryption keys have been stored.
	ErrKeysNotFound = errors.New("encryption keys not found")
	// ErrNotFound is returned when a key is absent from a storage area.
	ErrNotFound = errors.New("not found")
)
