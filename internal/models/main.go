// Package models defines the core data structures shared by the wallet
// security layer: wallet lifecycle status, security levels, storage areas
// and the per-area encryption key set.
package models

import (
	"fmt"
	"strings"
)

// WalletStatus is the top-level application lifecycle state. Nothing
// authenticated may be served unless the status is Unlocked.
type WalletStatus int

const (
	// NotInitialised means the provider has not inspected storage yet,
	// or the wallet was explicitly locked and must be initialised again.
	NotInitialised WalletStatus = iota
	// FirstTimeAccess means no permanent keys exist and the user is onboarding
	// on the ephemeral onboarding storage.
	FirstTimeAccess
	// Locked means permanent keys exist but have not been derived yet.
	Locked
	// Unlocked means the permanent storage handles are bound.
	Unlocked
)

var walletStatusNames = [...]string{
	NotInitialised:  "NOT_INITIALISED",
	FirstTimeAccess: "FIRST_TIME_ACCESS",
	Locked:          "LOCKED",
	Unlocked:        "UNLOCKED",
}

// String returns the canonical upper-case name of the status.
func (s WalletStatus) String() string {
	if s < 0 || int(s) >= len(walletStatusNames) {
		return fmt.Sprintf("WalletStatus(%d)", int(s))
	}
	return walletStatusNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s WalletStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *WalletStatus) UnmarshalText(b []byte) error {
	v, err := ParseWalletStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseWalletStatus converts a status name into a WalletStatus.
func ParseWalletStatus(name string) (WalletStatus, error) {
	for i, n := range walletStatusNames {
		if strings.EqualFold(n, name) {
			return WalletStatus(i), nil
		}
	}
	return NotInitialised, fmt.Errorf("unknown wallet status %q", name)
}

// SecurityLevel is the unlock method chosen by the user, and also the
// capability level reported by the device.
type SecurityLevel string

const (
	// SecurityNone means the keys are stored without any protection.
	SecurityNone SecurityLevel = "NONE"
	// SecuritySecret means the keys are sealed under a PIN/password.
	SecuritySecret SecurityLevel = "SECRET"
	// SecurityBiometric means the keys are gated by a biometric prompt.
	SecurityBiometric SecurityLevel = "BIOMETRIC"
)

// Rank orders device capability levels: NONE < SECRET < BIOMETRIC.
// Unknown levels rank below NONE.
func (l SecurityLevel) Rank() int {
	switch l {
	case SecurityNone:
		return 0
	case SecuritySecret:
		return 1
	case SecurityBiometric:
		return 2
	default:
		return -1
	}
}

// Valid reports whether l is one of the known levels.
func (l SecurityLevel) Valid() bool {
	return l.Rank() >= 0
}

// ParseSecurityLevel accepts the canonical names plus the PIN/PASSWORD aliases.
func ParseSecurityLevel(name string) (SecurityLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "NONE", "":
		return SecurityNone, nil
	case "SECRET", "PIN", "PASSWORD":
		return SecuritySecret, nil
	case "BIOMETRIC", "BIOMETRICS":
		return SecurityBiometric, nil
	}
	return "", fmt.Errorf("unknown security level %q", name)
}

// StorageArea identifies an independent key/value storage area.
type StorageArea string

const (
	// AreaRedux holds the persisted application state.
	AreaRedux StorageArea = "redux"
	// AreaImages holds cached images.
	AreaImages StorageArea = "images"
	// AreaMetadata holds cached token and dApp metadata.
	AreaMetadata StorageArea = "metadata"
	// AreaOnboarding is the temporary area used before a security method is chosen.
	AreaOnboarding StorageArea = "onboarding"
	// AreaKeychain backs the platform secure key/value store.
	AreaKeychain StorageArea = "keychain"
	// AreaSecurityConfig holds the chosen and last-seen security levels.
	AreaSecurityConfig StorageArea = "security_config"
)

// PermanentAreas lists the areas bound after unlocking, in binding order.
var PermanentAreas = []StorageArea{AreaRedux, AreaImages, AreaMetadata}

// StorageEncryptionKeys holds one symmetric key per permanent storage area
// and the user key handed to callers of an unlocked wallet. The set is
// generated once and only regenerated by a full reset. Sets sealed before
// the user key existed carry none.
type StorageEncryptionKeys struct {
	Redux    string `json:"redux"`
	Images   string `json:"images"`
	Metadata string `json:"metadata"`
	UserKey  string `json:"userKey,omitempty"`
}

// Complete reports whether every area key is present.
func (k *StorageEncryptionKeys) Complete() bool {
	return k != nil && k.Redux != "" && k.Images != "" && k.Metadata != ""
}

// For returns the key of the given permanent area.
func (k *StorageEncryptionKeys) For(area StorageArea) string {
	switch area {
	case AreaRedux:
		return k.Redux
	case AreaImages:
		return k.Images
	case AreaMetadata:
		return k.Metadata
	}
	return ""
}

// BiometricState is the live capability report of the device.
type BiometricState struct {
	// HasHardware reports whether the device has biometric hardware.
	HasHardware bool `json:"hasHardware"`
	// IsDeviceEnrolled reports whether biometric data is enrolled.
	IsDeviceEnrolled bool `json:"isDeviceEnrolled"`
	// CurrentSecurityLevel is the strongest level the device currently offers.
	CurrentSecurityLevel SecurityLevel `json:"currentSecurityLevel"`
}

// BiometricsUsable reports whether a biometric unlock can be attempted.
func (b BiometricState) BiometricsUsable() bool {
	return b.IsDeviceEnrolled && b.CurrentSecurityLevel == SecurityBiometric
}
