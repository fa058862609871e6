package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletStatus_TextRoundTrip(t *testing.T) {
	b, err := json.Marshal(map[string]WalletStatus{"status": FirstTimeAccess})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"FIRST_TIME_ACCESS"}`, string(b))

	var out map[string]WalletStatus
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, FirstTimeAccess, out["status"])

	_, err = ParseWalletStatus("bogus")
	assert.Error(t, err)
	assert.Equal(t, "WalletStatus(9)", WalletStatus(9).String())
}

func TestSecurityLevel_Rank(t *testing.T) {
	assert.Less(t, SecurityNone.Rank(), SecuritySecret.Rank())
	assert.Less(t, SecuritySecret.Rank(), SecurityBiometric.Rank())
	assert.False(t, SecurityLevel("FACE").Valid())
}

func TestParseSecurityLevel(t *testing.T) {
	cases := map[string]SecurityLevel{
		"pin":       SecuritySecret,
		"PASSWORD":  SecuritySecret,
		"biometric": SecurityBiometric,
		"":          SecurityNone,
	}
	for in, want := range cases {
		got, err := ParseSecurityLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseSecurityLevel("retina")
	assert.Error(t, err)
}

func TestStorageEncryptionKeys_Complete(t *testing.T) {
	var nilKeys *StorageEncryptionKeys
	assert.False(t, nilKeys.Complete())
	k := &StorageEncryptionKeys{Redux: "a", Images: "b"}
	assert.False(t, k.Complete())
	k.Metadata = "c"
	assert.True(t, k.Complete())
	assert.Equal(t, "b", k.For(AreaImages))
	assert.Empty(t, k.For(AreaOnboarding))
}
