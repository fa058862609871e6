package keychain

import (
	"context"
	"testing"

	"github.com/atinyakov/WalletKeeper/internal/biometrics"
	"github.com/atinyakov/WalletKeeper/internal/models"
	"github.com/atinyakov/WalletKeeper/internal/repository"
	"github.com/atinyakov/WalletKeeper/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var enrolled = models.BiometricState{IsDeviceEnrolled: true, CurrentSecurityLevel: models.SecurityBiometric}

func newKeychain(auth biometrics.Authenticator) *Keychain {
	area := storage.NewArea(repository.NewMemoryKVRepository(), models.AreaKeychain)
	return New(area, auth, nil)
}

func TestKeychain_AlwaysItemNoPrompt(t *testing.T) {
	ctx := context.Background()
	auth := biometrics.NewScripted(enrolled)
	kc := newKeychain(auth)

	require.NoError(t, kc.Set(ctx, "k", []byte("v"), AccessAlways))
	v, err := kc.Get(ctx, "k", "unlock")
	require.NoError(t, err)
	assert.Equal(t, "v", string(v))
	assert.Zero(t, auth.Prompts())
}

func TestKeychain_BiometricItemPrompts(t *testing.T) {
	ctx := context.Background()
	auth := biometrics.NewScripted(enrolled, models.ErrAuthenticationCancelled)
	kc := newKeychain(auth)

	require.NoError(t, kc.Set(ctx, "k", []byte("v"), AccessBiometric))

	_, err := kc.Get(ctx, "k", "unlock")
	assert.ErrorIs(t, err, models.ErrAuthenticationCancelled)

	v, err := kc.Get(ctx, "k", "unlock")
	require.NoError(t, err)
	assert.Equal(t, "v", string(v))
	assert.Equal(t, 2, auth.Prompts())

	access, err := kc.Access(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, AccessBiometric, access)
}

func TestKeychain_NoAuthenticator(t *testing.T) {
	ctx := context.Background()
	kc := newKeychain(nil)
	require.NoError(t, kc.Set(ctx, "k", []byte("v"), AccessBiometric))

	_, err := kc.Get(ctx, "k", "unlock")
	assert.ErrorIs(t, err, models.ErrBiometricsUnavailable)
}

func TestKeychain_ExistsDelete(t *testing.T) {
	ctx := context.Background()
	kc := newKeychain(nil)

	ok, err := kc.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kc.Set(ctx, "k", []byte("v"), AccessAlways))
	ok, _ = kc.Exists(ctx, "k")
	assert.True(t, ok)

	require.NoError(t, kc.Delete(ctx, "k"))
	_, err = kc.Get(ctx, "k", "")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestKeychain_EncryptedAtRest(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryKVRepository()
	enc, err := storage.NewEncrypted(storage.NewArea(repo, models.AreaKeychain), "device-key")
	require.NoError(t, err)

	kc := New(enc, nil, nil)
	require.NoError(t, kc.Set(ctx, "k", []byte("topsecret"), AccessAlways))

	raw, err := repo.Get(ctx, models.AreaKeychain, "k")
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "topsecret")

	v, err := kc.Get(ctx, "k", "")
	require.NoError(t, err)
	assert.Equal(t, "topsecret", string(v))
}
