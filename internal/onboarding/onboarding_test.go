package onboarding

import (
	"context"
	"errors"
	"testing"

	"github.com/atinyakov/WalletKeeper/internal/models"
	"github.com/atinyakov/WalletKeeper/internal/repository"
	"github.com/atinyakov/WalletKeeper/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingRepo fails every Put into the failArea.
type failingRepo struct {
	*repository.MemoryKVRepository
	failArea models.StorageArea
}

func (f *failingRepo) Put(ctx context.Context, area models.StorageArea, key string, value []byte) error {
	if area == f.failArea {
		return errors.New("disk full")
	}
	return f.MemoryKVRepository.Put(ctx, area, key, value)
}

func seed(t *testing.T, area storage.Area, key string, entries map[string]string) {
	t.Helper()
	enc, err := storage.NewEncrypted(area, key)
	require.NoError(t, err)
	for k, v := range entries {
		require.NoError(t, enc.Set(context.Background(), k, []byte(v)))
	}
}

func TestMigrateState_CopiesEveryKeyThenPrune(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryKVRepository()
	onb := storage.NewArea(repo, models.AreaOnboarding)
	perm := storage.NewArea(repo, models.AreaRedux)

	entries := map[string]string{
		"persist:root":     `{"devices":[]}`,
		"persist:settings": `{"theme":"dark"}`,
	}
	seed(t, onb, "0xonboarding", entries)

	err := MigrateState(ctx, Params{
		OnboardingStorage: onb,
		EncryptedStorage:  perm,
		EncryptionKey:     "0xpermanent",
		OnboardingKey:     "0xonboarding",
	})
	require.NoError(t, err)

	dst, _ := storage.NewEncrypted(perm, "0xpermanent")
	for k, v := range entries {
		got, err := dst.Get(ctx, k)
		require.NoError(t, err, k)
		assert.Equal(t, v, string(got), k)
	}

	require.NoError(t, Prune(ctx, onb))
	keys, err := onb.GetAllKeys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestMigrateState_WrongOnboardingKey(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryKVRepository()
	onb := storage.NewArea(repo, models.AreaOnboarding)
	seed(t, onb, "right", map[string]string{"k": "v"})

	err := MigrateState(ctx, Params{
		OnboardingStorage: onb,
		EncryptedStorage:  storage.NewArea(repo, models.AreaRedux),
		EncryptionKey:     "perm",
		OnboardingKey:     "wrong",
	})
	assert.ErrorIs(t, err, models.ErrMigrationFailure)
}

func TestMigrateState_WriteFailure(t *testing.T) {
	ctx := context.Background()
	repo := &failingRepo{MemoryKVRepository: repository.NewMemoryKVRepository(), failArea: models.AreaRedux}
	onb := storage.NewArea(repo, models.AreaOnboarding)
	seed(t, onb, "onb", map[string]string{"k": "v"})

	err := MigrateState(ctx, Params{
		OnboardingStorage: onb,
		EncryptedStorage:  storage.NewArea(repo, models.AreaRedux),
		EncryptionKey:     "perm",
		OnboardingKey:     "onb",
	})
	assert.ErrorIs(t, err, models.ErrMigrationFailure)
}

func TestMigrateState_EmptyKeys(t *testing.T) {
	repo := repository.NewMemoryKVRepository()
	err := MigrateState(context.Background(), Params{
		OnboardingStorage: storage.NewArea(repo, models.AreaOnboarding),
		EncryptedStorage:  storage.NewArea(repo, models.AreaRedux),
	})
	assert.ErrorIs(t, err, models.ErrMigrationFailure)
}
