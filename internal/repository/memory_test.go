package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/atinyakov/WalletKeeper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKVRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryKVRepository()

	keys, err := repo.Keys(ctx, models.AreaRedux)
	require.NoError(t, err)
	assert.Empty(t, keys)

	value := []byte("state")
	require.NoError(t, repo.Put(ctx, models.AreaRedux, "b", value))
	require.NoError(t, repo.Put(ctx, models.AreaRedux, "a", []byte("x")))
	value[0] = 'X'

	got, err := repo.Get(ctx, models.AreaRedux, "b")
	require.NoError(t, err)
	assert.Equal(t, "state", string(got), "stored value must not alias the caller's slice")

	keys, _ = repo.Keys(ctx, models.AreaRedux)
	assert.Equal(t, []string{"a", "b"}, keys)

	require.NoError(t, repo.Delete(ctx, models.AreaRedux, "a"))
	_, err = repo.Get(ctx, models.AreaRedux, "a")
	assert.True(t, errors.Is(err, models.ErrNotFound))

	require.NoError(t, repo.Clear(ctx, models.AreaRedux))
	keys, _ = repo.Keys(ctx, models.AreaRedux)
	assert.Empty(t, keys)
}
