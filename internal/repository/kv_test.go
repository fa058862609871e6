package repository

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/atinyakov/WalletKeeper/internal/db"
	"github.com/atinyakov/WalletKeeper/internal/models"
)

func setupMock(t *testing.T) (*SQLKVRepository, sqlmock.Sqlmock, func()) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewSQLKVRepository(conn, db.Postgres)
	cleanup := func() { conn.Close() }
	return repo, mock, cleanup
}

func TestKeys_Success(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT key FROM kv_entries WHERE area = $1 ORDER BY key`)).
		WithArgs("redux").
		WillReturnRows(sqlmock.NewRows([]string{"key"}).AddRow("persist:root").AddRow("settings"))

	keys, err := repo.Keys(context.Background(), models.AreaRedux)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys) != 2 || keys[0] != "persist:root" || keys[1] != "settings" {
		t.Errorf("unexpected keys: %v", keys)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestKeys_Empty(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT key FROM kv_entries`).
		WithArgs("redux").
		WillReturnRows(sqlmock.NewRows([]string{"key"}))

	keys, err := repo.Keys(context.Background(), models.AreaRedux)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if keys == nil || len(keys) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", keys)
	}
}

func TestKeys_Error(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT key FROM kv_entries`).
		WithArgs("images").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.Keys(context.Background(), models.AreaImages)
	if !errors.Is(err, models.ErrStorageUnavailable) {
		t.Errorf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM kv_entries WHERE area = $1 AND key = $2`)).
		WithArgs("metadata", "missing").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	_, err := repo.Get(context.Background(), models.AreaMetadata, "missing")
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGet_Success(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT value FROM kv_entries`).
		WithArgs("redux", "k").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte("v")))

	v, err := repo.Get(context.Background(), models.AreaRedux, "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(v) != "v" {
		t.Errorf("value = %q; want %q", v, "v")
	}
}

func TestPut_Upsert(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectExec(`INSERT INTO kv_entries`).
		WithArgs("onboarding", "k", []byte("v"), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Put(context.Background(), models.AreaOnboarding, "k", []byte("v")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestDeleteAndClear(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM kv_entries WHERE area = $1 AND key = $2`)).
		WithArgs("redux", "k").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM kv_entries WHERE area = $1`)).
		WithArgs("redux").
		WillReturnError(errors.New("disk full"))

	if err := repo.Delete(context.Background(), models.AreaRedux, "k"); err != nil {
		t.Fatalf("Delete: unexpected error: %v", err)
	}
	if err := repo.Clear(context.Background(), models.AreaRedux); !errors.Is(err, models.ErrStorageUnavailable) {
		t.Errorf("Clear: expected ErrStorageUnavailable, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestSQLite_RoundTrip(t *testing.T) {
	conn, err := db.InitSQLite(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("InitSQLite: %v", err)
	}
	defer conn.Close()

	repo := NewSQLKVRepository(conn, db.SQLite)
	ctx := context.Background()

	if err := repo.Put(ctx, models.AreaRedux, "a", []byte("1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := repo.Put(ctx, models.AreaRedux, "a", []byte("2")); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	if err := repo.Put(ctx, models.AreaImages, "b", []byte("3")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	v, err := repo.Get(ctx, models.AreaRedux, "a")
	if err != nil || string(v) != "2" {
		t.Fatalf("Get = %q, %v; want 2", v, err)
	}

	keys, _ := repo.Keys(ctx, models.AreaRedux)
	if len(keys) != 1 {
		t.Errorf("redux keys = %v; want one key", keys)
	}

	if err := repo.Clear(ctx, models.AreaRedux); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	keys, _ = repo.Keys(ctx, models.AreaRedux)
	if len(keys) != 0 {
		t.Errorf("redux keys after clear = %v", keys)
	}
	if _, err := repo.Get(ctx, models.AreaImages, "b"); err != nil {
		t.Errorf("clearing redux must not touch images: %v", err)
	}
}
