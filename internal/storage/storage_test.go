package storage_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minimart/minimart/internal/config"
	"github.com/minimart/minimart/internal/storage"
)

func newTestStore(t *testing.T, path string) *storage.Store {
	t.Helper()

	cfg := &config.Config{Storage: config.Storage{Path: path}}

	store, err := storage.New(cfg)
	require.NoError(t, err)

	t.Cleanup(func() { store.Close() })

	return store
}

func TestStoreBootstrap(t *testing.T) {
	store := newTestStore(t, filepath.Join(t.TempDir(), "minimart.db"))
	ctx := t.Context()

	// A fresh file already carries every collection with its empty default.
	err := store.Update(ctx, func(tx *storage.Tx) error {
		for _, name := range []string{
			storage.CollectionProducts,
			storage.CollectionCarts,
			storage.CollectionOrders,
			storage.CollectionUsers,
			storage.CollectionSessions,
		} {
			doc, ok, err := tx.Get(name)
			require.NoError(t, err)
			assert.True(t, ok, "collection %s should be seeded", name)
			assert.JSONEq(t, "{}", string(doc))
		}

		doc, ok, err := tx.Get(storage.CollectionNextProductID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "1", string(doc))

		return nil
	})
	require.NoError(t, err)
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minimart.db")
	store := newTestStore(t, path)
	ctx := t.Context()

	err := store.Update(ctx, func(tx *storage.Tx) error {
		return tx.Put(storage.CollectionProducts, []byte(`{"1":{"id":1,"name":"Phone"}}`))
	})
	require.NoError(t, err)

	// Changes survive closing and reopening the file.
	require.NoError(t, store.Close())

	reopened := newTestStore(t, path)

	err = reopened.Update(ctx, func(tx *storage.Tx) error {
		doc, ok, err := tx.Get(storage.CollectionProducts)
		require.NoError(t, err)
		require.True(t, ok)
		assert.JSONEq(t, `{"1":{"id":1,"name":"Phone"}}`, string(doc))

		return nil
	})
	require.NoError(t, err)
}

func TestStoreRollbackOnError(t *testing.T) {
	store := newTestStore(t, filepath.Join(t.TempDir(), "minimart.db"))
	ctx := t.Context()

	boom := errors.New("boom")

	err := store.Update(ctx, func(tx *storage.Tx) error {
		if err := tx.Put(storage.CollectionUsers, []byte(`{"alice":{"username":"alice"}}`)); err != nil {
			return err
		}

		return boom
	})
	require.ErrorIs(t, err, boom)

	// The write inside the failed transaction must not be visible.
	err = store.Update(ctx, func(tx *storage.Tx) error {
		doc, ok, err := tx.Get(storage.CollectionUsers)
		require.NoError(t, err)
		require.True(t, ok)
		assert.JSONEq(t, "{}", string(doc))

		return nil
	})
	require.NoError(t, err)
}

func TestStoreUpdateFailures(t *testing.T) {
	t.Run("BeginError", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin().WillReturnError(errors.New("disk gone"))

		store := storage.NewWithDB(db)

		err = store.Update(t.Context(), func(tx *storage.Tx) error { return nil })
		assert.ErrorContains(t, err, "beginning transaction")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("CommitError", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectCommit().WillReturnError(errors.New("commit failed"))

		store := storage.NewWithDB(db)

		err = store.Update(t.Context(), func(tx *storage.Tx) error { return nil })
		assert.ErrorContains(t, err, "committing transaction")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
