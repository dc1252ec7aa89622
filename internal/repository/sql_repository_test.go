package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestSQLite(t *testing.T) *SQLRepository {
	repo, err := NewSQLiteRepository(":memory:")
	require.NoError(t, err)
	require.NoError(t, repo.RunMigrations())
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLite_MigrationsAreIdempotent(t *testing.T) {
	repo := setupTestSQLite(t)

	assert.NoError(t, repo.RunMigrations())
}

func TestSQLite_SaveAndGetRoundTrip(t *testing.T) {
	repo := setupTestSQLite(t)
	ctx := context.Background()
	original := sampleCart("cart-1")

	require.NoError(t, repo.SaveCart(ctx, original))
	got, err := repo.GetCart(ctx, "cart-1")
	require.NoError(t, err)

	assert.Equal(t, original.Items, got.Items)
	assert.Equal(t, original.Version, got.Version)
}

func TestSQLite_SaveOverwrites(t *testing.T) {
	repo := setupTestSQLite(t)
	ctx := context.Background()
	c := sampleCart("cart-1")
	require.NoError(t, repo.SaveCart(ctx, c))

	c.Items = c.Items[:1]
	c.Version++
	require.NoError(t, repo.SaveCart(ctx, c))

	got, err := repo.GetCart(ctx, "cart-1")
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
	assert.Equal(t, int64(4), got.Version)
}

func TestSQLite_GetMissing(t *testing.T) {
	repo := setupTestSQLite(t)

	_, err := repo.GetCart(context.Background(), "nonexistent")

	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestSQLite_GetCorrupt(t *testing.T) {
	repo := setupTestSQLite(t)
	_, err := repo.db.Exec(
		`INSERT INTO carts (cart_id, payload, version, updated_at) VALUES ($1, $2, 0, CURRENT_TIMESTAMP)`,
		"cart-1", "{{{")
	require.NoError(t, err)

	_, err = repo.GetCart(context.Background(), "cart-1")

	assert.ErrorIs(t, err, ErrCorruptCart)
}

func TestSQLite_Delete(t *testing.T) {
	repo := setupTestSQLite(t)
	ctx := context.Background()
	require.NoError(t, repo.SaveCart(ctx, sampleCart("cart-1")))

	require.NoError(t, repo.DeleteCart(ctx, "cart-1"))

	_, err := repo.GetCart(ctx, "cart-1")
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "etcd"})

	assert.ErrorContains(t, err, "unknown cart store driver")
}

func TestOpen_SQLiteAndMemory(t *testing.T) {
	ctx := context.Background()

	repo, err := Open(ctx, Options{Driver: DriverSQLite, SQLitePath: ":memory:"})
	require.NoError(t, err)
	assert.IsType(t, &SQLRepository{}, repo)
	require.NoError(t, repo.Close())

	repo, err = Open(ctx, Options{Driver: DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryRepository{}, repo)
}
