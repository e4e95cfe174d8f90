package persist

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/l1jgo/armory/internal/config"
	"github.com/l1jgo/armory/internal/item"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sample = []item.Stack{
	{ID: "sword", Quantity: 1},
	{},
	{ID: "potion", Quantity: 12},
	{},
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	got, err := s.LoadInventory(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.SaveInventory(ctx, "hero", sample))
	got, err = s.LoadInventory(ctx, "hero")
	require.NoError(t, err)
	assert.Equal(t, sample[:3], got, "interior holes kept, trailing holes dropped")

	require.NoError(t, s.SaveInventory(ctx, "hero", []item.Stack{{ID: "shield", Quantity: 1}}))
	got, err = s.LoadInventory(ctx, "hero")
	require.NoError(t, err)
	assert.Equal(t, []item.Stack{{ID: "shield", Quantity: 1}}, got)

	require.NoError(t, s.SaveInventory(ctx, "hero", nil))
	got, err = s.LoadInventory(ctx, "hero")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.SaveInventory(ctx, "hero", sample))
	got, err := s.LoadInventory(ctx, "hero")
	require.NoError(t, err)
	assert.Equal(t, sample, got)

	got[0].Quantity = 50
	again, _ := s.LoadInventory(ctx, "hero")
	assert.Equal(t, 1, again[0].Quantity)
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "armory.sqlite")
	s, err := OpenSQLite(context.Background(), path, nil)
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}

func TestSQLiteStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "armory.sqlite")
	ctx := context.Background()

	s, err := OpenSQLite(ctx, path, nil)
	require.NoError(t, err)
	require.NoError(t, s.SaveInventory(ctx, "hero", sample))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path, nil)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.LoadInventory(ctx, "hero")
	require.NoError(t, err)
	assert.Equal(t, sample[:3], got)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("ARMORY_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("ARMORY_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	db, err := NewDB(ctx, config.DatabaseConfig{DSN: dsn, MaxOpenConns: 2}, nil)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate(ctx))

	exerciseStore(t, db)
}

func TestOpenSelectsBackend(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Backend = config.BackendMemory
	s, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	cfg.Storage.Backend = config.BackendSQLite
	cfg.Database.SQLitePath = filepath.Join(t.TempDir(), "a.sqlite")
	s, err = Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	cfg.Storage.Backend = "tape"
	_, err = Open(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestRowConversion(t *testing.T) {
	rows := toRows(sample)
	require.Len(t, rows, 3)
	assert.Equal(t, slotRow{slot: 1}, rows[1])
	assert.Equal(t, sample[:3], fromRows(rows))
	assert.Empty(t, fromRows(nil))
}
