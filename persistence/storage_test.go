package persistence

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tilefield/server/models"
)

func samplePlayer() *models.Player {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &models.Player{
		ID:        "player_1",
		Username:  "ada",
		World:     "overworld",
		X:         -12,
		Y:         40,
		Icon:      "@",
		Color:     []int{255, 255, 255},
		CreatedAt: created,
		UpdatedAt: created.Add(time.Minute),
	}
}

func sampleSeed() *models.WorldSeed {
	return &models.WorldSeed{
		Name:      "overworld",
		Offsets:   models.NoiseOffsets{X: -2147483648, Y: 2147483647, Z: 99},
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// exerciseStorage runs the shared contract against any backend
func exerciseStorage(t *testing.T, store Storage) {
	t.Helper()

	_, err := store.LoadPlayer("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.LoadPlayerByUsername("nobody")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.LoadWorldSeed("nowhere")
	assert.ErrorIs(t, err, ErrNotFound)

	player := samplePlayer()
	require.NoError(t, store.SavePlayer(player))

	loaded, err := store.LoadPlayer(player.ID)
	require.NoError(t, err)
	assert.Equal(t, player.Username, loaded.Username)
	assert.Equal(t, player.World, loaded.World)
	assert.Equal(t, player.Position(), loaded.Position())
	assert.Equal(t, player.Color, loaded.Color)
	assert.True(t, player.CreatedAt.Equal(loaded.CreatedAt))

	player.X, player.Y = 3, 4
	require.NoError(t, store.SavePlayer(player))
	loaded, err = store.LoadPlayerByUsername("ada")
	require.NoError(t, err)
	assert.Equal(t, models.Position{X: 3, Y: 4}, loaded.Position())

	seed := sampleSeed()
	require.NoError(t, store.SaveWorldSeed(seed))
	got, err := store.LoadWorldSeed("overworld")
	require.NoError(t, err)
	assert.Equal(t, seed.Offsets, got.Offsets)
	assert.True(t, seed.CreatedAt.Equal(got.CreatedAt))
}

func TestJSONStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	store, err := NewJSONStore(path)
	require.NoError(t, err)
	exerciseStorage(t, store)
	require.NoError(t, store.Close())

	reopened, err := NewJSONStore(path)
	require.NoError(t, err)
	seed, err := reopened.LoadWorldSeed("overworld")
	require.NoError(t, err)
	assert.Equal(t, sampleSeed().Offsets, seed.Offsets)
}

func TestJSONStoreReturnsCopies(t *testing.T) {
	store, err := NewJSONStore(filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, err)

	player := samplePlayer()
	require.NoError(t, store.SavePlayer(player))
	player.X = 999

	loaded, err := store.LoadPlayer(player.ID)
	require.NoError(t, err)
	assert.Equal(t, -12, loaded.X)
}

func TestJSONStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewJSONStore(path)
	assert.Error(t, err)
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tiles.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	exerciseStorage(t, store)
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()
	player, err := reopened.LoadPlayer("player_1")
	require.NoError(t, err)
	assert.Equal(t, "ada", player.Username)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL is required for integration test")
	}
	store, err := NewPostgresStore(dsn)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.db.Exec("DELETE FROM players; DELETE FROM world_seeds")
	require.NoError(t, err)
	exerciseStorage(t, store)
}

func TestOpenSelectsBackend(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(TypeJSON, filepath.Join(dir, "a.json"))
	require.NoError(t, err)
	assert.IsType(t, &JSONStore{}, s)

	s, err = Open(TypeSQLite, filepath.Join(dir, "b.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open("mongo", "")
	assert.Error(t, err)
}

func TestDollarPlaceholders(t *testing.T) {
	assert.Equal(t,
		"SELECT a FROM t WHERE b = $1 AND c = $2",
		dollarPlaceholders("SELECT a FROM t WHERE b = ? AND c = ?"))
	assert.Equal(t, "SELECT 1", dollarPlaceholders("SELECT 1"))
}
