package terrain

import (
	"sync"

	"tilefield/server/models"
)

// TileCache memoizes generated terrain by position. Entries are never evicted.
type TileCache struct {
	tiles map[models.Position]models.TerrainKind
	mutex sync.RWMutex
}

// NewTileCache creates an empty tile cache
func NewTileCache() *TileCache {
	return &TileCache{
		tiles: make(map[models.Position]models.TerrainKind),
	}
}

// Get returns the cached kind at pos, if any
func (tc *TileCache) Get(pos models.Position) (models.TerrainKind, bool) {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	kind, exists := tc.tiles[pos]
	return kind, exists
}

// GetOrCreate returns the cached kind at pos, generating and storing it on a miss
func (tc *TileCache) GetOrCreate(pos models.Position, generate func(models.Position) models.TerrainKind) models.TerrainKind {
	if kind, exists := tc.Get(pos); exists {
		return kind
	}
	return tc.create(pos, generate)
}

func (tc *TileCache) create(pos models.Position, generate func(models.Position) models.TerrainKind) models.TerrainKind {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	// Another goroutine may have generated it while we waited for the lock
	if kind, exists := tc.tiles[pos]; exists {
		return kind
	}

	kind := generate(pos)
	tc.tiles[pos] = kind
	return kind
}

// Len returns the number of generated tiles
func (tc *TileCache) Len() int {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	return len(tc.tiles)
}
