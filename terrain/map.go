package terrain

import (
	"math"

	"tilefield/server/models"
	"tilefield/server/noise"
)

// Map is a lazily generated, unbounded terrain field. Tiles are classified on
// first lookup and cached for the lifetime of the map. Safe for concurrent use.
type Map struct {
	offsets models.NoiseOffsets
	noise   noise.Source
	cache   *TileCache
}

// NewMap draws fresh offsets from entropy (the process source when nil).
// A nil src selects the reference Perlin surface.
func NewMap(src noise.Source, entropy Entropy) *Map {
	if entropy == nil {
		entropy = ProcessEntropy()
	}
	return NewMapWithOffsets(src, DrawOffsets(entropy))
}

// NewMapWithOffsets rebuilds a map from previously captured offsets
func NewMapWithOffsets(src noise.Source, offsets models.NoiseOffsets) *Map {
	if src == nil {
		src = noise.NewPerlin()
	}
	return &Map{
		offsets: offsets,
		noise:   src,
		cache:   NewTileCache(),
	}
}

// Offsets returns the noise realization of this map
func (m *Map) Offsets() models.NoiseOffsets {
	return m.offsets
}

// GetTile returns the terrain at pos, generating it on first access
func (m *Map) GetTile(pos models.Position) models.TerrainKind {
	return m.cache.GetOrCreate(pos, m.generate)
}

func (m *Map) generate(pos models.Position) models.TerrainKind {
	return Classify(pos, m.offsets, m.noise)
}

// GetNearbyTiles returns the window of 2*radiusY+1 rows by 2*radiusX+1 columns
// around center. Row 0 is the northernmost (y = center.Y+radiusY); columns run
// west to east. A negative radius leaves that dimension empty. Coordinates
// past the edge of int wrap around.
func (m *Map) GetNearbyTiles(center models.Position, radiusX, radiusY int) [][]models.TerrainKind {
	height, width := span(radiusY), span(radiusX)
	rows := make([][]models.TerrainKind, 0, min(height, maxPrealloc))
	for i := 0; i < height; i++ {
		y := center.Y + radiusY - i
		row := make([]models.TerrainKind, 0, min(width, maxPrealloc))
		for j := 0; j < width; j++ {
			row = append(row, m.GetTile(models.Position{X: center.X - radiusX + j, Y: y}))
		}
		rows = append(rows, row)
	}
	return rows
}

// IsWalkable reports whether the terrain at pos can be walked on
func (m *Map) IsWalkable(pos models.Position) bool {
	return m.GetTile(pos).IsWalkable()
}

// Generated returns how many distinct tiles have been generated so far
func (m *Map) Generated() int {
	return m.cache.Len()
}

// maxPrealloc caps the capacity reserved up front for one window dimension
const maxPrealloc = 1 << 12

// span is the number of tiles covered by radius, saturating at math.MaxInt
func span(radius int) int {
	if radius < 0 {
		return 0
	}
	if radius > (math.MaxInt-1)/2 {
		return math.MaxInt
	}
	return 2*radius + 1
}
