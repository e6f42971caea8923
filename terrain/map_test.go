package terrain

import (
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tilefield/server/models"
	"tilefield/server/noise"
)

// countingNoise returns a height derived from x so tiles differ, and counts calls
type countingNoise struct {
	calls atomic.Int64
}

func (c *countingNoise) OctavedNoise(x, y, _, _ float64) float64 {
	c.calls.Add(1)
	switch int64(x+y) % 4 {
	case 0:
		return -0.5
	case 1, -1:
		return -0.03
	case 2, -2:
		return 0.1
	default:
		return 0.8
	}
}

func TestGetTileIsDeterministic(t *testing.T) {
	m := NewMap(nil, SeededEntropy(1))
	positions := []models.Position{{X: 0, Y: 0}, {X: 250, Y: -13}, {X: -4000, Y: 77}, {X: 31, Y: 31}}
	for _, pos := range positions {
		first := m.GetTile(pos)
		assert.Equal(t, first, m.GetTile(pos), "position %v", pos)
		assert.Equal(t, first.IsWalkable(), m.IsWalkable(pos))
	}
}

func TestGetTileMemoizes(t *testing.T) {
	src := &countingNoise{}
	m := NewMapWithOffsets(src, models.NoiseOffsets{})
	pos := models.Position{X: 40, Y: 3}

	m.GetTile(pos)
	m.GetTile(pos)
	m.IsWalkable(pos)

	assert.EqualValues(t, 1, src.calls.Load())
	assert.Equal(t, 1, m.Generated())
}

func TestSameOffsetsReproduceTerrain(t *testing.T) {
	offsets := DrawOffsets(SeededEntropy(77))
	a := NewMapWithOffsets(nil, offsets)
	b := NewMapWithOffsets(noise.NewPerlin(), offsets)

	assert.Equal(t, a.GetNearbyTiles(models.Position{X: 500, Y: 500}, 20, 20),
		b.GetNearbyTiles(models.Position{X: 500, Y: 500}, 20, 20))
}

func TestSeededEntropyIsReproducible(t *testing.T) {
	a := NewMap(nil, SeededEntropy(5))
	b := NewMap(nil, SeededEntropy(5))
	c := NewMap(nil, SeededEntropy(6))
	assert.Equal(t, a.Offsets(), b.Offsets())
	assert.NotEqual(t, a.Offsets(), c.Offsets())
}

func TestProcessEntropyGivesIndependentMaps(t *testing.T) {
	a := NewMap(nil, nil)
	b := NewMap(nil, nil)
	assert.NotEqual(t, a.Offsets(), b.Offsets())
}

func TestSpawnAreaIsWalkableOnRealNoise(t *testing.T) {
	m := NewMap(nil, SeededEntropy(3))
	for x := -9; x <= 9; x++ {
		for y := -9; y <= 9; y++ {
			if x*x+y*y < 100 {
				assert.True(t, m.IsWalkable(models.Position{X: x, Y: y}), "(%d,%d)", x, y)
			}
		}
	}
}

func TestGetNearbyTilesShapeAndOrder(t *testing.T) {
	m := NewMapWithOffsets(&countingNoise{}, models.NoiseOffsets{})
	center := models.Position{X: 0, Y: 0}

	rows := m.GetNearbyTiles(center, 1, 1)

	require.Len(t, rows, 3)
	for _, row := range rows {
		require.Len(t, row, 3)
	}
	for r, y := range []int{1, 0, -1} {
		for c, x := range []int{-1, 0, 1} {
			assert.Equal(t, m.GetTile(models.Position{X: x, Y: y}), rows[r][c], "row %d col %d", r, c)
		}
	}
}

func TestGetNearbyTilesOrderAwayFromSpawn(t *testing.T) {
	m := NewMapWithOffsets(&countingNoise{}, models.NoiseOffsets{})
	center := models.Position{X: 100, Y: 200}

	rows := m.GetNearbyTiles(center, 3, 2)

	require.Len(t, rows, 5)
	for r, row := range rows {
		require.Len(t, row, 7)
		y := center.Y + 2 - r
		for c, kind := range row {
			x := center.X - 3 + c
			want := KindForHeight((&countingNoise{}).OctavedNoise(float64(x), float64(y), 0, NoiseScale) + HeightBias)
			assert.Equal(t, want, kind, "(%d,%d)", x, y)
		}
	}
	assert.Equal(t, 35, m.Generated())
}

func TestGetNearbyTilesNegativeRadius(t *testing.T) {
	m := NewMap(nil, SeededEntropy(9))

	rows := m.GetNearbyTiles(models.Position{X: 4, Y: 4}, -1, 0)
	require.Len(t, rows, 1)
	assert.Len(t, rows[0], 0)

	rows = m.GetNearbyTiles(models.Position{X: 4, Y: 4}, 2, -1)
	assert.Len(t, rows, 0)

	rows = m.GetNearbyTiles(models.Position{X: 4, Y: 4}, -5, -5)
	assert.Len(t, rows, 0)
	assert.Equal(t, 0, m.Generated())
}

func TestGetNearbyTilesMinIntRadius(t *testing.T) {
	m := NewMap(nil, SeededEntropy(9))

	rows := m.GetNearbyTiles(models.Position{}, math.MinInt, 0)
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0])

	assert.Empty(t, m.GetNearbyTiles(models.Position{}, 0, math.MinInt))
	assert.Empty(t, m.GetNearbyTiles(models.Position{X: math.MaxInt, Y: math.MinInt}, math.MinInt, math.MinInt))
	assert.Equal(t, 0, m.Generated())
}

func TestGetNearbyTilesAtIntEdges(t *testing.T) {
	m := NewMap(nil, SeededEntropy(9))

	rows := m.GetNearbyTiles(models.Position{X: math.MaxInt - 1, Y: 0}, 1, 0)
	require.Len(t, rows, 1)
	require.Len(t, rows[0], 3)
	assert.Equal(t, m.GetTile(models.Position{X: math.MaxInt, Y: 0}), rows[0][2])

	top := math.MaxInt
	wrapped := top + 1
	rows = m.GetNearbyTiles(models.Position{X: top, Y: top}, 1, 1)
	require.Len(t, rows, 3)
	for _, row := range rows {
		require.Len(t, row, 3)
	}
	assert.Equal(t, m.GetTile(models.Position{X: wrapped, Y: wrapped}), rows[0][2])

	rows = m.GetNearbyTiles(models.Position{X: math.MinInt, Y: math.MinInt}, 1, 1)
	require.Len(t, rows, 3)
	for _, row := range rows {
		require.Len(t, row, 3)
	}
	assert.Equal(t, m.GetTile(models.Position{X: math.MinInt, Y: math.MinInt}), rows[1][1])
}

func TestSpanSaturates(t *testing.T) {
	assert.Equal(t, 0, span(-1))
	assert.Equal(t, 0, span(math.MinInt))
	assert.Equal(t, 1, span(0))
	assert.Equal(t, 129, span(64))
	assert.Equal(t, math.MaxInt, span(math.MaxInt))
	assert.Equal(t, math.MaxInt, span(math.MaxInt/2))
}

func TestGetNearbyTilesZeroRadius(t *testing.T) {
	m := NewMap(nil, SeededEntropy(9))
	pos := models.Position{X: -70, Y: 12}

	rows := m.GetNearbyTiles(pos, 0, 0)

	require.Len(t, rows, 1)
	require.Len(t, rows[0], 1)
	assert.Equal(t, m.GetTile(pos), rows[0][0])
}

func TestWalkabilityAgreesWithPriorWindow(t *testing.T) {
	m := NewMap(nil, SeededEntropy(11))
	center := models.Position{X: -300, Y: 45}
	rows := m.GetNearbyTiles(center, 6, 4)
	before := m.Generated()

	for r, row := range rows {
		for c, kind := range row {
			pos := models.Position{X: center.X - 6 + c, Y: center.Y + 4 - r}
			assert.Equal(t, kind.IsWalkable(), m.IsWalkable(pos), "position %v", pos)
		}
	}
	assert.Equal(t, before, m.Generated(), "lookups inside the window must hit the cache")
}

func TestCacheOnlyGrows(t *testing.T) {
	m := NewMap(nil, SeededEntropy(13))
	m.GetNearbyTiles(models.Position{}, 2, 2)
	assert.Equal(t, 25, m.Generated())
	m.GetNearbyTiles(models.Position{X: 1}, 2, 2)
	assert.Equal(t, 30, m.Generated())
	m.GetNearbyTiles(models.Position{}, 1, 1)
	assert.Equal(t, 30, m.Generated())
}

func TestConcurrentLookupsGenerateEachTileOnce(t *testing.T) {
	src := &countingNoise{}
	m := NewMapWithOffsets(src, models.NoiseOffsets{})
	center := models.Position{X: 1000, Y: 1000}

	var wg sync.WaitGroup
	results := make([][][]models.TerrainKind, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = m.GetNearbyTiles(center, 5, 5)
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(results); i++ {
		assert.Equal(t, results[0], results[i])
	}
	assert.EqualValues(t, 121, src.calls.Load())
	assert.Equal(t, 121, m.Generated())
}

func TestConcurrentMapConstruction(t *testing.T) {
	var wg sync.WaitGroup
	offsets := make([]models.NoiseOffsets, 16)
	for i := range offsets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			offsets[i] = NewMap(nil, nil).Offsets()
		}(i)
	}
	wg.Wait()

	seen := map[models.NoiseOffsets]bool{}
	for _, o := range offsets {
		seen[o] = true
	}
	assert.Len(t, seen, len(offsets))
}
