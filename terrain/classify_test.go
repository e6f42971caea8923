package terrain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"tilefield/server/models"
	"tilefield/server/noise"
)

func constantNoise(n float64) noise.Source {
	return noise.Func(func(_, _, _, _ float64) float64 { return n })
}

func TestClassifyThresholdBoundaries(t *testing.T) {
	outside := models.Position{X: 100, Y: -100}
	cases := []struct {
		noise float64
		want  models.TerrainKind
	}{
		{-0.06, models.TerrainWater},
		{-0.05, models.TerrainBeach},
		{-0.01, models.TerrainGround},
		{0.2, models.TerrainGround},
		{0.25, models.TerrainMountain},
		{1.0, models.TerrainMountain},
		{-1.0, models.TerrainWater},
	}
	for _, tc := range cases {
		got := Classify(outside, models.NoiseOffsets{}, constantNoise(tc.noise))
		assert.Equal(t, tc.want, got, "noise %v", tc.noise)
	}
}

func TestKindForHeightBandsAreHalfOpen(t *testing.T) {
	assert.Equal(t, models.TerrainWater, KindForHeight(math.Nextafter(0, -1)))
	assert.Equal(t, models.TerrainBeach, KindForHeight(0))
	assert.Equal(t, models.TerrainBeach, KindForHeight(math.Nextafter(0.04, 0)))
	assert.Equal(t, models.TerrainGround, KindForHeight(0.04))
	assert.Equal(t, models.TerrainGround, KindForHeight(math.Nextafter(0.3, 0)))
	assert.Equal(t, models.TerrainMountain, KindForHeight(0.3))
}

func TestSpawnZoneIsAlwaysGround(t *testing.T) {
	water := constantNoise(-1)
	for x := -12; x <= 12; x++ {
		for y := -12; y <= 12; y++ {
			pos := models.Position{X: x, Y: y}
			inside := math.Sqrt(float64(x*x+y*y)) < 10
			assert.Equal(t, inside, InSpawnZone(pos), "position %v", pos)

			kind := Classify(pos, models.NoiseOffsets{}, water)
			if inside {
				assert.Equal(t, models.TerrainGround, kind, "position %v", pos)
				assert.True(t, kind.IsWalkable())
			} else {
				assert.Equal(t, models.TerrainWater, kind, "position %v", pos)
			}
		}
	}
}

func TestSpawnZoneEdge(t *testing.T) {
	assert.True(t, InSpawnZone(models.Position{X: 9, Y: 0}))
	assert.True(t, InSpawnZone(models.Position{X: 6, Y: 7}))  // 85
	assert.False(t, InSpawnZone(models.Position{X: 10, Y: 0}))
	assert.False(t, InSpawnZone(models.Position{X: 6, Y: 8})) // exactly 10
	assert.False(t, InSpawnZone(models.Position{X: 0, Y: -10}))
}

func TestSpawnZoneDoesNotOverflow(t *testing.T) {
	extremes := []models.Position{
		{X: math.MaxInt, Y: 0},
		{X: math.MinInt, Y: 0},
		{X: 0, Y: math.MinInt},
		{X: math.MaxInt, Y: math.MaxInt},
		{X: 1 << 32, Y: 1 << 32},
		{X: 3037000500, Y: 0}, // squares past MaxInt64
	}
	for _, pos := range extremes {
		assert.False(t, InSpawnZone(pos), "position %v", pos)
	}
}

func TestHeightAppliesOffsetsAndBias(t *testing.T) {
	var gotX, gotY, gotZ, gotScale float64
	src := noise.Func(func(x, y, z, scale float64) float64 {
		gotX, gotY, gotZ, gotScale = x, y, z, scale
		return 0.1
	})
	offsets := models.NoiseOffsets{X: math.MaxInt32, Y: math.MinInt32, Z: -7}

	h := Height(models.Position{X: 5, Y: -5}, offsets, src)

	assert.InDelta(t, 0.15, h, 1e-12)
	assert.Equal(t, float64(math.MaxInt32)+5, gotX, "sum must not wrap at 32 bits")
	assert.Equal(t, float64(math.MinInt32)-5, gotY)
	assert.Equal(t, -7.0, gotZ)
	assert.Equal(t, 30.0, gotScale)
}
