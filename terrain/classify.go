package terrain

import (
	"tilefield/server/models"
	"tilefield/server/noise"
)

const (
	// NoiseScale stretches the noise surface over this many tiles
	NoiseScale = 30
	// HeightBias nudges the world towards land
	HeightBias = 0.05
	// SpawnRadius is the radius of the always-walkable disk around the origin
	SpawnRadius = 10

	beachLevel    = 0.0
	groundLevel   = 0.04
	mountainLevel = 0.3
)

// Classify maps a position to its terrain for one noise realization.
// It is pure: the same inputs always produce the same kind.
func Classify(pos models.Position, offsets models.NoiseOffsets, src noise.Source) models.TerrainKind {
	if InSpawnZone(pos) {
		return models.TerrainGround
	}
	return KindForHeight(Height(pos, offsets, src))
}

// Height samples the biased noise height at pos
func Height(pos models.Position, offsets models.NoiseOffsets, src noise.Source) float64 {
	x := int64(pos.X) + int64(offsets.X)
	y := int64(pos.Y) + int64(offsets.Y)
	n := src.OctavedNoise(float64(x), float64(y), float64(offsets.Z), NoiseScale)
	return n + HeightBias
}

// KindForHeight applies the half-open height bands; the first match wins.
func KindForHeight(height float64) models.TerrainKind {
	switch {
	case height < beachLevel:
		return models.TerrainWater
	case height < groundLevel:
		return models.TerrainBeach
	case height < mountainLevel:
		return models.TerrainGround
	default:
		return models.TerrainMountain
	}
}

// InSpawnZone reports whether pos lies strictly within SpawnRadius of the origin.
// Anything at or beyond the radius on one axis is rejected before squaring,
// so the product never overflows.
func InSpawnZone(pos models.Position) bool {
	if pos.X <= -SpawnRadius || pos.X >= SpawnRadius || pos.Y <= -SpawnRadius || pos.Y >= SpawnRadius {
		return false
	}
	return pos.X*pos.X+pos.Y*pos.Y < SpawnRadius*SpawnRadius
}
