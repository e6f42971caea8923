package terrain

import (
	"math/rand/v2"
	"sync"

	"tilefield/server/models"
)

// Entropy supplies the random bits used to pick a map's noise offsets
type Entropy interface {
	Uint32() uint32
}

// lockedEntropy serializes draws so maps can be built from many goroutines
type lockedEntropy struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (e *lockedEntropy) Uint32() uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.r.Uint32()
}

var processEntropy = &lockedEntropy{
	r: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
}

// ProcessEntropy returns the shared, randomly seeded source used when no
// explicit source is given. It is safe for concurrent use.
func ProcessEntropy() Entropy {
	return processEntropy
}

// SeededEntropy returns a reproducible source for tests and replays.
// It is not safe for concurrent use.
func SeededEntropy(seed int64) Entropy {
	return rand.New(rand.NewPCG(uint64(seed), 0))
}

// DrawOffsets takes three values spanning the full int32 range
func DrawOffsets(e Entropy) models.NoiseOffsets {
	return models.NoiseOffsets{
		X: int32(e.Uint32()),
		Y: int32(e.Uint32()),
		Z: int32(e.Uint32()),
	}
}
