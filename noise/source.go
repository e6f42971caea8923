package noise

import (
	"errors"
	"fmt"
	"strings"
)

// Backend names accepted by New
const (
	BackendPerlin   = "perlin"
	BackendGoPerlin = "goperlin"
	BackendSimplex  = "simplex"
)

// Octaves and octave falloff shared by every backend
const (
	DefaultOctaves = 4
	persistence    = 0.5
	lacunarity     = 2.0
)

// ErrUnknownBackend is returned by New for unrecognised backend names
var ErrUnknownBackend = errors.New("unknown noise backend")

// Source is a deterministic, continuous fractal noise surface.
// Identical inputs always yield identical output, roughly in [-1, 1].
type Source interface {
	OctavedNoise(x, y, z, scale float64) float64
}

// Func adapts a plain function to Source
type Func func(x, y, z, scale float64) float64

func (f Func) OctavedNoise(x, y, z, scale float64) float64 { return f(x, y, z, scale) }

// New builds the named backend. The seed only matters for the library
// backends; the reference Perlin surface is fixed and varied by offsets alone.
func New(backend string, seed int64) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendPerlin:
		return NewPerlin(), nil
	case BackendGoPerlin:
		return NewGoPerlin(seed), nil
	case BackendSimplex:
		return NewSimplex(seed), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// octave sums DefaultOctaves samples of base, halving amplitude and doubling
// frequency each step, and normalizes by the amplitude sum.
func octave(base func(x, y, z float64) float64, x, y, z, scale float64) float64 {
	total := 0.0
	frequency := 1.0
	amplitude := 1.0
	amplitudes := 0.0
	for i := 0; i < DefaultOctaves; i++ {
		total += base(x/scale*frequency, y/scale*frequency, z/scale*frequency) * amplitude
		amplitudes += amplitude
		amplitude *= persistence
		frequency *= lacunarity
	}
	return total / amplitudes
}

func amplitudeSum() float64 {
	sum := 0.0
	amplitude := 1.0
	for i := 0; i < DefaultOctaves; i++ {
		sum += amplitude
		amplitude *= persistence
	}
	return sum
}
