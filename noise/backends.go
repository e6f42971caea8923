package noise

import (
	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// GoPerlin samples github.com/aquilax/go-perlin, letting the library run
// the octave loop and normalizing its sum to roughly [-1, 1].
type GoPerlin struct {
	noise *perlin.Perlin
	norm  float64
}

// NewGoPerlin creates the backend with alpha=2, beta=2 so each octave halves
// amplitude and doubles frequency, matching the reference surface.
func NewGoPerlin(seed int64) *GoPerlin {
	return &GoPerlin{
		noise: perlin.NewPerlin(1/persistence, lacunarity, DefaultOctaves, seed),
		norm:  amplitudeSum(),
	}
}

func (g *GoPerlin) OctavedNoise(x, y, z, scale float64) float64 {
	return g.noise.Noise3D(x/scale, y/scale, z/scale) / g.norm
}

// Simplex samples OpenSimplex noise through the shared octave loop.
type Simplex struct {
	noise opensimplex.Noise
}

// NewSimplex creates the OpenSimplex backend for seed
func NewSimplex(seed int64) *Simplex {
	return &Simplex{noise: opensimplex.New(seed)}
}

func (s *Simplex) OctavedNoise(x, y, z, scale float64) float64 {
	return octave(s.noise.Eval3, x, y, z, scale)
}
