package heightmap

import (
	"fmt"
	"math"

	"github.com/aquilax/go-perlin"
	"github.com/go-gl/mathgl/mgl32"
)

// NoiseKind selects the coherent noise function used by Generate.
type NoiseKind string

const (
	NoisePerlin NoiseKind = "perlin"
	NoiseValue  NoiseKind = "value"
)

// NoiseOptions parameterize procedural heightmaps.
type NoiseOptions struct {
	Dimension int
	Seed      int64
	// Smoothing divides lattice coordinates before evaluation.
	Smoothing float64
	Kind      NoiseKind
	Octaves   int
	// Alpha is the amplitude divisor between octaves, Beta the frequency
	// multiplier.
	Alpha float64
	Beta  float64
	// Quantize rounds samples to 1/255 steps, matching byte-backed sources.
	Quantize bool
	Scaling  mgl32.Vec3
}

// DefaultNoiseOptions returns the options used when nothing is configured.
func DefaultNoiseOptions(dimension int) NoiseOptions {
	return NoiseOptions{
		Dimension: dimension,
		Seed:      123456,
		Smoothing: 50,
		Kind:      NoisePerlin,
		Octaves:   4,
		Alpha:     2,
		Beta:      2,
		Scaling:   DefaultScaling,
	}
}

// Generate fills a heightmap with deterministic noise in [0,1]. Equal
// options always produce identical samples.
func Generate(opts NoiseOptions) (*Heightmap, error) {
	if opts.Dimension <= 0 {
		return nil, fmt.Errorf("noise dimension %d must be positive", opts.Dimension)
	}
	if opts.Smoothing <= 0 {
		opts.Smoothing = 1
	}
	if opts.Octaves <= 0 {
		opts.Octaves = 1
	}

	var sample func(x, y float64) float64
	switch opts.Kind {
	case NoisePerlin, "":
		alpha, beta := opts.Alpha, opts.Beta
		if alpha <= 0 {
			alpha = 2
		}
		if beta <= 0 {
			beta = 2
		}
		p := perlin.NewPerlin(alpha, beta, int32(opts.Octaves), opts.Seed)
		sample = func(x, y float64) float64 {
			return (p.Noise2D(x, y) + 1) / 2
		}
	case NoiseValue:
		persistence := 0.5
		if opts.Alpha > 0 {
			persistence = 1 / opts.Alpha
		}
		lacunarity := opts.Beta
		if lacunarity <= 0 {
			lacunarity = 2
		}
		sample = func(x, y float64) float64 {
			return octaveNoise2D(x, y, opts.Seed, opts.Octaves, persistence, lacunarity)
		}
	default:
		return nil, fmt.Errorf("unknown noise kind %q", opts.Kind)
	}

	dim := opts.Dimension
	samples := make([]float32, dim*dim)
	for y := range dim {
		for x := range dim {
			v := clamp01(sample(float64(x)/opts.Smoothing, float64(y)/opts.Smoothing))
			if opts.Quantize {
				v = math.Round(v*255) / 255
			}
			samples[y*dim+x] = float32(v)
		}
	}
	return New(dim, samples, opts.Scaling, UnitRange)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// fade is the quintic smoothstep 6t^5 - 15t^4 + 10t^3.
func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// hash2 mixes each axis with its own odd multiplier before the SplitMix64
// finaliser, so no lattice shift along one axis aliases another.
func hash2(x, y, seed int64) uint64 {
	v := uint64(x)*0x9E3779B97F4A7C15 + uint64(y)*0x517CC1B727220A95 + uint64(seed)
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	return v ^ (v >> 31)
}

func latticeValue(x, y, seed int64) float64 {
	return float64(hash2(x, y, seed)&0xFFFFFFFF) / float64(0xFFFFFFFF)
}

func valueNoise2D(x, y float64, seed int64) float64 {
	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := fade(x-x0), fade(y-y0)
	ix, iy := int64(x0), int64(y0)

	i0 := lerp(latticeValue(ix, iy, seed), latticeValue(ix+1, iy, seed), fx)
	i1 := lerp(latticeValue(ix, iy+1, seed), latticeValue(ix+1, iy+1, seed), fx)
	return lerp(i0, i1, fy)
}

func octaveNoise2D(x, y float64, seed int64, octaves int, persistence, lacunarity float64) float64 {
	amplitude, frequency := 1.0, 1.0
	sum, norm := 0.0, 0.0
	for i := range octaves {
		sum += valueNoise2D(x*frequency, y*frequency, seed+int64(i*131)) * amplitude
		norm += amplitude
		amplitude *= persistence
		frequency *= lacunarity
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}
