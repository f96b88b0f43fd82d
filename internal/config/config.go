// Package config loads lodterrain settings with priority
// defaults < YAML file < command-line flags, and holds the runtime
// tunables the frame loop may change while running.
package config

import (
	"errors"
	"fmt"
	"math/bits"

	"lodterrain/internal/logger"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all settings.
type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Renderer RendererConfig `yaml:"renderer"`
	Terrain  TerrainConfig  `yaml:"terrain"`
	Camera   CameraConfig   `yaml:"camera"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// WindowConfig holds window settings.
type WindowConfig struct {
	Title    string `yaml:"title"`
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	FPSLimit int    `yaml:"fps_limit"`
}

// Backend names a GPU backend.
type Backend string

const (
	BackendVulkan Backend = "vulkan"
	BackendOpenGL Backend = "opengl"
)

// RendererConfig holds GPU backend settings.
type RendererConfig struct {
	Backend        Backend `yaml:"backend"`
	FramesInFlight int     `yaml:"frames_in_flight"`
	Validation     bool    `yaml:"validation"`
	VSync          bool    `yaml:"vsync"`
	ShaderDir      string  `yaml:"shader_dir"`
	Wireframe      bool    `yaml:"wireframe"`
}

// TerrainConfig holds chunking and LOD settings.
type TerrainConfig struct {
	ChunkDimension int             `yaml:"chunk_dimension"`
	MaxChunks      int             `yaml:"max_chunks"`
	LOD            int             `yaml:"lod"`
	Normals        bool            `yaml:"normals"`
	FrustumCulling bool            `yaml:"frustum_culling"`
	Scaling        [3]float32      `yaml:"scaling"`
	Heightmap      HeightmapConfig `yaml:"heightmap"`
}

// HeightmapConfig selects and parameterizes the height source.
type HeightmapConfig struct {
	Source    string  `yaml:"source"` // "image" or "noise"
	Path      string  `yaml:"path"`
	Normalize bool    `yaml:"normalize"`
	Dimension int     `yaml:"dimension"`
	Seed      int64   `yaml:"seed"`
	Smoothing float64 `yaml:"smoothing"`
	Noise     string  `yaml:"noise"` // "perlin" or "value"
	Octaves   int     `yaml:"octaves"`
	Quantize  bool    `yaml:"quantize"`
}

// CameraConfig holds the initial camera.
type CameraConfig struct {
	FOV         float32    `yaml:"fov"`
	Near        float32    `yaml:"near"`
	Far         float32    `yaml:"far"`
	Speed       float32    `yaml:"speed"`
	Sensitivity float64    `yaml:"sensitivity"`
	Position    [3]float32 `yaml:"position"`
	Yaw         float64    `yaml:"yaw"`
	Pitch       float64    `yaml:"pitch"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string            `yaml:"level"`
	File  logger.FileConfig `yaml:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "lodterrain",
			Width:  1280,
			Height: 720,
		},
		Renderer: RendererConfig{
			Backend:        BackendVulkan,
			FramesInFlight: 2,
			VSync:          true,
			ShaderDir:      "assets/shaders/terrain",
		},
		Terrain: TerrainConfig{
			ChunkDimension: 65,
			LOD:            0,
			Normals:        true,
			FrustumCulling: true,
			Scaling:        [3]float32{10, 5, 10},
			Heightmap: HeightmapConfig{
				Source:    "noise",
				Normalize: true,
				Dimension: 1025,
				Seed:      123456,
				Smoothing: 50,
				Noise:     "perlin",
				Octaves:   4,
			},
		},
		Camera: CameraConfig{
			FOV:         60,
			Near:        0.1,
			Far:         20000,
			Speed:       3,
			Sensitivity: 0.1,
			Position:    [3]float32{0, 400, 0},
			Yaw:         -90,
			Pitch:       -30,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(c.Window.Width > 0 && c.Window.Height > 0, "window size %dx%d", c.Window.Width, c.Window.Height)
	check(c.Window.FPSLimit >= 0, "fps_limit %d", c.Window.FPSLimit)
	check(c.Renderer.Backend == BackendVulkan || c.Renderer.Backend == BackendOpenGL,
		"renderer.backend %q", c.Renderer.Backend)
	check(c.Renderer.FramesInFlight >= 1 && c.Renderer.FramesInFlight <= 4,
		"renderer.frames_in_flight %d not in [1,4]", c.Renderer.FramesInFlight)

	span := c.Terrain.ChunkDimension - 1
	check(span >= 2 && bits.OnesCount(uint(span)) == 1,
		"terrain.chunk_dimension %d is not 2^k+1", c.Terrain.ChunkDimension)
	check(c.Terrain.MaxChunks >= 0, "terrain.max_chunks %d", c.Terrain.MaxChunks)
	check(c.Terrain.LOD >= 0, "terrain.lod %d", c.Terrain.LOD)
	for i, s := range c.Terrain.Scaling {
		check(s > 0, "terrain.scaling[%d] = %v", i, s)
	}

	hm := c.Terrain.Heightmap
	switch hm.Source {
	case "image":
		check(hm.Path != "", "terrain.heightmap.path is empty")
	case "noise":
		check(hm.Dimension >= c.Terrain.ChunkDimension,
			"terrain.heightmap.dimension %d smaller than chunk_dimension %d", hm.Dimension, c.Terrain.ChunkDimension)
		check(hm.Noise == "perlin" || hm.Noise == "value", "terrain.heightmap.noise %q", hm.Noise)
		check(hm.Smoothing > 0, "terrain.heightmap.smoothing %v", hm.Smoothing)
		check(hm.Octaves >= 1, "terrain.heightmap.octaves %d", hm.Octaves)
	default:
		check(false, "terrain.heightmap.source %q", hm.Source)
	}

	check(c.Camera.FOV > 0 && c.Camera.FOV < 180, "camera.fov %v", c.Camera.FOV)
	check(c.Camera.Near > 0 && c.Camera.Far > c.Camera.Near, "camera near %v far %v", c.Camera.Near, c.Camera.Far)
	check(c.Camera.Speed > 0, "camera.speed %v", c.Camera.Speed)

	return errors.Join(errs...)
}
