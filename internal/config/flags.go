package config

import (
	"flag"
	"fmt"
	"io"
)

type flags struct {
	configPath string
	debug      bool
	backend    string
	heightmap  string
	seed       int64
	chunkDim   int
	lod        int
	frames     int
	width      int
	height     int
	validation bool
	wireframe  bool
	noCulling  bool
}

func parseFlags(args []string) (*flags, error) {
	f := &flags{seed: -1, lod: -1}
	fs := flag.NewFlagSet("lodterrain", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&f.configPath, "config", "", "path to config file")
	fs.BoolVar(&f.debug, "debug", false, "enable debug logging")
	fs.StringVar(&f.backend, "backend", "", "GPU backend: vulkan or opengl")
	fs.StringVar(&f.heightmap, "heightmap", "", "heightmap image; switches the source to image")
	fs.Int64Var(&f.seed, "seed", -1, "procedural heightmap seed")
	fs.IntVar(&f.chunkDim, "chunk", 0, "chunk dimension (2^k+1)")
	fs.IntVar(&f.lod, "lod", -1, "initial level of detail")
	fs.IntVar(&f.frames, "frames", 0, "frames in flight")
	fs.IntVar(&f.width, "width", 0, "window width")
	fs.IntVar(&f.height, "height", 0, "window height")
	fs.BoolVar(&f.validation, "validation", false, "enable Vulkan validation layers")
	fs.BoolVar(&f.wireframe, "wireframe", false, "draw terrain as wireframe")
	fs.BoolVar(&f.noCulling, "no-culling", false, "disable frustum culling")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}
	return f, nil
}

func (f *flags) apply(cfg *Config) {
	if f.debug {
		cfg.Logging.Level = "debug"
	}
	if f.backend != "" {
		cfg.Renderer.Backend = Backend(f.backend)
	}
	if f.heightmap != "" {
		cfg.Terrain.Heightmap.Source = "image"
		cfg.Terrain.Heightmap.Path = f.heightmap
	}
	if f.seed >= 0 {
		cfg.Terrain.Heightmap.Seed = f.seed
	}
	if f.chunkDim > 0 {
		cfg.Terrain.ChunkDimension = f.chunkDim
	}
	if f.lod >= 0 {
		cfg.Terrain.LOD = f.lod
	}
	if f.frames > 0 {
		cfg.Renderer.FramesInFlight = f.frames
	}
	if f.width > 0 {
		cfg.Window.Width = f.width
	}
	if f.height > 0 {
		cfg.Window.Height = f.height
	}
	if f.validation {
		cfg.Renderer.Validation = true
	}
	if f.wireframe {
		cfg.Renderer.Wireframe = true
	}
	if f.noCulling {
		cfg.Terrain.FrustumCulling = false
	}
}
