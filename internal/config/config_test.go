package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if cfg.Renderer.Backend != BackendVulkan {
		t.Errorf("backend = %q", cfg.Renderer.Backend)
	}
	if cfg.Terrain.ChunkDimension != 65 || cfg.Terrain.Heightmap.Dimension != 1025 {
		t.Errorf("terrain defaults %+v", cfg.Terrain)
	}
	if !cfg.Terrain.Heightmap.Normalize {
		t.Error("heights should be normalized by default")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"chunk not 2^k+1", func(c *Config) { c.Terrain.ChunkDimension = 64 }},
		{"chunk too small", func(c *Config) { c.Terrain.ChunkDimension = 2 }},
		{"backend", func(c *Config) { c.Renderer.Backend = "metal" }},
		{"frames", func(c *Config) { c.Renderer.FramesInFlight = 0 }},
		{"image without path", func(c *Config) { c.Terrain.Heightmap.Source = "image" }},
		{"noise smaller than chunk", func(c *Config) { c.Terrain.Heightmap.Dimension = 33 }},
		{"noise kind", func(c *Config) { c.Terrain.Heightmap.Noise = "simplex" }},
		{"source", func(c *Config) { c.Terrain.Heightmap.Source = "lidar" }},
		{"scaling", func(c *Config) { c.Terrain.Scaling[1] = 0 }},
		{"far before near", func(c *Config) { c.Camera.Far = 0.01 }},
		{"window", func(c *Config) { c.Window.Width = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Fatalf("Validate() = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestLoadLayersFileAndFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	data := `
renderer:
  backend: opengl
terrain:
  chunk_dimension: 33
  heightmap:
    seed: 42
camera:
  speed: 12
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load([]string{"-config", path, "-seed", "7", "-lod", "2", "-debug"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Renderer.Backend != BackendOpenGL {
		t.Errorf("backend = %q, want file value", cfg.Renderer.Backend)
	}
	if cfg.Terrain.ChunkDimension != 33 {
		t.Errorf("chunk_dimension = %d", cfg.Terrain.ChunkDimension)
	}
	if cfg.Terrain.Heightmap.Seed != 7 {
		t.Errorf("seed = %d, want flag value 7", cfg.Terrain.Heightmap.Seed)
	}
	if cfg.Terrain.LOD != 2 || cfg.Logging.Level != "debug" {
		t.Errorf("flags not applied: lod %d level %q", cfg.Terrain.LOD, cfg.Logging.Level)
	}
	if cfg.Camera.Speed != 12 {
		t.Errorf("speed = %v", cfg.Camera.Speed)
	}
	// Keys missing from the file keep their defaults.
	if cfg.Terrain.Heightmap.Dimension != 1025 || cfg.Window.Width != 1280 {
		t.Errorf("defaults lost: %+v", cfg.Terrain.Heightmap)
	}
}

func TestLoadHeightmapFlagSwitchesSource(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load([]string{"-heightmap", "hills.png", "-no-culling"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Terrain.Heightmap.Source != "image" || cfg.Terrain.Heightmap.Path != "hills.png" {
		t.Errorf("heightmap = %+v", cfg.Terrain.Heightmap)
	}
	if cfg.Terrain.FrustumCulling {
		t.Error("culling still on")
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	unknown := filepath.Join(dir, "unknown.yaml")
	if err := os.WriteFile(unknown, []byte("terrain:\n  chunk_size: 65\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load([]string{"-config", unknown}); err == nil {
		t.Error("unknown key accepted")
	}
	if _, err := Load([]string{"-config", filepath.Join(dir, "missing.yaml")}); err == nil {
		t.Error("missing explicit config accepted")
	}
	if _, err := Load([]string{"-chunk", "64"}); !errors.Is(err, ErrInvalid) {
		t.Errorf("invalid flag value: %v", err)
	}
	if _, err := Load([]string{"-bogus"}); err == nil {
		t.Error("unknown flag accepted")
	}
}

func TestLoadFindsFileInWorkingDirectory(t *testing.T) {
	t.Chdir(t.TempDir())
	if err := os.WriteFile(FileName, []byte("window:\n  width: 640\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Window.Width != 640 {
		t.Errorf("width = %d", cfg.Window.Width)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)
	cfg := Default()
	cfg.Terrain.LOD = 3
	if err := cfg.SaveTo(path); err != nil {
		t.Fatal(err)
	}
	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatal(err)
	}
	if loaded.Terrain.LOD != 3 {
		t.Errorf("lod = %d", loaded.Terrain.LOD)
	}
}

func TestRuntimeSettingsClamp(t *testing.T) {
	t.Cleanup(func() { ApplyRuntime(Default()) })

	SetFOV(500)
	if GetFOV() != 120 {
		t.Errorf("fov = %v", GetFOV())
	}
	SetCameraSpeed(0)
	if GetCameraSpeed() != 0.1 {
		t.Errorf("speed = %v", GetCameraSpeed())
	}
	SetMouseSensitivity(-1)
	if GetMouseSensitivity() != 0.01 {
		t.Errorf("sensitivity = %v", GetMouseSensitivity())
	}

	cfg := Default()
	cfg.Terrain.FrustumCulling = false
	ApplyRuntime(cfg)
	if GetFrustumCulling() || GetFOV() != 60 {
		t.Errorf("ApplyRuntime not applied")
	}
}

func TestRuntimeSettingsConcurrent(t *testing.T) {
	t.Cleanup(func() { ApplyRuntime(Default()) })
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				SetCameraSpeed(float32(i*100 + j))
				_ = GetCameraSpeed()
				SetFrustumCulling(j%2 == 0)
				_ = GetFrustumCulling()
			}
		}()
	}
	wg.Wait()
}
