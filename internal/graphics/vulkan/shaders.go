package vulkan

//go:generate glslc ../../../assets/shaders/terrain/terrain.vert -o ../../../assets/shaders/terrain/terrain.vert.spv
//go:generate glslc ../../../assets/shaders/terrain/terrain.frag -o ../../../assets/shaders/terrain/terrain.frag.spv

import (
	"fmt"
	"os"
	"path/filepath"

	"lodterrain/internal/gpu"
)

// LoadShaderSet reads <dir>/<name>.vert.spv and <dir>/<name>.frag.spv.
func LoadShaderSet(dir, name string) (gpu.ShaderSet, error) {
	set := gpu.ShaderSet{Name: name}
	for _, s := range []struct {
		ext string
		dst *[]byte
	}{
		{".vert.spv", &set.Vertex},
		{".frag.spv", &set.Fragment},
	} {
		path := filepath.Join(dir, name+s.ext)
		code, err := os.ReadFile(path)
		if err != nil {
			return gpu.ShaderSet{}, fmt.Errorf("read shader: %w", err)
		}
		if _, err := spirvWords(code); err != nil {
			return gpu.ShaderSet{}, fmt.Errorf("%s: %w", path, err)
		}
		*s.dst = code
	}
	return set, nil
}
