package opengl

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lodterrain/internal/gpu"
)

// LoadShaderSet reads dir/name_gl.vert and dir/name_gl.frag.
func LoadShaderSet(dir, name string) (gpu.ShaderSet, error) {
	set := gpu.ShaderSet{Name: name}
	var err error
	if set.Vertex, err = readSource(filepath.Join(dir, name+"_gl.vert")); err != nil {
		return gpu.ShaderSet{}, err
	}
	if set.Fragment, err = readSource(filepath.Join(dir, name+"_gl.frag")); err != nil {
		return gpu.ShaderSet{}, err
	}
	return set, nil
}

func readSource(path string) ([]byte, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read shader: %w", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(string(src)), "#version") {
		return nil, fmt.Errorf("shader %s: missing #version directive", path)
	}
	return src, nil
}
