package opengl

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"lodterrain/internal/gpu"

	"github.com/go-gl/gl/v4.1-core/gl"
)

func TestTexelFormat(t *testing.T) {
	tests := map[gpu.TexelFormat]uint32{
		gpu.TexelR32F:    gl.R32F,
		gpu.TexelRGBA32F: gl.RGBA32F,
		gpu.TexelRG32UI:  gl.RG32UI,
	}
	for in, want := range tests {
		got, err := texelFormat(in)
		if err != nil || got != want {
			t.Errorf("texelFormat(%d) = 0x%x, %v", in, got, err)
		}
	}
	if _, err := texelFormat(gpu.TexelNone); !errors.Is(err, gpu.ErrUnsupported) {
		t.Errorf("TexelNone: %v", err)
	}
}

func TestAttribLayout(t *testing.T) {
	size, xtype, integer, err := attribLayout(gpu.FormatUint32x2)
	if err != nil || size != 2 || xtype != gl.UNSIGNED_INT || !integer {
		t.Errorf("uint32x2 = %d 0x%x %v %v", size, xtype, integer, err)
	}
	size, xtype, integer, err = attribLayout(gpu.FormatFloat32x3)
	if err != nil || size != 3 || xtype != gl.FLOAT || integer {
		t.Errorf("float32x3 = %d 0x%x %v %v", size, xtype, integer, err)
	}
	if _, _, _, err := attribLayout(gpu.VertexFormat(42)); !errors.Is(err, gpu.ErrUnsupported) {
		t.Errorf("unknown format: %v", err)
	}
}

func TestPushBufferSize(t *testing.T) {
	for n, want := range map[int]int{1: 16, 16: 16, 24: 32, 64: 64} {
		if got := pushBufferSize(n); got != want {
			t.Errorf("pushBufferSize(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestValidateBindings(t *testing.T) {
	ok := []gpu.BindingLayout{
		{Binding: 0, Kind: gpu.BindingUniform, Name: "Camera"},
		{Binding: 2, Kind: gpu.BindingStorage, Name: "heights"},
	}
	if err := validateBindings(ok); err != nil {
		t.Fatal(err)
	}
	bad := [][]gpu.BindingLayout{
		{{Binding: pushBinding, Name: "x"}},
		{{Binding: 1, Name: "a"}, {Binding: 1, Name: "b"}},
		{{Binding: 1}},
	}
	for i, b := range bad {
		if err := validateBindings(b); err == nil {
			t.Errorf("case %d accepted", i)
		}
	}
}

func TestLoadShaderSet(t *testing.T) {
	dir := t.TempDir()
	write := func(name, src string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("terrain_gl.vert", "#version 410 core\nvoid main() {}\n")
	write("terrain_gl.frag", "#version 410 core\nvoid main() {}\n")
	set, err := LoadShaderSet(dir, "terrain")
	if err != nil {
		t.Fatal(err)
	}
	if set.Name != "terrain" || len(set.Vertex) == 0 || len(set.Fragment) == 0 {
		t.Fatalf("set = %+v", set)
	}

	write("bad_gl.vert", "void main() {}\n")
	write("bad_gl.frag", "#version 410 core\n")
	if _, err := LoadShaderSet(dir, "bad"); err == nil {
		t.Error("source without #version accepted")
	}
	if _, err := LoadShaderSet(dir, "missing"); err == nil {
		t.Error("missing files accepted")
	}
}
