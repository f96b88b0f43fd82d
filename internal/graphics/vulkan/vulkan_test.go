package vulkan

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"lodterrain/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"
)

func TestClipCorrection(t *testing.T) {
	m := ClipCorrection()
	tests := []struct {
		in, want mgl32.Vec4
	}{
		{mgl32.Vec4{0, 1, -1, 1}, mgl32.Vec4{0, -1, 0, 1}},
		{mgl32.Vec4{1, -1, 1, 1}, mgl32.Vec4{1, 1, 1, 1}},
		{mgl32.Vec4{0, 0, 0, 2}, mgl32.Vec4{0, 0, 1, 2}},
	}
	for _, tt := range tests {
		if got := m.Mul4x1(tt.in); !got.ApproxEqual(tt.want) {
			t.Errorf("correct(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func spirv(words ...uint32) []byte {
	b := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(b[i*4:], w)
	}
	return b
}

func TestSpirvWords(t *testing.T) {
	words, err := spirvWords(spirv(0x07230203, 0x00010000, 42))
	if err != nil || len(words) != 3 || words[2] != 42 {
		t.Fatalf("spirvWords = %v, %v", words, err)
	}
	for name, code := range map[string][]byte{
		"empty":     nil,
		"unaligned": {3, 2, 35, 7, 1},
		"magic":     spirv(0xdeadbeef),
	} {
		if _, err := spirvWords(code); err == nil {
			t.Errorf("%s: accepted", name)
		}
	}
}

func TestFlagMapping(t *testing.T) {
	got := usageFlags(gpu.UsageStorage | gpu.UsageTransferDst)
	want := vk.BufferUsageStorageBufferBit | vk.BufferUsageTransferDstBit
	if got != want {
		t.Errorf("usageFlags = %#x, want %#x", got, want)
	}
	if stageFlags(gpu.StageVertex|gpu.StageFragment) !=
		vk.ShaderStageFlags(vk.ShaderStageVertexBit|vk.ShaderStageFragmentBit) {
		t.Error("stage flags")
	}
	if descriptorType(gpu.BindingStorage) != vk.DescriptorTypeStorageBuffer ||
		descriptorType(gpu.BindingUniform) != vk.DescriptorTypeUniformBuffer {
		t.Error("descriptor types")
	}
	if memoryFlags(gpu.HostVisible)&vk.MemoryPropertyHostCoherentBit == 0 {
		t.Error("host visible memory must be coherent")
	}
	if _, err := vertexFormat(gpu.VertexFormat(99)); err == nil {
		t.Error("unknown vertex format accepted")
	}
}

func TestLoadShaderSet(t *testing.T) {
	dir := t.TempDir()
	code := spirv(0x07230203, 1, 2)
	for _, n := range []string{"terrain.vert.spv", "terrain.frag.spv"} {
		if err := os.WriteFile(filepath.Join(dir, n), code, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	set, err := LoadShaderSet(dir, "terrain")
	if err != nil {
		t.Fatal(err)
	}
	if set.Name != "terrain" || len(set.Vertex) != 12 || len(set.Fragment) != 12 {
		t.Fatalf("set = %+v", set)
	}
	if _, err := LoadShaderSet(dir, "missing"); err == nil {
		t.Fatal("missing shader accepted")
	}
}

func TestCstr(t *testing.T) {
	if cstr("VK_KHR_surface") != "VK_KHR_surface\x00" || cstr("a\x00") != "a\x00" {
		t.Fatal("cstr")
	}
}
