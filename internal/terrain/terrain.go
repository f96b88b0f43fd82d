// Package terrain draws a heightmap as a grid of seam-sharing chunks, each
// rendered at a selectable level of detail from a single shared vertex grid.
package terrain

import (
	"context"
	"fmt"

	"lodterrain/internal/chunk"
	"lodterrain/internal/gpu"
	"lodterrain/internal/graphics"
	"lodterrain/internal/heightmap"
	"lodterrain/internal/lod"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// State is the lifecycle state of a Terrain.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateDestroyed:
		return "destroyed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// UI is the debug control surface.
type UI = graphics.UI

// Source selects where heights come from.
type Source string

const (
	SourceImage Source = "image"
	SourceNoise Source = "noise"
)

// HeightmapOptions configures the height source.
type HeightmapOptions struct {
	Source Source
	// Path and Normalize apply to image sources.
	Path      string
	Normalize bool
	Noise     heightmap.NoiseOptions
}

// Options configures a Terrain.
type Options struct {
	Heightmap      HeightmapOptions
	Scaling        mgl32.Vec3
	ChunkDimension int
	// MaxChunks zero sizes the chunk buffers to the chunk count.
	MaxChunks      int
	LOD            int
	Normals        bool
	NormalWorkers  int
	FrustumCulling bool
	Wireframe      bool
	Shader         gpu.ShaderSet
}

// Terrain owns the chunk partition of a heightmap and draws every chunk
// each frame at one UI-controlled LOD.
type Terrain struct {
	log   *zap.Logger
	opts  Options
	state State

	hm         *heightmap.Heightmap
	terrainDim int
	layout     chunk.Layout
	chunks     []chunk.Chunk
	renderer   *Renderer

	lod     int
	maxLOD  int
	culling bool
	frustum graphics.Frustum
	visible int
}

// New loads the heightmap, pads it to whole chunks, partitions it and builds
// the renderer.
func New(ctx context.Context, dev gpu.Device, opts Options, log *zap.Logger) (*Terrain, error) {
	if log == nil {
		log = zap.NewNop()
	}
	t := &Terrain{log: log, opts: opts, culling: opts.FrustumCulling}

	maxLOD, err := lod.MaxLOD(opts.ChunkDimension)
	if err != nil {
		return nil, configError(err)
	}
	t.maxLOD = maxLOD

	hm, err := loadHeightmap(opts)
	if err != nil {
		return nil, err
	}
	t.terrainDim = hm.Dimension()
	if err := chunk.Validate(t.terrainDim, opts.ChunkDimension); err != nil {
		return nil, configError(err)
	}

	if covered := chunk.CoveredDimension(t.terrainDim, opts.ChunkDimension); covered != hm.Dimension() {
		log.Info("padding heightmap to whole chunks",
			zap.Int("from", hm.Dimension()), zap.Int("to", covered))
		if hm, err = hm.Pad(covered); err != nil {
			return nil, err
		}
	}
	t.hm = hm

	t.layout = chunk.CenteredLayout(hm, t.terrainDim)
	if t.chunks, err = chunk.Partition(hm, t.terrainDim, opts.ChunkDimension, t.layout); err != nil {
		return nil, configError(err)
	}
	maxChunks := opts.MaxChunks
	if maxChunks == 0 {
		maxChunks = len(t.chunks)
	}
	if len(t.chunks) > maxChunks {
		return nil, fmt.Errorf("%w: %d chunks exceed chunk buffer capacity %d",
			ErrConfiguration, len(t.chunks), maxChunks)
	}

	t.renderer, err = NewRenderer(ctx, dev, hm, RendererOptions{
		ChunkDimension: opts.ChunkDimension,
		MaxChunks:      maxChunks,
		Normals:        opts.Normals,
		NormalWorkers:  opts.NormalWorkers,
		Shader:         opts.Shader,
		Wireframe:      opts.Wireframe,
		Logger:         log,
	})
	if err != nil {
		return nil, err
	}

	t.SetLOD(opts.LOD)
	t.state = StateReady
	log.Info("terrain ready",
		zap.Int("dimension", t.terrainDim),
		zap.Int("chunks", len(t.chunks)),
		zap.Int("max_lod", t.maxLOD),
		zap.Float32("height_mid", hm.Range().Mid()))
	return t, nil
}

func loadHeightmap(opts Options) (*heightmap.Heightmap, error) {
	scaling := opts.Scaling
	if scaling == (mgl32.Vec3{}) {
		scaling = heightmap.DefaultScaling
	}
	switch opts.Heightmap.Source {
	case SourceImage:
		return heightmap.LoadImage(opts.Heightmap.Path, scaling, opts.Heightmap.Normalize)
	case SourceNoise, "":
		n := opts.Heightmap.Noise
		n.Scaling = scaling
		hm, err := heightmap.Generate(n)
		if err != nil {
			return nil, configError(err)
		}
		return hm, nil
	}
	return nil, fmt.Errorf("%w: unknown heightmap source %q", ErrConfiguration, opts.Heightmap.Source)
}

// Update uploads the camera and refreshes the culling frustum. It must run
// once per frame before Draw.
func (t *Terrain) Update(cam Camera, dt float64) error {
	if t.state != StateReady {
		return ErrNotReady
	}
	if t.culling {
		t.frustum = graphics.NewFrustum(cam.Projection().Mul4(cam.View()))
	}
	return t.renderer.Update(cam)
}

// Draw records every visible chunk at the current LOD and cycles to the
// next frame.
func (t *Terrain) Draw(cmd gpu.CommandBuffer, target gpu.RenderTarget, area gpu.Rect) error {
	if t.state != StateReady {
		return ErrNotReady
	}
	pass, err := t.renderer.BeginRenderPass(cmd, target, area)
	if err != nil {
		return err
	}
	defer pass.End()

	t.visible = 0
	for i := range t.chunks {
		c := &t.chunks[i]
		if t.culling && !t.frustum.ContainsAABB(c.Bounds.Min, c.Bounds.Max) {
			continue
		}
		t.renderer.Draw(cmd, t.lod, c.Index, c.Model())
		t.visible++
	}
	return nil
}

// DrawUI exposes the LOD slider.
func (t *Terrain) DrawUI(ui UI) {
	v := t.lod
	if ui.SliderInt("LOD", &v, 0, t.maxLOD) {
		t.SetLOD(v)
	}
}

// LOD is the level every chunk is drawn at.
func (t *Terrain) LOD() int { return t.lod }

// SetLOD clamps level to [0, MaxLOD].
func (t *Terrain) SetLOD(level int) {
	t.lod = max(0, min(level, t.maxLOD))
}

// MaxLOD is the coarsest level available.
func (t *Terrain) MaxLOD() int { return t.maxLOD }

// Chunks returns the partition in draw order.
func (t *Terrain) Chunks() []chunk.Chunk { return t.chunks }

// State returns the lifecycle state.
func (t *Terrain) State() State { return t.state }

// Visible is the number of chunks drawn by the last Draw.
func (t *Terrain) Visible() int { return t.visible }

// FrustumCulling reports whether off-screen chunks are skipped.
func (t *Terrain) FrustumCulling() bool { return t.culling }

// SetFrustumCulling toggles skipping chunks outside the view.
func (t *Terrain) SetFrustumCulling(on bool) { t.culling = on }

// Renderer exposes the chunk renderer.
func (t *Terrain) Renderer() *Renderer { return t.renderer }

// Pick casts a world-space ray against the height field.
func (t *Terrain) Pick(origin, dir mgl32.Vec3, maxDist float32) (mgl32.Vec3, bool) {
	if t.hm == nil {
		return mgl32.Vec3{}, false
	}
	base := t.layout.WorldOffset(0, 0, t.opts.ChunkDimension)
	hit, ok := t.hm.Raycast(origin.Sub(base), dir, maxDist)
	if !ok {
		return mgl32.Vec3{}, false
	}
	return hit.Add(base), true
}

// Resize forwards a framebuffer size change.
func (t *Terrain) Resize(width, height int) error {
	if t.renderer == nil {
		return nil
	}
	return t.renderer.Resize(width, height)
}

// Destroy releases GPU resources. Calling it twice is a no-op.
func (t *Terrain) Destroy() {
	if t.renderer != nil {
		t.renderer.Destroy()
		t.renderer = nil
	}
	t.state = StateDestroyed
}
