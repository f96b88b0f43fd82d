package terrain

import (
	"context"
	"fmt"
	"runtime"

	"lodterrain/internal/chunk"
	"lodterrain/internal/gpu"
	"lodterrain/internal/graphics"
	"lodterrain/internal/heightmap"
	"lodterrain/internal/lod"
	"lodterrain/internal/ring"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// Camera supplies the matrices the renderer uploads each frame.
type Camera = graphics.View

// RendererOptions configures a Renderer.
type RendererOptions struct {
	ChunkDimension int
	// MaxChunks sizes each frame's chunk transform buffer. Zero means one
	// slot per chunk of the heightmap.
	MaxChunks int
	// FramesInFlight defaults to the device's value.
	FramesInFlight int
	Normals        bool
	// NormalWorkers bounds the normal computation pool. Zero uses GOMAXPROCS.
	NormalWorkers int
	Shader        gpu.ShaderSet
	Wireframe     bool
	Logger        *zap.Logger
}

type lodBuffer struct {
	count  int
	buffer gpu.Buffer
}

// Renderer draws chunks of one heightmap at a chosen LOD. It owns the shared
// vertex template, the height and normal storage buffers, one index buffer
// per LOD and a ring of per-frame resources.
type Renderer struct {
	dev  gpu.Device
	log  *zap.Logger
	opts RendererOptions

	terrainDim   int
	chunksPerDim int
	scaling      mgl32.Vec3
	heightRange  heightmap.Range

	vertices gpu.Buffer
	heights  gpu.Buffer
	normals  gpu.Buffer
	levels   []lodBuffer
	pipeline gpu.Pipeline
	frames   *ring.Buffer[frame]

	open *Pass
	push [pushConstantSize]byte
}

// NewRenderer uploads hm and builds every GPU resource needed to draw it.
// hm must already cover whole chunks (see chunk.CoveredDimension).
func NewRenderer(ctx context.Context, dev gpu.Device, hm *heightmap.Heightmap, opts RendererOptions) (*Renderer, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.FramesInFlight <= 0 {
		opts.FramesInFlight = dev.FramesInFlight()
	}
	if err := chunk.Validate(hm.Dimension(), opts.ChunkDimension); err != nil {
		return nil, configError(err)
	}
	if (hm.Dimension()-1)%(opts.ChunkDimension-1) != 0 {
		return nil, configError(fmt.Errorf("heightmap dimension %d does not cover whole chunks of %d",
			hm.Dimension(), opts.ChunkDimension))
	}
	levels, err := lod.Levels(opts.ChunkDimension)
	if err != nil {
		return nil, configError(err)
	}
	perDim := chunk.ChunksPerDimension(hm.Dimension(), opts.ChunkDimension)
	if opts.MaxChunks <= 0 {
		opts.MaxChunks = perDim * perDim
	}

	r := &Renderer{
		dev:          dev,
		log:          opts.Logger,
		opts:         opts,
		terrainDim:   hm.Dimension(),
		chunksPerDim: perDim,
		scaling:      hm.Scaling(),
		heightRange:  hm.Range(),
	}
	if err := r.build(ctx, hm, levels); err != nil {
		r.Destroy()
		return nil, err
	}
	r.log.Info("terrain renderer ready",
		zap.Int("terrain_dimension", r.terrainDim),
		zap.Int("chunk_dimension", opts.ChunkDimension),
		zap.Int("lod_levels", len(r.levels)),
		zap.Int("frames_in_flight", opts.FramesInFlight),
		zap.Int("max_chunks", opts.MaxChunks))
	return r, nil
}

func (r *Renderer) build(ctx context.Context, hm *heightmap.Heightmap, levels []lod.Level) error {
	var err error
	r.vertices, err = r.upload("terrain.vertices", gpu.UsageVertex, gpu.TexelRG32UI, vertexTemplate(r.opts.ChunkDimension))
	if err != nil {
		return err
	}
	r.heights, err = r.upload("terrain.heights", gpu.UsageStorage, gpu.TexelR32F, hm.Bytes())
	if err != nil {
		return err
	}

	normalData := make([]byte, gpu.SizeVec4)
	gpu.PutVec4(normalData, mgl32.Vec4{0, 1, 0, 0})
	if r.opts.Normals {
		workers := r.opts.NormalWorkers
		if workers <= 0 {
			workers = runtime.GOMAXPROCS(0)
		}
		normals, err := hm.Normals(ctx, workers)
		if err != nil {
			return fmt.Errorf("computing normals: %w", err)
		}
		normalData = heightmap.NormalBytes(normals)
	}
	r.normals, err = r.upload("terrain.normals", gpu.UsageStorage, gpu.TexelRGBA32F, normalData)
	if err != nil {
		return err
	}

	for _, l := range levels {
		buf, err := r.upload(fmt.Sprintf("terrain.lod%d", l.LOD), gpu.UsageIndex, gpu.TexelNone, gpu.Uint32Bytes(l.Indices))
		if err != nil {
			return err
		}
		r.levels = append(r.levels, lodBuffer{count: len(l.Indices), buffer: buf})
	}

	r.pipeline, err = r.dev.CreatePipeline(r.pipelineDesc())
	if err != nil {
		return fmt.Errorf("creating terrain pipeline: %w", err)
	}

	var built []frame
	r.frames, err = ring.New(r.opts.FramesInFlight, r.opts.FramesInFlight, func(i int) (frame, error) {
		f, err := r.newFrame(i)
		if err == nil {
			built = append(built, f)
		}
		return f, err
	})
	if err != nil {
		for i := range built {
			built[i].destroy()
		}
		return err
	}
	return nil
}

func (r *Renderer) upload(label string, usage gpu.BufferUsage, texel gpu.TexelFormat, data []byte) (gpu.Buffer, error) {
	buf, err := r.dev.CreateBuffer(gpu.BufferDesc{
		Label:  label,
		Size:   len(data),
		Usage:  usage | gpu.UsageTransferDst,
		Memory: gpu.DeviceLocal,
		Texel:  texel,
	})
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", label, err)
	}
	if err := r.dev.Upload(buf, data); err != nil {
		buf.Destroy()
		return nil, fmt.Errorf("uploading %s: %w", label, err)
	}
	return buf, nil
}

func (r *Renderer) pipelineDesc() gpu.PipelineDesc {
	both := gpu.StageVertex | gpu.StageFragment
	return gpu.PipelineDesc{
		Label:  "terrain",
		Shader: r.opts.Shader,
		Bindings: []gpu.BindingLayout{
			{Binding: bindingCamera, Kind: gpu.BindingUniform, Stages: both, Name: "Camera"},
			{Binding: bindingChunks, Kind: gpu.BindingStorage, Stages: gpu.StageVertex, Name: "chunkModels"},
			{Binding: bindingHeights, Kind: gpu.BindingStorage, Stages: gpu.StageVertex, Name: "heights"},
			{Binding: bindingNormals, Kind: gpu.BindingStorage, Stages: gpu.StageVertex, Name: "normals"},
		},
		PushConstantSize: pushConstantSize,
		PushStages:       both,
		VertexStride:     vertexStride,
		Attributes:       []gpu.VertexAttribute{{Location: 0, Format: gpu.FormatUint32x2}},
		CullBack:         true,
		FrontFaceCCW:     true,
		DepthTest:        true,
		Wireframe:        r.opts.Wireframe,
	}
}

// Update writes the camera for the current frame. Call once per frame
// before BeginRenderPass.
func (r *Renderer) Update(cam Camera) error {
	f := r.frames.Current()
	p := cam.Eye()
	u := cameraUniform{
		View:       cam.View(),
		Projection: r.dev.ClipCorrection().Mul4(cam.Projection()),
		Scaling:    r.scaling.Vec4(0),
		Position:   p.Vec4(1),
		Heights:    heightBand(r.heightRange),
	}
	u.marshal(f.camera.Mapped())
	if err := f.camera.Flush(0, cameraUniformSize); err != nil {
		return fmt.Errorf("flushing camera uniform: %w", err)
	}
	f.updated = true
	return nil
}

// Pass is an open terrain render pass. End is safe to call more than once.
type Pass struct {
	r     *Renderer
	cmd   gpu.CommandBuffer
	ended bool
}

// End closes the pass and cycles the frame ring.
func (p *Pass) End() {
	if p == nil || p.ended {
		return
	}
	p.ended = true
	p.r.endRenderPass(p.cmd)
}

// BeginRenderPass opens a pass on target and binds the pipeline, the
// current frame's bind group and the shared vertex grid.
func (r *Renderer) BeginRenderPass(cmd gpu.CommandBuffer, target gpu.RenderTarget, area gpu.Rect) (*Pass, error) {
	if r.open != nil {
		return nil, fmt.Errorf("terrain: render pass already open")
	}
	f := r.frames.Current()
	if !f.updated {
		return nil, ErrFrameOrder
	}
	cmd.BeginRenderPass(target, area, gpu.DefaultClear)
	cmd.BindPipeline(r.pipeline)
	cmd.BindGroup(r.pipeline, f.group)
	if f.boundVertexBuffer != r.vertices {
		cmd.BindVertexBuffer(r.vertices)
		f.boundVertexBuffer = r.vertices
	}
	r.open = &Pass{r: r, cmd: cmd}
	return r.open, nil
}

// Draw records one chunk at the given LOD. An LOD without an index buffer
// is skipped. The model matrix is stored in the chunk's slot of the current
// frame.
func (r *Renderer) Draw(cmd gpu.CommandBuffer, level, chunkIndex int, model mgl32.Mat4) {
	if level < 0 || level >= len(r.levels) {
		r.log.Debug("skipping draw with unknown lod", zap.Int("lod", level))
		return
	}
	if !assertChunkCapacity(chunkIndex, r.opts.MaxChunks) {
		r.log.Error("chunk index outside chunk buffer",
			zap.Int("chunk", chunkIndex), zap.Int("max_chunks", r.opts.MaxChunks))
		return
	}
	if r.open == nil {
		r.log.Error("draw outside render pass", zap.Int("chunk", chunkIndex))
		return
	}

	f := r.frames.Current()
	offset := chunkIndex * gpu.SizeMat4
	gpu.PutMat4(f.chunks.Mapped()[offset:], model)
	if err := f.chunks.Flush(offset, gpu.SizeMat4); err != nil {
		r.log.Error("flushing chunk transform", zap.Int("chunk", chunkIndex), zap.Error(err))
		return
	}
	f.nextChunk++

	pc := pushConstants{
		ChunkIndex:   uint32(chunkIndex),
		LOD:          uint32(level),
		ChunkDim:     uint32(r.opts.ChunkDimension),
		TerrainDim:   uint32(r.terrainDim),
		ChunksPerDim: uint32(r.chunksPerDim),
	}
	if r.opts.Normals {
		pc.Normals = 1
	}
	pc.marshal(r.push[:])
	cmd.PushConstants(r.pipeline, r.push[:])

	lb := r.levels[level]
	cmd.BindIndexBuffer(lb.buffer)
	cmd.DrawIndexed(lb.count)
}

// EndRenderPass closes the open pass and cycles to the next frame.
func (r *Renderer) EndRenderPass(cmd gpu.CommandBuffer) {
	if r.open == nil {
		r.log.Warn("ending terrain pass that is not open")
		return
	}
	r.open.End()
}

func (r *Renderer) endRenderPass(cmd gpu.CommandBuffer) {
	cmd.EndRenderPass()
	r.open = nil
	r.frames.Cycle((*frame).reset)
}

// ChunkTransform reads back the model matrix stored for chunkIndex in the
// current frame. An index outside the chunk buffer yields the zero matrix.
func (r *Renderer) ChunkTransform(chunkIndex int) mgl32.Mat4 {
	if !assertChunkCapacity(chunkIndex, r.opts.MaxChunks) {
		r.log.Error("chunk index outside chunk buffer",
			zap.Int("chunk", chunkIndex), zap.Int("max_chunks", r.opts.MaxChunks))
		return mgl32.Mat4{}
	}
	f := r.frames.Current()
	offset := chunkIndex * gpu.SizeMat4
	return gpu.ReadMat4(f.chunks.Mapped()[offset : offset+gpu.SizeMat4])
}

// ChunksDrawn is the number of draws recorded into the current frame.
func (r *Renderer) ChunksDrawn() int { return r.frames.Current().nextChunk }

// FrameIndex is the ring position of the current frame.
func (r *Renderer) FrameIndex() int { return r.frames.Index() }

// LODLevels returns the coarsest LOD built.
func (r *Renderer) LODLevels() int { return len(r.levels) - 1 }

// IndexCount returns the index count of level, or 0 if it was not built.
func (r *Renderer) IndexCount(level int) int {
	if level < 0 || level >= len(r.levels) {
		return 0
	}
	return r.levels[level].count
}

// Resize is a no-op: colour and depth targets belong to the device.
func (r *Renderer) Resize(width, height int) error { return nil }

// Destroy releases resources in reverse construction order.
func (r *Renderer) Destroy() {
	if r.frames != nil {
		r.frames.Destroy((*frame).destroy)
		r.frames = nil
	}
	if r.pipeline != nil {
		r.pipeline.Destroy()
		r.pipeline = nil
	}
	for i := len(r.levels) - 1; i >= 0; i-- {
		r.levels[i].buffer.Destroy()
	}
	r.levels = nil
	for _, b := range []*gpu.Buffer{&r.normals, &r.heights, &r.vertices} {
		if *b != nil {
			(*b).Destroy()
			*b = nil
		}
	}
}
