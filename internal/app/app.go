// Package app runs the terrain viewer: it owns the window, the GPU backend,
// input and the frame loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"lodterrain/internal/config"
	"lodterrain/internal/gpu"
	"lodterrain/internal/graphics"
	"lodterrain/internal/graphics/renderer"
	"lodterrain/internal/heightmap"
	"lodterrain/internal/input"
	"lodterrain/internal/profiling"
	"lodterrain/internal/terrain"
	"lodterrain/internal/ui"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// boostFactor multiplies the camera speed while the boost key is held.
const boostFactor = 10

type App struct {
	cfg *config.Config
	log *zap.Logger

	window   *glfw.Window
	backend  Backend
	input    *input.InputManager
	camera   *graphics.Camera
	terrain  *terrain.Terrain
	renderer *renderer.Renderer
	panel    *ui.Panel
	pacer    *framePacer

	captured         bool
	culling          bool
	verbose          bool
	cursorX, cursorY float64

	frames   int
	fps      int
	lastFPS  time.Time
	lastTime time.Time

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// New opens the window, builds the backend and loads the terrain. glfw.Init
// must have succeeded on the calling thread.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	config.ApplyRuntime(cfg)
	a := &App{
		cfg:     cfg,
		log:     log,
		input:   input.NewInputManager(),
		panel:   ui.NewPanel(),
		pacer:   newFramePacer(),
		culling: config.GetFrustumCulling(),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	if err := a.build(ctx); err != nil {
		a.destroy()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	var err error
	if a.window, err = createWindow(a.cfg); err != nil {
		return err
	}
	if a.backend, err = newBackend(a.window, a.cfg, a.log.Named(string(a.cfg.Renderer.Backend))); err != nil {
		return fmt.Errorf("creating %s backend: %w", a.cfg.Renderer.Backend, err)
	}
	shader, err := loadShaders(a.cfg)
	if err != nil {
		return err
	}

	width, height := a.window.GetFramebufferSize()
	a.camera = newCamera(a.cfg, width, height)

	if a.terrain, err = terrain.New(ctx, a.backend, terrainOptions(a.cfg, shader), a.log.Named("terrain")); err != nil {
		return err
	}
	a.renderer = renderer.NewRenderer(a.backend, a.camera, width, height, a.terrain)
	a.renderer.SetTargetFOV(config.GetFOV())

	a.setupInputHandlers()
	a.log.Info("viewer ready",
		zap.String("backend", string(a.cfg.Renderer.Backend)),
		zap.Int("chunks", len(a.terrain.Chunks())),
		zap.Int("max_lod", a.terrain.MaxLOD()))
	return nil
}

func newCamera(cfg *config.Config, width, height int) *graphics.Camera {
	c := graphics.NewCamera(width, height)
	cc := cfg.Camera
	c.Position = mgl32.Vec3(cc.Position)
	c.Yaw, c.Pitch = cc.Yaw, cc.Pitch
	c.FOV = cc.FOV
	c.NearPlane, c.FarPlane = cc.Near, cc.Far
	c.Speed = cc.Speed
	c.Sensitivity = cc.Sensitivity
	return c
}

// terrainOptions maps the config onto terrain construction options.
func terrainOptions(cfg *config.Config, shader gpu.ShaderSet) terrain.Options {
	t := cfg.Terrain
	h := t.Heightmap
	noise := heightmap.DefaultNoiseOptions(h.Dimension)
	noise.Seed = h.Seed
	noise.Smoothing = h.Smoothing
	noise.Kind = heightmap.NoiseKind(h.Noise)
	noise.Octaves = h.Octaves
	noise.Quantize = h.Quantize
	return terrain.Options{
		Heightmap: terrain.HeightmapOptions{
			Source:    terrain.Source(h.Source),
			Path:      h.Path,
			Normalize: h.Normalize,
			Noise:     noise,
		},
		Scaling:        mgl32.Vec3(t.Scaling),
		ChunkDimension: t.ChunkDimension,
		MaxChunks:      t.MaxChunks,
		LOD:            t.LOD,
		Normals:        t.Normals,
		FrustumCulling: t.FrustumCulling,
		Wireframe:      cfg.Renderer.Wireframe,
		Shader:         shader,
	}
}

// Run drives frames until the window closes, Stop is called or a frame
// fails. It releases every resource before returning.
func (a *App) Run() error {
	defer close(a.done)
	defer a.destroy()

	a.lastTime = time.Now()
	a.lastFPS = a.lastTime
	for !a.window.ShouldClose() {
		select {
		case <-a.stop:
			a.log.Info("stop requested")
			return nil
		default:
		}
		if err := a.tick(); err != nil {
			return err
		}
	}
	return nil
}

// Stop asks Run to return and waits until it has. It is safe to call from
// any goroutine once Run has started.
func (a *App) Stop() {
	a.stopOnce.Do(func() { close(a.stop) })
	<-a.done
}

func (a *App) tick() error {
	profiling.ResetFrame()
	now := time.Now()
	dt := now.Sub(a.lastTime).Seconds()
	a.lastTime = now

	func() {
		defer profiling.Track("frame.Poll")()
		glfw.PollEvents()
	}()
	a.handleActions()
	a.move(dt)
	a.drawUI()

	if err := a.renderer.Render(dt); err != nil {
		return fmt.Errorf("rendering frame: %w", err)
	}
	a.input.PostUpdate()
	a.countFrame(now)
	a.pacer.Wait(a.cfg.Window.FPSLimit)
	return nil
}

// drawUI declares this frame's debug controls: the scenes' own plus the
// viewer's culling toggle.
func (a *App) drawUI() {
	a.panel.Update(a.input)
	a.renderer.DrawUI(a.panel)
	on := a.culling
	if a.panel.Toggle("culling", &on) {
		a.setCulling(on)
	}
	a.panel.Finish()
}

func (a *App) handleActions() {
	im := a.input
	if im.JustPressed(input.ActionQuit) {
		a.window.SetShouldClose(true)
	}
	if im.JustPressed(input.ActionToggleCapture) {
		a.setCaptured(!a.captured)
	}
	if im.JustPressed(input.ActionToggleCulling) {
		a.setCulling(!a.culling)
	}
	if im.JustPressed(input.ActionToggleProfiling) {
		a.verbose = !a.verbose
	}
	if im.JustPressed(input.ActionPick) {
		a.pick()
	}
}

func (a *App) move(dt float64) {
	im := a.input
	speed := config.GetCameraSpeed()
	if im.IsActive(input.ActionBoost) {
		speed *= boostFactor
	}
	a.camera.Speed = speed
	a.camera.Sensitivity = config.GetMouseSensitivity()
	a.camera.Move(
		im.Axis(input.ActionMoveForward, input.ActionMoveBackward),
		im.Axis(input.ActionMoveRight, input.ActionMoveLeft),
		im.Axis(input.ActionMoveUp, input.ActionMoveDown),
		dt,
	)
}

func (a *App) setCaptured(on bool) {
	a.captured = on
	if on {
		a.window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
		a.camera.ResetMouse()
		return
	}
	a.window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
}

func (a *App) setCulling(on bool) {
	a.culling = on
	config.SetFrustumCulling(on)
	a.terrain.SetFrustumCulling(on)
}

// pick casts a ray through the cursor, or the screen centre while the
// cursor is captured, and logs where it meets the terrain.
func (a *App) pick() {
	w, h := a.window.GetSize()
	x, y := a.cursorX, a.cursorY
	if a.captured {
		x, y = float64(w)/2, float64(h)/2
	}
	dir, err := a.camera.Ray(x, y, w, h)
	if err != nil {
		a.log.Debug("pick ray", zap.Error(err))
		return
	}
	hit, ok := a.terrain.Pick(a.camera.Position, dir, a.camera.FarPlane)
	if !ok {
		a.log.Info("pick missed terrain")
		return
	}
	a.log.Info("pick",
		zap.Float32("x", hit.X()),
		zap.Float32("y", hit.Y()),
		zap.Float32("z", hit.Z()),
		zap.Float32("distance", hit.Sub(a.camera.Position).Len()))
}

func (a *App) countFrame(now time.Time) {
	a.frames++
	if now.Sub(a.lastFPS) < time.Second {
		return
	}
	a.fps = a.frames
	a.frames = 0
	a.lastFPS = now

	a.window.SetTitle(windowTitle(a.cfg.Window.Title, a.fps, a.terrain.Visible(), len(a.terrain.Chunks()), a.panel.Status()))
	fields := append([]zap.Field{zap.Int("fps", a.fps), zap.String("top", profiling.TopN(5))}, profiling.Fields(5)...)
	if a.verbose {
		a.log.Info("frame stats", fields...)
	} else {
		a.log.Debug("frame stats", fields...)
	}
}

// windowTitle formats the title bar, e.g.
// "lodterrain | 60 fps | 12/16 chunks | >LOD 1/4 | culling on".
func windowTitle(base string, fps, visible, total int, status string) string {
	title := fmt.Sprintf("%s | %d fps | %d/%d chunks", base, fps, visible, total)
	if status != "" {
		title += " | " + status
	}
	return title
}

// destroy releases resources in reverse order of creation. Fields left nil
// by a failed build are skipped.
func (a *App) destroy() {
	if a.backend != nil {
		if err := a.backend.WaitIdle(); err != nil && !errors.Is(err, gpu.ErrSurfaceOutdated) {
			a.log.Warn("waiting for device idle", zap.Error(err))
		}
	}
	if a.renderer != nil {
		a.renderer.Dispose()
		a.renderer = nil
		a.terrain = nil
	}
	if a.terrain != nil {
		a.terrain.Destroy()
		a.terrain = nil
	}
	if a.backend != nil {
		a.backend.Destroy()
		a.backend = nil
	}
	if a.window != nil {
		a.window.Destroy()
		a.window = nil
	}
}
