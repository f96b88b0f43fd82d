package renderer

import (
	"context"
	"errors"
	"slices"
	"testing"

	"lodterrain/internal/gpu"
	"lodterrain/internal/gpu/gputest"
	"lodterrain/internal/graphics"
	"lodterrain/internal/heightmap"
	"lodterrain/internal/terrain"

	"github.com/go-gl/mathgl/mgl32"
)

type recordingScene struct {
	name    string
	calls   *[]string
	drawErr error
}

func (s *recordingScene) log(op string) { *s.calls = append(*s.calls, s.name+"."+op) }

func (s *recordingScene) Resize(int, int) error { s.log("resize"); return nil }
func (s *recordingScene) Update(graphics.View, float64) error {
	s.log("update")
	return nil
}
func (s *recordingScene) Draw(gpu.CommandBuffer, gpu.RenderTarget, gpu.Rect) error {
	s.log("draw")
	return s.drawErr
}
func (s *recordingScene) DrawUI(graphics.UI) { s.log("ui") }
func (s *recordingScene) Destroy()           { s.log("destroy") }

type fakePresenter struct {
	cmd      gputest.CommandBuffer
	target   gputest.Target
	calls    *[]string
	begins   int
	outdated int
	resized  [][2]int
}

func (p *fakePresenter) BeginFrame() (gpu.CommandBuffer, gpu.RenderTarget, error) {
	p.begins++
	if p.outdated > 0 {
		p.outdated--
		return nil, nil, gpu.ErrSurfaceOutdated
	}
	*p.calls = append(*p.calls, "begin")
	p.cmd.Reset()
	return &p.cmd, p.target, nil
}

func (p *fakePresenter) EndFrame() error {
	*p.calls = append(*p.calls, "present")
	return nil
}

func (p *fakePresenter) Resize(w, h int) error {
	p.resized = append(p.resized, [2]int{w, h})
	return nil
}

func TestRenderOrder(t *testing.T) {
	var calls []string
	p := &fakePresenter{calls: &calls, target: gputest.Target{Width: 640, Height: 480}}
	a := &recordingScene{name: "a", calls: &calls}
	b := &recordingScene{name: "b", calls: &calls}
	r := NewRenderer(p, graphics.NewCamera(640, 480), 640, 480, a, b)

	if err := r.Render(1.0 / 60); err != nil {
		t.Fatal(err)
	}
	r.DrawUI(nil)
	r.Dispose()

	want := []string{
		"begin", "a.update", "b.update", "a.draw", "b.draw", "present",
		"a.ui", "b.ui", "b.destroy", "a.destroy",
	}
	if !slices.Equal(calls, want) {
		t.Fatalf("calls = %v\nwant  %v", calls, want)
	}
}

func TestRenderRecreatesOutdatedSurface(t *testing.T) {
	var calls []string
	p := &fakePresenter{calls: &calls, outdated: 1, target: gputest.Target{Width: 800, Height: 600}}
	s := &recordingScene{name: "s", calls: &calls}
	r := NewRenderer(p, graphics.NewCamera(800, 600), 800, 600, s)

	if err := r.Render(0.016); err != nil {
		t.Fatal(err)
	}
	if len(p.resized) != 1 || p.resized[0] != [2]int{800, 600} {
		t.Fatalf("resized = %v", p.resized)
	}
	if !slices.Equal(calls, []string{"s.resize"}) {
		t.Fatalf("frame was not skipped: %v", calls)
	}
}

func TestRenderPropagatesSceneError(t *testing.T) {
	var calls []string
	boom := errors.New("boom")
	p := &fakePresenter{calls: &calls, target: gputest.Target{Width: 1, Height: 1}}
	r := NewRenderer(p, graphics.NewCamera(1, 1), 1, 1, &recordingScene{name: "s", calls: &calls, drawErr: boom})
	if err := r.Render(0.016); !errors.Is(err, boom) {
		t.Fatalf("Render() = %v", err)
	}
}

func TestResizeIgnoresMinimisedWindow(t *testing.T) {
	var calls []string
	p := &fakePresenter{calls: &calls}
	cam := graphics.NewCamera(640, 480)
	r := NewRenderer(p, cam, 640, 480, &recordingScene{name: "s", calls: &calls})

	if err := r.Resize(0, 0); err != nil || len(p.resized) != 0 {
		t.Fatalf("zero size applied: %v %v", err, p.resized)
	}
	if err := r.Resize(1000, 500); err != nil {
		t.Fatal(err)
	}
	if cam.AspectRatio != 2 {
		t.Fatalf("aspect = %v", cam.AspectRatio)
	}
}

func TestFOVEasesTowardTarget(t *testing.T) {
	var calls []string
	p := &fakePresenter{calls: &calls, target: gputest.Target{Width: 1, Height: 1}}
	cam := graphics.NewCamera(1, 1)
	r := NewRenderer(p, cam, 1, 1)
	r.SetTargetFOV(70)

	if err := r.Render(0.05); err != nil {
		t.Fatal(err)
	}
	if cam.FOV != 65 {
		t.Fatalf("fov = %v, want 65", cam.FOV)
	}
	if err := r.Render(1); err != nil {
		t.Fatal(err)
	}
	if cam.FOV != 70 {
		t.Fatalf("fov overshot: %v", cam.FOV)
	}
}

func TestHostDrivesTerrain(t *testing.T) {
	dev := gputest.NewDevice(2)
	tr, err := terrain.New(context.Background(), dev, terrain.Options{
		Heightmap: terrain.HeightmapOptions{
			Source: terrain.SourceNoise,
			Noise:  heightmap.DefaultNoiseOptions(33),
		},
		Scaling:        mgl32.Vec3{1, 1, 1},
		ChunkDimension: 9,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	var calls []string
	p := &fakePresenter{calls: &calls, target: gputest.Target{Width: 320, Height: 240}}
	cam := graphics.NewCamera(320, 240)
	cam.Position = mgl32.Vec3{0, 50, 0}
	cam.Pitch = -89
	r := NewRenderer(p, cam, 320, 240, tr)

	for range 3 {
		if err := r.Render(1.0 / 60); err != nil {
			t.Fatal(err)
		}
		if got := len(p.cmd.Draws()); got != 16 {
			t.Fatalf("draws = %d, want 16", got)
		}
	}
	r.Dispose()
	if tr.State() != terrain.StateDestroyed || dev.Live() != 0 {
		t.Fatalf("state %v live %d", tr.State(), dev.Live())
	}
}
