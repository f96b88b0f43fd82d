package heightmap

import (
	"context"
	"math"
	"runtime"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// rowJob asks a worker to compute the normals of one grid row.
type rowJob struct {
	y int
}

// rowPool computes normal rows on a fixed set of goroutines. Rows are
// disjoint, so workers write straight into the shared output slice.
type rowPool struct {
	jobQueue chan rowJob
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func newRowPool(ctx context.Context, workers int, work func(y int)) *rowPool {
	ctx, cancel := context.WithCancel(ctx)
	p := &rowPool{
		jobQueue: make(chan rowJob, workers*2),
		ctx:      ctx,
		cancel:   cancel,
	}
	for range workers {
		p.wg.Add(1)
		go p.worker(work)
	}
	return p
}

func (p *rowPool) worker(work func(y int)) {
	defer p.wg.Done()
	for {
		select {
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			work(job.y)
		case <-p.ctx.Done():
			return
		}
	}
}

// submit blocks until the job is queued or the pool is cancelled.
func (p *rowPool) submit(job rowJob) bool {
	select {
	case p.jobQueue <- job:
		return true
	case <-p.ctx.Done():
		return false
	}
}

// wait drains the queue and stops the workers.
func (p *rowPool) wait() {
	close(p.jobQueue)
	p.wg.Wait()
	p.cancel()
}

// Normals returns one unit normal per sample: the area weighted average of
// the faces touching the vertex, in world scale. Cells are split into the
// triangles (top-left, bottom-left, top-right) and (top-right, bottom-left,
// bottom-right), matching the index buffers. workers <= 0 uses GOMAXPROCS.
func (h *Heightmap) Normals(ctx context.Context, workers int) ([]mgl32.Vec3, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := make([]mgl32.Vec3, len(h.samples))

	pool := newRowPool(ctx, workers, func(y int) {
		for x := range h.dimension {
			out[y*h.dimension+x] = h.vertexNormal(x, y)
		}
	})
	for y := range h.dimension {
		if !pool.submit(rowJob{y: y}) {
			break
		}
	}
	pool.wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (h *Heightmap) position(x, y int) mgl32.Vec3 {
	return mgl32.Vec3{
		float32(x) * h.scaling.X(),
		h.samples[y*h.dimension+x] * h.scaling.Y(),
		float32(y) * h.scaling.Z(),
	}
}

func (h *Heightmap) faceNormal(a, b, c [2]int) mgl32.Vec3 {
	pa := h.position(a[0], a[1])
	return h.position(b[0], b[1]).Sub(pa).Cross(h.position(c[0], c[1]).Sub(pa))
}

// cellNormals adds the triangles of cell (cx, cy) that contain vertex v.
func (h *Heightmap) cellNormals(cx, cy int, v [2]int) mgl32.Vec3 {
	if cx < 0 || cy < 0 || cx >= h.dimension-1 || cy >= h.dimension-1 {
		return mgl32.Vec3{}
	}
	tl := [2]int{cx, cy}
	bl := [2]int{cx, cy + 1}
	tr := [2]int{cx + 1, cy}
	br := [2]int{cx + 1, cy + 1}

	var sum mgl32.Vec3
	if v == tl || v == bl || v == tr {
		sum = sum.Add(h.faceNormal(tl, bl, tr))
	}
	if v == tr || v == bl || v == br {
		sum = sum.Add(h.faceNormal(tr, bl, br))
	}
	return sum
}

func (h *Heightmap) vertexNormal(x, y int) mgl32.Vec3 {
	v := [2]int{x, y}
	sum := h.cellNormals(x-1, y-1, v).
		Add(h.cellNormals(x, y-1, v)).
		Add(h.cellNormals(x-1, y, v)).
		Add(h.cellNormals(x, y, v))

	if l := sum.Len(); l > 0 && !math.IsNaN(float64(l)) {
		return sum.Mul(1 / l)
	}
	return mgl32.Vec3{0, 1, 0}
}

// NormalBytes packs normals as vec4 (w = 0) little-endian floats, the
// array stride storage buffers expect.
func NormalBytes(normals []mgl32.Vec3) []byte {
	out := make([]byte, 16*len(normals))
	for i, n := range normals {
		for c := range 3 {
			bits := math.Float32bits(n[c])
			o := 16*i + 4*c
			out[o] = byte(bits)
			out[o+1] = byte(bits >> 8)
			out[o+2] = byte(bits >> 16)
			out[o+3] = byte(bits >> 24)
		}
	}
	return out
}
