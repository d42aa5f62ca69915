package core

import (
	"fmt"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
)

// BatchOrder selects how the render batch relates to the depth sort.
type BatchOrder int

const (
	// BatchOrderSorted rebuilds the batch from the pool after sorting, so the
	// uploaded instances are back-to-front for the current frame.
	BatchOrderSorted BatchOrder = iota
	// BatchOrderUpdatePass keeps the batch in update-pass order. The sort then
	// only shows up in the next frame's iteration order.
	BatchOrderUpdatePass
)

func (o BatchOrder) String() string {
	switch o {
	case BatchOrderSorted:
		return "sorted"
	case BatchOrderUpdatePass:
		return "update-pass"
	}
	return fmt.Sprintf("BatchOrder(%d)", int(o))
}

func ParseBatchOrder(s string) (BatchOrder, error) {
	switch s {
	case "sorted", "":
		return BatchOrderSorted, nil
	case "update-pass":
		return BatchOrderUpdatePass, nil
	}
	return BatchOrderSorted, fmt.Errorf("unknown batch order %q", s)
}

// ViewSource is what the simulation needs from the camera each frame.
type ViewSource interface {
	ViewMatrix() mgl32.Mat4
	EyePosition() mgl32.Vec3
}

// Uniforms are the matrices handed to the particle program.
type Uniforms struct {
	Model      mgl32.Mat4
	View       mgl32.Mat4
	Projection mgl32.Mat4
}

// InstanceDrawer uploads a batch and issues one instanced draw of the quad.
type InstanceDrawer interface {
	DrawInstances(batch *RenderBatch, u Uniforms) error
}

type EmitterConfig struct {
	Capacity   int
	SpawnRate  float32 // particles per second of frame time
	SpawnCapDt float32 // frame time beyond which spawning stops growing
	Gravity    mgl32.Vec3
	Spawn      SpawnParams
	Order      BatchOrder
	Model      mgl32.Mat4
}

func DefaultEmitterConfig() EmitterConfig {
	return EmitterConfig{
		Capacity:   100000,
		SpawnRate:  10000,
		SpawnCapDt: 0.016,
		Gravity:    mgl32.Vec3{0, -10.5, 0},
		Spawn:      DefaultSpawnParams(),
		Order:      BatchOrderSorted,
		Model:      mgl32.Translate3D(0, 0, -5),
	}
}

// Emitter owns the pool, the per-frame frustum and the render batch.
type Emitter struct {
	cfg     EmitterConfig
	pool    *Pool
	frustum Frustum
	batch   *RenderBatch
}

func NewEmitter(cfg EmitterConfig, rng *rand.Rand) *Emitter {
	pool := NewPool(cfg.Capacity, rng)
	return &Emitter{
		cfg:   cfg,
		pool:  pool,
		batch: NewRenderBatch(pool.Capacity()),
	}
}

func (e *Emitter) Pool() *Pool { return e.pool }

func (e *Emitter) Batch() *RenderBatch { return e.batch }

func (e *Emitter) Frustum() Frustum { return e.frustum }

func (e *Emitter) ModelMatrix() mgl32.Mat4 { return e.cfg.Model }

func (e *Emitter) SetModelMatrix(m mgl32.Mat4) { e.cfg.Model = m }

func (e *Emitter) Gravity() mgl32.Vec3 { return e.cfg.Gravity }

func (e *Emitter) Spread() float32 { return e.cfg.Spawn.Spread }

func (e *Emitter) Order() BatchOrder { return e.cfg.Order }

func (e *Emitter) SetOrder(o BatchOrder) { e.cfg.Order = o }

func (e *Emitter) IncreaseGravity() { e.cfg.Gravity[1] += 1 }

func (e *Emitter) DecreaseGravity() { e.cfg.Gravity[1] -= 1 }

func (e *Emitter) IncreaseSpread() { e.cfg.Spawn.Spread += 0.1 }

func (e *Emitter) DecreaseSpread() {
	e.cfg.Spawn.Spread -= 0.1
	if e.cfg.Spawn.Spread < 0 {
		e.cfg.Spawn.Spread = 0
	}
}

// SpawnCount is floor(dt*rate), capped at floor(capDt*rate).
func SpawnCount(dt, rate, capDt float32) int {
	n := int(dt * rate)
	limit := int(capDt * rate)
	if n > limit {
		n = limit
	}
	if n < 0 {
		n = 0
	}
	return n
}

func (e *Emitter) SpawnCount(dt float32) int {
	return SpawnCount(dt, e.cfg.SpawnRate, e.cfg.SpawnCapDt)
}

// GenerateRandomParticles spawns count particles into free (or recycled) slots.
func (e *Emitter) GenerateRandomParticles(count int) {
	e.pool.SpawnBatch(count, e.cfg.Spawn)
}

// UpdateParticles advances the simulation by dt seconds: it refreshes the
// frustum from projection*view, spawns, integrates visible particles, rebuilds
// the render batch and depth-sorts the pool. Hidden particles are frozen.
func (e *Emitter) UpdateParticles(view ViewSource, projection mgl32.Mat4, dt float32, culling bool) {
	e.frustum = ExtractPlanes(projection.Mul4(view.ViewMatrix()))
	eye := view.EyePosition()

	e.GenerateRandomParticles(e.SpawnCount(dt))

	e.batch.Reset()
	gravityStep := e.cfg.Gravity.Mul(dt * 0.5)

	particles := e.pool.Particles()
	for i := range particles {
		p := &particles[i]
		if p.Life <= 0 {
			continue
		}

		p.Life -= dt
		if p.Life <= 0 {
			p.CameraDistance = SentinelDistance
			continue
		}

		if culling && !e.frustum.ContainsPoint(p.Pos) {
			p.CameraDistance = SentinelDistance
			continue
		}

		p.Velocity = p.Velocity.Add(gravityStep)
		p.Pos = p.Pos.Add(p.Velocity.Mul(dt))
		p.CameraDistance = p.Pos.Sub(eye).Len()
		e.batch.Append(p)
	}

	e.SortParticles()

	if e.cfg.Order == BatchOrderSorted {
		e.rebuildBatch()
	}
}

func (e *Emitter) SortParticles() {
	SortByDepth(e.pool.Particles())
}

// rebuildBatch repacks the renderable prefix of the sorted pool.
func (e *Emitter) rebuildBatch() {
	e.batch.Reset()
	particles := e.pool.Particles()
	for i := range particles {
		if !particles[i].Renderable() {
			break
		}
		e.batch.Append(&particles[i])
	}
}

// NumParticlesRendered is the instance count of the current batch.
func (e *Emitter) NumParticlesRendered() int {
	return e.batch.Count
}

// RenderParticles submits the current batch with the emitter's model matrix.
func (e *Emitter) RenderParticles(drawer InstanceDrawer, view, projection mgl32.Mat4) error {
	return drawer.DrawInstances(e.batch, Uniforms{
		Model:      e.cfg.Model,
		View:       view,
		Projection: projection,
	})
}
