package core

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
)

// SpawnParams describes the distributions new particles are drawn from.
type SpawnParams struct {
	Origin       mgl32.Vec3
	BaseVelocity mgl32.Vec3
	Spread       float32
	LifeRange    [2]float32
	SizeRange    [2]float32
}

func DefaultSpawnParams() SpawnParams {
	return SpawnParams{
		Origin:       mgl32.Vec3{0, 0, 0},
		BaseVelocity: mgl32.Vec3{0, 10, 0},
		Spread:       2.0,
		LifeRange:    [2]float32{0.5, 5.0},
		SizeRange:    [2]float32{0.1, 0.6},
	}
}

// Pool is a fixed-capacity particle store with a cursor remembering the last
// slot handed out. The cursor is always a valid index.
type Pool struct {
	particles []Particle
	lastUsed  int
	rng       *rand.Rand
}

// NewPool allocates capacity dead particles. A nil rng falls back to a
// time-seeded source.
func NewPool(capacity int, rng *rand.Rand) *Pool {
	if capacity <= 0 {
		capacity = 1
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	p := &Pool{
		particles: make([]Particle, capacity),
		rng:       rng,
	}
	for i := range p.particles {
		p.particles[i].kill()
	}
	return p
}

func (p *Pool) Capacity() int { return len(p.particles) }

func (p *Pool) Cursor() int { return p.lastUsed }

// At returns a pointer into the pool; callers must not keep it across frames.
func (p *Pool) At(i int) *Particle { return &p.particles[i] }

// Particles exposes the backing slice in its current order.
func (p *Pool) Particles() []Particle { return p.particles }

// AliveCount walks the pool; it is for stats, not the hot path.
func (p *Pool) AliveCount() int {
	n := 0
	for i := range p.particles {
		if p.particles[i].Alive() {
			n++
		}
	}
	return n
}

// FindUnusedSlot scans from the cursor to the end, then from 0 up to the
// cursor, for a dead particle. When every particle is alive it resets the
// cursor and returns 0, recycling that slot even though it is still alive.
func (p *Pool) FindUnusedSlot() int {
	for i := p.lastUsed; i < len(p.particles); i++ {
		if p.particles[i].Life <= 0 {
			p.lastUsed = i
			return i
		}
	}
	for i := 0; i < p.lastUsed; i++ {
		if p.particles[i].Life <= 0 {
			p.lastUsed = i
			return i
		}
	}
	p.lastUsed = 0
	return 0
}

// SpawnBatch overwrites count slots obtained from FindUnusedSlot with fresh
// random particles.
func (p *Pool) SpawnBatch(count int, params SpawnParams) {
	for n := 0; n < count; n++ {
		idx := p.FindUnusedSlot()
		pt := &p.particles[idx]

		pt.Life = p.uniform(params.LifeRange[0], params.LifeRange[1])
		pt.Pos = params.Origin

		jitter := mgl32.Vec3{
			p.uniform(-1, 1),
			p.uniform(-1, 1),
			p.uniform(-1, 1),
		}
		pt.Velocity = params.BaseVelocity.Add(jitter.Mul(params.Spread))

		pt.R = colorChannel(p.uniform(0, 256))
		pt.G = colorChannel(p.uniform(0, 256))
		pt.B = colorChannel(p.uniform(0, 256))
		// a third of the channel range keeps the fountain translucent
		pt.A = colorChannel(p.uniform(0, 256) / 3)

		pt.Size = p.uniform(params.SizeRange[0], params.SizeRange[1])
	}
}

func (p *Pool) uniform(lo, hi float32) float32 {
	return lo + (hi-lo)*p.rng.Float32()
}

func colorChannel(v float32) uint8 {
	if v >= 255 {
		return 255
	}
	if v <= 0 {
		return 0
	}
	return uint8(v)
}
