package core

import "github.com/go-gl/mathgl/mgl32"

// SentinelDistance marks a particle that must not be rendered this frame.
// Dead and culled particles carry it so they sort behind every visible one.
const SentinelDistance float32 = -1.0

// Particle is one point sprite. Life <= 0 means the slot is free.
type Particle struct {
	Pos            mgl32.Vec3
	Velocity       mgl32.Vec3
	R, G, B, A     uint8
	Size           float32
	Life           float32
	CameraDistance float32
}

func (p *Particle) Alive() bool {
	return p.Life > 0
}

// Renderable reports whether the particle made it into the current frame's batch.
func (p *Particle) Renderable() bool {
	return p.CameraDistance >= 0
}

// kill resets a particle to the dead state used at pool creation.
func (p *Particle) kill() {
	p.Life = -1
	p.CameraDistance = SentinelDistance
}
