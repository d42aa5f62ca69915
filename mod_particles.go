package fountain

import (
	"math/rand"
	"time"

	"github.com/gekko3d/fountain/core"
	"github.com/go-gl/mathgl/mgl32"
)

// Projection describes a perspective frustum. Aspect comes from the
// viewport at use time.
type Projection struct {
	FovYDegrees float32 `json:"fov_y_degrees"`
	Near        float32 `json:"near"`
	Far         float32 `json:"far"`
}

func (p Projection) Matrix(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(p.FovYDegrees), aspect, p.Near, p.Far)
}

var (
	DefaultCullProjection   = Projection{FovYDegrees: 75, Near: 1, Far: 75}
	DefaultRenderProjection = Projection{FovYDegrees: 45, Near: 0.1, Far: 50}
)

// EmitterControls holds the runtime toggles driven by keys 1 to 5.
type EmitterControls struct {
	Culling          bool
	CullProjection   Projection
	RenderProjection Projection
}

// TransformComponent places an entity in the world. The emitter's model
// matrix follows it every frame.
type TransformComponent struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func (t TransformComponent) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z()).
		Mul4(t.Rotation.Mat4()).
		Mul4(mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z()))
}

// transformOf splits an affine model matrix without shear.
func transformOf(m mgl32.Mat4) TransformComponent {
	scale := mgl32.Vec3{m.Col(0).Vec3().Len(), m.Col(1).Vec3().Len(), m.Col(2).Vec3().Len()}
	rot := mgl32.Ident4()
	for c := 0; c < 3; c++ {
		if scale[c] != 0 {
			rot.SetCol(c, m.Col(c).Mul(1/scale[c]))
		}
	}
	return TransformComponent{
		Position: m.Col(3).Vec3(),
		Rotation: mgl32.Mat4ToQuat(rot),
		Scale:    scale,
	}
}

type ParticleEmitterComponent struct {
	Emitter  *core.Emitter
	Controls EmitterControls
}

// ParticleEmitterModule adds the emitter entity and its systems. A zero Seed
// seeds from the clock. An app holds at most one emitter.
type ParticleEmitterModule struct {
	Config           core.EmitterConfig
	Culling          bool
	CullProjection   Projection
	RenderProjection Projection
	Seed             int64
}

func (m ParticleEmitterModule) Install(app *App, cmd *Commands) {
	if _, _, ok := firstEmitter(cmd); ok {
		panic("particle emitter already installed")
	}
	seed := m.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	cfg := m.Config
	if cfg.Capacity <= 0 {
		cfg = core.DefaultEmitterConfig()
	}
	cull := m.CullProjection
	if cull == (Projection{}) {
		cull = DefaultCullProjection
	}
	render := m.RenderProjection
	if render == (Projection{}) {
		render = DefaultRenderProjection
	}

	cmd.AddEntity(
		transformOf(cfg.Model),
		ParticleEmitterComponent{
			Emitter: core.NewEmitter(cfg, rand.New(rand.NewSource(seed))),
			Controls: EmitterControls{
				Culling:          m.Culling,
				CullProjection:   cull,
				RenderProjection: render,
			},
		},
	)
	cmd.Logger().Infof("Emitter ready: capacity=%d order=%s culling=%t", cfg.Capacity, cfg.Order, m.Culling)

	app.UseSystem(
		System(emitterControlSystem).
			InStage(Update),
	)
	app.UseSystem(
		System(emitterUpdateSystem).
			InStage(PostUpdate),
	)
}

// firstEmitter returns the emitter entity's transform and component.
func firstEmitter(cmd *Commands) (*TransformComponent, *ParticleEmitterComponent, bool) {
	var (
		tr *TransformComponent
		em *ParticleEmitterComponent
	)
	MakeQuery2[TransformComponent, ParticleEmitterComponent](cmd).Map(func(eid EntityId, t *TransformComponent, e *ParticleEmitterComponent) bool {
		tr, em = t, e
		return false
	})
	return tr, em, em != nil
}

// renderTargets returns the camera and emitter a renderer draws.
func renderTargets(cmd *Commands) (*core.Camera, *ParticleEmitterComponent, bool) {
	_, fp, ok := firstCamera(cmd)
	if !ok {
		return nil, nil, false
	}
	_, em, ok := firstEmitter(cmd)
	if !ok {
		return nil, nil, false
	}
	return fp.Camera, em, true
}

func emitterControlSystem(input *Input, cmd *Commands) {
	MakeQuery1[ParticleEmitterComponent](cmd).Map(func(eid EntityId, em *ParticleEmitterComponent) bool {
		if input.JustPressed[Key1] {
			em.Controls.Culling = !em.Controls.Culling
			cmd.Logger().Infof("Frustum culling %t", em.Controls.Culling)
		}
		if input.Pressed[Key2] {
			em.Emitter.IncreaseGravity()
		}
		if input.Pressed[Key3] {
			em.Emitter.DecreaseGravity()
		}
		if input.Pressed[Key4] {
			em.Emitter.IncreaseSpread()
		}
		if input.Pressed[Key5] {
			em.Emitter.DecreaseSpread()
		}
		return true
	})
}

func emitterUpdateSystem(t *Time, input *Input, stats *FrameStats, cmd *Commands) {
	_, cam, ok := firstCamera(cmd)
	if !ok {
		return
	}
	MakeQuery2[TransformComponent, ParticleEmitterComponent](cmd).Map(func(eid EntityId, tr *TransformComponent, em *ParticleEmitterComponent) bool {
		em.Emitter.SetModelMatrix(tr.Matrix())
		projection := em.Controls.CullProjection.Matrix(viewportAspect(input))

		stats.Profiler.BeginScope("update")
		em.Emitter.UpdateParticles(cam.Camera, projection, t.Seconds(), em.Controls.Culling)
		stats.Profiler.EndScope("update")

		stats.ParticlesRendered = em.Emitter.NumParticlesRendered()
		stats.Alive = em.Emitter.Pool().AliveCount()
		stats.Profiler.SetCount("rendered", stats.ParticlesRendered)
		stats.Profiler.SetCount("alive", stats.Alive)
		return true
	})
}

// viewportAspect falls back to 4:3 before the first window size is known.
func viewportAspect(input *Input) float32 {
	if input.WindowWidth <= 0 || input.WindowHeight <= 0 {
		return 4.0 / 3.0
	}
	return float32(input.WindowWidth) / float32(input.WindowHeight)
}
