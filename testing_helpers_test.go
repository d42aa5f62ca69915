package fountain

import (
	"time"

	"github.com/gekko3d/fountain/core"
	"github.com/go-gl/mathgl/mgl32"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// newSimulationApp wires the simulation modules with a hand-fed Input and
// no window or renderer.
func newSimulationApp(capacity int) (*App, *Input, *fakeClock) {
	clock := newFakeClock()
	input := &Input{WindowWidth: 640, WindowHeight: 480, MouseCaptured: true}

	cfg := core.DefaultEmitterConfig()
	cfg.Capacity = capacity

	app := NewApp()
	app.addResources(input)
	app.UseModules(
		TimeModule{Clock: clock.Now},
		StatsModule{},
		CameraModule{Eye: mgl32.Vec3{0, 5, 25}, Speed: 0.25},
		ParticleEmitterModule{Config: cfg, Seed: 1},
	)
	return app, input, clock
}

// emitterOf and cameraOf return the installed entities' components, or nil
// before the first frame.
func emitterOf(app *App) *ParticleEmitterComponent {
	_, em, _ := firstEmitter(app.Commands())
	return em
}

func cameraOf(app *App) *FirstPersonCameraComponent {
	_, fp, _ := firstCamera(app.Commands())
	return fp
}

// frame advances the clock and runs one frame with the given keys held.
func frame(app *App, input *Input, clock *fakeClock, dt time.Duration, held ...int) {
	clock.Advance(dt)
	input.BeginFrame()
	down := map[int]bool{}
	for _, k := range held {
		down[k] = true
	}
	for k := 0; k < maxKeys; k++ {
		input.SetKey(k, down[k])
	}
	app.Step()
}
