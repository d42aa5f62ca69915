package fountain

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gekko3d/fountain/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTerminal(t *testing.T, hud bool) (*terminalState, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	t.Cleanup(screen.Fini)
	screen.SetSize(80, 24)
	return newTerminalState(screen, hud), screen
}

func TestTerminalInput_KeyHeldOnlyWhileEventsArrive(t *testing.T) {
	state, _ := newTestTerminal(t, false)
	input := &Input{}

	state.events <- tcell.NewEventKey(tcell.KeyRune, '1', tcell.ModNone)
	terminalInputSystem(state, input)
	assert.True(t, input.Pressed[Key1])
	assert.True(t, input.JustPressed[Key1])
	assert.Equal(t, 640, input.WindowWidth)
	assert.Equal(t, 384, input.WindowHeight)

	terminalInputSystem(state, input)
	assert.False(t, input.Pressed[Key1])
	assert.True(t, input.JustReleased[Key1])
}

func TestTerminalInput_Keys(t *testing.T) {
	state, _ := newTestTerminal(t, false)
	input := &Input{}

	state.events <- tcell.NewEventKey(tcell.KeyRune, 'W', tcell.ModNone)
	state.events <- tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone)
	state.events <- tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)
	state.events <- tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)
	terminalInputSystem(state, input)

	assert.True(t, input.Pressed[KeyW])
	assert.True(t, input.Pressed[KeyUp])
	assert.True(t, input.Pressed[KeyEscape])
	assert.False(t, input.QuitRequested)
}

func TestTerminalInput_CtrlCQuits(t *testing.T) {
	state, _ := newTestTerminal(t, false)
	input := &Input{}

	state.events <- tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl)
	terminalInputSystem(state, input)
	assert.True(t, input.QuitRequested)
}

func TestTerminalInput_ClosedEventsQuit(t *testing.T) {
	state, _ := newTestTerminal(t, false)
	input := &Input{}

	close(state.events)
	terminalInputSystem(state, input)
	assert.True(t, input.QuitRequested)
}

func TestTerminalInput_MouseScaledToCellPixels(t *testing.T) {
	state, _ := newTestTerminal(t, false)
	input := &Input{}

	state.events <- tcell.NewEventMouse(3, 2, tcell.ButtonNone, tcell.ModNone)
	terminalInputSystem(state, input)

	assert.True(t, input.MouseMoved)
	assert.Equal(t, 24.0, input.MouseX)
	assert.Equal(t, 32.0, input.MouseY)
}

func TestTerminalInput_Resize(t *testing.T) {
	state, _ := newTestTerminal(t, false)
	input := &Input{}

	state.events <- tcell.NewEventResize(100, 30)
	terminalInputSystem(state, input)

	assert.Equal(t, 800, input.WindowWidth)
	assert.Equal(t, 480, input.WindowHeight)
}

func TestProjectToCell(t *testing.T) {
	cam := core.NewCamera()
	mvp := mgl32.Perspective(mgl32.DegToRad(45), 80*cellPixelsX/float32(24*cellPixelsY), 0.1, 50).Mul4(cam.ViewMatrix())

	cx, cy, ok := projectToCell(mvp, mgl32.Vec3{0, 0, 0}, 80, 24)
	require.True(t, ok)
	assert.Equal(t, 40, cx)
	assert.Equal(t, 12, cy)

	_, _, ok = projectToCell(mvp, mgl32.Vec3{0, 0, 10}, 80, 24)
	assert.False(t, ok, "behind the eye")

	_, _, ok = projectToCell(mvp, mgl32.Vec3{100, 0, 0}, 80, 24)
	assert.False(t, ok, "outside the viewport")

	_, _, ok = projectToCell(mvp, mgl32.Vec3{0, 0, -100}, 80, 24)
	assert.False(t, ok, "beyond the far plane")
}

func TestParticleGlyph(t *testing.T) {
	assert.Equal(t, '.', particleGlyph(0.1))
	assert.Equal(t, '*', particleGlyph(0.3))
	assert.Equal(t, 'o', particleGlyph(0.5))
}

func TestTerminalDrawInstances(t *testing.T) {
	state, screen := newTestTerminal(t, true)
	state.hud = []string{"FPS 60"}

	batch := core.NewRenderBatch(2)
	batch.Append(&core.Particle{Pos: mgl32.Vec3{0, 0, 0}, Size: 0.5, R: 255, G: 128, B: 0, A: 255})
	batch.Append(&core.Particle{Pos: mgl32.Vec3{0, 0, 10}, Size: 0.5, R: 255, A: 255})

	cam := core.NewCamera()
	u := core.Uniforms{
		Model:      mgl32.Ident4(),
		View:       cam.ViewMatrix(),
		Projection: mgl32.Perspective(mgl32.DegToRad(45), 640.0/384.0, 0.1, 50),
	}
	require.NoError(t, state.DrawInstances(batch, u))

	r, _, _, _ := screen.GetContent(40, 12)
	assert.Equal(t, 'o', r)

	hud := make([]rune, 6)
	for x := range hud {
		hud[x], _, _, _ = screen.GetContent(x, 0)
	}
	assert.Equal(t, "FPS 60", string(hud))
}

func TestTerminalDrawInstances_HUDHidden(t *testing.T) {
	state, screen := newTestTerminal(t, false)
	state.hud = []string{"FPS 60"}

	require.NoError(t, state.DrawInstances(core.NewRenderBatch(1), core.Uniforms{
		Model:      mgl32.Ident4(),
		View:       mgl32.Ident4(),
		Projection: mgl32.Ident4(),
	}))

	r, _, _, _ := screen.GetContent(0, 0)
	assert.Equal(t, ' ', r)
}

func TestTerminalPump_StopReleasesFullBuffer(t *testing.T) {
	state, screen := newTestTerminal(t, false)
	for i := 0; i < cap(state.events); i++ {
		state.events <- tcell.NewEventKey(tcell.KeyRune, 'w', tcell.ModNone)
	}
	screen.InjectKey(tcell.KeyRune, 'a', tcell.ModNone)

	finished := make(chan struct{})
	go func() {
		state.pump()
		close(finished)
	}()

	state.stop()
	state.stop()
	require.Eventually(t, func() bool {
		select {
		case <-finished:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}
