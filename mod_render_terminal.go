package fountain

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/gekko3d/fountain/core"
	"github.com/go-gl/mathgl/mgl32"
)

// Terminal cells are reported to the simulation as 8x16 pixels so the
// viewport aspect matches what is on screen.
const (
	cellPixelsX = 8
	cellPixelsY = 16
)

// TerminalRendererModule draws the batch into a tcell screen and feeds
// Input from terminal events. Screen is created when nil.
type TerminalRendererModule struct {
	HUD    bool
	Screen tcell.Screen
}

type terminalState struct {
	screen  tcell.Screen
	events  chan tcell.Event
	hud     []string
	showHUD bool

	done     chan struct{}
	stopOnce sync.Once
}

func (m TerminalRendererModule) Install(app *App, cmd *Commands) {
	screen := m.Screen
	if screen == nil {
		var err error
		screen, err = tcell.NewScreen()
		if err != nil {
			cmd.Logger().Errorf("Terminal setup failed: %v", err)
			panic(err)
		}
	}
	if err := screen.Init(); err != nil {
		cmd.Logger().Errorf("Terminal init failed: %v", err)
		panic(err)
	}
	screen.EnableMouse(tcell.MouseMotionEvents)
	screen.HideCursor()

	state := newTerminalState(screen, m.HUD)
	go state.pump()

	if _, ok := Resource[Input](app); !ok {
		cmd.AddResources(&Input{MouseCaptured: true})
	}
	cmd.AddResources(state)
	cmd.OnExit(screen.Fini)
	cmd.OnExit(state.stop)

	app.UseSystem(
		System(terminalInputSystem).
			InStage(PreUpdate),
	)
	app.UseSystem(
		System(inputExitSystem).
			InStage(PreUpdate),
	)
	app.UseSystem(
		System(terminalRenderSystem).
			InStage(Render),
	)
}

func newTerminalState(screen tcell.Screen, hud bool) *terminalState {
	return &terminalState{
		screen:  screen,
		events:  make(chan tcell.Event, 256),
		showHUD: hud,
		done:    make(chan struct{}),
	}
}

// pump forwards screen events until the screen is finalized or stop is
// called.
func (s *terminalState) pump() {
	for {
		ev := s.screen.PollEvent()
		if ev == nil {
			close(s.events)
			return
		}
		select {
		case s.events <- ev:
		case <-s.done:
			return
		}
	}
}

// stop releases a pump blocked on a full event buffer. Exit hooks run in
// reverse, so it runs before the screen is finalized.
func (s *terminalState) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// terminalInputSystem drains pending events without blocking. Terminals
// send no key-up, so a key counts as held only in frames that saw it.
func terminalInputSystem(state *terminalState, input *Input) {
	input.BeginFrame()

	var down [maxKeys]bool
	cols, rows := state.screen.Size()
	input.WindowWidth, input.WindowHeight = cols*cellPixelsX, rows*cellPixelsY

drain:
	for {
		select {
		case ev, ok := <-state.events:
			if !ok {
				input.QuitRequested = true
				break drain
			}
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyCtrlC {
					input.QuitRequested = true
					continue
				}
				if key, ok := terminalKey(ev); ok {
					down[key] = true
				}
			case *tcell.EventMouse:
				x, y := ev.Position()
				input.MoveMouse(float64(x*cellPixelsX), float64(y*cellPixelsY))
			case *tcell.EventResize:
				state.screen.Sync()
				cols, rows = ev.Size()
				input.WindowWidth, input.WindowHeight = cols*cellPixelsX, rows*cellPixelsY
			}
		default:
			break drain
		}
	}

	for key := 0; key < maxKeys; key++ {
		input.SetKey(key, down[key])
	}
}

func terminalKey(ev *tcell.EventKey) (int, bool) {
	switch ev.Key() {
	case tcell.KeyEscape:
		return KeyEscape, true
	case tcell.KeyUp:
		return KeyUp, true
	case tcell.KeyDown:
		return KeyDown, true
	case tcell.KeyLeft:
		return KeyLeft, true
	case tcell.KeyRight:
		return KeyRight, true
	case tcell.KeyTab:
		return KeyTab, true
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'w', 'W':
			return KeyW, true
		case 'a', 'A':
			return KeyA, true
		case 's', 'S':
			return KeyS, true
		case 'd', 'D':
			return KeyD, true
		case '1':
			return Key1, true
		case '2':
			return Key2, true
		case '3':
			return Key3, true
		case '4':
			return Key4, true
		case '5':
			return Key5, true
		case ' ':
			return KeySpace, true
		}
	}
	return 0, false
}

// projectToCell maps a model-space point through mvp to a character cell.
func projectToCell(mvp mgl32.Mat4, pos mgl32.Vec3, cols, rows int) (int, int, bool) {
	clip := mvp.Mul4x1(pos.Vec4(1))
	if clip.W() <= 0 {
		return 0, 0, false
	}
	ndc := clip.Vec3().Mul(1 / clip.W())
	if ndc.X() < -1 || ndc.X() > 1 || ndc.Y() < -1 || ndc.Y() > 1 || ndc.Z() < -1 || ndc.Z() > 1 {
		return 0, 0, false
	}
	cx := int((ndc.X() + 1) * 0.5 * float32(cols))
	cy := int((1 - ndc.Y()) * 0.5 * float32(rows))
	return min(cx, cols-1), min(cy, rows-1), true
}

func particleGlyph(size float32) rune {
	switch {
	case size < 0.25:
		return '.'
	case size < 0.45:
		return '*'
	default:
		return 'o'
	}
}

// DrawInstances paints in batch order, so a back-to-front batch leaves the
// nearest particle in each cell.
func (s *terminalState) DrawInstances(batch *core.RenderBatch, u core.Uniforms) error {
	s.screen.Clear()
	cols, rows := s.screen.Size()
	if cols <= 0 || rows <= 0 {
		return fmt.Errorf("terminal has no cells (%dx%d)", cols, rows)
	}

	mvp := u.Projection.Mul4(u.View).Mul4(u.Model)
	for i := 0; i < batch.Count; i++ {
		p := batch.Positions[i*4 : i*4+4]
		cx, cy, ok := projectToCell(mvp, mgl32.Vec3{p[0], p[1], p[2]}, cols, rows)
		if !ok {
			continue
		}
		c := batch.Colors[i*4 : i*4+4]
		style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(c[0]), int32(c[1]), int32(c[2])))
		s.screen.SetContent(cx, cy, particleGlyph(p[3]), nil, style)
	}

	if s.showHUD {
		style := tcell.StyleDefault.Reverse(true)
		for row, line := range s.hud {
			drawTerminalText(s.screen, 0, row, line, style)
		}
	}

	s.screen.Show()
	return nil
}

func drawTerminalText(screen tcell.Screen, x, y int, text string, style tcell.Style) {
	cols, _ := screen.Size()
	for _, r := range text {
		if x >= cols {
			return
		}
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func terminalRenderSystem(input *Input, stats *FrameStats, state *terminalState, cmd *Commands) {
	cam, em, ok := renderTargets(cmd)
	if !ok {
		return
	}
	if state.showHUD {
		state.hud = append([]string{stats.WindowTitle()}, stats.HUDLines(&em.Controls)...)
	}

	stats.Profiler.BeginScope("render")
	projection := em.Controls.RenderProjection.Matrix(viewportAspect(input))
	if err := em.Emitter.RenderParticles(state, cam.ViewMatrix(), projection); err != nil {
		cmd.Logger().Warnf("Frame skipped: %v", err)
	}
	stats.Profiler.EndScope("render")
}
