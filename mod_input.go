package fountain

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	KeyA int = iota
	KeyD
	KeyS
	KeyW
	Key1
	Key2
	Key3
	Key4
	Key5
	KeySpace
	KeyEscape
	KeyTab
	KeyRight
	KeyLeft
	KeyDown
	KeyUp
	KeyF1
	MouseButtonLeft
	MouseButtonRight

	maxKeys
)

// Input is the per-frame keyboard and mouse snapshot shared by every
// backend. Mouse coordinates are absolute window pixels.
type Input struct {
	Pressed [maxKeys]bool

	JustPressed  [maxKeys]bool
	JustReleased [maxKeys]bool

	MouseX, MouseY           float64
	MouseDeltaX, MouseDeltaY float64
	MouseCaptured            bool
	MouseMoved               bool

	WindowWidth, WindowHeight int
	QuitRequested             bool
}

// BeginFrame clears the edge flags and mouse deltas of the previous frame.
func (input *Input) BeginFrame() {
	input.JustPressed = [maxKeys]bool{}
	input.JustReleased = [maxKeys]bool{}
	input.MouseDeltaX = 0
	input.MouseDeltaY = 0
	input.MouseMoved = false
}

// SetKey records the key state and derives the edge flags.
func (input *Input) SetKey(key int, down bool) {
	if key < 0 || key >= maxKeys {
		return
	}
	if down {
		if !input.Pressed[key] {
			input.JustPressed[key] = true
		}
		input.Pressed[key] = true
		return
	}
	if input.Pressed[key] {
		input.JustReleased[key] = true
	}
	input.Pressed[key] = false
}

// MoveMouse records an absolute pointer position.
func (input *Input) MoveMouse(x, y float64) {
	if x == input.MouseX && y == input.MouseY {
		return
	}
	input.MouseDeltaX += x - input.MouseX
	input.MouseDeltaY += y - input.MouseY
	input.MouseX = x
	input.MouseY = y
	input.MouseMoved = true
}

// InputModule feeds Input from the shared GLFW window.
type InputModule struct{}

func (mod InputModule) Install(app *App, cmd *Commands) {
	if _, ok := Resource[Input](app); !ok {
		cmd.AddResources(&Input{MouseCaptured: true})
	}
	app.UseSystem(
		System(inputSystem).
			InStage(PreUpdate),
	)
	app.UseSystem(
		System(inputExitSystem).
			InStage(PreUpdate),
	)
}

func inputSystem(s *WindowState, input *Input) {
	input.BeginFrame()

	glfw.PollEvents()

	for key, glfwKey := range keyToGlfw {
		input.SetKey(key, s.windowGlfw.GetKey(glfwKey) == glfw.Press)
	}
	input.SetKey(MouseButtonLeft, s.windowGlfw.GetMouseButton(glfw.MouseButtonLeft) == glfw.Press)
	input.SetKey(MouseButtonRight, s.windowGlfw.GetMouseButton(glfw.MouseButtonRight) == glfw.Press)

	if input.JustPressed[KeyTab] {
		input.MouseCaptured = !input.MouseCaptured
	}

	mx, my := s.windowGlfw.GetCursorPos()
	input.MoveMouse(mx, my)

	input.WindowWidth, input.WindowHeight = s.windowGlfw.GetFramebufferSize()
	input.QuitRequested = input.QuitRequested || s.windowGlfw.ShouldClose()

	if input.MouseCaptured {
		s.windowGlfw.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	} else {
		s.windowGlfw.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	}
}

// inputExitSystem ends the run on Escape or a window close request.
func inputExitSystem(input *Input, cmd *Commands) {
	if input.QuitRequested || input.JustPressed[KeyEscape] {
		cmd.Logger().Infof("Exit requested")
		cmd.Exit()
	}
}

var keyToGlfw = map[int]glfw.Key{
	KeyA:      glfw.KeyA,
	KeyD:      glfw.KeyD,
	KeyS:      glfw.KeyS,
	KeyW:      glfw.KeyW,
	Key1:      glfw.Key1,
	Key2:      glfw.Key2,
	Key3:      glfw.Key3,
	Key4:      glfw.Key4,
	Key5:      glfw.Key5,
	KeySpace:  glfw.KeySpace,
	KeyEscape: glfw.KeyEscape,
	KeyTab:    glfw.KeyTab,
	KeyRight:  glfw.KeyRight,
	KeyLeft:   glfw.KeyLeft,
	KeyDown:   glfw.KeyDown,
	KeyUp:     glfw.KeyUp,
	KeyF1:     glfw.KeyF1,
}
