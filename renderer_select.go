package fountain

import "fmt"

// RendererName identifies a concrete renderer module.
// Keep names aligned with ensureSingleRenderer tags.
type RendererName string

const (
	RendererWGPU     RendererName = "wgpu"
	RendererGL       RendererName = "gl"
	RendererTerminal RendererName = "terminal"
)

func ParseRendererName(s string) (RendererName, error) {
	switch name := RendererName(s); name {
	case RendererWGPU, RendererGL, RendererTerminal:
		return name, nil
	default:
		return "", fmt.Errorf("unknown renderer %q (want wgpu, gl or terminal)", s)
	}
}

// UseRenderer installs exactly one renderer module. Window-backed renderers
// get the shared window and glfw input queued ahead of them.
//
//	app.UseRenderer(RendererWGPU, WgpuRendererModule{}, NewPlatformWindow(640, 480, "", ClientAPINone))
func (app *App) UseRenderer(name RendererName, mod Module, window *PlatformWindowModule) *App {
	if !ensureSingleRenderer(app, string(name)) {
		return app
	}
	app.Logger().Infof("Renderer selected: %s", name)
	if window != nil {
		app.UseModules(*window, InputModule{})
	}
	app.UseModules(mod)
	return app
}

// UseWGPU selects the WebGPU renderer with a window of the given size.
func (app *App) UseWGPU(width, height int, hud bool) *App {
	return app.UseRenderer(RendererWGPU, WgpuRendererModule{HUD: hud},
		NewPlatformWindow(width, height, windowTitlePrefix, ClientAPINone))
}

// UseGL selects the OpenGL 4.1 core renderer with a window of the given size.
func (app *App) UseGL(width, height int) *App {
	return app.UseRenderer(RendererGL, GLRendererModule{},
		NewPlatformWindow(width, height, windowTitlePrefix, ClientAPIOpenGL))
}

// UseTerminal selects the terminal renderer; it brings its own input.
func (app *App) UseTerminal(hud bool) *App {
	return app.UseRenderer(RendererTerminal, TerminalRendererModule{HUD: hud}, nil)
}
