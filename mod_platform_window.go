package fountain

// PlatformWindowModule ensures a single shared GLFW window (WindowState) is
// created and made available as a resource for the renderer and input modules.
// Install is idempotent: an existing WindowState is reused.
type PlatformWindowModule struct {
	Width  int
	Height int
	Title  string
	API    ClientAPI
}

// NewPlatformWindow creates a module that provides a shared WindowState resource.
// Zero sizes fall back to 640x480.
func NewPlatformWindow(width, height int, title string, api ClientAPI) *PlatformWindowModule {
	if width <= 0 {
		width = 640
	}
	if height <= 0 {
		height = 480
	}
	if title == "" {
		title = windowTitlePrefix
	}
	return &PlatformWindowModule{
		Width:  width,
		Height: height,
		Title:  title,
		API:    api,
	}
}

func (m PlatformWindowModule) Install(app *App, cmd *Commands) {
	if ws, ok := Resource[WindowState](app); ok {
		if ws.api != m.API {
			panic("window already created for a different client API")
		}
		return
	}

	ws, err := createWindowState(m.Width, m.Height, m.Title, m.API)
	if err != nil {
		cmd.Logger().Errorf("Window creation failed: %v", err)
		panic(err)
	}
	cmd.AddResources(ws)
	cmd.OnExit(ws.destroy)
	cmd.Logger().Infof("Window %dx%d created", m.Width, m.Height)
}
