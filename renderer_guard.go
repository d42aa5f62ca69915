package fountain

import (
	"fmt"
)

// RendererTag marks that a renderer has been installed into the App.
type RendererTag struct {
	Name string
}

// ensureSingleRenderer panics if a different renderer is already installed.
// It reports false when the same renderer was already selected.
func ensureSingleRenderer(app *App, name string) bool {
	if app == nil {
		panic("ensureSingleRenderer: app is nil")
	}
	if tag, ok := Resource[RendererTag](app); ok {
		if tag.Name != name {
			app.Logger().Errorf("Multiple renderers installed: %s and %s", tag.Name, name)
			panic(fmt.Sprintf("Multiple renderers installed: %s and %s", tag.Name, name))
		}
		return false
	}
	app.addResources(&RendererTag{Name: name})
	return true
}
