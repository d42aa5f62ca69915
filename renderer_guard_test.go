package fountain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSingleRenderer(t *testing.T) {
	app := NewApp()

	assert.True(t, ensureSingleRenderer(app, "terminal"))
	assert.False(t, ensureSingleRenderer(app, "terminal"), "same renderer is a no-op")

	tag, ok := Resource[RendererTag](app)
	require.True(t, ok)
	assert.Equal(t, "terminal", tag.Name)

	assert.PanicsWithValue(t, "Multiple renderers installed: terminal and wgpu", func() {
		ensureSingleRenderer(app, "wgpu")
	})
}

func TestUseRenderer_QueuesModuleOnce(t *testing.T) {
	app := NewApp()
	installs := 0
	mod := moduleFunc(func(app *App, cmd *Commands) { installs++ })

	app.UseRenderer(RendererTerminal, mod, nil)
	app.UseRenderer(RendererTerminal, mod, nil)
	app.Step()

	assert.Equal(t, 1, installs)
	assert.Panics(t, func() { app.UseRenderer(RendererGL, mod, nil) })
}

func TestParseRendererName(t *testing.T) {
	for _, s := range []string{"wgpu", "gl", "terminal"} {
		name, err := ParseRendererName(s)
		require.NoError(t, err)
		assert.Equal(t, RendererName(s), name)
	}
	_, err := ParseRendererName("vulkan")
	assert.Error(t, err)
}
