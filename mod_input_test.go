package fountain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInput_SetKeyEdges(t *testing.T) {
	input := &Input{}

	input.SetKey(KeyW, true)
	assert.True(t, input.Pressed[KeyW])
	assert.True(t, input.JustPressed[KeyW])

	input.BeginFrame()
	input.SetKey(KeyW, true)
	assert.True(t, input.Pressed[KeyW])
	assert.False(t, input.JustPressed[KeyW])

	input.BeginFrame()
	input.SetKey(KeyW, false)
	assert.False(t, input.Pressed[KeyW])
	assert.True(t, input.JustReleased[KeyW])

	input.BeginFrame()
	assert.False(t, input.JustReleased[KeyW])
}

func TestInput_SetKeyIgnoresUnknownKeys(t *testing.T) {
	input := &Input{}
	assert.NotPanics(t, func() {
		input.SetKey(-1, true)
		input.SetKey(maxKeys, true)
	})
}

func TestInput_MoveMouseAccumulatesDelta(t *testing.T) {
	input := &Input{}
	input.MoveMouse(10, 5)
	input.MoveMouse(12, 9)

	assert.True(t, input.MouseMoved)
	assert.Equal(t, 12.0, input.MouseX)
	assert.Equal(t, 12.0, input.MouseDeltaX)
	assert.Equal(t, 9.0, input.MouseDeltaY)

	input.BeginFrame()
	input.MoveMouse(12, 9)
	assert.False(t, input.MouseMoved)
	assert.Zero(t, input.MouseDeltaX)
}

func TestInputExitSystem(t *testing.T) {
	for name, press := range map[string]func(*Input){
		"escape": func(in *Input) { in.SetKey(KeyEscape, true) },
		"close":  func(in *Input) { in.QuitRequested = true },
	} {
		t.Run(name, func(t *testing.T) {
			app := NewApp()
			input := &Input{}
			app.addResources(input)
			app.UseSystem(System(inputExitSystem).InStage(PreUpdate))

			app.Step()
			assert.False(t, app.ExitRequested())

			press(input)
			app.Step()
			assert.True(t, app.ExitRequested())
		})
	}
}
