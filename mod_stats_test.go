package fountain

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameStats_FPSOverInterval(t *testing.T) {
	app, input, clock := newSimulationApp(10)
	frame(app, input, clock, 0)

	for i := 0; i < 4; i++ {
		frame(app, input, clock, 250*time.Millisecond)
	}

	stats, ok := Resource[FrameStats](app)
	require.True(t, ok)
	assert.InDelta(t, 4.0, stats.FPS, 1e-9)
	assert.Contains(t, stats.Profiler.Order, "update")
}

func TestFrameStats_WindowTitle(t *testing.T) {
	stats := &FrameStats{FPS: 59.6, ParticlesRendered: 1234}
	assert.Equal(t, "Particle Emitter FPS: 60 Particles Rendered: 1234", stats.WindowTitle())
}

func TestFrameStats_HUDLines(t *testing.T) {
	stats := &FrameStats{FPS: 30, ParticlesRendered: 5, Alive: 7}
	lines := stats.HUDLines(&EmitterControls{Culling: true})
	assert.Equal(t, []string{"FPS 30", "rendered 5 alive 7", "culling on"}, lines)
	assert.Equal(t, "culling off", stats.HUDLines(nil)[2])
}

func TestFrameStats_DebugLogOncePerInterval(t *testing.T) {
	var out bytes.Buffer
	logger := NewWriterLogger("test", true, &out, &out)

	clock := newFakeClock()
	app := NewApp()
	app.UseModules(
		LoggingModule{Logger: logger},
		TimeModule{Clock: clock.Now},
		StatsModule{Interval: 100 * time.Millisecond},
	)

	for i := 0; i < 10; i++ {
		clock.Advance(50 * time.Millisecond)
		app.Step()
	}

	// The first frame has no delta and is not counted.
	assert.Equal(t, 4, strings.Count(out.String(), "DEBUG: fps="))
}

func TestProfiler_StatsString(t *testing.T) {
	p := NewProfiler()
	p.BeginScope("update")
	p.EndScope("update")
	p.BeginScope("update")
	p.SetCount("rendered", 3)
	p.SetCount("alive", 4)

	s := p.StatsString()
	assert.Equal(t, []string{"update"}, p.Order)
	assert.True(t, strings.HasPrefix(s, "timings: update="))
	assert.True(t, strings.HasSuffix(s, "counts: alive=4 rendered=3"))
}
