package fountain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

const windowTitlePrefix = "Particle Emitter"

type Profiler struct {
	Scopes     map[string]time.Duration
	StartTimes map[string]time.Time
	Counts     map[string]int
	Order      []string
}

func NewProfiler() *Profiler {
	return &Profiler{
		Scopes:     make(map[string]time.Duration),
		StartTimes: make(map[string]time.Time),
		Counts:     make(map[string]int),
		Order:      make([]string, 0),
	}
}

func (p *Profiler) BeginScope(name string) {
	p.StartTimes[name] = time.Now()
	if !slices.Contains(p.Order, name) {
		p.Order = append(p.Order, name)
	}
}

func (p *Profiler) EndScope(name string) {
	if start, ok := p.StartTimes[name]; ok {
		p.Scopes[name] = time.Since(start)
	}
}

func (p *Profiler) SetCount(name string, count int) {
	p.Counts[name] = count
}

func (p *Profiler) StatsString() string {
	var sb strings.Builder

	sb.WriteString("timings:")
	for _, name := range p.Order {
		ms := float64(p.Scopes[name].Microseconds()) / 1000.0
		sb.WriteString(fmt.Sprintf(" %s=%.2fms", name, ms))
	}

	keys := make([]string, 0, len(p.Counts))
	for k := range p.Counts {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	sb.WriteString(" counts:")
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf(" %s=%d", k, p.Counts[k]))
	}

	return sb.String()
}

// FrameStats is refreshed by the emitter and renderer systems every frame.
// FPS is averaged over the module's interval.
type FrameStats struct {
	FPS               float64
	ParticlesRendered int
	Alive             int
	Profiler          *Profiler

	interval time.Duration
	frames   int
	elapsed  time.Duration
}

func (s *FrameStats) WindowTitle() string {
	return fmt.Sprintf("%s FPS: %.0f Particles Rendered: %d", windowTitlePrefix, s.FPS, s.ParticlesRendered)
}

// HUDLines is the overlay text shown by renderers that support it.
func (s *FrameStats) HUDLines(controls *EmitterControls) []string {
	culling := "off"
	if controls != nil && controls.Culling {
		culling = "on"
	}
	return []string{
		fmt.Sprintf("FPS %.0f", s.FPS),
		fmt.Sprintf("rendered %d alive %d", s.ParticlesRendered, s.Alive),
		fmt.Sprintf("culling %s", culling),
	}
}

// StatsModule installs FrameStats. Interval defaults to one second.
type StatsModule struct {
	Interval time.Duration
}

func (m StatsModule) Install(app *App, cmd *Commands) {
	interval := m.Interval
	if interval <= 0 {
		interval = time.Second
	}
	cmd.AddResources(&FrameStats{
		Profiler: NewProfiler(),
		interval: interval,
	})
	app.UseSystem(
		System(frameStatsSystem).
			InStage(Finale),
	)
}

func frameStatsSystem(t *Time, stats *FrameStats, cmd *Commands) {
	if t.Dt <= 0 {
		return
	}
	stats.frames++
	stats.elapsed += t.Dt
	if stats.elapsed < stats.interval {
		return
	}

	stats.FPS = float64(stats.frames) / stats.elapsed.Seconds()
	stats.Profiler.SetCount("rendered", stats.ParticlesRendered)
	stats.Profiler.SetCount("alive", stats.Alive)

	logger := cmd.Logger()
	if logger.DebugEnabled() {
		logger.Debugf("fps=%.1f %s", stats.FPS, stats.Profiler.StatsString())
	}

	stats.frames = 0
	stats.elapsed = 0
}

func windowTitleSystem(ws *WindowState, stats *FrameStats) {
	ws.SetTitle(stats.WindowTitle())
}
