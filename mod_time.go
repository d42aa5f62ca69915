package fountain

import (
	"time"
)

type Time struct {
	Time time.Time
	Dt   time.Duration

	now func() time.Time
}

// Seconds is the last frame delta in seconds.
func (t *Time) Seconds() float32 {
	return float32(t.Dt.Seconds())
}

// TimeModule measures the wall-clock delta between frames. Clock replaces
// time.Now when set.
type TimeModule struct {
	Clock func() time.Time
}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	now := mod.Clock
	if now == nil {
		now = time.Now
	}
	cmd.AddResources(&Time{
		Time: now(),
		Dt:   0,
		now:  now,
	})
	cmd.UseSystem(
		System(timeSystem).
			InStage(Prelude),
	)
}

func timeSystem(timeResource *Time) {
	now := timeResource.now()

	timeResource.Dt = now.Sub(timeResource.Time)
	timeResource.Time = now
}
