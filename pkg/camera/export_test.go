package camera

import (
	"context"
	"time"
)

// SetPause replaces the reconnect pause so tests don't sleep.
func (a *Acquisition) SetPause(f func(ctx context.Context, d time.Duration) bool) {
	a.pause = f
}
