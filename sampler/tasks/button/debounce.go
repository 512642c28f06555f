package button

import "time"

// Debouncer filters contact bounce from pin-change events. The first edge
// after a quiet period is taken; edges inside the window restart it and
// are dropped.
type Debouncer struct {
	Window time.Duration

	stable bool
	until  time.Time
}

// Update feeds the level sampled at a pin change and reports whether it
// completes a press.
func (d *Debouncer) Update(pressed bool, at time.Time) bool {
	quiet := !at.Before(d.until)
	d.until = at.Add(d.Window)
	if !quiet || pressed == d.stable {
		return false
	}
	d.stable = pressed
	return pressed
}
