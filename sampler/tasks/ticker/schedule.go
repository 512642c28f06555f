// Package ticker is the adaptive-interval timer task: every expiry adds the
// current interval to the elapsed total and moves to the next interval each
// time the total reaches an exact multiple of the change threshold.
package ticker

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidSchedule = errors.New("ticker: invalid schedule")

// State is shared with readers through a kernel.Shared cell.
type State struct {
	Index   int
	Elapsed uint64 // milliseconds
}

// Schedule is the ordered interval list and the change threshold.
type Schedule struct {
	Intervals []time.Duration
	Threshold time.Duration
}

func (s Schedule) Validate() error {
	if len(s.Intervals) == 0 {
		return fmt.Errorf("%w: no intervals", ErrInvalidSchedule)
	}
	for i, d := range s.Intervals {
		if d < time.Millisecond || d%time.Millisecond != 0 {
			return fmt.Errorf("%w: interval %d (%s) is not a positive whole number of milliseconds", ErrInvalidSchedule, i, d)
		}
	}
	if s.Threshold < time.Millisecond || s.Threshold%time.Millisecond != 0 {
		return fmt.Errorf("%w: threshold %s is not a positive whole number of milliseconds", ErrInvalidSchedule, s.Threshold)
	}
	return nil
}

// Interval returns the interval st selects.
func (s Schedule) Interval(st State) time.Duration {
	return s.Intervals[st.Index]
}

// Advance accounts for one expiry of the current interval and reports
// whether the index moved.
func (s Schedule) Advance(st *State) bool {
	st.Elapsed += uint64(s.Intervals[st.Index] / time.Millisecond)
	thr := uint64(s.Threshold / time.Millisecond)
	if st.Elapsed > 0 && st.Elapsed%thr == 0 {
		st.Index = (st.Index + 1) % len(s.Intervals)
		return true
	}
	return false
}
