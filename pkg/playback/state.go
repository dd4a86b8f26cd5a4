// Package playback advances a "current year" over a chapter's timeline.
//
// State is a pure value: every operation returns a new State. Each Start
// bumps Generation, and ticks carry the generation they were armed with, so
// a tick from a superseded timer is ignored instead of double-advancing.
package playback

// DefaultMinYear and DefaultMaxYear bound the stock timeline.
const (
	DefaultMinYear = 1997
	DefaultMaxYear = 2024
)

// State is the playback position.
type State struct {
	Min        int    `json:"min"`
	Max        int    `json:"max"`
	Year       int    `json:"year"`
	Playing    bool   `json:"playing"`
	Generation uint64 `json:"generation"`
}

// New returns a paused state at year, clamped into [min, max]. A reversed
// range is swapped.
func New(min, max, year int) State {
	if min > max {
		min, max = max, min
	}
	s := State{Min: min, Max: max}
	s.Year = s.clamp(year)
	return s
}

func (s State) clamp(y int) int {
	if y < s.Min {
		return s.Min
	}
	if y > s.Max {
		return s.Max
	}
	return y
}

// Start arms playback. Starting while already playing re-arms: the
// generation moves on and ticks from the previous arming become stale.
func (s State) Start() State {
	s.Playing = true
	s.Generation++
	return s
}

// Stop pauses. Stopping a paused state returns it unchanged.
func (s State) Stop() State {
	if !s.Playing {
		return s
	}
	s.Playing = false
	s.Generation++
	return s
}

// Tick advances one year for a tick armed at gen. Stale or paused ticks
// return s and false. Reaching Max halts playback.
func (s State) Tick(gen uint64) (State, bool) {
	if !s.Playing || gen != s.Generation {
		return s, false
	}
	s.Year = s.clamp(s.Year + 1)
	if s.Year >= s.Max {
		s.Playing = false
		s.Generation++
	}
	return s, true
}

// ScrubTo jumps to year, clamped to [Min, Max], without touching play state.
func (s State) ScrubTo(year int) State {
	s.Year = s.clamp(year)
	return s
}

// Range is the year window the filter should show: the accumulation from
// Min up to the current year.
func (s State) Range() (min, max int) {
	return s.Min, s.Year
}

// AtEnd reports whether the current year is the last one.
func (s State) AtEnd() bool { return s.Year >= s.Max }
