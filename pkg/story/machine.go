package story

import (
	"github.com/vanderheijden86/aidglobe/pkg/geo"
	"github.com/vanderheijden86/aidglobe/pkg/metrics"
	"github.com/vanderheijden86/aidglobe/pkg/model"
	"github.com/vanderheijden86/aidglobe/pkg/store"
)

// DefaultCameraDistance is how far from the globe center the camera sits.
const DefaultCameraDistance = 3.5

// Machine is the chapter cursor. It is a value: transitions return a new
// Machine and never modify the receiver.
type Machine struct {
	chapters []model.ChapterSpec
	index    int
}

// NewMachine starts at chapter 0.
func NewMachine(chapters []model.ChapterSpec) Machine {
	return Machine{chapters: chapters}
}

// Len returns the number of chapters.
func (m Machine) Len() int { return len(m.chapters) }

// Index returns the current chapter index.
func (m Machine) Index() int { return m.index }

// Chapters returns the chapter list.
func (m Machine) Chapters() []model.ChapterSpec { return m.chapters }

// Current returns the active chapter. ok is false when there are none.
func (m Machine) Current() (model.ChapterSpec, bool) {
	if len(m.chapters) == 0 {
		return model.ChapterSpec{}, false
	}
	return m.chapters[m.index], true
}

// CanAdvance reports whether Next would move.
func (m Machine) CanAdvance() bool { return m.index < len(m.chapters)-1 }

// CanRetreat reports whether Previous would move.
func (m Machine) CanRetreat() bool { return m.index > 0 }

// Next moves forward one chapter. At the last chapter it returns m
// unchanged and false.
func (m Machine) Next() (Machine, bool) {
	return m.Goto(m.index + 1)
}

// Previous moves back one chapter. At chapter 0 it returns m unchanged and
// false.
func (m Machine) Previous() (Machine, bool) {
	return m.Goto(m.index - 1)
}

// Goto jumps to chapter i; out-of-range targets are a no-op.
func (m Machine) Goto(i int) (Machine, bool) {
	if i < 0 || i >= len(m.chapters) || i == m.index {
		return m, false
	}
	m.index = i
	return m, true
}

// TimelineScene is the resolved playback configuration of a chapter.
type TimelineScene struct {
	Visible bool `json:"visible"`
	Min     int  `json:"min"`
	Max     int  `json:"max"`
	Start   int  `json:"start"`
}

// Scene is everything a chapter's entry sets, resolved against a dataset.
type Scene struct {
	Index      int               `json:"index"`
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Narrative  string            `json:"narrative"`
	Filter     model.FilterState `json:"filter"`
	Layer      model.Layer       `json:"layer"`
	Camera     geo.Framing       `json:"camera"`
	Focus      *model.LatLon     `json:"focus,omitempty"`
	Sections   model.SectionSet  `json:"-"`
	Timeline   TimelineScene     `json:"timeline"`
	Rotation   float64           `json:"rotation"`
	CanAdvance bool              `json:"can_advance"`
	CanRetreat bool              `json:"can_retreat"`
}

// CameraFor frames lat/lon from distance. A nil target resets to the
// default view looking down -Z.
func CameraFor(target *model.LatLon, distance float64) geo.Framing {
	if distance <= 0 {
		distance = DefaultCameraDistance
	}
	if target == nil {
		return geo.Framing{Camera: model.GeoPoint{Z: distance}}
	}
	return geo.FrameLatLon(*target, distance)
}

// Enter resolves the current chapter against s. It reads nothing but its
// arguments, so entering the same chapter with the same store always yields
// the same Scene. Zero years fall back to the store's bounds.
func (m Machine) Enter(s *store.Store) Scene {
	defer metrics.Timer(metrics.ChapterEnter)()

	ch, ok := m.Current()
	if !ok {
		return Scene{}
	}
	lo, hi, _ := s.YearBounds()
	minYear := orYear(ch.Years.Min, lo)
	maxYear := orYear(ch.Years.Max, hi)

	tl := TimelineScene{Visible: ch.Timeline.Visible}
	if tl.Visible {
		tl.Min = orYear(ch.Timeline.Min, minYear)
		tl.Max = orYear(ch.Timeline.Max, maxYear)
		tl.Start = clampYear(orYear(ch.Timeline.Start, tl.Min), tl.Min, tl.Max)
		// Playback accumulates from the timeline floor to the current year.
		minYear, maxYear = tl.Min, tl.Start
	}

	return Scene{
		Index:     m.index,
		ID:        ch.ID,
		Title:     ch.Title,
		Narrative: ch.Narrative,
		Filter: model.FilterState{
			MinYear:   minYear,
			MaxYear:   maxYear,
			Orgs:      ch.Orgs,
			ColorMode: ch.ColorMode,
		},
		Layer:      ch.Layer,
		Camera:     CameraFor(ch.Camera, DefaultCameraDistance),
		Focus:      ch.Camera,
		Sections:   ch.Sections,
		Timeline:   tl,
		Rotation:   ch.Rotation,
		CanAdvance: m.CanAdvance(),
		CanRetreat: m.CanRetreat(),
	}
}

func orYear(y, fallback int) int {
	if y == 0 {
		return fallback
	}
	return y
}

func clampYear(y, lo, hi int) int {
	if y < lo {
		return lo
	}
	if y > hi {
		return hi
	}
	return y
}
