// Package session owns the explorer's mutable state. State is a value and
// Reduce is a pure function of (env, state, action): the UI, the playback
// timer and the file watcher all feed actions through it, and each action
// that changes the filter rebuilds the view whole.
package session

import (
	"github.com/vanderheijden86/aidglobe/pkg/debug"
	"github.com/vanderheijden86/aidglobe/pkg/filter"
	"github.com/vanderheijden86/aidglobe/pkg/heatmap"
	"github.com/vanderheijden86/aidglobe/pkg/metrics"
	"github.com/vanderheijden86/aidglobe/pkg/model"
	"github.com/vanderheijden86/aidglobe/pkg/playback"
	"github.com/vanderheijden86/aidglobe/pkg/proximity"
	"github.com/vanderheijden86/aidglobe/pkg/store"
	"github.com/vanderheijden86/aidglobe/pkg/story"
	"github.com/vanderheijden86/aidglobe/pkg/summary"
)

// Env is the fixed configuration a session runs under.
type Env struct {
	Chapters       []model.ChapterSpec
	Palette        filter.Palette
	Heatmap        heatmap.Options
	IndexThreshold int
	// Radius is the initial hover radius.
	Radius float64
}

// DefaultEnv returns the stock environment with the built-in chapters.
func DefaultEnv() Env {
	return Env{
		Chapters:       story.DefaultChapters(),
		Palette:        filter.DefaultPalette(),
		Heatmap:        heatmap.Options{CellSize: heatmap.DefaultCellSize, Scale: heatmap.DefaultScale()},
		IndexThreshold: proximity.DefaultIndexThreshold,
		Radius:         proximity.DefaultRadius,
	}
}

// State is one immutable snapshot of the session.
type State struct {
	Store    *store.Store
	Chapter  story.Machine
	Scene    story.Scene
	Filter   model.FilterState
	Layer    model.Layer
	Sections model.SectionSet
	Playback playback.State
	Radius   float64

	// Hover is the pointer UV; nil when the pointer is off the globe.
	Hover        *model.UVPoint
	HoverIndices []int
	Tooltip      summary.Summary

	View  *model.FilteredView
	Cells []model.GridCell
	Heat  heatmap.Layer

	searcher *proximity.Searcher
}

// New starts a session at chapter 0. A nil store yields an idle session
// that ignores everything but Reload.
func New(env Env, s *store.Store) State {
	st := State{
		Chapter: story.NewMachine(env.Chapters),
		Radius:  proximity.ClampRadius(orDefault(env.Radius, proximity.DefaultRadius)),
	}
	if s == nil {
		return st
	}
	st.Store = s
	return enter(env, st)
}

func orDefault(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}

// Loaded reports whether a store is present.
func (s State) Loaded() bool { return s.Store != nil }

// Reduce applies a to s and returns the new state. Unknown actions, and
// every action before a store is loaded except Reload, return s unchanged.
func Reduce(env Env, s State, a Action) State {
	if r, ok := a.(Reload); ok {
		return reload(env, s, r.Store)
	}
	if s.Store == nil {
		return s
	}

	switch a := a.(type) {
	case Advance:
		next, moved := s.Chapter.Next()
		if !moved {
			return s
		}
		s.Chapter = next
		return enter(env, s)

	case Retreat:
		prev, moved := s.Chapter.Previous()
		if !moved {
			return s
		}
		s.Chapter = prev
		return enter(env, s)

	case Jump:
		to, moved := s.Chapter.Goto(a.Index)
		if !moved {
			return s
		}
		s.Chapter = to
		return enter(env, s)

	case Play:
		if !s.Scene.Timeline.Visible {
			return s
		}
		s.Playback = s.Playback.Start()
		return s

	case Pause:
		s.Playback = s.Playback.Stop()
		return s

	case Tick:
		next, ok := s.Playback.Tick(a.Generation)
		if !ok {
			return s
		}
		s.Playback = next
		s.Filter.MinYear, s.Filter.MaxYear = next.Range()
		return rebuild(env, s)

	case Scrub:
		if !s.Scene.Timeline.Visible {
			return s
		}
		s.Playback = s.Playback.ScrubTo(a.Year)
		s.Filter.MinYear, s.Filter.MaxYear = s.Playback.Range()
		return rebuild(env, s)

	case ToggleOrg:
		if !a.Org.IsValid() {
			return s
		}
		s.Filter.Orgs = s.Filter.Orgs.Toggle(a.Org)
		return rebuild(env, s)

	case SelectAllOrgs:
		s.Filter.Orgs = model.AllOrgs
		return rebuild(env, s)

	case ClearOrgs:
		s.Filter.Orgs = 0
		return rebuild(env, s)

	case SetYearRange:
		s.Filter.MinYear, s.Filter.MaxYear = a.Min, a.Max
		s.Playback = s.Playback.Stop()
		return rebuild(env, s)

	case SetColorMode:
		s.Filter.ColorMode = a.Mode
		return rebuild(env, s)

	case ToggleSection:
		s.Sections = s.Sections.Toggle(a.Section)
		return refreshHover(env, s)

	case Hover:
		if a.UV == nil {
			s.Hover = nil
		} else {
			uv := *a.UV
			s.Hover = &uv
		}
		return refreshHover(env, s)

	case SetRadius:
		s.Radius = proximity.ClampRadius(a.Radius)
		return refreshHover(env, s)
	}
	return s
}

func reload(env Env, s State, st *store.Store) State {
	if st == nil {
		return s
	}
	first := s.Store == nil
	s.Store = st
	debug.Log("session: reload with %d records", st.Len())
	debug.LogIf(st.Len() == 0, "session: reloaded dataset has no placeable records")
	if first {
		return enter(env, s)
	}
	metrics.Reloads.Inc()
	return rebuild(env, s)
}

// enter applies the current chapter's scene from scratch.
func enter(env Env, s State) State {
	sc := s.Chapter.Enter(s.Store)
	s.Scene = sc
	s.Filter = sc.Filter
	s.Layer = sc.Layer
	s.Sections = sc.Sections

	gen := s.Playback.Generation + 1
	s.Playback = playback.State{Generation: gen}
	if sc.Timeline.Visible {
		s.Playback = playback.New(sc.Timeline.Min, sc.Timeline.Max, sc.Timeline.Start)
		s.Playback.Generation = gen
	}
	debug.Log("session: enter chapter %d (%s)", sc.Index, sc.ID)
	return rebuild(env, s)
}

// rebuild replaces the view, heatmap and searcher from the current filter.
func rebuild(env Env, s State) State {
	s.View = filter.Apply(s.Store, s.Filter, env.Palette)
	s.Cells, s.Heat = nil, heatmap.Layer{}
	if s.Layer == model.LayerHeatmap {
		s.Cells = heatmap.Bin(s.Store.Records(), s.Filter, env.Heatmap)
		s.Heat = heatmap.Buffers(s.Cells, s.Store.SurfaceRadius())
	}
	s.searcher = proximity.NewSearcher(s.View, env.IndexThreshold)
	return refreshHover(env, s)
}

func refreshHover(env Env, s State) State {
	if s.Hover == nil {
		s.HoverIndices = nil
		s.Tooltip = summary.Summarize(s.View, nil, s.Sections)
		return s
	}
	if s.searcher == nil || s.searcher.View() != s.View {
		s.searcher = proximity.NewSearcher(s.View, env.IndexThreshold)
	}
	s.HoverIndices = s.searcher.Query(*s.Hover, s.Radius)
	s.Tooltip = summary.Summarize(s.View, s.HoverIndices, s.Sections)
	return s
}

// Panels is the declarative UI configuration for the current state.
type Panels struct {
	Title      string          `json:"title"`
	Narrative  string          `json:"narrative"`
	Timeline   bool            `json:"timeline"`
	Legend     model.ColorMode `json:"legend"`
	Heatmap    bool            `json:"heatmap"`
	Sections   []model.Section `json:"-"`
	Rotation   float64         `json:"rotation"`
	CanAdvance bool            `json:"can_advance"`
	CanRetreat bool            `json:"can_retreat"`
	Year       int             `json:"year,omitempty"`
	Playing    bool            `json:"playing"`
}

// Panels derives what the UI should show.
func (s State) Panels() Panels {
	p := Panels{
		Title:      s.Scene.Title,
		Narrative:  s.Scene.Narrative,
		Timeline:   s.Scene.Timeline.Visible,
		Legend:     s.Filter.ColorMode,
		Heatmap:    s.Layer == model.LayerHeatmap,
		Sections:   s.Sections.Slice(),
		Rotation:   s.Scene.Rotation,
		CanAdvance: s.Chapter.CanAdvance(),
		CanRetreat: s.Chapter.CanRetreat(),
		Playing:    s.Playback.Playing,
	}
	if p.Timeline {
		p.Year = s.Playback.Year
	}
	return p
}
