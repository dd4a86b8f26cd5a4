package session

import (
	"reflect"
	"testing"

	"github.com/vanderheijden86/aidglobe/pkg/metrics"
	"github.com/vanderheijden86/aidglobe/pkg/model"
	"github.com/vanderheijden86/aidglobe/pkg/proximity"
	"github.com/vanderheijden86/aidglobe/pkg/store"
	"github.com/vanderheijden86/aidglobe/pkg/testutil"
)

func fixture(t *testing.T) (Env, State) {
	t.Helper()
	gen := testutil.New(testutil.GeneratorConfig{Seed: 3, MinYear: 1997, MaxYear: 2024})
	s := store.New(gen.Incidents(300), store.Options{})
	env := DefaultEnv()
	return env, New(env, s)
}

func TestIdleSessionIgnoresActions(t *testing.T) {
	env := DefaultEnv()
	idle := New(env, nil)
	actions := []Action{
		Advance{}, Retreat{}, Jump{Index: 2}, Play{}, Pause{}, Tick{Generation: 1}, Scrub{Year: 2000},
		ToggleOrg{Org: model.OrgUN}, SetYearRange{Min: 1, Max: 2}, ToggleSection{Section: model.SectionGender},
		Hover{UV: &model.UVPoint{U: 0.5, V: 0.5}}, SetRadius{Radius: 0.05}, SelectAllOrgs{}, ClearOrgs{},
		Reload{Store: nil},
	}
	for _, a := range actions {
		if got := Reduce(env, idle, a); !reflect.DeepEqual(got, idle) {
			t.Errorf("%T changed an idle session", a)
		}
	}
}

func TestReloadInitializes(t *testing.T) {
	env := DefaultEnv()
	idle := New(env, nil)
	s := store.New(testutil.QuickIncidents(50), store.Options{})
	st := Reduce(env, idle, Reload{Store: s})
	if !st.Loaded() || st.View.Len() == 0 {
		t.Fatalf("reload did not build a view: %d records", st.View.Len())
	}
	if st.Chapter.Index() != 0 || st.Scene.ID != env.Chapters[0].ID {
		t.Errorf("reload entered %q", st.Scene.ID)
	}
}

func TestRetreatAtStartIsNoop(t *testing.T) {
	env, st := fixture(t)
	if got := Reduce(env, st, Retreat{}); !reflect.DeepEqual(got, st) {
		t.Error("retreat at chapter 0 changed state")
	}
}

func TestAdvanceAtEndIsNoop(t *testing.T) {
	env, st := fixture(t)
	for st.Chapter.CanAdvance() {
		st = Reduce(env, st, Advance{})
	}
	if got := Reduce(env, st, Advance{}); !reflect.DeepEqual(got, st) {
		t.Error("advance at last chapter changed state")
	}
	if !st.Panels().Heatmap || len(st.Cells) == 0 || st.Heat.Len() != len(st.Cells) {
		t.Errorf("last chapter should show the heatmap: %d cells", len(st.Cells))
	}
}

func TestChapterReentryReproducesState(t *testing.T) {
	env, st := fixture(t)
	first := Reduce(env, st, Advance{})
	again := Reduce(env, Reduce(env, first, Retreat{}), Advance{})

	if !reflect.DeepEqual(first.Filter, again.Filter) || !reflect.DeepEqual(first.Scene, again.Scene) {
		t.Error("re-entering chapter 1 produced a different scene")
	}
	if !reflect.DeepEqual(first.View, again.View) {
		t.Error("re-entering chapter 1 produced a different view")
	}
}

func TestPlaybackAccumulates(t *testing.T) {
	env, st := fixture(t)
	st = Reduce(env, st, Advance{}) // timeline chapter
	if !st.Panels().Timeline {
		t.Fatal("chapter 1 should show the timeline")
	}
	st = Reduce(env, st, Play{})
	gen := st.Playback.Generation
	prev := st.View.Len()
	for st.Playback.Playing {
		st = Reduce(env, st, Tick{Generation: gen})
		if st.View.Len() < prev {
			t.Fatalf("view shrank from %d to %d at %d", prev, st.View.Len(), st.Playback.Year)
		}
		prev = st.View.Len()
		if st.Filter.MinYear != 1997 || st.Filter.MaxYear != st.Playback.Year {
			t.Fatalf("filter %d..%d at year %d", st.Filter.MinYear, st.Filter.MaxYear, st.Playback.Year)
		}
	}
	if st.Playback.Year != 2024 {
		t.Errorf("playback stopped at %d", st.Playback.Year)
	}
	if got := Reduce(env, st, Tick{Generation: gen}); !reflect.DeepEqual(got, st) {
		t.Error("tick after halt changed state")
	}
}

func TestStaleTickAfterChapterChange(t *testing.T) {
	env, st := fixture(t)
	st = Reduce(env, Reduce(env, st, Advance{}), Play{})
	stale := st.Playback.Generation
	st = Reduce(env, Reduce(env, st, Advance{}), Retreat{})
	st = Reduce(env, st, Play{})
	before := st.Playback.Year
	st = Reduce(env, st, Tick{Generation: stale})
	if st.Playback.Year != before {
		t.Error("stale tick advanced playback")
	}
}

func TestScrubClamps(t *testing.T) {
	env, st := fixture(t)
	if got := Reduce(env, st, Scrub{Year: 2010}); !reflect.DeepEqual(got, st) {
		t.Error("scrub without a timeline should be a no-op")
	}
	st = Reduce(env, st, Advance{})
	st = Reduce(env, st, Scrub{Year: 3000})
	if st.Playback.Year != 2024 || st.Filter.MaxYear != 2024 {
		t.Errorf("scrub = %d, filter max %d", st.Playback.Year, st.Filter.MaxYear)
	}
	st = Reduce(env, st, Scrub{Year: 1})
	if st.Playback.Year != 1997 {
		t.Errorf("scrub low = %d", st.Playback.Year)
	}
}

func TestOrgActions(t *testing.T) {
	env, st := fixture(t)
	cleared := Reduce(env, st, ClearOrgs{})
	if cleared.View.Len() != 0 || !cleared.Filter.Orgs.IsEmpty() {
		t.Errorf("cleared view has %d records", cleared.View.Len())
	}
	one := Reduce(env, cleared, ToggleOrg{Org: model.OrgUN})
	for _, r := range one.View.Records {
		if !r.Involves(model.OrgUN) {
			t.Fatalf("record %s does not involve UN", r.ID)
		}
	}
	all := Reduce(env, one, SelectAllOrgs{})
	if all.View.Len() != st.View.Len() {
		t.Errorf("select all = %d records, want %d", all.View.Len(), st.View.Len())
	}
	if got := Reduce(env, st, ToggleOrg{Org: model.Organization(42)}); !reflect.DeepEqual(got, st) {
		t.Error("invalid org changed state")
	}
}

func TestInvertedYearRange(t *testing.T) {
	env, st := fixture(t)
	st = Reduce(env, st, SetYearRange{Min: 2010, Max: 2000})
	if st.View.Len() != 0 || st.Filter.MinYear != 2010 {
		t.Errorf("inverted range: %d records, filter %+v", st.View.Len(), st.Filter)
	}
}

func TestHoverAndTooltip(t *testing.T) {
	env, st := fixture(t)
	uv := st.View.UV(0)
	st = Reduce(env, st, Hover{UV: &uv})
	if !contains(st.HoverIndices, 0) {
		t.Fatalf("hover at record 0 found %v", st.HoverIndices)
	}
	if st.Tooltip.Total != len(st.HoverIndices) {
		t.Errorf("tooltip total %d, indices %d", st.Tooltip.Total, len(st.HoverIndices))
	}

	wide := Reduce(env, st, SetRadius{Radius: 1})
	if wide.Radius != proximity.MaxRadius || len(wide.HoverIndices) < len(st.HoverIndices) {
		t.Errorf("radius %v gave %d hits", wide.Radius, len(wide.HoverIndices))
	}

	toggled := Reduce(env, st, ToggleSection{Section: model.SectionCountry})
	if toggled.Sections.Has(model.SectionCountry) || toggled.Tooltip.Countries != nil {
		t.Error("country section still shown after toggle")
	}

	off := Reduce(env, st, Hover{})
	if off.Hover != nil || off.HoverIndices != nil || off.Tooltip.Total != 0 {
		t.Error("clearing hover left results behind")
	}
}

func TestHoverFollowsRebuild(t *testing.T) {
	env, st := fixture(t)
	uv := st.View.UV(0)
	st = Reduce(env, st, Hover{UV: &uv})
	st = Reduce(env, st, ClearOrgs{})
	if len(st.HoverIndices) != 0 || st.Tooltip.Total != 0 {
		t.Error("hover results survived an emptying rebuild")
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	env, st := fixture(t)
	view := st.View
	n := view.Len()
	_ = Reduce(env, st, ClearOrgs{})
	if st.View != view || view.Len() != n {
		t.Error("reduce mutated the previous view")
	}
}

func contains(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func TestJump(t *testing.T) {
	env, st := fixture(t)
	last := len(env.Chapters) - 1
	got := Reduce(env, st, Jump{Index: last})
	if got.Chapter.Index() != last || got.Scene.ID != env.Chapters[last].ID {
		t.Fatalf("jump landed on %d (%s)", got.Chapter.Index(), got.Scene.ID)
	}
	if got.Playback.Generation <= st.Playback.Generation {
		t.Error("jump should supersede pending ticks")
	}
	for _, idx := range []int{-1, len(env.Chapters), 0} {
		if again := Reduce(env, st, Jump{Index: idx}); !reflect.DeepEqual(again, st) {
			t.Errorf("Jump{%d} changed state", idx)
		}
	}
}

func TestReloadCountsMetric(t *testing.T) {
	env, st := fixture(t)
	before := metrics.Reloads.Value()
	st = Reduce(env, st, Reload{Store: store.New(testutil.QuickIncidents(20), store.Options{})})
	if metrics.Reloads.Value() != before+1 {
		t.Errorf("reloads = %d, want %d", metrics.Reloads.Value(), before+1)
	}
	if st.Chapter.Index() != 0 {
		t.Error("reload should keep the current chapter")
	}
}

func TestHoverRebuildsSearcherWithEnvThreshold(t *testing.T) {
	gen := testutil.New(testutil.GeneratorConfig{Seed: 3, MinYear: 1997, MaxYear: 2024})
	s := store.New(gen.Incidents(300), store.Options{})
	hover := Hover{UV: &model.UVPoint{U: 0.5, V: 0.5}}

	for _, threshold := range []int{1, 1 << 30} {
		env := DefaultEnv()
		env.IndexThreshold = threshold
		st := New(env, s)
		st.searcher = nil
		st = Reduce(env, st, hover)
		if st.searcher == nil {
			t.Fatalf("threshold %d: hover left no searcher", threshold)
		}
		if want := st.View.Len() >= threshold; st.searcher.Indexed() != want {
			t.Errorf("threshold %d: indexed = %v, want %v", threshold, st.searcher.Indexed(), want)
		}
	}
}
