package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/aidglobe/pkg/model"
	"github.com/vanderheijden86/aidglobe/pkg/session"
	"github.com/vanderheijden86/aidglobe/pkg/store"
	"github.com/vanderheijden86/aidglobe/pkg/testutil"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	gen := testutil.New(testutil.GeneratorConfig{Seed: 5, MinYear: 1997, MaxYear: 2024})
	s := store.New(gen.Incidents(400), store.Options{})
	env := session.DefaultEnv()
	m := NewModel(env, session.New(env, s))
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 44})
	return updated.(Model)
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		var updated tea.Model
		updated, cmd = m.Update(msg)
		m = updated.(Model)
	}
	return m, cmd
}

func TestViewShowsChapter(t *testing.T) {
	m := newTestModel(t)
	out := m.View()
	if !strings.Contains(out, m.State().Scene.Title) {
		t.Errorf("view missing chapter title %q", m.State().Scene.Title)
	}
	if !strings.Contains(out, "incidents") {
		t.Error("view missing incident count")
	}
}

func TestChapterNavigationKeys(t *testing.T) {
	m := newTestModel(t)
	m, _ = press(t, m, "n")
	if got := m.State().Chapter.Index(); got != 1 {
		t.Fatalf("after n: chapter %d, want 1", got)
	}
	m, _ = press(t, m, "p", "p")
	if got := m.State().Chapter.Index(); got != 0 {
		t.Errorf("after p p: chapter %d, want 0", got)
	}
}

func TestOrgKeys(t *testing.T) {
	m := newTestModel(t)
	m, _ = press(t, m, "1")
	if m.State().Filter.Orgs.Has(model.OrgUN) {
		t.Error("1 should toggle UN off")
	}
	m, _ = press(t, m, "0")
	if !m.State().Filter.Orgs.IsEmpty() || m.State().View.Len() != 0 {
		t.Errorf("0 should clear orgs, view has %d", m.State().View.Len())
	}
	m, _ = press(t, m, "a")
	if m.State().Filter.Orgs != model.AllOrgs {
		t.Error("a should select all orgs")
	}
}

func TestColorModeCycle(t *testing.T) {
	m := newTestModel(t)
	start := m.State().Filter.ColorMode
	seen := map[model.ColorMode]bool{start: true}
	for range colorModes {
		m, _ = press(t, m, "m")
		seen[m.State().Filter.ColorMode] = true
	}
	if len(seen) != len(colorModes) || m.State().Filter.ColorMode != start {
		t.Errorf("cycle visited %d modes, ended on %s", len(seen), m.State().Filter.ColorMode)
	}
}

func TestSectionKeys(t *testing.T) {
	m := newTestModel(t)
	had := m.State().Sections.Has(model.SectionCountry)
	m, _ = press(t, m, "!")
	if m.State().Sections.Has(model.SectionCountry) == had {
		t.Error("! should toggle the country section")
	}
}

func TestPlaybackTicks(t *testing.T) {
	m := newTestModel(t)
	m, _ = press(t, m, "n") // rising: timeline chapter
	if !m.State().Scene.Timeline.Visible {
		t.Fatal("expected a timeline chapter")
	}
	m, cmd := press(t, m, " ")
	if !m.State().Playback.Playing || cmd == nil {
		t.Fatal("space should start playback and arm a tick")
	}
	gen := m.State().Playback.Generation
	year := m.State().Playback.Year

	updated, _ := m.Update(playTickMsg{Gen: gen})
	m = updated.(Model)
	if m.State().Playback.Year != year+1 {
		t.Fatalf("tick advanced to %d, want %d", m.State().Playback.Year, year+1)
	}

	updated, _ = m.Update(playTickMsg{Gen: gen - 1})
	m = updated.(Model)
	if m.State().Playback.Year != year+1 {
		t.Error("stale tick should be ignored")
	}

	m, _ = press(t, m, " ")
	if m.State().Playback.Playing {
		t.Error("space should pause")
	}
	updated, _ = m.Update(playTickMsg{Gen: gen})
	m = updated.(Model)
	if m.State().Playback.Year != year+1 {
		t.Error("tick after pause should be ignored")
	}
}

func TestPlayWithoutTimeline(t *testing.T) {
	m := newTestModel(t)
	m, cmd := press(t, m, " ")
	if cmd != nil || m.State().Playback.Playing {
		t.Error("intro has no timeline; play should be refused")
	}
	if msg, _ := m.Status(); msg == "" {
		t.Error("expected a status explaining the refusal")
	}
}

func TestCursorHover(t *testing.T) {
	m := newTestModel(t)
	m, _ = press(t, m, "l")
	if m.cursor == nil || m.State().Hover == nil {
		t.Fatal("moving the cursor should hover")
	}
	want := m.worldMap.CellUV(*m.cursor)
	testutil.AssertNear(t, "u", m.State().Hover.U, want.U, 1e-12)
	testutil.AssertNear(t, "v", m.State().Hover.V, want.V, 1e-12)

	m, _ = press(t, m, "esc")
	if m.cursor != nil || m.State().Hover != nil {
		t.Error("esc should clear the hover")
	}
}

func TestMouseHover(t *testing.T) {
	m := newTestModel(t)
	updated, _ := m.Update(tea.MouseMsg{X: 5, Y: HeaderHeight + 3, Action: tea.MouseActionMotion})
	m = updated.(Model)
	if m.cursor == nil || *m.cursor != (Cell{Col: 5, Row: 3}) {
		t.Fatalf("cursor = %v", m.cursor)
	}
	if m.State().Hover == nil {
		t.Error("mouse motion should hover")
	}

	updated, _ = m.Update(tea.MouseMsg{X: m.worldMap.Width + 5, Y: HeaderHeight + 3, Action: tea.MouseActionMotion})
	if updated.(Model).cursor == nil || *updated.(Model).cursor != (Cell{Col: 5, Row: 3}) {
		t.Error("motion outside the map should be ignored")
	}
}

func TestRadiusKeys(t *testing.T) {
	m := newTestModel(t)
	r := m.State().Radius
	m, _ = press(t, m, "+")
	testutil.AssertNear(t, "radius", m.State().Radius, r*radiusStep, 1e-12)
	m, _ = press(t, m, "-")
	testutil.AssertNear(t, "radius", m.State().Radius, r, 1e-12)
}

func TestYearInput(t *testing.T) {
	m := newTestModel(t)
	m, _ = press(t, m, "y")
	if !m.editingYears {
		t.Fatal("y should open the year prompt")
	}
	m.yearInput.SetValue("2001-2003")
	m, _ = press(t, m, "enter")
	f := m.State().Filter
	if m.editingYears || f.MinYear != 2001 || f.MaxYear != 2003 {
		t.Errorf("filter years = %d-%d", f.MinYear, f.MaxYear)
	}

	m, _ = press(t, m, "y")
	m.yearInput.SetValue("soon")
	m, _ = press(t, m, "enter")
	if _, isErr := m.Status(); !isErr {
		t.Error("bad year range should set an error status")
	}
}

func TestParseYearRange(t *testing.T) {
	tests := []struct {
		in       string
		min, max int
		wantErr  bool
	}{
		{"2001-2010", 2001, 2010, false},
		{"2001 2010", 2001, 2010, false},
		{"2005", 2005, 2005, false},
		{"2010-2001", 2010, 2001, false},
		{"", 0, 0, true},
		{"abc", 0, 0, true},
		{"1-2-3", 0, 0, true},
	}
	for _, tt := range tests {
		lo, hi, err := ParseYearRange(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseYearRange(%q) error = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && (lo != tt.min || hi != tt.max) {
			t.Errorf("ParseYearRange(%q) = %d,%d", tt.in, lo, hi)
		}
	}
}

func TestChapterPicker(t *testing.T) {
	m := newTestModel(t)
	m, _ = press(t, m, "c")
	if !m.showChapter {
		t.Fatal("c should open the chapter picker")
	}
	m, _ = press(t, m, "down", "down", "enter")
	if m.showChapter {
		t.Error("enter should close the picker")
	}
	if got := m.State().Chapter.Index(); got != 2 {
		t.Errorf("picker jumped to %d, want 2", got)
	}
}

func TestReloadMessage(t *testing.T) {
	m := newTestModel(t)
	incidents := m.State().Store.RecordValues()[:100]
	updated, _ := m.Update(reloadedMsg{Incidents: incidents, Path: "data.csv"})
	m = updated.(Model)
	if m.State().Store.Len() != 100 {
		t.Errorf("store has %d records after reload", m.State().Store.Len())
	}
	msg, isErr := m.Status()
	if isErr || !strings.Contains(msg, "Reloaded") || !strings.Contains(msg, "400 → 100") {
		t.Errorf("status = %q", msg)
	}
}

func TestReloadReportsSkippedRows(t *testing.T) {
	m := newTestModel(t)
	incidents := m.State().Store.RecordValues()[:10]
	incidents = append(incidents, model.Incident{ID: "nowhere", Year: 2005, YearOK: true})
	updated, _ := m.Update(reloadedMsg{Incidents: incidents, Path: "data.csv"})
	m = updated.(Model)
	if m.State().Store.Len() != 10 {
		t.Errorf("store has %d records after reload", m.State().Store.Len())
	}
	if msg, _ := m.Status(); !strings.Contains(msg, "1 without coordinates skipped") {
		t.Errorf("status = %q", msg)
	}
}

func TestReloadError(t *testing.T) {
	m := newTestModel(t)
	before := m.State().Store
	updated, _ := m.Update(reloadedMsg{Err: errTest("boom")})
	m = updated.(Model)
	if m.State().Store != before {
		t.Error("failed reload must keep the previous store")
	}
	if msg, isErr := m.Status(); !isErr || !strings.Contains(msg, "boom") {
		t.Errorf("status = %q", msg)
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }

func TestIdleModel(t *testing.T) {
	env := session.DefaultEnv()
	m := NewModel(env, session.New(env, nil))
	if !strings.Contains(m.View(), "Loading incidents") {
		t.Error("idle model should show the loading screen")
	}
	m, _ = press(t, m, "n", "1")
	if m.State().Loaded() {
		t.Fatal("keys must not load anything")
	}
	updated, _ := m.Update(reloadedMsg{Incidents: testutil.QuickIncidents(30)})
	m = updated.(Model)
	if !m.State().Loaded() || m.State().View.Len() == 0 {
		t.Error("first reload should enter chapter 0")
	}
}

func TestSpinTicks(t *testing.T) {
	m := newTestModel(t)
	m.rotationIdx = 2
	cmd := m.armSpin()
	if cmd == nil {
		t.Fatal("expected spin loop")
	}
	center := m.worldMap.CenterLon
	updated, next := m.Update(spinTickMsg{Gen: m.spinGen})
	m = updated.(Model)
	if m.worldMap.CenterLon == center || next == nil {
		t.Error("spin tick should rotate and re-arm")
	}
	stale := m.worldMap.CenterLon
	updated, next = m.Update(spinTickMsg{Gen: m.spinGen - 1})
	if updated.(Model).worldMap.CenterLon != stale || next != nil {
		t.Error("stale spin tick should be ignored")
	}
}

func TestExportKey(t *testing.T) {
	m := newTestModel(t)
	m.exportCfg.OutputDir = t.TempDir()
	m.exportCfg.Formats = []string{"json"}
	m, cmd := press(t, m, "e")
	if cmd == nil {
		t.Fatal("e should start an export")
	}
	updated, _ := m.Update(cmd())
	m = updated.(Model)
	if msg, isErr := m.Status(); isErr || !strings.Contains(msg, "Exported 1 files") {
		t.Errorf("status = %q", msg)
	}
}

func TestHelpOverlay(t *testing.T) {
	m := newTestModel(t)
	m, _ = press(t, m, "?")
	if !m.showHelp || !strings.Contains(m.View(), "Keyboard shortcuts") {
		t.Fatal("? should show help")
	}
	m, _ = press(t, m, "x")
	if m.showHelp {
		t.Error("any key should close help")
	}
}

func TestQuit(t *testing.T) {
	m := newTestModel(t)
	_, cmd := press(t, m, "q")
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}
