// Package ui is the terminal explorer: a flat world map standing in for the
// globe, the chapter narrative, filter controls, the hover tooltip and the
// playback timeline, all driven by session.Reduce.
package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/aidglobe/internal/datasource"
	"github.com/vanderheijden86/aidglobe/pkg/config"
	"github.com/vanderheijden86/aidglobe/pkg/debug"
	"github.com/vanderheijden86/aidglobe/pkg/export"
	"github.com/vanderheijden86/aidglobe/pkg/loader"
	"github.com/vanderheijden86/aidglobe/pkg/metrics"
	"github.com/vanderheijden86/aidglobe/pkg/model"
	"github.com/vanderheijden86/aidglobe/pkg/playback"
	"github.com/vanderheijden86/aidglobe/pkg/session"
	"github.com/vanderheijden86/aidglobe/pkg/store"
	"github.com/vanderheijden86/aidglobe/pkg/watcher"
)

// sectionKeys toggle tooltip sections in model.AllSections order.
var sectionKeys = []string{"!", "@", "#", "$", "%", "^", "&"}

// colorModes is the 'm' cycle order.
var colorModes = []model.ColorMode{
	model.ColorSingle, model.ColorDualDecade, model.ColorByActor,
	model.ColorByOrg, model.ColorByGender, model.ColorHeatmap,
}

// radiusStep scales the hover radius per keypress.
const radiusStep = 1.25

// Model is the bubbletea model of the explorer.
type Model struct {
	env   session.Env
	state session.State
	theme Theme

	width, height int
	ready         bool

	worldMap WorldMap
	cursor   *Cell

	narrative viewport.Model
	md        *glamour.TermRenderer
	mdWidth   int

	yearInput    textinput.Model
	editingYears bool

	picker      ChapterPicker
	showChapter bool
	showHelp    bool

	statusMsg     string
	statusIsError bool

	watcher   *watcher.Watcher
	dataPaths []string
	storeOpts store.Options
	loadOpts  loader.ParseOptions

	interval       time.Duration
	rotationSpeeds []float64
	// rotationIdx selects rotationSpeeds; -1 follows the chapter.
	rotationIdx int
	spinGen     uint64
	spinning    bool
	fixedWidth  int

	exportCfg *export.WizardConfig
}

// NewModel creates the explorer for st. A nil store shows the loading
// screen until a Reload arrives.
func NewModel(env session.Env, st session.State) Model {
	theme := DefaultTheme(lipgloss.DefaultRenderer())

	ti := textinput.New()
	ti.Placeholder = "1997-2024"
	ti.CharLimit = 9
	ti.Width = 12
	ti.Prompt = "years: "

	m := Model{
		env:            env,
		state:          st,
		theme:          theme,
		width:          120,
		height:         40,
		ready:          true,
		narrative:      viewport.New(SidePanelMin, 10),
		yearInput:      ti,
		interval:       playback.DefaultInterval,
		rotationSpeeds: []float64{0, 0.001, 0.003},
		rotationIdx:    -1,
		exportCfg:      export.DefaultWizardConfig(),
		loadOpts:       loader.ParseOptions{WarningHandler: func(string) {}},
	}
	m.centerOnScene()
	m.layout()
	return m
}

// WithConfig applies explorer preferences from cfg.
func (m Model) WithConfig(cfg config.Config) Model {
	if cfg.Playback.Interval > 0 {
		m.interval = cfg.Playback.Interval
	}
	if len(cfg.UI.RotationSpeeds) > 0 {
		m.rotationSpeeds = append([]float64(nil), cfg.UI.RotationSpeeds...)
	}
	m.fixedWidth = cfg.UI.MapWidth
	m.storeOpts = store.Options{SurfaceRadius: cfg.Globe.IncidentRadius}
	if saved, err := export.LoadWizardConfig(); err == nil && saved != nil {
		m.exportCfg = saved
	}
	m.layout()
	return m
}

// WithWatcher reloads paths whenever w reports a change.
func (m Model) WithWatcher(w *watcher.Watcher, paths []string) Model {
	m.watcher = w
	m.dataPaths = append([]string(nil), paths...)
	return m
}

// State returns the current session state.
func (m Model) State() session.State { return m.state }

// Status returns the footer status message.
func (m Model) Status() (string, bool) { return m.statusMsg, m.statusIsError }

func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.watcher != nil {
		cmds = append(cmds, WatchFileCmd(m.watcher))
	}
	if cmd := m.armSpin(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// reduce applies a to the session and re-derives view-local state.
func (m *Model) reduce(a session.Action) {
	prev, wasLoaded := m.state.Chapter.Index(), m.state.Loaded()
	m.state = session.Reduce(m.env, m.state, a)
	if m.state.Chapter.Index() != prev || m.state.Loaded() != wasLoaded {
		m.rotationIdx = -1
		m.centerOnScene()
		m.refreshNarrative()
	}
}

// refreshNarrative renders the chapter text as markdown into the viewport.
func (m *Model) refreshNarrative() {
	width := max(10, m.narrative.Width)
	if m.md == nil || m.mdWidth != width {
		md, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			debug.Log("ui: glamour unavailable: %v", err)
		}
		m.md, m.mdWidth = md, width
	}
	text := strings.TrimSpace(m.state.Scene.Narrative)
	if m.md != nil && text != "" {
		if out, err := m.md.Render(text); err == nil {
			text = strings.Trim(out, "\n")
		}
	}
	m.narrative.SetContent(text)
	m.narrative.GotoTop()
}

func (m *Model) centerOnScene() {
	if f := m.state.Scene.Focus; f != nil {
		m.worldMap.CenterLon = f.Lon
	} else {
		m.worldMap.CenterLon = 0
	}
}

// rotation is the effective idle spin in radians per frame.
func (m Model) rotation() float64 {
	if m.rotationIdx >= 0 && m.rotationIdx < len(m.rotationSpeeds) {
		return m.rotationSpeeds[m.rotationIdx]
	}
	return m.state.Scene.Rotation
}

// armSpin starts a spin loop if rotation is on and none is running.
func (m *Model) armSpin() tea.Cmd {
	if m.rotation() <= 0 || m.cursor != nil || m.spinning {
		return nil
	}
	m.spinGen++
	m.spinning = true
	return spinTickCmd(m.spinGen)
}

func (m *Model) stopSpin() {
	m.spinGen++
	m.spinning = false
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case playTickMsg:
		m.reduce(session.Tick{Generation: msg.Gen})
		if m.state.Playback.Playing && m.state.Playback.Generation == msg.Gen {
			cmds = append(cmds, playTickCmd(m.interval, msg.Gen))
		}
		return m, tea.Batch(cmds...)

	case spinTickMsg:
		if msg.Gen != m.spinGen || !m.spinning {
			return m, nil
		}
		r := m.rotation()
		if r <= 0 || m.cursor != nil {
			m.spinning = false
			return m, nil
		}
		m.worldMap = m.worldMap.Spin(-r * framesPerSpin)
		return m, spinTickCmd(m.spinGen)

	case FileChangedMsg:
		debug.Log("ui: dataset changed: %s", msg.Path)
		m.statusMsg = "Reloading " + msg.Path + "..."
		m.statusIsError = false
		if len(m.dataPaths) > 0 {
			cmds = append(cmds, reloadCmd(m.dataPaths, msg.Path, m.loadOpts))
		}
		if m.watcher != nil {
			cmds = append(cmds, WatchFileCmd(m.watcher))
		}
		return m, tea.Batch(cmds...)

	case reloadedMsg:
		m.applyReload(msg)
		return m, m.armSpin()

	case exportDoneMsg:
		if msg.Err != nil {
			m.statusMsg = fmt.Sprintf("Export failed: %v", msg.Err)
			m.statusIsError = true
		} else {
			m.statusMsg = fmt.Sprintf("Exported %d files to %s", len(msg.Paths), m.exportCfg.OutputDir)
			m.statusIsError = false
		}
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		if m.editingYears {
			return m.handleYearInput(msg)
		}
		if m.showChapter {
			var cmd tea.Cmd
			m.picker, cmd = m.picker.Update(msg)
			if m.picker.Done() {
				m.showChapter = false
				if i := m.picker.Chosen(); i >= 0 {
					m.reduce(session.Jump{Index: i})
					cmds = append(cmds, m.armSpin())
				}
			}
			cmds = append(cmds, cmd)
			return m, tea.Batch(cmds...)
		}
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}
		return m.handleKeys(msg)
	}

	if m.showChapter {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if !m.state.Loaded() && key != "q" && key != "ctrl+c" {
		return m, nil
	}
	m.statusMsg, m.statusIsError = "", false

	switch key {
	case "q", "ctrl+c":
		m.stopSpin()
		return m, tea.Quit

	case "n", "]", "tab":
		m.reduce(session.Advance{})
		return m, m.armSpin()
	case "p", "[", "shift+tab":
		m.reduce(session.Retreat{})
		return m, m.armSpin()
	case "c":
		m.picker = NewChapterPicker(m.env.Chapters, m.state.Chapter.Index(), m.theme)
		m.picker.SetSize(m.width, m.height-FooterHeight)
		m.showChapter = true
		return m, nil

	case " ":
		if m.state.Playback.Playing {
			m.reduce(session.Pause{})
			return m, nil
		}
		if !m.state.Scene.Timeline.Visible {
			m.statusMsg = "No timeline in this chapter"
			return m, nil
		}
		if m.state.Playback.AtEnd() {
			m.reduce(session.Scrub{Year: m.state.Playback.Min})
		}
		m.reduce(session.Play{})
		if m.state.Playback.Playing {
			return m, playTickCmd(m.interval, m.state.Playback.Generation)
		}
		return m, nil
	case ",", "<":
		m.reduce(session.Scrub{Year: m.state.Playback.Year - 1})
	case ".", ">":
		m.reduce(session.Scrub{Year: m.state.Playback.Year + 1})

	case "1", "2", "3", "4", "5", "6":
		n, _ := strconv.Atoi(key)
		m.reduce(session.ToggleOrg{Org: model.Organization(n - 1)})
	case "a":
		m.reduce(session.SelectAllOrgs{})
	case "0":
		m.reduce(session.ClearOrgs{})
	case "y":
		m.editingYears = true
		m.yearInput.SetValue(fmt.Sprintf("%d-%d", m.state.Filter.MinYear, m.state.Filter.MaxYear))
		m.yearInput.CursorEnd()
		return m, m.yearInput.Focus()
	case "m":
		m.reduce(session.SetColorMode{Mode: nextColorMode(m.state.Filter.ColorMode)})

	case "+", "=":
		m.reduce(session.SetRadius{Radius: m.state.Radius * radiusStep})
		m.statusMsg = fmt.Sprintf("Hover radius %.4f", m.state.Radius)
	case "-", "_":
		m.reduce(session.SetRadius{Radius: m.state.Radius / radiusStep})
		m.statusMsg = fmt.Sprintf("Hover radius %.4f", m.state.Radius)

	case "up", "k", "down", "j", "left", "h", "right", "l":
		m.moveCursor(key)
	case "esc":
		m.cursor = nil
		m.reduce(session.Hover{})
		return m, m.armSpin()

	case "r":
		m.rotationIdx = (m.rotationIdx + 1) % max(1, len(m.rotationSpeeds))
		m.statusMsg = fmt.Sprintf("Rotation %.3f rad/frame", m.rotation())
		if m.rotation() <= 0 {
			m.stopSpin()
			return m, nil
		}
		return m, m.armSpin()

	case "J", "pgdown":
		m.narrative.LineDown(3)
	case "K", "pgup":
		m.narrative.LineUp(3)

	case "C":
		m.copyTooltip()
	case "e":
		m.statusMsg = "Exporting..."
		f := export.FrameFromSession(m.env, m.state)
		return m, exportCmd(f, m.exportCfg)
	case "?":
		m.showHelp = true

	default:
		for i, k := range sectionKeys {
			if key == k {
				m.reduce(session.ToggleSection{Section: model.AllSections[i]})
				break
			}
		}
	}
	return m, nil
}

func nextColorMode(cur model.ColorMode) model.ColorMode {
	for i, c := range colorModes {
		if c == cur {
			return colorModes[(i+1)%len(colorModes)]
		}
	}
	return colorModes[0]
}

func (m *Model) moveCursor(key string) {
	if m.cursor == nil {
		m.cursor = &Cell{Col: m.worldMap.Width / 2, Row: m.worldMap.Height / 2}
		m.stopSpin()
	} else {
		c := *m.cursor
		switch key {
		case "up", "k":
			c.Row--
		case "down", "j":
			c.Row++
		case "left", "h":
			c.Col--
		case "right", "l":
			c.Col++
		}
		c.Col = (c.Col + m.worldMap.Width) % m.worldMap.Width
		if c.Row < 0 {
			c.Row = 0
		}
		if c.Row >= m.worldMap.Height {
			c.Row = m.worldMap.Height - 1
		}
		m.cursor = &c
	}
	m.hoverCursor()
}

func (m *Model) hoverCursor() {
	if m.cursor == nil {
		m.reduce(session.Hover{})
		return
	}
	uv := m.worldMap.CellUV(*m.cursor)
	m.reduce(session.Hover{UV: &uv})
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !m.state.Loaded() || m.showChapter || m.showHelp {
		return m, nil
	}
	c := Cell{Col: msg.X, Row: msg.Y - HeaderHeight}
	if !m.worldMap.Contains(c) {
		return m, nil
	}
	switch msg.Action {
	case tea.MouseActionMotion, tea.MouseActionPress:
		if m.cursor == nil {
			m.stopSpin()
		}
		m.cursor = &c
		m.hoverCursor()
	}
	return m, nil
}

func (m Model) handleYearInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editingYears = false
		m.yearInput.Blur()
		return m, nil
	case "enter":
		m.editingYears = false
		m.yearInput.Blur()
		lo, hi, err := ParseYearRange(m.yearInput.Value())
		if err != nil {
			m.statusMsg = err.Error()
			m.statusIsError = true
			return m, nil
		}
		m.reduce(session.SetYearRange{Min: lo, Max: hi})
		m.statusMsg = fmt.Sprintf("Years %d-%d", lo, hi)
		return m, nil
	}
	var cmd tea.Cmd
	m.yearInput, cmd = m.yearInput.Update(msg)
	return m, cmd
}

// ParseYearRange accepts "2001", "2001-2010" or "2001 2010".
func ParseYearRange(s string) (min, max int, err error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == ' ' || r == ',' })
	switch len(fields) {
	case 1:
		y, err := strconv.Atoi(fields[0])
		if err != nil {
			return 0, 0, fmt.Errorf("invalid year %q", fields[0])
		}
		return y, y, nil
	case 2:
		lo, err := strconv.Atoi(fields[0])
		if err != nil {
			return 0, 0, fmt.Errorf("invalid year %q", fields[0])
		}
		hi, err := strconv.Atoi(fields[1])
		if err != nil {
			return 0, 0, fmt.Errorf("invalid year %q", fields[1])
		}
		return lo, hi, nil
	}
	return 0, 0, fmt.Errorf("invalid year range %q (want YYYY-YYYY)", s)
}

func (m *Model) applyReload(msg reloadedMsg) {
	if msg.Err != nil {
		m.statusMsg = fmt.Sprintf("Reload failed: %v", msg.Err)
		m.statusIsError = true
		return
	}
	defer debug.LogEnterExit("ui: reload")()
	var before []model.Incident
	if m.state.Store != nil {
		before = m.state.Store.RecordValues()
	}
	opts := m.storeOpts
	skipped := 0
	opts.WarningHandler = func(msg string) {
		skipped++
		debug.Log("ui: %s", msg)
	}
	s := store.New(msg.Incidents, opts)
	diff := datasource.Diff(before, s.RecordValues(), datasource.DefaultDiffOptions())
	m.reduce(session.Reload{Store: s})
	m.statusMsg = "Reloaded: " + diff.Summary()
	if skipped > 0 {
		m.statusMsg += fmt.Sprintf(" (%d without coordinates skipped)", skipped)
	}
	m.statusIsError = false
}

func (m *Model) copyTooltip() {
	text := m.state.Tooltip.Text()
	if err := clipboard.WriteAll(text); err != nil {
		m.statusMsg = fmt.Sprintf("Clipboard error: %v", err)
		m.statusIsError = true
		return
	}
	m.statusMsg = fmt.Sprintf("📋 Copied %s to clipboard", strings.ToLower(m.state.Tooltip.Heading()))
}

// layout sizes the map and side panel to the terminal.
func (m *Model) layout() {
	side := m.width / 3
	if side < SidePanelMin {
		side = SidePanelMin
	}
	mapW := m.width - side - 1
	if m.fixedWidth > 0 && m.fixedWidth < mapW {
		mapW = m.fixedWidth
	}
	if mapW < MinMapWidth {
		mapW = MinMapWidth
	}
	bodyH := m.height - HeaderHeight - FooterHeight - 1
	mapH := mapW / 2
	if mapH > bodyH {
		mapH = bodyH
	}
	if mapH < 4 {
		mapH = 4
	}
	center := m.worldMap.CenterLon
	m.worldMap = WorldMap{Width: mapW, Height: mapH, CenterLon: center}
	if m.cursor != nil && !m.worldMap.Contains(*m.cursor) {
		m.cursor = nil
	}
	m.narrative.Width = max(SidePanelMin, m.width-mapW-3) - 4
	m.narrative.Height = max(3, bodyH/3)
	m.refreshNarrative()
}

func (m Model) View() string {
	defer metrics.Timer(metrics.UIRender)()
	return m.render()
}
