package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/aidglobe/pkg/export"
	"github.com/vanderheijden86/aidglobe/pkg/model"
	"github.com/vanderheijden86/aidglobe/pkg/summary"
)

func (m Model) render() string {
	if !m.ready {
		return "Initializing..."
	}

	var body string
	switch {
	case m.showHelp:
		body = m.renderHelpOverlay()
	case m.showChapter:
		body = m.picker.View()
	case !m.state.Loaded():
		body = m.renderLoadingScreen()
	default:
		mapView := m.worldMap.Render(m.theme, m.mapLayer(), m.cursor)
		side := m.renderSidePanel()
		body = lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.JoinHorizontal(lipgloss.Top, mapView, " ", side),
			m.renderTimeline(),
		)
		body = lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body)
	}

	finalStyle := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		MaxHeight(m.height)
	return finalStyle.Render(lipgloss.JoinVertical(lipgloss.Left, body, m.renderFooter()))
}

func (m Model) mapLayer() MapLayer {
	return MapLayer{
		View:    m.state.View,
		Cells:   m.state.Cells,
		Heatmap: m.state.Layer == model.LayerHeatmap,
		Hovered: m.state.HoverIndices,
	}
}

func (m Model) renderLoadingScreen() string {
	titleStyle := lipgloss.NewStyle().Foreground(ColorText).Bold(true)
	subStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	lines := []string{titleStyle.Render("Loading incidents...")}
	for _, p := range m.dataPaths {
		lines = append(lines, subStyle.Render(p))
	}
	content := lipgloss.JoinVertical(lipgloss.Center, lines...)
	return lipgloss.Place(m.width, m.height-FooterHeight, lipgloss.Center, lipgloss.Center, content)
}

func (m Model) renderHeader() string {
	sc := m.state.Scene
	title := fmt.Sprintf("%s (%d/%d)", model.OrDefault(sc.Title, sc.ID), sc.Index+1, m.state.Chapter.Len())
	right := fmt.Sprintf("%d incidents", m.state.View.Len())
	if m.state.Layer == model.LayerHeatmap {
		right = fmt.Sprintf("%d cells · %s", len(m.state.Cells), right)
	}
	left := m.theme.Header.Render(truncate(title, max(10, m.width-runeWidth(right)-6)))
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 1
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + m.theme.MutedText.Render(right)
}

func (m Model) renderSidePanel() string {
	w := max(SidePanelMin, m.width-m.worldMap.Width-3)
	inner := w - 4

	var sections []string
	sections = append(sections, m.renderNarrative(inner))
	sections = append(sections, m.renderFilterBlock(inner))
	sections = append(sections, m.renderLegend(inner))
	sections = append(sections, m.renderTooltip(inner))

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	return m.theme.Panel.
		Width(w - 2).
		MaxHeight(m.worldMap.Height).
		Render(content)
}

func (m Model) renderNarrative(width int) string {
	if strings.TrimSpace(m.state.Scene.Narrative) == "" {
		return ""
	}
	vp := m.narrative
	vp.Width = width
	return vp.View()
}

func (m Model) renderFilterBlock(width int) string {
	f := m.state.Filter
	var b strings.Builder
	b.WriteString(m.theme.PrimaryBold.Render("Filters"))
	b.WriteByte('\n')
	fmt.Fprintf(&b, "years %d-%d · colors %s · radius %.3f\n", f.MinYear, f.MaxYear, f.ColorMode, m.state.Radius)

	var orgs []string
	for i, o := range model.AllOrganizations {
		orgs = append(orgs, RenderToggle(fmt.Sprintf("%d %s", i+1, o.Column()), f.Orgs.Has(o)))
	}
	b.WriteString(wrapJoined(orgs, width))
	return b.String()
}

// wrapJoined joins items with two spaces, wrapping at width.
func wrapJoined(items []string, width int) string {
	var lines []string
	line := ""
	for _, it := range items {
		switch {
		case line == "":
			line = it
		case lipgloss.Width(line)+2+lipgloss.Width(it) > width:
			lines = append(lines, line)
			line = it
		default:
			line += "  " + it
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderLegend(width int) string {
	entries := export.Legend(export.FrameFromSession(m.env, m.state))
	if len(entries) == 0 {
		return ""
	}
	items := make([]string, 0, len(entries))
	for _, e := range entries {
		items = append(items, m.theme.Dot("●", e.Color)+" "+truncate(e.Label, 22))
	}
	return m.theme.PrimaryBold.Render("Legend") + "\n" + wrapJoined(items, width)
}

func (m Model) renderTooltip(width int) string {
	tip := m.state.Tooltip
	var b strings.Builder
	heading := tip.Heading()
	if m.state.Hover == nil {
		heading = fmt.Sprintf("All %d incidents in view", tip.Total)
	}
	b.WriteString(m.theme.PrimaryBold.Render(truncate(heading, width)))

	counts := func(title string, list []summary.Count) {
		if len(list) == 0 {
			return
		}
		b.WriteString("\n" + m.theme.InfoText.Render(title))
		for _, c := range list {
			fmt.Fprintf(&b, "\n  %s %d", padRight(truncate(c.Label, width-8), width-8), c.Count)
		}
	}
	for _, sec := range tip.Sections.Slice() {
		switch sec {
		case model.SectionCountry:
			counts("Top Countries", tip.Countries)
		case model.SectionContext:
			counts("Attack Contexts", tip.Contexts)
		case model.SectionActor:
			counts("Actor Types", tip.Actors)
		case model.SectionActorTargets:
			counts("Who Targets Whom", tip.ActorTargets)
		case model.SectionImpact:
			b.WriteString("\n" + m.theme.InfoText.Render("People Impacted"))
			fmt.Fprintf(&b, "\n  killed %g · wounded %g · kidnapped %g", tip.Impact.Killed, tip.Impact.Wounded, tip.Impact.Kidnapped)
		case model.SectionGender:
			b.WriteString("\n" + m.theme.InfoText.Render("Gender"))
			fmt.Fprintf(&b, "\n  male %g · female %g · unknown %g", tip.Gender.Male, tip.Gender.Female, tip.Gender.Unknown)
		case model.SectionOrganizations:
			b.WriteString("\n" + m.theme.InfoText.Render("Organizations Affected"))
			for _, o := range tip.Organizations {
				fmt.Fprintf(&b, "\n  %s %g (%d)", padRight(truncate(o.Org.Column(), width-14), width-14), o.Affected, o.Incidents)
			}
		}
	}
	return b.String()
}

func (m Model) renderTimeline() string {
	pb := m.state.Playback
	if !m.state.Scene.Timeline.Visible {
		return ""
	}
	barW := max(10, m.worldMap.Width-24)
	pos := 0
	if pb.Max > pb.Min {
		pos = (pb.Year - pb.Min) * (barW - 1) / (pb.Max - pb.Min)
	}
	bar := strings.Repeat("━", pos) + "●" + strings.Repeat("─", barW-pos-1)

	state := m.theme.MutedText.Render("paused")
	if pb.Playing {
		state = m.theme.Playing.Render("▶ playing")
	}
	return fmt.Sprintf("%d %s %d  %s  %s", pb.Min, bar, pb.Max, m.theme.PrimaryBold.Render(fmt.Sprint(pb.Year)), state)
}

func (m Model) renderFooter() string {
	if m.editingYears {
		return m.yearInput.View() + m.theme.MutedText.Render("  enter apply · esc cancel")
	}
	if m.statusMsg != "" {
		style := lipgloss.NewStyle().Foreground(ColorSuccess)
		if m.statusIsError {
			style = lipgloss.NewStyle().Foreground(ColorDanger).Bold(true)
		}
		return style.Render(truncate(m.statusMsg, m.width))
	}
	hints := []string{
		RenderKeyHint("n/p", "chapter"),
		RenderKeyHint("space", "play"),
		RenderKeyHint("1-6", "orgs"),
		RenderKeyHint("m", "colors"),
		RenderKeyHint("hjkl", "hover"),
		RenderKeyHint("?", "help"),
		RenderKeyHint("q", "quit"),
	}
	return truncate(strings.Join(hints, "  "), m.width)
}

func (m Model) renderHelpOverlay() string {
	type binding struct{ key, desc string }
	groups := []struct {
		title string
		keys  []binding
	}{
		{"Story", []binding{
			{"n ] tab", "Next chapter"},
			{"p [ S-tab", "Previous chapter"},
			{"c", "Pick a chapter"},
			{"space", "Play / pause timeline"},
			{", .", "Scrub one year"},
			{"J / K", "Scroll narrative"},
		}},
		{"Filters", []binding{
			{"1-6", "Toggle UN, INGO, ICRC, NRCS and IFRC, NNGO, Other"},
			{"a / 0", "All / no organizations"},
			{"y", "Set year range"},
			{"m", "Cycle color mode"},
			{"! @ # $ % ^ &", "Toggle tooltip sections"},
		}},
		{"Map", []binding{
			{"hjkl / arrows", "Move hover cursor"},
			{"mouse", "Hover under pointer"},
			{"+ / -", "Hover radius"},
			{"esc", "Clear hover"},
			{"r", "Cycle rotation speed"},
		}},
		{"Output", []binding{
			{"C", "Copy tooltip to clipboard"},
			{"e", "Export view (json, sqlite, svg, png)"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(m.theme.Header.Render("Keyboard shortcuts"))
	b.WriteString("\n")
	for _, g := range groups {
		b.WriteString("\n" + m.theme.PrimaryBold.Render(g.title) + "\n")
		for _, k := range g.keys {
			b.WriteString("  " + m.theme.InfoText.Render(k.key))
			b.WriteString(strings.Repeat(" ", max(1, 16-runeWidth(k.key))))
			b.WriteString(k.desc + "\n")
		}
	}
	b.WriteString("\n" + m.theme.MutedText.Render("press any key to close"))

	box := m.theme.Panel.Padding(1, 3).Render(b.String())
	return lipgloss.Place(m.width, m.height-FooterHeight, lipgloss.Center, lipgloss.Center, box)
}
