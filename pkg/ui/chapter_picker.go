package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/aidglobe/pkg/model"
)

// chapterItem is one entry in the chapter picker.
type chapterItem struct {
	index int
	spec  model.ChapterSpec
}

func (i chapterItem) Title() string { return fmt.Sprintf("%d. %s", i.index+1, i.spec.Title) }
func (i chapterItem) Description() string {
	return fmt.Sprintf("%s · %s · %s", i.spec.ID, i.spec.ColorMode, i.spec.Layer)
}
func (i chapterItem) FilterValue() string { return i.spec.Title + " " + i.spec.ID }

// ChapterPicker lists the narrative chapters for direct selection.
type ChapterPicker struct {
	list   list.Model
	chosen int
	done   bool
}

// NewChapterPicker builds a picker with current preselected.
func NewChapterPicker(chapters []model.ChapterSpec, current int, theme Theme) ChapterPicker {
	items := make([]list.Item, len(chapters))
	for i, ch := range chapters {
		items[i] = chapterItem{index: i, spec: ch}
	}
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Primary).BorderForeground(theme.Primary)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.BorderForeground(theme.Primary)

	l := list.New(items, delegate, 60, 20)
	l.Title = "Chapters"
	l.Styles.Title = theme.Header
	l.SetShowStatusBar(false)
	l.Select(current)
	return ChapterPicker{list: l, chosen: -1}
}

// SetSize resizes the picker.
func (p *ChapterPicker) SetSize(w, h int) {
	p.list.SetSize(w, h)
}

// Update handles navigation; enter chooses, esc cancels.
func (p ChapterPicker) Update(msg tea.Msg) (ChapterPicker, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && !p.list.SettingFilter() {
		switch key.String() {
		case "enter":
			if it, ok := p.list.SelectedItem().(chapterItem); ok {
				p.chosen = it.index
			}
			p.done = true
			return p, nil
		case "esc", "q":
			p.done = true
			return p, nil
		}
	}
	var cmd tea.Cmd
	p.list, cmd = p.list.Update(msg)
	return p, cmd
}

// Done reports whether the picker closed. Chosen is -1 when cancelled.
func (p ChapterPicker) Done() bool   { return p.done }
func (p ChapterPicker) Chosen() int  { return p.chosen }
func (p ChapterPicker) View() string { return p.list.View() }
