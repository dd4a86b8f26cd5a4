package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/aidglobe/internal/datasource"
	"github.com/vanderheijden86/aidglobe/pkg/export"
	"github.com/vanderheijden86/aidglobe/pkg/loader"
	"github.com/vanderheijden86/aidglobe/pkg/model"
	"github.com/vanderheijden86/aidglobe/pkg/watcher"
)

// spinInterval is the frame rate of idle map rotation.
const spinInterval = 100 * time.Millisecond

// framesPerSpin converts a per-frame rotation speed (tuned for 60fps) into
// one spin tick.
const framesPerSpin = 6

// FileChangedMsg reports a change to one of the watched dataset files.
type FileChangedMsg struct{ Path string }

// playTickMsg is one playback timer firing for generation Gen.
type playTickMsg struct{ Gen uint64 }

// spinTickMsg advances idle rotation for generation Gen.
type spinTickMsg struct{ Gen uint64 }

// reloadedMsg carries a freshly loaded dataset.
type reloadedMsg struct {
	Incidents []model.Incident
	Path      string
	Err       error
}

// exportDoneMsg reports the result of an export run.
type exportDoneMsg struct {
	Paths []string
	Err   error
}

// WatchFileCmd waits for the next change and sends FileChangedMsg.
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		path, ok := <-w.Changed()
		if !ok {
			return nil
		}
		return FileChangedMsg{Path: path}
	}
}

func playTickCmd(d time.Duration, gen uint64) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return playTickMsg{Gen: gen}
	})
}

func spinTickCmd(gen uint64) tea.Cmd {
	return tea.Tick(spinInterval, func(time.Time) tea.Msg {
		return spinTickMsg{Gen: gen}
	})
}

// reloadCmd re-reads every dataset path.
func reloadCmd(paths []string, changed string, opts loader.ParseOptions) tea.Cmd {
	return func() tea.Msg {
		incidents, err := datasource.LoadAll(context.Background(), paths, opts)
		return reloadedMsg{Incidents: incidents, Path: changed, Err: err}
	}
}

func exportCmd(f export.Frame, cfg *export.WizardConfig) tea.Cmd {
	return func() tea.Msg {
		paths, err := export.ExportAll(f, cfg)
		return exportDoneMsg{Paths: paths, Err: err}
	}
}
