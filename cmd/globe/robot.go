package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vanderheijden86/aidglobe/internal/datasource"
	"github.com/vanderheijden86/aidglobe/pkg/export"
	"github.com/vanderheijden86/aidglobe/pkg/heatmap"
	"github.com/vanderheijden86/aidglobe/pkg/hooks"
	"github.com/vanderheijden86/aidglobe/pkg/metrics"
	"github.com/vanderheijden86/aidglobe/pkg/model"
	"github.com/vanderheijden86/aidglobe/pkg/session"
	"github.com/vanderheijden86/aidglobe/pkg/summary"
)

type robotOptions struct {
	View    bool
	Heatmap bool
	Hover   string
	Metrics bool
}

// RobotView is the --robot-view payload.
type RobotView struct {
	Panels  session.Panels       `json:"panels"`
	Buffers export.RenderBuffers `json:"buffers"`
}

// RobotHeatmap is the --robot-heatmap payload. Cells are binned from the
// current filter even when the chapter shows points.
type RobotHeatmap struct {
	Filter   model.FilterState `json:"filter"`
	CellSize float64           `json:"cell_size"`
	Stats    heatmap.Stats     `json:"stats"`
	Cells    []model.GridCell  `json:"cells"`
}

// RobotHover is the --robot-hover payload.
type RobotHover struct {
	U       float64         `json:"u"`
	V       float64         `json:"v"`
	Radius  float64         `json:"radius"`
	Indices []int           `json:"indices"`
	IDs     []string        `json:"ids"`
	Heading string          `json:"heading"`
	Summary summary.Summary `json:"summary"`
	Text    string          `json:"text"`
}

// RobotChapter is one --robot-chapters entry.
type RobotChapter struct {
	Index    int               `json:"index"`
	Sections []string          `json:"sections"`
	Spec     model.ChapterSpec `json:"spec"`
}

func runRobot(w io.Writer, env session.Env, st session.State, opts robotOptions) error {
	if opts.View {
		rv := RobotView{
			Panels:  st.Panels(),
			Buffers: export.FrameFromSession(env, st).Buffers(),
		}
		if err := export.WriteJSON(w, rv); err != nil {
			return err
		}
	}
	if opts.Heatmap {
		if err := export.WriteJSON(w, robotHeatmap(env, st)); err != nil {
			return err
		}
	}
	if opts.Hover != "" {
		uv, err := parseUV(opts.Hover)
		if err != nil {
			return err
		}
		if err := export.WriteJSON(w, robotHover(env, st, uv)); err != nil {
			return err
		}
	}
	if opts.Metrics {
		if err := export.WriteJSON(w, metrics.Collect()); err != nil {
			return err
		}
	}
	return nil
}

func robotHeatmap(env session.Env, st session.State) RobotHeatmap {
	cells := st.Cells
	if st.Layer != model.LayerHeatmap {
		cells = heatmap.Bin(st.Store.Records(), st.Filter, env.Heatmap)
	}
	if cells == nil {
		cells = []model.GridCell{}
	}
	return RobotHeatmap{
		Filter:   st.Filter,
		CellSize: env.Heatmap.CellSize,
		Stats:    heatmap.Summarize(cells),
		Cells:    cells,
	}
}

func robotHover(env session.Env, st session.State, uv model.UVPoint) RobotHover {
	st = session.Reduce(env, st, session.Hover{UV: &uv})
	out := RobotHover{
		U:       uv.U,
		V:       uv.V,
		Radius:  st.Radius,
		Indices: st.HoverIndices,
		IDs:     make([]string, 0, len(st.HoverIndices)),
		Heading: st.Tooltip.Heading(),
		Summary: st.Tooltip,
		Text:    st.Tooltip.Text(),
	}
	if out.Indices == nil {
		out.Indices = []int{}
	}
	for _, i := range st.HoverIndices {
		out.IDs = append(out.IDs, st.View.Records[i].ID)
	}
	return out
}

// parseUV reads "u,v" with both components in [0,1].
func parseUV(s string) (model.UVPoint, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return model.UVPoint{}, fmt.Errorf("invalid UV %q (want u,v)", s)
	}
	u, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return model.UVPoint{}, fmt.Errorf("invalid u in %q: %w", s, err)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return model.UVPoint{}, fmt.Errorf("invalid v in %q: %w", s, err)
	}
	if u < 0 || u > 1 || v < 0 || v > 1 {
		return model.UVPoint{}, fmt.Errorf("UV %q outside [0,1]", s)
	}
	return model.UVPoint{U: u, V: v}, nil
}

func printChapters(w io.Writer, chapters []model.ChapterSpec) error {
	out := make([]RobotChapter, len(chapters))
	for i, ch := range chapters {
		names := []string{}
		for _, sec := range ch.Sections.Slice() {
			names = append(names, sec.String())
		}
		out[i] = RobotChapter{Index: i, Sections: names, Spec: ch}
	}
	return export.WriteJSON(w, out)
}

func printSources(w io.Writer, dir string) error {
	sources, err := datasource.DiscoverSources(dir)
	if err != nil {
		return err
	}
	ctx := context.Background()
	for i := range sources {
		_ = datasource.ValidateSource(ctx, &sources[i])
	}
	if sources == nil {
		sources = []datasource.DataSource{}
	}
	return export.WriteJSON(w, sources)
}

type exportTargets struct {
	JSON     string
	SQLite   string
	Snapshot string
	Width    int
	// HookDir holds .globe/hooks.yaml; empty means the working directory.
	HookDir string
	NoHooks bool
}

// runExports writes every requested target, each wrapped in the project's
// export hooks, and returns the paths written before the first failure.
func runExports(f export.Frame, t exportTargets, stderr io.Writer) ([]string, error) {
	var written []string
	write := func(format, path string, fn func() error) error {
		hc := hooks.ExportContext{
			ExportPath:    path,
			ExportFormat:  format,
			IncidentCount: f.View.Len(),
			Chapter:       f.Chapter,
			DataHash:      f.DataHash(),
			Timestamp:     time.Now(),
		}
		if err := withHooks(t.HookDir, t.NoHooks, hc, fn, stderr); err != nil {
			return fmt.Errorf("%s: %w", format, err)
		}
		written = append(written, path)
		return nil
	}

	if t.JSON != "" {
		if err := write(export.FormatJSON, t.JSON, func() error { return export.SaveBuffersJSON(f, t.JSON) }); err != nil {
			return written, err
		}
	}
	if t.SQLite != "" {
		if err := write(export.FormatSQLite, t.SQLite, func() error { return export.NewSQLiteExporter(f).Export(t.SQLite) }); err != nil {
			return written, err
		}
	}
	if t.Snapshot != "" {
		path := t.Snapshot
		if filepath.Ext(path) == "" {
			path += ".svg"
		}
		format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
		opts := export.SnapshotOptions{Path: path, Format: format, Title: f.Title, Width: t.Width, Frame: f}
		if err := write(format, path, func() error { return export.SaveSnapshot(opts) }); err != nil {
			return written, err
		}
	}
	return written, nil
}

// withHooks runs pre-export hooks, fn, then post-export hooks. A failing
// pre-export hook cancels the export; post-export failures are reported
// to stderr only.
func withHooks(dir string, noHooks bool, hc hooks.ExportContext, fn func() error, stderr io.Writer) error {
	if dir == "" {
		dir, _ = os.Getwd()
	}
	exec, err := hooks.RunHooks(dir, hc, noHooks)
	if err != nil {
		return fmt.Errorf("loading hooks: %w", err)
	}
	if exec != nil {
		if err := exec.RunPreExport(); err != nil {
			return err
		}
	}
	if err := fn(); err != nil {
		return err
	}
	if exec != nil {
		if err := exec.RunPostExport(); err != nil {
			fmt.Fprintf(stderr, "Warning: %v\n", err)
		}
		if s := exec.Summary(); s != "" && !allSucceeded(exec.Results()) {
			fmt.Fprintln(stderr, s)
		}
	}
	return nil
}

func allSucceeded(results []hooks.HookResult) bool {
	for _, r := range results {
		if !r.Success {
			return false
		}
	}
	return true
}
