// Package export writes the current globe view to files: render buffers as
// JSON, the filtered incidents and heatmap grid as SQLite, and flat map
// snapshots as SVG or PNG.
package export

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/aidglobe/pkg/filter"
	"github.com/vanderheijden86/aidglobe/pkg/heatmap"
	"github.com/vanderheijden86/aidglobe/pkg/model"
	"github.com/vanderheijden86/aidglobe/pkg/session"
	"github.com/vanderheijden86/aidglobe/pkg/version"
)

// Frame is everything an exporter needs from one session state.
type Frame struct {
	Title   string
	Chapter string
	Filter  model.FilterState
	Layer   model.Layer
	View    *model.FilteredView
	Cells   []model.GridCell
	Heat    heatmap.Layer
	Palette filter.Palette
	// CellSize is the heatmap bin size in degrees.
	CellSize float64
}

// FrameFromSession captures the exportable parts of st.
func FrameFromSession(env session.Env, st session.State) Frame {
	return Frame{
		Title:    st.Scene.Title,
		Chapter:  st.Scene.ID,
		Filter:   st.Filter,
		Layer:    st.Layer,
		View:     st.View,
		Cells:    st.Cells,
		Heat:     st.Heat,
		Palette:  env.Palette,
		CellSize: env.Heatmap.CellSize,
	}
}

// DataHash fingerprints the exported records by ID and order.
func (f Frame) DataHash() string {
	h := sha256.New()
	if f.View != nil {
		for _, r := range f.View.Records {
			io.WriteString(h, r.ID)
			h.Write([]byte{0})
		}
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Meta describes an export.
type Meta struct {
	Version     string            `json:"version"`
	GeneratedAt time.Time         `json:"generated_at"`
	Title       string            `json:"title,omitempty"`
	Chapter     string            `json:"chapter,omitempty"`
	Filter      model.FilterState `json:"filter"`
	Layer       model.Layer       `json:"layer"`
	Incidents   int               `json:"incidents"`
	Cells       int               `json:"cells"`
	DataHash    string            `json:"data_hash"`
}

// Meta returns the metadata block for the frame.
func (f Frame) Meta() Meta {
	return Meta{
		Version:     version.Version,
		GeneratedAt: time.Now().UTC(),
		Title:       f.Title,
		Chapter:     f.Chapter,
		Filter:      f.Filter,
		Layer:       f.Layer,
		Incidents:   f.View.Len(),
		Cells:       len(f.Cells),
		DataHash:    f.DataHash(),
	}
}

// RenderBuffers is the JSON shape consumed by external renderers. Arrays are
// packed and index-aligned exactly like the in-memory view.
type RenderBuffers struct {
	Meta      Meta             `json:"meta"`
	IDs       []string         `json:"ids"`
	Positions []float64        `json:"positions"`
	UVs       []float64        `json:"uvs"`
	Colors    []float64        `json:"colors"`
	Heatmap   *HeatmapBuffers  `json:"heatmap,omitempty"`
	Stats     *heatmap.Stats   `json:"heatmap_stats,omitempty"`
	Cells     []model.GridCell `json:"cells,omitempty"`
	Legend    []LegendEntry    `json:"legend,omitempty"`
}

// HeatmapBuffers mirrors heatmap.Layer.
type HeatmapBuffers struct {
	Positions []float64 `json:"positions"`
	UVs       []float64 `json:"uvs"`
	Colors    []float64 `json:"colors"`
}

// Buffers builds the JSON payload for f. Empty views produce empty arrays,
// never null.
func (f Frame) Buffers() RenderBuffers {
	rb := RenderBuffers{
		Meta:      f.Meta(),
		IDs:       []string{},
		Positions: []float64{},
		UVs:       []float64{},
		Colors:    []float64{},
		Legend:    Legend(f),
	}
	if v := f.View; v != nil {
		rb.IDs = make([]string, len(v.Records))
		for i, r := range v.Records {
			rb.IDs[i] = r.ID
		}
		rb.Positions = nonNil(v.Positions)
		rb.UVs = nonNil(v.UVs)
		rb.Colors = nonNil(v.Colors)
	}
	if f.Layer == model.LayerHeatmap {
		rb.Heatmap = &HeatmapBuffers{
			Positions: nonNil(f.Heat.Positions),
			UVs:       nonNil(f.Heat.UVs),
			Colors:    nonNil(f.Heat.Colors),
		}
		st := heatmap.Summarize(f.Cells)
		rb.Stats = &st
		rb.Cells = f.Cells
	}
	return rb
}

func nonNil(s []float64) []float64 {
	if s == nil {
		return []float64{}
	}
	return s
}

// WriteJSON encodes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// SaveBuffersJSON writes the frame's render buffers to path.
func SaveBuffersJSON(f Frame, path string) error {
	defer exportTimer("json")()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(file, f.Buffers()); err != nil {
		file.Close()
		return fmt.Errorf("encode buffers: %w", err)
	}
	return file.Close()
}
