package ui

import (
	"math"
	"strings"

	"github.com/vanderheijden86/aidglobe/pkg/geo"
	"github.com/vanderheijden86/aidglobe/pkg/model"
)

// WorldMap is an equirectangular character grid. Column 0 starts at
// CenterLon-180; rows run from the north pole down.
type WorldMap struct {
	Width, Height int
	CenterLon     float64
}

// Cell is a map grid position.
type Cell struct{ Col, Row int }

// gridStep is the graticule spacing in degrees.
const gridStep = 30.0

// CellLatLon returns the geographic center of a cell.
func (w WorldMap) CellLatLon(c Cell) model.LatLon {
	lon := w.CenterLon - 180 + (float64(c.Col)+0.5)/float64(w.Width)*360
	lat := 90 - (float64(c.Row)+0.5)/float64(w.Height)*180
	return model.LatLon{Lat: lat, Lon: wrapLon(lon)}
}

// CellUV maps a cell center into globe texture space.
func (w WorldMap) CellUV(c Cell) model.UVPoint {
	ll := w.CellLatLon(c)
	return geo.LatLonToUV(ll.Lat, ll.Lon)
}

// Locate returns the cell containing lat/lon.
func (w WorldMap) Locate(lat, lon float64) (Cell, bool) {
	if w.Width <= 0 || w.Height <= 0 || math.IsNaN(lat) || math.IsNaN(lon) {
		return Cell{}, false
	}
	x := wrapDeg(lon-(w.CenterLon-180)) / 360
	y := (90 - lat) / 180
	c := Cell{Col: int(math.Floor(x * float64(w.Width))), Row: int(math.Floor(y * float64(w.Height)))}
	if lat == -90 {
		c.Row = w.Height - 1
	}
	if c.Col >= w.Width {
		c.Col = 0
	}
	return c, c.Row >= 0 && c.Row < w.Height
}

// Contains reports whether c lies on the grid.
func (w WorldMap) Contains(c Cell) bool {
	return c.Col >= 0 && c.Col < w.Width && c.Row >= 0 && c.Row < w.Height
}

// Spin moves the map center by radians, wrapping into [-180, 180).
func (w WorldMap) Spin(radians float64) WorldMap {
	w.CenterLon = wrapLon(w.CenterLon + radians*180/math.Pi)
	return w
}

// wrapDeg wraps d into [0, 360).
func wrapDeg(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// wrapLon wraps lon into [-180, 180).
func wrapLon(lon float64) float64 {
	return wrapDeg(lon+180) - 180
}

// mapCell accumulates what lands in one grid cell.
type mapCell struct {
	count   int
	color   model.RGB
	hovered bool
	heat    float64
	heatSet bool
}

// MapLayer is the data drawn onto the grid.
type MapLayer struct {
	View    *model.FilteredView
	Cells   []model.GridCell
	Heatmap bool
	Hovered []int
}

// glyphs by density, sparse to dense.
var (
	densityGlyphs = []string{"·", "•", "●"}
	heatGlyphs    = []string{"░", "▒", "▓", "█"}
)

// Grid buckets the layer into cells. The returned slice is row-major.
func (w WorldMap) grid(l MapLayer) []mapCell {
	cells := make([]mapCell, w.Width*w.Height)
	if l.Heatmap {
		for _, g := range l.Cells {
			c, ok := w.Locate(g.CenterLat, g.CenterLon)
			if !ok {
				continue
			}
			mc := &cells[c.Row*w.Width+c.Col]
			if !mc.heatSet || g.Intensity > mc.heat {
				mc.heat, mc.heatSet, mc.color = g.Intensity, true, g.Color
			}
			mc.count += g.Count
		}
		return cells
	}
	if l.View == nil {
		return cells
	}
	hovered := make(map[int]bool, len(l.Hovered))
	for _, i := range l.Hovered {
		hovered[i] = true
	}
	for i, r := range l.View.Records {
		c, ok := w.Locate(r.Lat, r.Lon)
		if !ok {
			continue
		}
		mc := &cells[c.Row*w.Width+c.Col]
		mc.count++
		// Later records paint over earlier ones, like the globe's draw order.
		mc.color = l.View.Color(i)
		if hovered[i] {
			mc.hovered = true
		}
	}
	return cells
}

func densityGlyph(n int) string {
	switch {
	case n >= 10:
		return densityGlyphs[2]
	case n >= 3:
		return densityGlyphs[1]
	default:
		return densityGlyphs[0]
	}
}

func heatGlyph(intensity float64) string {
	i := int(intensity * float64(len(heatGlyphs)))
	if i < 0 {
		i = 0
	}
	if i >= len(heatGlyphs) {
		i = len(heatGlyphs) - 1
	}
	return heatGlyphs[i]
}

// isGridLine reports whether the cell straddles a graticule line.
func (w WorldMap) isGridLine(c Cell) (lat, lon bool) {
	ll := w.CellLatLon(c)
	halfLat := 90 / float64(w.Height)
	halfLon := 180 / float64(w.Width)
	nearest := func(v, half float64) bool {
		r := math.Mod(math.Abs(v), gridStep)
		return r <= half || gridStep-r < half
	}
	return nearest(ll.Lat, halfLat), nearest(ll.Lon, halfLon)
}

// Render draws the map. cursor may be nil.
func (w WorldMap) Render(t Theme, l MapLayer, cursor *Cell) string {
	if w.Width <= 0 || w.Height <= 0 {
		return ""
	}
	cells := w.grid(l)
	grid := t.Renderer.NewStyle().Foreground(t.Grid)

	var b strings.Builder
	for row := 0; row < w.Height; row++ {
		for col := 0; col < w.Width; col++ {
			c := Cell{Col: col, Row: row}
			mc := cells[row*w.Width+col]
			switch {
			case cursor != nil && *cursor == c:
				b.WriteString(t.Cursor.Render("+"))
			case mc.hovered:
				b.WriteString(t.Cursor.Render("◉"))
			case mc.heatSet:
				b.WriteString(t.Dot(heatGlyph(mc.heat), mc.color))
			case mc.count > 0:
				b.WriteString(t.Dot(densityGlyph(mc.count), mc.color))
			default:
				onLat, onLon := w.isGridLine(c)
				switch {
				case onLat && onLon:
					b.WriteString(grid.Render("┼"))
				case onLat:
					b.WriteString(grid.Render("─"))
				case onLon:
					b.WriteString(grid.Render("│"))
				default:
					b.WriteByte(' ')
				}
			}
		}
		if row < w.Height-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
