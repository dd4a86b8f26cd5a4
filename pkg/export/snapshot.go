package export

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~sbinet/gg"
	"github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/aidglobe/pkg/heatmap"
	"github.com/vanderheijden86/aidglobe/pkg/model"
)

// SnapshotOptions controls flat map snapshot export.
type SnapshotOptions struct {
	Path   string // Output path; format inferred from extension when Format empty
	Format string // "svg" or "png" (case-insensitive)
	Title  string
	Width  int // Map width in pixels; height is half of it
	Frame  Frame
}

// DefaultSnapshotWidth is the map width used when none is given.
const DefaultSnapshotWidth = 1080

// SaveSnapshot renders the frame onto an equirectangular world map.
func SaveSnapshot(opts SnapshotOptions) error {
	defer exportTimer("snapshot")()

	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		ext := filepath.Ext(opts.Path)
		format = strings.ToLower(strings.TrimPrefix(ext, "."))
		if ext == "" {
			format = "svg"
			if opts.Path != "" {
				opts.Path += ".svg"
			}
		}
	}
	if format != "svg" && format != "png" {
		return fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
	if opts.Path == "" {
		return fmt.Errorf("output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	layout := buildMapLayout(opts)
	if format == "png" {
		return renderMapPNG(opts.Path, layout)
	}
	file, err := os.Create(opts.Path)
	if err != nil {
		return err
	}
	if err := renderMapSVG(file, layout); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// --- layout ----------------------------------------------------------------

type mapPoint struct {
	X, Y  float64
	Color color.RGBA
}

type mapCell struct {
	X, Y, W, H float64
	Color      color.RGBA
}

type mapLayout struct {
	Width, Height int
	Header        float64
	// MapX, MapY, MapW, MapH frame the projected map inside the canvas.
	MapX, MapY, MapW, MapH float64
	Points                 []mapPoint
	Cells                  []mapCell
	Legend                 []LegendEntry
	Lines                  []string
	Title                  string
}

const (
	mapPadding   = 24.0
	headerHeight = 110.0
	pointRadius  = 2.5
)

func buildMapLayout(opts SnapshotOptions) mapLayout {
	w := opts.Width
	if w <= 0 {
		w = DefaultSnapshotWidth
	}
	mapW := float64(w)
	mapH := mapW / 2
	l := mapLayout{
		Width:  int(mapW + 2*mapPadding),
		Height: int(mapH + 2*mapPadding + headerHeight),
		Header: headerHeight,
		MapX:   mapPadding,
		MapY:   mapPadding + headerHeight,
		MapW:   mapW,
		MapH:   mapH,
		Legend: Legend(opts.Frame),
	}

	f := opts.Frame
	l.Title = opts.Title
	if strings.TrimSpace(l.Title) == "" {
		l.Title = model.OrDefault(f.Title, "Incident snapshot")
	}

	if f.Layer == model.LayerHeatmap {
		cs := f.CellSize
		if cs <= 0 {
			cs = heatmap.DefaultCellSize
		}
		for _, c := range f.Cells {
			lat0, lon0 := float64(c.LatBin)*cs, float64(c.LonBin)*cs
			x0, y0 := l.project(lat0+cs, lon0)
			x1, y1 := l.project(lat0, lon0+cs)
			l.Cells = append(l.Cells, mapCell{X: x0, Y: y0, W: x1 - x0, H: y1 - y0, Color: rgba(c.Color)})
		}
	} else if v := f.View; v != nil {
		for i, r := range v.Records {
			x, y := l.project(r.Lat, r.Lon)
			l.Points = append(l.Points, mapPoint{X: x, Y: y, Color: rgba(v.Color(i))})
		}
	}

	l.Lines = summaryLines(f)
	return l
}

// project maps lat/lon to canvas pixels.
func (l mapLayout) project(lat, lon float64) (x, y float64) {
	x = l.MapX + (lon+180)/360*l.MapW
	y = l.MapY + (90-lat)/180*l.MapH
	return x, y
}

func summaryLines(f Frame) []string {
	years := fmt.Sprintf("years: %d-%d", f.Filter.MinYear, f.Filter.MaxYear)
	orgs := make([]string, 0, model.NumOrganizations)
	for _, o := range f.Filter.Orgs.Slice() {
		orgs = append(orgs, o.Column())
	}
	lines := []string{
		fmt.Sprintf("%s  orgs: %s", years, truncate(strings.Join(orgs, ", "), 60)),
		fmt.Sprintf("incidents: %d  layer: %s  colors: %s", f.View.Len(), f.Layer, f.Filter.ColorMode),
	}
	if f.Layer == model.LayerHeatmap {
		st := heatmap.Summarize(f.Cells)
		lines[1] = fmt.Sprintf("cells: %d  incidents: %d  max affected: %g", st.Cells, st.Incidents, st.MaxAffected)
	}
	return append(lines, fmt.Sprintf("data_hash: %s", f.DataHash()))
}

// --- rendering -------------------------------------------------------------

var (
	colorBackdrop  = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorHeaderBG  = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
	colorOcean     = color.RGBA{0x1b, 0x26, 0x3b, 0xff}
	colorGraticule = color.RGBA{0x41, 0x5a, 0x77, 0xff}
	colorStroke    = color.RGBA{0x22, 0x22, 0x22, 0xff}
	colorText      = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle    = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorLegendBG  = color.RGBA{0xee, 0xee, 0xee, 0xff}
)

func renderMapPNG(path string, l mapLayout) error {
	dc := gg.NewContext(l.Width, l.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(12, 12, float64(l.Width)-24, l.Header-12, 10)
	dc.Fill()
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetColor(colorText)
	dc.DrawStringAnchored(l.Title, 32, 36, 0, 0.5)
	dc.SetColor(colorSubtle)
	for i, line := range l.Lines {
		dc.DrawStringAnchored(line, 32, 56+float64(i)*18, 0, 0.5)
	}

	dc.SetColor(colorOcean)
	dc.DrawRectangle(l.MapX, l.MapY, l.MapW, l.MapH)
	dc.Fill()

	dc.SetColor(colorGraticule)
	dc.SetLineWidth(0.6)
	for lon := -180.0; lon <= 180; lon += 30 {
		x0, y0 := l.project(90, lon)
		x1, y1 := l.project(-90, lon)
		dc.DrawLine(x0, y0, x1, y1)
		dc.Stroke()
	}
	for lat := -60.0; lat <= 60; lat += 30 {
		x0, y0 := l.project(lat, -180)
		x1, y1 := l.project(lat, 180)
		dc.DrawLine(x0, y0, x1, y1)
		dc.Stroke()
	}

	for _, c := range l.Cells {
		dc.SetColor(c.Color)
		dc.DrawRectangle(c.X, c.Y, c.W, c.H)
		dc.Fill()
	}
	for _, p := range l.Points {
		dc.SetColor(p.Color)
		dc.DrawCircle(p.X, p.Y, pointRadius)
		dc.Fill()
	}

	drawMapLegend(dc, l)
	return dc.SavePNG(path)
}

func drawMapLegend(dc *gg.Context, l mapLayout) {
	if len(l.Legend) == 0 {
		return
	}
	boxW := 200.0
	boxH := 28 + 16*float64(len(l.Legend))
	x := float64(l.Width) - boxW - 24
	y := l.MapY + l.MapH - boxH - 12
	dc.SetColor(colorLegendBG)
	dc.DrawRoundedRectangle(x, y, boxW, boxH, 10)
	dc.Fill()
	dc.SetColor(colorStroke)
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x, y, boxW, boxH, 10)
	dc.Stroke()

	dc.SetColor(colorText)
	dc.DrawStringAnchored("Legend", x+12, y+16, 0, 0.5)
	for i, e := range l.Legend {
		ry := y + 34 + 16*float64(i)
		dc.SetColor(rgba(e.Color))
		dc.DrawRoundedRectangle(x+12, ry-7, 12, 12, 3)
		dc.Fill()
		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(truncate(e.Label, 24), x+32, ry, 0, 0.5)
	}
}

func renderMapSVG(w io.Writer, l mapLayout) error {
	canvas := svg.New(w)
	canvas.Start(l.Width, l.Height)
	canvas.Rect(0, 0, l.Width, l.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	canvas.Roundrect(12, 12, l.Width-24, int(l.Header-12), 10, 10, fmt.Sprintf("fill:%s", css(colorHeaderBG)))

	canvas.Text(32, 40, l.Title, fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", css(colorText)))
	for i, line := range l.Lines {
		canvas.Text(32, 60+18*i, line, fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))
	}

	mx, my, mw, mh := int(l.MapX), int(l.MapY), int(l.MapW), int(l.MapH)
	canvas.Rect(mx, my, mw, mh, fmt.Sprintf("fill:%s", css(colorOcean)))

	canvas.Gid("graticule")
	grid := fmt.Sprintf("stroke:%s;stroke-width:0.6", css(colorGraticule))
	for lon := -180.0; lon <= 180; lon += 30 {
		x, _ := l.project(0, lon)
		canvas.Line(int(x), my, int(x), my+mh, grid)
	}
	for lat := -60.0; lat <= 60; lat += 30 {
		_, y := l.project(lat, 0)
		canvas.Line(mx, int(y), mx+mw, int(y), grid)
	}
	canvas.Gend()

	if len(l.Cells) > 0 {
		canvas.Gid("cells")
		for _, c := range l.Cells {
			canvas.Rect(int(math.Round(c.X)), int(math.Round(c.Y)),
				int(math.Max(1, math.Round(c.W))), int(math.Max(1, math.Round(c.H))),
				fmt.Sprintf("fill:%s;fill-opacity:0.85", css(c.Color)))
		}
		canvas.Gend()
	}
	if len(l.Points) > 0 {
		canvas.Gid("incidents")
		for _, p := range l.Points {
			canvas.Circle(int(math.Round(p.X)), int(math.Round(p.Y)), int(math.Ceil(pointRadius)),
				fmt.Sprintf("fill:%s", css(p.Color)))
		}
		canvas.Gend()
	}

	drawMapLegendSVG(canvas, l)
	canvas.End()
	return nil
}

func drawMapLegendSVG(canvas *svg.SVG, l mapLayout) {
	if len(l.Legend) == 0 {
		return
	}
	boxW := 200
	boxH := 28 + 16*len(l.Legend)
	x := l.Width - boxW - 24
	y := int(l.MapY+l.MapH) - boxH - 12
	canvas.Roundrect(x, y, boxW, boxH, 10, 10, fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(colorLegendBG), css(colorStroke)))
	canvas.Text(x+12, y+18, "Legend", fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace;font-weight:bold", css(colorText)))
	for i, e := range l.Legend {
		ry := y + 34 + 16*i
		canvas.Roundrect(x+12, ry-8, 12, 12, 3, 3, fmt.Sprintf("fill:%s", css(rgba(e.Color))))
		canvas.Text(x+32, ry+2, truncate(e.Label, 24), fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))
	}
}

// --- helpers ---------------------------------------------------------------

func rgba(c model.RGB) color.RGBA {
	ch := func(v float64) uint8 {
		if math.IsNaN(v) || v <= 0 {
			return 0
		}
		if v >= 1 {
			return 0xff
		}
		return uint8(math.Round(v * 255))
	}
	return color.RGBA{ch(c.R), ch(c.G), ch(c.B), 0xff}
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
