// Package heatmap aggregates incidents into a coarse lat/lon grid and encodes
// each cell's impact as a log-normalized, saturating red ramp.
package heatmap

import (
	"math"

	"github.com/vanderheijden86/aidglobe/pkg/geo"
	"github.com/vanderheijden86/aidglobe/pkg/metrics"
	"github.com/vanderheijden86/aidglobe/pkg/model"
)

const (
	// DefaultCellSize is the grid resolution in degrees.
	DefaultCellSize = 5.0
	// DefaultReference is the "typical high-impact" affected count that maps
	// to a normalized intensity of 1.
	DefaultReference = 100.0
	// DefaultFloor keeps every populated cell faintly visible.
	DefaultFloor = 0.05
)

// Scale holds the intensity normalization constants.
type Scale struct {
	Reference float64 `yaml:"reference" json:"reference"`
	Floor     float64 `yaml:"floor" json:"floor"`
}

// DefaultScale returns the stock normalization.
func DefaultScale() Scale {
	return Scale{Reference: DefaultReference, Floor: DefaultFloor}
}

// Intensity is every intermediate of the normalization, for legends and tests.
type Intensity struct {
	Raw        float64 `json:"raw"`
	Log        float64 `json:"log"`
	Normalized float64 `json:"normalized"`
	Adjusted   float64 `json:"adjusted"`
}

// Intensity normalizes an aggregate affected count:
//
//	raw = max(1, agg), log = ln(1+raw), normalized = log/ln(1+Reference),
//	adjusted = max(Floor, normalized)
//
// NaN aggregates count as zero.
func (s Scale) Intensity(agg float64) Intensity {
	if math.IsNaN(agg) {
		agg = 0
	}
	ref := s.Reference
	if ref <= 0 {
		ref = DefaultReference
	}
	raw := math.Max(1, agg)
	lg := math.Log1p(raw)
	norm := lg / math.Log1p(ref)
	return Intensity{Raw: raw, Log: lg, Normalized: norm, Adjusted: math.Max(s.Floor, norm)}
}

// Color is Ramp applied to the adjusted intensity of agg.
func (s Scale) Color(agg float64) model.RGB {
	return Ramp(s.Intensity(agg).Adjusted)
}

// Ramp maps an adjusted intensity to red-dominant color: red is pinned at 1,
// green and blue grow at 1.5x and 0.4x and clamp at 1.
func Ramp(adjusted float64) model.RGB {
	return model.RGB{
		R: 1,
		G: math.Min(1, adjusted*1.5),
		B: math.Min(1, adjusted*0.4),
	}
}

// Options configures Bin.
type Options struct {
	CellSize float64
	Scale    Scale
}

type cellKey struct{ lat, lon int }

// Bin applies the filter predicate and buckets survivors by
// floor(x/cellSize)*cellSize. Cells are returned in first-seen order.
func Bin(records []*model.Incident, st model.FilterState, opts Options) []model.GridCell {
	defer metrics.Timer(metrics.HeatmapBin)()

	cs := opts.CellSize
	if cs <= 0 || math.IsNaN(cs) {
		cs = DefaultCellSize
	}
	scale := opts.Scale
	if scale.Reference <= 0 {
		scale = DefaultScale()
	}

	index := make(map[cellKey]int)
	var cells []model.GridCell
	for _, inc := range records {
		if inc == nil || !inc.GeoOK || !st.Matches(inc) {
			continue
		}
		k := cellKey{lat: binOf(inc.Lat, cs, 90), lon: binOf(inc.Lon, cs, 180)}
		i, ok := index[k]
		if !ok {
			i = len(cells)
			index[k] = i
			cells = append(cells, model.GridCell{
				LatBin:    k.lat,
				LonBin:    k.lon,
				CenterLat: float64(k.lat)*cs + cs/2,
				CenterLon: float64(k.lon)*cs + cs/2,
			})
		}
		affected := inc.TotalAffected
		if math.IsNaN(affected) {
			affected = 0
		}
		cells[i].AggregateAffected += affected
		cells[i].Count++
	}
	for i := range cells {
		in := scale.Intensity(cells[i].AggregateAffected)
		cells[i].Intensity = in.Adjusted
		cells[i].Color = Ramp(in.Adjusted)
	}
	return cells
}

// binOf is floor(x/cs), with x == limit folded into the last bin.
func binOf(x, cs, limit float64) int {
	b := int(math.Floor(x / cs))
	if float64(b)*cs >= limit {
		b--
	}
	return b
}

// Layer is the renderer-facing buffer set for a heatmap, index-aligned with
// the cells it was built from.
type Layer struct {
	Positions []float64 `json:"positions"`
	UVs       []float64 `json:"uvs"`
	Colors    []float64 `json:"colors"`
}

// Len returns the number of markers in the layer.
func (l Layer) Len() int { return len(l.Colors) / 3 }

// Buffers places each cell center through the coordinate mapper.
func Buffers(cells []model.GridCell, radius float64) Layer {
	l := Layer{
		Positions: make([]float64, 0, 3*len(cells)),
		UVs:       make([]float64, 0, 2*len(cells)),
		Colors:    make([]float64, 0, 3*len(cells)),
	}
	for _, c := range cells {
		p := geo.LatLonToXYZ(c.CenterLat, c.CenterLon, radius)
		uv := geo.LatLonToUV(c.CenterLat, c.CenterLon)
		l.Positions = append(l.Positions, p.X, p.Y, p.Z)
		l.UVs = append(l.UVs, uv.U, uv.V)
		l.Colors = append(l.Colors, c.Color.R, c.Color.G, c.Color.B)
	}
	return l
}
