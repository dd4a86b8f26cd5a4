package model

import (
	"fmt"
	"strings"
)

// GeoPoint is a Cartesian position on a sphere of some radius.
type GeoPoint struct {
	X, Y, Z float64
}

// UVPoint is a texture-space coordinate in [0,1]x[0,1].
type UVPoint struct {
	U, V float64
}

// LatLon is a geographic coordinate in degrees.
type LatLon struct {
	Lat float64 `yaml:"lat" json:"lat"`
	Lon float64 `yaml:"lon" json:"lon"`
}

// RGB is a color with channels in [0,1].
type RGB struct {
	R, G, B float64
}

// MarshalYAML writes the color as a [r, g, b] list.
func (c RGB) MarshalYAML() (interface{}, error) {
	return []float64{c.R, c.G, c.B}, nil
}

// UnmarshalYAML reads a [r, g, b] list.
func (c *RGB) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var ch []float64
	if err := unmarshal(&ch); err != nil {
		return err
	}
	if len(ch) != 3 {
		return fmt.Errorf("color needs 3 channels, got %d", len(ch))
	}
	*c = RGB{R: ch[0], G: ch[1], B: ch[2]}
	return nil
}

// ColorMode selects how the filter engine colors incidents.
type ColorMode int

const (
	ColorSingle ColorMode = iota
	ColorDualDecade
	ColorByActor
	ColorByOrg
	ColorByGender
	ColorHeatmap
)

var colorModeNames = [...]string{"single", "dual", "actor", "org", "gender", "heatmap"}

func (m ColorMode) String() string {
	if m < 0 || int(m) >= len(colorModeNames) {
		return "unknown"
	}
	return colorModeNames[m]
}

// ParseColorMode accepts the String() form plus a few long-form aliases.
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single", "":
		return ColorSingle, nil
	case "dual", "dual-by-decade", "decade":
		return ColorDualDecade, nil
	case "actor", "by-actor":
		return ColorByActor, nil
	case "org", "by-org", "organization":
		return ColorByOrg, nil
	case "gender", "by-gender", "by-gender-majority":
		return ColorByGender, nil
	case "heatmap", "heat":
		return ColorHeatmap, nil
	}
	return ColorSingle, fmt.Errorf("unknown color mode %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m ColorMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *ColorMode) UnmarshalText(b []byte) error {
	parsed, err := ParseColorMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Layer is the render layer visible for a chapter.
type Layer int

const (
	LayerPoints Layer = iota
	LayerHeatmap
)

func (l Layer) String() string {
	if l == LayerHeatmap {
		return "heatmap"
	}
	return "points"
}

// MarshalText implements encoding.TextMarshaler.
func (l Layer) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Layer) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "points", "":
		*l = LayerPoints
	case "heatmap":
		*l = LayerHeatmap
	default:
		return fmt.Errorf("unknown layer %q", string(b))
	}
	return nil
}

// FilterState is the set of inputs to the filter engine. MinYear > MaxYear is
// allowed and simply matches nothing.
type FilterState struct {
	MinYear   int       `json:"min_year"`
	MaxYear   int       `json:"max_year"`
	Orgs      OrgSet    `json:"orgs"`
	ColorMode ColorMode `json:"color_mode"`
}

// Matches applies the shared inclusion predicate.
func (f FilterState) Matches(inc *Incident) bool {
	return inc.InYearRange(f.MinYear, f.MaxYear) && inc.InvolvesAny(f.Orgs)
}

// FilteredView is the renderable subset produced by one filter pass. All four
// slices are index-aligned: record i has position Positions[3i:3i+3], UV
// UVs[2i:2i+2] and color Colors[3i:3i+3].
type FilteredView struct {
	Records   []*Incident
	Positions []float64
	UVs       []float64
	Colors    []float64
}

// Len returns the number of records in the view.
func (v *FilteredView) Len() int {
	if v == nil {
		return 0
	}
	return len(v.Records)
}

// UV returns the UV of record i.
func (v *FilteredView) UV(i int) UVPoint {
	return UVPoint{U: v.UVs[2*i], V: v.UVs[2*i+1]}
}

// Position returns the position of record i.
func (v *FilteredView) Position(i int) GeoPoint {
	return GeoPoint{X: v.Positions[3*i], Y: v.Positions[3*i+1], Z: v.Positions[3*i+2]}
}

// Color returns the color of record i.
func (v *FilteredView) Color(i int) RGB {
	return RGB{R: v.Colors[3*i], G: v.Colors[3*i+1], B: v.Colors[3*i+2]}
}

// GridCell is one heatmap bucket.
type GridCell struct {
	LatBin            int     `json:"lat_bin"`
	LonBin            int     `json:"lon_bin"`
	CenterLat         float64 `json:"center_lat"`
	CenterLon         float64 `json:"center_lon"`
	AggregateAffected float64 `json:"aggregate_affected"`
	Count             int     `json:"count"`
	Intensity         float64 `json:"intensity"`
	Color             RGB     `json:"color"`
}
