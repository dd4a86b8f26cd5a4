package export

import (
	"fmt"

	"github.com/vanderheijden86/aidglobe/pkg/model"
	"github.com/vanderheijden86/aidglobe/pkg/summary"
)

// MaxActorLegend caps the by-actor legend.
const MaxActorLegend = 8

// LegendEntry is one swatch of a map legend.
type LegendEntry struct {
	Label string    `json:"label"`
	Color model.RGB `json:"color"`
}

// heatLegendSteps are the affected-count stops shown for heat ramps.
var heatLegendSteps = []float64{1, 10, 100, 1000}

// Legend lists the swatches explaining the frame's colors.
func Legend(f Frame) []LegendEntry {
	p := f.Palette
	if f.Layer == model.LayerHeatmap || f.Filter.ColorMode == model.ColorHeatmap {
		out := make([]LegendEntry, 0, len(heatLegendSteps))
		for _, n := range heatLegendSteps {
			out = append(out, LegendEntry{Label: fmt.Sprintf("%g affected", n), Color: p.Heat.Color(n)})
		}
		return out
	}

	switch f.Filter.ColorMode {
	case model.ColorDualDecade:
		return []LegendEntry{
			{Label: fmt.Sprintf("before %d", p.DecadeThreshold), Color: p.Early},
			{Label: fmt.Sprintf("%d and later", p.DecadeThreshold), Color: p.Late},
		}
	case model.ColorByActor:
		return actorLegend(f)
	case model.ColorByOrg:
		var out []LegendEntry
		for _, o := range f.Filter.Orgs.Slice() {
			out = append(out, LegendEntry{Label: o.Column(), Color: p.OrgColor(o)})
		}
		return out
	case model.ColorByGender:
		return []LegendEntry{
			{Label: "mostly male", Color: p.Gender.Male},
			{Label: "mostly female", Color: p.Gender.Female},
			{Label: "unknown / tied", Color: p.Gender.Unknown},
		}
	default:
		return []LegendEntry{{Label: "incident", Color: p.Single}}
	}
}

// actorLegend lists actors in order of first appearance in the view.
func actorLegend(f Frame) []LegendEntry {
	var out []LegendEntry
	seen := make(map[string]bool)
	for i := 0; i < f.View.Len(); i++ {
		label := model.OrDefault(f.View.Records[i].ActorType, summary.UnknownLabel)
		key := model.NormalizeActor(label)
		if seen[key] {
			continue
		}
		seen[key] = true
		if len(out) == MaxActorLegend {
			out = append(out, LegendEntry{Label: "other actors", Color: f.Palette.Unknown})
			break
		}
		out = append(out, LegendEntry{Label: label, Color: f.Palette.ActorColor(label)})
	}
	return out
}
