// Package filter turns the record store into renderable point sets.
//
// Every call rebuilds its output from scratch. Callers swap the returned
// view in whole; nothing here mutates a previously returned view.
package filter

import (
	"github.com/vanderheijden86/aidglobe/pkg/geo"
	"github.com/vanderheijden86/aidglobe/pkg/metrics"
	"github.com/vanderheijden86/aidglobe/pkg/model"
	"github.com/vanderheijden86/aidglobe/pkg/store"
)

// Apply selects store records matching st and builds index-aligned
// position, UV and color buffers from the store's geometry caches.
func Apply(s *store.Store, st model.FilterState, p Palette) *model.FilteredView {
	defer metrics.Timer(metrics.FilterApply)()

	if s == nil || st.Orgs.IsEmpty() {
		return emptyView()
	}
	records := s.Records()
	positions := s.Positions()
	uvs := s.UVs()

	v := newView(len(records))
	for i, inc := range records {
		if !st.Matches(inc) {
			continue
		}
		c := p.Color(inc, st.ColorMode)
		v.Records = append(v.Records, inc)
		v.Positions = append(v.Positions, positions[3*i:3*i+3]...)
		v.UVs = append(v.UVs, uvs[2*i:2*i+2]...)
		v.Colors = append(v.Colors, c.R, c.G, c.B)
	}
	return v
}

// ApplyRecords is Apply over a raw record slice. Geometry is computed at
// radius; records without valid coordinates never match.
func ApplyRecords(records []*model.Incident, st model.FilterState, p Palette, radius float64) *model.FilteredView {
	defer metrics.Timer(metrics.FilterApply)()

	if st.Orgs.IsEmpty() {
		return emptyView()
	}
	v := newView(len(records))
	for _, inc := range records {
		if inc == nil || !inc.GeoOK || !st.Matches(inc) {
			continue
		}
		pt := geo.LatLonToXYZ(inc.Lat, inc.Lon, radius)
		uv := geo.LatLonToUV(inc.Lat, inc.Lon)
		c := p.Color(inc, st.ColorMode)
		v.Records = append(v.Records, inc)
		v.Positions = append(v.Positions, pt.X, pt.Y, pt.Z)
		v.UVs = append(v.UVs, uv.U, uv.V)
		v.Colors = append(v.Colors, c.R, c.G, c.B)
	}
	return v
}

func newView(capHint int) *model.FilteredView {
	// Most filters keep a fraction of the table.
	if capHint > 256 {
		capHint /= 4
	}
	return &model.FilteredView{
		Records:   make([]*model.Incident, 0, capHint),
		Positions: make([]float64, 0, 3*capHint),
		UVs:       make([]float64, 0, 2*capHint),
		Colors:    make([]float64, 0, 3*capHint),
	}
}

func emptyView() *model.FilteredView {
	return newView(0)
}
