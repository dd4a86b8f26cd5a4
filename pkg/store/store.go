// Package store holds the immutable incident table and its derived geometry.
package store

import (
	"fmt"
	"sort"

	"github.com/vanderheijden86/aidglobe/pkg/geo"
	"github.com/vanderheijden86/aidglobe/pkg/loader"
	"github.com/vanderheijden86/aidglobe/pkg/metrics"
	"github.com/vanderheijden86/aidglobe/pkg/model"
)

// DefaultSurfaceRadius lifts incident markers just above the globe body
// (radius 1.0) so they do not z-fight with the mesh.
const DefaultSurfaceRadius = 1.035

// Options configures Store construction.
type Options struct {
	// SurfaceRadius is the radius incident positions are placed at.
	SurfaceRadius float64
	// WarningHandler receives one message per dropped record. Nil uses
	// loader.DefaultWarningHandler.
	WarningHandler func(string)
}

// Store is the ingested incident table. Only records with valid coordinates
// are kept; positions and UVs are index-aligned with Records.
//
// A Store is never mutated after New returns. Reloading builds a new one.
type Store struct {
	records   []*model.Incident
	positions []float64
	uvs       []float64
	years     []int
	radius    float64
}

// New ingests incidents in input order.
func New(incidents []model.Incident, opts Options) *Store {
	defer metrics.Timer(metrics.Ingest)()
	radius := opts.SurfaceRadius
	if radius <= 0 {
		radius = DefaultSurfaceRadius
	}
	warn := opts.WarningHandler
	if warn == nil {
		warn = loader.DefaultWarningHandler()
	}

	s := &Store{
		records:   make([]*model.Incident, 0, len(incidents)),
		positions: make([]float64, 0, 3*len(incidents)),
		uvs:       make([]float64, 0, 2*len(incidents)),
		radius:    radius,
	}
	seen := make(map[int]struct{})
	for i := range incidents {
		inc := incidents[i]
		if !inc.GeoOK {
			warn(fmt.Sprintf("record %d (%s): missing or invalid latitude/longitude, skipped", i+1, model.OrDefault(inc.ID, "no id")))
			metrics.RecordsSkipped.Inc()
			continue
		}
		p := geo.LatLonToXYZ(inc.Lat, inc.Lon, radius)
		uv := geo.LatLonToUV(inc.Lat, inc.Lon)
		s.records = append(s.records, &inc)
		s.positions = append(s.positions, p.X, p.Y, p.Z)
		s.uvs = append(s.uvs, uv.U, uv.V)
		if inc.YearOK {
			if _, ok := seen[inc.Year]; !ok {
				seen[inc.Year] = struct{}{}
				s.years = append(s.years, inc.Year)
			}
		}
	}
	sort.Ints(s.years)
	metrics.RecordsIngested.Add(int64(len(s.records)))
	return s
}

// Len returns the number of ingested records.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// Records returns the ingested records. Callers must not modify them.
func (s *Store) Records() []*model.Incident { return s.records }

// RecordValues returns a copy of the records by value.
func (s *Store) RecordValues() []model.Incident {
	if s == nil {
		return nil
	}
	out := make([]model.Incident, len(s.records))
	for i, r := range s.records {
		out[i] = *r
	}
	return out
}

// Positions returns the packed xyz buffer for all records.
func (s *Store) Positions() []float64 { return s.positions }

// UVs returns the packed uv buffer for all records.
func (s *Store) UVs() []float64 { return s.uvs }

// Years returns the sorted distinct valid years.
func (s *Store) Years() []int { return s.years }

// SurfaceRadius is the radius records were placed at.
func (s *Store) SurfaceRadius() float64 { return s.radius }

// YearBounds returns the smallest and largest valid year. ok is false when
// no record carries a valid year.
func (s *Store) YearBounds() (min, max int, ok bool) {
	if s == nil || len(s.years) == 0 {
		return 0, 0, false
	}
	return s.years[0], s.years[len(s.years)-1], true
}

// Position returns the cached position of record i.
func (s *Store) Position(i int) model.GeoPoint {
	return model.GeoPoint{X: s.positions[3*i], Y: s.positions[3*i+1], Z: s.positions[3*i+2]}
}

// UV returns the cached UV of record i.
func (s *Store) UV(i int) model.UVPoint {
	return model.UVPoint{U: s.uvs[2*i], V: s.uvs[2*i+1]}
}
