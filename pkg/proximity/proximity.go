// Package proximity finds incidents near a hover point in UV space.
//
// The contract is shared by every search strategy: the result is the set of
// view indices whose UV lies strictly within radius (Euclidean, in UV units),
// in ascending index order.
package proximity

import (
	"math"

	"github.com/vanderheijden86/aidglobe/pkg/metrics"
	"github.com/vanderheijden86/aidglobe/pkg/model"
)

// DefaultRadius is the stock hover radius in UV units.
const DefaultRadius = 0.02

// Radius limits accepted from interactive controls.
const (
	MinRadius = 0.0025
	MaxRadius = 0.1
)

// ClampRadius bounds r to [MinRadius, MaxRadius]; NaN becomes DefaultRadius.
func ClampRadius(r float64) float64 {
	switch {
	case math.IsNaN(r):
		return DefaultRadius
	case r < MinRadius:
		return MinRadius
	case r > MaxRadius:
		return MaxRadius
	}
	return r
}

// Query scans every UV in the view.
func Query(v *model.FilteredView, q model.UVPoint, radius float64) []int {
	defer metrics.Timer(metrics.ProximityQuery)()
	metrics.BruteQueries.Inc()

	if !validRadius(radius) || v.Len() == 0 {
		return nil
	}
	r2 := radius * radius
	var out []int
	for i := 0; i < v.Len(); i++ {
		if within(v.UVs[2*i], v.UVs[2*i+1], q, r2) {
			out = append(out, i)
		}
	}
	return out
}

func within(u, v float64, q model.UVPoint, r2 float64) bool {
	du := u - q.U
	dv := v - q.V
	return du*du+dv*dv < r2
}

func validRadius(r float64) bool {
	return r > 0 && !math.IsNaN(r) && !math.IsInf(r, 0)
}
