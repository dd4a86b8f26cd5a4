// Package geo maps geographic coordinates onto the rendered globe.
//
// Two spaces are involved: Cartesian positions on a sphere (used for vertex
// buffers and camera framing) and the globe mesh's UV texture space (used for
// hover queries). Both derive from the same angles:
//
//	phi   = (90 - lat) in radians   (polar angle from +Y)
//	theta = -lon in radians         (azimuth in the XZ plane)
//
// LatLonToUV must agree with SurfaceUV, the rule used to UV-map the globe
// mesh, or hover aggregation lands in the wrong place.
package geo

import (
	"math"

	"github.com/vanderheijden86/aidglobe/pkg/model"
)

const deg2rad = math.Pi / 180

// angles returns (phi, theta) for a lat/lon in degrees.
func angles(lat, lon float64) (phi, theta float64) {
	return (90 - lat) * deg2rad, -lon * deg2rad
}

// LatLonToXYZ places lat/lon on a sphere of the given radius, +Y up.
func LatLonToXYZ(lat, lon, radius float64) model.GeoPoint {
	phi, theta := angles(lat, lon)
	sinPhi := math.Sin(phi)
	return model.GeoPoint{
		X: radius * sinPhi * math.Cos(theta),
		Y: radius * math.Cos(phi),
		Z: radius * sinPhi * math.Sin(theta),
	}
}

// LatLonToUV returns the globe texture coordinate for lat/lon.
func LatLonToUV(lat, lon float64) model.UVPoint {
	phi, theta := angles(lat, lon)
	return uvFromAngles(phi, theta)
}

func uvFromAngles(phi, theta float64) model.UVPoint {
	return model.UVPoint{
		U: 1 - (theta+math.Pi)/(2*math.Pi),
		V: 1 - phi/math.Pi,
	}
}

// SurfaceUV is the per-vertex UV rule of the globe mesh: the texture
// coordinate is recovered from the vertex direction alone. At the poles the
// azimuth is undefined and U collapses to 0.5.
func SurfaceUV(p model.GeoPoint) model.UVPoint {
	r := math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
	if r == 0 {
		return model.UVPoint{U: 0.5, V: 0.5}
	}
	theta := math.Atan2(p.Z, p.X)
	phi := math.Acos(clamp(p.Y/r, -1, 1))
	return uvFromAngles(phi, theta)
}

// SphereUVs computes the UV attribute for a packed xyz vertex buffer, two
// floats per vertex.
func SphereUVs(positions []float64) []float64 {
	n := len(positions) / 3
	out := make([]float64, 2*n)
	for i := 0; i < n; i++ {
		uv := SurfaceUV(model.GeoPoint{X: positions[3*i], Y: positions[3*i+1], Z: positions[3*i+2]})
		out[2*i] = uv.U
		out[2*i+1] = uv.V
	}
	return out
}

// XYZToLatLon inverts LatLonToXYZ (radius is discarded).
func XYZToLatLon(p model.GeoPoint) model.LatLon {
	r := math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
	if r == 0 {
		return model.LatLon{}
	}
	phi := math.Acos(clamp(p.Y/r, -1, 1))
	theta := math.Atan2(p.Z, p.X)
	return model.LatLon{Lat: 90 - phi/deg2rad, Lon: -theta / deg2rad}
}

// UVToLatLon inverts LatLonToUV.
func UVToLatLon(uv model.UVPoint) model.LatLon {
	phi := (1 - uv.V) * math.Pi
	theta := (1-uv.U)*2*math.Pi - math.Pi
	return model.LatLon{Lat: 90 - phi/deg2rad, Lon: -theta / deg2rad}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Framing is the camera placement that centers a lat/lon on screen.
type Framing struct {
	Camera model.GeoPoint
	// Yaw is the globe group's rotation about +Y, in radians.
	Yaw float64
}

// FrameLatLon positions the camera at distance along the lat/lon direction,
// looking at the globe center.
func FrameLatLon(ll model.LatLon, distance float64) Framing {
	_, theta := angles(ll.Lat, ll.Lon)
	return Framing{Camera: LatLonToXYZ(ll.Lat, ll.Lon, distance), Yaw: theta}
}
