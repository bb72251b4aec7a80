// Package geo implements the spherical distance math behind the nearby
// complaints query: a cheap bounding box for the SQL prefilter and an exact
// haversine check applied to the candidates it returns.
package geo

import "math"

// EarthRadiusKm is the mean earth radius used for spherical distance.
const EarthRadiusKm = 6371.0088

// DistanceKm returns the great-circle distance between two points in
// kilometers using the haversine formula.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)

	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

// Box is a latitude/longitude bounding box. Longitude bounds are always
// within [-180, 180]; when the box crosses the antimeridian MinLon is
// greater than MaxLon and the box covers [MinLon, 180] plus [-180, MaxLon].
type Box struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// Wraps reports whether the box crosses the antimeridian, i.e. whether its
// longitude range is the union of two intervals.
func (b Box) Wraps() bool { return b.MinLon > b.MaxLon }

// BoundingBox returns a box guaranteed to contain every point within
// radiusKm of the center. Near the poles the longitude span degenerates;
// we widen it to the full range rather than produce a box that misses points.
// A box straddling ±180° longitude comes back in wrapped form (see Box).
func BoundingBox(lat, lon, radiusKm float64) Box {
	dLat := degrees(radiusKm / EarthRadiusKm)

	box := Box{
		MinLat: lat - dLat,
		MaxLat: lat + dLat,
	}

	cos := math.Cos(radians(lat))
	if cos <= 1e-9 || box.MinLat < -89 || box.MaxLat > 89 {
		box.MinLon, box.MaxLon = -180, 180
		return box
	}

	dLon := degrees(radiusKm / (EarthRadiusKm * cos))
	if dLon >= 180 {
		box.MinLon, box.MaxLon = -180, 180
		return box
	}
	box.MinLon = wrapLon(lon - dLon)
	box.MaxLon = wrapLon(lon + dLon)
	return box
}

// wrapLon folds a longitude that overflowed one side of ±180° back onto the
// other. BoundingBox never produces spans wider than 360°, so one fold is
// enough.
func wrapLon(lon float64) float64 {
	switch {
	case lon < -180:
		return lon + 360
	case lon > 180:
		return lon - 360
	}
	return lon
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }
