package geo

import "math"

// EarthRadiusMeters is the mean Earth radius (6371 km).
const EarthRadiusMeters = 6_371_000.0

const degToRad = math.Pi / 180

// Haversine returns the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * degToRad
	lat2r := lat2 * degToRad
	dLat := (lat2 - lat1) * degToRad
	dLon := (lon2 - lon1) * degToRad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// Box is a lat/lon bounding box in degrees.
type Box struct {
	MinLat, MinLon float64
	MaxLat, MaxLon float64
}

// CapBounds returns the bounding box of all points within radius meters of
// (lat, lon). ok is false when the cap touches a pole or crosses the
// antimeridian, in which case no single box describes it.
func CapBounds(lat, lon, radius float64) (box Box, ok bool) {
	ang := radius / EarthRadiusMeters
	if ang >= math.Pi/2 {
		return Box{}, false
	}
	dLat := ang / degToRad
	if lat+dLat >= 90 || lat-dLat <= -90 {
		return Box{}, false
	}

	// Longitude half-width of a spherical cap that stays clear of the poles.
	s := math.Sin(ang) / math.Cos(lat*degToRad)
	if s >= 1 {
		return Box{}, false
	}
	dLon := math.Asin(s) / degToRad
	if lon+dLon > 180 || lon-dLon < -180 {
		return Box{}, false
	}

	return Box{
		MinLat: lat - dLat, MinLon: lon - dLon,
		MaxLat: lat + dLat, MaxLon: lon + dLon,
	}, true
}
