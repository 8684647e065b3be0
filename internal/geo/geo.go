// Package geo provides planar distance on latitude/longitude pairs and
// the running bounding box used to size the regional grid.
package geo

import "math"

// Kilometers per degree of latitude, and per degree of longitude at the
// mean latitude of the continental US.
const (
	KmPerDegLat = 111.32
	meanUSLat   = 38.5
)

var kmPerDegLon = KmPerDegLat * math.Cos(meanUSLat*math.Pi/180.0)

// SetProjectionLatitude recalibrates the longitude scale to a region's
// mean latitude. Called once after the bounding box is known.
func SetProjectionLatitude(lat float64) {
	kmPerDegLon = KmPerDegLat * math.Cos(lat*math.Pi/180.0)
}

// KmPerDegLon reports the current longitude scale in km per degree.
func KmPerDegLonScale() float64 {
	return kmPerDegLon
}

// DistanceKm returns the planar distance in km between two coordinates.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dy := (lat1 - lat2) * KmPerDegLat
	dx := (lon1 - lon2) * kmPerDegLon
	return math.Sqrt(dx*dx + dy*dy)
}

// Bounds tracks the running min/max of observed coordinates.
// Zero coordinates are ignored; they mark places with no location.
type Bounds struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
	seen           bool
}

// NewBounds returns an empty bounding box.
func NewBounds() *Bounds {
	return &Bounds{MinLat: 999, MinLon: 999, MaxLat: -999, MaxLon: -999}
}

// Extend widens the box to include (lat, lon).
func (b *Bounds) Extend(lat, lon float64) {
	if lat != 0 {
		if lat < b.MinLat {
			b.MinLat = lat
		}
		if lat > b.MaxLat {
			b.MaxLat = lat
		}
		b.seen = true
	}
	if lon != 0 {
		if lon < b.MinLon {
			b.MinLon = lon
		}
		if lon > b.MaxLon {
			b.MaxLon = lon
		}
		b.seen = true
	}
}

// Valid reports whether any coordinate has been observed.
func (b *Bounds) Valid() bool {
	return b.seen && b.MinLat <= b.MaxLat && b.MinLon <= b.MaxLon
}

// MeanLat returns the latitude midpoint of the box.
func (b *Bounds) MeanLat() float64 {
	return (b.MinLat + b.MaxLat) / 2.0
}
