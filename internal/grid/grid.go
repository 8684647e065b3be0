// Package grid provides the regional patch index: a coarse lat/lon cell
// grid over the loaded region used for proximity queries, both nearby
// hospitals for catchment matching and nearby donor workplaces for
// institutional staffing.
package grid

import (
	"log/slog"
	"math"

	"github.com/epicast/synthplaces/internal/geo"
	"github.com/epicast/synthplaces/internal/place"
)

// Patch is one cell of the regional grid.
type Patch struct {
	Row, Col   int
	Workplaces []int
	Hospitals  []int
}

// Regional is the patch grid covering the registry's bounding box.
type Regional struct {
	reg     *place.Registry
	minLat  float64
	minLon  float64
	dLat    float64 // patch height in degrees
	dLon    float64 // patch width in degrees
	rows    int
	cols    int
	patches []*Patch

	// Donor workplaces already consumed by staffing.
	consumed map[int]bool
}

// Build constructs the grid from the registry bounds and indexes every
// workplace and hospital into its owning patch.
func Build(reg *place.Registry, patchSizeKm float64) *Regional {
	b := reg.Bounds
	if !b.Valid() {
		slog.Warn("regional grid built over empty bounds")
	}

	g := &Regional{
		reg:      reg,
		minLat:   b.MinLat,
		minLon:   b.MinLon,
		dLat:     patchSizeKm / geo.KmPerDegLat,
		dLon:     patchSizeKm / geo.KmPerDegLonScale(),
		consumed: make(map[int]bool),
	}
	g.rows = int((b.MaxLat-b.MinLat)/g.dLat) + 1
	g.cols = int((b.MaxLon-b.MinLon)/g.dLon) + 1
	if g.rows < 1 {
		g.rows = 1
	}
	if g.cols < 1 {
		g.cols = 1
	}
	g.patches = make([]*Patch, g.rows*g.cols)
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			g.patches[r*g.cols+c] = &Patch{Row: r, Col: c}
		}
	}

	for i := 0; i < reg.Workplaces(); i++ {
		w := reg.WorkplaceAt(i)
		if p := g.PatchFor(w.Lat, w.Lon); p != nil {
			p.Workplaces = append(p.Workplaces, w.ID)
		}
	}
	for i := 0; i < reg.Hospitals(); i++ {
		h := reg.HospitalAt(i)
		if p := g.PatchFor(h.Lat, h.Lon); p != nil {
			p.Hospitals = append(p.Hospitals, h.ID)
		}
	}

	slog.Info("regional grid built", "rows", g.rows, "cols", g.cols,
		"patch_km", patchSizeKm)
	return g
}

// PatchFor returns the patch owning (lat, lon), or nil when the point
// falls outside the region.
func (g *Regional) PatchFor(lat, lon float64) *Patch {
	row := int(math.Floor((lat - g.minLat) / g.dLat))
	col := int(math.Floor((lon - g.minLon) / g.dLon))
	if row < 0 || row >= g.rows || col < 0 || col >= g.cols {
		return nil
	}
	return g.patches[row*g.cols+col]
}

// NearbyHospitals enumerates hospitals in all patches within radius
// patches (Chebyshev) of the given patch, ordered nearest-first by
// distance to (lat, lon).
func (g *Regional) NearbyHospitals(p *Patch, lat, lon float64, radius int) []*place.Place {
	if p == nil {
		return nil
	}
	var found []*place.Place
	for r := p.Row - radius; r <= p.Row+radius; r++ {
		for c := p.Col - radius; c <= p.Col+radius; c++ {
			if r < 0 || r >= g.rows || c < 0 || c >= g.cols {
				continue
			}
			for _, id := range g.patches[r*g.cols+c].Hospitals {
				found = append(found, g.reg.Get(id))
			}
		}
	}
	// Stable nearest-first ordering keeps weighted draws reproducible.
	sortByDistance(found, lat, lon)
	return found
}

// NearbyWorkplace finds an unconsumed donor workplace near the target
// whose worker count best matches the desired staff size, searching
// outward ring by ring. The chosen donor is marked consumed. Returns
// nil when the search exhausts the grid.
func (g *Regional) NearbyWorkplace(target *place.Place, desired int) *place.Place {
	origin := g.PatchFor(target.Lat, target.Lon)
	if origin == nil {
		return nil
	}

	maxRadius := g.rows
	if g.cols > maxRadius {
		maxRadius = g.cols
	}

	for radius := 0; radius <= maxRadius; radius++ {
		var best *place.Place
		bestDiff := math.MaxFloat64
		for r := origin.Row - radius; r <= origin.Row+radius; r++ {
			for c := origin.Col - radius; c <= origin.Col+radius; c++ {
				if r < 0 || r >= g.rows || c < 0 || c >= g.cols {
					continue
				}
				// Only the new ring, not patches seen at smaller radii.
				if abs(r-origin.Row) != radius && abs(c-origin.Col) != radius {
					continue
				}
				for _, id := range g.patches[r*g.cols+c].Workplaces {
					w := g.reg.Get(id)
					if g.consumed[id] || w.ID == target.ID || len(w.Work.Workers) == 0 {
						continue
					}
					diff := math.Abs(float64(len(w.Work.Workers) - desired))
					if diff < bestDiff {
						bestDiff = diff
						best = w
					}
				}
			}
		}
		if best != nil {
			g.consumed[best.ID] = true
			return best
		}
	}
	return nil
}

func sortByDistance(places []*place.Place, lat, lon float64) {
	// Insertion sort: candidate sets are small (a few patches' worth).
	for i := 1; i < len(places); i++ {
		p := places[i]
		d := geo.DistanceKm(lat, lon, p.Lat, p.Lon)
		j := i - 1
		for j >= 0 && geo.DistanceKm(lat, lon, places[j].Lat, places[j].Lon) > d {
			places[j+1] = places[j]
			j--
		}
		places[j+1] = p
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
