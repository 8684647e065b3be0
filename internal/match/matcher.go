// Package match assigns agents and households to capacity-constrained
// healthcare facilities by distance- and capacity-weighted random
// selection. Three variants share one algorithm shape: household
// catchment assignment, daily acute-encounter matching, and quota-gated
// primary-care panel assignment.
package match

import (
	"log/slog"

	"github.com/epicast/synthplaces/internal/agent"
	"github.com/epicast/synthplaces/internal/config"
	"github.com/epicast/synthplaces/internal/entropy"
	"github.com/epicast/synthplaces/internal/geo"
	"github.com/epicast/synthplaces/internal/grid"
	"github.com/epicast/synthplaces/internal/place"
)

// nearbyHospitalRadius is the patch radius searched for catchment
// candidates around a household.
const nearbyHospitalRadius = 5

// Matcher holds the collaborators the three matching variants share.
type Matcher struct {
	cfg   *config.Config
	reg   *place.Registry
	grid  *grid.Regional
	src   *entropy.Source
	Quota *Quota

	pop *agent.Population
}

// New creates a matcher over the loaded registry and grid.
func New(cfg *config.Config, reg *place.Registry, g *grid.Regional, pop *agent.Population, src *entropy.Source) *Matcher {
	return &Matcher{
		cfg:   cfg,
		reg:   reg,
		grid:  g,
		src:   src,
		pop:   pop,
		Quota: NewQuota(),
	}
}

// HospitalForHousehold picks a visitation hospital for the household of
// per: nearby candidates, eligibility by open beds at day 0, weight
// beds/distance. Clinics are excluded; catchment is for admissions.
// Returns nil when no candidate is eligible.
func (m *Matcher) HospitalForHousehold(per *agent.Person, checkInsurance bool) *place.Place {
	hh := m.reg.Get(per.HouseholdID)
	if hh == nil {
		panic("match: person without household")
	}

	patch := m.grid.PatchFor(hh.Lat, hh.Lon)
	candidates := m.grid.NearbyHospitals(patch, hh.Lat, hh.Lon, nearbyHospitalRadius)
	if len(candidates) == 0 {
		slog.Warn("no nearby hospitals for household", "household", hh.Label)
		return nil
	}

	weights := make([]float64, len(candidates))
	eligible := 0
	for i, h := range candidates {
		d := geo.DistanceKm(hh.Lat, hh.Lon, h.Lat, h.Lon)
		cap := h.Hosp.Beds
		if d <= 0 || h.IsClinic() || !h.Hosp.Open(0) || h.Hosp.OccupiedBeds >= cap {
			continue
		}
		if checkInsurance && !h.Hosp.Accepted.Accepts(per.Insurance) {
			continue
		}
		weights[i] = float64(cap) / d
		eligible++
	}

	if i := pickWeighted(weights, eligible, m.src.Float()); i >= 0 {
		return candidates[i]
	}
	return nil
}

// OpenFacility picks a hospital or clinic for an acute encounter on a
// simulated day: open, under daily patient capacity, optionally within
// the hospitalization radius and accepting the person's insurance.
// Weight is capacity/distance squared, so acute care concentrates on
// nearby facilities more strongly than catchment does.
func (m *Matcher) OpenFacility(day int, per *agent.Person, checkInsurance, useRadius bool) *place.Place {
	return m.drawOverAllHospitals(per, checkInsurance, useRadius, func(h *place.Place, d float64) (float64, bool) {
		cap := h.Hosp.Capacity(day)
		if !h.Hosp.Open(day) || h.Hosp.DailyPatients >= cap {
			return 0, false
		}
		return float64(cap) / (d * d), true
	})
}

// PrimaryCareFacility picks a primary-care facility subject to panel
// quota headroom. Prepares the quota map lazily on first use. The
// caller records the pick with Quota.Assign.
func (m *Matcher) PrimaryCareFacility(per *agent.Person, checkInsurance, useRadius bool) *place.Place {
	if !m.Quota.Prepared() {
		m.Quota.Prepare(m.reg, m.pop.Len(), m.cfg.OverallPanelSize)
	}
	return m.drawOverAllHospitals(per, checkInsurance, useRadius, func(h *place.Place, d float64) (float64, bool) {
		if !h.Hosp.Open(0) || !m.Quota.HasHeadroom(h.ID) {
			return 0, false
		}
		return float64(h.Hosp.Capacity(0)) / (d * d), true
	})
}

// drawOverAllHospitals applies the shared eligibility frame (positive
// distance, radius and insurance gates) plus a variant-specific
// predicate over the full hospital list, then draws.
func (m *Matcher) drawOverAllHospitals(per *agent.Person, checkInsurance, useRadius bool, weight func(h *place.Place, d float64) (float64, bool)) *place.Place {
	hh := m.reg.Get(per.HouseholdID)
	if hh == nil {
		panic("match: person without household")
	}
	n := m.reg.Hospitals()
	if n == 0 {
		slog.Warn("no hospitals in simulation")
		return nil
	}

	weights := make([]float64, n)
	eligible := 0
	for i := 0; i < n; i++ {
		h := m.reg.HospitalAt(i)
		d := geo.DistanceKm(hh.Lat, hh.Lon, h.Lat, h.Lon)
		if d <= 0 {
			continue
		}
		if useRadius && d > m.cfg.HospitalizationRadiusKm {
			continue
		}
		if checkInsurance && !h.Hosp.Accepted.Accepts(per.Insurance) {
			continue
		}
		w, ok := weight(h, d)
		if !ok {
			continue
		}
		weights[i] = w
		eligible++
	}

	if i := pickWeighted(weights, eligible, m.src.Float()); i >= 0 {
		return m.reg.HospitalAt(i)
	}
	return nil
}

// pickWeighted normalizes weights to a distribution and walks the
// cumulative sum until it exceeds draw. Returns -1 when nothing is
// eligible; a numerical edge falls back to the last candidate.
func pickWeighted(weights []float64, eligible int, draw float64) int {
	if eligible == 0 || len(weights) == 0 {
		return -1
	}
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return len(weights) - 1
	}

	cum := 0.0
	for i, w := range weights {
		cum += w / total
		if draw < cum {
			return i
		}
	}
	return len(weights) - 1
}
