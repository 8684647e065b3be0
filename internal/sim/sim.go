// Package sim orchestrates the place subsystem: setup sequencing, the
// per-day update pass, and run reporting.
package sim

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/epicast/synthplaces/internal/agent"
	"github.com/epicast/synthplaces/internal/config"
	"github.com/epicast/synthplaces/internal/entropy"
	"github.com/epicast/synthplaces/internal/geo"
	"github.com/epicast/synthplaces/internal/grid"
	"github.com/epicast/synthplaces/internal/loader"
	"github.com/epicast/synthplaces/internal/match"
	"github.com/epicast/synthplaces/internal/place"
	"github.com/epicast/synthplaces/internal/shelter"
	"github.com/epicast/synthplaces/internal/staffing"
)

// Simulation owns the shared state of one run.
type Simulation struct {
	Cfg *config.Config
	Reg *place.Registry
	Pop *agent.Population

	Grid    *grid.Regional
	Matcher *match.Matcher

	src *entropy.Source
}

// New creates an empty simulation bound to cfg.
func New(cfg *config.Config) *Simulation {
	reg := place.NewRegistry()
	return &Simulation{
		Cfg: cfg,
		Reg: reg,
		Pop: agent.NewPopulation(reg),
		src: entropy.New(cfg.Seed),
	}
}

// Setup loads the population and runs every one-time structural pass,
// in dependency order. Subdivision needs the full household list;
// reassignment needs subdivided group quarters and the grid; catchment
// assignment needs staffed hospitals.
func (s *Simulation) Setup() error {
	ld := loader.New(s.Cfg, s.Reg, s.Pop)
	if err := ld.ReadAll(); err != nil {
		return fmt.Errorf("load population: %w", err)
	}

	if s.Reg.Bounds.Valid() {
		geo.SetProjectionLatitude(s.Reg.Bounds.MeanLat())
	}
	s.Grid = grid.Build(s.Reg, s.Cfg.PatchSizeKm)

	place.SubdivideGroupQuarters(s.Reg, s.Pop)
	s.setupHouseholds()

	// Each stochastic phase draws from its own offset of the run seed,
	// so adding or removing one phase never shifts another's stream.
	if s.Cfg.DisasterEnabled {
		sched := shelter.New(s.Cfg, s.Reg, entropy.New(s.Cfg.Seed+1))
		sched.SelectForEvacuation()
		sched.ActivateMobileClinics()
	} else if s.Cfg.ShelterEnabled {
		shelter.New(s.Cfg, s.Reg, entropy.New(s.Cfg.Seed+1)).SelectForShelter()
	}

	staffing.New(s.Cfg, s.Reg, s.Grid, s.Pop).Reassign()

	s.Matcher = match.New(s.Cfg, s.Reg, s.Grid, s.Pop, entropy.New(s.Cfg.Seed+2))
	if err := s.Matcher.AssignHospitalsToHouseholds(); err != nil {
		return fmt.Errorf("hospital catchments: %w", err)
	}

	s.Reg.BuildGradeIndex()
	return nil
}

// setupHouseholds elects a householder for every occupied household,
// captures original sizes, and orders the household list by ascending
// income so the high-income sheltering tail is well defined.
func (s *Simulation) setupHouseholds() {
	for i := 0; i < s.Reg.Households(); i++ {
		hh := s.Reg.HouseholdAt(i)
		if hh.HH.OrigSize == 0 {
			hh.HH.OrigSize = len(hh.HH.Members)
		}
		if len(hh.HH.Members) == 0 {
			slog.Warn("household has no members", "household", hh.Label)
			continue
		}
		s.electHouseholder(hh)
	}

	ids := make([]int, s.Reg.Households())
	for i := range ids {
		ids[i] = s.Reg.HouseholdAt(i).ID
	}
	sort.SliceStable(ids, func(a, b int) bool {
		ia := s.Reg.Get(ids[a]).HH.Income
		ib := s.Reg.Get(ids[b]).HH.Income
		if ia != ib {
			return ia < ib
		}
		return ids[a] < ids[b]
	})
	s.Reg.ReorderHouseholds(ids)
}

// electHouseholder keeps an existing householder if one is present,
// otherwise promotes the oldest member.
func (s *Simulation) electHouseholder(hh *place.Place) {
	oldest := -1
	for _, pid := range hh.HH.Members {
		per := s.Pop.Get(pid)
		if per.Relationship == agent.RelHouseholder {
			return
		}
		if oldest < 0 || per.Age > s.Pop.Get(oldest).Age {
			oldest = pid
		}
	}
	s.Pop.Get(oldest).Relationship = agent.RelHouseholder
}

// Update runs the per-day pass: daily patient counters reset, and in
// disaster mode each sheltering household is pointed at an open
// facility for the day.
func (s *Simulation) Update(day int) {
	for i := 0; i < s.Reg.Hospitals(); i++ {
		s.Reg.HospitalAt(i).Hosp.DailyPatients = 0
	}

	if !s.Cfg.DisasterEnabled {
		return
	}
	for i := 0; i < s.Reg.Households(); i++ {
		hh := s.Reg.HouseholdAt(i)
		if !hh.HH.ShelteringOn(day) || len(hh.HH.Members) == 0 {
			continue
		}
		per := s.Pop.Get(hh.HH.Members[0])
		if h := s.Matcher.OpenFacility(day, per, s.Cfg.CheckInsurance, true); h != nil {
			hh.HH.HospitalID = h.ID
			h.Hosp.DailyPatients++
		}
	}
}

// DailyReport logs the day's open capacity and sheltering totals.
func (s *Simulation) DailyReport(day int) {
	openHosp, capacity := 0, 0
	for i := 0; i < s.Reg.Hospitals(); i++ {
		h := s.Reg.HospitalAt(i)
		if h.Hosp.Open(day) {
			openHosp++
			capacity += h.Hosp.Capacity(day)
		}
	}
	sheltering := 0
	for i := 0; i < s.Reg.Households(); i++ {
		if s.Reg.HouseholdAt(i).HH.ShelteringOn(day) {
			sheltering++
		}
	}
	slog.Info("daily report", "day", day,
		"open_hospitals", openHosp,
		"daily_capacity", humanize.Comma(int64(capacity)),
		"households_sheltering", humanize.Comma(int64(sheltering)))
}

// Summary logs end-of-run totals.
func (s *Simulation) Summary() {
	sheltered := 0
	shelterDays := 0
	for i := 0; i < s.Reg.Households(); i++ {
		hh := s.Reg.HouseholdAt(i)
		if hh.HH.Sheltering {
			sheltered++
			shelterDays += (hh.HH.ShelterEnd - hh.HH.ShelterStart) * len(hh.HH.Members)
		}
	}
	slog.Info("run summary",
		"places", humanize.Comma(int64(s.Reg.Len())),
		"people", humanize.Comma(int64(s.Pop.Len())),
		"households_sheltered", humanize.Comma(int64(sheltered)),
		"person_shelter_days", humanize.Comma(int64(shelterDays)))
}
