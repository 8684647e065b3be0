// Package shelter assigns stochastic shelter and evacuation windows to
// households, and schedules mobile clinic activation for disaster runs.
package shelter

import (
	"log/slog"

	"github.com/epicast/synthplaces/internal/config"
	"github.com/epicast/synthplaces/internal/entropy"
	"github.com/epicast/synthplaces/internal/place"
)

// Scheduler runs the one-time shelter or evacuation selection pass.
type Scheduler struct {
	cfg *config.Config
	reg *place.Registry
	src *entropy.Source
}

// New creates a scheduler.
func New(cfg *config.Config, reg *place.Registry, src *entropy.Source) *Scheduler {
	return &Scheduler{cfg: cfg, reg: reg, src: src}
}

// SelectForShelter picks the sheltering subset of households and gives
// each a stochastic window. With HighIncomeShelter the subset is the
// highest-income tail of the income-sorted household list, otherwise a
// uniformly shuffled random subset.
func (s *Scheduler) SelectForShelter() {
	n := s.reg.Households()
	count := int(0.5 + s.cfg.PctSheltering*float64(n))
	if count > n {
		count = n
	}
	if count <= 0 {
		return
	}

	if s.cfg.HighIncomeShelter {
		// Households are sorted by ascending income during setup; the
		// richest occupy the tail of the list.
		for i := n - count; i < n; i++ {
			s.shelterHousehold(s.reg.HouseholdAt(i))
		}
	} else {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		s.src.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		for _, i := range idx[:count] {
			s.shelterHousehold(s.reg.HouseholdAt(i))
		}
	}
	slog.Info("households selected for shelter", "count", count,
		"high_income", s.cfg.HighIncomeShelter)
}

// shelterHousehold draws the start day and duration for one household.
func (s *Scheduler) shelterHousehold(hh *place.Place) {
	hh.HH.Sheltering = true

	start := int(0.4999999 + s.src.Normal(s.cfg.ShelterDelayMean, s.cfg.ShelterDelayStd))
	if s.cfg.EarlyShelterRate > 0 {
		for s.src.Float() < s.cfg.EarlyShelterRate {
			start--
		}
	}
	if start < 0 {
		start = 0
	}
	hh.HH.ShelterStart = start

	duration := int(0.4999999 + s.src.Normal(s.cfg.ShelterDurationMean, s.cfg.ShelterDurationStd))
	if duration < 1 {
		duration = 1
	}
	if s.cfg.ShelterDecayRate > 0 && s.src.Float() < 0.5 {
		// Rebuild the duration as a decay walk: grow from one day while
		// the uniform draw stays above the decay rate, capped at the
		// configured mean.
		duration = 1
		for s.cfg.ShelterDecayRate < s.src.Float() {
			duration++
		}
		if float64(duration) > s.cfg.ShelterDurationMean {
			duration = int(s.cfg.ShelterDurationMean)
		}
	}
	hh.HH.ShelterEnd = start + duration
}

// SelectForEvacuation runs an independent Bernoulli trial for each
// household on each day of the evacuation window. A household whose
// trial fires evacuates that day; households that never fire stay put.
// The return day is drawn the same way over the return window, with the
// window's last day as the forced fallback, and must fall strictly
// after the evacuation day.
func (s *Scheduler) SelectForEvacuation() {
	evacStart := s.cfg.DisasterStartDay + s.cfg.EvacStartOffset
	evacEnd := s.cfg.DisasterStartDay + s.cfg.EvacEndOffset
	retStart := s.cfg.DisasterEndDay + s.cfg.ReturnStartOffset
	retEnd := s.cfg.DisasterEndDay + s.cfg.ReturnEndOffset
	if evacStart < 0 || evacEnd < evacStart {
		return
	}

	evacuating := 0
	for i := 0; i < s.reg.Households(); i++ {
		hh := s.reg.HouseholdAt(i)
		for day := evacStart; day <= evacEnd; day++ {
			if s.src.Float() >= s.cfg.EvacProbPerDay {
				continue
			}
			hh.HH.Sheltering = true
			hh.HH.ShelterStart = day
			evacuating++
			for ret := retStart; ret <= retEnd; ret++ {
				if (s.src.Float() < s.cfg.EvacProbPerDay || ret == retEnd) && ret > day {
					hh.HH.ShelterEnd = ret
					break
				}
			}
			break
		}
	}
	slog.Info("households scheduled for evacuation",
		"count", evacuating, "households", s.reg.Households(),
		"evac_window", [2]int{evacStart, evacEnd},
		"return_window", [2]int{retStart, retEnd})
}

// ActivateMobileClinics opens at most MobileClinicMax mobile clinics
// for the post-disaster window; any beyond the cap stay shut for the
// whole run.
func (s *Scheduler) ActivateMobileClinics() {
	var mobile []*place.Place
	for i := 0; i < s.reg.Hospitals(); i++ {
		h := s.reg.HospitalAt(i)
		if h.Subtype == place.SubtypeMobileClinic {
			mobile = append(mobile, h)
		}
	}
	if len(mobile) == 0 {
		return
	}

	active := len(mobile)
	if s.cfg.MobileClinicMax >= 0 && active > s.cfg.MobileClinicMax {
		active = s.cfg.MobileClinicMax
		s.src.Shuffle(len(mobile), func(i, j int) {
			mobile[i], mobile[j] = mobile[j], mobile[i]
		})
	}

	openDay := s.cfg.DisasterEndDay + s.cfg.MobileClinicOpenDelay
	closeDay := openDay + s.cfg.MobileClinicClosureDay
	for i, h := range mobile {
		if i < active {
			h.Hosp.OpenDay = openDay
			h.Hosp.CloseDay = closeDay
			h.Hosp.ActivationSet = true
		} else {
			// Never opens this run.
			h.Hosp.CloseDay = 0
		}
	}
	slog.Info("mobile clinics activated", "active", active,
		"total", len(mobile), "open_day", openDay, "close_day", closeDay)
}
