// Package staffing relocates workers from ordinary workplaces into
// institutional staff roles. The matching is greedy and single-pass: an
// institution asks the regional grid for one nearby donor workplace of
// roughly the right size and absorbs its entire roster, or goes
// unstaffed.
package staffing

import (
	"log/slog"

	"github.com/epicast/synthplaces/internal/agent"
	"github.com/epicast/synthplaces/internal/config"
	"github.com/epicast/synthplaces/internal/grid"
	"github.com/epicast/synthplaces/internal/place"
)

// Reassigner performs the one-time worker reassignment pass.
type Reassigner struct {
	cfg  *config.Config
	reg  *place.Registry
	grid *grid.Regional
	pop  *agent.Population
}

// New creates a reassigner.
func New(cfg *config.Config, reg *place.Registry, g *grid.Regional, pop *agent.Population) *Reassigner {
	return &Reassigner{cfg: cfg, reg: reg, grid: g, pop: pop}
}

// Reassign staffs schools, hospitals, and group-quarters workplaces,
// in that order. Runs once during setup, after the grid is built and
// group quarters are subdivided.
func (r *Reassigner) Reassign() {
	r.reassignSchools()
	r.reassignHospitals()
	r.reassignGroupQuarters(place.SubtypeCollege,
		r.cfg.CollegeFixedStaff, r.cfg.CollegeResidentStaffRatio)
	r.reassignGroupQuarters(place.SubtypePrison,
		r.cfg.PrisonFixedStaff, r.cfg.PrisonResidentStaffRatio)
	r.reassignGroupQuarters(place.SubtypeMilitaryBase,
		r.cfg.MilitaryFixedStaff, r.cfg.MilitaryResidentStaffRatio)
	r.reassignGroupQuarters(place.SubtypeNursingHome,
		r.cfg.NursingFixedStaff, r.cfg.NursingResidentStaffRatio)
}

func (r *Reassigner) reassignSchools() {
	staffed, unstaffed := 0, 0
	for i := 0; i < r.reg.Schools(); i++ {
		sch := r.reg.SchoolAt(i)
		students := 0
		for _, n := range sch.Sch.StudentsByGrade {
			students += n
		}
		need := StaffSize(r.cfg.SchoolFixedStaff, students, r.cfg.SchoolStudentTeacherRatio)
		if r.transfer(sch, need, true) {
			staffed++
		} else {
			unstaffed++
		}
	}
	slog.Info("schools staffed", "staffed", staffed, "unstaffed", unstaffed)
}

func (r *Reassigner) reassignHospitals() {
	staffed, unstaffed := 0, 0
	for i := 0; i < r.reg.Hospitals(); i++ {
		h := r.reg.HospitalAt(i)
		// Sized from the employee count carried in the input file, not
		// the bed count the ratio is named for.
		need := r.cfg.HospitalFixedStaff +
			roundHalfUp(float64(h.Hosp.Employees)*r.cfg.HospitalWorkerPerBed)
		if r.transfer(h, need, false) {
			staffed++
		} else {
			unstaffed++
		}
	}
	slog.Info("hospitals staffed", "staffed", staffed, "unstaffed", unstaffed)
}

// reassignGroupQuarters staffs every group-quarters workplace of the
// given subtype, sizing staff from the resident roster enrolled there.
func (r *Reassigner) reassignGroupQuarters(sub place.Subtype, fixed int, ratio float64) {
	staffed, unstaffed := 0, 0
	for i := 0; i < r.reg.Workplaces(); i++ {
		wp := r.reg.WorkplaceAt(i)
		if wp.Subtype != sub {
			continue
		}
		need := StaffSize(fixed, len(wp.Work.Workers), ratio)
		if r.transfer(wp, need, false) {
			staffed++
		} else {
			unstaffed++
		}
	}
	if staffed+unstaffed > 0 {
		slog.Info("group quarters staffed", "subtype", sub.String(),
			"staffed", staffed, "unstaffed", unstaffed)
	}
}

// transfer finds one donor workplace near target and moves its whole
// roster into staff roles there. Returns false when no donor exists.
func (r *Reassigner) transfer(target *place.Place, need int, teacher bool) bool {
	if r.grid.PatchFor(target.Lat, target.Lon) == nil {
		slog.Warn("institution outside region, skipping staffing",
			"place", target.Label)
		return false
	}
	donor := r.grid.NearbyWorkplace(target, need)
	if donor == nil {
		slog.Warn("no donor workplace found, institution unstaffed",
			"place", target.Label, "need", need)
		return false
	}

	// Copy the roster before moving anyone out of it.
	movers := make([]int, len(donor.Work.Workers))
	copy(movers, donor.Work.Workers)
	for _, pid := range movers {
		r.pop.MoveToWorkplace(pid, target.ID, teacher)
	}
	slog.Debug("workers reassigned", "from", donor.Label, "to", target.Label,
		"count", len(movers), "need", need)
	return true
}

// StaffSize is the target staff count for an institution of size n:
// fixed plus floor(0.5 + n/ratio). A ratio of zero contributes nothing
// beyond the fixed staff.
func StaffSize(fixed, n int, ratio float64) int {
	if ratio <= 0 {
		return fixed
	}
	return fixed + roundHalfUp(float64(n)/ratio)
}

func roundHalfUp(x float64) int {
	return int(0.5 + x)
}
