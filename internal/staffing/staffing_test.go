package staffing

import (
	"testing"

	"github.com/epicast/synthplaces/internal/agent"
	"github.com/epicast/synthplaces/internal/config"
	"github.com/epicast/synthplaces/internal/grid"
	"github.com/epicast/synthplaces/internal/place"
)

func TestStaffSize(t *testing.T) {
	cases := []struct {
		fixed int
		n     int
		ratio float64
		want  int
	}{
		{2, 31, 15.5, 4},  // 2 + floor(0.5 + 2.0)
		{2, 0, 15.5, 2},   // empty institution keeps fixed staff
		{2, 100, 0, 2},    // zero ratio contributes nothing
		{1, 10, 3.0, 4},   // 1 + floor(0.5 + 3.33)
		{0, 7, 2.0, 4},    // floor(0.5 + 3.5)
		{2, 8, 16.0, 3},   // 2 + floor(0.5 + 0.5)
	}
	for _, c := range cases {
		if got := StaffSize(c.fixed, c.n, c.ratio); got != c.want {
			t.Errorf("StaffSize(%d, %d, %v) = %d, want %d",
				c.fixed, c.n, c.ratio, got, c.want)
		}
	}
}

// staffingFixture builds a school with students and a donor workplace
// with employed workers near it.
func staffingFixture(t *testing.T, donorWorkers int) (*Reassigner, *place.Place, *place.Place, *agent.Population) {
	t.Helper()
	cfg := config.Default()

	reg := place.NewRegistry()
	pop := agent.NewPopulation(reg)

	sch := reg.Add("S1", place.School, place.SubtypeNone, -79.90, 40.40, 0)
	sch.Sch.StudentsByGrade[5] = 31

	var donor *place.Place
	if donorWorkers > 0 {
		donor = reg.Add("W1", place.Workplace, place.SubtypeNone, -79.90, 40.41, 0)
		for i := 0; i < donorWorkers; i++ {
			per := pop.Add(35, -1, place.InsurancePrivate)
			per.WorkplaceID = donor.ID
			donor.Work.Workers = append(donor.Work.Workers, per.ID)
		}
	}

	g := grid.Build(reg, cfg.PatchSizeKm)
	return New(&cfg, reg, g, pop), sch, donor, pop
}

func TestReassignMovesWholeDonorRoster(t *testing.T) {
	r, sch, donor, pop := staffingFixture(t, 4)

	r.Reassign()

	if len(donor.Work.Workers) != 0 {
		t.Errorf("donor kept %d workers, want 0", len(donor.Work.Workers))
	}
	if len(sch.Sch.Teachers) != 4 {
		t.Fatalf("school has %d teachers, want 4", len(sch.Sch.Teachers))
	}
	for _, pid := range sch.Sch.Teachers {
		per := pop.Get(pid)
		if per.WorkplaceID != sch.ID {
			t.Errorf("teacher %d still works at %d", pid, per.WorkplaceID)
		}
		if !per.Teacher {
			t.Errorf("teacher %d not flagged as teaching staff", pid)
		}
	}
}

func TestReassignNoDonorLeavesUnstaffed(t *testing.T) {
	r, sch, _, _ := staffingFixture(t, 0)

	r.Reassign()

	if len(sch.Sch.Teachers) != 0 {
		t.Errorf("school gained %d teachers with no donors", len(sch.Sch.Teachers))
	}
}

// Hospital staff is sized from the employee count in the input file,
// not from beds. The best-fit donor search makes the two easy to tell
// apart: with 10 employees the target is 11, so the 11-worker donor
// wins over one sized like the bed count.
func TestReassignHospitalSizedFromEmployees(t *testing.T) {
	cfg := config.Default()
	reg := place.NewRegistry()
	pop := agent.NewPopulation(reg)

	hosp := reg.Add("M1", place.Hospital, place.SubtypeNone, -79.90, 40.40, 0)
	hosp.Hosp.Employees = 10
	hosp.Hosp.Beds = 400

	small := reg.Add("W1", place.Workplace, place.SubtypeNone, -79.90, 40.41, 0)
	large := reg.Add("W2", place.Workplace, place.SubtypeNone, -79.90, 40.41, 0)
	for i := 0; i < 11; i++ {
		per := pop.Add(35, -1, place.InsurancePrivate)
		per.WorkplaceID = small.ID
		small.Work.Workers = append(small.Work.Workers, per.ID)
	}
	for i := 0; i < 400; i++ {
		per := pop.Add(35, -1, place.InsurancePrivate)
		per.WorkplaceID = large.ID
		large.Work.Workers = append(large.Work.Workers, per.ID)
	}

	g := grid.Build(reg, cfg.PatchSizeKm)
	New(&cfg, reg, g, pop).Reassign()

	if len(small.Work.Workers) != 0 {
		t.Errorf("11-worker donor kept %d workers, want 0", len(small.Work.Workers))
	}
	if len(large.Work.Workers) != 400 {
		t.Errorf("bed-sized donor lost workers, has %d, want 400", len(large.Work.Workers))
	}
	for _, per := range []int{0, 5, 10} {
		if got := pop.Get(per).WorkplaceID; got != hosp.ID {
			t.Errorf("worker %d moved to %d, want hospital %d", per, got, hosp.ID)
		}
	}
}

func TestReassignGroupQuarters(t *testing.T) {
	cfg := config.Default()
	reg := place.NewRegistry()
	pop := agent.NewPopulation(reg)

	dorm := reg.Add("W800", place.Workplace, place.SubtypeCollege, -79.90, 40.40, 0)
	for i := 0; i < 16; i++ {
		per := pop.Add(20, -1, place.InsurancePrivate)
		per.WorkplaceID = dorm.ID
		dorm.Work.Workers = append(dorm.Work.Workers, per.ID)
	}
	donor := reg.Add("W1", place.Workplace, place.SubtypeNone, -79.90, 40.41, 0)
	for i := 0; i < 4; i++ {
		per := pop.Add(35, -1, place.InsurancePrivate)
		per.WorkplaceID = donor.ID
		donor.Work.Workers = append(donor.Work.Workers, per.ID)
	}

	g := grid.Build(reg, cfg.PatchSizeKm)
	New(&cfg, reg, g, pop).Reassign()

	// 16 residents at ratio 8 wants 2 + 2 staff; the donor of 4 is the
	// only candidate and moves wholesale.
	if len(donor.Work.Workers) != 0 {
		t.Errorf("donor kept %d workers, want 0", len(donor.Work.Workers))
	}
	if got := len(dorm.Work.Workers); got != 20 {
		t.Errorf("dorm workplace has %d enrolled, want 20", got)
	}
}
