package match

import (
	"testing"

	"github.com/epicast/synthplaces/internal/place"
)

func quotaRegistry(t *testing.T) (*place.Registry, *place.Place, *place.Place, *place.Place) {
	t.Helper()
	r := place.NewRegistry()
	a := r.Add("M1", place.Hospital, place.SubtypeNone, -79.9, 40.4, 0)
	a.Hosp.DailyCapacity = 30
	b := r.Add("M2", place.Hospital, place.SubtypeNone, -79.8, 40.5, 0)
	b.Hosp.DailyCapacity = 70
	van := r.Add("M3", place.Hospital, place.SubtypeMobileClinic, -79.7, 40.6, 0)
	van.Hosp.DailyCapacity = 50
	return r, a, b, van
}

func TestQuotaPrepare(t *testing.T) {
	r, a, b, van := quotaRegistry(t)

	q := NewQuota()
	q.Prepare(r, 1000, 100)

	if got := q.Total(a.ID); got != 300 {
		t.Errorf("panel for M1 = %d, want 300", got)
	}
	if got := q.Total(b.ID); got != 700 {
		t.Errorf("panel for M2 = %d, want 700", got)
	}
	if got := q.Total(van.ID); got != 0 {
		t.Errorf("mobile clinic panel = %d, want 0", got)
	}

	// The first Prepare wins; later calls must not recompute.
	q.Prepare(r, 10, 1)
	if got := q.Total(a.ID); got != 300 {
		t.Errorf("panel changed to %d after second Prepare", got)
	}
}

// A hospital whose open window starts after day zero still carries a
// panel share sized from its raw daily capacity.
func TestQuotaPrepareIgnoresOpenWindow(t *testing.T) {
	r := place.NewRegistry()
	h := r.Add("M1", place.Hospital, place.SubtypeNone, -79.9, 40.4, 0)
	h.Hosp.DailyCapacity = 30
	h.Hosp.OpenDay = 5
	h.Hosp.CloseDay = 40

	q := NewQuota()
	q.Prepare(r, 1000, 100)
	if got := q.Total(h.ID); got != 300 {
		t.Errorf("panel for late-opening hospital = %d, want 300", got)
	}
}

func TestQuotaCeilRounding(t *testing.T) {
	r := place.NewRegistry()
	h := r.Add("M1", place.Hospital, place.SubtypeNone, -79.9, 40.4, 0)
	h.Hosp.DailyCapacity = 1

	q := NewQuota()
	q.Prepare(r, 150, 100) // 1/100 of 150 people = 1.5, rounds up
	if got := q.Total(h.ID); got != 2 {
		t.Errorf("panel = %d, want 2", got)
	}
}

func TestQuotaMonotonicity(t *testing.T) {
	r := place.NewRegistry()
	h := r.Add("M1", place.Hospital, place.SubtypeNone, -79.9, 40.4, 0)
	h.Hosp.DailyCapacity = 1

	q := NewQuota()
	q.Prepare(r, 300, 100) // panel of 3

	for i := 0; i < 3; i++ {
		if !q.HasHeadroom(h.ID) {
			t.Fatalf("no headroom at assignment %d of 3", i)
		}
		if !q.Assign(h.ID) {
			t.Fatalf("assignment %d rejected below the panel size", i)
		}
	}
	if q.HasHeadroom(h.ID) {
		t.Error("headroom reported at a full panel")
	}
	if q.Assign(h.ID) {
		t.Error("assignment accepted beyond the panel size")
	}
	if got, total := q.Assigned(h.ID), q.Total(h.ID); got > total {
		t.Errorf("assigned %d exceeds total %d", got, total)
	}
}

func TestQuotaUnknownHospital(t *testing.T) {
	q := NewQuota()
	r := place.NewRegistry()
	q.Prepare(r, 10, 100)

	if q.HasHeadroom(12345) {
		t.Error("unknown hospital reports headroom")
	}
	if q.Assign(12345) {
		t.Error("unknown hospital accepts assignment")
	}
}
