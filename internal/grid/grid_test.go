package grid

import (
	"testing"

	"github.com/epicast/synthplaces/internal/place"
)

func addWorkplace(r *place.Registry, label string, lon, lat float64, workers int) *place.Place {
	w := r.Add(label, place.Workplace, place.SubtypeNone, lon, lat, 0)
	for i := 0; i < workers; i++ {
		w.Work.Workers = append(w.Work.Workers, len(w.Work.Workers))
	}
	return w
}

func TestPatchForOutsideRegion(t *testing.T) {
	r := place.NewRegistry()
	addWorkplace(r, "W1", -79.90, 40.40, 1)
	addWorkplace(r, "W2", -79.80, 40.50, 1)
	g := Build(r, 20.0)

	if g.PatchFor(40.45, -79.85) == nil {
		t.Error("point inside the region has no patch")
	}
	if g.PatchFor(50.0, -79.85) != nil {
		t.Error("point far north of the region got a patch")
	}
	if g.PatchFor(40.45, -60.0) != nil {
		t.Error("point far east of the region got a patch")
	}
}

func TestBuildIndexesFacilities(t *testing.T) {
	r := place.NewRegistry()
	w := addWorkplace(r, "W1", -79.90, 40.40, 3)
	h := r.Add("M1", place.Hospital, place.SubtypeNone, -79.90, 40.40, 0)
	g := Build(r, 20.0)

	p := g.PatchFor(40.40, -79.90)
	if p == nil {
		t.Fatal("no patch at the facility position")
	}
	if len(p.Workplaces) != 1 || p.Workplaces[0] != w.ID {
		t.Errorf("patch workplaces = %v, want [%d]", p.Workplaces, w.ID)
	}
	if len(p.Hospitals) != 1 || p.Hospitals[0] != h.ID {
		t.Errorf("patch hospitals = %v, want [%d]", p.Hospitals, h.ID)
	}
}

func TestNearbyHospitalsOrdering(t *testing.T) {
	r := place.NewRegistry()
	far := r.Add("M1", place.Hospital, place.SubtypeNone, -79.70, 40.40, 0)
	near := r.Add("M2", place.Hospital, place.SubtypeNone, -79.89, 40.40, 0)
	g := Build(r, 20.0)

	p := g.PatchFor(40.40, -79.89)
	got := g.NearbyHospitals(p, 40.40, -79.89, 5)
	if len(got) != 2 {
		t.Fatalf("found %d hospitals, want 2", len(got))
	}
	if got[0].ID != near.ID || got[1].ID != far.ID {
		t.Errorf("hospitals not ordered nearest-first: %s, %s",
			got[0].Label, got[1].Label)
	}
}

func TestNearbyWorkplacePicksBestFitAndConsumes(t *testing.T) {
	r := place.NewRegistry()
	target := r.Add("S1", place.School, place.SubtypeNone, -79.90, 40.40, 0)
	big := addWorkplace(r, "W1", -79.90, 40.40, 10)
	small := addWorkplace(r, "W2", -79.90, 40.40, 3)
	g := Build(r, 20.0)

	first := g.NearbyWorkplace(target, 3)
	if first == nil || first.ID != small.ID {
		t.Fatalf("first donor = %v, want %s", first, small.Label)
	}

	// The consumed donor must not be offered again.
	second := g.NearbyWorkplace(target, 3)
	if second == nil || second.ID != big.ID {
		t.Fatalf("second donor = %v, want %s", second, big.Label)
	}

	if g.NearbyWorkplace(target, 3) != nil {
		t.Error("donor found after the pool was exhausted")
	}
}

func TestNearbyWorkplaceSkipsTargetAndEmpty(t *testing.T) {
	r := place.NewRegistry()
	target := addWorkplace(r, "W1", -79.90, 40.40, 5)
	addWorkplace(r, "W2", -79.90, 40.40, 0)
	g := Build(r, 20.0)

	if got := g.NearbyWorkplace(target, 5); got != nil {
		t.Errorf("donor = %s, want none (only self and an empty workplace)", got.Label)
	}
}

func TestNearbyWorkplaceOutsideRegion(t *testing.T) {
	r := place.NewRegistry()
	addWorkplace(r, "W1", -79.90, 40.40, 5)
	g := Build(r, 20.0)

	// Added after the grid is built, so its position falls outside the
	// covered region.
	outside := r.Add("S1", place.School, place.SubtypeNone, -60.0, 10.0, 0)
	if got := g.NearbyWorkplace(outside, 5); got != nil {
		t.Errorf("donor found for an out-of-region target: %s", got.Label)
	}
}
