package place

import (
	"log/slog"

	"github.com/epicast/synthplaces/internal/entropy"
	"github.com/epicast/synthplaces/internal/geo"
)

// Registry owns every place in the simulation. Places live in a dense
// arena where the slice index is the place id; cross-references between
// entities are ids, never pointers or label strings.
type Registry struct {
	places  []*Place
	labelID map[string]int

	// Typed id lists, in creation order.
	householdIDs []int
	schoolIDs    []int
	workplaceIDs []int
	hospitalIDs  []int
	neighborhoodIDs []int

	// Schools listed per grade with original enrollment in that grade.
	schoolsByGrade [Grades][]int

	// Running geographic bounding box over loaded coordinates.
	Bounds *geo.Bounds

	counties     []*County
	tracts       []*CensusTract
	countyByFIPS map[int]*County
	tractByFIPS  map[int64]*CensusTract

	loadDone bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		labelID:      make(map[string]int),
		Bounds:       geo.NewBounds(),
		countyByFIPS: make(map[int]*County),
		tractByFIPS:  make(map[int64]*CensusTract),
	}
}

// Add creates a place of the given kind, or returns the existing place
// when the label is already registered. Duplicate labels are not errors.
// Non-zero coordinates extend the geographic bounds.
func (r *Registry) Add(label string, kind Kind, subtype Subtype, lon, lat float64, tractFIPS int64) *Place {
	if id, ok := r.labelID[label]; ok {
		slog.Debug("duplicate place label", "label", label)
		return r.places[id]
	}

	p := &Place{
		ID:        len(r.places),
		Label:     label,
		Kind:      kind,
		Subtype:   subtype,
		Lat:       lat,
		Lon:       lon,
		TractFIPS: tractFIPS,
	}
	if tractFIPS > 0 {
		p.CountyFIPS = int(tractFIPS / 1_000_000)
	}

	switch kind {
	case Household:
		p.HH = &HouseholdData{Units: 1, WorkplaceID: -1, HospitalID: -1}
	case Hospital:
		p.Hosp = &HospitalData{CloseDay: -1, Accepted: AllInsurance}
	case School:
		p.Sch = &SchoolData{}
	case Workplace, Office:
		p.Work = &WorkplaceData{}
	case Neighborhood, Classroom:
		// no payload beyond the base fields
	default:
		// unknown kind: keep the no-op contract, register nothing
		slog.Debug("ignoring place with unknown kind", "label", label)
		return nil
	}

	r.places = append(r.places, p)
	r.labelID[label] = p.ID
	r.Bounds.Extend(lat, lon)

	switch kind {
	case Household:
		r.householdIDs = append(r.householdIDs, p.ID)
	case School:
		r.schoolIDs = append(r.schoolIDs, p.ID)
	case Workplace:
		r.workplaceIDs = append(r.workplaceIDs, p.ID)
	case Hospital:
		r.hospitalIDs = append(r.hospitalIDs, p.ID)
	case Neighborhood:
		r.neighborhoodIDs = append(r.neighborhoodIDs, p.ID)
	}

	slog.Debug("add place",
		"id", p.ID, "label", p.Label, "kind", p.Kind.String(),
		"subtype", p.Subtype.String(), "lat", lat, "lon", lon)
	return p
}

// FromLabel looks a place up by label. The empty string and "-1" are
// no-place sentinels. An unknown label is logged, not an error.
func (r *Registry) FromLabel(label string) *Place {
	if label == "" || label == "-1" {
		return nil
	}
	if id, ok := r.labelID[label]; ok {
		return r.places[id]
	}
	slog.Debug("no place with label", "label", label)
	return nil
}

// Get returns the place with the given id, or nil if out of range.
func (r *Registry) Get(id int) *Place {
	if id < 0 || id >= len(r.places) {
		return nil
	}
	return r.places[id]
}

// Len returns the total number of places.
func (r *Registry) Len() int { return len(r.places) }

// HouseholdAt returns the i-th household in list order.
func (r *Registry) HouseholdAt(i int) *Place { return r.places[r.householdIDs[i]] }

// HospitalAt returns the i-th hospital in list order.
func (r *Registry) HospitalAt(i int) *Place { return r.places[r.hospitalIDs[i]] }

// SchoolAt returns the i-th school in list order.
func (r *Registry) SchoolAt(i int) *Place { return r.places[r.schoolIDs[i]] }

// WorkplaceAt returns the i-th workplace in list order.
func (r *Registry) WorkplaceAt(i int) *Place { return r.places[r.workplaceIDs[i]] }

// Households returns the number of households.
func (r *Registry) Households() int { return len(r.householdIDs) }

// Hospitals returns the number of hospitals.
func (r *Registry) Hospitals() int { return len(r.hospitalIDs) }

// Schools returns the number of schools.
func (r *Registry) Schools() int { return len(r.schoolIDs) }

// Workplaces returns the number of workplaces.
func (r *Registry) Workplaces() int { return len(r.workplaceIDs) }

// ReorderHouseholds replaces the household list order. ids must be a
// permutation of the current list; used by the income sort.
func (r *Registry) ReorderHouseholds(ids []int) {
	if len(ids) != len(r.householdIDs) {
		panic("place: household reorder length mismatch")
	}
	r.householdIDs = ids
}

// RandomWorkplace returns a uniformly chosen workplace, or nil when none
// exist.
func (r *Registry) RandomWorkplace(src *entropy.Source) *Place {
	if len(r.workplaceIDs) == 0 {
		return nil
	}
	return r.places[r.workplaceIDs[src.IntN(len(r.workplaceIDs))]]
}

// RandomSchool returns a uniformly chosen school with original
// enrollment in the given grade, or nil when none exist.
func (r *Registry) RandomSchool(grade int, src *entropy.Source) *Place {
	if grade < 0 || grade >= Grades || len(r.schoolsByGrade[grade]) == 0 {
		return nil
	}
	list := r.schoolsByGrade[grade]
	return r.places[list[src.IntN(len(list))]]
}

// BuildGradeIndex populates the per-grade school lists from original
// enrollments. Run once after loading completes.
func (r *Registry) BuildGradeIndex() {
	for g := range r.schoolsByGrade {
		r.schoolsByGrade[g] = nil
	}
	for _, id := range r.schoolIDs {
		s := r.places[id]
		for g := 0; g < Grades; g++ {
			if s.Sch.StudentsByGrade[g] > 0 {
				r.schoolsByGrade[g] = append(r.schoolsByGrade[g], id)
			}
		}
	}
}

// FinishLoad marks the load phase complete.
func (r *Registry) FinishLoad() { r.loadDone = true }

// LoadCompleted reports whether the load phase has finished.
func (r *Registry) LoadCompleted() bool { return r.loadDone }
