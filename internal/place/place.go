// Package place provides the physical location entities of the synthetic
// population (households, schools, workplaces, hospitals) plus the
// registry that creates, deduplicates, and indexes them.
package place

// Kind discriminates the place variants. The one-letter codes are the
// label prefixes used by the synthetic-population input files.
type Kind uint8

const (
	Household Kind = iota
	Neighborhood
	School
	Classroom
	Workplace
	Office
	Hospital
)

// Code returns the label prefix for a kind.
func (k Kind) Code() byte {
	switch k {
	case Household:
		return 'H'
	case Neighborhood:
		return 'N'
	case School:
		return 'S'
	case Classroom:
		return 'C'
	case Workplace:
		return 'W'
	case Office:
		return 'O'
	case Hospital:
		return 'M'
	}
	return '?'
}

// String names a kind for logs.
func (k Kind) String() string {
	switch k {
	case Household:
		return "household"
	case Neighborhood:
		return "neighborhood"
	case School:
		return "school"
	case Classroom:
		return "classroom"
	case Workplace:
		return "workplace"
	case Office:
		return "office"
	case Hospital:
		return "hospital"
	}
	return "unknown"
}

// Subtype refines a place: group-quarters categories for households and
// their paired workplaces, clinic categories for hospitals.
type Subtype uint8

const (
	SubtypeNone Subtype = iota
	SubtypeCollege
	SubtypeMilitaryBase
	SubtypePrison
	SubtypeNursingHome
	SubtypeHealthcareClinic
	SubtypeMobileClinic
)

func (s Subtype) String() string {
	switch s {
	case SubtypeNone:
		return "none"
	case SubtypeCollege:
		return "college"
	case SubtypeMilitaryBase:
		return "military"
	case SubtypePrison:
		return "prison"
	case SubtypeNursingHome:
		return "nursing_home"
	case SubtypeHealthcareClinic:
		return "clinic"
	case SubtypeMobileClinic:
		return "mobile_clinic"
	}
	return "unknown"
}

// Insurance categories a person may carry and a hospital may accept.
type Insurance uint8

const (
	InsurancePrivate Insurance = iota
	InsuranceMedicare
	InsuranceMedicaid
	InsuranceHighmark
	InsuranceUPMC
	InsuranceUninsured
	insuranceCount
)

// InsuranceSet is a bitset of accepted insurance categories.
type InsuranceSet uint8

// AllInsurance accepts every category.
const AllInsurance InsuranceSet = 1<<insuranceCount - 1

// With returns the set with ins added.
func (s InsuranceSet) With(ins Insurance) InsuranceSet {
	return s | 1<<ins
}

// Accepts reports whether ins is in the set.
func (s InsuranceSet) Accepts(ins Insurance) bool {
	return s&(1<<ins) != 0
}

// Grades is the number of school grade levels tracked (pre-K through 12
// plus post-secondary slots, matching the synthetic-population schema).
const Grades = 20

// Place is the tagged variant shared by all location entities. Exactly
// one of the variant-data pointers is non-nil, matching Kind.
type Place struct {
	ID         int
	Label      string
	Kind       Kind
	Subtype    Subtype
	Lat, Lon   float64
	TractFIPS  int64
	CountyFIPS int

	HH   *HouseholdData
	Hosp *HospitalData
	Sch  *SchoolData
	Work *WorkplaceData
}

// HouseholdData is the Household variant payload. Members holds person
// ids; the household does not own the people.
type HouseholdData struct {
	Members  []int
	OrigSize int
	Income   int
	Race     int

	// Group-quarters structure. Units > 1 marks a unit to be subdivided;
	// WorkplaceID points at the paired staff workplace (-1 if none).
	GroupQuarters bool
	Units         int
	WorkplaceID   int

	// Sheltering / evacuation window.
	Sheltering   bool
	ShelterStart int
	ShelterEnd   int

	// Assigned visitation hospital id (-1 until resolved).
	HospitalID int
}

// SubtractMember removes person id p from the roster.
func (h *HouseholdData) SubtractMember(p int) {
	for i, m := range h.Members {
		if m == p {
			h.Members = append(h.Members[:i], h.Members[i+1:]...)
			return
		}
	}
}

// ShelteringOn reports whether the household shelters on a given day.
func (h *HouseholdData) ShelteringOn(day int) bool {
	return h.Sheltering && h.ShelterStart <= day && day < h.ShelterEnd
}

// HospitalData is the Hospital variant payload.
type HospitalData struct {
	Employees  int
	Physicians int
	Beds       int

	OccupiedBeds  int
	DailyPatients int // acute encounters so far today

	// Daily outpatient capacity, fixed at load from the staffing model.
	DailyCapacity int

	// Open/close day window. CloseDay < 0 means never closes.
	OpenDay  int
	CloseDay int

	Accepted InsuranceSet

	// Mobile clinics stay shut until activation explicitly schedules them.
	ActivationSet bool
}

// Open reports whether the hospital operates on a given day.
func (h *HospitalData) Open(day int) bool {
	if day < h.OpenDay {
		return false
	}
	if h.CloseDay >= 0 && day >= h.CloseDay {
		return false
	}
	return true
}

// Capacity returns the daily outpatient capacity for a day. The rate is
// constant; only the open window varies by day.
func (h *HospitalData) Capacity(day int) int {
	if !h.Open(day) {
		return 0
	}
	return h.DailyCapacity
}

// SchoolData is the School variant payload.
type SchoolData struct {
	StudentsByGrade [Grades]int
	OrigStudents    int
	Teachers        []int
}

// WorkplaceData is the Workplace variant payload.
type WorkplaceData struct {
	Workers []int
}

// IsClinic reports whether p is a fixed or mobile healthcare clinic.
func (p *Place) IsClinic() bool {
	return p.Kind == Hospital &&
		(p.Subtype == SubtypeHealthcareClinic || p.Subtype == SubtypeMobileClinic)
}

// Size returns the current occupancy of a place: household members,
// workplace workers, school students, or hospital employees.
func (p *Place) Size() int {
	switch p.Kind {
	case Household:
		return len(p.HH.Members)
	case Workplace:
		return len(p.Work.Workers)
	case School:
		n := 0
		for _, g := range p.Sch.StudentsByGrade {
			n += g
		}
		return n
	case Hospital:
		return p.Hosp.Employees
	}
	return 0
}
