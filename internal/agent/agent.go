// Package agent provides the minimal person model the place layer needs:
// identity, household membership, and the attributes that gate facility
// matching. The full population dynamics live elsewhere.
package agent

import (
	"log/slog"

	"github.com/epicast/synthplaces/internal/place"
)

// Relationship of a person to their household.
type Relationship uint8

const (
	RelHousemate Relationship = iota
	RelHouseholder
	RelChild
)

// Person is one simulated individual. The household owns a non-owning
// id reference back; the person owns its identity.
type Person struct {
	ID          int
	Age         int
	HouseholdID int
	WorkplaceID int // -1 when not employed
	SchoolID    int // -1 when not enrolled
	Relationship Relationship
	Insurance   place.Insurance

	// Teacher flag set by worker reassignment into schools.
	Teacher bool
}

// Population is the dense arena of people, indexed by person id.
type Population struct {
	People []*Person
	Reg    *place.Registry
}

// NewPopulation creates an empty population bound to a registry.
func NewPopulation(reg *place.Registry) *Population {
	return &Population{Reg: reg}
}

// Add creates a person in the given household and enrolls them there.
func (p *Population) Add(age int, householdID int, ins place.Insurance) *Person {
	per := &Person{
		ID:          len(p.People),
		Age:         age,
		HouseholdID: householdID,
		WorkplaceID: -1,
		SchoolID:    -1,
		Insurance:   ins,
	}
	p.People = append(p.People, per)
	if hh := p.Reg.Get(householdID); hh != nil && hh.Kind == place.Household {
		hh.HH.Members = append(hh.HH.Members, per.ID)
	}
	return per
}

// Get returns the person with the given id, or nil.
func (p *Population) Get(id int) *Person {
	if id < 0 || id >= len(p.People) {
		return nil
	}
	return p.People[id]
}

// Len returns the population size.
func (p *Population) Len() int { return len(p.People) }

// MoveToHousehold relocates a person, updating both household rosters.
// Satisfies place.Mover.
func (p *Population) MoveToHousehold(personID, householdID int) {
	per := p.Get(personID)
	if per == nil {
		slog.Warn("move of unknown person", "person", personID)
		return
	}
	if old := p.Reg.Get(per.HouseholdID); old != nil && old.Kind == place.Household {
		old.HH.SubtractMember(personID)
	}
	per.HouseholdID = householdID
	if hh := p.Reg.Get(householdID); hh != nil && hh.Kind == place.Household {
		hh.HH.Members = append(hh.HH.Members, personID)
	}
}

// MoveToWorkplace reassigns a person's workplace, updating rosters.
// teacher marks the new role as teaching staff.
func (p *Population) MoveToWorkplace(personID, workplaceID int, teacher bool) {
	per := p.Get(personID)
	if per == nil {
		slog.Warn("move of unknown worker", "person", personID)
		return
	}
	if old := p.Reg.Get(per.WorkplaceID); old != nil && old.Work != nil {
		removeID(&old.Work.Workers, personID)
	}
	per.WorkplaceID = workplaceID
	per.Teacher = teacher
	target := p.Reg.Get(workplaceID)
	if target == nil {
		return
	}
	switch {
	case target.Work != nil:
		target.Work.Workers = append(target.Work.Workers, personID)
	case target.Kind == place.School:
		target.Sch.Teachers = append(target.Sch.Teachers, personID)
	}
}

func removeID(list *[]int, id int) {
	for i, v := range *list {
		if v == id {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return
		}
	}
}
