package place

import "log/slog"

// Mover relocates a person into another household. Implemented by the
// population model; the registry never touches person state directly.
type Mover interface {
	MoveToHousehold(personID, householdID int)
}

// SubdivideGroupQuarters splits every oversized group-quarters household
// into its unit households, balancing occupants across units. The unit
// placeholders were created during load directly after the original in
// the household list, so the walk consumes them in order.
//
// A unit count of U over size C yields U - (C mod U) units of ⌊C/U⌋
// occupants followed by C mod U units of ⌊C/U⌋+1; the original
// household keeps the first share. Total occupancy is conserved.
func SubdivideGroupQuarters(r *Registry, mover Mover) {
	slog.Info("group quarters subdivision entered", "households", r.Households())

	unitsFilled := 0
	p := 0
	n := r.Households()
	for p < n {
		house := r.HouseholdAt(p)
		p++
		if !house.HH.GroupQuarters {
			continue
		}

		gqSize := len(house.HH.Members)
		gqUnits := house.HH.Units
		unitsFilled++
		if gqUnits <= 1 {
			continue
		}

		// Collect the roster before any mutation.
		housemates := make([]int, gqSize)
		copy(housemates, house.HH.Members)

		minPerUnit := gqSize / gqUnits
		largerUnits := gqSize - minPerUnit*gqUnits
		smallerUnits := gqUnits - largerUnits
		slog.Debug("subdividing group quarters",
			"label", house.Label, "subtype", house.Subtype.String(),
			"size", gqSize, "units", gqUnits,
			"min_per_unit", minPerUnit, "smaller", smallerUnits, "larger", largerUnits)

		// The original keeps the first minPerUnit occupants.
		next := minPerUnit
		for i := 1; i < smallerUnits; i++ {
			unit := r.HouseholdAt(p)
			p++
			for j := 0; j < minPerUnit; j++ {
				mover.MoveToHousehold(housemates[next], unit.ID)
				next++
			}
			unitsFilled++
		}
		for i := 0; i < largerUnits; i++ {
			unit := r.HouseholdAt(p)
			p++
			for j := 0; j < minPerUnit+1; j++ {
				mover.MoveToHousehold(housemates[next], unit.ID)
				next++
			}
			unitsFilled++
		}
	}

	slog.Info("group quarters subdivision finished", "units", unitsFilled)
}
