package place

// County aggregates households by 5-digit FIPS code. Created lazily the
// first time a household with a new code is attached.
type County struct {
	FIPS       int
	Households []int
}

// CensusTract aggregates households by 11-digit FIPS code.
type CensusTract struct {
	FIPS       int64
	Households []int
}

// AttachHousehold records hh under its tract and county, creating either
// aggregate on first sighting. Households without a FIPS code attach to
// nothing.
func (r *Registry) AttachHousehold(hh *Place) {
	if hh.Kind != Household || hh.TractFIPS <= 0 {
		return
	}

	tract, ok := r.tractByFIPS[hh.TractFIPS]
	if !ok {
		tract = &CensusTract{FIPS: hh.TractFIPS}
		r.tracts = append(r.tracts, tract)
		r.tractByFIPS[hh.TractFIPS] = tract
	}
	tract.Households = append(tract.Households, hh.ID)

	county, ok := r.countyByFIPS[hh.CountyFIPS]
	if !ok {
		county = &County{FIPS: hh.CountyFIPS}
		r.counties = append(r.counties, county)
		r.countyByFIPS[hh.CountyFIPS] = county
	}
	county.Households = append(county.Households, hh.ID)
}

// Counties returns the counties in first-sighting order.
func (r *Registry) Counties() []*County { return r.counties }

// Tracts returns the census tracts in first-sighting order.
func (r *Registry) Tracts() []*CensusTract { return r.tracts }

// CountyByFIPS looks a county up by its 5-digit code.
func (r *Registry) CountyByFIPS(fips int) *County { return r.countyByFIPS[fips] }

// TractByFIPS looks a census tract up by its 11-digit code.
func (r *Registry) TractByFIPS(fips int64) *CensusTract { return r.tractByFIPS[fips] }
