package match

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/epicast/synthplaces/internal/geo"
	"github.com/epicast/synthplaces/internal/place"
)

// mapFileDisabled is the configured file name that turns the artifact off.
const mapFileDisabled = "none"

// AssignHospitalsToHouseholds resolves a visitation hospital for every
// household: from the label map file when one exists, otherwise through
// the catchment matcher (insurance-gated first, then unrestricted).
// The map file is (re)written when it was absent or incomplete. Logs
// per-hospital catchment statistics.
func (m *Matcher) AssignHospitalsToHouseholds() error {
	if m.reg.Hospitals() == 0 {
		return fmt.Errorf("no hospitals loaded; cannot assign household catchments")
	}
	slog.Info("assigning hospitals to households", "households", m.reg.Households())

	mapping, fileExisted, err := m.readHospitalMap()
	if err != nil {
		return err
	}
	complete := fileExisted

	unassigned := 0
	for i := 0; i < m.reg.Households(); i++ {
		hh := m.reg.HouseholdAt(i)

		if label, ok := mapping[hh.Label]; ok {
			if hosp := m.reg.FromLabel(label); hosp != nil && hosp.Kind == place.Hospital {
				hh.HH.HospitalID = hosp.ID
				continue
			}
		}
		// Not in the map: the file (if any) is incomplete.
		complete = false

		if len(hh.HH.Members) == 0 {
			unassigned++
			continue
		}
		per := m.pop.Get(hh.HH.Members[0])
		if per == nil {
			panic("match: household roster references unknown person")
		}

		hosp := m.HospitalForHousehold(per, m.cfg.CheckInsurance)
		if hosp == nil && m.cfg.CheckInsurance {
			// Retry ignoring the insurance gate.
			hosp = m.HospitalForHousehold(per, false)
		}
		if hosp == nil {
			slog.Warn("household left without visitation hospital", "household", hh.Label)
			unassigned++
			continue
		}
		hh.HH.HospitalID = hosp.ID
		mapping[hh.Label] = hosp.Label
	}

	m.logCatchmentStats()

	if !complete && m.cfg.HospitalMapFile != mapFileDisabled {
		if err := m.writeHospitalMap(mapping); err != nil {
			return fmt.Errorf("write hospital map: %w", err)
		}
	}
	if unassigned > 0 {
		slog.Warn("households without hospital", "count", unassigned)
	}
	return nil
}

// readHospitalMap loads the household→hospital label CSV if configured
// and present. Header rows (hh_id / sp_id) are skipped.
func (m *Matcher) readHospitalMap() (map[string]string, bool, error) {
	mapping := make(map[string]string)
	if m.cfg.HospitalMapFile == mapFileDisabled {
		return mapping, false, nil
	}

	path := filepath.Join(m.cfg.DataDir, m.cfg.HospitalMapFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return mapping, false, nil
		}
		return nil, false, fmt.Errorf("open hospital map: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, false, fmt.Errorf("parse hospital map: %w", err)
	}
	for _, row := range rows {
		if len(row) < 2 || row[0] == "hh_id" || row[0] == "sp_id" {
			continue
		}
		mapping[row[0]] = row[1]
	}
	slog.Info("hospital map file read", "path", path, "entries", len(mapping))
	return mapping, true, nil
}

// writeHospitalMap persists the label map, sorted for stable output.
func (m *Matcher) writeHospitalMap(mapping map[string]string) error {
	path := filepath.Join(m.cfg.DataDir, m.cfg.HospitalMapFile)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	labels := make([]string, 0, len(mapping))
	for hh := range mapping {
		labels = append(labels, hh)
	}
	sort.Strings(labels)

	w := csv.NewWriter(f)
	for _, hh := range labels {
		if err := w.Write([]string{hh, mapping[hh]}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	slog.Info("hospital map file written", "path", path, "entries", len(mapping))
	return nil
}

// logCatchmentStats reports, per hospital, the population, mean age,
// and mean distance of its assigned households.
func (m *Matcher) logCatchmentStats() {
	type stat struct {
		count int
		age   float64
		dist  float64
	}
	stats := make(map[int]*stat)

	for i := 0; i < m.reg.Households(); i++ {
		hh := m.reg.HouseholdAt(i)
		if hh.HH.HospitalID < 0 {
			continue
		}
		hosp := m.reg.Get(hh.HH.HospitalID)
		s := stats[hosp.ID]
		if s == nil {
			s = &stat{}
			stats[hosp.ID] = s
		}
		size := len(hh.HH.Members)
		s.count += size
		s.dist += float64(size) * geo.DistanceKm(hh.Lat, hh.Lon, hosp.Lat, hosp.Lon)
		for _, pid := range hh.HH.Members {
			s.age += float64(m.pop.Get(pid).Age)
		}
	}

	for i := 0; i < m.reg.Hospitals(); i++ {
		h := m.reg.HospitalAt(i)
		s := stats[h.ID]
		if s == nil || s.count == 0 {
			slog.Info("hospital catchment", "hospital", h.Label,
				"beds", h.Hosp.Beds, "population", 0)
			continue
		}
		slog.Info("hospital catchment", "hospital", h.Label,
			"beds", h.Hosp.Beds, "population", s.count,
			"mean_age", s.age/float64(s.count),
			"mean_dist_km", s.dist/float64(s.count))
	}
}
