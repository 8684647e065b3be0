// Package loader reads the synthetic-population input files and feeds
// parsed records into the place registry and population. Column layouts
// follow the synthetic-population distribution; header rows carry the
// literal field name sp_id and are skipped.
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/epicast/synthplaces/internal/agent"
	"github.com/epicast/synthplaces/internal/config"
	"github.com/epicast/synthplaces/internal/place"
)

// Loader binds the input directory and configuration to the registry
// and population being filled.
type Loader struct {
	cfg *config.Config
	reg *place.Registry
	pop *agent.Population
}

// New creates a loader.
func New(cfg *config.Config, reg *place.Registry, pop *agent.Population) *Loader {
	return &Loader{cfg: cfg, reg: reg, pop: pop}
}

// ReadAll loads every place file, then the people file, and marks the
// registry load phase complete. A missing file is fatal: the simulation
// cannot proceed without its geography.
func (l *Loader) ReadAll() error {
	steps := []struct {
		file string
		fn   func(string) error
	}{
		{"households.txt", l.readHouseholds},
		{"schools.txt", l.readSchools},
		{"workplaces.txt", l.readWorkplaces},
		{"hospitals.txt", l.readHospitals},
		{"gq.txt", l.readGroupQuarters},
		{"people.txt", l.readPeople},
	}
	for _, s := range steps {
		path := filepath.Join(l.cfg.InputDir, s.file)
		if err := s.fn(path); err != nil {
			return fmt.Errorf("read %s: %w", s.file, err)
		}
	}
	l.reg.FinishLoad()
	slog.Info("load finished",
		"places", l.reg.Len(),
		"households", l.reg.Households(),
		"schools", l.reg.Schools(),
		"workplaces", l.reg.Workplaces(),
		"hospitals", l.reg.Hospitals(),
		"people", l.pop.Len(),
		"counties", len(l.reg.Counties()),
		"tracts", len(l.reg.Tracts()))
	return nil
}

// eachRecord streams the comma-separated rows of path, skipping the
// sp_id header row.
func eachRecord(path string, fn func(rec []string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if len(rec) == 0 || rec[0] == "sp_id" {
			continue
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

// Household file columns: id=0, fips=2, race=3, income=4, lat=7, lon=8.
func (l *Loader) readHouseholds(path string) error {
	return eachRecord(path, func(rec []string) error {
		if len(rec) < 9 {
			return fmt.Errorf("household row has %d fields", len(rec))
		}
		lat := parseFloat(rec[7])
		lon := parseFloat(rec[8])
		tract := tractFIPS(rec[2])

		label := "H" + rec[0]
		hh := l.reg.Add(label, place.Household, place.SubtypeNone, lon, lat, tract)
		hh.HH.Race = parseInt(rec[3])
		hh.HH.Income = parseInt(rec[4])
		l.reg.AttachHousehold(hh)
		return nil
	})
}

// Workplace file columns: id=0, lat=2, lon=3.
func (l *Loader) readWorkplaces(path string) error {
	return eachRecord(path, func(rec []string) error {
		if len(rec) < 4 {
			return fmt.Errorf("workplace row has %d fields", len(rec))
		}
		l.reg.Add("W"+rec[0], place.Workplace, place.SubtypeNone,
			parseFloat(rec[3]), parseFloat(rec[2]), 0)
		return nil
	})
}

// School file columns: id=0, lat=14, lon=15, county fips=17 (scaled to
// a tract-width code).
func (l *Loader) readSchools(path string) error {
	return eachRecord(path, func(rec []string) error {
		if len(rec) < 18 {
			return fmt.Errorf("school row has %d fields", len(rec))
		}
		tract := int64(parseInt(firstN(rec[17], 5))) * 1_000_000
		l.reg.Add("S"+rec[0], place.School, place.SubtypeNone,
			parseFloat(rec[15]), parseFloat(rec[14]), tract)
		return nil
	})
}

// Hospital file columns: id=0, workers=6, physicians=7, beds=8, lat=9,
// lon=10, optional subtype code=11 ("C" clinic, "V" mobile clinic).
func (l *Loader) readHospitals(path string) error {
	count := 0
	err := eachRecord(path, func(rec []string) error {
		if len(rec) < 11 {
			return fmt.Errorf("hospital row has %d fields", len(rec))
		}
		workers := parseInt(rec[6])
		beds := parseInt(rec[8])

		subtype := place.SubtypeNone
		if len(rec) > 11 {
			switch rec[11] {
			case "C":
				subtype = place.SubtypeHealthcareClinic
			case "V":
				subtype = place.SubtypeMobileClinic
			}
		}
		if subtype == place.SubtypeNone && beds < l.cfg.HospitalMinBedThreshold {
			subtype = place.SubtypeHealthcareClinic
		}

		h := l.reg.Add("M"+rec[0], place.Hospital, subtype,
			parseFloat(rec[10]), parseFloat(rec[9]), 0)
		h.Hosp.Employees = workers
		h.Hosp.Physicians = parseInt(rec[7])
		h.Hosp.Beds = beds

		rate := l.cfg.HospitalOutpatientsPerEmployee
		if h.IsClinic() {
			rate = l.cfg.ClinicOutpatientsPerEmployee
		}
		h.Hosp.DailyCapacity = int(math.Round(float64(workers) * rate))
		if subtype == place.SubtypeMobileClinic {
			// Shut until disaster activation schedules it.
			h.Hosp.OpenDay = math.MaxInt32
		}
		count++
		return nil
	})
	if err == nil {
		slog.Info("hospitals read", "count", count)
	}
	return err
}

// Group-quarters file columns: id=0, gq type=1 (C college, M military,
// P prison, N nursing home), size=2, fips=3, lat=4, lon=5. Each row
// creates one staff workplace plus one household per derived unit.
func (l *Loader) readGroupQuarters(path string) error {
	return eachRecord(path, func(rec []string) error {
		if len(rec) < 6 {
			return fmt.Errorf("group-quarters row has %d fields", len(rec))
		}
		lat := parseFloat(rec[4])
		lon := parseFloat(rec[5])
		tract := tractFIPS(rec[3])
		capacity := parseInt(rec[2])

		var subtype place.Subtype
		var meanSize float64
		switch rec[1] {
		case "C":
			subtype, meanSize = place.SubtypeCollege, l.cfg.CollegeDormMeanSize
		case "M":
			subtype, meanSize = place.SubtypeMilitaryBase, l.cfg.MilitaryBarracksMeanSize
		case "P":
			subtype, meanSize = place.SubtypePrison, l.cfg.PrisonCellMeanSize
		case "N":
			subtype, meanSize = place.SubtypeNursingHome, l.cfg.NursingHomeRoomMeanSize
		default:
			slog.Warn("unknown group-quarters type", "type", rec[1], "id", rec[0])
			return nil
		}
		units := 1
		if meanSize > 0 {
			if u := int(float64(capacity) / meanSize); u > 1 {
				units = u
			}
		}

		workplace := l.reg.Add("W"+rec[0], place.Workplace, subtype, lon, lat, tract)

		hh := l.reg.Add("H"+rec[0], place.Household, subtype, lon, lat, tract)
		hh.HH.GroupQuarters = true
		hh.HH.Units = units
		hh.HH.OrigSize = capacity
		hh.HH.WorkplaceID = workplace.ID
		l.reg.AttachHousehold(hh)

		// Placeholder households for the remaining units; the subdivider
		// fills them in list order.
		for i := 1; i < units; i++ {
			unit := l.reg.Add(fmt.Sprintf("H%s-%03d", rec[0], i),
				place.Household, subtype, lon, lat, tract)
			unit.HH.GroupQuarters = true
			l.reg.AttachHousehold(unit)
		}
		slog.Debug("group quarters added", "label", hh.Label,
			"subtype", subtype.String(), "capacity", capacity, "units", units)
		return nil
	})
}

// People file columns: id=0, household id=1, age=2, school id=3 (or -1),
// workplace id=4 (or -1), insurance=5.
func (l *Loader) readPeople(path string) error {
	return eachRecord(path, func(rec []string) error {
		if len(rec) < 6 {
			return fmt.Errorf("person row has %d fields", len(rec))
		}
		hh := l.reg.FromLabel("H" + rec[1])
		if hh == nil {
			return fmt.Errorf("person %s references unknown household %s", rec[0], rec[1])
		}
		age := parseInt(rec[2])
		per := l.pop.Add(age, hh.ID, place.Insurance(parseInt(rec[5])))

		if rec[3] != "-1" {
			if sch := l.reg.FromLabel("S" + rec[3]); sch != nil {
				per.SchoolID = sch.ID
				g := gradeForAge(age)
				sch.Sch.StudentsByGrade[g]++
				sch.Sch.OrigStudents++
			}
		}
		if rec[4] != "-1" {
			if wp := l.reg.FromLabel("W" + rec[4]); wp != nil && wp.Work != nil {
				per.WorkplaceID = wp.ID
				wp.Work.Workers = append(wp.Work.Workers, per.ID)
			}
		}
		return nil
	})
}

// gradeForAge maps an age to a grade slot; kindergarten at 5, clamped
// to the tracked range.
func gradeForAge(age int) int {
	g := age - 5
	if g < 0 {
		g = 0
	}
	if g >= place.Grades {
		g = place.Grades - 1
	}
	return g
}

// tractFIPS extracts the 11-digit census tract code from a raw FIPS
// field (longer codes carry a trailing block digit to discard).
func tractFIPS(s string) int64 {
	v, err := strconv.ParseInt(firstN(s, 11), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func firstN(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func parseInt(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
