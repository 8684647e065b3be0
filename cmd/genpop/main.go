// Command genpop generates a small synthetic-population input set for
// testing: households, schools, workplaces, hospitals, group quarters,
// and people, in the column layouts the loader reads. Settlement
// density follows a simplex noise field so the geography clumps the way
// real tract data does.
package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ojrac/opensimplex-go"
)

const (
	minLat, maxLat = 40.3, 40.7
	minLon, maxLon = -80.2, -79.7
)

type generator struct {
	rng   *rand.Rand
	noise opensimplex.Noise

	households int
	people     int
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	seed := int64(42)
	if v := os.Getenv("SYNTHPLACES_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			seed = n
		}
	}
	outDir := "input"
	if v := os.Getenv("SYNTHPLACES_INPUT_DIR"); v != "" {
		outDir = v
	}
	households := 1000
	if v := os.Getenv("SYNTHPLACES_GEN_HOUSEHOLDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			households = n
		}
	}

	g := &generator{
		rng:        rand.New(rand.NewSource(seed)),
		noise:      opensimplex.New(seed),
		households: households,
	}

	if err := g.writeAll(outDir); err != nil {
		slog.Error("generation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("synthetic population written",
		"dir", outDir, "households", g.households, "people", g.people)
}

func (g *generator) writeAll(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	steps := []struct {
		file string
		fn   func(*os.File) error
	}{
		{"households.txt", g.writeHouseholds},
		{"schools.txt", g.writeSchools},
		{"workplaces.txt", g.writeWorkplaces},
		{"hospitals.txt", g.writeHospitals},
		{"gq.txt", g.writeGroupQuarters},
		{"people.txt", g.writePeople},
	}
	for _, s := range steps {
		f, err := os.Create(filepath.Join(dir, s.file))
		if err != nil {
			return err
		}
		if err := s.fn(f); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", s.file, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

// samplePoint draws a coordinate by rejection sampling against the
// noise density, so places cluster around noise ridges.
func (g *generator) samplePoint() (lat, lon float64) {
	for {
		lat = minLat + g.rng.Float64()*(maxLat-minLat)
		lon = minLon + g.rng.Float64()*(maxLon-minLon)
		density := (g.noise.Eval2(lon*8, lat*8) + 1) / 2
		if g.rng.Float64() < density {
			return lat, lon
		}
	}
}

// tractFor maps a coordinate into one of a small set of synthetic
// census tracts inside a fictional county.
func (g *generator) tractFor(lat, lon float64) string {
	col := int((lon - minLon) / (maxLon - minLon) * 3)
	row := int((lat - minLat) / (maxLat - minLat) * 3)
	if col > 2 {
		col = 2
	}
	if row > 2 {
		row = 2
	}
	// 42003 is the county code; the tail is the tract within it.
	return fmt.Sprintf("42003%02d%04d", row*3+col, 100)
}

func (g *generator) writeHouseholds(f *os.File) error {
	fmt.Fprintln(f, "sp_id,serialno,stcotrbg,hh_race,hh_income,hh_size,hh_age,latitude,longitude")
	for i := 0; i < g.households; i++ {
		lat, lon := g.samplePoint()
		income := 15000 + g.rng.Intn(150000)
		race := g.rng.Intn(7)
		fmt.Fprintf(f, "%d,%d,%s,%d,%d,0,0,%.6f,%.6f\n",
			i+1, i+1, g.tractFor(lat, lon), race, income, lat, lon)
	}
	return nil
}

func (g *generator) writeWorkplaces(f *os.File) error {
	fmt.Fprintln(f, "sp_id,workers,latitude,longitude")
	n := g.households / 4
	for i := 0; i < n; i++ {
		lat, lon := g.samplePoint()
		fmt.Fprintf(f, "%d,0,%.6f,%.6f\n", 500000+i, lat, lon)
	}
	return nil
}

func (g *generator) writeSchools(f *os.File) error {
	fmt.Fprintln(f, "sp_id,name,stabbr,address,city,county,zip,zip4,nces_id,total,prek,kinder,gr01_gr12,ungraded,latitude,longitude,source,stco")
	n := g.households/100 + 1
	for i := 0; i < n; i++ {
		lat, lon := g.samplePoint()
		fmt.Fprintf(f, "%d,School %d,PA,,,,,,,,,,,,%.6f,%.6f,gen,42003\n",
			600000+i, i+1, lat, lon)
	}
	return nil
}

func (g *generator) writeHospitals(f *os.File) error {
	fmt.Fprintln(f, "sp_id,name,address,city,zip,phone,workers,physicians,beds,latitude,longitude")
	n := g.households/300 + 2
	for i := 0; i < n; i++ {
		lat, lon := g.samplePoint()
		beds := 20 + g.rng.Intn(400)
		if i == n-1 {
			// One small clinic per region.
			beds = g.rng.Intn(5)
		}
		workers := beds * (2 + g.rng.Intn(3))
		fmt.Fprintf(f, "%d,Hospital %d,,,,,%d,%d,%d,%.6f,%.6f\n",
			700000+i, i+1, workers, workers/10+1, beds, lat, lon)
	}
	return nil
}

func (g *generator) writeGroupQuarters(f *os.File) error {
	fmt.Fprintln(f, "sp_id,gq_type,persons,stcotrbg,latitude,longitude")
	types := []string{"C", "M", "P", "N"}
	for i, t := range types {
		lat, lon := g.samplePoint()
		capacity := 20 + g.rng.Intn(180)
		fmt.Fprintf(f, "%d,%s,%d,%s,%.6f,%.6f\n",
			800000+i, t, capacity, g.tractFor(lat, lon), lat, lon)
	}
	return nil
}

func (g *generator) writePeople(f *os.File) error {
	fmt.Fprintln(f, "sp_id,sp_hh_id,age,school_id,work_id,insurance")
	pid := 1
	workplaces := g.households / 4
	schools := g.households/100 + 1

	for hh := 1; hh <= g.households; hh++ {
		size := 1 + g.rng.Intn(5)
		for j := 0; j < size; j++ {
			age := g.rng.Intn(90)
			school := "-1"
			work := "-1"
			if age >= 5 && age < 18 {
				school = strconv.Itoa(600000 + g.rng.Intn(schools))
			} else if age >= 18 && age < 65 && g.rng.Float64() < 0.7 {
				work = strconv.Itoa(500000 + g.rng.Intn(workplaces))
			}
			ins := g.rng.Intn(6)
			fmt.Fprintf(f, "%d,%d,%d,%s,%s,%d\n", pid, hh, age, school, work, ins)
			pid++
		}
	}

	// Group-quarters residents live in the gq household and are
	// enrolled in its paired workplace.
	for i := 0; i < 4; i++ {
		n := 20 + g.rng.Intn(60)
		for j := 0; j < n; j++ {
			age := 18 + g.rng.Intn(60)
			fmt.Fprintf(f, "%d,%d,%d,-1,%d,%d\n",
				pid, 800000+i, age, 800000+i, g.rng.Intn(6))
			pid++
		}
	}
	g.people = pid - 1
	return nil
}
