package match

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/epicast/synthplaces/internal/agent"
	"github.com/epicast/synthplaces/internal/config"
	"github.com/epicast/synthplaces/internal/entropy"
	"github.com/epicast/synthplaces/internal/grid"
	"github.com/epicast/synthplaces/internal/place"
)

func catchmentFixture(t *testing.T) (*config.Config, *Matcher, *place.Registry) {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()

	reg := place.NewRegistry()
	pop := agent.NewPopulation(reg)
	for i, lat := range []float64{40.40, 40.42, 40.44} {
		hh := reg.Add("H"+strings.Repeat("1", i+1), place.Household, place.SubtypeNone,
			-79.90, lat, 42003020100)
		pop.Add(30+i, hh.ID, place.InsurancePrivate)
	}
	hosp := reg.Add("M1", place.Hospital, place.SubtypeNone, -79.90, 40.41, 0)
	hosp.Hosp.Beds = 100
	hosp.Hosp.Employees = 80
	hosp.Hosp.DailyCapacity = 70

	g := grid.Build(reg, cfg.PatchSizeKm)
	return &cfg, New(&cfg, reg, g, pop, entropy.New(3)), reg
}

func TestAssignHospitalsToHouseholds(t *testing.T) {
	cfg, m, reg := catchmentFixture(t)

	if err := m.AssignHospitalsToHouseholds(); err != nil {
		t.Fatalf("assignment failed: %v", err)
	}

	for i := 0; i < reg.Households(); i++ {
		hh := reg.HouseholdAt(i)
		if hh.HH.HospitalID < 0 {
			t.Errorf("household %s left unassigned", hh.Label)
		}
	}

	data, err := os.ReadFile(filepath.Join(cfg.DataDir, cfg.HospitalMapFile))
	if err != nil {
		t.Fatalf("map file not written: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != reg.Households() {
		t.Errorf("map file has %d rows, want %d", len(lines), reg.Households())
	}
	for _, line := range lines {
		if !strings.HasSuffix(line, ",M1") {
			t.Errorf("unexpected map row %q", line)
		}
	}
}

func TestAssignHospitalsReadsExistingMap(t *testing.T) {
	cfg, m, reg := catchmentFixture(t)

	rows := make([]string, 0, reg.Households())
	for i := 0; i < reg.Households(); i++ {
		rows = append(rows, reg.HouseholdAt(i).Label+",M1")
	}
	path := filepath.Join(cfg.DataDir, cfg.HospitalMapFile)
	if err := os.WriteFile(path, []byte(strings.Join(rows, "\n")+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	before, _ := os.Stat(path)

	if err := m.AssignHospitalsToHouseholds(); err != nil {
		t.Fatalf("assignment failed: %v", err)
	}
	for i := 0; i < reg.Households(); i++ {
		if reg.HouseholdAt(i).HH.HospitalID < 0 {
			t.Errorf("household %s unassigned from map", reg.HouseholdAt(i).Label)
		}
	}

	// A complete map must not be rewritten.
	after, _ := os.Stat(path)
	if !after.ModTime().Equal(before.ModTime()) {
		t.Error("complete map file was rewritten")
	}
}

func TestAssignHospitalsMapDisabled(t *testing.T) {
	cfg, m, reg := catchmentFixture(t)
	cfg.HospitalMapFile = "none"

	if err := m.AssignHospitalsToHouseholds(); err != nil {
		t.Fatalf("assignment failed: %v", err)
	}
	if reg.HouseholdAt(0).HH.HospitalID < 0 {
		t.Error("household unassigned with map disabled")
	}
	if _, err := os.Stat(filepath.Join(cfg.DataDir, "none")); err == nil {
		t.Error("disabled map artifact was created")
	}
}

func TestAssignHospitalsNoHospitals(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	reg := place.NewRegistry()
	pop := agent.NewPopulation(reg)
	g := grid.Build(reg, cfg.PatchSizeKm)

	m := New(&cfg, reg, g, pop, entropy.New(1))
	if err := m.AssignHospitalsToHouseholds(); err == nil {
		t.Error("expected an error with zero hospitals")
	}
}
