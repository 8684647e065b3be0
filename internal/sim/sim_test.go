package sim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/epicast/synthplaces/internal/agent"
	"github.com/epicast/synthplaces/internal/config"
)

func writeInput(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// simFixture writes a complete, tiny input set: three households, one
// school, two workplaces, one hospital, and a two-unit group quarters.
func simFixture(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()

	writeInput(t, dir, "households.txt",
		"sp_id,serialno,stcotrbg,hh_race,hh_income,hh_size,hh_age,latitude,longitude\n"+
			"1,1,420030201001,1,90000,0,0,40.400000,-79.900000\n"+
			"2,2,420030201001,1,20000,0,0,40.410000,-79.890000\n"+
			"3,3,420050101002,2,50000,0,0,40.420000,-79.880000\n")
	writeInput(t, dir, "schools.txt",
		"sp_id,name,stabbr,address,city,county,zip,zip4,nces_id,total,prek,kinder,gr01_gr12,ungraded,latitude,longitude,source,stco\n"+
			"60,Test School,PA,,,,,,,,,,,,40.405000,-79.895000,gen,42003\n")
	writeInput(t, dir, "workplaces.txt",
		"sp_id,workers,latitude,longitude\n"+
			"50,0,40.406000,-79.894000\n"+
			"51,0,40.416000,-79.884000\n")
	writeInput(t, dir, "hospitals.txt",
		"sp_id,name,address,city,zip,phone,workers,physicians,beds,latitude,longitude\n"+
			"70,Main Hospital,,,,,200,20,120,40.415000,-79.885000\n")
	writeInput(t, dir, "gq.txt",
		"sp_id,gq_type,persons,stcotrbg,latitude,longitude\n"+
			"80,C,7,420030201001,40.408000,-79.892000\n")
	writeInput(t, dir, "people.txt",
		"sp_id,sp_hh_id,age,school_id,work_id,insurance\n"+
			"1,1,45,-1,50,0\n"+
			"2,1,44,-1,50,0\n"+
			"3,1,9,60,-1,0\n"+
			"4,2,70,-1,-1,1\n"+
			"5,3,30,-1,51,0\n"+
			"6,80,19,-1,80,0\n"+
			"7,80,20,-1,80,0\n"+
			"8,80,21,-1,80,0\n"+
			"9,80,22,-1,80,0\n")

	cfg := config.Default()
	cfg.InputDir = dir
	cfg.DataDir = t.TempDir()
	cfg.Days = 3
	return cfg
}

func TestSetupEndToEnd(t *testing.T) {
	cfg := simFixture(t)
	s := New(&cfg)

	if err := s.Setup(); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	// Income ordering over the household list, ascending.
	last := -1
	for i := 0; i < s.Reg.Households(); i++ {
		income := s.Reg.HouseholdAt(i).HH.Income
		if income < last {
			t.Errorf("household list not income sorted at rank %d: %d < %d", i, income, last)
		}
		last = income
	}

	// Every occupied household has a householder and a hospital.
	for i := 0; i < s.Reg.Households(); i++ {
		hh := s.Reg.HouseholdAt(i)
		if len(hh.HH.Members) == 0 {
			continue
		}
		found := false
		for _, pid := range hh.HH.Members {
			if s.Pop.Get(pid).Relationship == agent.RelHouseholder {
				found = true
			}
		}
		if !found {
			t.Errorf("household %s has no householder", hh.Label)
		}
		if hh.HH.HospitalID < 0 {
			t.Errorf("household %s has no hospital", hh.Label)
		}
	}

	// Group quarters split into two occupied units of two.
	main := s.Reg.FromLabel("H80")
	unit := s.Reg.FromLabel("H80-001")
	if main == nil || unit == nil {
		t.Fatal("group quarters units missing")
	}
	if len(main.HH.Members) != 2 || len(unit.HH.Members) != 2 {
		t.Errorf("group quarters split %d/%d, want 2/2",
			len(main.HH.Members), len(unit.HH.Members))
	}

	// The map artifact was produced.
	if _, err := os.Stat(filepath.Join(cfg.DataDir, cfg.HospitalMapFile)); err != nil {
		t.Errorf("hospital map artifact missing: %v", err)
	}
}

func TestUpdateResetsDailyPatients(t *testing.T) {
	cfg := simFixture(t)
	s := New(&cfg)
	if err := s.Setup(); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	h := s.Reg.HospitalAt(0)
	h.Hosp.DailyPatients = 17

	s.Update(0)
	if h.Hosp.DailyPatients != 0 {
		t.Errorf("daily patients = %d after update, want 0", h.Hosp.DailyPatients)
	}
	s.DailyReport(0)
	s.Summary()
}
