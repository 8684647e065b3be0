// Package config holds the immutable run configuration.
// Built once in main and passed by pointer into each component; no
// package-level mutable parameters anywhere else in the tree.
package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config collects every tunable parameter of the place model.
type Config struct {
	// Run control.
	Seed     int64
	Days     int
	InputDir string
	DataDir  string

	// Household→hospital map artifact. "none" disables it.
	HospitalMapFile string

	// Regional grid.
	PatchSizeKm float64

	// Group-quarters mean unit sizes (residents per generated unit).
	CollegeDormMeanSize      float64
	MilitaryBarracksMeanSize float64
	PrisonCellMeanSize       float64
	NursingHomeRoomMeanSize  float64

	// Institutional staffing.
	SchoolFixedStaff          int
	SchoolStudentTeacherRatio float64
	HospitalFixedStaff        int
	HospitalWorkerPerBed      float64
	CollegeFixedStaff         int
	CollegeResidentStaffRatio float64
	PrisonFixedStaff          int
	PrisonResidentStaffRatio  float64
	MilitaryFixedStaff        int
	MilitaryResidentStaffRatio float64
	NursingFixedStaff         int
	NursingResidentStaffRatio float64

	// Hospital capacity model.
	HospitalOutpatientsPerEmployee float64
	ClinicOutpatientsPerEmployee   float64
	HospitalMinBedThreshold        int
	HospitalizationRadiusKm        float64
	OverallPanelSize               int
	CheckInsurance                 bool

	// Household sheltering.
	ShelterEnabled     bool
	PctSheltering      float64
	HighIncomeShelter  bool
	ShelterDelayMean   float64
	ShelterDelayStd    float64
	ShelterDurationMean float64
	ShelterDurationStd  float64
	EarlyShelterRate   float64
	ShelterDecayRate   float64

	// Disaster evacuation.
	DisasterEnabled     bool
	DisasterStartDay    int
	DisasterEndDay      int
	EvacStartOffset     int
	EvacEndOffset       int
	ReturnStartOffset   int
	ReturnEndOffset     int
	EvacProbPerDay      float64
	ReturnProbPerDay    float64
	MobileClinicMax     int
	MobileClinicOpenDelay  int
	MobileClinicClosureDay int
}

// Default returns the baseline configuration. Group-quarters mean sizes
// and staffing ratios follow the published synthetic-population defaults.
func Default() Config {
	return Config{
		Seed:     42,
		Days:     30,
		InputDir: "input",
		DataDir:  "data",

		HospitalMapFile: "household_hospital_map.csv",

		PatchSizeKm: 20.0,

		CollegeDormMeanSize:      3.5,
		MilitaryBarracksMeanSize: 12.0,
		PrisonCellMeanSize:       1.5,
		NursingHomeRoomMeanSize:  1.5,

		SchoolFixedStaff:          2,
		SchoolStudentTeacherRatio: 15.5,
		HospitalFixedStaff:        1,
		HospitalWorkerPerBed:      1.0,
		CollegeFixedStaff:         2,
		CollegeResidentStaffRatio: 8.0,
		PrisonFixedStaff:          2,
		PrisonResidentStaffRatio:  3.0,
		MilitaryFixedStaff:        2,
		MilitaryResidentStaffRatio: 10.0,
		NursingFixedStaff:         2,
		NursingResidentStaffRatio: 2.0,

		HospitalOutpatientsPerEmployee: 0.9,
		ClinicOutpatientsPerEmployee:   12.0,
		HospitalMinBedThreshold:        10,
		HospitalizationRadiusKm:        25.0,
		OverallPanelSize:               100,
		CheckInsurance:                 false,

		ShelterEnabled:      false,
		PctSheltering:       0.0,
		HighIncomeShelter:   false,
		ShelterDelayMean:    0,
		ShelterDelayStd:     0,
		ShelterDurationMean: 0,
		ShelterDurationStd:  0,
		EarlyShelterRate:    0,
		ShelterDecayRate:    0,

		DisasterEnabled:        false,
		DisasterStartDay:       -1,
		DisasterEndDay:         -1,
		EvacProbPerDay:         0,
		ReturnProbPerDay:       0,
		MobileClinicMax:        0,
		MobileClinicOpenDelay:  0,
		MobileClinicClosureDay: 14,
	}
}

// FromEnv overlays environment variables (SYNTHPLACES_*) onto cfg.
// A .env file in the working directory is honored if present.
func FromEnv(cfg Config) Config {
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env file")
	}

	envInt64(&cfg.Seed, "SYNTHPLACES_SEED")
	envInt(&cfg.Days, "SYNTHPLACES_DAYS")
	envStr(&cfg.InputDir, "SYNTHPLACES_INPUT_DIR")
	envStr(&cfg.DataDir, "SYNTHPLACES_DATA_DIR")
	envStr(&cfg.HospitalMapFile, "SYNTHPLACES_HOSPITAL_MAP_FILE")
	envFloat(&cfg.PatchSizeKm, "SYNTHPLACES_PATCH_SIZE_KM")

	envBool(&cfg.CheckInsurance, "SYNTHPLACES_CHECK_INSURANCE")
	envFloat(&cfg.HospitalizationRadiusKm, "SYNTHPLACES_HOSPITALIZATION_RADIUS_KM")
	envInt(&cfg.OverallPanelSize, "SYNTHPLACES_OVERALL_PANEL_SIZE")

	envBool(&cfg.ShelterEnabled, "SYNTHPLACES_SHELTER_ENABLED")
	envFloat(&cfg.PctSheltering, "SYNTHPLACES_PCT_SHELTERING")
	envBool(&cfg.HighIncomeShelter, "SYNTHPLACES_HIGH_INCOME_SHELTER")
	envFloat(&cfg.ShelterDelayMean, "SYNTHPLACES_SHELTER_DELAY_MEAN")
	envFloat(&cfg.ShelterDelayStd, "SYNTHPLACES_SHELTER_DELAY_STD")
	envFloat(&cfg.ShelterDurationMean, "SYNTHPLACES_SHELTER_DURATION_MEAN")
	envFloat(&cfg.ShelterDurationStd, "SYNTHPLACES_SHELTER_DURATION_STD")
	envFloat(&cfg.EarlyShelterRate, "SYNTHPLACES_EARLY_SHELTER_RATE")
	envFloat(&cfg.ShelterDecayRate, "SYNTHPLACES_SHELTER_DECAY_RATE")

	envBool(&cfg.DisasterEnabled, "SYNTHPLACES_DISASTER_ENABLED")
	envInt(&cfg.DisasterStartDay, "SYNTHPLACES_DISASTER_START_DAY")
	envInt(&cfg.DisasterEndDay, "SYNTHPLACES_DISASTER_END_DAY")
	envInt(&cfg.EvacStartOffset, "SYNTHPLACES_EVAC_START_OFFSET")
	envInt(&cfg.EvacEndOffset, "SYNTHPLACES_EVAC_END_OFFSET")
	envInt(&cfg.ReturnStartOffset, "SYNTHPLACES_RETURN_START_OFFSET")
	envInt(&cfg.ReturnEndOffset, "SYNTHPLACES_RETURN_END_OFFSET")
	envFloat(&cfg.EvacProbPerDay, "SYNTHPLACES_EVAC_PROB_PER_DAY")
	envFloat(&cfg.ReturnProbPerDay, "SYNTHPLACES_RETURN_PROB_PER_DAY")
	envInt(&cfg.MobileClinicMax, "SYNTHPLACES_MOBILE_CLINIC_MAX")

	return cfg
}

func envStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		} else {
			slog.Warn("ignoring malformed env var", "key", key, "value", v)
		}
	}
}

func envInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		} else {
			slog.Warn("ignoring malformed env var", "key", key, "value", v)
		}
	}
}

func envFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		} else {
			slog.Warn("ignoring malformed env var", "key", key, "value", v)
		}
	}
}

func envBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		} else {
			slog.Warn("ignoring malformed env var", "key", key, "value", v)
		}
	}
}
