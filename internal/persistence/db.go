// Package persistence provides SQLite-based snapshot storage for the
// loaded place graph and its scheduling state.
package persistence

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/epicast/synthplaces/internal/place"
)

// DB wraps a SQLite connection for snapshot persistence.
type DB struct {
	conn  *sqlx.DB
	runID string
}

// Open opens or creates a SQLite database at the given path and assigns
// this process a fresh run id.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn, runID: uuid.NewString()}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// RunID returns the identifier assigned to this run.
func (db *DB) RunID() string { return db.runID }

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS places (
		id INTEGER PRIMARY KEY,
		label TEXT NOT NULL,
		kind INTEGER NOT NULL,
		subtype INTEGER NOT NULL,
		lat REAL NOT NULL,
		lon REAL NOT NULL,
		tract_fips INTEGER NOT NULL,
		county_fips INTEGER NOT NULL,
		size INTEGER NOT NULL,
		hospital_id INTEGER
	);

	CREATE TABLE IF NOT EXISTS counties (
		fips INTEGER PRIMARY KEY,
		households INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS census_tracts (
		fips INTEGER PRIMARY KEY,
		households INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS shelter_windows (
		household_id INTEGER PRIMARY KEY,
		start_day INTEGER NOT NULL,
		end_day INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_places_label ON places(label);
	CREATE INDEX IF NOT EXISTS idx_places_kind ON places(kind);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SavePlaces writes every place to the database (full replace).
func (db *DB) SavePlaces(reg *place.Registry) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM places"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO places
		(id, label, kind, subtype, lat, lon, tract_fips, county_fips, size, hospital_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := 0; i < reg.Len(); i++ {
		p := reg.Get(i)
		var hospID interface{}
		if p.Kind == place.Household && p.HH.HospitalID >= 0 {
			hospID = p.HH.HospitalID
		}
		_, err := stmt.Exec(
			p.ID, p.Label, p.Kind, p.Subtype, p.Lat, p.Lon,
			p.TractFIPS, p.CountyFIPS, p.Size(), hospID,
		)
		if err != nil {
			return fmt.Errorf("insert place %d: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// SaveRegions writes the county and census-tract aggregates.
func (db *DB) SaveRegions(reg *place.Registry) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM counties"); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM census_tracts"); err != nil {
		return err
	}

	for _, c := range reg.Counties() {
		_, err := tx.Exec(
			"INSERT INTO counties (fips, households) VALUES (?, ?)",
			c.FIPS, len(c.Households),
		)
		if err != nil {
			return fmt.Errorf("insert county %d: %w", c.FIPS, err)
		}
	}
	for _, t := range reg.Tracts() {
		_, err := tx.Exec(
			"INSERT INTO census_tracts (fips, households) VALUES (?, ?)",
			t.FIPS, len(t.Households),
		)
		if err != nil {
			return fmt.Errorf("insert tract %d: %w", t.FIPS, err)
		}
	}

	return tx.Commit()
}

// SaveShelterWindows writes the shelter schedule of every sheltering
// household (full replace).
func (db *DB) SaveShelterWindows(reg *place.Registry) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM shelter_windows"); err != nil {
		return err
	}

	for i := 0; i < reg.Households(); i++ {
		hh := reg.HouseholdAt(i)
		if !hh.HH.Sheltering {
			continue
		}
		_, err := tx.Exec(
			"INSERT INTO shelter_windows (household_id, start_day, end_day) VALUES (?, ?, ?)",
			hh.ID, hh.HH.ShelterStart, hh.HH.ShelterEnd,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveMeta stores a key-value pair in run metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO run_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM run_meta WHERE key = ?", key)
	return value, err
}

// SaveSnapshot performs a full save of the place graph.
func (db *DB) SaveSnapshot(reg *place.Registry, lastDay int) error {
	slog.Info("saving snapshot", "run_id", db.runID, "places", reg.Len())

	if err := db.SavePlaces(reg); err != nil {
		return fmt.Errorf("save places: %w", err)
	}
	if err := db.SaveRegions(reg); err != nil {
		return fmt.Errorf("save regions: %w", err)
	}
	if err := db.SaveShelterWindows(reg); err != nil {
		return fmt.Errorf("save shelter windows: %w", err)
	}
	if err := db.SaveMeta("run_id", db.runID); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if err := db.SaveMeta("last_day", fmt.Sprintf("%d", lastDay)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	slog.Info("snapshot saved")
	return nil
}
