// Package debugdb mirrors the loaded dataset into an in-memory SQLite
// database and exposes it through the tailsql console under /debug/.
// It is read-only diagnostics; the dashboard never queries it.
package debugdb

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/planar"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/treecover.report/internal/dataset"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// DB is the mirror database.
type DB struct {
	*sql.DB
}

// Open opens path (MemoryPath for an in-memory mirror) and migrates it to
// the latest schema.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Every connection to :memory: is a separate database.
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}

	db := &DB{sqlDB}
	if err := db.MigrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	log.Println("initialized debug mirror schema")
	return db, nil
}

// Mirror replaces the mirrored tables with the contents of ds in one
// transaction.
func (db *DB) Mirror(ctx context.Context, ds *dataset.Dataset) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{"DELETE FROM loss_records", "DELETE FROM countries"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear mirror: %w", err)
		}
	}

	countryStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO countries (iso, name, geometry_type, centroid_lat, centroid_lon, wkt)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer countryStmt.Close()

	for _, b := range ds.Boundaries() {
		var (
			kind, text string
			lat, lon   sql.NullFloat64
		)
		if b.Geometry != nil {
			c, _ := planar.CentroidArea(b.Geometry)
			kind, text = b.Geometry.GeoJSONType(), wkt.MarshalString(b.Geometry)
			lat = sql.NullFloat64{Float64: c.Lat(), Valid: true}
			lon = sql.NullFloat64{Float64: c.Lon(), Valid: true}
		}
		if _, err := countryStmt.ExecContext(ctx, b.SovereignISO, b.SovereignName, kind, lat, lon, text); err != nil {
			return fmt.Errorf("insert country %s: %w", b.SovereignISO, err)
		}
	}

	lossStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO loss_records (iso, year, hectares_lost, co2_emissions_mg)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer lossStmt.Close()

	for _, r := range ds.Records() {
		if _, err := lossStmt.ExecContext(ctx, r.ISO, r.Year, nullFloat(r.HectaresLost), nullFloat(r.CO2EmissionsMg)); err != nil {
			return fmt.Errorf("insert loss record %s %d: %w", r.ISO, r.Year, err)
		}
	}

	return tx.Commit()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// Counts returns the row count of each mirrored table and view.
func (db *DB) Counts(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int)
	for _, table := range []string{"countries", "loss_records", "joined_rows"} {
		var n int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		out[table] = n
	}
	return out, nil
}
