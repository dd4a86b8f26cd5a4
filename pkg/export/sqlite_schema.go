package export

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/vanderheijden86/aidglobe/pkg/model"
)

// SchemaVersion is recorded in export_meta.
const SchemaVersion = 1

// numericColumns are stored as REAL; everything else is TEXT.
var numericColumns = map[string]bool{
	model.ColYear: true, model.ColMonth: true, model.ColDay: true,
	model.ColLatitude: true, model.ColLongitude: true,
	model.ColTotalKilled: true, model.ColTotalWounded: true, model.ColTotalKidnap: true,
	model.ColTotalAffected: true, model.ColGenderMale: true, model.ColGenderFemale: true,
	model.ColGenderUnknown: true,
}

func init() {
	for _, o := range model.AllOrganizations {
		numericColumns[o.Column()] = true
	}
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// CreateSchema creates all tables and indexes. The incidents table uses the
// dataset headers as column names so an export can be loaded back as a
// dataset.
func CreateSchema(db *sql.DB) error {
	if err := createIncidentsTable(db); err != nil {
		return fmt.Errorf("create incidents table: %w", err)
	}
	if err := createViewTables(db); err != nil {
		return fmt.Errorf("create view tables: %w", err)
	}
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	if err := createMetaTable(db); err != nil {
		return fmt.Errorf("create meta table: %w", err)
	}
	return nil
}

func createIncidentsTable(db *sql.DB) error {
	cols := model.Columns()
	defs := make([]string, len(cols))
	for i, c := range cols {
		typ := "TEXT"
		if numericColumns[c] {
			typ = "REAL"
		}
		defs[i] = quoteIdent(c) + " " + typ
	}
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS incidents (` + strings.Join(defs, ", ") + `)`)
	return err
}

// createViewTables creates the render-buffer tables. view_points rows are
// keyed by position in the view and reference incidents by rowid.
func createViewTables(db *sql.DB) error {
	pointsSQL := `
		CREATE TABLE IF NOT EXISTS view_points (
			idx INTEGER PRIMARY KEY,
			incident_rowid INTEGER NOT NULL,
			x REAL NOT NULL, y REAL NOT NULL, z REAL NOT NULL,
			u REAL NOT NULL, v REAL NOT NULL,
			r REAL NOT NULL, g REAL NOT NULL, b REAL NOT NULL,
			FOREIGN KEY (incident_rowid) REFERENCES incidents(rowid)
		)
	`
	if _, err := db.Exec(pointsSQL); err != nil {
		return fmt.Errorf("create view_points table: %w", err)
	}

	cellsSQL := `
		CREATE TABLE IF NOT EXISTS grid_cells (
			lat_bin INTEGER NOT NULL,
			lon_bin INTEGER NOT NULL,
			center_lat REAL NOT NULL,
			center_lon REAL NOT NULL,
			aggregate_affected REAL NOT NULL,
			incident_count INTEGER NOT NULL,
			intensity REAL NOT NULL,
			r REAL NOT NULL, g REAL NOT NULL, b REAL NOT NULL,
			PRIMARY KEY (lat_bin, lon_bin)
		)
	`
	if _, err := db.Exec(cellsSQL); err != nil {
		return fmt.Errorf("create grid_cells table: %w", err)
	}
	return nil
}

func createIndexes(db *sql.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_incidents_year ON incidents(` + quoteIdent(model.ColYear) + `)`,
		`CREATE INDEX IF NOT EXISTS idx_incidents_country ON incidents(` + quoteIdent(model.ColCountry) + `)`,
		`CREATE INDEX IF NOT EXISTS idx_points_uv ON view_points(u, v)`,
		`CREATE INDEX IF NOT EXISTS idx_cells_intensity ON grid_cells(intensity DESC)`,
	}
	for _, stmt := range indexes {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

func createMetaTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS export_meta (
			key TEXT PRIMARY KEY,
			value TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("create export_meta table: %w", err)
	}
	return nil
}
