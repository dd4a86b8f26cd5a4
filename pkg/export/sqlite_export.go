package export

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/aidglobe/pkg/debug"
	"github.com/vanderheijden86/aidglobe/pkg/metrics"
	"github.com/vanderheijden86/aidglobe/pkg/model"
)

// exportTimer records one export in metrics.Export and the debug log.
func exportTimer(kind string) func() {
	return metrics.TimerWithCallback(metrics.Export, func(d time.Duration) {
		debug.LogTiming("export "+kind, d)
	})
}

// SQLiteExporter writes a frame to a SQLite database.
type SQLiteExporter struct {
	Frame Frame
}

// NewSQLiteExporter creates an exporter for f.
func NewSQLiteExporter(f Frame) *SQLiteExporter {
	return &SQLiteExporter{Frame: f}
}

// Export writes the database to path, replacing any existing file.
func (e *SQLiteExporter) Export(path string) error {
	defer exportTimer("sqlite")()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing database: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	dbClosed := false
	defer func() {
		if !dbClosed {
			db.Close()
		}
	}()

	if err := CreateSchema(db); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if err := e.insertView(db); err != nil {
		return fmt.Errorf("insert view: %w", err)
	}
	if err := e.insertCells(db); err != nil {
		return fmt.Errorf("insert cells: %w", err)
	}
	if err := e.insertMeta(db); err != nil {
		return fmt.Errorf("insert meta: %w", err)
	}
	if _, err := db.Exec(`ANALYZE`); err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	if err := db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	dbClosed = true
	return nil
}

// insertView writes each view record and its buffers in one transaction.
func (e *SQLiteExporter) insertView(db *sql.DB) error {
	v := e.Frame.View
	if v.Len() == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	cols := model.Columns()
	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
		marks[i] = "?"
	}
	incStmt, err := tx.Prepare(`INSERT INTO incidents (` + strings.Join(quoted, ", ") + `) VALUES (` + strings.Join(marks, ", ") + `)`)
	if err != nil {
		return err
	}
	defer incStmt.Close()

	ptStmt, err := tx.Prepare(`
		INSERT INTO view_points (idx, incident_rowid, x, y, z, u, v, r, g, b)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer ptStmt.Close()

	for i, inc := range v.Records {
		res, err := incStmt.Exec(incidentArgs(inc)...)
		if err != nil {
			return fmt.Errorf("insert incident %s: %w", inc.ID, err)
		}
		rowid, err := res.LastInsertId()
		if err != nil {
			return err
		}
		p, uv, c := v.Position(i), v.UV(i), v.Color(i)
		if _, err := ptStmt.Exec(i, rowid, p.X, p.Y, p.Z, uv.U, uv.V, c.R, c.G, c.B); err != nil {
			return fmt.Errorf("insert point %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// incidentArgs orders inc's fields like model.Columns. Invalid years are
// stored as NULL.
func incidentArgs(inc *model.Incident) []any {
	var year any
	if inc.YearOK {
		year = inc.Year
	}
	args := []any{
		inc.ID, year, inc.Month, inc.Day, inc.Country, inc.Region,
		inc.Lat, inc.Lon, inc.Means, inc.AttackContext, inc.ActorType,
	}
	for _, o := range model.AllOrganizations {
		args = append(args, inc.Orgs[o])
	}
	return append(args,
		inc.TotalKilled, inc.TotalWounded, inc.TotalKidnapped, inc.TotalAffected,
		inc.GenderMale, inc.GenderFemale, inc.GenderUnknown, inc.Details,
	)
}

func (e *SQLiteExporter) insertCells(db *sql.DB) error {
	if len(e.Frame.Cells) == 0 {
		return nil
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO grid_cells (lat_bin, lon_bin, center_lat, center_lon, aggregate_affected, incident_count, intensity, r, g, b)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range e.Frame.Cells {
		_, err := stmt.Exec(c.LatBin, c.LonBin, c.CenterLat, c.CenterLon, c.AggregateAffected,
			c.Count, c.Intensity, c.Color.R, c.Color.G, c.Color.B)
		if err != nil {
			return fmt.Errorf("insert cell %d,%d: %w", c.LatBin, c.LonBin, err)
		}
	}
	return tx.Commit()
}

func (e *SQLiteExporter) insertMeta(db *sql.DB) error {
	meta := e.Frame.Meta()
	filterJSON, err := json.Marshal(meta.Filter)
	if err != nil {
		return fmt.Errorf("marshal filter: %w", err)
	}
	entries := map[string]string{
		"schema_version": strconv.Itoa(SchemaVersion),
		"version":        meta.Version,
		"generated_at":   meta.GeneratedAt.Format(time.RFC3339),
		"title":          meta.Title,
		"chapter":        meta.Chapter,
		"filter":         string(filterJSON),
		"layer":          meta.Layer.String(),
		"incident_count": strconv.Itoa(meta.Incidents),
		"cell_count":     strconv.Itoa(meta.Cells),
		"data_hash":      meta.DataHash,
	}
	for k, v := range entries {
		if _, err := db.Exec(`INSERT INTO export_meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("insert meta %s: %w", k, err)
		}
	}
	return nil
}
