package datasource

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/aidglobe/pkg/loader"
	"github.com/vanderheijden86/aidglobe/pkg/model"
)

// IncidentsTable is the table read from SQLite datasets. Its column names
// are the CSV headers.
const IncidentsTable = "incidents"

// SQLiteReader provides read access to an incident SQLite database
type SQLiteReader struct {
	db   *sql.DB
	path string
}

// NewSQLiteReader opens a SQLite database for reading
func NewSQLiteReader(source DataSource) (*SQLiteReader, error) {
	if source.Type != SourceTypeSQLite {
		return nil, fmt.Errorf("source is not SQLite: %s", source.Type)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", source.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	// Best effort; read performance only.
	_, _ = db.Exec("PRAGMA temp_store = MEMORY")

	return &SQLiteReader{db: db, path: source.Path}, nil
}

// Close closes the database connection
func (r *SQLiteReader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Count returns the number of rows in the incidents table.
func (r *SQLiteReader) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+IncidentsTable).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting incidents: %w", err)
	}
	return n, nil
}

// LoadIncidents reads every row of the incidents table in rowid order.
// Cells are decoded exactly like CSV fields, so NULL behaves as a blank cell.
func (r *SQLiteReader) LoadIncidents(ctx context.Context, opts loader.ParseOptions) ([]model.Incident, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT * FROM `+IncidentsTable+` ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}
	dec, err := loader.NewDecoder(cols)
	if err != nil {
		return nil, err
	}

	cells := make([]sql.NullString, len(cols))
	dest := make([]any, len(cols))
	for i := range cells {
		dest[i] = &cells[i]
	}
	fields := make([]string, len(cols))

	warn := opts.Warner()
	var incidents []model.Incident
	rowNum := 0
	for rows.Next() {
		rowNum++
		if err := rows.Scan(dest...); err != nil {
			warn(fmt.Sprintf("skipping row %d: %v", rowNum, err))
			continue
		}
		for i, c := range cells {
			fields[i] = c.String
		}
		inc := dec.Decode(fields)
		if opts.RecordFilter != nil && !opts.RecordFilter(&inc) {
			continue
		}
		incidents = append(incidents, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating incidents: %w", err)
	}
	if len(incidents) == 0 {
		return nil, loader.ErrNoRecords
	}
	return incidents, nil
}
