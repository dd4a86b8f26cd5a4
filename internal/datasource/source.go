// Package datasource detects, validates and loads incident datasets from
// CSV files or SQLite databases.
package datasource

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// SourceType identifies the type of data source
type SourceType string

const (
	// SourceTypeCSV is a header-driven CSV file
	SourceTypeCSV SourceType = "csv"
	// SourceTypeSQLite is a SQLite database with an incidents table
	SourceTypeSQLite SourceType = "sqlite"
)

// Priority values for source types (higher = preferred when equally fresh)
const (
	PrioritySQLite = 100
	PriorityCSV    = 50
)

var sqliteMagic = []byte("SQLite format 3\x00")

// DataSource represents a potential source of incident data
type DataSource struct {
	Type     SourceType `json:"type"`
	Path     string     `json:"path"`
	Priority int        `json:"priority"`
	ModTime  time.Time  `json:"mod_time"`
	Size     int64      `json:"size"`
	// Valid indicates whether the source passed validation
	Valid bool `json:"valid"`
	// ValidationError describes why validation failed (if Valid is false)
	ValidationError string `json:"validation_error,omitempty"`
	// IncidentCount is set during validation
	IncidentCount int `json:"incident_count"`
}

// String returns a human-readable description of the source
func (s DataSource) String() string {
	status := "valid"
	if !s.Valid {
		status = fmt.Sprintf("invalid: %s", s.ValidationError)
	}
	return fmt.Sprintf("%s (%s, mod=%s, incidents=%d, %s)",
		s.Path, s.Type, s.ModTime.Format(time.RFC3339), s.IncidentCount, status)
}

// Detect classifies path by extension, falling back to sniffing the SQLite
// file header.
func Detect(path string) (DataSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return DataSource{}, fmt.Errorf("cannot stat dataset: %w", err)
	}
	if info.IsDir() {
		return DataSource{}, fmt.Errorf("%s is a directory", path)
	}

	src := DataSource{Path: path, ModTime: info.ModTime(), Size: info.Size()}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		src.Type = SourceTypeSQLite
	case ".csv", ".tsv", ".txt":
		src.Type = SourceTypeCSV
	default:
		if isSQLiteFile(path) {
			src.Type = SourceTypeSQLite
		} else {
			src.Type = SourceTypeCSV
		}
	}
	if src.Type == SourceTypeSQLite {
		src.Priority = PrioritySQLite
	} else {
		src.Priority = PriorityCSV
	}
	return src, nil
}

func isSQLiteFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	head := make([]byte, len(sqliteMagic))
	if _, err := io.ReadFull(f, head); err != nil {
		return false
	}
	return bytes.Equal(head, sqliteMagic)
}

// DiscoverSources finds dataset files directly inside dir, freshest first.
// Files that are neither CSV nor SQLite are ignored.
func DiscoverSources(dir string) ([]DataSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset directory: %w", err)
	}

	var sources []DataSource
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".csv", ".db", ".sqlite", ".sqlite3":
		default:
			continue
		}
		src, err := Detect(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		sources = append(sources, src)
	}

	sort.Slice(sources, func(i, j int) bool {
		if sources[i].ModTime.Equal(sources[j].ModTime) {
			return sources[i].Priority > sources[j].Priority
		}
		return sources[i].ModTime.After(sources[j].ModTime)
	})
	return sources, nil
}

// SelectBestSource returns the first valid source. Sources are expected in
// DiscoverSources order.
func SelectBestSource(sources []DataSource) (DataSource, error) {
	for _, s := range sources {
		if s.Valid {
			return s, nil
		}
	}
	return DataSource{}, fmt.Errorf("no valid dataset among %d candidates", len(sources))
}
