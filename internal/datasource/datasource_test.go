package datasource

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vanderheijden86/aidglobe/pkg/loader"
	"github.com/vanderheijden86/aidglobe/pkg/model"
	"github.com/vanderheijden86/aidglobe/pkg/testutil"
)

func quiet() loader.ParseOptions {
	return loader.ParseOptions{WarningHandler: func(string) {}}
}

// writeIncidentsDB creates a SQLite dataset with TEXT columns named after
// the CSV headers.
func writeIncidentsDB(t *testing.T, path string, incidents []model.Incident) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	cols := model.Columns()
	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = `"` + c + `" TEXT`
		marks[i] = "?"
	}
	if _, err := db.Exec(`CREATE TABLE incidents (` + strings.Join(quoted, ", ") + `)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	stmt := `INSERT INTO incidents VALUES (` + strings.Join(marks, ", ") + `)`
	for _, inc := range incidents {
		row := testutil.Row(inc)
		args := make([]any, len(row))
		for i, v := range row {
			args[i] = v
		}
		if _, err := db.Exec(stmt, args...); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
}

func TestDetect(t *testing.T) {
	dir := t.TempDir()
	csvPath := testutil.WriteCSVFile(t, dir, "incidents.csv", testutil.QuickIncidents(2))
	dbPath := filepath.Join(dir, "incidents.db")
	writeIncidentsDB(t, dbPath, testutil.QuickIncidents(2))

	// An extensionless SQLite file is sniffed by its header.
	sniffed := filepath.Join(dir, "dataset")
	data, err := os.ReadFile(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(sniffed, data, 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path string
		want SourceType
	}{
		{csvPath, SourceTypeCSV},
		{dbPath, SourceTypeSQLite},
		{sniffed, SourceTypeSQLite},
	}
	for _, tt := range tests {
		src, err := Detect(tt.path)
		if err != nil {
			t.Fatalf("Detect(%s): %v", tt.path, err)
		}
		if src.Type != tt.want {
			t.Errorf("Detect(%s) = %s, want %s", filepath.Base(tt.path), src.Type, tt.want)
		}
	}

	if _, err := Detect(filepath.Join(dir, "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Detect(dir); err == nil {
		t.Error("expected error for directory")
	}
}

func TestLoad_SQLiteMatchesCSV(t *testing.T) {
	dir := t.TempDir()
	incs := testutil.NewDefault().Incidents(25)
	csvPath := testutil.WriteCSVFile(t, dir, "incidents.csv", incs)
	dbPath := filepath.Join(dir, "incidents.sqlite")
	writeIncidentsDB(t, dbPath, incs)

	ctx := context.Background()
	fromCSV, err := Load(ctx, csvPath, quiet())
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	fromDB, err := Load(ctx, dbPath, quiet())
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	if len(fromCSV) != len(fromDB) {
		t.Fatalf("len csv=%d sqlite=%d", len(fromCSV), len(fromDB))
	}
	for i := range fromCSV {
		if fromCSV[i] != fromDB[i] {
			t.Errorf("row %d differs:\ncsv    %+v\nsqlite %+v", i, fromCSV[i], fromDB[i])
		}
	}
}

func TestLoad_SQLiteTypedColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typed.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	_, err = db.Exec(`CREATE TABLE incidents ("Year" INTEGER, "Latitude" REAL, "Longitude" REAL, "UN" INTEGER, "Country" TEXT);
		INSERT INTO incidents VALUES (2004, 33.5, -7.25, 2, 'Morocco'), (NULL, 1.0, 2.0, 1, NULL);`)
	db.Close()
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	incs, err := Load(context.Background(), path, quiet())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(incs) != 2 {
		t.Fatalf("got %d rows", len(incs))
	}
	if incs[0].Year != 2004 || incs[0].Lat != 33.5 || incs[0].Lon != -7.25 || !incs[0].Involves(model.OrgUN) {
		t.Errorf("typed row = %+v", incs[0])
	}
	if incs[1].YearOK || incs[1].Country != "" {
		t.Errorf("NULL cells should decode as blank: %+v", incs[1])
	}
}

func TestLoad_SQLiteMissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	_, err = db.Exec(`CREATE TABLE incidents ("Year" INTEGER); INSERT INTO incidents VALUES (2001);`)
	db.Close()
	if err != nil {
		t.Fatal(err)
	}
	_, err = Load(context.Background(), path, quiet())
	if !errors.Is(err, loader.ErrMissingColumns) {
		t.Errorf("expected ErrMissingColumns, got %v", err)
	}
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	gen := testutil.NewDefault()
	a, b := gen.Incidents(4), gen.Incidents(3)
	pa := testutil.WriteCSVFile(t, dir, "a.csv", a)
	pb := filepath.Join(dir, "b.db")
	writeIncidentsDB(t, pb, b)

	got, err := LoadAll(context.Background(), []string{pa, pb}, quiet())
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(got) != 7 || got[0].ID != a[0].ID || got[4].ID != b[0].ID {
		t.Errorf("mixed load order wrong: %v", testutil.IDs(testutil.Pointers(got)))
	}

	pc := testutil.WriteCSVFile(t, dir, "c.csv", b)
	got, err = LoadAll(context.Background(), []string{pa, pc}, quiet())
	if err != nil || len(got) != 7 {
		t.Errorf("csv load: %d %v", len(got), err)
	}
}

func TestDiscoverAndValidate(t *testing.T) {
	dir := t.TempDir()
	old := testutil.WriteCSVFile(t, dir, "old.csv", testutil.QuickIncidents(3))
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}
	testutil.WriteCSVFile(t, dir, "new.csv", testutil.QuickIncidents(5))
	if err := os.WriteFile(filepath.Join(dir, "broken.csv"), []byte("nope\n1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.md"), []byte("# hi"), 0644); err != nil {
		t.Fatal(err)
	}

	sources, err := DiscoverSources(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 3 {
		t.Fatalf("expected 3 sources, got %v", sources)
	}
	for i := range sources {
		_ = ValidateSource(context.Background(), &sources[i])
	}
	best, err := SelectBestSource(sources)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(best.Path) != "new.csv" || best.IncidentCount != 5 {
		t.Errorf("best = %s", best)
	}
	for _, s := range sources {
		if filepath.Base(s.Path) == "broken.csv" && (s.Valid || !strings.Contains(s.String(), "invalid")) {
			t.Errorf("broken source reported valid: %s", s)
		}
	}
}

func TestDiff(t *testing.T) {
	mk := func(id string, affected float64) model.Incident {
		inc := testutil.At(1, 2, 2001, model.OrgUN)
		inc.ID = id
		inc.TotalAffected = affected
		return inc
	}
	a := []model.Incident{mk("1", 1), mk("2", 2), mk("3", 3)}
	b := []model.Incident{mk("2", 2), mk("3", 30), mk("4", 4), mk("", 0)}

	d := Diff(a, b, DefaultDiffOptions())
	if !d.HasChanges() {
		t.Fatal("expected changes")
	}
	if strings.Join(d.Added, ",") != "4" || strings.Join(d.Removed, ",") != "1" || strings.Join(d.Changed, ",") != "3" {
		t.Errorf("diff = %+v", d)
	}
	if d.Unkeyed != 1 || d.CountA != 3 || d.CountB != 4 {
		t.Errorf("counts = %+v", d)
	}
	if got := d.Summary(); got != "3 → 4 incidents +1 -1 ~1" {
		t.Errorf("Summary = %q", got)
	}

	same := Diff(a, a, DiffOptions{})
	if same.HasChanges() || same.Summary() != "dataset unchanged (3 incidents)" {
		t.Errorf("identical diff = %+v", same)
	}
}

func TestDiff_MaxDifferences(t *testing.T) {
	var b []model.Incident
	for i := 0; i < 10; i++ {
		inc := testutil.At(0, 0, 2000, model.OrgUN)
		inc.ID = string(rune('a' + i))
		b = append(b, inc)
	}
	d := Diff(nil, b, DiffOptions{MaxDifferences: 3})
	if strings.Join(d.Added, "") != "abc" {
		t.Errorf("Added = %v", d.Added)
	}
}
