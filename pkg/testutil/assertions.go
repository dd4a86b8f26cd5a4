package testutil

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/aidglobe/pkg/model"
)

// AssertViewAligned verifies the four FilteredView slices share one length.
func AssertViewAligned(t *testing.T, v *model.FilteredView) {
	t.Helper()
	n := v.Len()
	if len(v.Positions) != 3*n {
		t.Errorf("positions: got %d floats for %d records", len(v.Positions), n)
	}
	if len(v.UVs) != 2*n {
		t.Errorf("uvs: got %d floats for %d records", len(v.UVs), n)
	}
	if len(v.Colors) != 3*n {
		t.Errorf("colors: got %d floats for %d records", len(v.Colors), n)
	}
}

// AssertNear fails when got is further than tol from want.
func AssertNear(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s = %v, want %v (±%v)", name, got, want, tol)
	}
}

// AssertColor compares a color channel-wise within tol.
func AssertColor(t *testing.T, got, want model.RGB, tol float64) {
	t.Helper()
	if math.Abs(got.R-want.R) > tol || math.Abs(got.G-want.G) > tol || math.Abs(got.B-want.B) > tol {
		t.Errorf("color = %+v, want %+v", got, want)
	}
}

// AssertIDs verifies the view holds exactly the given IDs in order.
func AssertIDs(t *testing.T, v *model.FilteredView, want ...string) {
	t.Helper()
	got := IDs(v.Records)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("ids = %v, want %v", got, want)
	}
}

// AssertJSONEqual compares two values after JSON round-tripping.
func AssertJSONEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()

	expectedJSON, err := json.Marshal(expected)
	if err != nil {
		t.Fatalf("failed to marshal expected: %v", err)
	}
	actualJSON, err := json.Marshal(actual)
	if err != nil {
		t.Fatalf("failed to marshal actual: %v", err)
	}
	if string(expectedJSON) != string(actualJSON) {
		t.Errorf("JSON mismatch:\nexpected: %s\nactual:   %s", expectedJSON, actualJSON)
	}
}

// GoldenFile handles golden file comparisons.
type GoldenFile struct {
	t      *testing.T
	dir    string
	name   string
	update bool
}

// NewGoldenFile creates a golden file helper.
// If GENERATE_GOLDEN env var is set, golden files will be updated.
func NewGoldenFile(t *testing.T, dir, name string) *GoldenFile {
	t.Helper()
	return &GoldenFile{t: t, dir: dir, name: name, update: os.Getenv("GENERATE_GOLDEN") != ""}
}

// Path returns the full path to the golden file.
func (g *GoldenFile) Path() string {
	return filepath.Join(g.dir, g.name)
}

// Assert compares actual content against the golden file.
func (g *GoldenFile) Assert(actual string) {
	g.t.Helper()
	path := g.Path()

	if g.update {
		if err := os.MkdirAll(g.dir, 0755); err != nil {
			g.t.Fatalf("failed to create golden dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(actual), 0644); err != nil {
			g.t.Fatalf("failed to write golden file: %v", err)
		}
		g.t.Logf("updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			g.t.Fatalf("golden file does not exist: %s\nRun with GENERATE_GOLDEN=1 to create it", path)
		}
		g.t.Fatalf("failed to read golden file: %v", err)
	}
	if string(expected) == actual {
		return
	}
	expectedLines := strings.Split(string(expected), "\n")
	actualLines := strings.Split(actual, "\n")
	for i := 0; i < len(expectedLines) || i < len(actualLines); i++ {
		var expLine, actLine string
		if i < len(expectedLines) {
			expLine = expectedLines[i]
		}
		if i < len(actualLines) {
			actLine = actualLines[i]
		}
		if expLine != actLine {
			g.t.Errorf("golden file mismatch at line %d:\nexpected: %s\nactual:   %s", i+1, expLine, actLine)
			return
		}
	}
}

// WriteCSVFile writes incidents as a dataset CSV under dir and returns its path.
func WriteCSVFile(t *testing.T, dir, name string, incidents []model.Incident) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(ToCSV(incidents)), 0644); err != nil {
		t.Fatalf("failed to write dataset: %v", err)
	}
	return path
}

// IDs returns the IDs of records in order.
func IDs(records []*model.Incident) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}

// Pointers returns a pointer slice over incidents.
func Pointers(incidents []model.Incident) []*model.Incident {
	out := make([]*model.Incident, len(incidents))
	for i := range incidents {
		out[i] = &incidents[i]
	}
	return out
}
