package heatmap

import (
	"math"
	"testing"

	"github.com/vanderheijden86/aidglobe/pkg/model"
	"github.com/vanderheijden86/aidglobe/pkg/testutil"
)

func TestIntensityFloor(t *testing.T) {
	in := DefaultScale().Intensity(0)
	if in.Raw != 1 {
		t.Errorf("raw = %v, want 1", in.Raw)
	}
	want := math.Log(2) / math.Log(101)
	testutil.AssertNear(t, "normalized", in.Normalized, want, 1e-12)
	// ln2/ln101 is ~0.15, above the floor, so the floor only applies when
	// the reference is large enough.
	big := Scale{Reference: 1e9, Floor: 0.05}.Intensity(0)
	if big.Adjusted != 0.05 {
		t.Errorf("adjusted = %v, want floor 0.05", big.Adjusted)
	}
}

func TestIntensityReference(t *testing.T) {
	in := DefaultScale().Intensity(100)
	testutil.AssertNear(t, "normalized", in.Normalized, 1.0, 1e-12)
	c := Ramp(in.Adjusted)
	testutil.AssertColor(t, c, model.RGB{R: 1, G: 1, B: 0.4}, 1e-12)
}

func TestIntensityFormula(t *testing.T) {
	tests := []struct {
		agg  float64
		want float64
	}{
		{0, math.Log(2) / math.Log(101)},
		{0.5, math.Log(2) / math.Log(101)},
		{9, math.Log(10) / math.Log(101)},
		{1000, math.Log(1001) / math.Log(101)},
		{math.NaN(), math.Log(2) / math.Log(101)},
	}
	for _, tt := range tests {
		got := DefaultScale().Intensity(tt.agg)
		testutil.AssertNear(t, "adjusted", got.Adjusted, tt.want, 1e-12)
	}
}

func TestRampClamps(t *testing.T) {
	c := Ramp(0.05)
	testutil.AssertColor(t, c, model.RGB{R: 1, G: 0.075, B: 0.02}, 1e-12)
	c = Ramp(3)
	testutil.AssertColor(t, c, model.RGB{R: 1, G: 1, B: 1}, 0)
}

func TestBin(t *testing.T) {
	a := testutil.At(12, 33, 2005, model.OrgUN)
	a.TotalAffected = 4
	b := testutil.At(14.9, 34, 2006, model.OrgINGO)
	b.TotalAffected = math.NaN()
	c := testutil.At(-0.5, -0.5, 2007, model.OrgUN)
	c.TotalAffected = 2
	d := testutil.At(11, 31, 2020, model.OrgUN) // out of year range
	d.TotalAffected = 50
	e := testutil.At(11, 31, 2005, model.OrgNNGO) // org not selected
	records := testutil.Pointers([]model.Incident{a, b, c, d, e})

	st := model.FilterState{MinYear: 2000, MaxYear: 2010, Orgs: model.NewOrgSet(model.OrgUN, model.OrgINGO)}
	cells := Bin(records, st, Options{CellSize: 5})
	if len(cells) != 2 {
		t.Fatalf("got %d cells, want 2: %+v", len(cells), cells)
	}

	first := cells[0]
	if first.LatBin != 2 || first.LonBin != 6 || first.Count != 2 || first.AggregateAffected != 4 {
		t.Errorf("first cell = %+v", first)
	}
	if first.CenterLat != 12.5 || first.CenterLon != 32.5 {
		t.Errorf("first center = %v,%v", first.CenterLat, first.CenterLon)
	}
	second := cells[1]
	if second.LatBin != -1 || second.LonBin != -1 || second.CenterLat != -2.5 || second.CenterLon != -2.5 {
		t.Errorf("second cell = %+v", second)
	}
	want := DefaultScale().Intensity(4).Adjusted
	testutil.AssertNear(t, "intensity", first.Intensity, want, 1e-12)
	testutil.AssertColor(t, first.Color, Ramp(want), 1e-12)
}

func TestBinFoldsTopEdge(t *testing.T) {
	st := model.FilterState{MinYear: 2000, MaxYear: 2010, Orgs: model.NewOrgSet(model.OrgUN)}
	tests := []struct {
		cs               float64
		lat, lon         float64
		latBin, lonBin   int
		centLat, centLon float64
	}{
		{5, 90, 180, 17, 35, 87.5, 177.5},
		{5, -90, -180, -18, -36, -87.5, -177.5},
		{90, 90, 180, 0, 1, 45, 135},
		{7, 90, 180, 12, 25, 87.5, 178.5},
	}
	for _, tt := range tests {
		records := testutil.Pointers([]model.Incident{testutil.At(tt.lat, tt.lon, 2005, model.OrgUN)})
		cells := Bin(records, st, Options{CellSize: tt.cs})
		if len(cells) != 1 {
			t.Fatalf("cs=%v: got %d cells", tt.cs, len(cells))
		}
		c := cells[0]
		if c.LatBin != tt.latBin || c.LonBin != tt.lonBin {
			t.Errorf("cs=%v (%v,%v): bins = %d,%d, want %d,%d", tt.cs, tt.lat, tt.lon, c.LatBin, c.LonBin, tt.latBin, tt.lonBin)
		}
		if c.CenterLat != tt.centLat || c.CenterLon != tt.centLon {
			t.Errorf("cs=%v (%v,%v): center = %v,%v, want %v,%v", tt.cs, tt.lat, tt.lon, c.CenterLat, c.CenterLon, tt.centLat, tt.centLon)
		}
	}
}

func TestBinEmptyOrgs(t *testing.T) {
	records := testutil.Pointers(testutil.QuickIncidents(50))
	cells := Bin(records, model.FilterState{MinYear: 0, MaxYear: 3000}, Options{})
	if len(cells) != 0 {
		t.Errorf("expected no cells, got %d", len(cells))
	}
}

func TestBinCountsEveryMatch(t *testing.T) {
	incs := testutil.QuickIncidents(300)
	records := testutil.Pointers(incs)
	st := model.FilterState{MinYear: 1990, MaxYear: 2030, Orgs: model.AllOrgs}
	total := 0
	for _, c := range Bin(records, st, Options{CellSize: 10}) {
		total += c.Count
	}
	if total != len(incs) {
		t.Errorf("cells hold %d incidents, want %d", total, len(incs))
	}
}

func TestBuffers(t *testing.T) {
	cells := []model.GridCell{{CenterLat: 2.5, CenterLon: 2.5, Color: model.RGB{R: 1, G: 0.5, B: 0.1}}}
	l := Buffers(cells, 1.035)
	if l.Len() != 1 || len(l.Positions) != 3 || len(l.UVs) != 2 {
		t.Fatalf("layer = %+v", l)
	}
	if l.Colors[1] != 0.5 {
		t.Errorf("green = %v", l.Colors[1])
	}
}

func TestSummarize(t *testing.T) {
	if s := Summarize(nil); s.Hottest != -1 || s.Cells != 0 {
		t.Errorf("empty summary = %+v", s)
	}
	cells := []model.GridCell{
		{AggregateAffected: 2, Count: 1, Intensity: 0.2},
		{AggregateAffected: 10, Count: 3, Intensity: 0.6},
	}
	s := Summarize(cells)
	if s.Hottest != 1 || s.MaxAffected != 10 || s.TotalAffected != 12 || s.Incidents != 4 {
		t.Errorf("summary = %+v", s)
	}
	testutil.AssertNear(t, "mean intensity", s.MeanIntensity, 0.4, 1e-12)
	if s.StdDevIntensity <= 0 {
		t.Errorf("stddev = %v", s.StdDevIntensity)
	}
}
