package proximity

import (
	"reflect"
	"testing"

	"github.com/vanderheijden86/aidglobe/pkg/filter"
	"github.com/vanderheijden86/aidglobe/pkg/model"
	"github.com/vanderheijden86/aidglobe/pkg/store"
	"github.com/vanderheijden86/aidglobe/pkg/testutil"
	"pgregory.net/rapid"
)

func uvView(uvs ...float64) *model.FilteredView {
	n := len(uvs) / 2
	v := &model.FilteredView{
		Records:   make([]*model.Incident, n),
		Positions: make([]float64, 3*n),
		UVs:       uvs,
		Colors:    make([]float64, 3*n),
	}
	for i := range v.Records {
		v.Records[i] = &model.Incident{}
	}
	return v
}

func TestQueryKnownPoints(t *testing.T) {
	v := uvView(0.10, 0.10, 0.50, 0.50, 0.11, 0.11)
	q := model.UVPoint{U: 0.10, V: 0.10}

	got := Query(v, q, 0.05)
	if !reflect.DeepEqual(got, []int{0, 2}) {
		t.Errorf("Query = %v, want [0 2]", got)
	}
	got = NewIndex(v).Query(q, 0.05)
	if !reflect.DeepEqual(got, []int{0, 2}) {
		t.Errorf("Index.Query = %v, want [0 2]", got)
	}
}

func TestQueryStrictBoundary(t *testing.T) {
	v := uvView(0.5, 0.5, 0.75, 0.5)
	q := model.UVPoint{U: 0.5, V: 0.5}
	if got := Query(v, q, 0.25); !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("point at exactly radius must be excluded, got %v", got)
	}
	if got := NewIndex(v).Query(q, 0.25); !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("index: point at exactly radius must be excluded, got %v", got)
	}
}

func TestQueryEdgeCases(t *testing.T) {
	v := uvView(0.1, 0.1)
	q := model.UVPoint{U: 0.1, V: 0.1}
	tests := []struct {
		name   string
		view   *model.FilteredView
		radius float64
	}{
		{"zero radius", v, 0},
		{"negative radius", v, -1},
		{"nil view", nil, 0.1},
		{"empty view", uvView(), 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Query(tt.view, q, tt.radius); len(got) != 0 {
				t.Errorf("Query = %v, want empty", got)
			}
			if got := NewIndex(tt.view).Query(q, tt.radius); len(got) != 0 {
				t.Errorf("Index.Query = %v, want empty", got)
			}
		})
	}
}

func TestIndexMatchesBruteForce(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 300).Draw(t, "n")
		uvs := make([]float64, 2*n)
		for i := range uvs {
			uvs[i] = rapid.Float64Range(0, 1).Draw(t, "coord")
		}
		// Duplicate points stress the tree's median partitioning.
		if n > 4 {
			uvs[2], uvs[3] = uvs[0], uvs[1]
		}
		v := uvView(uvs...)
		q := model.UVPoint{
			U: rapid.Float64Range(0, 1).Draw(t, "u"),
			V: rapid.Float64Range(0, 1).Draw(t, "v"),
		}
		r := rapid.Float64Range(0.001, 0.3).Draw(t, "r")

		want := Query(v, q, r)
		got := NewIndex(v).Query(q, r)
		if len(want) == 0 && len(got) == 0 {
			return
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("index %v != brute %v", got, want)
		}
	})
}

func TestSearcherThreshold(t *testing.T) {
	s := store.New(testutil.QuickIncidents(100), store.Options{})
	v := filter.Apply(s, model.FilterState{MinYear: 0, MaxYear: 9999, Orgs: model.AllOrgs}, filter.DefaultPalette())

	small := NewSearcher(v, 1000)
	large := NewSearcher(v, 50)
	if small.Indexed() || !large.Indexed() {
		t.Fatalf("indexed: small=%v large=%v", small.Indexed(), large.Indexed())
	}
	for i := 0; i < v.Len(); i += 7 {
		q := v.UV(i)
		a := small.Query(q, 0.05)
		b := large.Query(q, 0.05)
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("strategies disagree at %d: %v vs %v", i, a, b)
		}
		if len(a) == 0 {
			t.Fatalf("query at record %d's own UV found nothing", i)
		}
	}
	var nilSearcher *Searcher
	if nilSearcher.Query(model.UVPoint{}, 1) != nil {
		t.Error("nil searcher should return nil")
	}
}

func TestClampRadius(t *testing.T) {
	if ClampRadius(0) != MinRadius || ClampRadius(1) != MaxRadius || ClampRadius(0.03) != 0.03 {
		t.Error("ClampRadius bounds wrong")
	}
}
