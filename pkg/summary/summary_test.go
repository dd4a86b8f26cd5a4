package summary

import (
	"reflect"
	"strings"
	"testing"

	"github.com/vanderheijden86/aidglobe/pkg/model"
	"github.com/vanderheijden86/aidglobe/pkg/testutil"
)

func viewOf(incs ...model.Incident) *model.FilteredView {
	return &model.FilteredView{Records: testutil.Pointers(incs)}
}

func inc(country, context, actor string, killed float64) model.Incident {
	i := testutil.At(0, 0, 2000, model.OrgUN)
	i.Country, i.AttackContext, i.ActorType = country, context, actor
	i.TotalKilled = killed
	i.TotalAffected = killed
	return i
}

func TestSummarizeNoData(t *testing.T) {
	all := model.NewSectionSet(model.AllSections...)
	s := Summarize(viewOf(), nil, all)

	if s.Total != 0 || s.HasData() {
		t.Errorf("total = %d", s.Total)
	}
	if s.Impact != (Impact{}) || s.Gender != (GenderSums{}) {
		t.Errorf("sums not zero: %+v %+v", s.Impact, s.Gender)
	}
	want := []Count{{Label: Placeholder, Count: 0}}
	for name, got := range map[string][]Count{"countries": s.Countries, "contexts": s.Contexts, "actors": s.Actors} {
		if !reflect.DeepEqual(got, want) {
			t.Errorf("%s = %v, want placeholder", name, got)
		}
	}
	if s.Heading() != "No Nearby Incidents" {
		t.Errorf("heading = %q", s.Heading())
	}
	// A nil view behaves the same.
	if Summarize(nil, []int{0, 1}, all).Total != 0 {
		t.Error("nil view should summarize to zero")
	}
}

func TestSummarizeTopNOrdering(t *testing.T) {
	v := viewOf(
		inc("Mali", "Raid", "Criminal", 1),
		inc("Syria", "Ambush", "", 2),
		inc("Syria", "Raid", "Criminal", 0),
		inc("Chad", "Raid", "Criminal", 0),
		inc("Mali", "Detention", "State: Military", 3),
		inc("", "Raid", "Criminal", 0),
		inc("Peru", "Raid", "Criminal", 0),
		inc("Iraq", "Raid", "Criminal", 0),
	)
	idx := []int{0, 1, 2, 3, 4, 5, 6, 7}
	s := Summarize(v, idx, model.BasicSections)

	wantCountries := []Count{{"Mali", 2}, {"Syria", 2}, {"Chad", 1}, {UnknownLabel, 1}, {"Peru", 1}}
	if !reflect.DeepEqual(s.Countries, wantCountries) {
		t.Errorf("countries = %v, want %v", s.Countries, wantCountries)
	}
	if s.Actors[0] != (Count{"Criminal", 6}) || s.Actors[1] != (Count{UnknownLabel, 1}) {
		t.Errorf("actors = %v", s.Actors)
	}
	if s.Impact.Killed != 6 || s.Impact.Affected != 6 {
		t.Errorf("impact = %+v", s.Impact)
	}
	if s.Heading() != "8 Incidents Nearby" {
		t.Errorf("heading = %q", s.Heading())
	}
	if s.ActorTargets != nil || s.Organizations != nil {
		t.Error("disabled sections should be nil")
	}
}

func TestSummarizeSubset(t *testing.T) {
	v := viewOf(inc("A", "x", "y", 1), inc("B", "x", "y", 10))
	s := Summarize(v, []int{1, 5, -1}, model.BasicSections)
	if s.Total != 1 || s.Countries[0].Label != "B" || s.Impact.Killed != 10 {
		t.Errorf("summary = %+v", s)
	}
}

func TestSummarizeOrganizations(t *testing.T) {
	a := inc("A", "x", "Criminal", 0)
	a.Orgs[model.OrgICRC] = 3
	b := inc("B", "x", "Criminal", 0)
	b.GenderFemale = 2
	v := viewOf(a, b)

	s := Summarize(v, []int{0, 1}, model.NewSectionSet(model.SectionOrganizations, model.SectionActorTargets, model.SectionGender))
	if len(s.Organizations) != model.NumOrganizations {
		t.Fatalf("organizations = %v", s.Organizations)
	}
	un := s.Organizations[model.OrgUN]
	if un.Org != model.OrgUN || un.Affected != 2 || un.Incidents != 2 {
		t.Errorf("UN = %+v", un)
	}
	if icrc := s.Organizations[model.OrgICRC]; icrc.Affected != 3 || icrc.Incidents != 1 {
		t.Errorf("ICRC = %+v", icrc)
	}
	if s.ActorTargets[0] != (Count{"Criminal → UN", 2}) || s.ActorTargets[1] != (Count{"Criminal → ICRC", 1}) {
		t.Errorf("actor targets = %v", s.ActorTargets)
	}
	if s.Gender.Female != 2 {
		t.Errorf("gender = %+v", s.Gender)
	}
	if s.Countries != nil {
		t.Error("country section disabled but populated")
	}
}

func TestText(t *testing.T) {
	v := viewOf(inc("Mali", "Raid", "Criminal", 1))
	out := Summarize(v, []int{0}, model.NewSectionSet(model.AllSections...)).Text()
	for _, want := range []string{"1 Incident Nearby", "Top Countries", "Mali: 1", "Killed: 1", "Who Targets Whom", "UN: 1 (1 incidents)"} {
		if !strings.Contains(out, want) {
			t.Errorf("text missing %q:\n%s", want, out)
		}
	}
}
