// Package summary aggregates the incidents around a hover point into the
// tooltip's counts and sums.
package summary

import (
	"fmt"
	"math"
	"sort"

	"github.com/vanderheijden86/aidglobe/pkg/metrics"
	"github.com/vanderheijden86/aidglobe/pkg/model"
)

const (
	// TopN is the length of every frequency list.
	TopN = 5
	// Placeholder is the lone category shown when nothing is nearby.
	Placeholder = "—"
	// UnknownLabel replaces blank categorical values.
	UnknownLabel = "Unknown"
)

// Count is one entry of a frequency list.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Impact sums the casualty columns.
type Impact struct {
	Killed    float64 `json:"killed"`
	Wounded   float64 `json:"wounded"`
	Kidnapped float64 `json:"kidnapped"`
	Affected  float64 `json:"affected"`
}

// GenderSums sums the gender columns.
type GenderSums struct {
	Male    float64 `json:"male"`
	Female  float64 `json:"female"`
	Unknown float64 `json:"unknown"`
}

// OrgTotal is the summed affected count for one organization column.
type OrgTotal struct {
	Org       model.Organization `json:"org"`
	Affected  float64            `json:"affected"`
	Incidents int                `json:"incidents"`
}

// Summary is the tooltip payload. Lists for disabled sections are nil.
type Summary struct {
	Total         int              `json:"total"`
	Sections      model.SectionSet `json:"-"`
	Countries     []Count          `json:"countries,omitempty"`
	Contexts      []Count          `json:"contexts,omitempty"`
	Actors        []Count          `json:"actors,omitempty"`
	Impact        Impact           `json:"impact"`
	Gender        GenderSums       `json:"gender"`
	ActorTargets  []Count          `json:"actor_targets,omitempty"`
	Organizations []OrgTotal       `json:"organizations,omitempty"`
}

// HasData reports whether any incident contributed.
func (s Summary) HasData() bool { return s.Total > 0 }

// Heading is the tooltip title line.
func (s Summary) Heading() string {
	switch s.Total {
	case 0:
		return "No Nearby Incidents"
	case 1:
		return "1 Incident Nearby"
	default:
		return fmt.Sprintf("%d Incidents Nearby", s.Total)
	}
}

// tally counts labels and remembers first-seen order for tie breaks.
type tally struct {
	counts map[string]int
	order  []string
}

func newTally() *tally { return &tally{counts: make(map[string]int)} }

func (t *tally) add(label string) {
	if _, ok := t.counts[label]; !ok {
		t.order = append(t.order, label)
	}
	t.counts[label]++
}

func (t *tally) top(n int) []Count {
	out := make([]Count, len(t.order))
	for i, l := range t.order {
		out[i] = Count{Label: l, Count: t.counts[l]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func safe(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Summarize aggregates view records at indices. Out-of-range indices are
// ignored. An empty selection yields a zeroed summary whose lists hold the
// single placeholder category.
func Summarize(v *model.FilteredView, indices []int, sections model.SectionSet) Summary {
	defer metrics.Timer(metrics.SummaryBuild)()

	s := Summary{Sections: sections}
	countries, contexts, actors, targets := newTally(), newTally(), newTally(), newTally()
	var orgs [model.NumOrganizations]OrgTotal

	for _, i := range indices {
		if i < 0 || i >= v.Len() {
			continue
		}
		inc := v.Records[i]
		s.Total++
		actor := model.OrDefault(inc.ActorType, UnknownLabel)
		countries.add(model.OrDefault(inc.Country, UnknownLabel))
		contexts.add(model.OrDefault(inc.AttackContext, UnknownLabel))
		actors.add(actor)

		s.Impact.Killed += safe(inc.TotalKilled)
		s.Impact.Wounded += safe(inc.TotalWounded)
		s.Impact.Kidnapped += safe(inc.TotalKidnapped)
		s.Impact.Affected += safe(inc.TotalAffected)
		s.Gender.Male += safe(inc.GenderMale)
		s.Gender.Female += safe(inc.GenderFemale)
		s.Gender.Unknown += safe(inc.GenderUnknown)

		for _, o := range model.AllOrganizations {
			if !inc.Involves(o) {
				continue
			}
			orgs[o].Affected += safe(inc.Orgs[o])
			orgs[o].Incidents++
			targets.add(actor + " → " + o.Column())
		}
	}

	if s.Total == 0 {
		placeholder := []Count{{Label: Placeholder, Count: 0}}
		s.Countries, s.Contexts, s.Actors, s.ActorTargets = placeholder, placeholder, placeholder, placeholder
	} else {
		s.Countries = countries.top(TopN)
		s.Contexts = contexts.top(TopN)
		s.Actors = actors.top(TopN)
		s.ActorTargets = targets.top(TopN)
	}
	for _, o := range model.AllOrganizations {
		orgs[o].Org = o
		s.Organizations = append(s.Organizations, orgs[o])
	}

	if !sections.Has(model.SectionCountry) {
		s.Countries = nil
	}
	if !sections.Has(model.SectionContext) {
		s.Contexts = nil
	}
	if !sections.Has(model.SectionActor) {
		s.Actors = nil
	}
	if !sections.Has(model.SectionActorTargets) {
		s.ActorTargets = nil
	}
	if !sections.Has(model.SectionOrganizations) {
		s.Organizations = nil
	}
	return s
}
