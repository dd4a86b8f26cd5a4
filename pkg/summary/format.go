package summary

import (
	"fmt"
	"strings"

	"github.com/vanderheijden86/aidglobe/pkg/model"
)

// Text renders the summary as plain text, one section per block, in the
// same order the tooltip shows them.
func (s Summary) Text() string {
	var b strings.Builder
	b.WriteString(s.Heading())
	b.WriteByte('\n')

	list := func(title string, counts []Count) {
		fmt.Fprintf(&b, "\n%s:\n", title)
		for _, c := range counts {
			fmt.Fprintf(&b, "  %s: %d\n", c.Label, c.Count)
		}
	}
	for _, sec := range s.Sections.Slice() {
		switch sec {
		case model.SectionCountry:
			list("Top Countries", s.Countries)
		case model.SectionContext:
			list("Attack Contexts", s.Contexts)
		case model.SectionActor:
			list("Actor Types", s.Actors)
		case model.SectionImpact:
			fmt.Fprintf(&b, "\nPeople Impacted:\n  Killed: %g\n  Wounded: %g\n  Kidnapped: %g\n  Affected: %g\n",
				s.Impact.Killed, s.Impact.Wounded, s.Impact.Kidnapped, s.Impact.Affected)
		case model.SectionGender:
			fmt.Fprintf(&b, "\nGender Breakdown:\n  Male: %g\n  Female: %g\n  Unknown: %g\n",
				s.Gender.Male, s.Gender.Female, s.Gender.Unknown)
		case model.SectionActorTargets:
			list("Who Targets Whom", s.ActorTargets)
		case model.SectionOrganizations:
			b.WriteString("\nOrganizations Affected:\n")
			for _, o := range s.Organizations {
				fmt.Fprintf(&b, "  %s: %g (%d incidents)\n", o.Org, o.Affected, o.Incidents)
			}
		}
	}
	return b.String()
}
