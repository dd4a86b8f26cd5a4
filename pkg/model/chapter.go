package model

import (
	"fmt"
	"strings"
)

// Section is one toggleable block of the hover tooltip.
type Section int

const (
	SectionCountry Section = iota
	SectionContext
	SectionActor
	SectionImpact
	SectionGender
	SectionActorTargets
	SectionOrganizations
	numSections
)

// AllSections lists every tooltip section in display order.
var AllSections = []Section{
	SectionCountry, SectionContext, SectionActor, SectionImpact,
	SectionGender, SectionActorTargets, SectionOrganizations,
}

var sectionNames = [...]string{"country", "context", "actor", "impact", "gender", "actor-targets", "organizations"}

func (s Section) String() string {
	if s < 0 || s >= numSections {
		return "unknown"
	}
	return sectionNames[s]
}

// ParseSection accepts the String() form, case-insensitively.
func ParseSection(name string) (Section, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for i, n := range sectionNames {
		if n == key {
			return Section(i), nil
		}
	}
	switch key {
	case "countries":
		return SectionCountry, nil
	case "contexts":
		return SectionContext, nil
	case "actors":
		return SectionActor, nil
	case "targets", "actor-target":
		return SectionActorTargets, nil
	case "orgs", "organization":
		return SectionOrganizations, nil
	}
	return 0, fmt.Errorf("unknown tooltip section %q", name)
}

// SectionSet is a bitmask of enabled tooltip sections.
type SectionSet uint8

// BasicSections is the default set shown outside guided chapters.
var BasicSections = NewSectionSet(SectionCountry, SectionContext, SectionActor, SectionImpact, SectionGender)

// NewSectionSet builds a set from the given sections.
func NewSectionSet(sections ...Section) SectionSet {
	var s SectionSet
	for _, sec := range sections {
		if sec >= 0 && sec < numSections {
			s |= 1 << sec
		}
	}
	return s
}

// Has reports whether sec is enabled.
func (s SectionSet) Has(sec Section) bool {
	return sec >= 0 && sec < numSections && s&(1<<sec) != 0
}

// Toggle flips sec.
func (s SectionSet) Toggle(sec Section) SectionSet {
	if sec < 0 || sec >= numSections {
		return s
	}
	return s ^ (1 << sec)
}

// Slice returns enabled sections in display order.
func (s SectionSet) Slice() []Section {
	var out []Section
	for _, sec := range AllSections {
		if s.Has(sec) {
			out = append(out, sec)
		}
	}
	return out
}

// MarshalYAML encodes the set as a list of names.
func (s SectionSet) MarshalYAML() (interface{}, error) {
	names := make([]string, 0, len(AllSections))
	for _, sec := range s.Slice() {
		names = append(names, sec.String())
	}
	return names, nil
}

// UnmarshalYAML reads a list of section names.
func (s *SectionSet) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var names []string
	if err := unmarshal(&names); err != nil {
		return err
	}
	var set SectionSet
	for _, n := range names {
		sec, err := ParseSection(n)
		if err != nil {
			return err
		}
		set |= 1 << sec
	}
	*s = set
	return nil
}

// YearWindow bounds a chapter's filter. Zero means "use the dataset bound".
type YearWindow struct {
	Min int `yaml:"min,omitempty" json:"min,omitempty"`
	Max int `yaml:"max,omitempty" json:"max,omitempty"`
}

// Timeline configures playback for a chapter.
type Timeline struct {
	Visible bool `yaml:"visible" json:"visible"`
	Min     int  `yaml:"min,omitempty" json:"min,omitempty"`
	Max     int  `yaml:"max,omitempty" json:"max,omitempty"`
	// Start is the year shown on entry; zero means Min.
	Start int `yaml:"start,omitempty" json:"start,omitempty"`
}

// ChapterSpec is the declarative description of one narrative stage.
type ChapterSpec struct {
	ID        string     `yaml:"id" json:"id"`
	Title     string     `yaml:"title" json:"title"`
	Narrative string     `yaml:"narrative,omitempty" json:"narrative,omitempty"`
	Years     YearWindow `yaml:"years,omitempty" json:"years"`
	Orgs      OrgSet     `yaml:"orgs" json:"orgs"`
	ColorMode ColorMode  `yaml:"color_mode" json:"color_mode"`
	Camera    *LatLon    `yaml:"camera,omitempty" json:"camera,omitempty"`
	Layer     Layer      `yaml:"layer" json:"layer"`
	Sections  SectionSet `yaml:"sections" json:"-"`
	Timeline  Timeline   `yaml:"timeline,omitempty" json:"timeline"`
	// Rotation is the idle globe spin in radians per frame.
	Rotation float64 `yaml:"rotation" json:"rotation"`
}
