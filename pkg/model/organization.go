package model

import (
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Organization identifies one of the humanitarian organization categories
// tracked per incident. Declaration order is the fixed priority order used by
// the by-org color mode.
type Organization int

const (
	OrgUN Organization = iota
	OrgINGO
	OrgICRC
	OrgNRCSIFRC
	OrgNNGO
	OrgOther
	numOrganizations
)

// NumOrganizations is the size of the organization tag set.
const NumOrganizations = int(numOrganizations)

// AllOrganizations lists every organization in priority order.
var AllOrganizations = []Organization{OrgUN, OrgINGO, OrgICRC, OrgNRCSIFRC, OrgNNGO, OrgOther}

var orgColumns = [...]string{"UN", "INGO", "ICRC", "NRCS and IFRC", "NNGO", "Other"}

// Column returns the dataset column header for the organization.
func (o Organization) Column() string {
	if !o.IsValid() {
		return ""
	}
	return orgColumns[o]
}

// String returns the display label (same as the column header).
func (o Organization) String() string {
	if !o.IsValid() {
		return fmt.Sprintf("Organization(%d)", int(o))
	}
	return orgColumns[o]
}

// IsValid reports whether o is a known tag.
func (o Organization) IsValid() bool {
	return o >= 0 && o < numOrganizations
}

// ParseOrganization accepts a column header or a short alias
// ("nrcs", "ifrc", "nrcs_ifrc") case-insensitively.
func ParseOrganization(s string) (Organization, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	switch key {
	case "un":
		return OrgUN, nil
	case "ingo":
		return OrgINGO, nil
	case "icrc":
		return OrgICRC, nil
	case "nrcs and ifrc", "nrcs", "ifrc", "nrcs_ifrc", "nrcs-ifrc":
		return OrgNRCSIFRC, nil
	case "nngo":
		return OrgNNGO, nil
	case "other":
		return OrgOther, nil
	}
	return 0, fmt.Errorf("unknown organization %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (o Organization) MarshalText() ([]byte, error) {
	if !o.IsValid() {
		return nil, fmt.Errorf("invalid organization %d", int(o))
	}
	return []byte(o.Column()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Organization) UnmarshalText(b []byte) error {
	parsed, err := ParseOrganization(string(b))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// OrgSet is a set of organization tags stored as a bitmask.
type OrgSet uint8

// AllOrgs is the set containing every organization tag.
const AllOrgs OrgSet = 1<<numOrganizations - 1

// NewOrgSet builds a set from the given tags; invalid tags are ignored.
func NewOrgSet(orgs ...Organization) OrgSet {
	var s OrgSet
	for _, o := range orgs {
		s = s.With(o)
	}
	return s
}

// Has reports whether o is in the set.
func (s OrgSet) Has(o Organization) bool {
	return o.IsValid() && s&(1<<o) != 0
}

// With returns the set plus o.
func (s OrgSet) With(o Organization) OrgSet {
	if !o.IsValid() {
		return s
	}
	return s | 1<<o
}

// Without returns the set minus o.
func (s OrgSet) Without(o Organization) OrgSet {
	if !o.IsValid() {
		return s
	}
	return s &^ (1 << o)
}

// Toggle flips membership of o.
func (s OrgSet) Toggle(o Organization) OrgSet {
	if s.Has(o) {
		return s.Without(o)
	}
	return s.With(o)
}

// Len returns the number of tags in the set.
func (s OrgSet) Len() int {
	n := 0
	for _, o := range AllOrganizations {
		if s.Has(o) {
			n++
		}
	}
	return n
}

// IsEmpty reports whether no tag is selected.
func (s OrgSet) IsEmpty() bool {
	return s&AllOrgs == 0
}

// Slice returns the members in priority order.
func (s OrgSet) Slice() []Organization {
	out := make([]Organization, 0, NumOrganizations)
	for _, o := range AllOrganizations {
		if s.Has(o) {
			out = append(out, o)
		}
	}
	return out
}

// MarshalYAML encodes the set as a list of column headers.
func (s OrgSet) MarshalYAML() (interface{}, error) {
	names := make([]string, 0, NumOrganizations)
	for _, o := range s.Slice() {
		names = append(names, o.Column())
	}
	return names, nil
}

// UnmarshalYAML accepts a list of organization names or the scalar "all".
func (s *OrgSet) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var scalar string
	if err := unmarshal(&scalar); err == nil {
		if strings.EqualFold(strings.TrimSpace(scalar), "all") {
			*s = AllOrgs
			return nil
		}
		o, err := ParseOrganization(scalar)
		if err != nil {
			return err
		}
		*s = NewOrgSet(o)
		return nil
	}
	var names []string
	if err := unmarshal(&names); err != nil {
		return err
	}
	var set OrgSet
	for _, n := range names {
		o, err := ParseOrganization(n)
		if err != nil {
			return err
		}
		set = set.With(o)
	}
	*s = set
	return nil
}

// MarshalJSON encodes the set as a list of column headers.
func (s OrgSet) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('[')
	for i, o := range s.Slice() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(o.Column()))
	}
	b.WriteByte(']')
	return []byte(b.String()), nil
}

// UnmarshalJSON accepts the same shapes as UnmarshalYAML.
func (s *OrgSet) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = 0
		return nil
	}
	return s.UnmarshalYAML(func(v interface{}) error { return json.Unmarshal(b, v) })
}
