package model

import "strings"

// Incident is one row of the security incident table. Numeric columns that
// failed to parse are stored as 0; Year and coordinates carry explicit
// validity flags because they gate filtering and placement.
type Incident struct {
	ID      string `json:"id"`
	Year    int    `json:"year"`
	YearOK  bool   `json:"year_ok"`
	Month   int    `json:"month,omitempty"`
	Day     int    `json:"day,omitempty"`
	Country string `json:"country"`
	Region  string `json:"region,omitempty"`

	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	GeoOK bool    `json:"geo_ok"`

	AttackContext string `json:"attack_context"`
	ActorType     string `json:"actor_type"`
	Means         string `json:"means,omitempty"`

	// Orgs holds the per-organization affected counts indexed by Organization.
	Orgs [NumOrganizations]float64 `json:"orgs"`

	TotalKilled    float64 `json:"total_killed"`
	TotalWounded   float64 `json:"total_wounded"`
	TotalKidnapped float64 `json:"total_kidnapped"`
	TotalAffected  float64 `json:"total_affected"`

	GenderMale    float64 `json:"gender_male"`
	GenderFemale  float64 `json:"gender_female"`
	GenderUnknown float64 `json:"gender_unknown"`

	Details string `json:"details,omitempty"`
}

// Involves reports whether the organization column is positive.
func (i *Incident) Involves(o Organization) bool {
	if !o.IsValid() {
		return false
	}
	return i.Orgs[o] > 0
}

// InvolvesAny reports whether any organization in set has a positive column.
func (i *Incident) InvolvesAny(set OrgSet) bool {
	for _, o := range AllOrganizations {
		if set.Has(o) && i.Orgs[o] > 0 {
			return true
		}
	}
	return false
}

// InYearRange reports whether the incident has a valid year within [min, max].
func (i *Incident) InYearRange(min, max int) bool {
	return i.YearOK && i.Year >= min && i.Year <= max
}

// PrimaryOrganization returns the first involved organization in priority
// order. ok is false when no column is positive.
func (i *Incident) PrimaryOrganization() (Organization, bool) {
	for _, o := range AllOrganizations {
		if i.Orgs[o] > 0 {
			return o, true
		}
	}
	return OrgOther, false
}

// Gender classifies the dominant gender among affected people.
type Gender int

const (
	GenderUnknown Gender = iota
	GenderMale
	GenderFemale
)

func (g Gender) String() string {
	switch g {
	case GenderMale:
		return "male"
	case GenderFemale:
		return "female"
	default:
		return "unknown"
	}
}

// MajorityGender returns the strict majority of the three gender sums.
// Ties, including all-zero rows, resolve to GenderUnknown.
func (i *Incident) MajorityGender() Gender {
	m, f, u := i.GenderMale, i.GenderFemale, i.GenderUnknown
	switch {
	case m > f && m > u:
		return GenderMale
	case f > m && f > u:
		return GenderFemale
	default:
		return GenderUnknown
	}
}

// NormalizeActor lower-cases and trims an actor type for table lookups.
func NormalizeActor(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// OrDefault returns s, or fallback when s is blank.
func OrDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
