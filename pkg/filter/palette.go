package filter

import (
	"sort"

	"github.com/vanderheijden86/aidglobe/pkg/heatmap"
	"github.com/vanderheijden86/aidglobe/pkg/model"
)

// DefaultDecadeThreshold splits dual-by-decade coloring: incidents in or
// after this year take the Late color.
const DefaultDecadeThreshold = 2010

// Palette is the color context for every color mode.
type Palette struct {
	Single          model.RGB `yaml:"single"`
	Early           model.RGB `yaml:"early"`
	Late            model.RGB `yaml:"late"`
	DecadeThreshold int       `yaml:"decade_threshold"`
	// Actors is keyed by normalized (trimmed, lower-cased) actor type.
	Actors map[string]model.RGB `yaml:"actors"`
	// Orgs is keyed by organization column header.
	Orgs   map[string]model.RGB `yaml:"orgs"`
	Gender GenderColors         `yaml:"gender"`
	// Unknown is the neutral fallback for unmapped actors.
	Unknown model.RGB     `yaml:"unknown"`
	Heat    heatmap.Scale `yaml:"heat"`
}

// GenderColors colors the by-gender-majority mode.
type GenderColors struct {
	Male    model.RGB `yaml:"male"`
	Female  model.RGB `yaml:"female"`
	Unknown model.RGB `yaml:"unknown"`
}

// DefaultPalette returns the stock colors.
func DefaultPalette() Palette {
	return Palette{
		Single:          model.RGB{R: 1, G: 0.2, B: 0.2},
		Early:           model.RGB{R: 1, G: 0.2, B: 0.2},
		Late:            model.RGB{R: 1, G: 1, B: 0.2},
		DecadeThreshold: DefaultDecadeThreshold,
		Actors: map[string]model.RGB{
			"non-state armed group: national": {R: 1, G: 0.5, B: 0},
			"non-state armed group: regional": {R: 1, G: 0.7, B: 0.2},
			"non-state armed group: global":   {R: 0.9, G: 0.3, B: 0.1},
			"non-state armed group: unknown":  {R: 0.95, G: 0.6, B: 0.4},
			"state: military":                 {R: 0.2, G: 0.5, B: 1},
			"state: police":                   {R: 0.3, G: 0.7, B: 1},
			"state: unknown":                  {R: 0.5, G: 0.6, B: 0.9},
			"criminal":                        {R: 0.7, G: 0.2, B: 0.9},
			"host community":                  {R: 0.2, G: 0.8, B: 0.4},
			"aid recipient":                   {R: 0.9, G: 0.9, B: 0.3},
			"staff member":                    {R: 0.6, G: 0.9, B: 0.9},
		},
		Orgs: map[string]model.RGB{
			model.OrgUN.Column():       {R: 0.3, G: 0.6, B: 1},
			model.OrgINGO.Column():     {R: 1, G: 0.6, B: 0.2},
			model.OrgICRC.Column():     {R: 1, G: 0.2, B: 0.2},
			model.OrgNRCSIFRC.Column(): {R: 0.9, G: 0.4, B: 0.6},
			model.OrgNNGO.Column():     {R: 0.3, G: 0.9, B: 0.4},
			model.OrgOther.Column():    {R: 0.7, G: 0.7, B: 0.7},
		},
		Gender: GenderColors{
			Male:    model.RGB{R: 0.3, G: 0.6, B: 1},
			Female:  model.RGB{R: 1, G: 0.4, B: 0.7},
			Unknown: model.RGB{R: 0.6, G: 0.6, B: 0.6},
		},
		Unknown: model.RGB{R: 0.5, G: 0.5, B: 0.5},
		Heat:    heatmap.DefaultScale(),
	}
}

// Normalized returns a copy whose actor keys are normalized and whose org
// keys are canonical column headers. Unparseable org keys are dropped. When
// two keys normalize to the same entry, the one already in canonical form
// wins, then the lexically last.
func (p Palette) Normalized() Palette {
	out := p
	out.Actors = make(map[string]model.RGB, len(p.Actors))
	for _, k := range canonicalLast(p.Actors, model.NormalizeActor) {
		out.Actors[model.NormalizeActor(k)] = p.Actors[k]
	}
	out.Orgs = make(map[string]model.RGB, len(p.Orgs))
	for _, k := range canonicalLast(p.Orgs, orgKey) {
		if key := orgKey(k); key != "" {
			out.Orgs[key] = p.Orgs[k]
		}
	}
	return out
}

// WithDefaults returns p normalized, with base's actor and org entries
// filling in keys p does not set. Entries in p always win.
func (p Palette) WithDefaults(base Palette) Palette {
	out := p.Normalized()
	base = base.Normalized()
	for k, v := range out.Actors {
		base.Actors[k] = v
	}
	for k, v := range out.Orgs {
		base.Orgs[k] = v
	}
	out.Actors, out.Orgs = base.Actors, base.Orgs
	return out
}

func orgKey(k string) string {
	o, err := model.ParseOrganization(k)
	if err != nil {
		return ""
	}
	return o.Column()
}

// canonicalLast orders m's keys so that later keys override earlier ones
// deterministically: sorted, with keys equal to their canonical form last.
func canonicalLast(m map[string]model.RGB, canon func(string) string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ci, cj := keys[i] == canon(keys[i]), keys[j] == canon(keys[j])
		if ci != cj {
			return cj
		}
		return keys[i] < keys[j]
	})
	return keys
}

// ActorColor looks up a normalized actor type, falling back to Unknown.
func (p Palette) ActorColor(actor string) model.RGB {
	if c, ok := p.Actors[model.NormalizeActor(actor)]; ok {
		return c
	}
	return p.Unknown
}

// OrgColor returns the configured org color, falling back to Other's color.
func (p Palette) OrgColor(o model.Organization) model.RGB {
	if c, ok := p.Orgs[o.Column()]; ok {
		return c
	}
	if c, ok := p.Orgs[model.OrgOther.Column()]; ok {
		return c
	}
	return p.Unknown
}

// Color assigns a record's color under mode. It depends only on its inputs.
func (p Palette) Color(inc *model.Incident, mode model.ColorMode) model.RGB {
	switch mode {
	case model.ColorDualDecade:
		if inc.YearOK && inc.Year >= p.DecadeThreshold {
			return p.Late
		}
		return p.Early
	case model.ColorByActor:
		return p.ActorColor(inc.ActorType)
	case model.ColorByOrg:
		o, ok := inc.PrimaryOrganization()
		if !ok {
			o = model.OrgOther
		}
		return p.OrgColor(o)
	case model.ColorByGender:
		switch inc.MajorityGender() {
		case model.GenderMale:
			return p.Gender.Male
		case model.GenderFemale:
			return p.Gender.Female
		default:
			return p.Gender.Unknown
		}
	case model.ColorHeatmap:
		return p.Heat.Color(inc.TotalAffected)
	default:
		return p.Single
	}
}
