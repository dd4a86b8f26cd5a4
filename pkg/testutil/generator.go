// Package testutil provides deterministic incident fixtures and assertions.
package testutil

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/vanderheijden86/aidglobe/pkg/model"
)

// GeneratorConfig controls incident generation.
type GeneratorConfig struct {
	Seed     int64  // Random seed (0 = 42)
	IDPrefix string // Prefix for incident IDs (default: "INC")
	MinYear  int    // Earliest year generated (default: 1997)
	MaxYear  int    // Latest year generated (default: 2024)
	// InvalidGeoRate is the share of rows generated without coordinates.
	InvalidGeoRate float64
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:     42,
		IDPrefix: "INC",
		MinYear:  1997,
		MaxYear:  2024,
	}
}

// Generator creates incident fixtures.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
	seq int
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = "INC"
	}
	if cfg.MinYear == 0 {
		cfg.MinYear = 1997
	}
	if cfg.MaxYear < cfg.MinYear {
		cfg.MaxYear = cfg.MinYear
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

var (
	sampleCountries = []string{"Afghanistan", "South Sudan", "Syria", "Somalia", "Sudan", "Mali", "DR Congo", "Yemen"}
	sampleContexts  = []string{"Ambush", "Combat/Crossfire", "Individual attack", "Raid", "Detention", "Unknown"}
	sampleActors    = []string{"Non-state armed group: National", "State: Military", "Unknown", "Criminal", "Host community"}
)

// Incident returns one random incident with valid coordinates and year.
func (g *Generator) Incident() model.Incident {
	g.seq++
	year := g.cfg.MinYear + g.rng.Intn(g.cfg.MaxYear-g.cfg.MinYear+1)
	inc := model.Incident{
		ID:            fmt.Sprintf("%s-%d", g.cfg.IDPrefix, g.seq),
		Year:          year,
		YearOK:        true,
		Month:         1 + g.rng.Intn(12),
		Day:           1 + g.rng.Intn(28),
		Country:       sampleCountries[g.rng.Intn(len(sampleCountries))],
		Lat:           -60 + g.rng.Float64()*130,
		Lon:           -180 + g.rng.Float64()*360,
		GeoOK:         true,
		AttackContext: sampleContexts[g.rng.Intn(len(sampleContexts))],
		ActorType:     sampleActors[g.rng.Intn(len(sampleActors))],
	}
	// At least one organization is always involved.
	inc.Orgs[g.rng.Intn(model.NumOrganizations)] = float64(1 + g.rng.Intn(3))
	if g.rng.Intn(3) == 0 {
		inc.Orgs[g.rng.Intn(model.NumOrganizations)]++
	}
	inc.TotalKilled = float64(g.rng.Intn(4))
	inc.TotalWounded = float64(g.rng.Intn(4))
	inc.TotalKidnapped = float64(g.rng.Intn(3))
	inc.TotalAffected = inc.TotalKilled + inc.TotalWounded + inc.TotalKidnapped
	inc.GenderMale = float64(g.rng.Intn(3))
	inc.GenderFemale = float64(g.rng.Intn(3))
	inc.GenderUnknown = inc.TotalAffected - inc.GenderMale - inc.GenderFemale
	if inc.GenderUnknown < 0 {
		inc.GenderUnknown = 0
	}
	if g.cfg.InvalidGeoRate > 0 && g.rng.Float64() < g.cfg.InvalidGeoRate {
		inc.Lat, inc.Lon, inc.GeoOK = 0, 0, false
	}
	return inc
}

// Incidents returns n random incidents.
func (g *Generator) Incidents(n int) []model.Incident {
	out := make([]model.Incident, n)
	for i := range out {
		out[i] = g.Incident()
	}
	return out
}

// Cluster returns n incidents scattered within spread degrees of center.
func (g *Generator) Cluster(center model.LatLon, spread float64, n int) []model.Incident {
	out := make([]model.Incident, n)
	for i := range out {
		inc := g.Incident()
		inc.Lat = clampLat(center.Lat + (g.rng.Float64()*2-1)*spread)
		inc.Lon = center.Lon + (g.rng.Float64()*2-1)*spread
		inc.GeoOK = true
		out[i] = inc
	}
	return out
}

func clampLat(lat float64) float64 {
	if lat > 89 {
		return 89
	}
	if lat < -89 {
		return -89
	}
	return lat
}

// At returns a minimal incident at lat/lon in year involving orgs.
func At(lat, lon float64, year int, orgs ...model.Organization) model.Incident {
	inc := model.Incident{
		ID:     fmt.Sprintf("at-%g-%g-%d", lat, lon, year),
		Year:   year,
		YearOK: true,
		Lat:    lat,
		Lon:    lon,
		GeoOK:  true,
	}
	for _, o := range orgs {
		inc.Orgs[o] = 1
	}
	return inc
}

// ToCSV renders incidents with the canonical dataset header. Rows without
// coordinates get blank Latitude/Longitude cells.
func ToCSV(incidents []model.Incident) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	_ = w.Write(model.Columns())
	for _, inc := range incidents {
		_ = w.Write(Row(inc))
	}
	w.Flush()
	return sb.String()
}

// Row renders one incident in model.Columns order.
func Row(inc model.Incident) []string {
	year, lat, lon := "", "", ""
	if inc.YearOK {
		year = strconv.Itoa(inc.Year)
	}
	if inc.GeoOK {
		lat, lon = num(inc.Lat), num(inc.Lon)
	}
	row := []string{
		inc.ID, year, strconv.Itoa(inc.Month), strconv.Itoa(inc.Day), inc.Country, inc.Region,
		lat, lon, inc.Means, inc.AttackContext, inc.ActorType,
	}
	for _, o := range model.AllOrganizations {
		row = append(row, num(inc.Orgs[o]))
	}
	return append(row,
		num(inc.TotalKilled), num(inc.TotalWounded), num(inc.TotalKidnapped), num(inc.TotalAffected),
		num(inc.GenderMale), num(inc.GenderFemale), num(inc.GenderUnknown), inc.Details,
	)
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// QuickIncidents creates n incidents with default settings.
func QuickIncidents(n int) []model.Incident {
	return NewDefault().Incidents(n)
}

// Empty returns an empty incident slice for edge case testing.
func Empty() []model.Incident {
	return []model.Incident{}
}
