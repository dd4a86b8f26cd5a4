package loader

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vanderheijden86/aidglobe/pkg/model"
)

// ErrMissingColumns is returned when a header lacks a required column.
var ErrMissingColumns = errors.New("missing required columns")

// Decoder maps dataset rows onto typed incidents using a header.
// Header names are matched case-insensitively after trimming.
type Decoder struct {
	index map[string]int
	orgs  [model.NumOrganizations]int
}

// NewDecoder builds a decoder for header. It fails with ErrMissingColumns
// when Year, Latitude or Longitude is absent.
func NewDecoder(header []string) (*Decoder, error) {
	d := &Decoder{index: make(map[string]int, len(header))}
	for i, h := range header {
		key := columnKey(h)
		if i == 0 {
			key = columnKey(string(stripBOM([]byte(h))))
		}
		if _, dup := d.index[key]; !dup {
			d.index[key] = i
		}
	}

	var missing []string
	for _, col := range model.RequiredColumns {
		if _, ok := d.index[columnKey(col)]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	for _, o := range model.AllOrganizations {
		d.orgs[o] = d.col(o.Column())
	}
	return d, nil
}

// Has reports whether the header contains col.
func (d *Decoder) Has(col string) bool {
	_, ok := d.index[columnKey(col)]
	return ok
}

func (d *Decoder) col(name string) int {
	if i, ok := d.index[columnKey(name)]; ok {
		return i
	}
	return -1
}

func (d *Decoder) field(fields []string, name string) string {
	i := d.col(name)
	if i < 0 || i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

func (d *Decoder) number(fields []string, name string) float64 {
	f, _ := parseNumber(d.field(fields, name))
	return f
}

// Decode converts one row. Short rows are padded with blanks. Unparseable
// numeric cells decode as 0; Year and coordinates set their validity flags
// instead.
func (d *Decoder) Decode(fields []string) model.Incident {
	inc := model.Incident{
		ID:            d.field(fields, model.ColID),
		Country:       d.field(fields, model.ColCountry),
		Region:        d.field(fields, model.ColRegion),
		AttackContext: d.field(fields, model.ColAttackContext),
		ActorType:     d.field(fields, model.ColActorType),
		Means:         d.field(fields, model.ColMeans),
		Details:       d.field(fields, model.ColDetails),
	}

	inc.Year, inc.YearOK = parseYear(d.field(fields, model.ColYear))
	inc.Month = int(d.number(fields, model.ColMonth))
	inc.Day = int(d.number(fields, model.ColDay))

	lat, latOK := parseNumber(d.field(fields, model.ColLatitude))
	lon, lonOK := parseNumber(d.field(fields, model.ColLongitude))
	if latOK && lonOK && lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180 {
		inc.Lat, inc.Lon, inc.GeoOK = lat, lon, true
	}

	for _, o := range model.AllOrganizations {
		if i := d.orgs[o]; i >= 0 && i < len(fields) {
			inc.Orgs[o], _ = parseNumber(strings.TrimSpace(fields[i]))
		}
	}

	inc.TotalKilled = d.number(fields, model.ColTotalKilled)
	inc.TotalWounded = d.number(fields, model.ColTotalWounded)
	inc.TotalKidnapped = d.number(fields, model.ColTotalKidnap)
	inc.TotalAffected = d.number(fields, model.ColTotalAffected)
	inc.GenderMale = d.number(fields, model.ColGenderMale)
	inc.GenderFemale = d.number(fields, model.ColGenderFemale)
	inc.GenderUnknown = d.number(fields, model.ColGenderUnknown)
	return inc
}

// parseNumber parses a finite float. Thousands separators are tolerated.
func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseYear accepts integral values only ("2019" or "2019.0").
func parseYear(s string) (int, bool) {
	f, ok := parseNumber(s)
	if !ok || f != math.Trunc(f) || math.Abs(f) > 1e6 {
		return 0, false
	}
	return int(f), true
}

func columnKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
