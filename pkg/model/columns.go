package model

// Dataset column headers. Organization columns come from Organization.Column.
const (
	ColID            = "Incident ID"
	ColYear          = "Year"
	ColMonth         = "Month"
	ColDay           = "Day"
	ColCountry       = "Country"
	ColRegion        = "Region"
	ColLatitude      = "Latitude"
	ColLongitude     = "Longitude"
	ColMeans         = "Means of attack"
	ColAttackContext = "Attack context"
	ColActorType     = "Actor type"
	ColTotalKilled   = "Total killed"
	ColTotalWounded  = "Total wounded"
	ColTotalKidnap   = "Total kidnapped"
	ColTotalAffected = "Total affected"
	ColGenderMale    = "Gender Male"
	ColGenderFemale  = "Gender Female"
	ColGenderUnknown = "Gender Unknown"
	ColDetails       = "Details"
)

// RequiredColumns must be present in every dataset header.
var RequiredColumns = []string{ColYear, ColLatitude, ColLongitude}

// Columns returns every known header in canonical order.
func Columns() []string {
	cols := []string{
		ColID, ColYear, ColMonth, ColDay, ColCountry, ColRegion,
		ColLatitude, ColLongitude, ColMeans, ColAttackContext, ColActorType,
	}
	for _, o := range AllOrganizations {
		cols = append(cols, o.Column())
	}
	return append(cols,
		ColTotalKilled, ColTotalWounded, ColTotalKidnap, ColTotalAffected,
		ColGenderMale, ColGenderFemale, ColGenderUnknown, ColDetails,
	)
}
