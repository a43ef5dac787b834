package geoip

import "strings"

// Field names one property a lookup can project into its output. The
// string value is the key used in the output map.
type Field string

const (
	FieldIP               Field = "ip"
	FieldCountryISOCode   Field = "country_iso_code"
	FieldCountryName      Field = "country_name"
	FieldContinentName    Field = "continent_name"
	FieldRegionISOCode    Field = "region_iso_code"
	FieldRegionName       Field = "region_name"
	FieldCityName         Field = "city_name"
	FieldTimezone         Field = "timezone"
	FieldLocation         Field = "location"
	FieldASN              Field = "asn"
	FieldOrganizationName Field = "organization_name"
)

var validFields = map[Kind][]Field{
	KindCity: {
		FieldIP, FieldCountryISOCode, FieldCountryName, FieldContinentName,
		FieldRegionISOCode, FieldRegionName, FieldCityName, FieldTimezone,
		FieldLocation,
	},
	KindCountry: {
		FieldIP, FieldCountryISOCode, FieldCountryName, FieldContinentName,
	},
	KindASN: {
		FieldIP, FieldASN, FieldOrganizationName,
	},
}

var defaultFields = map[Kind][]Field{
	KindCity: {
		FieldContinentName, FieldCountryISOCode, FieldRegionISOCode,
		FieldRegionName, FieldCityName, FieldLocation,
	},
	KindCountry: {
		FieldContinentName, FieldCountryISOCode,
	},
	KindASN: {
		FieldIP, FieldASN, FieldOrganizationName,
	},
}

// ValidFields returns the fields kind can serve.
func ValidFields(kind Kind) []Field {
	return append([]Field(nil), validFields[kind]...)
}

// DefaultFields returns the fields a lookup projects when the caller does
// not name any.
func DefaultFields(kind Kind) []Field {
	return append([]Field(nil), defaultFields[kind]...)
}

// ParseField resolves one field name, case-insensitively, against the
// fields kind serves.
func ParseField(kind Kind, raw string) (Field, error) {
	name := Field(strings.ToLower(strings.TrimSpace(raw)))
	for _, f := range validFields[kind] {
		if f == name {
			return f, nil
		}
	}
	return "", &InvalidFieldError{Raw: raw, Kind: kind, Valid: ValidFields(kind)}
}

// ParseFields resolves a comma separated field list. Tokens are trimmed
// and empty tokens skipped. An empty or all-whitespace list yields the
// kind's defaults.
func ParseFields(kind Kind, list string) ([]Field, error) {
	if strings.TrimSpace(list) == "" {
		return DefaultFields(kind), nil
	}
	var fields []Field
	for _, tok := range strings.Split(list, ",") {
		if strings.TrimSpace(tok) == "" {
			continue
		}
		f, err := ParseField(kind, tok)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}
