package geoip

import "strings"

// Kind identifies the family of MaxMind database a reader serves.
type Kind int

const (
	KindUnknown Kind = iota
	KindCity
	KindCountry
	KindASN
)

func (k Kind) String() string {
	switch k {
	case KindCity:
		return "City"
	case KindCountry:
		return "Country"
	case KindASN:
		return "ASN"
	default:
		return "Unknown"
	}
}

// DetectKind maps an mmdb metadata database type to a Kind. MaxMind type
// strings end with the product family, e.g. "GeoLite2-City" or
// "GeoIP2-Country".
func DetectKind(databaseType string) (Kind, error) {
	switch {
	case strings.HasSuffix(databaseType, "-City"):
		return KindCity, nil
	case strings.HasSuffix(databaseType, "-Country"):
		return KindCountry, nil
	case strings.HasSuffix(databaseType, "-ASN"):
		return KindASN, nil
	default:
		return KindUnknown, &UnsupportedKindError{DatabaseType: databaseType}
	}
}
