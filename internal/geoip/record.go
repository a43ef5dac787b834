package geoip

// Record is the decoded form of one database entry. Exactly one concrete
// type exists per database kind; all of them are immutable once decoded.
type Record interface {
	recordKind() Kind
}

// Subdivision is one entry of a City record's subdivision chain, ordered
// from least to most specific.
type Subdivision struct {
	ISOCode string            `maxminddb:"iso_code"`
	Names   map[string]string `maxminddb:"names"`
}

// CityRecord holds the slice of a City database entry that lookups can
// project. Latitude and longitude are pointers so a missing coordinate is
// distinguishable from zero.
type CityRecord struct {
	City struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"city"`
	Continent struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"continent"`
	Country struct {
		ISOCode string            `maxminddb:"iso_code"`
		Names   map[string]string `maxminddb:"names"`
	} `maxminddb:"country"`
	Location struct {
		Latitude  *float64 `maxminddb:"latitude"`
		Longitude *float64 `maxminddb:"longitude"`
		TimeZone  string   `maxminddb:"time_zone"`
	} `maxminddb:"location"`
	Subdivisions []Subdivision `maxminddb:"subdivisions"`
}

func (*CityRecord) recordKind() Kind { return KindCity }

// mostSpecificSubdivision returns the last subdivision of the chain.
func (r *CityRecord) mostSpecificSubdivision() (Subdivision, bool) {
	if len(r.Subdivisions) == 0 {
		return Subdivision{}, false
	}
	return r.Subdivisions[len(r.Subdivisions)-1], true
}

// CountryRecord holds the slice of a Country database entry that lookups
// can project.
type CountryRecord struct {
	Continent struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"continent"`
	Country struct {
		ISOCode string            `maxminddb:"iso_code"`
		Names   map[string]string `maxminddb:"names"`
	} `maxminddb:"country"`
}

func (*CountryRecord) recordKind() Kind { return KindCountry }

// ASNRecord holds one ASN database entry. A zero system number means the
// entry carried none.
type ASNRecord struct {
	AutonomousSystemNumber       uint   `maxminddb:"autonomous_system_number"`
	AutonomousSystemOrganization string `maxminddb:"autonomous_system_organization"`
}

func (*ASNRecord) recordKind() Kind { return KindASN }
