package geoip

import (
	"net"
	"net/netip"
	"time"

	"github.com/oschwald/maxminddb-golang"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/rdwr-valentineg/geoip-enrich/internal/metrics"
	"github.com/rdwr-valentineg/geoip-enrich/internal/mmdb"
)

// Output is one lookup result keyed by field name. Absent data never
// appears: a lookup that resolves nothing is an empty, non-nil map.
type Output map[string]any

// Resolver dispatches lookups across the registry's databases through a
// shared record cache.
type Resolver struct {
	registry  *mmdb.Registry
	cache     *Cache
	defaultDB string
}

// NewResolver wires a resolver over an already discovered registry.
func NewResolver(registry *mmdb.Registry, cache *Cache, defaultDB string) *Resolver {
	return &Resolver{registry: registry, cache: cache, defaultDB: defaultDB}
}

// decodeRecord reads the record for ip from reader.
var decodeRecord = func(reader *maxminddb.Reader, ip net.IP, kind Kind) (Record, error) {
	var rec Record
	switch kind {
	case KindCity:
		rec = &CityRecord{}
	case KindCountry:
		rec = &CountryRecord{}
	case KindASN:
		rec = &ASNRecord{}
	default:
		return nil, &UnsupportedKindError{DatabaseType: kind.String()}
	}

	_, found, err := reader.LookupNetwork(ip, rec)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode record")
	}
	if !found {
		return nil, errNotInDatabase
	}
	return rec, nil
}

// Lookup resolves addressText against the named database (the configured
// default when dbName is empty) and projects the requested fields (the
// kind's defaults when fieldList is empty). An empty addressText, or an
// address the database has no record for, yields an empty output and no
// error.
func (rv *Resolver) Lookup(addressText, dbName, fieldList string) (Output, error) {
	if addressText == "" {
		return Output{}, nil
	}

	name := dbName
	if name == "" {
		name = rv.defaultDB
	}

	start := time.Now()
	out, err := rv.resolve(addressText, name, fieldList)
	metrics.LookupsTotal.WithLabelValues(name, lookupStatus(out, err)).Inc()
	metrics.LookupDuration.Observe(time.Since(start).Seconds())
	return out, err
}

func (rv *Resolver) resolve(addressText, name, fieldList string) (Output, error) {
	addr, err := netip.ParseAddr(addressText)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidAddress, "%q", addressText)
	}
	addr = addr.Unmap()

	handle, err := rv.registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	reader, err := handle.Get()
	if err != nil {
		return nil, err
	}
	kind, err := DetectKind(reader.Metadata.DatabaseType)
	if err != nil {
		return nil, err
	}
	fields, err := ParseFields(kind, fieldList)
	if err != nil {
		return nil, err
	}

	rec, err := rv.cache.GetOrDecode(addr, kind, func() (Record, error) {
		return decodeRecord(reader, net.IP(addr.AsSlice()), kind)
	})
	if errors.Is(err, errNotInDatabase) {
		log.Debug().
			Str("package", "geoip").
			Str("ip", addr.String()).
			Str("database", name).
			Msg("address not in database")
		return Output{}, nil
	}
	if err != nil {
		return nil, err
	}
	return project(rec, addr, fields), nil
}

func lookupStatus(out Output, err error) string {
	switch {
	case err != nil:
		return "error"
	case len(out) == 0:
		return "empty"
	default:
		return "ok"
	}
}

// project copies the requested fields out of rec, skipping any whose data
// the record does not carry.
func project(rec Record, addr netip.Addr, fields []Field) Output {
	out := Output{}
	switch r := rec.(type) {
	case *CityRecord:
		projectCity(out, r, addr, fields)
	case *CountryRecord:
		projectCountry(out, r, addr, fields)
	case *ASNRecord:
		projectASN(out, r, addr, fields)
	}
	return out
}

func projectCity(out Output, r *CityRecord, addr netip.Addr, fields []Field) {
	for _, f := range fields {
		switch f {
		case FieldIP:
			out[string(f)] = addr.String()
		case FieldCountryISOCode:
			putString(out, f, r.Country.ISOCode)
		case FieldCountryName:
			putString(out, f, r.Country.Names["en"])
		case FieldContinentName:
			putString(out, f, r.Continent.Names["en"])
		case FieldRegionISOCode:
			// Both halves must be present for the composite code.
			sub, ok := r.mostSpecificSubdivision()
			if ok && r.Country.ISOCode != "" && sub.ISOCode != "" {
				out[string(f)] = r.Country.ISOCode + "-" + sub.ISOCode
			}
		case FieldRegionName:
			if sub, ok := r.mostSpecificSubdivision(); ok {
				putString(out, f, sub.Names["en"])
			}
		case FieldCityName:
			putString(out, f, r.City.Names["en"])
		case FieldTimezone:
			putString(out, f, r.Location.TimeZone)
		case FieldLocation:
			if r.Location.Latitude != nil && r.Location.Longitude != nil {
				out[string(f)] = map[string]any{
					"lat": *r.Location.Latitude,
					"lon": *r.Location.Longitude,
				}
			}
		}
	}
}

func projectCountry(out Output, r *CountryRecord, addr netip.Addr, fields []Field) {
	for _, f := range fields {
		switch f {
		case FieldIP:
			out[string(f)] = addr.String()
		case FieldCountryISOCode:
			putString(out, f, r.Country.ISOCode)
		case FieldCountryName:
			putString(out, f, r.Country.Names["en"])
		case FieldContinentName:
			putString(out, f, r.Continent.Names["en"])
		}
	}
}

func projectASN(out Output, r *ASNRecord, addr netip.Addr, fields []Field) {
	for _, f := range fields {
		switch f {
		case FieldIP:
			out[string(f)] = addr.String()
		case FieldASN:
			if r.AutonomousSystemNumber != 0 {
				out[string(f)] = r.AutonomousSystemNumber
			}
		case FieldOrganizationName:
			putString(out, f, r.AutonomousSystemOrganization)
		}
	}
}

func putString(out Output, f Field, v string) {
	if v != "" {
		out[string(f)] = v
	}
}
