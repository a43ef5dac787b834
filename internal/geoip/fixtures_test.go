package geoip

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/maxmind/mmdbwriter"
	"github.com/maxmind/mmdbwriter/mmdbtype"

	"github.com/rdwr-valentineg/geoip-enrich/internal/metrics"
	"github.com/rdwr-valentineg/geoip-enrich/internal/mmdb"
)

// buildMMDB writes a database with the given type and records into dir
// and returns its path.
func buildMMDB(t *testing.T, dir, name, databaseType string, records map[string]mmdbtype.Map) string {
	t.Helper()

	writer, err := mmdbwriter.New(
		mmdbwriter.Options{
			DatabaseType: databaseType,
		},
	)
	if err != nil {
		t.Fatalf("failed to create mmdbwriter: %v", err)
	}

	for cidr, record := range records {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			t.Fatalf("failed to parse CIDR %s: %v", cidr, err)
		}
		if err := writer.Insert(network, record); err != nil {
			t.Fatalf("failed to insert %s: %v", cidr, err)
		}
	}

	var buf bytes.Buffer
	if _, err := writer.WriteTo(&buf); err != nil {
		t.Fatalf("failed to write mmdb to buffer: %v", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("failed to write mmdb file: %v", err)
	}
	return path
}

// testCityDB builds a City database with one fully populated network, one
// without subdivisions or coordinates, one with a subdivision chain, and
// one whose country has no ISO code.
func testCityDB(t *testing.T, dir string) string {
	t.Helper()
	return buildMMDB(t, dir, "GeoLite2-City.mmdb", "GeoLite2-City", map[string]mmdbtype.Map{
		"27.24.3.0/24": {
			"city": mmdbtype.Map{
				"names": mmdbtype.Map{"en": mmdbtype.String("Wuhan")},
			},
			"continent": mmdbtype.Map{
				"names": mmdbtype.Map{"en": mmdbtype.String("Asia")},
			},
			"country": mmdbtype.Map{
				"iso_code": mmdbtype.String("CN"),
				"names":    mmdbtype.Map{"en": mmdbtype.String("China")},
			},
			"location": mmdbtype.Map{
				"latitude":  mmdbtype.Float64(30.5801),
				"longitude": mmdbtype.Float64(114.2734),
				"time_zone": mmdbtype.String("Asia/Shanghai"),
			},
			"subdivisions": mmdbtype.Slice{
				mmdbtype.Map{
					"iso_code": mmdbtype.String("HB"),
					"names":    mmdbtype.Map{"en": mmdbtype.String("Hubei")},
				},
			},
		},
		"89.160.20.0/24": {
			"continent": mmdbtype.Map{
				"names": mmdbtype.Map{"en": mmdbtype.String("Europe")},
			},
			"country": mmdbtype.Map{
				"iso_code": mmdbtype.String("SE"),
				"names":    mmdbtype.Map{"en": mmdbtype.String("Sweden")},
			},
			"location": mmdbtype.Map{
				"time_zone": mmdbtype.String("Europe/Stockholm"),
			},
		},
		"81.2.69.0/24": {
			"continent": mmdbtype.Map{
				"names": mmdbtype.Map{"en": mmdbtype.String("Europe")},
			},
			"country": mmdbtype.Map{
				"iso_code": mmdbtype.String("GB"),
				"names":    mmdbtype.Map{"en": mmdbtype.String("United Kingdom")},
			},
			"subdivisions": mmdbtype.Slice{
				mmdbtype.Map{
					"iso_code": mmdbtype.String("ENG"),
					"names":    mmdbtype.Map{"en": mmdbtype.String("England")},
				},
				mmdbtype.Map{
					"iso_code": mmdbtype.String("GLS"),
					"names":    mmdbtype.Map{"en": mmdbtype.String("Gloucestershire")},
				},
			},
		},
		"185.60.216.0/24": {
			"country": mmdbtype.Map{
				"names": mmdbtype.Map{"en": mmdbtype.String("Ireland")},
			},
			"subdivisions": mmdbtype.Slice{
				mmdbtype.Map{
					"iso_code": mmdbtype.String("L"),
					"names":    mmdbtype.Map{"en": mmdbtype.String("Leinster")},
				},
			},
		},
	})
}

func testCountryDB(t *testing.T, dir string) string {
	t.Helper()
	return buildMMDB(t, dir, "GeoLite2-Country.mmdb", "GeoLite2-Country", map[string]mmdbtype.Map{
		"81.2.69.0/24": {
			"continent": mmdbtype.Map{
				"names": mmdbtype.Map{"en": mmdbtype.String("Europe")},
			},
			"country": mmdbtype.Map{
				"iso_code": mmdbtype.String("GB"),
				"names":    mmdbtype.Map{"en": mmdbtype.String("United Kingdom")},
			},
		},
	})
}

func testASNDB(t *testing.T, dir string) string {
	t.Helper()
	return buildMMDB(t, dir, "GeoLite2-ASN.mmdb", "GeoLite2-ASN", map[string]mmdbtype.Map{
		"8.8.8.0/24": {
			"autonomous_system_number":       mmdbtype.Uint32(15169),
			"autonomous_system_organization": mmdbtype.String("Google LLC"),
		},
	})
}

// newTestResolver builds a resolver over the given database paths with a
// cache of the given size.
func newTestResolver(t *testing.T, cacheSize int, defaultDB string, paths ...string) *Resolver {
	t.Helper()
	metrics.InitMetrics()

	handles := make(map[string]*mmdb.Handle, len(paths))
	for _, path := range paths {
		h := mmdb.NewHandle(path, mmdb.ModeMapped)
		handles[h.Name()] = h
	}
	registry := mmdb.NewRegistry(handles)
	t.Cleanup(func() { registry.Close() })

	cache, err := NewCache(cacheSize)
	if err != nil {
		t.Fatalf("failed to build cache: %v", err)
	}
	return NewResolver(registry, cache, defaultDB)
}
