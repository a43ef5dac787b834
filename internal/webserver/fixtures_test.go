package webserver

import (
	"bytes"
	"flag"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/maxmind/mmdbwriter"
	"github.com/maxmind/mmdbwriter/mmdbtype"

	"github.com/rdwr-valentineg/geoip-enrich/internal/config"
	"github.com/rdwr-valentineg/geoip-enrich/internal/geoip"
	"github.com/rdwr-valentineg/geoip-enrich/internal/metrics"
	"github.com/rdwr-valentineg/geoip-enrich/internal/mmdb"
)

// resetConfig rebuilds the package config from args alone, keeping the
// test binary's own flags out of the parse.
func resetConfig(t *testing.T, args ...string) {
	t.Helper()

	oldArgs := os.Args
	oldFlags := flag.CommandLine
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	os.Args = append([]string{"cmd"}, args...)
	config.Config = nil
	if err := config.InitConfig(); err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}
	t.Cleanup(func() {
		os.Args = oldArgs
		flag.CommandLine = oldFlags
		config.Config = nil
	})
}

func writeDB(t *testing.T, dir, name, databaseType string, records map[string]mmdbtype.Map) string {
	t.Helper()

	writer, err := mmdbwriter.New(mmdbwriter.Options{DatabaseType: databaseType})
	if err != nil {
		t.Fatalf("failed to create mmdb writer: %v", err)
	}
	for cidr, record := range records {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			t.Fatalf("failed to parse %s: %v", cidr, err)
		}
		if err := writer.Insert(network, record); err != nil {
			t.Fatalf("failed to insert %s: %v", cidr, err)
		}
	}

	var buf bytes.Buffer
	if _, err := writer.WriteTo(&buf); err != nil {
		t.Fatalf("failed to write mmdb: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// newTestResolver serves a city and an ASN database from a temp dir.
func newTestResolver(t *testing.T) (*geoip.Resolver, *mmdb.Registry) {
	t.Helper()
	metrics.InitMetrics()

	dir := t.TempDir()
	cityPath := writeDB(t, dir, "GeoLite2-City.mmdb", "GeoLite2-City", map[string]mmdbtype.Map{
		"27.24.3.0/24": {
			"city":      mmdbtype.Map{"names": mmdbtype.Map{"en": mmdbtype.String("Wuhan")}},
			"country":   mmdbtype.Map{"iso_code": mmdbtype.String("CN"), "names": mmdbtype.Map{"en": mmdbtype.String("China")}},
			"continent": mmdbtype.Map{"names": mmdbtype.Map{"en": mmdbtype.String("Asia")}},
		},
	})
	asnPath := writeDB(t, dir, "GeoLite2-ASN.mmdb", "GeoLite2-ASN", map[string]mmdbtype.Map{
		"8.8.8.0/24": {
			"autonomous_system_number":       mmdbtype.Uint32(15169),
			"autonomous_system_organization": mmdbtype.String("Google LLC"),
		},
	})

	handles := map[string]*mmdb.Handle{}
	for _, path := range []string{cityPath, asnPath} {
		h := mmdb.NewHandle(path, mmdb.ModeMapped)
		handles[h.Name()] = h
	}
	registry := mmdb.NewRegistry(handles)
	t.Cleanup(func() { registry.Close() })

	cache, err := geoip.NewCache(64)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	return geoip.NewResolver(registry, cache, "GeoLite2-City.mmdb"), registry
}
