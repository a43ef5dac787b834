package mmdb

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/maxmind/mmdbwriter"
	"github.com/maxmind/mmdbwriter/mmdbtype"
)

// buildTestMMDB returns the bytes of a small country database holding
// 1.2.3.0/24 as US and 2.3.4.0/24 as SE.
func buildTestMMDB(t *testing.T, databaseType string) []byte {
	t.Helper()

	writer, err := mmdbwriter.New(mmdbwriter.Options{DatabaseType: databaseType})
	if err != nil {
		t.Fatalf("failed to create mmdb writer: %v", err)
	}

	records := map[string]string{
		"1.2.3.0/24": "US",
		"2.3.4.0/24": "SE",
	}
	for cidr, iso := range records {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			t.Fatalf("failed to parse %s: %v", cidr, err)
		}
		record := mmdbtype.Map{
			"country": mmdbtype.Map{"iso_code": mmdbtype.String(iso)},
		}
		if err := writer.Insert(network, record); err != nil {
			t.Fatalf("failed to insert %s: %v", cidr, err)
		}
	}

	var buf bytes.Buffer
	if _, err := writer.WriteTo(&buf); err != nil {
		t.Fatalf("failed to write mmdb: %v", err)
	}
	return buf.Bytes()
}

// writeTestMMDB builds a database file on disk and returns its path.
func writeTestMMDB(t *testing.T, dir, name, databaseType string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buildTestMMDB(t, databaseType), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// createTarGz wraps data as a single-file tar.gz archive, the shape the
// MaxMind download endpoint serves.
func createTarGz(t *testing.T, data []byte, filename string) []byte {
	t.Helper()

	var buf bytes.Buffer
	gzw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gzw)

	hdr := &tar.Header{
		Name:     "GeoLite2_20260820/" + filename,
		Typeflag: tar.TypeReg,
		Mode:     0644,
		Size:     int64(len(data)),
		ModTime:  time.Now(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		t.Fatalf("failed to write tar header: %v", err)
	}
	if _, err := tw.Write(data); err != nil {
		t.Fatalf("failed to write tar content: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("failed to close tar writer: %v", err)
	}
	if err := gzw.Close(); err != nil {
		t.Fatalf("failed to close gzip writer: %v", err)
	}
	return buf.Bytes()
}
