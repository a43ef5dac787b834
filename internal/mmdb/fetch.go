package mmdb

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/rdwr-valentineg/geoip-enrich/internal/metrics"
	"github.com/rdwr-valentineg/geoip-enrich/internal/utils"
)

// downloadURL builds the MaxMind download endpoint for one edition.
// Tests point it at a local server.
var downloadURL = func(edition string) string {
	return fmt.Sprintf("https://download.maxmind.com/geoip/databases/%s/download?suffix=tar.gz", edition)
}

// Fetcher downloads MaxMind editions into the database directory. It runs
// once, before discovery: handles never reload, so fresh files have to be
// on disk before the registry opens them.
type Fetcher struct {
	AccountID   string
	LicenseKey  string
	Dir         string
	Editions    []string
	MaxRetries  int
	BaseBackoff time.Duration

	client *http.Client
}

// NewFetcher builds a fetcher with its own HTTP client.
func NewFetcher(accountID, licenseKey, dir string, editions []string, timeout time.Duration, maxRetries int, baseBackoff time.Duration) *Fetcher {
	return &Fetcher{
		AccountID:   accountID,
		LicenseKey:  licenseKey,
		Dir:         dir,
		Editions:    editions,
		MaxRetries:  maxRetries,
		BaseBackoff: baseBackoff,
		client:      &http.Client{Timeout: timeout},
	}
}

// FetchAll downloads every edition whose .mmdb file is missing from the
// directory. Editions already on disk are left untouched.
func (f *Fetcher) FetchAll() error {
	for _, edition := range f.Editions {
		target := filepath.Join(f.Dir, edition+".mmdb")
		if _, err := os.Stat(target); err == nil {
			log.Debug().
				Str("package", "mmdb").
				Str("edition", edition).
				Msg("Edition already on disk, skipping fetch")
			metrics.FetchTotal.WithLabelValues(edition, "skipped").Inc()
			continue
		}

		if err := f.fetchEdition(edition, target); err != nil {
			metrics.FetchTotal.WithLabelValues(edition, "error").Inc()
			return errors.Wrapf(err, "failed to fetch edition %s", edition)
		}
		metrics.FetchTotal.WithLabelValues(edition, "ok").Inc()
		log.Info().
			Str("package", "mmdb").
			Str("edition", edition).
			Str("path", target).
			Msg("Edition fetched")
	}
	return nil
}

func (f *Fetcher) fetchEdition(edition, target string) error {
	var lastErr error
	backoff := f.BaseBackoff
	for attempt := 1; attempt <= f.MaxRetries; attempt++ {
		if attempt > 1 {
			time.Sleep(backoff)
			backoff *= 2
			log.Debug().
				Str("package", "mmdb").
				Str("edition", edition).
				Int("attempt", attempt).
				Msg("Retrying edition fetch")
		}
		if lastErr = f.downloadOnce(edition, target); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func (f *Fetcher) downloadOnce(edition, target string) error {
	req, err := http.NewRequest(http.MethodGet, downloadURL(edition), nil)
	if err != nil {
		return errors.Wrap(err, "failed to build download request")
	}
	req.SetBasicAuth(f.AccountID, f.LicenseKey)

	resp, err := f.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to download database")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("bad response: %s", resp.Status)
	}

	gzr, err := gzip.NewReader(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to open gzip stream")
	}
	defer gzr.Close()

	content, size, err := utils.ExtractFileFromTar(tar.NewReader(gzr), edition+".mmdb")
	if err != nil {
		return err
	}

	tmp, tmpPath, err := utils.CreateTempFile(target)
	if err != nil {
		return err
	}
	if _, err := io.CopyN(tmp, content, size); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrap(err, "failed to write database file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "failed to close temporary file")
	}
	return utils.AtomicReplaceFile(tmpPath, target)
}
