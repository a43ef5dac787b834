package utils

import (
	"archive/tar"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ExtractFileFromTar finds the first regular file in the archive whose
// base name equals target and returns a reader over its content plus the
// declared size. Entries with path traversal in their name are skipped.
func ExtractFileFromTar(tr *tar.Reader, target string) (io.Reader, int64, error) {
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to read tar archive")
		}

		if header.Typeflag != tar.TypeReg {
			continue
		}
		if strings.Contains(header.Name, "..") {
			continue
		}

		if filepath.Base(header.Name) == target {
			// Limit reads to the declared size so a caller cannot run
			// into the next tar entry.
			return io.LimitReader(tr, header.Size), header.Size, nil
		}
	}
	return nil, 0, errors.Errorf("file %s not found in archive", target)
}
