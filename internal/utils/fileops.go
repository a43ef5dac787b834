package utils

import (
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// AtomicReplaceFile replaces targetPath with the file at tmpPath. An
// existing target is kept as a backup until the rename succeeds and
// restored if it does not.
func AtomicReplaceFile(tmpPath, targetPath string) error {
	backupPath := targetPath + ".backup"

	if _, err := os.Stat(targetPath); err == nil {
		if err := os.Rename(targetPath, backupPath); err != nil {
			return errors.Wrap(err, "failed to backup existing file")
		}
	}

	if err := os.Rename(tmpPath, targetPath); err != nil {
		if restoreErr := os.Rename(backupPath, targetPath); restoreErr != nil && !os.IsNotExist(restoreErr) {
			log.Warn().
				Err(restoreErr).
				Str("package", "utils").
				Str("path", targetPath).
				Msg("Failed to restore backup after rename error")
		}
		return errors.Wrap(err, "failed to rename temporary file")
	}

	os.Remove(backupPath)
	return nil
}

// CreateTempFile creates basePath + ".tmp" for writing and returns the
// open file along with its path.
func CreateTempFile(basePath string) (*os.File, string, error) {
	tmpPath := basePath + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to create temporary file")
	}
	return file, tmpPath, nil
}
