package mmdb

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/oschwald/maxminddb-golang"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Mode selects how a database file is handed to the reader.
type Mode int

const (
	// ModeMapped memory-maps the file.
	ModeMapped Mode = iota
	// ModeHeap reads the whole file into memory first.
	ModeHeap
)

// ErrClosed reports a Get on a handle whose Close already ran.
var ErrClosed = errors.New("database handle is closed")

// Handle defers opening one mmdb file until the first Get, and guarantees
// at most one open and at most one close over its lifetime. A failed open
// is permanent: the handle keeps returning the recorded error.
type Handle struct {
	path string
	mode Mode

	once   sync.Once
	reader *maxminddb.Reader
	err    error
	closed atomic.Bool
}

// NewHandle records path and mode without touching the file.
func NewHandle(path string, mode Mode) *Handle {
	return &Handle{path: path, mode: mode}
}

// Path returns the file path the handle serves.
func (h *Handle) Path() string {
	return h.path
}

// Name returns the base file name, which is the registry's lookup key.
func (h *Handle) Name() string {
	return filepath.Base(h.path)
}

// Get returns the reader, opening the file on the first call only.
func (h *Handle) Get() (*maxminddb.Reader, error) {
	if h.closed.Load() {
		return nil, ErrClosed
	}
	h.once.Do(h.open)
	if h.err != nil {
		return nil, h.err
	}
	if h.closed.Load() {
		return nil, ErrClosed
	}
	return h.reader, nil
}

func (h *Handle) open() {
	var reader *maxminddb.Reader
	var err error

	switch h.mode {
	case ModeHeap:
		var data []byte
		if data, err = os.ReadFile(h.path); err == nil {
			reader, err = maxminddb.FromBytes(data)
		}
	default:
		reader, err = maxminddb.Open(h.path)
	}
	if err != nil {
		h.err = errors.Wrapf(err, "failed to open database %s", h.path)
		return
	}

	h.reader = reader
	log.Debug().
		Str("package", "mmdb").
		Str("path", h.path).
		Str("type", reader.Metadata.DatabaseType).
		Msg("Database opened")
}

// Close releases the reader at most once; repeated and concurrent calls
// are no-ops. It also consumes the open slot, so a Get that has not yet
// opened the file never will.
func (h *Handle) Close() error {
	if h.closed.Swap(true) {
		return nil
	}
	h.once.Do(func() {})
	if h.reader == nil {
		return nil
	}
	log.Debug().Str("package", "mmdb").Str("path", h.path).Msg("Database closed")
	return h.reader.Close()
}
