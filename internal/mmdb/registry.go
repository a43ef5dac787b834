package mmdb

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ErrDatabaseNotFound reports a lookup selection the registry does not
// hold.
var ErrDatabaseNotFound = errors.New("database not found")

// Registry holds the handles for one database directory. It is built once
// at startup and its entries never change afterwards, so reads need no
// locking.
type Registry struct {
	handles map[string]*Handle
}

// NewRegistry wraps an explicit name to handle table. Used by tests;
// production registries come from Discover.
func NewRegistry(handles map[string]*Handle) *Registry {
	if handles == nil {
		handles = map[string]*Handle{}
	}
	return &Registry{handles: handles}
}

// Discover builds a registry from every *.mmdb file directly inside dir.
// Other files are ignored. No handle is opened here.
func Discover(dir string, mode Mode) (*Registry, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, errors.Wrap(err, "failed to access database directory")
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.mmdb"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan database directory")
	}

	handles := make(map[string]*Handle, len(matches))
	for _, path := range matches {
		h := NewHandle(path, mode)
		handles[h.Name()] = h
		log.Debug().Str("package", "mmdb").Str("path", path).Msg("Database discovered")
	}
	return &Registry{handles: handles}, nil
}

// Lookup returns the handle registered under name.
func (r *Registry) Lookup(name string) (*Handle, error) {
	h, ok := r.handles[name]
	if !ok {
		return nil, errors.Wrapf(ErrDatabaseNotFound, "%q", name)
	}
	return h, nil
}

// Names returns the registered database file names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handles))
	for name := range r.handles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports the number of registered databases.
func (r *Registry) Len() int {
	return len(r.handles)
}

// Close closes every handle. Safe to call more than once; the first error
// seen is returned.
func (r *Registry) Close() error {
	var firstErr error
	for _, h := range r.handles {
		if err := h.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
