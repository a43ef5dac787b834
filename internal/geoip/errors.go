package geoip

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidAddress reports address text that does not parse as an
	// IPv4 or IPv6 address.
	ErrInvalidAddress = errors.New("invalid IP address")

	// errNotInDatabase reports an address the database holds no record
	// for. It never leaves this package: lookups translate it into an
	// empty output.
	errNotInDatabase = errors.New("address not in database")
)

// InvalidFieldError reports a field name that is unknown or not served by
// the database kind it was requested from.
type InvalidFieldError struct {
	Raw   string
	Kind  Kind
	Valid []Field
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid field %q for %s database, valid fields are %v", e.Raw, e.Kind, e.Valid)
}

// UnsupportedKindError reports an mmdb whose metadata names a database
// type no lookup can serve.
type UnsupportedKindError struct {
	DatabaseType string
}

func (e *UnsupportedKindError) Error() string {
	return fmt.Sprintf("unsupported database type %q", e.DatabaseType)
}
