package webserver

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/rdwr-valentineg/geoip-enrich/internal/geoip"
	"github.com/rdwr-valentineg/geoip-enrich/internal/mmdb"
)

type LookupHandler struct {
	Resolver *geoip.Resolver
}

func NewLookupHandler(resolver *geoip.Resolver) *LookupHandler {
	return &LookupHandler{
		Resolver: resolver,
	}
}

// ServeHTTP answers GET /v1/lookup?ip=..&db=..&fields=.. with the lookup
// output as a JSON object. When the ip parameter is missing the client
// address is used instead.
func (lh *LookupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	ipText := query.Get("ip")
	if ipText == "" {
		ip := getIPFromRequest(r)
		if ip == nil {
			http.Error(w, "Unable to determine IP", http.StatusBadRequest)
			return
		}
		ipText = ip.String()
	}

	log.Debug().
		Str("ip", ipText).
		Str("db", query.Get("db")).
		Str("fields", query.Get("fields")).
		Msg("new lookup request")

	out, err := lh.Resolver.Lookup(ipText, query.Get("db"), query.Get("fields"))
	if err != nil {
		log.Debug().Err(err).Str("ip", ipText).Msg("lookup failed")
		http.Error(w, err.Error(), statusForError(err))
		return
	}
	respondJSON(w, out)
}

// statusForError maps resolver failures onto HTTP statuses.
func statusForError(err error) int {
	var invalidField *geoip.InvalidFieldError
	var unsupported *geoip.UnsupportedKindError
	switch {
	case errors.Is(err, geoip.ErrInvalidAddress):
		return http.StatusBadRequest
	case errors.As(err, &invalidField):
		return http.StatusBadRequest
	case errors.Is(err, mmdb.ErrDatabaseNotFound):
		return http.StatusNotFound
	case errors.Is(err, mmdb.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.As(err, &unsupported):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
