package webserver

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rdwr-valentineg/geoip-enrich/internal/geoip"
	"github.com/rdwr-valentineg/geoip-enrich/internal/scripting"
)

// scriptTimeout and scriptMaxBytes bound one script run.
var (
	scriptTimeout  = 5 * time.Second
	scriptMaxBytes = int64(1 << 20)
)

type ScriptHandler struct {
	Resolver *geoip.Resolver
}

func NewScriptHandler(resolver *geoip.Resolver) *ScriptHandler {
	return &ScriptHandler{
		Resolver: resolver,
	}
}

// ServeHTTP answers POST /v1/script. The body is JavaScript source run in
// a fresh VM with the geoip module installed; the script's result is
// returned as JSON.
func (sh *ScriptHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	src, err := io.ReadAll(http.MaxBytesReader(w, r.Body, scriptMaxBytes))
	if err != nil {
		http.Error(w, "Unable to read script body", http.StatusBadRequest)
		return
	}

	vm, err := scripting.NewVM(sh.Resolver)
	if err != nil {
		http.Error(w, "Unable to build script runtime", http.StatusInternalServerError)
		return
	}

	result, err := vm.RunTimeout(string(src), scriptTimeout)
	if err != nil {
		log.Debug().Err(err).Msg("script run failed")
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	body, err := json.Marshal(result)
	if err != nil {
		log.Debug().Err(err).Msg("script result is not serializable")
		http.Error(w, "Script result is not serializable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}
