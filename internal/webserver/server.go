package webserver

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/rdwr-valentineg/geoip-enrich/internal/config"
	"github.com/rdwr-valentineg/geoip-enrich/internal/geoip"
	"github.com/rdwr-valentineg/geoip-enrich/internal/mmdb"
)

type Server struct {
	Srv *http.Server
}

// Run wires the endpoints and starts listening in the background. A
// listener failure is reported on errCh.
func Run(resolver *geoip.Resolver, registry *mmdb.Registry, errCh chan<- error) *Server {
	mux := http.NewServeMux()

	mux.Handle("/v1/lookup", NewLookupHandler(resolver))

	if config.GetEnableScripting() {
		log.Info().Msg("Scripting endpoint enabled")
		mux.Handle("/v1/script", NewScriptHandler(resolver))
	}

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		log.Debug().Msg("/healthz endpoint called")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ready := registry.Len() > 0
		log.Debug().Bool("Ready", ready).Msg("/ready endpoint called")
		if !ready {
			log.Warn().Msg("No GeoIP databases registered")
			http.Error(w, "Service not ready", http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
	})

	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", config.GetPort())
	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("GeoIP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	return &Server{Srv: srv}
}
