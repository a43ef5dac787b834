package webserver

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/rdwr-valentineg/geoip-enrich/internal/config"
)

var (
	getIPFromRequest = func(r *http.Request) net.IP {
		hdr := r.Header.Get(config.GetIpHeader())
		if hdr != "" {
			log.Debug().Str("value", hdr).Msg("ip header found")
			parts := strings.Split(hdr, ",")
			ip := strings.TrimSpace(parts[0])
			return net.ParseIP(ip)
		}
		log.Debug().Str("value", r.RemoteAddr).Msg("ip header not found, using RemoteAddr")
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return nil
		}
		return net.ParseIP(host)
	}

	respondJSON = func(w http.ResponseWriter, body any) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(body); err != nil {
			log.Error().Err(err).Msg("failed to encode response")
		}
	}
)
