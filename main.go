package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rdwr-valentineg/geoip-enrich/internal/config"
	"github.com/rdwr-valentineg/geoip-enrich/internal/geoip"
	"github.com/rdwr-valentineg/geoip-enrich/internal/metrics"
	"github.com/rdwr-valentineg/geoip-enrich/internal/mmdb"
	"github.com/rdwr-valentineg/geoip-enrich/internal/webserver"
)

func databaseMode() mmdb.Mode {
	if config.GetLoadOnHeap() {
		return mmdb.ModeHeap
	}
	return mmdb.ModeMapped
}

func main() {
	err := config.InitConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	InitLogger(config.GetLogLevel())
	metrics.InitMetrics()

	var fetchErr error
	if config.GetMaxMindLicenseKey() != "" {
		log.Debug().Msg("Fetching MaxMind editions")
		fetcher := mmdb.NewFetcher(
			config.GetMaxMindAccountId(),
			config.GetMaxMindLicenseKey(),
			config.GetDbDir(),
			config.GetMaxMindEditions(),
			config.GetFetchTimeout(),
			config.GetFetchMaxRetries(),
			config.GetFetchBaseBackoff(),
		)
		if fetchErr = fetcher.FetchAll(); fetchErr != nil {
			log.Warn().Err(fetchErr).Msg("Edition fetch failed, serving what is on disk")
		}
	}

	registry, err := mmdb.Discover(config.GetDbDir(), databaseMode())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to scan database directory")
	}
	defer registry.Close()

	metrics.DatabasesRegistered.Set(float64(registry.Len()))
	if registry.Len() == 0 {
		if fetchErr != nil {
			log.Fatal().Err(fetchErr).Msg("No databases on disk after failed edition fetch")
		}
		log.Warn().Str("dir", config.GetDbDir()).Msg("No databases found")
	}
	log.Info().Strs("databases", registry.Names()).Msg("Databases registered")

	cache, err := geoip.NewCache(config.GetCacheSize())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build lookup cache")
	}
	resolver := geoip.NewResolver(registry, cache, config.GetDefaultDb())

	errCh := make(chan error, 1)
	s := webserver.Run(resolver, registry, errCh)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
		log.Info().Msg("Shutting down server...")
	case err := <-errCh:
		log.Error().Err(err).Msg("Server error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Srv.Shutdown(ctx); err != nil {
		log.Err(err).Msg("Shutdown failed")
	}
	log.Info().Msg("Server gracefully stopped")
}
