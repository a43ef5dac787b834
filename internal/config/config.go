package config

import (
	"errors"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type config struct {
	DbDir             string
	DefaultDb         string
	CacheSize         uint
	LoadOnHeap        bool
	Port              uint
	IpHeader          string
	LogLevelFlag      string
	MaxMindAccountId  string
	MaxMindLicenseKey string
	MaxMindEditions   string
	FetchTimeout      time.Duration
	FetchMaxRetries   uint
	FetchBaseBackoff  time.Duration
	EnableScripting   bool
}

var Config *config

// envOr reads an environment variable with a fallback, so flag defaults
// can come from a .env file.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func InitConfig() error {
	if Config != nil {
		return nil // Already initialized
	}

	_ = godotenv.Load()

	dbDir := flag.String("db-dir", envOr("GEOIP_DB_DIR", "/mmdb"), "Directory holding MaxMind .mmdb files")
	defaultDb := flag.String("default-db", "GeoLite2-City.mmdb", "Database used when a lookup names none")
	cacheSize := flag.Uint("cache-size", 2000, "Maximum number of cached lookup records")
	loadOnHeap := flag.Bool("load-on-heap", envOr("GEOIP_LOAD_DB_ON_HEAP", "") == "true", "Read databases into memory instead of memory-mapping them")
	port := flag.Uint("port", 8080, "Port to listen on")
	ipHeader := flag.String("ip-header", "X-Forwarded-For", "Header to extract real IP")
	logLevelFlag := flag.String("log-level", "info", "Log level (none, error, info, debug)")
	maxMindAccountId := flag.String("maxmind-account-id", envOr("MAXMIND_ACCOUNT_ID", ""), "MaxMind account ID for edition downloads")
	maxMindLicenseKey := flag.String("maxmind-license-key", envOr("MAXMIND_LICENSE_KEY", ""), "MaxMind license key for edition downloads")
	maxMindEditions := flag.String("maxmind-editions", "GeoLite2-City,GeoLite2-Country,GeoLite2-ASN", "Comma-separated edition IDs to download at startup")
	fetchTimeout := flag.Duration("fetch-timeout", 30*time.Second, "Timeout for one edition download")
	fetchMaxRetries := flag.Uint("fetch-max-retries", 3, "Attempts per edition download")
	fetchBaseBackoff := flag.Duration("fetch-base-backoff", 500*time.Millisecond, "Backoff before the first download retry, doubled per attempt")
	enableScripting := flag.Bool("enable-scripting", false, "Expose the JavaScript lookup endpoint")

	flag.Parse()

	Config = &config{
		DbDir:             *dbDir,
		DefaultDb:         *defaultDb,
		CacheSize:         *cacheSize,
		LoadOnHeap:        *loadOnHeap,
		Port:              *port,
		IpHeader:          *ipHeader,
		LogLevelFlag:      *logLevelFlag,
		MaxMindAccountId:  *maxMindAccountId,
		MaxMindLicenseKey: *maxMindLicenseKey,
		MaxMindEditions:   *maxMindEditions,
		FetchTimeout:      *fetchTimeout,
		FetchMaxRetries:   *fetchMaxRetries,
		FetchBaseBackoff:  *fetchBaseBackoff,
		EnableScripting:   *enableScripting,
	}

	return Config.Validate()
}

func (c *config) Validate() error {
	if c.DbDir == "" {
		return errors.New("database directory cannot be empty")
	}
	if c.DefaultDb == "" {
		return errors.New("default database name cannot be empty")
	}
	if c.CacheSize == 0 {
		return errors.New("cache size must be greater than zero")
	}
	if c.Port <= 0 || c.Port > 65536 {
		return errors.New("invalid port value, must be between 1 and 65536")
	}
	if c.IpHeader == "" {
		return errors.New("source IP header cannot be empty")
	}
	if (c.MaxMindAccountId == "") != (c.MaxMindLicenseKey == "") {
		return errors.New("maxmind account ID and license key must be set together")
	}
	if c.MaxMindLicenseKey != "" {
		if strings.TrimSpace(c.MaxMindEditions) == "" {
			return errors.New("maxmind editions cannot be empty when a license key is set")
		}
		if c.FetchTimeout <= 0 {
			return errors.New("fetch timeout must be greater than zero")
		}
		if c.FetchMaxRetries == 0 {
			return errors.New("fetch max retries must be greater than zero")
		}
		if c.FetchBaseBackoff <= 0 {
			return errors.New("fetch base backoff must be greater than zero")
		}
	}
	return nil
}

func GetDbDir() string {
	return Config.DbDir
}

func GetDefaultDb() string {
	return Config.DefaultDb
}

func GetCacheSize() int {
	return int(Config.CacheSize)
}

func GetLoadOnHeap() bool {
	return Config.LoadOnHeap
}

func GetPort() uint {
	return Config.Port
}

func GetIpHeader() string {
	return Config.IpHeader
}

func GetLogLevel() string {
	return Config.LogLevelFlag
}

func GetMaxMindAccountId() string {
	return Config.MaxMindAccountId
}

func GetMaxMindLicenseKey() string {
	return Config.MaxMindLicenseKey
}

// GetMaxMindEditions splits the editions flag, trimming blanks.
func GetMaxMindEditions() []string {
	var editions []string
	for _, e := range strings.Split(Config.MaxMindEditions, ",") {
		if e = strings.TrimSpace(e); e != "" {
			editions = append(editions, e)
		}
	}
	return editions
}

func GetFetchTimeout() time.Duration {
	return Config.FetchTimeout
}

func GetFetchMaxRetries() int {
	return int(Config.FetchMaxRetries)
}

func GetFetchBaseBackoff() time.Duration {
	return Config.FetchBaseBackoff
}

func GetEnableScripting() bool {
	return Config.EnableScripting
}
