package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	// Postgres configuration
	DatabaseURL string

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int

	// Memcache configuration (per-domain cool-down ledger)
	MemcacheAddr string

	// Outbound proxy / anti-blocking service. The key is the one fatal
	// precondition: without it no retrieval is possible.
	ScrapeProxyURL string
	ScrapeProxyKey string

	// Geocoding service
	GeocoderURL   string
	GeocoderEmail string

	// Category classification service
	ClassifierURL string
	ClassifierKey string

	// Searcher's default reference point, used when a spec carries no
	// location override
	HomeLatitude  float64
	HomeLongitude float64

	// Pipeline tuning
	RequestDelay           time.Duration
	AggressiveDelay        time.Duration
	RunTimeout             time.Duration
	WorkerCount            int
	MaxCandidatesPerSource int
	SyntheticFallback      bool

	// Maintenance scheduler; 0 disables the internal cron
	RunIntervalHours int

	// HTTP surface
	HTTPPort string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamMaxLen, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "500"))
	requestDelayMs, _ := strconv.Atoi(getEnv("REQUEST_DELAY_MS", "1500"))
	aggressiveDelayMs, _ := strconv.Atoi(getEnv("AGGRESSIVE_DELAY_MS", "3000"))
	runTimeoutMin, _ := strconv.Atoi(getEnv("RUN_TIMEOUT_MINUTES", "10"))
	workerCount, _ := strconv.Atoi(getEnv("WORKER_COUNT", "4"))
	maxCandidates, _ := strconv.Atoi(getEnv("MAX_CANDIDATES_PER_SOURCE", "10"))
	runInterval, _ := strconv.Atoi(getEnv("RUN_INTERVAL_HOURS", "0"))
	homeLat, _ := strconv.ParseFloat(getEnv("HOME_LATITUDE", "39.7392"), 64)
	homeLon, _ := strconv.ParseFloat(getEnv("HOME_LONGITUDE", "-104.9903"), 64)

	return Config{
		DatabaseURL:            getEnv("DATABASE_URL", "postgres://localhost:5432/adscout"),
		RedisAddr:              getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:                redisDB,
		RedisStream:            getEnv("REDIS_STREAM", "listings"),
		RedisStreamMaxLength:   streamMaxLen,
		MemcacheAddr:           getEnv("MEMCACHE_ADDR", ""),
		ScrapeProxyURL:         getEnv("SCRAPE_PROXY_URL", "https://proxy.scraperapi.com"),
		ScrapeProxyKey:         getEnv("SCRAPE_PROXY_KEY", ""),
		GeocoderURL:            getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org/search"),
		GeocoderEmail:          getEnv("GEOCODER_EMAIL", ""),
		ClassifierURL:          getEnv("CLASSIFIER_URL", ""),
		ClassifierKey:          getEnv("CLASSIFIER_KEY", ""),
		HomeLatitude:           homeLat,
		HomeLongitude:          homeLon,
		RequestDelay:           time.Duration(requestDelayMs) * time.Millisecond,
		AggressiveDelay:        time.Duration(aggressiveDelayMs) * time.Millisecond,
		RunTimeout:             time.Duration(runTimeoutMin) * time.Minute,
		WorkerCount:            workerCount,
		MaxCandidatesPerSource: maxCandidates,
		SyntheticFallback:      getEnv("SYNTHETIC_FALLBACK", "false") == "true",
		RunIntervalHours:       runInterval,
		HTTPPort:               getEnv("HTTP_PORT", "8080"),
		Environment:            getEnv("ADSCOUT_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the process cannot start
// without. The proxy key is deliberately not checked here: its absence is a
// run-level failure recorded in the activity log, not a startup error.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("WORKER_COUNT must be at least 1, got %d", c.WorkerCount)
	}
	if c.MaxCandidatesPerSource < 1 {
		return fmt.Errorf("MAX_CANDIDATES_PER_SOURCE must be at least 1, got %d", c.MaxCandidatesPerSource)
	}
	if c.RequestDelay <= 0 {
		return fmt.Errorf("REQUEST_DELAY_MS must be positive")
	}
	if c.AggressiveDelay < c.RequestDelay {
		return fmt.Errorf("AGGRESSIVE_DELAY_MS must not be shorter than REQUEST_DELAY_MS")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
