package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains runtime settings for the jobcache daemon
type Config struct {
	LogLevel string
	Host     string // default 0.0.0.0
	Port     string // default PORT env or 8080
	DataDir  string // SQLite location, default ./data

	USAJobs struct {
		APIKey    string
		UserAgent string // registered contact email
		BaseURL   string
	}

	// Cache tunables. The expiry window and sweep interval are deliberately
	// configuration, not constants.
	CacheMaxAge   time.Duration
	SweepInterval time.Duration

	Probe struct {
		Addr      string
		Interval  time.Duration
		Expensive bool
	}

	SyncRemoteRPS float64
}

// Load populates config from environment variables
func Load() (Config, error) {
	cfg := Config{
		LogLevel:      "info",
		Host:          "0.0.0.0",
		Port:          "8080",
		DataDir:       "data",
		CacheMaxAge:   7 * 24 * time.Hour,
		SweepInterval: time.Hour,
		SyncRemoteRPS: 2,
	}
	cfg.Probe.Addr = "data.usajobs.gov:443"
	cfg.Probe.Interval = 15 * time.Second

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("JOBCACHE_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("JOBCACHE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	cfg.USAJobs.APIKey = os.Getenv("USAJOBS_API_KEY")
	cfg.USAJobs.UserAgent = os.Getenv("USAJOBS_USER_AGENT")
	cfg.USAJobs.BaseURL = os.Getenv("USAJOBS_BASE_URL")

	if v := os.Getenv("CACHE_MAX_AGE_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil || hours < 1 {
			return cfg, fmt.Errorf("CACHE_MAX_AGE_HOURS must be a positive integer, got %q", v)
		}
		cfg.CacheMaxAge = time.Duration(hours) * time.Hour
	}
	if v := os.Getenv("CACHE_SWEEP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("CACHE_SWEEP_INTERVAL must be a positive duration, got %q", v)
		}
		cfg.SweepInterval = d
	}

	if v := os.Getenv("PROBE_ADDR"); v != "" {
		cfg.Probe.Addr = v
	}
	if v := os.Getenv("PROBE_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("PROBE_INTERVAL must be a positive duration, got %q", v)
		}
		cfg.Probe.Interval = d
	}
	if v := os.Getenv("NETWORK_EXPENSIVE"); v != "" {
		cfg.Probe.Expensive = v == "true" || v == "1"
	}

	if v := os.Getenv("SYNC_REMOTE_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil || rps <= 0 {
			return cfg, fmt.Errorf("SYNC_REMOTE_RPS must be a positive number, got %q", v)
		}
		cfg.SyncRemoteRPS = rps
	}

	var missingVars []string

	if cfg.USAJobs.APIKey == "" {
		missingVars = append(missingVars, "USAJOBS_API_KEY")
	}
	if cfg.USAJobs.UserAgent == "" {
		missingVars = append(missingVars, "USAJOBS_USER_AGENT")
	}

	if len(missingVars) > 0 {
		return cfg, fmt.Errorf("missing required environment variables: %s", strings.Join(missingVars, ", "))
	}

	return cfg, nil
}
