package app

import (
	"golang.org/x/time/rate"

	"github.com/fedjobfinder/jobcache/internal/config"
	"github.com/fedjobfinder/jobcache/internal/connectivity"
	"github.com/fedjobfinder/jobcache/internal/housekeeping"
	"github.com/fedjobfinder/jobcache/internal/store"
	"github.com/fedjobfinder/jobcache/internal/syncer"
	"github.com/fedjobfinder/jobcache/pkg/logging"
	"github.com/fedjobfinder/jobcache/pkg/usajobs"
)

// provideStore opens the local database; the cleanup closes it.
func provideStore(cfg config.Config) (*store.Store, func(), error) {
	st, err := store.Open(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	return st, func() { _ = st.Close() }, nil
}

// provideUSAJobsConfig extracts remote client config from main config
func provideUSAJobsConfig(cfg config.Config) usajobs.Config {
	return usajobs.Config{
		APIKey:    cfg.USAJobs.APIKey,
		UserAgent: cfg.USAJobs.UserAgent,
		BaseURL:   cfg.USAJobs.BaseURL,
	}
}

// provideMonitor builds the connectivity monitor from probe settings
func provideMonitor(cfg config.Config, logger *logging.Logger) *connectivity.Monitor {
	prober := connectivity.DialProber{Addr: cfg.Probe.Addr}
	return connectivity.NewMonitor(prober, cfg.Probe.Interval, cfg.Probe.Expensive, logger)
}

// provideSyncerConfig extracts sync tunables from main config
func provideSyncerConfig(cfg config.Config) syncer.Config {
	return syncer.Config{
		MaxAge:     cfg.CacheMaxAge,
		RemoteRate: rate.Limit(cfg.SyncRemoteRPS),
	}
}

// provideHousekeeper builds the stats/eviction component
func provideHousekeeper(
	st *store.Store,
	syncSrc housekeeping.LastSyncSource,
	cfg config.Config,
	logger *logging.Logger,
) *housekeeping.Housekeeper {
	return housekeeping.New(st, syncSrc, cfg.CacheMaxAge, cfg.SweepInterval, logger)
}
