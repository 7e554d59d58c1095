// Package housekeeping owns read-side cache aggregation and the periodic
// eviction of expired non-favorited records.
package housekeeping

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fedjobfinder/jobcache/internal/domain"
	"github.com/fedjobfinder/jobcache/internal/store"
	"github.com/fedjobfinder/jobcache/pkg/logging"
)

// LastSyncSource reports when the last successful sync cycle completed.
type LastSyncSource interface {
	LastSync() *time.Time
}

// Housekeeper computes cache statistics on demand and evicts stale entries
// on a cron interval. It holds no state of its own.
type Housekeeper struct {
	store    *store.Store
	syncSrc  LastSyncSource
	logger   *logging.Logger
	maxAge   time.Duration
	interval time.Duration

	cron *cron.Cron
}

// New wires a Housekeeper. maxAge governs eviction eligibility, interval
// how often the eviction job fires.
func New(st *store.Store, syncSrc LastSyncSource, maxAge, interval time.Duration, logger *logging.Logger) *Housekeeper {
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &Housekeeper{
		store:    st,
		syncSrc:  syncSrc,
		logger:   logger,
		maxAge:   maxAge,
		interval: interval,
		cron:     cron.New(),
	}
}

// Start registers the eviction job and starts the scheduler. An immediate
// pass runs first so a long-stopped process cleans up without waiting for
// the first tick.
func (h *Housekeeper) Start(ctx context.Context) error {
	spec := fmt.Sprintf("@every %s", h.interval)
	_, err := h.cron.AddFunc(spec, func() {
		h.evict(ctx)
	})
	if err != nil {
		return fmt.Errorf("housekeeping: cron.AddFunc: %w", err)
	}

	h.cron.Start()
	h.logger.Info("housekeeping scheduler started", "spec", spec, "max_age", h.maxAge)

	go h.evict(ctx)

	return nil
}

// Stop shuts down the scheduler, waiting for a running job to complete.
func (h *Housekeeper) Stop() {
	<-h.cron.Stop().Done()
	h.logger.Info("housekeeping scheduler stopped")
}

// Stats returns the derived cache snapshot; it is recomputed on every call.
func (h *Housekeeper) Stats(ctx context.Context) (domain.CacheStatistics, error) {
	stats, err := h.store.Statistics(ctx)
	if err != nil {
		return domain.CacheStatistics{}, err
	}
	stats.LastSync = h.syncSrc.LastSync()
	return stats, nil
}

// ClearAll drops every non-favorited record and returns the refreshed
// statistics snapshot.
func (h *Housekeeper) ClearAll(ctx context.Context) (domain.CacheStatistics, error) {
	removed, err := h.store.ClearExceptFavorites(ctx)
	if err != nil {
		return domain.CacheStatistics{}, err
	}
	h.logger.Info("cache cleared", "removed", removed)

	return h.Stats(ctx)
}

func (h *Housekeeper) evict(ctx context.Context) {
	removed, err := h.store.DeleteExpired(ctx, h.maxAge)
	if err != nil {
		h.logger.Error("expired-record eviction failed", "err", err)
		return
	}
	if removed > 0 {
		h.logger.Info("expired records evicted", "removed", removed)
	}
}
