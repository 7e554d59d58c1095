// Package app is the composition root and the surface the UI layer talks
// to: interactive search/detail calls, cache reads, favoriting, and sync
// triggers, built over the store, remote client, and sync coordinator.
package app

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/fedjobfinder/jobcache/internal/connectivity"
	"github.com/fedjobfinder/jobcache/internal/domain"
	"github.com/fedjobfinder/jobcache/internal/housekeeping"
	"github.com/fedjobfinder/jobcache/internal/store"
	"github.com/fedjobfinder/jobcache/internal/syncer"
	"github.com/fedjobfinder/jobcache/pkg/logging"
)

// ErrOffline is returned by interactive remote calls attempted without a
// network path. The UI renders it as a retryable state.
var ErrOffline = errors.New("app: offline")

// JobAPI is the remote client surface the app depends on.
type JobAPI interface {
	Search(ctx context.Context, criteria domain.SearchCriteria) (domain.SearchPage, error)
	GetDetails(ctx context.Context, jobID string) (domain.JobRecord, error)
}

// App exposes the offline-capable job cache to external consumers. Built
// once at startup via InitializeApp; no global state.
type App struct {
	remote  JobAPI
	store   *store.Store
	coord   *syncer.Coordinator
	keeper  *housekeeping.Housekeeper
	monitor *connectivity.Monitor
	logger  *logging.Logger

	stopCh   chan struct{}
	stopOnce sync.Once

	// baseCtx bounds background work started outside Run, so Shutdown
	// cancels a detached sync before the store is closed.
	baseCtx    context.Context
	baseCancel context.CancelFunc
}

func newApp(
	remote JobAPI,
	st *store.Store,
	coord *syncer.Coordinator,
	keeper *housekeeping.Housekeeper,
	monitor *connectivity.Monitor,
	logger *logging.Logger,
) *App {
	baseCtx, baseCancel := context.WithCancel(context.Background())
	return &App{
		remote:     remote,
		store:      st,
		coord:      coord,
		keeper:     keeper,
		monitor:    monitor,
		logger:     logger,
		stopCh:     make(chan struct{}),
		baseCtx:    baseCtx,
		baseCancel: baseCancel,
	}
}

// Run drives the background loops (connectivity probing, sync triggers,
// housekeeping) until ctx is done or Shutdown is called.
func (a *App) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-a.stopCh:
			cancel()
		case <-runCtx.Done():
		}
	}()

	if err := a.keeper.Start(runCtx); err != nil {
		return err
	}
	defer a.keeper.Stop()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return a.monitor.Run(gctx) })
	g.Go(func() error { return a.coord.Run(gctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Shutdown stops the background loops. Implements shutdown.Stoppable.
func (a *App) Shutdown(ctx context.Context) error {
	a.stopOnce.Do(func() {
		close(a.stopCh)
		a.baseCancel()
	})
	return nil
}

// Search runs an interactive remote search. It does not cache results;
// caching a record for offline use is an explicit CacheJobForOffline call.
func (a *App) Search(ctx context.Context, criteria domain.SearchCriteria) (domain.SearchPage, error) {
	if !a.monitor.Status().Connected {
		return domain.SearchPage{}, ErrOffline
	}
	return a.remote.Search(ctx, criteria)
}

// GetCachedJobDetails serves a record cache-first. On a miss while online
// it fetches remote details, caches them for offline use, and returns
// them; remote failures surface as typed errors for the UI.
func (a *App) GetCachedJobDetails(ctx context.Context, jobID string) (domain.JobRecord, error) {
	rec, err := a.store.GetJob(ctx, jobID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.JobRecord{}, err
	}

	if !a.monitor.Status().Connected {
		return domain.JobRecord{}, ErrOffline
	}

	rec, err = a.remote.GetDetails(ctx, jobID)
	if err != nil {
		return domain.JobRecord{}, err
	}
	if err := a.coord.CacheForOffline(ctx, rec); err != nil {
		a.logger.Warn("caching fetched details failed", "job_id", jobID, "err", err)
	}
	return rec, nil
}

// GetCachedJobs lists cached records, most recently cached first.
func (a *App) GetCachedJobs(ctx context.Context, limit int) ([]domain.JobRecord, error) {
	return a.store.GetJobs(ctx, limit)
}

// CacheJobForOffline pins a record into the local cache.
func (a *App) CacheJobForOffline(ctx context.Context, rec domain.JobRecord) error {
	return a.coord.CacheForOffline(ctx, rec)
}

// ToggleFavorite flips the favorite flag on a cached record and returns
// the new state. The mutation is marked pending so the next cycle syncs it.
func (a *App) ToggleFavorite(ctx context.Context, jobID string) (bool, error) {
	rec, err := a.store.GetJob(ctx, jobID)
	if err != nil {
		return false, err
	}

	next := !rec.IsFavorited
	if err := a.store.SetFavorite(ctx, jobID, next); err != nil {
		return false, err
	}
	if err := a.coord.MarkPendingChanges(ctx); err != nil {
		a.logger.Warn("marking pending changes failed", "err", err)
	}
	return next, nil
}

// SyncNow triggers a sync cycle; a running cycle or offline state makes it
// a no-op.
func (a *App) SyncNow(ctx context.Context) error {
	return a.coord.SyncNow(ctx)
}

// TriggerSync starts a sync cycle in the background, bounded by the app
// lifecycle: Shutdown cancels it so it never outlives the store.
func (a *App) TriggerSync() {
	go func() {
		if err := a.coord.SyncNow(a.baseCtx); err != nil {
			a.logger.Warn("user-initiated sync failed", "err", err)
		}
	}()
}

// SyncStatus returns the coordinator's current snapshot.
func (a *App) SyncStatus() domain.SyncStatus {
	return a.coord.Status()
}

// SubscribeSyncStatus exposes the coordinator's change stream to the UI.
func (a *App) SubscribeSyncStatus() (<-chan domain.SyncStatus, func()) {
	return a.coord.Subscribe()
}

// CacheStatistics recomputes the derived cache snapshot.
func (a *App) CacheStatistics(ctx context.Context) (domain.CacheStatistics, error) {
	return a.keeper.Stats(ctx)
}

// ClearCache drops all non-favorited records.
func (a *App) ClearCache(ctx context.Context) (domain.CacheStatistics, error) {
	return a.keeper.ClearAll(ctx)
}
