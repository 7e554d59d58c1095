// Package syncer reconciles the local job cache against the remote job API
// under changing connectivity. One cycle refreshes every favorited record,
// evicts stale entries, and records completion; a failing item never aborts
// the rest of the batch.
package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/fedjobfinder/jobcache/internal/connectivity"
	"github.com/fedjobfinder/jobcache/internal/domain"
	"github.com/fedjobfinder/jobcache/internal/store"
	"github.com/fedjobfinder/jobcache/pkg/logging"
	"github.com/fedjobfinder/jobcache/pkg/usajobs"
)

// RemoteClient is the subset of the job API client the coordinator needs.
type RemoteClient interface {
	GetDetails(ctx context.Context, jobID string) (domain.JobRecord, error)
}

// Connectivity is the subset of the monitor the coordinator depends on.
type Connectivity interface {
	Status() connectivity.Status
	Subscribe() (<-chan connectivity.Status, func())
}

// Config holds the coordinator's tunables.
type Config struct {
	// MaxAge is the staleness window for eviction of non-favorited records.
	MaxAge time.Duration
	// RemoteRate paces detail calls during a cycle (requests per second).
	RemoteRate rate.Limit
	RemoteBurst int
}

const defaultMaxAge = 7 * 24 * time.Hour

// Coordinator owns all SyncState mutations; the mutex serializes them so
// concurrent triggers collapse into the at-most-one-cycle guard.
type Coordinator struct {
	store   *store.Store
	remote  RemoteClient
	conn    Connectivity
	logger  *logging.Logger
	limiter *rate.Limiter
	maxAge  time.Duration
	clock   func() time.Time

	mu       sync.Mutex
	syncing  bool
	lastSync *time.Time
	pending  bool
	subs     map[int]chan domain.SyncStatus
	nextSub  int
}

// NewCoordinator restores persisted sync metadata and returns a ready
// coordinator. Pending-change state therefore survives process restarts.
func NewCoordinator(
	ctx context.Context,
	st *store.Store,
	remote RemoteClient,
	conn Connectivity,
	cfg Config,
	logger *logging.Logger,
) (*Coordinator, error) {
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = defaultMaxAge
	}

	remoteRate := cfg.RemoteRate
	if remoteRate <= 0 {
		remoteRate = rate.Limit(2)
	}
	burst := cfg.RemoteBurst
	if burst <= 0 {
		burst = 1
	}

	state, err := st.LoadSyncState(ctx)
	if err != nil {
		return nil, err
	}

	return &Coordinator{
		store:    st,
		remote:   remote,
		conn:     conn,
		logger:   logger,
		limiter:  rate.NewLimiter(remoteRate, burst),
		maxAge:   maxAge,
		clock:    time.Now,
		lastSync: state.LastSync,
		pending:  state.PendingChanges,
		subs:     make(map[int]chan domain.SyncStatus),
	}, nil
}

// Run watches connectivity and triggers a sync whenever the network comes
// back while changes are pending. Blocks until ctx is done.
func (c *Coordinator) Run(ctx context.Context) error {
	events, cancel := c.conn.Subscribe()
	defer cancel()

	wasConnected := c.conn.Status().Connected

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case st := <-events:
			c.notify()

			if st.Connected && !wasConnected && c.Status().PendingChanges {
				c.logger.Info("network restored with pending changes, syncing")
				if err := c.SyncNow(ctx); err != nil {
					c.logger.Warn("connectivity-triggered sync failed", "err", err)
				}
			}
			wasConnected = st.Connected
		}
	}
}

// SyncNow runs one sync cycle. It is a no-op while another cycle is running
// or while offline. Per-item fetch failures do not prevent completion;
// cancellation or a fatal store error leaves lastSync and the pending flag
// untouched so the owed sync is retried later.
func (c *Coordinator) SyncNow(ctx context.Context) error {
	if !c.conn.Status().Connected {
		c.logger.Debug("sync skipped: offline")
		return nil
	}

	c.mu.Lock()
	if c.syncing {
		c.mu.Unlock()
		c.logger.Debug("sync skipped: cycle already running")
		return nil
	}
	c.syncing = true
	c.mu.Unlock()
	c.notify()

	completed := c.runCycle(ctx)

	now := c.clock().UTC()
	c.mu.Lock()
	c.syncing = false
	if completed {
		c.lastSync = &now
		c.pending = false
	}
	c.mu.Unlock()
	c.notify()

	if completed {
		if err := c.store.SetLastSync(ctx, now); err != nil {
			c.logger.Warn("persisting last sync time", "err", err)
		}
		if err := c.store.SetPendingChanges(ctx, false); err != nil {
			c.logger.Warn("persisting pending-changes flag", "err", err)
		}
	}

	return ctx.Err()
}

// runCycle refreshes favorites then evicts stale entries. Returns false
// when the cycle was cancelled before finishing or the favorite list could
// not be loaded at all.
func (c *Coordinator) runCycle(ctx context.Context) bool {
	cycleID := uuid.NewString()
	log := c.logger.With("cycle_id", cycleID)

	favorites, err := c.store.GetFavorites(ctx)
	if err != nil {
		// Failing to enumerate favorites is fatal to the cycle, unlike a
		// per-item fetch failure: completion bookkeeping must not run.
		log.Error("loading favorites for sync", "err", err)
		return false
	}

	log.Info("sync cycle started", "favorites", len(favorites))

	refreshed, failed := 0, 0
	for _, fav := range favorites {
		if ctx.Err() != nil {
			log.Warn("sync cycle cancelled", "refreshed", refreshed)
			return false
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return false
		}

		rec, err := c.remote.GetDetails(ctx, fav.JobID)
		if err != nil {
			failed++
			if errors.Is(err, usajobs.ErrRateLimited) {
				// Back off: leave the rest of the batch for a later cycle
				// instead of hammering the API.
				log.Warn("rate limited, skipping remaining favorites", "job_id", fav.JobID)
				break
			}
			if errors.Is(err, context.Canceled) {
				return false
			}
			log.Warn("refreshing favorite failed, continuing", "job_id", fav.JobID, "err", err)
			continue
		}

		rec.IsFavorited = true
		if err := c.store.UpsertJob(ctx, rec); err != nil {
			failed++
			log.Warn("caching refreshed favorite failed, continuing", "job_id", fav.JobID, "err", err)
			continue
		}
		refreshed++
	}

	evicted, err := c.store.DeleteExpired(ctx, c.maxAge)
	if err != nil {
		log.Error("evicting expired records", "err", err)
	}

	log.Info("sync cycle finished",
		"refreshed", refreshed, "failed", failed, "evicted", evicted)

	return ctx.Err() == nil
}

// MarkPendingChanges durably flags that a local mutation awaits a sync.
func (c *Coordinator) MarkPendingChanges(ctx context.Context) error {
	c.mu.Lock()
	c.pending = true
	c.mu.Unlock()
	c.notify()

	return c.store.SetPendingChanges(ctx, true)
}

// CacheForOffline guarantees a record the user just viewed stays available
// offline.
func (c *Coordinator) CacheForOffline(ctx context.Context, rec domain.JobRecord) error {
	if err := c.store.UpsertJob(ctx, rec); err != nil {
		return err
	}

	if n, err := c.store.CountJobs(ctx); err == nil {
		c.logger.Debug("job cached for offline use", "job_id", rec.JobID, "cached_total", n)
	}
	return nil
}

// Status returns a snapshot of the coordinator's state.
func (c *Coordinator) Status() domain.SyncStatus {
	st := c.conn.Status()

	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.SyncStatus{
		Offline:        !st.Connected,
		Syncing:        c.syncing,
		LastSync:       c.lastSync,
		PendingChanges: c.pending,
	}
}

// LastSync returns the completion time of the most recent successful cycle.
func (c *Coordinator) LastSync() *time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSync
}

// Subscribe registers a channel receiving SyncStatus snapshots after every
// state change. Latest-wins: slow consumers may miss intermediate states.
func (c *Coordinator) Subscribe() (<-chan domain.SyncStatus, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan domain.SyncStatus, 1)
	c.subs[id] = ch

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Coordinator) notify() {
	status := c.Status()

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- status:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- status:
			default:
			}
		}
	}
}
