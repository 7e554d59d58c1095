package housekeeping

import (
	"context"
	"testing"
	"time"

	"github.com/fedjobfinder/jobcache/internal/domain"
	"github.com/fedjobfinder/jobcache/internal/store"
	"github.com/fedjobfinder/jobcache/pkg/logging"
)

type fixedSyncSource struct {
	t *time.Time
}

func (f fixedSyncSource) LastSync() *time.Time { return f.t }

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("store.Open(:memory:): %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seed(t *testing.T, s *store.Store, id string, favorited bool) {
	t.Helper()
	ctx := context.Background()
	if err := s.UpsertJob(ctx, domain.JobRecord{JobID: id, Title: "t"}); err != nil {
		t.Fatalf("upsert %s: %v", id, err)
	}
	if favorited {
		if err := s.SetFavorite(ctx, id, true); err != nil {
			t.Fatalf("favorite %s: %v", id, err)
		}
	}
}

func TestStatsSnapshot(t *testing.T) {
	s := openTestStore(t)
	syncedAt := time.Now().UTC()
	h := New(s, fixedSyncSource{&syncedAt}, 0, 0, logging.NewNop())

	seed(t, s, "a", true)
	seed(t, s, "b", false)
	seed(t, s, "c", false)

	stats, err := h.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	if stats.TotalJobs != 3 || stats.FavoritedJobs != 1 || stats.NonFavoritedJobs != 2 {
		t.Errorf("counts wrong: %+v", stats)
	}
	if stats.LastSync == nil || !stats.LastSync.Equal(syncedAt) {
		t.Errorf("last sync not carried into snapshot: %v", stats.LastSync)
	}
}

func TestClearAllKeepsFavorites(t *testing.T) {
	s := openTestStore(t)
	h := New(s, fixedSyncSource{}, 0, 0, logging.NewNop())

	seed(t, s, "fav", true)
	seed(t, s, "plain", false)

	stats, err := h.ClearAll(context.Background())
	if err != nil {
		t.Fatalf("ClearAll: %v", err)
	}

	if stats.TotalJobs != 1 || stats.FavoritedJobs != 1 || stats.NonFavoritedJobs != 0 {
		t.Errorf("unexpected counts after clear: %+v", stats)
	}
}

func TestStartRunsImmediateSweep(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seed(t, s, "stale", false)
	time.Sleep(5 * time.Millisecond)

	h := New(s, fixedSyncSource{}, time.Millisecond, time.Hour, logging.NewNop())
	if err := h.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer h.Stop()

	deadline := time.After(2 * time.Second)
	for {
		n, err := s.CountJobs(ctx)
		if err != nil {
			t.Fatalf("CountJobs: %v", err)
		}
		if n == 0 {
			return
		}
		select {
		case <-deadline:
			t.Fatal("startup sweep did not evict the stale record")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
