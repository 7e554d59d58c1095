package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// sync_state keys. Kept as a key-value table so new coordinator metadata
// doesn't need schema migrations.
const (
	keyLastSync       = "last_sync_at"
	keyPendingChanges = "has_pending_changes"
)

// SyncState is the persisted slice of the coordinator's metadata; it must
// survive process restarts so a pending sync is still owed after relaunch.
type SyncState struct {
	LastSync       *time.Time
	PendingChanges bool
}

// LoadSyncState reads persisted sync metadata. Missing keys read as zero
// values, so a fresh database yields an empty state rather than an error.
func (s *Store) LoadSyncState(ctx context.Context) (SyncState, error) {
	var state SyncState

	if v, err := s.getStateKey(ctx, keyLastSync); err != nil {
		return SyncState{}, err
	} else if v != "" {
		ts, err := time.Parse(timeLayout, v)
		if err != nil {
			return SyncState{}, fmt.Errorf("store: parsing %s: %w", keyLastSync, err)
		}
		state.LastSync = &ts
	}

	if v, err := s.getStateKey(ctx, keyPendingChanges); err != nil {
		return SyncState{}, err
	} else {
		state.PendingChanges = v == "true"
	}

	return state, nil
}

// SetLastSync durably records the completion time of a sync cycle.
func (s *Store) SetLastSync(ctx context.Context, t time.Time) error {
	return s.setStateKey(ctx, keyLastSync, t.UTC().Format(timeLayout))
}

// SetPendingChanges durably records whether local mutations await a sync.
func (s *Store) SetPendingChanges(ctx context.Context, pending bool) error {
	v := "false"
	if pending {
		v = "true"
	}
	return s.setStateKey(ctx, keyPendingChanges, v)
}

func (s *Store) getStateKey(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM sync_state WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store: reading sync state %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) setStateKey(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, s.clock().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("store: writing sync state %s: %w", key, err)
	}
	return nil
}
