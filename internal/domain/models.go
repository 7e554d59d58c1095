package domain

import (
	"time"
)

// JobRecord is the canonical cached representation of one job posting.
// JobID is assigned by the remote API and immutable; everything else is
// refreshed on every cache write.
type JobRecord struct {
	JobID      string
	Title      string
	Department string
	Location   string

	// SalaryMin/SalaryMax are annual dollars; 0 means unknown.
	SalaryMin int64
	SalaryMax int64

	DatePosted          *time.Time
	ApplicationDeadline *time.Time
	CachedAt            time.Time

	IsFavorited      bool
	IsRemoteEligible bool

	Summary      string
	Requirements string
	URL          string
}

// Expired reports whether the posting's application deadline has passed.
// Records without a deadline never expire.
func (r JobRecord) Expired(now time.Time) bool {
	return r.ApplicationDeadline != nil && r.ApplicationDeadline.Before(now)
}

// DaysUntilDeadline returns the whole days remaining until the application
// deadline. The second return is false when the record has no deadline.
func (r JobRecord) DaysUntilDeadline(now time.Time) (int, bool) {
	if r.ApplicationDeadline == nil {
		return 0, false
	}
	return int(r.ApplicationDeadline.Sub(now).Hours() / 24), true
}

// SearchCriteria describe allowed remote job query filters
type SearchCriteria struct {
	Keyword    string
	Location   string
	Department string
	SalaryMin  int64
	SalaryMax  int64
	RemoteOnly bool
	Page       int
	PageSize   int
}

// SearchPage is one page of remote search results
type SearchPage struct {
	Total int
	Jobs  []JobRecord
}

// SyncStatus is a point-in-time snapshot of the sync coordinator's state.
type SyncStatus struct {
	Offline        bool
	Syncing        bool
	LastSync       *time.Time
	PendingChanges bool
}

// CacheStatistics is a derived snapshot computed from the local store on
// demand; it is never persisted.
type CacheStatistics struct {
	TotalJobs        int
	FavoritedJobs    int
	NonFavoritedJobs int
	OldestCachedAt   *time.Time
	NewestCachedAt   *time.Time
	LastSync         *time.Time
}
