package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fedjobfinder/jobcache/internal/domain"
)

const jobColumns = `job_id, title, department, location, salary_min, salary_max,
	date_posted, application_deadline, cached_at, is_favorited, is_remote_eligible,
	summary, requirements, url`

// UpsertJob inserts or overwrites the record keyed by JobID, stamping
// CachedAt. A favorite flag already set locally is never cleared by a
// refresh; unfavoriting goes through SetFavorite.
func (s *Store) UpsertJob(ctx context.Context, rec domain.JobRecord) error {
	if rec.JobID == "" {
		return fmt.Errorf("store: job id is required")
	}

	now := s.clock().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET
			title = excluded.title,
			department = excluded.department,
			location = excluded.location,
			salary_min = excluded.salary_min,
			salary_max = excluded.salary_max,
			date_posted = excluded.date_posted,
			application_deadline = excluded.application_deadline,
			cached_at = excluded.cached_at,
			is_favorited = MAX(jobs.is_favorited, excluded.is_favorited),
			is_remote_eligible = excluded.is_remote_eligible,
			summary = excluded.summary,
			requirements = excluded.requirements,
			url = excluded.url`,
		rec.JobID, rec.Title, rec.Department, rec.Location,
		rec.SalaryMin, rec.SalaryMax,
		formatNullableTime(rec.DatePosted), formatNullableTime(rec.ApplicationDeadline),
		now.Format(timeLayout),
		boolToInt(rec.IsFavorited), boolToInt(rec.IsRemoteEligible),
		rec.Summary, rec.Requirements, rec.URL,
	)
	if err != nil {
		return fmt.Errorf("store: upserting job %s: %w", rec.JobID, err)
	}
	return nil
}

// GetJob is a point lookup by job id. Returns ErrNotFound when absent.
func (s *Store) GetJob(ctx context.Context, jobID string) (domain.JobRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE job_id = ?`, jobID)

	rec, err := scanJob(row)
	if err == sql.ErrNoRows {
		return domain.JobRecord{}, ErrNotFound
	}
	if err != nil {
		return domain.JobRecord{}, fmt.Errorf("store: getting job %s: %w", jobID, err)
	}
	return rec, nil
}

// GetFavorites returns all favorited records, most recently cached first.
func (s *Store) GetFavorites(ctx context.Context) ([]domain.JobRecord, error) {
	return s.queryJobs(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE is_favorited = 1 ORDER BY cached_at DESC`)
}

// GetJobs returns cached records ordered by cached_at descending. A limit
// of zero or less means no cap.
func (s *Store) GetJobs(ctx context.Context, limit int) ([]domain.JobRecord, error) {
	if limit > 0 {
		return s.queryJobs(ctx,
			`SELECT `+jobColumns+` FROM jobs ORDER BY cached_at DESC LIMIT ?`, limit)
	}
	return s.queryJobs(ctx,
		`SELECT `+jobColumns+` FROM jobs ORDER BY cached_at DESC`)
}

// SetFavorite flips the favorite flag and restamps cached_at. Returns
// ErrNotFound when no record exists for jobID.
func (s *Store) SetFavorite(ctx context.Context, jobID string, favorited bool) error {
	now := s.clock().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET is_favorited = ?, cached_at = ? WHERE job_id = ?`,
		boolToInt(favorited), now.Format(timeLayout), jobID)
	if err != nil {
		return fmt.Errorf("store: setting favorite on %s: %w", jobID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: setting favorite on %s: %w", jobID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpired evicts every non-favorited record cached earlier than
// now-maxAge. Favorited records are never evicted by age. Returns the
// number of rows removed.
func (s *Store) DeleteExpired(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := s.clock().UTC().Add(-maxAge)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM jobs WHERE is_favorited = 0 AND cached_at < ?`,
		cutoff.Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("store: deleting expired jobs: %w", err)
	}
	return res.RowsAffected()
}

// ClearExceptFavorites deletes every non-favorited record unconditionally.
func (s *Store) ClearExceptFavorites(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE is_favorited = 0`)
	if err != nil {
		return 0, fmt.Errorf("store: clearing cache: %w", err)
	}
	return res.RowsAffected()
}

// CountJobs returns the total number of cached records.
func (s *Store) CountJobs(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: counting jobs: %w", err)
	}
	return n, nil
}

// Statistics computes the cache-wide aggregate snapshot in one pass.
func (s *Store) Statistics(ctx context.Context) (domain.CacheStatistics, error) {
	var (
		stats          domain.CacheStatistics
		oldest, newest sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(is_favorited), 0),
		       MIN(cached_at),
		       MAX(cached_at)
		FROM jobs`).Scan(&stats.TotalJobs, &stats.FavoritedJobs, &oldest, &newest)
	if err != nil {
		return domain.CacheStatistics{}, fmt.Errorf("store: computing statistics: %w", err)
	}
	stats.NonFavoritedJobs = stats.TotalJobs - stats.FavoritedJobs

	if oldest.Valid {
		if ts, err := time.Parse(timeLayout, oldest.String); err == nil {
			stats.OldestCachedAt = &ts
		}
	}
	if newest.Valid {
		if ts, err := time.Parse(timeLayout, newest.String); err == nil {
			stats.NewestCachedAt = &ts
		}
	}

	return stats, nil
}

func (s *Store) queryJobs(ctx context.Context, query string, args ...any) ([]domain.JobRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: querying jobs: %w", err)
	}
	defer rows.Close()

	var results []domain.JobRecord
	for rows.Next() {
		rec, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scanning job row: %w", err)
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (domain.JobRecord, error) {
	var (
		rec                  domain.JobRecord
		datePosted, deadline sql.NullString
		cachedAt             string
		favorited, remote    int
	)
	err := row.Scan(
		&rec.JobID, &rec.Title, &rec.Department, &rec.Location,
		&rec.SalaryMin, &rec.SalaryMax,
		&datePosted, &deadline, &cachedAt, &favorited, &remote,
		&rec.Summary, &rec.Requirements, &rec.URL,
	)
	if err != nil {
		return domain.JobRecord{}, err
	}

	ts, err := time.Parse(timeLayout, cachedAt)
	if err != nil {
		return domain.JobRecord{}, fmt.Errorf("parsing cached_at: %w", err)
	}
	rec.CachedAt = ts

	rec.DatePosted = parseNullableTime(datePosted)
	rec.ApplicationDeadline = parseNullableTime(deadline)
	rec.IsFavorited = favorited != 0
	rec.IsRemoteEligible = remote != 0

	return rec, nil
}

func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

func parseNullableTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	ts, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return nil
	}
	return &ts
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
