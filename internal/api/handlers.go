package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fedjobfinder/jobcache/internal/app"
	"github.com/fedjobfinder/jobcache/internal/domain"
	"github.com/fedjobfinder/jobcache/internal/store"
	"github.com/fedjobfinder/jobcache/pkg/usajobs"
)

const maxCacheBodySize = 1 << 20 // 1MB

func newRouter(a *app.App) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/search", handleSearch(a))
		r.Get("/jobs", handleListCached(a))
		r.Post("/jobs", handleCacheForOffline(a))
		r.Get("/jobs/{id}", handleJobDetails(a))
		r.Post("/jobs/{id}/favorite", handleToggleFavorite(a))
		r.Get("/sync", handleSyncStatus(a))
		r.Post("/sync", handleSyncNow(a))
		r.Get("/stats", handleStats(a))
		r.Delete("/cache", handleClearCache(a))
	})

	return r
}

type jobPayload struct {
	JobID               string     `json:"job_id"`
	Title               string     `json:"title"`
	Department          string     `json:"department"`
	Location            string     `json:"location"`
	SalaryMin           int64      `json:"salary_min"`
	SalaryMax           int64      `json:"salary_max"`
	DatePosted          *time.Time `json:"date_posted,omitempty"`
	ApplicationDeadline *time.Time `json:"application_deadline,omitempty"`
	CachedAt            *time.Time `json:"cached_at,omitempty"`
	IsFavorited         bool       `json:"is_favorited"`
	IsRemoteEligible    bool       `json:"is_remote_eligible"`
	Summary             string     `json:"summary,omitempty"`
	Requirements        string     `json:"requirements,omitempty"`
	URL                 string     `json:"url,omitempty"`

	IsExpired         bool `json:"is_expired"`
	DaysUntilDeadline *int `json:"days_until_deadline,omitempty"`
}

func toPayload(rec domain.JobRecord) jobPayload {
	now := time.Now().UTC()
	p := jobPayload{
		JobID:               rec.JobID,
		Title:               rec.Title,
		Department:          rec.Department,
		Location:            rec.Location,
		SalaryMin:           rec.SalaryMin,
		SalaryMax:           rec.SalaryMax,
		DatePosted:          rec.DatePosted,
		ApplicationDeadline: rec.ApplicationDeadline,
		IsFavorited:         rec.IsFavorited,
		IsRemoteEligible:    rec.IsRemoteEligible,
		Summary:             rec.Summary,
		Requirements:        rec.Requirements,
		URL:                 rec.URL,
		IsExpired:           rec.Expired(now),
	}
	if !rec.CachedAt.IsZero() {
		cachedAt := rec.CachedAt
		p.CachedAt = &cachedAt
	}
	if days, ok := rec.DaysUntilDeadline(now); ok {
		p.DaysUntilDeadline = &days
	}
	return p
}

func fromPayload(p jobPayload) domain.JobRecord {
	return domain.JobRecord{
		JobID:               p.JobID,
		Title:               p.Title,
		Department:          p.Department,
		Location:            p.Location,
		SalaryMin:           p.SalaryMin,
		SalaryMax:           p.SalaryMax,
		DatePosted:          p.DatePosted,
		ApplicationDeadline: p.ApplicationDeadline,
		IsFavorited:         p.IsFavorited,
		IsRemoteEligible:    p.IsRemoteEligible,
		Summary:             p.Summary,
		Requirements:        p.Requirements,
		URL:                 p.URL,
	}
}

type syncStatusPayload struct {
	Offline        bool       `json:"offline"`
	Syncing        bool       `json:"syncing"`
	LastSync       *time.Time `json:"last_sync,omitempty"`
	PendingChanges bool       `json:"pending_changes"`
}

func toSyncStatusPayload(st domain.SyncStatus) syncStatusPayload {
	return syncStatusPayload{
		Offline:        st.Offline,
		Syncing:        st.Syncing,
		LastSync:       st.LastSync,
		PendingChanges: st.PendingChanges,
	}
}

type statsPayload struct {
	TotalJobs        int        `json:"total_jobs"`
	FavoritedJobs    int        `json:"favorited_jobs"`
	NonFavoritedJobs int        `json:"non_favorited_jobs"`
	OldestCachedAt   *time.Time `json:"oldest_cached_at,omitempty"`
	NewestCachedAt   *time.Time `json:"newest_cached_at,omitempty"`
	LastSync         *time.Time `json:"last_sync,omitempty"`
}

func toStatsPayload(stats domain.CacheStatistics) statsPayload {
	return statsPayload{
		TotalJobs:        stats.TotalJobs,
		FavoritedJobs:    stats.FavoritedJobs,
		NonFavoritedJobs: stats.NonFavoritedJobs,
		OldestCachedAt:   stats.OldestCachedAt,
		NewestCachedAt:   stats.NewestCachedAt,
		LastSync:         stats.LastSync,
	}
}

func handleSearch(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		criteria, err := parseCriteria(r)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error(), false)
			return
		}

		page, err := a.Search(r.Context(), criteria)
		if err != nil {
			writeError(w, err)
			return
		}

		jobs := make([]jobPayload, 0, len(page.Jobs))
		for _, rec := range page.Jobs {
			jobs = append(jobs, toPayload(rec))
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"total": page.Total,
			"jobs":  jobs,
		})
	}
}

func handleListCached(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeJSONError(w, http.StatusBadRequest, "limit must be a non-negative integer", false)
				return
			}
			limit = n
		}

		records, err := a.GetCachedJobs(r.Context(), limit)
		if err != nil {
			writeError(w, err)
			return
		}

		jobs := make([]jobPayload, 0, len(records))
		for _, rec := range records {
			jobs = append(jobs, toPayload(rec))
		}
		writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
	}
}

func handleCacheForOffline(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxCacheBodySize)
		defer r.Body.Close()

		var p jobPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body", false)
			return
		}
		if p.JobID == "" {
			writeJSONError(w, http.StatusBadRequest, "job_id is required", false)
			return
		}

		if err := a.CacheJobForOffline(r.Context(), fromPayload(p)); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleJobDetails(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := a.GetCachedJobDetails(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPayload(rec))
	}
}

func handleToggleFavorite(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		favorited, err := a.ToggleFavorite(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"favorited": favorited})
	}
}

func handleSyncStatus(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, toSyncStatusPayload(a.SyncStatus()))
	}
}

func handleSyncNow(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Sync runs in the background on the app's lifecycle, detached
		// from the request context; the trigger returns immediately with
		// the current snapshot.
		a.TriggerSync()

		writeJSON(w, http.StatusAccepted, toSyncStatusPayload(a.SyncStatus()))
	}
}

func handleStats(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := a.CacheStatistics(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toStatsPayload(stats))
	}
}

func handleClearCache(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := a.ClearCache(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toStatsPayload(stats))
	}
}

func parseCriteria(r *http.Request) (domain.SearchCriteria, error) {
	q := r.URL.Query()
	criteria := domain.SearchCriteria{
		Keyword:    q.Get("keyword"),
		Location:   q.Get("location"),
		Department: q.Get("department"),
		RemoteOnly: q.Get("remote") == "true",
	}

	var err error
	if criteria.SalaryMin, err = parseIntParam(q.Get("salary_min")); err != nil {
		return domain.SearchCriteria{}, errors.New("salary_min must be a non-negative integer")
	}
	if criteria.SalaryMax, err = parseIntParam(q.Get("salary_max")); err != nil {
		return domain.SearchCriteria{}, errors.New("salary_max must be a non-negative integer")
	}

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return domain.SearchCriteria{}, errors.New("page must be a positive integer")
		}
		criteria.Page = n
	}
	if v := q.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return domain.SearchCriteria{}, errors.New("page_size must be a positive integer")
		}
		criteria.PageSize = n
	}

	return criteria, nil
}

func parseIntParam(v string) (int64, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, errors.New("invalid value")
	}
	return n, nil
}

// writeError maps the error taxonomy onto HTTP statuses. Transient and
// rate-limit failures are flagged retryable so the UI can offer a retry
// action.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrOffline):
		writeJSONError(w, http.StatusServiceUnavailable, "offline: connect to a network and retry", true)
	case errors.Is(err, store.ErrNotFound), errors.Is(err, usajobs.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "job not found", false)
	case errors.Is(err, usajobs.ErrRateLimited):
		writeJSONError(w, http.StatusTooManyRequests, "the job service is busy, try again shortly", true)
	case errors.Is(err, usajobs.ErrTransient):
		writeJSONError(w, http.StatusBadGateway, "the job service is unreachable, try again shortly", true)
	case errors.Is(err, usajobs.ErrBadResponse):
		writeJSONError(w, http.StatusBadGateway, "the job service returned an unexpected response", false)
	default:
		writeJSONError(w, http.StatusInternalServerError, "internal error", false)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, msg string, retryable bool) {
	writeJSON(w, status, map[string]any{
		"error":     msg,
		"retryable": retryable,
	})
}
