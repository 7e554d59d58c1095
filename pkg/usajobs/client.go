package usajobs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fedjobfinder/jobcache/internal/domain"
)

const (
	defaultBaseURL  = "https://data.usajobs.gov"
	defaultHost     = "data.usajobs.gov"
	defaultPageSize = 25
	defaultTimeout  = 15 * time.Second
)

// NewClient instantiates a USAJobs API client
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" || cfg.UserAgent == "" {
		return nil, fmt.Errorf("usajobs: api key and user agent are required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	host := cfg.Host
	if host == "" {
		host = defaultHost
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	return &Client{
		apiKey:     cfg.APIKey,
		userAgent:  cfg.UserAgent,
		host:       host,
		baseURL:    baseURL,
		httpClient: httpClient,
		pageSize:   pageSize,
	}, nil
}

// Search queries the paginated search endpoint with the given criteria.
// Every call is independent and safe to retry.
func (c *Client) Search(ctx context.Context, criteria domain.SearchCriteria) (domain.SearchPage, error) {
	if c == nil {
		return domain.SearchPage{}, fmt.Errorf("usajobs: client is nil")
	}

	payload, err := c.doSearch(ctx, c.buildSearchQuery(criteria))
	if err != nil {
		return domain.SearchPage{}, err
	}

	jobs := make([]domain.JobRecord, 0, len(payload.SearchResult.SearchResultItems))
	for _, item := range payload.SearchResult.SearchResultItems {
		jobs = append(jobs, mapDescriptor(item))
	}

	return domain.SearchPage{
		Total: payload.SearchResult.SearchResultCountAll,
		Jobs:  jobs,
	}, nil
}

// GetDetails looks up a single job by its identifier. Returns ErrNotFound
// when the API has no matching posting.
func (c *Client) GetDetails(ctx context.Context, jobID string) (domain.JobRecord, error) {
	if c == nil {
		return domain.JobRecord{}, fmt.Errorf("usajobs: client is nil")
	}
	if jobID == "" {
		return domain.JobRecord{}, fmt.Errorf("usajobs: job id is required")
	}

	values := url.Values{}
	values.Set("Keyword", jobID)
	values.Set("ResultsPerPage", "5")

	payload, err := c.doSearch(ctx, values)
	if err != nil {
		return domain.JobRecord{}, err
	}

	for _, item := range payload.SearchResult.SearchResultItems {
		// Match either identifier: mapDescriptor falls back to PositionID
		// when MatchedObjectId is absent, and records cached under the
		// fallback must stay refreshable.
		if item.MatchedObjectID == jobID || item.MatchedObjectDescriptor.PositionID == jobID {
			return mapDescriptor(item), nil
		}
	}

	return domain.JobRecord{}, fmt.Errorf("%w: %s", ErrNotFound, jobID)
}

func (c *Client) doSearch(ctx context.Context, values url.Values) (searchResponse, error) {
	u, err := url.Parse(c.baseURL + "/api/search")
	if err != nil {
		return searchResponse{}, fmt.Errorf("usajobs: parse base url: %w", err)
	}
	u.RawQuery = values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return searchResponse{}, fmt.Errorf("usajobs: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Host", c.host)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Authorization-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return searchResponse{}, classifyTransport(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return searchResponse{}, classifyStatus(resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return searchResponse{}, fmt.Errorf("%w: decode: %v", ErrBadResponse, err)
	}

	return payload, nil
}

func (c *Client) buildSearchQuery(criteria domain.SearchCriteria) url.Values {
	values := url.Values{}

	if criteria.Keyword != "" {
		values.Set("Keyword", criteria.Keyword)
	}
	if criteria.Location != "" {
		values.Set("LocationName", criteria.Location)
	}
	if criteria.Department != "" {
		values.Set("Organization", criteria.Department)
	}
	if criteria.SalaryMin > 0 {
		values.Set("RemunerationMinimumAmount", strconv.FormatInt(criteria.SalaryMin, 10))
	}
	if criteria.SalaryMax > 0 {
		values.Set("RemunerationMaximumAmount", strconv.FormatInt(criteria.SalaryMax, 10))
	}
	if criteria.RemoteOnly {
		values.Set("RemoteIndicator", "True")
	}

	pageSize := criteria.PageSize
	if pageSize <= 0 {
		pageSize = c.pageSize
	}
	values.Set("ResultsPerPage", strconv.Itoa(pageSize))

	page := criteria.Page
	if page <= 0 {
		page = 1
	}
	values.Set("Page", strconv.Itoa(page))

	return values
}

func mapDescriptor(item searchResultItem) domain.JobRecord {
	d := item.MatchedObjectDescriptor

	rec := domain.JobRecord{
		JobID:            item.MatchedObjectID,
		Title:            d.PositionTitle,
		Department:       d.DepartmentName,
		Location:         d.PositionLocationDisplay,
		URL:              d.PositionURI,
		Summary:          d.UserArea.Details.JobSummary,
		Requirements:     d.QualificationSummary,
		IsRemoteEligible: d.UserArea.Details.RemoteIndicator,
		CachedAt:         time.Now().UTC(),
	}

	if rec.JobID == "" {
		rec.JobID = d.PositionID
	}
	if rec.Department == "" {
		rec.Department = d.OrganizationName
	}

	if len(d.PositionRemuneration) > 0 {
		rec.SalaryMin = parseSalary(d.PositionRemuneration[0].MinimumRange)
		rec.SalaryMax = parseSalary(d.PositionRemuneration[0].MaximumRange)
	}

	if ts, ok := parseDate(d.PublicationStartDate); ok {
		rec.DatePosted = &ts
	}
	if ts, ok := parseDate(d.ApplicationCloseDate); ok {
		rec.ApplicationDeadline = &ts
	}

	return rec
}

// parseSalary accepts the API's decimal strings ("72553.0") and truncates
// to whole dollars. Unparseable or negative values read as unknown (0).
func parseSalary(s string) int64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 {
		return 0
	}
	return int64(f)
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.9990",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
