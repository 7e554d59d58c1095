package usajobs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fedjobfinder/jobcache/internal/domain"
)

const searchFixture = `{
	"LanguageCode": "EN",
	"SearchResult": {
		"SearchResultCount": 1,
		"SearchResultCountAll": 137,
		"SearchResultItems": [
			{
				"MatchedObjectId": "719200",
				"MatchedObjectDescriptor": {
					"PositionID": "DE-12345-24-MP",
					"PositionTitle": "IT Specialist (APPSW)",
					"PositionURI": "https://www.usajobs.gov/job/719200",
					"OrganizationName": "Office of the Chief Information Officer",
					"DepartmentName": "Department of Agriculture",
					"PositionLocationDisplay": "Kansas City, Missouri",
					"PositionRemuneration": [
						{"MinimumRange": "72553.0", "MaximumRange": "94317.0", "RateIntervalCode": "PA"}
					],
					"PublicationStartDate": "2026-08-01",
					"ApplicationCloseDate": "2026-09-15",
					"QualificationSummary": "One year of specialized experience.",
					"UserArea": {
						"Details": {
							"JobSummary": "Develops and maintains applications.",
							"TeleworkEligible": true,
							"RemoteIndicator": true
						}
					}
				}
			}
		]
	}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		APIKey:    "test-key",
		UserAgent: "dev@fedjobfinder.example",
		BaseURL:   srv.URL,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, srv
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient(Config{APIKey: "k"}); err == nil {
		t.Error("expected error without user agent")
	}
	if _, err := NewClient(Config{UserAgent: "a@b.c"}); err == nil {
		t.Error("expected error without api key")
	}
}

func TestSearchMapsDescriptor(t *testing.T) {
	var gotAuth, gotAgent string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization-Key")
		gotAgent = r.Header.Get("User-Agent")

		q := r.URL.Query()
		if q.Get("Keyword") != "software" {
			t.Errorf("Keyword = %q", q.Get("Keyword"))
		}
		if q.Get("LocationName") != "Missouri" {
			t.Errorf("LocationName = %q", q.Get("LocationName"))
		}
		if q.Get("RemoteIndicator") != "True" {
			t.Errorf("RemoteIndicator = %q", q.Get("RemoteIndicator"))
		}
		if q.Get("Page") != "2" {
			t.Errorf("Page = %q", q.Get("Page"))
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchFixture))
	})

	page, err := client.Search(context.Background(), domain.SearchCriteria{
		Keyword:    "software",
		Location:   "Missouri",
		RemoteOnly: true,
		Page:       2,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if gotAuth != "test-key" {
		t.Errorf("Authorization-Key header = %q", gotAuth)
	}
	if gotAgent != "dev@fedjobfinder.example" {
		t.Errorf("User-Agent header = %q", gotAgent)
	}

	if page.Total != 137 {
		t.Errorf("Total = %d, want 137", page.Total)
	}
	if len(page.Jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(page.Jobs))
	}

	job := page.Jobs[0]
	if job.JobID != "719200" {
		t.Errorf("JobID = %q", job.JobID)
	}
	if job.Title != "IT Specialist (APPSW)" {
		t.Errorf("Title = %q", job.Title)
	}
	if job.Department != "Department of Agriculture" {
		t.Errorf("Department = %q", job.Department)
	}
	if job.Location != "Kansas City, Missouri" {
		t.Errorf("Location = %q", job.Location)
	}
	if job.SalaryMin != 72553 || job.SalaryMax != 94317 {
		t.Errorf("salary = %d..%d", job.SalaryMin, job.SalaryMax)
	}
	if !job.IsRemoteEligible {
		t.Error("remote indicator not mapped")
	}
	if job.DatePosted == nil || job.DatePosted.Format("2006-01-02") != "2026-08-01" {
		t.Errorf("DatePosted = %v", job.DatePosted)
	}
	if job.ApplicationDeadline == nil || job.ApplicationDeadline.Format("2006-01-02") != "2026-09-15" {
		t.Errorf("ApplicationDeadline = %v", job.ApplicationDeadline)
	}
}

func TestGetDetailsMatchesID(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchFixture))
	})

	rec, err := client.GetDetails(context.Background(), "719200")
	if err != nil {
		t.Fatalf("GetDetails: %v", err)
	}
	if rec.JobID != "719200" {
		t.Errorf("JobID = %q", rec.JobID)
	}
}

func TestGetDetailsMatchesPositionIDFallback(t *testing.T) {
	// Items without a MatchedObjectId map to the descriptor's PositionID,
	// so a lookup under that identifier must still resolve.
	const fixture = `{
		"SearchResult": {
			"SearchResultCount": 1,
			"SearchResultCountAll": 1,
			"SearchResultItems": [
				{
					"MatchedObjectId": "",
					"MatchedObjectDescriptor": {
						"PositionID": "DE-12345-24-MP",
						"PositionTitle": "IT Specialist (APPSW)"
					}
				}
			]
		}
	}`
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(fixture))
	})

	rec, err := client.GetDetails(context.Background(), "DE-12345-24-MP")
	if err != nil {
		t.Fatalf("GetDetails: %v", err)
	}
	if rec.JobID != "DE-12345-24-MP" {
		t.Errorf("JobID = %q", rec.JobID)
	}
}

func TestGetDetailsNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"SearchResult": {"SearchResultCount": 0, "SearchResultCountAll": 0, "SearchResultItems": []}}`))
	})

	_, err := client.GetDetails(context.Background(), "000000")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
		{"server error", http.StatusInternalServerError, ErrTransient},
		{"bad gateway", http.StatusBadGateway, ErrTransient},
		{"unauthorized", http.StatusUnauthorized, ErrBadResponse},
		{"not found", http.StatusNotFound, ErrNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			})

			_, err := client.Search(context.Background(), domain.SearchCriteria{Keyword: "x"})
			if !errors.Is(err, tc.want) {
				t.Errorf("status %d classified as %v, want %v", tc.status, err, tc.want)
			}
		})
	}
}

func TestMalformedPayload(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	})

	_, err := client.Search(context.Background(), domain.SearchCriteria{Keyword: "x"})
	if !errors.Is(err, ErrBadResponse) {
		t.Errorf("expected ErrBadResponse, got %v", err)
	}
}

func TestParseSalary(t *testing.T) {
	cases := map[string]int64{
		"72553.0":  72553,
		" 94317.5": 94317,
		"":         0,
		"n/a":      0,
		"-5":       0,
	}
	for in, want := range cases {
		if got := parseSalary(in); got != want {
			t.Errorf("parseSalary(%q) = %d, want %d", in, got, want)
		}
	}
}
