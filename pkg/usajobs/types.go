package usajobs

import (
	"net/http"
)

// Config defines USAJobs API client settings
type Config struct {
	APIKey     string
	UserAgent  string // registered contact email, required by the API
	Host       string
	BaseURL    string
	HTTPClient *http.Client
	PageSize   int
}

// Client queries the USAJobs search API
type Client struct {
	apiKey     string
	userAgent  string
	host       string
	baseURL    string
	httpClient *http.Client
	pageSize   int
}

type searchResponse struct {
	LanguageCode string       `json:"LanguageCode"`
	SearchResult searchResult `json:"SearchResult"`
}

type searchResult struct {
	SearchResultCount    int                `json:"SearchResultCount"`
	SearchResultCountAll int                `json:"SearchResultCountAll"`
	SearchResultItems    []searchResultItem `json:"SearchResultItems"`
}

type searchResultItem struct {
	MatchedObjectID         string        `json:"MatchedObjectId"`
	MatchedObjectDescriptor jobDescriptor `json:"MatchedObjectDescriptor"`
}

type jobDescriptor struct {
	PositionID              string         `json:"PositionID"`
	PositionTitle           string         `json:"PositionTitle"`
	PositionURI             string         `json:"PositionURI"`
	OrganizationName        string         `json:"OrganizationName"`
	DepartmentName          string         `json:"DepartmentName"`
	PositionLocationDisplay string         `json:"PositionLocationDisplay"`
	PositionRemuneration    []remuneration `json:"PositionRemuneration"`
	PublicationStartDate    string         `json:"PublicationStartDate"`
	ApplicationCloseDate    string         `json:"ApplicationCloseDate"`
	QualificationSummary    string         `json:"QualificationSummary"`
	UserArea                userArea       `json:"UserArea"`
}

type remuneration struct {
	MinimumRange     string `json:"MinimumRange"`
	MaximumRange     string `json:"MaximumRange"`
	RateIntervalCode string `json:"RateIntervalCode"`
}

type userArea struct {
	Details userAreaDetails `json:"Details"`
}

type userAreaDetails struct {
	JobSummary       string `json:"JobSummary"`
	TeleworkEligible bool   `json:"TeleworkEligible"`
	RemoteIndicator  bool   `json:"RemoteIndicator"`
}
