// Package jira fetches release timelines and fixed bug tickets from a Jira REST API.
package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/huangsam/defectset/core/release"
	"github.com/huangsam/defectset/internal/contract"
	"github.com/huangsam/defectset/internal/csvio"
	"github.com/huangsam/defectset/schema"
	"golang.org/x/time/rate"
)

// fixedBugsJQL selects closed or resolved bugs whose resolution is fixed.
const fixedBugsJQL = `project = "%s" AND issueType = "Bug" AND (status = "closed" OR status = "resolved") AND resolution = "fixed"`

// Client wraps the Jira REST API with rate limiting.
type Client struct {
	baseURL     string
	user        string
	token       string
	pageSize    int
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	User       string
	Token      string
	Rate       float64 // Requests per second
	PageSize   int
	HTTPClient *http.Client
}

// NewClient creates a new Jira client with rate limiting.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = contract.DefaultJiraPage
	}
	limit := rate.Limit(opts.Rate)
	if opts.Rate <= 0 {
		limit = rate.Limit(contract.DefaultJiraRate)
	}
	return &Client{
		baseURL:     opts.BaseURL,
		user:        opts.User,
		token:       opts.Token,
		pageSize:    pageSize,
		httpClient:  httpClient,
		rateLimiter: rate.NewLimiter(limit, 1),
	}
}

type projectResponse struct {
	Versions []version `json:"versions"`
}

type version struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"releaseDate"`
}

type searchResponse struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []issue `json:"issues"`
}

type issue struct {
	Key string `json:"key"`
}

// FetchReleases returns the project versions that carry a release date, sorted by date.
// Versions sharing a release timestamp collapse to the last one listed.
func (c *Client) FetchReleases(ctx context.Context, project string) ([]schema.Release, error) {
	var resp projectResponse
	if err := c.getJSON(ctx, "/rest/api/2/project/"+url.PathEscape(project), nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch project %s: %w", project, err)
	}

	releases := make([]schema.Release, 0, len(resp.Versions))
	for _, v := range resp.Versions {
		if v.ReleaseDate == "" {
			continue
		}
		date, err := csvio.ParseReleaseDate(v.ReleaseDate)
		if err != nil {
			contract.Log.WithField("version", v.Name).WithError(err).Warn("skipping version with unreadable release date")
			continue
		}
		releases = append(releases, schema.Release{Name: v.Name, ID: v.ID, Date: date})
	}
	releases = release.DedupeByDate(releases)
	slices.SortStableFunc(releases, func(a, b schema.Release) int { return a.Date.Compare(b.Date) })
	return releases, nil
}

// FetchFixedTickets returns the keys of fixed bugs, paging until the reported total is reached.
func (c *Client) FetchFixedTickets(ctx context.Context, project string) ([]string, error) {
	jql := fmt.Sprintf(fixedBugsJQL, project)
	var keys []string

	for startAt := 0; ; {
		query := url.Values{
			"jql":        {jql},
			"fields":     {"key,resolutiondate,versions,created"},
			"startAt":    {strconv.Itoa(startAt)},
			"maxResults": {strconv.Itoa(c.pageSize)},
		}
		var resp searchResponse
		if err := c.getJSON(ctx, "/rest/api/2/search", query, &resp); err != nil {
			return nil, fmt.Errorf("search tickets at %d: %w", startAt, err)
		}
		for _, is := range resp.Issues {
			keys = append(keys, is.Key)
		}
		contract.Log.WithFields(map[string]any{"startAt": startAt, "total": resp.Total, "page": len(resp.Issues)}).Debug("fetched ticket page")

		// Servers may cap maxResults below the requested page size.
		startAt += len(resp.Issues)
		if startAt >= resp.Total || len(resp.Issues) == 0 {
			break
		}
	}
	return keys, nil
}

// getJSON performs one rate-limited GET and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.user != "" || c.token != "" {
		req.SetBasicAuth(c.user, c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
