package health

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lockdiff/lockdiff/pkg/logger"
)

// batchSize is the maximum number of names the health API accepts per
// request.
const batchSize = 100

// Check is one named health check with its pass/fail outcome.
type Check struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
}

// Record carries everything the health API knows about one package.
// Every field beyond the name is optional; the service may know nothing
// about a package, in which case it simply omits it from the response.
// All fields are decoded here so nothing downstream has to guess at the
// response shape.
type Record struct {
	Name          string   `json:"name"`
	Score         *float64 `json:"score,omitempty"`
	Health        string   `json:"health,omitempty"`
	Checks        []Check  `json:"checks,omitempty"`
	RepositoryURL string   `json:"repository_url,omitempty"`

	LatestReleaseAt *time.Time `json:"latest_release_at,omitempty"`
	Downloads       *int64     `json:"downloads,omitempty"`
	Dependents      *int64     `json:"dependents,omitempty"`

	AvgCommitTime *time.Time `json:"avg_commit_time,omitempty"`
	PushedAt      *time.Time `json:"pushed_at,omitempty"`
	Archived      *bool      `json:"archived,omitempty"`
	Fork          *bool      `json:"fork,omitempty"`
	Forks         *int64     `json:"forks,omitempty"`
	Stars         *int64     `json:"stars,omitempty"`
	Watchers      *int64     `json:"watchers,omitempty"`

	Issues             *int64 `json:"issues,omitempty"`
	IssuesClosed       *int64 `json:"issues_closed,omitempty"`
	IssuesOpen         *int64 `json:"issues_open,omitempty"`
	PullRequests       *int64 `json:"pull_requests,omitempty"`
	PullRequestsClosed *int64 `json:"pull_requests_closed,omitempty"`
	PullRequestsOpen   *int64 `json:"pull_requests_open,omitempty"`
}

// Catalog is the sorted set of every distinct check name seen across all
// records fetched in one run. It defines the dynamic columns of a report,
// so it must be complete before any row is rendered.
type Catalog []string

// Client talks to the package health API.
type Client struct {
	BaseURL    string
	APIKey     string
	Platform   string
	HTTPClient *http.Client
}

// NewClient creates a health API client for the given platform.
func NewClient(baseURL, apiKey, platform string) *Client {
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		Platform:   platform,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type batchRequest struct {
	Platform string   `json:"platform"`
	Names    []string `json:"names"`
}

// FetchAll retrieves health records for all names, batching requests at
// the API's size limit and issuing batches concurrently. It returns only
// after every batch has completed, with the catalog already finalized;
// any failed batch fails the whole call. Names unknown to the service
// are simply missing from the returned map.
func (c *Client) FetchAll(ctx context.Context, names []string) (map[string]*Record, Catalog, error) {
	records := make(map[string]*Record, len(names))
	if len(names) == 0 {
		return records, Catalog{}, nil
	}

	var mu sync.Mutex
	checkNames := make(map[string]struct{})

	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < len(names); start += batchSize {
		batch := names[start:min(start+batchSize, len(names))]
		g.Go(func() error {
			got, err := c.fetchBatch(ctx, batch)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for i := range got {
				rec := &got[i]
				records[rec.Name] = rec
				for _, check := range rec.Checks {
					checkNames[check.Name] = struct{}{}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	catalog := make(Catalog, 0, len(checkNames))
	for name := range checkNames {
		catalog = append(catalog, name)
	}
	sort.Strings(catalog)

	logger.Debugf("health: fetched %d records, %d distinct checks", len(records), len(catalog))
	return records, catalog, nil
}

func (c *Client) fetchBatch(ctx context.Context, names []string) ([]Record, error) {
	body, err := json.Marshal(batchRequest{Platform: c.Platform, Names: names})
	if err != nil {
		return nil, fmt.Errorf("failed to encode health API request: %w", err)
	}

	endpoint := strings.TrimRight(c.BaseURL, "/") + "/api/v1/packages/batch"
	if c.APIKey != "" {
		endpoint += "?api_key=" + url.QueryEscape(c.APIKey)
	}
	logger.Debugf("health: POST %d names to %s", len(names), endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build health API request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("health API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("health API returned %s", resp.Status)
	}

	var got []Record
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		return nil, fmt.Errorf("invalid health API response: %w", err)
	}
	return got, nil
}
