package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/lockdiff/lockdiff/pkg/health"
	"github.com/lockdiff/lockdiff/pkg/reconciler"
)

// jsonRecord is one comparison record with named fields instead of
// positional columns, carrying the same field set as the TSV report.
// Records keep the reconciler's name ordering.
type jsonRecord struct {
	Name          string `json:"name"`
	VersionBefore string `json:"version_before,omitempty"`
	VersionAfter  string `json:"version_after,omitempty"`
	ChangeType    string `json:"change_type"`
	SemverDelta   string `json:"semver_delta,omitempty"`
	Declared      bool   `json:"declared"`
	SourceType    string `json:"source_type,omitempty"`
	SourceURL     string `json:"source_url,omitempty"`

	Score  *float64        `json:"score,omitempty"`
	Health string          `json:"health,omitempty"`
	Checks map[string]bool `json:"checks,omitempty"`

	LatestRelease *time.Time `json:"latest_release,omitempty"`
	Downloads     *int64     `json:"downloads,omitempty"`
	Dependents    *int64     `json:"dependents,omitempty"`
	AvgCommitTime *time.Time `json:"avg_commit_time,omitempty"`
	LastPush      *time.Time `json:"last_push,omitempty"`
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

// WriteJSON renders the records as an indented JSON array. The checks
// object carries only the catalog flags a record actually reports;
// encoding/json emits map keys sorted, which is the catalog's order.
func WriteJSON(w io.Writer, records []reconciler.Record, catalog health.Catalog) error {
	out := make([]jsonRecord, 0, len(records))
	for _, rec := range records {
		jr := jsonRecord{
			Name:          rec.Name,
			VersionBefore: specVersion(rec.Before),
			VersionAfter:  specVersion(rec.After),
			ChangeType:    string(rec.Change),
			SemverDelta:   string(rec.Delta),
			Declared:      rec.Declared,
			SourceType:    rec.SourceType,
			SourceURL:     rec.SourceURL,
		}
		if meta := rec.Metadata; meta != nil {
			jr.Score = meta.Score
			jr.Health = meta.Health

			reported := make(map[string]bool, len(meta.Checks))
			for _, check := range meta.Checks {
				reported[check.Name] = check.Passed
			}
			checks := make(map[string]bool, len(catalog))
			for _, name := range catalog {
				if passed, ok := reported[name]; ok {
					checks[name] = passed
				}
			}
			if len(checks) > 0 {
				jr.Checks = checks
			}

			jr.LatestRelease = meta.LatestReleaseAt
			jr.Downloads = meta.Downloads
			jr.Dependents = meta.Dependents
			jr.AvgCommitTime = meta.AvgCommitTime
			jr.LastPush = meta.PushedAt
			jr.Archived = meta.Archived
			jr.Fork = meta.Fork
			jr.Forks = meta.Forks
			jr.Stars = meta.Stars
			jr.Watchers = meta.Watchers
			jr.Issues = meta.Issues
			jr.IssuesClosed = meta.IssuesClosed
			jr.IssuesOpen = meta.IssuesOpen
			jr.PullRequests = meta.PullRequests
			jr.PullRequestsClosed = meta.PullRequestsClosed
			jr.PullRequestsOpen = meta.PullRequestsOpen
		}
		out = append(out, jr)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report to JSON: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
