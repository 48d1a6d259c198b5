package report

import (
	"fmt"
	"io"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lockdiff/lockdiff/pkg/health"
	"github.com/lockdiff/lockdiff/pkg/lockfile"
	"github.com/lockdiff/lockdiff/pkg/reconciler"
)

// leadingColumns precede the dynamic check columns, trailingColumns
// follow them.
var leadingColumns = []string{
	"name",
	"version_before",
	"version_after",
	"change_type",
	"semver_delta",
	"declared",
	"source_type",
	"source_url",
	"score",
	"health",
}

var trailingColumns = []string{
	"latest_release",
	"downloads",
	"dependents",
	"avg_commit_time",
	"last_push",
	"archived",
	"fork",
	"forks",
	"stars",
	"watchers",
	"issues",
	"issues_closed",
	"issues_open",
	"pull_requests",
	"pull_requests_closed",
	"pull_requests_open",
}

// Build assembles the header plus one rendered row per record. The
// catalog must be finalized before Build is called: it decides both the
// dynamic header columns and the shape of every row's check fields.
//
// Data rows are ordered by a stable lexicographic comparison over the
// full rendered row, not just the name column, so two rows that agree on
// their leading columns are tied apart by later column content.
func Build(records []reconciler.Record, catalog health.Catalog) [][]string {
	width := len(leadingColumns) + len(catalog) + len(trailingColumns)

	header := make([]string, 0, width)
	header = append(header, leadingColumns...)
	header = append(header, catalog...)
	header = append(header, trailingColumns...)

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, renderRow(rec, catalog))
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return slices.Compare(rows[i], rows[j]) < 0
	})

	out := make([][]string, 0, len(rows)+1)
	out = append(out, header)
	out = append(out, rows...)
	return out
}

// WriteTSV serializes rows as tab-separated lines. Field values are
// assumed not to contain tabs or newlines; nothing is escaped.
func WriteTSV(w io.Writer, rows [][]string) error {
	for _, row := range rows {
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	return nil
}

// renderRow renders one record in header column order. Absent optional
// values become empty fields, never placeholders.
func renderRow(rec reconciler.Record, catalog health.Catalog) []string {
	width := len(leadingColumns) + len(catalog) + len(trailingColumns)
	row := make([]string, 0, width)
	row = append(row,
		rec.Name,
		specVersion(rec.Before),
		specVersion(rec.After),
		string(rec.Change),
		string(rec.Delta),
		strconv.FormatBool(rec.Declared),
		rec.SourceType,
		rec.SourceURL,
	)

	meta := rec.Metadata
	if meta == nil {
		for len(row) < width {
			row = append(row, "")
		}
		return row
	}

	row = append(row, floatField(meta.Score), meta.Health)

	checks := make(map[string]bool, len(meta.Checks))
	for _, check := range meta.Checks {
		checks[check.Name] = check.Passed
	}
	for _, name := range catalog {
		if passed, ok := checks[name]; ok {
			row = append(row, strconv.FormatBool(passed))
		} else {
			row = append(row, "")
		}
	}

	row = append(row,
		timeField(meta.LatestReleaseAt),
		intField(meta.Downloads),
		intField(meta.Dependents),
		timeField(meta.AvgCommitTime),
		timeField(meta.PushedAt),
		boolField(meta.Archived),
		boolField(meta.Fork),
		intField(meta.Forks),
		intField(meta.Stars),
		intField(meta.Watchers),
		intField(meta.Issues),
		intField(meta.IssuesClosed),
		intField(meta.IssuesOpen),
		intField(meta.PullRequests),
		intField(meta.PullRequestsClosed),
		intField(meta.PullRequestsOpen),
	)
	return row
}

func specVersion(spec *lockfile.Spec) string {
	if spec == nil {
		return ""
	}
	return spec.Version
}

func intField(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func boolField(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}

func floatField(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func timeField(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.Format(time.RFC3339)
}
