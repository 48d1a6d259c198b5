package reconciler

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/lockdiff/lockdiff/pkg/health"
	"github.com/lockdiff/lockdiff/pkg/lockfile"
)

// ChangeType classifies what happened to a gem between two snapshots.
type ChangeType string

const (
	ChangeAdded     ChangeType = "added"
	ChangeRemoved   ChangeType = "removed"
	ChangeUpdated   ChangeType = "updated"
	ChangeUnchanged ChangeType = "unchanged"
)

// Delta is the coarse magnitude of a version change: which numeric
// component (major, minor, patch) first differs, and in which direction.
// DeltaRest covers every textual change the component comparison cannot
// attribute, e.g. pre-release suffix churn or short version strings.
type Delta string

const (
	DeltaNone      Delta = ""
	DeltaMajorUp   Delta = "major+"
	DeltaMajorDown Delta = "major-"
	DeltaMinorUp   Delta = "minor+"
	DeltaMinorDown Delta = "minor-"
	DeltaPatchUp   Delta = "patch+"
	DeltaPatchDown Delta = "patch-"
	DeltaRest      Delta = "rest"
)

// Level maps a delta to the update level used by severity configuration:
// major, minor, patch, or empty when no level applies.
func (d Delta) Level() string {
	switch d {
	case DeltaMajorUp, DeltaMajorDown:
		return "major"
	case DeltaMinorUp, DeltaMinorDown:
		return "minor"
	case DeltaPatchUp, DeltaPatchDown:
		return "patch"
	default:
		return ""
	}
}

// Record is the reconciled before/after state of one gem. It is built
// once per name per run and never mutated afterwards.
type Record struct {
	Name       string
	Before     *lockfile.Spec
	After      *lockfile.Spec
	Change     ChangeType
	Delta      Delta
	Declared   bool
	SourceType string
	SourceURL  string
	Metadata   *health.Record
}

// sourceRules classifies a spec's source descriptor. Evaluated in order,
// first match wins.
var sourceRules = []struct {
	pattern *regexp.Regexp
	label   string
}{
	{regexp.MustCompile(`locally installed`), "gem"},
	{regexp.MustCompile(`github\.com`), "github"},
	{regexp.MustCompile(`source at `), "subfolder"},
}

// Reconcile aligns two snapshots by gem name and produces one Record per
// name in the union of both, ordered lexicographically. Missing metadata
// for a name is never an error; the record just carries no metadata.
func Reconcile(before, after *lockfile.Snapshot, metadata map[string]*health.Record) []Record {
	names := UnionNames(before, after)
	records := make([]Record, 0, len(names))
	for _, name := range names {
		rec := Record{Name: name}
		if spec, ok := before.Specs[name]; ok {
			rec.Before = &spec
		}
		if spec, ok := after.Specs[name]; ok {
			rec.After = &spec
		}

		switch {
		case rec.Before == nil:
			rec.Change = ChangeAdded
		case rec.After == nil:
			rec.Change = ChangeRemoved
		case rec.Before.Version == rec.After.Version:
			rec.Change = ChangeUnchanged
		default:
			rec.Change = ChangeUpdated
			rec.Delta = classifyDelta(rec.Before.Version, rec.After.Version)
		}

		// Last known state: a removed gem answers from the before
		// snapshot, everything else from the after snapshot.
		spec, snap := rec.After, after
		if rec.Change == ChangeRemoved {
			spec, snap = rec.Before, before
		}
		rec.Declared = snap.Declared[name]
		rec.SourceType = classifySource(spec.Source)
		rec.Metadata = metadata[name]
		rec.SourceURL = sourceURL(rec.SourceType, spec.Source, rec.Metadata)

		records = append(records, rec)
	}
	return records
}

// UnionNames returns the sorted union of spec names across both snapshots.
func UnionNames(before, after *lockfile.Snapshot) []string {
	seen := make(map[string]bool, len(before.Specs)+len(after.Specs))
	names := make([]string, 0, len(before.Specs)+len(after.Specs))
	for name := range before.Specs {
		seen[name] = true
		names = append(names, name)
	}
	for name := range after.Specs {
		if !seen[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// classifyDelta compares version strings component-wise, major through
// patch. The first pair of components that are both present and differ
// decides the delta. A component is present only when it parses as an
// integer; missing or non-numeric components are absent, never zero, so
// "1.0" against "1.0.1" has no comparable patch pair and falls through
// to DeltaRest.
func classifyDelta(before, after string) Delta {
	b := components(before)
	a := components(after)
	deltas := [3][2]Delta{
		{DeltaMajorUp, DeltaMajorDown},
		{DeltaMinorUp, DeltaMinorDown},
		{DeltaPatchUp, DeltaPatchDown},
	}
	for i := 0; i < 3; i++ {
		if b[i] == nil || a[i] == nil {
			continue
		}
		if *a[i] > *b[i] {
			return deltas[i][0]
		}
		if *a[i] < *b[i] {
			return deltas[i][1]
		}
	}
	return DeltaRest
}

// components splits a version string on "." into up to three numeric
// components.
func components(version string) [3]*int {
	var out [3]*int
	parts := strings.Split(version, ".")
	for i := 0; i < 3 && i < len(parts); i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			continue
		}
		out[i] = &n
	}
	return out
}

func classifySource(source string) string {
	for _, rule := range sourceRules {
		if rule.pattern.MatchString(source) {
			return rule.label
		}
	}
	return ""
}

// sourceURL prefers the spec's own source text for github-hosted gems
// and falls back to the repository URL the health API reports.
func sourceURL(sourceType, source string, meta *health.Record) string {
	if sourceType == "github" {
		return source
	}
	if meta != nil {
		return meta.RepositoryURL
	}
	return ""
}
