package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lockdiff/lockdiff/pkg/config"
	"github.com/lockdiff/lockdiff/pkg/health"
	"github.com/lockdiff/lockdiff/pkg/lockfile"
	"github.com/lockdiff/lockdiff/pkg/reconciler"
	"github.com/lockdiff/lockdiff/pkg/report"
)

func lockSnapshot(specs map[string]string) *lockfile.Snapshot {
	snap := &lockfile.Snapshot{
		Specs:    make(map[string]lockfile.Spec, len(specs)),
		Declared: map[string]bool{},
	}
	for name, version := range specs {
		snap.Specs[name] = lockfile.Spec{Name: name, Version: version, Source: "locally installed gems"}
	}
	return snap
}

func TestFilterIgnored_ExcludedFromReport(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.IgnoreGems = []string{"bundler"}

	before := lockSnapshot(map[string]string{"bundler": "2.4.10", "rake": "13.0.6"})
	after := lockSnapshot(map[string]string{"bundler": "2.5.0", "rake": "13.1.0"})

	filterIgnored(cfg, before, after)

	assert.NotContains(t, before.Specs, "bundler")
	assert.NotContains(t, after.Specs, "bundler")

	// An ignored gem never shows up in the report rows.
	records := reconciler.Reconcile(before, after, nil)
	rows := report.Build(records, health.Catalog{})
	require.Len(t, rows, 2)
	assert.Equal(t, "rake", rows[1][0])
}

func TestFilterIgnored_NoConfigKeepsEverything(t *testing.T) {
	cfg := config.DefaultConfig()
	after := lockSnapshot(map[string]string{"rake": "13.0.6", "rack": "2.2.8"})

	filterIgnored(cfg, after)
	assert.Len(t, after.Specs, 2)
}

func TestFailOnViolation(t *testing.T) {
	cfg := config.DefaultConfig()

	minorUpdate := reconciler.Reconcile(
		lockSnapshot(map[string]string{"alpha": "1.2.0"}),
		lockSnapshot(map[string]string{"alpha": "1.3.0"}),
		nil,
	)
	patchUpdate := reconciler.Reconcile(
		lockSnapshot(map[string]string{"beta": "1.2.3"}),
		lockSnapshot(map[string]string{"beta": "1.2.4"}),
		nil,
	)

	// minor+ maps to warning severity by default and trips the gate
	err := failOnViolation(minorUpdate, cfg, "warning")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alpha")
	assert.Contains(t, err.Error(), "warning")

	// patch+ maps to info, below the warning threshold
	require.NoError(t, failOnViolation(patchUpdate, cfg, "warning"))

	// an info threshold catches patch updates too
	require.Error(t, failOnViolation(patchUpdate, cfg, "info"))

	// minor+ stays below an error threshold
	require.NoError(t, failOnViolation(minorUpdate, cfg, "error"))
}

func TestFailOnViolation_OnlyUpdatesCount(t *testing.T) {
	cfg := config.DefaultConfig()

	records := reconciler.Reconcile(
		lockSnapshot(map[string]string{"gone": "2.0.0", "same": "1.0.0"}),
		lockSnapshot(map[string]string{"same": "1.0.0", "new": "9.0.0"}),
		nil,
	)
	require.NoError(t, failOnViolation(records, cfg, "info"))
}

func TestFailOnViolation_RestDeltaHasNoSeverity(t *testing.T) {
	cfg := config.DefaultConfig()

	// "1.0" -> "1.0.1" has no comparable component pair, so the update
	// classifies as rest and maps to no severity level.
	records := reconciler.Reconcile(
		lockSnapshot(map[string]string{"alpha": "1.0"}),
		lockSnapshot(map[string]string{"alpha": "1.0.1"}),
		nil,
	)
	require.NoError(t, failOnViolation(records, cfg, "info"))
}

func TestFailOnViolation_UnknownLevel(t *testing.T) {
	err := failOnViolation(nil, config.DefaultConfig(), "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}
