package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lockdiff/lockdiff/pkg/config"
	"github.com/lockdiff/lockdiff/pkg/gitfile"
	"github.com/lockdiff/lockdiff/pkg/health"
	"github.com/lockdiff/lockdiff/pkg/lockfile"
	"github.com/lockdiff/lockdiff/pkg/logger"
	"github.com/lockdiff/lockdiff/pkg/reconciler"
	"github.com/lockdiff/lockdiff/pkg/report"
)

var (
	repoPath     string
	lockfilePath string
	format       string
	outputFile   string
	failOn       string
	configPath   string
	verbose      bool
)

// severityRank orders severity levels for the --fail-on gate.
var severityRank = map[string]int{"info": 1, "warning": 2, "error": 3}

// diffCmd represents the diff subcommand
var diffCmd = &cobra.Command{
	Use:   "diff [source-ref] [target-ref]",
	Short: "Diff the lock file between two git refs",
	Long:  "Diff the Gemfile.lock between two git refs and report every gem's change with semantic-version magnitude and health metadata.",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.SetVerbose(verbose)

		var cfg *config.Config
		var err error
		if configPath != "" {
			cfg, err = config.LoadConfig(configPath)
		} else {
			cfg, err = config.FindAndLoadConfig(repoPath)
		}
		if err != nil {
			return err
		}

		sourceRef, targetRef := cfg.Refs.Source, cfg.Refs.Target
		if len(args) > 0 {
			sourceRef = args[0]
		}
		if len(args) > 1 {
			targetRef = args[1]
		}
		lockPath := lockfilePath
		if lockPath == "" {
			lockPath = cfg.Lockfile
		}

		ctx := cmd.Context()
		logger.Debugf("comparing %s between %s and %s", lockPath, sourceRef, targetRef)

		beforeText, err := gitfile.Show(ctx, repoPath, sourceRef, lockPath)
		if err != nil {
			return err
		}
		afterText, err := gitfile.Show(ctx, repoPath, targetRef, lockPath)
		if err != nil {
			return err
		}

		before, err := lockfile.Parse(beforeText)
		if err != nil {
			return fmt.Errorf("parsing %s at %s: %w", lockPath, sourceRef, err)
		}
		after, err := lockfile.Parse(afterText)
		if err != nil {
			return fmt.Errorf("parsing %s at %s: %w", lockPath, targetRef, err)
		}

		filterIgnored(cfg, before, after)

		names := reconciler.UnionNames(before, after)
		client := health.NewClient(cfg.API.BaseURL, cfg.API.Key, cfg.API.Platform)
		metadata, catalog, err := client.FetchAll(ctx, names)
		if err != nil {
			return fmt.Errorf("fetching gem metadata: %w", err)
		}

		records := reconciler.Reconcile(before, after, metadata)

		var out io.Writer = os.Stdout
		outPath := outputFile
		if outPath == "" {
			outPath = cfg.Output.File
		}
		if outPath != "" {
			file, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer file.Close()
			out = file
		}

		outFormat := format
		if outFormat == "" {
			outFormat = cfg.Output.Format
		}
		switch outFormat {
		case "json":
			if err := report.WriteJSON(out, records, catalog); err != nil {
				return err
			}
		case "text", "":
			if err := report.WriteTSV(out, report.Build(records, catalog)); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown output format %q (expected text or json)", outFormat)
		}

		if failOn != "" {
			if err := failOnViolation(records, cfg, failOn); err != nil {
				return err
			}
		}

		return nil
	},
}

// filterIgnored drops configured ignore-list gems from the snapshots
// before reconciliation, so they never reach the report.
func filterIgnored(cfg *config.Config, snaps ...*lockfile.Snapshot) {
	for _, snap := range snaps {
		for name := range snap.Specs {
			if cfg.IsGemIgnored(name) {
				delete(snap.Specs, name)
			}
		}
	}
}

// failOnViolation returns an error for the first updated record whose
// configured severity reaches the given level.
func failOnViolation(records []reconciler.Record, cfg *config.Config, level string) error {
	threshold, ok := severityRank[level]
	if !ok {
		return fmt.Errorf("unknown --fail-on level %q (expected info, warning or error)", level)
	}
	for _, rec := range records {
		if rec.Change != reconciler.ChangeUpdated {
			continue
		}
		severity := cfg.GetSeverityForUpdate(rec.Delta.Level())
		if severityRank[severity] >= threshold {
			return fmt.Errorf("%s updated %s -> %s (%s severity)", rec.Name, rec.Before.Version, rec.After.Version, severity)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(diffCmd)
	diffCmd.Flags().StringVarP(&repoPath, "path", "p", ".", "Path to the git repository")
	diffCmd.Flags().StringVar(&lockfilePath, "lockfile", "", "Lock file path inside the repository (default from config, Gemfile.lock)")
	diffCmd.Flags().StringVarP(&format, "format", "f", "", "Output format: text or json (default from config, text)")
	diffCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write the report to a file instead of stdout")
	diffCmd.Flags().StringVar(&failOn, "fail-on", "", "Exit non-zero when any update reaches this severity: info, warning or error")
	diffCmd.Flags().StringVar(&configPath, "config", "", "Config file path (default: .lockdiff.yaml discovered upwards from --path)")
	diffCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}
