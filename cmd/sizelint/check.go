package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/steveyegge/sizelint/internal/app"
	"github.com/steveyegge/sizelint/internal/output"
)

var checkCmd = &cobra.Command{
	Use:     "check [paths...]",
	Aliases: []string{"c"},
	Short:   "Check files for size violations",
	Long: `Check files against the configured size rules.

With no paths the current directory is checked. A single directory is
walked (honoring .gitignore when respect_gitignore is set); several paths
are checked individually, directories recursively.

Git modes:
  --staged          only files staged for commit
  --working-tree    only tracked files with unstaged changes
  --git RANGE       files changed in RANGE, plus every blob introduced in
                    the range's history (skip with --no-history)

RANGE may be "main" (meaning merge-base(main, HEAD)..HEAD), "main..HEAD"
or "main...feature".

Examples:
  sizelint check
  sizelint check --staged
  sizelint check --git origin/main --format json
  sizelint check assets/ build/output.bin`,
	Run: func(cmd *cobra.Command, args []string) {
		formatStr, _ := cmd.Flags().GetString("format")
		staged, _ := cmd.Flags().GetBool("staged")
		workingTree, _ := cmd.Flags().GetBool("working-tree")
		gitRange, _ := cmd.Flags().GetString("git")
		noHistory, _ := cmd.Flags().GetBool("no-history")
		quiet, _ := cmd.Flags().GetBool("quiet")
		failOnWarn, _ := cmd.Flags().GetBool("fail-on-warn")

		format, err := output.ParseFormat(formatStr)
		if err != nil {
			exitWithError(err)
		}

		a, err := loadApp(cmd)
		if err != nil {
			exitWithError(err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		failed, err := runCheck(ctx, a, checkRequest{
			options: app.Options{
				Paths:       args,
				Staged:      staged,
				WorkingTree: workingTree,
				GitRange:    gitRange,
				NoHistory:   noHistory,
				FailOnWarn:  failOnWarn,
			},
			format: format,
			quiet:  quiet,
		}, os.Stdout, os.Stderr)
		if err != nil {
			stop()
			exitWithError(err)
		}
		if failed {
			stop()
			os.Exit(1)
		}
	},
}

type checkRequest struct {
	options app.Options
	format  output.Format
	quiet   bool
}

// runCheck performs a check and writes the report to stdout and progress to
// stderr. It reports whether the run should exit non-zero.
func runCheck(ctx context.Context, a *app.App, req checkRequest, stdout, stderr io.Writer) (bool, error) {
	// JSON output must stay parseable, so progress is dropped entirely.
	status := output.NewStatus(stderr, req.quiet || req.format == output.FormatJSON)
	if path := a.ConfigPath(); path != "" {
		status.Progress("Using config file: %s", path)
	} else {
		status.Progress("No config file found, using defaults")
	}

	opts := req.options
	opts.Progress = status.Progress
	res, err := a.Check(ctx, opts)
	if err != nil {
		return false, err
	}

	if res.FilesChecked == 0 && res.HistoryBlobs == 0 && req.format == output.FormatHuman {
		status.Success("No files to check")
		return false, nil
	}

	formatter := output.NewFormatter(req.format, req.quiet, res.Base, stdout)
	if err := formatter.Results(res.Violations, res.FilesChecked, res.Elapsed); err != nil {
		return false, fmt.Errorf("failed to write report: %w", err)
	}
	return res.Failed, nil
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringP("config", "c", "", "Configuration file path")
	checkCmd.Flags().StringP("format", "f", "human", "Output format: human or json")
	checkCmd.Flags().Bool("staged", false, "Check only staged files")
	checkCmd.Flags().Bool("working-tree", false, "Check only tracked files with unstaged changes")
	checkCmd.Flags().String("git", "", "Check files changed in a git revision range (e.g. main, main..HEAD)")
	checkCmd.Flags().Bool("no-history", false, "Skip scanning git history for deleted or shrunk blobs")
	checkCmd.Flags().BoolP("quiet", "q", false, "Only show violations")
	checkCmd.Flags().Bool("fail-on-warn", false, "Exit non-zero when warnings are found")
	checkCmd.MarkFlagsMutuallyExclusive("working-tree", "git")
	checkCmd.MarkFlagsMutuallyExclusive("staged", "git")
}
