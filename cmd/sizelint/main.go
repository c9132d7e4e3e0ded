package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/sizelint/internal/app"
	"github.com/steveyegge/sizelint/internal/diag"
	"github.com/steveyegge/sizelint/internal/logging"
)

var (
	configPath string
	debug      bool
	logLevel   string
	logger     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sizelint",
	Short: "Detect oversized files in a source tree and its git history",
	Long: `sizelint checks file sizes against configurable rules.

It can check the whole tree, staged or modified files, or every file
touched in a git revision range, including blobs that were added and later
deleted or shrunk.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		quiet, _ := cmd.Flags().GetBool("quiet")
		l, err := logging.New(logging.Options{Level: logLevel, Debug: debug, Quiet: quiet})
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output (or set SIZELINT_LOG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		exitWithError(err)
	}
}

// loadApp resolves configuration for commands that need it. A
// command-level --config wins over the global one.
func loadApp(cmd *cobra.Command) (*app.App, error) {
	path := configPath
	if local, _ := cmd.Flags().GetString("config"); local != "" {
		path = local
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, diag.Wrap(err, diag.CodeCurrentDirectory, "failed to get current directory")
	}
	return app.New(path, cwd, app.WithLogger(logger))
}

func exitWithError(err error) {
	printError(os.Stderr, err)
	os.Exit(1)
}

// printError writes "Error: ..." and, when the error carries one, an
// indented help line.
func printError(w io.Writer, err error) {
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	fmt.Fprintf(w, "%s %v\n", red("Error:"), err)

	var d *diag.Error
	if !errors.As(err, &d) {
		return
	}
	if help := d.Help(); help != "" {
		fmt.Fprintf(w, "  %s %s\n", color.New(color.FgCyan).Sprint("help:"), help)
	}
	fmt.Fprintf(w, "  %s\n", color.New(color.FgHiBlack).Sprint(d.Code))
}
