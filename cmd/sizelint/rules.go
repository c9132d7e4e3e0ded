package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/sizelint/internal/app"
	"github.com/steveyegge/sizelint/internal/diag"
	"github.com/steveyegge/sizelint/internal/output"
)

var rulesCmd = &cobra.Command{
	Use:     "rules",
	Aliases: []string{"r"},
	Short:   "Inspect the configured rules",
}

var rulesListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l"},
	Short:   "List every rule, including disabled ones",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := loadApp(cmd)
		if err != nil {
			exitWithError(err)
		}
		if err := listRules(a, os.Stdout); err != nil {
			exitWithError(err)
		}
	},
}

var rulesDescribeCmd = &cobra.Command{
	Use:     "describe <rule>",
	Aliases: []string{"d"},
	Short:   "Show the full settings of one rule",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := loadApp(cmd)
		if err != nil {
			exitWithError(err)
		}
		if err := describeRule(a, args[0], os.Stdout); err != nil {
			exitWithError(err)
		}
	},
}

func listRules(a *app.App, w io.Writer) error {
	infos, err := a.RuleInfos()
	if err != nil {
		return err
	}
	output.RuleList(w, infos)
	return nil
}

func describeRule(a *app.App, name string, w io.Writer) error {
	infos, err := a.RuleInfos()
	if err != nil {
		return err
	}
	for _, info := range infos {
		if info.Name == name {
			output.RuleDescribe(w, info)
			return nil
		}
	}
	return diag.New(diag.CodeConfigInvalid, "Unknown rule: %s", name).
		WithHint("Run 'sizelint rules list' to see the configured rules")
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesDescribeCmd)
}
