package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/steveyegge/sizelint/internal/config"
	"github.com/steveyegge/sizelint/internal/diag"
	"github.com/steveyegge/sizelint/internal/output"
)

var initCmd = &cobra.Command{
	Use:     "init",
	Aliases: []string{"i"},
	Short:   "Create a sizelint.toml with the default configuration",
	Long: `Write the default configuration to sizelint.toml in the current directory.

Example:
  sizelint init                 # Creates sizelint.toml
  sizelint init --force         # Overwrites an existing file
  sizelint init --stdout > x    # Prints the defaults instead`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")
		toStdout, _ := cmd.Flags().GetBool("stdout")

		if toStdout {
			if err := printDefaultConfig(os.Stdout); err != nil {
				exitWithError(err)
			}
			return
		}

		cwd, err := os.Getwd()
		if err != nil {
			exitWithError(diag.Wrap(err, diag.CodeCurrentDirectory, "failed to get current directory"))
		}
		path, err := writeDefaultConfig(cwd, force)
		if err != nil {
			exitWithError(err)
		}

		status := output.NewStatus(os.Stderr, false)
		status.Success("Created %s", path)
		fmt.Println("You can now customize the configuration and run 'sizelint check' to start linting.")
	},
}

// errConfigExists is returned by writeDefaultConfig when it would
// overwrite a file without force.
var errConfigExists = errors.New("configuration file already exists")

// writeDefaultConfig writes sizelint.toml into dir and returns its path.
func writeDefaultConfig(dir string, force bool) (string, error) {
	path := filepath.Join(dir, config.FileNames[0])
	if _, err := os.Stat(path); err == nil && !force {
		return "", (&diag.Error{
			Code:    diag.CodeConfigInvalid,
			Message: fmt.Sprintf("%s already exists", config.FileNames[0]),
			Err:     errConfigExists,
		}).WithHint("Use --force to overwrite it")
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", diag.Wrap(err, diag.CodeFileSystem, "failed to check %s", path)
	}

	if err := os.WriteFile(path, []byte(config.DefaultTOML()), 0o644); err != nil {
		return "", diag.Wrap(err, diag.CodeFileSystem, "failed to write config file %s", path)
	}
	return path, nil
}

func printDefaultConfig(w io.Writer) error {
	_, err := io.WriteString(w, config.DefaultTOML())
	return err
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolP("force", "f", false, "Overwrite an existing configuration file")
	initCmd.Flags().Bool("stdout", false, "Print the default configuration to stdout")
}
