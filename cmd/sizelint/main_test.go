package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/sizelint/internal/app"
	"github.com/steveyegge/sizelint/internal/config"
	"github.com/steveyegge/sizelint/internal/diag"
	"github.com/steveyegge/sizelint/internal/output"
)

func init() {
	color.NoColor = true
}

func testApp(t *testing.T) *app.App {
	t.Helper()
	for _, key := range []string{
		"SIZELINT_MAX_FILE_SIZE", "SIZELINT_WARN_FILE_SIZE", "SIZELINT_FAIL_ON_WARN",
		"SIZELINT_RESPECT_GITIGNORE", "SIZELINT_HISTORY", "SIZELINT_GIT",
	} {
		t.Setenv(key, "")
	}
	path := filepath.Join(t.TempDir(), "sizelint.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
max_file_size = "1KB"
warn_file_size = "512B"

[rules.images]
priority = 50
includes = ["*.png"]
max_size = "4KB"
warn_size = "3KB"
`), 0o644))
	a, err := app.New(path, "")
	require.NoError(t, err)
	return a
}

func TestCommandsRegistered(t *testing.T) {
	for _, args := range [][]string{
		{"check"}, {"c"}, {"init"}, {"rules", "list"}, {"rules", "describe"}, {"r", "d"},
	} {
		cmd, _, err := rootCmd.Find(args)
		require.NoError(t, err, args)
		assert.NotEqual(t, rootCmd, cmd, args)
	}

	for _, flag := range []string{"config", "format", "staged", "working-tree", "git", "no-history", "quiet", "fail-on-warn"} {
		assert.NotNil(t, checkCmd.Flags().Lookup(flag), flag)
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("debug"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("log-level"))
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	printError(&buf, diag.New(diag.CodeInvalidSizeFormat, "bad size %q", "5XB"))
	assert.Equal(t, "Error: bad size \"5XB\"\n  help: Use formats like: 10MB, 1GB, 500KB, 1024B\n  sizelint::rule::invalid_size_format\n", buf.String())

	buf.Reset()
	printError(&buf, errors.New("plain"))
	assert.Equal(t, "Error: plain\n", buf.String())
}

func TestWriteDefaultConfig(t *testing.T) {
	dir := t.TempDir()

	path, err := writeDefaultConfig(dir, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sizelint.toml"), path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	_, err = writeDefaultConfig(dir, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, errConfigExists)
	assert.Equal(t, "Use --force to overwrite it", diag.HintOf(err))

	_, err = writeDefaultConfig(dir, true)
	require.NoError(t, err)
}

func TestPrintDefaultConfig(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printDefaultConfig(&buf))
	assert.Equal(t, config.DefaultTOML(), buf.String())
}

func TestRunCheck(t *testing.T) {
	a := testApp(t)
	dir := t.TempDir()
	big := filepath.Join(dir, "big.bin")
	require.NoError(t, os.WriteFile(big, make([]byte, 2048), 0o644))
	small := filepath.Join(dir, "logo.png")
	require.NoError(t, os.WriteFile(small, make([]byte, 2048), 0o644))

	t.Run("Human", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		failed, err := runCheck(context.Background(), a, checkRequest{
			options: app.Options{Paths: []string{big, small}},
			format:  output.FormatHuman,
		}, &stdout, &stderr)
		require.NoError(t, err)
		assert.True(t, failed)
		assert.Contains(t, stdout.String(), "big.bin (2.0 KB)")
		assert.NotContains(t, stdout.String(), "logo.png", "the images rule allows 4KB")
		assert.Contains(t, stdout.String(), "Checked 2 files, 1 error. [FAILED]")
		assert.Contains(t, stderr.String(), "Using config file:")
	})

	t.Run("JSON", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		failed, err := runCheck(context.Background(), a, checkRequest{
			options: app.Options{Paths: []string{big}},
			format:  output.FormatJSON,
		}, &stdout, &stderr)
		require.NoError(t, err)
		assert.True(t, failed)
		assert.Empty(t, stderr.String())

		var summary output.Summary
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &summary))
		assert.Equal(t, 1, summary.TotalFilesChecked)
		assert.Equal(t, 1, summary.ErrorCount)
		assert.Equal(t, []string{"default"}, summary.RulesRun)
	})

	t.Run("NothingToCheck", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		failed, err := runCheck(context.Background(), a, checkRequest{
			options: app.Options{Paths: []string{filepath.Join(dir, "missing")}},
			format:  output.FormatHuman,
		}, &stdout, &stderr)
		require.NoError(t, err)
		assert.False(t, failed)
		assert.Empty(t, stdout.String())
		assert.Contains(t, stderr.String(), "No files to check")
	})
}

func TestRulesCommands(t *testing.T) {
	a := testApp(t)

	var buf bytes.Buffer
	require.NoError(t, listRules(a, &buf))
	assert.Contains(t, buf.String(), "default - Default file size check [✓ enabled]")
	assert.Contains(t, buf.String(), "✓ images: priority=50, max=4.0 KB, warn=3.0 KB, includes=1, excludes=[]")

	buf.Reset()
	require.NoError(t, describeRule(a, "images", &buf))
	assert.Contains(t, buf.String(), "Rule: images")
	assert.Contains(t, buf.String(), "  Includes: *.png")

	err := describeRule(a, "nope", &buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown rule: nope")
}
