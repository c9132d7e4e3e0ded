// Package gittest builds throwaway git repositories for tests.
package gittest

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Repo is a scratch repository rooted in a test temp dir.
type Repo struct {
	t   testing.TB
	Dir string
}

// RequireGit skips the test when no git binary is available.
func RequireGit(t testing.TB) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

// New initializes an empty repository whose default branch is "main".
func New(t testing.TB) *Repo {
	t.Helper()
	RequireGit(t)

	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	r := &Repo{t: t, Dir: dir}
	r.Git("init", "-q")
	r.Git("symbolic-ref", "HEAD", "refs/heads/main")
	r.Git("config", "user.name", "Test User")
	r.Git("config", "user.email", "test@example.com")
	r.Git("config", "commit.gpgsign", "false")
	r.Git("config", "core.autocrlf", "false")
	return r
}

// Git runs a git command in the repository and returns trimmed stdout.
func (r *Repo) Git(args ...string) string {
	r.t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), "GIT_CONFIG_NOSYSTEM=1", "GIT_TERMINAL_PROMPT=0")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	require.NoError(r.t, err, "git %s: %s", strings.Join(args, " "), stderr.String())
	return strings.TrimSpace(string(out))
}

// Path returns the absolute path of a repository-relative file.
func (r *Repo) Path(rel string) string {
	return filepath.Join(r.Dir, filepath.FromSlash(rel))
}

// WriteSized writes a file of exactly n bytes.
func (r *Repo) WriteSized(rel string, n int) string {
	r.t.Helper()
	return r.Write(rel, bytes.Repeat([]byte("x"), n))
}

// Write writes content to rel, creating parent directories.
func (r *Repo) Write(rel string, content []byte) string {
	r.t.Helper()
	path := r.Path(rel)
	require.NoError(r.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(r.t, os.WriteFile(path, content, 0o644))
	return path
}

// Remove deletes rel from the work tree.
func (r *Repo) Remove(rel string) {
	r.t.Helper()
	require.NoError(r.t, os.Remove(r.Path(rel)))
}

// CommitAll stages everything and commits, returning the new commit id.
func (r *Repo) CommitAll(msg string) string {
	r.t.Helper()
	r.Git("add", "-A")
	r.Git("commit", "-q", "--allow-empty", "-m", msg)
	return r.Git("rev-parse", "HEAD")
}
