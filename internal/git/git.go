// Package git wraps the git CLI for the read-only plumbing sizelint needs:
// repository discovery, range resolution, change listings and history mining.
package git

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
	"golang.org/x/sync/semaphore"

	"github.com/steveyegge/sizelint/internal/diag"
)

// minVersion is the oldest git whose diff-tree --stdin and
// cat-file --batch-check output we parse.
const minVersion = "v2.0.0"

// Repo runs git commands against one work tree.
// It holds no mutable state after construction and is safe for concurrent use.
type Repo struct {
	root     string
	gitPath  string
	version  string
	logger   *slog.Logger
	maxProcs int64
	procs    *semaphore.Weighted
}

// Option configures a Repo.
type Option func(*Repo)

// WithLogger sets the logger used for command tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repo) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithGitPath uses the given git executable instead of searching PATH.
func WithGitPath(path string) Option {
	return func(r *Repo) { r.gitPath = path }
}

// WithMaxProcs caps how many batch git processes run at once.
// Values below 1 are ignored.
func WithMaxProcs(n int) Option {
	return func(r *Repo) {
		if n > 0 {
			r.maxProcs = int64(n)
		}
	}
}

// NewRepo locates the repository containing start (a file or directory).
// It verifies that git is available and recent enough.
func NewRepo(ctx context.Context, start string, opts ...Option) (*Repo, error) {
	r := &Repo{
		logger:   slog.New(slog.DiscardHandler),
		maxProcs: int64(runtime.NumCPU()),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.gitPath == "" {
		path, err := exec.LookPath("git")
		if err != nil {
			return nil, diag.Wrap(err, diag.CodeGitSpawnFailed, "git not found in PATH")
		}
		r.gitPath = path
	}
	if err := r.checkVersion(ctx); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(start)
	if err != nil {
		return nil, diag.Wrap(err, diag.CodeCurrentDirectory, "cannot resolve %s", start)
	}
	dir := abs
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		dir = filepath.Dir(abs)
	}

	out, err := r.output(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		var ce *CommandError
		if errors.As(err, &ce) {
			return nil, diag.Wrap(ErrRepoNotFound, diag.CodeGitRepoNotFound, "%s is not inside a git work tree", start)
		}
		return nil, err
	}
	r.root = filepath.Clean(strings.TrimSpace(string(out)))
	r.procs = semaphore.NewWeighted(r.maxProcs)

	r.logger.Debug("git repository found", "root", r.root, "git_version", r.version)
	return r, nil
}

// IsInRepo reports whether path is inside a git work tree.
func IsInRepo(ctx context.Context, path string) bool {
	_, err := NewRepo(ctx, path)
	return err == nil
}

// Root returns the absolute path of the work tree root.
func (r *Repo) Root() string {
	return r.root
}

// Version returns the git version as a semver string, e.g. "v2.43.0".
func (r *Repo) Version() string {
	return r.version
}

// Abs converts a root-relative slash path into an absolute platform path.
func (r *Repo) Abs(rel string) string {
	return filepath.Join(r.root, filepath.FromSlash(rel))
}

func (r *Repo) checkVersion(ctx context.Context) error {
	out, err := exec.CommandContext(ctx, r.gitPath, "version").Output()
	if err != nil {
		return diag.Wrap(err, diag.CodeGitSpawnFailed, "git version failed")
	}
	v, ok := parseVersion(string(out))
	if !ok {
		return diag.Wrap(ErrUnsupportedVersion, diag.CodeGitVersion, "cannot parse %q", strings.TrimSpace(string(out)))
	}
	if semver.Compare(v, minVersion) < 0 {
		return diag.Wrap(ErrUnsupportedVersion, diag.CodeGitVersion, "git %s is older than %s", v, minVersion)
	}
	r.version = v
	return nil
}

// parseVersion extracts a semver from `git version` output such as
// "git version 2.39.2.windows.1" or "git version 2.37.1 (Apple Git-137.1)".
func parseVersion(out string) (string, bool) {
	fields := strings.Fields(out)
	if len(fields) < 3 || fields[0] != "git" || fields[1] != "version" {
		return "", false
	}

	var nums []string
	for _, part := range strings.Split(fields[2], ".") {
		if len(nums) == 3 {
			break
		}
		if _, err := strconv.Atoi(part); err != nil {
			break
		}
		nums = append(nums, part)
	}
	if len(nums) == 0 {
		return "", false
	}
	v := "v" + strings.Join(nums, ".")
	return semver.Canonical(v), semver.IsValid(v)
}

func (r *Repo) command(ctx context.Context, dir string, args ...string) *exec.Cmd {
	full := append([]string{"-C", dir}, args...)
	return exec.CommandContext(ctx, r.gitPath, full...)
}

// output runs git in dir and returns stdout. A non-zero exit becomes a
// *CommandError carrying stderr.
func (r *Repo) output(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := r.command(ctx, dir, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	r.logger.Debug("running git", "dir", dir, "args", args)
	out, err := cmd.Output()
	if err != nil {
		return nil, commandError(args, err, &stderr)
	}
	return out, nil
}

func commandError(args []string, err error, stderr *bytes.Buffer) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		ce := &CommandError{
			Args:     args,
			ExitCode: exitErr.ExitCode(),
			Stderr:   strings.TrimSpace(stderr.String()),
		}
		return diag.Wrap(ce, diag.CodeGitCommandFailed, "")
	}
	return diag.Wrap(err, diag.CodeGitSpawnFailed, "failed to run git %s", subcommand(args))
}

// subcommand names the git command in args, skipping leading "-c key=value"
// pairs.
func subcommand(args []string) string {
	for len(args) >= 2 && args[0] == "-c" {
		args = args[2:]
	}
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// nulSplit splits NUL-terminated output as printed by -z flags.
func nulSplit(out []byte) []string {
	var result []string
	for _, item := range strings.Split(string(out), "\x00") {
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}

func (r *Repo) absAll(rel []string) []string {
	abs := make([]string, len(rel))
	for i, p := range rel {
		abs[i] = r.Abs(p)
	}
	return abs
}
