// Package app wires configuration, discovery, the rule engine and history
// mining into a single check run.
package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/steveyegge/sizelint/internal/config"
	"github.com/steveyegge/sizelint/internal/diag"
	"github.com/steveyegge/sizelint/internal/discovery"
	"github.com/steveyegge/sizelint/internal/git"
	"github.com/steveyegge/sizelint/internal/rules"
)

// Mode is the file discovery strategy of a run.
type Mode string

const (
	ModeAll         Mode = "all"
	ModePaths       Mode = "paths"
	ModeStaged      Mode = "staged"
	ModeWorkingTree Mode = "working-tree"
	ModeGitRange    Mode = "git"
)

// Options are the per-run inputs, normally taken from CLI flags.
type Options struct {
	// Paths to check. Empty means the current directory.
	Paths []string

	Staged      bool
	WorkingTree bool
	GitRange    string
	NoHistory   bool
	FailOnWarn  bool

	// Progress receives human-oriented progress lines. May be nil.
	Progress func(format string, args ...any)
}

// Result is the outcome of a check run.
type Result struct {
	Mode         Mode
	Base         string
	Violations   []rules.Violation
	FilesChecked int
	HistoryBlobs int
	Elapsed      time.Duration

	// Failed is set when an error was found, or a warning while warnings
	// are treated as failures.
	Failed bool
}

// App holds the resolved configuration for one invocation.
type App struct {
	cfg        *config.Config
	configPath string
	logger     *slog.Logger
	gitOpts    []git.Option
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger passed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithGitOptions passes options to every git repository the run opens.
func WithGitOptions(opts ...git.Option) Option {
	return func(a *App) { a.gitOpts = append(a.gitOpts, opts...) }
}

// New resolves configuration: an explicit file, else the nearest config
// file above startDir merged over defaults, else the defaults. Environment
// overrides are applied and the result is validated.
func New(configPath, startDir string, opts ...Option) (*App, error) {
	a := &App{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(a)
	}

	cfg, path, err := config.Resolve(configPath, startDir)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a.cfg = cfg
	a.configPath = path
	a.logger.Debug("configuration resolved", "path", path, "env", config.EnvSummary())
	return a, nil
}

// Config returns the resolved configuration.
func (a *App) Config() *config.Config {
	return a.cfg
}

// ConfigPath returns the file the configuration came from, or "" for the
// built-in defaults.
func (a *App) ConfigPath() string {
	return a.configPath
}

// Engine builds the rule engine with patterns relative to root.
func (a *App) Engine(root string) (*rules.Engine, error) {
	return rules.NewEngineFromSpecs(a.cfg.RuleSpecs(),
		rules.WithRoot(root),
		rules.WithLogger(a.logger),
	)
}

// RuleInfos describes every configured rule, disabled ones included.
func (a *App) RuleInfos() ([]rules.Info, error) {
	engine, err := a.Engine("")
	if err != nil {
		return nil, err
	}
	var infos []rules.Info
	for _, r := range engine.Rules() {
		infos = append(infos, r.Info())
	}
	return infos, nil
}

// Check discovers candidate files, checks them, optionally mines history
// and merges the two sets of findings.
func (a *App) Check(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	progress := opts.Progress
	if progress == nil {
		progress = func(string, ...any) {}
	}

	mode, rangeSpec := a.mode(ctx, opts)
	root, err := a.root(ctx, mode, opts.Paths)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("starting check", "mode", mode, "root", root, "range", rangeSpec)

	d, err := discovery.New(ctx, root, a.cfg.Excludes,
		discovery.WithLogger(a.logger),
		discovery.WithGitOptions(a.gitOpts...),
	)
	if err != nil {
		return nil, err
	}

	files, err := a.discover(ctx, d, mode, rangeSpec, opts.Paths)
	if err != nil {
		return nil, err
	}

	engine, err := a.Engine(d.Root())
	if err != nil {
		return nil, err
	}

	res := &Result{Mode: mode, Base: d.Root(), FilesChecked: len(files)}
	if len(files) > 0 {
		progress("Found %d files to check", len(files))
	}
	live, err := engine.CheckFiles(ctx, files)
	if err != nil {
		return nil, err
	}

	var history []rules.Violation
	if mode == ModeGitRange && !opts.NoHistory && a.cfg.HistoryEnabled() {
		blobs, err := d.HistoryBlobs(ctx, rangeSpec)
		if err != nil {
			return nil, err
		}
		blobs = limitBlobsTo(blobs, d.Repo(), opts.Paths)
		if len(blobs) > 0 {
			progress("Scanning %d blobs from git history", len(blobs))
		}
		res.HistoryBlobs = len(blobs)
		history, err = engine.CheckHistoryBlobs(ctx, d.Repo().Root(), blobs)
		if err != nil {
			return nil, err
		}
	}

	res.Violations = rules.Merge(live, history)
	res.Failed = failed(res.Violations, opts.FailOnWarn || a.cfg.FailOnWarnings())
	res.Elapsed = time.Since(start)
	a.logger.Debug("check finished",
		"files", res.FilesChecked,
		"history_blobs", res.HistoryBlobs,
		"violations", len(res.Violations),
		"elapsed", res.Elapsed)
	return res, nil
}

// mode picks the discovery strategy. Flags win over configuration, and
// staged beats working tree beats a revision range. Git modes taken from
// configuration only apply inside a repository.
func (a *App) mode(ctx context.Context, opts Options) (Mode, string) {
	switch {
	case opts.Staged:
		return ModeStaged, ""
	case opts.WorkingTree:
		return ModeWorkingTree, ""
	case opts.GitRange != "":
		return ModeGitRange, opts.GitRange
	}

	configured := a.cfg.StagedOnly() || a.cfg.WorkingTreeOnly() || a.cfg.Git != ""
	if configured && git.IsInRepo(ctx, firstOr(opts.Paths, ".")) {
		switch {
		case a.cfg.StagedOnly():
			return ModeStaged, ""
		case a.cfg.WorkingTreeOnly():
			return ModeWorkingTree, ""
		default:
			return ModeGitRange, a.cfg.Git
		}
	}

	switch {
	case len(opts.Paths) == 0 || (len(opts.Paths) == 1 && isDir(opts.Paths[0])):
		return ModeAll, ""
	default:
		return ModePaths, ""
	}
}

// root is the directory exclude and include patterns are relative to. Git
// modes use the repository root; explicit paths must then share one
// repository.
func (a *App) root(ctx context.Context, mode Mode, paths []string) (string, error) {
	switch mode {
	case ModeStaged, ModeWorkingTree, ModeGitRange:
		if len(paths) == 0 {
			paths = []string{"."}
		}
		return discovery.SingleRepo(ctx, paths, a.gitOptions()...)
	case ModeAll:
		if len(paths) == 1 {
			return paths[0], nil
		}
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", diag.Wrap(err, diag.CodeCurrentDirectory, "failed to get current directory")
	}
	return cwd, nil
}

func (a *App) discover(ctx context.Context, d *discovery.Discovery, mode Mode, rangeSpec string, paths []string) ([]string, error) {
	var (
		files []string
		err   error
	)
	switch mode {
	case ModeStaged:
		files, err = d.StagedFiles(ctx)
	case ModeWorkingTree:
		files, err = d.WorkingTreeFiles(ctx)
	case ModeGitRange:
		files, err = d.DiffFiles(ctx, rangeSpec)
	case ModeAll:
		return d.AllFiles(ctx, a.cfg.GitignoreRespected())
	default:
		return d.SpecificPaths(ctx, paths)
	}
	if err != nil {
		return nil, err
	}
	return limitTo(files, paths), nil
}

func (a *App) gitOptions() []git.Option {
	return append([]git.Option{git.WithLogger(a.logger)}, a.gitOpts...)
}

// limitTo keeps files at or below one of the given paths. No paths keeps
// everything.
func limitTo(files, paths []string) []string {
	if len(paths) == 0 {
		return files
	}
	scopes := scopesOf(paths)

	var kept []string
	for _, f := range files {
		if inScope(f, scopes) {
			kept = append(kept, f)
		}
	}
	return kept
}

// limitBlobsTo applies the same path scope to mined history records.
func limitBlobsTo(blobs []git.HistoryBlob, repo *git.Repo, paths []string) []git.HistoryBlob {
	if len(paths) == 0 {
		return blobs
	}
	scopes := scopesOf(paths)

	var kept []git.HistoryBlob
	for _, b := range blobs {
		if inScope(repo.Abs(b.Path), scopes) {
			kept = append(kept, b)
		}
	}
	return kept
}

func scopesOf(paths []string) []string {
	var scopes []string
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			abs = resolved
		}
		scopes = append(scopes, abs)
	}
	return scopes
}

func inScope(path string, scopes []string) bool {
	for _, s := range scopes {
		if path == s || isBelow(s, path) {
			return true
		}
	}
	return false
}

func isBelow(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !filepath.IsAbs(rel) && (len(rel) < 3 || rel[:3] != ".."+string(filepath.Separator))
}

func firstOr(paths []string, def string) string {
	if len(paths) == 0 {
		return def
	}
	return paths[0]
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func failed(violations []rules.Violation, failOnWarn bool) bool {
	for _, v := range violations {
		if v.Severity == rules.Error || failOnWarn {
			return true
		}
	}
	return false
}
