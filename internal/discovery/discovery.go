// Package discovery produces the candidate file lists that sizelint checks:
// a full tree walk, git change sets, explicit paths and mined history.
package discovery

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/steveyegge/sizelint/internal/diag"
	"github.com/steveyegge/sizelint/internal/git"
	"github.com/steveyegge/sizelint/internal/glob"
)

// Discovery finds files under one root. The git repository, when present,
// is located once at construction.
type Discovery struct {
	root     string
	repo     *git.Repo
	excludes *glob.Set
	logger   *slog.Logger
}

// Option configures a Discovery.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	gitOpts []git.Option
}

// WithLogger sets the logger, also used for git commands.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
			o.gitOpts = append(o.gitOpts, git.WithLogger(logger))
		}
	}
}

// WithGitOptions passes options through to the git repository.
func WithGitOptions(opts ...git.Option) Option {
	return func(o *options) { o.gitOpts = append(o.gitOpts, opts...) }
}

// New prepares discovery below root. Exclude patterns are matched against
// paths relative to root. A missing git repository is not an error; the
// git-based modes report it when called.
func New(ctx context.Context, root string, excludes []string, opts ...Option) (*Discovery, error) {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, diag.Wrap(err, diag.CodeCurrentDirectory, "cannot resolve %s", root)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	set, err := glob.Compile(excludes)
	if err != nil {
		return nil, err
	}

	d := &Discovery{root: abs, excludes: set, logger: o.logger}
	repo, err := git.NewRepo(ctx, abs, o.gitOpts...)
	if err != nil {
		d.logger.Debug("no git repository", "root", abs, "reason", err)
	} else {
		d.repo = repo
	}
	return d, nil
}

// Root returns the absolute discovery root.
func (d *Discovery) Root() string {
	return d.root
}

// InRepo reports whether the root is inside a git work tree.
func (d *Discovery) InRepo() bool {
	return d.repo != nil
}

// Repo returns the git repository, or nil outside one.
func (d *Discovery) Repo() *git.Repo {
	return d.repo
}

// AllFiles returns every regular file below the root, skipping .git and
// excluded paths. With respectGitignore inside a repository, ignored
// files are skipped too.
func (d *Discovery) AllFiles(ctx context.Context, respectGitignore bool) ([]string, error) {
	files, err := d.filesUnder(ctx, d.root, respectGitignore)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("discovered files", "root", d.root, "count", len(files), "respect_gitignore", respectGitignore)
	return files, nil
}

// StagedFiles returns staged files that still exist on disk.
func (d *Discovery) StagedFiles(ctx context.Context) ([]string, error) {
	repo, err := d.requireRepo()
	if err != nil {
		return nil, err
	}
	files, err := repo.StagedFiles(ctx)
	if err != nil {
		return nil, err
	}
	return d.filter(files), nil
}

// WorkingTreeFiles returns tracked files with unstaged modifications.
func (d *Discovery) WorkingTreeFiles(ctx context.Context) ([]string, error) {
	repo, err := d.requireRepo()
	if err != nil {
		return nil, err
	}
	files, err := repo.WorkingTreeFiles(ctx)
	if err != nil {
		return nil, err
	}
	return d.filter(files), nil
}

// DiffFiles returns files changed in a revision range that still exist on
// disk.
func (d *Discovery) DiffFiles(ctx context.Context, rangeSpec string) ([]string, error) {
	repo, err := d.requireRepo()
	if err != nil {
		return nil, err
	}
	files, err := repo.DiffFiles(ctx, rangeSpec)
	if err != nil {
		return nil, err
	}
	return d.filter(files), nil
}

// HistoryBlobs mines the range and drops excluded paths. Record paths stay
// relative to the repository root.
func (d *Discovery) HistoryBlobs(ctx context.Context, rangeSpec string) ([]git.HistoryBlob, error) {
	repo, err := d.requireRepo()
	if err != nil {
		return nil, err
	}
	blobs, err := repo.HistoryBlobs(ctx, rangeSpec)
	if err != nil {
		return nil, err
	}

	kept := blobs[:0]
	for _, b := range blobs {
		if !d.excluded(repo.Abs(b.Path)) {
			kept = append(kept, b)
		}
	}
	d.logger.Debug("history blobs after excludes", "mined", len(blobs), "kept", len(kept))
	return kept, nil
}

// SpecificPaths expands explicit arguments: files are taken as-is unless
// excluded, directories are walked honoring .gitignore. Paths that do not
// exist are skipped with a warning.
func (d *Discovery) SpecificPaths(ctx context.Context, paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, diag.Wrap(err, diag.CodeCurrentDirectory, "cannot resolve %s", p)
		}
		info, err := os.Stat(abs)
		if err != nil {
			d.logger.Warn("skipping path", "path", p, "error", err)
			continue
		}
		if info.IsDir() {
			under, err := d.filesUnder(ctx, abs, true)
			if err != nil {
				return nil, err
			}
			files = append(files, under...)
			continue
		}
		if !d.excluded(abs) {
			files = append(files, abs)
		}
	}
	return files, nil
}

func (d *Discovery) requireRepo() (*git.Repo, error) {
	if d.repo == nil {
		return nil, diag.Wrap(git.ErrRepoNotFound, diag.CodeGitRepoNotFound, "%s is not inside a git work tree", d.root)
	}
	return d.repo, nil
}

// filesUnder lists regular files below dir, via git when it can honor
// ignore files, otherwise by walking the tree.
func (d *Discovery) filesUnder(ctx context.Context, dir string, respectGitignore bool) ([]string, error) {
	if respectGitignore && d.repo != nil && within(d.repo.Root(), dir) {
		listed, err := d.repo.ListFiles(ctx)
		if err != nil {
			return nil, err
		}
		var under []string
		for _, f := range listed {
			if within(dir, f) {
				under = append(under, f)
			}
		}
		return d.filter(under), nil
	}
	return d.walk(dir)
}

func (d *Discovery) walk(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if entry.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.Type().IsRegular() && !d.excluded(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, diag.Wrap(err, diag.CodeDiscovery, "walking %s", dir)
	}
	return files, nil
}

// filter drops excluded paths and paths that are not regular files on disk.
func (d *Discovery) filter(paths []string) []string {
	kept := make([]string, 0, len(paths))
	for _, p := range paths {
		if d.excluded(p) {
			continue
		}
		info, err := os.Lstat(p)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				d.logger.Warn("skipping unreadable path", "path", p, "error", err)
			}
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

// excluded matches path relative to the root, or the absolute path when
// it lies outside the root.
func (d *Discovery) excluded(path string) bool {
	if d.excludes.Len() == 0 {
		return false
	}
	rel := path
	if within(d.root, path) {
		if r, err := filepath.Rel(d.root, path); err == nil {
			rel = r
		}
	}
	return d.excludes.Match(rel)
}

// within reports whether path is dir or below it.
func within(dir, path string) bool {
	if dir == path {
		return true
	}
	prefix := dir
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}

// SingleRepo verifies that every path belongs to the same git repository
// and returns its root.
func SingleRepo(ctx context.Context, paths []string, opts ...git.Option) (string, error) {
	var root string
	for _, p := range paths {
		repo, err := git.NewRepo(ctx, p, opts...)
		if err != nil {
			return "", err
		}
		switch {
		case root == "":
			root = repo.Root()
		case root != repo.Root():
			return "", diag.Wrap(git.ErrMultipleRoots, diag.CodeGitMultipleRoots,
				"%s and %s belong to different repositories", root, repo.Root())
		}
	}
	return root, nil
}
