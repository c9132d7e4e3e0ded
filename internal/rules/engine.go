package rules

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/steveyegge/sizelint/internal/diag"
	"github.com/steveyegge/sizelint/internal/git"
	"github.com/steveyegge/sizelint/internal/size"
)

// Engine picks, for each path, the single highest-priority rule that
// applies and runs only that rule.
//
// Rules are registered before checking starts. After that the engine is
// read-only and its Check methods may run concurrently.
type Engine struct {
	rules   []*Rule
	root    string
	workers int
	logger  *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRoot sets the directory that include/exclude patterns are relative
// to. Paths outside it are matched as given.
func WithRoot(root string) EngineOption {
	return func(e *Engine) { e.root = root }
}

// WithWorkers bounds how many files are checked at once.
func WithWorkers(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine returns an engine with no rules.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		workers: runtime.GOMAXPROCS(0),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewEngineFromSpecs builds every rule, failing on the first invalid spec.
func NewEngineFromSpecs(specs []Spec, opts ...EngineOption) (*Engine, error) {
	e := NewEngine(opts...)
	for _, spec := range specs {
		r, err := NewRule(spec)
		if err != nil {
			return nil, err
		}
		e.Add(r)
	}
	return e, nil
}

// Add registers a rule. Registration order breaks priority ties.
func (e *Engine) Add(r *Rule) {
	e.rules = append(e.rules, r)
}

// Rules returns the registered rules in registration order.
func (e *Engine) Rules() []*Rule {
	return append([]*Rule(nil), e.rules...)
}

// Rule looks up a rule by name.
func (e *Engine) Rule(name string) (*Rule, bool) {
	for _, r := range e.rules {
		if r.name == name {
			return r, true
		}
	}
	return nil, false
}

// EnabledRuleNames lists the names of enabled rules.
func (e *Engine) EnabledRuleNames() []string {
	var names []string
	for _, r := range e.rules {
		if r.enabled {
			names = append(names, r.name)
		}
	}
	return names
}

// Select returns the rule that governs path, or nil. Among enabled rules
// that do not skip path, the highest priority wins; unset priorities rank
// last and ties go to the earlier registered rule.
func (e *Engine) Select(path string) *Rule {
	rel := e.relative(path)

	var candidates []*Rule
	for _, r := range e.rules {
		if r.enabled && !r.ShouldSkip(rel) {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return higherPriority(candidates[i], candidates[j])
	})
	return candidates[0]
}

func higherPriority(a, b *Rule) bool {
	switch {
	case a.priority == nil:
		return false
	case b.priority == nil:
		return true
	default:
		return *a.priority > *b.priority
	}
}

// CheckFile checks one file on disk. The size is only read when the
// selected rule needs it.
func (e *Engine) CheckFile(path string) ([]Violation, error) {
	r := e.Select(path)
	if r == nil {
		return nil, nil
	}

	var n size.Bytes
	if r.NeedsSize() {
		info, err := os.Stat(path)
		if err != nil {
			return nil, diag.Wrap(err, diag.CodeFileSystem, "Failed to get file metadata %s", path)
		}
		n = size.Bytes(info.Size())
	}
	return e.run(r, path, n), nil
}

// CheckFiles checks every path concurrently. The first stat failure aborts
// the batch and no partial results are returned.
func (e *Engine) CheckFiles(ctx context.Context, paths []string) ([]Violation, error) {
	results := make([][]Violation, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			vs, err := e.CheckFile(path)
			if err != nil {
				return err
			}
			results[i] = vs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	violations := flatten(results)
	e.logger.Debug("checked files", "files", len(paths), "violations", len(violations))
	return violations, nil
}

// CheckHistoryBlobs checks mined history records using their recorded
// sizes. Record paths are relative to repoRoot; violations carry absolute
// paths and the record's commit. Several versions of one path collapse to
// the largest.
func (e *Engine) CheckHistoryBlobs(ctx context.Context, repoRoot string, blobs []git.HistoryBlob) ([]Violation, error) {
	results := make([][]Violation, len(blobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, blob := range blobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(repoRoot, filepath.FromSlash(blob.Path))
			r := e.Select(path)
			if r == nil {
				return nil
			}
			vs := e.run(r, path, blob.Size)
			for j := range vs {
				vs[j].Commit = blob.Commit
			}
			results[i] = vs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	violations := Dedup(flatten(results))
	e.logger.Debug("checked history blobs", "blobs", len(blobs), "violations", len(violations))
	return violations, nil
}

// run checks rel-path patterns but reports the path as given.
func (e *Engine) run(r *Rule, path string, n size.Bytes) []Violation {
	vs := r.Check(e.relative(path), n)
	for i := range vs {
		vs[i].Path = path
	}
	return vs
}

// relative returns path relative to the engine root in slash form, or
// path unchanged when it is outside the root or no root is set.
func (e *Engine) relative(path string) string {
	if e.root == "" || !filepath.IsAbs(path) {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(e.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func flatten(groups [][]Violation) []Violation {
	var out []Violation
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
