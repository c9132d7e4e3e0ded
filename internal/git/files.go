package git

import (
	"context"
)

// changedFilter keeps added, copied, modified, renamed and type-changed
// paths. Deletions have nothing left on disk to measure.
const changedFilter = "--diff-filter=ACMRT"

// StagedFiles returns absolute paths of files staged in the index.
func (r *Repo) StagedFiles(ctx context.Context) ([]string, error) {
	return r.diffNames(ctx, "--staged")
}

// WorkingTreeFiles returns absolute paths of tracked files with unstaged
// modifications.
func (r *Repo) WorkingTreeFiles(ctx context.Context) ([]string, error) {
	return r.diffNames(ctx)
}

// DiffFiles returns absolute paths of files changed in rangeSpec, which is
// resolved the same way as for HistoryBlobs.
func (r *Repo) DiffFiles(ctx context.Context, rangeSpec string) ([]string, error) {
	resolved, err := r.ResolveRange(ctx, rangeSpec)
	if err != nil {
		return nil, err
	}
	return r.diffNames(ctx, resolved, "--")
}

// ListFiles returns absolute paths of tracked and untracked files, honoring
// .gitignore, .git/info/exclude and the global excludes file.
func (r *Repo) ListFiles(ctx context.Context) ([]string, error) {
	out, err := r.output(ctx, r.root, "ls-files", "-z", "--cached", "--others", "--exclude-standard")
	if err != nil {
		return nil, err
	}

	// Unmerged paths are listed once per stage.
	seen := make(map[string]struct{})
	var files []string
	for _, p := range nulSplit(out) {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}
	return r.absAll(files), nil
}

func (r *Repo) diffNames(ctx context.Context, extra ...string) ([]string, error) {
	args := append([]string{"diff", "-z", "--name-only", "--no-renames", changedFilter}, extra...)
	out, err := r.output(ctx, r.root, args...)
	if err != nil {
		return nil, err
	}
	return r.absAll(nulSplit(out)), nil
}
