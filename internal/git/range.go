package git

import (
	"context"
	"errors"
	"strings"

	"github.com/steveyegge/sizelint/internal/diag"
)

// ResolveRange turns a user range expression into a bounded revision range.
//
// "A..B" and "A...B" are returned unchanged. A bare ref is verified and
// rewritten to "<merge-base(ref, HEAD)>..HEAD", i.e. what the current branch
// added since it diverged from ref.
func (r *Repo) ResolveRange(ctx context.Context, spec string) (string, error) {
	spec = strings.TrimSpace(spec)
	if strings.Contains(spec, "..") {
		if strings.HasPrefix(spec, "-") {
			return "", refNotFound(spec)
		}
		return spec, nil
	}

	if err := r.VerifyRef(ctx, spec); err != nil {
		return "", err
	}
	base, err := r.MergeBase(ctx, spec, "HEAD")
	if err != nil {
		return "", err
	}
	resolved := base + "..HEAD"
	r.logger.Debug("resolved git range", "input", spec, "range", resolved)
	return resolved, nil
}

// VerifyRef checks that ref names an existing commit.
func (r *Repo) VerifyRef(ctx context.Context, ref string) error {
	// A leading dash would be read as an option.
	if ref == "" || strings.HasPrefix(ref, "-") {
		return refNotFound(ref)
	}
	_, err := r.output(ctx, r.root, "rev-parse", "--verify", "--quiet", ref+"^{commit}")
	if err != nil {
		var ce *CommandError
		if errors.As(err, &ce) {
			return refNotFound(ref)
		}
		return err
	}
	return nil
}

// MergeBase returns the best common ancestor of a and b.
func (r *Repo) MergeBase(ctx context.Context, a, b string) (string, error) {
	out, err := r.output(ctx, r.root, "merge-base", a, b)
	if err != nil {
		return "", diag.Wrap(err, diag.CodeGitCommandFailed, "no merge base between %s and %s", a, b)
	}
	return strings.TrimSpace(string(out)), nil
}

// RevList lists the non-merge commits of a range, oldest first.
func (r *Repo) RevList(ctx context.Context, rangeSpec string) ([]string, error) {
	out, err := r.output(ctx, r.root, "rev-list", "--no-merges", "--reverse", rangeSpec, "--")
	if err != nil {
		return nil, err
	}
	return strings.Fields(string(out)), nil
}

func refNotFound(ref string) error {
	return diag.Wrap(ErrRefNotFound, diag.CodeGitRefNotFound, "git reference '%s'", ref)
}
