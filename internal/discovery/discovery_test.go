package discovery

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/sizelint/internal/diag"
	"github.com/steveyegge/sizelint/internal/git"
	"github.com/steveyegge/sizelint/internal/gittest"
)

func relAll(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	sort.Strings(out)
	return out
}

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(f), 0o644))
	}
}

func TestAllFiles_PlainDirectory(t *testing.T) {
	ctx := context.Background()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	writeTree(t, root, "a.txt", "sub/b.bin", "vendor/c.txt", ".git/HEAD")

	d, err := New(ctx, root, []string{"vendor/**"})
	require.NoError(t, err)
	if d.InRepo() {
		t.Skip("temp dir is inside a git work tree")
	}

	files, err := d.AllFiles(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "sub/b.bin"}, relAll(t, root, files))
}

func TestAllFiles_RespectsGitignore(t *testing.T) {
	ctx := context.Background()
	repo := gittest.New(t)
	repo.Write(".gitignore", []byte("*.log\n"))
	repo.Write("tracked.txt", []byte("x"))
	repo.CommitAll("init")
	repo.Write("debug.log", []byte("noise"))
	repo.Write("untracked.txt", []byte("y"))

	d, err := New(ctx, repo.Dir, nil)
	require.NoError(t, err)
	require.True(t, d.InRepo())

	files, err := d.AllFiles(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []string{".gitignore", "tracked.txt", "untracked.txt"}, relAll(t, repo.Dir, files))

	files, err = d.AllFiles(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []string{".gitignore", "debug.log", "tracked.txt", "untracked.txt"}, relAll(t, repo.Dir, files))
}

func TestAllFiles_SubdirectoryRoot(t *testing.T) {
	ctx := context.Background()
	repo := gittest.New(t)
	repo.Write("top.txt", []byte("x"))
	repo.Write("pkg/inner.txt", []byte("x"))
	repo.Write("pkg/skip.dat", []byte("x"))
	repo.CommitAll("init")

	d, err := New(ctx, repo.Path("pkg"), []string{"*.dat"})
	require.NoError(t, err)

	files, err := d.AllFiles(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg/inner.txt"}, relAll(t, repo.Dir, files))
}

func TestGitModes(t *testing.T) {
	ctx := context.Background()
	repo := gittest.New(t)
	repo.Write("keep.txt", []byte("v1"))
	repo.Write("gone.txt", []byte("v1"))
	repo.Write("build/out.bin", []byte("v1"))
	base := repo.CommitAll("base")

	repo.Write("keep.txt", []byte("v2"))
	repo.Write("build/out.bin", []byte("v2"))
	repo.CommitAll("change")

	repo.Write("staged.txt", []byte("s"))
	repo.Git("add", "staged.txt")
	repo.Write("keep.txt", []byte("v3"))
	repo.Remove("gone.txt")

	d, err := New(ctx, repo.Dir, []string{"build/**"})
	require.NoError(t, err)

	t.Run("Staged", func(t *testing.T) {
		files, err := d.StagedFiles(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"staged.txt"}, relAll(t, repo.Dir, files))
	})

	t.Run("WorkingTreeDropsMissing", func(t *testing.T) {
		files, err := d.WorkingTreeFiles(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"keep.txt"}, relAll(t, repo.Dir, files))
	})

	t.Run("DiffExcludes", func(t *testing.T) {
		files, err := d.DiffFiles(ctx, base+"..HEAD")
		require.NoError(t, err)
		assert.Equal(t, []string{"keep.txt"}, relAll(t, repo.Dir, files))
	})

	t.Run("HistoryExcludes", func(t *testing.T) {
		blobs, err := d.HistoryBlobs(ctx, base+"..HEAD")
		require.NoError(t, err)
		require.Len(t, blobs, 1)
		assert.Equal(t, "keep.txt", blobs[0].Path)
	})
}

func TestGitModes_OutsideRepo(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	d, err := New(ctx, root, nil)
	require.NoError(t, err)
	if d.InRepo() {
		t.Skip("temp dir is inside a git work tree")
	}

	_, err = d.StagedFiles(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, git.ErrRepoNotFound)
	assert.Equal(t, diag.CodeGitRepoNotFound, diag.CodeOf(err))

	_, err = d.HistoryBlobs(ctx, "main")
	assert.ErrorIs(t, err, git.ErrRepoNotFound)
}

func TestSpecificPaths(t *testing.T) {
	ctx := context.Background()
	repo := gittest.New(t)
	repo.Write(".gitignore", []byte("*.tmp\n"))
	repo.Write("one.txt", []byte("x"))
	repo.Write("docs/a.md", []byte("x"))
	repo.Write("docs/scratch.tmp", []byte("x"))
	repo.Write("skip.lock", []byte("x"))
	repo.CommitAll("init")

	d, err := New(ctx, repo.Dir, []string{"*.lock"})
	require.NoError(t, err)

	files, err := d.SpecificPaths(ctx, []string{
		repo.Path("one.txt"),
		repo.Path("docs"),
		repo.Path("skip.lock"),
		repo.Path("missing.txt"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/a.md", "one.txt"}, relAll(t, repo.Dir, files))
}

func TestNew_InvalidExclude(t *testing.T) {
	_, err := New(context.Background(), t.TempDir(), []string{"[oops"})
	require.Error(t, err)
	assert.Equal(t, diag.CodeInvalidPattern, diag.CodeOf(err))
}

func TestSingleRepo(t *testing.T) {
	ctx := context.Background()
	a := gittest.New(t)
	b := gittest.New(t)
	a.Write("x.txt", []byte("x"))
	b.Write("y.txt", []byte("y"))

	root, err := SingleRepo(ctx, []string{a.Path("x.txt"), a.Dir})
	require.NoError(t, err)
	assert.Equal(t, a.Dir, root)

	_, err = SingleRepo(ctx, []string{a.Path("x.txt"), b.Path("y.txt")})
	require.Error(t, err)
	assert.ErrorIs(t, err, git.ErrMultipleRoots)
	assert.Equal(t, diag.CodeGitMultipleRoots, diag.CodeOf(err))
}

func TestWithin(t *testing.T) {
	sep := string(filepath.Separator)
	root := sep + filepath.Join("repo", "pkg")
	assert.True(t, within(root, root))
	assert.True(t, within(root, filepath.Join(root, "a.go")))
	assert.False(t, within(root, root+"2"+sep+"a.go"))
	assert.False(t, within(root, sep+"repo"))
}
