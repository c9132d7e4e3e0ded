package git

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/steveyegge/sizelint/internal/diag"
	"github.com/steveyegge/sizelint/internal/size"
)

// submoduleMode is the tree mode of a gitlink entry.
const submoduleMode = "160000"

// diffEntry is one added or modified path reported by diff-tree.
type diffEntry struct {
	commit string
	path   string
	blob   string
}

// HistoryBlobs returns one record for every blob added or modified by a
// non-merge commit in rangeSpec (see ResolveRange), oldest commit first.
//
// Commits are split into one chunk per CPU and each chunk is diffed by a
// single `git diff-tree --stdin` process. All distinct blob sizes are then
// resolved by one `git cat-file --batch-check` process. Any failure aborts
// the whole operation.
func (r *Repo) HistoryBlobs(ctx context.Context, rangeSpec string) ([]HistoryBlob, error) {
	start := time.Now()

	resolved, err := r.ResolveRange(ctx, rangeSpec)
	if err != nil {
		return nil, err
	}
	commits, err := r.RevList(ctx, resolved)
	if err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		return nil, nil
	}

	chunks := chunkCommits(commits, runtime.NumCPU())
	perChunk := make([][]diffEntry, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		g.Go(func() error {
			if err := r.procs.Acquire(gctx, 1); err != nil {
				return err
			}
			defer r.procs.Release(1)

			entries, err := r.diffTreeChunk(gctx, chunk)
			if err != nil {
				return err
			}
			perChunk[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var entries []diffEntry
	for _, chunk := range perChunk {
		entries = append(entries, chunk...)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	ids := distinctBlobs(entries)
	sizes, err := r.blobSizes(ctx, ids)
	if err != nil {
		return nil, err
	}

	blobs := make([]HistoryBlob, 0, len(entries))
	for _, e := range entries {
		blobs = append(blobs, HistoryBlob{
			Path:   e.path,
			Size:   sizes[e.blob],
			Commit: shortCommit(e.commit),
		})
	}

	r.logger.Debug("mined history blobs",
		"range", resolved,
		"commits", len(commits),
		"chunks", len(chunks),
		"blobs", len(blobs),
		"distinct", len(ids),
		"elapsed", time.Since(start))
	return blobs, nil
}

// chunkCommits splits commits into contiguous chunks of ceil(n/units),
// with a minimum chunk size of one.
func chunkCommits(commits []string, units int) [][]string {
	if len(commits) == 0 {
		return nil
	}
	if units < 1 {
		units = 1
	}
	chunkSize := (len(commits) + units - 1) / units
	if chunkSize < 1 {
		chunkSize = 1
	}

	chunks := make([][]string, 0, (len(commits)+chunkSize-1)/chunkSize)
	for i := 0; i < len(commits); i += chunkSize {
		end := min(i+chunkSize, len(commits))
		chunks = append(chunks, commits[i:end])
	}
	return chunks
}

func (r *Repo) diffTreeChunk(ctx context.Context, commits []string) ([]diffEntry, error) {
	args := []string{
		"-c", "core.quotePath=false",
		"diff-tree", "--stdin", "-r", "--root", "--no-renames", "--diff-filter=ACMRT",
	}

	var (
		entries []diffEntry
		current string
	)
	err := r.runBatch(ctx, args, commits, func(line string) error {
		entry, commit, err := parseDiffTreeLine(line)
		if err != nil {
			return err
		}
		switch {
		case commit != "":
			current = commit
		case entry != nil:
			if current == "" {
				return fmt.Errorf("%w: entry before commit header: %q", ErrMalformedOutput, line)
			}
			entry.commit = current
			entries = append(entries, *entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// parseDiffTreeLine parses one line of `diff-tree --stdin -r` output.
// It returns a commit id for header lines, an entry for change lines, or
// neither for blank lines and gitlinks.
//
// Change lines look like
//
//	:100644 100644 <src> <dst> M\tpath
//	:100644 100644 <src> <dst> R087\told\tnew
func parseDiffTreeLine(line string) (*diffEntry, string, error) {
	if line == "" {
		return nil, "", nil
	}
	if !strings.HasPrefix(line, ":") {
		if isObjectID(line) {
			return nil, line, nil
		}
		return nil, "", fmt.Errorf("%w: unexpected diff-tree line %q", ErrMalformedOutput, line)
	}

	meta, paths, ok := strings.Cut(line, "\t")
	if !ok {
		return nil, "", fmt.Errorf("%w: diff-tree line without path %q", ErrMalformedOutput, line)
	}
	fields := strings.Fields(meta)
	if len(fields) < 5 {
		return nil, "", fmt.Errorf("%w: short diff-tree line %q", ErrMalformedOutput, line)
	}
	if fields[1] == submoduleMode {
		return nil, "", nil
	}

	// Renames and copies list source then destination; keep the destination.
	parts := strings.Split(paths, "\t")
	path, err := unquotePath(parts[len(parts)-1])
	if err != nil {
		return nil, "", fmt.Errorf("%w: bad path in %q: %v", ErrMalformedOutput, line, err)
	}
	return &diffEntry{path: path, blob: fields[3]}, "", nil
}

// unquotePath reverses git's C-style quoting of unusual path names.
func unquotePath(p string) (string, error) {
	if len(p) >= 2 && p[0] == '"' && p[len(p)-1] == '"' {
		return strconv.Unquote(p)
	}
	return p, nil
}

func isObjectID(s string) bool {
	if len(s) != 40 && len(s) != 64 {
		return false
	}
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

func distinctBlobs(entries []diffEntry) []string {
	seen := make(map[string]struct{}, len(entries))
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.blob]; ok {
			continue
		}
		seen[e.blob] = struct{}{}
		ids = append(ids, e.blob)
	}
	return ids
}

// blobSizes resolves object sizes with a single cat-file process.
func (r *Repo) blobSizes(ctx context.Context, ids []string) (map[string]size.Bytes, error) {
	sizes := make(map[string]size.Bytes, len(ids))
	next := 0

	err := r.runBatch(ctx, []string{"cat-file", "--batch-check"}, ids, func(line string) error {
		var id string
		if next < len(ids) {
			id = ids[next]
		}
		next++

		n, err := parseBatchCheckLine(id, line)
		if err != nil {
			return err
		}
		sizes[id] = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		if _, ok := sizes[id]; !ok {
			return nil, diag.Wrap(&BlobLookupError{ObjectID: id}, diag.CodeGitOutputMalformed, "cat-file returned no line")
		}
	}
	return sizes, nil
}

// parseBatchCheckLine parses "<id> <type> <size>" for the object requested
// as id. "<id> missing" and other shapes become a *BlobLookupError.
func parseBatchCheckLine(id, line string) (size.Bytes, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 || (id != "" && fields[0] != id) {
		return 0, &BlobLookupError{ObjectID: id, Line: line}
	}
	n, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return 0, &BlobLookupError{ObjectID: id, Line: line}
	}
	return size.Bytes(n), nil
}
