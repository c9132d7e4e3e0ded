package git

import (
	"errors"
	"fmt"
	"strings"

	"github.com/steveyegge/sizelint/internal/size"
)

var (
	// ErrRepoNotFound means the path is not inside a git work tree.
	ErrRepoNotFound = errors.New("not a git repository")

	// ErrRefNotFound means a branch, tag or commit could not be resolved.
	ErrRefNotFound = errors.New("git reference not found")

	// ErrMultipleRoots means the requested paths span more than one repository.
	ErrMultipleRoots = errors.New("paths span multiple git repositories")

	// ErrUnsupportedVersion means the git binary is too old for batch plumbing.
	ErrUnsupportedVersion = errors.New("unsupported git version")

	// ErrMalformedOutput means a git plumbing command printed a line we
	// could not parse.
	ErrMalformedOutput = errors.New("malformed git output")
)

// HistoryBlob is one version of one file as it was added or modified by a
// single commit in a mined range. The path need not exist at HEAD.
type HistoryBlob struct {
	// Path is relative to the repository root, slash separated.
	Path string

	// Size is the byte length of the blob in the object store.
	Size size.Bytes

	// Commit is the abbreviated id of the commit that introduced the blob.
	Commit string
}

// CommandError is returned when a git process exits non-zero.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("git %s failed (exit %d)", strings.Join(e.Args, " "), e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// BlobLookupError reports a cat-file line that could not be resolved for a
// specific object id.
type BlobLookupError struct {
	ObjectID string
	Line     string
}

func (e *BlobLookupError) Error() string {
	return fmt.Sprintf("cannot resolve size of object %s: %q", e.ObjectID, e.Line)
}

func (e *BlobLookupError) Unwrap() error {
	return ErrMalformedOutput
}

// shortCommitLen matches git's default abbreviation.
const shortCommitLen = 7

func shortCommit(id string) string {
	if len(id) <= shortCommitLen {
		return id
	}
	return id[:shortCommitLen]
}
