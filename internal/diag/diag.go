// Package diag defines the error taxonomy surfaced to users.
//
// Every error that can reach the command line carries a stable Code (safe to
// match on in scripts and tests) and a Hint telling the user what to do next.
package diag

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-checkable error category.
type Code string

const (
	CodeConfigNotFound     Code = "sizelint::config::not_found"
	CodeConfigRead         Code = "sizelint::config::read_error"
	CodeConfigParse        Code = "sizelint::config::parse_error"
	CodeConfigInvalid      Code = "sizelint::config::invalid_value"
	CodeInvalidPattern     Code = "sizelint::config::invalid_pattern"
	CodeInvalidSizeFormat  Code = "sizelint::rule::invalid_size_format"
	CodeRuleExecution      Code = "sizelint::rule::execution_failed"
	CodeFileSystem         Code = "sizelint::filesystem::operation_failed"
	CodeCurrentDirectory   Code = "sizelint::filesystem::current_dir_error"
	CodeDiscovery          Code = "sizelint::discovery::failed"
	CodeGitRepoNotFound    Code = "sizelint::git::repo_not_found"
	CodeGitRefNotFound     Code = "sizelint::git::ref_not_found"
	CodeGitMultipleRoots   Code = "sizelint::git::multiple_roots"
	CodeGitCommandFailed   Code = "sizelint::git::command_failed"
	CodeGitSpawnFailed     Code = "sizelint::git::spawn_failed"
	CodeGitVersion         Code = "sizelint::git::unsupported_version"
	CodeGitOutputMalformed Code = "sizelint::git::malformed_output"
	CodeUnknown            Code = "sizelint::unknown"
)

var defaultHints = map[Code]string{
	CodeConfigNotFound:     "Create a sizelint.toml file or use --config to specify a custom path",
	CodeConfigRead:         "Check that the file exists and you have read permissions",
	CodeConfigParse:        "Check your TOML/YAML syntax - visit https://toml.io for format documentation",
	CodeInvalidPattern:     "Check your glob pattern syntax - use wildcards like *.txt or **/*.rs",
	CodeInvalidSizeFormat:  "Use formats like: 10MB, 1GB, 500KB, 1024B",
	CodeCurrentDirectory:   "Check your working directory permissions",
	CodeFileSystem:         "Check that the file exists and is readable",
	CodeGitRepoNotFound:    "Run inside a git repository or drop --staged/--working-tree/--git",
	CodeGitRefNotFound:     "Check the branch or commit name; run 'git branch -a' to list references",
	CodeGitMultipleRoots:   "Check paths from one repository at a time",
	CodeGitCommandFailed:   "Run the command shown above by hand to see git's full output",
	CodeGitSpawnFailed:     "Make sure git is installed and on PATH",
	CodeGitVersion:         "Upgrade git to 2.0 or newer",
	CodeGitOutputMalformed: "This is likely a bug; please report it with your git version",
}

// Error is a categorized, user-facing error.
type Error struct {
	Code    Code
	Message string
	Hint    string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Help returns the explicit hint, falling back to the default for the code.
func (e *Error) Help() string {
	if e.Hint != "" {
		return e.Hint
	}
	return defaultHints[e.Code]
}

// New creates an Error with the default hint for its code.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to err. A nil err yields nil.
func Wrap(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// WithHint returns e with an explicit hint, for chaining after New.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// CodeOf returns the code of the outermost *Error in err's chain,
// or CodeUnknown.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeUnknown
}

// HintOf returns the hint of the outermost *Error in err's chain, or "".
func HintOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Help()
	}
	return ""
}
