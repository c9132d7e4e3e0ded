package rules

import "fmt"

// Severity orders findings: Error outranks Warning.
type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Violation is one finding produced by a rule. Several violations may share
// a path, e.g. one per historical version of a file.
type Violation struct {
	Path     string
	Rule     string
	Message  string
	Severity Severity

	// Actual and Expected are display strings such as "12.0 MB" / "≤ 10.0 MB"
	// or "matched" / "not matched". Either may be empty.
	Actual   string
	Expected string

	// SortKey is the byte size that drove the finding. It only decides which
	// of two violations for the same path survives deduplication.
	SortKey uint64

	// Commit is the short id of the commit that introduced the blob, for
	// violations found in history. Empty for live files.
	Commit string
}

// DiagnosticCode returns a stable code such as "sizelint::default::error".
func (v Violation) DiagnosticCode() string {
	return fmt.Sprintf("sizelint::%s::%s", v.Rule, v.Severity)
}

// Help describes the measured and allowed values, or "" when unknown.
func (v Violation) Help() string {
	if v.Actual == "" || v.Expected == "" {
		return ""
	}
	return fmt.Sprintf("Actual: %s, Expected: %s", v.Actual, v.Expected)
}
