package rules

import (
	"fmt"

	"github.com/steveyegge/sizelint/internal/diag"
	"github.com/steveyegge/sizelint/internal/glob"
	"github.com/steveyegge/sizelint/internal/size"
)

// Spec is the configured, unvalidated form of a rule.
type Spec struct {
	Name        string
	Enabled     bool
	Description string

	// Priority is nil when unset. An unset priority ranks below any set one.
	Priority *int

	// MaxSize and WarnSize are size strings ("10MB"); empty means no limit.
	MaxSize  string
	WarnSize string

	Includes []string
	Excludes []string

	WarnOnMatch  bool
	ErrorOnMatch bool
}

// Rule is a validated Spec. It is immutable and safe for concurrent use.
type Rule struct {
	name         string
	description  string
	enabled      bool
	priority     *int
	maxSize      *size.Bytes
	warnSize     *size.Bytes
	includes     *glob.Set
	excludes     *glob.Set
	warnOnMatch  bool
	errorOnMatch bool
}

// NewRule parses sizes and compiles patterns.
func NewRule(spec Spec) (*Rule, error) {
	r := &Rule{
		name:         spec.Name,
		description:  spec.Description,
		enabled:      spec.Enabled,
		warnOnMatch:  spec.WarnOnMatch,
		errorOnMatch: spec.ErrorOnMatch,
	}
	if spec.Priority != nil {
		p := *spec.Priority
		r.priority = &p
	}

	var err error
	if r.maxSize, err = parseLimit(spec.Name, "max_size", spec.MaxSize); err != nil {
		return nil, err
	}
	if r.warnSize, err = parseLimit(spec.Name, "warn_size", spec.WarnSize); err != nil {
		return nil, err
	}
	if r.includes, err = glob.Compile(spec.Includes); err != nil {
		return nil, fmt.Errorf("rule %s includes: %w", spec.Name, err)
	}
	if r.excludes, err = glob.Compile(spec.Excludes); err != nil {
		return nil, fmt.Errorf("rule %s excludes: %w", spec.Name, err)
	}
	return r, nil
}

func parseLimit(rule, field, value string) (*size.Bytes, error) {
	if value == "" {
		return nil, nil
	}
	b, err := size.Parse(value)
	if err != nil {
		return nil, diag.Wrap(err, diag.CodeInvalidSizeFormat, "rule %s: invalid %s", rule, field)
	}
	return &b, nil
}

func (r *Rule) Name() string        { return r.name }
func (r *Rule) Description() string { return r.description }
func (r *Rule) Enabled() bool       { return r.enabled }

// Priority returns the priority and whether one was set.
func (r *Rule) Priority() (int, bool) {
	if r.priority == nil {
		return 0, false
	}
	return *r.priority, true
}

// ShouldSkip reports whether the rule does not apply to path: includes are
// set and none match, or any exclude matches. Paths are root-relative.
func (r *Rule) ShouldSkip(path string) bool {
	if r.includes.Len() > 0 && !r.includes.Match(path) {
		return true
	}
	return r.excludes.Match(path)
}

// NeedsSize reports whether the file's metadata must be read before Check.
// Pattern-match rules decide on the path alone; every other rule reads it,
// even without thresholds, so unreadable files are never passed silently.
func (r *Rule) NeedsSize() bool {
	return !r.errorOnMatch && !r.warnOnMatch
}

// Check evaluates one file. The first applicable condition wins:
// error_on_match, warn_on_match, max size, warn size.
func (r *Rule) Check(path string, n size.Bytes) []Violation {
	if r.ShouldSkip(path) {
		return nil
	}

	switch {
	case r.errorOnMatch:
		return []Violation{r.matched(path, Error)}
	case r.warnOnMatch:
		return []Violation{r.matched(path, Warning)}
	}

	if r.maxSize != nil && n > *r.maxSize {
		return []Violation{r.exceeded(path, n, *r.maxSize, Error,
			fmt.Sprintf("File size %s exceeds maximum allowed size %s", n, *r.maxSize))}
	}
	if r.warnSize != nil && n > *r.warnSize {
		return []Violation{r.exceeded(path, n, *r.warnSize, Warning,
			fmt.Sprintf("File size %s exceeds warning threshold %s", n, *r.warnSize))}
	}
	return nil
}

func (r *Rule) matched(path string, sev Severity) Violation {
	return Violation{
		Path:     path,
		Rule:     r.name,
		Message:  fmt.Sprintf("File %s matches rule pattern", path),
		Severity: sev,
		Actual:   "matched",
		Expected: "not matched",
	}
}

func (r *Rule) exceeded(path string, n, limit size.Bytes, sev Severity, msg string) Violation {
	return Violation{
		Path:     path,
		Rule:     r.name,
		Message:  msg,
		Severity: sev,
		Actual:   n.String(),
		Expected: "≤ " + limit.String(),
		SortKey:  uint64(n),
	}
}

// Info is a read-only summary of a rule for listings.
type Info struct {
	Name         string
	Description  string
	Enabled      bool
	Priority     *int
	MaxSize      *size.Bytes
	WarnSize     *size.Bytes
	Includes     []string
	Excludes     []string
	WarnOnMatch  bool
	ErrorOnMatch bool
}

// Info returns a copy of the rule's settings.
func (r *Rule) Info() Info {
	info := Info{
		Name:         r.name,
		Description:  r.description,
		Enabled:      r.enabled,
		Includes:     r.includes.Patterns(),
		Excludes:     r.excludes.Patterns(),
		WarnOnMatch:  r.warnOnMatch,
		ErrorOnMatch: r.errorOnMatch,
	}
	if r.priority != nil {
		p := *r.priority
		info.Priority = &p
	}
	if r.maxSize != nil {
		m := *r.maxSize
		info.MaxSize = &m
	}
	if r.warnSize != nil {
		w := *r.warnSize
		info.WarnSize = &w
	}
	return info
}
