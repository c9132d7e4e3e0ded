// Package output renders check results for people (coloured text) and for
// machines (JSON).
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/steveyegge/sizelint/internal/rules"
)

// Format selects a renderer.
type Format string

const (
	FormatHuman Format = "human"
	FormatJSON  Format = "json"
)

// ParseFormat accepts "human" or "json", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatHuman:
		return FormatHuman, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want human or json)", s)
	}
}

// Summary is the JSON report.
type Summary struct {
	RunID             string            `json:"run_id"`
	TotalFilesChecked int               `json:"total_files_checked"`
	TotalViolations   int               `json:"total_violations"`
	ErrorCount        int               `json:"error_count"`
	WarningCount      int               `json:"warning_count"`
	RulesRun          []string          `json:"rules_run"`
	Violations        []ViolationOutput `json:"violations"`
}

// ViolationOutput is one violation with its path relative to the base
// directory.
type ViolationOutput struct {
	Path          string  `json:"path"`
	RuleName      string  `json:"rule_name"`
	Message       string  `json:"message"`
	Severity      string  `json:"severity"`
	ActualValue   *string `json:"actual_value"`
	ExpectedValue *string `json:"expected_value"`
	Code          string  `json:"code"`
	Commit        string  `json:"commit,omitempty"`
}

// Formatter writes reports to one writer.
type Formatter struct {
	format Format
	quiet  bool
	base   string
	w      io.Writer
}

// NewFormatter returns a formatter. Paths in reports are shown relative to
// base when they lie below it.
func NewFormatter(format Format, quiet bool, base string, w io.Writer) *Formatter {
	return &Formatter{format: format, quiet: quiet, base: base, w: w}
}

// Results renders the violations and the closing summary.
func (f *Formatter) Results(violations []rules.Violation, filesChecked int, elapsed time.Duration) error {
	summary := f.Summarize(violations, filesChecked)
	if f.format == FormatJSON {
		return f.json(summary)
	}
	return f.human(violations, summary, elapsed)
}

// Summarize counts violations by severity and converts paths.
func (f *Formatter) Summarize(violations []rules.Violation, filesChecked int) Summary {
	s := Summary{
		RunID:             uuid.NewString(),
		TotalFilesChecked: filesChecked,
		TotalViolations:   len(violations),
		RulesRun:          []string{},
		Violations:        make([]ViolationOutput, 0, len(violations)),
	}

	seen := make(map[string]bool)
	for _, v := range violations {
		if !seen[v.Rule] {
			seen[v.Rule] = true
			s.RulesRun = append(s.RulesRun, v.Rule)
		}
		if v.Severity == rules.Error {
			s.ErrorCount++
		} else {
			s.WarningCount++
		}
		s.Violations = append(s.Violations, ViolationOutput{
			Path:          f.relative(v.Path),
			RuleName:      v.Rule,
			Message:       v.Message,
			Severity:      v.Severity.String(),
			ActualValue:   optional(v.Actual),
			ExpectedValue: optional(v.Expected),
			Code:          v.DiagnosticCode(),
			Commit:        v.Commit,
		})
	}
	sort.Strings(s.RulesRun)
	return s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (f *Formatter) relative(path string) string {
	if f.base == "" {
		return path
	}
	rel, err := filepath.Rel(f.base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

func (f *Formatter) json(summary Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	_, err = fmt.Fprintln(f.w, string(data))
	return err
}

func (f *Formatter) human(violations []rules.Violation, summary Summary, elapsed time.Duration) error {
	bold := color.New(color.Bold).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow, color.Bold).SprintFunc()
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	gutter := gray("┃")

	byRule := make(map[string][]rules.Violation)
	for _, v := range violations {
		byRule[v.Rule] = append(byRule[v.Rule], v)
	}

	var b strings.Builder
	for _, name := range summary.RulesRun {
		fmt.Fprintln(&b, bold(name))
		fmt.Fprintln(&b, gutter)

		var errs, warns []rules.Violation
		for _, v := range byRule[name] {
			if v.Severity == rules.Error {
				errs = append(errs, v)
			} else {
				warns = append(warns, v)
			}
		}

		for _, group := range []struct {
			items  []rules.Violation
			marker string
		}{
			{errs, red("[E]")},
			{warns, yellow("[W]")},
		} {
			if len(group.items) == 0 {
				continue
			}
			sort.SliceStable(group.items, func(i, j int) bool {
				return group.items[i].SortKey > group.items[j].SortKey
			})
			fmt.Fprintf(&b, "%s %s %s\n", gutter, group.marker, group.items[0].Message)
			for _, v := range group.items {
				line := bold(f.relative(v.Path))
				if v.Actual != "" {
					line += fmt.Sprintf(" (%s)", v.Actual)
				}
				if v.Commit != "" {
					line += " " + gray("@"+v.Commit)
				}
				fmt.Fprintf(&b, "%s     %s\n", gutter, line)
			}
		}
		fmt.Fprintln(&b)
	}

	if !f.quiet {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, gray(fmt.Sprintf("Analysis took %.2fs", elapsed.Seconds())))

		parts := []string{fmt.Sprintf("Checked %d files", summary.TotalFilesChecked)}
		if summary.ErrorCount > 0 {
			parts = append(parts, fmt.Sprintf("%s %s", red(summary.ErrorCount), plural(summary.ErrorCount, "error")))
		}
		if summary.WarningCount > 0 {
			parts = append(parts, fmt.Sprintf("%s %s", yellow(summary.WarningCount), plural(summary.WarningCount, "warning")))
		}

		status := green("PASSED")
		switch {
		case summary.ErrorCount > 0:
			status = red("FAILED")
		case summary.WarningCount > 0:
			status = yellow("WARNINGS")
		}
		fmt.Fprintf(&b, "%s. [%s]\n", strings.Join(parts, ", "), status)
	}

	_, err := io.WriteString(f.w, b.String())
	return err
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
