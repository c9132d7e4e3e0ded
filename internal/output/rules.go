package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/steveyegge/sizelint/internal/rules"
)

// RuleList prints every rule with its status, then the active and inactive
// rules with their settings.
func RuleList(w io.Writer, infos []rules.Info) {
	if len(infos) == 0 {
		fmt.Fprintln(w, "No rules configured or available.")
		return
	}

	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintln(w, color.New(color.Bold, color.FgBlue).Sprint("Configured Rules:"))
	fmt.Fprintln(w)

	var active, inactive []rules.Info
	for _, info := range infos {
		fmt.Fprintf(w, "  %s - %s [%s]\n", bold(info.Name), info.Description, enabledLabel(info.Enabled))
		if info.Enabled {
			active = append(active, info)
		} else {
			inactive = append(inactive, info)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, bold(fmt.Sprintf("Runtime: %d active, %d inactive rules", len(active), len(inactive))))

	if len(active) > 0 {
		fmt.Fprintf(w, "\n%s\n", color.New(color.Bold, color.FgGreen).Sprint("Active Rules:"))
		for _, info := range active {
			fmt.Fprintf(w, "  ✓ %s: %s\n", info.Name, ruleDetails(info))
		}
	}
	if len(inactive) > 0 {
		fmt.Fprintf(w, "\n%s\n", color.New(color.Bold, color.FgRed).Sprint("Inactive Rules:"))
		for _, info := range inactive {
			fmt.Fprintf(w, "  ✗ %s: %s\n", info.Name, ruleDetails(info))
		}
	}
}

func enabledLabel(enabled bool) string {
	if enabled {
		return color.GreenString("✓ enabled")
	}
	return color.RedString("✗ disabled")
}

func ruleDetails(info rules.Info) string {
	var details []string
	if info.Priority != nil {
		details = append(details, fmt.Sprintf("priority=%d", *info.Priority))
	} else {
		details = append(details, "priority=default")
	}
	if info.MaxSize != nil {
		details = append(details, "max="+info.MaxSize.String())
	}
	if info.WarnSize != nil {
		details = append(details, "warn="+info.WarnSize.String())
	}
	details = append(details, countDetail("includes", info.Includes), countDetail("excludes", info.Excludes))
	if info.WarnOnMatch {
		details = append(details, "warn_on_match=true")
	}
	if info.ErrorOnMatch {
		details = append(details, "error_on_match=true")
	}
	return strings.Join(details, ", ")
}

func countDetail(name string, patterns []string) string {
	if len(patterns) == 0 {
		return name + "=[]"
	}
	return fmt.Sprintf("%s=%d", name, len(patterns))
}

// RuleDescribe prints the full settings of one rule.
func RuleDescribe(w io.Writer, info rules.Info) {
	blue := color.New(color.Bold, color.FgBlue).SprintFunc()
	fmt.Fprintln(w, blue("Rule: "+info.Name))
	fmt.Fprintln(w, color.BlueString(strings.Repeat("━", 50)))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Description: %s\n", info.Description)
	fmt.Fprintf(w, "Status: %s\n", enabledLabel(info.Enabled))

	var severities []string
	if info.MaxSize != nil || info.ErrorOnMatch {
		severities = append(severities, color.RedString("Error"))
	}
	if info.WarnSize != nil || info.WarnOnMatch {
		severities = append(severities, color.YellowString("Warning"))
	}
	if len(severities) > 0 {
		fmt.Fprintf(w, "Can generate: %s\n", strings.Join(severities, ", "))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, color.New(color.Bold).Sprint("Configuration:"))
	if info.Priority != nil {
		fmt.Fprintf(w, "  Priority: %d\n", *info.Priority)
	} else {
		fmt.Fprintln(w, "  Priority: default (lowest)")
	}
	if info.MaxSize != nil {
		fmt.Fprintf(w, "  Max size: %s (%d bytes)\n", info.MaxSize, uint64(*info.MaxSize))
	}
	if info.WarnSize != nil {
		fmt.Fprintf(w, "  Warning size: %s (%d bytes)\n", info.WarnSize, uint64(*info.WarnSize))
	}
	if len(info.Includes) > 0 {
		fmt.Fprintf(w, "  Includes: %s\n", strings.Join(info.Includes, ", "))
	} else {
		fmt.Fprintln(w, "  Includes: all files")
	}
	if len(info.Excludes) > 0 {
		fmt.Fprintf(w, "  Excludes: %s\n", strings.Join(info.Excludes, ", "))
	} else {
		fmt.Fprintln(w, "  Excludes: none")
	}
	if info.WarnOnMatch {
		fmt.Fprintln(w, "  Warn on match: enabled")
	}
	if info.ErrorOnMatch {
		fmt.Fprintln(w, "  Error on match: enabled")
	}
}
