package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/sizelint/internal/diag"
	"github.com/steveyegge/sizelint/internal/size"
)

func intPtr(i int) *int { return &i }

func mustRule(t *testing.T, spec Spec) *Rule {
	t.Helper()
	r, err := NewRule(spec)
	require.NoError(t, err)
	return r
}

func TestRule_ShouldSkip(t *testing.T) {
	r := mustRule(t, Spec{
		Name:     "media",
		Enabled:  true,
		Includes: []string{"*.mp4", "assets/**"},
		Excludes: []string{"assets/allowed/**"},
	})

	assert.False(t, r.ShouldSkip("video/clip.mp4"))
	assert.False(t, r.ShouldSkip("assets/logo.png"))
	assert.True(t, r.ShouldSkip("src/main.go"), "no include matches")
	assert.True(t, r.ShouldSkip("assets/allowed/huge.psd"), "exclude wins")

	all := mustRule(t, Spec{Name: "all", Enabled: true})
	assert.False(t, all.ShouldSkip("anything/at/all.txt"), "empty includes match everything")
}

func TestRule_CheckSizes(t *testing.T) {
	r := mustRule(t, Spec{Name: "default", Enabled: true, MaxSize: "10KB", WarnSize: "5KB"})

	t.Run("UnderBoth", func(t *testing.T) {
		assert.Empty(t, r.Check("small.txt", 1*size.KB))
	})

	t.Run("AtLimitIsAllowed", func(t *testing.T) {
		assert.Empty(t, r.Check("edge.txt", 5*size.KB))
	})

	t.Run("Warning", func(t *testing.T) {
		vs := r.Check("mid.txt", 6*size.KB)
		require.Len(t, vs, 1)
		assert.Equal(t, Warning, vs[0].Severity)
		assert.Equal(t, "File size 6.0 KB exceeds warning threshold 5.0 KB", vs[0].Message)
		assert.Equal(t, "6.0 KB", vs[0].Actual)
		assert.Equal(t, "≤ 5.0 KB", vs[0].Expected)
		assert.Equal(t, uint64(6*size.KB), vs[0].SortKey)
	})

	t.Run("ErrorSuppressesWarning", func(t *testing.T) {
		vs := r.Check("big.txt", 20*size.KB)
		require.Len(t, vs, 1)
		assert.Equal(t, Error, vs[0].Severity)
		assert.Equal(t, "File size 20.0 KB exceeds maximum allowed size 10.0 KB", vs[0].Message)
		assert.Equal(t, "default", vs[0].Rule)
	})
}

func TestRule_MatchFlagsBypassSize(t *testing.T) {
	errRule := mustRule(t, Spec{
		Name:         "no_archives",
		Enabled:      true,
		Includes:     []string{"*.zip"},
		MaxSize:      "1MB",
		ErrorOnMatch: true,
		WarnOnMatch:  true,
	})
	vs := errRule.Check("dist/release.zip", 1)
	require.Len(t, vs, 1)
	assert.Equal(t, Error, vs[0].Severity, "error_on_match takes precedence")
	assert.Equal(t, "File dist/release.zip matches rule pattern", vs[0].Message)
	assert.Equal(t, "matched", vs[0].Actual)
	assert.Equal(t, "not matched", vs[0].Expected)
	assert.Zero(t, vs[0].SortKey)
	assert.False(t, errRule.NeedsSize())

	warnRule := mustRule(t, Spec{Name: "lockfiles", Enabled: true, Includes: []string{"*.lock"}, WarnOnMatch: true, MaxSize: "1B"})
	vs = warnRule.Check("Cargo.lock", 10*size.MB)
	require.Len(t, vs, 1)
	assert.Equal(t, Warning, vs[0].Severity, "no size check when warn_on_match is set")

	assert.Empty(t, warnRule.Check("main.go", 10*size.MB), "skipped paths never match")
}

func TestRule_NoThresholdsNoFindings(t *testing.T) {
	r := mustRule(t, Spec{Name: "inert", Enabled: true})
	assert.Empty(t, r.Check("huge.iso", 100*size.GB))
	assert.True(t, r.NeedsSize(), "metadata is still read")
}

func TestNewRule_InvalidInput(t *testing.T) {
	_, err := NewRule(Spec{Name: "bad", MaxSize: "10XB"})
	require.Error(t, err)
	assert.Equal(t, diag.CodeInvalidSizeFormat, diag.CodeOf(err))

	_, err = NewRule(Spec{Name: "bad", WarnSize: "-5MB"})
	require.Error(t, err)
	assert.Equal(t, diag.CodeInvalidSizeFormat, diag.CodeOf(err))

	_, err = NewRule(Spec{Name: "bad", Includes: []string{"[oops"}})
	require.Error(t, err)
	assert.Equal(t, diag.CodeInvalidPattern, diag.CodeOf(err))
}

func TestRule_Info(t *testing.T) {
	r := mustRule(t, Spec{
		Name:        "media",
		Description: "Large media",
		Enabled:     true,
		Priority:    intPtr(50),
		MaxSize:     "50MB",
		Includes:    []string{"*.mp4"},
	})
	info := r.Info()
	assert.Equal(t, "media", info.Name)
	require.NotNil(t, info.Priority)
	assert.Equal(t, 50, *info.Priority)
	require.NotNil(t, info.MaxSize)
	assert.Equal(t, 50*size.MB, *info.MaxSize)
	assert.Nil(t, info.WarnSize)
	assert.Equal(t, []string{"*.mp4"}, info.Includes)

	p, ok := r.Priority()
	assert.True(t, ok)
	assert.Equal(t, 50, p)
}

func TestViolation_Diagnostics(t *testing.T) {
	v := Violation{Rule: "medium_files", Severity: Error, Actual: "6.0 MB", Expected: "≤ 5.0 MB"}
	assert.Equal(t, "sizelint::medium_files::error", v.DiagnosticCode())
	assert.Equal(t, "Actual: 6.0 MB, Expected: ≤ 5.0 MB", v.Help())

	v.Severity = Warning
	v.Actual = ""
	assert.Equal(t, "sizelint::medium_files::warning", v.DiagnosticCode())
	assert.Empty(t, v.Help())
	assert.True(t, Error > Warning)
}
