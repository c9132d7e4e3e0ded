package size

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		expected Bytes
	}{
		{"100", 100},
		{"100B", 100},
		{"100b", 100},
		{"1KB", 1024},
		{"1kb", 1024},
		{"1MB", 1048576},
		{"1.5MB", 1572864},
		{"1GB", 1024 * 1024 * 1024},
		{"2TB", 2 * TB},
		{"  2MB  ", 2 * MB},
		{"\t100\n", 100},
		{"10 MB", 10 * MB},
		{"0", 0},
		{"0.5KB", 512},
		{"1.7B", 1},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParse_WhitespacePaddingIsIgnored(t *testing.T) {
	trimmed, err := Parse("1.5MB")
	require.NoError(t, err)
	padded, err := Parse("   1.5MB   ")
	require.NoError(t, err)
	assert.Equal(t, trimmed, padded)
}

func TestParse_Invalid(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"MB",
		"abc",
		"-1",
		"-1KB",
		"10PB",
		"1..5MB",
		"NaN",
		"Inf",
		"99999999999TB",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidFormat))

			var fe *FormatError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, input, fe.Input)
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		bytes    Bytes
		expected string
	}{
		{0, "0 B"},
		{100, "100 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1024 * 1024, "1.0 MB"},
		{1536 * 1024, "1.5 MB"},
		{1024 * 1024 * 1024, "1.0 GB"},
		{TB, "1.0 TB"},
		{2048 * TB, "2048.0 TB"},
		{2047, "1.9 KB"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, Format(tt.bytes))
			assert.Equal(t, tt.expected, tt.bytes.String())
		})
	}
}

func TestMustParse_Panics(t *testing.T) {
	assert.Equal(t, 10*MB, MustParse("10MB"))
	assert.Panics(t, func() { MustParse("ten megabytes") })
}
