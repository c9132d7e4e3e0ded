// Package size parses and formats human-readable byte counts.
//
// Units are binary multiples: 1KB = 1024 bytes, 1MB = 1024KB, and so on up
// to TB. Formatting is lossy (one decimal digit, truncated), so Parse(Format(n))
// is not guaranteed to equal n.
package size

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Bytes is a non-negative byte count. No unit is stored.
type Bytes uint64

const (
	B  Bytes = 1
	KB Bytes = 1024 * B
	MB Bytes = 1024 * KB
	GB Bytes = 1024 * MB
	TB Bytes = 1024 * GB
)

// ErrInvalidFormat is the sentinel wrapped by every parse failure.
var ErrInvalidFormat = errors.New("invalid size format")

// FormatError describes why a size string was rejected.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid size format %q: %s", e.Input, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return ErrInvalidFormat
}

// Suffixes are checked longest first so "MB" is never read as "M" + "B".
var suffixes = []struct {
	unit string
	mult Bytes
}{
	{"TB", TB},
	{"GB", GB},
	{"MB", MB},
	{"KB", KB},
	{"B", B},
}

var units = []string{"B", "KB", "MB", "GB", "TB"}

// Parse converts strings like "10MB", "1.5gb" or "  100 " into a byte count.
// A missing unit means bytes. The result is truncated to a whole byte.
func Parse(input string) (Bytes, error) {
	s := strings.ToUpper(strings.TrimSpace(input))
	if s == "" {
		return 0, &FormatError{Input: input, Reason: "empty size string"}
	}

	number, mult := s, B
	for _, sfx := range suffixes {
		if strings.HasSuffix(s, sfx.unit) {
			number = strings.TrimSpace(strings.TrimSuffix(s, sfx.unit))
			mult = sfx.mult
			break
		}
	}

	value, err := strconv.ParseFloat(number, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, &FormatError{Input: input, Reason: fmt.Sprintf("invalid size number: %s", number)}
	}
	if value < 0 {
		return 0, &FormatError{Input: input, Reason: "size cannot be negative"}
	}

	total := value * float64(mult)
	if total >= math.MaxUint64 {
		return 0, &FormatError{Input: input, Reason: "size too large"}
	}
	return Bytes(total), nil
}

// MustParse is Parse for compile-time constants; it panics on error.
func MustParse(input string) Bytes {
	b, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return b
}

// Format renders a byte count using the largest unit that keeps the value
// at or above 1. Values under 1KB are printed as whole bytes.
func Format(b Bytes) string {
	value := float64(b)
	idx := 0
	for value >= 1024 && idx < len(units)-1 {
		value /= 1024
		idx++
	}

	if idx == 0 {
		return fmt.Sprintf("%d %s", uint64(b), units[0])
	}
	return fmt.Sprintf("%.1f %s", math.Trunc(value*10)/10, units[idx])
}

// String implements fmt.Stringer.
func (b Bytes) String() string {
	return Format(b)
}
