// Package version implements the integer-sequence version ordering used to
// decide whether an available package is a strict upgrade of an installed one.
package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalid is returned when a version string contains no usable components.
var ErrInvalid = errors.New("invalid version string")

// Version is an ordered sequence of non-negative integer components.
// Comparison is lexicographic element-by-element; when one version is a
// strict prefix of the other, the shorter one orders lower.
type Version []int

// versionSeparators covers the separators seen in registry version strings
// (1.2.3, 3.2.0_1, 1.0-2).
func isSeparator(r rune) bool {
	return r == '.' || r == '_' || r == '-'
}

// Parse converts a version string into a Version. Each separated part
// contributes its leading digits; trailing letters are ignored (1.0a -> 1.0).
// A string with no numeric content at all is rejected.
func Parse(s string) (Version, error) {
	parts := strings.FieldsFunc(strings.TrimSpace(s), isSeparator)
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalid, s)
	}

	v := make(Version, 0, len(parts))
	for _, part := range parts {
		numStr := strings.TrimRight(part, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
		if numStr == "" {
			// Pure-letter component (e.g. the "b" in "1.0.b"): skip it
			// rather than invent a number for it.
			continue
		}
		n, err := strconv.Atoi(numStr)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalid, s)
		}
		v = append(v, n)
	}

	if len(v) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	return v, nil
}

// MustParse is Parse for static strings; it panics on error.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Compare returns -1 if v < o, 0 if v == o, and 1 if v > o.
// A strict prefix is strictly smaller: 1.2 < 1.2.0.
func (v Version) Compare(o Version) int {
	n := len(v)
	if len(o) < n {
		n = len(o)
	}
	for i := 0; i < n; i++ {
		if v[i] < o[i] {
			return -1
		}
		if v[i] > o[i] {
			return 1
		}
	}
	switch {
	case len(v) < len(o):
		return -1
	case len(v) > len(o):
		return 1
	default:
		return 0
	}
}

// Less reports whether v orders strictly before o.
func (v Version) Less(o Version) bool {
	return v.Compare(o) < 0
}

// String renders the version in dotted form.
func (v Version) String() string {
	if len(v) == 0 {
		return ""
	}
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}
