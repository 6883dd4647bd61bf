package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidFormat is returned by Parse for text that is not major[.minor].
var ErrInvalidFormat = errors.New("invalid API version format")

// APIVersion is a major.minor API version.
type APIVersion struct {
	Major int
	Minor int
}

// New creates an APIVersion.
func New(major, minor int) APIVersion {
	return APIVersion{Major: major, Minor: minor}
}

// Parse parses "2" or "2.0". Both components must be non-negative integers.
func Parse(s string) (APIVersion, error) {
	s = strings.TrimSpace(s)
	majorText, minorText, hasMinor := strings.Cut(s, ".")
	if !hasMinor {
		minorText = "0"
	}

	major, err := parseComponent(majorText)
	if err != nil {
		return APIVersion{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	minor, err := parseComponent(minorText)
	if err != nil {
		return APIVersion{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	return APIVersion{Major: major, Minor: minor}, nil
}

func parseComponent(s string) (int, error) {
	if s == "" || strings.ContainsAny(s, "+-") {
		return 0, ErrInvalidFormat
	}
	return strconv.Atoi(s)
}

// String formats the version as major.minor.
func (v APIVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Compare returns -1, 0 or 1 as v sorts before, equal to or after o.
func (v APIVersion) Compare(o APIVersion) int {
	switch {
	case v.Major != o.Major:
		if v.Major < o.Major {
			return -1
		}
		return 1
	case v.Minor != o.Minor:
		if v.Minor < o.Minor {
			return -1
		}
		return 1
	default:
		return 0
	}
}
