package binary

import (
	"fmt"
	"regexp"
	"strconv"
)

// Version is a parsed dotted version. Pre-release and build suffixes are
// discarded at parse time; comparison is purely numeric.
type Version struct {
	Major int
	Minor int
	Patch int
}

// versionPattern tolerantly extracts a dotted version token from free-form
// --version output, e.g. "yq (https://github.com/mikefarah/yq/) version
// v4.52.2". The patch component is optional and defaults to zero.
var versionPattern = regexp.MustCompile(`v?(\d+)\.(\d+)(?:\.(\d+))?`)

// ParseVersion extracts the first dotted version token from raw.
// A pre-release or build suffix after the numeric components is ignored.
func ParseVersion(raw string) (Version, error) {
	m := versionPattern.FindStringSubmatch(raw)
	if m == nil {
		return Version{}, fmt.Errorf("%w in %q", ErrVersionParse, raw)
	}

	major, err := strconv.Atoi(m[1])
	if err != nil {
		return Version{}, fmt.Errorf("%w in %q", ErrVersionParse, raw)
	}

	minor, err := strconv.Atoi(m[2])
	if err != nil {
		return Version{}, fmt.Errorf("%w in %q", ErrVersionParse, raw)
	}

	patch := 0
	if m[3] != "" {
		patch, err = strconv.Atoi(m[3])
		if err != nil {
			return Version{}, fmt.Errorf("%w in %q", ErrVersionParse, raw)
		}
	}

	return Version{Major: major, Minor: minor, Patch: patch}, nil
}

// Compare returns -1, 0, or 1 ordering v against other.
// Components compare left to right, short-circuiting on the first
// inequality.
func (v Version) Compare(other Version) int {
	pairs := [][2]int{
		{v.Major, other.Major},
		{v.Minor, other.Minor},
		{v.Patch, other.Patch},
	}

	for _, p := range pairs {
		switch {
		case p[0] < p[1]:
			return -1
		case p[0] > p[1]:
			return 1
		}
	}

	return 0
}

// AtLeast reports whether v satisfies the minimum version min.
func (v Version) AtLeast(min Version) bool {
	return v.Compare(min) >= 0
}

// String renders the version with the conventional "v" prefix used by yq
// release tags.
func (v Version) String() string {
	return fmt.Sprintf("v%d.%d.%d", v.Major, v.Minor, v.Patch)
}
