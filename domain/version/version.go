// Package version implements dotted-decimal engine version comparison.
//
// 引擎发布版本形如 "1.8.0"、"v1.12.0-beta.1"；比较只看 major/minor/patch
// 数值三元组，预发布后缀不参与排序。
package version

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/qiyun-labs/realityconf/pkg/rcerrors"
)

// Tuple is a normalized (major, minor, patch) triple with an optional
// prerelease suffix retained for display only.
type Tuple struct {
	Major      int
	Minor      int
	Patch      int
	Prerelease string
}

// Parse normalizes a version string into a Tuple.
// One leading non-digit tag character (conventionally 'v') is tolerated.
// Anything after the first '-' (prerelease) or '+' (build metadata) is
// split off and does not affect the numeric triple. Missing trailing
// components default to zero, so "1.8" parses as 1.8.0.
func Parse(s string) (Tuple, error) {
	if s == "" {
		return Tuple{}, rcerrors.Newf(rcerrors.KindParse, "empty version string")
	}
	raw := s
	if len(s) > 0 && (s[0] < '0' || s[0] > '9') {
		s = s[1:]
	}
	var prerelease string
	if i := strings.IndexAny(s, "-+"); i >= 0 {
		if s[i] == '-' {
			prerelease = s[i+1:]
		}
		s = s[:i]
	}
	if s == "" {
		return Tuple{}, rcerrors.Newf(rcerrors.KindParse, "no numeric component in version %q", raw)
	}
	parts := strings.Split(s, ".")
	if len(parts) > 3 {
		return Tuple{}, rcerrors.Newf(rcerrors.KindParse, "too many components in version %q", raw)
	}
	nums := [3]int{}
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return Tuple{}, rcerrors.Newf(rcerrors.KindParse, "invalid component %q in version %q", part, raw)
		}
		nums[i] = n
	}
	return Tuple{Major: nums[0], Minor: nums[1], Patch: nums[2], Prerelease: prerelease}, nil
}

// Compare returns -1, 0 or 1 ordering t against other on the numeric
// triple only. A prerelease of X.Y.Z compares equal to X.Y.Z.
func (t Tuple) Compare(other Tuple) int {
	pairs := [3][2]int{
		{t.Major, other.Major},
		{t.Minor, other.Minor},
		{t.Patch, other.Patch},
	}
	for _, p := range pairs {
		if p[0] < p[1] {
			return -1
		}
		if p[0] > p[1] {
			return 1
		}
	}
	return 0
}

// String renders the tuple back into dotted form.
func (t Tuple) String() string {
	s := fmt.Sprintf("%d.%d.%d", t.Major, t.Minor, t.Patch)
	if t.Prerelease != "" {
		s += "-" + t.Prerelease
	}
	return s
}

// MeetsMinimum reports whether current satisfies the given minimum
// version. It never panics: an empty or unparseable string on either
// side yields false.
func MeetsMinimum(current, minimum string) bool {
	cur, err := Parse(current)
	if err != nil {
		return false
	}
	min, err := Parse(minimum)
	if err != nil {
		return false
	}
	return cur.Compare(min) >= 0
}
