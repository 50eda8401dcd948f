package version

import (
	"cmp"
	"fmt"
)

// Release is the release number of an actual rustc build. The major
// version is always 1 and is not stored.
type Release struct {
	Minor uint16
	Patch uint16
}

// String formats the release as 1.MINOR.PATCH.
func (r Release) String() string {
	return fmt.Sprintf("1.%d.%d", r.Minor, r.Patch)
}

// Compare returns -1, 0 or 1 ordering by minor, then patch.
func (r Release) Compare(other Release) int {
	if c := cmp.Compare(r.Minor, other.Minor); c != 0 {
		return c
	}
	return cmp.Compare(r.Patch, other.Patch)
}
