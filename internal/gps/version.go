// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gps

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
)

// Version is a single concrete semantic version. Pre-release versions sort
// below their corresponding release per semver; build metadata is ignored
// for ordering and equality.
type Version struct {
	sv *semver.Version
}

// ParseVersion parses a semantic version string ("1.2.3", "1.2.3-beta.1",
// "1.2.3+build").
func ParseVersion(s string) (Version, error) {
	sv, err := semver.NewVersion(s)
	if err != nil {
		return Version{}, errors.Wrapf(err, "not a valid semantic version: %q", s)
	}
	return Version{sv: sv}, nil
}

// MustParseVersion panics on a malformed version string. Reserved for
// literals in tests and fixture data.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String renders the version in canonical semver form.
func (v Version) String() string {
	if v.sv == nil {
		return ""
	}
	return v.sv.String()
}

// IsZero reports whether v is the zero Version (no version parsed).
func (v Version) IsZero() bool { return v.sv == nil }

// Compare orders v against o: -1, 0, or 1.
func (v Version) Compare(o Version) int {
	return v.sv.Compare(o.sv)
}

// Equal reports semver equality, ignoring build metadata.
func (v Version) Equal(o Version) bool { return v.Compare(o) == 0 }

// LessThan reports whether v sorts before o.
func (v Version) LessThan(o Version) bool { return v.Compare(o) < 0 }

// Major, Minor, Patch expose the numeric triple.
func (v Version) Major() int64 { return v.sv.Major() }
func (v Version) Minor() int64 { return v.sv.Minor() }
func (v Version) Patch() int64 { return v.sv.Patch() }

// Prerelease reports whether v carries a pre-release identifier.
func (v Version) Prerelease() bool { return v.sv.Prerelease() != "" }

// Revision is a VCS-specific identifier (a git commit SHA) that pins a
// PackageId to the exact content that satisfied a Version at solve time.
type Revision string

func (r Revision) String() string { return string(r) }

// versionList is sortable newest-first, the order the solver wants to try
// candidates in.
type versionList []Version

func (vl versionList) Len() int           { return len(vl) }
func (vl versionList) Less(i, j int) bool { return vl[i].Compare(vl[j]) > 0 }
func (vl versionList) Swap(i, j int)      { vl[i], vl[j] = vl[j], vl[i] }

var _ fmt.Stringer = Version{}
