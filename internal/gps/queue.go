// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gps

import (
	"context"
	"sort"
)

// candidateQueue builds the ordered list of versions the solver should
// try for ref under constraint: if the package is
// locked, not in useLatest, and upgradeAll is false, the locked version
// is tried first if it still satisfies the constraint; otherwise
// candidates are sorted newest-first.
func (s *Solver) candidateQueue(ctx context.Context, ref PackageRef, c VersionConstraint) ([]Version, error) {
	src, err := s.reg.Get(ref.SourceName)
	if err != nil {
		return nil, err
	}

	all, err := src.GetVersions(ctx, ref)
	if err != nil {
		return nil, err
	}

	var allowed []Version
	for _, v := range all {
		if c.Allows(v) {
			allowed = append(allowed, v)
		}
	}
	sort.Sort(versionList(allowed))

	locked, isLocked := s.lockedVersion(ref.Name)
	preferLocked := isLocked && !s.useLatest[ref.Name] && !s.upgradeAll && c.Allows(locked)
	if !preferLocked {
		return allowed, nil
	}

	out := make([]Version, 0, len(allowed))
	out = append(out, locked)
	for _, v := range allowed {
		if !v.Equal(locked) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *Solver) lockedVersion(name string) (Version, bool) {
	if s.lock == nil {
		return Version{}, false
	}
	id, ok := s.lock.Get(name)
	if !ok {
		return Version{}, false
	}
	return id.Version, true
}
