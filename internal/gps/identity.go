// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gps

import "fmt"

// PackageRef identifies a dependency edge's target: a name, the source
// that should serve it, and a source-specific description (a hosted
// name, a git URL+ref, or a filesystem path). Two refs are equal iff
// name, source name, and source-normalized description match — see
// Source.DescriptionsEqual.
type PackageRef struct {
	Name        string
	SourceName  string
	Description SourceDescription
}

// SourceDescription is the opaque, source-specific payload carried by a
// PackageRef. Each Source implementation defines its own concrete type
// satisfying this interface (hosted.Description, vcssrc.Description,
// pathsrc.Description) and lives in its own package, so the marker
// method is exported rather than following the sealed-interface pattern
// used for Version/Constraint within this package.
type SourceDescription interface {
	IsSourceDescription()
}

// Equal reports whether r and o name the same dependency target,
// delegating description equivalence to the owning Source.
func (r PackageRef) Equal(o PackageRef, reg *SourceRegistry) bool {
	if r.Name != o.Name || r.SourceName != o.SourceName {
		return false
	}
	src, err := reg.Get(r.SourceName)
	if err != nil {
		return false
	}
	return src.DescriptionsEqual(r.Description, o.Description)
}

func (r PackageRef) String() string {
	return fmt.Sprintf("%s(%s)", r.Name, r.SourceName)
}

// PackageId is a PackageRef resolved to a concrete Version. For
// VCS-backed sources the Description additionally carries the resolved
// commit (see Source.ResolveId), attached only at the very end of a
// solve so the commit locked is the one actually used.
type PackageId struct {
	PackageRef
	Version Version
}

func (id PackageId) String() string {
	return fmt.Sprintf("%s@%s", id.PackageRef, id.Version)
}

// Equal compares two PackageIds by ref equality (via reg) and version.
func (id PackageId) Equal(o PackageId, reg *SourceRegistry) bool {
	return id.Version.Equal(o.Version) && id.PackageRef.Equal(o.PackageRef, reg)
}

// Dependency is an edge in a Manifest: a target PackageRef plus the
// VersionConstraint the declaring package imposes on it.
type Dependency struct {
	Ref        PackageRef
	Constraint VersionConstraint
}
