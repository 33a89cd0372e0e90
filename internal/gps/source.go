// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gps

import (
	"context"
	"fmt"
)

// Source is a pluggable provider of package metadata and content:
// hosted (a central index), git, or path. Implementations share no
// common base — gps dispatches by interface, not inheritance (see the
// internal/gps/source.go section of DESIGN.md).
type Source interface {
	// Name is the stable identifier recorded in lockfiles ("hosted",
	// "git", "path").
	Name() string

	// ShouldCache reports whether resolved packages from this source
	// are materialized into the SystemCache. Hosted and git: true.
	// Path: false.
	ShouldCache() bool

	// ParseDescription validates and normalizes a raw manifest-file or
	// lockfile dependency spec into a SourceDescription. When
	// fromLockFile is true the raw value must already be in canonical
	// (map) form; a bare string there is a ParseError.
	ParseDescription(containingDir string, raw interface{}, fromLockFile bool) (SourceDescription, error)

	// SerializeDescription is the inverse of ParseDescription, used
	// when writing the lockfile.
	SerializeDescription(containingDir string, d SourceDescription) interface{}

	// DescriptionsEqual reports source-defined equivalence of two
	// descriptions (e.g. path resolves symlinks before comparing; git
	// compares URL and effective ref).
	DescriptionsEqual(a, b SourceDescription) bool

	// DescribeUncached fetches the Manifest for a specific PackageId
	// without necessarily materializing the full package.
	DescribeUncached(ctx context.Context, id PackageId) (Manifest, error)

	// GetVersions enumerates solver candidates for ref. Hosted consults
	// the index; git resolves refs to commits; path returns a single
	// pseudo-version.
	GetVersions(ctx context.Context, ref PackageRef) ([]Version, error)

	// DownloadToSystemCache populates the system cache for id and
	// returns the resulting Package. Only called when ShouldCache is
	// true.
	DownloadToSystemCache(ctx context.Context, id PackageId) (Package, error)

	// Get installs id directly at destination. Only called when
	// ShouldCache is false. A false return is a hard failure.
	Get(ctx context.Context, id PackageId, destination string) (bool, error)

	// GetDirectory returns where a cached or uncached package lives.
	GetDirectory(ctx context.Context, id PackageId) (string, error)

	// ResolveId attaches disambiguating data (a resolved git commit SHA)
	// to id before it is locked. Deferred to the very end of a solve.
	ResolveId(ctx context.Context, id PackageId) (PackageId, error)
}

// SourceRegistry maps a source name to its Source implementation and
// holds the configured default source (used when a dependency spec
// names no explicit source).
type SourceRegistry struct {
	sources map[string]Source
	def     string
}

// NewSourceRegistry builds an empty registry with defaultName as the
// source consulted for bare (source-less) dependency specs.
func NewSourceRegistry(defaultName string) *SourceRegistry {
	return &SourceRegistry{sources: make(map[string]Source), def: defaultName}
}

// Register adds src under its own Name(). Registering the same name
// twice is a programmer error.
func (reg *SourceRegistry) Register(src Source) {
	if _, dup := reg.sources[src.Name()]; dup {
		panic(fmt.Sprintf("gps: duplicate source registration for %q", src.Name()))
	}
	reg.sources[src.Name()] = src
}

// Get looks up a registered source by name.
func (reg *SourceRegistry) Get(name string) (Source, error) {
	if name == "" {
		name = reg.def
	}
	src, ok := reg.sources[name]
	if !ok {
		return nil, &LockFileCorruptError{Msg: "unknown source: " + name}
	}
	return src, nil
}

// Default returns the registry's default source name.
func (reg *SourceRegistry) Default() string { return reg.def }
