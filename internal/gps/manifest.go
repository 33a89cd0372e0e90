// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gps

import (
	"regexp"

	"github.com/pkg/errors"
)

var validName = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)

// Manifest is the loaded, validated form of a project's vex.toml: its
// name, optional own version, direct runtime and dev dependencies, and
// an optional SDK constraint. Dev dependencies are only consulted by the
// solver when the owning Manifest is the root.
type Manifest struct {
	Name    string
	Version Version
	HasVersion bool

	Dependencies    []Dependency
	DevDependencies []Dependency

	SDK         VersionConstraint
	HasSDK      bool
}

// Validate enforces the Manifest invariants from the data model: the
// name is a valid identifier and no dependency name appears twice
// (within runtime deps, and within dev deps, independently).
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return &ParseError{Msg: "manifest is missing a name"}
	}
	if !validName.MatchString(m.Name) {
		return &ParseError{Msg: "invalid package name: " + m.Name}
	}
	if err := noDuplicateNames(m.Dependencies); err != nil {
		return errors.Wrap(err, "dependencies")
	}
	if err := noDuplicateNames(m.DevDependencies); err != nil {
		return errors.Wrap(err, "dev_dependencies")
	}
	return nil
}

func noDuplicateNames(deps []Dependency) error {
	seen := make(map[string]bool, len(deps))
	for _, d := range deps {
		if seen[d.Ref.Name] {
			return &ParseError{Msg: "duplicate dependency: " + d.Ref.Name}
		}
		seen[d.Ref.Name] = true
	}
	return nil
}

// Package is a loaded Manifest together with where it lives on disk: a
// cache entry, a path-source directory, or the root project itself. The
// root package is distinguished by IsRoot.
type Package struct {
	Manifest Manifest
	Dir      string
	IsRoot   bool
}
