// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gps

import (
	toml "github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// ParseManifestTOML parses a vex.toml document into
// a validated Manifest. containingDir is passed through to each
// dependency's Source.ParseDescription for path-relative resolution.
//
// A dependency spec is either a bare constraint string (implies reg's
// default source) or a table with a "source" key naming the source and
// a source-specific payload, plus an optional "version" constraint key.
func ParseManifestTOML(data []byte, containingDir string, reg *SourceRegistry) (Manifest, error) {
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return Manifest{}, &ParseError{Msg: "invalid TOML", Err: err}
	}

	m := Manifest{}
	m.Name, _ = tree.Get("name").(string)

	if vs, ok := tree.Get("version").(string); ok && vs != "" {
		v, err := ParseVersion(vs)
		if err != nil {
			return Manifest{}, &ParseError{Msg: "invalid version", Err: err}
		}
		m.Version, m.HasVersion = v, true
	}

	if sdk, ok := tree.Get("sdk").(string); ok && sdk != "" {
		c, err := ParseConstraint(sdk)
		if err != nil {
			return Manifest{}, &ParseError{Msg: "invalid sdk constraint", Err: err}
		}
		m.SDK, m.HasSDK = c, true
	}

	deps, err := parseDependencyTable(tree.Get("dependencies"), containingDir, reg)
	if err != nil {
		return Manifest{}, errors.Wrap(err, "dependencies")
	}
	m.Dependencies = deps

	devDeps, err := parseDependencyTable(tree.Get("dev_dependencies"), containingDir, reg)
	if err != nil {
		return Manifest{}, errors.Wrap(err, "dev_dependencies")
	}
	m.DevDependencies = devDeps

	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

func parseDependencyTable(raw interface{}, containingDir string, reg *SourceRegistry) ([]Dependency, error) {
	table, ok := raw.(*toml.Tree)
	if !ok {
		if raw == nil {
			return nil, nil
		}
		return nil, &ParseError{Msg: "dependency table must be a TOML table"}
	}

	var out []Dependency
	for _, name := range table.Keys() {
		spec := table.Get(name)
		if sub, ok := spec.(*toml.Tree); ok {
			spec = flattenTree(sub)
		}
		dep, err := ParseDependencySpec(name, spec, containingDir, reg)
		if err != nil {
			return nil, errors.Wrapf(err, "dependency %q", name)
		}
		out = append(out, dep)
	}
	return out, nil
}

func flattenTree(t *toml.Tree) map[string]interface{} {
	out := make(map[string]interface{})
	for _, k := range t.Keys() {
		out[k] = t.Get(k)
	}
	return out
}
