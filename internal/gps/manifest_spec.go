// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gps

import "fmt"

// ParseDependencySpec interprets one dependency entry from a manifest —
// TOML or JSON, hosted wire format or on-disk vex.toml — after it has
// been decoded to native Go values. A spec is either a bare constraint
// string (implies reg's default source) or a map with a "source" key
// naming the source and a source-specific payload, plus an optional
// "version" key.
func ParseDependencySpec(name string, spec interface{}, containingDir string, reg *SourceRegistry) (Dependency, error) {
	switch v := spec.(type) {
	case string:
		c, err := ParseConstraint(v)
		if err != nil {
			return Dependency{}, err
		}
		src, err := reg.Get("")
		if err != nil {
			return Dependency{}, err
		}
		desc, err := src.ParseDescription(containingDir, name, false)
		if err != nil {
			return Dependency{}, err
		}
		return Dependency{Ref: PackageRef{Name: name, SourceName: src.Name(), Description: desc}, Constraint: c}, nil

	case map[string]interface{}:
		sourceName, _ := v["source"].(string)
		src, err := reg.Get(sourceName)
		if err != nil {
			return Dependency{}, err
		}
		desc, err := src.ParseDescription(containingDir, v, false)
		if err != nil {
			return Dependency{}, err
		}
		c := Any
		if vs, ok := v["version"].(string); ok && vs != "" {
			c, err = ParseConstraint(vs)
			if err != nil {
				return Dependency{}, err
			}
		}
		return Dependency{Ref: PackageRef{Name: name, SourceName: src.Name(), Description: desc}, Constraint: c}, nil

	default:
		return Dependency{}, &ParseError{Msg: fmt.Sprintf("unrecognized dependency spec for %q", name)}
	}
}
