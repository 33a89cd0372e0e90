// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hosted

import (
	"encoding/json"

	"github.com/tapted/vex/internal/gps"
)

// wireManifest is the JSON shape of a version entry's "manifest" field
// in the hosted index response.
type wireManifest struct {
	Version         string                 `json:"version"`
	SDK             string                 `json:"sdk"`
	Dependencies    map[string]interface{} `json:"dependencies"`
	DevDependencies map[string]interface{} `json:"dev_dependencies"`
}

func parseHostedManifest(name string, raw json.RawMessage, reg *gps.SourceRegistry) (gps.Manifest, error) {
	var wm wireManifest
	if err := json.Unmarshal(raw, &wm); err != nil {
		return gps.Manifest{}, &gps.ParseError{Msg: "decoding hosted manifest for " + name, Err: err}
	}

	m := gps.Manifest{Name: name}
	if wm.Version != "" {
		v, err := gps.ParseVersion(wm.Version)
		if err != nil {
			return gps.Manifest{}, &gps.ParseError{Msg: "bad version in hosted manifest", Err: err}
		}
		m.Version, m.HasVersion = v, true
	}
	if wm.SDK != "" {
		c, err := gps.ParseConstraint(wm.SDK)
		if err != nil {
			return gps.Manifest{}, &gps.ParseError{Msg: "bad sdk constraint in hosted manifest", Err: err}
		}
		m.SDK, m.HasSDK = c, true
	}

	deps, err := parseDeps(wm.Dependencies, reg)
	if err != nil {
		return gps.Manifest{}, err
	}
	m.Dependencies = deps

	devDeps, err := parseDeps(wm.DevDependencies, reg)
	if err != nil {
		return gps.Manifest{}, err
	}
	m.DevDependencies = devDeps

	if err := m.Validate(); err != nil {
		return gps.Manifest{}, err
	}
	return m, nil
}

func parseDeps(raw map[string]interface{}, reg *gps.SourceRegistry) ([]gps.Dependency, error) {
	var out []gps.Dependency
	for name, spec := range raw {
		dep, err := gps.ParseDependencySpec(name, spec, "", reg)
		if err != nil {
			return nil, err
		}
		out = append(out, dep)
	}
	return out, nil
}
