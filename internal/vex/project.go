// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vex

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/tapted/vex/internal/gps"
)

// Project is a loaded project root: its manifest, any prior lockfile,
// and the absolute directory it lives in.
type Project struct {
	AbsRoot  string
	Manifest gps.Manifest
	Lock     *gps.LockFile // nil if no vex.lock exists yet
}

// LoadProject reads vex.toml (and vex.lock, if present) from dir.
func (c *Ctx) LoadProject(dir string) (*Project, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrap(err, "resolving project root")
	}

	manifestPath := filepath.Join(abs, ManifestName)
	data, err := ioutil.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Errorf("no %s found in %s", ManifestName, abs)
		}
		return nil, errors.Wrapf(err, "reading %s", manifestPath)
	}

	m, err := gps.ParseManifestTOML(data, abs, c.Registry)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", manifestPath)
	}

	lock, err := gps.ReadLockFile(filepath.Join(abs, LockName), c.Registry)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", LockName)
	}

	return &Project{AbsRoot: abs, Manifest: m, Lock: lock}, nil
}
