// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vcssrc

import (
	"io/ioutil"
	"path/filepath"

	"github.com/tapted/vex/internal/gps"
)

const manifestFileName = "vex.toml"

func readManifestBytes(dir string) ([]byte, error) {
	data, err := ioutil.ReadFile(filepath.Join(dir, manifestFileName))
	if err != nil {
		return nil, &gps.ParseError{Msg: "reading " + manifestFileName, Err: err}
	}
	return data, nil
}

func loadManifestFromDir(dir string, reg *gps.SourceRegistry) (gps.Manifest, error) {
	data, err := readManifestBytes(dir)
	if err != nil {
		return gps.Manifest{}, err
	}
	return gps.ParseManifestTOML(data, dir, reg)
}
