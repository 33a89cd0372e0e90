// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pathsrc implements gps.Source for local filesystem-path
// dependencies: the source never caches, and
// contributes a single synthetic version derived from the target's own
// manifest.
package pathsrc

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/tapted/vex/internal/fs"
	"github.com/tapted/vex/internal/gps"
)

const manifestFileName = "vex.toml"

// syntheticVersion is the single pseudo-version every path dependency
// resolves to; path sources don't have a version history to enumerate.
var syntheticVersion = gps.MustParseVersion("0.0.0")

// Description is the path SourceDescription: a filesystem path, either
// absolute or relative to the containing manifest's directory.
type Description struct {
	Path     string
	Relative bool
}

func (Description) IsSourceDescription() {}

// Source resolves dependencies directly against the local filesystem.
type Source struct {
	Registry *gps.SourceRegistry
}

// New builds a path Source resolving manifest dependencies against reg.
func New(reg *gps.SourceRegistry) *Source { return &Source{Registry: reg} }

func (s *Source) Name() string      { return "path" }
func (s *Source) ShouldCache() bool { return false }

func (s *Source) ParseDescription(containingDir string, raw interface{}, fromLockFile bool) (gps.SourceDescription, error) {
	var p string
	switch v := raw.(type) {
	case string:
		if fromLockFile {
			return nil, &gps.ParseError{Msg: "path lockfile description must be a table, got a bare string"}
		}
		p = v
	case map[string]interface{}:
		p, _ = v["path"].(string)
	default:
		return nil, &gps.ParseError{Msg: "path description must be a string or a table with a path key"}
	}
	if p == "" {
		return nil, &gps.ParseError{Msg: "path description missing path"}
	}

	rel := !filepath.IsAbs(p)
	abs := p
	if rel {
		abs = filepath.Join(containingDir, p)
	}
	if fromLockFile {
		// Lockfile entries always store an absolute path, resolved at
		// write time; Relative here only matters for round-tripping
		// back to the manifest's own relative notation.
		rel, _ = raw.(map[string]interface{})["relative"].(bool)
	}
	return Description{Path: abs, Relative: rel}, nil
}

func (s *Source) SerializeDescription(containingDir string, d gps.SourceDescription) interface{} {
	pd := d.(Description)
	out := map[string]interface{}{"path": pd.Path, "relative": pd.Relative}
	if pd.Relative {
		if rel, err := filepath.Rel(containingDir, pd.Path); err == nil {
			out["path"] = rel
		}
	}
	return out
}

// DescriptionsEqual resolves symlinks and cleans both paths before
// comparing, so that two path dependencies pointing at the same
// directory through different symlinks are recognized as equal.
func (s *Source) DescriptionsEqual(a, b gps.SourceDescription) bool {
	da, db := a.(Description), b.(Description)
	return canonicalize(da.Path) == canonicalize(db.Path)
}

func canonicalize(p string) string {
	if real, err := filepath.EvalSymlinks(p); err == nil {
		return filepath.Clean(real)
	}
	return filepath.Clean(p)
}

func (s *Source) manifestPath(id gps.PackageId) string {
	return filepath.Join(id.Description.(Description).Path, manifestFileName)
}

func (s *Source) DescribeUncached(ctx context.Context, id gps.PackageId) (gps.Manifest, error) {
	dir := id.Description.(Description).Path
	data, err := ioutil.ReadFile(filepath.Join(dir, manifestFileName))
	if err != nil {
		return gps.Manifest{}, &gps.PackageNotFoundError{Name: id.Name, Source: "path"}
	}
	return gps.ParseManifestTOML(data, dir, s.Registry)
}

// GetVersions always returns the single synthetic version: path sources
// have no version history, only whatever is on disk right now.
func (s *Source) GetVersions(ctx context.Context, ref gps.PackageRef) ([]gps.Version, error) {
	dir := ref.Description.(Description).Path
	if _, err := os.Stat(filepath.Join(dir, manifestFileName)); err != nil {
		return nil, &gps.PackageNotFoundError{Name: ref.Name, Source: "path"}
	}
	return []gps.Version{syntheticVersion}, nil
}

func (s *Source) DownloadToSystemCache(ctx context.Context, id gps.PackageId) (gps.Package, error) {
	return gps.Package{}, &gps.InvalidArgumentError{Msg: "path source does not cache"}
}

// Get materializes id at destination by copying the path target
// directly from its own directory (ShouldCache is false, so there is no
// system-cache copy to take it from).
func (s *Source) Get(ctx context.Context, id gps.PackageId, destination string) (bool, error) {
	dir := id.Description.(Description).Path
	if _, err := os.Stat(dir); err != nil {
		return false, nil
	}
	if err := fs.CopyDir(dir, destination); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Source) GetDirectory(ctx context.Context, id gps.PackageId) (string, error) {
	return id.Description.(Description).Path, nil
}

func (s *Source) ResolveId(ctx context.Context, id gps.PackageId) (gps.PackageId, error) {
	return id, nil
}

var _ gps.Source = (*Source)(nil)
