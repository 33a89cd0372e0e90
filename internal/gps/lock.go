// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gps

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"

	toml "github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// LockFile is an ordered mapping from package name to PackageId for
// every non-root member of the last solved graph, serialized as a
// stable, human-diffable TOML document.
type LockFile struct {
	Packages []PackageId
	// SDK mirrors the root Manifest's SDK constraint at solve time, for
	// informational display only; it is not consulted on load.
	SDK    VersionConstraint
	HasSDK bool
}

// Get returns the locked PackageId for name, if any.
func (l *LockFile) Get(name string) (PackageId, bool) {
	for _, id := range l.Packages {
		if id.Name == name {
			return id, true
		}
	}
	return PackageId{}, false
}

// Serialize renders the lockfile in its on-disk TOML form. Package
// entries are emitted sorted by name so the output is deterministic and
// diffs cleanly across runs.
func (l *LockFile) Serialize(reg *SourceRegistry) ([]byte, error) {
	sorted := append([]PackageId(nil), l.Packages...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	root, _ := toml.TreeFromMap(map[string]interface{}{})
	var projects []*toml.Tree
	for _, id := range sorted {
		src, err := reg.Get(id.SourceName)
		if err != nil {
			return nil, err
		}
		entry, _ := toml.TreeFromMap(map[string]interface{}{})
		entry.Set("name", id.Name)
		entry.Set("source", id.SourceName)
		entry.Set("version", id.Version.String())
		desc := src.SerializeDescription("", id.Description)
		if m, ok := desc.(map[string]interface{}); ok {
			if t, err := toml.TreeFromMap(m); err == nil {
				desc = t
			}
		}
		entry.Set("description", desc)
		projects = append(projects, entry)
	}
	root.Set("package", projects)
	if l.HasSDK {
		sdk, _ := toml.TreeFromMap(map[string]interface{}{})
		sdk.Set("constraint", l.SDK.String())
		root.Set("sdk", sdk)
	}
	return root.Marshal()
}

// ParseLockFile loads and validates a serialized LockFile. Load is
// strict: an unknown source name or a missing required field is a
// LockFileCorruptError, never a silent default.
func ParseLockFile(data []byte, reg *SourceRegistry) (*LockFile, error) {
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return nil, &LockFileCorruptError{Msg: "invalid TOML: " + err.Error()}
	}

	raw, ok := tree.Get("package").([]*toml.Tree)
	if !ok && tree.Get("package") != nil {
		return nil, &LockFileCorruptError{Msg: "package section must be an array of tables"}
	}

	lf := &LockFile{}
	for _, entry := range raw {
		name, _ := entry.Get("name").(string)
		sourceName, _ := entry.Get("source").(string)
		versionStr, _ := entry.Get("version").(string)
		if name == "" || sourceName == "" || versionStr == "" {
			return nil, &LockFileCorruptError{Msg: "package entry missing name/source/version"}
		}

		src, err := reg.Get(sourceName)
		if err != nil {
			return nil, &LockFileCorruptError{Msg: "unknown source " + sourceName + " for package " + name}
		}

		v, err := ParseVersion(versionStr)
		if err != nil {
			return nil, &LockFileCorruptError{Msg: "bad version for " + name + ": " + err.Error()}
		}

		rawDesc := entry.Get("description")
		if t, ok := rawDesc.(*toml.Tree); ok {
			rawDesc = t.ToMap()
		}
		desc, err := src.ParseDescription("", rawDesc, true)
		if err != nil {
			return nil, &LockFileCorruptError{Msg: fmt.Sprintf("bad description for %s: %v", name, err)}
		}

		lf.Packages = append(lf.Packages, PackageId{
			PackageRef: PackageRef{Name: name, SourceName: sourceName, Description: desc},
			Version:    v,
		})
	}

	if sdk, ok := tree.Get("sdk").(*toml.Tree); ok {
		cstr, _ := sdk.Get("constraint").(string)
		c, err := ParseConstraint(cstr)
		if err != nil {
			return nil, &LockFileCorruptError{Msg: "bad sdk constraint: " + err.Error()}
		}
		lf.SDK, lf.HasSDK = c, true
	}

	return lf, nil
}

// WriteLockFile atomically writes l to path: it is staged to a sibling
// temp file, then renamed into place, so a crash mid-write never leaves
// a truncated lockfile behind.
func WriteLockFile(path string, l *LockFile, reg *SourceRegistry) error {
	data, err := l.Serialize(reg)
	if err != nil {
		return errors.Wrap(err, "serializing lockfile")
	}

	dir := filepath.Dir(path)
	tmp, err := ioutil.TempFile(dir, ".lock-tmp-")
	if err != nil {
		return errors.Wrap(err, "staging lockfile")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "writing staged lockfile")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing staged lockfile")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrap(err, "renaming lockfile into place")
	}
	return nil
}

// ReadLockFile loads a LockFile from path, returning (nil, nil) if no
// lockfile exists yet.
func ReadLockFile(path string, reg *SourceRegistry) (*LockFile, error) {
	data, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading lockfile")
	}
	return ParseLockFile(data, reg)
}
