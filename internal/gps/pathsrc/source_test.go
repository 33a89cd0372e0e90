// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pathsrc

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/tapted/vex/internal/gps"
)

func newTestSource() *Source {
	reg := gps.NewSourceRegistry("hosted")
	s := New(reg)
	reg.Register(s)
	return s
}

func TestParseDescriptionRelativePath(t *testing.T) {
	s := newTestSource()
	d, err := s.ParseDescription("/home/user/project", "../sibling", false)
	if err != nil {
		t.Fatalf("ParseDescription: %v", err)
	}
	pd := d.(Description)
	if !pd.Relative {
		t.Error("expected Relative true for a non-absolute path spec")
	}
	if pd.Path != filepath.Join("/home/user/project", "../sibling") {
		t.Fatalf("Path = %q", pd.Path)
	}
}

func TestParseDescriptionAbsolutePath(t *testing.T) {
	s := newTestSource()
	d, err := s.ParseDescription("/home/user/project", "/abs/target", false)
	if err != nil {
		t.Fatalf("ParseDescription: %v", err)
	}
	pd := d.(Description)
	if pd.Relative {
		t.Error("expected Relative false for an absolute path spec")
	}
	if pd.Path != "/abs/target" {
		t.Fatalf("Path = %q", pd.Path)
	}
}

func TestParseDescriptionMissingPath(t *testing.T) {
	s := newTestSource()
	if _, err := s.ParseDescription("", map[string]interface{}{}, false); err == nil {
		t.Fatal("expected an error for a missing path")
	}
}

func TestDescriptionsEqualResolvesSymlinks(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "real")
	if err := os.MkdirAll(real, 0o755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link")
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	s := newTestSource()
	a := Description{Path: real}
	b := Description{Path: link}
	if !s.DescriptionsEqual(a, b) {
		t.Error("a path and a symlink to it should compare equal")
	}
}

func TestGetVersionsMissingManifest(t *testing.T) {
	s := newTestSource()
	ref := gps.PackageRef{Name: "foo", Description: Description{Path: t.TempDir()}}
	if _, err := s.GetVersions(context.Background(), ref); err == nil {
		t.Fatal("expected an error for a directory missing vex.toml")
	}
}

func TestGetVersionsReturnsSyntheticVersion(t *testing.T) {
	dir := t.TempDir()
	if err := ioutil.WriteFile(filepath.Join(dir, manifestFileName), []byte("name = \"foo\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := newTestSource()
	ref := gps.PackageRef{Name: "foo", Description: Description{Path: dir}}
	versions, err := s.GetVersions(context.Background(), ref)
	if err != nil {
		t.Fatalf("GetVersions: %v", err)
	}
	if len(versions) != 1 || !versions[0].Equal(syntheticVersion) {
		t.Fatalf("versions = %v, want [%v]", versions, syntheticVersion)
	}
}

func TestGetCopiesDirectoryToDestination(t *testing.T) {
	src := t.TempDir()
	if err := ioutil.WriteFile(filepath.Join(src, "file.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(t.TempDir(), "dst")

	s := newTestSource()
	id := gps.PackageId{PackageRef: gps.PackageRef{Name: "foo", Description: Description{Path: src}}}

	ok, err := s.Get(context.Background(), id, dst)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected Get to report true when the source path exists")
	}
	if _, err := ioutil.ReadFile(filepath.Join(dst, "file.txt")); err != nil {
		t.Fatalf("copied file.txt missing: %v", err)
	}
}

func TestGetReportsFalseForMissingSource(t *testing.T) {
	s := newTestSource()
	id := gps.PackageId{PackageRef: gps.PackageRef{Name: "foo", Description: Description{Path: filepath.Join(t.TempDir(), "missing")}}}

	ok, err := s.Get(context.Background(), id, filepath.Join(t.TempDir(), "dst"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected Get to report false when the source path is missing")
	}
}
