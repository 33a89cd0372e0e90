// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gps

import "testing"

func TestManifestValidateRejectsBadName(t *testing.T) {
	m := &Manifest{Name: "has a space"}
	if err := m.Validate(); err == nil {
		t.Fatal("expected an error for an invalid package name")
	}
}

func TestManifestValidateRejectsEmptyName(t *testing.T) {
	m := &Manifest{}
	if err := m.Validate(); err == nil {
		t.Fatal("expected an error for a missing name")
	}
}

func TestManifestValidateRejectsDuplicateDependency(t *testing.T) {
	m := &Manifest{
		Name: "root",
		Dependencies: []Dependency{
			{Ref: PackageRef{Name: "foo"}},
			{Ref: PackageRef{Name: "foo"}},
		},
	}
	if err := m.Validate(); err == nil {
		t.Fatal("expected an error for a duplicate dependency name")
	}
}

func TestManifestValidateAcceptsWellFormed(t *testing.T) {
	m := &Manifest{
		Name: "root",
		Dependencies: []Dependency{
			{Ref: PackageRef{Name: "foo"}},
			{Ref: PackageRef{Name: "bar"}},
		},
		DevDependencies: []Dependency{
			{Ref: PackageRef{Name: "foo"}}, // fine: separate namespace from Dependencies
		},
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseManifestTOML(t *testing.T) {
	reg := NewSourceRegistry("hosted")
	reg.Register(&describeStub{name: "hosted"})

	doc := []byte(`
name = "myapp"
version = "1.0.0"
sdk = ">=1.0.0"

[dependencies]
foo = "^1.2.0"
`)
	m, err := ParseManifestTOML(doc, "/tmp", reg)
	if err != nil {
		t.Fatalf("ParseManifestTOML: %v", err)
	}
	if m.Name != "myapp" {
		t.Errorf("Name = %q, want myapp", m.Name)
	}
	if !m.HasVersion || m.Version.String() != "1.0.0" {
		t.Errorf("Version = %v, want 1.0.0", m.Version)
	}
	if len(m.Dependencies) != 1 || m.Dependencies[0].Ref.Name != "foo" {
		t.Fatalf("unexpected dependencies: %+v", m.Dependencies)
	}
}

func TestParseManifestTOMLRejectsBadTOML(t *testing.T) {
	reg := NewSourceRegistry("hosted")
	reg.Register(&describeStub{name: "hosted"})
	if _, err := ParseManifestTOML([]byte("not valid [ toml"), "/tmp", reg); err == nil {
		t.Fatal("expected a parse error")
	}
}
