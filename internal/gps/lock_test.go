// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gps

import "testing"

func newTestRegistry() *SourceRegistry {
	reg := NewSourceRegistry("hosted")
	reg.Register(&describeStub{name: "hosted"})
	return reg
}

func TestLockFileSerializeParseRoundTrip(t *testing.T) {
	reg := newTestRegistry()

	lf := &LockFile{
		Packages: []PackageId{
			{
				PackageRef: PackageRef{Name: "foo", SourceName: "hosted", Description: fakeDescription{val: "x"}},
				Version:    MustParseVersion("1.2.3"),
			},
		},
		SDK:    mustConstraint(t, ">=1.0.0"),
		HasSDK: true,
	}

	data, err := lf.Serialize(reg)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	parsed, err := ParseLockFile(data, reg)
	if err != nil {
		t.Fatalf("ParseLockFile: %v", err)
	}

	id, ok := parsed.Get("foo")
	if !ok {
		t.Fatal("expected foo to round-trip")
	}
	if !id.Version.Equal(MustParseVersion("1.2.3")) {
		t.Errorf("version = %s, want 1.2.3", id.Version)
	}
	if !parsed.HasSDK || parsed.SDK.String() != lf.SDK.String() {
		t.Errorf("sdk constraint did not round-trip: %+v", parsed.SDK)
	}
}

func TestParseLockFileRejectsUnknownSource(t *testing.T) {
	reg := newTestRegistry()
	doc := []byte(`
[[package]]
  name = "foo"
  source = "nope"
  version = "1.0.0"
`)
	if _, err := ParseLockFile(doc, reg); err == nil {
		t.Fatal("expected an error for an unregistered source")
	}
}

func TestParseLockFileRejectsMissingFields(t *testing.T) {
	reg := newTestRegistry()
	doc := []byte(`
[[package]]
  name = "foo"
`)
	if _, err := ParseLockFile(doc, reg); err == nil {
		t.Fatal("expected an error for a package entry missing required fields")
	}
}

func TestLockFileGetMissing(t *testing.T) {
	lf := &LockFile{}
	if _, ok := lf.Get("nope"); ok {
		t.Fatal("Get should report false for an absent package")
	}
}
