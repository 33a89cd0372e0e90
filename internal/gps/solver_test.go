// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gps

import (
	"context"
	"testing"
)

// memDescription and memSource are an in-memory Source used only by
// these tests, so the solver's search can be driven deterministically
// without a network or filesystem.
type memDescription struct{ Name string }

func (memDescription) IsSourceDescription() {}

type memSource struct {
	versions  map[string][]Version
	manifests map[string]map[string]Manifest // name -> version string -> manifest
}

func newMemSource() *memSource {
	return &memSource{versions: map[string][]Version{}, manifests: map[string]map[string]Manifest{}}
}

func (m *memSource) addVersion(name, version string, deps ...Dependency) {
	v := MustParseVersion(version)
	m.versions[name] = append(m.versions[name], v)
	if m.manifests[name] == nil {
		m.manifests[name] = map[string]Manifest{}
	}
	m.manifests[name][version] = Manifest{Name: name, Version: v, HasVersion: true, Dependencies: deps}
}

func (m *memSource) Name() string      { return "mem" }
func (m *memSource) ShouldCache() bool { return false }

func (m *memSource) ParseDescription(_ string, raw interface{}, _ bool) (SourceDescription, error) {
	name, _ := raw.(string)
	return memDescription{Name: name}, nil
}
func (m *memSource) SerializeDescription(_ string, d SourceDescription) interface{} {
	return d.(memDescription).Name
}
func (m *memSource) DescriptionsEqual(a, b SourceDescription) bool {
	return a.(memDescription).Name == b.(memDescription).Name
}

func (m *memSource) DescribeUncached(_ context.Context, id PackageId) (Manifest, error) {
	byVersion, ok := m.manifests[id.Name]
	if !ok {
		return Manifest{}, &PackageNotFoundError{Name: id.Name, Source: "mem"}
	}
	man, ok := byVersion[id.Version.String()]
	if !ok {
		return Manifest{}, &PackageNotFoundError{Name: id.Name, Source: "mem"}
	}
	return man, nil
}

func (m *memSource) GetVersions(_ context.Context, ref PackageRef) ([]Version, error) {
	return m.versions[ref.Name], nil
}

func (m *memSource) DownloadToSystemCache(context.Context, PackageId) (Package, error) {
	return Package{}, &InvalidArgumentError{Msg: "mem source does not cache"}
}
func (m *memSource) Get(context.Context, PackageId, string) (bool, error) { return true, nil }
func (m *memSource) GetDirectory(context.Context, PackageId) (string, error) {
	return "", nil
}
func (m *memSource) ResolveId(_ context.Context, id PackageId) (PackageId, error) { return id, nil }

var _ Source = (*memSource)(nil)

func memRef(name string) PackageRef {
	return PackageRef{Name: name, SourceName: "mem", Description: memDescription{Name: name}}
}

func memDep(name, constraint string) Dependency {
	return Dependency{Ref: memRef(name), Constraint: mustConstraintPkg(constraint)}
}

func mustConstraintPkg(s string) VersionConstraint {
	c, err := ParseConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

func newTestSolver(root Manifest, mem *memSource, lock *LockFile) *Solver {
	reg := NewSourceRegistry("mem")
	reg.Register(mem)
	return NewSolver(root, reg, lock, nil, false, MustParseVersion("1.0.0"))
}

func TestSolverPicksNewestSatisfying(t *testing.T) {
	mem := newMemSource()
	mem.addVersion("a", "1.0.0")
	mem.addVersion("a", "1.1.0")
	mem.addVersion("a", "2.0.0")

	root := Manifest{Name: "root", Dependencies: []Dependency{memDep("a", "^1.0.0")}}
	result := newTestSolver(root, mem, nil).Solve(context.Background())

	if !result.Succeeded {
		t.Fatalf("solve failed: %v", result.Err)
	}
	if len(result.Packages) != 1 || result.Packages[0].Version.String() != "1.1.0" {
		t.Fatalf("packages = %+v, want a@1.1.0", result.Packages)
	}
}

func TestSolverBacktracksPastBrokenVersion(t *testing.T) {
	mem := newMemSource()
	// a@2.0.0 requires c^2.0.0, which doesn't exist; the solver must
	// backtrack to a@1.0.0, which has no such requirement.
	mem.addVersion("a", "1.0.0")
	mem.addVersion("a", "2.0.0", memDep("c", "^2.0.0"))
	mem.addVersion("c", "1.0.0")

	root := Manifest{Name: "root", Dependencies: []Dependency{memDep("a", "any")}}
	result := newTestSolver(root, mem, nil).Solve(context.Background())

	if !result.Succeeded {
		t.Fatalf("solve failed: %v", result.Err)
	}
	for _, id := range result.Packages {
		if id.Name == "a" && id.Version.String() != "1.0.0" {
			t.Fatalf("expected a to backtrack to 1.0.0, got %s", id.Version)
		}
	}
}

func TestSolverFailsOnIrreconcilableSources(t *testing.T) {
	mem := newMemSource()
	mem.addVersion("a", "1.0.0", memDep("c", "^1.0.0"))
	mem.addVersion("b", "1.0.0", memDep("c", "^2.0.0"))
	mem.addVersion("c", "1.0.0")
	mem.addVersion("c", "2.0.0")

	root := Manifest{Name: "root", Dependencies: []Dependency{memDep("a", "any"), memDep("b", "any")}}
	result := newTestSolver(root, mem, nil).Solve(context.Background())

	if result.Succeeded {
		t.Fatalf("expected solve to fail on irreconcilable constraints on c, got %+v", result.Packages)
	}
}

func TestSolverPrefersLockedVersion(t *testing.T) {
	mem := newMemSource()
	mem.addVersion("a", "1.0.0")
	mem.addVersion("a", "1.1.0")

	root := Manifest{Name: "root", Dependencies: []Dependency{memDep("a", "^1.0.0")}}
	lock := &LockFile{Packages: []PackageId{{PackageRef: memRef("a"), Version: MustParseVersion("1.0.0")}}}

	result := newTestSolver(root, mem, lock).Solve(context.Background())
	if !result.Succeeded {
		t.Fatalf("solve failed: %v", result.Err)
	}
	if result.Packages[0].Version.String() != "1.0.0" {
		t.Fatalf("expected the locked version 1.0.0 to be preferred, got %s", result.Packages[0].Version)
	}
}

func TestSolverUpgradeAllIgnoresLock(t *testing.T) {
	mem := newMemSource()
	mem.addVersion("a", "1.0.0")
	mem.addVersion("a", "1.1.0")

	root := Manifest{Name: "root", Dependencies: []Dependency{memDep("a", "^1.0.0")}}
	lock := &LockFile{Packages: []PackageId{{PackageRef: memRef("a"), Version: MustParseVersion("1.0.0")}}}

	reg := NewSourceRegistry("mem")
	reg.Register(mem)
	solver := NewSolver(root, reg, lock, nil, true, MustParseVersion("1.0.0"))

	result := solver.Solve(context.Background())
	if !result.Succeeded {
		t.Fatalf("solve failed: %v", result.Err)
	}
	if result.Packages[0].Version.String() != "1.1.0" {
		t.Fatalf("expected upgradeAll to float to 1.1.0, got %s", result.Packages[0].Version)
	}
}

func TestSolverRejectsSdkMismatch(t *testing.T) {
	mem := newMemSource()
	mem.addVersion("a", "1.0.0")

	root := Manifest{Name: "root", SDK: mustConstraintPkg(">=2.0.0"), HasSDK: true}
	result := newTestSolver(root, mem, nil).Solve(context.Background())

	if result.Succeeded {
		t.Fatal("expected solve to fail when the active SDK doesn't satisfy the root constraint")
	}
	if _, ok := result.Err.(*SdkConstraintError); !ok {
		t.Fatalf("expected a SdkConstraintError, got %T: %v", result.Err, result.Err)
	}
}
