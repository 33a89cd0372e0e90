// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/tapted/vex/internal/vex"
)

// setupCheckProject builds a root project with a path dependency and
// chdirs into it, so checkCommand.Run can load it via ".".
func setupCheckProject(t *testing.T) *vex.Ctx {
	t.Helper()
	root := t.TempDir()

	depDir := filepath.Join(root, "dep")
	if err := os.MkdirAll(depDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := ioutil.WriteFile(filepath.Join(depDir, vex.ManifestName), []byte("name = \"dep\"\nversion = \"1.0.0\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ioutil.WriteFile(filepath.Join(depDir, "lib.txt"), []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}

	projDir := filepath.Join(root, "proj")
	if err := os.MkdirAll(projDir, 0o755); err != nil {
		t.Fatal(err)
	}
	manifest := "name = \"proj\"\nversion = \"1.0.0\"\n\n" +
		"[dependencies.dep]\n" +
		"source = \"path\"\n" +
		"path = \"../dep\"\n"
	if err := ioutil.WriteFile(filepath.Join(projDir, vex.ManifestName), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(projDir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(cwd) })

	c, err := vex.NewContext(t.TempDir(), false)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCheckCommandFailsWithNoLock(t *testing.T) {
	c := setupCheckProject(t)
	if err := (&checkCommand{}).Run(c, nil); err == nil {
		t.Fatal("expected an error with no vex.lock present")
	}
}

func TestCheckCommandSucceedsAfterGet(t *testing.T) {
	c := setupCheckProject(t)

	p, err := c.LoadProject(".")
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if _, err := c.Ensure(context.Background(), p, vex.EnsureOptions{}); err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	if err := (&checkCommand{}).Run(c, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestCheckCommandDoesNotWriteAnything(t *testing.T) {
	c := setupCheckProject(t)

	p, err := c.LoadProject(".")
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if _, err := c.Ensure(context.Background(), p, vex.EnsureOptions{}); err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	lockInfoBefore, err := os.Stat(vex.LockName)
	if err != nil {
		t.Fatal(err)
	}

	if err := (&checkCommand{}).Run(c, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	lockInfoAfter, err := os.Stat(vex.LockName)
	if err != nil {
		t.Fatal(err)
	}
	if lockInfoBefore.ModTime() != lockInfoAfter.ModTime() {
		t.Fatal("check should not rewrite vex.lock")
	}
}
