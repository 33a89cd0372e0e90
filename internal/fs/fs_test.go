// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fs

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func TestRenameWithFallback(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	if err := ioutil.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := RenameWithFallback(src, dst); err != nil {
		t.Fatalf("RenameWithFallback: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("src should be gone after rename, stat err = %v", err)
	}
	got, err := ioutil.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "payload" {
		t.Fatalf("dst contents = %q, want %q", got, "payload")
	}
}

func TestRenameWithFallbackMissingSrc(t *testing.T) {
	dir := t.TempDir()
	err := RenameWithFallback(filepath.Join(dir, "missing"), filepath.Join(dir, "dst"))
	if err == nil {
		t.Fatal("expected an error for a nonexistent source")
	}
}

func TestCopyDir(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")

	if err := os.MkdirAll(filepath.Join(src, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := ioutil.WriteFile(filepath.Join(src, "top.txt"), []byte("top"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ioutil.WriteFile(filepath.Join(src, "nested", "deep.txt"), []byte("deep"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CopyDir(src, dst); err != nil {
		t.Fatalf("CopyDir: %v", err)
	}

	for _, rel := range []string{"top.txt", filepath.Join("nested", "deep.txt")} {
		if _, err := os.Stat(filepath.Join(src, rel)); err != nil {
			t.Fatalf("source %s should still exist after copy: %v", rel, err)
		}
		if _, err := os.Stat(filepath.Join(dst, rel)); err != nil {
			t.Fatalf("copied %s missing: %v", rel, err)
		}
	}
}

func TestCopyDirRejectsNonDirectorySource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "file")
	if err := ioutil.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CopyDir(src, filepath.Join(dir, "dst")); err != errSrcNotDir {
		t.Fatalf("CopyDir on a file = %v, want errSrcNotDir", err)
	}
}

func TestCopyDirRejectsExistingDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := CopyDir(src, dst); err != errDstExist {
		t.Fatalf("CopyDir onto an existing destination = %v, want errDstExist", err)
	}
}

func TestIsDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	if err := ioutil.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if isDir, err := IsDir(dir); err != nil || !isDir {
		t.Fatalf("IsDir(dir) = %v, %v, want true, nil", isDir, err)
	}
	if isDir, err := IsDir(file); err != nil || isDir {
		t.Fatalf("IsDir(file) = %v, %v, want false, nil", isDir, err)
	}
	if isDir, err := IsDir(filepath.Join(dir, "nonexistent")); err != nil || isDir {
		t.Fatalf("IsDir(missing) = %v, %v, want false, nil", isDir, err)
	}
}

func TestIsNonEmptyDir(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	nonEmpty := filepath.Join(dir, "nonempty")
	if err := os.MkdirAll(empty, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(nonEmpty, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := ioutil.WriteFile(filepath.Join(nonEmpty, "f"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if ok, err := IsNonEmptyDir(empty); err != nil || ok {
		t.Fatalf("IsNonEmptyDir(empty) = %v, %v, want false, nil", ok, err)
	}
	if ok, err := IsNonEmptyDir(nonEmpty); err != nil || !ok {
		t.Fatalf("IsNonEmptyDir(nonEmpty) = %v, %v, want true, nil", ok, err)
	}
}

func TestIsSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	link := filepath.Join(dir, "link")
	if err := ioutil.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	if ok, err := IsSymlink(link); err != nil || !ok {
		t.Fatalf("IsSymlink(link) = %v, %v, want true, nil", ok, err)
	}
	if ok, err := IsSymlink(target); err != nil || ok {
		t.Fatalf("IsSymlink(target) = %v, %v, want false, nil", ok, err)
	}
}

func TestCopyDirPreservesSymlinks(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := ioutil.WriteFile(filepath.Join(src, "real.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("real.txt", filepath.Join(src, "link.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	if err := CopyDir(src, dst); err != nil {
		t.Fatalf("CopyDir: %v", err)
	}
	if ok, err := IsSymlink(filepath.Join(dst, "link.txt")); err != nil || !ok {
		t.Fatalf("copied link.txt IsSymlink = %v, %v, want true, nil", ok, err)
	}
}

func TestEmptyDir(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")

	if err := EmptyDir(target); err != nil {
		t.Fatalf("EmptyDir on a missing directory should create it: %v", err)
	}
	if isDir, err := IsDir(target); err != nil || !isDir {
		t.Fatalf("EmptyDir should have created %s", target)
	}

	if err := ioutil.WriteFile(filepath.Join(target, "stale.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(target, "stale-dir"), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := EmptyDir(target); err != nil {
		t.Fatalf("EmptyDir on an existing directory: %v", err)
	}
	entries, err := ioutil.ReadDir(target)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("EmptyDir left entries behind: %v", entries)
	}
}
