// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fs provides the filesystem primitives the acquisition
// pipeline and system cache build on: atomic rename-into-place with a
// copy fallback across filesystems, recursive directory copy, and the
// directory-state checks (IsDir, IsNonEmptyDir, IsSymlink, EmptyDir)
// used to decide what those higher-level operations need to do.
package fs

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

var (
	errSrcNotDir = errors.New("source is not a directory")
	errDstExist  = errors.New("destination already exists")
)

// RenameWithFallback renames src to dst, falling back to a recursive
// copy-then-remove when the two paths are on different volumes and the
// OS refuses a cross-device rename.
func RenameWithFallback(src, dst string) error {
	if _, err := os.Stat(src); err != nil {
		return errors.Wrapf(err, "cannot stat %s", src)
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	isDir, err := IsDir(src)
	if err != nil {
		return err
	}
	if isDir {
		if err := CopyDir(src, dst); err != nil {
			return errors.Wrap(err, "rename fallback: copying directory")
		}
	} else if err := copyFile(src, dst); err != nil {
		return errors.Wrap(err, "rename fallback: copying file")
	}
	return errors.Wrapf(os.RemoveAll(src), "cannot remove %s after copy fallback", src)
}

// CopyDir recursively copies a directory tree, preserving permissions.
// src must exist and be a directory; dst must not already exist.
func CopyDir(src, dst string) error {
	src, dst = filepath.Clean(src), filepath.Clean(dst)

	fi, err := os.Lstat(src)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return errSrcNotDir
	}
	if _, err := os.Stat(dst); err == nil {
		return errDstExist
	} else if !os.IsNotExist(err) {
		return err
	}

	if err := os.MkdirAll(dst, fi.Mode()); err != nil {
		return errors.Wrapf(err, "cannot mkdir %s", dst)
	}

	entries, err := ioutil.ReadDir(src)
	if err != nil {
		return errors.Wrapf(err, "cannot read directory %s", src)
	}
	for _, entry := range entries {
		srcPath, dstPath := filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name())
		if entry.IsDir() {
			if err := CopyDir(srcPath, dstPath); err != nil {
				return errors.Wrap(err, "copying directory failed")
			}
		} else if err := copyFile(srcPath, dstPath); err != nil {
			return errors.Wrap(err, "copying file failed")
		}
	}
	return nil
}

func copyFile(src, dst string) (err error) {
	if link, serr := IsSymlink(src); serr == nil && link {
		target, err := os.Readlink(src)
		if err != nil {
			return errors.Wrap(err, "reading symlink")
		}
		return os.Symlink(target, dst)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_RDWR|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return errors.Wrap(err, "copying file contents")
	}
	return out.Sync()
}

// IsDir reports whether name exists and is a directory.
func IsDir(name string) (bool, error) {
	fi, err := os.Stat(name)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return fi.IsDir(), nil
}

// IsNonEmptyDir reports whether name is a directory containing at least
// one entry.
func IsNonEmptyDir(name string) (bool, error) {
	isDir, err := IsDir(name)
	if err != nil || !isDir {
		return false, err
	}
	entries, err := ioutil.ReadDir(name)
	if err != nil {
		return false, err
	}
	return len(entries) > 0, nil
}

// IsSymlink reports whether path is a symbolic link.
func IsSymlink(path string) (bool, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		return false, err
	}
	return fi.Mode()&os.ModeSymlink != 0, nil
}

// EmptyDir removes every entry inside dir without removing dir itself,
// creating it first if it doesn't yet exist (used before repopulating
// the vendor/ directory).
func EmptyDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}
	entries, err := ioutil.ReadDir(dir)
	if err != nil {
		return errors.Wrapf(err, "reading %s", dir)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return errors.Wrapf(err, "removing %s", e.Name())
		}
	}
	return nil
}
