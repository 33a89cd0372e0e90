// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package archive extracts the tarball and zip payloads that hosted and
// git-tarball-fallback fetches deliver, stripping the single top-level
// directory most archive producers wrap their content in.
package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ExtractTarGz reads a gzip-compressed tar stream from r and writes its
// contents under dst, creating dst if necessary. If every entry in the
// archive shares a single top-level directory component, that component
// is stripped (GitHub codeload tarballs and most hosted-index archives
// both wrap their payload this way).
func ExtractTarGz(r io.Reader, dst string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return errors.Wrap(err, "opening gzip stream")
	}
	defer gz.Close()

	data, err := io.ReadAll(gz)
	if err != nil {
		return errors.Wrap(err, "reading gzip stream")
	}

	if err := os.MkdirAll(dst, 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", dst)
	}

	strip, ok := "", false
	for pre := tar.NewReader(bytes.NewReader(data)); ; {
		hdr, err := pre.Next()
		if err != nil {
			break
		}
		if top := topLevelDir(hdr.Name); !ok {
			strip, ok = top, true
		} else if top != strip {
			strip = ""
		}
	}

	tr := tar.NewReader(bytes.NewReader(data))
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(err, "reading tar entry")
		}

		rel := stripPrefix(hdr.Name, strip)
		if rel == "" {
			continue
		}
		target := filepath.Join(dst, filepath.FromSlash(rel))

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg, tar.TypeRegA:
			if err := writeFile(target, tr, os.FileMode(hdr.Mode)); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			_ = os.Symlink(hdr.Linkname, target)
		}
	}
	return nil
}

// ExtractZip extracts a zip archive read from r (ra must support random
// access, so size is required up front) to dst, stripping a shared
// top-level directory the same way ExtractTarGz does.
func ExtractZip(ra io.ReaderAt, size int64, dst string) error {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return errors.Wrap(err, "opening zip archive")
	}

	if err := os.MkdirAll(dst, 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", dst)
	}

	strip, ok := "", false
	for _, f := range zr.File {
		if !ok {
			strip, ok = topLevelDir(f.Name), true
		} else if top := topLevelDir(f.Name); top != strip {
			strip = ""
		}
	}

	for _, f := range zr.File {
		rel := stripPrefix(f.Name, strip)
		if rel == "" {
			continue
		}
		target := filepath.Join(dst, filepath.FromSlash(rel))

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return errors.Wrapf(err, "opening %s", f.Name)
		}
		err = writeFile(target, rc, f.Mode())
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func writeFile(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return errors.Wrapf(err, "creating %s", target)
	}
	_, err = io.Copy(out, r)
	closeErr := out.Close()
	if err != nil {
		return errors.Wrapf(err, "writing %s", target)
	}
	return closeErr
}

func topLevelDir(name string) string {
	name = strings.TrimPrefix(filepath.ToSlash(name), "/")
	if i := strings.IndexByte(name, '/'); i >= 0 {
		return name[:i]
	}
	return ""
}

// stripPrefix removes the leading prefix+"/" from name, returning ""
// when the stripped result would be empty (the top-level directory
// entry itself).
func stripPrefix(name, prefix string) string {
	name = filepath.ToSlash(strings.TrimPrefix(name, "/"))
	if prefix == "" {
		return name
	}
	if name == prefix {
		return ""
	}
	rest := strings.TrimPrefix(name, prefix+"/")
	if rest == name {
		return name
	}
	return rest
}
