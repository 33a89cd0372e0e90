// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cache implements the content-addressed, single-flight system
// cache: a directory tree keyed by (source, name, version-or-revision),
// backed by a persisted bbolt metadata store so a restart doesn't
// re-hit the network for package metadata already seen, and a
// bounded-concurrency, single-flight download path.
package cache

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/tapted/vex/internal/fs"
)

// maxConcurrentFetches bounds simultaneous file-descriptor-consuming
// operations: empirically 32 concurrent fetches.
const maxConcurrentFetches = 32

var metaBucket = []byte("packages")

// SystemCache is the root of the on-disk cache: Root/<source>/<name>-<version>
// directories plus Root/temp/ staging and Root/meta.db bookkeeping.
type SystemCache struct {
	Root string

	db  *bolt.DB
	sem *semaphore.Weighted
	sf  singleflight.Group
}

// Key identifies a cache entry: source name, package name, and either a
// version string or a resolved revision (git commit).
type Key struct {
	Source            string
	Name              string
	VersionOrRevision string
}

func (k Key) dirName() string {
	return k.Name + "-" + k.VersionOrRevision
}

func (k Key) bucketKey() []byte {
	return []byte(k.Source + "\x00" + k.Name + "\x00" + k.VersionOrRevision)
}

// Open initializes a SystemCache rooted at root, creating its directory
// tree and metadata database, and clearing any stale staging files left
// by a prior process that did not exit cleanly.
func Open(root string) (*SystemCache, error) {
	for _, sub := range []string{"", "temp"} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			return nil, errors.Wrapf(err, "creating cache directory %s", sub)
		}
	}

	if err := cleanTemp(filepath.Join(root, "temp")); err != nil {
		return nil, err
	}

	db, err := bolt.Open(filepath.Join(root, "meta.db"), 0o644, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "opening cache metadata store")
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(metaBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initializing cache metadata store")
	}

	return &SystemCache{
		Root: root,
		db:   db,
		sem:  semaphore.NewWeighted(maxConcurrentFetches),
	}, nil
}

func cleanTemp(dir string) error {
	entries, err := ioutil.ReadDir(dir)
	if err != nil {
		return errors.Wrap(err, "listing cache temp directory")
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return errors.Wrap(err, "clearing stale cache staging entry")
		}
	}
	return nil
}

// Close releases the metadata database handle.
func (c *SystemCache) Close() error { return c.db.Close() }

// DirFor returns the final on-disk location for key, whether or not it
// has been populated yet.
func (c *SystemCache) DirFor(key Key) string {
	return filepath.Join(c.Root, key.Source, key.dirName())
}

// Download materializes key by calling fetch(stagingDir) at most once
// across any number of concurrent callers for the same key: concurrent
// calls for the same key share a single underlying fetch via
// singleflight. fetch must populate stagingDir; Download
// renames it into place on success. If the entry already exists on
// disk, fetch is not invoked at all (cache entries are write-once,
// read-only thereafter per the data model's Lifecycle section).
func (c *SystemCache) Download(ctx context.Context, key Key, fetch func(stagingDir string) error) (string, error) {
	final := c.DirFor(key)
	if _, err := os.Stat(final); err == nil {
		return final, nil
	}

	sfKey := string(key.bucketKey())
	v, err, _ := c.sf.Do(sfKey, func() (interface{}, error) {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer c.sem.Release(1)

		if _, err := os.Stat(final); err == nil {
			return final, nil
		}

		staging, err := ioutil.TempDir(filepath.Join(c.Root, "temp"), "fetch-")
		if err != nil {
			return nil, errors.Wrap(err, "creating cache staging directory")
		}
		defer os.RemoveAll(staging)

		if err := fetch(staging); err != nil {
			return nil, err
		}

		if err := os.MkdirAll(filepath.Dir(final), 0o755); err != nil {
			return nil, errors.Wrap(err, "creating cache source directory")
		}
		if err := fs.RenameWithFallback(staging, final); err != nil {
			return nil, errors.Wrap(err, "installing cache entry")
		}
		return final, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// PutManifestMeta persists manifest bytes for key in the bbolt metadata
// store, so DescribeUncached calls that only need manifest data (not a
// full download) can be served from disk on a later run.
func (c *SystemCache) PutManifestMeta(key Key, manifest []byte) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(metaBucket).Put(key.bucketKey(), manifest)
	})
}

// ManifestMeta looks up previously persisted manifest bytes for key, ok
// is false on a cache miss.
func (c *SystemCache) ManifestMeta(key Key) (data []byte, ok bool) {
	_ = c.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(metaBucket).Get(key.bucketKey()); v != nil {
			data = append([]byte(nil), v...)
			ok = true
		}
		return nil
	})
	return data, ok
}
