// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vex wires the version solver (internal/gps) and its sources
// into the project-level acquisition pipeline: loading a manifest, cache
// root discovery, running ensure, and reporting what changed.
package vex

import (
	"log"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/tapted/vex/internal/gps"
	"github.com/tapted/vex/internal/gps/cache"
	"github.com/tapted/vex/internal/vex/cfg"
)

// ManifestName and LockName are the on-disk filenames a project root is
// recognized by.
const (
	ManifestName = "vex.toml"
	LockName     = "vex.lock"
)

// Ctx carries the loggers, cache, and source registry shared by every
// pipeline operation.
type Ctx struct {
	Out, Err *log.Logger
	Verbose  bool

	Cache    *cache.SystemCache
	Registry *gps.SourceRegistry
}

// NewContext opens the system cache at cacheRoot (creating it if
// necessary) and builds a Ctx with the default source registry wired
// in (see registry.go).
func NewContext(cacheRoot string, verbose bool) (*Ctx, error) {
	if cacheRoot == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "resolving cache root")
		}
		cacheRoot = filepath.Join(home, ".vex-cache")
	}

	sc, err := cache.Open(cacheRoot)
	if err != nil {
		return nil, errors.Wrap(err, "opening system cache")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(err, "resolving home directory")
	}
	userCfg, err := cfg.Load(cfg.DefaultPath(home))
	if err != nil {
		return nil, errors.Wrap(err, "loading user config")
	}

	c := &Ctx{
		Out:     log.New(os.Stdout, "", 0),
		Err:     log.New(os.Stderr, "", 0),
		Verbose: verbose,
		Cache:   sc,
	}
	c.Registry = defaultRegistry(sc, userCfg)
	return c, nil
}

func (c *Ctx) Vlogf(format string, args ...interface{}) {
	if !c.Verbose {
		return
	}
	c.Out.Printf(format, args...)
}

// Close releases resources held by the context, in particular the
// system cache's metadata database.
func (c *Ctx) Close() error {
	if c.Cache != nil {
		return c.Cache.Close()
	}
	return nil
}
