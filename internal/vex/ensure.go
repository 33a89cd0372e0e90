// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vex

import (
	"context"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/tapted/vex/internal/fs"
	"github.com/tapted/vex/internal/gps"
)

// VendorDirName is where resolved packages are materialized underneath
// a project root.
const VendorDirName = "vendor"

// EnsureOptions controls a single acquisition run.
type EnsureOptions struct {
	// UseLatest names packages that should ignore their locked version
	// and float to the newest version satisfying their constraint.
	UseLatest []string
	// UpgradeAll ignores the entire prior lock; every package floats to
	// its newest allowed version.
	UpgradeAll bool
	// DryRun solves and reports but does not touch vendor/ or the
	// lockfile.
	DryRun bool
}

// EnsureResult is what a pipeline run produces: the new lock and a
// human-readable diff against the project's previous one.
type EnsureResult struct {
	Lock   *gps.LockFile
	Report Report
}

// Ensure runs the full acquisition pipeline for p: solve the dependency
// graph, materialize every resolved package under vendor/, write the
// new lockfile, and report what changed relative to p.Lock. Unless a
// specific upgrade was requested, it first checks LockFileUpToDate and
// does nothing at all if the existing lock already satisfies the
// manifest and vendor/ is fully materialized.
func (c *Ctx) Ensure(ctx context.Context, p *Project, opts EnsureOptions) (*EnsureResult, error) {
	if !opts.UpgradeAll && len(opts.UseLatest) == 0 {
		upToDate, err := c.LockFileUpToDate(p)
		if err != nil {
			return nil, err
		}
		if upToDate {
			c.Vlogf("vex.lock is up to date, nothing to do")
			return &EnsureResult{Lock: p.Lock, Report: Report{}}, nil
		}
	}

	sdk := gps.ActiveSDKVersion(gps.MustParseVersion("1.0.0"))

	solver := gps.NewSolver(p.Manifest, c.Registry, p.Lock, opts.UseLatest, opts.UpgradeAll, sdk)
	result := solver.Solve(ctx)
	if !result.Succeeded {
		return nil, errors.Wrap(result.Err, "solving dependency graph")
	}
	c.Vlogf("solved in %d attempt(s)", result.Attempts)

	resolved := make([]gps.PackageId, len(result.Packages))
	for i, id := range result.Packages {
		src, err := c.Registry.Get(id.SourceName)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving source for %s", id.Name)
		}
		final, err := src.ResolveId(ctx, id)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving final identity for %s", id.Name)
		}
		resolved[i] = final
	}

	newLock := &gps.LockFile{Packages: resolved, SDK: p.Manifest.SDK, HasSDK: p.Manifest.HasSDK}
	rep := DiffLocks(p.Lock, newLock)

	if opts.DryRun {
		return &EnsureResult{Lock: newLock, Report: rep}, nil
	}

	if err := c.materializeVendor(ctx, p, resolved); err != nil {
		return nil, errors.Wrap(err, "materializing vendor directory")
	}

	lockPath := filepath.Join(p.AbsRoot, LockName)
	if err := gps.WriteLockFile(lockPath, newLock, c.Registry); err != nil {
		return nil, errors.Wrap(err, "writing lockfile")
	}

	p.Lock = newLock
	return &EnsureResult{Lock: newLock, Report: rep}, nil
}

// LockFileUpToDate is the short-circuit Ensure (and the check command)
// consult before ever invoking the solver: it reports whether p.Lock
// already satisfies p.Manifest without solving anything. It holds when
// every direct dependency (runtime and dev) has a locked entry with the
// same source, a version its constraint still allows, and an equal
// source description, and every locked package is materialized under
// vendor/. A missing lockfile is never up to date.
func (c *Ctx) LockFileUpToDate(p *Project) (bool, error) {
	if p.Lock == nil {
		return false, nil
	}

	direct := append(append([]gps.Dependency(nil), p.Manifest.Dependencies...), p.Manifest.DevDependencies...)
	for _, d := range direct {
		locked, ok := p.Lock.Get(d.Ref.Name)
		if !ok {
			return false, nil
		}
		if locked.SourceName != d.Ref.SourceName {
			return false, nil
		}
		if !d.Constraint.Allows(locked.Version) {
			return false, nil
		}
		src, err := c.Registry.Get(d.Ref.SourceName)
		if err != nil {
			return false, err
		}
		if !src.DescriptionsEqual(d.Ref.Description, locked.Description) {
			return false, nil
		}
	}

	for _, id := range p.Lock.Packages {
		materialized, err := fs.IsNonEmptyDir(filepath.Join(p.AbsRoot, VendorDirName, id.Name))
		if err != nil {
			return false, err
		}
		if !materialized {
			return false, nil
		}
	}

	return true, nil
}

// materializeVendor empties vendor/ and repopulates it with one entry
// per resolved package: cacheable sources are fetched into the system
// cache and copied out so the project tree stays self-contained on
// checkout; path sources copy straight from their target directory.
func (c *Ctx) materializeVendor(ctx context.Context, p *Project, ids []gps.PackageId) error {
	vendorDir := filepath.Join(p.AbsRoot, VendorDirName)
	if err := fs.EmptyDir(vendorDir); err != nil {
		return err
	}

	for _, id := range ids {
		src, err := c.Registry.Get(id.SourceName)
		if err != nil {
			return errors.Wrapf(err, "resolving source for %s", id.Name)
		}

		dest := filepath.Join(vendorDir, id.Name)

		if src.ShouldCache() {
			pkg, err := src.DownloadToSystemCache(ctx, id)
			if err != nil {
				return errors.Wrapf(err, "downloading %s", id.Name)
			}
			if err := fs.CopyDir(pkg.Dir, dest); err != nil {
				return errors.Wrapf(err, "copying %s into vendor", id.Name)
			}
			continue
		}

		ok, err := src.Get(ctx, id, dest)
		if err != nil {
			return errors.Wrapf(err, "fetching %s", id.Name)
		}
		if !ok {
			return errors.Errorf("failed to materialize %s", id.Name)
		}
	}
	return nil
}
