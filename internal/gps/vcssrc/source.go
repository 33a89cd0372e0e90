// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vcssrc implements gps.Source for git-hosted packages, driving
// the local git binary via github.com/Masterminds/vcs and falling back
// to a GitHub tarball snapshot when git is unavailable.
package vcssrc

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/http"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	mvcs "github.com/Masterminds/vcs"
	"github.com/pkg/errors"

	"github.com/tapted/vex/internal/archive"
	"github.com/tapted/vex/internal/gps"
	"github.com/tapted/vex/internal/gps/cache"
)

// Description is the git SourceDescription: the remote URL, a symbolic
// ref (branch/tag, defaults to the repo's default branch), and — once
// resolved — the commit it points at. Two unresolved descriptions
// compare equal on URL+ref alone; ResolvedRef does not participate in
// that comparison.
type Description struct {
	URL         string
	Ref         string
	ResolvedRef string
}

func (Description) IsSourceDescription() {}

func (d Description) effectiveRef() string {
	if d.Ref == "" {
		return "HEAD"
	}
	return d.Ref
}

// Source drives git via Masterminds/vcs, layering a per-URL bare mirror
// clone under the system cache with one working-tree clone per required
// commit made from that mirror, so only the first checkout of a
// given repository ever touches the network for a clone.
type Source struct {
	Cache      *cache.SystemCache
	Registry   *gps.SourceRegistry
	Client     *http.Client
	gitMissing bool
}

// New builds a git Source backed by sc, resolving a checked-out
// package's own manifest dependencies against reg. It probes once for
// the git binary; if absent, every subsequent operation on a
// non-github.com remote fails with GitError, and github.com remotes
// fall back to a tarball snapshot of HEAD via the GitHub API.
func New(sc *cache.SystemCache, reg *gps.SourceRegistry) *Source {
	_, err := exec.LookPath("git")
	return &Source{Cache: sc, Registry: reg, Client: &http.Client{Timeout: 30 * time.Second}, gitMissing: err != nil}
}

func (s *Source) Name() string      { return "git" }
func (s *Source) ShouldCache() bool { return true }

func (s *Source) ParseDescription(containingDir string, raw interface{}, fromLockFile bool) (gps.SourceDescription, error) {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, &gps.ParseError{Msg: "git description must be a table with a url key"}
	}
	url, _ := m["url"].(string)
	if url == "" {
		return nil, &gps.ParseError{Msg: "git description missing url"}
	}
	ref, _ := m["ref"].(string)
	resolved, _ := m["resolved-ref"].(string)
	if fromLockFile && resolved == "" {
		return nil, &gps.ParseError{Msg: "git lockfile description missing resolved-ref"}
	}
	return Description{URL: url, Ref: ref, ResolvedRef: resolved}, nil
}

func (s *Source) SerializeDescription(containingDir string, d gps.SourceDescription) interface{} {
	gd := d.(Description)
	out := map[string]interface{}{"url": gd.URL}
	if gd.Ref != "" {
		out["ref"] = gd.Ref
	}
	if gd.ResolvedRef != "" {
		out["resolved-ref"] = gd.ResolvedRef
	}
	return out
}

// DescriptionsEqual compares url and effective ref; ResolvedRef is
// deliberately excluded.
func (s *Source) DescriptionsEqual(a, b gps.SourceDescription) bool {
	da, db := a.(Description), b.(Description)
	return da.URL == db.URL && da.effectiveRef() == db.effectiveRef()
}

func mirrorDirName(url string) string {
	sum := sha1.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}

func (s *Source) mirrorPath(d Description) string {
	return filepath.Join(s.Cache.Root, "git", "cache", mirrorName(d.URL))
}

func mirrorName(url string) string {
	base := filepath.Base(strings.TrimSuffix(url, ".git"))
	return fmt.Sprintf("%s-%s", base, mirrorDirName(url))
}

// ensureMirror clones (or updates) the bare mirror for d.URL, once per
// process per repository — repeated calls for the same URL reuse the
// existing mirror and only fetch new refs.
func (s *Source) ensureMirror(ctx context.Context, d Description) (string, error) {
	if s.gitMissing {
		return "", &gps.GitError{Args: []string{"clone", "--mirror"}, Err: errors.New("git binary not found")}
	}
	path := s.mirrorPath(d)
	repo, err := mvcs.NewGitRepo(d.URL, path)
	if err != nil {
		return "", &gps.GitError{Args: []string{"new", d.URL}, Err: err}
	}
	if !repo.CheckLocal() {
		if err := runGit(ctx, "", "clone", "--mirror", d.URL, path); err != nil {
			return "", err
		}
	} else {
		if err := runGit(ctx, path, "fetch", "--all", "--tags"); err != nil {
			return "", err
		}
	}
	return path, nil
}

func (s *Source) resolveCommit(ctx context.Context, d Description) (string, error) {
	if d.ResolvedRef != "" {
		return d.ResolvedRef, nil
	}
	mirror, err := s.ensureMirror(ctx, d)
	if err != nil {
		return "", err
	}
	out, err := captureGit(ctx, mirror, "rev-parse", d.effectiveRef())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// GetVersions returns a single-element slice: git sources don't enumerate
// a version list the way hosted packages do — the solver pins to the ref
// as named, with the commit resolved lazily.
func (s *Source) GetVersions(ctx context.Context, ref gps.PackageRef) ([]gps.Version, error) {
	return []gps.Version{gps.MustParseVersion("0.0.0")}, nil
}

// DescribeUncached resolves id's manifest, consulting the persisted
// manifest metadata cache by resolved commit before checking out the
// commit at all: once a commit's manifest has been read, a later call
// for the same commit skips the checkout. Resolving the ref to a commit
// still fetches the mirror and runs rev-parse on every call unless the
// description already carries a ResolvedRef.
func (s *Source) DescribeUncached(ctx context.Context, id gps.PackageId) (gps.Manifest, error) {
	d := id.Description.(Description)
	commit, err := s.resolveCommit(ctx, d)
	if err != nil {
		if s.gitMissing && isGitHub(d.URL) {
			dir, ferr := s.githubTarballFallback(ctx, d, id)
			if ferr != nil {
				return gps.Manifest{}, ferr
			}
			return loadManifestFromDir(dir, s.Registry)
		}
		return gps.Manifest{}, err
	}

	key := cache.Key{Source: "git", Name: id.Name, VersionOrRevision: commit}
	if data, ok := s.Cache.ManifestMeta(key); ok {
		return gps.ParseManifestTOML(data, s.Cache.DirFor(key), s.Registry)
	}

	dir, err := s.checkoutCommit(ctx, d, id, commit)
	if err != nil {
		return gps.Manifest{}, err
	}
	data, err := readManifestBytes(dir)
	if err != nil {
		return gps.Manifest{}, err
	}
	if err := s.Cache.PutManifestMeta(key, data); err != nil {
		return gps.Manifest{}, errors.Wrap(err, "persisting manifest metadata")
	}
	return gps.ParseManifestTOML(data, dir, s.Registry)
}

func (s *Source) checkoutFor(ctx context.Context, id gps.PackageId) (string, error) {
	d := id.Description.(Description)
	commit, err := s.resolveCommit(ctx, d)
	if err != nil {
		if s.gitMissing && isGitHub(d.URL) {
			return s.githubTarballFallback(ctx, d, id)
		}
		return "", err
	}
	return s.checkoutCommit(ctx, d, id, commit)
}

func (s *Source) checkoutCommit(ctx context.Context, d Description, id gps.PackageId, commit string) (string, error) {
	key := cache.Key{Source: "git", Name: id.Name, VersionOrRevision: commit}
	return s.Cache.Download(ctx, key, func(staging string) error {
		mirror, err := s.ensureMirror(ctx, d)
		if err != nil {
			return err
		}
		if err := runGit(ctx, "", "clone", mirror, staging); err != nil {
			return err
		}
		return runGit(ctx, staging, "checkout", commit)
	})
}

// githubTarballFallback downloads a codeload.github.com snapshot of
// refs/heads/<effective ref> (HEAD when Ref is empty) when the git
// binary is absent and the remote is GitHub-hosted. It cannot resolve a
// ref to a commit SHA without git, so it only serves the current tip of
// a named branch; tags and commit SHAs are not served.
func (s *Source) githubTarballFallback(ctx context.Context, d Description, id gps.PackageId) (string, error) {
	owner, repoName, err := githubOwnerRepo(d.URL)
	if err != nil {
		return "", err
	}
	url := fmt.Sprintf("https://codeload.github.com/%s/%s/tar.gz/refs/heads/%s", owner, repoName, d.effectiveRef())

	key := cache.Key{Source: "git", Name: id.Name, VersionOrRevision: "tarball-" + d.effectiveRef()}
	return s.Cache.Download(ctx, key, func(staging string) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := s.Client.Do(req)
		if err != nil {
			return &gps.NetworkError{URL: url, Err: err}
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return &gps.NetworkError{URL: url, StatusCode: resp.StatusCode}
		}
		return archive.ExtractTarGz(resp.Body, staging)
	})
}

func (s *Source) DownloadToSystemCache(ctx context.Context, id gps.PackageId) (gps.Package, error) {
	dir, err := s.checkoutFor(ctx, id)
	if err != nil {
		return gps.Package{}, err
	}
	m, err := loadManifestFromDir(dir, s.Registry)
	if err != nil {
		return gps.Package{}, err
	}
	return gps.Package{Manifest: m, Dir: dir}, nil
}

func (s *Source) Get(ctx context.Context, id gps.PackageId, destination string) (bool, error) {
	return false, &gps.InvalidArgumentError{Msg: "git source always caches; Get is not used"}
}

func (s *Source) GetDirectory(ctx context.Context, id gps.PackageId) (string, error) {
	return s.checkoutFor(ctx, id)
}

// ResolveId attaches the resolved commit SHA to id's description, so the
// lockfile records exactly what was used (deferred to solve end).
func (s *Source) ResolveId(ctx context.Context, id gps.PackageId) (gps.PackageId, error) {
	d := id.Description.(Description)
	commit, err := s.resolveCommit(ctx, d)
	if err != nil {
		return gps.PackageId{}, err
	}
	d.ResolvedRef = commit
	id.Description = d
	return id, nil
}

var _ gps.Source = (*Source)(nil)
