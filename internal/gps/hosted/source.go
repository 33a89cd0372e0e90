// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hosted implements gps.Source for the central HTTPS/JSON
// package index, the default source for bare dependency specs.
package hosted

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/tapted/vex/internal/archive"
	"github.com/tapted/vex/internal/gps"
	"github.com/tapted/vex/internal/gps/cache"
)

// apiAcceptHeader pins the hosted-index wire version; the server
// returns 406 on a mismatch.
const apiAcceptHeader = "application/vnd.vex.pub.v2+json"

// requestTimeout bounds every HTTP call the hosted source issues.
const requestTimeout = 30 * time.Second

// Description is the hosted SourceDescription: the package name as
// known to the index, and the base index URL (defaults to the public
// index when empty).
type Description struct {
	Name    string
	BaseURL string
}

func (Description) IsSourceDescription() {}

// Source talks to a central hosted index over HTTPS.
type Source struct {
	DefaultBaseURL string
	AuthToken      string
	Cache          *cache.SystemCache
	Registry       *gps.SourceRegistry
	Client         *http.Client
}

// New builds a hosted Source backed by sc, issuing requests against
// defaultBaseURL unless a dependency's own Description overrides it,
// and resolving a fetched manifest's own dependencies against reg.
// authToken, if non-empty, is sent as a bearer token on every request
// (see internal/vex/cfg for where it's loaded from).
func New(defaultBaseURL, authToken string, sc *cache.SystemCache, reg *gps.SourceRegistry) *Source {
	return &Source{
		DefaultBaseURL: defaultBaseURL,
		AuthToken:      authToken,
		Cache:          sc,
		Registry:       reg,
		Client:         &http.Client{Timeout: requestTimeout},
	}
}

func (s *Source) authorize(req *http.Request) {
	if s.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.AuthToken)
	}
}

func (s *Source) Name() string      { return "hosted" }
func (s *Source) ShouldCache() bool { return true }

func (s *Source) ParseDescription(containingDir string, raw interface{}, fromLockFile bool) (gps.SourceDescription, error) {
	switch v := raw.(type) {
	case string:
		if fromLockFile {
			return nil, &gps.ParseError{Msg: "hosted lockfile description must be a table, got a bare string"}
		}
		return Description{Name: v, BaseURL: s.DefaultBaseURL}, nil
	case map[string]interface{}:
		name, _ := v["name"].(string)
		if name == "" {
			return nil, &gps.ParseError{Msg: "hosted description missing name"}
		}
		base, _ := v["url"].(string)
		if base == "" {
			base = s.DefaultBaseURL
		}
		return Description{Name: name, BaseURL: base}, nil
	default:
		return nil, &gps.ParseError{Msg: fmt.Sprintf("unrecognized hosted description: %#v", raw)}
	}
}

func (s *Source) SerializeDescription(containingDir string, d gps.SourceDescription) interface{} {
	hd := d.(Description)
	return map[string]interface{}{"name": hd.Name, "url": hd.BaseURL}
}

func (s *Source) DescriptionsEqual(a, b gps.SourceDescription) bool {
	da, db := a.(Description), b.(Description)
	return da.Name == db.Name && da.BaseURL == db.BaseURL
}

type versionsResponse struct {
	Versions []struct {
		Version  string          `json:"version"`
		Manifest json.RawMessage `json:"manifest"`
	} `json:"versions"`
}

func (s *Source) indexURL(d Description, suffix string) string {
	return fmt.Sprintf("%s/api/packages/%s%s", d.BaseURL, d.Name, suffix)
}

func (s *Source) fetchIndex(ctx context.Context, d Description) (*versionsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.indexURL(d, ""), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", apiAcceptHeader)
	s.authorize(req)

	resp, err := s.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &gps.TimeoutError{URL: req.URL.String()}
		}
		return nil, &gps.NetworkError{URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotAcceptable {
		return nil, &gps.NetworkError{URL: req.URL.String(), StatusCode: resp.StatusCode,
			Err: errors.New("index does not support the expected API version")}
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, &gps.PackageNotFoundError{Name: d.Name, Source: "hosted"}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &gps.NetworkError{URL: req.URL.String(), StatusCode: resp.StatusCode}
	}

	var out versionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &gps.ParseError{Msg: "decoding hosted index response", Err: err}
	}
	return &out, nil
}

func (s *Source) GetVersions(ctx context.Context, ref gps.PackageRef) ([]gps.Version, error) {
	d := ref.Description.(Description)
	idx, err := s.fetchIndex(ctx, d)
	if err != nil {
		return nil, err
	}
	out := make([]gps.Version, 0, len(idx.Versions))
	for _, e := range idx.Versions {
		v, err := gps.ParseVersion(e.Version)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// manifestFor resolves id's manifest, consulting the persisted manifest
// metadata cache before fetching the index over the network so a
// second run (or a fresh solve against an already-locked version)
// doesn't re-hit the network just to re-read a manifest it has already
// seen.
func (s *Source) manifestFor(ctx context.Context, id gps.PackageId) (gps.Manifest, error) {
	d := id.Description.(Description)
	key := cache.Key{Source: "hosted", Name: id.Name, VersionOrRevision: id.Version.String()}

	if data, ok := s.Cache.ManifestMeta(key); ok {
		return parseHostedManifest(id.Name, data, s.Registry)
	}

	idx, err := s.fetchIndex(ctx, d)
	if err != nil {
		return gps.Manifest{}, err
	}
	for _, e := range idx.Versions {
		if e.Version != id.Version.String() {
			continue
		}
		if err := s.Cache.PutManifestMeta(key, e.Manifest); err != nil {
			return gps.Manifest{}, errors.Wrap(err, "persisting manifest metadata")
		}
		return parseHostedManifest(id.Name, e.Manifest, s.Registry)
	}
	return gps.Manifest{}, &gps.PackageNotFoundError{Name: id.Name, Source: "hosted"}
}

func (s *Source) DescribeUncached(ctx context.Context, id gps.PackageId) (gps.Manifest, error) {
	return s.manifestFor(ctx, id)
}

// DownloadToSystemCache fetches id's archive, lets the system cache
// single-flight and extract it, and returns the resulting Package.
func (s *Source) DownloadToSystemCache(ctx context.Context, id gps.PackageId) (gps.Package, error) {
	d := id.Description.(Description)
	archiveURL := fmt.Sprintf("%s/api/packages/%s/versions/%s.tar.gz", d.BaseURL, d.Name, id.Version)

	dir, err := s.Cache.Download(ctx, cache.Key{Source: "hosted", Name: id.Name, VersionOrRevision: id.Version.String()},
		func(dst string) error {
			return s.fetchArchive(ctx, archiveURL, dst)
		})
	if err != nil {
		return gps.Package{}, err
	}

	m, err := s.manifestFor(ctx, id)
	if err != nil {
		return gps.Package{}, err
	}
	return gps.Package{Manifest: m, Dir: dir}, nil
}

func (s *Source) fetchArchive(ctx context.Context, url, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	s.authorize(req)
	resp, err := s.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return &gps.TimeoutError{URL: url}
		}
		return &gps.NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &gps.NetworkError{URL: url, StatusCode: resp.StatusCode}
	}
	return archive.ExtractTarGz(resp.Body, dst)
}

func (s *Source) Get(ctx context.Context, id gps.PackageId, destination string) (bool, error) {
	return false, &gps.InvalidArgumentError{Msg: "hosted source always caches; Get is not used"}
}

func (s *Source) GetDirectory(ctx context.Context, id gps.PackageId) (string, error) {
	return s.Cache.DirFor(cache.Key{Source: "hosted", Name: id.Name, VersionOrRevision: id.Version.String()}), nil
}

func (s *Source) ResolveId(ctx context.Context, id gps.PackageId) (gps.PackageId, error) {
	return id, nil
}

var _ gps.Source = (*Source)(nil)
