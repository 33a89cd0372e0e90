// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cfg reads the user-level config.toml that carries per-registry
// authentication tokens, kept separate from a project's vex.toml since
// it holds secrets and is scoped to a machine, not a repository.
package cfg

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// ConfigName is the user-level config file name.
const ConfigName = "config.toml"

// Registry holds the auth token for one hosted index.
type Registry struct {
	URL   string
	Token string
}

type rawConfig struct {
	Registries map[string]rawRegistry `toml:"registries"`
}

type rawRegistry struct {
	URL   string `toml:"url"`
	Token string `toml:"token"`
}

// Config is the parsed set of registries a user has credentials for,
// keyed by the name used in a project's vex.toml source tables.
type Config struct {
	Registries map[string]Registry
}

// Load reads the config file at path, returning an empty Config if it
// does not exist.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{Registries: map[string]Registry{}}, nil
		}
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a config document from r.
func Parse(r io.Reader) (*Config, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}

	var raw rawConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "parsing config as TOML")
	}

	c := &Config{Registries: map[string]Registry{}}
	for name, rr := range raw.Registries {
		c.Registries[name] = Registry{URL: rr.URL, Token: rr.Token}
	}
	return c, nil
}

// Token returns the auth token configured for name, if any.
func (c *Config) Token(name string) (string, bool) {
	r, ok := c.Registries[name]
	if !ok || r.Token == "" {
		return "", false
	}
	return r.Token, true
}

// DefaultPath returns the conventional user-level config path under
// home, $HOME/.vex/config.toml.
func DefaultPath(home string) string {
	return filepath.Join(home, ".vex", ConfigName)
}
