// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vex

import (
	"github.com/tapted/vex/internal/gps"
	"github.com/tapted/vex/internal/gps/cache"
	"github.com/tapted/vex/internal/gps/hosted"
	"github.com/tapted/vex/internal/gps/pathsrc"
	"github.com/tapted/vex/internal/gps/vcssrc"
	"github.com/tapted/vex/internal/vex/cfg"
)

// defaultHostedBaseURL is the public index a bare dependency spec
// resolves against when a project doesn't override it.
const defaultHostedBaseURL = "https://index.vex.dev"

// hostedRegistryName is the key a user's config.toml uses to configure
// credentials for the default hosted index.
const hostedRegistryName = "hosted"

// defaultRegistry builds the registry every project resolves against:
// hosted is the default source, with git and path available by name.
// Each source is constructed with a pointer back to reg so that a
// fetched package's own manifest can resolve its dependencies against
// the full set of sources, not just the one that fetched it. userCfg
// supplies the hosted index's auth token, if the user has configured
// one.
func defaultRegistry(sc *cache.SystemCache, userCfg *cfg.Config) *gps.SourceRegistry {
	reg := gps.NewSourceRegistry("hosted")

	token, _ := userCfg.Token(hostedRegistryName)
	reg.Register(hosted.New(defaultHostedBaseURL, token, sc, reg))
	reg.Register(vcssrc.New(sc, reg))
	reg.Register(pathsrc.New(reg))

	return reg
}
