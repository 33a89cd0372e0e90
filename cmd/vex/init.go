// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/tapted/vex/internal/vex"
)

const initShortHelp = `Scaffold a new project manifest`
const initLongHelp = `
usage: vex init [<name>]

Writes a starter vex.toml in the current directory. name defaults to
the current directory's base name.
`

const manifestTemplate = `name = %q

[dependencies]
`

type initCommand struct{}

func (cmd *initCommand) Name() string      { return "init" }
func (cmd *initCommand) Args() string      { return "[<name>]" }
func (cmd *initCommand) ShortHelp() string { return initShortHelp }
func (cmd *initCommand) LongHelp() string  { return initLongHelp }
func (cmd *initCommand) Register(fs *flag.FlagSet) {}

func (cmd *initCommand) Run(ctx *vex.Ctx, args []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return errors.Wrap(err, "getting working directory")
	}

	name := filepath.Base(wd)
	if len(args) > 0 {
		name = args[0]
	}

	manifestPath := filepath.Join(wd, vex.ManifestName)
	if _, err := os.Stat(manifestPath); err == nil {
		return errors.Errorf("%s already exists", vex.ManifestName)
	}

	contents := []byte(fmt.Sprintf(manifestTemplate, name))
	if err := ioutil.WriteFile(manifestPath, contents, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", manifestPath)
	}

	ctx.Out.Printf("wrote %s\n", vex.ManifestName)
	return nil
}
