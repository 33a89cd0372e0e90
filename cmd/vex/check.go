// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"

	"github.com/pkg/errors"

	"github.com/tapted/vex/internal/vex"
)

const checkShortHelp = `Report whether vex.lock still satisfies vex.toml`
const checkLongHelp = `
usage: vex check

Checks vex.lock against vex.toml and vendor/ without invoking the
solver: every direct dependency must be locked to the same source, at
a version its constraint still allows, with an equal source
description, and every locked package must be present under vendor/.
Exits non-zero if the lockfile is out of date; run vex get to refresh it.
`

type checkCommand struct{}

func (cmd *checkCommand) Name() string      { return "check" }
func (cmd *checkCommand) Args() string      { return "" }
func (cmd *checkCommand) ShortHelp() string { return checkShortHelp }
func (cmd *checkCommand) LongHelp() string  { return checkLongHelp }
func (cmd *checkCommand) Register(fs *flag.FlagSet) {}

func (cmd *checkCommand) Run(ctx *vex.Ctx, args []string) error {
	p, err := ctx.LoadProject(".")
	if err != nil {
		return err
	}

	upToDate, err := ctx.LockFileUpToDate(p)
	if err != nil {
		return err
	}
	if !upToDate {
		return errors.New("vex.lock is out of date; run vex get")
	}

	ctx.Out.Println("vex.lock is up to date")
	return nil
}
