// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"

	"github.com/tapted/vex/internal/vex"
)

const getShortHelp = `Resolve and vendor a project's dependencies`
const getLongHelp = `
usage: vex get [-update] [-dry-run]

Solves the project's dependency graph starting from vex.toml, respecting
vex.lock where possible, and populates vendor/ with the result.

  -update: ignore the locked versions of all (or the named) dependencies
           and re-resolve against the manifest's constraints
  -dry-run: solve and report, but do not touch vendor/ or vex.lock
`

type getCommand struct {
	update bool
	dryRun bool
}

func (cmd *getCommand) Name() string      { return "get" }
func (cmd *getCommand) Args() string      { return "[<pkg>...]" }
func (cmd *getCommand) ShortHelp() string { return getShortHelp }
func (cmd *getCommand) LongHelp() string  { return getLongHelp }

func (cmd *getCommand) Register(fs *flag.FlagSet) {
	fs.BoolVar(&cmd.update, "update", false, "update locked dependencies to their latest allowed version")
	fs.BoolVar(&cmd.dryRun, "dry-run", false, "report the solve without writing vendor/ or vex.lock")
}

func (cmd *getCommand) Run(ctx *vex.Ctx, args []string) error {
	p, err := ctx.LoadProject(".")
	if err != nil {
		return err
	}

	opts := vex.EnsureOptions{DryRun: cmd.dryRun}
	if cmd.update {
		if len(args) == 0 {
			opts.UpgradeAll = true
		} else {
			opts.UseLatest = args
		}
	}

	res, err := ctx.Ensure(context.Background(), p, opts)
	if err != nil {
		return err
	}

	res.Report.LogFeedback(ctx.Out)
	if cmd.dryRun {
		ctx.Out.Println("dry run: vendor/ and vex.lock left unchanged")
	}
	return nil
}
