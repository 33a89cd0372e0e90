// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"strings"

	"github.com/pkg/errors"

	"github.com/tapted/vex/internal/gps"
	"github.com/tapted/vex/internal/vex"
)

const whyShortHelp = `Explain why a package is in the dependency graph`
const whyLongHelp = `
usage: vex why <package>

Prints the shortest dependency chain from the project root to the named
package, using the locked graph in vex.lock.
`

type whyCommand struct{}

func (cmd *whyCommand) Name() string      { return "why" }
func (cmd *whyCommand) Args() string      { return "<package>" }
func (cmd *whyCommand) ShortHelp() string { return whyShortHelp }
func (cmd *whyCommand) LongHelp() string  { return whyLongHelp }
func (cmd *whyCommand) Register(fs *flag.FlagSet) {}

func (cmd *whyCommand) Run(ctx *vex.Ctx, args []string) error {
	if len(args) != 1 {
		return errors.New("why requires exactly one package name")
	}
	target := args[0]

	p, err := ctx.LoadProject(".")
	if err != nil {
		return err
	}
	if p.Lock == nil {
		return errors.New("no vex.lock found; run vex get first")
	}

	members := make(map[string]gps.Manifest, len(p.Lock.Packages))
	for _, id := range p.Lock.Packages {
		src, err := ctx.Registry.Get(id.SourceName)
		if err != nil {
			return err
		}
		m, err := src.DescribeUncached(context.Background(), id)
		if err != nil {
			return errors.Wrapf(err, "describing %s", id.Name)
		}
		members[id.Name] = m
	}

	graph := gps.NewPackageGraph(p.Manifest, members)
	chain := graph.Why(target)
	if chain == nil {
		ctx.Out.Printf("%s is not in the dependency graph\n", target)
		return nil
	}
	ctx.Out.Println(strings.Join(chain, " -> "))
	return nil
}
