// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gps

import (
	"github.com/armon/go-radix"
)

// PackageGraph is the loaded view of a solved set: every non-root
// member's Manifest, indexed for "direct dependencies of X" and
// "transitive closure of X" queries. Cycles are permitted (a dev edge
// may point back at a dependent) so traversal tracks visited names
// rather than assuming a DAG.
type PackageGraph struct {
	root  string
	edges map[string][]string // name -> direct dependency names
	index *radix.Tree // package names, queried by longest-prefix match in Why
}

// NewPackageGraph builds a graph from the root Manifest and the loaded
// Manifest of every locked package. members must include an entry for
// every name reachable from root's dependencies.
func NewPackageGraph(root Manifest, members map[string]Manifest) *PackageGraph {
	g := &PackageGraph{
		root:  root.Name,
		edges: make(map[string][]string),
		index: radix.New(),
	}

	g.edges[root.Name] = directNames(root.Dependencies, root.DevDependencies)
	g.index.Insert(root.Name, root.Name)

	for name, m := range members {
		g.edges[name] = directNames(m.Dependencies, nil)
		g.index.Insert(name, name)
	}
	return g
}

func directNames(runtime, dev []Dependency) []string {
	out := make([]string, 0, len(runtime)+len(dev))
	for _, d := range runtime {
		out = append(out, d.Ref.Name)
	}
	for _, d := range dev {
		out = append(out, d.Ref.Name)
	}
	return out
}

// Direct returns the direct dependency names of name.
func (g *PackageGraph) Direct(name string) []string {
	return append([]string(nil), g.edges[name]...)
}

// Transitive returns the full transitive closure of name's dependencies,
// safe against cycles.
func (g *PackageGraph) Transitive(name string) []string {
	seen := map[string]bool{name: true}
	var out []string
	var walk func(string)
	walk = func(cur string) {
		for _, next := range g.edges[cur] {
			if seen[next] {
				continue
			}
			seen[next] = true
			out = append(out, next)
			walk(next)
		}
	}
	walk(name)
	return out
}

// Why returns the shortest path of package names from the root to the
// package owning target, inclusive of both ends, or nil if no package
// owns target or it is unreachable. target need not name a package
// exactly: it is resolved against the index by longest-prefix match,
// so a query for an import sub-path (e.g. "example.com/foo/bar/sub")
// resolves to the package that owns it ("example.com/foo/bar").
func (g *PackageGraph) Why(target string) []string {
	name, _, ok := g.index.LongestPrefix(target)
	if !ok {
		return nil
	}

	type step struct {
		name string
		path []string
	}
	visited := map[string]bool{g.root: true}
	queue := []step{{g.root, []string{g.root}}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.name == name {
			return cur.path
		}
		for _, next := range g.edges[cur.name] {
			if visited[next] {
				continue
			}
			visited[next] = true
			np := append(append([]string(nil), cur.path...), next)
			queue = append(queue, step{next, np})
		}
	}
	return nil
}
