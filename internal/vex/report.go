// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vex

import (
	"fmt"
	"log"
	"sort"

	"github.com/tapted/vex/internal/gps"
)

// ChangeKind classifies how a package's locked entry moved between two
// solves of the same project.
type ChangeKind int

const (
	Unchanged ChangeKind = iota
	Added
	Removed
	Upgraded
	Downgraded
	SourceChanged
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Upgraded:
		return "upgraded"
	case Downgraded:
		return "downgraded"
	case SourceChanged:
		return "source changed"
	default:
		return "unchanged"
	}
}

// Change describes one package's movement between the previous and new
// lockfile.
type Change struct {
	Name        string
	Kind        ChangeKind
	FromVersion string // empty when Kind == Added
	ToVersion   string // empty when Kind == Removed
}

// Report is the full diff between a project's previous and new lock,
// the basis for the "Using X" / "name: from -> to" feedback the ensure
// pipeline prints.
type Report struct {
	Changes []Change
}

// DiffLocks compares prev (nil if there was no prior lock) against next,
// returning one Change per package that appears in either.
func DiffLocks(prev *gps.LockFile, next *gps.LockFile) Report {
	before := map[string]gps.PackageId{}
	if prev != nil {
		for _, p := range prev.Packages {
			before[p.Name] = p
		}
	}
	after := map[string]gps.PackageId{}
	for _, p := range next.Packages {
		after[p.Name] = p
	}

	names := map[string]struct{}{}
	for n := range before {
		names[n] = struct{}{}
	}
	for n := range after {
		names[n] = struct{}{}
	}

	sorted := make([]string, 0, len(names))
	for n := range names {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	var rep Report
	for _, name := range sorted {
		b, hadBefore := before[name]
		a, hasAfter := after[name]

		switch {
		case !hadBefore && hasAfter:
			rep.Changes = append(rep.Changes, Change{Name: name, Kind: Added, ToVersion: a.Version.String()})
		case hadBefore && !hasAfter:
			rep.Changes = append(rep.Changes, Change{Name: name, Kind: Removed, FromVersion: b.Version.String()})
		case b.SourceName != a.SourceName:
			rep.Changes = append(rep.Changes, Change{
				Name: name, Kind: SourceChanged,
				FromVersion: b.Version.String(), ToVersion: a.Version.String(),
			})
		case b.Version.Equal(a.Version):
			rep.Changes = append(rep.Changes, Change{Name: name, Kind: Unchanged, FromVersion: b.Version.String(), ToVersion: a.Version.String()})
		case b.Version.LessThan(a.Version):
			rep.Changes = append(rep.Changes, Change{Name: name, Kind: Upgraded, FromVersion: b.Version.String(), ToVersion: a.Version.String()})
		default:
			rep.Changes = append(rep.Changes, Change{Name: name, Kind: Downgraded, FromVersion: b.Version.String(), ToVersion: a.Version.String()})
		}
	}
	return rep
}

// LogFeedback prints one line per changed package; unchanged packages
// are omitted to keep routine runs quiet.
func (r Report) LogFeedback(logger *log.Logger) {
	for _, c := range r.Changes {
		switch c.Kind {
		case Added:
			logger.Println(GetUsingFeedback(c.ToVersion, c.Name))
		case Removed:
			logger.Printf("Removing %s %s\n", c.Name, c.FromVersion)
		case Upgraded, Downgraded, SourceChanged:
			logger.Println(GetLockingFeedback(c.FromVersion, c.ToVersion, c.Name))
		}
	}
}

// GetUsingFeedback renders a newly-added dependency's feedback line, for
// example:
//
//	Using ^1.0.0 as constraint for foo/bar
func GetUsingFeedback(version, name string) string {
	return fmt.Sprintf("Using %s as constraint for %s", version, name)
}

// GetLockingFeedback renders a version-change feedback line, for
// example:
//
//	foo/bar: 1.1.4 -> 1.2.0
func GetLockingFeedback(from, to, name string) string {
	return fmt.Sprintf("%s: %s -> %s", name, from, to)
}
