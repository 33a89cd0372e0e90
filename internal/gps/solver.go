// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gps

import (
	"context"
	"sort"
)

// SolveResult is the outcome of a solve: on success, a concrete
// PackageId for every reachable dependency; on failure, the error that
// exhausted the search, which names the conflicting package chain.
type SolveResult struct {
	Succeeded bool
	Packages  []PackageId
	Err       error
	Attempts  int
}

// Solver runs the backtracking search described below over a
// root Manifest, a SourceRegistry, an optional prior LockFile, and the
// useLatest/upgradeAll policy flags.
type Solver struct {
	root       Manifest
	reg        *SourceRegistry
	lock       *LockFile
	useLatest  map[string]bool
	upgradeAll bool
	sdk        Version

	cells    map[string]*cellState
	assigned map[string]PackageId
	pathPins map[string]PackageRef

	decisions []*decision
	attempts  int

	lastConflict string
}

// decision is a single backtracking choice point: the cell it was made
// for, the candidates still untried at this level (newest-first, locked
// version already consumed if it was tried), and a full snapshot of
// solver state taken immediately before the choice was applied so
// backtracking can restore it in one step.
type decision struct {
	name       string
	remaining  []Version
	cells      map[string]*cellState
	assigned   map[string]PackageId
	pathPins   map[string]PackageRef
}

// NewSolver constructs a Solver for root against reg, optionally seeded
// with a prior lock, forcing the named packages to their latest
// candidate (useLatest), or all packages (upgradeAll). activeSDK is the
// SDK version every Manifest.SDK constraint is checked against.
func NewSolver(root Manifest, reg *SourceRegistry, lock *LockFile, useLatest []string, upgradeAll bool, activeSDK Version) *Solver {
	ul := make(map[string]bool, len(useLatest))
	for _, n := range useLatest {
		ul[n] = true
	}
	return &Solver{
		root:       root,
		reg:        reg,
		lock:       lock,
		useLatest:  ul,
		upgradeAll: upgradeAll,
		sdk:        activeSDK,
		cells:      make(map[string]*cellState),
		assigned:   make(map[string]PackageId),
		pathPins:   make(map[string]PackageRef),
	}
}

// Solve runs the search to completion. It is deterministic for a given
// (root, registry state, lock, flags) tuple.
func (s *Solver) Solve(ctx context.Context) SolveResult {
	if s.root.HasSDK && !s.root.SDK.Allows(s.sdk) {
		return s.fail(&SdkConstraintError{Name: s.root.Name, Constraint: s.root.SDK, Active: s.sdk})
	}

	for _, d := range s.root.Dependencies {
		s.addCell(d.Ref, d.Constraint)
	}
	// Root dev-dependencies are added to the initial constraint set;
	// transitive dev-dependencies are never consulted.
	for _, d := range s.root.DevDependencies {
		s.addCell(d.Ref, d.Constraint)
	}

	for {
		select {
		case <-ctx.Done():
			return s.fail(ctx.Err())
		default:
		}

		name, ok := s.pickCell(ctx)
		if !ok {
			return s.finish()
		}

		if err := s.tryAssign(ctx, name); err != nil {
			if !recoverable(err) {
				return s.fail(err)
			}
			if !s.backtrack() {
				return s.fail(err)
			}
		}
	}
}

func (s *Solver) addCell(ref PackageRef, c VersionConstraint) {
	if cur, ok := s.cells[ref.Name]; ok {
		cur.constraint = cur.constraint.Intersect(c)
		return
	}
	s.cells[ref.Name] = &cellState{constraint: c, source: ref.SourceName, ref: ref}
}

// pickCell selects the next unassigned dependency cell, preferring (a)
// an empty allowable set first (fail fast), (b) a cell with exactly one
// remaining candidate, (c) the package most recently involved in a
// conflict, then fewest candidates, ties broken by name.
func (s *Solver) pickCell(ctx context.Context) (string, bool) {
	type scored struct {
		name  string
		count int
	}
	var names []string
	for n := range s.cells {
		if _, done := s.assigned[n]; !done {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return "", false
	}
	sort.Strings(names)

	var best scored
	haveBest := false
	single, conflict := "", ""
	for _, n := range names {
		cands, err := s.candidateQueue(ctx, s.cells[n].ref, s.cells[n].constraint)
		if err != nil {
			// Treat lookup failure as a zero-candidate cell; the actual
			// error resurfaces when tryAssign is attempted on it.
			return n, true
		}
		if len(cands) == 0 {
			return n, true
		}
		if len(cands) == 1 && single == "" {
			single = n
		}
		if n == s.lastConflict {
			conflict = n
		}
		if !haveBest || len(cands) < best.count {
			best, haveBest = scored{n, len(cands)}, true
		}
	}
	if single != "" {
		return single, true
	}
	if conflict != "" {
		return conflict, true
	}
	return best.name, true
}

// tryAssign attempts every untried candidate for name, newest/locked
// first, until one's transitive dependencies merge cleanly with the
// current state, or the candidate list is exhausted.
func (s *Solver) tryAssign(ctx context.Context, name string) error {
	cell := s.cells[name]

	queue := cell.pendingQueue
	cell.pendingQueue = nil
	if queue == nil {
		var err error
		queue, err = s.candidateQueue(ctx, cell.ref, cell.constraint)
		if err != nil {
			return err
		}
	}
	if len(queue) == 0 {
		s.lastConflict = name
		return &NoVersionError{Name: name, Constraint: cell.constraint, Chain: s.chain()}
	}

	var lastErr error
	for i, v := range queue {
		id := PackageId{PackageRef: cell.ref, Version: v}
		src, err := s.reg.Get(cell.ref.SourceName)
		if err != nil {
			return err
		}
		m, err := src.DescribeUncached(ctx, id)
		if err != nil {
			// Fetch failures (network, missing package, malformed
			// manifest) are not solver-recoverable: they abort the
			// whole solve rather than just excluding this candidate.
			return err
		}

		if m.HasSDK && !m.SDK.Allows(s.sdk) {
			lastErr = &SdkConstraintError{Name: name, Constraint: m.SDK, Active: s.sdk}
			s.lastConflict = name
			continue
		}

		snapCells, snapAssigned, snapPins := cloneCells(s.cells), cloneAssigned(s.assigned), clonePathPins(s.pathPins)

		if ok, cerr := s.apply(id, m); !ok {
			// apply mutates cells/assigned in place even on failure (it
			// can bail out partway through merging a manifest's
			// dependencies); restore the pre-attempt snapshot before
			// trying the next candidate so that failure leaves no trace.
			s.cells, s.assigned, s.pathPins = snapCells, snapAssigned, snapPins
			lastErr = cerr
			s.lastConflict = name
			continue
		}

		s.decisions = append(s.decisions, &decision{
			name:      name,
			remaining: queue[i+1:],
			cells:     snapCells,
			assigned:  snapAssigned,
			pathPins:  snapPins,
		})
		s.attempts++
		return nil
	}

	if lastErr == nil {
		lastErr = &NoVersionError{Name: name, Constraint: cell.constraint, Chain: s.chain()}
	}
	return lastErr
}

// apply merges m's dependencies into the solver's cells and commits the
// assignment for id. It reports false (without partial mutation beyond
// what's already been rolled back by the caller's snapshot) if doing so
// would conflict with the current state.
func (s *Solver) apply(id PackageId, m Manifest) (bool, error) {
	if id.SourceName == pathSourceName {
		if existing, ok := s.pathPins[id.Name]; ok {
			if !existing.Equal(id.PackageRef, s.reg) {
				return false, &SourceMismatchError{Name: id.Name, Source1: existing.SourceName, Source2: id.SourceName}
			}
		} else {
			s.pathPins[id.Name] = id.PackageRef
		}
	}

	s.assigned[id.Name] = id

	deps := m.Dependencies
	if id.Name == s.root.Name {
		deps = append(append([]Dependency{}, deps...), m.DevDependencies...)
	}

	for _, d := range deps {
		cur, exists := s.cells[d.Ref.Name]
		if !exists {
			s.cells[d.Ref.Name] = &cellState{constraint: d.Constraint, source: d.Ref.SourceName, ref: d.Ref}
			continue
		}
		if cur.source != d.Ref.SourceName {
			return false, &SourceMismatchError{Name: d.Ref.Name, Source1: cur.source, Source2: d.Ref.SourceName}
		}
		merged := cur.constraint.Intersect(d.Constraint)
		if merged.IsEmpty() {
			return false, &NoVersionError{Name: d.Ref.Name, Constraint: cur.constraint, Chain: s.chain()}
		}
		cur.constraint = merged

		if already, ok := s.assigned[d.Ref.Name]; ok && !merged.Allows(already.Version) {
			return false, &NoVersionError{Name: d.Ref.Name, Constraint: merged, Chain: s.chain()}
		}
	}
	return true, nil
}

// backtrack unwinds to the most recent decision, restoring the solver
// state to exactly how it was before that decision, and leaves the
// cell's remaining candidates ready to be retried. Reports false once
// the decision stack (and so the root cell's candidate set) is
// exhausted.
func (s *Solver) backtrack() bool {
	for len(s.decisions) > 0 {
		top := s.decisions[len(s.decisions)-1]
		s.decisions = s.decisions[:len(s.decisions)-1]

		s.cells = top.cells
		s.assigned = top.assigned
		s.pathPins = top.pathPins

		if len(top.remaining) > 0 {
			s.cells[top.name].pendingQueue = top.remaining
			return true
		}
	}
	return false
}

func (s *Solver) chain() []string {
	out := make([]string, len(s.decisions))
	for i, d := range s.decisions {
		out[len(out)-1-i] = d.name
	}
	return out
}

func (s *Solver) finish() SolveResult {
	ids := make([]PackageId, 0, len(s.assigned))
	for name, id := range s.assigned {
		if name == s.root.Name {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Name < ids[j].Name })
	return SolveResult{Succeeded: true, Packages: ids, Attempts: s.attempts}
}

func (s *Solver) fail(err error) SolveResult {
	return SolveResult{Succeeded: false, Err: err, Attempts: s.attempts}
}

const pathSourceName = "path"

// recoverable reports whether the solver may attempt to backtrack past
// err rather than aborting the whole solve: only
// NoVersionError, SourceMismatchError, and SdkConstraintError are.
func recoverable(err error) bool {
	switch err.(type) {
	case *NoVersionError, *SourceMismatchError, *SdkConstraintError:
		return true
	default:
		return false
	}
}
