// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gps

// cellState is the solver's per-package bookkeeping: the intersection of
// every incoming constraint on the package (the "dependency cell" of the
// glossary) and which source it must come from.
type cellState struct {
	constraint VersionConstraint
	source     string
	ref        PackageRef

	// pendingQueue, when non-nil, overrides a fresh candidateQueue
	// computation: it is the exact candidate list left to try after a
	// backtrack restored this cell to "in progress" rather than fresh.
	pendingQueue []Version
}

func cloneCells(in map[string]*cellState) map[string]*cellState {
	out := make(map[string]*cellState, len(in))
	for k, v := range in {
		cp := *v
		out[k] = &cp
	}
	return out
}

func cloneAssigned(in map[string]PackageId) map[string]PackageId {
	out := make(map[string]PackageId, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func clonePathPins(in map[string]PackageRef) map[string]PackageRef {
	out := make(map[string]PackageRef, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
