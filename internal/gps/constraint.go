// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gps

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// VersionConstraint is structured restriction on the set of Versions a
// dependency may resolve to. It is the union type described in the data
// model: Any, None (empty), a single Range, or a normalized, sorted,
// non-overlapping union of Ranges.
//
// Like Version, intersection and union are total: they always produce
// another valid VersionConstraint, even when the result is None.
type VersionConstraint struct {
	// kind distinguishes any/none/ranges. When kind is kindRanges, ranges
	// holds a normalized (sorted, non-overlapping, merged) list.
	kind   constraintKind
	ranges []VersionRange
}

type constraintKind uint8

const (
	kindNone constraintKind = iota
	kindAny
	kindRanges
)

// Any allows every version.
var Any = VersionConstraint{kind: kindAny}

// None allows no version.
var None = VersionConstraint{kind: kindNone}

// VersionRange is a half-open-or-closed interval [min, max] over Versions.
// A nil Min/Max pointer means unbounded in that direction.
type VersionRange struct {
	Min, Max           *Version
	IncludeMin         bool // min is exclusive unless true
	IncludeMax         bool // max is exclusive unless true
}

func unbounded() VersionRange { return VersionRange{} }

func exact(v Version) VersionRange {
	return VersionRange{Min: &v, Max: &v, IncludeMin: true, IncludeMax: true}
}

// Allows reports whether v falls within the range.
func (r VersionRange) Allows(v Version) bool {
	if r.Min != nil {
		c := v.Compare(*r.Min)
		if c < 0 || (c == 0 && !r.IncludeMin) {
			return false
		}
	}
	if r.Max != nil {
		c := v.Compare(*r.Max)
		if c > 0 || (c == 0 && !r.IncludeMax) {
			return false
		}
	}
	return true
}

func (r VersionRange) String() string {
	lo := "(-inf"
	if r.Min != nil {
		b := "("
		if r.IncludeMin {
			b = "["
		}
		lo = b + r.Min.String()
	}
	hi := "+inf)"
	if r.Max != nil {
		b := ")"
		if r.IncludeMax {
			b = "]"
		}
		hi = r.Max.String() + b
	}
	return lo + ", " + hi
}

// isEmpty reports whether the range admits nothing, i.e. min > max, or
// min == max with at least one endpoint exclusive.
func (r VersionRange) isEmpty() bool {
	if r.Min == nil || r.Max == nil {
		return false
	}
	c := r.Min.Compare(*r.Max)
	if c > 0 {
		return true
	}
	if c == 0 {
		return !(r.IncludeMin && r.IncludeMax)
	}
	return false
}

// intersect computes the overlap of two ranges; the caller discards the
// result if it isEmpty.
func (r VersionRange) intersect(o VersionRange) VersionRange {
	out := VersionRange{Min: r.Min, IncludeMin: r.IncludeMin, Max: r.Max, IncludeMax: r.IncludeMax}
	if o.Min != nil {
		switch {
		case out.Min == nil:
			out.Min, out.IncludeMin = o.Min, o.IncludeMin
		case o.Min.Compare(*out.Min) > 0:
			out.Min, out.IncludeMin = o.Min, o.IncludeMin
		case o.Min.Compare(*out.Min) == 0:
			out.IncludeMin = out.IncludeMin && o.IncludeMin
		}
	}
	if o.Max != nil {
		switch {
		case out.Max == nil:
			out.Max, out.IncludeMax = o.Max, o.IncludeMax
		case o.Max.Compare(*out.Max) < 0:
			out.Max, out.IncludeMax = o.Max, o.IncludeMax
		case o.Max.Compare(*out.Max) == 0:
			out.IncludeMax = out.IncludeMax && o.IncludeMax
		}
	}
	return out
}

// adjacentOrOverlapping reports whether two ranges can be merged into one
// contiguous range during union normalization.
func adjacentOrOverlapping(a, b VersionRange) bool {
	if a.Max == nil || b.Min == nil {
		return true
	}
	c := a.Max.Compare(*b.Min)
	if c > 0 {
		return true
	}
	if c == 0 {
		return a.IncludeMax || b.IncludeMin
	}
	return false
}

func mergeTwo(a, b VersionRange) VersionRange {
	out := a
	if b.Min == nil || (out.Min != nil && b.Min.Compare(*out.Min) < 0) ||
		(out.Min != nil && b.Min.Compare(*out.Min) == 0 && b.IncludeMin && !out.IncludeMin) {
		out.Min, out.IncludeMin = b.Min, b.IncludeMin
	}
	if out.Min != nil && b.Min == nil {
		out.Min = nil
	}
	if b.Max == nil || (out.Max != nil && b.Max.Compare(*out.Max) > 0) ||
		(out.Max != nil && b.Max.Compare(*out.Max) == 0 && b.IncludeMax && !out.IncludeMax) {
		out.Max, out.IncludeMax = b.Max, b.IncludeMax
	}
	if out.Max != nil && b.Max == nil {
		out.Max = nil
	}
	return out
}

// NewRangeConstraint builds a VersionConstraint from a single range.
func NewRangeConstraint(r VersionRange) VersionConstraint {
	if r.isEmpty() {
		return None
	}
	return VersionConstraint{kind: kindRanges, ranges: []VersionRange{r}}
}

// NewVersionConstraint pins the constraint to exactly one version.
func NewVersionConstraint(v Version) VersionConstraint {
	return NewRangeConstraint(exact(v))
}

// Allows reports whether v satisfies c.
func (c VersionConstraint) Allows(v Version) bool {
	switch c.kind {
	case kindAny:
		return true
	case kindNone:
		return false
	default:
		for _, r := range c.ranges {
			if r.Allows(v) {
				return true
			}
		}
		return false
	}
}

// IsAny reports whether c is the universal constraint.
func (c VersionConstraint) IsAny() bool { return c.kind == kindAny }

// IsEmpty reports whether c admits no version.
func (c VersionConstraint) IsEmpty() bool { return c.kind == kindNone }

// Intersect computes the logical AND of two constraints. Total: always
// returns a valid VersionConstraint, possibly None.
func (c VersionConstraint) Intersect(o VersionConstraint) VersionConstraint {
	switch {
	case c.kind == kindNone || o.kind == kindNone:
		return None
	case c.kind == kindAny:
		return o
	case o.kind == kindAny:
		return c
	}

	var out []VersionRange
	for _, a := range c.ranges {
		for _, b := range o.ranges {
			if r := a.intersect(b); !r.isEmpty() {
				out = append(out, r)
			}
		}
	}
	if len(out) == 0 {
		return None
	}
	return normalizeRanges(out)
}

// Union computes the logical OR of two constraints, normalized to a
// minimal sorted list of non-overlapping ranges.
func (c VersionConstraint) Union(o VersionConstraint) VersionConstraint {
	switch {
	case c.kind == kindAny || o.kind == kindAny:
		return Any
	case c.kind == kindNone:
		return o
	case o.kind == kindNone:
		return c
	}
	all := append(append([]VersionRange{}, c.ranges...), o.ranges...)
	return normalizeRanges(all)
}

func normalizeRanges(rs []VersionRange) VersionConstraint {
	sort.Slice(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		switch {
		case a.Min == nil && b.Min == nil:
			return false
		case a.Min == nil:
			return true
		case b.Min == nil:
			return false
		default:
			return a.Min.Compare(*b.Min) < 0
		}
	})
	out := rs[:1]
	for _, r := range rs[1:] {
		last := out[len(out)-1]
		if adjacentOrOverlapping(last, r) {
			out[len(out)-1] = mergeTwo(last, r)
		} else {
			out = append(out, r)
		}
	}
	if len(out) == 1 && out[0].Min == nil && out[0].Max == nil {
		return Any
	}
	return VersionConstraint{kind: kindRanges, ranges: out}
}

func (c VersionConstraint) String() string {
	switch c.kind {
	case kindAny:
		return "any"
	case kindNone:
		return "none"
	default:
		parts := make([]string, len(c.ranges))
		for i, r := range c.ranges {
			parts[i] = r.String()
		}
		return strings.Join(parts, " || ")
	}
}

// ParseConstraint parses the constraint grammar: a bare
// semver triple, a caret range ("^1.2.3"), comparison operators (">=",
// "<=", ">", "<", "="), "any", or a space-separated conjunction of any of
// the above (e.g. ">=1.2.0 <2.0.0").
func ParseConstraint(s string) (VersionConstraint, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "any" || s == "*" {
		return Any, nil
	}

	fields := strings.Fields(s)
	result := Any
	for _, f := range fields {
		r, err := parseTerm(f)
		if err != nil {
			return VersionConstraint{}, errors.Wrapf(err, "parsing constraint %q", s)
		}
		result = result.Intersect(r)
	}
	return result, nil
}

func parseTerm(tok string) (VersionConstraint, error) {
	switch {
	case strings.HasPrefix(tok, "^"):
		return parseCaret(tok[1:])
	case strings.HasPrefix(tok, ">="):
		v, err := ParseVersion(tok[2:])
		if err != nil {
			return VersionConstraint{}, err
		}
		return NewRangeConstraint(VersionRange{Min: &v, IncludeMin: true}), nil
	case strings.HasPrefix(tok, "<="):
		v, err := ParseVersion(tok[2:])
		if err != nil {
			return VersionConstraint{}, err
		}
		return NewRangeConstraint(VersionRange{Max: &v, IncludeMax: true}), nil
	case strings.HasPrefix(tok, ">"):
		v, err := ParseVersion(tok[1:])
		if err != nil {
			return VersionConstraint{}, err
		}
		return NewRangeConstraint(VersionRange{Min: &v, IncludeMin: false}), nil
	case strings.HasPrefix(tok, "<"):
		v, err := ParseVersion(tok[1:])
		if err != nil {
			return VersionConstraint{}, err
		}
		return NewRangeConstraint(VersionRange{Max: &v, IncludeMax: false}), nil
	case strings.HasPrefix(tok, "="):
		v, err := ParseVersion(strings.TrimPrefix(tok, "="))
		if err != nil {
			return VersionConstraint{}, err
		}
		return NewVersionConstraint(v), nil
	default:
		v, err := ParseVersion(tok)
		if err != nil {
			return VersionConstraint{}, err
		}
		return NewVersionConstraint(v), nil
	}
}

// parseCaret implements "^x.y.z": compatible-with, equivalent to
// ">=x.y.z <NEXT" where NEXT increments the first non-zero element of
// the triple (or, if all are zero, is the next patch).
func parseCaret(s string) (VersionConstraint, error) {
	v, err := ParseVersion(s)
	if err != nil {
		return VersionConstraint{}, err
	}

	var upper Version
	switch {
	case v.Major() > 0:
		upper = mustBump(v.Major()+1, 0, 0)
	case v.Minor() > 0:
		upper = mustBump(0, v.Minor()+1, 0)
	default:
		upper = mustBump(0, 0, v.Patch()+1)
	}
	return NewRangeConstraint(VersionRange{Min: &v, IncludeMin: true, Max: &upper, IncludeMax: false}), nil
}

func mustBump(maj, min, patch int64) Version {
	return MustParseVersion(fmt.Sprintf("%d.%d.%d", maj, min, patch))
}
