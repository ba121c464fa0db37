package version

import (
	"fmt"
	"sort"
	"strings"
)

// bound is one edge of an interval. A nil Version means unbounded in that
// direction (-infinity for a lower bound, +infinity for an upper bound).
type bound struct {
	v         *Version
	inclusive bool
}

// interval is a single contiguous half-open (or fully unbounded) span of
// versions: [lower, upper) in the general case, with either edge possibly
// open (exclusive) or absent (unbounded).
type interval struct {
	lower bound
	upper bound
}

func (iv interval) containsLower(v *Version) bool {
	if iv.lower.v == nil {
		return true
	}
	if iv.lower.inclusive {
		return !v.LessThan(iv.lower.v)
	}
	return v.GreaterThan(iv.lower.v)
}

func (iv interval) containsUpper(v *Version) bool {
	if iv.upper.v == nil {
		return true
	}
	if iv.upper.inclusive {
		return !v.GreaterThan(iv.upper.v)
	}
	return v.LessThan(iv.upper.v)
}

func (iv interval) contains(v *Version) bool {
	return iv.containsLower(v) && iv.containsUpper(v)
}

func (iv interval) isEmpty() bool {
	if iv.lower.v == nil || iv.upper.v == nil {
		return false
	}
	cmp := iv.lower.v.Compare(iv.upper.v)
	if cmp > 0 {
		return true
	}
	if cmp == 0 {
		return !(iv.lower.inclusive && iv.upper.inclusive)
	}
	return false
}

func (iv interval) String() string {
	var lo, hi string
	if iv.lower.v == nil {
		lo = "(-inf"
	} else if iv.lower.inclusive {
		lo = "[" + iv.lower.v.String()
	} else {
		lo = "(" + iv.lower.v.String()
	}
	if iv.upper.v == nil {
		hi = "+inf)"
	} else if iv.upper.inclusive {
		hi = iv.upper.v.String() + "]"
	} else {
		hi = iv.upper.v.String() + ")"
	}
	return lo + ", " + hi
}

// intersect returns the overlap of two intervals, or (interval{}, false) if
// they do not overlap.
func (iv interval) intersect(other interval) (interval, bool) {
	var result interval

	switch {
	case iv.lower.v == nil:
		result.lower = other.lower
	case other.lower.v == nil:
		result.lower = iv.lower
	default:
		cmp := iv.lower.v.Compare(other.lower.v)
		switch {
		case cmp > 0:
			result.lower = iv.lower
		case cmp < 0:
			result.lower = other.lower
		default:
			result.lower = bound{v: iv.lower.v, inclusive: iv.lower.inclusive && other.lower.inclusive}
		}
	}

	switch {
	case iv.upper.v == nil:
		result.upper = other.upper
	case other.upper.v == nil:
		result.upper = iv.upper
	default:
		cmp := iv.upper.v.Compare(other.upper.v)
		switch {
		case cmp < 0:
			result.upper = iv.upper
		case cmp > 0:
			result.upper = other.upper
		default:
			result.upper = bound{v: iv.upper.v, inclusive: iv.upper.inclusive && other.upper.inclusive}
		}
	}

	if result.isEmpty() {
		return interval{}, false
	}
	return result, true
}

// Range is a set of acceptable versions expressed as a union of
// non-overlapping, sorted intervals. It is the interval-algebra counterpart
// to Constraint: where Constraint answers "does this one version match",
// Range supports intersection and emptiness checks across whole sets of
// versions, which the resolver needs when it narrows a package's acceptable
// versions as it folds in one dependent's requirement after another.
type Range struct {
	intervals []interval
}

// Full returns a Range that contains every version.
func Full() *Range {
	return &Range{intervals: []interval{{}}}
}

// Empty returns a Range that contains no version.
func Empty() *Range {
	return &Range{}
}

// Singleton returns a Range containing exactly one version.
func Singleton(v *Version) *Range {
	return &Range{intervals: []interval{{
		lower: bound{v: v, inclusive: true},
		upper: bound{v: v, inclusive: true},
	}}}
}

// ParseRange parses a constraint string (the same grammar ParseConstraint
// accepts: exact, =, >, <, >=, <=, ~, ^, and "latest") into the equivalent
// Range of acceptable versions.
func ParseRange(s string) (*Range, error) {
	op, v, err := parseOpVersion(s, "range")
	if err != nil {
		return nil, err
	}
	if op == "latest" {
		return Full(), nil
	}

	var iv interval
	switch op {
	case "=":
		return Singleton(v), nil
	case ">":
		iv = interval{lower: bound{v: v, inclusive: false}}
	case ">=":
		iv = interval{lower: bound{v: v, inclusive: true}}
	case "<":
		iv = interval{upper: bound{v: v, inclusive: false}}
	case "<=":
		iv = interval{upper: bound{v: v, inclusive: true}}
	case "~":
		iv = interval{
			lower: bound{v: v, inclusive: true},
			upper: bound{v: &Version{Major: v.Major, Minor: v.Minor + 1}, inclusive: false},
		}
	case "^":
		lo, hi := caretBounds(v)
		iv = interval{lower: bound{v: lo, inclusive: true}, upper: bound{v: hi, inclusive: false}}
	default:
		return nil, fmt.Errorf("unknown operator %q in range %q", op, s)
	}

	return &Range{intervals: []interval{iv}}, nil
}

// Contains reports whether v falls within any interval of the range.
func (r *Range) Contains(v *Version) bool {
	if r == nil || v == nil {
		return false
	}
	for _, iv := range r.intervals {
		if iv.contains(v) {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the range admits no versions at all.
func (r *Range) IsEmpty() bool {
	return r == nil || len(r.intervals) == 0
}

// Intersection returns the range of versions acceptable to both r and
// other. This is the core operation the resolver uses to narrow a
// package's candidate set as each new dependent's constraint is folded in:
// a package version survives only while the running intersection stays
// non-empty.
func (r *Range) Intersection(other *Range) *Range {
	if r == nil || other == nil {
		return Empty()
	}

	result := &Range{}
	for _, a := range r.intervals {
		for _, b := range other.intervals {
			if merged, ok := a.intersect(b); ok {
				result.intervals = append(result.intervals, merged)
			}
		}
	}
	result.normalize()
	return result
}

// Union returns the range of versions acceptable to either r or other.
func (r *Range) Union(other *Range) *Range {
	result := &Range{}
	if r != nil {
		result.intervals = append(result.intervals, r.intervals...)
	}
	if other != nil {
		result.intervals = append(result.intervals, other.intervals...)
	}
	result.normalize()
	return result
}

// normalize sorts intervals by lower bound and merges any that overlap or
// touch, keeping the representation canonical so IsEmpty and equality-style
// comparisons stay cheap.
func (r *Range) normalize() {
	if len(r.intervals) == 0 {
		return
	}

	sort.SliceStable(r.intervals, func(i, j int) bool {
		a, b := r.intervals[i].lower, r.intervals[j].lower
		if a.v == nil {
			return b.v != nil
		}
		if b.v == nil {
			return false
		}
		return a.v.LessThan(b.v)
	})

	merged := r.intervals[:1]
	for _, next := range r.intervals[1:] {
		last := &merged[len(merged)-1]
		if intervalsAdjacentOrOverlapping(*last, next) {
			if boundHigher(next.upper, last.upper) {
				last.upper = next.upper
			}
			continue
		}
		merged = append(merged, next)
	}
	r.intervals = merged
}

func intervalsAdjacentOrOverlapping(a, b interval) bool {
	if a.upper.v == nil || b.lower.v == nil {
		return true
	}
	cmp := a.upper.v.Compare(b.lower.v)
	if cmp > 0 {
		return true
	}
	if cmp == 0 {
		return a.upper.inclusive || b.lower.inclusive
	}
	return false
}

func boundHigher(a, b bound) bool {
	if a.v == nil {
		return true
	}
	if b.v == nil {
		return false
	}
	cmp := a.v.Compare(b.v)
	if cmp != 0 {
		return cmp > 0
	}
	return a.inclusive && !b.inclusive
}

// String renders the range as a comma-separated list of its intervals, for
// diagnostics and derivation-tree text in resolver error messages.
func (r *Range) String() string {
	if r.IsEmpty() {
		return "<empty>"
	}
	parts := make([]string, len(r.intervals))
	for i, iv := range r.intervals {
		parts[i] = iv.String()
	}
	return strings.Join(parts, " U ")
}
