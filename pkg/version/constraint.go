package version

import (
	"fmt"
	"regexp"
	"strings"
)

// opPattern splits a constraint/range string into its optional operator
// prefix and version suffix. ">=" and "<=" must be tried before the
// single-character alternatives or they'd never match.
var opPattern = regexp.MustCompile(`^(>=|<=|[=><~^])?(.+)$`)

// Constraint matches a single version against a requirement string:
// exact, =, >, <, >=, <=, ~ (tilde), ^ (caret), or the literal "latest".
type Constraint struct {
	Original string
	checks   []check
}

type check struct {
	op      string
	version *Version
}

func (c check) match(v *Version) bool {
	switch c.op {
	case "latest":
		return true
	case "=":
		return v.Equal(c.version)
	case ">":
		return v.GreaterThan(c.version)
	case "<":
		return v.LessThan(c.version)
	case ">=":
		return v.GreaterThan(c.version) || v.Equal(c.version)
	case "<=":
		return v.LessThan(c.version) || v.Equal(c.version)
	default:
		return false
	}
}

// ParseConstraint parses a requirement string into a Constraint.
//
// The caret and tilde forms follow npm/Cargo convention:
//
//	^1.2.3  -> >=1.2.3, <2.0.0   (major pinned)
//	^0.2.3  -> >=0.2.3, <0.3.0   (minor pinned once major is 0)
//	^0.0.3  -> >=0.0.3, <0.0.4   (patch pinned once major.minor is 0.0)
//	~1.2.3  -> >=1.2.3, <1.3.0
func ParseConstraint(s string) (*Constraint, error) {
	op, v, err := parseOpVersion(s, "constraint")
	if err != nil {
		return nil, err
	}
	c := &Constraint{Original: strings.TrimSpace(s)}

	if op == "latest" {
		c.checks = []check{{op: "latest"}}
		return c, nil
	}

	switch op {
	case "=", ">", "<", ">=", "<=":
		c.checks = []check{{op: op, version: v}}
	case "~":
		c.checks = []check{
			{op: ">=", version: v},
			{op: "<", version: &Version{Major: v.Major, Minor: v.Minor + 1}},
		}
	case "^":
		lo, hi := caretBounds(v)
		c.checks = []check{{op: ">=", version: lo}, {op: "<", version: hi}}
	default:
		return nil, fmt.Errorf("unknown operator %q in constraint %q", op, s)
	}
	return c, nil
}

// parseOpVersion extracts the operator and parses the version portion of
// a constraint or range string. kind names the caller in error messages.
func parseOpVersion(s, kind string) (op string, v *Version, err error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", nil, fmt.Errorf("%s string cannot be empty", kind)
	}
	if strings.EqualFold(trimmed, "latest") {
		return "latest", nil, nil
	}

	m := opPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return "", nil, fmt.Errorf("invalid %s format: %q", kind, trimmed)
	}
	op = m[1]
	if op == "" {
		op = "="
	}
	v, err = Parse(m[2])
	if err != nil {
		return "", nil, fmt.Errorf("invalid version in %s %q: %w", kind, trimmed, err)
	}
	return op, v, nil
}

// caretBounds returns the inclusive lower and exclusive upper bound a
// caret constraint admits for v.
func caretBounds(v *Version) (lo, hi *Version) {
	switch {
	case v.Major != 0:
		hi = &Version{Major: v.Major + 1}
	case v.Minor != 0:
		hi = &Version{Minor: v.Minor + 1}
	default:
		hi = &Version{Patch: v.Patch + 1}
	}
	return v, hi
}

// Match reports whether v satisfies every check in the constraint.
func (c *Constraint) Match(v *Version) bool {
	if v == nil {
		return false
	}
	for _, chk := range c.checks {
		if !chk.match(v) {
			return false
		}
	}
	return true
}

// String returns the original constraint text.
func (c *Constraint) String() string { return c.Original }

// FindBest returns the highest version in versions that satisfies the
// constraint, or nil if none does.
func (c *Constraint) FindBest(versions []*Version) *Version {
	var best *Version
	for _, v := range versions {
		if c.Match(v) && (best == nil || v.GreaterThan(best)) {
			best = v
		}
	}
	return best
}

// MustParseConstraint is ParseConstraint, panicking on error.
func MustParseConstraint(s string) *Constraint {
	c, err := ParseConstraint(s)
	if err != nil {
		panic(fmt.Sprintf("version.MustParseConstraint(%q): %v", s, err))
	}
	return c
}
