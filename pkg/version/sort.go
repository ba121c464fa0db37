package version

import "sort"

// byVersion implements sort.Interface in ascending order.
type byVersion []*Version

func (vs byVersion) Len() int           { return len(vs) }
func (vs byVersion) Less(i, j int) bool { return vs[i].LessThan(vs[j]) }
func (vs byVersion) Swap(i, j int)      { vs[i], vs[j] = vs[j], vs[i] }

// Sort sorts versions ascending in place (oldest first, prereleases
// before their release).
func Sort(versions []*Version) {
	sort.Sort(byVersion(versions))
}

// SortDesc sorts versions descending in place (newest first).
func SortDesc(versions []*Version) {
	sort.Sort(sort.Reverse(byVersion(versions)))
}

// SortStrings parses and sorts ascending, dropping any string that fails
// to parse rather than erroring the whole call.
func SortStrings(versionStrings []string) []*Version {
	versions := parseAll(versionStrings)
	Sort(versions)
	return versions
}

// SortStringsDesc parses and sorts descending, dropping any string that
// fails to parse.
func SortStringsDesc(versionStrings []string) []*Version {
	versions := parseAll(versionStrings)
	SortDesc(versions)
	return versions
}

func parseAll(versionStrings []string) []*Version {
	var versions []*Version
	for _, s := range versionStrings {
		if v, err := Parse(s); err == nil {
			versions = append(versions, v)
		}
	}
	return versions
}

// Latest returns the highest version, or nil if versions is empty.
func Latest(versions []*Version) *Version {
	return extreme(versions, func(v, best *Version) bool { return v.GreaterThan(best) })
}

// Oldest returns the lowest version, or nil if versions is empty.
func Oldest(versions []*Version) *Version {
	return extreme(versions, func(v, best *Version) bool { return v.LessThan(best) })
}

func extreme(versions []*Version, beats func(v, best *Version) bool) *Version {
	if len(versions) == 0 {
		return nil
	}
	best := versions[0]
	for _, v := range versions[1:] {
		if beats(v, best) {
			best = v
		}
	}
	return best
}
