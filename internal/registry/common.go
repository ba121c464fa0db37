package registry

import "strings"

// NormalizeName folds a plugin name to a canonical form for alias
// comparison: lowercase, with underscores treated as hyphens. Unreal
// plugin names are inconsistent about this — "Gameplay_Abilities" and
// "gameplay-abilities" should resolve to the same package.
func NormalizeName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", "-"))
}

// NamesMatch reports whether two names are the same plugin under
// NormalizeName's folding rules.
func NamesMatch(name1, name2 string) bool {
	return NormalizeName(name1) == NormalizeName(name2)
}
