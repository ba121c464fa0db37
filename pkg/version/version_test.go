package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValid(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  Version
	}{
		{"standard triple", "1.2.3", Version{Major: 1, Minor: 2, Patch: 3}},
		{"zero version", "0.0.0", Version{}},
		{"large numbers", "100.200.300", Version{Major: 100, Minor: 200, Patch: 300}},
		{"v prefix", "v1.2.3", Version{Major: 1, Minor: 2, Patch: 3}},
		{"v prefix with prerelease", "v2.0.0-beta", Version{Major: 2, Prerelease: "beta"}},
		{"major only", "1", Version{Major: 1}},
		{"major.minor only", "1.2", Version{Major: 1, Minor: 2}},
		{"major only with v", "v5", Version{Major: 5}},
		{"prerelease alpha", "1.0.0-alpha", Version{Major: 1, Prerelease: "alpha"}},
		{"prerelease beta.1", "1.0.0-beta.1", Version{Major: 1, Prerelease: "beta.1"}},
		{"prerelease rc.1", "2.0.0-rc.1", Version{Major: 2, Prerelease: "rc.1"}},
		{"prerelease with multiple segments", "1.0.0-alpha.1.beta.2", Version{Major: 1, Prerelease: "alpha.1.beta.2"}},
		{"build only", "1.0.0+build.123", Version{Major: 1, Build: "build.123"}},
		{"prerelease and build", "1.0.0-beta.1+build.456", Version{Major: 1, Prerelease: "beta.1", Build: "build.456"}},
		{"date-style build", "2.0.0+20230101", Version{Major: 2, Build: "20230101"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, *got)
		})
	}
}

func TestParseRejectsMalformedInput(t *testing.T) {
	for _, input := range []string{"", "invalid", "-1.0.0", "a.b.c", "1..0"} {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			assert.Error(t, err)
		})
	}
}

func TestVersionString(t *testing.T) {
	cases := []struct {
		name    string
		version Version
		want    string
	}{
		{"bare triple", Version{Major: 1, Minor: 2, Patch: 3}, "1.2.3"},
		{"with prerelease", Version{Major: 1, Prerelease: "alpha"}, "1.0.0-alpha"},
		{"with build", Version{Major: 1, Build: "build.123"}, "1.0.0+build.123"},
		{"with prerelease and build", Version{Major: 1, Prerelease: "beta", Build: "456"}, "1.0.0-beta+456"},
		{"zero value", Version{}, "0.0.0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.version.String())
		})
	}
}

func TestVersionCompare(t *testing.T) {
	cases := []struct {
		name   string
		a, b   string
		result int
	}{
		{"equal simple", "1.0.0", "1.0.0", 0},
		{"equal complex", "2.3.4", "2.3.4", 0},
		{"major wins over minor/patch", "1.9.9", "2.0.0", -1},
		{"major greater", "2.0.0", "1.0.0", 1},
		{"minor wins over patch", "1.1.9", "1.2.0", -1},
		{"minor greater", "1.2.0", "1.1.0", 1},
		{"patch less", "1.0.1", "1.0.2", -1},
		{"patch greater", "1.0.2", "1.0.1", 1},
		{"prerelease below release", "1.0.0-alpha", "1.0.0", -1},
		{"release above prerelease", "1.0.0", "1.0.0-alpha", 1},
		{"alpha below beta", "1.0.0-alpha", "1.0.0-beta", -1},
		{"beta above alpha", "1.0.0-beta", "1.0.0-alpha", 1},
		{"numeric prerelease identifiers compare numerically", "1.0.0-1", "1.0.0-2", -1},
		{"numeric identifier below alphanumeric", "1.0.0-1", "1.0.0-alpha", -1},
		{"dotted prerelease compares identifier by identifier", "1.0.0-alpha.1", "1.0.0-alpha.2", -1},
		{"shorter prerelease below longer with shared prefix", "1.0.0-alpha", "1.0.0-alpha.1", -1},
		{"equal prerelease", "1.0.0-alpha", "1.0.0-alpha", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, b := MustParse(tc.a), MustParse(tc.b)
			assert.Equal(t, tc.result, a.Compare(b))
		})
	}
}

func TestVersionOrderingHelpers(t *testing.T) {
	v1, v2 := MustParse("1.0.0"), MustParse("2.0.0")

	assert.True(t, v1.LessThan(v2))
	assert.False(t, v2.LessThan(v1))
	assert.False(t, v1.LessThan(v1))

	assert.True(t, v2.GreaterThan(v1))
	assert.False(t, v1.GreaterThan(v2))

	assert.True(t, v1.Equal(MustParse("1.0.0")))
	assert.False(t, v1.Equal(v2))

	// build metadata never affects equality
	assert.True(t, MustParse("1.0.0+build1").Equal(MustParse("1.0.0+build2")))
}

func TestParseConstraintMatching(t *testing.T) {
	cases := []struct {
		name       string
		constraint string
		version    string
		matches    bool
	}{
		{"bare version is exact", "1.0.0", "1.0.0", true},
		{"explicit equals", "=1.0.0", "1.0.0", true},
		{"exact mismatch", "1.0.0", "1.0.1", false},

		{"caret exact", "^1.2.3", "1.2.3", true},
		{"caret minor bump", "^1.2.3", "1.3.0", true},
		{"caret patch bump", "^1.2.3", "1.2.4", true},
		{"caret rejects major bump", "^1.2.3", "2.0.0", false},
		{"caret rejects below floor", "^1.2.3", "1.2.2", false},
		{"caret 0.x pins minor", "^0.2.3", "0.2.9", true},
		{"caret 0.x rejects minor bump", "^0.2.3", "0.3.0", false},
		{"caret 0.0.x pins patch", "^0.0.3", "0.0.3", true},
		{"caret 0.0.x rejects patch bump", "^0.0.3", "0.0.4", false},

		{"tilde exact", "~1.2.3", "1.2.3", true},
		{"tilde patch bump", "~1.2.3", "1.2.9", true},
		{"tilde rejects minor bump", "~1.2.3", "1.3.0", false},
		{"tilde rejects below floor", "~1.2.3", "1.2.2", false},

		{"gt above", ">1.0.0", "1.0.1", true},
		{"gt equal is excluded", ">1.0.0", "1.0.0", false},
		{"gt below", ">1.0.0", "0.9.9", false},
		{"lt below", "<2.0.0", "1.9.9", true},
		{"lt equal is excluded", "<2.0.0", "2.0.0", false},
		{"ge includes equal", ">=1.5.0", "1.5.0", true},
		{"ge rejects below", ">=1.5.0", "1.4.9", false},
		{"le includes equal", "<=1.5.0", "1.5.0", true},
		{"le rejects above", "<=1.5.0", "1.5.1", false},

		{"latest matches anything", "latest", "99.99.99", true},
		{"latest is case-insensitive", "LATEST", "1.0.0", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := ParseConstraint(tc.constraint)
			require.NoError(t, err)
			assert.Equal(t, tc.matches, c.Match(MustParse(tc.version)))
		})
	}
}

func TestParseConstraintRejectsMalformedInput(t *testing.T) {
	for _, input := range []string{"", "   ", "^abc", ">>1.0.0"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseConstraint(input)
			assert.Error(t, err)
		})
	}
}

func TestConstraintMatchNilVersion(t *testing.T) {
	c := MustParseConstraint("^1.0.0")
	assert.False(t, c.Match(nil))
}

func TestConstraintFindBest(t *testing.T) {
	c := MustParseConstraint("^1.0.0")
	candidates := []*Version{
		MustParse("0.9.0"), MustParse("1.0.0"), MustParse("1.5.0"),
		MustParse("1.9.9"), MustParse("2.0.0"),
	}

	best := c.FindBest(candidates)
	require.NotNil(t, best)
	assert.Equal(t, "1.9.9", best.String())

	assert.Nil(t, MustParseConstraint("^3.0.0").FindBest(candidates))
	assert.Nil(t, c.FindBest(nil))
	assert.Nil(t, c.FindBest([]*Version{}))
}

func TestConstraintStringRoundTrips(t *testing.T) {
	for _, s := range []string{"^1.0.0", "~2.0.0", ">1.0.0", "<2.0.0", ">=1.0.0", "<=1.0.0", "latest", "1.0.0", "=1.0.0"} {
		c := MustParseConstraint(s)
		assert.Equal(t, s, c.String())
	}
}

func TestSortOrdersAscending(t *testing.T) {
	versions := []*Version{MustParse("2.0.0"), MustParse("1.0.0"), MustParse("1.5.0"), MustParse("0.1.0")}
	Sort(versions)
	assertOrder(t, versions, "0.1.0", "1.0.0", "1.5.0", "2.0.0")
}

func TestSortOrdersPrereleasesBeforeRelease(t *testing.T) {
	versions := []*Version{MustParse("1.0.0"), MustParse("1.0.0-alpha"), MustParse("1.0.0-beta"), MustParse("0.9.0")}
	Sort(versions)
	assertOrder(t, versions, "0.9.0", "1.0.0-alpha", "1.0.0-beta", "1.0.0")
}

func TestSortDescOrdersDescending(t *testing.T) {
	versions := []*Version{MustParse("1.0.0"), MustParse("2.0.0"), MustParse("1.5.0"), MustParse("0.1.0")}
	SortDesc(versions)
	assertOrder(t, versions, "2.0.0", "1.5.0", "1.0.0", "0.1.0")
}

func assertOrder(t *testing.T, versions []*Version, want ...string) {
	t.Helper()
	require.Len(t, versions, len(want))
	for i, v := range versions {
		assert.Equal(t, want[i], v.String())
	}
}

func TestSortStringsSkipsInvalid(t *testing.T) {
	asc := SortStrings([]string{"2.0.0", "1.0.0", "invalid", "1.5.0"})
	assertOrder(t, asc, "1.0.0", "1.5.0", "2.0.0")

	desc := SortStringsDesc([]string{"1.0.0", "2.0.0", "invalid", "1.5.0"})
	assertOrder(t, desc, "2.0.0", "1.5.0", "1.0.0")
}

func TestLatestAndOldest(t *testing.T) {
	versions := []*Version{MustParse("1.0.0"), MustParse("2.0.0"), MustParse("1.5.0")}

	require.NotNil(t, Latest(versions))
	assert.Equal(t, "2.0.0", Latest(versions).String())
	require.NotNil(t, Oldest(versions))
	assert.Equal(t, "1.0.0", Oldest(versions).String())

	assert.Nil(t, Latest(nil))
	assert.Nil(t, Oldest(nil))
}

func TestMustParsePanicsOnInvalidInput(t *testing.T) {
	v := MustParse("1.2.3")
	assert.Equal(t, 1, v.Major)
	assert.Panics(t, func() { MustParse("invalid") })
}

func TestMustParseConstraintPanicsOnInvalidInput(t *testing.T) {
	c := MustParseConstraint("^1.0.0")
	assert.Equal(t, "^1.0.0", c.String())
	assert.Panics(t, func() { MustParseConstraint("") })
}
