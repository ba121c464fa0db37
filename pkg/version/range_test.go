package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRangeCaret(t *testing.T) {
	r, err := ParseRange("^1.2.3")
	require.NoError(t, err)

	assert.True(t, r.Contains(MustParse("1.2.3")))
	assert.True(t, r.Contains(MustParse("1.9.0")))
	assert.False(t, r.Contains(MustParse("2.0.0")))
	assert.False(t, r.Contains(MustParse("1.2.2")))
}

func TestParseRangeCaretZeroMajor(t *testing.T) {
	r, err := ParseRange("^0.2.3")
	require.NoError(t, err)

	assert.True(t, r.Contains(MustParse("0.2.9")))
	assert.False(t, r.Contains(MustParse("0.3.0")))
}

func TestParseRangeTilde(t *testing.T) {
	r, err := ParseRange("~1.2.3")
	require.NoError(t, err)

	assert.True(t, r.Contains(MustParse("1.2.9")))
	assert.False(t, r.Contains(MustParse("1.3.0")))
}

func TestParseRangeComparisons(t *testing.T) {
	gte, err := ParseRange(">=1.0.0")
	require.NoError(t, err)
	assert.True(t, gte.Contains(MustParse("1.0.0")))
	assert.False(t, gte.Contains(MustParse("0.9.9")))

	lt, err := ParseRange("<2.0.0")
	require.NoError(t, err)
	assert.True(t, lt.Contains(MustParse("1.9.9")))
	assert.False(t, lt.Contains(MustParse("2.0.0")))
}

func TestParseRangeExactAndLatest(t *testing.T) {
	exact, err := ParseRange("1.2.3")
	require.NoError(t, err)
	assert.True(t, exact.Contains(MustParse("1.2.3")))
	assert.False(t, exact.Contains(MustParse("1.2.4")))

	latest, err := ParseRange("latest")
	require.NoError(t, err)
	assert.True(t, latest.Contains(MustParse("0.0.1")))
	assert.True(t, latest.Contains(MustParse("99.0.0")))
}

func TestRangeIntersectionNarrows(t *testing.T) {
	a, err := ParseRange("^1.0.0")
	require.NoError(t, err)
	b, err := ParseRange(">=1.2.0")
	require.NoError(t, err)

	narrowed := a.Intersection(b)
	assert.False(t, narrowed.IsEmpty())
	assert.True(t, narrowed.Contains(MustParse("1.2.0")))
	assert.True(t, narrowed.Contains(MustParse("1.9.0")))
	assert.False(t, narrowed.Contains(MustParse("1.1.0")))
	assert.False(t, narrowed.Contains(MustParse("2.0.0")))
}

func TestRangeIntersectionEmpty(t *testing.T) {
	a, err := ParseRange("^1.0.0")
	require.NoError(t, err)
	b, err := ParseRange("^2.0.0")
	require.NoError(t, err)

	assert.True(t, a.Intersection(b).IsEmpty())
}

func TestRangeIntersectionOfSingletons(t *testing.T) {
	a := Singleton(MustParse("1.0.0"))
	b := Singleton(MustParse("1.0.0"))
	assert.False(t, a.Intersection(b).IsEmpty())

	c := Singleton(MustParse("2.0.0"))
	assert.True(t, a.Intersection(c).IsEmpty())
}

func TestFullContainsEverything(t *testing.T) {
	full := Full()
	assert.True(t, full.Contains(MustParse("0.0.0")))
	assert.True(t, full.Contains(MustParse("999.999.999")))
}

func TestEmptyContainsNothing(t *testing.T) {
	empty := Empty()
	assert.False(t, empty.Contains(MustParse("1.0.0")))
	assert.True(t, empty.IsEmpty())
}

func TestParseRangeInvalid(t *testing.T) {
	_, err := ParseRange("")
	assert.Error(t, err)

	_, err = ParseRange("not-a-version")
	assert.Error(t, err)
}
