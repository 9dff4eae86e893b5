package imagery

import (
	"fmt"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTitleHashFixtures(t *testing.T) {
	cases := map[string]int32{
		"":             0,
		"a":            97,
		"abc":          96354,
		"Refactor API": -1602633156,
		// Surrogate pairs hash as two code units.
		"😀": 1772899,
	}
	for in, want := range cases {
		assert.Equal(t, want, TitleHash(in), in)
	}
}

func TestIndexHandlesMinInt32(t *testing.T) {
	assert.Equal(t, int(int64(2147483648)%7), Index(math.MinInt32, 7))
	assert.Equal(t, 3, Index(-3, 5))
	assert.Equal(t, 0, Index(0, 1))
}

func TestResolveKnownExample(t *testing.T) {
	r := Default()
	got := r.Resolve("Développement", "Refactor API")
	assert.Equal(t, "https://images.unsplash.com/photo-1461749280684-dccba630e2f6?w=800", got)
	for i := 0; i < 5; i++ {
		assert.Equal(t, got, Default().Resolve("Développement", "Refactor API"))
	}
}

func TestResolveFallsBackForUnknownCategory(t *testing.T) {
	r, err := New(map[string][]string{"Design": {"d0", "d1"}}, []string{"x0", "x1", "x2"})
	require.NoError(t, err)

	assert.True(t, r.Known("Design"))
	assert.False(t, r.Known("Cuisine"))
	assert.Contains(t, []string{"x0", "x1", "x2"}, r.Resolve("Cuisine", "Tarte"))
	assert.Contains(t, []string{"x0", "x1", "x2"}, r.Resolve("", ""))
	assert.Equal(t, "x0", r.Resolve("Cuisine", "abc"))
	assert.Equal(t, "d0", r.Resolve("Design", "abc"))
}

func TestNewRejectsEmptyLists(t *testing.T) {
	_, err := New(nil, nil)
	require.Error(t, err)

	_, err = New(map[string][]string{"Design": {}}, []string{"x"})
	require.Error(t, err)
}

func TestNewCopiesInput(t *testing.T) {
	cats := map[string][]string{"Design": {"d0"}}
	fallback := []string{"x0"}
	r, err := New(cats, fallback)
	require.NoError(t, err)

	cats["Design"][0] = "changed"
	fallback[0] = "changed"
	assert.Equal(t, "d0", r.Resolve("Design", "t"))
	assert.Equal(t, "x0", r.Resolve("Other", "t"))

	c := r.Candidates("Design")
	c[0] = "changed"
	assert.Equal(t, []string{"d0"}, r.Candidates("Design"))
}

func TestResolveSpreadsTitlesAcrossCandidates(t *testing.T) {
	r := Default()
	candidates := r.Candidates("Design")
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		seen[r.Resolve("Design", fmt.Sprintf("Logo refresh #%d", i))] = true
	}
	assert.Len(t, seen, len(candidates))
}

func TestResolveProperties(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 300
	properties := gopter.NewProperties(params)
	r := Default()

	properties.Property("resolve is a pure function of its inputs", prop.ForAll(
		func(category, title string) bool {
			return r.Resolve(category, title) == Default().Resolve(category, title)
		},
		gen.OneConstOf("Développement", "Design", "Marketing", "Rédaction", "Data", "Blockchain", "Unknown"),
		gen.AnyString(),
	))

	properties.Property("result is always one of the category candidates", prop.ForAll(
		func(category, title string) bool {
			got := r.Resolve(category, title)
			for _, c := range r.Candidates(category) {
				if c == got {
					return true
				}
			}
			return false
		},
		gen.OneConstOf("Développement", "Design", "Data", "Unknown"),
		gen.AnyString(),
	))

	properties.Property("index is within bounds for any hash", prop.ForAll(
		func(h int32, n int) bool {
			i := Index(h, n)
			return i >= 0 && i < n
		},
		gen.Int32(),
		gen.IntRange(1, 50),
	))

	properties.TestingRun(t)
}
