package discovery

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"missionboard/internal/config"
	"missionboard/internal/domain"
)

var jan1 = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func mission(id string, mut func(*domain.Mission)) domain.Mission {
	m := domain.Mission{
		ID:            id,
		Title:         "Mission " + id,
		Description:   "Generic work item",
		Category:      "Divers",
		Tags:          []string{"misc"},
		Reward:        100,
		CreatedAt:     jan1,
		Deadline:      jan1.Add(30 * 24 * time.Hour),
		Status:        domain.StatusOpen,
		Type:          domain.TypeShort,
		Difficulty:    domain.DifficultyEasy,
		MaxCandidates: 5,
		CreatedBy:     "creator-1",
	}
	if mut != nil {
		mut(&m)
	}
	return m
}

func ids(ms []domain.Mission) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.ID
	}
	return out
}

func TestHighestRewardOrdersByRewardDescending(t *testing.T) {
	a := mission("A", func(m *domain.Mission) { m.Reward = 100; m.CreatedAt = jan1 })
	b := mission("B", func(m *domain.Mission) { m.Reward = 500; m.CreatedAt = jan1.Add(24 * time.Hour) })

	res := Discover([]domain.Mission{a, b}, NewQuery().WithSort(SortHighestReward))
	assert.Equal(t, []string{"B", "A"}, ids(res.Items))
}

func TestSortKeys(t *testing.T) {
	ms := []domain.Mission{
		mission("old-cheap-late", func(m *domain.Mission) {
			m.Reward = 10
			m.Deadline = jan1.Add(90 * 24 * time.Hour)
		}),
		mission("new-rich-soon", func(m *domain.Mission) {
			m.Reward = 900
			m.CreatedAt = jan1.Add(48 * time.Hour)
			m.Deadline = jan1.Add(5 * 24 * time.Hour)
		}),
		mission("mid", func(m *domain.Mission) {
			m.Reward = 300
			m.CreatedAt = jan1.Add(24 * time.Hour)
			m.Deadline = jan1.Add(20 * 24 * time.Hour)
		}),
	}
	cases := []struct {
		key  SortKey
		want []string
	}{
		{SortNewest, []string{"new-rich-soon", "mid", "old-cheap-late"}},
		{SortHighestReward, []string{"new-rich-soon", "mid", "old-cheap-late"}},
		{SortNearestDeadline, []string{"new-rich-soon", "mid", "old-cheap-late"}},
	}
	for _, tc := range cases {
		t.Run(string(tc.key), func(t *testing.T) {
			res := Discover(ms, NewQuery().WithSort(tc.key))
			assert.Equal(t, tc.want, ids(res.Items))
		})
	}

	// Unknown or empty keys fall back to newest.
	res := Discover(ms, Query{Sort: "popularity"})
	assert.Equal(t, []string{"new-rich-soon", "mid", "old-cheap-late"}, ids(res.Items))
}

func TestSortIsStableForEqualKeys(t *testing.T) {
	ms := []domain.Mission{mission("1", nil), mission("2", nil), mission("3", nil)}
	for _, key := range []SortKey{SortNewest, SortHighestReward, SortNearestDeadline} {
		res := Discover(ms, Query{Sort: key})
		assert.Equal(t, []string{"1", "2", "3"}, ids(res.Items), key)
	}
}

func TestPaginationTenItemsNinePerPage(t *testing.T) {
	var ms []domain.Mission
	for i := 0; i < 10; i++ {
		ms = append(ms, mission(fmt.Sprintf("m%02d", i), func(m *domain.Mission) {
			m.CreatedAt = jan1.Add(time.Duration(i) * time.Hour)
		}))
	}
	first := Discover(ms, NewQuery())
	assert.Equal(t, 10, first.TotalCount)
	assert.Equal(t, 2, first.TotalPages)
	assert.Len(t, first.Items, 9)
	assert.Equal(t, 0, first.RangeStart)
	assert.Equal(t, 9, first.RangeEnd)

	second := Discover(ms, NewQuery().WithPage(2))
	require.Len(t, second.Items, 1)
	assert.Equal(t, "m00", second.Items[0].ID)
	assert.Equal(t, 9, second.RangeStart)
	assert.Equal(t, 10, second.RangeEnd)
}

func TestPageOutOfRangeIsEmpty(t *testing.T) {
	var ms []domain.Mission
	for i := 0; i < 12; i++ {
		ms = append(ms, mission(fmt.Sprintf("m%d", i), nil))
	}
	res := Discover(ms, NewQuery().WithPage(99))
	assert.NotNil(t, res.Items)
	assert.Empty(t, res.Items)
	assert.Equal(t, 12, res.TotalCount)
	assert.Equal(t, 2, res.TotalPages)
	assert.Equal(t, 12, res.RangeStart)
	assert.Equal(t, 12, res.RangeEnd)
}

func TestEmptyCollection(t *testing.T) {
	res := Discover(nil, NewQuery())
	assert.Empty(t, res.Items)
	assert.Equal(t, 0, res.TotalCount)
	assert.Equal(t, 0, res.TotalPages)
	assert.Equal(t, 0, res.RangeStart)
	assert.Equal(t, 0, res.RangeEnd)
}

func TestPageBelowOneIsFirstPage(t *testing.T) {
	ms := []domain.Mission{mission("a", nil)}
	res := Discover(ms, Query{Page: -3})
	assert.Equal(t, 1, res.Page)
	assert.Len(t, res.Items, 1)
}

func TestCustomPageSize(t *testing.T) {
	var ms []domain.Mission
	for i := 0; i < 7; i++ {
		ms = append(ms, mission(fmt.Sprintf("m%d", i), nil))
	}
	res := Pipeline{PageSize: 3}.Discover(ms, Query{Page: 3})
	assert.Equal(t, 3, res.TotalPages)
	assert.Len(t, res.Items, 1)
	assert.Equal(t, 3, res.PageSize)

	res = Pipeline{PageSize: 3}.Discover(ms, Query{PageSize: 5})
	assert.Equal(t, 2, res.TotalPages)
	assert.Len(t, res.Items, 5)
}

func TestStatusFilterSelectsSingleCompleted(t *testing.T) {
	ms := []domain.Mission{
		mission("open", nil),
		mission("done", func(m *domain.Mission) { m.Status = domain.StatusCompleted }),
		mission("wip", func(m *domain.Mission) { m.Status = domain.StatusInProgress }),
	}
	res := Discover(ms, NewQuery().WithStatus(domain.StatusCompleted))
	require.Len(t, res.Items, 1)
	assert.Equal(t, "done", res.Items[0].ID)
}

func TestSearchMatchesTitleDescriptionAndTags(t *testing.T) {
	ms := []domain.Mission{
		mission("title", func(m *domain.Mission) { m.Title = "Refactor API gateway" }),
		mission("desc", func(m *domain.Mission) { m.Description = "Needs an api key rotation" }),
		mission("tag", func(m *domain.Mission) { m.Tags = []string{"REST", "Api"} }),
		mission("none", nil),
		mission("category-only", func(m *domain.Mission) { m.Category = "API" }),
	}
	res := Discover(ms, Query{Search: "API"})
	assert.ElementsMatch(t, []string{"title", "desc", "tag"}, ids(res.Items))
}

func TestSearchKeepsSurroundingSpaces(t *testing.T) {
	ms := []domain.Mission{
		mission("plural", func(m *domain.Mission) { m.Title = "Document the apis" }),
		mission("word", func(m *domain.Mission) { m.Title = "Document the api layer" }),
	}
	assert.Equal(t, []string{"word"}, ids(Discover(ms, Query{Search: "api "}).Items))
	assert.Len(t, Discover(ms, Query{Search: "   "}).Items, 2)
}

func TestHugePageSizeFitsOnOnePage(t *testing.T) {
	ms := []domain.Mission{mission("a", nil), mission("b", nil)}
	res := Discover(ms, Query{Page: 1, PageSize: math.MaxInt})
	assert.Equal(t, 2, res.TotalCount)
	assert.Equal(t, 1, res.TotalPages)
	assert.Len(t, res.Items, 2)
	assert.Equal(t, 0, res.RangeStart)
	assert.Equal(t, 2, res.RangeEnd)

	res = Discover(ms, Query{Page: 2, PageSize: math.MaxInt})
	assert.Empty(t, res.Items)
	assert.Equal(t, 1, res.TotalPages)
}

func TestSearchFoldsAccents(t *testing.T) {
	ms := []domain.Mission{
		mission("fr", func(m *domain.Mission) { m.Title = "Rédaction d'ÉTUDES de cas" }),
	}
	assert.Len(t, Discover(ms, Query{Search: "études"}).Items, 1)
	assert.Len(t, Discover(ms, Query{Search: "rÉdaction"}).Items, 1)
}

func TestExactFilters(t *testing.T) {
	ms := []domain.Mission{
		mission("a", func(m *domain.Mission) {
			m.Category = "Design"
			m.Type = domain.TypeLong
			m.Difficulty = domain.DifficultyHard
		}),
		mission("b", func(m *domain.Mission) {
			m.Category = "Design"
			m.Type = domain.TypeShort
			m.Difficulty = domain.DifficultyHard
		}),
		mission("c", func(m *domain.Mission) {
			m.Category = "design"
			m.Type = domain.TypeLong
			m.Difficulty = domain.DifficultyHard
		}),
	}
	q := NewQuery().WithCategory("Design").WithType(domain.TypeLong).WithDifficulty(domain.DifficultyHard)
	assert.Equal(t, []string{"a"}, ids(Discover(ms, q).Items))

	// Display labels resolve to the data vocabulary.
	q = NewQuery().WithDifficulty("expert")
	assert.Equal(t, domain.DifficultyHard, q.Difficulty)
	assert.Len(t, Discover(ms, q).Items, 3)
}

func TestMalformedEnumsAreNoConstraint(t *testing.T) {
	ms := []domain.Mission{mission("a", nil), mission("b", nil)}
	q := Query{Status: "archived", Type: "medium", Difficulty: "legendary"}
	assert.Len(t, Discover(ms, q).Items, 2)
}

func TestMainCategoryMatchesSpecialtiesOrID(t *testing.T) {
	tax := NewTaxonomy([]config.MainCategory{
		{ID: "design", Name: "Design", Subcategories: []string{"Figma", "Logo"}},
		{ID: "data", Name: "Data", Subcategories: []string{"SQL"}},
	})
	p := Pipeline{Taxonomy: tax}
	ms := []domain.Mission{
		mission("tag", func(m *domain.Mission) { m.Tags = []string{"figma-prototype"} }),
		mission("desc", func(m *domain.Mission) { m.Description = "New LOGO for a bakery" }),
		mission("cat-id", func(m *domain.Mission) { m.Category = "Graphic Design" }),
		mission("title-id", func(m *domain.Mission) { m.Title = "design review" }),
		mission("tag-id-only", func(m *domain.Mission) { m.Tags = []string{"design"} }),
		mission("other", func(m *domain.Mission) { m.Tags = []string{"sql"} }),
	}
	res := p.Discover(ms, NewQuery().WithMainCategory("design"))
	assert.ElementsMatch(t, []string{"tag", "desc", "cat-id", "title-id"}, ids(res.Items))

	// Unknown ids only use the direct substring test.
	res = p.Discover(ms, NewQuery().WithMainCategory("bakery"))
	assert.Equal(t, []string{"desc"}, ids(res.Items))
	res = p.Discover(ms, NewQuery().WithMainCategory("graphic"))
	assert.Equal(t, []string{"cat-id"}, ids(res.Items))
}

func TestSubcategoryNarrowsMainCategory(t *testing.T) {
	tax := NewTaxonomy([]config.MainCategory{
		{ID: "design", Subcategories: []string{"Figma", "Logo"}},
	})
	p := Pipeline{Taxonomy: tax}
	ms := []domain.Mission{
		mission("figma", func(m *domain.Mission) { m.Tags = []string{"Figma"} }),
		mission("logo", func(m *domain.Mission) { m.Title = "Logo refresh" }),
	}
	q := NewQuery().WithMainCategory("design").WithSubcategory("logo")
	assert.Equal(t, []string{"logo"}, ids(p.Discover(ms, q).Items))

	// Alone, the subcategory still applies.
	assert.Equal(t, []string{"figma"}, ids(p.Discover(ms, Query{Subcategory: "FIGMA"}).Items))
}

func TestFilterConjunction(t *testing.T) {
	ms := []domain.Mission{
		mission("match", func(m *domain.Mission) {
			m.Title = "React dashboard"
			m.Status = domain.StatusOpen
			m.Type = domain.TypeLong
		}),
		mission("wrong-status", func(m *domain.Mission) {
			m.Title = "React dashboard"
			m.Status = domain.StatusCancelled
			m.Type = domain.TypeLong
		}),
		mission("wrong-type", func(m *domain.Mission) {
			m.Title = "React dashboard"
			m.Type = domain.TypeShort
		}),
		mission("wrong-search", func(m *domain.Mission) {
			m.Type = domain.TypeLong
		}),
	}
	q := NewQuery().WithSearch("react").WithStatus(domain.StatusOpen).WithType(domain.TypeLong)
	assert.Equal(t, []string{"match"}, ids(Discover(ms, q).Items))
}

func TestDiscoverDoesNotMutateInput(t *testing.T) {
	ms := []domain.Mission{
		mission("a", func(m *domain.Mission) { m.Reward = 1 }),
		mission("b", func(m *domain.Mission) { m.Reward = 2 }),
	}
	before := make([]domain.Mission, len(ms))
	for i, m := range ms {
		before[i] = m.Clone()
	}
	q := NewQuery().WithSort(SortHighestReward)
	res := Discover(ms, q)
	res.Items[0].Tags[0] = "changed"
	res.Items[0].Title = "changed"

	assert.Equal(t, before, ms)
	assert.Equal(t, Discover(ms, q), Discover(ms, q))
}
