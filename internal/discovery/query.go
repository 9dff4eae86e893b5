package discovery

import (
	"strings"

	"missionboard/internal/domain"
)

// DefaultPageSize is the listing page size when neither the query nor the
// pipeline sets one.
const DefaultPageSize = 9

type SortKey string

const (
	SortNewest          SortKey = "newest"
	SortHighestReward   SortKey = "highest_reward"
	SortNearestDeadline SortKey = "nearest_deadline"
)

// ParseSortKey accepts snake_case keys and the camelCase spellings used by
// web clients. Unknown keys report false.
func ParseSortKey(s string) (SortKey, bool) {
	switch strings.TrimSpace(s) {
	case "newest":
		return SortNewest, true
	case "highest_reward", "highestReward", "reward":
		return SortHighestReward, true
	case "nearest_deadline", "nearestDeadline", "deadline":
		return SortNearestDeadline, true
	}
	return "", false
}

// Query is the full set of filter, sort and page parameters for one
// Discover call. It is a value: transitions return a new Query and leave
// the receiver untouched. Every transition that changes a filter, the
// search text or the sort key also resets Page to 1.
type Query struct {
	Search       string               `json:"search,omitempty"`
	Category     string               `json:"category,omitempty"`
	Status       domain.MissionStatus `json:"status,omitempty"`
	Type         domain.MissionType   `json:"type,omitempty"`
	Difficulty   domain.Difficulty    `json:"difficulty,omitempty"`
	MainCategory string               `json:"main_category,omitempty"`
	Subcategory  string               `json:"subcategory,omitempty"`
	Sort         SortKey              `json:"sort,omitempty"`
	Page         int                  `json:"page,omitempty"`
	PageSize     int                  `json:"page_size,omitempty"`
}

// NewQuery returns the initial listing state: no filters, newest first, page 1.
func NewQuery() Query {
	return Query{Sort: SortNewest, Page: 1}
}

func (q Query) WithSearch(s string) Query {
	q.Search = s
	q.Page = 1
	return q
}

func (q Query) WithCategory(c string) Query {
	q.Category = c
	q.Page = 1
	return q
}

func (q Query) WithStatus(s domain.MissionStatus) Query {
	q.Status = s
	q.Page = 1
	return q
}

func (q Query) WithType(t domain.MissionType) Query {
	q.Type = t
	q.Page = 1
	return q
}

// WithDifficulty stores the canonical value when given a display label.
func (q Query) WithDifficulty(d domain.Difficulty) Query {
	if canon, ok := domain.ParseDifficulty(string(d)); ok {
		d = canon
	}
	q.Difficulty = d
	q.Page = 1
	return q
}

// WithMainCategory also clears the subcategory, which belongs to the
// previous main category.
func (q Query) WithMainCategory(id string) Query {
	if id != q.MainCategory {
		q.Subcategory = ""
	}
	q.MainCategory = id
	q.Page = 1
	return q
}

func (q Query) WithSubcategory(label string) Query {
	q.Subcategory = label
	q.Page = 1
	return q
}

func (q Query) WithSort(k SortKey) Query {
	q.Sort = k
	q.Page = 1
	return q
}

func (q Query) WithPage(n int) Query {
	q.Page = n
	return q
}

// Reset clears every filter and the search text but keeps sort and page size.
func (q Query) Reset() Query {
	return Query{Sort: q.Sort, PageSize: q.PageSize, Page: 1}
}

// Active reports whether any filter or search text is set.
func (q Query) Active() bool {
	return strings.TrimSpace(q.Search) != "" ||
		q.Category != "" ||
		q.Status != "" ||
		q.Type != "" ||
		q.Difficulty != "" ||
		q.MainCategory != "" ||
		q.Subcategory != ""
}

// normalized maps malformed optional fields to "no constraint" and fills
// sort and page defaults. Non-blank search text is matched as typed.
func (q Query) normalized(defaultPageSize int) Query {
	if strings.TrimSpace(q.Search) == "" {
		q.Search = ""
	}
	if q.Status != "" && !q.Status.Valid() {
		q.Status = ""
	}
	if q.Type != "" && !q.Type.Valid() {
		q.Type = ""
	}
	if q.Difficulty != "" {
		if canon, ok := domain.ParseDifficulty(string(q.Difficulty)); ok {
			q.Difficulty = canon
		} else {
			q.Difficulty = ""
		}
	}
	if k, ok := ParseSortKey(string(q.Sort)); ok {
		q.Sort = k
	} else {
		q.Sort = SortNewest
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	return q
}
