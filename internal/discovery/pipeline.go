package discovery

import (
	"sort"

	"missionboard/internal/domain"
)

// Result is one page of a listing plus the numbers needed to report
// "showing X-Y of Z". RangeStart is the zero-based offset of the first item
// and RangeEnd the exclusive end; both are clamped to TotalCount.
type Result struct {
	Items      []domain.Mission `json:"items"`
	TotalCount int              `json:"total_count"`
	TotalPages int              `json:"total_pages"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	RangeStart int              `json:"range_start"`
	RangeEnd   int              `json:"range_end"`
}

// Pipeline filters, sorts and paginates missions against a taxonomy.
type Pipeline struct {
	Taxonomy Taxonomy
	PageSize int
}

// Discover runs the pipeline with the default taxonomy and page size.
func Discover(missions []domain.Mission, q Query) Result {
	return Pipeline{Taxonomy: DefaultTaxonomy(), PageSize: DefaultPageSize}.Discover(missions, q)
}

// Discover returns the page of missions selected by q. It never modifies
// missions; returned items are copies.
func (p Pipeline) Discover(missions []domain.Mission, q Query) Result {
	q = q.normalized(p.PageSize)

	matched := p.Filter(missions, q)
	SortMissions(matched, q.Sort)

	total := len(matched)
	pages := total / q.PageSize
	if total%q.PageSize != 0 {
		pages++
	}
	res := Result{
		Items:      []domain.Mission{},
		TotalCount: total,
		TotalPages: pages,
		Page:       q.Page,
		PageSize:   q.PageSize,
		RangeStart: total,
		RangeEnd:   total,
	}
	if q.Page-1 >= pages {
		return res
	}
	start := (q.Page - 1) * q.PageSize
	end := min(start+q.PageSize, total)
	for _, m := range matched[start:end] {
		res.Items = append(res.Items, m.Clone())
	}
	res.RangeStart = start
	res.RangeEnd = end
	return res
}

// Filter returns, in input order, the missions satisfying every active
// predicate of q. The returned slice is new; its elements share tag and
// step storage with the input.
func (p Pipeline) Filter(missions []domain.Mission, q Query) []domain.Mission {
	q = q.normalized(p.PageSize)
	m := newMatcher()
	search := m.fold(q.Search)
	sub := m.fold(q.Subcategory)

	out := make([]domain.Mission, 0, len(missions))
	for _, ms := range missions {
		if search != "" && !m.matchesSearch(ms, search) {
			continue
		}
		if q.Category != "" && ms.Category != q.Category {
			continue
		}
		if q.Status != "" && ms.Status != q.Status {
			continue
		}
		if q.Type != "" && ms.Type != q.Type {
			continue
		}
		if q.Difficulty != "" && ms.Difficulty != q.Difficulty {
			continue
		}
		if q.MainCategory != "" && !m.matchesMainCategory(ms, q.MainCategory, p.Taxonomy) {
			continue
		}
		if sub != "" && !m.mentions(ms, sub) {
			continue
		}
		out = append(out, ms)
	}
	return out
}

// SortMissions orders missions in place. The sort is stable so equal keys
// keep their input order.
func SortMissions(missions []domain.Mission, key SortKey) {
	switch key {
	case SortHighestReward:
		sort.SliceStable(missions, func(i, j int) bool {
			return missions[i].Reward > missions[j].Reward
		})
	case SortNearestDeadline:
		sort.SliceStable(missions, func(i, j int) bool {
			return missions[i].Deadline.Before(missions[j].Deadline)
		})
	default:
		sort.SliceStable(missions, func(i, j int) bool {
			return missions[i].CreatedAt.After(missions[j].CreatedAt)
		})
	}
}
