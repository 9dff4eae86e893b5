package discovery

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"missionboard/internal/config"
	"missionboard/internal/domain"
)

// Taxonomy is the fixed main category → specialty label mapping used for
// fuzzy listing filters. It is unrelated to Mission.Category.
type Taxonomy struct {
	cats []config.MainCategory
}

func NewTaxonomy(cats []config.MainCategory) Taxonomy {
	out := make([]config.MainCategory, len(cats))
	for i, c := range cats {
		c.Subcategories = append([]string(nil), c.Subcategories...)
		out[i] = c
	}
	return Taxonomy{cats: out}
}

// DefaultTaxonomy is the taxonomy shipped in the default config.
func DefaultTaxonomy() Taxonomy {
	return NewTaxonomy(config.Default().Taxonomy)
}

func (t Taxonomy) Categories() []config.MainCategory {
	return NewTaxonomy(t.cats).cats
}

func (t Taxonomy) Lookup(id string) (config.MainCategory, bool) {
	for _, c := range t.cats {
		if c.ID == id {
			return c, true
		}
	}
	return config.MainCategory{}, false
}

// matcher does case-insensitive substring tests. A cases.Caser is not safe
// for concurrent use, so each Discover call builds its own.
type matcher struct {
	caser cases.Caser
}

func newMatcher() *matcher {
	return &matcher{caser: cases.Lower(language.Und)}
}

func (m *matcher) fold(s string) string {
	return m.caser.String(s)
}

func (m *matcher) contains(haystack, foldedNeedle string) bool {
	return strings.Contains(m.fold(haystack), foldedNeedle)
}

// matchesSearch tests the title, the description and every tag.
func (m *matcher) matchesSearch(ms domain.Mission, foldedQuery string) bool {
	if m.contains(ms.Title, foldedQuery) || m.contains(ms.Description, foldedQuery) {
		return true
	}
	for _, tag := range ms.Tags {
		if m.contains(tag, foldedQuery) {
			return true
		}
	}
	return false
}

// mentions reports whether any tag, the category, the title or the
// description contains the folded label.
func (m *matcher) mentions(ms domain.Mission, foldedLabel string) bool {
	for _, tag := range ms.Tags {
		if m.contains(tag, foldedLabel) {
			return true
		}
	}
	return m.contains(ms.Category, foldedLabel) ||
		m.contains(ms.Title, foldedLabel) ||
		m.contains(ms.Description, foldedLabel)
}

// matchesMainCategory is a weak heuristic: a mission belongs to a main
// category when it mentions one of its specialty labels, or when its
// category, title or description contains the main category id itself.
func (m *matcher) matchesMainCategory(ms domain.Mission, mainID string, tax Taxonomy) bool {
	if mc, ok := tax.Lookup(mainID); ok {
		for _, sub := range mc.Subcategories {
			if m.mentions(ms, m.fold(sub)) {
				return true
			}
		}
	}
	id := m.fold(mainID)
	return m.contains(ms.Category, id) ||
		m.contains(ms.Title, id) ||
		m.contains(ms.Description, id)
}
