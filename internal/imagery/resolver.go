// Package imagery picks a stable illustration URL for a mission from a
// curated candidate set, without storing any assignment.
package imagery

import (
	"errors"
	"fmt"
	"unicode/utf16"

	"missionboard/internal/config"
)

// Resolver maps (category, title) to one candidate URL. It is immutable
// after construction and safe for concurrent use.
type Resolver struct {
	categories map[string][]string
	fallback   []string
}

// New builds a resolver. Every list, including the fallback, must be
// non-empty.
func New(categories map[string][]string, fallback []string) (Resolver, error) {
	if len(fallback) == 0 {
		return Resolver{}, errors.New("imagery: default candidate list is empty")
	}
	r := Resolver{
		categories: make(map[string][]string, len(categories)),
		fallback:   append([]string(nil), fallback...),
	}
	for label, urls := range categories {
		if len(urls) == 0 {
			return Resolver{}, fmt.Errorf("imagery: category %q has no candidates", label)
		}
		r.categories[label] = append([]string(nil), urls...)
	}
	return r, nil
}

// FromConfig builds a resolver from the images section of cfg.
func FromConfig(cfg *config.Config) (Resolver, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	return New(cfg.Images.Categories, cfg.Images.Default)
}

// Default is the resolver over the built-in candidate sets.
func Default() Resolver {
	r, err := FromConfig(config.Default())
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve returns the candidate for title within category's list, or within
// the fallback list when category is unknown.
func (r Resolver) Resolve(category, title string) string {
	urls, ok := r.categories[category]
	if !ok {
		urls = r.fallback
	}
	return urls[Index(TitleHash(title), len(urls))]
}

// Candidates returns a copy of the list used for category.
func (r Resolver) Candidates(category string) []string {
	urls, ok := r.categories[category]
	if !ok {
		urls = r.fallback
	}
	return append([]string(nil), urls...)
}

// Known reports whether category has its own candidate list.
func (r Resolver) Known(category string) bool {
	_, ok := r.categories[category]
	return ok
}

// TitleHash folds h = h*31 + c over the UTF-16 code units of s, with int32
// wraparound and a zero seed.
func TitleHash(s string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(c)
	}
	return h
}

// Index reduces h to a position in a list of length n. The absolute value is
// taken in int64 so MinInt32 stays positive.
func Index(h int32, n int) int {
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return int(v % int64(n))
}
