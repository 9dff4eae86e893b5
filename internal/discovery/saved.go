package discovery

import "sort"

// SavedSet is an immutable set of bookmarked mission ids. Add and Remove
// return a new set and are idempotent.
type SavedSet struct {
	ids map[string]struct{}
}

func NewSavedSet(ids ...string) SavedSet {
	return SavedSet{}.Add(ids...)
}

func (s SavedSet) Add(ids ...string) SavedSet {
	next := s.copy(len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		next[id] = struct{}{}
	}
	return SavedSet{ids: next}
}

func (s SavedSet) Remove(ids ...string) SavedSet {
	next := s.copy(0)
	for _, id := range ids {
		delete(next, id)
	}
	return SavedSet{ids: next}
}

// Toggle adds id when absent and removes it when present.
func (s SavedSet) Toggle(id string) SavedSet {
	if s.Has(id) {
		return s.Remove(id)
	}
	return s.Add(id)
}

func (s SavedSet) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s SavedSet) Len() int {
	return len(s.ids)
}

// IDs returns the saved ids in lexical order.
func (s SavedSet) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s SavedSet) copy(extra int) map[string]struct{} {
	next := make(map[string]struct{}, len(s.ids)+extra)
	for id := range s.ids {
		next[id] = struct{}{}
	}
	return next
}
