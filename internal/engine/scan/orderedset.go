package scan

// OrderedSet keeps strings in first-insertion order with constant-time membership.
// The zero value is not usable; call NewOrderedSet.
type OrderedSet struct {
	items []string
	index map[string]struct{}
}

// NewOrderedSet returns an empty set
func NewOrderedSet() *OrderedSet {
	return &OrderedSet{index: make(map[string]struct{})}
}

// Add appends s if it has not been seen and reports whether it was added.
// A string already present keeps its original position.
func (s *OrderedSet) Add(v string) bool {
	if _, ok := s.index[v]; ok {
		return false
	}
	s.index[v] = struct{}{}
	s.items = append(s.items, v)
	return true
}

// Contains reports whether v has been added
func (s *OrderedSet) Contains(v string) bool {
	_, ok := s.index[v]
	return ok
}

// Len returns the number of distinct strings
func (s *OrderedSet) Len() int {
	return len(s.items)
}

// Items returns a copy of the strings in first-seen order
func (s *OrderedSet) Items() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}
