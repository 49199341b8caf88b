package results

// Set is an insertion-ordered set of strings with O(1) membership.
type Set struct {
	items []string
	seen  map[string]struct{}
}

func NewSet() *Set {
	return &Set{seen: make(map[string]struct{})}
}

// Add appends v unless it is already present and reports whether it did.
func (s *Set) Add(v string) bool {
	if _, exists := s.seen[v]; exists {
		return false
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
	return true
}

func (s *Set) Contains(v string) bool {
	_, exists := s.seen[v]
	return exists
}

func (s *Set) Len() int {
	return len(s.items)
}

// Items returns a copy of the members in first-seen order.
func (s *Set) Items() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}
