package invocation

import "encoding/json"

// Set is an insertion-ordered set of names.
// Iteration order is the order in which each name was first added.
// The zero value is an empty set ready to use.
type Set struct {
	index map[string]int
	names []string
}

// NewSet returns a set containing names, deduplicated in first-seen order.
func NewSet(names ...string) *Set {
	s := &Set{}
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add inserts name if it is not already present.
// It reports whether the name was newly added.
func (s *Set) Add(name string) bool {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if _, ok := s.index[name]; ok {
		return false
	}
	s.index[name] = len(s.names)
	s.names = append(s.names, name)
	return true
}

// Contains reports whether name is in the set. Safe on a nil set.
func (s *Set) Contains(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[name]
	return ok
}

// Len returns the number of names. Safe on a nil set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// Names returns a copy of the names in first-seen order.
// The result is never nil.
func (s *Set) Names() []string {
	if s == nil {
		return []string{}
	}
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// ContainsAll reports whether every name in names is in the set.
// An empty names list is trivially contained.
func (s *Set) ContainsAll(names []string) bool {
	for _, n := range names {
		if !s.Contains(n) {
			return false
		}
	}
	return true
}

// Missing returns the names not present in the set, in argument order.
func (s *Set) Missing(names []string) []string {
	var missing []string
	for _, n := range names {
		if !s.Contains(n) {
			missing = append(missing, n)
		}
	}
	return missing
}

// MarshalJSON encodes the set as a JSON array in first-seen order.
func (s *Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}

// UnmarshalJSON decodes a JSON array of names.
func (s *Set) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*s = Set{}
	for _, n := range names {
		s.Add(n)
	}
	return nil
}
