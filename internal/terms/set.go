package terms

import "encoding/json"

// Set is a deduplicated collection of term names. Membership is by
// normalized name; iteration follows insertion order so scoring is
// deterministic. The zero value is an empty set ready for use.
type Set struct {
	names []string
	index map[string]struct{}
}

// NewSet returns a set holding the given names. Empty names are ignored.
func NewSet(names ...string) *Set {
	s := &Set{}
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add inserts name and reports whether it was not already present.
func (s *Set) Add(name string) bool {
	name = Normalize(name)
	if name == "" {
		return false
	}
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	if _, ok := s.index[name]; ok {
		return false
	}
	s.index[name] = struct{}{}
	s.names = append(s.names, name)
	return true
}

// Has reports whether name is a member (exact, after normalization).
func (s *Set) Has(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[Normalize(name)]
	return ok
}

// Len returns the number of members. A nil set is empty.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// Names returns a copy of the members in insertion order.
func (s *Set) Names() []string {
	if s == nil {
		return []string{}
	}
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Clone returns an independent copy. Cloning a nil set yields an empty set.
func (s *Set) Clone() *Set {
	out := &Set{}
	if s == nil {
		return out
	}
	for _, n := range s.names {
		out.Add(n)
	}
	return out
}

// Equal reports whether both sets have the same members, ignoring order.
func (s *Set) Equal(other *Set) bool {
	if s.Len() != other.Len() {
		return false
	}
	for _, n := range s.Names() {
		if !other.Has(n) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the set as an array of names.
func (s *Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}

// UnmarshalJSON decodes an array of names.
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
