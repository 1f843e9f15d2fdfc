package tokens

// Set is an insertion-ordered collection of tokens keyed by ID.
// Putting an existing ID replaces the token in place.
type Set struct {
	order []string
	byID  map[string]DesignToken
}

// NewSet returns a set holding toks, later duplicates winning.
func NewSet(toks ...DesignToken) *Set {
	s := &Set{byID: make(map[string]DesignToken, len(toks))}
	for _, t := range toks {
		s.Put(t)
	}
	return s
}

// Put inserts or replaces t.
func (s *Set) Put(t DesignToken) {
	if s.byID == nil {
		s.byID = make(map[string]DesignToken)
	}
	if _, ok := s.byID[t.ID]; !ok {
		s.order = append(s.order, t.ID)
	}
	s.byID[t.ID] = t
}

// Get returns the token with id.
func (s *Set) Get(id string) (DesignToken, bool) {
	if s == nil {
		return DesignToken{}, false
	}
	t, ok := s.byID[id]
	return t, ok
}

// Has reports whether id is in the set.
func (s *Set) Has(id string) bool {
	_, ok := s.Get(id)
	return ok
}

// Len is the number of distinct tokens.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Tokens returns the tokens in insertion order.
func (s *Set) Tokens() []DesignToken {
	if s == nil {
		return nil
	}
	out := make([]DesignToken, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}
