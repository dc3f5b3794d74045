package label

import "strings"

// Selections records at most one value per category. A new value for a
// category overwrites the previous one; nothing else is remembered.
type Selections struct {
	order  []Category
	values map[Category]Selection
}

// NewSelections creates an empty store accepting only the given categories.
// With no arguments the canonical categories are used. Canonical categories
// are summarized in declaration order whatever order they are passed in;
// other categories follow in argument order.
func NewSelections(categories ...Category) *Selections {
	if len(categories) == 0 {
		categories = Categories()
	}
	s := &Selections{
		order:  make([]Category, 0, len(categories)),
		values: make(map[Category]Selection, len(categories)),
	}
	accepted := make(map[Category]bool, len(categories))
	for _, c := range categories {
		accepted[c] = true
	}
	for _, c := range Categories() {
		if accepted[c] {
			s.add(c)
		}
	}
	for _, c := range categories {
		s.add(c)
	}
	return s
}

func (s *Selections) add(c Category) {
	if _, ok := s.values[c]; ok {
		return
	}
	s.order = append(s.order, c)
	s.values[c] = None
}

// Set records value for category. Unknown categories are ignored.
// An empty value clears the category.
func (s *Selections) Set(category Category, value string) {
	if _, ok := s.values[category]; !ok {
		return
	}
	if value == "" {
		s.values[category] = None
		return
	}
	s.values[category] = Some(value)
}

// Reset clears every category.
func (s *Selections) Reset() {
	for c := range s.values {
		s.values[c] = None
	}
}

// Get returns the selection for category, absent if unknown or unset.
func (s *Selections) Get(category Category) Selection {
	return s.values[category]
}

// Accepts reports whether the store was constructed with category.
func (s *Selections) Accepts(category Category) bool {
	_, ok := s.values[category]
	return ok
}

// Categories returns the accepted categories in summary order.
func (s *Selections) Categories() []Category {
	out := make([]Category, len(s.order))
	copy(out, s.order)
	return out
}

// Summarize lists recorded values as "Category: value" pairs joined by ", ".
func (s *Selections) Summarize() string {
	parts := make([]string, 0, len(s.order))
	for _, c := range s.order {
		if sel := s.values[c]; sel.Present {
			parts = append(parts, string(c)+": "+sel.Value)
		}
	}
	return strings.Join(parts, ", ")
}

// Snapshot returns the recorded values keyed by category name.
func (s *Selections) Snapshot() map[string]string {
	out := make(map[string]string)
	for _, c := range s.order {
		if sel := s.values[c]; sel.Present {
			out[string(c)] = sel.Value
		}
	}
	return out
}
