package markov

// Filter selects entries by tag. The zero Filter matches everything.
type Filter struct {
	// Name is the tag to test. Empty disables filtering.
	Name string
	// Value is compared against the tag value when HasValue is set.
	Value    string
	HasValue bool
}

// AnyTag returns a filter that matches every entry.
func AnyTag() Filter { return Filter{} }

// HasTag matches entries carrying the named tag with any value.
func HasTag(name string) Filter { return Filter{Name: name} }

// TagEquals matches entries whose named tag equals value.
func TagEquals(name, value string) Filter {
	return Filter{Name: name, Value: value, HasValue: true}
}

// IsZero reports whether the filter disables filtering.
func (f Filter) IsZero() bool { return f.Name == "" }

// Matches reports whether tags satisfy the keep predicate.
func (f Filter) Matches(tags Tags) bool {
	if f.Name == "" {
		return true
	}
	if !tags.Has(f.Name) {
		return false
	}
	return !f.HasValue || tags[f.Name] == f.Value
}

// Survives reports whether tags survive a removal with f.
//
// Untagged entries always survive. Tagged entries survive only when a value
// was given and theirs differs, so removal without a value drops every
// entry carrying the tag.
func (f Filter) Survives(tags Tags) bool {
	if f.Name == "" {
		return true
	}
	if !tags.Has(f.Name) {
		return true
	}
	return f.HasValue && tags[f.Name] != f.Value
}

// Keep returns the entries of list matching f. A zero filter returns list itself.
func Keep(list []Entry, f Filter) []Entry {
	if f.IsZero() {
		return list
	}
	return selectEntries(list, f.Matches)
}

// Remove returns the entries of list that survive removal with f.
// A zero filter returns list itself.
func Remove(list []Entry, f Filter) []Entry {
	if f.IsZero() {
		return list
	}
	return selectEntries(list, f.Survives)
}

func selectEntries(list []Entry, pred func(Tags) bool) []Entry {
	var out []Entry
	for _, e := range list {
		if pred(e.Tags) {
			out = append(out, e)
		}
	}
	return out
}

// Keep returns a new chain with every context's list filtered by Keep.
func (c *Chain) Keep(f Filter) *Chain {
	return c.mapEntries(func(list []Entry) []Entry { return Keep(list, f) })
}

// Remove returns a new chain with every context's list filtered by Remove.
func (c *Chain) Remove(f Filter) *Chain {
	return c.mapEntries(func(list []Entry) []Entry { return Remove(list, f) })
}
