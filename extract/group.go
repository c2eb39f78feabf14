package extract

// Group is a named set of fields extracted together, e.g. one day of a
// multi-day page.
type Group struct {
	Name   string
	Fields []FieldSpec
}

// Composite maps group names to their results
type Composite map[string]Result

// ExtractGroups runs Extract for every group against the same document.
func ExtractGroups(doc string, groups []Group) Composite {
	out := make(Composite, len(groups))
	for _, g := range groups {
		out[g.Name] = Extract(doc, g.Fields)
	}
	return out
}

// Empty reports whether no group produced any field
func (c Composite) Empty() bool {
	for _, r := range c {
		if !r.Empty() {
			return false
		}
	}
	return true
}
