package scope

import (
	"sort"
	"strings"

	"github.com/maruel/natural"
)

// TypeNames is a set of element type names which appeared as bare type
// selectors in rewritten CSS. Names are kept lower-cased.
type TypeNames map[string]struct{}

// NewTypeNames returns empty set.
func NewTypeNames() TypeNames {
	return make(TypeNames)
}

// Add records name.
func (n TypeNames) Add(name string) {
	if name == "" {
		return
	}
	n[strings.ToLower(name)] = struct{}{}
}

// Remove forgets name, case is ignored.
func (n TypeNames) Remove(name string) {
	delete(n, strings.ToLower(name))
}

// Has reports whether name was recorded, case is ignored.
func (n TypeNames) Has(name string) bool {
	_, ok := n[strings.ToLower(name)]
	return ok
}

// Len returns number of recorded names.
func (n TypeNames) Len() int {
	return len(n)
}

// Sorted returns recorded names in natural order (h2 before h10).
func (n TypeNames) Sorted() []string {
	names := make([]string, 0, len(n))
	for name := range n {
		names = append(names, name)
	}
	sort.Sort(natural.StringSlice(names))
	return names
}
