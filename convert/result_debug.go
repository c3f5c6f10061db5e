package convert

import (
	"stylify/dom"
	"stylify/scope"
	"stylify/stylify"
	"stylify/utils/debug"
)

// dumpTree returns a readable summary of the processing result followed by
// the scoped node tree. It exists solely for manual inspection.
func dumpTree(res *stylify.Result) string {
	if res == nil {
		return "<nil Result>"
	}

	tw := debug.NewTreeWriter()
	tw.Line(0, "Marker: %q", res.Marker)
	if res.Title != "" {
		tw.Line(0, "Title: %q", res.Title)
	}
	tw.Line(0, "Style blocks: %d", len(res.Stylesheets))
	tw.Line(0, "CSS errors: %d, violations: %d", res.CSSErrors, res.Violations)

	names := res.ScopedTypeNames.Sorted()
	tw.Line(0, "Scoped type names (%d)", len(names))
	for _, name := range names {
		tw.Line(1, "%s => %s", name, scope.ClassName(name, res.Marker))
	}

	out := tw.String()
	if res.Root != nil {
		out += "\n" + dom.Dump(res.Root)
	}
	return out
}
