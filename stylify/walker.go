package stylify

import (
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"stylify/css"
	"stylify/dom"
	"stylify/scope"
)

// walker carries all state of a single run.
type walker struct {
	log      *zap.Logger
	opts     Options
	marker   string
	parser   *css.Parser
	rewriter *scope.Rewriter
	names    scope.TypeNames
	visited  map[*html.Node]struct{}

	sheets    []*css.Stylesheet
	cssErrors int
	title     string
}

func newWalker(log *zap.Logger, opts Options, marker string) *walker {
	names := scope.NewTypeNames()
	return &walker{
		log:      log,
		opts:     opts,
		marker:   marker,
		parser:   css.NewParser(log),
		rewriter: scope.NewRewriter(marker, names, log),
		names:    names,
		visited:  make(map[*html.Node]struct{}),
	}
}

// run scopes the tree: all style blocks are rewritten first, so the set of
// scoped type names is complete and stays fixed while the tree is mutated.
// Normalization renames every html and body element, these names are not
// present in the result anymore.
func (w *walker) run(root *html.Node) {
	w.styles(root)
	w.mutate(root)
	if w.opts.NormalizeHTML {
		w.names.Remove("html")
		w.names.Remove("body")
	}
}

// styles rewrites text of every CSS style element.
func (w *walker) styles(n *html.Node) {
	if dom.IsElement(n, "title") && w.title == "" {
		w.title = strings.TrimSpace(textContent(n))
	}
	if dom.IsCSSStyle(n) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				c.Data = w.rewriteCSS(c.Data)
			}
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.styles(c)
	}
}

func (w *walker) rewriteCSS(text string) string {
	sheet, err := w.parser.ParseRecover(text, w.opts.RepairAttempts)
	if err != nil {
		errs := multierr.Errors(err)
		w.cssErrors += len(errs)
		w.log.Warn("Style block has CSS errors, continuing with what could be parsed",
			zap.Int("errors", len(errs)), zap.Error(err))
	}
	w.rewriter.Stylesheet(sheet)
	w.sheets = append(w.sheets, sheet)
	return sheet.String()
}

// mutate walks the tree depth first. Children are taken as a snapshot and
// visited from the last one, so removing a node never shifts siblings which
// are still to be visited.
func (w *walker) mutate(n *html.Node) {
	children := dom.Children(n)
	for i := len(children) - 1; i >= 0; i-- {
		c := children[i]
		if _, ok := w.visited[c]; ok {
			continue
		}
		if removed := w.visit(c); removed {
			continue
		}
		w.mutate(c)
	}
}

// visit applies per node transformations, reports whether node was removed
// from the tree.
func (w *walker) visit(n *html.Node) bool {
	var name string
	if n.Type == html.ElementNode {
		name = n.Data
	}

	if w.opts.RemoveScripts && dom.IsElement(n, "script") {
		dom.Remove(n)
		return true
	}

	if w.opts.NormalizeHTML {
		switch {
		case n.Type == html.CommentNode, n.Type == html.DoctypeNode,
			dom.IsElement(n, "meta"), dom.IsElement(n, "title"):
			dom.Remove(n)
			return true
		case dom.IsElement(n, "html"), dom.IsElement(n, "body"):
			dom.Rename(n, w.opts.ReplaceElement)
		case dom.IsElement(n, "head"):
			dom.AppendStyle(n, "display:none")
			dom.Rename(n, "span")
		}
	}

	w.visited[n] = struct{}{}

	// type name before renaming decides
	if name != "" && w.names.Has(name) {
		dom.AddClass(n, w.rewriter.ClassName(name))
	}
	return false
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}
