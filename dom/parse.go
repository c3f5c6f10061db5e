// Package dom binds node tree of golang.org/x/net/html: parsing of complete
// documents and fragments, serialization and small node helpers.
package dom

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse builds node tree from markup. Complete documents are parsed as is,
// anything else is parsed as body content and attached to a synthetic
// document node, so fragments are not wrapped into implied html, head and
// body elements. Returned root is always a DocumentNode.
func Parse(raw string) (*html.Node, error) {
	if IsDocument(raw) {
		return html.Parse(strings.NewReader(raw))
	}

	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(raw), context)
	if err != nil {
		return nil, err
	}
	doc := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		doc.AppendChild(n)
	}
	return doc, nil
}

// IsDocument reports whether markup is a complete document: after BOM,
// whitespace and comments it starts with doctype, <html>, <head> or <body>.
func IsDocument(raw string) bool {
	s := strings.TrimPrefix(raw, "\ufeff")
	for {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
		if !strings.HasPrefix(s, "<!--") {
			break
		}
		end := strings.Index(s[4:], "-->")
		if end < 0 {
			return false
		}
		s = s[4+end+3:]
	}

	lower := strings.ToLower(s[:min(len(s), 10)])
	if strings.HasPrefix(lower, "<!doctype") {
		return true
	}
	for _, tag := range []string{"<html", "<head", "<body"} {
		if rest, ok := strings.CutPrefix(lower, tag); ok {
			if rest == "" || rest[0] == '>' || rest[0] == '/' || unicode.IsSpace(rune(rest[0])) {
				return true
			}
		}
	}
	return false
}
