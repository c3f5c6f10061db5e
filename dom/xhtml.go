package dom

import (
	"io"
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"
	"golang.org/x/net/html"
)

const (
	nsXHTML = "http://www.w3.org/1999/xhtml"
	nsSVG   = "http://www.w3.org/2000/svg"
	nsMath  = "http://www.w3.org/1998/Math/MathML"
)

// RenderXHTML writes tree as XHTML. Root html element (and foreign svg/math
// roots) receive proper xmlns, doctype is kept, attributes which are not
// valid XML names are dropped.
func RenderXHTML(w io.Writer, root *html.Node) error {
	doc := etree.NewDocument()
	doc.WriteSettings = etree.WriteSettings{
		CanonicalText:    true,
		CanonicalAttrVal: true,
	}
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	if root.Type == html.DocumentNode {
		for c := root.FirstChild; c != nil; c = c.NextSibling {
			convertNode(&doc.Element, c)
		}
	} else {
		convertNode(&doc.Element, root)
	}

	_, err := doc.WriteTo(w)
	return err
}

func convertNode(parent *etree.Element, n *html.Node) {
	switch n.Type {
	case html.DoctypeNode:
		parent.CreateDirective("DOCTYPE " + n.Data)
	case html.TextNode:
		parent.CreateText(xmlText(n.Data))
	case html.CommentNode:
		parent.CreateComment(strings.ReplaceAll(xmlText(n.Data), "--", "- -"))
	case html.ElementNode:
		el := parent.CreateElement(n.Data)
		for _, a := range n.Attr {
			key := a.Key
			if a.Namespace != "" {
				key = a.Namespace + ":" + a.Key
			}
			if !isXMLName(key) {
				continue
			}
			el.CreateAttr(key, xmlText(a.Val))
		}
		if el.SelectAttr("xmlns") == nil {
			switch {
			case n.Namespace == "" && n.Data == "html":
				el.CreateAttr("xmlns", nsXHTML)
			case n.Namespace == "svg" && (n.Parent == nil || n.Parent.Namespace != "svg"):
				el.CreateAttr("xmlns", nsSVG)
			case n.Namespace == "math" && (n.Parent == nil || n.Parent.Namespace != "math"):
				el.CreateAttr("xmlns", nsMath)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			convertNode(el, c)
		}
	}
}

// xmlText drops characters XML 1.0 does not allow.
func xmlText(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return r
		case r < 0x20, r == utf8.RuneError, r == 0xFFFE, r == 0xFFFF:
			return -1
		}
		return r
	}, s)
}

func isXMLName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == ':' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= 0xC0:
		case i > 0 && (r == '-' || r == '.' || r >= '0' && r <= '9' || r == 0xB7):
		default:
			return false
		}
	}
	return strings.Count(s, ":") <= 1
}
