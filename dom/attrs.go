package dom

import (
	"mime"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attr returns value of attribute key (no namespace).
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces attribute key.
func SetAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// AddClass appends class to the class attribute unless it is already there.
func AddClass(n *html.Node, class string) {
	current, ok := Attr(n, "class")
	if !ok || strings.TrimSpace(current) == "" {
		SetAttr(n, "class", class)
		return
	}
	for _, c := range strings.Fields(current) {
		if c == class {
			return
		}
	}
	SetAttr(n, "class", current+" "+class)
}

// AppendStyle appends declaration to the inline style attribute.
func AppendStyle(n *html.Node, decl string) {
	current, _ := Attr(n, "style")
	current = strings.TrimSpace(current)
	if current != "" && !strings.HasSuffix(current, ";") {
		current += ";"
	}
	SetAttr(n, "style", current+decl)
}

// Rename changes element type name.
func Rename(n *html.Node, name string) {
	n.Data = name
	n.DataAtom = atom.Lookup([]byte(name))
}

// Remove detaches node from its parent.
func Remove(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// Children returns snapshot of node children, it stays valid when children
// are removed from the node.
func Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// IsElement reports whether n is HTML element with type name.
func IsElement(n *html.Node, name string) bool {
	return n != nil && n.Type == html.ElementNode && n.Namespace == "" && n.Data == name
}

// IsCSSStyle reports whether n is a <style> element holding CSS: type
// attribute is absent, empty or text/css (parameters and case ignored).
func IsCSSStyle(n *html.Node) bool {
	if !IsElement(n, "style") {
		return false
	}
	typ, ok := Attr(n, "type")
	if !ok || strings.TrimSpace(typ) == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(typ)
	if err != nil {
		return false
	}
	return mt == "text/css"
}
