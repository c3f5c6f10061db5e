package dom

import (
	"golang.org/x/net/html"

	"stylify/utils/debug"
)

// Dump returns indented representation of the tree for debugging.
func Dump(root *html.Node) string {
	tw := debug.NewTreeWriter()
	dumpNode(tw, root, 0)
	return tw.String()
}

func dumpNode(tw *debug.TreeWriter, n *html.Node, depth int) {
	switch n.Type {
	case html.DocumentNode:
		tw.Line(depth, "#document")
	case html.DoctypeNode:
		tw.Line(depth, "<!DOCTYPE %s>", n.Data)
	case html.ElementNode:
		kv := make([]string, 0, 2*len(n.Attr))
		for _, a := range n.Attr {
			key := a.Key
			if a.Namespace != "" {
				key = a.Namespace + ":" + key
			}
			kv = append(kv, key, a.Val)
		}
		name := n.Data
		if n.Namespace != "" {
			name = n.Namespace + ":" + name
		}
		tw.Pairs(depth, "<"+name+">", kv...)
	case html.TextNode:
		tw.TextBlock(depth, "#text", n.Data)
	case html.CommentNode:
		tw.TextBlock(depth, "#comment", n.Data)
	default:
		tw.Line(depth, "#node(%d)", n.Type)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		dumpNode(tw, c, depth+1)
	}
}
