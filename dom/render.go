package dom

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Render writes tree as HTML.
func Render(w io.Writer, root *html.Node) error {
	return html.Render(w, root)
}

// RenderString returns tree as HTML text.
func RenderString(root *html.Node) (string, error) {
	var sb strings.Builder
	if err := html.Render(&sb, root); err != nil {
		return "", err
	}
	return sb.String(), nil
}
