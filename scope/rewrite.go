package scope

import (
	"strings"

	"go.uber.org/zap"

	"stylify/css"
)

// Rewriter turns bare type selectors into class selectors bound to a single
// marker and records every rewritten type name. Rewriter belongs to a single
// run and is not safe for concurrent use.
type Rewriter struct {
	log        *zap.Logger
	marker     string
	names      TypeNames
	violations int
}

// NewRewriter creates rewriter for marker, scoped type names are added to
// names.
func NewRewriter(marker string, names TypeNames, log *zap.Logger) *Rewriter {
	if log == nil {
		log = zap.NewNop()
	}
	if names == nil {
		names = NewTypeNames()
	}
	return &Rewriter{
		log:    log.Named("scope"),
		marker: marker,
		names:  names,
	}
}

// Names returns the set rewriter records into.
func (r *Rewriter) Names() TypeNames {
	return r.names
}

// Violations returns number of constructs which were left alone because they
// did not fit expected structure (too deeply nested grouping rules, unbalanced
// selector tokens).
func (r *Rewriter) Violations() int {
	return r.violations
}

// ClassName returns scoping class for element type name.
func (r *Rewriter) ClassName(name string) string {
	return ClassName(name, r.marker)
}

// ClassName returns scoping class for element type name and marker.
func ClassName(name, marker string) string {
	return strings.ToLower(name) + "-" + marker
}

// Selector rewrites a single selector (no commas). Tokens are separated by
// whitespace, every bare type token is replaced with class selector keeping
// its attribute or pseudo-class suffix: "div > a:hover" becomes
// ".div-m > .a-m:hover". Other tokens are kept verbatim.
func (r *Rewriter) Selector(sel string) string {
	tokens := splitTokens(sel)
	for i, token := range tokens {
		c := Classify(token)
		if !c.Scopable {
			if !balanced(token) {
				r.violations++
				r.log.Warn("Malformed selector token left unscoped",
					zap.String("selector", sel), zap.String("token", token))
			}
			continue
		}
		name := BareName(token, c)
		r.names.Add(name)

		var sb strings.Builder
		sb.WriteByte('.')
		sb.WriteString(r.ClassName(name))
		if c.Offset >= 0 {
			sb.WriteString(token[c.Offset:])
		}
		tokens[i] = sb.String()
	}
	return strings.Join(tokens, " ")
}

// Selectors rewrites selector list, empty entries are dropped.
func (r *Rewriter) Selectors(list []string) []string {
	out := make([]string, 0, len(list))
	for _, sel := range list {
		if strings.TrimSpace(sel) == "" {
			continue
		}
		out = append(out, r.Selector(sel))
	}
	return out
}

// Stylesheet rewrites selectors of all style rules in place. Style rules
// directly inside grouping rules (@media, @supports) are rewritten as well,
// grouping rules nested deeper are passed through untouched.
func (r *Rewriter) Stylesheet(sheet *css.Stylesheet) {
	if sheet == nil {
		return
	}
	for _, item := range sheet.Items {
		switch item.Kind() {
		case css.KindStyle:
			r.rewriteRule(item.Style)
		case css.KindGroup:
			r.rewriteGroup(item.Group)
		}
	}
}

func (r *Rewriter) rewriteGroup(g *css.GroupRule) {
	for _, item := range g.Rules {
		switch item.Kind() {
		case css.KindStyle:
			r.rewriteRule(item.Style)
		case css.KindGroup:
			r.violations++
			r.log.Warn("Nested grouping rule left unscoped",
				zap.String("outer", g.Name+" "+g.Prelude),
				zap.String("inner", item.Group.Name+" "+item.Group.Prelude))
		}
	}
}

func (r *Rewriter) rewriteRule(rule *css.StyleRule) {
	rule.Selectors = r.Selectors(rule.Selectors)
}

// splitTokens splits selector on whitespace which is not inside brackets,
// parentheses or quoted strings.
func splitTokens(sel string) []string {
	var (
		tokens []string
		depth  int
		quote  byte
		start  = -1
	)
	for i := 0; i < len(sel); i++ {
		c := sel[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '[', '(':
			depth++
		case ']', ')':
			if depth > 0 {
				depth--
			}
		case ' ', '\t', '\n', '\r', '\f':
			if depth == 0 {
				if start >= 0 {
					tokens = append(tokens, sel[start:i])
					start = -1
				}
				continue
			}
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, sel[start:])
	}
	return tokens
}
