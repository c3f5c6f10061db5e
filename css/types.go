package css

import (
	"fmt"
	"io"
	"strings"
)

// RuleKind tells which variant an Item holds.
type RuleKind int

const (
	KindStyle RuleKind = iota // selector list with declarations
	KindGroup                 // at-rule wrapping a nested rule list (@media, @supports, @keyframes...)
	KindOther                 // anything else, kept verbatim
)

func (k RuleKind) String() string {
	switch k {
	case KindStyle:
		return "style"
	case KindGroup:
		return "group"
	default:
		return "other"
	}
}

// Declaration is a single property declaration. Value is kept as written
// (whitespace collapsed), it is opaque to scoping.
type Declaration struct {
	Property string
	Value    string
}

func (d Declaration) String() string {
	return d.Property + ":" + d.Value
}

// StyleRule is a qualified rule: selectors and declaration block.
type StyleRule struct {
	Selectors    []string
	Declarations []Declaration
}

// GroupRule is an at-rule carrying nested rules instead of declarations.
type GroupRule struct {
	Name    string // at-keyword including '@', e.g. "@media"
	Prelude string // condition, e.g. "screen and (min-width:100px)"
	Rules   []Item
}

// OtherRule is a rule scoping never touches: statement at-rules (@import,
// @charset), declaration-only at-rules (@font-face, @page) and keyframe
// selectors.
type OtherRule struct {
	Text string
}

// Item is a single rule of a rule list.
// Exactly one of Style, Group or Other is non-nil.
type Item struct {
	Style *StyleRule
	Group *GroupRule
	Other *OtherRule
}

// Kind reports which variant the item holds.
func (it Item) Kind() RuleKind {
	switch {
	case it.Style != nil:
		return KindStyle
	case it.Group != nil:
		return KindGroup
	default:
		return KindOther
	}
}

// Stylesheet is a parsed style block: rules in source order.
type Stylesheet struct {
	Items []Item
}

// ParseError describes grammar error reported by CSS parser. Line and Column
// are 1-based (column counts runes), Offset is the matching byte offset into
// the parsed text or -1 when position is unknown. Fragment is the offending
// source text as it appears in the input.
type ParseError struct {
	Message  string
	Line     int
	Column   int
	Offset   int
	Fragment string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("css: %s on line %d column %d near %q", e.Message, e.Line, e.Column, e.Fragment)
	}
	return fmt.Sprintf("css: %s near %q", e.Message, e.Fragment)
}

// Count returns number of items of the requested kind, nested rules of
// grouping rules included.
func (s *Stylesheet) Count(kind RuleKind) int {
	return countItems(s.Items, kind)
}

func countItems(items []Item, kind RuleKind) int {
	n := 0
	for _, it := range items {
		if it.Kind() == kind {
			n++
		}
		if it.Group != nil {
			n += countItems(it.Group.Rules, kind)
		}
	}
	return n
}

// WriteTo writes the stylesheet to w in source order, implementing io.WriterTo.
// Output is compact: no whitespace inside rules, top level items are
// separated by a new line.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for i, item := range s.Items {
		if i > 0 {
			n, err := io.WriteString(w, "\n")
			total += int64(n)
			if err != nil {
				return total, err
			}
		}
		n, err := writeItem(w, item)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// String returns the CSS text of the stylesheet.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

func writeItem(w io.Writer, item Item) (int, error) {
	switch item.Kind() {
	case KindStyle:
		return io.WriteString(w, item.Style.String())
	case KindGroup:
		return writeGroup(w, item.Group)
	default:
		if item.Other == nil {
			return 0, nil
		}
		return io.WriteString(w, item.Other.Text)
	}
}

func writeGroup(w io.Writer, g *GroupRule) (int, error) {
	var total int
	head := g.Name
	if g.Prelude != "" {
		head += " " + g.Prelude
	}
	n, err := io.WriteString(w, head+"{")
	total += n
	if err != nil {
		return total, err
	}
	for _, item := range g.Rules {
		n, err = writeItem(w, item)
		total += n
		if err != nil {
			return total, err
		}
	}
	n, err = io.WriteString(w, "}")
	total += n
	return total, err
}

// String returns the compact CSS text of the rule.
func (r *StyleRule) String() string {
	var sb strings.Builder
	sb.WriteString(strings.Join(r.Selectors, ","))
	sb.WriteByte('{')
	writeDeclarations(&sb, r.Declarations)
	sb.WriteByte('}')
	return sb.String()
}

func writeDeclarations(sb *strings.Builder, decls []Declaration) {
	for i, d := range decls {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(d.String())
	}
}
