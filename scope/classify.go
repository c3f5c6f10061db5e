// Package scope rewrites CSS selectors so they match only elements carrying
// a per-run class, and keeps track of element type names that were scoped.
package scope

import (
	"strings"
	"unicode/utf8"
)

// Classification is a verdict for a single compound selector token.
type Classification struct {
	// Scopable is set for bare type selectors, optionally followed by
	// attribute or pseudo-class suffix.
	Scopable bool
	// Offset is the index where suffix starts (first top level '[' or ':'),
	// -1 when the whole token is a type name.
	Offset int
}

var notScopable = Classification{Offset: -1}

func isCombinator(token string) bool {
	return token == ">" || token == "+" || token == "~"
}

// Classify decides if token is a bare type selector. Any '.' or '#' in the
// token makes it a qualified selector, even inside brackets or quotes, so
// a[href$=".pdf"] and li:not(.x) pass through unchanged. Tokens with
// unbalanced brackets, parentheses or quotes, and tokens whose type part is
// not an identifier (*, ns|el, keyframe percentages) are never scopable.
func Classify(token string) Classification {
	if token == "" || isCombinator(token) || strings.ContainsAny(token, ".#") {
		return notScopable
	}

	var (
		offset = -1
		depth  int
		quote  byte
	)
	for i := 0; i < len(token); i++ {
		c := token[i]
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
			if c == '[' && depth == 0 && offset < 0 {
				offset = i
			}
			depth++
		case ']', ')':
			if depth--; depth < 0 {
				return notScopable
			}
		case ':':
			if depth == 0 && offset < 0 {
				offset = i
			}
		}
	}
	if depth != 0 || quote != 0 {
		return notScopable
	}

	name := token
	if offset >= 0 {
		name = token[:offset]
	}
	if !isIdent(name) {
		return notScopable
	}
	return Classification{Scopable: true, Offset: offset}
}

// BareName returns type name part of a classified token.
func BareName(token string, c Classification) string {
	if c.Offset < 0 || c.Offset > len(token) {
		return token
	}
	return token[:c.Offset]
}

// isIdent reports whether s is a plain CSS identifier (no escapes).
func isIdent(s string) bool {
	if s == "" || !utf8.ValidString(s) {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r >= utf8.RuneSelf:
		case r == '-':
			if len(s) == 1 {
				return false
			}
		case r >= '0' && r <= '9':
			if i == 0 || (i == 1 && s[0] == '-') {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// balanced reports whether brackets, parentheses and quotes of token are
// properly closed.
func balanced(token string) bool {
	var (
		depth int
		quote byte
	)
	for i := 0; i < len(token); i++ {
		c := token[i]
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
			if depth--; depth < 0 {
				return false
			}
		}
	}
	return depth == 0 && quote == 0
}
