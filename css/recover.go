package css

import (
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// DefaultRepairAttempts is number of excise-and-retry rounds ParseRecover
// makes when caller does not specify any.
const DefaultRepairAttempts = 3

// ParseRecover parses text strictly, and on a grammar error cuts the rule
// enclosing the error position out of the text and tries again. At most
// attempts rounds are made, after that whatever text remains is parsed
// leniently. Returned error carries residual (non-fatal) grammar errors, the
// stylesheet is always usable.
func (p *Parser) ParseRecover(text string, attempts int) (*Stylesheet, error) {
	if attempts < 0 {
		attempts = DefaultRepairAttempts
	}

	for i := range attempts {
		sheet, err := p.ParseStrict(text)
		if err == nil {
			return sheet, nil
		}

		var perr *ParseError
		if !errors.As(err, &perr) {
			break
		}

		repaired, ok := exciseRule(text, perr)
		if !ok {
			p.log.Debug("Unable to locate malformed CSS rule", zap.Int("attempt", i+1), zap.Error(perr))
			break
		}
		p.log.Debug("Removed malformed CSS rule",
			zap.Int("attempt", i+1),
			zap.Int("removed", len(text)-len(repaired)),
			zap.Error(perr))
		text = repaired
	}
	return p.Parse(text)
}

// exciseRule removes the whole rule (prelude and block) the error offset
// falls into. A stray closing brace at top level is removed alone.
func exciseRule(text string, perr *ParseError) (string, bool) {
	offset := perr.Offset
	if offset < 0 || offset > len(text) {
		return text, false
	}
	code := codeMask(text)

	// some errors are reported right after the offending brace
	if offset > 0 && code[offset-1] && text[offset-1] == '}' {
		offset--
		if depthAt(text, code, offset) == 0 {
			return spliceString(text, offset, "", 1), true
		}
	}

	end := closingBrace(text, code, offset)
	if end < 0 {
		return text, false
	}

	left := unmatchedBrace(text, code, offset)
	if left < 0 {
		// error outside of any block, cut back to the previous rule boundary
		left = offset
	}
	start := ruleStart(text, code, left)

	return spliceString(text, start, "", end+1-start), true
}

// errorOffset turns 1-based line and column (in runes) into byte offset in
// text. Lines are broken on \n, \r, \r\n, U+2028 and U+2029, the way parser
// positions are reported. Returns -1 when text has fewer lines.
func errorOffset(text string, line, col int) int {
	if line < 1 || col < 1 {
		return -1
	}
	offset := 0
	for n := 1; n < line; n++ {
		if offset = nextLine(text, offset); offset < 0 {
			return -1
		}
	}
	for ; col > 1 && offset < len(text); col-- {
		_, size := utf8.DecodeRuneInString(text[offset:])
		offset += size
	}
	return offset
}

// nextLine returns offset of the line following the one at from, or -1.
func nextLine(text string, from int) int {
	for i := from; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		switch r {
		case '\n', '\u2028', '\u2029':
			return i + size
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				return i + 2
			}
			return i + 1
		}
		i += size
	}
	return -1
}

// codeMask marks bytes which are outside of strings and comments. Only those
// may be structural braces.
func codeMask(text string) []bool {
	code := make([]bool, len(text))
	var quote byte
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote || c == '\n' {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '/' && i+1 < len(text) && text[i+1] == '*':
			end := strings.Index(text[i+2:], "*/")
			if end < 0 {
				return code
			}
			i += end + 3
		default:
			code[i] = true
		}
	}
	return code
}

// depthAt returns block nesting depth right before pos.
func depthAt(text string, code []bool, pos int) int {
	depth := 0
	for i := range pos {
		if !code[i] {
			continue
		}
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
		}
	}
	return depth
}

// closingBrace returns position of the first '}' at or after pos.
func closingBrace(text string, code []bool, pos int) int {
	for i := pos; i < len(text); i++ {
		if code[i] && text[i] == '}' {
			return i
		}
	}
	return -1
}

// unmatchedBrace scans left from offset for an opening brace which has not
// been closed before offset. Returns -1 when offset is at top level.
func unmatchedBrace(text string, code []bool, offset int) int {
	depth := 0
	for i := offset - 1; i >= 0; i-- {
		if !code[i] {
			continue
		}
		switch text[i] {
		case '}':
			depth++
		case '{':
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return -1
}

// ruleStart returns the position right after the previous rule boundary
// ('}', '{' or ';') preceding pos, so the rule prelude is removed together
// with its block.
func ruleStart(text string, code []bool, pos int) int {
	for i := pos - 1; i >= 0; i-- {
		if !code[i] {
			continue
		}
		switch text[i] {
		case '}', '{', ';':
			return i + 1
		}
	}
	return 0
}

// spliceString returns s with remove bytes starting at offset replaced by
// insert. Offset and count are clamped to the string bounds.
func spliceString(s string, offset int, insert string, remove int) string {
	offset = max(0, min(offset, len(s)))
	remove = max(0, min(remove, len(s)-offset))

	var sb strings.Builder
	sb.Grow(len(s) - remove + len(insert))
	sb.WriteString(s[:offset])
	sb.WriteString(insert)
	sb.WriteString(s[offset+remove:])
	return sb.String()
}
