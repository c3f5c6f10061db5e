package css

import (
	"bytes"
	"errors"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Parser parses style block text into a Stylesheet.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text in lenient mode: every grammar error is collected
// and parsing continues with the next construct. Returned error (if any)
// combines all collected errors, stylesheet is always usable.
func (p *Parser) Parse(text string) (*Stylesheet, error) {
	return p.parse(text, false)
}

// ParseStrict stops at the first grammar error and returns it as *ParseError
// together with whatever was parsed before it.
func (p *Parser) ParseStrict(text string) (*Stylesheet, error) {
	return p.parse(text, true)
}

func (p *Parser) parse(text string, strict bool) (*Stylesheet, error) {
	var (
		b     = newBuilder()
		errs  error
		nerrs int
	)

	parser := css.NewParser(parse.NewInputString(text), false)
	for {
		before := parser.Offset()
		gt, _, data := parser.Next()
		if gt == css.BeginRulesetGrammar && b.skip == 0 && b.style != nil && declarationLike(parser.Values()) {
			// unterminated declaration value ran into the next rule
			perr := blockError(text, before, parser.Values())
			if strict {
				return b.finish(), perr
			}
			p.log.Debug("CSS declaration swallowed a block, skipping it", zap.Error(perr))
			errs = multierr.Append(errs, perr)
			b.skip = 1
			continue
		}
		if gt == css.ErrorGrammar {
			if parser.HasParseError() {
				perr := newParseError(parser, data, text)
				if strict {
					return b.finish(), perr
				}
				p.log.Debug("CSS grammar error, continuing", zap.Error(perr))
				errs = multierr.Append(errs, perr)
				// every error consumes input, this only guards against a stuck tokenizer
				if nerrs++; nerrs > len(text) {
					break
				}
				continue
			}
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				errs = multierr.Append(errs, err)
			}
			break
		}
		b.grammar(gt, data, parser.Values())
	}

	sheet := b.finish()
	if b.unclosed > 0 {
		p.log.Debug("CSS ended inside open blocks", zap.Int("blocks", b.unclosed))
	}
	return sheet, errs
}

func newParseError(parser *css.Parser, data []byte, text string) *ParseError {
	perr := &ParseError{Message: "parse error", Offset: -1}

	err := parser.Err()
	var pe *parse.Error
	if errors.As(err, &pe) {
		perr.Message = pe.Message
		perr.Line, perr.Column = pe.Line, pe.Column
		perr.Offset = errorOffset(text, pe.Line, pe.Column)
	} else if err != nil {
		perr.Message = err.Error()
	}

	perr.Fragment = rawText(parser.Values())
	if strings.TrimSpace(perr.Fragment) == "" {
		perr.Fragment = string(data)
	}
	return perr
}

// blockError reports rule which opened inside of a declaration. Position is
// the first non-space byte after the previous grammar event, where the broken
// declaration starts.
func blockError(text string, offset int, tokens []css.Token) *ParseError {
	for offset < len(text) && isSpace(text[offset]) {
		offset++
	}
	line, col, _ := parse.Position(strings.NewReader(text), offset)
	return &ParseError{
		Message:  "unexpected block in declaration",
		Line:     line,
		Column:   col,
		Offset:   offset,
		Fragment: rawText(tokens),
	}
}

// declarationLike reports whether nested rule prelude is a declaration with
// unterminated value. Selectors never contain braces and do not look like
// "name: value".
func declarationLike(tokens []css.Token) bool {
	for _, t := range tokens {
		if t.TokenType == css.LeftBraceToken || t.TokenType == css.RightBraceToken {
			return true
		}
	}
	i := skipWhitespace(tokens, 0)
	if i >= len(tokens) || tokens[i].TokenType != css.IdentToken {
		return false
	}
	i = skipWhitespace(tokens, i+1)
	return i+1 < len(tokens) && tokens[i].TokenType == css.ColonToken && tokens[i+1].TokenType == css.WhitespaceToken
}

func skipWhitespace(tokens []css.Token, i int) int {
	for i < len(tokens) && tokens[i].TokenType == css.WhitespaceToken {
		i++
	}
	return i
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

// frame is an open at-rule block.
type frame struct {
	name      string
	prelude   string
	keyframes bool
	rules     []Item
	decls     []Declaration
	raw       strings.Builder // body of at-rules parser does not know
}

// builder assembles grammar events into Stylesheet. It keeps a stack of open
// blocks, so grammar errors in the middle of a block do not desynchronize it.
type builder struct {
	top      []Item
	stack    []*frame
	style    *StyleRule
	pending  []string
	unclosed int
	skip     int // depth of the block being dropped
}

func newBuilder() *builder {
	return &builder{top: make([]Item, 0)}
}

func (b *builder) current() *frame {
	if len(b.stack) == 0 {
		return nil
	}
	return b.stack[len(b.stack)-1]
}

func (b *builder) add(item Item) {
	if f := b.current(); f != nil {
		f.rules = append(f.rules, item)
		return
	}
	b.top = append(b.top, item)
}

func (b *builder) grammar(gt css.GrammarType, data []byte, values []css.Token) {
	if b.skip > 0 {
		switch gt {
		case css.BeginRulesetGrammar, css.BeginAtRuleGrammar:
			b.skip++
		case css.EndRulesetGrammar, css.EndAtRuleGrammar:
			b.skip--
		}
		return
	}

	switch gt {
	case css.AtRuleGrammar:
		text := string(data)
		if prelude := valueText(values); prelude != "" {
			text += " " + prelude
		}
		b.add(Item{Other: &OtherRule{Text: text + ";"}})

	case css.BeginAtRuleGrammar:
		name := strings.ToLower(string(data))
		b.stack = append(b.stack, &frame{
			name:      name,
			prelude:   valueText(values),
			keyframes: strings.HasSuffix(name, "keyframes"),
		})

	case css.EndAtRuleGrammar:
		b.closeStyle()
		b.closeFrame()

	case css.QualifiedRuleGrammar:
		b.pending = append(b.pending, selectorText(values))

	case css.BeginRulesetGrammar:
		b.closeStyle()
		parts := append(b.pending, selectorText(values))
		b.pending = nil
		b.style = &StyleRule{Selectors: SplitSelectorList(strings.Join(parts, ","))}

	case css.DeclarationGrammar, css.CustomPropertyGrammar:
		decl := Declaration{Property: string(data), Value: valueText(values)}
		if b.style != nil {
			b.style.Declarations = append(b.style.Declarations, decl)
		} else if f := b.current(); f != nil {
			f.decls = append(f.decls, decl)
		}

	case css.EndRulesetGrammar:
		b.closeStyle()

	case css.TokenGrammar:
		if f := b.current(); f != nil && b.style == nil {
			if len(bytes.TrimSpace(data)) == 0 {
				data = []byte{' '}
			}
			f.raw.Write(data)
		}
	}
}

func (b *builder) closeStyle() {
	if b.style == nil {
		return
	}
	style := b.style
	b.style = nil
	if f := b.current(); f != nil && f.keyframes {
		// keyframe selectors (from, to, 50%) are not element selectors
		b.add(Item{Other: &OtherRule{Text: style.String()}})
		return
	}
	b.add(Item{Style: style})
}

func (b *builder) closeFrame() {
	f := b.current()
	if f == nil {
		return
	}
	b.stack = b.stack[:len(b.stack)-1]

	if len(f.rules) == 0 && (len(f.decls) > 0 || f.raw.Len() > 0) {
		var sb strings.Builder
		sb.WriteString(f.name)
		if f.prelude != "" {
			sb.WriteByte(' ')
			sb.WriteString(f.prelude)
		}
		sb.WriteByte('{')
		if len(f.decls) > 0 {
			writeDeclarations(&sb, f.decls)
		} else {
			sb.WriteString(strings.TrimSpace(f.raw.String()))
		}
		sb.WriteByte('}')
		b.add(Item{Other: &OtherRule{Text: sb.String()}})
		return
	}
	b.add(Item{Group: &GroupRule{Name: f.name, Prelude: f.prelude, Rules: f.rules}})
}

// finish closes whatever is still open (input ended inside a block) and
// returns the result.
func (b *builder) finish() *Stylesheet {
	if b.style != nil {
		b.unclosed++
	}
	b.closeStyle()
	for len(b.stack) > 0 {
		b.unclosed++
		b.closeFrame()
	}
	return &Stylesheet{Items: b.top}
}

func isCombinator(s string) bool {
	return s == ">" || s == "+" || s == "~"
}

// selectorText renders selector tokens. Whitespace outside of brackets and
// parentheses is collapsed to a single space and combinators get surrounded by
// spaces, so "div>span" and "div  >  span" both become "div > span".
func selectorText(tokens []css.Token) string {
	var (
		sb    strings.Builder
		depth int
		space bool
	)
	for _, t := range tokens {
		if depth == 0 {
			switch {
			case t.TokenType == css.WhitespaceToken:
				space = true
				continue
			case t.TokenType == css.DelimToken && isCombinator(string(t.Data)):
				sb.WriteByte(' ')
				sb.Write(t.Data)
				space = true
				continue
			case t.TokenType == css.CommaToken:
				sb.WriteByte(',')
				space = false
				continue
			}
		}
		if space && sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		space = false
		switch t.TokenType {
		case css.LeftBracketToken, css.LeftParenthesisToken, css.FunctionToken:
			depth++
		case css.RightBracketToken, css.RightParenthesisToken:
			if depth > 0 {
				depth--
			}
		}
		sb.Write(t.Data)
	}
	return strings.TrimSpace(sb.String())
}

// valueText renders declaration value or at-rule prelude with whitespace
// collapsed.
func valueText(tokens []css.Token) string {
	var (
		sb    strings.Builder
		space bool
	)
	for _, t := range tokens {
		switch t.TokenType {
		case css.WhitespaceToken:
			space = true
			continue
		case css.SemicolonToken:
			continue
		}
		if space && sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		space = false
		sb.Write(t.Data)
	}
	return sb.String()
}

func rawText(tokens []css.Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.Write(t.Data)
	}
	return sb.String()
}

// SplitSelectorList splits selector list on commas which are not inside
// brackets, parentheses or quotes. Empty entries are dropped.
func SplitSelectorList(s string) []string {
	var (
		out   []string
		depth int
		quote rune
		start int
	)
	flush := func(end int) {
		if part := strings.TrimSpace(s[start:end]); part != "" {
			out = append(out, part)
		}
	}
	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '[' || r == '(':
			depth++
		case r == ']' || r == ')':
			if depth > 0 {
				depth--
			}
		case r == ',' && depth == 0:
			flush(i)
			start = i + 1
		}
	}
	flush(len(s))
	return out
}
