package parser

import (
	"strings"
	"unicode"
)

type tokKind uint8

const (
	tokEOF tokKind = iota
	tokNewline
	tokIndent
	tokDedent
	tokName
	tokKeyword
	tokNumber
	tokString
	tokOp
)

type token struct {
	kind tokKind
	val  string
	line int
	col  int
}

var keywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "break": true, "class": true, "continue": true,
	"def": true, "del": true, "elif": true, "else": true, "except": true,
	"finally": true, "for": true, "from": true, "global": true, "if": true,
	"import": true, "in": true, "is": true, "lambda": true, "nonlocal": true,
	"not": true, "or": true, "pass": true, "raise": true, "return": true,
	"try": true, "while": true, "with": true, "yield": true,
}

var stringPrefixes = map[string]bool{
	"r": true, "b": true, "u": true, "f": true,
	"rb": true, "br": true, "rf": true, "fr": true,
}

// multi-char operators, longest first so maximal munch works.
var multiOps = []string{
	"**=", "//=", "<<=", ">>=", "...",
	"**", "//", "<<", ">>", "<=", ">=", "==", "!=", "->", ":=",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "@=",
}

const singleOps = "+-*/%&|^~<>()[]{},:.;=@"

type lexer struct {
	src     []rune
	pos     int
	line    int
	col     int
	parens  int
	indents []int
	toks    []token
}

// lex tokenizes the whole source up front, producing Python-style
// NEWLINE/INDENT/DEDENT structure tokens for the parser.
func lex(src string) ([]token, *SyntaxError) {
	lx := &lexer{
		src:     []rune(strings.ReplaceAll(src, "\r\n", "\n")),
		line:    1,
		col:     1,
		indents: []int{0},
	}
	if err := lx.run(); err != nil {
		return nil, err
	}
	return lx.toks, nil
}

func (lx *lexer) run() *SyntaxError {
	atLineStart := true
	for lx.pos < len(lx.src) {
		if atLineStart && lx.parens == 0 {
			blank, err := lx.handleIndent()
			if err != nil {
				return err
			}
			if blank {
				continue
			}
			atLineStart = false
			continue
		}
		c := lx.peek()
		switch {
		case c == ' ' || c == '\t':
			lx.advance()
		case c == '#':
			lx.skipComment()
		case c == '\\' && lx.peekAt(1) == '\n':
			lx.advance()
			lx.advance()
		case c == '\n':
			lx.advance()
			if lx.parens == 0 {
				lx.emit(tokNewline, "", lx.line-1, lx.col)
				atLineStart = true
			}
		case isIdentStart(c):
			if err := lx.lexNameOrString(); err != nil {
				return err
			}
		case unicode.IsDigit(c) || (c == '.' && unicode.IsDigit(lx.peekAt(1))):
			lx.lexNumber()
		case c == '\'' || c == '"':
			if err := lx.lexString(""); err != nil {
				return err
			}
		default:
			if err := lx.lexOp(); err != nil {
				return err
			}
		}
	}
	// close the final logical line and any open blocks
	if n := len(lx.toks); n > 0 && lx.toks[n-1].kind != tokNewline {
		lx.emit(tokNewline, "", lx.line, lx.col)
	}
	for len(lx.indents) > 1 {
		lx.indents = lx.indents[:len(lx.indents)-1]
		lx.emit(tokDedent, "", lx.line, 1)
	}
	lx.emit(tokEOF, "", lx.line, lx.col)
	return nil
}

// handleIndent measures leading whitespace of a new logical line and
// emits INDENT/DEDENT tokens. Blank and comment-only lines produce no
// tokens at all. Returns true if the line was blank.
func (lx *lexer) handleIndent() (bool, *SyntaxError) {
	width := 0
	for lx.pos < len(lx.src) {
		switch lx.peek() {
		case ' ':
			width++
			lx.advance()
		case '\t':
			width += 8 - width%8
			lx.advance()
		default:
			goto measured
		}
	}
measured:
	if lx.pos >= len(lx.src) {
		return true, nil
	}
	if c := lx.peek(); c == '\n' {
		lx.advance()
		return true, nil
	} else if c == '#' {
		lx.skipComment()
		return true, nil
	}

	top := lx.indents[len(lx.indents)-1]
	switch {
	case width > top:
		lx.indents = append(lx.indents, width)
		lx.emit(tokIndent, "", lx.line, 1)
	case width < top:
		for len(lx.indents) > 1 && lx.indents[len(lx.indents)-1] > width {
			lx.indents = lx.indents[:len(lx.indents)-1]
			lx.emit(tokDedent, "", lx.line, 1)
		}
		if lx.indents[len(lx.indents)-1] != width {
			return false, errAt(lx.line, 1, "unindent does not match any outer indentation level")
		}
	}
	return false, nil
}

func (lx *lexer) lexNameOrString() *SyntaxError {
	line, col := lx.line, lx.col
	start := lx.pos
	for lx.pos < len(lx.src) && isIdentCont(lx.peek()) {
		lx.advance()
	}
	word := string(lx.src[start:lx.pos])

	// string prefix (r"...", f'...', rb"...")
	if lx.pos < len(lx.src) {
		if c := lx.peek(); (c == '\'' || c == '"') && stringPrefixes[strings.ToLower(word)] {
			return lx.lexString(word)
		}
	}

	if keywords[word] {
		lx.emit(tokKeyword, word, line, col)
	} else {
		lx.emit(tokName, word, line, col)
	}
	return nil
}

func (lx *lexer) lexNumber() {
	line, col := lx.line, lx.col
	start := lx.pos
	for lx.pos < len(lx.src) {
		c := lx.peek()
		if unicode.IsDigit(c) || unicode.IsLetter(c) || c == '_' || c == '.' {
			lx.advance()
			continue
		}
		// exponent sign: 1e-5
		if (c == '+' || c == '-') && lx.pos > start {
			prev := lx.src[lx.pos-1]
			if prev == 'e' || prev == 'E' {
				lx.advance()
				continue
			}
		}
		break
	}
	lx.emit(tokNumber, string(lx.src[start:lx.pos]), line, col)
}

func (lx *lexer) lexString(prefix string) *SyntaxError {
	line, col := lx.line, lx.col
	quote := lx.peek()
	lx.advance()
	triple := false
	if lx.peekAt(0) == quote && lx.peekAt(1) == quote {
		triple = true
		lx.advance()
		lx.advance()
	}
	raw := strings.ContainsAny(strings.ToLower(prefix), "r")
	var sb strings.Builder
	for {
		if lx.pos >= len(lx.src) {
			return errAt(line, col, "unterminated string literal")
		}
		c := lx.peek()
		if c == '\n' && !triple {
			return errAt(line, col, "unterminated string literal")
		}
		if c == '\\' && !raw {
			lx.advance()
			if lx.pos >= len(lx.src) {
				return errAt(line, col, "unterminated string literal")
			}
			sb.WriteRune(lx.peek())
			lx.advance()
			continue
		}
		if c == quote {
			if !triple {
				lx.advance()
				break
			}
			if lx.peekAt(1) == quote && lx.peekAt(2) == quote {
				lx.advance()
				lx.advance()
				lx.advance()
				break
			}
		}
		sb.WriteRune(c)
		lx.advance()
	}
	lx.emit(tokString, sb.String(), line, col)
	return nil
}

func (lx *lexer) lexOp() *SyntaxError {
	line, col := lx.line, lx.col
	rest := lx.src[lx.pos:]
	for _, op := range multiOps {
		if hasRunePrefix(rest, op) {
			for range op {
				lx.advance()
			}
			lx.emit(tokOp, op, line, col)
			return nil
		}
	}
	c := lx.peek()
	if strings.ContainsRune(singleOps, c) {
		switch c {
		case '(', '[', '{':
			lx.parens++
		case ')', ']', '}':
			lx.parens--
			if lx.parens < 0 {
				return errAt(line, col, "unmatched '%c'", c)
			}
		}
		lx.advance()
		lx.emit(tokOp, string(c), line, col)
		return nil
	}
	return errAt(line, col, "unexpected character %q", c)
}

func (lx *lexer) skipComment() {
	for lx.pos < len(lx.src) && lx.peek() != '\n' {
		lx.advance()
	}
}

func (lx *lexer) peek() rune { return lx.src[lx.pos] }

func (lx *lexer) peekAt(off int) rune {
	if lx.pos+off >= len(lx.src) {
		return 0
	}
	return lx.src[lx.pos+off]
}

func (lx *lexer) advance() {
	if lx.src[lx.pos] == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
	lx.pos++
}

func (lx *lexer) emit(kind tokKind, val string, line, col int) {
	lx.toks = append(lx.toks, token{kind: kind, val: val, line: line, col: col})
}

func isIdentStart(c rune) bool {
	return c == '_' || unicode.IsLetter(c)
}

func isIdentCont(c rune) bool {
	return c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c)
}

func hasRunePrefix(rs []rune, s string) bool {
	i := 0
	for _, c := range s {
		if i >= len(rs) || rs[i] != c {
			return false
		}
		i++
	}
	return true
}
