// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package expr

import (
	"fmt"
	"strconv"
)

// TokenType identifies the lexical class of a Token.
type TokenType int

// Token types produced by Tokenize.
const (
	TokenEOF TokenType = iota
	TokenNumber
	TokenParameter
	TokenIdentifier
	TokenLParen
	TokenRParen
	TokenComma
	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenPercent
	TokenGt
	TokenLt
	TokenGe
	TokenLe
	TokenEq
	TokenNe
)

var tokenNames = map[TokenType]string{
	TokenEOF:        "end of input",
	TokenNumber:     "number",
	TokenParameter:  "parameter",
	TokenIdentifier: "identifier",
	TokenLParen:     "'('",
	TokenRParen:     "')'",
	TokenComma:      "','",
	TokenPlus:       "'+'",
	TokenMinus:      "'-'",
	TokenStar:       "'*'",
	TokenSlash:      "'/'",
	TokenPercent:    "'%'",
	TokenGt:         "'>'",
	TokenLt:         "'<'",
	TokenGe:         "'>='",
	TokenLe:         "'<='",
	TokenEq:         "'=='",
	TokenNe:         "'!='",
}

// String returns a readable name for the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// Token is a single lexical element of an expression.
type Token struct {
	Type TokenType
	// Text is the raw text for identifiers and numbers, and the bare name
	// (without $ or braces) for parameters.
	Text     string
	Number   float64
	Position int
}

func (t Token) String() string {
	return fmt.Sprintf("Token(%s, %q)", t.Type, t.Text)
}

// Tokenize splits src into tokens. The returned slice always ends with a
// TokenEOF token.
func Tokenize(src string) ([]Token, error) {
	lx := &lexer{src: src}
	return lx.run()
}

type lexer struct {
	src    string
	pos    int
	tokens []Token
}

func (l *lexer) run() ([]Token, error) {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.pos++
		case isDigit(c) || (c == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1])):
			if err := l.number(); err != nil {
				return nil, err
			}
		case c == '$':
			if err := l.parameter(); err != nil {
				return nil, err
			}
		case isIdentStart(c):
			start := l.pos
			l.pos = scanIdent(l.src, l.pos)
			l.emit(TokenIdentifier, l.src[start:l.pos], start)
		default:
			if err := l.operator(c); err != nil {
				return nil, err
			}
		}
	}
	l.emit(TokenEOF, "", len(l.src))
	return l.tokens, nil
}

func (l *lexer) emit(typ TokenType, text string, pos int) {
	l.tokens = append(l.tokens, Token{Type: typ, Text: text, Position: pos})
}

func (l *lexer) number() error {
	start := l.pos
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.src) && l.src[l.pos] == '.' {
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		l.pos++
		if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
			l.pos++
		}
		digits := l.pos
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
		if digits == l.pos {
			return newError(ErrSyntax, l.src, start, "malformed exponent in %q", l.src[start:l.pos])
		}
	}
	// 1.2.3 or 12abc
	if l.pos < len(l.src) && (l.src[l.pos] == '.' || isIdentStart(l.src[l.pos])) {
		return newError(ErrSyntax, l.src, start, "malformed number starting with %q", l.src[start:l.pos+1])
	}

	text := l.src[start:l.pos]
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return newError(ErrSyntax, l.src, start, "invalid number %q", text)
	}
	l.tokens = append(l.tokens, Token{Type: TokenNumber, Text: text, Number: v, Position: start})
	return nil
}

// parameter scans $name or ${name}.
func (l *lexer) parameter() error {
	start := l.pos
	l.pos++ // $
	braced := l.pos < len(l.src) && l.src[l.pos] == '{'
	if braced {
		l.pos++
	}
	if l.pos >= len(l.src) || !isIdentStart(l.src[l.pos]) {
		return newError(ErrSyntax, l.src, start, "expected parameter name after '$'")
	}
	nameStart := l.pos
	l.pos = scanIdent(l.src, l.pos)
	name := l.src[nameStart:l.pos]
	if braced {
		if l.pos >= len(l.src) || l.src[l.pos] != '}' {
			return newError(ErrSyntax, l.src, start, "unterminated parameter reference ${%s", name)
		}
		l.pos++
	}
	l.emit(TokenParameter, name, start)
	return nil
}

var singleCharTokens = map[byte]TokenType{
	'(': TokenLParen,
	')': TokenRParen,
	',': TokenComma,
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenStar,
	'/': TokenSlash,
	'%': TokenPercent,
}

func (l *lexer) operator(c byte) error {
	start := l.pos
	next := byte(0)
	if l.pos+1 < len(l.src) {
		next = l.src[l.pos+1]
	}

	if typ, ok := singleCharTokens[c]; ok {
		l.pos++
		l.emit(typ, string(c), start)
		return nil
	}

	switch {
	case c == '>' && next == '=':
		l.pos += 2
		l.emit(TokenGe, ">=", start)
	case c == '<' && next == '=':
		l.pos += 2
		l.emit(TokenLe, "<=", start)
	case c == '=' && next == '=':
		l.pos += 2
		l.emit(TokenEq, "==", start)
	case c == '!' && next == '=':
		l.pos += 2
		l.emit(TokenNe, "!=", start)
	case c == '>':
		l.pos++
		l.emit(TokenGt, ">", start)
	case c == '<':
		l.pos++
		l.emit(TokenLt, "<", start)
	default:
		return newError(ErrSyntax, l.src, start, "unexpected character %q", c)
	}
	return nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func scanIdent(src string, pos int) int {
	for pos < len(src) && (isIdentStart(src[pos]) || isDigit(src[pos])) {
		pos++
	}
	return pos
}
