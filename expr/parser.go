// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package expr

import "strings"

// Parse tokenizes and parses src into an expression tree.
//
// Precedence, lowest first:
//
//	comparison     > < >= <= == !=
//	additive       + -
//	multiplicative * / %
//	unary          -
//	primary        number | $name | ${name} | PI | E | fn(args) | ( expr )
//
// A source wrapped whole in ${ ... } is unwrapped first.
func Parse(src string) (Node, error) {
	body, offset := unwrap(src)
	tokens, err := Tokenize(body)
	if err != nil {
		return nil, rebase(err, src, offset)
	}

	p := &parser{src: body, tokens: tokens}
	node, err := p.comparison()
	if err != nil {
		return nil, rebase(err, src, offset)
	}
	if tok := p.peek(); tok.Type != TokenEOF {
		return nil, rebase(newError(ErrSyntax, body, tok.Position, "unexpected %s after expression", tok.Type), src, offset)
	}
	return node, nil
}

// unwrap strips an outer ${ ... } when its closing brace ends the source.
// The returned offset maps positions in the body back to src.
func unwrap(src string) (string, int) {
	trimmed := strings.TrimSpace(src)
	lead := strings.Index(src, trimmed)
	if !strings.HasPrefix(trimmed, "${") || !strings.HasSuffix(trimmed, "}") {
		return src, 0
	}

	depth := 0
	for i := 1; i < len(trimmed); i++ {
		switch trimmed[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 && i != len(trimmed)-1 {
				return src, 0
			}
		}
	}
	body := trimmed[2 : len(trimmed)-1]
	// ${name} is a parameter reference, not a wrapper.
	if depth != 0 || (body != "" && scanIdent(body, 0) == len(body) && isIdentStart(body[0])) {
		return src, 0
	}
	return body, lead + 2
}

// rebase rewrites positions of errors raised against an unwrapped body so
// they point into the original source.
func rebase(err error, src string, offset int) error {
	e, ok := err.(*Error)
	if !ok {
		return err
	}
	e.Source = src
	if e.Position >= 0 {
		e.Position += offset
	}
	return e
}

type parser struct {
	src    string
	tokens []Token
	pos    int
}

func (p *parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *parser) next() Token {
	tok := p.tokens[p.pos]
	if tok.Type != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) expect(typ TokenType) (Token, error) {
	tok := p.next()
	if tok.Type != typ {
		return tok, newError(ErrSyntax, p.src, tok.Position, "expected %s, found %s", typ, tok.Type)
	}
	return tok, nil
}

func (p *parser) comparison() (Node, error) {
	left, err := p.additive()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		switch tok.Type {
		case TokenGt, TokenLt, TokenGe, TokenLe, TokenEq, TokenNe:
			p.next()
			right, err := p.additive()
			if err != nil {
				return nil, err
			}
			left = &BinaryNode{Op: tok.Type, Left: left, Right: right, Pos: tok.Position}
		default:
			return left, nil
		}
	}
}

func (p *parser) additive() (Node, error) {
	left, err := p.multiplicative()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.Type != TokenPlus && tok.Type != TokenMinus {
			return left, nil
		}
		p.next()
		right, err := p.multiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: tok.Type, Left: left, Right: right, Pos: tok.Position}
	}
}

func (p *parser) multiplicative() (Node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.Type != TokenStar && tok.Type != TokenSlash && tok.Type != TokenPercent {
			return left, nil
		}
		p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: tok.Type, Left: left, Right: right, Pos: tok.Position}
	}
}

func (p *parser) unary() (Node, error) {
	if tok := p.peek(); tok.Type == TokenMinus {
		p.next()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &UnaryNode{Operand: operand, Pos: tok.Position}, nil
	}
	return p.primary()
}

func (p *parser) primary() (Node, error) {
	tok := p.next()
	switch tok.Type {
	case TokenNumber:
		return &NumberNode{Value: tok.Number, Pos: tok.Position}, nil
	case TokenParameter:
		return &ParameterNode{Name: tok.Text, Pos: tok.Position}, nil
	case TokenIdentifier:
		if p.peek().Type == TokenLParen {
			return p.call(tok)
		}
		v, ok := constants[tok.Text]
		if !ok {
			return nil, newError(ErrUnknownConstant, p.src, tok.Position, "identifier %q is not a known constant", tok.Text)
		}
		return &NumberNode{Value: v, Pos: tok.Position}, nil
	case TokenLParen:
		inner, err := p.comparison()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return inner, nil
	default:
		return nil, newError(ErrSyntax, p.src, tok.Position, "unexpected %s", tok.Type)
	}
}

func (p *parser) call(name Token) (Node, error) {
	fn, ok := builtins[name.Text]
	if !ok {
		return nil, newError(ErrUnknownFunction, p.src, name.Position, "function %q is not defined", name.Text)
	}
	p.next() // (

	var args []Node
	if p.peek().Type != TokenRParen {
		for {
			arg, err := p.comparison()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().Type != TokenComma {
				break
			}
			p.next()
		}
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}

	if len(args) != fn.arity {
		return nil, newError(ErrArity, p.src, name.Position, "%s expects %d argument(s), got %d", name.Text, fn.arity, len(args))
	}
	return &CallNode{Name: name.Text, Args: args, Pos: name.Position}, nil
}
