// Package lang implements the expression language's lexer and a
// Pratt/precedence-climbing parser producing pkg/ast nodes (spec.md §4.2).
package lang

import (
	"strconv"

	"github.com/pama-lee/ordo/pkg/ast"
	"github.com/pama-lee/ordo/pkg/value"
)

// Parser turns a token stream into an ast.Expr.
type Parser struct {
	tokens []Token
	pos    int
}

// Parse lexes and parses a single expression from source.
func Parse(source string) (ast.Expr, error) {
	toks, err := NewLexer(source).Tokenize()
	if err != nil {
		return nil, err
	}
	p := &Parser{tokens: toks}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.isAtEnd() {
		tok := p.current()
		return nil, &SyntaxError{Line: tok.Line, Column: tok.Column, Message: "unexpected trailing input"}
	}
	return expr, nil
}

func (p *Parser) current() Token { return p.tokens[p.pos] }

func (p *Parser) isAtEnd() bool { return p.current().Type == EOF }

func (p *Parser) advance() Token {
	tok := p.current()
	if !p.isAtEnd() {
		p.pos++
	}
	return tok
}

func (p *Parser) check(t TokenType) bool { return p.current().Type == t }

func (p *Parser) match(types ...TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) expect(t TokenType) (Token, error) {
	if p.check(t) {
		return p.advance(), nil
	}
	tok := p.current()
	return Token{}, &SyntaxError{Line: tok.Line, Column: tok.Column, Message: "expected " + t.String() + ", got " + tok.Type.String()}
}

func pos(tok Token) ast.Position { return ast.Position{Line: tok.Line, Column: tok.Column} }

// parseExpr parses a full expression, the lowest-precedence form being the
// ternary `if cond then a else b`.
func (p *Parser) parseExpr() (ast.Expr, error) {
	if p.check(IF) {
		return p.parseIf()
	}
	return p.parseBinary(0)
}

func (p *Parser) parseIf() (ast.Expr, error) {
	ifTok := p.advance() // consume 'if'

	cond, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(THEN); err != nil {
		return nil, err
	}
	thenExpr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(ELSE); err != nil {
		return nil, err
	}
	// Right-associative: the else branch recurses through parseExpr so
	// `if a then b else if c then d else e` nests as expected.
	elseExpr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return &ast.If{Cond: cond, Then: thenExpr, Else: elseExpr, P: pos(ifTok)}, nil
}

// precedence returns the binding power of the current token as a binary
// operator, or -1 if it is not one. Low to high: || , && , equality,
// relational, additive, multiplicative.
func (p *Parser) precedence() (ast.BinOp, int) {
	switch p.current().Type {
	case OR:
		return ast.Or, 1
	case AND:
		return ast.And, 2
	case EQ_EQ:
		return ast.Eq, 3
	case NOT_EQ:
		return ast.Ne, 3
	case LESS:
		return ast.Lt, 4
	case LESS_EQ:
		return ast.Le, 4
	case GREATER:
		return ast.Gt, 4
	case GREATER_EQ:
		return ast.Ge, 4
	case PLUS:
		return ast.Add, 5
	case MINUS:
		return ast.Sub, 5
	case STAR:
		return ast.Mul, 6
	case SLASH:
		return ast.Div, 6
	case PERCENT:
		return ast.Mod, 6
	default:
		return ast.BinOp(-1), -1
	}
}

func (p *Parser) parseBinary(minPrec int) (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		op, prec := p.precedence()
		if prec < minPrec {
			break
		}
		opTok := p.advance()

		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}

		left = &ast.Binary{Op: op, Left: left, Right: right, P: pos(opTok)}
	}

	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.check(BANG) {
		tok := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: ast.Not, Operand: operand, P: pos(tok)}, nil
	}
	if p.check(MINUS) {
		tok := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: ast.Neg, Operand: operand, P: pos(tok)}, nil
	}
	return p.parsePostfix()
}

// parsePostfix handles field access (`.name`), indexing (`[expr]`), and
// call argument lists chained onto a primary expression.
func (p *Parser) parsePostfix() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case p.check(DOT):
			dotTok := p.advance()
			nameTok, err := p.expect(IDENT)
			if err != nil {
				return nil, err
			}
			fp, ok := expr.(*ast.FieldPath)
			if ok {
				fp.Segments = append(fp.Segments, nameTok.Literal)
				expr = fp
			} else {
				expr = &ast.Index{Target: expr, Index: &ast.Literal{Value: value.String(nameTok.Literal), P: pos(nameTok)}, P: pos(dotTok)}
			}
		case p.check(LBRACKET):
			brTok := p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RBRACKET); err != nil {
				return nil, err
			}
			expr = &ast.Index{Target: expr, Index: idx, P: pos(brTok)}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.current()

	switch tok.Type {
	case INTEGER:
		p.advance()
		n, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			return nil, &SyntaxError{Line: tok.Line, Column: tok.Column, Message: "invalid integer literal " + tok.Literal}
		}
		return &ast.Literal{Value: value.Int(n), P: pos(tok)}, nil
	case FLOAT:
		p.advance()
		f, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			return nil, &SyntaxError{Line: tok.Line, Column: tok.Column, Message: "invalid float literal " + tok.Literal}
		}
		return &ast.Literal{Value: value.Float(f), P: pos(tok)}, nil
	case STRING:
		p.advance()
		return &ast.Literal{Value: value.String(tok.Literal), P: pos(tok)}, nil
	case TRUE:
		p.advance()
		return &ast.Literal{Value: value.Bool(true), P: pos(tok)}, nil
	case FALSE:
		p.advance()
		return &ast.Literal{Value: value.Bool(false), P: pos(tok)}, nil
	case NULL:
		p.advance()
		return &ast.Literal{Value: value.Null(), P: pos(tok)}, nil
	case LPAREN:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return inner, nil
	case LBRACKET:
		return p.parseArrayLiteral()
	case IDENT:
		return p.parseIdentOrCall()
	default:
		return nil, &SyntaxError{Line: tok.Line, Column: tok.Column, Message: "unexpected token " + tok.Type.String()}
	}
}

func (p *Parser) parseArrayLiteral() (ast.Expr, error) {
	brTok := p.advance() // consume '['
	var items []ast.Expr
	if !p.check(RBRACKET) {
		for {
			item, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			items = append(items, item)
			if !p.match(COMMA) {
				break
			}
		}
	}
	if _, err := p.expect(RBRACKET); err != nil {
		return nil, err
	}
	return &ast.ArrayLiteral{Elements: items, P: pos(brTok)}, nil
}

func (p *Parser) parseIdentOrCall() (ast.Expr, error) {
	nameTok := p.advance()

	if p.check(LPAREN) {
		p.advance() // consume '('
		var args []ast.Expr
		if !p.check(RPAREN) {
			for {
				arg, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if !p.match(COMMA) {
					break
				}
			}
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		if nameTok.Literal == "coalesce" {
			return &ast.Coalesce{Args: args, P: pos(nameTok)}, nil
		}
		return &ast.Call{Name: nameTok.Literal, Args: args, P: pos(nameTok)}, nil
	}

	return &ast.FieldPath{Segments: []string{nameTok.Literal}, P: pos(nameTok)}, nil
}
