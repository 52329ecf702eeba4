package kaleido

import (
	"fmt"
	"io"
)

// ParseError is returned for every syntax error. Pos is the rune offset of
// the offending token.
type ParseError struct {
	Msg string
	Pos int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d: %s", e.Pos, e.Msg)
}

// Parser is a recursive descent parser with a single token of lookahead.
// Binary expressions are parsed by precedence climbing over ops.
type Parser struct {
	tokenizer Tokenizer
	ops       *OperatorTable
	buf       *Token
}

func NewParser(tokenizer Tokenizer, ops *OperatorTable) *Parser {
	if ops == nil {
		ops = DefaultOperatorTable()
	}

	return &Parser{
		tokenizer: tokenizer,
		ops:       ops,
	}
}

// ParseLine parses every top-level item of a single line.
func ParseLine(line string, ops *OperatorTable) (*AST, error) {
	return NewParser(NewLexerFromString(line), ops).Run()
}

// Run parses top-level items until the end of input or the first error.
func (p *Parser) Run() (*AST, error) {
	ast := &AST{}

	for {
		expr, err := p.Next()
		if err == io.EOF {
			return ast, nil
		}

		if err != nil {
			return nil, err
		}

		ast.Statements = append(ast.Statements, expr)
	}
}

// Next parses the next top-level item: a function definition, an extern or
// a bare expression. Semicolons between items are skipped. It returns io.EOF
// once the input is exhausted.
func (p *Parser) Next() (Expr, error) {
	for {
		switch tok := p.peek(); {
		case tok.Typ == TokenEOF:
			return nil, io.EOF
		case tok.isOp(';'):
			p.next() // Skip
		case tok.Typ == TokenDef:
			return p.ParseFunction()
		case tok.Typ == TokenExtern:
			return p.ParseExtern()
		default:
			return p.ParseTopLevelExpr()
		}
	}
}

func (p *Parser) peek() Token {
	if p.buf == nil {
		temp := p.tokenizer.Get()
		p.buf = &temp
	}

	return *p.buf
}

func (p *Parser) next() Token {
	if p.buf != nil {
		if !p.buf.isValid() {
			// EOF and errors stay buffered since no more valid tokens are expected
			return *p.buf
		}

		temp := p.buf
		p.buf = nil

		return *temp
	}

	tok := p.tokenizer.Get()
	if !tok.isValid() {
		p.buf = &tok
	}

	return tok
}

func (p *Parser) errorf(tok Token, format string, args ...interface{}) error {
	return &ParseError{
		Msg: fmt.Sprintf(format, args...),
		Pos: tok.Pos,
	}
}

// ParseFunction parses 'def' prototype expression.
func (p *Parser) ParseFunction() (Expr, error) {
	p.next() // def keyword

	proto, err := p.prototype()
	if err != nil {
		return nil, err
	}

	body, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}

	return &FuncDecl{
		Proto: proto,
		Body:  body,
	}, nil
}

// ParseExtern parses 'extern' prototype.
func (p *Parser) ParseExtern() (Expr, error) {
	p.next() // extern keyword

	proto, err := p.prototype()
	if err != nil {
		return nil, err
	}

	return proto, nil
}

// ParseTopLevelExpr wraps a bare expression into an anonymous function.
func (p *Parser) ParseTopLevelExpr() (Expr, error) {
	body, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}

	return &FuncDecl{
		Proto: &Prototype{Name: ""},
		Body:  body,
	}, nil
}

// prototype parses 'name(arg1 arg2 ...)'. Parameters are not comma separated.
func (p *Parser) prototype() (*Prototype, error) {
	name := p.next()
	if name.Typ == TokenError {
		return nil, p.errorf(name, "%s", name.Value)
	}

	if name.Typ != TokenIdentifier {
		return nil, p.errorf(name, "Expected function name in prototype")
	}

	if tok := p.next(); !tok.isOp('(') {
		return nil, p.errorf(tok, "Expected '(' in prototype")
	}

	var args []string
	for {
		tok := p.next()
		if tok.Typ == TokenIdentifier {
			args = append(args, tok.Value)
			continue
		}

		if tok.Typ == TokenError {
			return nil, p.errorf(tok, "%s", tok.Value)
		}

		if !tok.isOp(')') {
			return nil, p.errorf(tok, "Expected ')' in prototype")
		}

		break
	}

	return &Prototype{
		Name: name.Value,
		Args: args,
	}, nil
}

// ParseExpr parses a primary expression followed by any binary operators.
func (p *Parser) ParseExpr() (Expr, error) {
	lhs, err := p.primary()
	if err != nil {
		return nil, err
	}

	return p.binaryExpr(lhs, p.ops.Lowest())
}

// binaryExpr folds '<op> <primary>' pairs into lhs as long as the operators
// bind at least as tightly as minPrec.
func (p *Parser) binaryExpr(lhs Expr, minPrec int) (Expr, error) {
	for {
		op := p.peek()
		prec, ok := p.ops.tokenPrecedence(op)
		if !ok || prec < minPrec {
			return lhs, nil
		}

		p.next() // Operator

		rhs, err := p.primary()
		if err != nil {
			return nil, err
		}

		// A tighter operator after rhs takes rhs as its left operand
		if nextPrec, ok := p.ops.tokenPrecedence(p.peek()); ok && nextPrec > prec {
			rhs, err = p.binaryExpr(rhs, prec+1)
			if err != nil {
				return nil, err
			}
		}

		lhs = &BinaryExpr{
			Operation: BinaryOp([]rune(op.Value)[0]),
			Op1:       lhs,
			Op2:       rhs,
		}
	}
}

func (p *Parser) primary() (Expr, error) {
	switch tok := p.peek(); {
	case tok.Typ == TokenIdentifier:
		return p.identifier()
	case tok.Typ == TokenNumber:
		p.next()
		return &NumberExpr{Value: tok.Num}, nil
	case tok.isOp('('):
		return p.parenthesisedExpression()
	case tok.Typ == TokenError:
		return nil, p.errorf(tok, "%s", tok.Value)
	default:
		return nil, p.errorf(tok, "Unknown token when expecting an expression")
	}
}

func (p *Parser) parenthesisedExpression() (Expr, error) {
	p.next() // Skip the opening parenthesis

	exp, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}

	if tok := p.next(); !tok.isOp(')') {
		return nil, p.errorf(tok, "Expected ')'")
	}

	return exp, nil
}

// identifier parses a variable reference or a call such as 'f(a, b)'.
func (p *Parser) identifier() (Expr, error) {
	tok := p.next()
	if tok.Typ != TokenIdentifier {
		return nil, p.errorf(tok, "Expected Identifier Token")
	}

	if !p.peek().isOp('(') {
		return &Identifier{Name: tok.Value}, nil
	}

	p.next() // Skip '('

	var args []Expr
	if p.peek().isOp(')') {
		p.next()

		return &FuncCall{Name: tok.Value}, nil
	}

	for {
		arg, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		sep := p.next()
		if sep.isOp(')') {
			break
		}

		if !sep.isOp(',') {
			return nil, p.errorf(sep, "Expected ',' or ')'")
		}
	}

	return &FuncCall{
		Name: tok.Value,
		Args: args,
	}, nil
}
