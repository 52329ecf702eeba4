package kaleido

import (
	"strconv"
	"strings"
)

type AST struct {
	Statements []Expr
}

func (a *AST) String() string {
	var str strings.Builder
	for i, stmt := range a.Statements {
		if i > 0 {
			str.WriteString("\n")
		}
		str.WriteString(stmt.String())
	}

	return str.String()
}

// Expr is implemented by every AST node. String renders the node as an
// S-expression.
type Expr interface {
	String() string
	node()
}

type NumberExpr struct {
	Value float64
}

type Identifier struct {
	Name string
}

type BinaryOp rune

const (
	BinarySubtraction    BinaryOp = '-'
	BinaryAddition       BinaryOp = '+'
	BinaryMultiplication BinaryOp = '*'
)

type BinaryExpr struct {
	Operation BinaryOp
	Op1       Expr
	Op2       Expr
}

type FuncCall struct {
	Name string
	Args []Expr
}

type Prototype struct {
	Name string
	Args []string
}

// FuncDecl is a function definition. Top-level expressions are wrapped in a
// FuncDecl whose prototype has an empty name and no arguments.
type FuncDecl struct {
	Proto *Prototype
	Body  Expr
}

func (*NumberExpr) node() {}
func (*Identifier) node() {}
func (*BinaryExpr) node() {}
func (*FuncCall) node()   {}
func (*Prototype) node()  {}
func (*FuncDecl) node()   {}

func (e *NumberExpr) String() string {
	return strconv.FormatFloat(e.Value, 'g', -1, 64)
}

func (e *Identifier) String() string {
	return e.Name
}

func (e *BinaryExpr) String() string {
	return "(" + string(e.Operation) + " " + e.Op1.String() + " " + e.Op2.String() + ")"
}

func (e *FuncCall) String() string {
	var str strings.Builder
	str.WriteString("(call ")
	str.WriteString(e.Name)

	for _, arg := range e.Args {
		str.WriteString(" ")
		str.WriteString(arg.String())
	}
	str.WriteString(")")

	return str.String()
}

func (e *Prototype) String() string {
	return "(proto " + strconv.Quote(e.Name) + " (" + strings.Join(e.Args, " ") + "))"
}

func (e *FuncDecl) String() string {
	return "(def " + e.Proto.String() + " " + e.Body.String() + ")"
}

// IsAnonymous reports whether the function wraps a top-level expression.
func (e *FuncDecl) IsAnonymous() bool {
	return e.Proto.Name == ""
}
