package kaleido

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// ContextAnalyzer checks that parsed items only reference names that exist.
// Every function body may use its own parameters and any function known to
// the global symbol table, including the function being defined.
type ContextAnalyzer struct {
	global *SymbolTable
}

func NewContextAnalyzer(global *SymbolTable) *ContextAnalyzer {
	return &ContextAnalyzer{
		global: global,
	}
}

// Check reports every problem found in item as a *multierror.Error, or nil.
func (c *ContextAnalyzer) Check(item Expr) error {
	var errs []CompileError

	switch e := item.(type) {
	case *Prototype:
		errs = c.checkPrototype(e, false)
	case *FuncDecl:
		errs = c.checkPrototype(e.Proto, true)

		scope := c.global.Copy()
		if !e.IsAnonymous() {
			scope.Add(e.Proto.Name, &FuncType{Args: e.Proto.Args, Defined: true})
		}

		params := make(map[string]bool, len(e.Proto.Args))
		for _, arg := range e.Proto.Args {
			params[arg] = true
		}

		errs = append(errs, c.analyze(scope, params, e.Body)...)
	default:
		errs = append(errs, &UnsupportedError{Expr: item})
	}

	var result *multierror.Error
	seen := make(map[string]bool)
	for _, err := range errs {
		if seen[err.Error()] {
			continue
		}

		seen[err.Error()] = true
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}

// Define records the prototype of a successfully compiled item.
func (c *ContextAnalyzer) Define(item Expr) {
	switch e := item.(type) {
	case *Prototype:
		if prev := c.global.Get(e.Name); prev != nil && prev.Defined {
			return
		}

		c.global.Add(e.Name, &FuncType{Args: e.Args})
	case *FuncDecl:
		if e.IsAnonymous() {
			return
		}

		c.global.Add(e.Proto.Name, &FuncType{Args: e.Proto.Args, Defined: true})
	}
}

func (c *ContextAnalyzer) checkPrototype(proto *Prototype, hasBody bool) []CompileError {
	var errs []CompileError

	seen := make(map[string]bool, len(proto.Args))
	for _, arg := range proto.Args {
		if seen[arg] {
			errs = append(errs, &RedefinitionError{
				Name:   arg,
				Reason: "duplicate parameter in " + proto.Name,
			})
		}

		seen[arg] = true
	}

	prev := c.global.Get(proto.Name)
	if proto.Name == "" || prev == nil {
		return errs
	}

	if hasBody && prev.Defined {
		errs = append(errs, &RedefinitionError{
			Name:   proto.Name,
			Reason: "function already has a body",
		})
	}

	if len(prev.Args) != len(proto.Args) {
		errs = append(errs, &RedefinitionError{
			Name:   proto.Name,
			Reason: fmt.Sprintf("previously declared with %d arguments", len(prev.Args)),
		})
	}

	return errs
}

func (c *ContextAnalyzer) analyze(scope *SymbolTable, params map[string]bool, expr Expr) []CompileError {
	switch e := expr.(type) {
	case *NumberExpr:
		return nil
	case *Identifier:
		if !params[e.Name] {
			return []CompileError{&UndefinedError{Kind: "variable", Name: e.Name}}
		}

		return nil
	case *BinaryExpr:
		return append(c.analyze(scope, params, e.Op1), c.analyze(scope, params, e.Op2)...)
	case *FuncCall:
		var errs []CompileError

		callee := scope.Get(e.Name)
		if callee == nil {
			errs = append(errs, &UndefinedError{Kind: "function", Name: e.Name})
		} else if len(callee.Args) != len(e.Args) {
			errs = append(errs, &ArityError{
				Name: e.Name,
				Want: len(callee.Args),
				Got:  len(e.Args),
			})
		}

		for _, arg := range e.Args {
			errs = append(errs, c.analyze(scope, params, arg)...)
		}

		return errs
	}

	return []CompileError{&UnsupportedError{Expr: expr}}
}

type FuncType struct {
	Args    []string
	Defined bool
}

func (t *FuncType) String() string {
	return "func(" + strings.Join(t.Args, ", ") + ")"
}

type CompileError interface {
	error
}

type UndefinedError struct {
	Kind string
	Name string
}

func (e *UndefinedError) Error() string {
	return fmt.Sprintf("undefined %s: %s", e.Kind, e.Name)
}

type ArityError struct {
	Name string
	Want int
	Got  int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("incorrect number of arguments passed to %s: want %d, got %d", e.Name, e.Want, e.Got)
}

type RedefinitionError struct {
	Name   string
	Reason string
}

func (e *RedefinitionError) Error() string {
	return fmt.Sprintf("redefinition of %s: %s", e.Name, e.Reason)
}

type UnsupportedError struct {
	Expr Expr
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported expression %T", e.Expr)
}

type SymbolTable struct {
	Entries map[string]*FuncType
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		Entries: make(map[string]*FuncType),
	}
}

func (t *SymbolTable) Add(name string, typ *FuncType) {
	t.Entries[name] = typ
}

func (t *SymbolTable) Get(name string) *FuncType {
	typ, contains := t.Entries[name]
	if !contains {
		return nil
	}

	return typ
}

func (t *SymbolTable) Copy() *SymbolTable {
	t2 := NewSymbolTable()
	for k, v := range t.Entries {
		t2.Entries[k] = v
	}

	return t2
}
