package kaleido

import (
	"bufio"
	"io"
	"os"

	"github.com/pkg/errors"
)

// Logger is the subset of github.com/jcgregorio/logger.Logger used here.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}

type ItemKind int

const (
	ItemFunction ItemKind = iota
	ItemExtern
	ItemExpression
)

func (k ItemKind) String() string {
	switch k {
	case ItemFunction:
		return "function definition"
	case ItemExtern:
		return "extern"
	default:
		return "top-level expression"
	}
}

// Item is one compiled top-level item and the IR emitted for it.
type Item struct {
	Kind ItemKind
	Node Expr
	IR   string
}

// Compiler runs lines of source through the parser, the context analyzer
// and the IR builder. Definitions accumulate in a single module.
type Compiler struct {
	ops      *OperatorTable
	analyzer *ContextAnalyzer
	builder  *LLVMIRBuilder
	log      Logger
}

func NewCompiler(ops *OperatorTable, log Logger) *Compiler {
	if ops == nil {
		ops = DefaultOperatorTable()
	}

	if log == nil {
		log = nopLogger{}
	}

	return &Compiler{
		ops:      ops,
		analyzer: NewContextAnalyzer(NewGlobalSymbolTable()),
		builder:  NewLLVMIRBuilder(),
		log:      log,
	}
}

func (c *Compiler) Compile(filename string) ([]*Item, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", filename)
	}
	defer f.Close()

	items, err := c.CompileFromReader(f)
	if err != nil {
		return nil, errors.Wrap(err, filename)
	}

	return items, nil
}

// CompileFromReader compiles every line of reader, stopping at the first
// failing line.
func (c *Compiler) CompileFromReader(reader io.Reader) ([]*Item, error) {
	var items []*Item

	err := eachLine(reader, func(n int, line string) error {
		lineItems, err := c.CompileLine(line)
		if err != nil {
			return errors.Wrapf(err, "line %d", n)
		}

		items = append(items, lineItems...)
		return nil
	})

	return items, err
}

// CompileLine compiles the items of a single line. The first error aborts
// the rest of the line; items compiled before it are kept in the module.
func (c *Compiler) CompileLine(line string) ([]*Item, error) {
	p := NewParser(NewLexerFromString(line), c.ops)

	var items []*Item
	for {
		node, err := p.Next()
		if err == io.EOF {
			return items, nil
		}

		if err != nil {
			return items, err
		}

		item, err := c.compileItem(node)
		if err != nil {
			return items, err
		}

		items = append(items, item)
	}
}

func (c *Compiler) compileItem(node Expr) (*Item, error) {
	item := &Item{Node: node, Kind: itemKind(node)}
	c.log.Debugf("parsed %s: %s", item.Kind, node)

	if err := c.analyzer.Check(node); err != nil {
		return nil, err
	}

	ir, err := c.builder.Emit(node)
	if err != nil {
		return nil, err
	}

	c.analyzer.Define(node)
	item.IR = ir

	return item, nil
}

// Module returns the IR of every function defined so far.
func (c *Compiler) Module() string {
	return c.builder.String()
}

// ParseFromReader parses every line of reader without emitting anything.
func ParseFromReader(reader io.Reader, ops *OperatorTable) (*AST, error) {
	ast := &AST{}

	err := eachLine(reader, func(n int, line string) error {
		lineAST, err := ParseLine(line, ops)
		if err != nil {
			return errors.Wrapf(err, "line %d", n)
		}

		ast.Statements = append(ast.Statements, lineAST.Statements...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ast, nil
}

func eachLine(reader io.Reader, fn func(n int, line string) error) error {
	scanner := bufio.NewScanner(reader)
	for n := 1; scanner.Scan(); n++ {
		if err := fn(n, scanner.Text()); err != nil {
			return err
		}
	}

	return errors.Wrap(scanner.Err(), "reading source")
}

func itemKind(node Expr) ItemKind {
	switch e := node.(type) {
	case *Prototype:
		return ItemExtern
	case *FuncDecl:
		if e.IsAnonymous() {
			return ItemExpression
		}
	}

	return ItemFunction
}
