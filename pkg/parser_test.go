package kaleido

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.kaleido.dev/internal/test"
)

type BufferedTokenizerMocker struct {
	buf []Token
	pos int
}

func NewBufferedTokenizerMocker(toks []Token) *BufferedTokenizerMocker {
	return &BufferedTokenizerMocker{
		buf: toks,
		pos: 0,
	}
}

func (b *BufferedTokenizerMocker) Get() Token {
	if len(b.buf) <= b.pos {
		return Token{Typ: TokenEOF}
	}

	tok := b.buf[b.pos]
	b.pos++

	return tok
}

func op(r rune) Token {
	return Token{Typ: TokenOperator, Value: string(r)}
}

func id(name string) Token {
	return Token{Typ: TokenIdentifier, Value: name}
}

func num(v float64) Token {
	return Token{Typ: TokenNumber, Value: fmt.Sprint(v), Num: v}
}

func TestParser(t *testing.T) {
	cases := []struct {
		data   []Token
		fail   bool
		expect []Expr
	}{
		{
			[]Token{
				{Typ: TokenDef, Value: "def"},
				id("main"),
				op('('),
				op(')'),
				num(1),
			},
			false,
			[]Expr{
				&FuncDecl{
					Proto: &Prototype{Name: "main"},
					Body:  &NumberExpr{1},
				},
			},
		},
		{
			[]Token{
				{Typ: TokenExtern, Value: "extern"},
				id("atan2"),
				op('('),
				id("y"),
				id("x"),
				op(')'),
			},
			false,
			[]Expr{
				&Prototype{Name: "atan2", Args: []string{"y", "x"}},
			},
		},
		{
			[]Token{
				{Typ: TokenDef, Value: "def"},
				op('('),
				op(')'),
			},
			true,
			nil,
		},
		{
			[]Token{
				id("foo"),
				op('('),
				op(')'),
			},
			false,
			[]Expr{
				&FuncDecl{
					Proto: &Prototype{},
					Body:  &FuncCall{Name: "foo"},
				},
			},
		},
		{
			[]Token{
				id("foo"),
				op('('),
				num(1),
				op(','),
				id("x"),
				op(')'),
			},
			false,
			[]Expr{
				&FuncDecl{
					Proto: &Prototype{},
					Body: &FuncCall{
						Name: "foo",
						Args: []Expr{&NumberExpr{1}, &Identifier{"x"}},
					},
				},
			},
		},
		{
			[]Token{
				id("foo"),
				op('('),
				num(1),
				num(2),
				op(')'),
			},
			true,
			nil,
		},
		{
			[]Token{
				num(1),
				op(';'),
				op(';'),
				num(2),
			},
			false,
			[]Expr{
				&FuncDecl{Proto: &Prototype{}, Body: &NumberExpr{1}},
				&FuncDecl{Proto: &Prototype{}, Body: &NumberExpr{2}},
			},
		},
		{
			[]Token{
				op('('),
				num(1),
				op('+'),
				num(3),
				op(')'),
				op('*'),
				num(2),
			},
			false,
			[]Expr{
				&FuncDecl{
					Proto: &Prototype{},
					Body: &BinaryExpr{
						Operation: BinaryMultiplication,
						Op1: &BinaryExpr{
							Operation: BinaryAddition,
							Op1:       &NumberExpr{1},
							Op2:       &NumberExpr{3},
						},
						Op2: &NumberExpr{2},
					},
				},
			},
		},
		{
			[]Token{
				{Typ: TokenError, Value: "Invalid number literal '1.2.3'"},
			},
			true,
			nil,
		},
	}

	for _, c := range cases {
		tokenizer := NewBufferedTokenizerMocker(c.data)
		p := NewParser(tokenizer, nil)

		got, err := p.Run()
		if c.fail {
			assert.Error(t, err)
			assert.Nil(t, got)
			continue
		}

		require.NoError(t, err)
		assert.Equal(t, &AST{Statements: c.expect}, got)
	}
}

func TestParserScenarios(t *testing.T) {
	cases := []struct {
		data   string
		expect Expr
	}{
		{
			"4.0",
			&FuncDecl{
				Proto: &Prototype{Name: ""},
				Body:  &NumberExpr{4.0},
			},
		},
		{
			"extern sin(arg)",
			&Prototype{Name: "sin", Args: []string{"arg"}},
		},
		{
			"def constant() 4.0",
			&FuncDecl{
				Proto: &Prototype{Name: "constant"},
				Body:  &NumberExpr{4.0},
			},
		},
		{
			"def foo(a b) a*a + 2*a*b + b*b",
			&FuncDecl{
				Proto: &Prototype{Name: "foo", Args: []string{"a", "b"}},
				Body: &BinaryExpr{
					Operation: BinaryAddition,
					Op1: &BinaryExpr{
						Operation: BinaryAddition,
						Op1: &BinaryExpr{
							Operation: BinaryMultiplication,
							Op1:       &Identifier{"a"},
							Op2:       &Identifier{"a"},
						},
						Op2: &BinaryExpr{
							Operation: BinaryMultiplication,
							Op1: &BinaryExpr{
								Operation: BinaryMultiplication,
								Op1:       &NumberExpr{2},
								Op2:       &Identifier{"a"},
							},
							Op2: &Identifier{"b"},
						},
					},
					Op2: &BinaryExpr{
						Operation: BinaryMultiplication,
						Op1:       &Identifier{"b"},
						Op2:       &Identifier{"b"},
					},
				},
			},
		},
	}

	for _, c := range cases {
		ast, err := ParseLine(c.data, nil)
		require.NoError(t, err, c.data)
		require.Len(t, ast.Statements, 1, c.data)
		assert.Equal(t, c.expect, ast.Statements[0], c.data)
	}
}

func TestParseExpr(t *testing.T) {
	cases := []struct {
		data   string
		expect Expr
	}{
		{
			"x+y",
			&BinaryExpr{
				Operation: BinaryAddition,
				Op1:       &Identifier{"x"},
				Op2:       &Identifier{"y"},
			},
		},
		{
			"a+b*c",
			&BinaryExpr{
				Operation: BinaryAddition,
				Op1:       &Identifier{"a"},
				Op2: &BinaryExpr{
					Operation: BinaryMultiplication,
					Op1:       &Identifier{"b"},
					Op2:       &Identifier{"c"},
				},
			},
		},
		{
			"a+b+c",
			&BinaryExpr{
				Operation: BinaryAddition,
				Op1: &BinaryExpr{
					Operation: BinaryAddition,
					Op1:       &Identifier{"a"},
					Op2:       &Identifier{"b"},
				},
				Op2: &Identifier{"c"},
			},
		},
		{
			"a*b+c",
			&BinaryExpr{
				Operation: BinaryAddition,
				Op1: &BinaryExpr{
					Operation: BinaryMultiplication,
					Op1:       &Identifier{"a"},
					Op2:       &Identifier{"b"},
				},
				Op2: &Identifier{"c"},
			},
		},
		{
			"a-b+c*d",
			&BinaryExpr{
				Operation: BinarySubtraction,
				Op1:       &Identifier{"a"},
				Op2: &BinaryExpr{
					Operation: BinaryAddition,
					Op1:       &Identifier{"b"},
					Op2: &BinaryExpr{
						Operation: BinaryMultiplication,
						Op1:       &Identifier{"c"},
						Op2:       &Identifier{"d"},
					},
				},
			},
		},
		{
			"x",
			&Identifier{"x"},
		},
		{
			"((x))",
			&Identifier{"x"},
		},
		{
			"f(a, g(b), 1+2)",
			&FuncCall{
				Name: "f",
				Args: []Expr{
					&Identifier{"a"},
					&FuncCall{Name: "g", Args: []Expr{&Identifier{"b"}}},
					&BinaryExpr{
						Operation: BinaryAddition,
						Op1:       &NumberExpr{1},
						Op2:       &NumberExpr{2},
					},
				},
			},
		},
	}

	for _, c := range cases {
		got, err := NewParser(NewLexerFromString(c.data), nil).ParseExpr()
		require.NoError(t, err, c.data)
		assert.Equal(t, c.expect, got, c.data)
	}
}

func TestParseExprStopsAtUnknownOperator(t *testing.T) {
	p := NewParser(NewLexerFromString("a+b) / c"), nil)

	got, err := p.ParseExpr()
	require.NoError(t, err)
	assert.Equal(t, "(+ a b)", got.String())

	// The stray parenthesis is left for the caller
	assert.Equal(t, op(')').Value, p.peek().Value)
	assert.Equal(t, 3, p.peek().Pos)
}

func TestParserErrors(t *testing.T) {
	cases := []struct {
		data string
		msg  string
		pos  int
	}{
		{"(a+b", "Expected ')'", 4},
		{"foo(a b)", "Expected ',' or ')'", 6},
		{"foo(a,", "Unknown token when expecting an expression", 6},
		{")", "Unknown token when expecting an expression", 0},
		{"a + ", "Unknown token when expecting an expression", 4},
		{"def foo x", "Expected '(' in prototype", 8},
		{"def foo(x, y) x", "Expected ')' in prototype", 9},
		{"def 4() 1", "Expected function name in prototype", 4},
		{"extern", "Expected function name in prototype", 6},
		{"def foo(x)", "Unknown token when expecting an expression", 10},
		{"1.2.3", "Invalid number literal '1.2.3'", 0},
		{"x + 1..2", "Invalid number literal '1..2'", 4},
		{"def 1.2.3() 1", "Invalid number literal '1.2.3'", 4},
		{"extern foo(a 1.2.3)", "Invalid number literal '1.2.3'", 13},
	}

	for _, c := range cases {
		ast, err := ParseLine(c.data, nil)
		assert.Nil(t, ast, c.data)
		require.Error(t, err, c.data)

		var perr *ParseError
		require.ErrorAs(t, err, &perr, c.data)
		assert.Equal(t, c.msg, perr.Msg, c.data)
		assert.Equal(t, c.pos, perr.Pos, c.data)
	}
}

func TestParseIdentifierExpectsIdentifier(t *testing.T) {
	p := NewParser(NewLexerFromString("42"), nil)

	_, err := p.identifier()
	require.Error(t, err)
	assert.Equal(t, "Expected Identifier Token", err.(*ParseError).Msg)
}

func TestParserNextReturnsEOF(t *testing.T) {
	p := NewParser(NewLexerFromString(" ; ;# nothing here"), nil)

	expr, err := p.Next()
	assert.Nil(t, expr)
	assert.Equal(t, io.EOF, err)
}

func TestParserNextDispatch(t *testing.T) {
	p := NewParser(NewLexerFromString("def f(x) x; extern g(); f(1)"), nil)

	first, err := p.Next()
	require.NoError(t, err)
	assert.IsType(t, &FuncDecl{}, first)
	assert.False(t, first.(*FuncDecl).IsAnonymous())

	second, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, &Prototype{Name: "g"}, second)

	third, err := p.Next()
	require.NoError(t, err)
	assert.True(t, third.(*FuncDecl).IsAnonymous())

	_, err = p.Next()
	assert.Equal(t, io.EOF, err)
}

func TestCallArgumentsArePositional(t *testing.T) {
	args := []string{"a", "1", "b*c", "g(x, y)", "(d-e)"}

	for n := 0; n <= len(args); n++ {
		src := "f(" + strings.Join(args[:n], ", ") + ")"

		got, err := NewParser(NewLexerFromString(src), nil).ParseExpr()
		require.NoError(t, err, src)

		call, ok := got.(*FuncCall)
		require.True(t, ok, src)
		assert.Equal(t, "f", call.Name)
		require.Len(t, call.Args, n, src)

		for i, arg := range args[:n] {
			want, err := NewParser(NewLexerFromString(arg), nil).ParseExpr()
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(want, call.Args[i]), "%s argument %d", src, i)
		}
	}
}

func TestBinaryAssociativity(t *testing.T) {
	ops := DefaultOperatorTable()

	for _, op1 := range DefaultOperators {
		for _, op2 := range DefaultOperators {
			src := fmt.Sprintf("a %c b %c c", op1, op2)

			got, err := NewParser(NewLexerFromString(src), ops).ParseExpr()
			require.NoError(t, err, src)

			p1, _ := ops.Precedence(op1)
			p2, _ := ops.Precedence(op2)

			var want string
			if p1 >= p2 {
				want = fmt.Sprintf("(%c (%c a b) c)", op2, op1)
			} else {
				want = fmt.Sprintf("(%c a (%c b c))", op1, op2)
			}

			assert.Equal(t, want, got.String(), src)
		}
	}
}

func TestParenthesesAreTransparent(t *testing.T) {
	sources := []string{
		"x",
		"4.5",
		"a+b*c",
		"a*b-c",
		"f(a, b+c)*2",
		"(a+b)*(c-d)",
		"g()",
	}

	for _, src := range sources {
		plain, err := ParseLine(src, nil)
		require.NoError(t, err, src)

		wrapped, err := ParseLine("("+src+")", nil)
		require.NoError(t, err, src)

		assert.Empty(t, cmp.Diff(plain, wrapped), src)
	}
}

func TestParserCustomOperators(t *testing.T) {
	ops, err := NewOperatorTable("+*-")
	require.NoError(t, err)

	// '-' now binds tightest
	got, err := NewParser(NewLexerFromString("a*b-c"), ops).ParseExpr()
	require.NoError(t, err)
	assert.Equal(t, "(* a (- b c))", got.String())

	// '/' is not part of the table and ends the expression
	got, err = NewParser(NewLexerFromString("a/b"), ops).ParseExpr()
	require.NoError(t, err)
	assert.Equal(t, "a", got.String())
}

func TestParseFromReader(t *testing.T) {
	src := "def foo(x) x*2\n\n# comment line\nextern bar(a)\nfoo(3); bar(4)\n"

	ast, err := ParseFromReader(strings.NewReader(src), nil)
	require.NoError(t, err)
	assert.Equal(t, `(def (proto "foo" (x)) (* x 2))
(proto "bar" (a))
(def (proto "" ()) (call foo 3))
(def (proto "" ()) (call bar 4))`, ast.String())

	_, err = ParseFromReader(strings.NewReader("1\n(2\n"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestParseRandomLines(t *testing.T) {
	ast, err := ParseFromReader(strings.NewReader(test.GetRandomLines(200)), nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(ast.Statements), 200)
}

var benchAST *AST

func benchmarkParser(size int, b *testing.B) {
	for n := 0; n < b.N; n++ {
		b.StopTimer()
		data := test.GetRandomLines(size)

		var err error
		b.StartTimer()

		benchAST, err = ParseFromReader(strings.NewReader(data), nil)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParser100(b *testing.B) {
	benchmarkParser(100, b)
}

func BenchmarkParser10000(b *testing.B) {
	benchmarkParser(10000, b)
}
