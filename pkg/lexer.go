package kaleido

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
)

type TokenType uint64
type stateFunc func(l *Lexer) stateFunc

const (
	eof rune = -1

	TokenError TokenType = iota
	TokenEOF
	TokenDef
	TokenExtern
	TokenIdentifier
	TokenNumber
	TokenOperator
)

func (t TokenType) String() string {
	switch t {
	case TokenError:
		return "Error"
	case TokenEOF:
		return "EOF"
	case TokenDef:
		return "Def"
	case TokenExtern:
		return "Extern"
	case TokenIdentifier:
		return "Identifier"
	case TokenNumber:
		return "Number"
	case TokenOperator:
		return "Operator"
	}

	return "TokenType(" + strconv.FormatUint(uint64(t), 10) + ")"
}

var keywordTable = map[string]TokenType{
	"def":    TokenDef,
	"extern": TokenExtern,
}

// Token is a single lexical unit. Num is only meaningful for TokenNumber and
// Pos is the rune offset of the token's first character.
type Token struct {
	Typ   TokenType
	Value string
	Num   float64
	Pos   int
}

func (t Token) isOp(r rune) bool {
	return t.Typ == TokenOperator && t.Value == string(r)
}

func (t Token) isValid() bool {
	return t.Typ != TokenEOF && t.Typ != TokenError
}

// Tokenizer is the token source consumed by the Parser.
type Tokenizer interface {
	Get() Token
}

// Lexer turns a character stream into tokens on demand. Once TokenEOF has been
// returned, every later call to Get returns TokenEOF again.
type Lexer struct {
	reader *bufio.Reader
	pos    int
	start  int
	out    *Token
	done   bool
}

func NewLexer(reader io.Reader) *Lexer {
	return &Lexer{
		reader: bufio.NewReader(reader),
	}
}

func NewLexerFromString(src string) *Lexer {
	return NewLexer(strings.NewReader(src))
}

func (l *Lexer) Get() Token {
	if l.done {
		return Token{Typ: TokenEOF, Pos: l.pos}
	}

	for state := stateFunc(defaultState); state != nil; {
		state = state(l)
	}

	tok := *l.out
	l.out = nil
	if tok.Typ == TokenEOF {
		l.done = true
	}

	return tok
}

// All drains the lexer, stopping at the first lexical error.
func (l *Lexer) All() ([]Token, error) {
	var tokens []Token
	for {
		t := l.Get()
		if t.Typ == TokenEOF {
			return tokens, nil
		}

		if t.Typ == TokenError {
			return nil, errors.New(t.Value)
		}

		tokens = append(tokens, t)
	}
}

func defaultState(l *Lexer) stateFunc {
	for {
		r := l.peek()
		l.start = l.pos

		switch {
		case r == eof:
			return l.emit(Token{Typ: TokenEOF})
		case unicode.IsSpace(r):
			l.next()
			continue
		case unicode.IsLetter(r):
			return identifierState
		case isDigit(r) || r == '.':
			return numberState
		case r == '#':
			return lineCommentState
		default:
			return operatorState
		}
	}
}

func identifierState(l *Lexer) stateFunc {
	var id strings.Builder
	for r := l.peek(); unicode.IsLetter(r) || unicode.IsDigit(r); r = l.peek() {
		id.WriteRune(l.next())
	}

	if t, ok := keywordTable[id.String()]; ok {
		return l.emit(Token{Typ: t, Value: id.String()})
	}

	return l.emit(Token{Typ: TokenIdentifier, Value: id.String()})
}

func numberState(l *Lexer) stateFunc {
	var num strings.Builder
	for r := l.peek(); isDigit(r) || r == '.'; r = l.peek() {
		num.WriteRune(l.next())
	}

	v, err := strconv.ParseFloat(num.String(), 64)
	if err != nil {
		return l.errorf("Invalid number literal '%s'", num.String())
	}

	return l.emit(Token{Typ: TokenNumber, Value: num.String(), Num: v})
}

func lineCommentState(l *Lexer) stateFunc {
	for r := l.next(); r != eof; r = l.next() {
		if r == '\n' || r == '\r' {
			break
		}
	}

	return defaultState
}

func operatorState(l *Lexer) stateFunc {
	return l.emit(Token{Typ: TokenOperator, Value: string(l.next())})
}

func (l *Lexer) errorf(format string, args ...interface{}) stateFunc {
	return l.emit(Token{
		Typ:   TokenError,
		Value: fmt.Sprintf(format, args...),
	})
}

func (l *Lexer) emit(t Token) stateFunc {
	t.Pos = l.start
	l.out = &t

	return nil
}

func (l *Lexer) peek() rune {
	r, _, err := l.reader.ReadRune()
	if err != nil {
		// Read failures end the stream like io.EOF does
		return eof
	}

	_ = l.reader.UnreadRune()
	return r
}

func (l *Lexer) next() rune {
	r, _, err := l.reader.ReadRune()
	if err != nil {
		return eof
	}

	l.pos++
	return r
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}
