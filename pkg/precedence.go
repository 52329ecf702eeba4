package kaleido

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// DefaultOperators lists the binary operators from lowest to highest
// precedence.
const DefaultOperators = "-+*"

const reservedOperators = "(),;#."

// OperatorTable maps binary operator characters to their precedence. The
// precedence of an operator is its position in the string the table was built
// from.
type OperatorTable struct {
	ops  string
	prec map[rune]int
}

func NewOperatorTable(ops string) (*OperatorTable, error) {
	if ops == "" {
		return nil, errors.New("operator table is empty")
	}

	t := &OperatorTable{
		ops:  ops,
		prec: make(map[rune]int),
	}

	for _, r := range ops {
		switch {
		case unicode.IsSpace(r), unicode.IsLetter(r), unicode.IsDigit(r):
			return nil, errors.Errorf("invalid operator '%c'", r)
		case strings.ContainsRune(reservedOperators, r):
			return nil, errors.Errorf("reserved operator '%c'", r)
		}

		if _, dup := t.prec[r]; dup {
			return nil, errors.Errorf("duplicate operator '%c'", r)
		}

		t.prec[r] = len(t.prec)
	}

	return t, nil
}

func DefaultOperatorTable() *OperatorTable {
	t, err := NewOperatorTable(DefaultOperators)
	if err != nil {
		panic(err)
	}

	return t
}

// Precedence returns the precedence of op, or false when op is not a binary
// operator.
func (t *OperatorTable) Precedence(op rune) (int, bool) {
	p, ok := t.prec[op]
	return p, ok
}

func (t *OperatorTable) Lowest() int {
	return 0
}

func (t *OperatorTable) String() string {
	return t.ops
}

func (t *OperatorTable) tokenPrecedence(tok Token) (int, bool) {
	if tok.Typ != TokenOperator {
		return 0, false
	}

	runes := []rune(tok.Value)
	if len(runes) != 1 {
		return 0, false
	}

	return t.Precedence(runes[0])
}
