package test

import (
	"math/rand"
	"strings"
)

const validTokens = "def;extern;foo;bar;x;y;argument;4.0;1.5;.5;42;+;-;*;(;);,;#comment\n;\n"

const validLines = "def foo(x y) x*y+1;extern sin(arg);foo(1, 2)+bar(3);(a+b)*c-d;4.0;def constant() 4.0;x+y*z # trailing comment"

func GetRandomTokens(size int) string {
	return GetRandomTokensWithSep(size, " ")
}

func GetRandomTokensWithSep(size int, sep string) string {
	valid := strings.Split(validTokens, ";")

	var toks []string
	for len(toks) < size {
		toks = append(toks, valid[rand.Intn(len(valid))])
	}

	return strings.Join(toks, sep)
}

// GetRandomLines returns size newline separated lines that all parse.
func GetRandomLines(size int) string {
	valid := strings.Split(validLines, ";")

	var lines []string
	for len(lines) < size {
		lines = append(lines, valid[rand.Intn(len(valid))])
	}

	return strings.Join(lines, "\n")
}
