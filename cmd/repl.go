package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"
	"go.kaleido.dev/pkg"
)

const helpText = `Enter a definition, an extern or an expression per line:
  def name(arg1 arg2) body
  extern name(arg1 arg2)
  expression
Commands:
  :help     show this text
  :module   print the IR of everything defined so far
  :ast      toggle printing the AST of each item
  :quit     leave the session
`

type repl struct {
	compiler *kaleido.Compiler
	out      io.Writer
	showAST  bool
	errColor *color.Color
	irColor  *color.Color
}

func newREPL(e *env) *repl {
	return &repl{
		compiler: kaleido.NewCompiler(e.ops, e.log),
		out:      e.out,
		errColor: color.New(color.FgRed),
		irColor:  color.New(color.FgBlue),
	}
}

func runREPL(e *env) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	// History is best-effort
	if e.cfg.HistoryFile != "" {
		if f, err := os.Open(e.cfg.HistoryFile); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
	}

	r := newREPL(e)
	for {
		line, err := ln.Prompt(e.cfg.Prompt)
		if err == liner.ErrPromptAborted {
			continue
		}

		if err != nil {
			// Ctrl+D
			fmt.Fprintln(r.out)
			break
		}

		if strings.TrimSpace(line) != "" {
			ln.AppendHistory(line)
		}

		if r.handle(line) {
			break
		}
	}

	if e.cfg.HistoryFile != "" {
		if f, err := os.Create(e.cfg.HistoryFile); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		} else {
			e.log.Warningf("cannot save history: %s", err)
		}
	}

	return nil
}

// handle processes one input line and reports whether the session is over.
func (r *repl) handle(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}

	if strings.HasPrefix(trimmed, ":") {
		return r.command(trimmed)
	}

	items, err := r.compiler.CompileLine(line)
	for _, item := range items {
		r.printItem(item)
	}

	if err != nil {
		r.errColor.Fprintf(r.out, "Error: %s\n", err)
	}

	return false
}

func (r *repl) command(line string) bool {
	switch cmd := strings.ToLower(strings.Fields(line)[0]); cmd {
	case ":help":
		fmt.Fprint(r.out, helpText)
	case ":quit", ":exit":
		return true
	case ":module":
		r.irColor.Fprintln(r.out, r.compiler.Module())
	case ":ast":
		r.showAST = !r.showAST
		fmt.Fprintf(r.out, "AST printing %s.\n", onOff(r.showAST))
	default:
		fmt.Fprintf(r.out, "unknown command %s. Type :help for help.\n", cmd)
	}

	return false
}

func (r *repl) printItem(item *kaleido.Item) {
	article := "a"
	if item.Kind == kaleido.ItemExtern {
		article = "an"
	}
	fmt.Fprintf(r.out, "Parsed %s %s.\n", article, item.Kind)

	if r.showAST {
		fmt.Fprintln(r.out, item.Node)
	}

	r.irColor.Fprintln(r.out, item.IR)
}

func onOff(b bool) string {
	if b {
		return "on"
	}

	return "off"
}
