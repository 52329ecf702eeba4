package kaleido

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

// Builtins are always defined and callable without an extern.
var Builtins = []*Prototype{
	{Name: "printd", Args: []string{"x"}},
	{Name: "putchard", Args: []string{"x"}},
}

func defineBuiltins(b *LLVMIRBuilder) {
	printf := b.mod.NewFunc("printf", types.I32, ir.NewParam("format", types.I8Ptr))
	printf.Sig.Variadic = true
	b.funcs["printf"] = printf

	putchar := b.mod.NewFunc("putchar", types.I32, ir.NewParam("c", types.I32))
	b.funcs["putchar"] = putchar

	defineBuiltinFunc(b, "printd", func(mod *ir.Module) *ir.Func {
		return builtinPrintd(mod, printf)
	})
	defineBuiltinFunc(b, "putchard", func(mod *ir.Module) *ir.Func {
		return builtinPutchard(mod, putchar)
	})
}

type funcDefinition = func(mod *ir.Module) *ir.Func

func defineBuiltinFunc(b *LLVMIRBuilder, name string, definition funcDefinition) {
	f := definition(b.mod)
	f.SetName(name)
	b.funcs[name] = f
}

// NewGlobalSymbolTable returns a symbol table that knows every builtin.
func NewGlobalSymbolTable() *SymbolTable {
	t := NewSymbolTable()
	for _, proto := range Builtins {
		t.Add(proto.Name, &FuncType{Args: proto.Args, Defined: true})
	}

	return t
}

// builtinPrintd prints its argument followed by a newline and returns 0.
func builtinPrintd(mod *ir.Module, printf *ir.Func) *ir.Func {
	f := mod.NewFunc("", types.Double, ir.NewParam("x", types.Double))
	b := f.NewBlock("entry")

	zero := constant.NewInt(types.I32, 0)

	format := constant.NewCharArrayFromString("%f\n\x00")
	formatGlob := mod.NewGlobalDef(".printd_fmt", format)

	fmtAddr := constant.NewGetElementPtr(format.Typ, formatGlob, zero, zero)

	b.NewCall(printf, fmtAddr, f.Params[0])
	b.NewRet(constant.NewFloat(types.Double, 0))

	return f
}

// builtinPutchard writes its argument as a character and returns 0.
func builtinPutchard(mod *ir.Module, putchar *ir.Func) *ir.Func {
	f := mod.NewFunc("", types.Double, ir.NewParam("x", types.Double))
	b := f.NewBlock("entry")

	c := b.NewFPToSI(f.Params[0], types.I32)
	b.NewCall(putchar, c)
	b.NewRet(constant.NewFloat(types.Double, 0))

	return f
}
