package kaleido

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"github.com/pkg/errors"
)

// Top-level expressions are emitted under this name and dropped from the
// module right after.
const anonFuncName = "__anon_expr"

type ValueLookup struct {
	vals map[string]value.Value
}

func NewValueLookup() *ValueLookup {
	return &ValueLookup{
		vals: make(map[string]value.Value),
	}
}

func (l *ValueLookup) Inherit(t2 *ValueLookup) {
	for k, v := range t2.vals {
		l.Set(k, v)
	}
}

func (l *ValueLookup) Get(id string) (value.Value, error) {
	if val, ok := l.vals[id]; ok {
		return val, nil
	}

	return nil, errors.Errorf("undefined identifier: %s", id)
}

func (l *ValueLookup) Set(id string, val value.Value) {
	l.vals[id] = val
}

func (l *ValueLookup) Delete(id string) {
	delete(l.vals, id)
}

// LLVMIRBuilder lowers checked items into a single LLVM module. Every value
// is a double. Functions and variables live in separate namespaces.
type LLVMIRBuilder struct {
	mod    *ir.Module
	block  *ir.Block
	funcs  map[string]*ir.Func
	values *ValueLookup
}

func NewLLVMIRBuilder() *LLVMIRBuilder {
	builder := &LLVMIRBuilder{
		mod:    ir.NewModule(),
		funcs:  make(map[string]*ir.Func),
		values: NewValueLookup(),
	}

	defineBuiltins(builder)
	return builder
}

// Emit adds item to the module and returns its textual IR.
func (b *LLVMIRBuilder) Emit(item Expr) (string, error) {
	switch e := item.(type) {
	case *Prototype:
		f, err := b.prototype(e)
		if err != nil {
			return "", err
		}

		return f.LLString(), nil
	case *FuncDecl:
		return b.function(e)
	default:
		return "", errors.Errorf("cannot emit %T at top level", item)
	}
}

func (b *LLVMIRBuilder) Module() *ir.Module {
	return b.mod
}

func (b *LLVMIRBuilder) String() string {
	return b.mod.String()
}

func (b *LLVMIRBuilder) prototype(p *Prototype) (*ir.Func, error) {
	if f, ok := b.funcs[p.Name]; ok {
		if !f.Sig.RetType.Equal(types.Double) {
			return nil, errors.Errorf("%s conflicts with a builtin", p.Name)
		}

		if len(f.Params) != len(p.Args) {
			return nil, errors.Errorf("redefinition of %s with a different number of arguments", p.Name)
		}

		return f, nil
	}

	params := make([]*ir.Param, len(p.Args))
	for i, arg := range p.Args {
		params[i] = ir.NewParam(arg, types.Double)
	}

	f := b.mod.NewFunc(p.Name, types.Double, params...)
	b.funcs[p.Name] = f

	return f, nil
}

func (b *LLVMIRBuilder) function(expr *FuncDecl) (string, error) {
	proto := expr.Proto
	if expr.IsAnonymous() {
		proto = &Prototype{Name: anonFuncName}
	}

	_, declared := b.funcs[proto.Name]

	f, err := b.prototype(proto)
	if err != nil {
		return "", err
	}

	if len(f.Blocks) != 0 {
		return "", errors.Errorf("function %s cannot be redefined", proto.Name)
	}

	// The definition's parameter names win over the ones of an earlier extern
	prevNames := make([]string, len(f.Params))
	for i, param := range f.Params {
		prevNames[i] = param.Name()
		param.SetName(proto.Args[i])
	}

	if err := b.body(f, expr.Body); err != nil {
		if declared {
			f.Blocks = nil
			for i, param := range f.Params {
				param.SetName(prevNames[i])
			}
		} else {
			b.remove(f)
		}

		return "", errors.Wrapf(err, "emitting %s", proto.Name)
	}

	out := f.LLString()
	if expr.IsAnonymous() {
		b.remove(f)
	}

	return out, nil
}

func (b *LLVMIRBuilder) body(f *ir.Func, body Expr) error {
	prevBlock := b.block
	b.block = f.NewBlock("entry")

	prevVals := b.values
	b.values = NewValueLookup()
	b.values.Inherit(prevVals)

	defer func() {
		b.block = prevBlock
		b.values = prevVals
	}()

	for _, param := range f.Params {
		b.values.Set(param.Name(), param)
	}

	v, ins, err := b.recursiveLoad(body)
	if err != nil {
		return err
	}

	b.block.Insts = append(b.block.Insts, ins...)
	b.block.NewRet(v)

	return nil
}

func (b *LLVMIRBuilder) remove(f *ir.Func) {
	for i, g := range b.mod.Funcs {
		if g == f {
			b.mod.Funcs = append(b.mod.Funcs[:i], b.mod.Funcs[i+1:]...)
			break
		}
	}

	delete(b.funcs, f.Name())
}

func (b *LLVMIRBuilder) recursiveLoad(expr Expr) (value.Value, []ir.Instruction, error) {
	switch e := expr.(type) {
	case *NumberExpr:
		return constant.NewFloat(types.Double, e.Value), nil, nil
	case *Identifier:
		v, err := b.values.Get(e.Name)
		return v, nil, err
	case *BinaryExpr:
		return b.binaryExpression(e)
	case *FuncCall:
		return b.functionCall(e)
	default:
		return nil, nil, errors.Errorf("cannot emit %T as a value", expr)
	}
}

func (b *LLVMIRBuilder) binaryExpression(expr *BinaryExpr) (value.Value, []ir.Instruction, error) {
	v1, i1, err := b.recursiveLoad(expr.Op1)
	if err != nil {
		return nil, nil, err
	}

	v2, i2, err := b.recursiveLoad(expr.Op2)
	if err != nil {
		return nil, nil, err
	}

	ins := append(i1, i2...)

	var op ir.Instruction
	var v value.Value
	switch expr.Operation {
	case BinaryAddition:
		add := ir.NewFAdd(v1, v2)
		op, v = add, add
	case BinarySubtraction:
		sub := ir.NewFSub(v1, v2)
		op, v = sub, sub
	case BinaryMultiplication:
		mul := ir.NewFMul(v1, v2)
		op, v = mul, mul
	case '/':
		div := ir.NewFDiv(v1, v2)
		op, v = div, div
	default:
		return nil, nil, errors.Errorf("no lowering for binary operator '%c'", expr.Operation)
	}

	return v, append(ins, op), nil
}

func (b *LLVMIRBuilder) functionCall(expr *FuncCall) (value.Value, []ir.Instruction, error) {
	f, ok := b.funcs[expr.Name]
	if !ok {
		return nil, nil, errors.Errorf("undefined function: %s", expr.Name)
	}

	if len(f.Params) != len(expr.Args) {
		return nil, nil, errors.Errorf("incorrect number of arguments passed to %s", expr.Name)
	}

	var ins []ir.Instruction
	var callVals []value.Value
	for _, arg := range expr.Args {
		argVal, argIns, err := b.recursiveLoad(arg)
		if err != nil {
			return nil, nil, err
		}

		ins = append(ins, argIns...)
		callVals = append(callVals, argVal)
	}

	call := ir.NewCall(f, callVals...)
	return call, append(ins, call), nil
}
