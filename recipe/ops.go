package recipe

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wippyai/wasm-synth/errors"
	"github.com/wippyai/wasm-synth/wasm/synth"
)

// emitFunc emits one instruction. refs maps symbols to function references.
type emitFunc func(f *synth.FuncBuilder, refs map[string]synth.FuncRef)

var plainOps = map[string]func(*synth.FuncBuilder) *synth.FuncBuilder{
	"unreachable":      (*synth.FuncBuilder).Unreachable,
	"nop":              (*synth.FuncBuilder).Nop,
	"else":             (*synth.FuncBuilder).Else,
	"end":              (*synth.FuncBuilder).End,
	"return":           (*synth.FuncBuilder).Return,
	"drop":             (*synth.FuncBuilder).Drop,
	"select":           (*synth.FuncBuilder).Select,
	"i64.eqz":          (*synth.FuncBuilder).I64Eqz,
	"i64.eq":           (*synth.FuncBuilder).I64Eq,
	"i64.ne":           (*synth.FuncBuilder).I64Ne,
	"i64.lt_u":         (*synth.FuncBuilder).I64LtU,
	"i64.gt_u":         (*synth.FuncBuilder).I64GtU,
	"i64.add":          (*synth.FuncBuilder).I64Add,
	"i64.sub":          (*synth.FuncBuilder).I64Sub,
	"i64.mul":          (*synth.FuncBuilder).I64Mul,
	"i64.and":          (*synth.FuncBuilder).I64And,
	"i64.or":           (*synth.FuncBuilder).I64Or,
	"i64.xor":          (*synth.FuncBuilder).I64Xor,
	"i64.shl":          (*synth.FuncBuilder).I64Shl,
	"i64.shr_u":        (*synth.FuncBuilder).I64ShrU,
	"i32.wrap_i64":     (*synth.FuncBuilder).I32WrapI64,
	"i64.extend_i32_u": (*synth.FuncBuilder).I64ExtendI32U,
}

var localOps = map[string]func(*synth.FuncBuilder, synth.LocalRef) *synth.FuncBuilder{
	"local.get": (*synth.FuncBuilder).LocalGet,
	"local.set": (*synth.FuncBuilder).LocalSet,
	"local.tee": (*synth.FuncBuilder).LocalTee,
}

var blockOps = map[string]func(*synth.FuncBuilder, synth.BlockType) *synth.FuncBuilder{
	"block": (*synth.FuncBuilder).Block,
	"loop":  (*synth.FuncBuilder).Loop,
	"if":    (*synth.FuncBuilder).If,
}

var branchOps = map[string]func(*synth.FuncBuilder, uint32) *synth.FuncBuilder{
	"br":    (*synth.FuncBuilder).Br,
	"br_if": (*synth.FuncBuilder).BrIf,
}

// Mnemonics returns every instruction a recipe body accepts.
func Mnemonics() []string {
	names := []string{"i64.const", "call"}
	for name := range plainOps {
		names = append(names, name)
	}
	for name := range localOps {
		names = append(names, name)
	}
	for name := range blockOps {
		names = append(names, name)
	}
	for name := range branchOps {
		names = append(names, name)
	}
	return names
}

func compileOp(line string, fn Func, symbols map[string]bool) (emitFunc, *errors.Error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, errors.InvalidInput(errors.PhaseLoad, "empty instruction")
	}
	name, args := fields[0], fields[1:]

	if op, ok := plainOps[name]; ok {
		if err := wantArgs(name, args, 0); err != nil {
			return nil, err
		}
		return func(f *synth.FuncBuilder, _ map[string]synth.FuncRef) { op(f) }, nil
	}

	if op, ok := localOps[name]; ok {
		if err := wantArgs(name, args, 1); err != nil {
			return nil, err
		}
		idx, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return nil, badImmediate(name, args[0], err)
		}
		if idx >= uint64(fn.Arity)+uint64(fn.Locals) {
			return nil, errors.OutOfBounds(errors.PhaseLoad, nil, int(idx), int(fn.Arity+fn.Locals))
		}
		l := synth.LocalRef(idx)
		return func(f *synth.FuncBuilder, _ map[string]synth.FuncRef) { op(f, l) }, nil
	}

	if op, ok := blockOps[name]; ok {
		bt := synth.BlockVoid
		switch {
		case len(args) == 0:
		case len(args) == 1 && args[0] == "i64":
			bt = synth.BlockI64
		default:
			return nil, errors.InvalidInput(errors.PhaseLoad,
				fmt.Sprintf("%s takes an optional i64 result type, got %q", name, strings.Join(args, " ")))
		}
		return func(f *synth.FuncBuilder, _ map[string]synth.FuncRef) { op(f, bt) }, nil
	}

	if op, ok := branchOps[name]; ok {
		if err := wantArgs(name, args, 1); err != nil {
			return nil, err
		}
		label, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return nil, badImmediate(name, args[0], err)
		}
		l := uint32(label)
		return func(f *synth.FuncBuilder, _ map[string]synth.FuncRef) { op(f, l) }, nil
	}

	switch name {
	case "i64.const":
		if err := wantArgs(name, args, 1); err != nil {
			return nil, err
		}
		v, err := strconv.ParseInt(args[0], 0, 64)
		if err != nil {
			return nil, badImmediate(name, args[0], err)
		}
		return func(f *synth.FuncBuilder, _ map[string]synth.FuncRef) { f.I64Const(v) }, nil

	case "call":
		if err := wantArgs(name, args, 1); err != nil {
			return nil, err
		}
		target := args[0]
		if !symbols[target] {
			return nil, errors.New(errors.PhaseLoad, errors.KindNotFound).
				Value(target).
				Detail("unknown function %q", target).
				Build()
		}
		return func(f *synth.FuncBuilder, refs map[string]synth.FuncRef) { f.Call(refs[target]) }, nil
	}

	return nil, errors.Unsupported(errors.PhaseLoad, fmt.Sprintf("instruction %q", name))
}

func wantArgs(name string, args []string, n int) *errors.Error {
	if len(args) != n {
		return errors.InvalidInput(errors.PhaseLoad,
			fmt.Sprintf("%s takes %d immediate(s), got %d", name, n, len(args)))
	}
	return nil
}

func badImmediate(name, arg string, err error) *errors.Error {
	return errors.New(errors.PhaseLoad, errors.KindInvalidInput).
		Value(arg).
		Cause(err).
		Detail("%s: bad immediate %q", name, arg).
		Build()
}
