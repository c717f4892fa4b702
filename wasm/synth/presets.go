package synth

import (
	"context"
	"fmt"

	"github.com/wippyai/wasm-synth/errors"
)

// RunExport is the export name used by every preset.
const RunExport = "run"

// Preset builds a ready-made module.
type Preset func(ctx context.Context, opts ...Option) ([]byte, error)

// Presets returns the named presets with default parameters.
func Presets() map[string]Preset {
	return map[string]Preset{
		"identity": func(ctx context.Context, opts ...Option) ([]byte, error) {
			return Identity(ctx, 1, opts...)
		},
		"call-chain": func(ctx context.Context, opts ...Option) ([]byte, error) {
			return CallChain(ctx, 16, opts...)
		},
		"import-fanout": func(ctx context.Context, opts ...Option) ([]byte, error) {
			return ImportFanout(ctx, "env", 8, opts...)
		},
		"countdown-loop": CountdownLoop,
	}
}

// Identity builds a module exporting run, a function of the given arity
// returning its first argument, or 0 when arity is 0.
func Identity(ctx context.Context, arity Arity, opts ...Option) ([]byte, error) {
	b := NewModuleBuilder(opts...)

	f := b.Func(arity, 0)
	if arity > 0 {
		f.LocalGet(f.Arg(0))
	} else {
		f.I64Const(0)
	}
	ref, b := f.Finish()

	b.ExportFunc(ref, RunExport)
	return b.Finish(ctx)
}

// CallChain builds depth functions where each calls the previous one and
// adds 1. run(x) returns x + depth.
func CallChain(ctx context.Context, depth int, opts ...Option) ([]byte, error) {
	if depth < 1 {
		return nil, errors.InvalidInput(errors.PhaseAssemble, fmt.Sprintf("call chain depth must be positive, got %d", depth))
	}

	b := NewModuleBuilder(opts...)

	f := b.Func(1, 0)
	f.LocalGet(f.Arg(0)).I64Const(1).I64Add()
	prev, b := f.Finish()

	for i := 1; i < depth; i++ {
		f := b.Func(1, 0)
		f.LocalGet(f.Arg(0)).Call(prev).I64Const(1).I64Add()
		prev, b = f.Finish()
	}

	b.ExportFunc(prev, RunExport)
	return b.Finish(ctx)
}

// ImportFanout imports n unary functions f0..fn-1 from module and exports
// run(x) returning the sum of fi(x).
func ImportFanout(ctx context.Context, module string, n int, opts ...Option) ([]byte, error) {
	if n < 0 {
		return nil, errors.InvalidInput(errors.PhaseAssemble, fmt.Sprintf("import count must not be negative, got %d", n))
	}

	b := NewModuleBuilder(opts...)

	refs := make([]FuncRef, n)
	for i := range refs {
		refs[i] = b.ImportFunc(module, FanoutImportName(i), 1)
	}

	f := b.Func(1, 0)
	f.I64Const(0)
	for _, ref := range refs {
		f.LocalGet(f.Arg(0)).Call(ref).I64Add()
	}
	ref, b := f.Finish()

	b.ExportFunc(ref, RunExport)
	return b.Finish(ctx)
}

// FanoutImportName returns the name ImportFanout gives its i-th import.
func FanoutImportName(i int) string {
	return fmt.Sprintf("f%d", i)
}

// CountdownLoop builds run(n), which decrements n to zero in a loop and
// returns the number of iterations.
func CountdownLoop(ctx context.Context, opts ...Option) ([]byte, error) {
	b := NewModuleBuilder(opts...)

	f := b.Func(1, 1)
	n, acc := f.Arg(0), f.Local(0)
	f.Block(BlockVoid).
		Loop(BlockVoid).
		LocalGet(n).I64Eqz().BrIf(1).
		LocalGet(acc).I64Const(1).I64Add().LocalSet(acc).
		LocalGet(n).I64Const(1).I64Sub().LocalSet(n).
		Br(0).
		End().
		End().
		LocalGet(acc)
	ref, b := f.Finish()

	b.ExportFunc(ref, RunExport)
	return b.Finish(ctx)
}
