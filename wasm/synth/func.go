package synth

import (
	"github.com/wippyai/wasm-synth/errors"
	"github.com/wippyai/wasm-synth/wasm"
	"github.com/wippyai/wasm-synth/wasm/internal/binary"
)

// FuncBuilder emits the body of one function while holding its
// ModuleBuilder exclusively. Emitters return the receiver for chaining.
//
// Arguments are locals 0 through arity-1; the extra locals follow.
type FuncBuilder struct {
	mb      *ModuleBuilder
	code    binary.Writer
	arity   Arity
	nLocals uint32
	blocks  []block
}

// block is an open structured instruction.
type block struct {
	opcode  byte
	hasElse bool
}

// Arity returns the number of arguments of the function being built.
func (f *FuncBuilder) Arity() Arity { return f.arity }

// Arg returns the local holding argument i.
func (f *FuncBuilder) Arg(i uint32) LocalRef {
	if i >= uint32(f.arity) {
		panic(errors.OutOfBounds(errors.PhaseAssemble, []string{"arg"}, int(i), int(f.arity)))
	}
	return LocalRef(i)
}

// Local returns extra local i.
func (f *FuncBuilder) Local(i uint32) LocalRef {
	if uint64(i) >= uint64(f.nLocals) {
		panic(errors.OutOfBounds(errors.PhaseAssemble, []string{"local"}, int(i), int(f.nLocals)))
	}
	return LocalRef(uint32(f.arity) + i)
}

// Module returns the builder this function is being emitted into, for
// read-only inspection.
func (f *FuncBuilder) Module() *ModuleBuilder { return f.owner() }

// Finish terminates the body, defines the function and hands the
// ModuleBuilder back to the caller.
func (f *FuncBuilder) Finish() (FuncRef, *ModuleBuilder) {
	mb := f.owner()
	if len(f.blocks) != 0 {
		panic(errors.Sequence("function body has %d unterminated blocks", len(f.blocks)))
	}

	var body binary.Writer
	if f.nLocals > 0 {
		body.WriteU32(1)
		body.WriteU32(f.nLocals)
		body.Byte(byte(wasm.ValI64))
	} else {
		body.WriteU32(0)
	}
	body.WriteBytes(f.code.Bytes())
	body.Byte(wasm.OpEnd)

	mb.lent = false
	f.mb = nil
	return mb.defineFunc(f.arity, body.Bytes()), mb
}

// CallImport imports (module, name, arity) through the held builder and
// calls it. The usual import ordering rule applies.
func (f *FuncBuilder) CallImport(module, name string, arity Arity) *FuncBuilder {
	ref := f.owner().importFunc(module, name, arity)
	return f.Call(ref)
}

func (f *FuncBuilder) Call(ref FuncRef) *FuncBuilder {
	f.op(wasm.OpCall)
	f.code.WriteU32(uint32(ref))
	return f
}

func (f *FuncBuilder) I64Const(v int64) *FuncBuilder {
	f.op(wasm.OpI64Const)
	f.code.WriteS64(v)
	return f
}

func (f *FuncBuilder) LocalGet(l LocalRef) *FuncBuilder { return f.local(wasm.OpLocalGet, l) }
func (f *FuncBuilder) LocalSet(l LocalRef) *FuncBuilder { return f.local(wasm.OpLocalSet, l) }
func (f *FuncBuilder) LocalTee(l LocalRef) *FuncBuilder { return f.local(wasm.OpLocalTee, l) }

func (f *FuncBuilder) Drop() *FuncBuilder        { return f.op(wasm.OpDrop) }
func (f *FuncBuilder) Select() *FuncBuilder      { return f.op(wasm.OpSelect) }
func (f *FuncBuilder) Return() *FuncBuilder      { return f.op(wasm.OpReturn) }
func (f *FuncBuilder) Unreachable() *FuncBuilder { return f.op(wasm.OpUnreachable) }
func (f *FuncBuilder) Nop() *FuncBuilder         { return f.op(wasm.OpNop) }

// Block opens a block. Branches to it jump past its End.
func (f *FuncBuilder) Block(bt BlockType) *FuncBuilder { return f.open(wasm.OpBlock, bt) }

// Loop opens a loop. Branches to it jump back to its start.
func (f *FuncBuilder) Loop(bt BlockType) *FuncBuilder { return f.open(wasm.OpLoop, bt) }

// If opens a conditional on the i32 on top of the stack.
func (f *FuncBuilder) If(bt BlockType) *FuncBuilder { return f.open(wasm.OpIf, bt) }

// Else starts the alternative arm of the innermost block, which must be
// an If that has no Else yet.
func (f *FuncBuilder) Else() *FuncBuilder {
	n := len(f.blocks)
	if n == 0 {
		panic(errors.Sequence("else outside of a block"))
	}
	top := &f.blocks[n-1]
	if top.opcode != wasm.OpIf {
		panic(errors.Sequence("else in %s", wasm.OpcodeName(top.opcode)))
	}
	if top.hasElse {
		panic(errors.Sequence("second else in if"))
	}
	f.op(wasm.OpElse)
	top.hasElse = true
	return f
}

// End closes the innermost open block. The function's own end is added
// by Finish.
func (f *FuncBuilder) End() *FuncBuilder {
	if len(f.blocks) == 0 {
		panic(errors.Sequence("end without an open block"))
	}
	f.op(wasm.OpEnd)
	f.blocks = f.blocks[:len(f.blocks)-1]
	return f
}

func (f *FuncBuilder) Br(label uint32) *FuncBuilder   { return f.branch(wasm.OpBr, label) }
func (f *FuncBuilder) BrIf(label uint32) *FuncBuilder { return f.branch(wasm.OpBrIf, label) }

func (f *FuncBuilder) I64Add() *FuncBuilder  { return f.op(wasm.OpI64Add) }
func (f *FuncBuilder) I64Sub() *FuncBuilder  { return f.op(wasm.OpI64Sub) }
func (f *FuncBuilder) I64Mul() *FuncBuilder  { return f.op(wasm.OpI64Mul) }
func (f *FuncBuilder) I64And() *FuncBuilder  { return f.op(wasm.OpI64And) }
func (f *FuncBuilder) I64Or() *FuncBuilder   { return f.op(wasm.OpI64Or) }
func (f *FuncBuilder) I64Xor() *FuncBuilder  { return f.op(wasm.OpI64Xor) }
func (f *FuncBuilder) I64Shl() *FuncBuilder  { return f.op(wasm.OpI64Shl) }
func (f *FuncBuilder) I64ShrU() *FuncBuilder { return f.op(wasm.OpI64ShrU) }

func (f *FuncBuilder) I64Eqz() *FuncBuilder { return f.op(wasm.OpI64Eqz) }
func (f *FuncBuilder) I64Eq() *FuncBuilder  { return f.op(wasm.OpI64Eq) }
func (f *FuncBuilder) I64Ne() *FuncBuilder  { return f.op(wasm.OpI64Ne) }
func (f *FuncBuilder) I64LtU() *FuncBuilder { return f.op(wasm.OpI64LtU) }
func (f *FuncBuilder) I64GtU() *FuncBuilder { return f.op(wasm.OpI64GtU) }

func (f *FuncBuilder) I32WrapI64() *FuncBuilder    { return f.op(wasm.OpI32WrapI64) }
func (f *FuncBuilder) I64ExtendI32U() *FuncBuilder { return f.op(wasm.OpI64ExtendI32U) }

func (f *FuncBuilder) op(opcode byte) *FuncBuilder {
	f.owner()
	f.code.Byte(opcode)
	return f
}

func (f *FuncBuilder) local(opcode byte, l LocalRef) *FuncBuilder {
	n := uint64(f.arity) + uint64(f.nLocals)
	if uint64(l) >= n {
		panic(errors.OutOfBounds(errors.PhaseAssemble, []string{"local"}, int(l), int(n)))
	}
	f.op(opcode)
	f.code.WriteU32(uint32(l))
	return f
}

func (f *FuncBuilder) open(opcode byte, bt BlockType) *FuncBuilder {
	f.op(opcode)
	f.code.Byte(byte(bt))
	f.blocks = append(f.blocks, block{opcode: opcode})
	return f
}

func (f *FuncBuilder) branch(opcode byte, label uint32) *FuncBuilder {
	if uint64(label) > uint64(len(f.blocks)) {
		panic(errors.OutOfBounds(errors.PhaseAssemble, []string{"label"}, int(label), len(f.blocks)+1))
	}
	f.op(opcode)
	f.code.WriteU32(label)
	return f
}

func (f *FuncBuilder) owner() *ModuleBuilder {
	if f.mb == nil {
		panic(errors.Sequence("function builder used after Finish"))
	}
	return f.mb
}
