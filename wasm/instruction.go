package wasm

import (
	"fmt"
	"strings"

	"github.com/wippyai/wasm-synth/wasm/internal/binary"
)

// Instruction represents a decoded WebAssembly instruction
type Instruction struct {
	Imm    interface{}
	Opcode byte
}

// BlockImm holds the block type for block, loop and if instructions.
type BlockImm struct {
	Type int32 // Block type: -64=void, -1=i32, -2=i64, >=0=type index
}

// BranchImm holds the label index for br and br_if instructions.
type BranchImm struct {
	LabelIdx uint32
}

// CallImm holds the function index for call instruction.
type CallImm struct {
	FuncIdx uint32
}

// LocalImm holds the local index for local.get, local.set, local.tee.
type LocalImm struct {
	LocalIdx uint32
}

// I32Imm holds the constant value for i32.const instruction.
type I32Imm struct {
	Value int32
}

// I64Imm holds the constant value for i64.const instruction.
type I64Imm struct {
	Value int64
}

var opcodeNames = map[byte]string{
	OpUnreachable:   "unreachable",
	OpNop:           "nop",
	OpBlock:         "block",
	OpLoop:          "loop",
	OpIf:            "if",
	OpElse:          "else",
	OpEnd:           "end",
	OpBr:            "br",
	OpBrIf:          "br_if",
	OpReturn:        "return",
	OpCall:          "call",
	OpDrop:          "drop",
	OpSelect:        "select",
	OpLocalGet:      "local.get",
	OpLocalSet:      "local.set",
	OpLocalTee:      "local.tee",
	OpI32Const:      "i32.const",
	OpI64Const:      "i64.const",
	OpI64Eqz:        "i64.eqz",
	OpI64Eq:         "i64.eq",
	OpI64Ne:         "i64.ne",
	OpI64LtU:        "i64.lt_u",
	OpI64GtU:        "i64.gt_u",
	OpI64Add:        "i64.add",
	OpI64Sub:        "i64.sub",
	OpI64Mul:        "i64.mul",
	OpI64And:        "i64.and",
	OpI64Or:         "i64.or",
	OpI64Xor:        "i64.xor",
	OpI64Shl:        "i64.shl",
	OpI64ShrU:       "i64.shr_u",
	OpI32WrapI64:    "i32.wrap_i64",
	OpI64ExtendI32U: "i64.extend_i32_u",
}

// OpcodeName returns the text-format mnemonic of an opcode.
func OpcodeName(op byte) string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("0x%02x", op)
}

// GetCallTarget returns the function index for call instructions.
func (i Instruction) GetCallTarget() (uint32, bool) {
	if i.Opcode != OpCall {
		return 0, false
	}
	imm, ok := i.Imm.(CallImm)
	return imm.FuncIdx, ok
}

// String renders the instruction in text-format style, e.g. "local.get 0".
func (i Instruction) String() string {
	name := OpcodeName(i.Opcode)
	switch imm := i.Imm.(type) {
	case BlockImm:
		switch imm.Type {
		case BlockTypeVoid:
			return name
		case BlockTypeI32:
			return name + " (result i32)"
		case BlockTypeI64:
			return name + " (result i64)"
		default:
			return fmt.Sprintf("%s (type %d)", name, imm.Type)
		}
	case BranchImm:
		return fmt.Sprintf("%s %d", name, imm.LabelIdx)
	case CallImm:
		return fmt.Sprintf("%s %d", name, imm.FuncIdx)
	case LocalImm:
		return fmt.Sprintf("%s %d", name, imm.LocalIdx)
	case I32Imm:
		return fmt.Sprintf("%s %d", name, imm.Value)
	case I64Imm:
		return fmt.Sprintf("%s %d", name, imm.Value)
	default:
		return name
	}
}

// DecodeInstructions decodes the instruction stream of a function body.
// Only the integer subset produced by the synth function builder is
// understood; any other opcode is reported as unsupported.
func DecodeInstructions(code []byte) ([]Instruction, error) {
	r := binary.NewReader(code)
	var instrs []Instruction

	for r.Len() > 0 {
		pos := r.Position()
		op, _ := r.ReadByte()
		instr := Instruction{Opcode: op}

		var err error
		switch op {
		case OpBlock, OpLoop, OpIf:
			var bt int64
			bt, err = r.ReadS64()
			instr.Imm = BlockImm{Type: int32(bt)}
		case OpBr, OpBrIf:
			var idx uint32
			idx, err = r.ReadU32()
			instr.Imm = BranchImm{LabelIdx: idx}
		case OpCall:
			var idx uint32
			idx, err = r.ReadU32()
			instr.Imm = CallImm{FuncIdx: idx}
		case OpLocalGet, OpLocalSet, OpLocalTee:
			var idx uint32
			idx, err = r.ReadU32()
			instr.Imm = LocalImm{LocalIdx: idx}
		case OpI32Const:
			var v int64
			v, err = r.ReadS64()
			instr.Imm = I32Imm{Value: int32(v)}
		case OpI64Const:
			var v int64
			v, err = r.ReadS64()
			instr.Imm = I64Imm{Value: v}
		default:
			if _, ok := opcodeNames[op]; !ok {
				return nil, fmt.Errorf("at offset %d: unsupported opcode 0x%02x", pos, op)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", OpcodeName(op), err)
		}
		instrs = append(instrs, instr)
	}

	return instrs, nil
}

// Disassemble renders a function body as indented text-format lines.
func Disassemble(code []byte) ([]string, error) {
	instrs, err := DecodeInstructions(code)
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(instrs))
	depth := 0
	for _, in := range instrs {
		if in.Opcode == OpEnd || in.Opcode == OpElse {
			depth = max(depth-1, 0)
		}
		lines = append(lines, strings.Repeat("  ", depth)+in.String())
		switch in.Opcode {
		case OpBlock, OpLoop, OpIf, OpElse:
			depth++
		}
	}
	return lines, nil
}
