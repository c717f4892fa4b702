package synth

// Arity is the number of i64 parameters a function accepts.
type Arity uint32

// TypeRef indexes the module's type section.
type TypeRef uint32

// FuncRef indexes the module's function index space, imports first.
type FuncRef uint32

// LocalRef indexes a function's locals, arguments first.
type LocalRef uint32

// BlockType is the result type of a structured control instruction.
type BlockType byte

const (
	BlockVoid BlockType = 0x40
	BlockI64  BlockType = 0x7E
)

type importKey struct {
	module string
	name   string
	arity  Arity
}
