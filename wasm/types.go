package wasm

// Module represents a WebAssembly module restricted to the sections a
// synthesized artifact carries: types, function imports, functions, memories,
// exports, code and custom sections.
type Module struct {
	Types          []FuncType
	Imports        []Import
	Funcs          []uint32 // Type indices for declared functions
	Memories       []MemoryType
	Exports        []Export
	Code           []FuncBody
	CustomSections []CustomSection

	// Layout records every section in the order it was read.
	Layout []SectionInfo
}

// SectionInfo locates one section within an encoded module.
type SectionInfo struct {
	Name   string // custom section name, empty for known sections
	ID     byte
	Offset int // offset of the section ID byte
	Size   int // payload size, excluding the header
}

// FuncType represents a WebAssembly function signature with parameter and result types.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// ValType represents a WebAssembly value type.
// See constants.go for ValI32, ValI64, ValF32, ValF64.
type ValType byte

func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	default:
		return "unknown"
	}
}

// Import represents an imported item. Only function imports are modeled;
// Desc.Memory is set for memory imports.
type Import struct {
	Desc   ImportDesc
	Module string
	Name   string
}

// ImportDesc describes an imported item.
type ImportDesc struct {
	Memory  *MemoryType
	TypeIdx uint32
	Kind    byte
}

// MemoryType describes a linear memory with size limits.
type MemoryType struct {
	Limits Limits
}

// Limits describes size constraints for memories.
type Limits struct {
	Max      *uint64
	Min      uint64
	Shared   bool
	Memory64 bool
}

// Export describes an exported item.
// Kind uses KindFunc, KindTable, KindMemory or KindGlobal.
type Export struct {
	Name string
	Kind byte
	Idx  uint32
}

// FuncBody represents a function's local declarations and bytecode.
type FuncBody struct {
	Locals []LocalEntry
	Code   []byte // Raw code bytes including end opcode
}

// NumLocals returns the total number of declared locals, excluding parameters.
func (b FuncBody) NumLocals() uint64 {
	var n uint64
	for _, l := range b.Locals {
		n += uint64(l.Count)
	}
	return n
}

// LocalEntry represents a group of local variables with the same type.
type LocalEntry struct {
	Count   uint32
	ValType ValType
}

// CustomSection holds a named custom section's data.
type CustomSection struct {
	Name string
	Data []byte
}

// NumImportedFuncs returns the number of imported functions
func (m *Module) NumImportedFuncs() int {
	count := 0
	for _, imp := range m.Imports {
		if imp.Desc.Kind == KindFunc {
			count++
		}
	}
	return count
}

// NumImportedMemories returns the number of imported memories
func (m *Module) NumImportedMemories() int {
	count := 0
	for _, imp := range m.Imports {
		if imp.Desc.Kind == KindMemory {
			count++
		}
	}
	return count
}

// NumFuncs returns the size of the function index space.
func (m *Module) NumFuncs() int {
	return m.NumImportedFuncs() + len(m.Funcs)
}

// GetFuncType returns the type of a function by its index in the combined
// import-then-local function index space.
func (m *Module) GetFuncType(funcIdx uint32) *FuncType {
	numImported := uint32(m.NumImportedFuncs())
	if funcIdx < numImported {
		for _, imp := range m.Imports {
			if imp.Desc.Kind != KindFunc {
				continue
			}
			if funcIdx == 0 {
				return m.typeAt(imp.Desc.TypeIdx)
			}
			funcIdx--
		}
		return nil
	}
	localIdx := funcIdx - numImported
	if int(localIdx) >= len(m.Funcs) {
		return nil
	}
	return m.typeAt(m.Funcs[localIdx])
}

// FuncName returns the first export name of a function, or "".
func (m *Module) FuncName(funcIdx uint32) string {
	for _, exp := range m.Exports {
		if exp.Kind == KindFunc && exp.Idx == funcIdx {
			return exp.Name
		}
	}
	return ""
}

// CustomSection returns the first custom section with the given name.
func (m *Module) CustomSection(name string) (CustomSection, bool) {
	for _, cs := range m.CustomSections {
		if cs.Name == name {
			return cs, true
		}
	}
	return CustomSection{}, false
}

func (m *Module) typeAt(typeIdx uint32) *FuncType {
	if int(typeIdx) >= len(m.Types) {
		return nil
	}
	return &m.Types[typeIdx]
}
