// Package wasm provides a compact WebAssembly binary model, parser, encoder
// and structural validator for the module subset synthesized by this
// repository: function types, function and memory imports, function
// declarations, memories, exports, code and custom sections.
//
// # Parsing
//
//	module, err := wasm.ParseModule(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Sections outside the subset (tables, globals, element and data segments)
// are rejected with ErrUnsupportedSection. Module.Layout records the offset
// and size of every section in file order.
//
// # Encoding
//
// WriteFuncType, WriteImport, WriteMemoryType, WriteExport and
// WriteCustomSection write single section entries. The synth module
// builder assembles complete modules from them.
//
// # Validation
//
//	if err := module.Validate(); err != nil {
//	    log.Printf("invalid module: %v", err)
//	}
//
// Validation checks:
//   - Type indices are in bounds
//   - Function and code sections have the same length
//   - At most one memory, with limits inside the page bounds
//   - Export names are unique and export indices are in bounds
//   - Function bodies are terminated by end
//
// # Instructions
//
// DecodeInstructions and Disassemble understand the integer instruction
// subset used by the synth function builder:
//
//	lines, _ := wasm.Disassemble(module.Code[0].Code)
package wasm
