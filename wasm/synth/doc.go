// Package synth assembles WebAssembly modules from a small declarative API.
//
// Every function in a synthesized module takes some number of i64 arguments
// (its Arity) and returns a single i64, so a function type is fully described
// by its arity. A ModuleBuilder owns the section buffers and deduplicates
// types by arity and imports by (module, name, arity):
//
//	b := synth.NewModuleBuilder()
//	log := b.ImportFunc("env", "log", 1)
//
//	f := b.Func(1, 0)
//	f.LocalGet(f.Arg(0)).Call(log)
//	ref, b := f.Finish()
//
//	b.ExportFunc(ref, "run")
//	wasm, err := b.Finish(ctx)
//
// Imports occupy the low end of the function index space, so every import
// must be registered before the first local function is defined. Calling
// ImportFunc afterwards, using a builder while a FuncBuilder holds it, or
// reusing a builder after Finish panics with an *errors.Error of kind
// sequence.
//
// Finish writes the metadata custom section first, then the type, import,
// function, memory, export and code sections, omitting empty ones. The
// memory section is always present. The result is checked by the configured
// Validator before it is returned.
package synth
