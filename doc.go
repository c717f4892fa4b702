// Package wasmsynth assembles WebAssembly modules programmatically.
//
// It produces small, structurally valid modules for tests and benchmarks
// without hand-writing bytecode. Every function takes some number of i64
// arguments and returns one i64, so a function type is identified by its
// arity alone.
//
// # Architecture Overview
//
//	wasmsynth/
//	├── wasm/            Core WASM binary model: decode, encode, validate
//	│   └── synth/       Module and function builders, validators, presets
//	├── recipe/          YAML module descriptions built through synth
//	├── config/          CLI configuration (viper)
//	├── errors/          Structured error types
//	└── cmd/synth/       Command line builder and section browser
//
// # Quick Start
//
//	b := synth.NewModuleBuilder()
//	f := b.Func(2, 0)
//	f.LocalGet(f.Arg(0)).LocalGet(f.Arg(1)).I64Add()
//	ref, b := f.Finish()
//	b.ExportFunc(ref, "run")
//
//	wasm, err := b.Finish(ctx)
//
// Finish writes the metadata custom section first and the remaining
// sections in binary-format order, then validates the result with the
// structural validator and wazero before returning it.
package wasmsynth
