// Package errors provides structured error types for wasm-synth.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries an entity path, the binary section involved and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseLoad, errors.KindNotFound).
//		Path("funcs", "run", "body", "3").
//		Detail("unknown function %q", "helper").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidModule("wazero", cause)
//	err := errors.Sequence("import %s.%s after local functions", mod, name)
//
// Builder sequencing and invariant breaches are raised as panics carrying
// an *Error; everything else is returned. All errors support errors.Is/As,
// with Is matching on Phase and Kind.
package errors
