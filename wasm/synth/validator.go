package synth

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"

	"github.com/wippyai/wasm-synth/wasm"
)

// Validator checks a finished module for conformance.
type Validator interface {
	Name() string
	Validate(ctx context.Context, data []byte) error
}

// DefaultValidator returns the validator used by builders created
// without WithValidator: structural checks followed by wazero compilation.
func DefaultValidator() Validator {
	return ChainValidator{StructuralValidator{}, WazeroValidator{}}
}

// StructuralValidator decodes the module and checks index bounds,
// function/code parity, memory limits, export name uniqueness and section
// ordering. It does not type-check function bodies.
type StructuralValidator struct{}

func (StructuralValidator) Name() string { return "structural" }

func (StructuralValidator) Validate(_ context.Context, data []byte) error {
	_, err := wasm.ParseModuleValidate(data)
	return err
}

// WazeroValidator compiles the module with wazero, which performs full
// validation including function bodies. Imports are not resolved.
type WazeroValidator struct {
	// Config overrides the runtime configuration. Defaults to the interpreter.
	Config wazero.RuntimeConfig
}

func (WazeroValidator) Name() string { return "wazero" }

func (v WazeroValidator) Validate(ctx context.Context, data []byte) error {
	cfg := v.Config
	if cfg == nil {
		cfg = wazero.NewRuntimeConfigInterpreter()
	}
	r := wazero.NewRuntimeWithConfig(ctx, cfg)
	defer r.Close(ctx)

	compiled, err := r.CompileModule(ctx, data)
	if err != nil {
		return err
	}
	return compiled.Close(ctx)
}

// ChainValidator runs validators in order and stops at the first failure.
type ChainValidator []Validator

func (c ChainValidator) Name() string { return "chain" }

func (c ChainValidator) Validate(ctx context.Context, data []byte) error {
	for _, v := range c {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := v.Validate(ctx, data); err != nil {
			return fmt.Errorf("%s: %w", v.Name(), err)
		}
	}
	return nil
}
