package recipe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/wasm-synth/errors"
	"github.com/wippyai/wasm-synth/wasm/synth"
)

// Recipe is the YAML description of a module.
type Recipe struct {
	Name    string   `yaml:"name"`
	Meta    *Meta    `yaml:"meta,omitempty"`
	Imports []Import `yaml:"imports"`
	Funcs   []Func   `yaml:"funcs"`
	Exports []Export `yaml:"exports"`
}

// Meta overrides the metadata section's interface version.
type Meta struct {
	InterfaceVersion uint64 `yaml:"interface_version"`
}

// Import declares an imported function.
type Import struct {
	Module string `yaml:"module"`
	Name   string `yaml:"name"`
	Arity  uint32 `yaml:"arity"`
}

// Symbol returns the name calls and exports use to refer to the import.
// Arity is not part of the symbol, so a recipe imports each module.name
// at a single arity.
func (i Import) Symbol() string {
	return i.Module + "." + i.Name
}

// Func defines a local function.
type Func struct {
	Name   string   `yaml:"name"`
	Arity  uint32   `yaml:"arity"`
	Locals uint32   `yaml:"locals"`
	Body   []string `yaml:"body"`
}

// Export exports a function or import under Name.
type Export struct {
	Func string `yaml:"func"`
	Name string `yaml:"name"`
}

// Parse decodes and checks a recipe. Unknown fields are rejected.
func Parse(data []byte) (*Recipe, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var r Recipe
	if err := dec.Decode(&r); err != nil {
		if err == io.EOF {
			return nil, errors.InvalidInput(errors.PhaseParse, "empty recipe")
		}
		return nil, errors.ParseFailed("recipe", err)
	}

	if _, err := r.compile(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Load reads and parses the recipe at path.
func Load(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load("read recipe "+path, err)
	}
	return Parse(data)
}

// Marshal encodes the recipe as YAML.
func (r *Recipe) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Options returns the builder options the recipe itself implies.
func (r *Recipe) Options() []synth.Option {
	if r.Meta == nil {
		return nil
	}
	return []synth.Option{synth.WithMetadata(synth.EnvMetaInterfaceVersion(r.Meta.InterfaceVersion))}
}

// Build assembles the recipe. Options are applied after the recipe's own,
// so callers can override them.
func (r *Recipe) Build(ctx context.Context, opts ...synth.Option) (out []byte, err error) {
	bodies, err := r.compile()
	if err != nil {
		return nil, err
	}

	defer func() {
		if p := recover(); p != nil {
			serr, ok := p.(*errors.Error)
			if !ok {
				panic(p)
			}
			out, err = nil, errors.Wrap(errors.PhaseLoad, serr.Kind, serr, "build recipe "+r.Name)
		}
	}()

	b := synth.NewModuleBuilder(append(r.Options(), opts...)...)

	refs := make(map[string]synth.FuncRef, len(r.Imports)+len(r.Funcs))
	for _, imp := range r.Imports {
		refs[imp.Symbol()] = b.ImportFunc(imp.Module, imp.Name, synth.Arity(imp.Arity))
	}
	for i, fn := range r.Funcs {
		refs[fn.Name] = synth.FuncRef(b.NumImports() + i)
	}

	for i, fn := range r.Funcs {
		f := b.Func(synth.Arity(fn.Arity), fn.Locals)
		for _, op := range bodies[i] {
			op(f, refs)
		}

		var ref synth.FuncRef
		ref, b = f.Finish()
		if ref != refs[fn.Name] {
			panic(errors.Invariant("function %s defined as %d, expected %d", fn.Name, ref, refs[fn.Name]))
		}
	}

	for _, exp := range r.Exports {
		b.ExportFunc(refs[exp.Func], exp.Name)
	}

	out, err = b.Finish(ctx)
	if err != nil {
		return nil, err
	}

	Logger().Debug("built recipe",
		zap.String("recipe", r.Name),
		zap.Int("imports", len(r.Imports)),
		zap.Int("funcs", len(r.Funcs)),
		zap.Int("size", len(out)))
	return out, nil
}

// compile checks names and references and translates every body.
func (r *Recipe) compile() ([][]emitFunc, error) {
	symbols := make(map[string]bool, len(r.Imports)+len(r.Funcs))

	for i, imp := range r.Imports {
		if imp.Module == "" || imp.Name == "" {
			return nil, errors.InvalidData(errors.PhaseLoad, []string{"imports", fmt.Sprint(i)}, "module and name are required")
		}
		if symbols[imp.Symbol()] {
			return nil, errors.InvalidData(errors.PhaseLoad, []string{"imports", fmt.Sprint(i)},
				fmt.Sprintf("duplicate import %s", imp.Symbol()))
		}
		symbols[imp.Symbol()] = true
	}

	for i, fn := range r.Funcs {
		if fn.Name == "" {
			return nil, errors.InvalidData(errors.PhaseLoad, []string{"funcs", fmt.Sprint(i)}, "name is required")
		}
		if symbols[fn.Name] {
			return nil, errors.InvalidData(errors.PhaseLoad, []string{"funcs", fn.Name},
				fmt.Sprintf("duplicate function %s", fn.Name))
		}
		symbols[fn.Name] = true
	}

	for i, exp := range r.Exports {
		if !symbols[exp.Func] {
			return nil, errors.New(errors.PhaseLoad, errors.KindNotFound).
				Path("exports", fmt.Sprint(i)).
				Value(exp.Func).
				Detail("unknown function %q", exp.Func).
				Build()
		}
		if exp.Name == "" {
			return nil, errors.InvalidData(errors.PhaseLoad, []string{"exports", fmt.Sprint(i)}, "name is required")
		}
	}

	bodies := make([][]emitFunc, len(r.Funcs))
	for i, fn := range r.Funcs {
		ops := make([]emitFunc, 0, len(fn.Body))
		for j, line := range fn.Body {
			op, err := compileOp(line, fn, symbols)
			if err != nil {
				err.Path = []string{"funcs", fn.Name, "body", fmt.Sprint(j)}
				return nil, err
			}
			ops = append(ops, op)
		}
		bodies[i] = ops
	}
	return bodies, nil
}
