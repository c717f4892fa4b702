package synth

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-synth/errors"
	"github.com/wippyai/wasm-synth/wasm"
	"github.com/wippyai/wasm-synth/wasm/internal/binary"
)

// section is an append-only section buffer holding encoded entries
// and their count. The count prefix is written at Finish.
type section struct {
	buf   binary.Writer
	count uint32
}

func (s *section) payload() []byte {
	var w binary.Writer
	w.WriteU32(s.count)
	w.WriteBytes(s.buf.Bytes())
	return w.Bytes()
}

// ModuleBuilder assembles a module section by section.
//
// A builder is owned by exactly one party at a time. Func lends it to a
// FuncBuilder until FuncBuilder.Finish hands it back; Finish consumes it.
// Any other use in those states panics.
type ModuleBuilder struct {
	logger    *zap.Logger
	validator Validator

	// meta holds the encoded metadata custom section, header included.
	meta []byte

	types    section
	imports  section
	funcs    section
	memories section
	exports  section
	codes    section

	typeRefs   map[Arity]TypeRef
	importRefs map[importKey]FuncRef

	lent     bool
	finished bool
}

// NewModuleBuilder creates a builder with the metadata section queued and
// one default linear memory (1 page minimum, no maximum) declared.
func NewModuleBuilder(opts ...Option) *ModuleBuilder {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	b := &ModuleBuilder{
		logger:     cfg.logger,
		validator:  cfg.validator,
		typeRefs:   make(map[Arity]TypeRef),
		importRefs: make(map[importKey]FuncRef),
	}

	var meta binary.Writer
	wasm.WriteCustomSection(&meta, wasm.CustomSection{Name: EnvMetaSectionName, Data: cfg.meta})
	b.meta = meta.Bytes()

	wasm.WriteMemoryType(&b.memories.buf, wasm.MemoryType{Limits: wasm.Limits{Min: 1}})
	b.memories.count++

	return b
}

// FuncType returns the type for functions of the given arity, adding it
// to the type section on first use.
func (b *ModuleBuilder) FuncType(arity Arity) TypeRef {
	b.checkOwned("FuncType")
	return b.funcType(arity)
}

// ImportFunc returns the function reference for the import
// (module, name, arity), adding it to the import section on first use.
// It panics if any local function has been defined.
func (b *ModuleBuilder) ImportFunc(module, name string, arity Arity) FuncRef {
	b.checkOwned("ImportFunc")
	return b.importFunc(module, name, arity)
}

// DefineFunc declares a local function whose code section entry is body:
// the locals vector followed by the instructions, end opcode included.
// Most callers use Func instead.
func (b *ModuleBuilder) DefineFunc(arity Arity, body []byte) FuncRef {
	b.checkOwned("DefineFunc")
	return b.defineFunc(arity, body)
}

// ExportFunc exports ref under name. Names are not deduplicated.
func (b *ModuleBuilder) ExportFunc(ref FuncRef, name string) {
	b.checkOwned("ExportFunc")
	wasm.WriteExport(&b.exports.buf, wasm.Export{Name: name, Kind: wasm.KindFunc, Idx: uint32(ref)})
	b.exports.count++
}

// Func lends the builder to a new FuncBuilder for a function of the given
// arity with nLocals additional i64 locals. The builder is returned by
// FuncBuilder.Finish. It panics if nLocals exceeds wasm.MaxLocals or the
// local index space does not fit in a uint32.
func (b *ModuleBuilder) Func(arity Arity, nLocals uint32) *FuncBuilder {
	b.checkOwned("Func")
	if uint64(nLocals) > wasm.MaxLocals || uint64(arity)+uint64(nLocals) > math.MaxUint32 {
		panic(errors.OutOfBounds(errors.PhaseAssemble, []string{"locals"}, int(nLocals), int(wasm.MaxLocals)))
	}
	b.lent = true
	return &FuncBuilder{
		mb:      b,
		arity:   arity,
		nLocals: nLocals,
	}
}

// Finish consumes the builder, serializes the module and validates it.
// A validation failure returns an *errors.Error with kind invalid_module
// and no bytes.
func (b *ModuleBuilder) Finish(ctx context.Context) ([]byte, error) {
	b.checkOwned("Finish")
	b.finished = true

	out := b.encode()

	if b.validator == nil {
		return out, nil
	}
	if err := b.validator.Validate(ctx, out); err != nil {
		b.logger.Warn("module failed validation",
			zap.String("validator", b.validator.Name()),
			zap.Int("size", len(out)),
			zap.Error(err))
		return nil, errors.InvalidModule(b.validator.Name(), err)
	}
	return out, nil
}

// MustFinish is like Finish but panics if validation fails.
func (b *ModuleBuilder) MustFinish(ctx context.Context) []byte {
	out, err := b.Finish(ctx)
	if err != nil {
		panic(err)
	}
	return out
}

// NumTypes returns the number of entries in the type section.
func (b *ModuleBuilder) NumTypes() int { return int(b.types.count) }

// NumImports returns the number of imported functions.
func (b *ModuleBuilder) NumImports() int { return int(b.imports.count) }

// NumFuncs returns the number of locally defined functions.
func (b *ModuleBuilder) NumFuncs() int { return int(b.funcs.count) }

// NumCodes returns the number of code section entries. It always equals NumFuncs.
func (b *ModuleBuilder) NumCodes() int { return int(b.codes.count) }

// NumExports returns the number of exports.
func (b *ModuleBuilder) NumExports() int { return int(b.exports.count) }

func (b *ModuleBuilder) funcType(arity Arity) TypeRef {
	if ref, ok := b.typeRefs[arity]; ok {
		return ref
	}

	params := make([]wasm.ValType, arity)
	for i := range params {
		params[i] = wasm.ValI64
	}
	wasm.WriteFuncType(&b.types.buf, wasm.FuncType{
		Params:  params,
		Results: []wasm.ValType{wasm.ValI64},
	})

	ref := TypeRef(b.types.count)
	b.types.count++
	b.typeRefs[arity] = ref
	return ref
}

func (b *ModuleBuilder) importFunc(module, name string, arity Arity) FuncRef {
	if b.funcs.count != 0 {
		panic(errors.Sequence("import %s.%s after %d local functions were defined", module, name, b.funcs.count))
	}

	key := importKey{module: module, name: name, arity: arity}
	if ref, ok := b.importRefs[key]; ok {
		return ref
	}

	ref := FuncRef(b.imports.count)
	ty := b.funcType(arity)
	wasm.WriteImport(&b.imports.buf, wasm.Import{
		Module: module,
		Name:   name,
		Desc:   wasm.ImportDesc{Kind: wasm.KindFunc, TypeIdx: uint32(ty)},
	})
	b.imports.count++
	b.importRefs[key] = ref
	return ref
}

func (b *ModuleBuilder) defineFunc(arity Arity, body []byte) FuncRef {
	ty := b.funcType(arity)
	if b.funcs.count != b.codes.count {
		panic(errors.Invariant("function section has %d entries, code section has %d", b.funcs.count, b.codes.count))
	}

	ref := FuncRef(b.imports.count + b.funcs.count)

	b.funcs.buf.WriteU32(uint32(ty))
	b.funcs.count++

	b.codes.buf.WriteLen(len(body))
	b.codes.buf.WriteBytes(body)
	b.codes.count++

	return ref
}

func (b *ModuleBuilder) encode() []byte {
	var w binary.Writer
	w.WriteU32LE(wasm.Magic)
	w.WriteU32LE(wasm.Version)
	w.WriteBytes(b.meta)

	for _, s := range []struct {
		sec *section
		id  byte
	}{
		{&b.types, wasm.SectionType},
		{&b.imports, wasm.SectionImport},
		{&b.funcs, wasm.SectionFunction},
		{&b.memories, wasm.SectionMemory},
		{&b.exports, wasm.SectionExport},
		{&b.codes, wasm.SectionCode},
	} {
		if s.sec.count == 0 {
			continue
		}
		payload := s.sec.payload()
		w.WriteSection(s.id, payload)
		b.logger.Debug("wrote section",
			zap.String("section", wasm.SectionName(s.id)),
			zap.Uint32("entries", s.sec.count),
			zap.Int("size", len(payload)))
	}

	return w.Bytes()
}

func (b *ModuleBuilder) checkOwned(op string) {
	switch {
	case b.finished:
		panic(errors.Sequence("%s called on a finished module builder", op))
	case b.lent:
		panic(errors.Sequence("%s called while the module builder is held by a function builder", op))
	}
}
