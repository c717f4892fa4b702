package wasm

import "fmt"

// MaxLocals caps the number of locals a single function may declare.
const MaxLocals uint64 = 50000

// Validate checks the module for structural validity.
func (m *Module) Validate() error {
	if err := m.validateTypes(); err != nil {
		return err
	}
	if err := m.validateTypeIndices(); err != nil {
		return err
	}
	if err := m.validateCodeCount(); err != nil {
		return err
	}
	if err := m.validateMemories(); err != nil {
		return err
	}
	if err := m.validateExports(); err != nil {
		return err
	}
	if err := m.validateBodies(); err != nil {
		return err
	}
	return nil
}

// ParseModuleValidate parses a WebAssembly binary and validates it.
func ParseModuleValidate(data []byte) (*Module, error) {
	m, err := ParseModule(data)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Module) validateTypes() error {
	for i, ft := range m.Types {
		if len(ft.Results) > 1 {
			return fmt.Errorf("type %d has %d results, multi-value is not supported", i, len(ft.Results))
		}
	}
	return nil
}

func (m *Module) validateTypeIndices() error {
	numTypes := uint32(len(m.Types))

	for i, typeIdx := range m.Funcs {
		if typeIdx >= numTypes {
			return fmt.Errorf("function %d references invalid type index %d (types: %d)", i, typeIdx, numTypes)
		}
	}

	for i, imp := range m.Imports {
		if imp.Desc.Kind == KindFunc && imp.Desc.TypeIdx >= numTypes {
			return fmt.Errorf("import %d (%s.%s) references invalid type index %d", i, imp.Module, imp.Name, imp.Desc.TypeIdx)
		}
	}

	return nil
}

func (m *Module) validateCodeCount() error {
	if len(m.Code) != len(m.Funcs) {
		return fmt.Errorf("code section has %d entries but function section has %d",
			len(m.Code), len(m.Funcs))
	}
	return nil
}

func (m *Module) validateMemories() error {
	total := m.NumImportedMemories() + len(m.Memories)
	if total > 1 {
		return fmt.Errorf("module declares %d memories, at most one is allowed", total)
	}
	for i, imp := range m.Imports {
		if imp.Desc.Kind == KindMemory && imp.Desc.Memory != nil {
			if err := validateMemoryType(imp.Desc.Memory, i, true); err != nil {
				return err
			}
		}
	}
	for i := range m.Memories {
		if err := validateMemoryType(&m.Memories[i], i, false); err != nil {
			return err
		}
	}
	return nil
}

func validateMemoryType(mem *MemoryType, idx int, isImport bool) error {
	maxPages := MemoryMaxPages32
	if mem.Limits.Memory64 {
		maxPages = MemoryMaxPages64
	}

	prefix := "memory"
	if isImport {
		prefix = "imported memory"
	}

	if mem.Limits.Shared && mem.Limits.Max == nil {
		return fmt.Errorf("%s %d: shared memory must have maximum limit", prefix, idx)
	}
	if mem.Limits.Min > maxPages {
		return fmt.Errorf("%s %d: min pages %d exceeds maximum %d",
			prefix, idx, mem.Limits.Min, maxPages)
	}
	if mem.Limits.Max != nil && *mem.Limits.Max > maxPages {
		return fmt.Errorf("%s %d: max pages %d exceeds maximum %d",
			prefix, idx, *mem.Limits.Max, maxPages)
	}
	return nil
}

func (m *Module) validateExports() error {
	numFuncs := uint32(m.NumFuncs())
	numMemories := uint32(m.NumImportedMemories() + len(m.Memories))

	seen := make(map[string]bool, len(m.Exports))
	for i, exp := range m.Exports {
		if seen[exp.Name] {
			return fmt.Errorf("duplicate export name %q at index %d", exp.Name, i)
		}
		seen[exp.Name] = true

		switch exp.Kind {
		case KindFunc:
			if exp.Idx >= numFuncs {
				return fmt.Errorf("export %d (%s) references invalid function index %d", i, exp.Name, exp.Idx)
			}
		case KindMemory:
			if exp.Idx >= numMemories {
				return fmt.Errorf("export %d (%s) references invalid memory index %d", i, exp.Name, exp.Idx)
			}
		default:
			return fmt.Errorf("export %d (%s) has unsupported kind %d", i, exp.Name, exp.Kind)
		}
	}
	return nil
}

func (m *Module) validateBodies() error {
	for i, body := range m.Code {
		if n := body.NumLocals(); n > MaxLocals {
			return fmt.Errorf("function %d declares %d locals (max %d)", i, n, MaxLocals)
		}
		if len(body.Code) == 0 || body.Code[len(body.Code)-1] != OpEnd {
			return fmt.Errorf("function %d body is not terminated by end", i)
		}
	}
	return nil
}
